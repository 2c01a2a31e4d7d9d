package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	convergoerrors "github.com/alexisbeaulieu97/convergo/pkg/errors"
)

// ValidateStruct runs tag validation on v and converts the first failure
// into a ValidationError named after the offending parameter.
func ValidateStruct(v any) error {
	if err := validatorInstance().Struct(v); err != nil {
		return convertValidationError(err)
	}
	return nil
}

// ValidateTaskFile performs schema and cross-task validation.
func ValidateTaskFile(tf *TaskFile) error {
	if tf == nil {
		return convergoerrors.NewValidationError("tasks", "task file is nil", nil)
	}

	if err := ValidateStruct(tf); err != nil {
		return err
	}

	seen := make(map[string]int, len(tf.Tasks))
	for i, task := range tf.Tasks {
		if task.Name == "" {
			continue
		}
		if prev, ok := seen[task.Name]; ok {
			return convergoerrors.NewValidationError(fieldForTask(i, "name"), fmt.Sprintf("duplicate task name %q (first used by tasks[%d])", task.Name, prev), nil)
		}
		seen[task.Name] = i
	}
	return nil
}

func convertValidationError(err error) error {
	if err == nil {
		return nil
	}

	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		ve := ves[0]
		field := paramName(ve)
		msg := fmt.Sprintf("failed validation for tag '%s'", ve.Tag())
		if ve.Param() != "" {
			msg = fmt.Sprintf("failed validation for tag '%s=%s'", ve.Tag(), ve.Param())
		}
		return convergoerrors.NewValidationError(field, msg, err)
	}

	return convergoerrors.NewValidationError("", err.Error(), err)
}

// paramName drops the root struct name from the namespace, so
// "Desired.hostname" becomes "hostname" and "TaskFile.tasks[0].module"
// becomes "tasks[0].module".
func paramName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return fe.Field()
}

func fieldForTask(index int, field string) string {
	return fmt.Sprintf("tasks[%d].%s", index, field)
}
