package config

import (
	"fmt"
	"maps"
	"slices"

	"gopkg.in/yaml.v3"
)

// Module names accepted in task files.
const (
	ModuleHosts      = "hosts"
	ModuleRackspace  = "rax"
	ModuleCloudStack = "cloudstack"
)

var moduleNames = map[string]struct{}{
	ModuleHosts:      {},
	ModuleRackspace:  {},
	ModuleCloudStack: {},
}

// Modules returns the accepted module names in sorted order.
func Modules() []string {
	return slices.Sorted(maps.Keys(moduleNames))
}

// TaskFile is a list of one-shot reconciliations run in order.
type TaskFile struct {
	Tasks []Task `yaml:"tasks" toml:"tasks" validate:"required,min=1,dive"`
}

// Task is one module invocation.
type Task struct {
	Name   string         `yaml:"name,omitempty" toml:"name"`
	Module string         `yaml:"module" toml:"module" validate:"required,module"`
	Check  bool           `yaml:"check,omitempty" toml:"check"`
	Params map[string]any `yaml:"params,omitempty" toml:"params"`
}

// Label returns the task name or, when unnamed, its module.
func (t Task) Label() string {
	if t.Name != "" {
		return t.Name
	}
	return t.Module
}

// DecodeParams decodes the raw parameter map into out, a pointer to a
// module's parameter struct carrying yaml tags. Task files written in TOML
// and YAML both end up as a plain map, so one decoding path serves both.
func (t Task) DecodeParams(out any) error {
	if len(t.Params) == 0 {
		return nil
	}
	raw, err := yaml.Marshal(t.Params)
	if err != nil {
		return fmt.Errorf("encode params: %w", err)
	}
	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return fmt.Errorf("decode params: %w", err)
	}
	if err := node.Decode(out); err != nil {
		return fmt.Errorf("decode params: %w", err)
	}
	return nil
}
