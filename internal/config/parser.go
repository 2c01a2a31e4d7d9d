package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	convergoerrors "github.com/alexisbeaulieu97/convergo/pkg/errors"
)

var yamlLineRegex = regexp.MustCompile(`line (\d+)`)

// ParseTaskFile loads a task file from disk, validates it and returns the
// resulting model. The format is chosen by extension: .toml is TOML,
// anything else is YAML.
func ParseTaskFile(path string) (*TaskFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, convergoerrors.NewParseError(path, 0, err)
	}

	var tf TaskFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), &tf); err != nil {
			return nil, convergoerrors.NewParseError(path, tomlLine(err), err)
		}
	default:
		if err := yaml.Unmarshal(data, &tf); err != nil {
			return nil, convergoerrors.NewParseError(path, extractLine(err), err)
		}
	}

	if err := ValidateTaskFile(&tf); err != nil {
		return nil, err
	}

	return &tf, nil
}

func extractLine(err error) int {
	if err == nil {
		return 0
	}

	matches := yamlLineRegex.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return 0
	}

	var line int
	_, scanErr := fmt.Sscanf(matches[1], "%d", &line)
	if scanErr != nil {
		return 0
	}

	return line
}

func tomlLine(err error) int {
	if perr, ok := err.(toml.ParseError); ok {
		return perr.Position.Line
	}
	return 0
}
