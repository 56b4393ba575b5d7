package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// CommandConfig declares a host command the "cmd" action may run.
type CommandConfig struct {
	Name        string            `yaml:"name" json:"name"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	Description string            `yaml:"description" json:"description"`
}

// ConfigFile represents the structure of commands.yaml.
type ConfigFile struct {
	Commands []CommandConfig `yaml:"commands" json:"commands"`
}

// LoadCommands reads a configuration file (YAML or JSON) and returns the
// commands keyed by name. A missing file yields an empty allow-list.
func LoadCommands(path string) (map[string]CommandConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]CommandConfig{}, nil
		}
		return nil, fmt.Errorf("failed to read commands config: %w", err)
	}

	var cfg ConfigFile
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	commands := make(map[string]CommandConfig)
	for _, c := range cfg.Commands {
		if c.Name == "" {
			continue
		}
		commands[c.Name] = c
	}
	return commands, nil
}
