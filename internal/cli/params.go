package cli

import (
	"fmt"
	"strings"

	"github.com/aretw0/aware/pkg/domain"
	"gopkg.in/yaml.v3"
)

// ParseParams turns key=value pairs into parameters. Values are read as YAML
// scalars, so numbers and booleans keep their type; "cmd=look at me" stays a string.
func ParseParams(pairs []string) (domain.Params, error) {
	params := domain.Params{}
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q: expected key=value", pair)
		}
		var value any
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil || value == nil {
			value = raw
		}
		if _, isMap := value.(map[string]any); isMap {
			value = raw
		}
		if _, isList := value.([]any); isList {
			value = raw
		}
		params[key] = value
	}
	return params, nil
}
