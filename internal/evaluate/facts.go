package evaluate

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseFact parses "actor.predicate=true". A bare key means true.
func ParseFact(s string) (string, bool, error) {
	key, raw, found := strings.Cut(s, "=")
	key = strings.TrimSpace(key)
	if key == "" {
		return "", false, fmt.Errorf("fact %q: empty key", s)
	}
	if !found {
		return key, true, nil
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return "", false, fmt.Errorf("fact %q: value must be true or false", s)
	}
	return key, v, nil
}

// ParseFacts parses a list of facts; later entries override earlier ones.
func ParseFacts(args []string) (Facts, error) {
	facts := Facts{}
	for _, a := range args {
		k, v, err := ParseFact(a)
		if err != nil {
			return nil, err
		}
		facts[k] = v
	}
	return facts, nil
}

// LoadFacts reads a YAML mapping of "actor.predicate" to bool.
func LoadFacts(path string) (Facts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading facts: %w", err)
	}
	facts := Facts{}
	if len(bytes.TrimSpace(data)) == 0 {
		return facts, nil
	}
	if err := yaml.Unmarshal(data, &facts); err != nil {
		return nil, fmt.Errorf("parsing facts %s: %w", path, err)
	}
	return facts, nil
}
