package tags

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed aliases.yaml
var aliasData []byte

// Aliases maps alternate tag spellings to canonical tag names.
type Aliases struct {
	table map[string]string
}

// LoadAliases parses the embedded alias table and merges extra over it.
func LoadAliases(extra map[string]string) (*Aliases, error) {
	raw := map[string]string{}
	if err := yaml.Unmarshal(aliasData, &raw); err != nil {
		return nil, fmt.Errorf("parsing tag aliases: %w", err)
	}
	a := &Aliases{table: make(map[string]string, len(raw)+len(extra))}
	for k, v := range raw {
		a.table[strings.ToLower(k)] = strings.ToLower(v)
	}
	for k, v := range extra {
		a.table[strings.ToLower(k)] = strings.ToLower(v)
	}
	return a, nil
}

// DefaultAliases returns the embedded alias table.
func DefaultAliases() *Aliases {
	a, err := LoadAliases(nil)
	if err != nil {
		panic(err)
	}
	return a
}

// Canonical returns the canonical name for tag.
func (a *Aliases) Canonical(tag string) string {
	name := strings.ToLower(strings.TrimSpace(tag))
	if a == nil {
		return name
	}
	if c, ok := a.table[name]; ok {
		return c
	}
	return name
}
