package dataset

import (
	"fmt"
	"strings"
)

// Variable maps a short request key to the source column holding its values.
type Variable struct {
	Key    string `yaml:"key" json:"key"`
	Column string `yaml:"column" json:"column"`
}

// DefaultVariables returns the three variables recognized by the reference deployment.
func DefaultVariables() []Variable {
	return []Variable{
		{Key: "pm25", Column: "PM25"},
		{Key: "temp", Column: "temperatura"},
		{Key: "hum", Column: "wilgotnosc"},
	}
}

// Registry is the static, ordered set of recognized variables.
type Registry struct {
	vars  []Variable
	byKey map[string]Variable
}

// NewRegistry validates vars and returns a Registry. Keys are matched case-insensitively.
func NewRegistry(vars []Variable) (*Registry, error) {
	if len(vars) == 0 {
		return nil, fmt.Errorf("variable registry is empty")
	}
	r := &Registry{
		vars:  make([]Variable, 0, len(vars)),
		byKey: make(map[string]Variable, len(vars)),
	}
	for _, v := range vars {
		key := normalizeKey(v.Key)
		col := strings.TrimSpace(v.Column)
		if key == "" || col == "" {
			return nil, fmt.Errorf("variable %q: key and column are required", v.Key)
		}
		if _, dup := r.byKey[key]; dup {
			return nil, fmt.Errorf("variable %q registered twice", key)
		}
		v = Variable{Key: key, Column: col}
		r.vars = append(r.vars, v)
		r.byKey[key] = v
	}
	return r, nil
}

// Lookup resolves a request key. Returns an error wrapping ErrInvalidVariable when unknown.
func (r *Registry) Lookup(key string) (Variable, error) {
	v, ok := r.byKey[normalizeKey(key)]
	if !ok {
		return Variable{}, fmt.Errorf("%w: %q", ErrInvalidVariable, key)
	}
	return v, nil
}

// Keys returns variable keys in registration order.
func (r *Registry) Keys() []string {
	keys := make([]string, len(r.vars))
	for i, v := range r.vars {
		keys[i] = v.Key
	}
	return keys
}

// Variables returns a copy of the registered variables.
func (r *Registry) Variables() []Variable {
	out := make([]Variable, len(r.vars))
	copy(out, r.vars)
	return out
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
