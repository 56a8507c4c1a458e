// Package params holds the raw request parameters handed over by the control
// transport: an ordered mapping from parameter name to one or more string
// values. Names are unique; adding a value to an existing name appends to it.
package params

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrMissing is returned by the required accessors when a parameter is absent.
var ErrMissing = errors.New("missing required parameter")

// Params is an ordered multi-valued parameter set. The zero value is empty
// and ready to use.
type Params struct {
	names  []string
	values map[string][]string
}

// New creates a parameter set from alternating name/value pairs.
// A trailing name without a value is ignored.
func New(pairs ...string) *Params {
	p := &Params{}
	for i := 0; i+1 < len(pairs); i += 2 {
		p.Add(pairs[i], pairs[i+1])
	}
	return p
}

// Add appends a value for name, keeping the position of the first occurrence.
func (p *Params) Add(name string, values ...string) {
	if p.values == nil {
		p.values = make(map[string][]string)
	}
	if _, ok := p.values[name]; !ok {
		p.names = append(p.names, name)
		p.values[name] = []string{}
	}
	p.values[name] = append(p.values[name], values...)
}

// Len returns the number of distinct parameter names.
func (p *Params) Len() int {
	if p == nil {
		return 0
	}
	return len(p.names)
}

// Names returns the parameter names in insertion order.
func (p *Params) Names() []string {
	if p == nil {
		return nil
	}
	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}

// Values returns all values of name, or nil when absent.
func (p *Params) Values(name string) []string {
	if p == nil {
		return nil
	}
	return p.values[name]
}

// Get returns the first value of name and whether the parameter was present.
func (p *Params) Get(name string) (string, bool) {
	vals := p.Values(name)
	if len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

// GetDefault returns the first value of name, or def when absent.
func (p *Params) GetDefault(name, def string) string {
	if v, ok := p.Get(name); ok {
		return v
	}
	return def
}

// Required returns the first value of name or ErrMissing.
func (p *Params) Required(name string) (string, error) {
	v, ok := p.Get(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissing, name)
	}
	return v, nil
}

// Bool parses name as a boolean, returning def when absent.
func (p *Params) Bool(name string, def bool) (bool, error) {
	v, ok := p.Get(name)
	if !ok || v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("invalid boolean value %q for parameter %s", v, name)
	}
	return b, nil
}

// Each calls fn for every parameter in insertion order.
func (p *Params) Each(fn func(name string, values []string)) {
	if p == nil {
		return
	}
	for _, n := range p.names {
		fn(n, p.values[n])
	}
}
