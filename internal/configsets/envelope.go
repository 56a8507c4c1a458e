package configsets

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// headerKey is the per-operation status block dropped when squashing;
// the transport owns the top-level status.
const headerKey = "responseHeader"

// Envelope is the uniform response of every configset action.
type Envelope struct {
	keys        []string
	values      map[string]json.RawMessage
	httpCaching bool
}

// NewEnvelope returns an empty, cacheable envelope.
func NewEnvelope() *Envelope {
	return &Envelope{
		values:      make(map[string]json.RawMessage),
		httpCaching: true,
	}
}

// Squash copies the top-level fields of result into the envelope, in
// field order, without the result's response header.
func (e *Envelope) Squash(result any) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("decode result: expected object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decode result: %w", err)
		}
		key, _ := tok.(string)

		var val json.RawMessage
		if err := dec.Decode(&val); err != nil {
			return fmt.Errorf("decode result: %w", err)
		}
		if key == headerKey {
			continue
		}
		e.Set(key, val)
	}
	return nil
}

// Set stores a raw JSON value under key.
func (e *Envelope) Set(key string, val json.RawMessage) {
	if e.values == nil {
		e.values = make(map[string]json.RawMessage)
	}
	if _, ok := e.values[key]; !ok {
		e.keys = append(e.keys, key)
	}
	e.values[key] = val
}

// Get returns the raw JSON value of key.
func (e *Envelope) Get(key string) (json.RawMessage, bool) {
	v, ok := e.values[key]
	return v, ok
}

// Keys returns the envelope keys in insertion order.
func (e *Envelope) Keys() []string {
	out := make([]string, len(e.keys))
	copy(out, e.keys)
	return out
}

// SetHTTPCaching marks whether clients may cache the response.
func (e *Envelope) SetHTTPCaching(enabled bool) {
	e.httpCaching = enabled
}

// HTTPCaching reports whether clients may cache the response.
func (e *Envelope) HTTPCaching() bool {
	return e.httpCaching
}

// Decode unmarshals the envelope contents into out.
func (e *Envelope) Decode(out any) error {
	raw, err := e.MarshalJSON()
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// MarshalJSON encodes the envelope as an object in key order.
func (e *Envelope) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range e.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(e.values[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
