package configsets

import (
	"errors"
	"strings"

	"github.com/mfulz/setgeist/internal/params"
	"github.com/mfulz/setgeist/protocol"
)

// Properties collects every parameter whose name starts with prefix into a
// property map keyed by the name without the prefix. A single value maps to a
// string, several values to a []string in their original order. Later keys
// overwrite earlier ones.
func Properties(p *params.Params, prefix string) map[string]any {
	props := make(map[string]any)
	p.Each(func(name string, values []string) {
		if !strings.HasPrefix(name, prefix) {
			return
		}
		key := name[len(prefix):]
		if len(values) == 1 {
			props[key] = values[0]
			return
		}
		vals := make([]string, len(values))
		copy(vals, values)
		props[key] = vals
	})
	return props
}

// NewCreateRequest builds a CREATE request from raw parameters.
func NewCreateRequest(p *params.Params, cfg Config) (*CreateRequest, error) {
	cfg = cfg.normalized()

	name, _ := p.Get(protocol.ParamName)
	if name == "" {
		return nil, BadRequest("configset name not specified")
	}

	base, ok := p.Get(protocol.ParamBaseConfigSet)
	if !ok {
		base = cfg.DefaultConfigSet
	}

	return &CreateRequest{
		Name:          name,
		BaseConfigSet: base,
		Properties:    Properties(p, cfg.PropertyPrefix),
	}, nil
}

// NewUploadRequest builds an UPLOAD request from raw parameters and the
// request body.
func NewUploadRequest(p *params.Params, payload []byte) (*UploadRequest, error) {
	name, err := required(p, protocol.ParamName)
	if err != nil {
		return nil, err
	}

	overwrite, err := p.Bool(protocol.ParamOverwrite, false)
	if err != nil {
		return nil, BadRequest("%v", err)
	}
	cleanup, err := p.Bool(protocol.ParamCleanup, false)
	if err != nil {
		return nil, BadRequest("%v", err)
	}

	if len(payload) == 0 {
		return nil, BadRequest("configset content is empty")
	}

	return &UploadRequest{
		Name:      name,
		Overwrite: overwrite,
		Cleanup:   cleanup,
		FilePath:  p.GetDefault(protocol.ParamFilePath, ""),
		Payload:   payload,
	}, nil
}

// NewDeleteRequest builds a DELETE request from raw parameters.
func NewDeleteRequest(p *params.Params) (*DeleteRequest, error) {
	name, err := required(p, protocol.ParamName)
	if err != nil {
		return nil, err
	}
	return &DeleteRequest{Name: name}, nil
}

// required turns a missing parameter into a BadRequest.
func required(p *params.Params, name string) (string, error) {
	v, err := p.Required(name)
	if errors.Is(err, params.ErrMissing) {
		return "", BadRequest("missing required parameter: %s", name)
	}
	return v, err
}
