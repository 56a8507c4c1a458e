package configsets

import (
	"context"

	"github.com/mfulz/setgeist/internal/params"
	"github.com/mfulz/setgeist/protocol"
	"go.uber.org/zap"
)

// Request is a single configset request as delivered by the transport.
type Request struct {
	Params  *params.Params
	Payload []byte
}

// Handler dispatches configset requests to Operations.
// It holds no per-request state and may serve concurrent requests.
type Handler struct {
	host Host
	ops  Operations
	cfg  Config
	log  *zap.SugaredLogger
}

// Option customizes a Handler.
type Option func(*Handler)

// WithLogger sets the logger used for debug tracing of dispatches.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(h *Handler) {
		if log != nil {
			h.log = log
		}
	}
}

// NewHandler creates a handler bound to host and ops.
func NewHandler(host Host, ops Operations, cfg Config, opts ...Option) *Handler {
	h := &Handler{
		host: host,
		ops:  ops,
		cfg:  cfg.normalized(),
		log:  zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Description returns a short human readable summary of the handler.
func (h *Handler) Description() string {
	return "Manage cluster configuration sets"
}

// Config returns the effective handler configuration.
func (h *Handler) Config() Config {
	return h.cfg
}

// CheckPreconditions verifies that host can serve configset requests.
func CheckPreconditions(host Host) error {
	if host == nil {
		return ConfigurationError("host reference missing")
	}
	if !host.IsClusterCoordinated() {
		return ConfigurationError("not in cluster-coordinated mode")
	}
	return nil
}

// Handle validates req, runs exactly one operation and returns its result
// squashed into a non-cacheable envelope. Nothing runs when validation fails.
func (h *Handler) Handle(ctx context.Context, req *Request) (*Envelope, error) {
	if err := CheckPreconditions(h.host); err != nil {
		return nil, err
	}

	var p *params.Params
	var payload []byte
	if req != nil {
		p, payload = req.Params, req.Payload
	}

	token, err := required(p, protocol.ParamAction)
	if err != nil {
		return nil, err
	}
	action, err := ParseAction(token)
	if err != nil {
		return nil, err
	}

	h.log.Debugf("[configsets] dispatching %s", action)

	result, err := h.dispatch(ctx, action, p, payload)
	if err != nil {
		return nil, err
	}

	env := NewEnvelope()
	if err := env.Squash(result); err != nil {
		return nil, err
	}
	env.SetHTTPCaching(false)
	return env, nil
}

func (h *Handler) dispatch(ctx context.Context, action Action, p *params.Params, payload []byte) (any, error) {
	switch action {
	case ActionDelete:
		req, err := NewDeleteRequest(p)
		if err != nil {
			return nil, err
		}
		return h.ops.DeleteConfigSet(ctx, req.Name)

	case ActionUpload:
		req, err := NewUploadRequest(p, payload)
		if err != nil {
			return nil, err
		}
		if !req.SingleFile() {
			return h.ops.UploadConfigSet(ctx, req.Name, req.Overwrite, req.Cleanup, req.Payload)
		}
		return h.ops.UploadConfigSetFile(ctx, req.Name, req.FilePath, req.Overwrite, req.Cleanup, req.Payload)

	case ActionList:
		return h.ops.ListConfigSets(ctx)

	case ActionCreate:
		req, err := NewCreateRequest(p, h.cfg)
		if err != nil {
			return nil, err
		}
		return h.ops.CloneExistingConfigSet(ctx, req)

	default:
		return nil, InvariantViolation("unexpected configset action: %d", uint8(action))
	}
}
