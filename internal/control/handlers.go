package control

import (
	"context"

	"github.com/mfulz/setgeist/dispatch"
	"github.com/mfulz/setgeist/internal/acl"
	"github.com/mfulz/setgeist/internal/cluster"
	"github.com/mfulz/setgeist/internal/configsets"
	"github.com/mfulz/setgeist/internal/params"
	"github.com/mfulz/setgeist/protocol"
	"go.uber.org/zap"
)

// ServiceName is reported by system.ping.
const ServiceName = "setgeistd"

// RequestParams converts the wire parameters of req.
func RequestParams(req *protocol.Request) *params.Params {
	p := &params.Params{}
	for _, wp := range req.Params {
		p.Add(wp.Name, wp.Values...)
	}
	return p
}

// ConfigSetsPermission derives the permission of a configsets request.
func ConfigSetsPermission(req *protocol.Request) acl.Permission {
	return configsets.PermissionFor(RequestParams(req))
}

// ConfigSetsHandler runs configsets requests through h. Every response,
// failed or not, is marked non-cacheable.
func ConfigSetsHandler(h *configsets.Handler, log *zap.SugaredLogger) dispatch.HandlerFunc {
	return func(ctx context.Context, req *protocol.Request) *protocol.Response {
		env, err := h.Handle(ctx, &configsets.Request{
			Params:  RequestParams(req),
			Payload: req.Payload,
		})
		if err != nil {
			code := configsets.CodeOf(err)
			if code.Status() >= 500 {
				log.Errorf("[control] %s: configsets request of %s failed: %v", RequestID(ctx), extractUser(req), err)
			} else {
				log.Infof("[control] %s: configsets request of %s rejected (%s): %v", RequestID(ctx), extractUser(req), code, err)
			}
			resp := protocol.ErrorResponse(code.Status(), err.Error())
			resp.NoCache = true
			return resp
		}

		return &protocol.Response{
			Status:  protocol.StatusOK,
			Data:    env,
			NoCache: !env.HTTPCaching(),
		}
	}
}

// PingHandler reports the service and whether configset management is
// currently available on node.
func PingHandler(h *configsets.Handler, node *cluster.Node) dispatch.HandlerFunc {
	return func(_ context.Context, _ *protocol.Request) *protocol.Response {
		return &protocol.Response{
			Status: protocol.StatusOK,
			Data: protocol.PingResponse{
				Service:     ServiceName,
				Node:        node.Name(),
				Description: h.Description(),
				Coordinated: node.IsClusterCoordinated(),
			},
		}
	}
}

// NewDispatcher registers the daemon commands behind AuthMiddleware.
func NewDispatcher(a Authorizer, h *configsets.Handler, node *cluster.Node, log *zap.SugaredLogger) *dispatch.Dispatcher {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	perms := map[string]PermissionFunc{
		protocol.CmdConfigSets: ConfigSetsPermission,
	}
	d := dispatch.New(AuthMiddleware(a, perms, log))
	d.Register(protocol.CmdConfigSets, ConfigSetsHandler(h, log))
	d.Register(protocol.CmdPing, PingHandler(h, node))
	return d
}
