package control

import (
	"context"

	"github.com/mfulz/setgeist/dispatch"
	"github.com/mfulz/setgeist/internal/acl"
	"github.com/mfulz/setgeist/protocol"
	"go.uber.org/zap"
)

// Authorizer authenticates callers and checks their permissions.
// *acl.Engine implements it.
type Authorizer interface {
	Authenticate(auth *protocol.Auth) bool
	Can(user string, perm acl.Permission) bool
}

type globalACL struct{}

func (globalACL) Authenticate(auth *protocol.Auth) bool   { return acl.Authenticate(auth) }
func (globalACL) Can(user string, perm acl.Permission) bool { return acl.Can(user, perm) }

// GlobalACL delegates to the engine installed with acl.Init.
var GlobalACL Authorizer = globalACL{}

var _ Authorizer = (*acl.Engine)(nil)

// PermissionFunc derives the permission a request needs before it runs.
type PermissionFunc func(req *protocol.Request) acl.Permission

// extractUser returns the request auth user or "unauthenticated".
func extractUser(req *protocol.Request) string {
	if req.Auth != nil {
		return req.Auth.User
	}
	return "unauthenticated"
}

// AuthMiddleware rejects requests that fail authentication and requests
// whose user lacks the permission perms derives for the command. Commands
// without an entry, and requests resolving to acl.PermNone, only need to
// authenticate; the handler rejects them if they are malformed.
func AuthMiddleware(a Authorizer, perms map[string]PermissionFunc, log *zap.SugaredLogger) dispatch.Middleware {
	return func(command string, next dispatch.HandlerFunc) dispatch.HandlerFunc {
		permFn := perms[command]
		return func(ctx context.Context, req *protocol.Request) *protocol.Response {
			user := extractUser(req)
			if !a.Authenticate(req.Auth) {
				log.Warnf("[control] %s: authentication failed for %s", RequestID(ctx), user)
				return protocol.ErrorResponse(401, "authentication failed")
			}
			if permFn == nil {
				return next(ctx, req)
			}

			perm := permFn(req)
			if perm != acl.PermNone && !a.Can(user, perm) {
				log.Warnf("[control] %s: %s denied %s on %s", RequestID(ctx), user, perm, command)
				return protocol.ErrorResponse(403, "not allowed")
			}
			return next(ctx, req)
		}
	}
}
