package configsets

import (
	"github.com/mfulz/setgeist/internal/acl"
	"github.com/mfulz/setgeist/internal/params"
	"github.com/mfulz/setgeist/protocol"
)

// ResolvePermission returns the permission an action requires.
func ResolvePermission(a Action) acl.Permission {
	switch a {
	case ActionCreate, ActionDelete, ActionUpload:
		return acl.PermConfigEdit
	case ActionList:
		return acl.PermConfigRead
	default:
		return acl.PermNone
	}
}

// PermissionFor derives the permission a request needs from its action
// parameter alone. Missing or unknown actions yield acl.PermNone.
func PermissionFor(p *params.Params) acl.Permission {
	token, ok := p.Get(protocol.ParamAction)
	if !ok {
		return acl.PermNone
	}
	a, err := ParseAction(token)
	if err != nil {
		return acl.PermNone
	}
	return ResolvePermission(a)
}
