// Package acl provides a simple role- and group-based access control layer
// for the setgeist control interface. Users authenticate with a token and
// gain permissions through roles, either directly or via group membership.
//
// Example usage:
//
//	acl.Init(cfg, acl.KnownPermissions())
//	if !acl.Can("userx", acl.PermConfigEdit) {
//		return errors.New("permission denied")
//	}
package acl

import (
	"fmt"
	"slices"

	"github.com/mfulz/setgeist/protocol"
)

// Permission defines a named right or capability.
type Permission string

const (
	// PermConfigEdit allows creating, deleting and uploading configsets.
	PermConfigEdit Permission = "config-edit"
	// PermConfigRead allows listing configsets.
	PermConfigRead Permission = "config-read"
	// PermNone means a request asserts no specific permission.
	// It is not a grant; see Engine.Can.
	PermNone Permission = ""
)

// KnownPermissions returns the permissions roles may reference.
func KnownPermissions() []Permission {
	return []Permission{PermConfigEdit, PermConfigRead}
}

// User defines a named user (e.g. login name).
type User struct {
	Name   string   `mapstructure:"name"`
	Roles  []string `mapstructure:"roles"`
	Token  string   `mapstructure:"token"`
	groups []string
}

// Group defines a named group of users.
type Group struct {
	Name    string   `mapstructure:"name"`
	Members []string `mapstructure:"members"`
	Roles   []string `mapstructure:"roles"`
}

// Role defines a named role, grouping one or more permissions.
type Role struct {
	Name        string       `mapstructure:"name"`
	Permissions []Permission `mapstructure:"permissions"`
}

// ACLConfig defines the global ACL structure loaded from config.
type ACLConfig struct {
	Enabled bool             `mapstructure:"enabled"`
	Users   map[string]User  `mapstructure:"users"`
	Groups  map[string]Group `mapstructure:"groups"`
	Roles   map[string]Role  `mapstructure:"roles"`
}

// Engine holds the evaluated ACL state.
type Engine struct {
	enabled bool
	users   map[string]User
	groups  map[string]Group
	roles   map[string]Role
}

// aclhandle is the globally accessible instance used by Can and Authenticate.
var aclhandle *Engine

// New validates cfg against perms and builds an Engine.
func New(cfg ACLConfig, perms []Permission) (*Engine, error) {
	pmap := make(map[Permission]struct{}, len(perms))
	for _, p := range perms {
		pmap[p] = struct{}{}
	}

	users := make(map[string]User, len(cfg.Users))
	for name, user := range cfg.Users {
		if user.Name == "" {
			user.Name = name
		}
		user.groups = nil
		users[name] = user
	}

	roles := make(map[string]Role, len(cfg.Roles))
	for roleName, role := range cfg.Roles {
		for _, perm := range role.Permissions {
			if _, ok := pmap[perm]; !ok {
				return nil, fmt.Errorf("invalid permission '%s' in role '%s'", perm, roleName)
			}
		}
		if role.Name == "" {
			role.Name = roleName
		}
		roles[roleName] = role
	}

	groups := make(map[string]Group, len(cfg.Groups))
	for name, group := range cfg.Groups {
		if group.Name == "" {
			group.Name = name
		}
		for _, member := range group.Members {
			u, ok := users[member]
			if !ok {
				return nil, fmt.Errorf("invalid user '%s' in group '%s'", member, group.Name)
			}
			u.groups = append(u.groups, group.Name)
			users[member] = u
		}
		groups[name] = group
	}

	return &Engine{
		enabled: cfg.Enabled,
		users:   users,
		groups:  groups,
		roles:   roles,
	}, nil
}

// Init initializes the global ACL engine from config.
func Init(cfg ACLConfig, perms []Permission) error {
	e, err := New(cfg, perms)
	if err != nil {
		return err
	}
	aclhandle = e
	return nil
}

// Can checks whether the given user holds perm using the global engine.
// An uninitialized engine rejects everything.
func Can(user string, perm Permission) bool {
	if aclhandle == nil {
		return false
	}
	return aclhandle.Can(user, perm)
}

// Authenticate checks the request credentials using the global engine.
func Authenticate(authReq *protocol.Auth) bool {
	if aclhandle == nil {
		return false
	}
	return aclhandle.Authenticate(authReq)
}

// Enabled reports whether access control is switched on.
func (e *Engine) Enabled() bool {
	return e.enabled
}

// Authenticate checks if the user uses the correct token.
// With ACLs disabled every request is accepted.
func (e *Engine) Authenticate(authReq *protocol.Auth) bool {
	if !e.enabled {
		return true
	}
	if authReq == nil {
		return false
	}
	u, ok := e.users[authReq.User]
	if !ok || u.Token == "" {
		return false
	}
	return u.Token == authReq.Token
}

// Can checks whether user holds perm through any of their roles.
// PermNone is never granted: callers decide how to treat a request that
// asserts no permission.
func (e *Engine) Can(user string, perm Permission) bool {
	if !e.enabled {
		return true
	}
	if perm == PermNone {
		return false
	}
	u, ok := e.users[user]
	if !ok {
		return false
	}

	for _, roleName := range e.userRoles(u) {
		if role, ok := e.roles[roleName]; ok {
			if slices.Contains(role.Permissions, perm) {
				return true
			}
		}
	}
	return false
}

// userRoles returns the user's own roles followed by those of its groups.
func (e *Engine) userRoles(user User) []string {
	var ret []string
	ret = append(ret, user.Roles...)
	for _, groupName := range user.groups {
		if group, ok := e.groups[groupName]; ok {
			ret = append(ret, group.Roles...)
		}
	}
	return ret
}
