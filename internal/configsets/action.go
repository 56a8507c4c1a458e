// Package configsets implements the configset management entry point of the
// daemon: it validates that the node may manage configsets, turns flat request
// parameters into typed per-action requests, routes them to the backing
// operations and squashes the result into a uniform response envelope.
// It also derives the permission a request needs without executing it.
package configsets

import (
	"strings"

	"github.com/mfulz/setgeist/protocol"
)

// Action is a configset management operation.
type Action uint8

const (
	ActionList Action = iota + 1
	ActionCreate
	ActionDelete
	ActionUpload
)

var actionTokens = map[Action]string{
	ActionList:   protocol.ActionList,
	ActionCreate: protocol.ActionCreate,
	ActionDelete: protocol.ActionDelete,
	ActionUpload: protocol.ActionUpload,
}

// Actions returns every known action.
func Actions() []Action {
	return []Action{ActionList, ActionCreate, ActionDelete, ActionUpload}
}

// String returns the wire token of the action.
func (a Action) String() string {
	if s, ok := actionTokens[a]; ok {
		return s
	}
	return "UNKNOWN"
}

// ParseAction resolves a case-insensitive action token.
func ParseAction(token string) (Action, error) {
	for _, a := range Actions() {
		if strings.EqualFold(token, actionTokens[a]) {
			return a, nil
		}
	}
	return 0, BadRequest("unknown action: %s", token)
}
