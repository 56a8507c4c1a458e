// Package dispatch provides the command registry of the setgeist daemon.
package dispatch

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mfulz/setgeist/protocol"
)

// HandlerFunc handles one decoded request.
type HandlerFunc func(ctx context.Context, req *protocol.Request) *protocol.Response

// Middleware wraps a handler, e.g. to authenticate requests.
type Middleware func(command string, next HandlerFunc) HandlerFunc

// Dispatcher maps command strings to their handlers.
type Dispatcher struct {
	mu         sync.RWMutex
	handlers   map[string]HandlerFunc
	middleware []Middleware
}

// New creates a Dispatcher. Middleware is applied to every handler in the
// given order, the first one being outermost.
func New(mw ...Middleware) *Dispatcher {
	return &Dispatcher{
		handlers:   make(map[string]HandlerFunc),
		middleware: mw,
	}
}

// Register binds a command to a handler, replacing any previous binding.
func (d *Dispatcher) Register(command string, handler HandlerFunc) {
	for i := len(d.middleware) - 1; i >= 0; i-- {
		handler = d.middleware[i](command, handler)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[command] = handler
}

// Commands returns the registered commands in lexical order.
func (d *Dispatcher) Commands() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]string, 0, len(d.handlers))
	for cmd := range d.handlers {
		out = append(out, cmd)
	}
	sort.Strings(out)
	return out
}

// Dispatch executes the handler registered for req.Type.
func (d *Dispatcher) Dispatch(ctx context.Context, req *protocol.Request) *protocol.Response {
	if req == nil {
		return protocol.ErrorResponse(400, "empty request")
	}

	d.mu.RLock()
	handler, ok := d.handlers[req.Type]
	d.mu.RUnlock()

	if !ok {
		return protocol.ErrorResponse(400, fmt.Sprintf("unknown command: %s", req.Type))
	}

	resp := handler(ctx, req)
	if resp == nil {
		return protocol.ErrorResponse(500, fmt.Sprintf("command %s returned no response", req.Type))
	}
	return resp
}
