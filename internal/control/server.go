// Package control implements the setgeistd side of the control interface:
// listeners on unix sockets or TCP that decode newline-delimited JSON
// requests, authorize them and hand them to the dispatcher.
package control

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/mfulz/setgeist/dispatch"
	"github.com/mfulz/setgeist/internal/configd"
	"github.com/mfulz/setgeist/protocol"
	"go.uber.org/zap"
)

type requestIDKey struct{}

// WithRequestID returns ctx carrying id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request id stored in ctx, or "-".
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return "-"
}

// Server accepts control connections and dispatches their requests.
type Server struct {
	dispatcher *dispatch.Dispatcher
	log        *zap.SugaredLogger

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	listeners []net.Listener
	conns     map[net.Conn]struct{}
	wg        sync.WaitGroup
}

// NewServer creates a server for d.
func NewServer(d *dispatch.Dispatcher, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		dispatcher: d,
		log:        log,
		ctx:        ctx,
		cancel:     cancel,
		conns:      make(map[net.Conn]struct{}),
	}
}

// Listen opens the listener of inst and serves it in the background.
func (s *Server) Listen(inst configd.ControlInstance) (net.Listener, error) {
	var l net.Listener
	var err error

	switch inst.Mode {
	case "unix":
		if err := os.MkdirAll(filepath.Dir(inst.Listen), 0o755); err != nil {
			return nil, fmt.Errorf("[control] %s: create socket dir: %w", inst.Name, err)
		}
		if _, err := os.Stat(inst.Listen); err == nil {
			_ = os.Remove(inst.Listen)
		}
		l, err = net.Listen("unix", inst.Listen)
		if err == nil {
			_ = os.Chmod(inst.Listen, 0o660)
		}
	case "tcp":
		l, err = net.Listen("tcp", inst.Listen)
	default:
		return nil, fmt.Errorf("[control] %s: unsupported mode %q", inst.Name, inst.Mode)
	}
	if err != nil {
		return nil, fmt.Errorf("[control] %s: listen on %s: %w", inst.Name, inst.Listen, err)
	}

	s.log.Infof("[control] %s listening on %s %s", inst.Name, inst.Mode, l.Addr())
	s.track(l)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.accept(l); err != nil {
			s.log.Errorf("[control] %s stopped: %v", inst.Name, err)
		}
	}()
	return l, nil
}

// Serve accepts connections on l until it is closed.
func (s *Server) Serve(l net.Listener) error {
	s.track(l)
	return s.accept(l)
}

func (s *Server) track(l net.Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

func (s *Server) accept(l net.Listener) error {
	for {
		conn, err := l.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer func() {
				s.mu.Lock()
				delete(s.conns, conn)
				s.mu.Unlock()
			}()
			s.ServeConn(conn)
		}()
	}
}

// ServeConn handles requests on conn until the client closes it or sends
// an undecodable request.
func (s *Server) ServeConn(conn net.Conn) {
	defer conn.Close()
	reader := bufio.NewReader(conn)

	for {
		req, err := protocol.ReadRequest(reader)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.Warnf("[control] invalid request: %v", err)
			_ = protocol.WriteResponse(conn, protocol.ErrorResponse(400, err.Error()))
			return
		}

		id := uuid.NewString()
		ctx := WithRequestID(s.ctx, id)
		s.log.Debugf("[control] %s: %s from %s", id, req.Type, extractUser(req))

		resp := s.dispatcher.Dispatch(ctx, req)
		resp.RequestID = id
		if err := protocol.WriteResponse(conn, resp); err != nil {
			s.log.Warnf("[control] %s: write response: %v", id, err)
			return
		}
	}
}

// Close stops all listeners, cancels running requests, closes open
// connections and waits for their handlers to return.
func (s *Server) Close() error {
	s.cancel()

	s.mu.Lock()
	var errs []error
	for _, l := range s.listeners {
		if err := l.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, err)
		}
	}
	s.listeners = nil
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	return errors.Join(errs...)
}
