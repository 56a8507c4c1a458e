// Package controlcli handles daemon communication and request encoding for
// setgeistctl.
package controlcli

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/mfulz/setgeist/internal/configcli"
	"github.com/mfulz/setgeist/protocol"
)

// DefaultTimeout bounds dialing and a single request round trip.
const DefaultTimeout = 30 * time.Second

// Target selects the daemon and identity a request is sent with.
type Target struct {
	Daemon  string        // configured daemon name
	User    string        // configured user name
	Addr    string        // direct address, overrides Daemon
	Token   string        // token used with Addr
	Timeout time.Duration // zero selects DefaultTimeout
}

// ResponseError is a failed daemon response.
type ResponseError struct {
	Code      int
	Msg       string
	RequestID string
}

func (e *ResponseError) Error() string {
	if e.Code == 0 {
		return e.Msg
	}
	return fmt.Sprintf("%s (code %d)", e.Msg, e.Code)
}

// SendCommandWithAuth sends req to a configured daemon as a configured user.
func SendCommandWithAuth(cfg *configcli.Config, daemonName, userName string, req *protocol.Request, timeout time.Duration) (*protocol.Response, error) {
	daemon, err := cfg.Daemon(daemonName)
	if err != nil {
		return nil, err
	}
	userName, user, err := cfg.User(userName)
	if err != nil {
		return nil, err
	}

	req.Auth = &protocol.Auth{User: userName, Token: user.Token}

	switch {
	case daemon.Socket != "":
		return roundTrip("unix", daemon.Socket, req, timeout)
	case daemon.TCP != "":
		return roundTrip("tcp", daemon.TCP, req, timeout)
	}
	return nil, fmt.Errorf("invalid daemon config: no socket or tcp defined")
}

// SendDirectCommand sends req to addr, bypassing the client config. Paths
// and "unix:" addresses select a unix socket, anything else TCP.
func SendDirectCommand(addr, user, token string, req *protocol.Request, timeout time.Duration) (*protocol.Response, error) {
	req.Auth = &protocol.Auth{User: user, Token: token}
	network, address := splitAddr(addr)
	return roundTrip(network, address, req, timeout)
}

func splitAddr(addr string) (string, string) {
	switch {
	case strings.HasPrefix(addr, "unix:"):
		return "unix", strings.TrimPrefix(addr, "unix:")
	case strings.HasPrefix(addr, "tcp:"):
		return "tcp", strings.TrimPrefix(addr, "tcp:")
	case strings.HasPrefix(addr, "/"), strings.HasPrefix(addr, "."):
		return "unix", addr
	}
	return "tcp", addr
}

func roundTrip(network, address string, req *protocol.Request, timeout time.Duration) (*protocol.Response, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	conn, err := net.DialTimeout(network, address, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s %s: %w", network, address, err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(timeout))

	if err := protocol.WriteRequest(conn, req); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	resp, err := protocol.ReadResponse(bufio.NewReader(conn))
	if err != nil {
		return nil, fmt.Errorf("invalid response: %w", err)
	}
	return resp, nil
}

// Exec sends req to the daemon selected by t and turns error responses
// into *ResponseError.
func Exec(cfg *configcli.Config, t Target, req *protocol.Request) (*protocol.Response, error) {
	var resp *protocol.Response
	var err error

	if t.Addr != "" {
		resp, err = SendDirectCommand(t.Addr, t.User, t.Token, req, t.Timeout)
	} else {
		if cfg == nil {
			return nil, fmt.Errorf("no client config loaded and no address given")
		}
		resp, err = SendCommandWithAuth(cfg, t.Daemon, t.User, req, t.Timeout)
	}
	if err != nil {
		return nil, err
	}
	if resp.Status != protocol.StatusOK {
		return resp, &ResponseError{Code: resp.Code, Msg: resp.Error, RequestID: resp.RequestID}
	}
	return resp, nil
}
