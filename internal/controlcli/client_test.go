package controlcli

import (
	"context"
	"errors"
	"testing"

	"github.com/mfulz/setgeist/internal/acl"
	"github.com/mfulz/setgeist/internal/cluster"
	"github.com/mfulz/setgeist/internal/configcli"
	"github.com/mfulz/setgeist/internal/configd"
	"github.com/mfulz/setgeist/internal/configsets"
	"github.com/mfulz/setgeist/internal/control"
	"github.com/mfulz/setgeist/internal/store"
	"github.com/stretchr/testify/require"
)

// startDaemon runs a control server on loopback and returns a client
// config pointing at it.
func startDaemon(t *testing.T) (*configcli.Config, *store.Store) {
	t.Helper()
	r := require.New(t)

	engine, err := acl.New(acl.ACLConfig{
		Enabled: true,
		Users: map[string]acl.User{
			"admin": {Token: "secret", Roles: []string{"editor"}},
		},
		Roles: map[string]acl.Role{
			"editor": {Permissions: acl.KnownPermissions()},
		},
	}, acl.KnownPermissions())
	r.NoError(err)

	st, err := store.Open(context.Background(), store.Options{
		DSN:              "file::memory:",
		DefaultConfigSet: configsets.DefaultConfigSetName,
	})
	r.NoError(err)

	node := cluster.NewNode(cluster.Config{Enabled: true, Coordinators: []string{"zk:2181"}})
	h := configsets.NewHandler(node, st, configsets.DefaultConfig())
	srv := control.NewServer(control.NewDispatcher(engine, h, node, nil), nil)

	l, err := srv.Listen(configd.ControlInstance{Name: "test", Enabled: true, Mode: "tcp", Listen: "127.0.0.1:0"})
	r.NoError(err)
	t.Cleanup(func() {
		_ = srv.Close()
		_ = st.Close()
	})

	return &configcli.Config{
		Users:   map[string]configcli.UserConfig{"admin": {Token: "secret"}},
		Daemons: map[string]configcli.DaemonConfig{"local": {TCP: l.Addr().String()}},
	}, st
}

func TestConfigSetCommands(t *testing.T) {
	r := require.New(t)
	cfg, st := startDaemon(t)
	target := Target{}

	ping, err := Ping(cfg, target)
	r.NoError(err)
	r.True(ping.Coordinated)

	created, err := CreateConfigSet(cfg, target, CreateOptions{
		Name:       "films",
		Properties: map[string][]string{"owner": {"search"}, "tags": {"a", "b"}},
	})
	r.NoError(err)
	r.Equal("_default", created.BaseConfigSet)

	props, err := st.Properties(context.Background(), "films")
	r.NoError(err)
	r.Equal(map[string]any{"owner": "search", "tags": []any{"a", "b"}}, props)

	uploaded, err := UploadConfigSet(cfg, target, UploadOptions{
		Name:      "films",
		FilePath:  "stopwords.txt",
		Overwrite: true,
		Payload:   []byte("a\nthe\n"),
	})
	r.NoError(err)
	r.Equal([]string{"stopwords.txt"}, uploaded.Files)
	r.False(uploaded.Created)

	names, err := ListConfigSets(cfg, target)
	r.NoError(err)
	r.Equal([]string{"_default", "films"}, names)

	r.NoError(DeleteConfigSet(cfg, target, "films"))

	err = DeleteConfigSet(cfg, target, "films")
	var respErr *ResponseError
	r.True(errors.As(err, &respErr))
	r.Equal(404, respErr.Code)
	r.NotEmpty(respErr.RequestID)
}

func TestDirectAddressAndBadToken(t *testing.T) {
	r := require.New(t)
	cfg, _ := startDaemon(t)
	addr := cfg.Daemons["local"].TCP

	names, err := ListConfigSets(nil, Target{Addr: "tcp:" + addr, User: "admin", Token: "secret"})
	r.NoError(err)
	r.Equal([]string{"_default"}, names)

	_, err = ListConfigSets(nil, Target{Addr: addr, User: "admin", Token: "nope"})
	var respErr *ResponseError
	r.True(errors.As(err, &respErr))
	r.Equal(401, respErr.Code)

	_, err = ListConfigSets(nil, Target{})
	r.Error(err)
}

func TestSplitAddr(t *testing.T) {
	tests := map[string][2]string{
		"unix:/run/s.sock":    {"unix", "/run/s.sock"},
		"/run/s.sock":         {"unix", "/run/s.sock"},
		"./s.sock":            {"unix", "./s.sock"},
		"tcp:127.0.0.1:7777":  {"tcp", "127.0.0.1:7777"},
		"daemon.example:7777": {"tcp", "daemon.example:7777"},
	}
	for in, want := range tests {
		network, address := splitAddr(in)
		require.Equal(t, want, [2]string{network, address}, in)
	}
}
