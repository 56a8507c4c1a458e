package acl

import (
	"testing"

	"github.com/mfulz/setgeist/protocol"
	"github.com/stretchr/testify/require"
)

func testConfig() ACLConfig {
	return ACLConfig{
		Enabled: true,
		Users: map[string]User{
			"admin":  {Token: "secret", Roles: []string{"editor"}},
			"viewer": {Token: "view"},
			"nobody": {Token: "none"},
		},
		Groups: map[string]Group{
			"readers": {Members: []string{"viewer"}, Roles: []string{"reader"}},
		},
		Roles: map[string]Role{
			"editor": {Permissions: []Permission{PermConfigEdit, PermConfigRead}},
			"reader": {Permissions: []Permission{PermConfigRead}},
		},
	}
}

func TestNewRejectsUnknownPermission(t *testing.T) {
	cfg := testConfig()
	cfg.Roles["bad"] = Role{Permissions: []Permission{"proxy_start"}}

	_, err := New(cfg, KnownPermissions())
	require.ErrorContains(t, err, "invalid permission")
}

func TestNewRejectsUnknownGroupMember(t *testing.T) {
	cfg := testConfig()
	cfg.Groups["ghosts"] = Group{Members: []string{"casper"}}

	_, err := New(cfg, KnownPermissions())
	require.ErrorContains(t, err, "invalid user 'casper'")
}

func TestCan(t *testing.T) {
	e, err := New(testConfig(), KnownPermissions())
	require.NoError(t, err)

	tests := []struct {
		user string
		perm Permission
		want bool
	}{
		{"admin", PermConfigEdit, true},
		{"admin", PermConfigRead, true},
		{"viewer", PermConfigRead, true},
		{"viewer", PermConfigEdit, false},
		{"nobody", PermConfigRead, false},
		{"stranger", PermConfigRead, false},
		{"admin", PermNone, false},
	}
	for _, tt := range tests {
		t.Run(tt.user+"/"+string(tt.perm), func(t *testing.T) {
			require.Equal(t, tt.want, e.Can(tt.user, tt.perm))
		})
	}
}

func TestDisabledAllowsEverything(t *testing.T) {
	r := require.New(t)

	cfg := testConfig()
	cfg.Enabled = false
	e, err := New(cfg, KnownPermissions())
	r.NoError(err)

	r.True(e.Can("stranger", PermConfigEdit))
	r.True(e.Authenticate(nil))
}

func TestAuthenticate(t *testing.T) {
	r := require.New(t)

	e, err := New(testConfig(), KnownPermissions())
	r.NoError(err)

	r.True(e.Authenticate(&protocol.Auth{User: "admin", Token: "secret"}))
	r.False(e.Authenticate(&protocol.Auth{User: "admin", Token: "wrong"}))
	r.False(e.Authenticate(&protocol.Auth{User: "stranger", Token: "secret"}))
	r.False(e.Authenticate(nil))
}

func TestGlobalEngine(t *testing.T) {
	r := require.New(t)

	aclhandle = nil
	r.False(Can("admin", PermConfigRead))

	r.NoError(Init(testConfig(), KnownPermissions()))
	t.Cleanup(func() { aclhandle = nil })

	r.True(Can("admin", PermConfigEdit))
	r.True(Authenticate(&protocol.Auth{User: "viewer", Token: "view"}))
}
