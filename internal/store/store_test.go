package store

import (
	"context"
	"testing"

	"github.com/mfulz/setgeist/internal/archive"
	"github.com/mfulz/setgeist/internal/cluster"
	"github.com/mfulz/setgeist/internal/configsets"
	"github.com/mfulz/setgeist/internal/params"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T, opts Options) *Store {
	t.Helper()
	if opts.DSN == "" {
		opts.DSN = "file::memory:"
	}
	if opts.DefaultConfigSet == "" {
		opts.DefaultConfigSet = configsets.DefaultConfigSetName
	}
	s, err := Open(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func mustZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	in := make(map[string][]byte, len(files))
	for k, v := range files {
		in[k] = []byte(v)
	}
	b, err := archive.Pack(in)
	require.NoError(t, err)
	return b
}

func TestOpenSeedsDefault(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()
	s := openTestStore(t, Options{})

	list, err := s.ListConfigSets(ctx)
	r.NoError(err)
	r.Equal([]string{"_default"}, list.ConfigSets)

	files, err := s.Files(ctx, "_default")
	r.NoError(err)
	r.Equal([]string{"managed-schema.xml", "solrconfig.xml"}, files)

	data, err := s.File(ctx, "_default", "solrconfig.xml")
	r.NoError(err)
	r.Equal(builtinDefaultFiles["solrconfig.xml"], data)
}

func TestOpenRequiresDSN(t *testing.T) {
	_, err := Open(context.Background(), Options{})
	require.Error(t, err)
}

func TestCloneExistingConfigSet(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()
	s := openTestStore(t, Options{})

	res, err := s.CloneExistingConfigSet(ctx, &configsets.CreateRequest{
		Name:          "foo",
		BaseConfigSet: "_default",
		Properties:    map[string]any{"immutable": "true", "bar": []string{"a", "b"}},
	})
	r.NoError(err)
	r.Equal("foo", res.Name)
	r.Equal(2, res.Files)

	props, err := s.Properties(ctx, "foo")
	r.NoError(err)
	r.Equal(map[string]any{"immutable": "true", "bar": []any{"a", "b"}}, props)

	files, err := s.Files(ctx, "foo")
	r.NoError(err)
	r.Equal([]string{"managed-schema.xml", "solrconfig.xml"}, files)

	_, err = s.CloneExistingConfigSet(ctx, &configsets.CreateRequest{Name: "foo", BaseConfigSet: "_default"})
	r.Equal(configsets.CodeConflict, configsets.CodeOf(err))

	_, err = s.CloneExistingConfigSet(ctx, &configsets.CreateRequest{Name: "bar", BaseConfigSet: "missing"})
	r.Equal(configsets.CodeNotFound, configsets.CodeOf(err))

	// immutable sets refuse changes
	_, err = s.DeleteConfigSet(ctx, "foo")
	r.Equal(configsets.CodeBadRequest, configsets.CodeOf(err))
	_, err = s.UploadConfigSetFile(ctx, "foo", "x.txt", true, false, []byte("x"))
	r.Equal(configsets.CodeBadRequest, configsets.CodeOf(err))
}

func TestCloneInheritsBaseProperties(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()
	s := openTestStore(t, Options{})

	_, err := s.CloneExistingConfigSet(ctx, &configsets.CreateRequest{
		Name: "parent", BaseConfigSet: "_default", Properties: map[string]any{"owner": "search", "tier": "gold"},
	})
	r.NoError(err)
	_, err = s.CloneExistingConfigSet(ctx, &configsets.CreateRequest{
		Name: "child", BaseConfigSet: "parent", Properties: map[string]any{"tier": "silver"},
	})
	r.NoError(err)

	props, err := s.Properties(ctx, "child")
	r.NoError(err)
	r.Equal(map[string]any{"owner": "search", "tier": "silver"}, props)
}

func TestUploadConfigSet(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()
	s := openTestStore(t, Options{})

	res, err := s.UploadConfigSet(ctx, "films", false, false, mustZip(t, map[string]string{
		"solrconfig.xml":   "<config/>",
		"lang/stop.txt":    "a\nthe\n",
		"conf/schema.xml":  "<schema/>",
		"conf/extra/x.txt": "x",
	}))
	r.NoError(err)
	r.True(res.Created)
	r.Equal([]string{"conf/extra/x.txt", "conf/schema.xml", "lang/stop.txt", "solrconfig.xml"}, res.Files)

	_, err = s.UploadConfigSet(ctx, "films", false, false, mustZip(t, map[string]string{"a": "b"}))
	r.Equal(configsets.CodeConflict, configsets.CodeOf(err))

	res, err = s.UploadConfigSet(ctx, "films", true, true, mustZip(t, map[string]string{
		"solrconfig.xml":  "<config version=\"2\"/>",
		"conf/schema.xml": "<schema/>",
	}))
	r.NoError(err)
	r.False(res.Created)
	r.Equal([]string{"conf/extra/x.txt", "lang/stop.txt"}, res.Removed)

	files, err := s.Files(ctx, "films")
	r.NoError(err)
	r.Equal([]string{"conf/schema.xml", "solrconfig.xml"}, files)

	data, err := s.File(ctx, "films", "solrconfig.xml")
	r.NoError(err)
	r.Equal("<config version=\"2\"/>", string(data))
}

func TestUploadConfigSetOverwriteWithoutCleanupKeepsFiles(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()
	s := openTestStore(t, Options{})

	_, err := s.UploadConfigSet(ctx, "films", false, false, mustZip(t, map[string]string{"a.txt": "1", "b.txt": "2"}))
	r.NoError(err)
	res, err := s.UploadConfigSet(ctx, "films", true, false, mustZip(t, map[string]string{"a.txt": "3"}))
	r.NoError(err)
	r.Empty(res.Removed)

	files, err := s.Files(ctx, "films")
	r.NoError(err)
	r.Equal([]string{"a.txt", "b.txt"}, files)
}

func TestUploadConfigSetRejectsBadArchives(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, Options{})

	tests := map[string][]byte{
		"not a zip":  []byte("definitely not a zip"),
		"empty zip":  mustZip(t, map[string]string{}),
		"zip slip":   mustZip(t, map[string]string{"../../etc/passwd": "root"}),
		"absolute":   mustZip(t, map[string]string{"/etc/passwd": "root"}),
		"nil payload": nil,
	}
	for name, payload := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := s.UploadConfigSet(ctx, "bad", false, false, payload)
			require.Equal(t, configsets.CodeBadRequest, configsets.CodeOf(err))
		})
	}

	list, err := s.ListConfigSets(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"_default"}, list.ConfigSets)
}

func TestUploadConfigSetFile(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()
	s := openTestStore(t, Options{})

	res, err := s.UploadConfigSetFile(ctx, "films", "conf/./schema.xml", false, false, []byte("<schema/>"))
	r.NoError(err)
	r.True(res.Created)
	r.Equal([]string{"conf/schema.xml"}, res.Files)

	_, err = s.UploadConfigSetFile(ctx, "films", "conf/schema.xml", false, false, []byte("<schema v='2'/>"))
	r.Equal(configsets.CodeConflict, configsets.CodeOf(err))

	_, err = s.UploadConfigSetFile(ctx, "films", "conf/schema.xml", true, false, []byte("<schema v='2'/>"))
	r.NoError(err)
	data, err := s.File(ctx, "films", "conf/schema.xml")
	r.NoError(err)
	r.Equal("<schema v='2'/>", string(data))

	_, err = s.UploadConfigSetFile(ctx, "films", "conf/schema.xml", true, true, []byte("x"))
	r.Equal(configsets.CodeBadRequest, configsets.CodeOf(err))

	_, err = s.UploadConfigSetFile(ctx, "films", "../escape.xml", true, false, []byte("x"))
	r.Equal(configsets.CodeBadRequest, configsets.CodeOf(err))
}

func TestDeleteConfigSet(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()
	s := openTestStore(t, Options{Collections: map[string]string{"movies": "films", "shows": "films"}})

	_, err := s.DeleteConfigSet(ctx, "missing")
	r.Equal(configsets.CodeNotFound, configsets.CodeOf(err))

	_, err = s.CloneExistingConfigSet(ctx, &configsets.CreateRequest{Name: "films", BaseConfigSet: "_default"})
	r.NoError(err)
	_, err = s.DeleteConfigSet(ctx, "films")
	r.Equal(configsets.CodeInUse, configsets.CodeOf(err))
	r.Contains(err.Error(), "[movies, shows]")

	_, err = s.CloneExistingConfigSet(ctx, &configsets.CreateRequest{Name: "tmp", BaseConfigSet: "_default"})
	r.NoError(err)
	res, err := s.DeleteConfigSet(ctx, "tmp")
	r.NoError(err)
	r.Equal("tmp", res.Name)

	_, err = s.Files(ctx, "tmp")
	r.Equal(configsets.CodeNotFound, configsets.CodeOf(err))
}

func TestIsImmutable(t *testing.T) {
	r := require.New(t)

	r.True(isImmutable(map[string]any{"immutable": "true"}))
	r.True(isImmutable(map[string]any{"immutable": true}))
	r.True(isImmutable(map[string]any{"immutable": []any{"true", "false"}}))
	r.True(isImmutable(map[string]any{"immutable": []string{"true"}}))
	r.False(isImmutable(map[string]any{"immutable": "TRUE "}))
	r.False(isImmutable(map[string]any{}))
}

func TestHandlerAgainstStore(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()
	s := openTestStore(t, Options{})
	node := cluster.NewNode(cluster.Config{Enabled: true, Coordinators: []string{"zk:2181"}})
	h := configsets.NewHandler(node, s, configsets.DefaultConfig().WithPropertyPrefix("property."))

	env, err := h.Handle(ctx, &configsets.Request{Params: params.New(
		"action", "CREATE", "name", "foo", "property.immutable", "true", "property.bar", "a", "property.bar", "b",
	)})
	r.NoError(err)
	r.False(env.HTTPCaching())
	_, hasHeader := env.Get("responseHeader")
	r.False(hasHeader)

	props, err := s.Properties(ctx, "foo")
	r.NoError(err)
	r.Equal(map[string]any{"immutable": "true", "bar": []any{"a", "b"}}, props)

	env, err = h.Handle(ctx, &configsets.Request{
		Params:  params.New("action", "UPLOAD", "name", "films"),
		Payload: mustZip(t, map[string]string{"solrconfig.xml": "<config/>"}),
	})
	r.NoError(err)
	created, _ := env.Get("created")
	r.JSONEq("true", string(created))

	env, err = h.Handle(ctx, &configsets.Request{Params: params.New("action", "LIST")})
	r.NoError(err)
	var list struct {
		ConfigSets []string `json:"configSets"`
	}
	r.NoError(env.Decode(&list))
	r.Equal([]string{"_default", "films", "foo"}, list.ConfigSets)

	_, err = h.Handle(ctx, &configsets.Request{Params: params.New("action", "DELETE", "name", "nope")})
	r.Equal(configsets.CodeNotFound, configsets.CodeOf(err))

	node.Detach()
	_, err = h.Handle(ctx, &configsets.Request{Params: params.New("action", "LIST")})
	r.Equal(configsets.CodeConfiguration, configsets.CodeOf(err))
}
