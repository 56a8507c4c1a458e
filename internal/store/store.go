// Package store persists configsets in a SQLite database through Bun and
// implements the configset operations used by the daemon. Every
// modification of one configset name is serialized; different names
// proceed in parallel.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mfulz/setgeist/internal/configsets"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// DefaultTimeout bounds a single configset operation.
const DefaultTimeout = 300 * time.Second

// Options configures a Store.
type Options struct {
	// DSN is the SQLite data source, e.g. "file:/var/lib/setgeist/configsets.db".
	DSN string `mapstructure:"dsn"`

	// Timeout bounds every operation; zero selects DefaultTimeout.
	Timeout time.Duration `mapstructure:"timeout"`

	// DefaultConfigSet is seeded on Open when missing.
	DefaultConfigSet string `mapstructure:"default_configset"`

	// DefaultFiles are the files of the seeded configset; nil selects a
	// minimal built-in set.
	DefaultFiles map[string][]byte `mapstructure:"-"`

	// Collections maps collection names to the configset they use.
	// Configsets referenced here cannot be deleted.
	Collections map[string]string `mapstructure:"-"`

	Logger *zap.SugaredLogger `mapstructure:"-"`
}

// configSetModel is a row of config_sets.
type configSetModel struct {
	bun.BaseModel `bun:"table:config_sets"`
	Name          string    `bun:"name,pk"`
	Base          string    `bun:"base"`
	Properties    string    `bun:"properties"`
	Immutable     bool      `bun:"immutable"`
	CreatedAt     time.Time `bun:"created_at"`
}

// fileModel is a row of config_files; Data is zstd compressed.
type fileModel struct {
	bun.BaseModel `bun:"table:config_files"`
	SetName       string `bun:"set_name,pk"`
	Path          string `bun:"path,pk"`
	Data          []byte `bun:"data"`
}

// Store implements configsets.Operations on SQLite.
type Store struct {
	db      *bun.DB
	codec   *blobCodec
	timeout time.Duration
	inUse   map[string][]string
	log     *zap.SugaredLogger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

var _ configsets.Operations = (*Store)(nil)

var builtinDefaultFiles = map[string][]byte{
	"solrconfig.xml":     []byte("<config>\n  <luceneMatchVersion>9.0</luceneMatchVersion>\n</config>\n"),
	"managed-schema.xml": []byte("<schema name=\"default-config\" version=\"1.7\">\n  <uniqueKey>id</uniqueKey>\n</schema>\n"),
}

// Open connects to the database, creates the schema and seeds the
// default configset.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.DSN == "" {
		return nil, fmt.Errorf("store: empty dsn")
	}

	sqlDB, err := sql.Open("sqlite", opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	// sqlite allows a single writer; one connection also keeps :memory: databases shared
	sqlDB.SetMaxOpenConns(1)

	codec, err := newBlobCodec()
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	s := &Store{
		db:      bun.NewDB(sqlDB, sqlitedialect.New()),
		codec:   codec,
		timeout: opts.Timeout,
		inUse:   make(map[string][]string),
		log:     opts.Logger,
		locks:   make(map[string]*sync.Mutex),
	}
	if s.timeout <= 0 {
		s.timeout = DefaultTimeout
	}
	if s.log == nil {
		s.log = zap.NewNop().Sugar()
	}
	for collection, set := range opts.Collections {
		s.inUse[set] = append(s.inUse[set], collection)
	}
	for _, cols := range s.inUse {
		sort.Strings(cols)
	}

	if err := s.migrate(ctx); err != nil {
		s.Close()
		return nil, err
	}

	if opts.DefaultConfigSet != "" {
		files := opts.DefaultFiles
		if files == nil {
			files = builtinDefaultFiles
		}
		if err := s.seed(ctx, opts.DefaultConfigSet, files); err != nil {
			s.Close()
			return nil, err
		}
	}
	return s, nil
}

// Close releases the database and codec resources.
func (s *Store) Close() error {
	s.codec.close()
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	models := []any{(*configSetModel)(nil), (*fileModel)(nil)}
	for _, m := range models {
		if _, err := s.db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("store: create table: %w", err)
		}
	}
	return nil
}

func (s *Store) seed(ctx context.Context, name string, files map[string][]byte) error {
	unlock := s.lock(name)
	defer unlock()

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := setExists(ctx, tx, name)
		if err != nil || exists {
			return err
		}
		if err := insertSet(ctx, tx, &configSetModel{Name: name, Properties: "{}", CreatedAt: time.Now().UTC()}); err != nil {
			return err
		}
		s.log.Infof("[store] seeded default configset '%s'", name)
		return s.putFiles(ctx, tx, name, files)
	})
}

// lock serializes modifications of one configset name.
func (s *Store) lock(name string) func() {
	s.mu.Lock()
	l, ok := s.locks[name]
	if !ok {
		l = &sync.Mutex{}
		s.locks[name] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func setExists(ctx context.Context, db bun.IDB, name string) (bool, error) {
	ok, err := db.NewSelect().Model((*configSetModel)(nil)).Where("name = ?", name).Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("store: lookup %s: %w", name, err)
	}
	return ok, nil
}

func getSet(ctx context.Context, db bun.IDB, name string) (*configSetModel, error) {
	var m configSetModel
	err := db.NewSelect().Model(&m).Where("name = ?", name).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: load %s: %w", name, err)
	}
	return &m, nil
}

func insertSet(ctx context.Context, db bun.IDB, m *configSetModel) error {
	if _, err := db.NewInsert().Model(m).Exec(ctx); err != nil {
		return fmt.Errorf("store: insert %s: %w", m.Name, err)
	}
	return nil
}

func (s *Store) putFiles(ctx context.Context, db bun.IDB, set string, files map[string][]byte) error {
	for p, data := range files {
		row := &fileModel{SetName: set, Path: p, Data: s.codec.compress(data)}
		_, err := db.NewInsert().Model(row).
			On("CONFLICT (set_name, path) DO UPDATE").
			Set("data = EXCLUDED.data").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("store: write %s/%s: %w", set, p, err)
		}
	}
	return nil
}

func filePaths(ctx context.Context, db bun.IDB, set string) ([]string, error) {
	var paths []string
	err := db.NewSelect().Model((*fileModel)(nil)).Column("path").
		Where("set_name = ?", set).Order("path ASC").Scan(ctx, &paths)
	if err != nil {
		return nil, fmt.Errorf("store: list files of %s: %w", set, err)
	}
	return paths, nil
}

// Files returns the file paths of a configset in lexical order.
func (s *Store) Files(ctx context.Context, name string) ([]string, error) {
	exists, err := setExists(ctx, s.db, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, configsets.NotFound("configset does not exist: %s", name)
	}
	return filePaths(ctx, s.db, name)
}

// File returns the content of one configset file.
func (s *Store) File(ctx context.Context, name, filePath string) ([]byte, error) {
	var row fileModel
	err := s.db.NewSelect().Model(&row).
		Where("set_name = ?", name).Where("path = ?", filePath).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, configsets.NotFound("file %s does not exist in configset %s", filePath, name)
	}
	if err != nil {
		return nil, fmt.Errorf("store: read %s/%s: %w", name, filePath, err)
	}
	return s.codec.decompress(row.Data)
}

// Properties returns the stored properties of a configset.
func (s *Store) Properties(ctx context.Context, name string) (map[string]any, error) {
	m, err := getSet(ctx, s.db, name)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, configsets.NotFound("configset does not exist: %s", name)
	}
	return decodeProperties(m.Properties)
}

func decodeProperties(raw string) (map[string]any, error) {
	props := map[string]any{}
	if raw == "" {
		return props, nil
	}
	if err := json.Unmarshal([]byte(raw), &props); err != nil {
		return nil, fmt.Errorf("store: decode properties: %w", err)
	}
	return props, nil
}

func encodeProperties(props map[string]any) (string, error) {
	if props == nil {
		props = map[string]any{}
	}
	raw, err := json.Marshal(props)
	if err != nil {
		return "", fmt.Errorf("store: encode properties: %w", err)
	}
	return string(raw), nil
}

// isImmutable reads the "immutable" property, which may be a string or a
// list whose first value decides.
func isImmutable(props map[string]any) bool {
	switch v := props["immutable"].(type) {
	case string:
		return v == "true"
	case bool:
		return v
	case []any:
		if len(v) > 0 {
			s, _ := v[0].(string)
			return s == "true"
		}
	case []string:
		return len(v) > 0 && v[0] == "true"
	}
	return false
}
