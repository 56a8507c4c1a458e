package store

import (
	"context"
	"maps"
	"sort"
	"strings"
	"time"

	"github.com/mfulz/setgeist/internal/archive"
	"github.com/mfulz/setgeist/internal/configsets"
	"github.com/uptrace/bun"
)

func header(start time.Time) configsets.ResponseHeader {
	return configsets.ResponseHeader{Status: 0, QTime: time.Since(start).Milliseconds()}
}

// ListConfigSets returns all configset names in lexical order.
func (s *Store) ListConfigSets(ctx context.Context) (*configsets.ListResult, error) {
	start := time.Now()
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	names := []string{}
	err := s.db.NewSelect().Model((*configSetModel)(nil)).Column("name").Order("name ASC").Scan(ctx, &names)
	if err != nil {
		return nil, err
	}
	return &configsets.ListResult{Header: header(start), ConfigSets: names}, nil
}

// DeleteConfigSet removes a configset and its files.
func (s *Store) DeleteConfigSet(ctx context.Context, name string) (*configsets.DeleteResult, error) {
	start := time.Now()
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	unlock := s.lock(name)
	defer unlock()

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		m, err := getSet(ctx, tx, name)
		if err != nil {
			return err
		}
		if m == nil {
			return configsets.NotFound("configset does not exist to delete: %s", name)
		}
		if m.Immutable {
			return configsets.BadRequest("requested delete of immutable configset: %s", name)
		}
		if cols := s.inUse[name]; len(cols) > 0 {
			return configsets.InUse("cannot delete configset %s as it is used by collections [%s]", name, strings.Join(cols, ", "))
		}

		if _, err := tx.NewDelete().Model((*fileModel)(nil)).Where("set_name = ?", name).Exec(ctx); err != nil {
			return err
		}
		_, err = tx.NewDelete().Model((*configSetModel)(nil)).Where("name = ?", name).Exec(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("[store] deleted configset '%s'", name)
	return &configsets.DeleteResult{Header: header(start), Name: name}, nil
}

// UploadConfigSet stores a zipped configset. An existing configset is only
// replaced with overwrite; cleanup additionally removes files missing from
// the archive.
func (s *Store) UploadConfigSet(ctx context.Context, name string, overwrite, cleanup bool, payload []byte) (*configsets.UploadResult, error) {
	start := time.Now()
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if name == "" {
		return nil, configsets.BadRequest("configset name not specified")
	}
	files, err := archive.Unpack(payload)
	if err != nil {
		return nil, err
	}

	unlock := s.lock(name)
	defer unlock()

	res := &configsets.UploadResult{Name: name}
	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		m, err := getSet(ctx, tx, name)
		if err != nil {
			return err
		}
		if m != nil {
			if !overwrite {
				return configsets.Conflict("the configuration %s already exists", name)
			}
			if m.Immutable {
				return configsets.BadRequest("requested configset is immutable: %s", name)
			}
		} else {
			res.Created = true
			if err := insertSet(ctx, tx, &configSetModel{Name: name, Properties: "{}", CreatedAt: time.Now().UTC()}); err != nil {
				return err
			}
		}

		if m != nil && cleanup {
			existing, err := filePaths(ctx, tx, name)
			if err != nil {
				return err
			}
			for _, p := range existing {
				if _, ok := files[p]; ok {
					continue
				}
				_, err := tx.NewDelete().Model((*fileModel)(nil)).
					Where("set_name = ?", name).Where("path = ?", p).Exec(ctx)
				if err != nil {
					return err
				}
				res.Removed = append(res.Removed, p)
			}
		}
		return s.putFiles(ctx, tx, name, files)
	})
	if err != nil {
		return nil, err
	}

	for p := range files {
		res.Files = append(res.Files, p)
	}
	sort.Strings(res.Files)
	res.Header = header(start)
	s.log.Infof("[store] uploaded configset '%s' (%d files, created=%v)", name, len(files), res.Created)
	return res, nil
}

// UploadConfigSetFile stores a single file, creating the configset when
// it does not exist yet.
func (s *Store) UploadConfigSetFile(ctx context.Context, name, filePath string, overwrite, cleanup bool, payload []byte) (*configsets.UploadResult, error) {
	start := time.Now()
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if name == "" {
		return nil, configsets.BadRequest("configset name not specified")
	}
	if cleanup {
		return nil, configsets.BadRequest("cleanup=true is not allowed when uploading a single file")
	}
	clean, err := archive.CleanPath(filePath)
	if err != nil {
		return nil, err
	}
	if len(payload) > archive.MaxFileSize {
		return nil, configsets.BadRequest("file %s exceeds the maximum size", clean)
	}

	unlock := s.lock(name)
	defer unlock()

	res := &configsets.UploadResult{Name: name, Files: []string{clean}}
	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		m, err := getSet(ctx, tx, name)
		if err != nil {
			return err
		}
		if m == nil {
			res.Created = true
			if err := insertSet(ctx, tx, &configSetModel{Name: name, Properties: "{}", CreatedAt: time.Now().UTC()}); err != nil {
				return err
			}
		} else {
			if m.Immutable {
				return configsets.BadRequest("requested configset is immutable: %s", name)
			}
			exists, err := tx.NewSelect().Model((*fileModel)(nil)).
				Where("set_name = ?", name).Where("path = ?", clean).Exists(ctx)
			if err != nil {
				return err
			}
			if exists && !overwrite {
				return configsets.Conflict("the file %s for configset %s already exists", clean, name)
			}
		}
		return s.putFiles(ctx, tx, name, map[string][]byte{clean: payload})
	})
	if err != nil {
		return nil, err
	}

	res.Header = header(start)
	s.log.Infof("[store] uploaded file '%s' to configset '%s'", clean, name)
	return res, nil
}

// CloneExistingConfigSet copies the files of the base configset into a new
// configset. Request properties override those inherited from the base.
func (s *Store) CloneExistingConfigSet(ctx context.Context, req *configsets.CreateRequest) (*configsets.CreateResult, error) {
	start := time.Now()
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if req == nil || req.Name == "" {
		return nil, configsets.BadRequest("configset name not specified")
	}

	unlock := s.lock(req.Name)
	defer unlock()

	var copied int
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := setExists(ctx, tx, req.Name)
		if err != nil {
			return err
		}
		if exists {
			return configsets.Conflict("configset already exists: %s", req.Name)
		}

		base, err := getSet(ctx, tx, req.BaseConfigSet)
		if err != nil {
			return err
		}
		if base == nil {
			return configsets.NotFound("base configset does not exist: %s", req.BaseConfigSet)
		}

		props, err := decodeProperties(base.Properties)
		if err != nil {
			return err
		}
		maps.Copy(props, req.Properties)
		raw, err := encodeProperties(props)
		if err != nil {
			return err
		}

		err = insertSet(ctx, tx, &configSetModel{
			Name:       req.Name,
			Base:       req.BaseConfigSet,
			Properties: raw,
			Immutable:  isImmutable(props),
			CreatedAt:  time.Now().UTC(),
		})
		if err != nil {
			return err
		}

		var rows []fileModel
		if err := tx.NewSelect().Model(&rows).Where("set_name = ?", req.BaseConfigSet).Scan(ctx); err != nil {
			return err
		}
		for i := range rows {
			rows[i].SetName = req.Name
		}
		if len(rows) > 0 {
			if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
				return err
			}
		}
		copied = len(rows)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("[store] created configset '%s' from '%s'", req.Name, req.BaseConfigSet)
	return &configsets.CreateResult{
		Header:        header(start),
		Name:          req.Name,
		BaseConfigSet: req.BaseConfigSet,
		Files:         copied,
	}, nil
}
