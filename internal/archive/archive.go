// Package archive converts between zipped configset uploads and
// path-to-content maps.
package archive

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/mfulz/setgeist/internal/configsets"
)

// MaxFileSize bounds a single uncompressed configset file.
const MaxFileSize = 64 << 20

// CleanPath normalizes a configset-relative path and rejects paths
// escaping the configset root.
func CleanPath(p string) (string, error) {
	p = strings.ReplaceAll(p, "\\", "/")
	if p == "" || strings.HasPrefix(p, "/") {
		return "", configsets.BadRequest("invalid file path: %q", p)
	}
	clean := path.Clean(p)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", configsets.BadRequest("invalid file path: %q", p)
	}
	return clean, nil
}

// Unpack reads a zipped configset. Directory entries are skipped; an
// archive without files is rejected.
func Unpack(payload []byte) (map[string][]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return nil, configsets.BadRequest("configset content is not a valid zip archive: %v", err)
	}

	files := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name, err := CleanPath(f.Name)
		if err != nil {
			return nil, err
		}
		if f.UncompressedSize64 > MaxFileSize {
			return nil, configsets.BadRequest("file %s exceeds the maximum size", name)
		}

		rc, err := f.Open()
		if err != nil {
			return nil, configsets.BadRequest("cannot read %s from archive: %v", name, err)
		}
		data, err := io.ReadAll(io.LimitReader(rc, MaxFileSize+1))
		rc.Close()
		if err != nil {
			return nil, configsets.BadRequest("cannot read %s from archive: %v", name, err)
		}
		if len(data) > MaxFileSize {
			return nil, configsets.BadRequest("file %s exceeds the maximum size", name)
		}
		files[name] = data
	}

	if len(files) == 0 {
		return nil, configsets.BadRequest("configset archive contains no files")
	}
	return files, nil
}

// Pack zips files in lexical path order.
func Pack(files map[string][]byte) ([]byte, error) {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			return nil, fmt.Errorf("add %s: %w", name, err)
		}
		if _, err := w.Write(files[name]); err != nil {
			return nil, fmt.Errorf("write %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}
	return buf.Bytes(), nil
}

// PackDir zips the regular files below dir with paths relative to it.
func PackDir(dir string) ([]byte, error) {
	files := map[string][]byte{}
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = data
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%s contains no files", dir)
	}
	return Pack(files)
}
