package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// DownloadURLPrefix is where saved files are served from
const DownloadURLPrefix = "/api/downloads/files/"

const maxNameAttempts = 100

// diskStore writes assets into the download location
type diskStore struct {
	dir func() string
}

// NewDiskStore creates an AssetStore rooted at the directory returned by dir.
// dir is called on every save so settings changes apply to the next file.
func NewDiskStore(dir func() string) AssetStore {
	return &diskStore{dir: dir}
}

// Save copies r into dir/filename through a temporary file and returns the
// URL the file is served under. An existing file is never replaced; the copy
// goes to the first free "<stem>-N<ext>" name instead.
func (s *diskStore) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	if err := validateFilename(filename); err != nil {
		return "", err
	}

	dir := s.dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create download directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".songfetch-*.part")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	_, err = io.Copy(tmp, &contextReader{ctx: ctx, r: r})
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("write %s: %w", filename, err)
	}

	if err := os.Chmod(tmpPath, 0644); err != nil {
		return "", fmt.Errorf("chmod %s: %w", filename, err)
	}

	name, err := claimName(dir, filename)
	if err != nil {
		return "", err
	}
	if err := os.Rename(tmpPath, filepath.Join(dir, name)); err != nil {
		os.Remove(filepath.Join(dir, name))
		return "", fmt.Errorf("move %s into place: %w", name, err)
	}

	return DownloadURLPrefix + url.PathEscape(name), nil
}

// claimName creates an empty placeholder for the first free variant of
// filename in dir and returns the name it reserved
func claimName(dir, filename string) (string, error) {
	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)

	name := filename
	for n := 2; n <= maxNameAttempts; n++ {
		f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			return name, f.Close()
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("reserve %s: %w", name, err)
		}
		name = fmt.Sprintf("%s-%d%s", stem, n, ext)
	}
	return "", fmt.Errorf("no free name for %s", filename)
}

// StoredFilename returns the file name a DiskStore locator points at, or
// fallback when locator has another shape
func StoredFilename(locator, fallback string) string {
	escaped, ok := strings.CutPrefix(locator, DownloadURLPrefix)
	if !ok {
		return fallback
	}
	name, err := url.PathUnescape(escaped)
	if err != nil || name == "" {
		return fallback
	}
	return name
}

func validateFilename(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("empty filename")
	}
	if name != filepath.Base(name) || strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid filename %q", name)
	}
	return nil
}

// contextReader stops a copy once ctx is done
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
