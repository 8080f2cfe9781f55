package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStore writes files into a directory served under urlPrefix.
type LocalStore struct {
	dir       string
	urlPrefix string
	now       func() time.Time
}

func NewLocalStore(dir, urlPrefix string) (*LocalStore, error) {
	if dir == "" {
		dir = "./uploads"
	}
	if urlPrefix == "" {
		urlPrefix = "/uploads"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("storage: create upload directory: %w", err)
	}
	return &LocalStore{dir: dir, urlPrefix: strings.TrimRight(urlPrefix, "/"), now: time.Now}, nil
}

func (s *LocalStore) Dir() string { return s.dir }

func (s *LocalStore) Save(_ context.Context, original, contentType string, r io.Reader) (Object, error) {
	name := UniqueName(original, s.now())
	path := filepath.Join(s.dir, name)

	dst, err := os.Create(path)
	if err != nil {
		return Object{}, fmt.Errorf("storage: create file: %w", err)
	}
	n, err := io.Copy(dst, r)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err == nil && n == 0 {
		err = ErrEmptyFile
	}
	if err != nil {
		os.Remove(path)
		if errors.Is(err, ErrEmptyFile) {
			return Object{}, err
		}
		return Object{}, fmt.Errorf("storage: save file: %w", err)
	}
	return Object{Name: name, URL: s.urlPrefix + "/" + name, Size: n, ContentType: contentType}, nil
}

func (s *LocalStore) Delete(_ context.Context, name string) error {
	if name != filepath.Base(name) {
		return fmt.Errorf("storage: invalid name %q", name)
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage: delete %s: %w", name, err)
	}
	return nil
}
