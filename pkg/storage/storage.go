// Package storage provides blob storage on a local content directory.
package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/docrelay/docrelay/pkg/lifecycle"
)

// System manages blob storage operations and lifecycle coordination.
type System interface {
	// Start registers a startup hook that initializes the content directory.
	Start(lc *lifecycle.Coordinator) error
	// Store writes data under suggestedName, appending a numeric suffix
	// before the extension until the name is free. Returns the stored path.
	Store(data []byte, suggestedName string) (string, error)
	// Open returns a stream for the blob at the given path. The caller must
	// close the reader. Returns ErrNotFound if the blob does not exist.
	Open(path string) (io.ReadCloser, error)
	// Read returns the full contents of the blob at the given path.
	Read(path string) ([]byte, error)
	// Delete removes the blob at the given path. A missing blob is treated
	// as success; deletes are idempotent.
	Delete(path string) error
	// Exists reports whether a regular file exists at the given path.
	Exists(path string) (bool, error)
}

type local struct {
	dir    string
	logger *slog.Logger
}

// New creates a storage system rooted at the configured content directory.
// The directory itself is created when Start runs.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	dir, err := filepath.Abs(cfg.ContentDir)
	if err != nil {
		return nil, fmt.Errorf("resolve content dir %s: %w", cfg.ContentDir, err)
	}

	return &local{
		dir:    dir,
		logger: logger.With("system", "storage"),
	}, nil
}

func (l *local) Start(lc *lifecycle.Coordinator) error {
	l.logger.Info("starting storage system")

	lc.OnStartup(func() {
		if err := os.MkdirAll(l.dir, 0o755); err != nil {
			l.logger.Error("content directory initialization failed", "error", err)
			return
		}

		l.logger.Info("content directory ready", "dir", l.dir)
	})

	return nil
}

func (l *local) Store(data []byte, suggestedName string) (string, error) {
	name, err := sanitizeName(suggestedName)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return "", fmt.Errorf("create content dir %s: %w", l.dir, err)
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	target := filepath.Join(l.dir, name)

	// The suffix probe races against concurrent writers, so the write itself
	// insists on creating a new file and moves to the next suffix on collision.
	for counter := 1; ; counter++ {
		err := writeExclusive(target, data)
		if err == nil {
			return target, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("store blob %s: %w", target, err)
		}
		target = filepath.Join(l.dir, fmt.Sprintf("%s_%d%s", stem, counter, ext))
	}
}

func (l *local) Open(path string) (io.ReadCloser, error) {
	if err := l.validatePath(path); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open blob %s: %w", path, err)
	}

	return f, nil
}

func (l *local) Read(path string) ([]byte, error) {
	if err := l.validatePath(path); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read blob %s: %w", path, err)
	}

	return data, nil
}

func (l *local) Delete(path string) error {
	if err := l.validatePath(path); err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.logger.Info("blob already absent", "path", path)
			return nil
		}
		return fmt.Errorf("delete blob %s: %w", path, err)
	}

	return nil
}

func (l *local) Exists(path string) (bool, error) {
	if err := l.validatePath(path); err != nil {
		return false, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("check blob existence %s: %w", path, err)
	}

	return info.Mode().IsRegular(), nil
}

func (l *local) validatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidPath, path)
	}
	if !inDir(abs, l.dir) {
		return fmt.Errorf("%w: %s", ErrInvalidPath, path)
	}

	return nil
}

func writeExclusive(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

func sanitizeName(name string) (string, error) {
	name = filepath.Base(name)
	if name == "" || name == "." || name == ".." || name == string(filepath.Separator) {
		return "", ErrEmptyPath
	}
	return name, nil
}

func inDir(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
