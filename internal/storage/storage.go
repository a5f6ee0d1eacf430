// Package storage persists uploaded menu images.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/cTHE0/restaurant/internal/clock"
	"github.com/cTHE0/restaurant/internal/config"
)

// Module provides the upload store to Fx.
var Module = fx.Provide(
	NewLocal,
	func(l *Local) Store { return l },
)

var (
	// ErrExtensionNotAllowed is returned for files outside the allow-list.
	ErrExtensionNotAllowed = errors.New("file extension not allowed")
	// ErrTooLarge is returned when the upload exceeds the size limit.
	ErrTooLarge = errors.New("file too large")
)

// Object describes a stored file.
type Object struct {
	Filename string
	URL      string
	Size     int64
}

// Store saves uploaded files under generated names.
type Store interface {
	Save(ctx context.Context, originalName string, r io.Reader) (Object, error)
	Allowed(name string) bool
	MaxBytes() int64
}

// Local writes files to a directory on disk.
type Local struct {
	dir        string
	publicPath string
	maxBytes   int64
	allowed    map[string]struct{}
	clock      clock.Clock
	logger     *zap.Logger
}

// NewLocal builds a disk store from the upload configuration.
func NewLocal(cfg config.Config, clk clock.Clock, logger *zap.Logger) (*Local, error) {
	if err := os.MkdirAll(cfg.Upload.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	allowed := make(map[string]struct{}, len(cfg.Upload.AllowedExtensions))
	for _, ext := range cfg.Upload.AllowedExtensions {
		allowed[strings.ToLower(ext)] = struct{}{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Local{
		dir:        cfg.Upload.Dir,
		publicPath: strings.TrimSuffix(cfg.Upload.PublicPath, "/"),
		maxBytes:   cfg.Upload.MaxBytes,
		allowed:    allowed,
		clock:      clk,
		logger:     logger,
	}, nil
}

// Dir returns the directory served under the public path.
func (l *Local) Dir() string { return l.dir }

// PublicPath returns the URL prefix of stored files.
func (l *Local) PublicPath() string { return l.publicPath }

// MaxBytes returns the upload size limit.
func (l *Local) MaxBytes() int64 { return l.maxBytes }

// Allowed reports whether the file name carries an accepted extension.
func (l *Local) Allowed(name string) bool {
	_, ok := l.allowed[extension(name)]
	return ok
}

// Save copies r into a new file. The stored name never reuses client path
// segments; a partial file is removed when the copy fails.
func (l *Local) Save(ctx context.Context, originalName string, r io.Reader) (Object, error) {
	if !l.Allowed(originalName) {
		return Object{}, ErrExtensionNotAllowed
	}
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}

	name := l.generateName(extension(originalName))
	path := filepath.Join(l.dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return Object{}, fmt.Errorf("create upload: %w", err)
	}

	n, copyErr := io.Copy(f, io.LimitReader(r, l.maxBytes+1))
	closeErr := f.Close()
	switch {
	case copyErr != nil:
		err = fmt.Errorf("write upload: %w", copyErr)
	case n > l.maxBytes:
		err = ErrTooLarge
	case closeErr != nil:
		err = fmt.Errorf("close upload: %w", closeErr)
	}
	if err != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			l.logger.Warn("remove partial upload", zap.String("path", path), zap.Error(rmErr))
		}
		return Object{}, err
	}

	return Object{
		Filename: name,
		URL:      l.publicPath + "/" + name,
		Size:     n,
	}, nil
}

func (l *Local) generateName(ext string) string {
	return fmt.Sprintf("%s_%s.%s", l.clock.Now().Format("20060102_150405"), uuid.NewString(), ext)
}

func extension(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(filepath.Base(name))), ".")
}
