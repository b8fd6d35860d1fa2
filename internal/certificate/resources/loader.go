// Package resources loads the static assets certificates are drawn with
// (background images and TTF fonts) and keeps them cached in memory.
package resources

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/spf13/afero"

	dErrors "certdesk/pkg/domain-errors"
)

const (
	DefaultExpiration      = 10 * time.Minute
	DefaultCleanupInterval = 30 * time.Minute
)

// CacheObserver receives cache hit/miss notifications.
type CacheObserver interface {
	IncrementResourceCacheHit()
	IncrementResourceCacheMiss()
}

// Loader reads resources relative to a root directory on an afero.Fs.
// Safe for concurrent use.
type Loader struct {
	fs       afero.Fs
	root     string
	cache    *gocache.Cache
	observer CacheObserver
}

type Option func(*Loader)

// WithCacheTTL sets how long loaded bytes stay cached. A zero ttl disables
// expiry; entries then live until Invalidate or Flush.
func WithCacheTTL(ttl time.Duration) Option {
	return func(l *Loader) {
		if ttl == 0 {
			l.cache = gocache.New(gocache.NoExpiration, 0)
			return
		}
		l.cache = gocache.New(ttl, DefaultCleanupInterval)
	}
}

func WithObserver(o CacheObserver) Option {
	return func(l *Loader) {
		l.observer = o
	}
}

func NewLoader(fsys afero.Fs, root string, opts ...Option) *Loader {
	l := &Loader{
		fs:    fsys,
		root:  root,
		cache: gocache.New(DefaultExpiration, DefaultCleanupInterval),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Root returns the resource directory.
func (l *Loader) Root() string {
	return l.root
}

// Path resolves a resource name against the root.
func (l *Loader) Path(name string) string {
	return filepath.Join(l.root, filepath.FromSlash(name))
}

// Bytes returns the content of the named resource. A missing or unreadable
// resource yields a CodeResourceUnavailable domain error.
func (l *Loader) Bytes(name string) ([]byte, error) {
	path := l.Path(name)
	if v, ok := l.cache.Get(path); ok {
		if data, ok := v.([]byte); ok {
			l.hit()
			return data, nil
		}
	}
	l.miss()

	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, dErrors.Wrap(err, dErrors.CodeResourceUnavailable, fmt.Sprintf("resource %s not found", name))
		}
		return nil, dErrors.Wrap(err, dErrors.CodeResourceUnavailable, fmt.Sprintf("failed to read resource %s", name))
	}
	if len(data) == 0 {
		return nil, dErrors.New(dErrors.CodeResourceUnavailable, fmt.Sprintf("resource %s is empty", name))
	}

	l.cache.SetDefault(path, data)
	return data, nil
}

// Invalidate drops one cached resource by name.
func (l *Loader) Invalidate(name string) {
	l.cache.Delete(l.Path(name))
}

// Flush drops every cached resource.
func (l *Loader) Flush() {
	l.cache.Flush()
}

// Check verifies that every named resource exists. It is used by the
// readiness probe and does not populate the cache.
func (l *Loader) Check(ctx context.Context, names ...string) error {
	var errs []error
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		info, err := l.fs.Stat(l.Path(name))
		if err != nil {
			errs = append(errs, fmt.Errorf("resource %s: %w", name, err))
			continue
		}
		if info.IsDir() {
			errs = append(errs, fmt.Errorf("resource %s is a directory", name))
		}
	}
	return errors.Join(errs...)
}

func (l *Loader) hit() {
	if l.observer != nil {
		l.observer.IncrementResourceCacheHit()
	}
}

func (l *Loader) miss() {
	if l.observer != nil {
		l.observer.IncrementResourceCacheMiss()
	}
}
