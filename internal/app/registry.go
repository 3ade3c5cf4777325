// Copyright (c) 2026 Labrador Team
// Labrador - multi-backend data store browser
// This source code is licensed under the MIT license found in the LICENSE file.

package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"
	"github.com/toeirei/labrador/internal/adapter"
	"github.com/toeirei/labrador/internal/appconfig"
	"github.com/toeirei/labrador/internal/logging"
	"github.com/toeirei/labrador/internal/session"
)

// Registry discovers applications from a scan directory and the session
// store.
type Registry struct {
	fs       afero.Fs
	loader   appconfig.Loader
	store    session.Store
	strategy PathStrategy
	factory  adapter.Factory
	timeout  time.Duration

	mu   sync.RWMutex
	last []*Application
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithPathStrategy sets how the scan directory is chosen without a hint.
func WithPathStrategy(s PathStrategy) RegistryOption {
	return func(r *Registry) { r.strategy = s }
}

// WithAdapterFactory sets the factory handed to every discovered application.
func WithAdapterFactory(f adapter.Factory) RegistryOption {
	return func(r *Registry) { r.factory = f }
}

// WithDefaultTimeout sets the timeout of discovered applications whose
// config leaves it unset.
func WithDefaultTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) { r.timeout = d }
}

// NewRegistry returns a registry reading fs through loader. A nil store means
// an in-memory one.
func NewRegistry(fs afero.Fs, loader appconfig.Loader, store session.Store, opts ...RegistryOption) *Registry {
	if store == nil {
		store = session.NewMemoryStore()
	}
	r := &Registry{
		fs:       fs,
		loader:   loader,
		store:    store,
		strategy: PowStrategy{},
		factory:  adapter.New,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Discover scans hint (or the strategy's default) and merges in the session
// entries. Filesystem applications come first, sorted by name, followed by
// session-only ones; on a case-insensitive clash the filesystem wins.
func (r *Registry) Discover(ctx context.Context, hint string) ([]*Application, error) {
	dir := ExpandHome(strings.TrimSpace(hint))
	if dir == "" {
		if p, ok := r.strategy.DefaultPath(r.fs); ok {
			dir = p
		}
	}

	var fromFS []*Application
	if dir != "" {
		found, err := r.scan(ctx, dir)
		if err != nil {
			return nil, err
		}
		fromFS = found
	}

	seen := make(map[string]bool, len(fromFS))
	for _, a := range fromFS {
		seen[session.Key(a.Name())] = true
	}

	var fromSession []*Application
	entries, err := r.store.List(ctx)
	if err != nil {
		logging.Warnf("registry: listing sessions failed: %v", err)
	}
	for _, e := range entries {
		key := session.Key(e.Name)
		if seen[key] {
			continue
		}
		seen[key] = true
		fromSession = append(fromSession, r.application(e.Name, e.Config, SourceSession, e.Path))
	}
	sort.SliceStable(fromSession, func(i, j int) bool {
		return strings.ToLower(fromSession[i].Name()) < strings.ToLower(fromSession[j].Name())
	})

	apps := append(fromFS, fromSession...)
	r.mu.Lock()
	r.last = apps
	r.mu.Unlock()
	logging.Debugf("registry: discovered %d filesystem and %d session applications", len(fromFS), len(fromSession))
	return apps, nil
}

// scan loads every subdirectory of dir that holds an application config and
// records it in the session store.
func (r *Registry) scan(ctx context.Context, dir string) ([]*Application, error) {
	infos, err := afero.ReadDir(r.fs, dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Warnf("registry: scan path %s does not exist", dir)
			return nil, nil
		}
		return nil, fmt.Errorf("read scan path %s: %w", dir, err)
	}
	// ReadDir sorts by name, so on a case-insensitive clash the name that
	// sorts first wins.
	var apps []*Application
	seen := make(map[string]string, len(infos))
	for _, info := range infos {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := info.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		appDir := filepath.Join(dir, name)
		if !info.IsDir() {
			if info.Mode()&os.ModeSymlink == 0 {
				continue
			}
			// pow links applications in; follow the link.
			target, err := r.fs.Stat(appDir)
			if err != nil || !target.IsDir() {
				continue
			}
		}
		cfg, err := r.loader.Load(r.fs, appDir)
		if err != nil {
			if !errors.Is(err, appconfig.ErrNoConfig) {
				logging.Warnf("registry: skipping %s: %v", appDir, err)
			}
			continue
		}
		key := session.Key(name)
		if first, dup := seen[key]; dup {
			logging.Warnf("registry: skipping %s: name clashes with %s", appDir, first)
			continue
		}
		seen[key] = appDir
		apps = append(apps, r.application(name, cfg, SourceFilesystem, appDir))
		if err := r.store.Upsert(ctx, session.Entry{Name: name, Path: appDir, Config: cfg}); err != nil {
			logging.Warnf("registry: remembering %s failed: %v", name, err)
		}
	}
	sort.SliceStable(apps, func(i, j int) bool {
		return strings.ToLower(apps[i].Name()) < strings.ToLower(apps[j].Name())
	})
	return apps, nil
}

// application builds a discovered application. The default timeout is
// applied here so stored entries keep their own, possibly unset, value.
func (r *Registry) application(name string, cfg adapter.Config, src Source, path string) *Application {
	if cfg.Timeout <= 0 && r.timeout > 0 {
		cfg.Timeout = r.timeout
	}
	return New(name, cfg, WithFactory(r.factory), WithSource(src, path))
}

// Resolve returns the application named hint, ignoring case, or the null
// application.
func Resolve(apps []*Application, hint string) *Application {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return Null()
	}
	for _, a := range apps {
		if strings.EqualFold(a.Name(), hint) {
			return a
		}
	}
	return Null()
}

// Resolve looks hint up in the last discovery.
func (r *Registry) Resolve(hint string) *Application {
	return Resolve(r.Applications(), hint)
}

// Applications returns the result of the last discovery.
func (r *Registry) Applications() []*Application {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Application, len(r.last))
	copy(out, r.last)
	return out
}

// Register stores an application in the session store so later discoveries
// include it.
func (r *Registry) Register(ctx context.Context, name string, cfg adapter.Config) error {
	if err := r.store.Upsert(ctx, session.Entry{Name: name, Config: cfg}); err != nil {
		return fmt.Errorf("register %s: %w", name, err)
	}
	return nil
}

// Forget removes an application from the session store.
func (r *Registry) Forget(ctx context.Context, name string) error {
	if err := r.store.Delete(ctx, name); err != nil {
		return fmt.Errorf("forget %s: %w", name, err)
	}
	return nil
}
