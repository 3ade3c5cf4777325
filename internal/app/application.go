// Copyright (c) 2026 Labrador Team
// Labrador - multi-backend data store browser
// This source code is licensed under the MIT license found in the LICENSE file.

// Package app models browsable applications and discovers them from a scan
// directory and the session store.
package app // import "github.com/toeirei/labrador/internal/app"

import (
	"context"
	"sync"

	"github.com/toeirei/labrador/internal/adapter"
)

// Source tells where an application was found.
type Source string

const (
	SourceFilesystem Source = "filesystem"
	SourceSession    Source = "session"
	SourceNone       Source = "none"
)

// Application is one named data store a user can browse. Its adapter is
// bound lazily and it accumulates the errors of the current operation.
type Application struct {
	name   string
	cfg    adapter.Config
	source Source
	path   string

	factory adapter.Factory

	mu      sync.Mutex
	adapter adapter.Capability
	errs    []*adapter.Error
}

// Option configures an Application.
type Option func(*Application)

// WithFactory replaces the adapter factory; the default is adapter.New.
func WithFactory(f adapter.Factory) Option {
	return func(a *Application) {
		if f != nil {
			a.factory = f
		}
	}
}

// WithSource records where the application came from.
func WithSource(s Source, path string) Option {
	return func(a *Application) {
		a.source = s
		a.path = path
	}
}

// New returns an application named name backed by cfg.
func New(name string, cfg adapter.Config, opts ...Option) *Application {
	a := &Application{name: name, cfg: cfg, source: SourceSession, factory: adapter.New}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Null returns the application used when nothing matches. Every data call
// fails with an Unconfigured error.
func Null() *Application {
	return New("", adapter.Config{Kind: adapter.None}, WithSource(SourceNone, ""))
}

func (a *Application) Name() string           { return a.name }
func (a *Application) Config() adapter.Config { return a.cfg }
func (a *Application) Source() Source         { return a.source }
func (a *Application) Path() string           { return a.path }

// IsNull reports whether a is the null application.
func (a *Application) IsNull() bool { return a.name == "" }

// Adapter returns the bound adapter, creating it on first use.
func (a *Application) Adapter() adapter.Capability {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.adapter == nil {
		a.adapter = a.factory(a.name, a.cfg)
	}
	return a.adapter
}

// Connect connects the adapter with the application's configuration.
func (a *Application) Connect(ctx context.Context) error {
	return a.track(a.Adapter().Connect(ctx, a.cfg))
}

// Disconnect releases the adapter's handle, if it was ever bound.
func (a *Application) Disconnect() {
	a.mu.Lock()
	ad := a.adapter
	a.mu.Unlock()
	if ad != nil {
		ad.Disconnect()
	}
}

// Collections lists the tables or collections of the connected store.
func (a *Application) Collections(ctx context.Context) ([]string, error) {
	names, err := a.Adapter().Collections(ctx)
	return names, a.track(err)
}

// Query reads one page from the connected store.
func (a *Application) Query(ctx context.Context, b adapter.Browse) (*adapter.ResultSet, error) {
	rs, err := a.Adapter().Query(ctx, b)
	return rs, a.track(err)
}

// Errors returns the recorded errors, oldest first.
func (a *Application) Errors() []*adapter.Error {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*adapter.Error, len(a.errs))
	copy(out, a.errs)
	return out
}

// ClearErrors drops the recorded errors of the application and its adapter.
func (a *Application) ClearErrors() {
	a.mu.Lock()
	a.errs = nil
	ad := a.adapter
	a.mu.Unlock()
	if ad != nil {
		ad.ClearErrors()
	}
}

// Record appends e unless it is already recorded.
func (a *Application) Record(e *adapter.Error) {
	if e == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, have := range a.errs {
		if have == e {
			return
		}
	}
	a.errs = append(a.errs, e)
}

func (a *Application) track(err error) error {
	if ae, ok := adapter.AsError(err); ok {
		a.Record(ae)
	}
	return err
}
