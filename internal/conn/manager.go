// Copyright (c) 2026 Labrador Team
// Labrador - multi-backend data store browser
// This source code is licensed under the MIT license found in the LICENSE file.

// Package conn runs one connect/use/disconnect cycle per operation and turns
// every failure into an *adapter.Error.
package conn // import "github.com/toeirei/labrador/internal/conn"

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/toeirei/labrador/internal/adapter"
	"github.com/toeirei/labrador/internal/app"
	"github.com/toeirei/labrador/internal/logging"
)

// Phase is the lifecycle position of one operation.
type Phase string

const (
	Idle       Phase = "idle"
	Connecting Phase = "connecting"
	Connected  Phase = "connected"
	Failed     Phase = "failed"
	Released   Phase = "released"
)

// Manager scopes adapter connections to a single operation.
type Manager struct {
	// timeout bounds a whole operation on top of the per-call adapter
	// timeout. Zero means no extra bound.
	timeout time.Duration
}

// Option configures a Manager.
type Option func(*Manager)

// WithOperationTimeout bounds every WithConnection call by d.
func WithOperationTimeout(d time.Duration) Option {
	return func(m *Manager) { m.timeout = d }
}

// NewManager returns a manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Manager) transition(a *app.Application, from, to Phase) {
	logging.Debugf("conn %s (%s): %s -> %s", a.Name(), a.Config().Kind, from, to)
}

// Body is the work run against a connected adapter.
type Body[T any] func(ctx context.Context, ad adapter.Capability) (T, error)

// WithConnection connects a's adapter, runs body and disconnects on every
// exit path, including panics. The returned error is always an
// *adapter.Error and is recorded on a.
func WithConnection[T any](ctx context.Context, m *Manager, a *app.Application, body Body[T]) (result T, err error) {
	if m == nil {
		m = NewManager()
	}
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	phase := Idle
	ad := a.Adapter()

	defer func() {
		if r := recover(); r != nil {
			logging.Debugf("conn %s: recovered panic: %v\n%s", a.Name(), r, debug.Stack())
			var zero T
			result = zero
			err = unhandled(a, fmt.Errorf("panic: %v", r))
			m.transition(a, phase, Failed)
			phase = Failed
		}
		a.Disconnect()
		m.transition(a, phase, Released)
		if ae, ok := adapter.AsError(err); ok {
			a.Record(ae)
		}
	}()

	m.transition(a, phase, Connecting)
	phase = Connecting
	if cerr := a.Connect(ctx); cerr != nil {
		m.transition(a, phase, Failed)
		phase = Failed
		var zero T
		return zero, classify(a, cerr)
	}
	m.transition(a, phase, Connected)
	phase = Connected

	res, berr := body(ctx, ad)
	if berr != nil {
		m.transition(a, phase, Failed)
		phase = Failed
		var zero T
		return zero, classify(a, berr)
	}
	return res, nil
}

// classify passes adapter errors through and wraps anything else.
func classify(a *app.Application, err error) error {
	if ae, ok := adapter.AsError(err); ok {
		return ae
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return adapter.NewError(adapter.Timeout, a.Name(), a.Config(), "operation timed out", err)
	}
	return unhandled(a, err)
}

func unhandled(a *app.Application, fault error) *adapter.Error {
	return adapter.NewError(adapter.UnhandledFailure, a.Name(), a.Config(), "unhandled failure: "+fault.Error(), fault)
}

// Collections lists the tables or collections of a.
func (m *Manager) Collections(ctx context.Context, a *app.Application) ([]string, error) {
	return WithConnection(ctx, m, a, func(ctx context.Context, ad adapter.Capability) ([]string, error) {
		return ad.Collections(ctx)
	})
}

// Browse reads one page of a's store.
func (m *Manager) Browse(ctx context.Context, a *app.Application, b adapter.Browse) (*adapter.ResultSet, error) {
	return WithConnection(ctx, m, a, func(ctx context.Context, ad adapter.Capability) (*adapter.ResultSet, error) {
		return ad.Query(ctx, b)
	})
}
