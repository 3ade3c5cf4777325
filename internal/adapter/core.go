// Copyright (c) 2026 Labrador Team
// Labrador - multi-backend data store browser
// This source code is licensed under the MIT license found in the LICENSE file.

package adapter

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/toeirei/labrador/internal/logging"
)

// core is the bookkeeping shared by the relational and document bases: the
// state machine, the error accumulator and per-call timeouts.
type core struct {
	kind Kind
	app  string

	// mu serializes lifecycle and query calls on one adapter.
	mu    sync.Mutex
	cfg   Config
	state atomic.Int32

	errMu sync.Mutex
	errs  []*Error
}

func (c *core) init(kind Kind, app string) {
	c.kind = kind
	c.app = app
	c.cfg = Config{Kind: kind}.Normalize()
}

// Kind returns the backend kind tag.
func (c *core) Kind() Kind { return c.kind }

// State returns the last known connection state.
func (c *core) State() State { return State(c.state.Load()) }

func (c *core) setState(s State) {
	prev := State(c.state.Swap(int32(s)))
	if prev != s {
		logging.Debugf("adapter %s (%s): %s -> %s", c.kind, c.app, prev, s)
	}
}

// Errors returns a copy of the recorded errors, oldest first.
func (c *core) Errors() []*Error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	out := make([]*Error, len(c.errs))
	copy(out, c.errs)
	return out
}

// ClearErrors drops the recorded errors.
func (c *core) ClearErrors() {
	c.errMu.Lock()
	c.errs = nil
	c.errMu.Unlock()
}

// configure stores cfg for the next connection attempt.
func (c *core) configure(cfg Config) {
	cfg.Kind = c.kind
	c.cfg = cfg.Normalize()
}

// callContext bounds ctx by the configured timeout.
func (c *core) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.cfg.Timeout)
}

// fail classifies err, records an Error and returns it. Deadline expiry on
// ctx, or a network timeout, turns any kind into Timeout.
func (c *core) fail(ctx context.Context, kind ErrorKind, op string, err error) *Error {
	message := fmt.Sprintf("%s failed", op)
	if err != nil {
		message = fmt.Sprintf("%s failed: %v", op, err)
	}
	if isTimeout(ctx, err) {
		kind = Timeout
		message = fmt.Sprintf("%s timed out after %s", op, c.cfg.Timeout)
	}
	e := NewError(kind, c.app, c.cfg, message, err)
	c.record(e)
	return e
}

func (c *core) record(e *Error) {
	c.errMu.Lock()
	c.errs = append(c.errs, e)
	c.errMu.Unlock()
	logging.Debugf("adapter %s (%s): %s", c.kind, c.app, e.Error())
}

// errNotConnected is the cause recorded for calls made without a handle.
var errNotConnected = errors.New("not connected")

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
