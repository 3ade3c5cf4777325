// Copyright (c) 2026 Labrador Team
// Labrador - multi-backend data store browser
// This source code is licensed under the MIT license found in the LICENSE file.

package adapter

import (
	"context"
	"fmt"
)

// Null stands in for applications without a usable backend: the null
// application and configs naming an unknown adapter. Every call answers with
// an Unconfigured error; nothing ever panics or connects.
type Null struct {
	core
	requested Kind
}

var _ Capability = (*Null)(nil)

// NewNull returns the inert adapter. requested is the kind the
// configuration asked for, if any, and only feeds the error message.
func NewNull(app string, requested Kind) *Null {
	u := &Null{requested: requested}
	u.core.init(None, app)
	return u
}

// Family reports FamilyNone.
func (u *Null) Family() Family { return FamilyNone }

func (u *Null) reason() error {
	switch {
	case u.app == "":
		return fmt.Errorf("no application selected")
	case u.requested == "" || u.requested == None:
		return fmt.Errorf("no adapter configured")
	default:
		return fmt.Errorf("unsupported adapter %q", u.requested)
	}
}

func (u *Null) unconfigured(op string) *Error {
	e := NewError(Unconfigured, u.app, Config{Kind: None}, op+": "+u.reason().Error(), nil)
	u.record(e)
	return e
}

// Connect always fails with Unconfigured and leaves the state Disconnected.
func (u *Null) Connect(ctx context.Context, cfg Config) error {
	return u.unconfigured("connect")
}

// Disconnect is a no-op.
func (u *Null) Disconnect() {}

// Collections always fails with Unconfigured.
func (u *Null) Collections(ctx context.Context) ([]string, error) {
	return nil, u.unconfigured("list collections")
}

// Query always fails with Unconfigured.
func (u *Null) Query(ctx context.Context, b Browse) (*ResultSet, error) {
	return nil, u.unconfigured("query")
}
