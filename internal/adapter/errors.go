// Copyright (c) 2026 Labrador Team
// Labrador - multi-backend data store browser
// This source code is licensed under the MIT license found in the LICENSE file.

package adapter

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
)

// ErrorKind classifies an adapter failure.
type ErrorKind string

const (
	// ConnectionFailure: no handle could be established (credentials,
	// reachability, malformed parameters).
	ConnectionFailure ErrorKind = "ConnectionFailure"
	// IntrospectionFailure: tables or collections could not be listed.
	IntrospectionFailure ErrorKind = "IntrospectionFailure"
	// QueryFailure: a specific read failed.
	QueryFailure ErrorKind = "QueryFailure"
	// Timeout: an operation exceeded its bound.
	Timeout ErrorKind = "Timeout"
	// UnhandledFailure: any fault not classified above, caught at the
	// connection boundary.
	UnhandledFailure ErrorKind = "UnhandledFailure"
	// Unconfigured: the application has no usable backend.
	Unconfigured ErrorKind = "Unconfigured"
)

// Error is the single failure shape surfaced by adapters. It is immutable:
// fields are set once by NewError and only exposed through accessors.
type Error struct {
	kind    ErrorKind
	adapter string
	message string
	dump    string
	app     string
}

// NewError builds an Error for a failure of the adapter configured by cfg on
// behalf of app. The message and the native cause are masked with every
// secret found in cfg before they are stored, and the connection parameters
// are written into the dump with credential fields redacted by name.
func NewError(kind ErrorKind, app string, cfg Config, message string, cause error) *Error {
	r := newRedactor(cfg)
	adapterName := string(cfg.Kind)
	if adapterName == "" {
		adapterName = string(None)
	}
	e := &Error{
		kind:    kind,
		adapter: adapterName,
		message: r.mask(message),
		app:     app,
	}
	e.dump = r.mask(buildDump(e, cfg, r, cause))
	return e
}

func buildDump(e *Error, cfg Config, r redactor, cause error) string {
	doc := yaml.MapSlice{
		{Key: "kind", Value: string(e.kind)},
		{Key: "adapter", Value: e.adapter},
		{Key: "app", Value: e.app},
		{Key: "message", Value: e.message},
	}
	if cause != nil {
		doc = append(doc, yaml.MapItem{Key: "error", Value: r.mask(cause.Error())})
	}
	doc = append(doc, yaml.MapItem{Key: "params", Value: r.params(cfg)})
	out, err := yaml.Marshal(doc)
	if err != nil {
		// Fall back to a flat rendering; the dump must never be empty.
		return fmt.Sprintf("kind: %s\nadapter: %s\napp: %s\nmessage: %s\n", e.kind, e.adapter, e.app, e.message)
	}
	return string(out)
}

// Kind returns the failure class.
func (e *Error) Kind() ErrorKind { return e.kind }

// Adapter returns the backend kind name that produced the error.
func (e *Error) Adapter() string { return e.adapter }

// Message returns the human-readable cause.
func (e *Error) Message() string { return e.message }

// Dump returns the redacted diagnostic context, safe to display.
func (e *Error) Dump() string { return e.dump }

// App returns the name of the application that produced the error.
func (e *Error) App() string { return e.app }

func (e *Error) Error() string {
	if e.app == "" {
		return fmt.Sprintf("%s (%s): %s", e.kind, e.adapter, e.message)
	}
	return fmt.Sprintf("%s (%s, app %s): %s", e.kind, e.adapter, e.app, e.message)
}

// MarshalJSON renders the four display fields plus the kind.
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind    ErrorKind `json:"kind"`
		Adapter string    `json:"adapter"`
		App     string    `json:"app"`
		Message string    `json:"message"`
		Dump    string    `json:"dump"`
	}{e.kind, e.adapter, e.app, e.message, e.dump})
}

// AsError extracts an *Error from err.
func AsError(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// KindOf returns the kind of an adapter error, or "" for anything else.
func KindOf(err error) ErrorKind {
	if ae, ok := AsError(err); ok {
		return ae.kind
	}
	return ""
}
