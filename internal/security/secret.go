// Copyright (c) 2026 Labrador Team
// Labrador - multi-backend data store browser
// This source code is licensed under the MIT license found in the LICENSE file.

// Package security holds the Secret type used for connection credentials.
package security

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

const redacted = "[REDACTED]"

// Secret wraps a credential (a database password, a redis password) so that
// accidental formatting, JSON or YAML marshaling never reveal it. Code that
// really needs the value calls Reveal.
type Secret []byte

// String redacts the secret for fmt.Print* convenience.
func (s Secret) String() string { return redacted }

// Format implements fmt.Formatter so %v, %#v, %q and friends stay redacted.
func (s Secret) Format(f fmt.State, c rune) {
	_, _ = io.WriteString(f, redacted)
}

// Reveal returns the plain value. Only drivers and persistence layers should
// call it.
func (s Secret) Reveal() string { return string(s) }

// IsEmpty reports whether no credential is set.
func (s Secret) IsEmpty() bool { return len(s) == 0 }

// Mask replaces every occurrence of the secret in text with a placeholder.
// Empty secrets leave text untouched.
func (s Secret) Mask(text string) string {
	if len(s) == 0 {
		return text
	}
	return strings.ReplaceAll(text, string(s), redacted)
}

// Zero overwrites the underlying byte slice with zeros.
func (s *Secret) Zero() {
	if s == nil || *s == nil {
		return
	}
	for i := range *s {
		(*s)[i] = 0
	}
}

// MarshalJSON redacts secrets in JSON marshaling.
func (s Secret) MarshalJSON() ([]byte, error) { return json.Marshal(redacted) }

// MarshalText redacts secrets for text encoding.
func (s Secret) MarshalText() ([]byte, error) { return []byte(redacted), nil }

// MarshalYAML redacts secrets for YAML encoders (goccy/go-yaml, yaml.v3).
func (s Secret) MarshalYAML() (interface{}, error) { return redacted, nil }

// Value implements database/sql/driver.Valuer to store the raw value.
func (s Secret) Value() (driver.Value, error) { return string(s), nil }

// Scan implements sql.Scanner to read a stored credential back.
func (s *Secret) Scan(src interface{}) error {
	if src == nil {
		*s = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		*s = FromBytes(v)
		return nil
	case string:
		*s = Secret([]byte(v))
		return nil
	default:
		return fmt.Errorf("unsupported scan type %T", src)
	}
}

// FromString creates a Secret from a string.
func FromString(in string) Secret {
	if in == "" {
		return nil
	}
	return Secret([]byte(in))
}

// FromBytes creates a Secret from bytes (it makes a copy).
func FromBytes(in []byte) Secret {
	out := make([]byte, len(in))
	copy(out, in)
	return Secret(out)
}
