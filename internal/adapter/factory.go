// Copyright (c) 2026 Labrador Team
// Labrador - multi-backend data store browser
// This source code is licensed under the MIT license found in the LICENSE file.

package adapter

// Factory builds the adapter for an application's configuration.
type Factory func(app string, cfg Config) Capability

// constructors is the closed set of supported backends.
var constructors = map[Kind]func(app string) Capability{
	MySQL:    func(app string) Capability { return NewMySQL(app) },
	Postgres: func(app string) Capability { return NewPostgres(app) },
	SQLite:   func(app string) Capability { return NewSQLite(app) },
	Mongo:    func(app string) Capability { return NewMongo(app) },
	Rethink:  func(app string) Capability { return NewRethink(app) },
}

// New returns a disconnected adapter for cfg.Kind. Unknown kinds get
// a Null adapter rather than an error, so callers never branch on nil.
func New(app string, cfg Config) Capability {
	if ctor, ok := constructors[cfg.Kind]; ok {
		return ctor(app)
	}
	return NewNull(app, cfg.Kind)
}

// Supported reports whether k has a backend implementation.
func Supported(k Kind) bool {
	_, ok := constructors[k]
	return ok
}

// Kinds lists the supported backend kinds in a stable order.
func Kinds() []Kind {
	return []Kind{MySQL, Postgres, SQLite, Mongo, Rethink}
}

var _ Factory = New
