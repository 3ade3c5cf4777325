// Copyright (c) 2026 Labrador Team
// Labrador - multi-backend data store browser
// This source code is licensed under the MIT license found in the LICENSE file.

// Package appconfig reads the database configuration an application keeps in
// its own directory (Rails, Mongoid and RethinkDB conventions, or an explicit
// .labrador.yml) and turns it into an adapter.Config.
package appconfig // import "github.com/toeirei/labrador/internal/appconfig"

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/toeirei/labrador/internal/adapter"
	"github.com/toeirei/labrador/internal/security"
	"gopkg.in/yaml.v3"
)

// ErrNoConfig is returned for directories without any known config file.
var ErrNoConfig = errors.New("no database configuration found")

// DefaultEnv is the environment read from multi-environment files.
const DefaultEnv = "development"

// Convention files, in lookup order.
const (
	LabradorFile = ".labrador.yml"
	DatabaseFile = "config/database.yml"
	MongoidFile  = "config/mongoid.yml"
	RethinkFile  = "config/rethinkdb.yml"
)

// Loader turns an application directory into its backend configuration.
type Loader interface {
	Load(fs afero.Fs, dir string) (adapter.Config, error)
}

// YAMLLoader reads the convention files with yaml.v3.
type YAMLLoader struct {
	// Env selects the block of multi-environment files.
	Env string
}

var _ Loader = (*YAMLLoader)(nil)

// NewLoader returns a loader for env; an empty env means DefaultEnv.
func NewLoader(env string) *YAMLLoader {
	if env == "" {
		env = DefaultEnv
	}
	return &YAMLLoader{Env: env}
}

// Load returns the configuration of the first convention file present in
// dir. ErrNoConfig means the directory is not an application.
func (l *YAMLLoader) Load(fs afero.Fs, dir string) (adapter.Config, error) {
	steps := []struct {
		file  string
		parse func(data []byte) (adapter.Config, error)
	}{
		{LabradorFile, l.parseLabrador},
		{DatabaseFile, l.parseDatabase},
		{MongoidFile, l.parseMongoid},
		{RethinkFile, l.parseRethink},
	}
	for _, step := range steps {
		path := filepath.Join(dir, filepath.FromSlash(step.file))
		data, err := afero.ReadFile(fs, path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return adapter.Config{}, fmt.Errorf("read %s: %w", path, err)
		}
		cfg, err := step.parse(data)
		if err != nil {
			return adapter.Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
		return resolvePaths(cfg, dir), nil
	}
	return adapter.Config{}, ErrNoConfig
}

// block is the union of the connection keys used by the supported formats.
type block struct {
	Adapter  string   `yaml:"adapter"`
	Host     string   `yaml:"host"`
	Hosts    []string `yaml:"hosts"`
	Port     int      `yaml:"port"`
	Socket   string   `yaml:"socket"`
	Database string   `yaml:"database"`
	DB       string   `yaml:"db"`
	Path     string   `yaml:"path"`
	Username string   `yaml:"username"`
	User     string   `yaml:"user"`
	Password string   `yaml:"password"`
	AuthKey  string   `yaml:"auth_key"`
	Timeout  int      `yaml:"connect_timeout"`
}

var knownKeys = map[string]bool{
	"adapter": true, "host": true, "hosts": true, "port": true, "socket": true,
	"database": true, "db": true, "path": true, "username": true, "user": true,
	"password": true, "auth_key": true, "connect_timeout": true, "options": true,
}

// decodeBlock decodes node into a Config. Unknown scalar keys and the
// entries of a nested "options" map become Config.Options.
func decodeBlock(node *yaml.Node, kind adapter.Kind) (adapter.Config, error) {
	var b block
	if err := node.Decode(&b); err != nil {
		return adapter.Config{}, err
	}
	var all map[string]any
	if err := node.Decode(&all); err != nil {
		return adapter.Config{}, err
	}
	opts := map[string]string{}
	for k, v := range all {
		if knownKeys[k] {
			continue
		}
		if s, ok := scalar(v); ok {
			opts[k] = s
		}
	}
	if nested, ok := all["options"].(map[string]any); ok {
		for k, v := range nested {
			if s, ok := scalar(v); ok {
				opts[k] = s
			}
		}
	}
	if kind == "" {
		kind = adapter.ParseKind(b.Adapter)
	}

	cfg := adapter.Config{
		Kind:     kind,
		Host:     b.Host,
		Port:     b.Port,
		Socket:   b.Socket,
		Database: firstOf(b.Database, b.DB),
		Path:     b.Path,
		Username: firstOf(b.Username, b.User, opts["user"], opts["username"]),
		Password: security.FromString(firstOf(b.Password, opts["password"])),
	}
	delete(opts, "user")
	delete(opts, "username")
	delete(opts, "password")
	if b.AuthKey != "" {
		opts["auth_key"] = b.AuthKey
	}
	if len(b.Hosts) > 0 && cfg.Host == "" {
		host, port, err := splitHostPort(b.Hosts[0])
		if err != nil {
			return adapter.Config{}, err
		}
		cfg.Host = host
		if cfg.Port == 0 {
			cfg.Port = port
		}
	}
	cfg.Timeout = secondsToDuration(b.Timeout)
	if cfg.Kind == adapter.SQLite && cfg.Path == "" {
		cfg.Path = cfg.Database
	}
	if len(opts) > 0 {
		cfg.Options = opts
	}
	return cfg, nil
}

func (l *YAMLLoader) parseLabrador(data []byte) (adapter.Config, error) {
	root, err := document(data)
	if err != nil {
		return adapter.Config{}, err
	}
	// An explicit file may be flat or keyed by environment.
	if env := child(root, l.Env); env != nil && env.Kind == yaml.MappingNode {
		root = env
	}
	cfg, err := decodeBlock(root, "")
	if err != nil {
		return adapter.Config{}, err
	}
	if cfg.Kind == adapter.None {
		return adapter.Config{}, fmt.Errorf("unknown or missing adapter")
	}
	return cfg, nil
}

func (l *YAMLLoader) parseDatabase(data []byte) (adapter.Config, error) {
	root, err := document(data)
	if err != nil {
		return adapter.Config{}, err
	}
	env := child(root, l.Env)
	if env == nil {
		return adapter.Config{}, fmt.Errorf("no %q environment", l.Env)
	}
	cfg, err := decodeBlock(env, "")
	if err != nil {
		return adapter.Config{}, err
	}
	if cfg.Kind == adapter.None {
		return adapter.Config{}, fmt.Errorf("unsupported adapter in %q environment", l.Env)
	}
	return cfg, nil
}

func (l *YAMLLoader) parseMongoid(data []byte) (adapter.Config, error) {
	root, err := document(data)
	if err != nil {
		return adapter.Config{}, err
	}
	env := child(root, l.Env)
	if env == nil {
		return adapter.Config{}, fmt.Errorf("no %q environment", l.Env)
	}
	// Mongoid 3/4 used "sessions", later versions "clients".
	for _, section := range []string{"clients", "sessions"} {
		if def := child(child(env, section), "default"); def != nil {
			return decodeBlock(def, adapter.Mongo)
		}
	}
	return adapter.Config{}, fmt.Errorf("no default client in %q environment", l.Env)
}

func (l *YAMLLoader) parseRethink(data []byte) (adapter.Config, error) {
	root, err := document(data)
	if err != nil {
		return adapter.Config{}, err
	}
	if env := child(root, l.Env); env != nil && env.Kind == yaml.MappingNode {
		root = env
	}
	return decodeBlock(root, adapter.Rethink)
}

// document parses data and returns its top-level mapping.
func document(data []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("empty document")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("top level is not a mapping")
	}
	return root, nil
}

// child returns the value of key in mapping node n, resolving aliases.
func child(n *yaml.Node, key string) *yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			v := n.Content[i+1]
			if v.Kind == yaml.AliasNode {
				v = v.Alias
			}
			return v
		}
	}
	return nil
}

// resolvePaths makes SQLite database paths relative to the app directory.
func resolvePaths(cfg adapter.Config, dir string) adapter.Config {
	if cfg.Kind != adapter.SQLite || cfg.Path == "" {
		return cfg
	}
	if cfg.Path == ":memory:" || strings.HasPrefix(cfg.Path, "file:") || filepath.IsAbs(cfg.Path) {
		return cfg
	}
	cfg.Path = filepath.Join(dir, filepath.FromSlash(cfg.Path))
	return cfg
}

func splitHostPort(hp string) (string, int, error) {
	if !strings.Contains(hp, ":") {
		return hp, 0, nil
	}
	host, p, err := net.SplitHostPort(hp)
	if err != nil {
		return "", 0, fmt.Errorf("invalid host %q: %w", hp, err)
	}
	port, err := strconv.Atoi(p)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port in %q: %w", hp, err)
	}
	return host, port, nil
}

func scalar(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case int:
		return strconv.Itoa(t), true
	case bool:
		return strconv.FormatBool(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	default:
		return "", false
	}
}

func firstOf(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func secondsToDuration(secs int) time.Duration {
	if secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
