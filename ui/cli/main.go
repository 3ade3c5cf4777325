// Copyright (c) 2026 Labrador Team
// Labrador - multi-backend data store browser
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/toeirei/labrador/buildvars"
	"github.com/toeirei/labrador/internal/adapter"
	"github.com/toeirei/labrador/internal/app"
	"github.com/toeirei/labrador/internal/appconfig"
	"github.com/toeirei/labrador/internal/config"
	"github.com/toeirei/labrador/internal/conn"
	"github.com/toeirei/labrador/internal/i18n"
	"github.com/toeirei/labrador/internal/logging"
	"github.com/toeirei/labrador/internal/session"
)

var version = "dev"   // this will be set by the linker
var gitCommit = "dev" // set at build time with the short commit SHA
var buildDate = ""    // set at build time (RFC3339)

// flagKeys maps config keys to the persistent and per-command flags that
// override them.
var flagKeys = map[string]string{
	"apps_path":          "apps-path",
	"env":                "env",
	"timeout":            "timeout",
	"language":           "language",
	"log.level":          "log-level",
	"session.backend":    "session-backend",
	"session.dsn":        "session-dsn",
	"server.addr":        "addr",
	"server.base_domain": "base-domain",
}

// envFiles are loaded before the configuration, so LABRADOR_* variables can
// live next to the project.
var envFiles = []string{".env", ".env.local"}

// state is what PersistentPreRunE prepares for the subcommands of one root.
type state struct {
	cfgFile string
	verbose bool

	cfg      config.Config
	fs       afero.Fs
	store    session.Store
	registry *app.Registry
	manager  *conn.Manager
}

// setup loads the config and prepares logging and i18n. The session store is
// opened lazily by services.
func (s *state) setup(cmd *cobra.Command) error {
	if err := config.LoadEnvFiles(envFiles...); err != nil {
		logging.Warnf("could not load env file: %v", err)
	}
	if s.cfgFile != "" {
		if _, err := os.Stat(s.cfgFile); err != nil {
			return fmt.Errorf("config file specified via --config flag not found or is not accessible: %w", err)
		}
	}
	cfg, err := config.LoadConfig[config.Config](cmd, config.Defaults(), &s.cfgFile, flagKeys)
	if err != nil {
		return err
	}
	s.cfg = cfg
	logging.SetLevel(cfg.Log.Level)
	if s.verbose {
		logging.SetDebug(true)
	}
	i18n.Init(cfg.Language)
	if s.fs == nil {
		s.fs = afero.NewOsFs()
	}
	return nil
}

// services opens the session store and builds the registry on first use.
func (s *state) services(ctx context.Context) (*app.Registry, *conn.Manager, error) {
	if s.registry != nil {
		return s.registry, s.manager, nil
	}
	if s.store == nil {
		store, err := session.Open(ctx, session.Options{
			Backend:       s.cfg.Session.Backend,
			DSN:           s.cfg.Session.DSN,
			RedisAddr:     s.cfg.Session.Redis.Addr,
			RedisPassword: s.cfg.Session.Redis.Password,
			RedisDB:       s.cfg.Session.Redis.DB,
			RedisPrefix:   s.cfg.Session.Redis.Prefix,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open session store: %w", err)
		}
		s.store = store
	}

	var strategy app.Chain
	if s.cfg.AppsPath != "" {
		strategy = append(strategy, app.StaticPath(app.ExpandHome(s.cfg.AppsPath)))
	}
	strategy = append(strategy, app.PowStrategy{})

	timeout := s.cfg.ConnectTimeout()
	s.registry = app.NewRegistry(s.fs, appconfig.NewLoader(s.cfg.Env), s.store,
		app.WithPathStrategy(strategy),
		app.WithDefaultTimeout(timeout),
	)
	s.manager = conn.NewManager(conn.WithOperationTimeout(timeout))
	return s.registry, s.manager, nil
}

func (s *state) close() {
	if s.store == nil {
		return
	}
	if err := s.store.Close(); err != nil {
		logging.Warnf("close session store: %v", err)
	}
	s.store = nil
	s.registry = nil
}

// Execute runs the CLI entrypoint. cmd/labrador calls this and handles the
// exit code.
func Execute() error {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		// Adapter errors are already rendered as a panel.
		if _, ok := adapter.AsError(err); !ok {
			logging.Errorf("%v", err)
		}
		return err
	}
	return nil
}

// NewRootCmd creates and configures a new root cobra command. Each call
// returns an independent command tree, which tests rely on.
func NewRootCmd() *cobra.Command {
	st := &state{}
	cmd := &cobra.Command{
		Use:   "labrador",
		Short: "Labrador browses the data stores of your local applications.",
		Long: `Labrador discovers applications in a directory (by default ~/.pow),
reads the database settings each one declares and lets you list and page
through its tables or collections. MySQL, PostgreSQL, SQLite, MongoDB and
RethinkDB are supported.

Run "labrador serve" to expose the same operations over HTTP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return st.setup(cmd)
		},
	}

	cmd.Version = compositeVersion()

	cmd.PersistentFlags().StringVar(&st.cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/labrador/labrador.yaml)")
	cmd.PersistentFlags().BoolVarP(&st.verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().String("apps-path", "", "Directory scanned for applications (default ~/.pow)")
	cmd.PersistentFlags().String("env", "", `Environment block of application configs (default "development")`)
	cmd.PersistentFlags().String("timeout", "", "Bound on each connect and query, e.g. 5s")
	cmd.PersistentFlags().String("language", "", `Message language ("en", "de")`)
	cmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	cmd.PersistentFlags().String("session-backend", "", "Session store: sqlite, postgres, mysql, redis, memory")
	cmd.PersistentFlags().String("session-dsn", "", "Session store DSN for SQL backends")

	cmd.AddCommand(
		newAppsCmd(st),
		newTablesCmd(st),
		newBrowseCmd(st),
		newRegisterCmd(st),
		newForgetCmd(st),
		newServeCmd(st),
		newConfigCmd(st),
		newVersionCmd(),
	)
	return cmd
}

func compositeVersion() string {
	v, c, d := resolveBuildVersion(nil)
	out := v
	if c != "" && c != "dev" {
		out = out + " (" + c + ")"
	}
	if d != "" {
		out = out + " built: " + d
	}
	return out
}

// resolveBuildVersion computes the best-available version, commit and build
// date for the running binary. If info is nil, it reads build info from the
// runtime.
func resolveBuildVersion(info *debug.BuildInfo) (versionOut, commitOut, dateOut string) {
	resolvedVersion := buildvars.VersionOrDefault(version)
	resolvedCommit := gitCommit
	resolvedDate := buildDate

	if info == nil {
		if local, ok := debug.ReadBuildInfo(); ok {
			info = local
		}
	}
	if info != nil {
		if info.Main.Version != "" && info.Main.Version != "(devel)" && buildvars.Version == "" {
			resolvedVersion = info.Main.Version
		}
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if s.Value != "" {
					resolvedCommit = s.Value
				}
			case "vcs.time":
				if s.Value != "" {
					resolvedDate = s.Value
				}
			}
		}
	}

	// Without any version, fall back to the commit provided via ldflags.
	if resolvedVersion == "dev" && gitCommit != "dev" && gitCommit != "" {
		resolvedVersion = gitCommit
	}
	return resolvedVersion, resolvedCommit, resolvedDate
}
