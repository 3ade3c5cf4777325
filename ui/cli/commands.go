// Copyright (c) 2026 Labrador Team
// Labrador - multi-backend data store browser
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/toeirei/labrador/internal/adapter"
	"github.com/toeirei/labrador/internal/app"
	"github.com/toeirei/labrador/internal/config"
	"github.com/toeirei/labrador/internal/i18n"
	"github.com/toeirei/labrador/internal/security"
	"github.com/toeirei/labrador/internal/server"
	"github.com/toeirei/labrador/internal/session"
)

// discover runs one discovery for a command, honouring its --path flag.
func discover(cmd *cobra.Command, st *state) ([]*app.Application, error) {
	reg, _, err := st.services(cmd.Context())
	if err != nil {
		return nil, err
	}
	dir, _ := cmd.Flags().GetString("path")
	return reg.Discover(cmd.Context(), app.ExpandHome(dir))
}

func newAppsCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apps",
		Short: "List discovered applications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer st.close()
			apps, err := discover(cmd, st)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(apps) == 0 {
				fmt.Fprintln(out, i18n.T("cli.no_apps"))
				return nil
			}
			rows := make([][]string, 0, len(apps))
			for _, a := range apps {
				rows = append(rows, []string{a.Name(), string(a.Config().Kind), string(a.Source()), a.Path()})
			}
			fmt.Fprintln(out, renderTable([]string{"NAME", "ADAPTER", "SOURCE", "PATH"}, rows))
			return nil
		},
	}
	cmd.Flags().String("path", "", "Directory to scan instead of the configured one")
	return cmd
}

func newTablesCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tables <app>",
		Aliases: []string{"collections"},
		Short:   "List the tables or collections of an application",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer st.close()
			apps, err := discover(cmd, st)
			if err != nil {
				return err
			}
			a := app.Resolve(apps, args[0])
			names, err := st.manager.Collections(cmd.Context(), a)
			if err != nil {
				return report(cmd, a, args[0], err)
			}
			out := cmd.OutOrStdout()
			for _, n := range names {
				fmt.Fprintln(out, n)
			}
			return nil
		},
	}
	cmd.Flags().String("path", "", "Directory to scan instead of the configured one")
	return cmd
}

func newBrowseCmd(st *state) *cobra.Command {
	var (
		limit   int
		offset  int
		sortBy  []string
		filters []string
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "browse <app> <collection>",
		Short: "Show one page of rows from a table or collection",
		Long: `Show one page of rows. Filters are field=value pairs matched for
equality; "null" matches missing values and integers are compared as numbers.
Sort fields prefixed with "-" sort descending.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := parseFilters(filters)
			if err != nil {
				return err
			}
			defer st.close()
			apps, err := discover(cmd, st)
			if err != nil {
				return err
			}
			a := app.Resolve(apps, args[0])
			rs, err := st.manager.Browse(cmd.Context(), a, adapter.Browse{
				Collection: args[1],
				Filter:     filter,
				Sort:       sortBy,
				Limit:      limit,
				Offset:     offset,
			})
			if err != nil {
				return report(cmd, a, args[0], err)
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rs)
			}
			fmt.Fprintln(out, renderResult(rs))
			fmt.Fprintln(out, i18n.T("cli.rows_shown", map[string]any{
				"Count": len(rs.Rows), "Offset": rs.Offset, "Limit": rs.Limit,
			}))
			return nil
		},
	}
	cmd.Flags().String("path", "", "Directory to scan instead of the configured one")
	cmd.Flags().IntVar(&limit, "limit", adapter.DefaultLimit, "Rows per page")
	cmd.Flags().IntVar(&offset, "offset", 0, "Rows to skip")
	cmd.Flags().StringSliceVar(&sortBy, "sort", nil, "Sort fields, e.g. -created_at,id")
	cmd.Flags().StringArrayVarP(&filters, "filter", "f", nil, "Equality filter field=value (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the page as JSON")
	return cmd
}

// parseFilters turns field=value pairs into a filter map.
func parseFilters(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		field, value, ok := strings.Cut(p, "=")
		field = strings.TrimSpace(field)
		if !ok || field == "" {
			return nil, fmt.Errorf("filter %q must look like field=value", p)
		}
		switch {
		case value == "null":
			out[field] = nil
		default:
			if n, err := strconv.ParseInt(value, 10, 64); err == nil {
				out[field] = n
			} else {
				out[field] = value
			}
		}
	}
	return out, nil
}

func newRegisterCmd(st *state) *cobra.Command {
	var (
		kind     string
		cfg      adapter.Config
		password string
	)
	cmd := &cobra.Command{
		Use:   "register <name>",
		Short: "Remember an application that has no config directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Kind = adapter.ParseKind(kind)
			if cfg.Kind == adapter.None {
				return fmt.Errorf("unsupported adapter %q", kind)
			}
			cfg.Password = security.FromString(password)
			cfg = cfg.Normalize()
			if err := cfg.Validate(); err != nil {
				return err
			}
			defer st.close()
			reg, _, err := st.services(cmd.Context())
			if err != nil {
				return err
			}
			return reg.Register(cmd.Context(), args[0], cfg)
		},
	}
	cmd.Flags().StringVar(&kind, "adapter", "", "mysql, postgres, sqlite, mongodb or rethinkdb")
	cmd.Flags().StringVar(&cfg.Host, "host", "", "Server host")
	cmd.Flags().IntVar(&cfg.Port, "port", 0, "Server port (default per adapter)")
	cmd.Flags().StringVar(&cfg.Socket, "socket", "", "Unix socket (MySQL)")
	cmd.Flags().StringVar(&cfg.Database, "database", "", "Database name")
	cmd.Flags().StringVar(&cfg.Username, "username", "", "User name")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	cmd.Flags().StringVar(&cfg.Path, "file", "", "Database file (SQLite)")
	_ = cmd.MarkFlagRequired("adapter")
	return cmd
}

func newForgetCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "forget <name>",
		Short: "Remove a remembered application from the session store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer st.close()
			reg, _, err := st.services(cmd.Context())
			if err != nil {
				return err
			}
			if err := reg.Forget(cmd.Context(), args[0]); err != nil {
				if errors.Is(err, session.ErrNotFound) {
					return fmt.Errorf("%q is not remembered", args[0])
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.forgot", map[string]any{"App": args[0]}))
			return nil
		},
	}
}

func newServeCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the browsing API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer st.close()
			reg, mgr, err := st.services(cmd.Context())
			if err != nil {
				return err
			}
			srv := server.New(server.Options{
				Registry:    reg,
				Manager:     mgr,
				BaseDomain:  st.cfg.Server.BaseDomain,
				User:        st.cfg.Server.User,
				Password:    security.FromString(st.cfg.Server.Password),
				CORSOrigins: st.cfg.Server.CORSOrigins,
			})
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.serving", map[string]any{"Addr": st.cfg.Server.Addr}))
			return srv.Run(ctx, st.cfg.Server.Addr)
		},
	}
	cmd.Flags().String("addr", "", "Listen address (default 127.0.0.1:9292)")
	cmd.Flags().String("base-domain", "", "Resolve applications from subdomains of this domain")
	return cmd
}

func newConfigCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage labrador.yaml",
	}
	var system bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the effective configuration to the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.WriteConfigFile(&st.cfg, system)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.config_written", map[string]any{"Path": path}))
			return nil
		},
	}
	initCmd.Flags().BoolVar(&system, "system", false, "Write the system-wide file instead of the user one")
	cmd.AddCommand(initCmd)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			v, c, d := resolveBuildVersion(nil)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "version: %s\n", v)
			fmt.Fprintf(out, "commit: %s\n", c)
			if d != "" {
				fmt.Fprintf(out, "built: %s\n", d)
			}
		},
	}
}

// report renders an adapter error as a panel on stderr and returns it.
func report(cmd *cobra.Command, a *app.Application, hint string, err error) error {
	if ae, ok := adapter.AsError(err); ok {
		notice := i18n.Notice(ae.Adapter(), a.Name())
		if a.IsNull() {
			notice = i18n.T("notice.no_application", map[string]any{"App": hint})
		}
		fmt.Fprintln(cmd.ErrOrStderr(), renderError(ae, notice))
	}
	return err
}
