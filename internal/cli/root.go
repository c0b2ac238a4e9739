// Package cli implements the simpledb command line.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/waveofmymind/simple-db/config"
	"github.com/waveofmymind/simple-db/core"
	"github.com/waveofmymind/simple-db/logger"
)

// globalFlags are shared by every subcommand. Flags override the config
// file and SIMPLEDB_* variables only when given explicitly.
type globalFlags struct {
	configPath string
	envFiles   []string
	driver     string
	host       string
	port       int
	user       string
	password   string
	database   string
	poolSize   int
	dev        bool
	logLevel   string
}

// NewRootCmd builds the command tree writing to out and err.
func NewRootCmd(out, errOut io.Writer) *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "simpledb",
		Short: "Run SQL through a fixed pool of database sessions",
		Long: `simpledb opens a fixed pool of sessions against MySQL, PostgreSQL or SQLite
and runs statements through it.

Configuration is read from --config (YAML), then SIMPLEDB_* environment
variables (also loaded from .env files), then explicit flags.`,
		SilenceUsage: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", "", "YAML config file")
	pf.StringSliceVar(&g.envFiles, "env-file", nil, "dotenv files to load (default .env)")
	pf.StringVar(&g.driver, "driver", "", "database driver: mysql, postgres, pgx or sqlite3")
	pf.StringVar(&g.host, "host", "", "database host")
	pf.IntVar(&g.port, "port", 0, "database port")
	pf.StringVarP(&g.user, "user", "u", "", "database user")
	pf.StringVarP(&g.password, "password", "p", "", "database password")
	pf.StringVarP(&g.database, "database", "d", "", "database name, or file for sqlite3")
	pf.IntVar(&g.poolSize, "pool-size", 0, "number of pooled sessions")
	pf.BoolVar(&g.dev, "dev", false, "log every statement before it runs")
	pf.StringVar(&g.logLevel, "log-level", "", "silent, error, warn, info or debug")

	root.AddCommand(
		newPingCmd(g),
		newRunCmd(g),
		newQueryCmd(g),
		newStatsCmd(g),
		newGenCmd(g),
		newConfigCmd(g),
	)
	return root
}

// Execute runs the root command against the process streams.
func Execute() error {
	return NewRootCmd(os.Stdout, os.Stderr).Execute()
}

// options resolves the effective configuration for cmd.
func (g *globalFlags) options(cmd *cobra.Command) (*core.Options, error) {
	if err := config.LoadDotEnv(g.envFiles...); err != nil {
		return nil, err
	}
	opts, err := config.Read(g.configPath)
	if err != nil {
		return nil, err
	}

	f := cmd.Flags()
	if f.Changed("driver") {
		opts.Driver = g.driver
	}
	if f.Changed("host") {
		opts.Host = g.host
	}
	if f.Changed("port") {
		opts.Port = g.port
	}
	if f.Changed("user") {
		opts.User = g.user
	}
	if f.Changed("password") {
		opts.Password = g.password
	}
	if f.Changed("database") {
		opts.Database = g.database
	}
	if f.Changed("pool-size") {
		opts.PoolSize = g.poolSize
	}
	if f.Changed("dev") {
		opts.DevMode = g.dev
	}
	if f.Changed("log-level") {
		opts.Log.Level = g.logLevel
	}

	if err := config.Validate(opts); err != nil {
		return nil, err
	}
	return opts, nil
}

// open connects with logs going to stderr unless a log file is configured.
func (g *globalFlags) open(cmd *cobra.Command) (*core.DB, error) {
	opts, err := g.options(cmd)
	if err != nil {
		return nil, err
	}
	if opts.Log.Filename == "" {
		level, err := logger.ParseLevel(opts.Log.Level)
		if err != nil {
			return nil, err
		}
		if !cmd.Flags().Changed("log-level") && level > logger.LogLevelWarn {
			level = logger.LogLevelWarn
		}
		opts.Logger = logger.New(cmd.ErrOrStderr(), level, logger.LogFormat(opts.Log.Format))
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	db, err := core.OpenContext(ctx, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s database", opts.Driver)
	}
	return db, nil
}

func toArgs(raw []string) []any {
	args := make([]any, len(raw))
	for i, a := range raw {
		args[i] = a
	}
	return args
}
