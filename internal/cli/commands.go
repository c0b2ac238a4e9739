package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/waveofmymind/simple-db/config"
	"github.com/waveofmymind/simple-db/core"
	"github.com/waveofmymind/simple-db/internal/gen"
)

func newPingCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Open the pool and ping one session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			start := time.Now()
			if err := db.Ping(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %s, %d sessions, %s\n",
				db.Dialect().Name(), db.Pool().Stats().Capacity, time.Since(start).Round(time.Microsecond))
			return nil
		},
	}
}

func newRunCmd(g *globalFlags) *cobra.Command {
	var insert bool
	cmd := &cobra.Command{
		Use:   "run <sql> [args...]",
		Short: "Execute a statement and print the affected rows or generated key",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			s := db.GenSQL().Append(args[0], toArgs(args[1:])...)
			if insert {
				id, err := s.Insert(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "inserted id %d\n", id)
				return nil
			}
			n, err := s.Update(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d rows affected\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&insert, "insert", false, "print the generated key instead of the row count")
	return cmd
}

func newQueryCmd(g *globalFlags) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "query <sql> [args...]",
		Short: "Run a query and print its rows",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "table" && format != "json" {
				return errors.Newf("unknown format %q", format)
			}
			db, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			rows, err := db.GenSQL().Append(args[0], toArgs(args[1:])...).SelectRows(cmd.Context())
			if err != nil {
				return err
			}
			if format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if rows == nil {
					rows = []core.Row{}
				}
				return enc.Encode(rows)
			}
			return writeTable(cmd.OutOrStdout(), rows)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format: table or json")
	return cmd
}

// writeTable prints rows as an aligned table with columns sorted by name.
func writeTable(w io.Writer, rows []core.Row) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "(0 rows)")
		return err
	}
	cols := make([]string, 0, len(rows[0]))
	for c := range rows[0] {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(cols, "\t"))
	for _, row := range rows {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = cell(row[c])
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "(%d rows)\n", len(rows))
	return err
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case time.Time:
		return x.Format("2006-01-02 15:04:05")
	case []byte:
		return fmt.Sprintf("0x%x", x)
	}
	return cast.ToString(v)
}

func newStatsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print pool capacity and usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			st := db.Pool().Stats()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "driver\t%s\n", db.Dialect().Name())
			fmt.Fprintf(tw, "capacity\t%d\n", st.Capacity)
			fmt.Fprintf(tw, "idle\t%d\n", st.Idle)
			fmt.Fprintf(tw, "in use\t%d\n", st.InUse)
			fmt.Fprintf(tw, "waiting\t%d\n", st.Waiting)
			fmt.Fprintf(tw, "reclaimed\t%d\n", st.Reclaimed)
			return tw.Flush()
		},
	}
}

func newGenCmd(g *globalFlags) *cobra.Command {
	var (
		pkg       string
		outDir    string
		overwrite bool
	)
	cmd := &cobra.Command{
		Use:   "gen [tables...]",
		Short: "Generate record types and model shapes from tables",
		Long:  "gen writes one Go file per table declaring a struct and its model.Shape. Without arguments every table is generated.",
		RunE: func(cmd *cobra.Command, tables []string) error {
			db, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := cmd.Context()
			if len(tables) == 0 {
				if tables, err = gen.Tables(ctx, db); err != nil {
					return err
				}
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return errors.Wrap(err, "create output directory")
			}

			for _, table := range tables {
				file := filepath.Join(outDir, strings.ToLower(table)+".go")
				if _, err := os.Stat(file); err == nil && !overwrite {
					fmt.Fprintf(cmd.ErrOrStderr(), "skip %s: %s exists (use --overwrite)\n", table, file)
					continue
				}
				cols, err := gen.Columns(ctx, db, table)
				if err != nil {
					return err
				}
				src, err := gen.Render(pkg, table, cols)
				if err != nil {
					return err
				}
				if err := os.WriteFile(file, src, 0o644); err != nil {
					return errors.Wrapf(err, "write %s", file)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", table, file)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&pkg, "pkg", "models", "package name of the generated files")
	cmd.Flags().StringVarP(&outDir, "out", "o", "./models", "output directory")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace existing files")
	return cmd
}

func newConfigCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := g.options(cmd)
			if err != nil {
				return err
			}
			return config.Write(cmd.OutOrStdout(), opts)
		},
	}
}
