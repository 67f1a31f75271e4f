package main

import (
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"github.com/uv/backend/internal/infrastructure/config"
	"github.com/uv/backend/internal/infrastructure/logger"
	"github.com/uv/backend/internal/infrastructure/migration"
	"github.com/uv/backend/migrations"
	"go.uber.org/zap"
)

type cliOptions struct {
	dir      string
	logLevel string
	log      *zap.Logger
}

func newRootCommand() *cobra.Command {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the media database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log, err := logger.New(&logger.Config{
				Level:      opts.logLevel,
				Format:     "console",
				Output:     "stdout",
				TimeFormat: "2006-01-02 15:04:05",
			})
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			opts.log = log
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if opts.log != nil {
				_ = logger.Sync(opts.log)
			}
		},
	}

	root.PersistentFlags().StringVar(&opts.dir, "dir", "", "read migrations from this directory instead of the embedded set")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")

	root.AddCommand(
		migratorCommand(opts, &cobra.Command{Use: "up", Short: "Apply all pending migrations", Args: cobra.NoArgs},
			func(m *migration.Migrator, _ []string) error { return m.Up() }),
		migratorCommand(opts, &cobra.Command{Use: "down", Short: "Roll back all migrations", Args: cobra.NoArgs},
			func(m *migration.Migrator, _ []string) error { return m.Down() }),
		migratorCommand(opts, &cobra.Command{Use: "step <n>", Short: "Apply n migrations (negative rolls back)", Args: cobra.ExactArgs(1)},
			func(m *migration.Migrator, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				return m.Steps(n)
			}),
		migratorCommand(opts, &cobra.Command{Use: "goto <version>", Short: "Migrate to a specific version", Args: cobra.ExactArgs(1)},
			func(m *migration.Migrator, args []string) error {
				version, err := strconv.ParseUint(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return m.GoTo(uint(version))
			}),
		migratorCommand(opts, &cobra.Command{Use: "version", Short: "Show the current migration version", Args: cobra.NoArgs},
			func(m *migration.Migrator, _ []string) error {
				version, dirty, err := m.Version()
				if err != nil {
					return err
				}
				if version == 0 {
					opts.log.Info("No migrations applied")
					return nil
				}
				opts.log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
				return nil
			}),
		migratorCommand(opts, &cobra.Command{Use: "force <version>", Short: "Set the version without running migrations", Args: cobra.ExactArgs(1)},
			func(m *migration.Migrator, args []string) error {
				version, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return m.Force(version)
			}),
		newDropCommand(opts),
		newCreateCommand(opts),
		newListCommand(opts),
	)
	return root
}

// migratorCommand wires run to a Migrator connected to the configured database
func migratorCommand(opts *cliOptions, cmd *cobra.Command, run func(*migration.Migrator, []string) error) *cobra.Command {
	cmd.RunE = func(_ *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		db, err := sql.Open("postgres", cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			return fmt.Errorf("failed to ping database: %w", err)
		}

		m, err := migration.New(db, opts.source(), opts.log)
		if err != nil {
			return err
		}
		defer func() {
			if err := m.Close(); err != nil {
				opts.log.Warn("Failed to close migrator", zap.Error(err))
			}
		}()
		return run(m, args)
	}
	return cmd
}

func newDropCommand(opts *cliOptions) *cobra.Command {
	var confirm bool
	cmd := migratorCommand(opts, &cobra.Command{
		Use:   "drop",
		Short: "Drop every database object",
		Args:  cobra.NoArgs,
	}, func(m *migration.Migrator, _ []string) error {
		return m.Drop()
	})

	run := cmd.RunE
	cmd.RunE = func(c *cobra.Command, args []string) error {
		if !confirm {
			return fmt.Errorf("drop cancelled, rerun with --confirm")
		}
		return run(c, args)
	}
	cmd.Flags().BoolVar(&confirm, "confirm", false, "confirm dropping all data")
	return cmd
}

func newCreateCommand(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name> [description]",
		Short: "Create an empty migration pair",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(_ *cobra.Command, args []string) error {
			dir := opts.dir
			if dir == "" {
				dir = "migrations"
			}
			description := ""
			if len(args) > 1 {
				description = args[1]
			}

			mf, err := migration.CreateMigration(dir, args[0], description)
			if err != nil {
				return err
			}
			opts.log.Info("Migration created",
				zap.String("version", mf.Version),
				zap.String("up_file", mf.UpPath),
				zap.String("down_file", mf.DownPath),
			)
			return nil
		},
	}
}

func newListCommand(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names, err := migration.ListMigrations(opts.source())
			if err != nil {
				return err
			}
			if len(names) == 0 {
				opts.log.Info("No migrations found")
				return nil
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func (o *cliOptions) source() fs.FS {
	if o.dir != "" {
		return os.DirFS(o.dir)
	}
	return migrations.FS
}
