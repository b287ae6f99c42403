package main

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"

	"github.com/erp/ledger/internal/infrastructure/migration"
	"github.com/erp/ledger/internal/infrastructure/persistence"
	"github.com/erp/ledger/migrations"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrationsPath string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the ledger database schema",
	Long: `Apply, roll back and inspect schema migrations.

Migrations are embedded in the binary; --path reads them from a
directory instead. With the sqlite driver only "up" is supported and
creates the schema from the persistence models.`,
	Example: `  apctl migrate up
  apctl migrate steps -1
  apctl migrate create add_batch_index "Index batch rows by vendor" --path migrations`,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.PersistentFlags().StringVar(&migrationsPath, "path", "", "migrations directory (default: embedded migrations)")

	migrateCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE:  runMigrateUp,
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back all migrations",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(m *migration.Migrator, _ []string) error {
				return m.Down()
			}),
		},
		&cobra.Command{
			Use:   "steps <n>",
			Short: "Apply n migrations (positive=up, negative=down)",
			Args:  cobra.ExactArgs(1),
			RunE: withMigrator(func(m *migration.Migrator, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				return m.Steps(n)
			}),
		},
		&cobra.Command{
			Use:   "goto <version>",
			Short: "Migrate to a specific version",
			Args:  cobra.ExactArgs(1),
			RunE: withMigrator(func(m *migration.Migrator, args []string) error {
				version, err := strconv.ParseUint(args[0], 10, 32)
				if err != nil {
					return fmt.Errorf("invalid version number %q", args[0])
				}
				return m.GoTo(uint(version))
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Show the current migration version",
			Args:  cobra.NoArgs,
			RunE:  withMigrator(printVersion),
		},
		&cobra.Command{
			Use:   "force <version>",
			Short: "Force the migration version after repairing a dirty schema",
			Args:  cobra.ExactArgs(1),
			RunE: withMigrator(func(m *migration.Migrator, args []string) error {
				version, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version number %q", args[0])
				}
				return m.Force(version)
			}),
		},
		&cobra.Command{
			Use:   "create <name> [description]",
			Short: "Create a new migration file pair in --path",
			Args:  cobra.RangeArgs(1, 2),
			RunE:  runMigrateCreate,
		},
		&cobra.Command{
			Use:   "list",
			Short: "List available migrations",
			Args:  cobra.NoArgs,
			RunE:  runMigrateList,
		},
	)
}

func printVersion(m *migration.Migrator, _ []string) error {
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	if version == 0 {
		fmt.Println("No migrations applied")
		return nil
	}
	fmt.Printf("%d (dirty=%t)\n", version, dirty)
	return nil
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Database.Driver != "sqlite" {
		return withMigrator(func(m *migration.Migrator, _ []string) error {
			return m.Up()
		})(cmd, args)
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	db, err := persistence.NewDatabase(&cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.AutoMigrate(); err != nil {
		return err
	}
	log.Info("SQLite schema is up to date", zap.String("path", cfg.Database.SQLitePath))
	return nil
}

// withMigrator opens a postgres connection and a Migrator for fn
func withMigrator(fn func(m *migration.Migrator, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Database.Driver != "postgres" {
			return fmt.Errorf("migrate %s requires the postgres driver, got %q", cmd.Name(), cfg.Database.Driver)
		}
		log, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		db, err := sql.Open("postgres", cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		if err := db.PingContext(cmd.Context()); err != nil {
			return fmt.Errorf("failed to ping database: %w", err)
		}

		var m *migration.Migrator
		if migrationsPath != "" {
			m, err = migration.New(db, migrationsPath, log)
		} else {
			m, err = migration.NewFromFS(db, migrations.FS, log)
		}
		if err != nil {
			return err
		}
		defer m.Close()

		return fn(m, args)
	}
}

func runMigrateCreate(cmd *cobra.Command, args []string) error {
	if migrationsPath == "" {
		return fmt.Errorf("migrate create needs --path pointing at the migrations directory")
	}
	description := ""
	if len(args) > 1 {
		description = args[1]
	}

	mf, err := migration.CreateMigration(migrationsPath, args[0], description)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), mf.UpPath)
	fmt.Fprintln(cmd.OutOrStdout(), mf.DownPath)
	return nil
}

func runMigrateList(cmd *cobra.Command, _ []string) error {
	var (
		list []string
		err  error
	)
	if migrationsPath != "" {
		list, err = migration.ListMigrations(os.DirFS(migrationsPath))
	} else {
		list, err = migration.ListMigrations(migrations.FS)
	}
	if err != nil {
		return err
	}

	if len(list) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No migrations found")
		return nil
	}
	for _, name := range list {
		fmt.Fprintln(cmd.OutOrStdout(), "  -", name)
	}
	return nil
}
