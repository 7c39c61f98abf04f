package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/clinicrx/backend/internal/infrastructure/config"
	"github.com/clinicrx/backend/internal/infrastructure/logger"
	"github.com/clinicrx/backend/internal/infrastructure/migration"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "migrations"

func main() {
	var (
		migrationsPath string
		logLevel       string
	)
	flag.StringVar(&migrationsPath, "path", defaultMigrationsPath, "Path to migrations directory")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	absPath, err := filepath.Abs(migrationsPath)
	if err != nil {
		log.Fatal("Failed to resolve migrations path", zap.Error(err))
	}
	migrationsPath = absPath

	// create and list work on files only
	switch command {
	case "create":
		if len(args) < 2 {
			log.Fatal("Migration name required. Usage: migrate create <name> [description]")
		}
		description := ""
		if len(args) > 2 {
			description = args[2]
		}
		mf, err := migration.CreateMigration(migrationsPath, args[1], description)
		if err != nil {
			log.Fatal("Failed to create migration", zap.Error(err))
		}
		log.Info("Migration created",
			zap.Uint("version", mf.Version),
			zap.String("up_file", mf.UpPath),
			zap.String("down_file", mf.DownPath),
		)
		return

	case "list":
		entries, err := migration.ListMigrations(migrationsPath)
		if err != nil {
			log.Fatal("Failed to list migrations", zap.Error(err))
		}
		if len(entries) == 0 {
			log.Info("No migrations found", zap.String("path", migrationsPath))
			return
		}
		for _, e := range entries {
			fmt.Println("  -", e)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if cfg.Database.Driver != "postgres" {
		log.Fatal("Migrations apply to postgres only; sqlite creates its schema on startup",
			zap.String("driver", cfg.Database.Driver))
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database", zap.Error(err))
	}

	m, err := migration.New(db, migrationsPath, log)
	if err != nil {
		log.Fatal("Failed to create migrator", zap.Error(err))
	}
	defer func() { _ = m.Close() }()

	switch command {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "step":
		n, perr := strconv.Atoi(argAt(args, 1))
		if perr != nil {
			log.Fatal("Invalid step count. Usage: migrate step <n>", zap.String("value", argAt(args, 1)))
		}
		err = m.Steps(n)
	case "goto":
		v, perr := strconv.ParseUint(argAt(args, 1), 10, 32)
		if perr != nil {
			log.Fatal("Invalid version. Usage: migrate goto <version>", zap.String("value", argAt(args, 1)))
		}
		err = m.GoTo(uint(v))
	case "version":
		version, dirty, verr := m.Version()
		if verr != nil {
			log.Fatal("Failed to get version", zap.Error(verr))
		}
		log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
	case "force":
		v, perr := strconv.Atoi(argAt(args, 1))
		if perr != nil {
			log.Fatal("Invalid version. Usage: migrate force <version>", zap.String("value", argAt(args, 1)))
		}
		err = m.Force(v)
	default:
		log.Error("Unknown command", zap.String("command", command))
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal("Migration command failed", zap.String("command", command), zap.Error(err))
	}
}

func argAt(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func printUsage() {
	fmt.Println(`Clinic ledger schema migrations (postgres)

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down                  Roll back all migrations
  step <n>              Apply n migrations (positive=up, negative=down)
  goto <version>        Migrate to a specific version
  version               Show current migration version
  force <version>       Force set migration version after a failed run
  create <name> [desc]  Create the next numbered migration pair
  list                  List available migrations

Flags:
  -path string          Path to migrations directory (default: ./migrations)
  -log-level string     Log level: debug, info, warn, error (default: info)

Connection settings come from config.toml and CLINIC_DATABASE_* variables.`)
}
