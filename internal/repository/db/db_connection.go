package db

import (
	"context"
	"database/sql"
	"fmt"

	"secure_blog/internal/logger"
	"secure_blog/internal/repository"
	"secure_blog/internal/repository/db/migrations"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// Supported driver names, as they appear in configuration.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const (
	sqliteDriverName = "sqlite"
	pgxDriverName    = "pgx"

	pgMaxOpenConns = 10
	pgMaxIdleConns = 5
)

// Open connects to the configured database, applies connection settings and
// runs pending migrations. source is a file path for sqlite and a DSN for postgres.
func Open(ctx context.Context, driver, source string, log *logger.Logger) (*sql.DB, repository.Dialect, error) {
	if log == nil {
		log = logger.Nop()
	}

	var (
		db      *sql.DB
		dialect repository.Dialect
		err     error
	)
	switch driver {
	case DriverSQLite:
		db, err = openSQLite(ctx, source)
		dialect = repository.SQLite
	case DriverPostgres:
		db, err = openPostgres(ctx, source)
		dialect = repository.Postgres
	default:
		return nil, 0, fmt.Errorf("unsupported db driver %q", driver)
	}
	if err != nil {
		return nil, 0, err
	}

	if err := migrate(ctx, db, driver, log); err != nil {
		_ = db.Close()
		return nil, 0, err
	}
	return db, dialect, nil
}

func openSQLite(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// Conservative pool settings for SQLite
	db.SetMaxOpenConns(1) // SQLite is not great with many writers
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	// Fail fast if the DB cannot be reached
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

func openPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open(pgxDriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	db.SetMaxOpenConns(pgMaxOpenConns)
	db.SetMaxIdleConns(pgMaxIdleConns)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// migrate applies the embedded migrations for driver.
func migrate(ctx context.Context, db *sql.DB, driver string, log *logger.Logger) error {
	dialect := "sqlite3"
	if driver == DriverPostgres {
		dialect = "postgres"
	}

	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(gooseLogger{log})
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db, driver); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// gooseLogger routes goose output through zap.
type gooseLogger struct {
	log *logger.Logger
}

func (l gooseLogger) Printf(format string, v ...any) { l.log.Infof(format, v...) }
func (l gooseLogger) Fatalf(format string, v ...any) { l.log.Fatalf(format, v...) }
