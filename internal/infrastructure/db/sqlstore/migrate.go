package sqlstore

import (
	"context"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrations embed.FS

const migrationTable = "schema_migrations"

// goose keeps its dialect and base FS in package globals.
var gooseMu sync.Mutex

type gooseLogger struct {
	log zerolog.Logger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.log.Info().Msgf(format, v...)
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.log.Error().Msgf(format, v...)
}

// Migrate applies every pending migration for the store's dialect.
func (s *Store) Migrate(ctx context.Context) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	dialect, dir := "postgres", "migrations/postgres"
	if s.dialect == SQLite {
		dialect, dir = "sqlite3", "migrations/sqlite"
	}

	goose.SetLogger(gooseLogger{log: s.logger.With().Str("component", "migrations").Logger()})
	goose.SetBaseFS(migrations)
	goose.SetTableName(migrationTable)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}

	if err := goose.UpContext(ctx, s.db, dir); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
