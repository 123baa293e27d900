// Package store owns the relational schema of SPEC_FULL.md §6: the
// golang-migrate migrations that create it, and the GORM model list
// used to auto-migrate it in tests/dev environments where running a
// separate migration step is inconvenient.
package store

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"

	"github.com/chatrag/ragcore/internal/types"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Models lists every row type the schema manages, for GORM's AutoMigrate.
var Models = []any{
	&types.Message{},
	&types.UtteranceEmbedding{},
	&types.SlidingWindowEmbedding{},
	&types.AskJob{},
	&types.TruthJob{},
}

// Migrate applies every pending up migration against db. The pgvector
// columns are created at a fixed width (1536) by the SQL migration,
// which must match the embedder's Dimensions() at deploy time.
func Migrate(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("store.migrate: %w", err)
	}

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("store.migrate: %w", err)
	}

	source, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("store.migrate: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("store.migrate: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("store.migrate: %w", err)
	}
	return nil
}
