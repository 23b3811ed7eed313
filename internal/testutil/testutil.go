package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"github.com/vytor/studyflash/internal/db"
)

// NewTestDB creates an in-memory SQLite database with all migrations applied.
// A single connection is kept so every query sees the same in-memory database.
func NewTestDB(t *testing.T) *sql.DB {
	sqlDB, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Migrate(context.Background(), sqlDB), "failed to apply migrations")
	return sqlDB
}

// MustClose closes a resource and fails the test on error.
func MustClose(t *testing.T, closer interface{ Close() error }) {
	require.NoError(t, closer.Close())
}

// InsertUser creates a user row and returns its id.
func InsertUser(t *testing.T, sqlDB *sql.DB, email string) int64 {
	res, err := sqlDB.Exec(`INSERT INTO users (email, display_name, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		email, email, "x", time.Now().UTC())
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

// InsertDeck creates a deck row owned by ownerID and returns its id.
func InsertDeck(t *testing.T, sqlDB *sql.DB, ownerID int64, title string, public bool) int64 {
	now := time.Now().UTC()
	res, err := sqlDB.Exec(`INSERT INTO decks (owner_id, title, is_public, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		ownerID, title, public, now, now)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

// InsertCard creates a card in deckID with the given creation time.
func InsertCard(t *testing.T, sqlDB *sql.DB, deckID int64, front, back string, createdAt time.Time) int64 {
	res, err := sqlDB.Exec(`INSERT INTO cards (deck_id, front, back, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		deckID, front, back, createdAt.UTC(), createdAt.UTC())
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}
