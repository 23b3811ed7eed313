package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/repository"
)

type deckRepository struct {
	db *sql.DB
}

// NewDeckRepository creates a new DeckRepository implementation
func NewDeckRepository(db *sql.DB) repository.DeckRepository {
	return &deckRepository{db: db}
}

var deckColumns = []string{
	"d.id", "d.owner_id", "d.title", "d.description", "d.is_public", "d.created_at", "d.updated_at",
	"(SELECT COUNT(*) FROM cards c WHERE c.deck_id = d.id) AS card_count",
}

func scanDeck(row interface{ Scan(...any) error }) (models.Deck, error) {
	var d models.Deck
	var description sql.NullString
	err := row.Scan(&d.ID, &d.OwnerID, &d.Title, &description, &d.IsPublic, &d.CreatedAt, &d.UpdatedAt, &d.CardCount)
	d.Description = stringPtr(description)
	return d, err
}

// Create inserts the deck and its initial cards in one transaction.
func (r *deckRepository) Create(ctx context.Context, d models.Deck, cards []models.CardDraft) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Debug("creating deck: owner_id=%d, title=%q, cards=%d", d.OwnerID, d.Title, len(cards))

	var id int64
	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		ts := now()
		res, err := tx.ExecContext(ctx, `
INSERT INTO decks (owner_id, title, description, is_public, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
`, d.OwnerID, d.Title, nullString(d.Description), d.IsPublic, ts, ts)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		if err != nil {
			return err
		}
		_, err = insertCards(ctx, tx, id, cards)
		return err
	})
	if err != nil {
		log.Error("failed to create deck: %v", err)
		return 0, err
	}
	log.Debug("deck created: id=%d", id)
	return id, nil
}

func (r *deckRepository) Get(ctx context.Context, id int64) (*models.Deck, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")

	query, args, err := sqlBuilder.Select(deckColumns...).
		From("decks d").
		Where(squirrel.Eq{"d.id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	d, err := scanDeck(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("deck not found: id=%d", id)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get deck: %v", err)
		return nil, err
	}
	return &d, nil
}

func (r *deckRepository) ListByOwner(ctx context.Context, ownerID int64) ([]models.Deck, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Debug("listing decks: owner_id=%d", ownerID)

	query, args, err := sqlBuilder.Select(deckColumns...).
		From("decks d").
		Where(squirrel.Eq{"d.owner_id": ownerID}).
		OrderBy("d.updated_at DESC", "d.id DESC").
		ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list decks: %v", err)
		return nil, err
	}
	defer rows.Close()

	decks := []models.Deck{}
	for rows.Next() {
		d, err := scanDeck(rows)
		if err != nil {
			log.Error("failed to scan deck row: %v", err)
			return nil, err
		}
		decks = append(decks, d)
	}
	return decks, rows.Err()
}

func (r *deckRepository) Update(ctx context.Context, d models.Deck) error {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Debug("updating deck: id=%d", d.ID)

	_, err := r.db.ExecContext(ctx, `
UPDATE decks SET title = ?, description = ?, is_public = ?, updated_at = ?
WHERE id = ?
`, d.Title, nullString(d.Description), d.IsPublic, now(), d.ID)
	if err != nil {
		log.Error("failed to update deck: %v", err)
	}
	return err
}

func (r *deckRepository) Delete(ctx context.Context, id int64) error {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Debug("deleting deck: id=%d", id)

	_, err := r.db.ExecContext(ctx, `DELETE FROM decks WHERE id = ?`, id)
	if err != nil {
		log.Error("failed to delete deck: %v", err)
	}
	return err
}

func touchDeck(ctx context.Context, ex execer, deckID int64) error {
	_, err := ex.ExecContext(ctx, `UPDATE decks SET updated_at = ? WHERE id = ?`, now(), deckID)
	return err
}
