package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/repository"
)

type cardRepository struct {
	db *sql.DB
}

// NewCardRepository creates a new CardRepository implementation
func NewCardRepository(db *sql.DB) repository.CardRepository {
	return &cardRepository{db: db}
}

var cardColumns = []string{"c.id", "c.deck_id", "c.front", "c.back", "c.hint", "c.created_at", "c.updated_at"}

func scanCard(row interface{ Scan(...any) error }) (models.Card, error) {
	var c models.Card
	var hint sql.NullString
	err := row.Scan(&c.ID, &c.DeckID, &c.Front, &c.Back, &hint, &c.CreatedAt, &c.UpdatedAt)
	c.Hint = stringPtr(hint)
	return c, err
}

func (r *cardRepository) queryCards(ctx context.Context, q squirrel.SelectBuilder) ([]models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")

	query, args, err := q.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query cards: %v", err)
		return nil, err
	}
	defer rows.Close()

	cards := []models.Card{}
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			log.Error("failed to scan card row: %v", err)
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

func (r *cardRepository) Insert(ctx context.Context, c models.Card) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("inserting card: deck_id=%d", c.DeckID)

	var id int64
	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		ts := now()
		res, err := tx.ExecContext(ctx, `
INSERT INTO cards (deck_id, front, back, hint, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
`, c.DeckID, c.Front, c.Back, nullString(c.Hint), ts, ts)
		if err != nil {
			return err
		}
		if id, err = res.LastInsertId(); err != nil {
			return err
		}
		return touchDeck(ctx, tx, c.DeckID)
	})
	if err != nil {
		log.Error("failed to insert card: %v", err)
		return 0, err
	}
	log.Debug("card inserted: id=%d", id)
	return id, nil
}

// InsertBatch inserts all drafts into deckID atomically.
func (r *cardRepository) InsertBatch(ctx context.Context, deckID int64, drafts []models.CardDraft) ([]int64, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("inserting %d cards: deck_id=%d", len(drafts), deckID)

	var ids []int64
	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		if ids, err = insertCards(ctx, tx, deckID, drafts); err != nil {
			return err
		}
		return touchDeck(ctx, tx, deckID)
	})
	if err != nil {
		log.Error("failed to insert card batch: %v", err)
		return nil, err
	}
	return ids, nil
}

func insertCards(ctx context.Context, tx *sql.Tx, deckID int64, drafts []models.CardDraft) ([]int64, error) {
	if len(drafts) == 0 {
		return nil, nil
	}
	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO cards (deck_id, front, back, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
`)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	ts := now()
	ids := make([]int64, 0, len(drafts))
	for _, d := range drafts {
		res, err := stmt.ExecContext(ctx, deckID, d.Front, d.Back, ts, ts)
		if err != nil {
			return nil, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *cardRepository) Get(ctx context.Context, id int64) (*models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")

	query, args, err := sqlBuilder.Select(cardColumns...).From("cards c").Where(squirrel.Eq{"c.id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	c, err := scanCard(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("card not found: id=%d", id)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get card: %v", err)
		return nil, err
	}
	return &c, nil
}

// List returns the cards of a deck, optionally filtered by a case-insensitive
// substring of front or back.
func (r *cardRepository) List(ctx context.Context, filter models.CardFilter) ([]models.Card, error) {
	logger.FromContext(ctx).WithPrefix("card_repo").Debug("listing cards: deck_id=%d, q=%q, sort=%s", filter.DeckID, filter.Query, filter.Sort)

	q := sqlBuilder.Select(cardColumns...).From("cards c").Where(squirrel.Eq{"c.deck_id": filter.DeckID})

	if term := strings.TrimSpace(filter.Query); term != "" {
		pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
		q = q.Where(squirrel.Or{
			squirrel.Expr(`LOWER(c.front) LIKE ? ESCAPE '\'`, pattern),
			squirrel.Expr(`LOWER(c.back) LIKE ? ESCAPE '\'`, pattern),
		})
	}

	// Safe ORDER BY with validation
	orderBy := "c.created_at"
	if filter.Sort == models.CardSortUpdatedAt {
		orderBy = "c.updated_at"
	}
	q = q.OrderBy(orderBy+" ASC", "c.id ASC")

	return r.queryCards(ctx, q)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *cardRepository) Update(ctx context.Context, c models.Card) error {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("updating card: id=%d", c.ID)

	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
UPDATE cards SET front = ?, back = ?, hint = ?, updated_at = ?
WHERE id = ?
`, c.Front, c.Back, nullString(c.Hint), now(), c.ID); err != nil {
			return err
		}
		return touchDeck(ctx, tx, c.DeckID)
	})
	if err != nil {
		log.Error("failed to update card: %v", err)
	}
	return err
}

func (r *cardRepository) Delete(ctx context.Context, id int64) error {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("deleting card: id=%d", id)

	_, err := r.db.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id)
	if err != nil {
		log.Error("failed to delete card: %v", err)
	}
	return err
}

// Unseen returns cards of deckID that userID has never reviewed, oldest first.
func (r *cardRepository) Unseen(ctx context.Context, userID, deckID int64, limit int) ([]models.Card, error) {
	q := sqlBuilder.Select(cardColumns...).
		From("cards c").
		Where(squirrel.Eq{"c.deck_id": deckID}).
		Where("NOT EXISTS (SELECT 1 FROM reviews r WHERE r.card_id = c.id AND r.user_id = ?)", userID).
		OrderBy("c.created_at ASC", "c.id ASC").
		Limit(uint64(limit))
	return r.queryCards(ctx, q)
}
