package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/repository"
)

type reviewRepository struct {
	db *sql.DB
}

// NewReviewRepository creates a new ReviewRepository implementation
func NewReviewRepository(db *sql.DB) repository.ReviewRepository {
	return &reviewRepository{db: db}
}

// latestReview restricts r to the most recent review of each (user, card).
const latestReview = "r.id = (SELECT MAX(r2.id) FROM reviews r2 WHERE r2.user_id = r.user_id AND r2.card_id = r.card_id)"

func (r *reviewRepository) Insert(ctx context.Context, rv models.Review) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("review_repo")
	log.Debug("inserting review: user_id=%d, card_id=%d, grade=%d, interval=%d, ease=%.2f",
		rv.UserID, rv.CardID, rv.Grade, rv.IntervalDays, rv.EaseFactor)

	reviewedAt := rv.ReviewedAt
	if reviewedAt.IsZero() {
		reviewedAt = now()
	}
	var id int64
	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
INSERT INTO reviews (user_id, deck_id, card_id, grade, interval_days, ease_factor, due_at, reviewed_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`, rv.UserID, rv.DeckID, rv.CardID, int(rv.Grade), rv.IntervalDays, rv.EaseFactor, rv.DueAt.UTC(), reviewedAt.UTC())
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		log.Error("failed to insert review: %v", err)
		return 0, err
	}
	return id, nil
}

var reviewColumns = []string{
	"r.id", "r.user_id", "r.deck_id", "r.card_id", "r.grade", "r.interval_days", "r.ease_factor", "r.due_at", "r.reviewed_at",
}

func scanReview(row interface{ Scan(...any) error }) (models.Review, error) {
	var rv models.Review
	err := row.Scan(&rv.ID, &rv.UserID, &rv.DeckID, &rv.CardID, &rv.Grade, &rv.IntervalDays, &rv.EaseFactor, &rv.DueAt, &rv.ReviewedAt)
	return rv, err
}

// Latest returns the most recent review of cardID by userID, or nil.
func (r *reviewRepository) Latest(ctx context.Context, userID, cardID int64) (*models.Review, error) {
	log := logger.FromContext(ctx).WithPrefix("review_repo")

	query, args, err := sqlBuilder.Select(reviewColumns...).
		From("reviews r").
		Where(squirrel.Eq{"r.user_id": userID, "r.card_id": cardID}).
		OrderBy("r.id DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}

	rv, err := scanReview(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("no previous review: user_id=%d, card_id=%d", userID, cardID)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get latest review: %v", err)
		return nil, err
	}
	return &rv, nil
}

func (r *reviewRepository) DueCards(ctx context.Context, userID, deckID int64, before time.Time, limit int) ([]models.DueCard, error) {
	q := sqlBuilder.Select("r.card_id", "r.due_at").
		From("reviews r").
		Where(squirrel.Eq{"r.user_id": userID, "r.deck_id": deckID}).
		Where(latestReview).
		Where(squirrel.Lt{"r.due_at": before.UTC()}).
		OrderBy("r.due_at ASC", "r.card_id ASC").
		Limit(uint64(limit))
	return r.queryDue(ctx, q)
}

func (r *reviewRepository) UpcomingCards(ctx context.Context, userID, deckID int64, limit int) ([]models.DueCard, error) {
	q := sqlBuilder.Select("r.card_id", "r.due_at").
		From("reviews r").
		Where(squirrel.Eq{"r.user_id": userID, "r.deck_id": deckID}).
		Where(latestReview).
		OrderBy("r.due_at ASC", "r.card_id ASC").
		Limit(uint64(limit))
	return r.queryDue(ctx, q)
}

func (r *reviewRepository) queryDue(ctx context.Context, q squirrel.SelectBuilder) ([]models.DueCard, error) {
	log := logger.FromContext(ctx).WithPrefix("review_repo")

	query, args, err := q.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query scheduled cards: %v", err)
		return nil, err
	}
	defer rows.Close()

	var out []models.DueCard
	for rows.Next() {
		var d models.DueCard
		if err := rows.Scan(&d.CardID, &d.DueAt); err != nil {
			log.Error("failed to scan scheduled card row: %v", err)
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// CountDue counts cards across all decks whose latest review by userID is due.
func (r *reviewRepository) CountDue(ctx context.Context, userID int64, before time.Time) (int, error) {
	query, args, err := sqlBuilder.Select("COUNT(*)").
		From("reviews r").
		Where(squirrel.Eq{"r.user_id": userID}).
		Where(latestReview).
		Where(squirrel.Lt{"r.due_at": before.UTC()}).
		ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		logger.FromContext(ctx).WithPrefix("review_repo").Error("failed to count due cards: %v", err)
		return 0, err
	}
	return n, nil
}

// Since returns the reviews userID made at or after since, oldest first.
func (r *reviewRepository) Since(ctx context.Context, userID int64, since time.Time) ([]models.Review, error) {
	log := logger.FromContext(ctx).WithPrefix("review_repo")

	query, args, err := sqlBuilder.Select(reviewColumns...).
		From("reviews r").
		Where(squirrel.Eq{"r.user_id": userID}).
		Where(squirrel.GtOrEq{"r.reviewed_at": since.UTC()}).
		OrderBy("r.reviewed_at ASC", "r.id ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list reviews: %v", err)
		return nil, err
	}
	defer rows.Close()

	var out []models.Review
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			log.Error("failed to scan review row: %v", err)
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}
