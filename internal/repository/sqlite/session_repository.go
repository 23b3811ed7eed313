package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/repository"
)

type sessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository implementation
func NewSessionRepository(db *sql.DB) repository.SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, s models.Session) error {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("creating session: user_id=%d", s.UserID)

	_, err := r.db.ExecContext(ctx, `
INSERT INTO sessions (token, user_id, created_at, expires_at)
VALUES (?, ?, ?, ?)
`, s.Token, s.UserID, s.CreatedAt.UTC(), s.ExpiresAt.UTC())
	if err != nil {
		log.Error("failed to create session: %v", err)
	}
	return err
}

func (r *sessionRepository) Get(ctx context.Context, token string) (*models.Session, error) {
	log := logger.FromContext(ctx).WithPrefix("session_repo")

	var s models.Session
	err := r.db.QueryRowContext(ctx, `
SELECT token, user_id, created_at, expires_at FROM sessions WHERE token = ?
`, token).Scan(&s.Token, &s.UserID, &s.CreatedAt, &s.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get session: %v", err)
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepository) Delete(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
	if err != nil {
		logger.FromContext(ctx).WithPrefix("session_repo").Error("failed to delete session: %v", err)
	}
	return err
}

func (r *sessionRepository) DeleteExpired(ctx context.Context, at time.Time) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("session_repo")

	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, at.UTC())
	if err != nil {
		log.Error("failed to delete expired sessions: %v", err)
		return 0, err
	}
	n, err := res.RowsAffected()
	if err == nil && n > 0 {
		log.Info("deleted %d expired sessions", n)
	}
	return n, err
}
