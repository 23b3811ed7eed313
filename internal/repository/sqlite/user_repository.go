package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Masterminds/squirrel"
	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/repository"
)

type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository implementation
func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, u models.User) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("user_repo")
	log.Debug("creating user: email=%s", u.Email)

	res, err := r.db.ExecContext(ctx, `
INSERT INTO users (email, display_name, password_hash, created_at)
VALUES (?, ?, ?, ?)
`, u.Email, u.DisplayName, u.PasswordHash, now())
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			log.Debug("email already registered: %s", u.Email)
			return 0, repository.ErrDuplicate
		}
		log.Error("failed to create user: %v", err)
		return 0, err
	}
	return res.LastInsertId()
}

func (r *userRepository) Get(ctx context.Context, id int64) (*models.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *userRepository) getBy(ctx context.Context, column string, value any) (*models.User, error) {
	log := logger.FromContext(ctx).WithPrefix("user_repo")

	query, args, err := sqlBuilder.
		Select("id", "email", "display_name", "password_hash", "created_at").
		From("users").
		Where(squirrel.Eq{column: value}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var u models.User
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("user not found: %s=%v", column, value)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get user: %v", err)
		return nil, err
	}
	return &u, nil
}
