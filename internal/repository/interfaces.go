package repository

import (
	"context"
	"errors"
	"time"

	"github.com/vytor/studyflash/internal/models"
)

// UserRepository handles user account data access
type UserRepository interface {
	Create(ctx context.Context, user models.User) (int64, error)
	Get(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// SessionRepository handles login session data access
type SessionRepository interface {
	Create(ctx context.Context, session models.Session) error
	Get(ctx context.Context, token string) (*models.Session, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// DeckRepository handles deck data access
type DeckRepository interface {
	Create(ctx context.Context, deck models.Deck, cards []models.CardDraft) (int64, error)
	Get(ctx context.Context, id int64) (*models.Deck, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]models.Deck, error)
	Update(ctx context.Context, deck models.Deck) error
	Delete(ctx context.Context, id int64) error
}

// CardRepository handles card data access
type CardRepository interface {
	Insert(ctx context.Context, card models.Card) (int64, error)
	InsertBatch(ctx context.Context, deckID int64, drafts []models.CardDraft) ([]int64, error)
	Get(ctx context.Context, id int64) (*models.Card, error)
	List(ctx context.Context, filter models.CardFilter) ([]models.Card, error)
	Update(ctx context.Context, card models.Card) error
	Delete(ctx context.Context, id int64) error
	Unseen(ctx context.Context, userID, deckID int64, limit int) ([]models.Card, error)
}

// ReviewRepository is the append-only review store
type ReviewRepository interface {
	Insert(ctx context.Context, review models.Review) (int64, error)
	Latest(ctx context.Context, userID, cardID int64) (*models.Review, error)
	DueCards(ctx context.Context, userID, deckID int64, before time.Time, limit int) ([]models.DueCard, error)
	UpcomingCards(ctx context.Context, userID, deckID int64, limit int) ([]models.DueCard, error)
	CountDue(ctx context.Context, userID int64, before time.Time) (int, error)
	Since(ctx context.Context, userID int64, since time.Time) ([]models.Review, error)
}

// ErrDuplicate is returned when an insert violates a uniqueness constraint.
var ErrDuplicate = errors.New("duplicate record")
