package services

import (
	"context"
	"strings"

	"github.com/vytor/studyflash/internal/errors"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/repository"
)

// DeckService handles deck-related business logic
type DeckService interface {
	ListDecks(ctx context.Context, userID int64) ([]models.Deck, error)
	CreateDeck(ctx context.Context, userID int64, deck models.Deck, cards []models.CardDraft) (*models.Deck, error)
	GetDeck(ctx context.Context, id int64, userID int64) (*models.Deck, error)
	UpdateDeck(ctx context.Context, id int64, userID int64, patch models.DeckPatch) (*models.Deck, error)
	DeleteDeck(ctx context.Context, id int64, userID int64) error
}

type deckService struct {
	deckRepo repository.DeckRepository
}

// NewDeckService creates a new DeckService
func NewDeckService(deckRepo repository.DeckRepository) DeckService {
	return &deckService{deckRepo: deckRepo}
}

func (s *deckService) ListDecks(ctx context.Context, userID int64) ([]models.Deck, error) {
	log := logger.FromContext(ctx)
	log.Debug("listing decks: user_id=%d", userID)

	decks, err := s.deckRepo.ListByOwner(ctx, userID)
	if err != nil {
		log.Error("failed to list decks: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return decks, nil
}

func (s *deckService) CreateDeck(ctx context.Context, userID int64, deck models.Deck, cards []models.CardDraft) (*models.Deck, error) {
	log := logger.FromContext(ctx)

	deck.OwnerID = userID
	deck.Title = strings.TrimSpace(deck.Title)
	if deck.Title == "" {
		return nil, errors.NewValidationError("title", "cannot be empty")
	}
	deck.Description = trimOptional(deck.Description)

	drafts, err := cleanDrafts(cards)
	if err != nil {
		return nil, err
	}
	log.Debug("creating deck: user_id=%d, title=%s, cards=%d", userID, deck.Title, len(drafts))

	id, err := s.deckRepo.Create(ctx, deck, drafts)
	if err != nil {
		log.Error("failed to create deck: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return s.load(ctx, id)
}

func (s *deckService) GetDeck(ctx context.Context, id int64, userID int64) (*models.Deck, error) {
	logger.FromContext(ctx).Debug("getting deck: id=%d, user_id=%d", id, userID)

	deck, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	// Private decks are reported as missing to other users.
	if !deck.ReadableBy(userID) {
		return nil, errors.NewNotFoundError("deck", id)
	}
	return deck, nil
}

func (s *deckService) UpdateDeck(ctx context.Context, id int64, userID int64, patch models.DeckPatch) (*models.Deck, error) {
	log := logger.FromContext(ctx)
	log.Debug("updating deck: id=%d, user_id=%d", id, userID)

	deck, err := ownedDeck(ctx, s.deckRepo, id, userID)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, errors.NewValidationError("title", "cannot be empty")
		}
		deck.Title = title
	}
	if patch.Description != nil {
		deck.Description = trimOptional(patch.Description)
	}
	if patch.IsPublic != nil {
		deck.IsPublic = *patch.IsPublic
	}

	if err := s.deckRepo.Update(ctx, *deck); err != nil {
		log.Error("failed to update deck: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return s.load(ctx, id)
}

func (s *deckService) DeleteDeck(ctx context.Context, id int64, userID int64) error {
	log := logger.FromContext(ctx)
	log.Debug("deleting deck: id=%d, user_id=%d", id, userID)

	if _, err := ownedDeck(ctx, s.deckRepo, id, userID); err != nil {
		return err
	}
	if err := s.deckRepo.Delete(ctx, id); err != nil {
		log.Error("failed to delete deck: %v", err)
		return errors.NewInternalError(err)
	}
	log.Info("deck deleted: id=%d", id)
	return nil
}

func (s *deckService) load(ctx context.Context, id int64) (*models.Deck, error) {
	deck, err := s.deckRepo.Get(ctx, id)
	if err != nil {
		logger.FromContext(ctx).Error("failed to get deck: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if deck == nil {
		return nil, errors.NewNotFoundError("deck", id)
	}
	return deck, nil
}

// ownedDeck loads a deck the user may modify. Readable decks owned by
// someone else are forbidden; unreadable ones are not found.
func ownedDeck(ctx context.Context, repo repository.DeckRepository, id int64, userID int64) (*models.Deck, error) {
	deck, err := repo.Get(ctx, id)
	if err != nil {
		logger.FromContext(ctx).Error("failed to get deck: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if deck == nil || !deck.ReadableBy(userID) {
		return nil, errors.NewNotFoundError("deck", id)
	}
	if deck.OwnerID != userID {
		return nil, errors.NewForbiddenError("only the deck owner can change it")
	}
	return deck, nil
}

func readableDeck(ctx context.Context, repo repository.DeckRepository, id int64, userID int64) (*models.Deck, error) {
	deck, err := repo.Get(ctx, id)
	if err != nil {
		logger.FromContext(ctx).Error("failed to get deck: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if deck == nil || !deck.ReadableBy(userID) {
		return nil, errors.NewNotFoundError("deck", id)
	}
	return deck, nil
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// cleanDrafts trims drafts and rejects any with an empty side.
func cleanDrafts(drafts []models.CardDraft) ([]models.CardDraft, error) {
	out := make([]models.CardDraft, 0, len(drafts))
	for _, d := range drafts {
		d.Front = strings.TrimSpace(d.Front)
		d.Back = strings.TrimSpace(d.Back)
		if d.Front == "" || d.Back == "" {
			return nil, errors.NewValidationError("cards", "front and back are required")
		}
		out = append(out, d)
	}
	return out, nil
}
