package services

import (
	"context"
	"strings"

	"github.com/vytor/studyflash/internal/errors"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/repository"
)

// CardService handles card-related business logic
type CardService interface {
	ListCards(ctx context.Context, userID int64, filter models.CardFilter) ([]models.Card, error)
	CreateCard(ctx context.Context, userID int64, card models.Card) (*models.Card, error)
	UpdateCard(ctx context.Context, id int64, userID int64, patch models.CardPatch) (*models.Card, error)
	DeleteCard(ctx context.Context, id int64, userID int64) error
}

type cardService struct {
	cardRepo repository.CardRepository
	deckRepo repository.DeckRepository
}

// NewCardService creates a new CardService
func NewCardService(cardRepo repository.CardRepository, deckRepo repository.DeckRepository) CardService {
	return &cardService{cardRepo: cardRepo, deckRepo: deckRepo}
}

func (s *cardService) ListCards(ctx context.Context, userID int64, filter models.CardFilter) ([]models.Card, error) {
	log := logger.FromContext(ctx)
	log.Debug("listing cards: deck_id=%d, q=%q, sort=%s", filter.DeckID, filter.Query, filter.Sort)

	switch filter.Sort {
	case "":
		filter.Sort = models.CardSortCreatedAt
	case models.CardSortCreatedAt, models.CardSortUpdatedAt:
	default:
		return nil, errors.NewValidationError("sort", "must be created_at or updated_at")
	}
	filter.Query = strings.TrimSpace(filter.Query)

	if _, err := readableDeck(ctx, s.deckRepo, filter.DeckID, userID); err != nil {
		return nil, err
	}

	cards, err := s.cardRepo.List(ctx, filter)
	if err != nil {
		log.Error("failed to list cards: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return cards, nil
}

func (s *cardService) CreateCard(ctx context.Context, userID int64, card models.Card) (*models.Card, error) {
	log := logger.FromContext(ctx)
	log.Debug("creating card: deck_id=%d", card.DeckID)

	card.Front = strings.TrimSpace(card.Front)
	card.Back = strings.TrimSpace(card.Back)
	card.Hint = trimOptional(card.Hint)
	if card.Front == "" {
		return nil, errors.NewValidationError("front", "cannot be empty")
	}
	if card.Back == "" {
		return nil, errors.NewValidationError("back", "cannot be empty")
	}

	if _, err := ownedDeck(ctx, s.deckRepo, card.DeckID, userID); err != nil {
		return nil, err
	}

	id, err := s.cardRepo.Insert(ctx, card)
	if err != nil {
		log.Error("failed to insert card: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return s.load(ctx, id)
}

func (s *cardService) UpdateCard(ctx context.Context, id int64, userID int64, patch models.CardPatch) (*models.Card, error) {
	log := logger.FromContext(ctx)
	log.Debug("updating card: id=%d", id)

	card, err := s.owned(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if patch.Front != nil {
		front := strings.TrimSpace(*patch.Front)
		if front == "" {
			return nil, errors.NewValidationError("front", "cannot be empty")
		}
		card.Front = front
	}
	if patch.Back != nil {
		back := strings.TrimSpace(*patch.Back)
		if back == "" {
			return nil, errors.NewValidationError("back", "cannot be empty")
		}
		card.Back = back
	}
	if patch.Hint != nil {
		card.Hint = trimOptional(patch.Hint)
	}

	if err := s.cardRepo.Update(ctx, *card); err != nil {
		log.Error("failed to update card: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return s.load(ctx, id)
}

func (s *cardService) DeleteCard(ctx context.Context, id int64, userID int64) error {
	log := logger.FromContext(ctx)
	log.Debug("deleting card: id=%d", id)

	if _, err := s.owned(ctx, id, userID); err != nil {
		return err
	}
	if err := s.cardRepo.Delete(ctx, id); err != nil {
		log.Error("failed to delete card: %v", err)
		return errors.NewInternalError(err)
	}
	return nil
}

func (s *cardService) load(ctx context.Context, id int64) (*models.Card, error) {
	card, err := s.cardRepo.Get(ctx, id)
	if err != nil {
		logger.FromContext(ctx).Error("failed to get card: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if card == nil {
		return nil, errors.NewNotFoundError("card", id)
	}
	return card, nil
}

func (s *cardService) owned(ctx context.Context, id int64, userID int64) (*models.Card, error) {
	card, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := ownedDeck(ctx, s.deckRepo, card.DeckID, userID); err != nil {
		if appErr, ok := errors.AsAppError(err); ok && appErr.Code == errors.ErrCodeNotFound {
			return nil, errors.NewNotFoundError("card", id)
		}
		return nil, err
	}
	return card, nil
}
