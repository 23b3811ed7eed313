package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/vytor/studyflash/internal/errors"
	"github.com/vytor/studyflash/internal/flashcard"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/repository"
)

// candidateLimit is how many cards each selection stage considers.
const candidateLimit = 10

// StudyService picks the next card to study and records reviews
type StudyService interface {
	NextCard(ctx context.Context, userID, deckID int64, exclude []int64) (*models.Card, error)
	SubmitReview(ctx context.Context, userID, deckID, cardID int64, grade flashcard.Grade) (*models.ReviewResult, error)
}

type studyService struct {
	deckRepo   repository.DeckRepository
	cardRepo   repository.CardRepository
	reviewRepo repository.ReviewRepository
	locks      *keyedMutex
	now        func() time.Time
}

// NewStudyService creates a new StudyService
func NewStudyService(deckRepo repository.DeckRepository, cardRepo repository.CardRepository, reviewRepo repository.ReviewRepository) StudyService {
	return &studyService{
		deckRepo:   deckRepo,
		cardRepo:   cardRepo,
		reviewRepo: reviewRepo,
		locks:      newKeyedMutex(),
		now:        time.Now,
	}
}

// NextCard returns the first card of: due cards by due time, cards the user
// has never reviewed by creation time, then upcoming cards by due time.
// Cards in exclude are skipped. A nil card means the deck has nothing to study.
func (s *studyService) NextCard(ctx context.Context, userID, deckID int64, exclude []int64) (*models.Card, error) {
	log := logger.FromContext(ctx)
	log.Debug("selecting next card: user_id=%d, deck_id=%d, exclude=%v", userID, deckID, exclude)

	if _, err := readableDeck(ctx, s.deckRepo, deckID, userID); err != nil {
		return nil, err
	}

	skip := make(map[int64]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}

	due, err := s.reviewRepo.DueCards(ctx, userID, deckID, s.now(), candidateLimit)
	if err != nil {
		log.Error("failed to list due cards: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if card, err := s.firstScheduled(ctx, due, skip); card != nil || err != nil {
		return card, err
	}

	unseen, err := s.cardRepo.Unseen(ctx, userID, deckID, candidateLimit)
	if err != nil {
		log.Error("failed to list unseen cards: %v", err)
		return nil, errors.NewInternalError(err)
	}
	for i := range unseen {
		if !skip[unseen[i].ID] {
			log.Debug("next card is unseen: card_id=%d", unseen[i].ID)
			return &unseen[i], nil
		}
	}

	upcoming, err := s.reviewRepo.UpcomingCards(ctx, userID, deckID, candidateLimit)
	if err != nil {
		log.Error("failed to list upcoming cards: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if card, err := s.firstScheduled(ctx, upcoming, skip); card != nil || err != nil {
		return card, err
	}

	log.Debug("no card to study: deck_id=%d", deckID)
	return nil, nil
}

func (s *studyService) firstScheduled(ctx context.Context, candidates []models.DueCard, skip map[int64]bool) (*models.Card, error) {
	for _, c := range candidates {
		if skip[c.CardID] {
			continue
		}
		card, err := s.cardRepo.Get(ctx, c.CardID)
		if err != nil {
			logger.FromContext(ctx).Error("failed to get card: %v", err)
			return nil, errors.NewInternalError(err)
		}
		if card != nil {
			return card, nil
		}
	}
	return nil, nil
}

// SubmitReview applies grade to the user's latest state for the card and
// appends the resulting review. Reviews of the same (user, card) are
// serialized so each one builds on the previous.
func (s *studyService) SubmitReview(ctx context.Context, userID, deckID, cardID int64, grade flashcard.Grade) (*models.ReviewResult, error) {
	log := logger.FromContext(ctx)
	log.Debug("submitting review: user_id=%d, deck_id=%d, card_id=%d, grade=%s", userID, deckID, cardID, grade)

	if !grade.Valid() {
		return nil, errors.NewValidationError("grade", "must be 0 (again), 1 (hard), 2 (good) or 3 (easy)")
	}
	if _, err := readableDeck(ctx, s.deckRepo, deckID, userID); err != nil {
		return nil, err
	}
	card, err := s.cardRepo.Get(ctx, cardID)
	if err != nil {
		log.Error("failed to get card: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if card == nil || card.DeckID != deckID {
		return nil, errors.NewNotFoundError("card", cardID)
	}

	unlock := s.locks.Lock(fmt.Sprintf("%d:%d", userID, cardID))
	defer unlock()

	prev := flashcard.InitialState()
	latest, err := s.reviewRepo.Latest(ctx, userID, cardID)
	if err != nil {
		log.Error("failed to get previous review: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if latest != nil {
		prev = latest.State()
	}

	next, err := prev.Next(grade)
	if err != nil {
		if stderrors.Is(err, flashcard.ErrInvalidGrade) {
			return nil, errors.NewValidationError("grade", err.Error())
		}
		return nil, errors.NewInternalError(err)
	}

	now := s.now().UTC()
	review := models.Review{
		UserID:       userID,
		DeckID:       deckID,
		CardID:       cardID,
		Grade:        grade,
		IntervalDays: next.IntervalDays,
		EaseFactor:   next.Ease,
		DueAt:        flashcard.DueAt(now, next, grade),
		ReviewedAt:   now,
	}
	if _, err := s.reviewRepo.Insert(ctx, review); err != nil {
		log.Error("failed to insert review: %v", err)
		return nil, errors.NewInternalError(err)
	}

	log.Debug("review recorded: card_id=%d, interval=%d, ease=%.2f, due_at=%s",
		cardID, next.IntervalDays, next.Ease, review.DueAt.Format(time.RFC3339))

	return &models.ReviewResult{
		OK:           true,
		NextDueAt:    review.DueAt,
		Ease:         next.Ease,
		IntervalDays: next.IntervalDays,
	}, nil
}
