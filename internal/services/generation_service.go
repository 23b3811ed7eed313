package services

import (
	"context"
	stderrors "errors"
	"strings"
	"unicode/utf8"

	"github.com/vytor/studyflash/internal/document"
	"github.com/vytor/studyflash/internal/errors"
	"github.com/vytor/studyflash/internal/generator"
	"github.com/vytor/studyflash/internal/jobs"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/repository"
	"github.com/vytor/studyflash/internal/worker"
)

// GenerationService turns text and PDFs into flashcards
type GenerationService interface {
	Generate(ctx context.Context, text string, count int) ([]models.CardDraft, error)
	ExtractPDF(ctx context.Context, data []byte) (string, error)
	ParseAndGenerate(ctx context.Context, data []byte, count int) ([]models.CardDraft, int, error)
	EnqueueDeckGeneration(ctx context.Context, userID, deckID int64, text string, count int) error
	FillDeck(ctx context.Context, deckID int64, text string, count int) (int, error)
}

type generationService struct {
	gen      generator.Generator
	deckRepo repository.DeckRepository
	cardRepo repository.CardRepository
	jobQueue jobs.JobQueue
}

// NewGenerationService creates a new GenerationService. The returned service
// also satisfies worker.DeckFiller so background jobs can call back into it.
func NewGenerationService(gen generator.Generator, deckRepo repository.DeckRepository, cardRepo repository.CardRepository, jobQueue jobs.JobQueue) GenerationService {
	return &generationService{
		gen:      gen,
		deckRepo: deckRepo,
		cardRepo: cardRepo,
		jobQueue: jobQueue,
	}
}

var _ worker.DeckFiller = (*generationService)(nil)

func (s *generationService) configured() bool {
	c, ok := s.gen.(interface{ Configured() bool })
	return !ok || c.Configured()
}

func (s *generationService) Generate(ctx context.Context, text string, count int) ([]models.CardDraft, error) {
	log := logger.FromContext(ctx)

	text, count = generator.NormalizeRequest(text, count)
	if text == "" {
		return nil, errors.NewValidationError("text", "cannot be empty")
	}
	if !s.configured() {
		return nil, errors.NewUnavailableError("card generation is not configured", generator.ErrNotConfigured)
	}
	log.Debug("generating cards: count=%d, chars=%d", count, utf8.RuneCountInString(text))

	cards, err := s.gen.Generate(ctx, text, count)
	if err != nil {
		if stderrors.Is(err, generator.ErrNotConfigured) {
			return nil, errors.NewUnavailableError("card generation is not configured", err)
		}
		log.Error("failed to generate cards: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return cards, nil
}

func (s *generationService) ExtractPDF(ctx context.Context, data []byte) (string, error) {
	log := logger.FromContext(ctx)
	log.Debug("extracting pdf text: bytes=%d", len(data))

	if !document.IsPDF(data) {
		return "", errors.NewValidationError("file", "must be a PDF document")
	}
	text, err := document.ExtractPDFText(data)
	if err != nil {
		if stderrors.Is(err, document.ErrEmptyDocument) {
			return "", errors.NewValidationError("file", "no text could be extracted")
		}
		log.Warn("failed to extract pdf text: %v", err)
		return "", errors.NewBadRequestError("could not read PDF")
	}
	return text, nil
}

// ParseAndGenerate extracts text from a PDF and generates cards from it. The
// extracted text length is returned alongside the cards.
func (s *generationService) ParseAndGenerate(ctx context.Context, data []byte, count int) ([]models.CardDraft, int, error) {
	text, err := s.ExtractPDF(ctx, data)
	if err != nil {
		return nil, 0, err
	}
	cards, err := s.Generate(ctx, text, count)
	if err != nil {
		return nil, 0, err
	}
	return cards, utf8.RuneCountInString(text), nil
}

func (s *generationService) EnqueueDeckGeneration(ctx context.Context, userID, deckID int64, text string, count int) error {
	log := logger.FromContext(ctx)
	log.Debug("queueing deck generation: deck_id=%d, count=%d", deckID, count)

	if _, err := ownedDeck(ctx, s.deckRepo, deckID, userID); err != nil {
		return err
	}
	text, count = generator.NormalizeRequest(text, count)
	if strings.TrimSpace(text) == "" {
		return errors.NewValidationError("text", "cannot be empty")
	}
	if !s.configured() {
		return errors.NewUnavailableError("card generation is not configured", generator.ErrNotConfigured)
	}

	if err := s.jobQueue.EnqueueGeneration(deckID, text, count); err != nil {
		if stderrors.Is(err, worker.ErrQueueFull) || stderrors.Is(err, worker.ErrPoolStopped) {
			log.Warn("generation queue rejected job: %v", err)
			return errors.NewUnavailableError("generation queue is busy, try again later", err)
		}
		log.Error("failed to enqueue generation: %v", err)
		return errors.NewInternalError(err)
	}
	return nil
}

// FillDeck generates cards and stores them in deckID. It runs on the
// generation worker pool.
func (s *generationService) FillDeck(ctx context.Context, deckID int64, text string, count int) (int, error) {
	log := logger.FromContext(ctx).WithField("deck_id", deckID)

	cards, err := s.gen.Generate(ctx, text, count)
	if err != nil {
		log.Error("deck generation failed: %v", err)
		return 0, err
	}
	if len(cards) == 0 {
		log.Warn("generator returned no usable cards")
		return 0, nil
	}

	ids, err := s.cardRepo.InsertBatch(ctx, deckID, cards)
	if err != nil {
		log.Error("failed to store generated cards: %v", err)
		return 0, err
	}
	log.Info("added %d generated cards", len(ids))
	return len(ids), nil
}
