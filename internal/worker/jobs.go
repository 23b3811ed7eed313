package worker

import (
	"context"
	"fmt"
)

// DeckFiller generates flashcards from text and stores them in a deck.
// It is implemented by the generation service; the interface keeps this
// package free of a services import.
type DeckFiller interface {
	FillDeck(ctx context.Context, deckID int64, text string, count int) (int, error)
}

// GenerateCardsJob fills a deck with generated cards in the background.
type GenerateCardsJob struct {
	Filler DeckFiller
	DeckID int64
	Text   string
	Count  int
}

func (j *GenerateCardsJob) Name() string { return fmt.Sprintf("generate_cards:%d", j.DeckID) }

func (j *GenerateCardsJob) Run(ctx context.Context) error {
	_, err := j.Filler.FillDeck(ctx, j.DeckID, j.Text, j.Count)
	return err
}

// PurgeSessionsJob removes expired login sessions.
type PurgeSessionsJob struct {
	Purge func(ctx context.Context) (int64, error)
}

func (j *PurgeSessionsJob) Name() string { return "purge_sessions" }

func (j *PurgeSessionsJob) Run(ctx context.Context) error {
	_, err := j.Purge(ctx)
	return err
}
