package models

import (
	"time"

	"github.com/vytor/studyflash/internal/flashcard"
)

// Review is one append-only review event for a (user, card) pair.
type Review struct {
	ID           int64           `json:"id"`
	UserID       int64           `json:"user_id"`
	DeckID       int64           `json:"deck_id"`
	CardID       int64           `json:"card_id"`
	Grade        flashcard.Grade `json:"grade"`
	IntervalDays int             `json:"interval_days"`
	EaseFactor   float64         `json:"ease_factor"`
	DueAt        time.Time       `json:"due_at"`
	ReviewedAt   time.Time       `json:"reviewed_at"`
}

// State returns the scheduling state recorded by this review.
func (r Review) State() flashcard.ReviewState {
	return flashcard.ReviewState{IntervalDays: r.IntervalDays, Ease: r.EaseFactor}
}

// DueCard is a card id paired with the due time of its latest review.
type DueCard struct {
	CardID int64     `json:"card_id"`
	DueAt  time.Time `json:"due_at"`
}

type ReviewResult struct {
	OK           bool      `json:"ok"`
	NextDueAt    time.Time `json:"nextDueAt"`
	Ease         float64   `json:"ease"`
	IntervalDays int       `json:"intervalDays"`
}
