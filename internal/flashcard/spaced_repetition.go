package flashcard

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Grade is the user's self-assessed recall quality for a single review.
type Grade int

const (
	Again Grade = iota
	Hard
	Good
	Easy
)

const (
	// DefaultEase is the ease factor of a card that has never been reviewed.
	DefaultEase = 2.5
	// MinEase is the SM-2 ease floor.
	MinEase = 1.3

	hardEaseDelta = -0.15
	easyEaseDelta = 0.15

	firstInterval  = 1
	secondInterval = 3

	// MaxIntervalDays caps the scheduled interval at 100 years so due
	// times stay representable and keep their order.
	MaxIntervalDays = 36500
)

// ErrInvalidGrade is returned for grades outside Again..Easy.
var ErrInvalidGrade = errors.New("invalid grade")

func (g Grade) String() string {
	switch g {
	case Again:
		return "again"
	case Hard:
		return "hard"
	case Good:
		return "good"
	case Easy:
		return "easy"
	default:
		return fmt.Sprintf("grade(%d)", int(g))
	}
}

// Valid reports whether g is one of Again, Hard, Good or Easy.
func (g Grade) Valid() bool {
	return g >= Again && g <= Easy
}

// Passed reports whether the review counts as a correct recall.
func (g Grade) Passed() bool {
	return g >= Good
}

// ParseGrade converts a raw integer into a Grade.
func ParseGrade(v int) (Grade, error) {
	g := Grade(v)
	if !g.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidGrade, v)
	}
	return g, nil
}

// ReviewState is the scheduling state carried from one review to the next
// for a (user, card) pair.
type ReviewState struct {
	IntervalDays int     `json:"interval_days"`
	Ease         float64 `json:"ease"`
}

// InitialState is the implicit state of a card the user has never reviewed.
func InitialState() ReviewState {
	return ReviewState{IntervalDays: 0, Ease: DefaultEase}
}

// ComputeNextReview maps a review outcome to the next interval and ease
// factor using a simplified SM-2 schedule:
//
//	Again: interval 0, ease unchanged
//	Hard:  ease -0.15, Good: ease unchanged, Easy: ease +0.15 (floored at 1.3)
//	interval 1 after a first success, 3 after the second, then round(prev * ease)
//
// Intervals never exceed MaxIntervalDays.
func ComputeNextReview(prevIntervalDays int, prevEase float64, grade Grade) (ReviewState, error) {
	if !grade.Valid() {
		return ReviewState{}, fmt.Errorf("%w: %d", ErrInvalidGrade, int(grade))
	}

	if grade == Again {
		return ReviewState{IntervalDays: 0, Ease: prevEase}, nil
	}

	var delta float64
	switch grade {
	case Hard:
		delta = hardEaseDelta
	case Easy:
		delta = easyEaseDelta
	}
	ease := math.Max(MinEase, prevEase+delta)

	var interval int
	switch {
	case prevIntervalDays <= 0:
		interval = firstInterval
	case prevIntervalDays == 1:
		interval = secondInterval
	default:
		v := math.Round(float64(prevIntervalDays) * ease)
		if v >= MaxIntervalDays {
			interval = MaxIntervalDays
		} else {
			interval = int(v)
		}
	}

	return ReviewState{IntervalDays: interval, Ease: ease}, nil
}

// Next applies a review to the state.
func (s ReviewState) Next(grade Grade) (ReviewState, error) {
	return ComputeNextReview(s.IntervalDays, s.Ease, grade)
}

// DueAt returns the absolute time the card becomes eligible again.
// A failed review, or a zero interval, is due immediately.
func DueAt(now time.Time, next ReviewState, grade Grade) time.Time {
	if grade == Again || next.IntervalDays <= 0 {
		return now
	}
	days := min(next.IntervalDays, MaxIntervalDays)
	return now.Add(time.Duration(days) * 24 * time.Hour)
}
