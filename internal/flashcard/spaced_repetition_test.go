package flashcard_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/studyflash/internal/flashcard"
)

func TestComputeNextReview_Scenarios(t *testing.T) {
	tests := []struct {
		name         string
		prevInterval int
		prevEase     float64
		grade        flashcard.Grade
		wantInterval int
		wantEase     float64
	}{
		{"again resets interval and keeps ease", 5, 2.5, flashcard.Again, 0, 2.5},
		{"hard lowers ease", 3, 2.5, flashcard.Hard, 7, 2.35},
		{"good keeps ease", 3, 2.5, flashcard.Good, 8, 2.5},
		{"easy raises ease", 3, 2.5, flashcard.Easy, 8, 2.65},
		{"first success is one day", 0, 2.5, flashcard.Good, 1, 2.5},
		{"second success is three days", 1, 2.5, flashcard.Good, 3, 2.5},
		{"negative interval treated as first review", -4, 2.5, flashcard.Easy, 1, 2.65},
		{"interval 6 good", 6, 2.5, flashcard.Good, 15, 2.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := flashcard.ComputeNextReview(tt.prevInterval, tt.prevEase, tt.grade)
			require.NoError(t, err)
			assert.Equal(t, tt.wantInterval, got.IntervalDays)
			assert.InDelta(t, tt.wantEase, got.Ease, 1e-9)
		})
	}
}

func TestComputeNextReview_AgainKeepsEase(t *testing.T) {
	for _, ease := range []float64{1.3, 1.75, 2.5, 3.1} {
		for _, interval := range []int{0, 1, 2, 40} {
			got, err := flashcard.ComputeNextReview(interval, ease, flashcard.Again)
			require.NoError(t, err)
			assert.Equal(t, 0, got.IntervalDays)
			assert.Equal(t, ease, got.Ease)
		}
	}
}

func TestComputeNextReview_EaseFloor(t *testing.T) {
	got, err := flashcard.ComputeNextReview(5, 1.3, flashcard.Hard)
	require.NoError(t, err)
	assert.Equal(t, flashcard.MinEase, got.Ease)

	// Starting below the floor still lands on it.
	for _, g := range []flashcard.Grade{flashcard.Hard, flashcard.Good, flashcard.Easy} {
		got, err := flashcard.ComputeNextReview(10, 0.5, g)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got.Ease, flashcard.MinEase, g.String())
	}

	// Repeated hard reviews never drop below the floor.
	state := flashcard.InitialState()
	for i := 0; i < 20; i++ {
		state, err = state.Next(flashcard.Hard)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, state.Ease, flashcard.MinEase)
	}
}

func TestComputeNextReview_MonotonicInGrade(t *testing.T) {
	for _, interval := range []int{2, 5, 10, 30} {
		hard, err := flashcard.ComputeNextReview(interval, 2.5, flashcard.Hard)
		require.NoError(t, err)
		good, err := flashcard.ComputeNextReview(interval, 2.5, flashcard.Good)
		require.NoError(t, err)
		easy, err := flashcard.ComputeNextReview(interval, 2.5, flashcard.Easy)
		require.NoError(t, err)

		assert.Less(t, hard.IntervalDays, good.IntervalDays, "interval=%d", interval)
		assert.Less(t, good.IntervalDays, easy.IntervalDays, "interval=%d", interval)
	}
}

func TestComputeNextReview_BootstrapSequence(t *testing.T) {
	state := flashcard.InitialState()

	state, err := state.Next(flashcard.Good)
	require.NoError(t, err)
	assert.Equal(t, 1, state.IntervalDays)

	state, err = state.Next(flashcard.Good)
	require.NoError(t, err)
	assert.Equal(t, 3, state.IntervalDays)

	state, err = state.Next(flashcard.Good)
	require.NoError(t, err)
	assert.Equal(t, 8, state.IntervalDays) // round(3 * 2.5)
}

func TestComputeNextReview_InvalidGrade(t *testing.T) {
	for _, g := range []flashcard.Grade{-1, 4, 5, 100} {
		_, err := flashcard.ComputeNextReview(3, 2.5, g)
		assert.ErrorIs(t, err, flashcard.ErrInvalidGrade)
	}
}

func TestParseGrade(t *testing.T) {
	g, err := flashcard.ParseGrade(2)
	require.NoError(t, err)
	assert.Equal(t, flashcard.Good, g)
	assert.True(t, g.Passed())
	assert.False(t, flashcard.Hard.Passed())

	_, err = flashcard.ParseGrade(5)
	assert.ErrorIs(t, err, flashcard.ErrInvalidGrade)
}

func TestDueAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, now, flashcard.DueAt(now, flashcard.ReviewState{IntervalDays: 0, Ease: 2.5}, flashcard.Again))
	assert.Equal(t, now.Add(72*time.Hour), flashcard.DueAt(now, flashcard.ReviewState{IntervalDays: 3, Ease: 2.5}, flashcard.Good))
}

func TestComputeNextReview_IntervalCap(t *testing.T) {
	tests := []struct {
		name     string
		prev     int
		ease     float64
		grade    flashcard.Grade
		interval int
	}{
		{"huge previous interval", math.MaxInt64 / 2, 2.5, flashcard.Good, flashcard.MaxIntervalDays},
		{"max int previous interval", math.MaxInt, 1.3, flashcard.Hard, flashcard.MaxIntervalDays},
		{"product crosses cap", 20000, 2.65, flashcard.Easy, flashcard.MaxIntervalDays},
		{"just below cap", 14000, 2.5, flashcard.Good, 35000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := flashcard.ComputeNextReview(tt.prev, tt.ease, tt.grade)
			require.NoError(t, err)
			assert.Equal(t, tt.interval, got.IntervalDays)
			assert.GreaterOrEqual(t, got.IntervalDays, 0)
		})
	}
}

func TestDueAt_RepeatedEasyStaysOrdered(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	state := flashcard.InitialState()
	prevDue := now

	for i := 0; i < 20; i++ {
		var err error
		state, err = state.Next(flashcard.Easy)
		require.NoError(t, err)
		require.LessOrEqual(t, state.IntervalDays, flashcard.MaxIntervalDays)

		due := flashcard.DueAt(now, state, flashcard.Easy)
		assert.Equal(t, now.AddDate(0, 0, state.IntervalDays), due, "review %d", i+1)
		assert.False(t, due.Before(prevDue), "review %d scheduled earlier than the previous one", i+1)
		prevDue = due
	}
	assert.Equal(t, flashcard.MaxIntervalDays, state.IntervalDays)
}

func TestDueAt_ClampsOversizedInterval(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	due := flashcard.DueAt(now, flashcard.ReviewState{IntervalDays: 1 << 40, Ease: 2.5}, flashcard.Good)
	assert.Equal(t, now.AddDate(0, 0, flashcard.MaxIntervalDays), due)
}
