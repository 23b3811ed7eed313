package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vytor/studyflash/internal/errors"
	"github.com/vytor/studyflash/internal/flashcard"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/testutil/mocks"
)

type studyFixture struct {
	decks   *mocks.MockDeckRepository
	cards   *mocks.MockCardRepository
	reviews *mocks.MockReviewRepository
	svc     *studyService
	now     time.Time
}

func newStudyFixture(t *testing.T) *studyFixture {
	t.Helper()
	f := &studyFixture{
		decks:   new(mocks.MockDeckRepository),
		cards:   new(mocks.MockCardRepository),
		reviews: new(mocks.MockReviewRepository),
		now:     time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC),
	}
	f.svc = NewStudyService(f.decks, f.cards, f.reviews).(*studyService)
	f.svc.now = func() time.Time { return f.now }
	f.decks.On("Get", mock.Anything, int64(1)).Return(&models.Deck{ID: 1, OwnerID: 10}, nil)
	f.decks.On("Get", mock.Anything, int64(2)).Return(&models.Deck{ID: 2, OwnerID: 99}, nil)
	return f
}

func TestNextCard_DueFirst(t *testing.T) {
	f := newStudyFixture(t)
	f.reviews.On("DueCards", mock.Anything, int64(10), int64(1), f.now, candidateLimit).
		Return([]models.DueCard{{CardID: 5}, {CardID: 6}}, nil)
	f.cards.On("Get", mock.Anything, int64(6)).Return(&models.Card{ID: 6, DeckID: 1}, nil)

	card, err := f.svc.NextCard(context.Background(), 10, 1, []int64{5})
	require.NoError(t, err)
	require.NotNil(t, card)
	assert.Equal(t, int64(6), card.ID)
	f.cards.AssertNotCalled(t, "Unseen", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestNextCard_FallsBackToUnseenThenUpcoming(t *testing.T) {
	f := newStudyFixture(t)
	f.reviews.On("DueCards", mock.Anything, int64(10), int64(1), f.now, candidateLimit).Return(nil, nil)
	f.cards.On("Unseen", mock.Anything, int64(10), int64(1), candidateLimit).
		Return([]models.Card{{ID: 8, DeckID: 1}}, nil)

	card, err := f.svc.NextCard(context.Background(), 10, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(8), card.ID)

	f.reviews.On("UpcomingCards", mock.Anything, int64(10), int64(1), candidateLimit).
		Return([]models.DueCard{{CardID: 3}}, nil)
	f.cards.On("Get", mock.Anything, int64(3)).Return(&models.Card{ID: 3, DeckID: 1}, nil)

	card, err = f.svc.NextCard(context.Background(), 10, 1, []int64{8})
	require.NoError(t, err)
	assert.Equal(t, int64(3), card.ID)

	card, err = f.svc.NextCard(context.Background(), 10, 1, []int64{8, 3})
	require.NoError(t, err)
	assert.Nil(t, card)
}

func TestNextCard_PrivateDeck(t *testing.T) {
	f := newStudyFixture(t)
	_, err := f.svc.NextCard(context.Background(), 10, 2, nil)
	requireAppError(t, err, errors.ErrCodeNotFound)
}

func TestSubmitReview_FreshCard(t *testing.T) {
	f := newStudyFixture(t)
	f.cards.On("Get", mock.Anything, int64(4)).Return(&models.Card{ID: 4, DeckID: 1}, nil)
	f.reviews.On("Latest", mock.Anything, int64(10), int64(4)).Return(nil, nil)
	f.reviews.On("Insert", mock.Anything, mock.MatchedBy(func(r models.Review) bool {
		return r.IntervalDays == 1 && r.EaseFactor == 2.5 && r.DueAt.Equal(f.now.Add(24*time.Hour))
	})).Return(int64(1), nil)

	res, err := f.svc.SubmitReview(context.Background(), 10, 1, 4, flashcard.Good)
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, 1, res.IntervalDays)
	assert.Equal(t, 2.5, res.Ease)
	assert.Equal(t, f.now.Add(24*time.Hour), res.NextDueAt)
	f.reviews.AssertExpectations(t)
}

func TestSubmitReview_BuildsOnLatest(t *testing.T) {
	f := newStudyFixture(t)
	f.cards.On("Get", mock.Anything, int64(4)).Return(&models.Card{ID: 4, DeckID: 1}, nil)
	f.reviews.On("Latest", mock.Anything, int64(10), int64(4)).
		Return(&models.Review{IntervalDays: 3, EaseFactor: 2.5}, nil)
	f.reviews.On("Insert", mock.Anything, mock.Anything).Return(int64(2), nil)

	res, err := f.svc.SubmitReview(context.Background(), 10, 1, 4, flashcard.Hard)
	require.NoError(t, err)
	assert.Equal(t, 7, res.IntervalDays)
	assert.InDelta(t, 2.35, res.Ease, 1e-9)

	res, err = f.svc.SubmitReview(context.Background(), 10, 1, 4, flashcard.Again)
	require.NoError(t, err)
	assert.Equal(t, 0, res.IntervalDays)
	assert.Equal(t, 2.5, res.Ease)
	assert.Equal(t, f.now, res.NextDueAt)
}

func TestSubmitReview_CapsLongInterval(t *testing.T) {
	f := newStudyFixture(t)
	f.cards.On("Get", mock.Anything, int64(4)).Return(&models.Card{ID: 4, DeckID: 1}, nil)
	f.reviews.On("Latest", mock.Anything, int64(10), int64(4)).
		Return(&models.Review{IntervalDays: 1115454, EaseFactor: 3.7}, nil)
	wantDue := f.now.AddDate(0, 0, flashcard.MaxIntervalDays)
	f.reviews.On("Insert", mock.Anything, mock.MatchedBy(func(r models.Review) bool {
		return r.IntervalDays == flashcard.MaxIntervalDays && r.DueAt.Equal(wantDue)
	})).Return(int64(3), nil)

	res, err := f.svc.SubmitReview(context.Background(), 10, 1, 4, flashcard.Easy)
	require.NoError(t, err)
	assert.Equal(t, flashcard.MaxIntervalDays, res.IntervalDays)
	assert.True(t, res.NextDueAt.After(f.now))
	assert.Equal(t, wantDue, res.NextDueAt)
	f.reviews.AssertExpectations(t)
}

func TestSubmitReview_Rejects(t *testing.T) {
	f := newStudyFixture(t)
	f.cards.On("Get", mock.Anything, int64(4)).Return(&models.Card{ID: 4, DeckID: 7}, nil)

	_, err := f.svc.SubmitReview(context.Background(), 10, 1, 4, flashcard.Grade(9))
	requireAppError(t, err, errors.ErrCodeValidation)

	_, err = f.svc.SubmitReview(context.Background(), 10, 1, 4, flashcard.Good)
	requireAppError(t, err, errors.ErrCodeNotFound)

	_, err = f.svc.SubmitReview(context.Background(), 10, 2, 4, flashcard.Good)
	requireAppError(t, err, errors.ErrCodeNotFound)
	f.reviews.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestKeyedMutex(t *testing.T) {
	k := newKeyedMutex()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		active  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock("1:4")
			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, k.size())
}
