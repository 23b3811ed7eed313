package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/studyflash/internal/models"
)

// MockReviewRepository is a mock implementation of repository.ReviewRepository
type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) Insert(ctx context.Context, review models.Review) (int64, error) {
	args := m.Called(ctx, review)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReviewRepository) Latest(ctx context.Context, userID, cardID int64) (*models.Review, error) {
	args := m.Called(ctx, userID, cardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *MockReviewRepository) DueCards(ctx context.Context, userID, deckID int64, before time.Time, limit int) ([]models.DueCard, error) {
	args := m.Called(ctx, userID, deckID, before, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.DueCard), args.Error(1)
}

func (m *MockReviewRepository) UpcomingCards(ctx context.Context, userID, deckID int64, limit int) ([]models.DueCard, error) {
	args := m.Called(ctx, userID, deckID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.DueCard), args.Error(1)
}

func (m *MockReviewRepository) CountDue(ctx context.Context, userID int64, before time.Time) (int, error) {
	args := m.Called(ctx, userID, before)
	return args.Int(0), args.Error(1)
}

func (m *MockReviewRepository) Since(ctx context.Context, userID int64, since time.Time) ([]models.Review, error) {
	args := m.Called(ctx, userID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Review), args.Error(1)
}
