package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/studyflash/internal/models"
)

// MockJobQueue is a mock implementation of jobs.JobQueue
type MockJobQueue struct {
	mock.Mock
}

func (m *MockJobQueue) EnqueueGeneration(deckID int64, text string, count int) error {
	args := m.Called(deckID, text, count)
	return args.Error(0)
}

func (m *MockJobQueue) EnqueueSessionPurge() error {
	args := m.Called()
	return args.Error(0)
}

// MockGenerator is a mock implementation of generator.Generator
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, text string, count int) ([]models.CardDraft, error) {
	args := m.Called(ctx, text, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CardDraft), args.Error(1)
}
