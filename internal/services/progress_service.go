package services

import (
	"context"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vytor/studyflash/internal/errors"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/repository"
)

const progressWindow = 7 * 24 * time.Hour

// ProgressService summarizes a user's recent study activity
type ProgressService interface {
	GetProgress(ctx context.Context, userID int64) (*models.Progress, error)
}

type progressService struct {
	reviewRepo repository.ReviewRepository
	loc        *time.Location
	now        func() time.Time
}

// NewProgressService creates a new ProgressService. Streak days are counted
// in loc; nil means the server's local zone.
func NewProgressService(reviewRepo repository.ReviewRepository, loc *time.Location) ProgressService {
	if loc == nil {
		loc = time.Local
	}
	return &progressService{reviewRepo: reviewRepo, loc: loc, now: time.Now}
}

func (s *progressService) GetProgress(ctx context.Context, userID int64) (*models.Progress, error) {
	log := logger.FromContext(ctx)
	log.Debug("computing progress: user_id=%d", userID)

	now := s.now()
	var (
		reviews []models.Review
		dueNow  int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		reviews, err = s.reviewRepo.Since(gctx, userID, now.Add(-progressWindow))
		return err
	})
	g.Go(func() error {
		var err error
		dueNow, err = s.reviewRepo.CountDue(gctx, userID, now)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Error("failed to load progress: %v", err)
		return nil, errors.NewInternalError(err)
	}

	return &models.Progress{
		TotalReviews7d: len(reviews),
		Accuracy:       accuracy(reviews),
		Streak:         streak(reviews, now, s.loc),
		DueNow:         dueNow,
	}, nil
}

// accuracy is the rounded percentage of reviews graded Good or Easy.
func accuracy(reviews []models.Review) int {
	if len(reviews) == 0 {
		return 0
	}
	passed := 0
	for _, r := range reviews {
		if r.Grade.Passed() {
			passed++
		}
	}
	return int(math.Round(100 * float64(passed) / float64(len(reviews))))
}

// streak counts consecutive days with at least one review, ending today.
// No review today means no streak.
func streak(reviews []models.Review, now time.Time, loc *time.Location) int {
	days := make(map[string]bool, len(reviews))
	for _, r := range reviews {
		days[r.ReviewedAt.In(loc).Format(time.DateOnly)] = true
	}

	today := now.In(loc)
	n := 0
	for i := 0; i < 7; i++ {
		day := time.Date(today.Year(), today.Month(), today.Day()-i, 12, 0, 0, 0, loc)
		if !days[day.Format(time.DateOnly)] {
			break
		}
		n++
	}
	return n
}
