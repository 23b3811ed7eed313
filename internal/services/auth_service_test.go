package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vytor/studyflash/internal/errors"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/repository"
	"github.com/vytor/studyflash/internal/testutil/mocks"
)

func newTestAuth(users *mocks.MockUserRepository, sessions *mocks.MockSessionRepository, now time.Time) *authService {
	s := NewAuthService(users, sessions, time.Hour).(*authService)
	s.hashCost = bcrypt.MinCost
	s.now = func() time.Time { return now }
	return s
}

func TestAuthService_Signup(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	users := new(mocks.MockUserRepository)
	sessions := new(mocks.MockSessionRepository)
	s := newTestAuth(users, sessions, now)

	users.On("Create", mock.Anything, mock.MatchedBy(func(u models.User) bool {
		return u.Email == "ana@example.com" && u.DisplayName == "ana" &&
			bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("correct horse")) == nil
	})).Return(int64(7), nil)
	sessions.On("Create", mock.Anything, mock.MatchedBy(func(s models.Session) bool {
		return s.UserID == 7 && s.Token != "" && s.ExpiresAt.Equal(now.Add(time.Hour))
	})).Return(nil)

	user, session, err := s.Signup(ctx, "  Ana@Example.com ", "correct horse", "")
	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, int64(7), session.UserID)
	users.AssertExpectations(t)
	sessions.AssertExpectations(t)
}

func TestAuthService_SignupValidation(t *testing.T) {
	s := newTestAuth(new(mocks.MockUserRepository), new(mocks.MockSessionRepository), time.Now())

	_, _, err := s.Signup(context.Background(), "not-an-email", "longenough", "")
	requireAppError(t, err, errors.ErrCodeValidation)

	_, _, err = s.Signup(context.Background(), "ana@example.com", "short", "")
	requireAppError(t, err, errors.ErrCodeValidation)
}

func TestAuthService_SignupDuplicate(t *testing.T) {
	users := new(mocks.MockUserRepository)
	s := newTestAuth(users, new(mocks.MockSessionRepository), time.Now())
	users.On("Create", mock.Anything, mock.Anything).Return(int64(0), repository.ErrDuplicate)

	_, _, err := s.Signup(context.Background(), "ana@example.com", "longenough", "Ana")
	requireAppError(t, err, errors.ErrCodeConflict)
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	users := new(mocks.MockUserRepository)
	sessions := new(mocks.MockSessionRepository)
	s := newTestAuth(users, sessions, time.Now())

	hash, err := bcrypt.GenerateFromPassword([]byte("secret-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	users.On("GetByEmail", mock.Anything, "ana@example.com").
		Return(&models.User{ID: 3, Email: "ana@example.com", PasswordHash: string(hash)}, nil)
	users.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, nil)
	sessions.On("Create", mock.Anything, mock.Anything).Return(nil)

	user, session, err := s.Login(ctx, "ANA@example.com", "secret-pass")
	require.NoError(t, err)
	assert.Equal(t, int64(3), user.ID)
	assert.NotEmpty(t, session.Token)

	_, _, err = s.Login(ctx, "ana@example.com", "wrong-pass")
	requireAppError(t, err, errors.ErrCodeUnauthorized)

	_, _, err = s.Login(ctx, "nobody@example.com", "secret-pass")
	requireAppError(t, err, errors.ErrCodeUnauthorized)
}

func TestAuthService_Authenticate(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	users := new(mocks.MockUserRepository)
	sessions := new(mocks.MockSessionRepository)
	s := newTestAuth(users, sessions, now)

	sessions.On("Get", mock.Anything, "live").
		Return(&models.Session{Token: "live", UserID: 3, ExpiresAt: now.Add(time.Minute)}, nil)
	sessions.On("Get", mock.Anything, "stale").
		Return(&models.Session{Token: "stale", UserID: 3, ExpiresAt: now.Add(-time.Minute)}, nil)
	sessions.On("Get", mock.Anything, "unknown").Return(nil, nil)
	sessions.On("Delete", mock.Anything, "stale").Return(nil)
	users.On("Get", mock.Anything, int64(3)).Return(&models.User{ID: 3}, nil)

	user, err := s.Authenticate(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, int64(3), user.ID)

	_, err = s.Authenticate(ctx, "stale")
	requireAppError(t, err, errors.ErrCodeUnauthorized)
	sessions.AssertCalled(t, "Delete", mock.Anything, "stale")

	_, err = s.Authenticate(ctx, "unknown")
	requireAppError(t, err, errors.ErrCodeUnauthorized)

	_, err = s.Authenticate(ctx, "")
	requireAppError(t, err, errors.ErrCodeUnauthorized)
}

func TestAuthService_PurgeExpiredSessions(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	sessions := new(mocks.MockSessionRepository)
	s := newTestAuth(new(mocks.MockUserRepository), sessions, now)
	sessions.On("DeleteExpired", mock.Anything, now).Return(int64(4), nil)

	n, err := s.PurgeExpiredSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}
