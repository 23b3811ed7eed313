package services

import (
	"context"
	stderrors "errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vytor/studyflash/internal/errors"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/repository"
)

const MinPasswordLength = 8

// AuthService handles accounts and login sessions
type AuthService interface {
	Signup(ctx context.Context, email, password, displayName string) (*models.User, *models.Session, error)
	Login(ctx context.Context, email, password string) (*models.User, *models.Session, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (*models.User, error)
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

type authService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	sessionTTL  time.Duration
	hashCost    int
	now         func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo repository.UserRepository, sessionRepo repository.SessionRepository, sessionTTL time.Duration) AuthService {
	return &authService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		sessionTTL:  sessionTTL,
		hashCost:    bcrypt.DefaultCost,
		now:         time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) Signup(ctx context.Context, email, password, displayName string) (*models.User, *models.Session, error) {
	log := logger.FromContext(ctx)
	email = normalizeEmail(email)
	log.Debug("signing up user: email=%s", email)

	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, nil, errors.NewValidationError("email", "must be a valid address")
	}
	if len(password) < MinPasswordLength {
		return nil, nil, errors.NewValidationError("password", "must be at least 8 characters")
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = strings.SplitN(email, "@", 2)[0]
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		log.Error("failed to hash password: %v", err)
		return nil, nil, errors.NewInternalError(err)
	}

	user := models.User{
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	id, err := s.userRepo.Create(ctx, user)
	if err != nil {
		if stderrors.Is(err, repository.ErrDuplicate) {
			return nil, nil, errors.NewConflictError("an account with this email already exists")
		}
		log.Error("failed to create user: %v", err)
		return nil, nil, errors.NewInternalError(err)
	}
	user.ID = id

	session, err := s.newSession(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	log.Info("user signed up: id=%d", id)
	return &user, session, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*models.User, *models.Session, error) {
	log := logger.FromContext(ctx)
	email = normalizeEmail(email)
	log.Debug("logging in user: email=%s", email)

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		log.Error("failed to load user: %v", err)
		return nil, nil, errors.NewInternalError(err)
	}
	if user == nil {
		return nil, nil, errors.NewUnauthorizedError("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, errors.NewUnauthorizedError("invalid email or password")
	}

	session, err := s.newSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

func (s *authService) newSession(ctx context.Context, userID int64) (*models.Session, error) {
	now := s.now().UTC()
	session := models.Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		logger.FromContext(ctx).Error("failed to create session: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return &session, nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessionRepo.Delete(ctx, token); err != nil {
		logger.FromContext(ctx).Error("failed to delete session: %v", err)
		return errors.NewInternalError(err)
	}
	return nil
}

// Authenticate resolves a session token to its user. Expired sessions are
// deleted on sight.
func (s *authService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	log := logger.FromContext(ctx)
	if token == "" {
		return nil, errors.NewUnauthorizedError("not signed in")
	}

	session, err := s.sessionRepo.Get(ctx, token)
	if err != nil {
		log.Error("failed to load session: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if session == nil {
		return nil, errors.NewUnauthorizedError("not signed in")
	}
	if session.Expired(s.now()) {
		if err := s.sessionRepo.Delete(ctx, token); err != nil {
			log.Warn("failed to delete expired session: %v", err)
		}
		return nil, errors.NewUnauthorizedError("session expired")
	}

	user, err := s.userRepo.Get(ctx, session.UserID)
	if err != nil {
		log.Error("failed to load session user: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if user == nil {
		return nil, errors.NewUnauthorizedError("not signed in")
	}
	return user, nil
}

func (s *authService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.sessionRepo.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		logger.FromContext(ctx).Error("failed to purge sessions: %v", err)
		return 0, errors.NewInternalError(err)
	}
	if n > 0 {
		logger.FromContext(ctx).Info("purged %d expired sessions", n)
	}
	return n, nil
}
