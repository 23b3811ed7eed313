package api

import (
	"context"
	"time"

	"github.com/vytor/studyflash/internal/services"
)

// HealthChecker reports whether a backing store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Server struct {
	AuthService       services.AuthService
	DeckService       services.DeckService
	CardService       services.CardService
	StudyService      services.StudyService
	GenerationService services.GenerationService
	ProgressService   services.ProgressService

	DB              HealthChecker
	GenerateLimiter *RateLimiter
	MaxUploadBytes  int64
	SessionTTL      time.Duration
	CookieSecure    bool
}
