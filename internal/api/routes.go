package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(loggingMiddleware)
	r.Use(recoveryMiddleware)
	r.Use(securityHeadersMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/signup", s.handleSignup)
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/logout", s.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(s.requireUser)

			r.Get("/auth/session", s.handleSession)

			r.Get("/decks", s.handleListDecks)
			r.Post("/decks", s.handleCreateDeck)
			r.Get("/decks/{id}", s.handleGetDeck)
			r.Patch("/decks/{id}", s.handleUpdateDeck)
			r.Delete("/decks/{id}", s.handleDeleteDeck)

			r.Get("/cards", s.handleListCards)
			r.Post("/cards", s.handleCreateCard)
			r.Patch("/cards/{id}", s.handleUpdateCard)
			r.Delete("/cards/{id}", s.handleDeleteCard)

			r.Get("/study/next", s.handleNextCard)
			r.Post("/study/review", s.handleReview)

			r.Get("/progress", s.handleProgress)

			r.Post("/parse-pdf", s.handleParsePDF)

			r.Group(func(r chi.Router) {
				r.Use(s.rateLimitGeneration)
				r.Post("/generate", s.handleGenerate)
				r.Post("/parse-and-generate", s.handleParseAndGenerate)
				r.Post("/decks/{id}/generate", s.handleGenerateIntoDeck)
			})
		})
	})

	return r
}
