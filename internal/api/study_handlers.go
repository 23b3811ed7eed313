package api

import (
	"net/http"

	"github.com/vytor/studyflash/internal/errors"
	"github.com/vytor/studyflash/internal/flashcard"
)

type reviewRequest struct {
	DeckID int64 `json:"deckId"`
	CardID int64 `json:"cardId"`
	Grade  *int  `json:"grade"`
}

func (s *Server) handleNextCard(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	deckID, err := parseIDQuery(r, "deckId")
	if err != nil {
		handleError(w, r, err)
		return
	}
	exclude, err := parseIDList(r.URL.Query().Get("exclude"))
	if err != nil {
		handleError(w, r, err)
		return
	}

	card, err := s.StudyService.NextCard(r.Context(), user.ID, deckID, exclude)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"card": card})
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	var req reviewRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if req.DeckID <= 0 || req.CardID <= 0 {
		handleError(w, r, errors.NewValidationError("deckId/cardId", "are required"))
		return
	}
	if req.Grade == nil {
		handleError(w, r, errors.NewValidationError("grade", "is required"))
		return
	}
	grade, err := flashcard.ParseGrade(*req.Grade)
	if err != nil {
		handleError(w, r, errors.NewValidationError("grade", err.Error()))
		return
	}

	result, err := s.StudyService.SubmitReview(r.Context(), user.ID, req.DeckID, req.CardID, grade)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
