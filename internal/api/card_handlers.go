package api

import (
	"net/http"

	"github.com/vytor/studyflash/internal/models"
)

type createCardRequest struct {
	DeckID int64   `json:"deckId"`
	Front  string  `json:"front"`
	Back   string  `json:"back"`
	Hint   *string `json:"hint"`
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	deckID, err := parseIDQuery(r, "deckId")
	if err != nil {
		handleError(w, r, err)
		return
	}

	q := r.URL.Query()
	cards, err := s.CardService.ListCards(r.Context(), user.ID, models.CardFilter{
		DeckID: deckID,
		Query:  q.Get("q"),
		Sort:   models.CardSort(q.Get("sort")),
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	if cards == nil {
		cards = []models.Card{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"cards": cards})
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	var req createCardRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	card, err := s.CardService.CreateCard(r.Context(), user.ID, models.Card{
		DeckID: req.DeckID,
		Front:  req.Front,
		Back:   req.Back,
		Hint:   req.Hint,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"card": card})
}

func (s *Server) handleUpdateCard(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	id, err := parseIDParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	var patch models.CardPatch
	if err := decodeJSON(r, &patch); err != nil {
		handleError(w, r, err)
		return
	}

	card, err := s.CardService.UpdateCard(r.Context(), id, user.ID, patch)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"card": card})
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	id, err := parseIDParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}

	if err := s.CardService.DeleteCard(r.Context(), id, user.ID); err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
