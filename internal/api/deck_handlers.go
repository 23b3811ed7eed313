package api

import (
	"net/http"

	"github.com/vytor/studyflash/internal/models"
)

type createDeckRequest struct {
	Title       string             `json:"title"`
	Description *string            `json:"description"`
	IsPublic    bool               `json:"is_public"`
	Cards       []models.CardDraft `json:"cards"`
}

func (s *Server) handleListDecks(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	decks, err := s.DeckService.ListDecks(r.Context(), user.ID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if decks == nil {
		decks = []models.Deck{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"decks": decks})
}

func (s *Server) handleCreateDeck(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	var req createDeckRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	deck, err := s.DeckService.CreateDeck(r.Context(), user.ID, models.Deck{
		Title:       req.Title,
		Description: req.Description,
		IsPublic:    req.IsPublic,
	}, req.Cards)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"deck": deck})
}

func (s *Server) handleGetDeck(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	id, err := parseIDParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}

	deck, err := s.DeckService.GetDeck(r.Context(), id, user.ID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deck": deck})
}

func (s *Server) handleUpdateDeck(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	id, err := parseIDParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	var patch models.DeckPatch
	if err := decodeJSON(r, &patch); err != nil {
		handleError(w, r, err)
		return
	}

	deck, err := s.DeckService.UpdateDeck(r.Context(), id, user.ID, patch)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deck": deck})
}

func (s *Server) handleDeleteDeck(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	id, err := parseIDParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}

	if err := s.DeckService.DeleteDeck(r.Context(), id, user.ID); err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
