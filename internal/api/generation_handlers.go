package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/vytor/studyflash/internal/models"
)

type generateRequest struct {
	Text  string `json:"text"`
	Count int    `json:"count"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	cards, err := s.GenerationService.Generate(r.Context(), req.Text, req.Count)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if cards == nil {
		cards = []models.CardDraft{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"cards": cards})
}

// handleParsePDF returns the text of an uploaded PDF. The FileName header
// carries a generated name for the upload.
func (s *Server) handleParsePDF(w http.ResponseWriter, r *http.Request) {
	data, err := s.readUpload(w, r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	text, err := s.GenerationService.ExtractPDF(r.Context(), data)
	if err != nil {
		handleError(w, r, err)
		return
	}

	w.Header().Set("FileName", uuid.NewString())
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(text))
}

func (s *Server) handleParseAndGenerate(w http.ResponseWriter, r *http.Request) {
	data, err := s.readUpload(w, r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	cards, textLength, err := s.GenerationService.ParseAndGenerate(r.Context(), data, formInt(r, "count"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	if cards == nil {
		cards = []models.CardDraft{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"cards": cards, "text_length": textLength})
}

func (s *Server) handleGenerateIntoDeck(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	deckID, err := parseIDParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	if err := s.GenerationService.EnqueueDeckGeneration(r.Context(), user.ID, deckID, req.Text, req.Count); err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true, "status": "queued"})
}
