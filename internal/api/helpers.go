package api

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/studyflash/internal/errors"
	"github.com/vytor/studyflash/internal/logger"
)

const defaultMaxUploadBytes = 20 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("failed to encode response: %v", err)
	}
}

// decodeJSON reads a JSON request body into v. Unknown fields are ignored.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return errors.NewBadRequestError("request body is required")
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v); err != nil {
		if stderrors.Is(err, io.EOF) {
			return errors.NewBadRequestError("request body is required")
		}
		return errors.NewBadRequestError("invalid JSON body")
	}
	return nil
}

func parseIDParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewBadRequestError("invalid " + name + ": " + raw)
	}
	return id, nil
}

func parseIDQuery(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, errors.NewValidationError(name, "is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewValidationError(name, "must be a positive integer")
	}
	return id, nil
}

// parseIDList parses a comma separated list of ids, skipping blanks.
func parseIDList(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, errors.NewValidationError("exclude", "must be a list of card ids")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

var errNoFile = &errors.AppError{
	Code:    errors.ErrCodeNotFound,
	Message: "No File Found",
	Status:  http.StatusNotFound,
}

// readUpload returns the contents of the multipart field "file" (or "FILE").
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	limit := s.MaxUploadBytes
	if limit <= 0 {
		limit = defaultMaxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return nil, errors.NewValidationError("file", "exceeds the upload size limit")
		}
		if stderrors.Is(err, http.ErrNotMultipart) {
			return nil, errNoFile
		}
		return nil, errors.NewBadRequestError("invalid multipart form")
	}

	var (
		file multipart.File
		err  error
	)
	for _, field := range []string{"file", "FILE"} {
		file, _, err = r.FormFile(field)
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, errNoFile
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.NewBadRequestError("could not read uploaded file")
	}
	if len(data) == 0 {
		return nil, errNoFile
	}
	return data, nil
}

func formInt(r *http.Request, name string) int {
	n, err := strconv.Atoi(strings.TrimSpace(r.FormValue(name)))
	if err != nil {
		return 0
	}
	return n
}
