package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vytor/studyflash/internal/db"
	"github.com/vytor/studyflash/internal/jobs"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/repository/sqlite"
	"github.com/vytor/studyflash/internal/services"
	"github.com/vytor/studyflash/internal/testutil"
	"github.com/vytor/studyflash/internal/worker"
)

type stubGenerator struct{}

func (stubGenerator) Generate(_ context.Context, text string, count int) ([]models.CardDraft, error) {
	cards := make([]models.CardDraft, 0, count)
	for i := 0; i < count; i++ {
		cards = append(cards, models.CardDraft{Front: "Q about " + text, Back: "A"})
	}
	return cards, nil
}

type testServer struct {
	*httptest.Server
	db     *sql.DB
	client *http.Client
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	sqlDB := testutil.NewTestDB(t)
	t.Cleanup(func() { _ = sqlDB.Close() })

	userRepo := sqlite.NewUserRepository(sqlDB)
	sessionRepo := sqlite.NewSessionRepository(sqlDB)
	deckRepo := sqlite.NewDeckRepository(sqlDB)
	cardRepo := sqlite.NewCardRepository(sqlDB)
	reviewRepo := sqlite.NewReviewRepository(sqlDB)

	auth := services.NewAuthService(userRepo, sessionRepo, time.Hour)

	pool := worker.NewPool("generation", 1, 4)
	pool.Start(context.Background())
	t.Cleanup(pool.Stop)
	queue := jobs.NewWorkerQueue(pool, auth.PurgeExpiredSessions)
	generation := services.NewGenerationService(stubGenerator{}, deckRepo, cardRepo, queue)
	queue.SetFiller(generation)

	srv := &Server{
		AuthService:       auth,
		DeckService:       services.NewDeckService(deckRepo),
		CardService:       services.NewCardService(cardRepo, deckRepo),
		StudyService:      services.NewStudyService(deckRepo, cardRepo, reviewRepo),
		GenerationService: generation,
		ProgressService:   services.NewProgressService(reviewRepo, nil),
		DB:                &db.DB{DB: sqlDB},
		GenerateLimiter:   NewRateLimiter(1, 3),
		SessionTTL:        time.Hour,
	}

	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testServer{Server: ts, db: sqlDB, client: &http.Client{Jar: jar}}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return ts.send(t, req)
}

func (ts *testServer) send(t *testing.T, req *http.Request) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := ts.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(raw) > 0 && resp.Header.Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp, out
}

func (ts *testServer) signup(t *testing.T, email string) {
	t.Helper()
	resp, _ := ts.do(t, http.MethodPost, "/api/auth/signup", map[string]string{"email": email, "password": "password123"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func errorCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func TestAuthFlow(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(t, http.MethodGet, "/api/auth/session", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))

	ts.signup(t, "Ana@Example.com")

	resp, body = ts.do(t, http.MethodGet, "/api/auth/session", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	user := body["user"].(map[string]any)
	assert.Equal(t, "ana@example.com", user["email"])
	assert.NotContains(t, user, "PasswordHash")

	resp, body = ts.do(t, http.MethodPost, "/api/auth/signup", map[string]string{"email": "ana@example.com", "password": "password123"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CONFLICT", errorCode(body))

	resp, _ = ts.do(t, http.MethodPost, "/api/auth/logout", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = ts.do(t, http.MethodGet, "/api/auth/session", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "ana@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp, _ = ts.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "ANA@example.com", "password": "password123"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStudyFlow(t *testing.T) {
	ts := newTestServer(t)
	ts.signup(t, "learner@example.com")

	resp, body := ts.do(t, http.MethodPost, "/api/decks", map[string]any{
		"title": "Capitals",
		"cards": []map[string]string{
			{"front": "France", "back": "Paris"},
			{"front": "Peru", "back": "Lima"},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	deck := body["deck"].(map[string]any)
	deckID := int64(deck["id"].(float64))
	assert.Equal(t, float64(2), deck["card_count"])

	path := "/api/study/next?deckId=" + itoa(deckID)
	resp, body = ts.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	first := body["card"].(map[string]any)
	assert.Equal(t, "France", first["front"])
	firstID := int64(first["id"].(float64))

	resp, body = ts.do(t, http.MethodPost, "/api/study/review", map[string]any{"deckId": deckID, "cardId": firstID, "grade": 2})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, float64(1), body["intervalDays"])
	assert.Equal(t, 2.5, body["ease"])

	resp, body = ts.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	second := body["card"].(map[string]any)
	assert.Equal(t, "Peru", second["front"], "reviewed card is no longer unseen")
	secondID := int64(second["id"].(float64))

	resp, body = ts.do(t, http.MethodPost, "/api/study/review", map[string]any{"deckId": deckID, "cardId": secondID, "grade": 0})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), body["intervalDays"])

	resp, body = ts.do(t, http.MethodGet, path+"&exclude="+itoa(secondID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "France", body["card"].(map[string]any)["front"], "upcoming card once due and unseen are exhausted")

	resp, body = ts.do(t, http.MethodPost, "/api/study/review", map[string]any{"deckId": deckID, "cardId": firstID, "grade": 7})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(body))

	resp, body = ts.do(t, http.MethodGet, "/api/progress", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), body["totalReviews7d"])
	assert.Equal(t, float64(50), body["accuracy"])
	assert.Equal(t, float64(1), body["streak"])
}

func TestDeckAccess(t *testing.T) {
	ts := newTestServer(t)
	owner := testutil.InsertUser(t, ts.db, "owner@example.com")
	private := testutil.InsertDeck(t, ts.db, owner, "secret", false)
	public := testutil.InsertDeck(t, ts.db, owner, "shared", true)
	ts.signup(t, "guest@example.com")

	resp, _ := ts.do(t, http.MethodGet, "/api/decks/"+itoa(private), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodGet, "/api/decks/"+itoa(public), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodPatch, "/api/decks/"+itoa(public), map[string]any{"title": "mine now"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodGet, "/api/cards?deckId="+itoa(public), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodGet, "/api/study/next", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGenerateRateLimited(t *testing.T) {
	ts := newTestServer(t)
	ts.signup(t, "gen@example.com")

	for i := 0; i < 3; i++ {
		resp, body := ts.do(t, http.MethodPost, "/api/generate", map[string]any{"text": "photosynthesis", "count": 2})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, body["cards"], 2)
	}
	resp, body := ts.do(t, http.MethodPost, "/api/generate", map[string]any{"text": "photosynthesis", "count": 2})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "TOO_MANY_REQUESTS", errorCode(body))
}

func TestGenerateIntoDeck(t *testing.T) {
	ts := newTestServer(t)
	ts.signup(t, "gen@example.com")

	resp, body := ts.do(t, http.MethodPost, "/api/decks", map[string]any{"title": "Generated"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	deckID := int64(body["deck"].(map[string]any)["id"].(float64))

	resp, _ = ts.do(t, http.MethodPost, "/api/decks/"+itoa(deckID)+"/generate", map[string]any{"text": "cells", "count": 3})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	require.Eventually(t, func() bool {
		var n int
		err := ts.db.QueryRow(`SELECT COUNT(*) FROM cards WHERE deck_id = ?`, deckID).Scan(&n)
		return err == nil && n == 3
	}, 2*time.Second, 20*time.Millisecond)
}

func TestParsePDF_NoFile(t *testing.T) {
	ts := newTestServer(t)
	ts.signup(t, "pdf@example.com")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("count", "3"))
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/parse-pdf", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, body := ts.send(t, req)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "No File Found", body["error"].(map[string]any)["message"])
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, ts.db.Close())
	resp, _ = ts.do(t, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))
}

func TestRateLimiter_EvictsIdleKeys(t *testing.T) {
	clock := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(6, 2)
	rl.now = func() time.Time { return clock }

	for i := 0; i < 50; i++ {
		assert.True(t, rl.Allow("user-"+strconv.Itoa(i)))
	}
	assert.True(t, rl.Allow("active"))
	assert.True(t, rl.Allow("active"))
	assert.False(t, rl.Allow("active"))
	assert.Equal(t, 51, rl.size())

	clock = clock.Add(minIdleTTL / 2)
	assert.True(t, rl.Allow("active"), "bucket refills while in use")

	clock = clock.Add(minIdleTTL/2 + time.Second)
	assert.True(t, rl.Allow("active"))
	assert.Equal(t, 1, rl.size(), "only buckets idle past the TTL are dropped")
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
