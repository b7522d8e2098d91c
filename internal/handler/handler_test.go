package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quiz-engine/internal/bank"
	"quiz-engine/internal/config"
	"quiz-engine/internal/domain"
	"quiz-engine/internal/dto"
	"quiz-engine/internal/handler"
	"quiz-engine/internal/middleware"
	"quiz-engine/internal/repository"
	"quiz-engine/internal/selection"
	"quiz-engine/internal/service"
	"quiz-engine/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC)

func intPtr(n int) *int { return &n }

func question(text, discipline string, period int, source string) domain.Question {
	return domain.Question{
		Text:          text,
		Options:       []string{text + " A", text + " B", text + " C", text + " D"},
		CorrectOption: text + " A",
		CorrectIndex:  0,
		Discipline:    discipline,
		Period:        intPtr(period),
		Difficulty:    domain.DifficultyMedium,
		Source:        source,
		Explanation:   "because " + text,
	}
}

type testServer struct {
	app  *fiber.App
	auth service.AuthService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	corpus := []domain.Question{
		question("Mendel", "Genetics", 1, "instructor"),
		question("Allele", "Genetics", 1, ""),
		question("Locus", "Genetics", 1, ""),
		question("Cell", "Biology", 1, ""),
	}
	recovery := domain.RecoveryCorpus{
		"Molecular Biology": {
			"Replication": {question("Helicase", "Molecular Biology", 0, "")},
			"Translation": {question("Ribosome", "Molecular Biology", 0, "")},
		},
	}
	b := bank.NewStatic(corpus, recovery)

	store, err := repository.NewFileSessionStore(t.TempDir())
	require.NoError(t, err)

	auth := service.NewAuthService(config.AuthConfig{JWTSecret: "handler-secret", Issuer: "quiz-engine"})
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(), UnescapePath: true})
	handler.RegisterRoutes(app, handler.Services{
		Sessions: service.NewSessionService(b, selection.NewSelector(), store,
			service.WithClock(func() time.Time { return fixedNow })),
		Bank:      service.NewBankService(b),
		Auth:      auth,
		Validator: validation.NewValidator(15),
	})
	return &testServer{app: app, auth: auth}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, headers ...string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func TestSessionLifecycle(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.do(t, http.MethodPost, "/api/sessions", dto.CreateSessionRequest{
		Period: intPtr(1), Discipline: "genetics", RequestedCount: intPtr(3),
		Preferences: map[string]interface{}{"read_aloud": true},
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	var created dto.CreateSessionResponse
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, 3, created.TotalQuestions)
	assert.Equal(t, "normal", created.Mode)
	require.NotEmpty(t, created.SessionID)
	base := "/api/sessions/" + created.SessionID

	status, body = srv.do(t, http.MethodGet, base+"/question", nil)
	require.Equal(t, http.StatusOK, status)
	var q dto.QuestionResponse
	require.NoError(t, json.Unmarshal(body, &q))
	assert.Equal(t, 1, q.Number)
	assert.Equal(t, 3, q.Total)
	require.Len(t, q.Options, 4)
	assert.Equal(t, "A", q.Options[0].Letter)
	assert.Equal(t, true, q.Preferences["read_aloud"])

	status, body = srv.do(t, http.MethodPost, base+"/answers", dto.SubmitAnswerRequest{SubmittedOption: ""})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), "MISSING_FIELD")

	status, body = srv.do(t, http.MethodPost, base+"/answers", dto.SubmitAnswerRequest{SubmittedOption: q.Text + " A"})
	require.Equal(t, http.StatusOK, status, string(body))
	var answer dto.SubmitAnswerResponse
	require.NoError(t, json.Unmarshal(body, &answer))
	assert.True(t, answer.IsCorrect)
	assert.Equal(t, 15, answer.Points)
	assert.Equal(t, 2, answer.NextQuestionNumber)
	assert.False(t, answer.Completed)

	status, body = srv.do(t, http.MethodPost, base+"/finalize", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var fin dto.FinalizeResponse
	require.NoError(t, json.Unmarshal(body, &fin))
	assert.Equal(t, 1, fin.AnsweredCount)
	assert.Equal(t, 2, fin.UnansweredCount)
	assert.Equal(t, 15, fin.TotalPoints)

	status, body = srv.do(t, http.MethodPost, base+"/answers", dto.SubmitAnswerRequest{SubmittedOption: "late"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, string(body), "ALREADY_COMPLETED")

	status, body = srv.do(t, http.MethodGet, base+"/question", nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &q))
	assert.True(t, q.Completed)

	status, body = srv.do(t, http.MethodGet, base+"/report", nil)
	require.Equal(t, http.StatusOK, status)
	var report domain.Report
	require.NoError(t, json.Unmarshal(body, &report))
	assert.Equal(t, 1, report.AnsweredCount)
	assert.Equal(t, 1, report.CorrectCount)
	assert.Equal(t, 100.0, report.Accuracy)
	assert.Equal(t, 2, report.Unanswered)
	require.Len(t, report.Items, 1)
	assert.Len(t, report.Items[0].Options, 4)
}

func TestCreateSession_Errors(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
		wantCode   string
	}{
		{"missing discipline", dto.CreateSessionRequest{Period: intPtr(1)}, http.StatusBadRequest, "NO_CRITERIA"},
		{"bad mode", dto.CreateSessionRequest{Mode: "blitz", Discipline: "x"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"no match", dto.CreateSessionRequest{Period: intPtr(9), Discipline: "Genetics"}, http.StatusUnprocessableEntity, "NO_MATCH"},
		{"unknown recovery discipline", dto.CreateSessionRequest{Mode: "recovery", Discipline: "Chemistry", Topic: "all"}, http.StatusNotFound, "DISCIPLINE_NOT_FOUND"},
		{"unknown recovery topic", dto.CreateSessionRequest{Mode: "recovery", Discipline: "Molecular Biology", Topic: "Splicing"}, http.StatusNotFound, "TOPIC_NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := srv.do(t, http.MethodPost, "/api/sessions", tt.body)
			assert.Equal(t, tt.wantStatus, status, string(body))
			var resp map[string]interface{}
			require.NoError(t, json.Unmarshal(body, &resp))
			assert.Equal(t, tt.wantCode, resp["code"])
		})
	}
}

func TestCreateSession_RecoveryAllTopics(t *testing.T) {
	srv := newTestServer(t)
	status, body := srv.do(t, http.MethodPost, "/api/sessions", dto.CreateSessionRequest{
		Mode: "recovery", Discipline: "molecular biology", Topic: "ALL",
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	var created dto.CreateSessionResponse
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, 2, created.TotalQuestions)
	assert.Equal(t, domain.AllTopicsDisplayName, created.TopicName)
}

func TestSessionRoutes_UnknownAndInvalidIDs(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.do(t, http.MethodGet, "/api/sessions/01HZZZZZZZZZZZZZZZZZZZZZZZ/question", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, string(body), "SESSION_NOT_FOUND")

	status, _ = srv.do(t, http.MethodGet, "/api/sessions/bad.id/report", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCatalogRoutes(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.do(t, http.MethodGet, "/api/catalog", nil)
	require.Equal(t, http.StatusOK, status)
	var catalog dto.CatalogResponse
	require.NoError(t, json.Unmarshal(body, &catalog))
	require.Len(t, catalog.Periods, 1)
	assert.Equal(t, []string{"Biology", "Genetics"}, catalog.Periods[0].Disciplines)
	assert.Equal(t, []string{"Molecular Biology"}, catalog.RecoveryDisciplines)

	status, body = srv.do(t, http.MethodGet, "/api/catalog/recovery/Molecular%20Biology/topics", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var topics dto.RecoveryTopicsResponse
	require.NoError(t, json.Unmarshal(body, &topics))
	assert.Equal(t, "all", topics.AllTopics)
	assert.Len(t, topics.Topics, 2)

	status, _ = srv.do(t, http.MethodGet, "/api/catalog/recovery/Chemistry/topics", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAdminRoutes(t *testing.T) {
	srv := newTestServer(t)

	status, _ := srv.do(t, http.MethodGet, "/api/admin/stats", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	token, err := srv.auth.CreateJWT(context.Background(), "ops", time.Minute)
	require.NoError(t, err)
	bearer := fmt.Sprintf("Bearer %s", token)

	status, body := srv.do(t, http.MethodGet, "/api/admin/stats", nil, "Authorization", bearer)
	require.Equal(t, http.StatusOK, status)
	var stats bank.Stats
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.Equal(t, 4, stats.CorpusQuestions)
	assert.Equal(t, 1, stats.InstructorQuestions)

	status, body = srv.do(t, http.MethodPost, "/api/admin/bank/reload", nil, "Authorization", bearer)
	require.Equal(t, http.StatusOK, status, string(body))
	var reload dto.ReloadResponse
	require.NoError(t, json.Unmarshal(body, &reload))
	assert.Equal(t, 4, reload.CorpusQuestions)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	status, body := srv.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}
