package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/habitup/habitup-engine/internal/adapters/repository"
	"github.com/habitup/habitup-engine/internal/core/domain"
	"github.com/habitup/habitup-engine/internal/core/flow"
	"github.com/habitup/habitup-engine/internal/core/services"
)

type stubGenerator struct {
	diagnoseFn func(ctx context.Context, answers domain.OnboardingAnswers) (*domain.Diagnosis, error)
	extractFn  func(ctx context.Context, text string) ([]domain.TaskDraft, error)
	summaryFn  func(ctx context.Context, tasks []domain.Task) (string, error)
}

func (s *stubGenerator) Diagnose(ctx context.Context, answers domain.OnboardingAnswers) (*domain.Diagnosis, error) {
	if s.diagnoseFn != nil {
		return s.diagnoseFn(ctx, answers)
	}
	return domain.FallbackDiagnosis(answers), nil
}

func (s *stubGenerator) ExtractTasks(ctx context.Context, text string) ([]domain.TaskDraft, error) {
	if s.extractFn != nil {
		return s.extractFn(ctx, text)
	}
	return []domain.TaskDraft{}, nil
}

func (s *stubGenerator) Summarize(ctx context.Context, tasks []domain.Task) (string, error) {
	if s.summaryFn != nil {
		return s.summaryFn(ctx, tasks)
	}
	return "Nice week!", nil
}

type testEnv struct {
	router *gin.Engine
	repo   *repository.InMemoryProfileRepository
}

func newTestEnv(gen *stubGenerator) *testEnv {
	gin.SetMode(gin.TestMode)

	repo := repository.NewInMemoryProfileRepository()
	insightService := services.NewInsightService(gen)
	registry := flow.NewRegistry(insightService, nil)
	authService := services.NewAuthService(repo, nil)
	tokenService := services.NewTokenService("test-secret", "habitup-test", 1*time.Hour, repo)

	router := NewRouter(RouterDependencies{
		AuthHandler:  NewAuthHandler(authService, tokenService),
		FlowHandler:  NewFlowHandler(registry),
		TaskHandler:  NewTaskHandler(),
		TokenService: tokenService,
		Registry:     registry,
		ProfileRepo:  repo,
		StartTime:    time.Now(),
	})

	return &testEnv{router: router, repo: repo}
}

// do issues a request against the test router, attaching the session header
// and encoding body as JSON when present.
func (e *testEnv) do(t *testing.T, method, path, sessionID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	if sessionID != "" {
		req.Header.Set("X-Session-ID", sessionID)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) createSession(t *testing.T) string {
	t.Helper()

	w := e.do(t, http.MethodPost, "/api/v1/sessions", "", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SessionID)
	return resp.SessionID
}

func testAnswers() map[string]interface{} {
	return map[string]interface{}{
		"answers": map[string]interface{}{
			"life_feeling":    "Too much to do",
			"frustration":     "Getting distracted easily",
			"areas_of_focus":  []string{"Health & Sports", "Career & Work"},
			"common_places":   []string{"The Gym"},
			"free_time_slots": []string{"Before bed"},
		},
	}
}

// driveToAuth walks a session up to the AUTH screen over HTTP.
func (e *testEnv) driveToAuth(t *testing.T, sessionID string) {
	t.Helper()

	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/api/v1/flow/start", sessionID, nil).Code)
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/api/v1/flow/onboarding", sessionID, testAnswers()).Code)
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/api/v1/flow/why-different/ack", sessionID, nil).Code)
}

// driveToMain completes the whole journey as a guest.
func (e *testEnv) driveToMain(t *testing.T, sessionID string) {
	t.Helper()

	e.driveToAuth(t, sessionID)
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/api/v1/auth/guest", sessionID, nil).Code)
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/api/v1/flow/solution/reveal", sessionID, nil).Code)
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/api/v1/flow/diagnosis/run", sessionID, nil).Code)
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/api/v1/flow/diagnosis/confirm", sessionID, nil).Code)
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/api/v1/flow/subscribe", sessionID, nil).Code)
}
