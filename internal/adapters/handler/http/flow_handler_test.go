package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habitup/habitup-engine/internal/core/domain"
)

func TestSessionLifecycle(t *testing.T) {
	env := newTestEnv(&stubGenerator{})

	t.Run("Success: Create session returns id and WELCOME snapshot", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/sessions", "", nil)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"WELCOME"`)
		assert.Contains(t, w.Body.String(), "session_id")
	})

	t.Run("Fail: Missing session header", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/flow", "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Fail: Unknown session", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/flow", "nope", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestFlowHandler_Questionnaire(t *testing.T) {
	env := newTestEnv(&stubGenerator{})
	sessionID := env.createSession(t)

	w := env.do(t, http.MethodGet, "/api/v1/flow/questionnaire", sessionID, nil)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Questions []domain.OnboardingQuestion `json:"questions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Questions, 10)
	assert.Equal(t, "life_feeling", resp.Questions[0].ID)
}

func TestFlowHandler_ValidateAnswer(t *testing.T) {
	env := newTestEnv(&stubGenerator{})
	sessionID := env.createSession(t)

	t.Run("Success: Multi-select with a selection", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/flow/onboarding/answers", sessionID, map[string]interface{}{
			"question_id": "areas_of_focus",
			"selected":    []string{"Health & Sports"},
		})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"valid":true`)
	})

	t.Run("Fail: Multi-select with nothing picked", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/flow/onboarding/answers", sessionID, map[string]interface{}{
			"question_id": "common_places",
			"selected":    []string{},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Success: Single select needs no selection", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/flow/onboarding/answers", sessionID, map[string]interface{}{
			"question_id": "life_feeling",
		})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Fail: Unknown question", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/flow/onboarding/answers", sessionID, map[string]interface{}{
			"question_id": "zodiac_sign",
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestFlowHandler_GuestJourney(t *testing.T) {
	env := newTestEnv(&stubGenerator{})
	sessionID := env.createSession(t)

	env.driveToMain(t, sessionID)

	w := env.do(t, http.MethodGet, "/api/v1/flow", sessionID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var snap struct {
		State   domain.AppState `json:"state"`
		Profile struct {
			IsSubscribed bool          `json:"is_subscribed"`
			Tasks        []domain.Task `json:"tasks"`
		} `json:"profile"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))

	assert.Equal(t, domain.StateMain, snap.State)
	assert.True(t, snap.Profile.IsSubscribed)
	assert.Len(t, snap.Profile.Tasks, 3, "1 fallback habit + 2 focus check-ins")
}

func TestFlowHandler_InvalidTransitions(t *testing.T) {
	env := newTestEnv(&stubGenerator{})
	sessionID := env.createSession(t)

	t.Run("Fail: Subscribe from WELCOME", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/flow/subscribe", sessionID, nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Fail: Double start", func(t *testing.T) {
		require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/v1/flow/start", sessionID, nil).Code)
		w := env.do(t, http.MethodPost, "/api/v1/flow/start", sessionID, nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Fail: Switch tab outside MAIN", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/flow/tab", sessionID, map[string]string{"tab": "PLAN"})
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestFlowHandler_RunDiagnosisFailure(t *testing.T) {
	gen := &stubGenerator{
		diagnoseFn: func(context.Context, domain.OnboardingAnswers) (*domain.Diagnosis, error) {
			return nil, errors.New("model unreachable")
		},
	}
	env := newTestEnv(gen)
	sessionID := env.createSession(t)

	env.driveToAuth(t, sessionID)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/v1/auth/guest", sessionID, nil).Code)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/v1/flow/solution/reveal", sessionID, nil).Code)

	w := env.do(t, http.MethodPost, "/api/v1/flow/diagnosis/run", sessionID, nil)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), `"restart":true`)
}

func TestFlowHandler_ConfirmWithoutRun(t *testing.T) {
	env := newTestEnv(&stubGenerator{})
	sessionID := env.createSession(t)

	env.driveToAuth(t, sessionID)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/v1/auth/guest", sessionID, nil).Code)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/v1/flow/solution/reveal", sessionID, nil).Code)

	w := env.do(t, http.MethodPost, "/api/v1/flow/diagnosis/confirm", sessionID, nil)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestFlowHandler_SetTab(t *testing.T) {
	env := newTestEnv(&stubGenerator{})
	sessionID := env.createSession(t)
	env.driveToMain(t, sessionID)

	w := env.do(t, http.MethodPost, "/api/v1/flow/tab", sessionID, map[string]string{"tab": "INSIGHTS"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"INSIGHTS"`)

	w = env.do(t, http.MethodPost, "/api/v1/flow/tab", sessionID, map[string]string{"tab": "SETTINGS"})
	assert.Equal(t, http.StatusConflict, w.Code)
}
