package insight

import (
	"encoding/json"
	"log"

	"github.com/kaptinlin/jsonrepair"

	"github.com/habitup/habitup-engine/internal/core/domain"
)

// Wire shapes mirror the declared response schemas, not the domain JSON.

type habitDraftPayload struct {
	Title        string  `json:"title"`
	HabitFormula string  `json:"habitFormula"`
	Reason       string  `json:"reason"`
	Importance   float64 `json:"importance"`
}

type diagnosisPayload struct {
	Reflection      string              `json:"reflection"`
	IdentityName    string              `json:"identityName"`
	Insights        []string            `json:"insights"`
	SuggestedHabits []habitDraftPayload `json:"suggestedHabits"`
	Patterns        struct {
		Behavioral string `json:"behavioral"`
		Emotional  string `json:"emotional"`
		Blocker    string `json:"blocker"`
		Strength   string `json:"strength"`
	} `json:"patterns"`
}

type brainDumpPayload struct {
	Tasks []struct {
		Title      string  `json:"title"`
		Reason     string  `json:"reason"`
		Importance float64 `json:"importance"`
	} `json:"tasks"`
	DetectedEmotions []string `json:"detectedEmotions"`
}

// unmarshalLenient tries a straight unmarshal, then a jsonrepair pass.
// Models occasionally emit trailing commas, bare keys or cut-off output even
// with a declared schema.
func unmarshalLenient(raw string, v interface{}) error {
	if err := json.Unmarshal([]byte(raw), v); err == nil {
		return nil
	}

	fixed, err := jsonrepair.JSONRepair(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(fixed), v)
}

// decodeDiagnosis parses model output into a Diagnosis, substituting the
// minimal fallback when nothing usable comes back.
func decodeDiagnosis(raw string, answers domain.OnboardingAnswers) *domain.Diagnosis {
	var payload diagnosisPayload
	if err := unmarshalLenient(raw, &payload); err != nil {
		log.Printf("insight: unparseable diagnosis output, using fallback: %v", err)
		return domain.FallbackDiagnosis(answers)
	}

	if payload.IdentityName == "" || len(payload.SuggestedHabits) == 0 {
		log.Printf("insight: incomplete diagnosis output, using fallback")
		return domain.FallbackDiagnosis(answers)
	}

	habits := make([]domain.TaskDraft, 0, len(payload.SuggestedHabits))
	for _, h := range payload.SuggestedHabits {
		habits = append(habits, domain.TaskDraft{
			Title:        h.Title,
			Reason:       h.Reason,
			Importance:   int(h.Importance),
			HabitFormula: h.HabitFormula,
		})
	}

	return &domain.Diagnosis{
		IdentityName:    payload.IdentityName,
		Reflection:      payload.Reflection,
		Insights:        payload.Insights,
		SuggestedHabits: habits,
		Patterns: domain.BehaviorPatterns{
			Behavioral: payload.Patterns.Behavioral,
			Emotional:  payload.Patterns.Emotional,
			Blocker:    payload.Patterns.Blocker,
			Strength:   payload.Patterns.Strength,
		},
	}
}

// decodeDrafts parses brain-dump output. Parse failure is an empty list, by
// contract.
func decodeDrafts(raw string) []domain.TaskDraft {
	var payload brainDumpPayload
	if err := unmarshalLenient(raw, &payload); err != nil {
		log.Printf("insight: unparseable brain dump output, returning no drafts: %v", err)
		return []domain.TaskDraft{}
	}

	drafts := make([]domain.TaskDraft, 0, len(payload.Tasks))
	for _, t := range payload.Tasks {
		if t.Title == "" {
			continue
		}
		drafts = append(drafts, domain.TaskDraft{
			Title:      t.Title,
			Reason:     t.Reason,
			Importance: int(t.Importance),
		})
	}
	return drafts
}
