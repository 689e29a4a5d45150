package insight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habitup/habitup-engine/internal/core/domain"
)

func TestDecodeDiagnosis(t *testing.T) {
	answers := domain.OnboardingAnswers{
		CommonPlaces:  []string{"The Library"},
		FreeTimeSlots: []string{"Lunch break"},
	}

	t.Run("Success: Well-formed output", func(t *testing.T) {
		raw := `{
			"reflection": "You start strong and fade at night.",
			"identityName": "The Sprinter",
			"insights": ["Mornings are your edge.", "Batch the boring stuff."],
			"suggestedHabits": [
				{"title": "Morning sprint", "habitFormula": "When I am at My Desk at When I wake up, I will do my hardest task first.", "reason": "Use your peak.", "importance": 5}
			],
			"patterns": {"behavioral": "Fast starter", "emotional": "Impatient", "blocker": "Evening fatigue", "strength": "Momentum"}
		}`

		d := decodeDiagnosis(raw, answers)

		assert.Equal(t, "The Sprinter", d.IdentityName)
		assert.Len(t, d.Insights, 2)
		require.Len(t, d.SuggestedHabits, 1)
		assert.Equal(t, "Morning sprint", d.SuggestedHabits[0].Title)
		assert.Equal(t, 5, d.SuggestedHabits[0].Importance)
		assert.Equal(t, "Evening fatigue", d.Patterns.Blocker)
	})

	t.Run("Repair: Trailing comma is fixed before parsing", func(t *testing.T) {
		raw := `{
			"identityName": "The Fixer",
			"suggestedHabits": [{"title": "Patch one thing", "reason": "r", "importance": 3},],
		}`

		d := decodeDiagnosis(raw, answers)

		assert.Equal(t, "The Fixer", d.IdentityName)
	})

	t.Run("Fallback: Garbage output, anchored to the answers", func(t *testing.T) {
		d := decodeDiagnosis("I'm sorry, I can't produce JSON today.", answers)

		assert.Equal(t, "The Simple Pro", d.IdentityName)
		require.Len(t, d.SuggestedHabits, 1)
		assert.Contains(t, d.SuggestedHabits[0].HabitFormula, "The Library")
		assert.Contains(t, d.SuggestedHabits[0].HabitFormula, "Lunch break")
	})

	t.Run("Fallback: Parseable but missing identity", func(t *testing.T) {
		d := decodeDiagnosis(`{"reflection": "hm", "suggestedHabits": [{"title": "x"}]}`, answers)
		assert.Equal(t, "The Simple Pro", d.IdentityName)
	})

	t.Run("Fallback: Parseable but no habits", func(t *testing.T) {
		d := decodeDiagnosis(`{"identityName": "The Empty", "suggestedHabits": []}`, answers)
		assert.Equal(t, "The Simple Pro", d.IdentityName)
	})
}

func TestDecodeDrafts(t *testing.T) {
	t.Run("Success: Tasks with emotions ignored", func(t *testing.T) {
		raw := `{
			"tasks": [
				{"title": "Call the dentist", "reason": "Mentioned stress about it", "importance": 4},
				{"title": "Buy milk", "reason": "", "importance": 1}
			],
			"detectedEmotions": ["stressed"]
		}`

		drafts := decodeDrafts(raw)

		require.Len(t, drafts, 2)
		assert.Equal(t, "Call the dentist", drafts[0].Title)
		assert.Equal(t, 4, drafts[0].Importance)
	})

	t.Run("Hygiene: Untitled tasks are skipped", func(t *testing.T) {
		raw := `{"tasks": [{"title": "", "reason": "ghost"}, {"title": "Real one"}]}`

		drafts := decodeDrafts(raw)

		require.Len(t, drafts, 1)
		assert.Equal(t, "Real one", drafts[0].Title)
	})

	t.Run("Contract: Unparseable output is an empty list, not an error", func(t *testing.T) {
		drafts := decodeDrafts("not json at all {{{")

		assert.NotNil(t, drafts)
		assert.Empty(t, drafts)
	})

	t.Run("Edge: No tasks detected", func(t *testing.T) {
		assert.Empty(t, decodeDrafts(`{"tasks": [], "detectedEmotions": []}`))
	})
}
