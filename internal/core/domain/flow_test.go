package domain_test

import (
	"testing"

	"github.com/habitup/habitup-engine/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from domain.AppState
		to   domain.AppState
		want bool
	}{
		{"Welcome starts onboarding", domain.StateWelcome, domain.StateOnboarding, true},
		{"Onboarding leads to pitch", domain.StateOnboarding, domain.StateWhyDifferent, true},
		{"Pitch leads to auth", domain.StateWhyDifferent, domain.StateAuth, true},
		{"Auth branch: fresh answers go to reveal", domain.StateAuth, domain.StateSolutionReveal, true},
		{"Auth branch: returning users skip to main", domain.StateAuth, domain.StateMain, true},
		{"Reveal leads to diagnosis", domain.StateSolutionReveal, domain.StateDiagnosis, true},
		{"Diagnosis leads to paywall", domain.StateDiagnosis, domain.StatePaywall, true},
		{"Paywall leads to main", domain.StatePaywall, domain.StateMain, true},
		{"No skipping onboarding", domain.StateWelcome, domain.StateAuth, false},
		{"No skipping the paywall", domain.StateDiagnosis, domain.StateMain, false},
		{"No going backwards", domain.StateAuth, domain.StateOnboarding, false},
		{"Main is terminal", domain.StateMain, domain.StateWelcome, false},
		{"No self loops", domain.StateMain, domain.StateMain, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.CanTransition(tt.from, tt.to))
		})
	}
}

func TestValidTab(t *testing.T) {
	for _, tab := range []domain.Tab{domain.TabToday, domain.TabBrainDump, domain.TabPlan, domain.TabInsights} {
		assert.True(t, domain.ValidTab(tab), string(tab))
	}

	assert.False(t, domain.ValidTab("SETTINGS"))
	assert.False(t, domain.ValidTab(""))
	assert.False(t, domain.ValidTab("today"), "tabs are case sensitive on the wire")
}
