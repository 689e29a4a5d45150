package domain

import "errors"

var (
	ErrInvalidTransition   = errors.New("invalid flow transition")
	ErrOnboardingRequired  = errors.New("onboarding answers required before diagnosis")
	ErrNotInMain           = errors.New("operation only available in MAIN")
	ErrDiagnosisUnresolved = errors.New("diagnosis has not completed")
)

// AppState is the screen the session currently renders. The flow is linear
// with one branch: AUTH goes straight to MAIN for returning users whose
// profile carries no fresh onboarding data to react to.
type AppState string

const (
	StateWelcome        AppState = "WELCOME"
	StateOnboarding     AppState = "ONBOARDING"
	StateWhyDifferent   AppState = "WHY_DIFFERENT"
	StateAuth           AppState = "AUTH"
	StateSolutionReveal AppState = "SOLUTION_REVEAL"
	StateDiagnosis      AppState = "DIAGNOSIS"
	StatePaywall        AppState = "PAYWALL"
	StateMain           AppState = "MAIN"
)

type Tab string

const (
	TabToday     Tab = "TODAY"
	TabBrainDump Tab = "BRAIN_DUMP"
	TabPlan      Tab = "PLAN"
	TabInsights  Tab = "INSIGHTS"
)

var flowTransitions = map[AppState][]AppState{
	StateWelcome:        {StateOnboarding},
	StateOnboarding:     {StateWhyDifferent},
	StateWhyDifferent:   {StateAuth},
	StateAuth:           {StateSolutionReveal, StateMain},
	StateSolutionReveal: {StateDiagnosis},
	StateDiagnosis:      {StatePaywall},
	StatePaywall:        {StateMain},
	StateMain:           {},
}

// CanTransition reports whether the flow allows moving from one screen to
// the next. MAIN is terminal; only lateral tab navigation remains.
func CanTransition(from, to AppState) bool {
	for _, next := range flowTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func ValidTab(t Tab) bool {
	switch t {
	case TabToday, TabBrainDump, TabPlan, TabInsights:
		return true
	}
	return false
}
