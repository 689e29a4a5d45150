package domain

// TaskDraft is a partial task suggested by the insight generator, either as
// a habit inside a diagnosis or extracted from a brain dump.
type TaskDraft struct {
	Title        string `json:"title"`
	Reason       string `json:"reason"`
	Importance   int    `json:"importance"`
	HabitFormula string `json:"habit_formula,omitempty"`
}

type BehaviorPatterns struct {
	Behavioral string `json:"behavioral"`
	Emotional  string `json:"emotional"`
	Blocker    string `json:"blocker"`
	Strength   string `json:"strength"`
}

// Diagnosis is the AI-derived productivity archetype. Non-authoritative:
// generated once at diagnosis time, persisted verbatim and never recomputed
// unless the user redoes onboarding.
type Diagnosis struct {
	IdentityName    string           `json:"identity_name"`
	Reflection      string           `json:"reflection"`
	Insights        []string         `json:"insights"`
	SuggestedHabits []TaskDraft      `json:"suggested_habits"`
	Patterns        BehaviorPatterns `json:"patterns"`
}

// FallbackDiagnosis is the minimal diagnosis returned when the model output
// cannot be parsed. The single habit is anchored to the user's first listed
// place and time slot so it still reads personal.
func FallbackDiagnosis(answers OnboardingAnswers) *Diagnosis {
	place := "My Desk"
	if len(answers.CommonPlaces) > 0 {
		place = answers.CommonPlaces[0]
	}

	timeSlot := "Waking up"
	if len(answers.FreeTimeSlots) > 0 {
		timeSlot = answers.FreeTimeSlots[0]
	}

	return &Diagnosis{
		IdentityName: "The Simple Pro",
		Reflection:   "Every big change starts with a small step.",
		Insights: []string{
			"Small habits grow fast.",
			"Pick one thing and do it well.",
		},
		SuggestedHabits: []TaskDraft{
			{
				Title:        "The 1-Minute Win",
				Reason:       "Starting is the hardest part.",
				Importance:   5,
				HabitFormula: "When I am at " + place + " at " + timeSlot + ", I will spend 1 minute on my focus.",
			},
		},
		Patterns: BehaviorPatterns{
			Behavioral: "Working on consistency",
			Emotional:  "Ready to start",
			Blocker:    "Distractions",
			Strength:   "Willing to learn",
		},
	}
}
