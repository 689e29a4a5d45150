package domain

import "errors"

var ErrAnswerRequired = errors.New("question requires at least one selection")

type RoutineLevel string

const (
	RoutineBeginner     RoutineLevel = "BEGINNER"
	RoutineIntermediate RoutineLevel = "INTERMEDIATE"
	RoutineAdvanced     RoutineLevel = "ADVANCED"
)

// OnboardingAnswers is the fixed-shape questionnaire result. Created once by
// the onboarding flow and read-only afterward; only carried forward across
// auth. Fields absent at completion time are accepted as-is.
type OnboardingAnswers struct {
	LifeFeeling         string       `json:"life_feeling"`
	Frustration         string       `json:"frustration"`
	AreasOfFocus        []string     `json:"areas_of_focus"`
	RoutineLevel        RoutineLevel `json:"routine_level"`
	CommonPlaces        []string     `json:"common_places"`
	FreeTimeSlots       []string     `json:"free_time_slots"`
	WeekdayReality      string       `json:"weekday_reality"`
	FocusBreakers       []string     `json:"focus_breakers"`
	OverwhelmedBehavior string       `json:"overwhelmed_behavior"`
	PreviousTools       []string     `json:"previous_tools"`
	MotivationStyle     string       `json:"motivation_style"`
}

// OnboardingQuestion describes one step of the fixed questionnaire. Single
// select questions auto-advance client-side; multi-select ones require an
// explicit continue and at least one selection.
type OnboardingQuestion struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Multi    bool     `json:"multi"`
}

// Questionnaire is the ordered question list served to clients. Order is the
// presentation order; ids match the OnboardingAnswers JSON fields.
func Questionnaire() []OnboardingQuestion {
	return []OnboardingQuestion{
		{
			ID:       "life_feeling",
			Question: "How does your day usually feel?",
			Options: []string{
				"Too much to do",
				"Busy but not getting far",
				"School / Work stress",
				"A bit messy",
				"Calm but bored",
			},
		},
		{
			ID:       "frustration",
			Question: "What is your biggest struggle?",
			Options: []string{
				"Putting things off (Procrastinating)",
				"Not knowing where to start",
				"Getting distracted easily",
				"Too much homework / tasks",
				"Doing everything last minute",
			},
		},
		{
			ID:       "areas_of_focus",
			Question: "What matters most to you right now?",
			Options: []string{
				"Good Grades / School",
				"Career & Work",
				"Health & Sports",
				"Personal Skills",
				"Friendships & Fun",
			},
			Multi: true,
		},
		{
			ID:       "common_places",
			Question: "Where do you spend most of your time?",
			Options: []string{
				"My Room",
				"School / College",
				"The Library",
				"My Desk",
				"Commuting / Travel",
				"The Gym",
			},
			Multi: true,
		},
		{
			ID:       "free_time_slots",
			Question: "When do you have a few minutes?",
			Options: []string{
				"When I wake up",
				"Between classes",
				"Lunch break",
				"After school / work",
				"During study breaks",
				"Before bed",
			},
			Multi: true,
		},
		{
			ID:       "routine_level",
			Question: "How good are you at keeping habits?",
			Options: []string{
				"Beginner: I struggle to be consistent.",
				"Intermediate: I have a routine but want more.",
				"Advanced: Elite discipline & performance.",
			},
		},
		{
			ID:       "motivation_style",
			Question: "What keeps you going?",
			Options: []string{
				"Seeing my progress",
				"Rewards for hard work",
				"Competition with others",
				"Feeling organized",
				"Pressure from others",
			},
		},
		{
			ID:       "focus_breakers",
			Question: "What usually breaks your focus?",
			Options: []string{
				"Notifications",
				"People interruptions",
				"Mental fatigue",
				"Overthinking",
				"No clear plan",
				"Social media",
			},
			Multi: true,
		},
		{
			ID:       "overwhelmed_behavior",
			Question: "When you feel overwhelmed, what do you usually do?",
			Options: []string{
				"Make a to-do list",
				"Ignore it and delay",
				"Work harder without planning",
				"Use productivity apps",
				"Talk to someone",
				"Nothing works",
			},
		},
		{
			ID:       "previous_tools",
			Question: "Which tools have you tried before?",
			Options: []string{
				"To-do apps",
				"Calendar apps",
				"Notes",
				"AI tools",
				"None",
				"Too many to count",
			},
			Multi: true,
		},
	}
}

// ValidateSelections enforces the per-question minimum-selection rule on a
// multi-select question. Single-select validation happens client-side via
// auto-advance; no other completeness check is applied.
func (q OnboardingQuestion) ValidateSelections(selected []string) error {
	if q.Multi && len(selected) == 0 {
		return ErrAnswerRequired
	}
	return nil
}

// Normalize fills defaults the way the questionnaire does for prose fields
// it never asks about directly.
func (a *OnboardingAnswers) Normalize() {
	if a.RoutineLevel == "" {
		a.RoutineLevel = RoutineBeginner
	}
	if a.WeekdayReality == "" {
		a.WeekdayReality = "Standard daily rhythm"
	}
}
