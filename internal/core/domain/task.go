package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrTaskNotFound        = errors.New("task not found")
	ErrRitualFieldsMissing = errors.New("ritual requires action, place and time")
)

type TimeOfDay string

const (
	Morning   TimeOfDay = "MORNING"
	Afternoon TimeOfDay = "AFTERNOON"
	Evening   TimeOfDay = "EVENING"
)

// MaxObjectives caps the importance-sorted objectives list on the TODAY tab.
const MaxObjectives = 5

// Task is the mutable unit of work. Rituals (IsHabit) carry a structured
// trigger: action, place and time are stored as separate fields and
// HabitFormula is the derived display sentence. Tasks written by older
// clients may carry only the formula; ParseHabitFormula recovers the parts.
type Task struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Reason       string    `json:"reason"`
	Importance   int       `json:"importance"`
	Completed    bool      `json:"completed"`
	TimeOfDay    TimeOfDay `json:"time_of_day,omitempty"`
	IsHabit      bool      `json:"is_habit,omitempty"`
	HabitAction  string    `json:"habit_action,omitempty"`
	HabitPlace   string    `json:"habit_place,omitempty"`
	HabitTime    string    `json:"habit_time,omitempty"`
	HabitFormula string    `json:"habit_formula,omitempty"`
	DueDate      string    `json:"due_date,omitempty"`
}

// BuildHabitFormula renders the canonical trigger sentence.
func BuildHabitFormula(place, timeSlot, action string) string {
	return fmt.Sprintf("When I am at %s at %s, I will %s.", place, timeSlot, action)
}

// ParseHabitFormula reverses BuildHabitFormula by splitting on the literal
// token "at ". The reconstruction is lossy: a place or action containing the
// substring "at " shifts the split and mis-parses. Kept for tasks that only
// carry a formula; structured fields take precedence when present.
func ParseHabitFormula(formula string) (place, timeSlot string) {
	parts := strings.Split(formula, "at ")
	if len(parts) > 1 {
		place = strings.TrimSuffix(strings.Split(parts[1], " at")[0], " ")
	}
	if len(parts) > 2 {
		timeSlot = strings.Split(parts[2], ",")[0]
	}
	return place, timeSlot
}

// NewRitual creates a habit task from the ritual editor's three fields.
func NewRitual(action, place, timeSlot string) (*Task, error) {
	action = strings.TrimSpace(action)
	place = strings.TrimSpace(place)
	timeSlot = strings.TrimSpace(timeSlot)

	if action == "" || place == "" || timeSlot == "" {
		return nil, ErrRitualFieldsMissing
	}

	return &Task{
		ID:           uuid.NewString(),
		Title:        action,
		Reason:       "Personal ritual",
		Importance:   3,
		IsHabit:      true,
		HabitAction:  action,
		HabitPlace:   place,
		HabitTime:    timeSlot,
		HabitFormula: BuildHabitFormula(place, timeSlot, action),
	}, nil
}

// EditorFields returns the action/place/time triple for the ritual editor.
// Structured fields win; legacy formula-only tasks fall back to the split
// parse with its documented failure mode.
func (t *Task) EditorFields() (action, place, timeSlot string) {
	action = t.Title
	if t.HabitAction != "" {
		action = t.HabitAction
	}

	if t.HabitPlace != "" || t.HabitTime != "" {
		return action, t.HabitPlace, t.HabitTime
	}

	place, timeSlot = ParseHabitFormula(t.HabitFormula)
	return action, place, timeSlot
}

// ApplyRitual overwrites the trigger fields, preserving everything else.
func (t *Task) ApplyRitual(action, place, timeSlot string) error {
	action = strings.TrimSpace(action)
	place = strings.TrimSpace(place)
	timeSlot = strings.TrimSpace(timeSlot)

	if action == "" || place == "" || timeSlot == "" {
		return ErrRitualFieldsMissing
	}

	t.Title = action
	t.HabitAction = action
	t.HabitPlace = place
	t.HabitTime = timeSlot
	t.HabitFormula = BuildHabitFormula(place, timeSlot, action)
	return nil
}

// Rituals filters the habit tasks, preserving list order.
func Rituals(tasks []Task) []Task {
	out := make([]Task, 0)
	for _, t := range tasks {
		if t.IsHabit {
			out = append(out, t)
		}
	}
	return out
}

// Objectives returns the non-habit tasks, top MaxObjectives by descending
// importance. Ties keep insertion order.
func Objectives(tasks []Task) []Task {
	out := make([]Task, 0)
	for _, t := range tasks {
		if !t.IsHabit {
			out = append(out, t)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Importance > out[j].Importance
	})

	if len(out) > MaxObjectives {
		out = out[:MaxObjectives]
	}
	return out
}

// PlanBuckets groups tasks into the three fixed day slots. Tasks without a
// TimeOfDay (rituals included) never appear in the plan.
func PlanBuckets(tasks []Task) map[TimeOfDay][]Task {
	buckets := map[TimeOfDay][]Task{
		Morning:   {},
		Afternoon: {},
		Evening:   {},
	}
	for _, t := range tasks {
		if _, ok := buckets[t.TimeOfDay]; ok {
			buckets[t.TimeOfDay] = append(buckets[t.TimeOfDay], t)
		}
	}
	return buckets
}

// CompletionRate is the completed share as a whole percent, rounded to
// nearest. Zero when the list is empty.
func CompletionRate(tasks []Task) int {
	if len(tasks) == 0 {
		return 0
	}

	completed := 0
	for _, t := range tasks {
		if t.Completed {
			completed++
		}
	}

	return int(float64(completed)/float64(len(tasks))*100 + 0.5)
}
