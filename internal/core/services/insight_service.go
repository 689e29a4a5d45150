package services

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/habitup/habitup-engine/internal/core/domain"
)

// InsightService fronts the generative collaborator with the failure
// semantics the screens rely on: diagnosis errors surface (terminal restart
// screen), summaries degrade to a static sentence, empty extraction is a
// normal outcome.
type InsightService struct {
	generator domain.InsightGenerator
}

func NewInsightService(generator domain.InsightGenerator) *InsightService {
	return &InsightService{
		generator: generator,
	}
}

func (s *InsightService) Diagnose(ctx context.Context, answers domain.OnboardingAnswers) (*domain.Diagnosis, error) {
	return s.generator.Diagnose(ctx, answers)
}

func (s *InsightService) ExtractTasks(ctx context.Context, text string) ([]domain.TaskDraft, error) {
	return s.generator.ExtractTasks(ctx, text)
}

// WeeklySummary never fails: an empty task list short-circuits to the fixed
// no-history message inside the generator, and remote failures fall back to
// the static encouragement sentence.
func (s *InsightService) WeeklySummary(ctx context.Context, tasks []domain.Task) string {
	summary, err := s.generator.Summarize(ctx, tasks)
	if err != nil {
		log.Printf("insight service: summary failed, using fallback: %v", err)
		return domain.EncouragementFallback
	}
	return summary
}

// InitialTasks synthesizes the first task set from a confirmed diagnosis:
// every suggested habit becomes a ritual, and the first two focus areas
// become check-in tasks with alternating morning/afternoon slots.
func InitialTasks(diagnosis *domain.Diagnosis, answers domain.OnboardingAnswers) []domain.Task {
	tasks := make([]domain.Task, 0, len(diagnosis.SuggestedHabits)+2)

	for _, draft := range diagnosis.SuggestedHabits {
		place, timeSlot := domain.ParseHabitFormula(draft.HabitFormula)
		tasks = append(tasks, domain.Task{
			ID:           uuid.NewString(),
			Title:        draft.Title,
			Reason:       draft.Reason,
			Importance:   draft.Importance,
			IsHabit:      true,
			HabitAction:  draft.Title,
			HabitPlace:   place,
			HabitTime:    timeSlot,
			HabitFormula: draft.HabitFormula,
		})
	}

	slots := []domain.TimeOfDay{domain.Morning, domain.Afternoon}
	for i, focus := range answers.AreasOfFocus {
		if i >= len(slots) {
			break
		}
		tasks = append(tasks, domain.Task{
			ID:         uuid.NewString(),
			Title:      "Check on my " + focus,
			Reason:     "Stay on track with " + focus + ".",
			Importance: 4,
			TimeOfDay:  slots[i],
		})
	}

	return tasks
}

// DraftsToTasks materializes brain-dump drafts into full tasks.
func DraftsToTasks(drafts []domain.TaskDraft) []domain.Task {
	tasks := make([]domain.Task, 0, len(drafts))
	for _, d := range drafts {
		tasks = append(tasks, domain.Task{
			ID:         uuid.NewString(),
			Title:      d.Title,
			Reason:     d.Reason,
			Importance: d.Importance,
		})
	}
	return tasks
}
