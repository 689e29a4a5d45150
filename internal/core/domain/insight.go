package domain

import "context"

// NoHistoryMessage is returned by Summarize for an empty task list without
// touching the remote model.
const NoHistoryMessage = "No history yet. Add your first task and check back soon!"

// EncouragementFallback is the static sentence callers substitute when the
// remote summary call fails.
const EncouragementFallback = "You are doing great! Just keep taking small steps every day."

// InsightGenerator is the generative-AI collaborator. Implementations must
// tolerate malformed model output: Diagnose falls back to
// FallbackDiagnosis rather than surfacing a parse error, and ExtractTasks
// returns an empty slice on parse failure. Transport failures are returned
// as errors and handled per call site.
type InsightGenerator interface {
	Diagnose(ctx context.Context, answers OnboardingAnswers) (*Diagnosis, error)
	ExtractTasks(ctx context.Context, text string) ([]TaskDraft, error)
	Summarize(ctx context.Context, tasks []Task) (string, error)
}
