package domain

import "context"

// ProfilePatch carries only the top-level fields a sync wants to overwrite.
// Nil fields are left untouched; the task list is always replaced wholesale,
// never diffed.
type ProfilePatch struct {
	Name         *string
	IsSubscribed *bool
	Onboarding   *OnboardingAnswers
	Diagnosis    *Diagnosis
	Tasks        []Task
}

type ProfileRepository interface {
	// Create persists a new profile row. Fails with ErrEmailAlreadyExists on
	// a duplicate email.
	Create(ctx context.Context, profile *UserProfile) error

	// GetByID retrieves a profile by its stable identifier.
	GetByID(ctx context.Context, id string) (*UserProfile, error)

	// GetByEmail retrieves a profile by its lowercase email.
	GetByEmail(ctx context.Context, email string) (*UserProfile, error)

	// Patch applies a partial update; only non-nil fields are written.
	Patch(ctx context.Context, id string, patch ProfilePatch) error
}
