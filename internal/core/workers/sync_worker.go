package workers

import (
	"context"
	"log"

	"github.com/habitup/habitup-engine/internal/core/domain"
)

type SyncJob struct {
	Profile domain.UserProfile
}

// SyncWorker persists profile snapshots best-effort. Failures are logged and
// dropped; the next mutation's enqueue is the only retry mechanism, and the
// whole task list is overwritten on every write (last-write-wins).
type SyncWorker struct {
	repo domain.ProfileRepository
	jobs chan SyncJob
}

func NewSyncWorker(repo domain.ProfileRepository) *SyncWorker {
	return &SyncWorker{
		repo: repo,
		jobs: make(chan SyncJob, 100),
	}
}

func (w *SyncWorker) Start(ctx context.Context) {
	go func() {
		log.Println("Profile Sync Worker started in background...")
		for {
			select {
			case job := <-w.jobs:
				w.processJob(ctx, job)
			case <-ctx.Done():
				log.Println("Profile Sync Worker shutting down...")
				return
			}
		}
	}()
}

func (w *SyncWorker) Enqueue(profile domain.UserProfile) {
	select {
	case w.jobs <- SyncJob{Profile: profile}:
	default:
		log.Printf("Sync Worker queue full! Dropping snapshot for profile %s", profile.ID)
	}
}

func (w *SyncWorker) processJob(ctx context.Context, job SyncJob) {
	p := job.Profile
	if !p.IsDurable() {
		return
	}

	patch := domain.ProfilePatch{
		Name:         &p.Name,
		IsSubscribed: &p.IsSubscribed,
		Onboarding:   p.Onboarding,
		Diagnosis:    p.Diagnosis,
		Tasks:        p.Tasks,
	}

	if err := w.repo.Patch(ctx, p.ID, patch); err != nil {
		log.Printf("Sync Worker failed to persist profile %s: %v", p.ID, err)
	}
}
