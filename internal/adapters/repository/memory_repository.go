package repository

import (
	"context"
	"sync"
	"time"

	"github.com/habitup/habitup-engine/internal/core/domain"
)

// InMemoryProfileRepository backs tests and store-less deployments.
type InMemoryProfileRepository struct {
	store   map[string]*domain.UserProfile
	byEmail map[string]string

	mu sync.RWMutex
}

func NewInMemoryProfileRepository() *InMemoryProfileRepository {
	return &InMemoryProfileRepository{
		store:   make(map[string]*domain.UserProfile),
		byEmail: make(map[string]string),
	}
}

func (r *InMemoryProfileRepository) Create(ctx context.Context, profile *domain.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if profile.Email != "" {
		if existing, ok := r.byEmail[profile.Email]; ok && existing != profile.ID {
			return domain.ErrEmailAlreadyExists
		}
		r.byEmail[profile.Email] = profile.ID
	}

	clone := cloneProfile(profile)
	r.store[profile.ID] = clone
	return nil
}

func (r *InMemoryProfileRepository) GetByID(ctx context.Context, id string) (*domain.UserProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.store[id]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return cloneProfile(p), nil
}

func (r *InMemoryProfileRepository) GetByEmail(ctx context.Context, email string) (*domain.UserProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return cloneProfile(r.store[id]), nil
}

func (r *InMemoryProfileRepository) Patch(ctx context.Context, id string, patch domain.ProfilePatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.store[id]
	if !ok {
		return domain.ErrProfileNotFound
	}

	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.IsSubscribed != nil {
		p.IsSubscribed = *patch.IsSubscribed
	}
	if patch.Onboarding != nil {
		answers := *patch.Onboarding
		p.Onboarding = &answers
		p.Diagnosis = patch.Diagnosis
	}
	if patch.Tasks != nil {
		p.Tasks = append([]domain.Task(nil), patch.Tasks...)
	}
	p.UpdatedAt = time.Now().UTC()

	return nil
}

func cloneProfile(p *domain.UserProfile) *domain.UserProfile {
	clone := *p
	clone.Tasks = append([]domain.Task(nil), p.Tasks...)
	if p.Onboarding != nil {
		answers := *p.Onboarding
		clone.Onboarding = &answers
	}
	if p.Diagnosis != nil {
		diagnosis := *p.Diagnosis
		clone.Diagnosis = &diagnosis
	}
	return &clone
}
