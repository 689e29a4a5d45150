package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/habitup/habitup-engine/internal/core/domain"
)

var _ domain.ProfileRepository = (*CachedProfileRepository)(nil)

// CachedProfileRepository is a read-through cache over profile lookups by
// id. Email lookups (login) always hit the store; writes invalidate.
type CachedProfileRepository struct {
	next  domain.ProfileRepository
	cache *redis.Client
}

func NewCachedProfileRepository(next domain.ProfileRepository, cache *redis.Client) *CachedProfileRepository {
	return &CachedProfileRepository{
		next:  next,
		cache: cache,
	}
}

func (r *CachedProfileRepository) cacheKey(id string) string {
	return fmt.Sprintf("profile:%s", id)
}

func (r *CachedProfileRepository) invalidate(ctx context.Context, id string) {
	if err := r.cache.Del(ctx, r.cacheKey(id)).Err(); err != nil {
		log.Printf("[CACHE] Failed to invalidate profile %s: %v", id, err)
	}
}

func (r *CachedProfileRepository) GetByID(ctx context.Context, id string) (*domain.UserProfile, error) {
	key := r.cacheKey(id)

	val, err := r.cache.Get(ctx, key).Result()
	if err == nil {
		var p domain.UserProfile
		if err := json.Unmarshal([]byte(val), &p); err == nil {
			p.Normalize()
			return &p, nil
		}

		log.Printf("[CACHE] Corrupted data for profile %s, cleaning up key", id)
		r.cache.Del(ctx, key)
	} else if err != redis.Nil {
		log.Printf("[CACHE] Redis read error: %v", err)
	}

	p, err := r.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(p); err == nil {
		if setErr := r.cache.Set(ctx, key, data, 30*time.Minute).Err(); setErr != nil {
			log.Printf("[CACHE] Redis set error: %v", setErr)
		}
	}

	return p, nil
}

func (r *CachedProfileRepository) GetByEmail(ctx context.Context, email string) (*domain.UserProfile, error) {
	return r.next.GetByEmail(ctx, email)
}

func (r *CachedProfileRepository) Create(ctx context.Context, profile *domain.UserProfile) error {
	if err := r.next.Create(ctx, profile); err != nil {
		return err
	}
	r.invalidate(ctx, profile.ID)
	return nil
}

func (r *CachedProfileRepository) Patch(ctx context.Context, id string, patch domain.ProfilePatch) error {
	if err := r.next.Patch(ctx, id, patch); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}
