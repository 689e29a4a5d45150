package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/habitup/habitup-engine/internal/core/domain"
)

type AuthService struct {
	repo domain.ProfileRepository
	// providers maps a federated provider name to its configured redirect
	// URL. Providers absent from the map fall back to shadow credentials.
	providers map[string]string
}

func NewAuthService(repo domain.ProfileRepository, providers map[string]string) *AuthService {
	if providers == nil {
		providers = map[string]string{}
	}
	return &AuthService{
		repo:      repo,
		providers: providers,
	}
}

type RegisterInput struct {
	Name       string
	Email      string
	Password   string
	Onboarding *domain.OnboardingAnswers
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.UserProfile, error) {
	id := uuid.NewString()
	profile, err := domain.NewUserProfile(id, input.Name, input.Email)
	if err != nil {
		return nil, err
	}

	if err := profile.SetPassword(input.Password); err != nil {
		return nil, err
	}

	// Answers gathered before signup travel with the new account.
	if input.Onboarding != nil {
		answers := *input.Onboarding
		answers.Normalize()
		profile.Onboarding = &answers
	}

	if err := s.repo.Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("auth service: failed to create profile: %w", err)
	}

	return profile, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.UserProfile, error) {
	profile, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			return nil, domain.ErrCredentialsNotFound
		}
		return nil, fmt.Errorf("auth service: login lookup failed: %w", err)
	}

	if err := profile.CheckPassword(password); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	profile.Normalize()
	return profile, nil
}

// Guest fabricates a non-persistent profile with the subscription
// pre-granted. Nothing is written to the store.
func (s *AuthService) Guest(ctx context.Context) *domain.UserProfile {
	return domain.NewGuestProfile()
}

// RedirectURL returns the configured sign-in URL for a federated provider,
// or false when the provider is not configured on this deployment.
func (s *AuthService) RedirectURL(provider string) (string, bool) {
	url, ok := s.providers[strings.ToLower(provider)]
	return url, ok
}

// FederatedLogin handles the fallback for providers without configuration:
// deterministic shadow credentials derived from the provider and session,
// pushed through the normal login/signup path. A compatibility shim, not a
// security boundary; the session scoping keeps two devices from silently
// sharing one synthetic account.
func (s *AuthService) FederatedLogin(ctx context.Context, provider, sessionID string, onboarding *domain.OnboardingAnswers) (*domain.UserProfile, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return nil, domain.ErrInvalidCredentials
	}

	email, password := shadowCredentials(provider, sessionID)

	profile, err := s.Login(ctx, email, password)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, domain.ErrCredentialsNotFound) {
		return nil, err
	}

	return s.Register(ctx, RegisterInput{
		Name:       strings.ToUpper(provider[:1]) + provider[1:] + " User",
		Email:      email,
		Password:   password,
		Onboarding: onboarding,
	})
}

func shadowCredentials(provider, sessionID string) (email, password string) {
	sum := sha256.Sum256([]byte(provider + "|" + sessionID))
	tag := hex.EncodeToString(sum[:8])
	email = fmt.Sprintf("%s-%s@shadow.habitup.local", provider, tag)
	password = hex.EncodeToString(sum[8:24])
	return email, password
}
