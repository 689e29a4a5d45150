package domain

import (
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrProfileNotFound    = errors.New("profile not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCredentialsNotFound means no account exists for the given email.
	// Handlers surface it separately so clients can offer a switch to signup.
	ErrCredentialsNotFound = errors.New("no account found for these credentials")
	ErrInvalidEmail        = errors.New("invalid email format")
	ErrPasswordTooShort    = errors.New("password must be at least 8 characters long")
	ErrNameEmpty           = errors.New("name cannot be empty")
)

// UserProfile is the root aggregate: one per account, or one ephemeral
// instance per guest session. Diagnosis is only ever set after Onboarding is
// set, and Tasks is never nil.
type UserProfile struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Email        string             `json:"email,omitempty"`
	PasswordHash string             `json:"-"`
	IsSubscribed bool               `json:"is_subscribed"`
	Onboarding   *OnboardingAnswers `json:"onboarding,omitempty"`
	Diagnosis    *Diagnosis         `json:"diagnosis,omitempty"`
	Tasks        []Task             `json:"tasks"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

func NewUserProfile(id, name, email string) (*UserProfile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameEmpty
	}

	email = strings.TrimSpace(email)
	if !isValidEmail(email) {
		return nil, ErrInvalidEmail
	}

	now := time.Now().UTC()
	return &UserProfile{
		ID:        id,
		Name:      name,
		Email:     strings.ToLower(email),
		Tasks:     []Task{},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// NewGuestProfile fabricates a non-persistent demo profile. Guests get the
// subscription pre-granted so every tab is usable without a paywall.
func NewGuestProfile() *UserProfile {
	now := time.Now().UTC()
	return &UserProfile{
		ID:           "",
		Name:         "Guest",
		IsSubscribed: true,
		Tasks:        []Task{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (p *UserProfile) SetPassword(plainPassword string) error {
	if utf8.RuneCountInString(plainPassword) < 8 {
		return ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plainPassword), 12)
	if err != nil {
		return err
	}

	p.PasswordHash = string(hash)
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (p *UserProfile) CheckPassword(plainPassword string) error {
	return bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(plainPassword))
}

// IsDurable reports whether the profile is backed by a store row. Guest
// profiles carry an empty id and are never synced.
func (p *UserProfile) IsDurable() bool {
	return p.ID != ""
}

// NeedsDiagnosis reports whether completed onboarding answers have not yet
// produced a diagnosis. Returning users with a saved diagnosis skip the
// diagnosis re-run and land directly in MAIN.
func (p *UserProfile) NeedsDiagnosis() bool {
	return p.Onboarding != nil && p.Diagnosis == nil
}

// Normalize repairs invariants after loading from storage.
func (p *UserProfile) Normalize() {
	if p.Tasks == nil {
		p.Tasks = []Task{}
	}
	if p.Onboarding == nil {
		p.Diagnosis = nil
	}
}

func isValidEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}
