package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/habitup/habitup-engine/internal/core/domain"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type PostgresProfileRepository struct {
	db *sqlx.DB
}

func NewPostgresProfileRepository(db *sqlx.DB) *PostgresProfileRepository {
	return &PostgresProfileRepository{db: db}
}

// onboardingRecord is the single opaque blob stored per profile: the
// questionnaire answers with the saved diagnosis embedded as a sub-field.
type onboardingRecord struct {
	domain.OnboardingAnswers
	SavedDiagnosis *domain.Diagnosis `json:"saved_diagnosis,omitempty"`
}

func encodeOnboarding(p *domain.UserProfile) ([]byte, error) {
	if p.Onboarding == nil {
		return nil, nil
	}
	return json.Marshal(onboardingRecord{
		OnboardingAnswers: *p.Onboarding,
		SavedDiagnosis:    p.Diagnosis,
	})
}

func decodeOnboarding(blob []byte, p *domain.UserProfile) error {
	if len(blob) == 0 {
		return nil
	}

	var rec onboardingRecord
	if err := json.Unmarshal(blob, &rec); err != nil {
		return fmt.Errorf("failed to unmarshal onboarding blob: %w", err)
	}

	answers := rec.OnboardingAnswers
	p.Onboarding = &answers
	p.Diagnosis = rec.SavedDiagnosis
	return nil
}

func (r *PostgresProfileRepository) Create(ctx context.Context, p *domain.UserProfile) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	onboardingJSON, err := encodeOnboarding(p)
	if err != nil {
		return fmt.Errorf("failed to marshal onboarding: %w", err)
	}

	tasksJSON, err := json.Marshal(p.Tasks)
	if err != nil {
		return fmt.Errorf("failed to marshal tasks: %w", err)
	}

	query := `
		INSERT INTO profiles (
			id, name, email, password_hash, is_subscribed,
			onboarding, tasks, created_at, updated_at
		) VALUES (
			$1, $2, NULLIF($3, ''), $4, $5,
			$6, $7, $8, $9
		)
		ON CONFLICT (id) DO UPDATE SET
			name          = EXCLUDED.name,
			is_subscribed = EXCLUDED.is_subscribed,
			onboarding    = EXCLUDED.onboarding,
			tasks         = EXCLUDED.tasks,
			updated_at    = EXCLUDED.updated_at`

	_, err = r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Email, p.PasswordHash, p.IsSubscribed,
		onboardingJSON, tasksJSON, p.CreatedAt, p.UpdatedAt,
	)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return domain.ErrEmailAlreadyExists
		}
		return fmt.Errorf("repository: create profile failed: %w", err)
	}

	return nil
}

func (r *PostgresProfileRepository) scanRow(row *sql.Row) (*domain.UserProfile, error) {
	var p domain.UserProfile
	var email sql.NullString
	var onboardingJSON, tasksJSON []byte

	err := row.Scan(
		&p.ID, &p.Name, &email, &p.PasswordHash, &p.IsSubscribed,
		&onboardingJSON, &tasksJSON, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if email.Valid {
		p.Email = email.String
	}

	if err := decodeOnboarding(onboardingJSON, &p); err != nil {
		return nil, err
	}

	if len(tasksJSON) > 0 {
		if err := json.Unmarshal(tasksJSON, &p.Tasks); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tasks: %w", err)
		}
	}

	p.Normalize()
	return &p, nil
}

const selectProfile = `
	SELECT id, name, email, password_hash, is_subscribed,
	       onboarding, tasks, created_at, updated_at
	FROM profiles`

func (r *PostgresProfileRepository) GetByID(ctx context.Context, id string) (*domain.UserProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	row := r.db.QueryRowContext(ctx, selectProfile+` WHERE id = $1`, id)

	p, err := r.scanRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("repository: get profile by id failed: %w", err)
	}

	return p, nil
}

func (r *PostgresProfileRepository) GetByEmail(ctx context.Context, email string) (*domain.UserProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	row := r.db.QueryRowContext(ctx, selectProfile+` WHERE email = $1`, email)

	p, err := r.scanRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("repository: get profile by email failed: %w", err)
	}

	return p, nil
}

// Patch writes only the fields present in the patch. The onboarding blob is
// rebuilt whenever answers or diagnosis change, since the diagnosis lives
// embedded inside it.
func (r *PostgresProfileRepository) Patch(ctx context.Context, id string, patch domain.ProfilePatch) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	sets := []string{}
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if patch.Name != nil {
		sets = append(sets, "name = "+arg(*patch.Name))
	}
	if patch.IsSubscribed != nil {
		sets = append(sets, "is_subscribed = "+arg(*patch.IsSubscribed))
	}
	if patch.Onboarding != nil {
		blob, err := json.Marshal(onboardingRecord{
			OnboardingAnswers: *patch.Onboarding,
			SavedDiagnosis:    patch.Diagnosis,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal onboarding: %w", err)
		}
		sets = append(sets, "onboarding = "+arg(blob))
	}
	if patch.Tasks != nil {
		blob, err := json.Marshal(patch.Tasks)
		if err != nil {
			return fmt.Errorf("failed to marshal tasks: %w", err)
		}
		sets = append(sets, "tasks = "+arg(blob))
	}

	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, "updated_at = "+arg(time.Now().UTC()))

	query := fmt.Sprintf(
		"UPDATE profiles SET %s WHERE id = %s",
		strings.Join(sets, ", "), arg(id),
	)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("repository: patch profile failed: %w", err)
	}

	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return domain.ErrProfileNotFound
	}

	return nil
}
