package center

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound signals the requested center does not exist.
var ErrNotFound = errors.New("center: not found")

// ProfileReader abstracts repository operations for the service.
type ProfileReader interface {
	GetByID(ctx context.Context, id string) (Profile, error)
	List(ctx context.Context, limit int) ([]Profile, error)
	ListOwnedAnimals(ctx context.Context, centerID string) ([]AnimalRef, error)
}

// Repository provides read access to redacted center profiles.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a pgxpool-backed repository implementation.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID fetches a redacted center profile by its primary key.
func (r *Repository) GetByID(ctx context.Context, id string) (Profile, error) {
	const query = `
		SELECT id, name
		FROM centers
		WHERE id = $1
	`

	var profile Profile
	err := r.pool.QueryRow(ctx, query, id).Scan(&profile.ID, &profile.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, fmt.Errorf("center: query by id: %w", err)
	}

	return profile, nil
}

// List fetches up to limit redacted center profiles ordered by name.
func (r *Repository) List(ctx context.Context, limit int) ([]Profile, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	const query = `
		SELECT id, name
		FROM centers
		ORDER BY name ASC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("center: list: %w", err)
	}
	defer rows.Close()

	profiles := make([]Profile, 0, limit)
	for rows.Next() {
		var profile Profile
		if err := rows.Scan(&profile.ID, &profile.Name); err != nil {
			return nil, fmt.Errorf("center: scan profile: %w", err)
		}
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("center: iterate profiles: %w", err)
	}

	return profiles, nil
}

// ListOwnedAnimals fetches the redacted animal projections owned by a center.
func (r *Repository) ListOwnedAnimals(ctx context.Context, centerID string) ([]AnimalRef, error) {
	const query = `
		SELECT id, name, specie
		FROM animals
		WHERE center_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, centerID)
	if err != nil {
		return nil, fmt.Errorf("center: list owned animals: %w", err)
	}
	defer rows.Close()

	refs := make([]AnimalRef, 0, 16)
	for rows.Next() {
		var ref AnimalRef
		if err := rows.Scan(&ref.ID, &ref.Name, &ref.Specie); err != nil {
			return nil, fmt.Errorf("center: scan animal ref: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("center: iterate animal refs: %w", err)
	}

	return refs, nil
}
