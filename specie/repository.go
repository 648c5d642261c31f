package specie

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound signals the requested specie does not exist.
var ErrNotFound = errors.New("specie: not found")

// Repository handles data access for species reference data.
type Repository interface {
	Insert(ctx context.Context, sp Specie) (Specie, error)
	GetByID(ctx context.Context, specieID string) (Specie, error)
	ListSummaries(ctx context.Context) ([]Summary, error)
	ListAnimalRefs(ctx context.Context, specieID string) ([]AnimalRef, error)
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a pgxpool-backed repository implementation.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Insert adds a new specie row.
func (r *PGRepository) Insert(ctx context.Context, sp Specie) (Specie, error) {
	const insertSQL = `
		INSERT INTO species (id, name, description, price)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, description, price, created_at
	`

	var stored Specie
	err := r.pool.QueryRow(ctx, insertSQL, sp.ID, sp.Name, sp.Description, sp.Price).
		Scan(&stored.ID, &stored.Name, &stored.Description, &stored.Price, &stored.CreatedAt)
	if err != nil {
		return Specie{}, fmt.Errorf("specie: insert: %w", err)
	}
	return stored, nil
}

// GetByID fetches a specie by its primary key.
func (r *PGRepository) GetByID(ctx context.Context, specieID string) (Specie, error) {
	const query = `
		SELECT id, name, description, price, created_at
		FROM species
		WHERE id = $1
	`

	var sp Specie
	err := r.pool.QueryRow(ctx, query, specieID).
		Scan(&sp.ID, &sp.Name, &sp.Description, &sp.Price, &sp.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Specie{}, ErrNotFound
		}
		return Specie{}, fmt.Errorf("specie: get by id: %w", err)
	}
	return sp, nil
}

// ListSummaries fetches all species with their animal counts aggregated at
// read time.
func (r *PGRepository) ListSummaries(ctx context.Context) ([]Summary, error) {
	const query = `
		SELECT s.id, s.name, COUNT(a.id)
		FROM species s
		LEFT JOIN animals a ON a.specie = s.id
		GROUP BY s.id, s.name, s.created_at
		ORDER BY s.created_at ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("specie: list: %w", err)
	}
	defer rows.Close()

	summaries := make([]Summary, 0, 16)
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.AnimalsCount); err != nil {
			return nil, fmt.Errorf("specie: scan summary: %w", err)
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("specie: iterate summaries: %w", err)
	}

	return summaries, nil
}

// ListAnimalRefs fetches the redacted animal projections for one specie.
func (r *PGRepository) ListAnimalRefs(ctx context.Context, specieID string) ([]AnimalRef, error) {
	const query = `
		SELECT id, name, specie
		FROM animals
		WHERE specie = $1
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, specieID)
	if err != nil {
		return nil, fmt.Errorf("specie: list animal refs: %w", err)
	}
	defer rows.Close()

	refs := make([]AnimalRef, 0, 16)
	for rows.Next() {
		var ref AnimalRef
		if err := rows.Scan(&ref.ID, &ref.Name, &ref.Specie); err != nil {
			return nil, fmt.Errorf("specie: scan animal ref: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("specie: iterate animal refs: %w", err)
	}

	return refs, nil
}
