package animal

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound signals the requested animal does not exist.
	ErrNotFound = errors.New("animal: not found")
	// ErrNotOwner signals the caller is not the center that owns the animal.
	ErrNotOwner = errors.New("animal: caller does not own animal")
	// ErrSpecieNotFound signals a reference to a specie that does not exist.
	ErrSpecieNotFound = errors.New("animal: specified specie does not exist")
)

// Repository handles data access for animal listings.
type Repository interface {
	Insert(ctx context.Context, a Animal) (Animal, error)
	GetRawByID(ctx context.Context, animalID string) (Animal, error)
	GetViewByID(ctx context.Context, animalID string) (View, error)
	ListViews(ctx context.Context) ([]View, error)
	ListViewsBySpecie(ctx context.Context, specieID string) ([]View, error)
	CountBySpecie(ctx context.Context, specieID string) (int, error)
	Update(ctx context.Context, animalID, centerID string, patch UpdatePatch) error
	Delete(ctx context.Context, animalID, centerID string) error
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a pgxpool-backed repository implementation.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Insert adds a new animal row. The foreign key to species makes the
// specie-exists check atomic with the insert.
func (r *PGRepository) Insert(ctx context.Context, a Animal) (Animal, error) {
	const insertSQL = `
		INSERT INTO animals (id, center_id, name, description, age, specie, price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, center_id, name, description, age, specie, price, created_at, updated_at
	`

	stored, err := scanAnimal(r.pool.QueryRow(ctx, insertSQL,
		a.ID, a.CenterID, a.Name, a.Description, a.Age, a.Specie, a.Price))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return Animal{}, ErrSpecieNotFound
		}
		return Animal{}, fmt.Errorf("animal: insert: %w", err)
	}

	return stored, nil
}

// GetRawByID fetches an animal row as stored, without the price fallback.
func (r *PGRepository) GetRawByID(ctx context.Context, animalID string) (Animal, error) {
	const query = `
		SELECT id, center_id, name, description, age, specie, price, created_at, updated_at
		FROM animals
		WHERE id = $1
	`

	a, err := scanAnimal(r.pool.QueryRow(ctx, query, animalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Animal{}, ErrNotFound
		}
		return Animal{}, fmt.Errorf("animal: get by id: %w", err)
	}
	return a, nil
}

// GetViewByID fetches an animal with its effective price: the animal's own
// price when set, otherwise the referenced specie's price.
func (r *PGRepository) GetViewByID(ctx context.Context, animalID string) (View, error) {
	const query = `
		SELECT a.id, a.center_id, a.name, a.description, a.age, a.specie,
		       COALESCE(a.price, s.price)
		FROM animals a
		JOIN species s ON s.id = a.specie
		WHERE a.id = $1
	`

	v, err := scanView(r.pool.QueryRow(ctx, query, animalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return View{}, ErrNotFound
		}
		return View{}, fmt.Errorf("animal: get view by id: %w", err)
	}
	return v, nil
}

// ListViews fetches all animals with the price fallback applied.
func (r *PGRepository) ListViews(ctx context.Context) ([]View, error) {
	const query = `
		SELECT a.id, a.center_id, a.name, a.description, a.age, a.specie,
		       COALESCE(a.price, s.price)
		FROM animals a
		JOIN species s ON s.id = a.specie
		ORDER BY a.created_at ASC
	`
	return r.queryViews(ctx, query)
}

// ListViewsBySpecie fetches all animals of one specie with the price fallback applied.
func (r *PGRepository) ListViewsBySpecie(ctx context.Context, specieID string) ([]View, error) {
	const query = `
		SELECT a.id, a.center_id, a.name, a.description, a.age, a.specie,
		       COALESCE(a.price, s.price)
		FROM animals a
		JOIN species s ON s.id = a.specie
		WHERE a.specie = $1
		ORDER BY a.created_at ASC
	`
	return r.queryViews(ctx, query, specieID)
}

// CountBySpecie returns the number of animals referencing the specie.
func (r *PGRepository) CountBySpecie(ctx context.Context, specieID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM animals WHERE specie = $1`, specieID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("animal: count by specie: %w", err)
	}
	return count, nil
}

// Update applies a sparse patch after checking ownership. The row lock, the
// ownership check, and the merge run in one transaction so a stale check can
// never let a non-owner through.
func (r *PGRepository) Update(ctx context.Context, animalID, centerID string, patch UpdatePatch) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("animal: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := lockAndAuthorize(ctx, tx, animalID, centerID); err != nil {
		return err
	}

	const updateSQL = `
		UPDATE animals
		SET name        = COALESCE($2, name),
		    description = COALESCE($3, description),
		    age         = COALESCE($4, age),
		    specie      = COALESCE($5, specie),
		    price       = COALESCE($6, price),
		    updated_at  = now()
		WHERE id = $1
	`
	if _, err := tx.Exec(ctx, updateSQL,
		animalID, patch.Name, patch.Description, patch.Age, patch.Specie, patch.Price); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrSpecieNotFound
		}
		return fmt.Errorf("animal: update: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("animal: commit update: %w", err)
	}
	return nil
}

// Delete removes an animal after checking ownership inside the same transaction.
func (r *PGRepository) Delete(ctx context.Context, animalID, centerID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("animal: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := lockAndAuthorize(ctx, tx, animalID, centerID); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM animals WHERE id = $1`, animalID); err != nil {
		return fmt.Errorf("animal: delete: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("animal: commit delete: %w", err)
	}
	return nil
}

// lockAndAuthorize locks the animal row and verifies the caller owns it.
func lockAndAuthorize(ctx context.Context, tx pgx.Tx, animalID, centerID string) error {
	var owner string
	err := tx.QueryRow(ctx, `SELECT center_id FROM animals WHERE id = $1 FOR UPDATE`, animalID).Scan(&owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("animal: lock row: %w", err)
	}
	if owner != centerID {
		return ErrNotOwner
	}
	return nil
}

func (r *PGRepository) queryViews(ctx context.Context, query string, args ...any) ([]View, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("animal: list: %w", err)
	}
	defer rows.Close()

	views := make([]View, 0, 16)
	for rows.Next() {
		v, err := scanView(rows)
		if err != nil {
			return nil, fmt.Errorf("animal: scan view: %w", err)
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("animal: iterate views: %w", err)
	}

	return views, nil
}

func scanAnimal(row pgx.Row) (Animal, error) {
	var a Animal
	err := row.Scan(
		&a.ID,
		&a.CenterID,
		&a.Name,
		&a.Description,
		&a.Age,
		&a.Specie,
		&a.Price,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return Animal{}, err
	}
	return a, nil
}

func scanView(row pgx.Row) (View, error) {
	var v View
	err := row.Scan(
		&v.ID,
		&v.CenterID,
		&v.Name,
		&v.Description,
		&v.Age,
		&v.Specie,
		&v.Price,
	)
	if err != nil {
		return View{}, err
	}
	return v, nil
}
