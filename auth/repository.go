package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrCenterNotFound signals that the center does not exist.
	ErrCenterNotFound = errors.New("auth: center not found")
	// ErrDuplicateLogin signals that the login is already registered.
	ErrDuplicateLogin = errors.New("auth: login already exists")
)

// Repository handles data access for center credentials and the audit log.
type Repository interface {
	CreateCenter(ctx context.Context, params CreateCenterParams) (Center, error)
	GetCenterByLogin(ctx context.Context, login string) (Center, error)
	GetCenterByID(ctx context.Context, centerID string) (Center, error)
	InsertAuthEvent(ctx context.Context, eventID, centerID string) error
	ListAuthEvents(ctx context.Context, centerID string, limit int) ([]AuthEvent, error)
}

// CreateCenterParams contains write parameters for registering centers.
type CreateCenterParams struct {
	ID           string
	Name         string
	Login        string
	PasswordHash string
	Address      string
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed auth repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// CreateCenter inserts a new center with a hashed password. The unique index
// on login makes the uniqueness check atomic with the insert.
func (r *PGRepository) CreateCenter(ctx context.Context, params CreateCenterParams) (Center, error) {
	const insertSQL = `
		INSERT INTO centers (id, name, login, password, address)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, login, password, address, created_at
	`

	center, err := scanCenter(r.pool.QueryRow(ctx, insertSQL,
		params.ID, params.Name, params.Login, params.PasswordHash, params.Address))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Center{}, ErrDuplicateLogin
		}
		return Center{}, fmt.Errorf("auth: create center: %w", err)
	}

	return center, nil
}

// GetCenterByLogin retrieves a center by its unique login.
func (r *PGRepository) GetCenterByLogin(ctx context.Context, login string) (Center, error) {
	const selectSQL = `
		SELECT id, name, login, password, address, created_at
		FROM centers
		WHERE login = $1
	`

	center, err := scanCenter(r.pool.QueryRow(ctx, selectSQL, login))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Center{}, ErrCenterNotFound
		}
		return Center{}, fmt.Errorf("auth: get center by login: %w", err)
	}

	return center, nil
}

// GetCenterByID retrieves a center by ID.
func (r *PGRepository) GetCenterByID(ctx context.Context, centerID string) (Center, error) {
	const selectSQL = `
		SELECT id, name, login, password, address, created_at
		FROM centers
		WHERE id = $1
	`

	center, err := scanCenter(r.pool.QueryRow(ctx, selectSQL, centerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Center{}, ErrCenterNotFound
		}
		return Center{}, fmt.Errorf("auth: get center by id: %w", err)
	}

	return center, nil
}

// InsertAuthEvent appends one audit record for a successful authentication.
func (r *PGRepository) InsertAuthEvent(ctx context.Context, eventID, centerID string) error {
	const insertSQL = `
		INSERT INTO auth_events (id, center_id)
		VALUES ($1, $2)
	`

	if _, err := r.pool.Exec(ctx, insertSQL, eventID, centerID); err != nil {
		return fmt.Errorf("auth: insert auth event: %w", err)
	}
	return nil
}

// ListAuthEvents returns the most recent audit records for a center.
func (r *PGRepository) ListAuthEvents(ctx context.Context, centerID string, limit int) ([]AuthEvent, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	const query = `
		SELECT id, center_id, created_at
		FROM auth_events
		WHERE center_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, centerID, limit)
	if err != nil {
		return nil, fmt.Errorf("auth: list auth events: %w", err)
	}
	defer rows.Close()

	events := make([]AuthEvent, 0, limit)
	for rows.Next() {
		var ev AuthEvent
		if err := rows.Scan(&ev.ID, &ev.CenterID, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("auth: scan auth event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("auth: iterate auth events: %w", err)
	}

	return events, nil
}

func scanCenter(row pgx.Row) (Center, error) {
	var center Center
	err := row.Scan(
		&center.ID,
		&center.Name,
		&center.Login,
		&center.PasswordHash,
		&center.Address,
		&center.CreatedAt,
	)
	if err != nil {
		return Center{}, err
	}
	return center, nil
}
