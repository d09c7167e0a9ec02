package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// ActorRepository encapsulates actor persistence.
type ActorRepository interface {
	Create(ctx context.Context, actor *domain.Actor) error
	GetByID(ctx context.Context, id string) (*domain.Actor, error)
	GetByUsername(ctx context.Context, username string) (*domain.Actor, error)
	List(ctx context.Context) ([]domain.Actor, error)
	FindTechnician(ctx context.Context, facility string, area domain.WorkArea) (*domain.Actor, error)
	FindCoordinator(ctx context.Context, facility string) (*domain.Actor, error)
	FirstAdministrator(ctx context.Context) (*domain.Actor, error)
	ListUnbound(ctx context.Context) ([]domain.Actor, error)
	UpdateBinding(ctx context.Context, id, facility string, area domain.WorkArea) error
}

type actorRepository struct {
	pool *pgxpool.Pool
}

// NewActorRepository instantiates the repository.
func NewActorRepository(pool *pgxpool.Pool) ActorRepository {
	return &actorRepository{pool: pool}
}

const actorColumns = `id, username, email, password_hash, role, facility, area, created_at, updated_at`

// Facility codes circulate in several spellings ("T-700", "T 700",
// "t700"). Directory lookups compare the canonical alphanumeric form,
// matching the authorization policy's facility comparison.
const facilityMatch = `regexp_replace(upper(facility), '[^A-Z0-9]', '', 'g')
            = regexp_replace(upper($2), '[^A-Z0-9]', '', 'g')`

func (r *actorRepository) Create(ctx context.Context, actor *domain.Actor) error {
	const query = `
        INSERT INTO actors (username, email, password_hash, role, facility, area)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		actor.Username,
		actor.Email,
		actor.PasswordHash,
		actor.Role,
		actor.Facility,
		actor.Area,
	).Scan(&actor.ID, &actor.CreatedAt, &actor.UpdatedAt)
}

func (r *actorRepository) GetByID(ctx context.Context, id string) (*domain.Actor, error) {
	return r.fetchSingle(ctx, `SELECT `+actorColumns+` FROM actors WHERE id=$1`, id)
}

func (r *actorRepository) GetByUsername(ctx context.Context, username string) (*domain.Actor, error) {
	return r.fetchSingle(ctx, `SELECT `+actorColumns+` FROM actors WHERE username=$1`, username)
}

func (r *actorRepository) List(ctx context.Context) ([]domain.Actor, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+actorColumns+` FROM actors ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanActors(rows)
}

func (r *actorRepository) FindTechnician(ctx context.Context, facility string, area domain.WorkArea) (*domain.Actor, error) {
	const query = `SELECT ` + actorColumns + ` FROM actors
        WHERE role=$1 AND ` + facilityMatch + ` AND area=$3
        ORDER BY created_at LIMIT 1`
	return r.fetchSingle(ctx, query, domain.RoleFacilityTechnician, facility, area)
}

func (r *actorRepository) FindCoordinator(ctx context.Context, facility string) (*domain.Actor, error) {
	const query = `SELECT ` + actorColumns + ` FROM actors
        WHERE role=$1 AND ` + facilityMatch + `
        ORDER BY created_at LIMIT 1`
	return r.fetchSingle(ctx, query, domain.RoleProcurementCoordinator, facility)
}

func (r *actorRepository) FirstAdministrator(ctx context.Context) (*domain.Actor, error) {
	const query = `SELECT ` + actorColumns + ` FROM actors
        WHERE role=$1 ORDER BY created_at LIMIT 1`
	return r.fetchSingle(ctx, query, domain.RoleAdministrator)
}

func (r *actorRepository) ListUnbound(ctx context.Context) ([]domain.Actor, error) {
	const query = `SELECT ` + actorColumns + ` FROM actors
        WHERE role<>$1 AND facility=''`
	rows, err := r.pool.Query(ctx, query, domain.RoleAdministrator)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanActors(rows)
}

func (r *actorRepository) UpdateBinding(ctx context.Context, id, facility string, area domain.WorkArea) error {
	const query = `UPDATE actors SET facility=$1, area=$2, updated_at=NOW() WHERE id=$3`
	cmd, err := r.pool.Exec(ctx, query, facility, area, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *actorRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Actor, error) {
	var actor domain.Actor
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&actor.ID,
		&actor.Username,
		&actor.Email,
		&actor.PasswordHash,
		&actor.Role,
		&actor.Facility,
		&actor.Area,
		&actor.CreatedAt,
		&actor.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &actor, nil
}

func scanActors(rows pgx.Rows) ([]domain.Actor, error) {
	var result []domain.Actor
	for rows.Next() {
		var actor domain.Actor
		if err := rows.Scan(
			&actor.ID,
			&actor.Username,
			&actor.Email,
			&actor.PasswordHash,
			&actor.Role,
			&actor.Facility,
			&actor.Area,
			&actor.CreatedAt,
			&actor.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, actor)
	}
	return result, rows.Err()
}
