package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// MaterialRepository encapsulates material line persistence.
type MaterialRepository interface {
	Create(ctx context.Context, line *domain.MaterialLine) error
	Update(ctx context.Context, line *domain.MaterialLine) error
	GetByID(ctx context.Context, id string) (*domain.MaterialLine, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.MaterialLine, error)
	Delete(ctx context.Context, id string) error
	DeleteByTicket(ctx context.Context, ticketID string) error
}

type materialRepository struct {
	pool *pgxpool.Pool
}

// NewMaterialRepository instantiates the repository.
func NewMaterialRepository(pool *pgxpool.Pool) MaterialRepository {
	return &materialRepository{pool: pool}
}

const materialColumns = `id, ticket_id, part_code, description, quantity, unit, orderer_id,
               ordered, ordered_at, requisition_ref, purchase_order_ref, expected_delivery,
               cost, supplier, created_at`

func (r *materialRepository) Create(ctx context.Context, line *domain.MaterialLine) error {
	const query = `
        INSERT INTO material_lines (ticket_id, part_code, description, quantity, unit, orderer_id)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		line.TicketID,
		line.PartCode,
		line.Description,
		line.Quantity,
		line.Unit,
		line.OrdererID,
	).Scan(&line.ID, &line.CreatedAt)
}

func (r *materialRepository) Update(ctx context.Context, line *domain.MaterialLine) error {
	const query = `
        UPDATE material_lines SET part_code=$1, description=$2, quantity=$3, unit=$4,
            orderer_id=$5, ordered=$6, ordered_at=$7, requisition_ref=$8,
            purchase_order_ref=$9, expected_delivery=$10, cost=$11, supplier=$12
        WHERE id=$13`
	cmd, err := r.pool.Exec(ctx, query,
		line.PartCode,
		line.Description,
		line.Quantity,
		line.Unit,
		line.OrdererID,
		line.Ordered,
		line.OrderedAt,
		line.RequisitionRef,
		line.PurchaseOrderRef,
		line.ExpectedDelivery,
		line.Cost,
		line.Supplier,
		line.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *materialRepository) GetByID(ctx context.Context, id string) (*domain.MaterialLine, error) {
	var line domain.MaterialLine
	if err := r.pool.QueryRow(ctx, `SELECT `+materialColumns+` FROM material_lines WHERE id=$1`, id).Scan(
		&line.ID,
		&line.TicketID,
		&line.PartCode,
		&line.Description,
		&line.Quantity,
		&line.Unit,
		&line.OrdererID,
		&line.Ordered,
		&line.OrderedAt,
		&line.RequisitionRef,
		&line.PurchaseOrderRef,
		&line.ExpectedDelivery,
		&line.Cost,
		&line.Supplier,
		&line.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *materialRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.MaterialLine, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+materialColumns+` FROM material_lines WHERE ticket_id=$1 ORDER BY created_at`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.MaterialLine
	for rows.Next() {
		var line domain.MaterialLine
		if err := rows.Scan(
			&line.ID,
			&line.TicketID,
			&line.PartCode,
			&line.Description,
			&line.Quantity,
			&line.Unit,
			&line.OrdererID,
			&line.Ordered,
			&line.OrderedAt,
			&line.RequisitionRef,
			&line.PurchaseOrderRef,
			&line.ExpectedDelivery,
			&line.Cost,
			&line.Supplier,
			&line.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, line)
	}
	return result, rows.Err()
}

func (r *materialRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM material_lines WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *materialRepository) DeleteByTicket(ctx context.Context, ticketID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM material_lines WHERE ticket_id=$1`, ticketID)
	return err
}
