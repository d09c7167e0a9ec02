package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// TicketFilter captures listing parameters.
type TicketFilter struct {
	Facility    *string
	Area        *domain.WorkArea
	Status      *domain.TicketStatus
	ChangedFrom *time.Time
	ChangedTo   *time.Time
	SearchTerm  *string
	Limit       int
}

// DashboardStats aggregates counts for the overview endpoint.
type DashboardStats struct {
	ActiveTotal      int64
	ReportedCount    int64
	InProgressCount  int64
	ArchivedCount    int64
	ByFacility       map[string]int64
	ByArea           map[string]int64
	CriticalCount    int64
	ActiveWithImages int64
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListActive(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	ListArchived(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (*DashboardStats, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates the repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, facility, area, system, description, status, status_changed_at,
               assignee_id, responsible_name, remediation_notes, progress_updates, images,
               material_required, orderer_id, order_confirmed, order_reference,
               expected_delivery, order_confirmed_at, close_comment, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	updatesJSON, imagesJSON, err := marshalLists(ticket)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO tickets (facility, area, system, description, status, status_changed_at,
            assignee_id, responsible_name, remediation_notes, progress_updates, images,
            material_required, orderer_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Facility,
		ticket.Area,
		ticket.System,
		ticket.Description,
		ticket.Status,
		ticket.StatusChangedAt,
		ticket.AssigneeID,
		ticket.ResponsibleName,
		ticket.RemediationNotes,
		updatesJSON,
		imagesJSON,
		ticket.MaterialRequired,
		ticket.OrdererID,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	updatesJSON, imagesJSON, err := marshalLists(ticket)
	if err != nil {
		return err
	}
	const query = `
        UPDATE tickets SET facility=$1, area=$2, system=$3, description=$4, status=$5,
            status_changed_at=$6, assignee_id=$7, responsible_name=$8, remediation_notes=$9,
            progress_updates=$10, images=$11, material_required=$12, orderer_id=$13,
            order_confirmed=$14, order_reference=$15, expected_delivery=$16,
            order_confirmed_at=$17, close_comment=$18, updated_at=NOW()
        WHERE id=$19`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Facility,
		ticket.Area,
		ticket.System,
		ticket.Description,
		ticket.Status,
		ticket.StatusChangedAt,
		ticket.AssigneeID,
		ticket.ResponsibleName,
		ticket.RemediationNotes,
		updatesJSON,
		imagesJSON,
		ticket.MaterialRequired,
		ticket.OrdererID,
		ticket.OrderConfirmed,
		ticket.OrderReference,
		ticket.ExpectedDelivery,
		ticket.OrderConfirmedAt,
		ticket.CloseComment,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id=$1`, id)
	return scanTicket(row)
}

// ListActive returns tickets outside the archived states, reported
// first, then in progress, newest first within a rank.
func (r *ticketRepository) ListActive(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses, args := filterClauses(filter)
	clauses = append(clauses, `status NOT IN ('COMPLETED','CONFIRMED')`)
	order := `ORDER BY CASE status
            WHEN 'REPORTED' THEN 1
            WHEN 'IN_PROGRESS' THEN 2
            ELSE 3 END, created_at DESC`
	return r.list(ctx, clauses, args, order, filter.Limit)
}

// ListArchived returns completed and confirmed tickets, newest change first.
func (r *ticketRepository) ListArchived(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses, args := filterClauses(filter)
	clauses = append(clauses, `status IN ('COMPLETED','CONFIRMED')`)
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(description) LIKE %s OR LOWER(COALESCE(close_comment,'')) LIKE %s OR LOWER(remediation_notes) LIKE %s)",
			placeholder, placeholder, placeholder))
	}
	return r.list(ctx, clauses, args, `ORDER BY status_changed_at DESC`, filter.Limit)
}

func (r *ticketRepository) list(ctx context.Context, clauses []string, args []any, order string, limit int) ([]domain.Ticket, error) {
	if limit <= 0 {
		limit = 1000
	}
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s %s LIMIT %d`,
		ticketColumns, strings.Join(clauses, " AND "), order, limit)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) Stats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{
		ByFacility: map[string]int64{},
		ByArea:     map[string]int64{},
	}
	const counts = `SELECT
            COUNT(*) FILTER (WHERE status NOT IN ('COMPLETED','CONFIRMED')),
            COUNT(*) FILTER (WHERE status = 'REPORTED'),
            COUNT(*) FILTER (WHERE status = 'IN_PROGRESS'),
            COUNT(*) FILTER (WHERE status IN ('COMPLETED','CONFIRMED')),
            COUNT(*) FILTER (WHERE status = 'REPORTED' AND status_changed_at < NOW() - INTERVAL '24 hours'),
            COUNT(*) FILTER (WHERE status NOT IN ('COMPLETED','CONFIRMED') AND images <> '[]'::jsonb)
        FROM tickets`
	if err := r.pool.QueryRow(ctx, counts).Scan(
		&stats.ActiveTotal,
		&stats.ReportedCount,
		&stats.InProgressCount,
		&stats.ArchivedCount,
		&stats.CriticalCount,
		&stats.ActiveWithImages,
	); err != nil {
		return nil, err
	}

	if err := r.groupCount(ctx, `facility`, stats.ByFacility); err != nil {
		return nil, err
	}
	if err := r.groupCount(ctx, `area`, stats.ByArea); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *ticketRepository) groupCount(ctx context.Context, column string, into map[string]int64) error {
	query := fmt.Sprintf(`SELECT %s, COUNT(*) FROM tickets
        WHERE status NOT IN ('COMPLETED','CONFIRMED') GROUP BY %s`, column, column)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		into[key] = count
	}
	return rows.Err()
}

func filterClauses(filter TicketFilter) ([]string, []any) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Facility != nil {
		args = append(args, *filter.Facility)
		// Same canonical facility comparison as the actor lookups.
		clauses = append(clauses, fmt.Sprintf(
			"regexp_replace(upper(facility), '[^A-Z0-9]', '', 'g') = regexp_replace(upper($%d), '[^A-Z0-9]', '', 'g')",
			len(args)))
	}
	if filter.Area != nil {
		args = append(args, *filter.Area)
		clauses = append(clauses, fmt.Sprintf("area=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.ChangedFrom != nil {
		args = append(args, *filter.ChangedFrom)
		clauses = append(clauses, fmt.Sprintf("status_changed_at >= $%d", len(args)))
	}
	if filter.ChangedTo != nil {
		args = append(args, *filter.ChangedTo)
		clauses = append(clauses, fmt.Sprintf("status_changed_at <= $%d", len(args)))
	}
	return clauses, args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (*domain.Ticket, error) {
	var ticket domain.Ticket
	var updatesJSON, imagesJSON []byte
	if err := row.Scan(
		&ticket.ID,
		&ticket.Facility,
		&ticket.Area,
		&ticket.System,
		&ticket.Description,
		&ticket.Status,
		&ticket.StatusChangedAt,
		&ticket.AssigneeID,
		&ticket.ResponsibleName,
		&ticket.RemediationNotes,
		&updatesJSON,
		&imagesJSON,
		&ticket.MaterialRequired,
		&ticket.OrdererID,
		&ticket.OrderConfirmed,
		&ticket.OrderReference,
		&ticket.ExpectedDelivery,
		&ticket.OrderConfirmedAt,
		&ticket.CloseComment,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(updatesJSON) > 0 {
		if err := json.Unmarshal(updatesJSON, &ticket.ProgressUpdates); err != nil {
			return nil, fmt.Errorf("decode progress updates: %w", err)
		}
	}
	if len(imagesJSON) > 0 {
		if err := json.Unmarshal(imagesJSON, &ticket.Images); err != nil {
			return nil, fmt.Errorf("decode images: %w", err)
		}
	}
	return &ticket, nil
}

func marshalLists(ticket *domain.Ticket) (updates, images []byte, err error) {
	if ticket.ProgressUpdates == nil {
		updates = []byte("[]")
	} else if updates, err = json.Marshal(ticket.ProgressUpdates); err != nil {
		return nil, nil, fmt.Errorf("encode progress updates: %w", err)
	}
	if ticket.Images == nil {
		images = []byte("[]")
	} else if images, err = json.Marshal(ticket.Images); err != nil {
		return nil, nil, fmt.Errorf("encode images: %w", err)
	}
	return updates, images, nil
}
