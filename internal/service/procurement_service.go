package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/maintenance-service/internal/authz"
	"github.com/spec-kit/maintenance-service/internal/directory"
	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/events"
	"github.com/spec-kit/maintenance-service/internal/notify"
	"github.com/spec-kit/maintenance-service/internal/repository"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util"
)

// deliveryDateFormat is the fixed calendar format for delivery dates.
const deliveryDateFormat = "2006-01-02"

// ProcurementService manages the material sub-workflow: the legacy
// ticket-level order confirmation and the per-line material management.
type ProcurementService struct {
	tickets    repository.TicketRepository
	materials  repository.MaterialRepository
	resolver   *directory.Resolver
	dispatcher events.Dispatcher
}

// ProcurementDependencies bundles collaborators.
type ProcurementDependencies struct {
	TicketRepo   repository.TicketRepository
	MaterialRepo repository.MaterialRepository
	Resolver     *directory.Resolver
	Dispatcher   events.Dispatcher
}

// NewProcurementService constructs the service.
func NewProcurementService(deps ProcurementDependencies) *ProcurementService {
	return &ProcurementService{
		tickets:    deps.TicketRepo,
		materials:  deps.MaterialRepo,
		resolver:   deps.Resolver,
		dispatcher: deps.Dispatcher,
	}
}

// ConfirmTicketOrder records that the legacy single-item order for a
// ticket has been placed. Only the actor designated as orderer may
// confirm; this is an exact identity match, deliberately stricter than
// the facility-edit check. Re-confirming is allowed and keeps the
// existing reference unless a new one is supplied.
func (s *ProcurementService) ConfirmTicketOrder(ctx context.Context, actor *domain.Actor, ticketID, orderReference, deliveryDate string) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.OrdererID == nil {
		return nil, apperrors.NewConflict("no orderer designated for this ticket", nil)
	}
	if actor.ID != *ticket.OrdererID {
		return nil, apperrors.NewForbidden("only the designated orderer may confirm this order")
	}
	if !ticket.MaterialRequired {
		return nil, apperrors.NewConflict("ticket does not require a material order", nil)
	}

	// The date is validated before anything is touched: the ticket-level
	// confirmation is all-or-nothing, unlike the line-level field patch.
	var parsedDelivery *time.Time
	if trimmed := strings.TrimSpace(deliveryDate); trimmed != "" {
		parsed, err := time.Parse(deliveryDateFormat, trimmed)
		if err != nil {
			return nil, apperrors.NewValidationError("invalid delivery date, expected YYYY-MM-DD",
				map[string]any{"delivery_date": trimmed})
		}
		parsedDelivery = &parsed
	}

	ticket.OrderConfirmed = true
	if ref := strings.TrimSpace(orderReference); ref != "" {
		ticket.OrderReference = &ref
	}
	if parsedDelivery != nil {
		ticket.ExpectedDelivery = parsedDelivery
	}
	now := time.Now().UTC()
	ticket.OrderConfirmedAt = &now
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventOrderConfirmed,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload: events.OrderConfirmedPayload{
			Ticket:         ticket,
			OrderReference: ticket.OrderReference,
		},
	})
	return ticket, nil
}

// MaterialInput describes a new material line.
type MaterialInput struct {
	PartCode    string
	Description string
	Quantity    int
	Unit        string
}

// AddMaterialLine attaches a material line to a non-terminal ticket.
// Attaching requires facility-edit permission, not procurement
// permission: requesting a part and approving its purchase are
// separate duties. The facility's procurement coordinator is notified.
func (s *ProcurementService) AddMaterialLine(ctx context.Context, actor *domain.Actor, role domain.Role, ticketID string, input MaterialInput) (*domain.MaterialLine, []string, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, nil, err
	}
	if !authz.CanEditFacility(role, ticket.Facility) {
		return nil, nil, apperrors.NewForbidden("not authorized for facility " + ticket.Facility)
	}
	if ticket.Status == domain.TicketStatusConfirmed {
		return nil, nil, apperrors.NewConflict("cannot attach material to a confirmed ticket", nil)
	}

	input.PartCode = strings.TrimSpace(input.PartCode)
	input.Description = strings.TrimSpace(input.Description)
	if input.PartCode == "" || input.Description == "" {
		return nil, nil, apperrors.NewValidationError("part code and description required", nil)
	}
	if input.Quantity <= 0 {
		input.Quantity = 1
	}
	if strings.TrimSpace(input.Unit) == "" {
		input.Unit = "piece"
	}

	line := &domain.MaterialLine{
		TicketID:    ticket.ID,
		PartCode:    input.PartCode,
		Description: input.Description,
		Quantity:    input.Quantity,
		Unit:        input.Unit,
		OrdererID:   &actor.ID,
	}
	if err := s.materials.Create(ctx, line); err != nil {
		return nil, nil, apperrors.MapError(err)
	}

	var warnings []string
	payload := events.MaterialRequestedPayload{
		Ticket:        ticket,
		Line:          line,
		RequesterName: actor.Username,
	}
	coordinator, err := s.resolver.ResolveProcurementCoordinator(ctx, ticket.Facility)
	if err != nil || coordinator == nil {
		warnings = append(warnings, "no procurement coordinator found for "+ticket.Facility)
	} else {
		recipient := notify.RecipientOf(coordinator)
		payload.Coordinator = &recipient
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventMaterialRequested,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload:  payload,
	})
	return line, warnings, nil
}

// ConfirmMaterialInput carries the order-side fields set on confirmation.
type ConfirmMaterialInput struct {
	RequisitionRef   string
	PurchaseOrderRef string
	DeliveryDate     string
}

// ConfirmMaterialLine marks a line ordered and records its references.
// Field updates are best-effort: a malformed delivery date yields a
// validation warning while the remaining fields still persist.
func (s *ProcurementService) ConfirmMaterialLine(ctx context.Context, actor *domain.Actor, role domain.Role, lineID string, input ConfirmMaterialInput) (*domain.MaterialLine, []string, error) {
	line, ticket, err := s.getLineWithTicket(ctx, lineID)
	if err != nil {
		return nil, nil, err
	}
	if !authz.CanManageProcurement(role, ticket.Facility) {
		return nil, nil, apperrors.NewForbidden("only the procurement coordinator for " + ticket.Facility + " or an administrator may manage orders")
	}

	now := time.Now().UTC()
	line.Ordered = true
	line.OrderedAt = &now
	if ref := strings.TrimSpace(input.RequisitionRef); ref != "" {
		line.RequisitionRef = &ref
	}
	if ref := strings.TrimSpace(input.PurchaseOrderRef); ref != "" {
		line.PurchaseOrderRef = &ref
	}

	var warnings []string
	if trimmed := strings.TrimSpace(input.DeliveryDate); trimmed != "" {
		if parsed, err := time.Parse(deliveryDateFormat, trimmed); err == nil {
			line.ExpectedDelivery = &parsed
		} else {
			warnings = append(warnings, "invalid delivery date, expected YYYY-MM-DD; date left unchanged")
		}
	}

	if err := s.materials.Update(ctx, line); err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return line, warnings, nil
}

// Material order fields that can be patched individually.
const (
	FieldRequisitionRef   = "requisition_ref"
	FieldPurchaseOrderRef = "purchase_order_ref"
	FieldDeliveryDate     = "delivery_date"
)

// UpdateMaterialField patches a single order field on a line.
func (s *ProcurementService) UpdateMaterialField(ctx context.Context, actor *domain.Actor, role domain.Role, lineID, field, value string) (*domain.MaterialLine, error) {
	line, ticket, err := s.getLineWithTicket(ctx, lineID)
	if err != nil {
		return nil, err
	}
	if !authz.CanManageProcurement(role, ticket.Facility) {
		return nil, apperrors.NewForbidden("only the procurement coordinator for " + ticket.Facility + " or an administrator may manage orders")
	}

	value = strings.TrimSpace(value)
	switch field {
	case FieldRequisitionRef:
		line.RequisitionRef = optional(value)
	case FieldPurchaseOrderRef:
		line.PurchaseOrderRef = optional(value)
	case FieldDeliveryDate:
		if value == "" {
			line.ExpectedDelivery = nil
			break
		}
		parsed, err := time.Parse(deliveryDateFormat, value)
		if err != nil {
			return nil, apperrors.NewValidationError("invalid delivery date, expected YYYY-MM-DD",
				map[string]any{"delivery_date": value})
		}
		line.ExpectedDelivery = &parsed
	default:
		return nil, apperrors.NewValidationError("unknown material field", map[string]any{"field": field})
	}

	if err := s.materials.Update(ctx, line); err != nil {
		return nil, apperrors.MapError(err)
	}
	return line, nil
}

// DeleteMaterialLine removes a single line; facility-edit permission
// suffices, matching the attach side of the duty split.
func (s *ProcurementService) DeleteMaterialLine(ctx context.Context, actor *domain.Actor, role domain.Role, lineID string) error {
	line, ticket, err := s.getLineWithTicket(ctx, lineID)
	if err != nil {
		return err
	}
	if !authz.CanEditFacility(role, ticket.Facility) {
		return apperrors.NewForbidden("not authorized for facility " + ticket.Facility)
	}
	if err := s.materials.Delete(ctx, line.ID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// ListMaterials returns the lines attached to a ticket.
func (s *ProcurementService) ListMaterials(ctx context.Context, ticketID string) ([]domain.MaterialLine, error) {
	if _, err := s.getTicket(ctx, ticketID); err != nil {
		return nil, err
	}
	lines, err := s.materials.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return lines, nil
}

func (s *ProcurementService) getTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *ProcurementService) getLineWithTicket(ctx context.Context, lineID string) (*domain.MaterialLine, *domain.Ticket, error) {
	line, err := s.materials.GetByID(ctx, lineID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("material line", map[string]any{"material_id": lineID})
		}
		return nil, nil, apperrors.MapError(err)
	}
	ticket, err := s.getTicket(ctx, line.TicketID)
	if err != nil {
		return nil, nil, err
	}
	return line, ticket, nil
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func (s *ProcurementService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
