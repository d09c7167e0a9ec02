package service

import (
	"context"
	"errors"
	"fmt"
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
	"github.com/spec-kit/maintenance-service/internal/storage"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util"
)

// TicketService coordinates the ticket lifecycle. Every guarded
// operation re-evaluates its authorization check at call time and
// mutates nothing when the check fails.
type TicketService struct {
	tickets    repository.TicketRepository
	materials  repository.MaterialRepository
	actors     repository.ActorRepository
	resolver   *directory.Resolver
	files      storage.FileStore
	dispatcher events.Dispatcher
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo   repository.TicketRepository
	MaterialRepo repository.MaterialRepository
	ActorRepo    repository.ActorRepository
	Resolver     *directory.Resolver
	FileStore    storage.FileStore
	Dispatcher   events.Dispatcher
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		materials:  deps.MaterialRepo,
		actors:     deps.ActorRepo,
		resolver:   deps.Resolver,
		files:      deps.FileStore,
		dispatcher: deps.Dispatcher,
	}
}

// ImageUpload carries one uploaded problem image.
type ImageUpload struct {
	FileName string
	Data     []byte
}

// ReportInput describes a new problem report.
type ReportInput struct {
	Facility    string
	Area        domain.WorkArea
	System      string
	Description string
	// OrdererID optionally designates the actor allowed to confirm the
	// legacy ticket-level material order.
	OrdererID        *string
	MaterialRequired bool
	Images           []ImageUpload
}

// ReportTicket creates a ticket in the Reported state. A non-admin
// reporter must be bound to the exact facility being reported for.
// Auto-assignment via the directory is attempted; an unresolved
// assignment leaves the ticket unassigned and is not a failure.
func (s *TicketService) ReportTicket(ctx context.Context, actor *domain.Actor, role domain.Role, input ReportInput) (*domain.Ticket, error) {
	input.Facility = strings.TrimSpace(input.Facility)
	input.System = strings.TrimSpace(input.System)
	input.Description = strings.TrimSpace(input.Description)
	if input.Facility == "" || input.System == "" || input.Description == "" {
		return nil, apperrors.NewValidationError("facility, system and description required", nil)
	}
	if !domain.ValidWorkArea(input.Area) {
		return nil, apperrors.NewValidationError("unknown work area", map[string]any{"area": input.Area})
	}
	if !authz.CanEditFacility(role, input.Facility) {
		return nil, apperrors.NewForbidden(fmt.Sprintf("you may only report problems for %s", role.Facility))
	}

	now := time.Now().UTC()
	ticket := &domain.Ticket{
		Facility:         input.Facility,
		Area:             input.Area,
		System:           input.System,
		Description:      input.Description,
		Status:           domain.TicketStatusReported,
		StatusChangedAt:  now,
		MaterialRequired: input.MaterialRequired,
		OrdererID:        input.OrdererID,
	}

	assignee, err := s.resolver.ResolveResponsible(ctx, input.Facility, input.Area)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if assignee != nil {
		ticket.AssigneeID = &assignee.ID
		name := assignee.Username
		ticket.ResponsibleName = &name
	}

	refs, err := s.saveImages(ctx, input.Images)
	if err != nil {
		return nil, err
	}
	ticket.Images = refs

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	payload := events.TicketReportedPayload{Ticket: ticket}
	if assignee != nil {
		recipient := notify.RecipientOf(assignee)
		payload.Assignee = &recipient
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketReported,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload:  payload,
	})
	return ticket, nil
}

// ClaimTicket moves a Reported (or already InProgress) ticket to
// InProgress and assigns it to the acting technician. Named interested
// parties are notified; the acting technician is skipped and a failed
// delivery to one recipient never blocks the others.
func (s *TicketService) ClaimTicket(ctx context.Context, actor *domain.Actor, role domain.Role, ticketID, remediationNotes string, interestedParties []string) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !authz.CanEditFacility(role, ticket.Facility) {
		return nil, apperrors.NewForbidden("not authorized for facility " + ticket.Facility)
	}
	if !domain.ValidTransition(ticket.Status, domain.TicketStatusInProgress) {
		return nil, apperrors.NewConflict("ticket cannot be claimed in current status",
			map[string]any{"status": ticket.Status})
	}

	ticket.AssigneeID = &actor.ID
	name := actor.Username
	ticket.ResponsibleName = &name
	// Notes are optional; a takeover claim without notes keeps the
	// previous technician's notes.
	if notes := strings.TrimSpace(remediationNotes); notes != "" {
		ticket.RemediationNotes = notes
	}
	ticket.Status = domain.TicketStatusInProgress
	ticket.StatusChangedAt = time.Now().UTC()
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	recipients := s.resolveInterestedParties(ctx, actor, interestedParties)
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketClaimed,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload: events.TicketClaimedPayload{
			Ticket:            ticket,
			ActingUsername:    actor.Username,
			InterestedParties: recipients,
		},
	})
	return ticket, nil
}

// AddProgressUpdate appends a work log entry. Updates are only
// meaningful while the ticket is actively being worked on, so any other
// status is rejected.
func (s *TicketService) AddProgressUpdate(ctx context.Context, actor *domain.Actor, role domain.Role, ticketID, text string) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !authz.CanEditFacility(role, ticket.Facility) {
		return nil, apperrors.NewForbidden("not authorized for facility " + ticket.Facility)
	}
	if ticket.Status != domain.TicketStatusInProgress {
		return nil, apperrors.NewConflict("progress updates require a ticket in progress",
			map[string]any{"status": ticket.Status})
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.NewValidationError("update text required", nil)
	}

	now := time.Now().UTC()
	ticket.ProgressUpdates = append(ticket.ProgressUpdates, domain.ProgressUpdate{
		Text:      text,
		Author:    actor.Username,
		Timestamp: now,
	})
	ticket.StatusChangedAt = now
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventProgressAdded,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
	})
	return ticket, nil
}

// CompleteTicket marks the ticket Completed, merges any completion
// images into the existing list, records the close comment, and queues
// a completion review notification for an administrator.
func (s *TicketService) CompleteTicket(ctx context.Context, actor *domain.Actor, role domain.Role, ticketID, closeComment string, images []ImageUpload) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !authz.CanEditFacility(role, ticket.Facility) {
		return nil, apperrors.NewForbidden("not authorized for facility " + ticket.Facility)
	}
	return s.complete(ctx, actor, ticket, closeComment, images)
}

// ConfirmTicketByAdmin moves a Completed ticket to the terminal
// Confirmed state. The ticket stays in history for audit.
func (s *TicketService) ConfirmTicketByAdmin(ctx context.Context, actor *domain.Actor, role domain.Role, ticketID, comment string) (*domain.Ticket, error) {
	if !authz.IsAdministrator(role) {
		return nil, apperrors.NewForbidden("administrator required")
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	return s.confirm(ctx, actor, ticket, comment)
}

// FinishTicket is the legacy single entry point: an administrator
// finishing an already-Completed ticket confirms it, anyone else (or an
// admin on a non-Completed ticket) completes it.
func (s *TicketService) FinishTicket(ctx context.Context, actor *domain.Actor, role domain.Role, ticketID, comment string, images []ImageUpload) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !authz.CanEditFacility(role, ticket.Facility) {
		return nil, apperrors.NewForbidden("not authorized for facility " + ticket.Facility)
	}
	if authz.IsAdministrator(role) && ticket.Status == domain.TicketStatusCompleted {
		return s.confirm(ctx, actor, ticket, comment)
	}
	return s.complete(ctx, actor, ticket, comment, images)
}

func (s *TicketService) complete(ctx context.Context, actor *domain.Actor, ticket *domain.Ticket, closeComment string, images []ImageUpload) (*domain.Ticket, error) {
	if !domain.ValidTransition(ticket.Status, domain.TicketStatusCompleted) {
		return nil, apperrors.NewConflict("ticket cannot be completed in current status",
			map[string]any{"status": ticket.Status})
	}

	refs, err := s.saveImages(ctx, images)
	if err != nil {
		return nil, err
	}
	ticket.Images = append(ticket.Images, refs...)

	closeComment = strings.TrimSpace(closeComment)
	ticket.CloseComment = &closeComment
	ticket.Status = domain.TicketStatusCompleted
	ticket.StatusChangedAt = time.Now().UTC()
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	payload := events.TicketCompletedPayload{Ticket: ticket, CloseComment: closeComment}
	if admin, err := s.actors.FirstAdministrator(ctx); err == nil && admin != nil {
		recipient := notify.RecipientOf(admin)
		payload.Reviewer = &recipient
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCompleted,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload:  payload,
	})
	return ticket, nil
}

func (s *TicketService) confirm(ctx context.Context, actor *domain.Actor, ticket *domain.Ticket, comment string) (*domain.Ticket, error) {
	if !domain.ValidTransition(ticket.Status, domain.TicketStatusConfirmed) {
		return nil, apperrors.NewConflict("only completed tickets can be confirmed",
			map[string]any{"status": ticket.Status})
	}

	base := strings.TrimSpace(comment)
	if base == "" && ticket.CloseComment != nil {
		base = strings.TrimSpace(*ticket.CloseComment)
	}
	confirmed := strings.TrimSpace(base + " [admin confirmed]")
	ticket.CloseComment = &confirmed
	ticket.Status = domain.TicketStatusConfirmed
	ticket.StatusChangedAt = time.Now().UTC()
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketConfirmed,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
	})
	return ticket, nil
}

// DeleteFromHistory removes an archived ticket together with its
// material lines and stored image files.
func (s *TicketService) DeleteFromHistory(ctx context.Context, actor *domain.Actor, role domain.Role, ticketID string) error {
	if !authz.IsAdministrator(role) {
		return apperrors.NewForbidden("administrator required")
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return err
	}
	if !ticket.Archived() {
		return apperrors.NewConflict("only completed or confirmed tickets can be deleted",
			map[string]any{"status": ticket.Status})
	}

	if err := s.materials.DeleteByTicket(ctx, ticket.ID); err != nil {
		return apperrors.MapError(err)
	}
	for _, ref := range ticket.Images {
		// best effort; a missing file must not block the delete
		_ = s.files.Delete(ctx, ref)
	}
	if err := s.tickets.Delete(ctx, ticket.ID); err != nil {
		return apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
	})
	return nil
}

// BulkDeleteFromHistory deletes several archived tickets; failures are
// collected per ticket and the remaining deletions proceed.
func (s *TicketService) BulkDeleteFromHistory(ctx context.Context, actor *domain.Actor, role domain.Role, ticketIDs []string) (deleted int, warnings []string, err error) {
	if !authz.IsAdministrator(role) {
		return 0, nil, apperrors.NewForbidden("administrator required")
	}
	for _, id := range ticketIDs {
		if delErr := s.DeleteFromHistory(ctx, actor, role, id); delErr != nil {
			warnings = append(warnings, fmt.Sprintf("ticket %s: %v", id, delErr))
			continue
		}
		deleted++
	}
	return deleted, warnings, nil
}

// ListActive returns tickets outside the archived states. Every actor
// may see all facilities; editing is what facility scoping restricts.
func (s *TicketService) ListActive(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListActive(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// ListHistory returns archived tickets; administrators only.
func (s *TicketService) ListHistory(ctx context.Context, role domain.Role, filter repository.TicketFilter) ([]domain.Ticket, error) {
	if !authz.IsAdministrator(role) {
		return nil, apperrors.NewForbidden("administrator required")
	}
	tickets, err := s.tickets.ListArchived(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// GetTicket fetches one ticket with its material lines.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, []domain.MaterialLine, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, nil, err
	}
	lines, err := s.materials.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return ticket, lines, nil
}

// Dashboard returns aggregate counts over active tickets.
func (s *TicketService) Dashboard(ctx context.Context) (*repository.DashboardStats, error) {
	stats, err := s.tickets.Stats(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return stats, nil
}

func (s *TicketService) getTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *TicketService) saveImages(ctx context.Context, images []ImageUpload) ([]string, error) {
	var refs []string
	for _, img := range images {
		ref, err := s.files.Save(ctx, img.FileName, img.Data)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func (s *TicketService) resolveInterestedParties(ctx context.Context, acting *domain.Actor, usernames []string) []notify.Recipient {
	var recipients []notify.Recipient
	for _, username := range usernames {
		username = strings.TrimSpace(username)
		if username == "" || username == acting.Username {
			continue
		}
		party, err := s.actors.GetByUsername(ctx, username)
		if err != nil || party.Email == "" {
			continue
		}
		recipients = append(recipients, notify.RecipientOf(party))
	}
	return recipients
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
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
