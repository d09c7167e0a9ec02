package events

import (
	"time"

	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/notify"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketReported    EventType = "ticket_reported"
	EventTicketClaimed     EventType = "ticket_claimed"
	EventProgressAdded     EventType = "ticket_progress_added"
	EventTicketCompleted   EventType = "ticket_completed"
	EventTicketConfirmed   EventType = "ticket_confirmed"
	EventTicketDeleted     EventType = "ticket_deleted"
	EventMaterialRequested EventType = "material_requested"
	EventOrderConfirmed    EventType = "order_confirmed"
)

// Event represents a domain event emitted by services after a mutation
// has committed. Handlers run fire-and-forget relative to the mutation.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketReportedPayload carries the resolved assignee, when any.
type TicketReportedPayload struct {
	Ticket   *domain.Ticket    `json:"ticket"`
	Assignee *notify.Recipient `json:"assignee,omitempty"`
}

// TicketClaimedPayload carries the interested parties to inform.
type TicketClaimedPayload struct {
	Ticket            *domain.Ticket     `json:"ticket"`
	ActingUsername    string             `json:"acting_username"`
	InterestedParties []notify.Recipient `json:"interested_parties,omitempty"`
}

// TicketCompletedPayload carries the admin due a completion review.
type TicketCompletedPayload struct {
	Ticket       *domain.Ticket    `json:"ticket"`
	CloseComment string            `json:"close_comment"`
	Reviewer     *notify.Recipient `json:"reviewer,omitempty"`
}

// MaterialRequestedPayload carries the coordinator to notify.
type MaterialRequestedPayload struct {
	Ticket        *domain.Ticket       `json:"ticket"`
	Line          *domain.MaterialLine `json:"line"`
	RequesterName string               `json:"requester_name"`
	Coordinator   *notify.Recipient    `json:"coordinator,omitempty"`
}

// OrderConfirmedPayload records a ticket-level order confirmation.
type OrderConfirmedPayload struct {
	Ticket         *domain.Ticket `json:"ticket"`
	OrderReference *string        `json:"order_reference,omitempty"`
}
