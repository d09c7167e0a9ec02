package domain

import "time"

// TicketStatus enumerates lifecycle states for maintenance tickets.
type TicketStatus string

const (
	TicketStatusReported   TicketStatus = "REPORTED"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusCompleted  TicketStatus = "COMPLETED"
	TicketStatusConfirmed  TicketStatus = "CONFIRMED"
)

// ProgressUpdate is one append-only work log entry on a ticket.
type ProgressUpdate struct {
	Text      string    `json:"text"`
	Author    string    `json:"author"`
	Timestamp time.Time `json:"timestamp"`
}

// Ticket is the aggregate for one reported maintenance problem.
type Ticket struct {
	ID              string
	Facility        string
	Area            WorkArea
	System          string
	Description     string
	Status          TicketStatus
	StatusChangedAt time.Time
	AssigneeID      *string
	// ResponsibleName is a denormalized display name kept for
	// compatibility with the legacy schema.
	ResponsibleName  *string
	RemediationNotes string
	ProgressUpdates  []ProgressUpdate
	Images           []string

	MaterialRequired bool
	OrdererID        *string
	OrderConfirmed   bool
	OrderReference   *string
	ExpectedDelivery *time.Time
	OrderConfirmedAt *time.Time

	CloseComment *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

var allowedTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusReported:   {TicketStatusInProgress, TicketStatusCompleted},
	TicketStatusInProgress: {TicketStatusInProgress, TicketStatusCompleted},
	TicketStatusCompleted:  {TicketStatusConfirmed},
	TicketStatusConfirmed:  {},
}

// ValidTransition reports whether a ticket may move between the two states.
// Claiming an InProgress ticket again is allowed; Confirmed is terminal.
func ValidTransition(current, next TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Archived reports whether the ticket left the active listing.
func (t *Ticket) Archived() bool {
	return t.Status == TicketStatusCompleted || t.Status == TicketStatusConfirmed
}

// ArchivedStatuses are the states shown in history instead of the
// active listing.
var ArchivedStatuses = []TicketStatus{TicketStatusCompleted, TicketStatusConfirmed}
