package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// Recipient identifies a notification target. Recipients without an
// email address are skipped before delivery is attempted.
type Recipient struct {
	ActorID  string `json:"actor_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// RecipientOf builds a recipient from an actor.
func RecipientOf(actor *domain.Actor) Recipient {
	if actor == nil {
		return Recipient{}
	}
	return Recipient{ActorID: actor.ID, Username: actor.Username, Email: actor.Email}
}

// Notifier delivers lifecycle and procurement notifications. The core
// decides whether and to whom a notification is due; delivery itself is
// an external concern and any failure is non-fatal to the mutation that
// triggered it.
type Notifier interface {
	SendAssignment(ctx context.Context, recipient Recipient, ticket *domain.Ticket) error
	SendInterestedPartyUpdate(ctx context.Context, recipient Recipient, ticket *domain.Ticket, actingUsername string) error
	SendProcurementRequest(ctx context.Context, coordinator Recipient, ticket *domain.Ticket, line *domain.MaterialLine, requesterName string) error
	SendCompletionReview(ctx context.Context, admin Recipient, ticket *domain.Ticket, comment string) error
}

// LogNotifier is the default Notifier: it records each would-be
// delivery in the structured log. Real transports plug in behind the
// same interface.
type LogNotifier struct {
	logger    *zap.Logger
	emailFrom string
}

// NewLogNotifier constructs the logging notifier.
func NewLogNotifier(logger *zap.Logger, emailFrom string) *LogNotifier {
	return &LogNotifier{logger: logger, emailFrom: emailFrom}
}

func (n *LogNotifier) SendAssignment(ctx context.Context, recipient Recipient, ticket *domain.Ticket) error {
	n.log("assignment", recipient, ticket.ID,
		zap.String("facility", ticket.Facility),
		zap.String("system", ticket.System))
	return nil
}

func (n *LogNotifier) SendInterestedPartyUpdate(ctx context.Context, recipient Recipient, ticket *domain.Ticket, actingUsername string) error {
	n.log("interested_party_update", recipient, ticket.ID,
		zap.String("acting_username", actingUsername))
	return nil
}

func (n *LogNotifier) SendProcurementRequest(ctx context.Context, coordinator Recipient, ticket *domain.Ticket, line *domain.MaterialLine, requesterName string) error {
	n.log("procurement_request", coordinator, ticket.ID,
		zap.String("part_code", line.PartCode),
		zap.Int("quantity", line.Quantity),
		zap.String("requester", requesterName))
	return nil
}

func (n *LogNotifier) SendCompletionReview(ctx context.Context, admin Recipient, ticket *domain.Ticket, comment string) error {
	n.log("completion_review", admin, ticket.ID,
		zap.String("comment", comment))
	return nil
}

func (n *LogNotifier) log(kind string, recipient Recipient, ticketID string, fields ...zap.Field) {
	base := []zap.Field{
		zap.String("kind", kind),
		zap.String("ticket_id", ticketID),
		zap.String("recipient", recipient.Username),
		zap.String("email", recipient.Email),
		zap.String("from", n.emailFrom),
	}
	n.logger.Info("notification", append(base, fields...)...)
}
