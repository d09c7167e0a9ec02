package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-service/internal/events"
	"github.com/spec-kit/maintenance-service/internal/notify"
)

// NotificationService bridges domain events to the notifier. It holds
// no repository access: every event payload already carries the
// resolved recipients, so delivery needs no further lookups.
type NotificationService struct {
	notifier notify.Notifier
	logger   *zap.Logger
}

// NewNotificationService constructs the service.
func NewNotificationService(notifier notify.Notifier, logger *zap.Logger) *NotificationService {
	return &NotificationService{notifier: notifier, logger: logger}
}

// RegisterHandlers subscribes the service to the events it delivers for.
func (s *NotificationService) RegisterHandlers(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventTicketReported, s.onTicketReported)
	dispatcher.Subscribe(events.EventTicketClaimed, s.onTicketClaimed)
	dispatcher.Subscribe(events.EventTicketCompleted, s.onTicketCompleted)
	dispatcher.Subscribe(events.EventMaterialRequested, s.onMaterialRequested)
}

func (s *NotificationService) onTicketReported(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketReportedPayload)
	if !ok {
		return nil
	}
	if payload.Assignee == nil || payload.Assignee.Email == "" {
		return nil
	}
	if err := s.notifier.SendAssignment(ctx, *payload.Assignee, payload.Ticket); err != nil {
		s.logDeliveryFailure("assignment", event, *payload.Assignee, err)
	}
	return nil
}

func (s *NotificationService) onTicketClaimed(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketClaimedPayload)
	if !ok {
		return nil
	}
	for _, recipient := range payload.InterestedParties {
		if recipient.Email == "" {
			continue
		}
		if err := s.notifier.SendInterestedPartyUpdate(ctx, recipient, payload.Ticket, payload.ActingUsername); err != nil {
			s.logDeliveryFailure("interested_party_update", event, recipient, err)
		}
	}
	return nil
}

func (s *NotificationService) onTicketCompleted(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCompletedPayload)
	if !ok {
		return nil
	}
	if payload.Reviewer == nil || payload.Reviewer.Email == "" {
		return nil
	}
	if err := s.notifier.SendCompletionReview(ctx, *payload.Reviewer, payload.Ticket, payload.CloseComment); err != nil {
		s.logDeliveryFailure("completion_review", event, *payload.Reviewer, err)
	}
	return nil
}

func (s *NotificationService) onMaterialRequested(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.MaterialRequestedPayload)
	if !ok {
		return nil
	}
	if payload.Coordinator == nil || payload.Coordinator.Email == "" {
		return nil
	}
	if err := s.notifier.SendProcurementRequest(ctx, *payload.Coordinator, payload.Ticket, payload.Line, payload.RequesterName); err != nil {
		s.logDeliveryFailure("procurement_request", event, *payload.Coordinator, err)
	}
	return nil
}

func (s *NotificationService) logDeliveryFailure(kind string, event events.Event, recipient notify.Recipient, err error) {
	s.logger.Warn("notification delivery failed",
		zap.String("kind", kind),
		zap.String("ticket_id", event.TicketID),
		zap.String("recipient", recipient.Username),
		zap.Error(err))
}
