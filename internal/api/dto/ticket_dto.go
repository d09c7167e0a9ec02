package dto

import (
	"time"

	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/repository"
)

// ReportTicketRequest payload.
type ReportTicketRequest struct {
	Facility         string          `json:"facility"`
	Area             domain.WorkArea `json:"area"`
	System           string          `json:"system"`
	Description      string          `json:"description"`
	OrdererID        *string         `json:"orderer_id"`
	MaterialRequired bool            `json:"material_required"`
}

// ClaimTicketRequest payload.
type ClaimTicketRequest struct {
	RemediationNotes  string   `json:"remediation_notes"`
	InterestedParties []string `json:"interested_parties"`
}

// ProgressUpdateRequest payload.
type ProgressUpdateRequest struct {
	Text string `json:"text"`
}

// FinishTicketRequest payload, shared by the complete, confirm and
// legacy finish endpoints.
type FinishTicketRequest struct {
	Comment string `json:"comment"`
}

// BulkDeleteRequest payload.
type BulkDeleteRequest struct {
	TicketIDs []string `json:"ticket_ids"`
}

// TicketListQuery captures listing filters from the query string.
type TicketListQuery struct {
	Facility    string `query:"facility"`
	Area        string `query:"area"`
	Status      string `query:"status"`
	ChangedFrom string `query:"changed_from"`
	ChangedTo   string `query:"changed_to"`
	Search      string `query:"search"`
	Limit       int    `query:"limit"`
}

// TicketResponse is the full wire form of a ticket.
type TicketResponse struct {
	ID               string                  `json:"id"`
	Facility         string                  `json:"facility"`
	Area             domain.WorkArea         `json:"area"`
	System           string                  `json:"system"`
	Description      string                  `json:"description"`
	Status           domain.TicketStatus     `json:"status"`
	StatusChangedAt  time.Time               `json:"status_changed_at"`
	AssigneeID       *string                 `json:"assignee_id,omitempty"`
	ResponsibleName  *string                 `json:"responsible_name,omitempty"`
	RemediationNotes string                  `json:"remediation_notes,omitempty"`
	ProgressUpdates  []domain.ProgressUpdate `json:"progress_updates,omitempty"`
	Images           []string                `json:"images,omitempty"`
	MaterialRequired bool                    `json:"material_required"`
	OrdererID        *string                 `json:"orderer_id,omitempty"`
	OrderConfirmed   bool                    `json:"order_confirmed"`
	OrderReference   *string                 `json:"order_reference,omitempty"`
	ExpectedDelivery *time.Time              `json:"expected_delivery,omitempty"`
	CloseComment     *string                 `json:"close_comment,omitempty"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
}

// TicketResponseFrom maps a domain ticket.
func TicketResponseFrom(ticket *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:               ticket.ID,
		Facility:         ticket.Facility,
		Area:             ticket.Area,
		System:           ticket.System,
		Description:      ticket.Description,
		Status:           ticket.Status,
		StatusChangedAt:  ticket.StatusChangedAt,
		AssigneeID:       ticket.AssigneeID,
		ResponsibleName:  ticket.ResponsibleName,
		RemediationNotes: ticket.RemediationNotes,
		ProgressUpdates:  ticket.ProgressUpdates,
		Images:           ticket.Images,
		MaterialRequired: ticket.MaterialRequired,
		OrdererID:        ticket.OrdererID,
		OrderConfirmed:   ticket.OrderConfirmed,
		OrderReference:   ticket.OrderReference,
		ExpectedDelivery: ticket.ExpectedDelivery,
		CloseComment:     ticket.CloseComment,
		CreatedAt:        ticket.CreatedAt,
		UpdatedAt:        ticket.UpdatedAt,
	}
}

// TicketListFrom maps a slice of tickets.
func TicketListFrom(tickets []domain.Ticket) []TicketResponse {
	result := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		result = append(result, TicketResponseFrom(&tickets[i]))
	}
	return result
}

// DashboardResponse mirrors the aggregate counters.
type DashboardResponse struct {
	ActiveTotal      int64            `json:"active_total"`
	ReportedCount    int64            `json:"reported_count"`
	InProgressCount  int64            `json:"in_progress_count"`
	ArchivedCount    int64            `json:"archived_count"`
	ByFacility       map[string]int64 `json:"by_facility"`
	ByArea           map[string]int64 `json:"by_area"`
	CriticalCount    int64            `json:"critical_count"`
	ActiveWithImages int64            `json:"active_with_images"`
}

// DashboardResponseFrom maps repository stats.
func DashboardResponseFrom(stats *repository.DashboardStats) DashboardResponse {
	return DashboardResponse{
		ActiveTotal:      stats.ActiveTotal,
		ReportedCount:    stats.ReportedCount,
		InProgressCount:  stats.InProgressCount,
		ArchivedCount:    stats.ArchivedCount,
		ByFacility:       stats.ByFacility,
		ByArea:           stats.ByArea,
		CriticalCount:    stats.CriticalCount,
		ActiveWithImages: stats.ActiveWithImages,
	}
}
