package dto

import (
	"time"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// AddMaterialRequest payload.
type AddMaterialRequest struct {
	PartCode    string `json:"part_code"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	Unit        string `json:"unit"`
}

// ConfirmMaterialRequest payload.
type ConfirmMaterialRequest struct {
	RequisitionRef   string `json:"requisition_ref"`
	PurchaseOrderRef string `json:"purchase_order_ref"`
	DeliveryDate     string `json:"delivery_date"`
}

// UpdateMaterialFieldRequest patches a single order field.
type UpdateMaterialFieldRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// ConfirmOrderRequest payload for the ticket-level order confirmation.
type ConfirmOrderRequest struct {
	OrderReference string `json:"order_reference"`
	DeliveryDate   string `json:"delivery_date"`
}

// MaterialLineResponse wire form.
type MaterialLineResponse struct {
	ID               string     `json:"id"`
	TicketID         string     `json:"ticket_id"`
	PartCode         string     `json:"part_code"`
	Description      string     `json:"description"`
	Quantity         int        `json:"quantity"`
	Unit             string     `json:"unit"`
	OrdererID        *string    `json:"orderer_id,omitempty"`
	Ordered          bool       `json:"ordered"`
	OrderedAt        *time.Time `json:"ordered_at,omitempty"`
	RequisitionRef   *string    `json:"requisition_ref,omitempty"`
	PurchaseOrderRef *string    `json:"purchase_order_ref,omitempty"`
	ExpectedDelivery *time.Time `json:"expected_delivery,omitempty"`
	Cost             *float64   `json:"cost,omitempty"`
	Supplier         *string    `json:"supplier,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// MaterialLineResponseFrom maps a domain line.
func MaterialLineResponseFrom(line *domain.MaterialLine) MaterialLineResponse {
	return MaterialLineResponse{
		ID:               line.ID,
		TicketID:         line.TicketID,
		PartCode:         line.PartCode,
		Description:      line.Description,
		Quantity:         line.Quantity,
		Unit:             line.Unit,
		OrdererID:        line.OrdererID,
		Ordered:          line.Ordered,
		OrderedAt:        line.OrderedAt,
		RequisitionRef:   line.RequisitionRef,
		PurchaseOrderRef: line.PurchaseOrderRef,
		ExpectedDelivery: line.ExpectedDelivery,
		Cost:             line.Cost,
		Supplier:         line.Supplier,
		CreatedAt:        line.CreatedAt,
	}
}

// MaterialListFrom maps a slice of lines.
func MaterialListFrom(lines []domain.MaterialLine) []MaterialLineResponse {
	result := make([]MaterialLineResponse, 0, len(lines))
	for i := range lines {
		result = append(result, MaterialLineResponseFrom(&lines[i]))
	}
	return result
}
