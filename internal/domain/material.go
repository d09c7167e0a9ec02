package domain

import "time"

// MaterialLine is one requested part or material entry owned by a ticket.
// Attaching a line and approving its purchase are separate duties: any
// facility-authorized actor may attach, only the facility's procurement
// coordinator (or an administrator) may set the order fields.
type MaterialLine struct {
	ID          string
	TicketID    string
	PartCode    string
	Description string
	Quantity    int
	Unit        string
	OrdererID   *string

	Ordered          bool
	OrderedAt        *time.Time
	RequisitionRef   *string
	PurchaseOrderRef *string
	ExpectedDelivery *time.Time
	Cost             *float64
	Supplier         *string

	CreatedAt time.Time
}
