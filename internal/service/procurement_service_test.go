package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/maintenance-service/internal/directory"
	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/events"
)

type procurementFixture struct {
	*ticketFixture
	svc *ProcurementService
	rsc *domain.Actor
}

func newProcurementFixture(t *testing.T) *procurementFixture {
	t.Helper()
	base := newTicketFixture(t)
	f := &procurementFixture{ticketFixture: base}
	f.rsc = base.actors.add(domain.Actor{Username: "rsc-t700", Email: "rsc@plant.example", Role: domain.RoleProcurementCoordinator, Facility: "T-700"})
	f.svc = NewProcurementService(ProcurementDependencies{
		TicketRepo:   base.tickets,
		MaterialRepo: base.materials,
		Resolver:     directory.NewResolver(base.actors),
		Dispatcher:   base.dispatcher,
	})
	return f
}

func (f *procurementFixture) reportWithOrder(t *testing.T) *domain.Ticket {
	t.Helper()
	return f.report(t, f.tech, ReportInput{
		Facility:         "T-700",
		Area:             domain.WorkAreaElectrical,
		System:           "drawworks",
		Description:      "brake band worn",
		OrdererID:        &f.tech.ID,
		MaterialRequired: true,
	})
}

func TestConfirmTicketOrder(t *testing.T) {
	f := newProcurementFixture(t)
	ticket := f.reportWithOrder(t)

	confirmed, err := f.svc.ConfirmTicketOrder(context.Background(), f.tech, ticket.ID, "PO-1234", "2026-09-15")
	require.NoError(t, err)
	assert.True(t, confirmed.OrderConfirmed)
	require.NotNil(t, confirmed.OrderReference)
	assert.Equal(t, "PO-1234", *confirmed.OrderReference)
	require.NotNil(t, confirmed.ExpectedDelivery)
	assert.Equal(t, "2026-09-15", confirmed.ExpectedDelivery.Format("2006-01-02"))
	assert.NotNil(t, confirmed.OrderConfirmedAt)

	require.Len(t, f.dispatcher.byType(events.EventOrderConfirmed), 1)
}

func TestConfirmTicketOrderRequiresExactOrderer(t *testing.T) {
	f := newProcurementFixture(t)
	ticket := f.reportWithOrder(t)

	// Even an administrator is not the designated orderer.
	_, err := f.svc.ConfirmTicketOrder(context.Background(), f.admin, ticket.ID, "PO-1", "")
	assert.Equal(t, "FORBIDDEN", errCode(t, err))

	noOrderer := f.report(t, f.tech, ReportInput{
		Facility: "T-700", Area: domain.WorkAreaElectrical, System: "pump", Description: "leak",
		MaterialRequired: true,
	})
	_, err = f.svc.ConfirmTicketOrder(context.Background(), f.tech, noOrderer.ID, "PO-1", "")
	assert.Equal(t, "CONFLICT", errCode(t, err))

	noMaterial := f.report(t, f.tech, ReportInput{
		Facility: "T-700", Area: domain.WorkAreaElectrical, System: "pump", Description: "leak",
		OrdererID: &f.tech.ID,
	})
	_, err = f.svc.ConfirmTicketOrder(context.Background(), f.tech, noMaterial.ID, "PO-1", "")
	assert.Equal(t, "CONFLICT", errCode(t, err))
}

func TestConfirmTicketOrderAbortsOnBadDate(t *testing.T) {
	f := newProcurementFixture(t)
	ticket := f.reportWithOrder(t)

	_, err := f.svc.ConfirmTicketOrder(context.Background(), f.tech, ticket.ID, "PO-1234", "15.09.2026")
	assert.Equal(t, "VALIDATION_FAILED", errCode(t, err))

	// Nothing was persisted, including the reference.
	stored, getErr := f.tickets.GetByID(context.Background(), ticket.ID)
	require.NoError(t, getErr)
	assert.False(t, stored.OrderConfirmed)
	assert.Nil(t, stored.OrderReference)
	assert.Nil(t, stored.ExpectedDelivery)
}

func TestConfirmTicketOrderIdempotentKeepsReference(t *testing.T) {
	f := newProcurementFixture(t)
	ticket := f.reportWithOrder(t)

	_, err := f.svc.ConfirmTicketOrder(context.Background(), f.tech, ticket.ID, "PO-1234", "2026-09-15")
	require.NoError(t, err)

	// Re-confirming without a new reference keeps the old one.
	again, err := f.svc.ConfirmTicketOrder(context.Background(), f.tech, ticket.ID, "", "")
	require.NoError(t, err)
	assert.True(t, again.OrderConfirmed)
	assert.Equal(t, "PO-1234", *again.OrderReference)
	assert.Equal(t, "2026-09-15", again.ExpectedDelivery.Format("2006-01-02"))
}

func TestAddMaterialLine(t *testing.T) {
	f := newProcurementFixture(t)
	ticket := f.reportWithOrder(t)

	line, warnings, err := f.svc.AddMaterialLine(context.Background(), f.tech, f.tech.ResolvedRole(),
		ticket.ID, MaterialInput{PartCode: "BB-17", Description: "brake band"})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, 1, line.Quantity)
	assert.Equal(t, "piece", line.Unit)
	require.NotNil(t, line.OrdererID)
	assert.Equal(t, f.tech.ID, *line.OrdererID)

	published := f.dispatcher.byType(events.EventMaterialRequested)
	require.Len(t, published, 1)
	payload := published[0].Payload.(events.MaterialRequestedPayload)
	require.NotNil(t, payload.Coordinator)
	assert.Equal(t, "rsc-t700", payload.Coordinator.Username)
	assert.Equal(t, "T700 EL", payload.RequesterName)
}

func TestAddMaterialLineGuards(t *testing.T) {
	f := newProcurementFixture(t)
	ticket := f.reportWithOrder(t)

	_, _, err := f.svc.AddMaterialLine(context.Background(), f.other, f.other.ResolvedRole(),
		ticket.ID, MaterialInput{PartCode: "BB-17", Description: "brake band"})
	assert.Equal(t, "FORBIDDEN", errCode(t, err))

	_, _, err = f.svc.AddMaterialLine(context.Background(), f.tech, f.tech.ResolvedRole(),
		ticket.ID, MaterialInput{PartCode: " ", Description: "brake band"})
	assert.Equal(t, "VALIDATION_FAILED", errCode(t, err))

	_, err = f.ticketFixture.svc.CompleteTicket(context.Background(), f.tech, f.tech.ResolvedRole(), ticket.ID, "done", nil)
	require.NoError(t, err)
	_, err = f.ticketFixture.svc.ConfirmTicketByAdmin(context.Background(), f.admin, f.admin.ResolvedRole(), ticket.ID, "")
	require.NoError(t, err)

	_, _, err = f.svc.AddMaterialLine(context.Background(), f.admin, f.admin.ResolvedRole(),
		ticket.ID, MaterialInput{PartCode: "BB-17", Description: "brake band"})
	assert.Equal(t, "CONFLICT", errCode(t, err))
}

func TestAddMaterialLineFallsBackToAdminCoordinator(t *testing.T) {
	f := newProcurementFixture(t)
	// A facility with no coordinator of its own routes to the first admin.
	ticket := f.report(t, f.admin, ReportInput{
		Facility: "T-800", Area: domain.WorkAreaMechanical, System: "crane", Description: "cable frayed",
	})

	_, warnings, err := f.svc.AddMaterialLine(context.Background(), f.admin, f.admin.ResolvedRole(),
		ticket.ID, MaterialInput{PartCode: "C-9", Description: "hoist cable"})
	require.NoError(t, err)
	assert.Empty(t, warnings)

	published := f.dispatcher.byType(events.EventMaterialRequested)
	require.Len(t, published, 1)
	payload := published[0].Payload.(events.MaterialRequestedPayload)
	require.NotNil(t, payload.Coordinator)
	assert.Equal(t, "admin", payload.Coordinator.Username)
}

func TestConfirmMaterialLine(t *testing.T) {
	f := newProcurementFixture(t)
	ticket := f.reportWithOrder(t)
	line, _, err := f.svc.AddMaterialLine(context.Background(), f.tech, f.tech.ResolvedRole(),
		ticket.ID, MaterialInput{PartCode: "BB-17", Description: "brake band"})
	require.NoError(t, err)

	// Requesting and approving are separate duties.
	_, _, err = f.svc.ConfirmMaterialLine(context.Background(), f.tech, f.tech.ResolvedRole(),
		line.ID, ConfirmMaterialInput{RequisitionRef: "REQ-9"})
	assert.Equal(t, "FORBIDDEN", errCode(t, err))

	confirmed, warnings, err := f.svc.ConfirmMaterialLine(context.Background(), f.rsc, f.rsc.ResolvedRole(),
		line.ID, ConfirmMaterialInput{RequisitionRef: "REQ-9", PurchaseOrderRef: "PO-77", DeliveryDate: "2026-10-01"})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.True(t, confirmed.Ordered)
	assert.NotNil(t, confirmed.OrderedAt)
	assert.Equal(t, "REQ-9", *confirmed.RequisitionRef)
	assert.Equal(t, "PO-77", *confirmed.PurchaseOrderRef)
	assert.Equal(t, "2026-10-01", confirmed.ExpectedDelivery.Format("2006-01-02"))
}

func TestConfirmMaterialLineBadDateKeepsSiblings(t *testing.T) {
	f := newProcurementFixture(t)
	ticket := f.reportWithOrder(t)
	line, _, err := f.svc.AddMaterialLine(context.Background(), f.tech, f.tech.ResolvedRole(),
		ticket.ID, MaterialInput{PartCode: "BB-17", Description: "brake band"})
	require.NoError(t, err)

	confirmed, warnings, err := f.svc.ConfirmMaterialLine(context.Background(), f.rsc, f.rsc.ResolvedRole(),
		line.ID, ConfirmMaterialInput{RequisitionRef: "REQ-9", PurchaseOrderRef: "PO-77", DeliveryDate: "next tuesday"})
	require.NoError(t, err)
	require.Len(t, warnings, 1)

	// The malformed date yields a warning; everything else persists.
	assert.True(t, confirmed.Ordered)
	assert.Equal(t, "REQ-9", *confirmed.RequisitionRef)
	assert.Equal(t, "PO-77", *confirmed.PurchaseOrderRef)
	assert.Nil(t, confirmed.ExpectedDelivery)

	stored, getErr := f.materials.GetByID(context.Background(), line.ID)
	require.NoError(t, getErr)
	assert.True(t, stored.Ordered)
	assert.Equal(t, "PO-77", *stored.PurchaseOrderRef)
}

func TestUpdateMaterialField(t *testing.T) {
	f := newProcurementFixture(t)
	ticket := f.reportWithOrder(t)
	line, _, err := f.svc.AddMaterialLine(context.Background(), f.tech, f.tech.ResolvedRole(),
		ticket.ID, MaterialInput{PartCode: "BB-17", Description: "brake band"})
	require.NoError(t, err)

	updated, err := f.svc.UpdateMaterialField(context.Background(), f.rsc, f.rsc.ResolvedRole(),
		line.ID, FieldRequisitionRef, "REQ-1")
	require.NoError(t, err)
	assert.Equal(t, "REQ-1", *updated.RequisitionRef)

	updated, err = f.svc.UpdateMaterialField(context.Background(), f.rsc, f.rsc.ResolvedRole(),
		line.ID, FieldDeliveryDate, "2026-11-20")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 11, 20, 0, 0, 0, 0, time.UTC), updated.ExpectedDelivery.UTC())

	// An empty value clears the field.
	updated, err = f.svc.UpdateMaterialField(context.Background(), f.rsc, f.rsc.ResolvedRole(),
		line.ID, FieldDeliveryDate, "")
	require.NoError(t, err)
	assert.Nil(t, updated.ExpectedDelivery)

	_, err = f.svc.UpdateMaterialField(context.Background(), f.rsc, f.rsc.ResolvedRole(),
		line.ID, FieldDeliveryDate, "soon")
	assert.Equal(t, "VALIDATION_FAILED", errCode(t, err))

	_, err = f.svc.UpdateMaterialField(context.Background(), f.rsc, f.rsc.ResolvedRole(),
		line.ID, "supplier_phone", "555")
	assert.Equal(t, "VALIDATION_FAILED", errCode(t, err))

	_, err = f.svc.UpdateMaterialField(context.Background(), f.tech, f.tech.ResolvedRole(),
		line.ID, FieldRequisitionRef, "REQ-2")
	assert.Equal(t, "FORBIDDEN", errCode(t, err))
}

func TestDeleteMaterialLine(t *testing.T) {
	f := newProcurementFixture(t)
	ticket := f.reportWithOrder(t)
	line, _, err := f.svc.AddMaterialLine(context.Background(), f.tech, f.tech.ResolvedRole(),
		ticket.ID, MaterialInput{PartCode: "BB-17", Description: "brake band"})
	require.NoError(t, err)

	err = f.svc.DeleteMaterialLine(context.Background(), f.other, f.other.ResolvedRole(), line.ID)
	assert.Equal(t, "FORBIDDEN", errCode(t, err))

	err = f.svc.DeleteMaterialLine(context.Background(), f.tech, f.tech.ResolvedRole(), line.ID)
	require.NoError(t, err)

	lines, err := f.svc.ListMaterials(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestListMaterialsUnknownTicket(t *testing.T) {
	f := newProcurementFixture(t)
	_, err := f.svc.ListMaterials(context.Background(), "missing")
	assert.Equal(t, "NOT_FOUND", errCode(t, err))
}

func TestAddMaterialLineResolvesCoordinatorAcrossFacilityCodeVariants(t *testing.T) {
	f := newProcurementFixture(t)
	// "t 700" is the same site as the coordinator's "T-700" binding;
	// the request must reach the facility's own coordinator instead of
	// falling back to the first administrator.
	ticket := f.report(t, f.tech, ReportInput{
		Facility:         "t 700",
		Area:             domain.WorkAreaElectrical,
		System:           "drawworks",
		Description:      "brake band worn",
		OrdererID:        &f.tech.ID,
		MaterialRequired: true,
	})

	_, warnings, err := f.svc.AddMaterialLine(context.Background(), f.tech, f.tech.ResolvedRole(),
		ticket.ID, MaterialInput{PartCode: "BB-17", Description: "brake band"})
	require.NoError(t, err)
	assert.Empty(t, warnings)

	published := f.dispatcher.byType(events.EventMaterialRequested)
	require.Len(t, published, 1)
	payload := published[0].Payload.(events.MaterialRequestedPayload)
	require.NotNil(t, payload.Coordinator)
	assert.Equal(t, "rsc-t700", payload.Coordinator.Username)
}
