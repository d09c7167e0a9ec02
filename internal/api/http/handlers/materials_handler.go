package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/maintenance-service/internal/api/dto"
	"github.com/spec-kit/maintenance-service/internal/service"
)

// MaterialsHandler exposes the procurement endpoints.
type MaterialsHandler struct {
	procurement *service.ProcurementService
}

// NewMaterialsHandler constructs handler.
func NewMaterialsHandler(procurement *service.ProcurementService) *MaterialsHandler {
	return &MaterialsHandler{procurement: procurement}
}

// List handles GET /tickets/:id/materials.
func (h *MaterialsHandler) List(c *fiber.Ctx) error {
	lines, err := h.procurement.ListMaterials(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.MaterialListFrom(lines)})
}

// Add handles POST /tickets/:id/materials.
func (h *MaterialsHandler) Add(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}

	var req dto.AddMaterialRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	line, warnings, err := h.procurement.AddMaterialLine(c.Context(), principal.Actor, principal.Role,
		c.Params("id"), service.MaterialInput{
			PartCode:    req.PartCode,
			Description: req.Description,
			Quantity:    req.Quantity,
			Unit:        req.Unit,
		})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{
		"material": dto.MaterialLineResponseFrom(line),
		"warnings": warnings,
	}})
}

// Confirm handles POST /materials/:id/confirm.
func (h *MaterialsHandler) Confirm(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}

	var req dto.ConfirmMaterialRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	line, warnings, err := h.procurement.ConfirmMaterialLine(c.Context(), principal.Actor, principal.Role,
		c.Params("id"), service.ConfirmMaterialInput{
			RequisitionRef:   req.RequisitionRef,
			PurchaseOrderRef: req.PurchaseOrderRef,
			DeliveryDate:     req.DeliveryDate,
		})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"material": dto.MaterialLineResponseFrom(line),
		"warnings": warnings,
	}})
}

// UpdateField handles PATCH /materials/:id.
func (h *MaterialsHandler) UpdateField(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}

	var req dto.UpdateMaterialFieldRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	line, err := h.procurement.UpdateMaterialField(c.Context(), principal.Actor, principal.Role,
		c.Params("id"), req.Field, req.Value)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.MaterialLineResponseFrom(line)})
}

// Delete handles DELETE /materials/:id.
func (h *MaterialsHandler) Delete(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}

	if err := h.procurement.DeleteMaterialLine(c.Context(), principal.Actor, principal.Role, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ConfirmOrder handles POST /tickets/:id/order/confirm, the legacy
// ticket-level confirmation.
func (h *MaterialsHandler) ConfirmOrder(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}

	var req dto.ConfirmOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	ticket, err := h.procurement.ConfirmTicketOrder(c.Context(), principal.Actor,
		c.Params("id"), req.OrderReference, req.DeliveryDate)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketResponseFrom(ticket)})
}
