package handlers

import (
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/maintenance-service/internal/api/dto"
	"github.com/spec-kit/maintenance-service/internal/auth"
	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/repository"
	"github.com/spec-kit/maintenance-service/internal/service"
)

// TicketsHandler exposes the ticket lifecycle endpoints.
type TicketsHandler struct {
	tickets *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets}
}

// Report handles POST /tickets. Accepts JSON or multipart form data;
// problem images ride along as multipart files under "images".
func (h *TicketsHandler) Report(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}

	var req dto.ReportTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	images, err := readUploads(c)
	if err != nil {
		return err
	}

	ticket, err := h.tickets.ReportTicket(c.Context(), principal.Actor, principal.Role, service.ReportInput{
		Facility:         req.Facility,
		Area:             req.Area,
		System:           req.System,
		Description:      req.Description,
		OrdererID:        req.OrdererID,
		MaterialRequired: req.MaterialRequired,
		Images:           images,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.TicketResponseFrom(ticket)})
}

// List handles GET /tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	var query dto.TicketListQuery
	if err := c.QueryParser(&query); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid query")
	}
	filter, err := buildFilter(query)
	if err != nil {
		return err
	}

	tickets, err := h.tickets.ListActive(c.Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketListFrom(tickets)})
}

// Dashboard handles GET /tickets/dashboard.
func (h *TicketsHandler) Dashboard(c *fiber.Ctx) error {
	stats, err := h.tickets.Dashboard(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.DashboardResponseFrom(stats)})
}

// Get handles GET /tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	ticket, lines, err := h.tickets.GetTicket(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"ticket":    dto.TicketResponseFrom(ticket),
		"materials": dto.MaterialListFrom(lines),
	}})
}

// Claim handles POST /tickets/:id/claim.
func (h *TicketsHandler) Claim(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}

	var req dto.ClaimTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	ticket, err := h.tickets.ClaimTicket(c.Context(), principal.Actor, principal.Role,
		c.Params("id"), req.RemediationNotes, req.InterestedParties)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketResponseFrom(ticket)})
}

// Progress handles POST /tickets/:id/progress.
func (h *TicketsHandler) Progress(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}

	var req dto.ProgressUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	ticket, err := h.tickets.AddProgressUpdate(c.Context(), principal.Actor, principal.Role,
		c.Params("id"), req.Text)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketResponseFrom(ticket)})
}

// Complete handles POST /tickets/:id/complete.
func (h *TicketsHandler) Complete(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}

	var req dto.FinishTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	images, err := readUploads(c)
	if err != nil {
		return err
	}

	ticket, err := h.tickets.CompleteTicket(c.Context(), principal.Actor, principal.Role,
		c.Params("id"), req.Comment, images)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketResponseFrom(ticket)})
}

// Confirm handles POST /tickets/:id/confirm. Administrators only.
func (h *TicketsHandler) Confirm(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}

	var req dto.FinishTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	ticket, err := h.tickets.ConfirmTicketByAdmin(c.Context(), principal.Actor, principal.Role,
		c.Params("id"), req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketResponseFrom(ticket)})
}

// Finish handles POST /tickets/:id/finish, the legacy single entry
// point kept for old clients.
func (h *TicketsHandler) Finish(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}

	var req dto.FinishTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	images, err := readUploads(c)
	if err != nil {
		return err
	}

	ticket, err := h.tickets.FinishTicket(c.Context(), principal.Actor, principal.Role,
		c.Params("id"), req.Comment, images)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketResponseFrom(ticket)})
}

// History handles GET /history. Administrators only.
func (h *TicketsHandler) History(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}

	var query dto.TicketListQuery
	if err := c.QueryParser(&query); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid query")
	}
	filter, err := buildFilter(query)
	if err != nil {
		return err
	}

	tickets, err := h.tickets.ListHistory(c.Context(), principal.Role, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketListFrom(tickets)})
}

// Delete handles DELETE /history/:id. Administrators only.
func (h *TicketsHandler) Delete(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}

	if err := h.tickets.DeleteFromHistory(c.Context(), principal.Actor, principal.Role, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// BulkDelete handles POST /history/bulk-delete. Administrators only.
func (h *TicketsHandler) BulkDelete(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}

	var req dto.BulkDeleteRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	deleted, warnings, err := h.tickets.BulkDeleteFromHistory(c.Context(), principal.Actor, principal.Role, req.TicketIDs)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"deleted":  deleted,
		"warnings": warnings,
	}})
}

func requirePrincipal(c *fiber.Ctx) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}
	return principal, nil
}

// readUploads collects multipart files sent under "images". JSON
// requests simply carry none.
func readUploads(c *fiber.Ctx) ([]service.ImageUpload, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, fiber.NewError(http.StatusBadRequest, "invalid multipart form")
	}
	var uploads []service.ImageUpload
	for _, header := range form.File["images"] {
		data, err := readUpload(header)
		if err != nil {
			return nil, fiber.NewError(http.StatusBadRequest, "unreadable upload "+header.Filename)
		}
		uploads = append(uploads, service.ImageUpload{FileName: header.Filename, Data: data})
	}
	return uploads, nil
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

func buildFilter(query dto.TicketListQuery) (repository.TicketFilter, error) {
	filter := repository.TicketFilter{Limit: query.Limit}
	if facility := strings.TrimSpace(query.Facility); facility != "" {
		filter.Facility = &facility
	}
	if query.Area != "" {
		area := domain.WorkArea(strings.ToUpper(query.Area))
		if !domain.ValidWorkArea(area) {
			return filter, fiber.NewError(http.StatusBadRequest, "unknown work area")
		}
		filter.Area = &area
	}
	if query.Status != "" {
		status := domain.TicketStatus(strings.ToUpper(query.Status))
		filter.Status = &status
	}
	if query.ChangedFrom != "" {
		from, err := time.Parse("2006-01-02", query.ChangedFrom)
		if err != nil {
			return filter, fiber.NewError(http.StatusBadRequest, "invalid changed_from date")
		}
		filter.ChangedFrom = &from
	}
	if query.ChangedTo != "" {
		to, err := time.Parse("2006-01-02", query.ChangedTo)
		if err != nil {
			return filter, fiber.NewError(http.StatusBadRequest, "invalid changed_to date")
		}
		// inclusive day bound
		end := to.Add(24*time.Hour - time.Nanosecond)
		filter.ChangedTo = &end
	}
	if search := strings.TrimSpace(query.Search); search != "" {
		filter.SearchTerm = &search
	}
	return filter, nil
}
