package http

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/maintenance-service/internal/observability"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util"
)

func TestRequestLoggerRecordsRenderedErrorStatus(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	metrics := observability.NewMetrics()

	app := fiber.New()
	RegisterMiddlewares(app, zap.New(core), metrics, 0)
	app.Get("/tickets/missing", func(c *fiber.Ctx) error {
		return apperrors.NewNotFound("ticket", nil)
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/tickets/missing", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("status = %d, want %d", resp.StatusCode, fiber.StatusNotFound)
	}

	// The logger wraps the error handler, so the log line and the
	// request counter carry the status of the rendered error envelope.
	entries := logs.FilterMessage("request").All()
	if len(entries) != 1 {
		t.Fatalf("expected one request log entry, got %d", len(entries))
	}
	if status, ok := entries[0].ContextMap()["status"].(int64); !ok || status != int64(fiber.StatusNotFound) {
		t.Errorf("logged status = %v, want %d", entries[0].ContextMap()["status"], fiber.StatusNotFound)
	}

	requests, _ := metrics.Snapshot()
	if requests["/tickets/missing|GET|404"] != 1 {
		t.Errorf("request counters = %v, want one 404 entry", requests)
	}
	if requests["/tickets/missing|GET|200"] != 0 {
		t.Error("failed request counted as 200")
	}
}

func TestRequestLoggerRecordsSuccessStatus(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	metrics := observability.NewMetrics()

	app := fiber.New()
	RegisterMiddlewares(app, zap.New(core), metrics, 0)
	app.Get("/health/live", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/health/live", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, fiber.StatusOK)
	}

	entries := logs.FilterMessage("request").All()
	if len(entries) != 1 {
		t.Fatalf("expected one request log entry, got %d", len(entries))
	}
	requests, _ := metrics.Snapshot()
	if requests["/health/live|GET|200"] != 1 {
		t.Errorf("request counters = %v, want one 200 entry", requests)
	}
}
