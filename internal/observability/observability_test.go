package observability

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
)

func TestNewLoggerWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "helpdesk.log")
	logger, err := NewLogger(config.LoggerConfig{Level: "debug", FilePath: path, FileMaxSizeMB: 1})
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	if !logger.Core().Enabled(zap.DebugLevel) {
		t.Error("debug level should be enabled")
	}
}

func TestNewLoggerBadLevelFallsBack(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "shouting"})
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	if logger.Core().Enabled(zap.DebugLevel) || !logger.Core().Enabled(zap.InfoLevel) {
		t.Error("unknown level should fall back to info")
	}
}

func TestRequestLoggerRecordsMetrics(t *testing.T) {
	metrics := NewMetrics()
	app := fiber.New()
	app.Use(RequestLogger(zap.NewNop(), metrics))
	app.Get("/tickets/:id", func(c *fiber.Ctx) error {
		if c.Params("id") == "missing" {
			return fiber.NewError(fiber.StatusNotFound, "nope")
		}
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/metrics", metrics.Handler())

	for _, path := range []string{"/tickets/1", "/tickets/missing"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		if err != nil {
			t.Fatalf("app.Test() error = %v", err)
		}
		resp.Body.Close()
	}

	if got := testutil.ToFloat64(metrics.requestCount.WithLabelValues("/tickets/:id", "GET", "200")); got != 1 {
		t.Errorf("200 count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.requestCount.WithLabelValues("/tickets/:id", "GET", "404")); got != 1 {
		t.Errorf("404 count = %v, want 1", got)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if err != nil {
		t.Fatalf("metrics scrape error = %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "helpdesk_http_requests_total") {
		t.Error("scrape output missing request counter")
	}
}

func TestTrackEvents(t *testing.T) {
	metrics := NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(nil)
	metrics.TrackEvents(dispatcher)

	_ = dispatcher.Publish(context.Background(), events.Event{Type: events.EventTicketAssigned})
	_ = dispatcher.Publish(context.Background(), events.Event{Type: events.EventTicketAssigned})

	if got := testutil.ToFloat64(metrics.ticketEvents.WithLabelValues("ticket_assigned")); got != 2 {
		t.Errorf("ticket_assigned = %v, want 2", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, 0)
	m.RecordError("/", "GET", "NOT_FOUND")
	m.TrackEvents(nil)
}
