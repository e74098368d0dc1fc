package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/baldwinboy/neuromancers-community-platform/internal/models"
	"github.com/baldwinboy/neuromancers-community-platform/internal/services"
)

type stubAvailabilityService struct {
	window *models.PeerSessionAvailability
	slots  []services.Interval
	err    error

	lastActorID        int64
	lastRole           string
	lastInput          services.CreateAvailabilityInput
	lastSessionID      uuid.UUID
	lastAvailabilityID uuid.UUID
}

func (s *stubAvailabilityService) CreateAvailability(ctx context.Context, actorID int64, role string, input services.CreateAvailabilityInput) (*models.PeerSessionAvailability, error) {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastInput = input
	return s.window, s.err
}

func (s *stubAvailabilityService) DeleteAvailability(ctx context.Context, actorID int64, role string, sessionID, availabilityID uuid.UUID) error {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastSessionID = sessionID
	s.lastAvailabilityID = availabilityID
	return s.err
}

func (s *stubAvailabilityService) AvailableSlots(ctx context.Context, sessionID uuid.UUID) ([]services.Interval, error) {
	s.lastSessionID = sessionID
	return s.slots, s.err
}

func availabilityTestApp(handler *AvailabilityHandler, userID int64, role string) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", userID)
		c.Locals("role", role)
		return c.Next()
	})
	app.Post("/peer-sessions/:id/availability", handler.CreateAvailability)
	app.Delete("/peer-sessions/:id/availability/:availabilityId", handler.DeleteAvailability)
	app.Get("/peer-sessions/:id/slots", handler.ListSlots)
	return app
}

func TestCreateAvailabilitySuccess(t *testing.T) {
	service := &stubAvailabilityService{window: &models.PeerSessionAvailability{}}
	handler := &AvailabilityHandler{service: service}
	app := availabilityTestApp(handler, 42, models.RolePeer)

	sessionID := uuid.New()
	body := `{
		"starts_at": "2026-09-07T09:00:00Z",
		"ends_at": "2026-09-07T10:00:00Z",
		"occurrence": "weekly",
		"occurrence_ends_at": "2026-12-07T00:00:00Z"
	}`
	req := httptest.NewRequest("POST", "/peer-sessions/"+sessionID.String()+"/availability", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to test request: %v", err)
	}
	if resp.StatusCode != fiber.StatusCreated {
		t.Errorf("Expected status 201, got %d", resp.StatusCode)
	}
	if service.lastInput.SessionID != sessionID {
		t.Errorf("Expected session id forwarded, got %v", service.lastInput.SessionID)
	}
	if service.lastInput.Occurrence == nil || *service.lastInput.Occurrence != models.OccurrenceWeekly {
		t.Errorf("Expected weekly occurrence forwarded, got %v", service.lastInput.Occurrence)
	}
	if service.lastInput.OccurrenceEndsAt == nil {
		t.Errorf("Expected occurrence end forwarded")
	}
	if service.lastInput.OccurrenceStartsAt != nil {
		t.Errorf("Expected absent occurrence start to stay nil, got %v", service.lastInput.OccurrenceStartsAt)
	}
}

func TestCreateAvailabilityBadOccurrenceTimestamp(t *testing.T) {
	service := &stubAvailabilityService{}
	handler := &AvailabilityHandler{service: service}
	app := availabilityTestApp(handler, 42, models.RolePeer)

	body := `{
		"starts_at": "2026-09-07T09:00:00Z",
		"ends_at": "2026-09-07T10:00:00Z",
		"occurrence_starts_at": "next monday"
	}`
	req := httptest.NewRequest("POST", "/peer-sessions/"+uuid.NewString()+"/availability", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to test request: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", resp.StatusCode)
	}
}

func TestCreateAvailabilityForbidden(t *testing.T) {
	service := &stubAvailabilityService{err: services.ErrForbidden}
	handler := &AvailabilityHandler{service: service}
	app := availabilityTestApp(handler, 7, models.RoleSupportSeeker)

	body := `{"starts_at": "2026-09-07T09:00:00Z", "ends_at": "2026-09-07T10:00:00Z"}`
	req := httptest.NewRequest("POST", "/peer-sessions/"+uuid.NewString()+"/availability", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to test request: %v", err)
	}
	if resp.StatusCode != fiber.StatusForbidden {
		t.Errorf("Expected status 403, got %d", resp.StatusCode)
	}
}

func TestDeleteAvailabilityForwardsIDs(t *testing.T) {
	service := &stubAvailabilityService{}
	handler := &AvailabilityHandler{service: service}
	app := availabilityTestApp(handler, 42, models.RolePeer)

	sessionID := uuid.New()
	availabilityID := uuid.New()
	req := httptest.NewRequest("DELETE", "/peer-sessions/"+sessionID.String()+"/availability/"+availabilityID.String(), nil)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to test request: %v", err)
	}
	if resp.StatusCode != fiber.StatusNoContent {
		t.Errorf("Expected status 204, got %d", resp.StatusCode)
	}
	if service.lastSessionID != sessionID || service.lastAvailabilityID != availabilityID {
		t.Errorf("Expected ids forwarded, got %v / %v", service.lastSessionID, service.lastAvailabilityID)
	}
}

func TestListSlotsReturnsIntervals(t *testing.T) {
	start := time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC)
	service := &stubAvailabilityService{slots: []services.Interval{
		{Start: start, End: start.Add(time.Hour)},
	}}
	handler := &AvailabilityHandler{service: service}
	app := availabilityTestApp(handler, 42, models.RolePeer)

	req := httptest.NewRequest("GET", "/peer-sessions/"+uuid.NewString()+"/slots", nil)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to test request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	var result struct {
		Slots []services.Interval `json:"slots"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(result.Slots) != 1 {
		t.Fatalf("Expected 1 slot, got %d", len(result.Slots))
	}
	if !result.Slots[0].Start.Equal(start) {
		t.Errorf("Expected slot start %v, got %v", start, result.Slots[0].Start)
	}
}
