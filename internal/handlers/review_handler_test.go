package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/baldwinboy/neuromancers-community-platform/internal/models"
	"github.com/baldwinboy/neuromancers-community-platform/internal/services"
)

type stubReviewService struct {
	review  *models.GroupSessionReview
	reviews []models.GroupSessionReview
	err     error

	lastAttendeeID int64
	lastRole       string
	lastInput      services.CreateReviewInput
	lastSessionID  uuid.UUID
}

func (s *stubReviewService) CreateReview(
	ctx context.Context,
	attendeeID int64,
	role string,
	input services.CreateReviewInput,
) (*models.GroupSessionReview, error) {
	s.lastAttendeeID = attendeeID
	s.lastRole = role
	s.lastInput = input
	return s.review, s.err
}

func (s *stubReviewService) ListBySession(
	ctx context.Context,
	sessionID uuid.UUID,
) ([]models.GroupSessionReview, error) {
	s.lastSessionID = sessionID
	return s.reviews, s.err
}

func reviewTestApp(handler *ReviewHandler, userID int64, role string) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", userID)
		c.Locals("role", role)
		return c.Next()
	})
	app.Post("/group-sessions/:id/reviews", handler.CreateReview)
	app.Get("/group-sessions/:id/reviews", handler.ListReviews)
	return app
}

func TestCreateReviewForwardsInput(t *testing.T) {
	service := &stubReviewService{
		review: &models.GroupSessionReview{Rating: 4, Content: "Helpful circle"},
	}
	handler := &ReviewHandler{service: service}
	app := reviewTestApp(handler, 9, models.RoleSupportSeeker)

	id := uuid.New()
	req := httptest.NewRequest("POST", "/group-sessions/"+id.String()+"/reviews",
		strings.NewReader(`{"rating": 4, "content": "Helpful circle"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to test request: %v", err)
	}
	if resp.StatusCode != fiber.StatusCreated {
		t.Errorf("Expected status 201, got %d", resp.StatusCode)
	}
	if service.lastAttendeeID != 9 || service.lastRole != models.RoleSupportSeeker {
		t.Errorf("Expected attendee 9 as support seeker, got %d %q", service.lastAttendeeID, service.lastRole)
	}
	if service.lastInput.SessionID != id || service.lastInput.Rating != 4 {
		t.Errorf("Expected session %v rating 4 forwarded, got %+v", id, service.lastInput)
	}
}

func TestCreateReviewBadSessionID(t *testing.T) {
	handler := &ReviewHandler{service: &stubReviewService{}}
	app := reviewTestApp(handler, 9, models.RoleSupportSeeker)

	req := httptest.NewRequest("POST", "/group-sessions/not-a-uuid/reviews",
		strings.NewReader(`{"rating": 4, "content": "x"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to test request: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", resp.StatusCode)
	}
}

func TestCreateReviewDuplicateConflicts(t *testing.T) {
	service := &stubReviewService{err: services.ErrConflict}
	handler := &ReviewHandler{service: service}
	app := reviewTestApp(handler, 9, models.RoleSupportSeeker)

	req := httptest.NewRequest("POST", "/group-sessions/"+uuid.NewString()+"/reviews",
		strings.NewReader(`{"rating": 2, "content": "Again"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to test request: %v", err)
	}
	if resp.StatusCode != fiber.StatusConflict {
		t.Errorf("Expected status 409, got %d", resp.StatusCode)
	}
}

func TestCreateReviewBeforeSessionEnds(t *testing.T) {
	service := &stubReviewService{err: services.ErrInvalidStateTransition}
	handler := &ReviewHandler{service: service}
	app := reviewTestApp(handler, 9, models.RoleSupportSeeker)

	req := httptest.NewRequest("POST", "/group-sessions/"+uuid.NewString()+"/reviews",
		strings.NewReader(`{"rating": 5, "content": "Too soon"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to test request: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnprocessableEntity {
		t.Errorf("Expected status 422, got %d", resp.StatusCode)
	}
}

func TestListReviewsReturnsSessionReviews(t *testing.T) {
	service := &stubReviewService{reviews: []models.GroupSessionReview{
		{Rating: 5, Content: "Welcoming"},
		{Rating: 3, Content: "A bit rushed"},
	}}
	handler := &ReviewHandler{service: service}
	app := reviewTestApp(handler, 9, models.RoleSupportSeeker)

	id := uuid.New()
	req := httptest.NewRequest("GET", "/group-sessions/"+id.String()+"/reviews", nil)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to test request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if service.lastSessionID != id {
		t.Errorf("Expected session id forwarded, got %v", service.lastSessionID)
	}

	var result struct {
		Reviews []models.GroupSessionReview `json:"reviews"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(result.Reviews) != 2 {
		t.Errorf("Expected 2 reviews, got %d", len(result.Reviews))
	}
}
