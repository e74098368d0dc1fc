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

type stubPeerRequestService struct {
	request    *models.PeerSessionRequest
	requests   []models.PeerSessionRequest
	paymentURL string
	err        error

	lastActorID int64
	lastRole    string
	lastID      uuid.UUID
	lastInput   services.CreatePeerRequestInput
	lastMessage *string
	lastGranted bool
}

func (s *stubPeerRequestService) CreateRequest(ctx context.Context, attendeeID int64, role string, input services.CreatePeerRequestInput) (*models.PeerSessionRequest, error) {
	s.lastActorID = attendeeID
	s.lastRole = role
	s.lastInput = input
	return s.request, s.err
}

func (s *stubPeerRequestService) GetRequest(ctx context.Context, actorID int64, role string, id uuid.UUID) (*models.PeerSessionRequest, error) {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastID = id
	return s.request, s.err
}

func (s *stubPeerRequestService) ListBySession(ctx context.Context, actorID int64, role string, sessionID uuid.UUID) ([]models.PeerSessionRequest, error) {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastID = sessionID
	return s.requests, s.err
}

func (s *stubPeerRequestService) ListMine(ctx context.Context, attendeeID int64) ([]models.PeerSessionRequest, error) {
	s.lastActorID = attendeeID
	return s.requests, s.err
}

func (s *stubPeerRequestService) Approve(ctx context.Context, actorID int64, role string, id uuid.UUID) (*models.PeerSessionRequest, error) {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastID = id
	return s.request, s.err
}

func (s *stubPeerRequestService) Reject(ctx context.Context, actorID int64, role string, id uuid.UUID, message *string) (*models.PeerSessionRequest, error) {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastID = id
	s.lastMessage = message
	return s.request, s.err
}

func (s *stubPeerRequestService) ApproveConcession(ctx context.Context, actorID int64, role string, id uuid.UUID, granted bool) (*models.PeerSessionRequest, error) {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastID = id
	s.lastGranted = granted
	return s.request, s.err
}

func (s *stubPeerRequestService) Withdraw(ctx context.Context, actorID int64, role string, id uuid.UUID) (*models.PeerSessionRequest, error) {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastID = id
	return s.request, s.err
}

func (s *stubPeerRequestService) RequestRefund(ctx context.Context, attendeeID int64, id uuid.UUID) (*models.PeerSessionRequest, error) {
	s.lastActorID = attendeeID
	s.lastID = id
	return s.request, s.err
}

func (s *stubPeerRequestService) ApproveRefund(ctx context.Context, actorID int64, role string, id uuid.UUID) (*models.PeerSessionRequest, error) {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastID = id
	return s.request, s.err
}

func (s *stubPeerRequestService) Pay(ctx context.Context, attendeeID int64, id uuid.UUID) (string, error) {
	s.lastActorID = attendeeID
	s.lastID = id
	return s.paymentURL, s.err
}

func peerRequestTestApp(handler *PeerRequestHandler, userID int64, role string) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", userID)
		c.Locals("role", role)
		return c.Next()
	})
	app.Post("/peer-sessions/:id/requests", handler.CreateRequest)
	app.Get("/peer-requests/mine", handler.ListMine)
	app.Get("/peer-requests/:id", handler.GetRequest)
	app.Post("/peer-requests/:id/approve", handler.Approve)
	app.Post("/peer-requests/:id/reject", handler.Reject)
	app.Post("/peer-requests/:id/concession", handler.ApproveConcession)
	app.Post("/peer-requests/:id/withdraw", handler.Withdraw)
	app.Post("/peer-requests/:id/pay", handler.Pay)
	return app
}

func TestCreateRequestSuccess(t *testing.T) {
	service := &stubPeerRequestService{
		request: &models.PeerSessionRequest{Status: models.RequestStatusPending},
	}
	handler := &PeerRequestHandler{service: service}
	app := peerRequestTestApp(handler, 7, models.RoleSupportSeeker)

	sessionID := uuid.New()
	body := `{"starts_at": "2026-09-08T09:00:00Z", "ends_at": "2026-09-08T10:00:00Z", "pay_concessionary_price": true}`
	req := httptest.NewRequest("POST", "/peer-sessions/"+sessionID.String()+"/requests", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to test request: %v", err)
	}
	if resp.StatusCode != fiber.StatusCreated {
		t.Errorf("Expected status 201, got %d", resp.StatusCode)
	}
	if service.lastActorID != 7 {
		t.Errorf("Expected attendee 7, got %d", service.lastActorID)
	}
	if service.lastInput.SessionID != sessionID {
		t.Errorf("Expected session id forwarded, got %v", service.lastInput.SessionID)
	}
	if !service.lastInput.PayConcessionaryPrice {
		t.Errorf("Expected concessionary flag forwarded")
	}
}

func TestCreateRequestBadTimestamp(t *testing.T) {
	service := &stubPeerRequestService{}
	handler := &PeerRequestHandler{service: service}
	app := peerRequestTestApp(handler, 7, models.RoleSupportSeeker)

	body := `{"starts_at": "tomorrow", "ends_at": "2026-09-08T10:00:00Z"}`
	req := httptest.NewRequest("POST", "/peer-sessions/"+uuid.NewString()+"/requests", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to test request: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", resp.StatusCode)
	}
}

func TestCreateRequestOverlapConflict(t *testing.T) {
	service := &stubPeerRequestService{err: services.ErrConflict}
	handler := &PeerRequestHandler{service: service}
	app := peerRequestTestApp(handler, 7, models.RoleSupportSeeker)

	body := `{"starts_at": "2026-09-08T09:00:00Z", "ends_at": "2026-09-08T10:00:00Z"}`
	req := httptest.NewRequest("POST", "/peer-sessions/"+uuid.NewString()+"/requests", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to test request: %v", err)
	}
	if resp.StatusCode != fiber.StatusConflict {
		t.Errorf("Expected status 409, got %d", resp.StatusCode)
	}
}

func TestCreateRequestUnpublishedSession(t *testing.T) {
	service := &stubPeerRequestService{err: services.ErrSessionNotPublished}
	handler := &PeerRequestHandler{service: service}
	app := peerRequestTestApp(handler, 7, models.RoleSupportSeeker)

	body := `{"starts_at": "2026-09-08T09:00:00Z", "ends_at": "2026-09-08T10:00:00Z"}`
	req := httptest.NewRequest("POST", "/peer-sessions/"+uuid.NewString()+"/requests", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to test request: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnprocessableEntity {
		t.Errorf("Expected status 422, got %d", resp.StatusCode)
	}
}

func TestApproveForwardsActor(t *testing.T) {
	service := &stubPeerRequestService{
		request: &models.PeerSessionRequest{Status: models.RequestStatusApproved},
	}
	handler := &PeerRequestHandler{service: service}
	app := peerRequestTestApp(handler, 3, models.RolePeer)

	id := uuid.New()
	req := httptest.NewRequest("POST", "/peer-requests/"+id.String()+"/approve", nil)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to test request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if service.lastActorID != 3 || service.lastID != id {
		t.Errorf("Expected actor 3 on request %v, got %d on %v", id, service.lastActorID, service.lastID)
	}
}

func TestApproveInvalidTransition(t *testing.T) {
	service := &stubPeerRequestService{err: services.ErrInvalidStateTransition}
	handler := &PeerRequestHandler{service: service}
	app := peerRequestTestApp(handler, 3, models.RolePeer)

	req := httptest.NewRequest("POST", "/peer-requests/"+uuid.NewString()+"/approve", nil)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to test request: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnprocessableEntity {
		t.Errorf("Expected status 422, got %d", resp.StatusCode)
	}
}

func TestRejectForwardsMessage(t *testing.T) {
	service := &stubPeerRequestService{
		request: &models.PeerSessionRequest{Status: models.RequestStatusRejected},
	}
	handler := &PeerRequestHandler{service: service}
	app := peerRequestTestApp(handler, 3, models.RolePeer)

	body := `{"message": "Fully booked that week"}`
	req := httptest.NewRequest("POST", "/peer-requests/"+uuid.NewString()+"/reject", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to test request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if service.lastMessage == nil || *service.lastMessage != "Fully booked that week" {
		t.Errorf("Expected rejection message forwarded, got %v", service.lastMessage)
	}
}

func TestApproveConcessionForwardsDecision(t *testing.T) {
	service := &stubPeerRequestService{
		request: &models.PeerSessionRequest{ConcessionaryStatus: models.SubStatusApproved},
	}
	handler := &PeerRequestHandler{service: service}
	app := peerRequestTestApp(handler, 3, models.RolePeer)

	req := httptest.NewRequest("POST", "/peer-requests/"+uuid.NewString()+"/concession", strings.NewReader(`{"granted": true}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to test request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if !service.lastGranted {
		t.Errorf("Expected granted decision forwarded")
	}
}

func TestWithdrawSuccess(t *testing.T) {
	service := &stubPeerRequestService{
		request: &models.PeerSessionRequest{Status: models.RequestStatusWithdrawn},
	}
	handler := &PeerRequestHandler{service: service}
	app := peerRequestTestApp(handler, 7, models.RoleSupportSeeker)

	req := httptest.NewRequest("POST", "/peer-requests/"+uuid.NewString()+"/withdraw", nil)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to test request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	var result struct {
		Warning string `json:"warning"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if result.Warning != "" {
		t.Errorf("Expected no warning on clean withdrawal, got %q", result.Warning)
	}
}

func TestWithdrawWithFailedRefundCarriesWarning(t *testing.T) {
	service := &stubPeerRequestService{
		request: &models.PeerSessionRequest{Status: models.RequestStatusWithdrawn},
		err:     services.ErrPaymentFailed,
	}
	handler := &PeerRequestHandler{service: service}
	app := peerRequestTestApp(handler, 7, models.RoleSupportSeeker)

	req := httptest.NewRequest("POST", "/peer-requests/"+uuid.NewString()+"/withdraw", nil)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to test request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("Expected status 200 despite refund failure, got %d", resp.StatusCode)
	}

	var result struct {
		Request *models.PeerSessionRequest `json:"request"`
		Warning string                     `json:"warning"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if result.Request == nil || result.Request.Status != models.RequestStatusWithdrawn {
		t.Errorf("Expected withdrawn request in response, got %+v", result.Request)
	}
	if result.Warning == "" {
		t.Errorf("Expected warning about the failed refund")
	}
}

func TestPayReturnsPaymentURL(t *testing.T) {
	service := &stubPeerRequestService{paymentURL: "https://buy.stripe.com/test"}
	handler := &PeerRequestHandler{service: service}
	app := peerRequestTestApp(handler, 7, models.RoleSupportSeeker)

	req := httptest.NewRequest("POST", "/peer-requests/"+uuid.NewString()+"/pay", nil)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to test request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	var result struct {
		PaymentURL string `json:"payment_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if result.PaymentURL != "https://buy.stripe.com/test" {
		t.Errorf("Expected payment url, got %q", result.PaymentURL)
	}
}

func TestPayProviderFailure(t *testing.T) {
	service := &stubPeerRequestService{err: services.ErrPaymentFailed}
	handler := &PeerRequestHandler{service: service}
	app := peerRequestTestApp(handler, 7, models.RoleSupportSeeker)

	req := httptest.NewRequest("POST", "/peer-requests/"+uuid.NewString()+"/pay", nil)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to test request: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadGateway {
		t.Errorf("Expected status 502, got %d", resp.StatusCode)
	}
}
