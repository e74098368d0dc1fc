package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestApplicationFee(t *testing.T) {
	cases := []struct {
		amount int64
		want   int64
	}{
		{10000, 1500},
		{2500, 375},
		{0, 0},
		{1, 0},
	}
	for _, tc := range cases {
		if got := ApplicationFee(tc.amount); got != tc.want {
			t.Errorf("ApplicationFee(%d): expected %d, got %d", tc.amount, tc.want, got)
		}
	}
}

func TestCreatePaymentLinkSendsFormAndAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payment_links" {
			t.Errorf("Expected path /v1/payment_links, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk_test_123" {
			t.Errorf("Expected bearer auth, got %q", r.Header.Get("Authorization"))
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("Failed to parse form: %v", err)
		}
		if got := r.PostForm.Get("line_items[0][price_data][currency]"); got != "gbp" {
			t.Errorf("Expected lowercase currency gbp, got %q", got)
		}
		if got := r.PostForm.Get("line_items[0][price_data][unit_amount]"); got != "2500" {
			t.Errorf("Expected unit_amount 2500, got %q", got)
		}
		if got := r.PostForm.Get("application_fee_amount"); got != "375" {
			t.Errorf("Expected application fee 375, got %q", got)
		}
		if got := r.PostForm.Get("transfer_data[destination]"); got != "acct_42" {
			t.Errorf("Expected destination acct_42, got %q", got)
		}
		if got := r.PostForm.Get("metadata[request_id]"); got != "req-1" {
			t.Errorf("Expected metadata request_id req-1, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "plink_1", "url": "https://buy.stripe.com/test"}`))
	}))
	defer server.Close()

	client := NewStripePaymentClient(server.URL, "sk_test_123")
	link, err := client.CreatePaymentLink(context.Background(), PaymentLinkInput{
		Amount:             2500,
		Currency:           "GBP",
		DestinationAccount: "acct_42",
		Metadata:           map[string]string{"request_id": "req-1"},
	})
	if err != nil {
		t.Fatalf("Expected link, got error %v", err)
	}
	if link.ID != "plink_1" || link.URL != "https://buy.stripe.com/test" {
		t.Errorf("Unexpected link %+v", link)
	}
}

func TestCreatePaymentLinkOmitsDestinationWhenEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("Failed to parse form: %v", err)
		}
		if _, ok := r.PostForm["transfer_data[destination]"]; ok {
			t.Errorf("Expected no transfer_data for empty destination")
		}
		w.Write([]byte(`{"id": "plink_2", "url": "https://buy.stripe.com/test2"}`))
	}))
	defer server.Close()

	client := NewStripePaymentClient(server.URL, "sk_test_123")
	if _, err := client.CreatePaymentLink(context.Background(), PaymentLinkInput{
		Amount:   1000,
		Currency: "EUR",
	}); err != nil {
		t.Fatalf("Expected link, got error %v", err)
	}
}

func TestCreatePaymentLinkRejectsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error": {"message": "no such account"}}`))
	}))
	defer server.Close()

	client := NewStripePaymentClient(server.URL, "sk_test_123")
	if _, err := client.CreatePaymentLink(context.Background(), PaymentLinkInput{
		Amount:   1000,
		Currency: "GBP",
	}); err == nil {
		t.Fatal("Expected error for non-2xx response")
	}
}

func TestCreatePaymentLinkRejectsMissingID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"url": "https://buy.stripe.com/test"}`))
	}))
	defer server.Close()

	client := NewStripePaymentClient(server.URL, "sk_test_123")
	if _, err := client.CreatePaymentLink(context.Background(), PaymentLinkInput{
		Amount:   1000,
		Currency: "GBP",
	}); err == nil {
		t.Fatal("Expected error when the response has no link id")
	}
}

func TestRefundReturnsTerminalStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/refunds" {
			t.Errorf("Expected path /v1/refunds, got %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("Failed to parse form: %v", err)
		}
		if got := r.PostForm.Get("payment_intent"); got != "pi_123" {
			t.Errorf("Expected payment_intent pi_123, got %q", got)
		}
		w.Write([]byte(`{"status": "succeeded"}`))
	}))
	defer server.Close()

	client := NewStripePaymentClient(server.URL, "sk_test_123")
	status, err := client.Refund(context.Background(), "pi_123")
	if err != nil {
		t.Fatalf("Expected refund status, got error %v", err)
	}
	if status != "succeeded" {
		t.Errorf("Expected status succeeded, got %q", status)
	}
}
