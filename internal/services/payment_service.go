package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Platform cut of every charge, applied as the processor's application fee.
const applicationFeeRate = 0.15

// PaymentLinkInput carries everything the hosted processor needs to build
// a checkout link. Amounts are in the currency's minor unit.
type PaymentLinkInput struct {
	Amount             int64
	Currency           string
	DestinationAccount string
	Metadata           map[string]string
}

type PaymentLink struct {
	ID  string
	URL string
}

// PaymentClient is the hosted payment processor boundary. The platform
// stores the returned identifiers verbatim and only ever interprets the
// refund's terminal status string.
type PaymentClient interface {
	CreatePaymentLink(ctx context.Context, input PaymentLinkInput) (*PaymentLink, error)
	Refund(ctx context.Context, paymentID string) (string, error)
}

// ApplicationFee computes the platform's cut for a charge amount.
func ApplicationFee(amount int64) int64 {
	return int64(float64(amount) * applicationFeeRate)
}

// StripePaymentClient talks to Stripe's payment-link and refund endpoints
// with form-encoded requests.
type StripePaymentClient struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

func NewStripePaymentClient(baseURL, secretKey string) *StripePaymentClient {
	return &StripePaymentClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		secretKey:  secretKey,
		httpClient: http.DefaultClient,
	}
}

func (c *StripePaymentClient) CreatePaymentLink(
	ctx context.Context,
	input PaymentLinkInput,
) (*PaymentLink, error) {
	form := url.Values{}
	form.Set("line_items[0][price_data][currency]", strings.ToLower(input.Currency))
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(input.Amount, 10))
	form.Set("line_items[0][quantity]", "1")
	form.Set("application_fee_amount", strconv.FormatInt(ApplicationFee(input.Amount), 10))
	if input.DestinationAccount != "" {
		form.Set("transfer_data[destination]", input.DestinationAccount)
	}
	for key, value := range input.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", key), value)
	}

	var response struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := c.post(ctx, "/v1/payment_links", form, &response); err != nil {
		return nil, err
	}
	if response.ID == "" {
		return nil, fmt.Errorf("payment link id missing from response")
	}
	return &PaymentLink{ID: response.ID, URL: response.URL}, nil
}

func (c *StripePaymentClient) Refund(ctx context.Context, paymentID string) (string, error) {
	form := url.Values{}
	form.Set("payment_intent", paymentID)

	var response struct {
		Status string `json:"status"`
	}
	if err := c.post(ctx, "/v1/refunds", form, &response); err != nil {
		return "", err
	}
	return response.Status, nil
}

func (c *StripePaymentClient) post(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+path,
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return fmt.Errorf("build payment request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("payment request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("payment request: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode payment response: %w", err)
	}
	return nil
}
