// Package paystack is a thin client for the Paystack transaction API.
// It carries no business logic: callers decide what an outcome means.
package paystack

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"
)

// DefaultBaseURL is the hosted Paystack API endpoint.
const DefaultBaseURL = "https://api.paystack.co"

// ErrGatewayUnavailable signals a non-2xx response, a transport error, or a
// timeout. Callers must treat it as retryable service degradation, never as
// a business failure.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// Transaction statuses reported by the gateway.
const (
	TxSuccess   = "success"
	TxFailed    = "failed"
	TxAbandoned = "abandoned"
)

// Client talks to the Paystack REST API with a bounded timeout. The secret
// key is server-side only and must never reach a client-facing code path.
type Client struct {
	httpClient *http.Client
	baseURL    string
	secretKey  string
}

// NewClient returns a Client bound to baseURL. timeout caps every request;
// an expired deadline surfaces as ErrGatewayUnavailable.
func NewClient(baseURL, secretKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		secretKey:  secretKey,
	}
}

// InitializeRequest is the input for InitializeTransaction. AmountKobo is in
// the gateway's minor unit; use ToKobo at the call site boundary.
type InitializeRequest struct {
	Reference   string                 `json:"reference"`
	Email       string                 `json:"email"`
	AmountKobo  int64                  `json:"amount"`
	Currency    string                 `json:"currency,omitempty"`
	CallbackURL string                 `json:"callback_url,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// InitializeResponse carries the hosted-checkout handle for a new transaction.
type InitializeResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// VerifyResponse is the gateway's report on a transaction.
type VerifyResponse struct {
	Status        string // success | failed | abandoned
	AmountKobo    int64
	Currency      string
	TransactionID string
	Reference     string
}

// envelope is Paystack's standard response wrapper.
type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// InitializeTransaction creates a transaction and returns the authorization
// URL the buyer is redirected to.
func (c *Client) InitializeTransaction(ctx context.Context, req InitializeRequest) (*InitializeResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal initialize request: %w", err)
	}

	data, err := c.do(ctx, http.MethodPost, "/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var out InitializeResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode initialize response: %w", err)
	}
	return &out, nil
}

// verifyData is the data payload of GET /transaction/verify/{reference}.
type verifyData struct {
	ID        int64  `json:"id"`
	Status    string `json:"status"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Reference string `json:"reference"`
}

// VerifyTransaction asks the gateway for the authoritative state of a
// transaction identified by the merchant reference.
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*VerifyResponse, error) {
	data, err := c.do(ctx, http.MethodGet, "/transaction/verify/"+reference, nil)
	if err != nil {
		return nil, err
	}

	var d verifyData
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode verify response: %w", err)
	}
	return &VerifyResponse{
		Status:        d.Status,
		AmountKobo:    d.Amount,
		Currency:      d.Currency,
		TransactionID: strconv.FormatInt(d.ID, 10),
		Reference:     d.Reference,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body *bytes.Reader) ([]byte, error) {
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: http %d", ErrGatewayUnavailable, resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: decode envelope: %v", ErrGatewayUnavailable, err)
	}
	if !env.Status {
		return nil, fmt.Errorf("%w: %s", ErrGatewayUnavailable, env.Message)
	}
	return env.Data, nil
}

// Signature computes the hex HMAC-SHA512 digest of rawBody keyed by secret.
// This is the scheme Paystack uses for the x-paystack-signature webhook
// header. Pure function, no I/O.
func Signature(rawBody []byte, secret string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(rawBody)
	return hex.EncodeToString(mac.Sum(nil))
}

// ToKobo converts a naira amount to the gateway's minor unit. The conversion
// lives here, and only here, so call sites cannot drift.
func ToKobo(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// FromKobo converts a minor-unit amount back to naira.
func FromKobo(kobo int64) float64 {
	return float64(kobo) / 100
}
