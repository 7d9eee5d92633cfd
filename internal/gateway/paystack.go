// Package gateway wraps the Paystack REST API: initializing hosted
// checkout transactions, verifying references, and authenticating inbound
// webhook notifications.
package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to the Paystack API with bearer authentication. BaseURL is
// configurable so tests can point it at a local fake server.
type Client struct {
	BaseURL string
	Secret  string
	HTTP    *http.Client
}

// NewClient builds a client with the gateway's own network timeout; no
// retry policy is applied, transient failures surface to the caller.
func NewClient(baseURL, secret string) *Client {
	return &Client{
		BaseURL: baseURL,
		Secret:  secret,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

// InitializeRequest is the payload for POST /transaction/initialize.
// Amount is in the integer subunit (kobo).
type InitializeRequest struct {
	Email       string         `json:"email"`
	Amount      int64          `json:"amount"`
	Reference   string         `json:"reference"`
	CallbackURL string         `json:"callback_url"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type initializeResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

// VerifyData is the transaction snapshot returned by GET
// /transaction/verify/:reference.
type VerifyData struct {
	Status    string `json:"status"`
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
	ID        int64  `json:"id"`
}

type verifyResponse struct {
	Status bool       `json:"status"`
	Data   VerifyData `json:"data"`
}

// Initialize creates a hosted checkout transaction and returns the
// authorization URL the client is redirected to.
func (c *Client) Initialize(ctx context.Context, req InitializeRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.Secret)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("paystack initialize: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("paystack initialize: status %d: %s", resp.StatusCode, b)
	}
	var out initializeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("paystack initialize: decode: %w", err)
	}
	if !out.Status || out.Data.AuthorizationURL == "" {
		return "", fmt.Errorf("paystack initialize: rejected: %s", out.Message)
	}
	return out.Data.AuthorizationURL, nil
}

// Verify fetches the gateway's record of a transaction by reference.
func (c *Client) Verify(ctx context.Context, reference string) (VerifyData, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.BaseURL+"/transaction/verify/"+reference, nil)
	if err != nil {
		return VerifyData{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.Secret)

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return VerifyData{}, fmt.Errorf("paystack verify: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return VerifyData{}, fmt.Errorf("paystack verify: status %d", resp.StatusCode)
	}
	var out verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return VerifyData{}, fmt.Errorf("paystack verify: decode: %w", err)
	}
	if !out.Status {
		return VerifyData{}, fmt.Errorf("paystack verify: rejected")
	}
	return out.Data, nil
}

// ValidSignature checks the x-paystack-signature header: a hex HMAC-SHA512
// of the raw request body keyed with the shared secret. The comparison is
// constant time.
func ValidSignature(body []byte, signature, secret string) bool {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Sign computes the webhook signature for a body; used by tests and by
// any internal redelivery tooling.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
