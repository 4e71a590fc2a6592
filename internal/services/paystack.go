package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"calmi-backend/internal/models"
)

// PaystackClient talks to the Paystack REST API with the server secret key.
type PaystackClient struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

func NewPaystackClient(baseURL, secretKey string, timeout time.Duration) *PaystackClient {
	return &PaystackClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *PaystackClient) Configured() bool {
	return c.secretKey != ""
}

// VerifyResult keeps the raw upstream body so it can be relayed verbatim.
// Response is only meaningful when Decoded is true.
type VerifyResult struct {
	Raw      json.RawMessage
	Response models.PaystackVerifyResponse
	Decoded  bool
}

// Verify looks up a transaction by reference. A non-2xx answer from Paystack
// comes back as *UpstreamError with the body attached.
func (c *PaystackClient) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	if !c.Configured() {
		return nil, &MissingCredentialError{Message: "Server missing PAYSTACK_SECRET_KEY env var."}
	}

	endpoint := fmt.Sprintf("%s/transaction/verify/%s", c.baseURL, url.PathEscape(reference))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create verify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{Err: fmt.Errorf("verify request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	if err != nil {
		return nil, &UpstreamError{Status: resp.StatusCode, Err: fmt.Errorf("read verify response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{Status: resp.StatusCode, Body: body, Err: fmt.Errorf("unexpected status code: %d", resp.StatusCode)}
	}

	result := &VerifyResult{Raw: json.RawMessage(body)}
	if err := json.Unmarshal(body, &result.Response); err != nil {
		log.Printf("paystack: verify response for %s did not decode, relaying as-is: %v", reference, err)
		result.Response = models.PaystackVerifyResponse{}
		return result, nil
	}
	result.Decoded = true
	return result, nil
}

// VerifySignature checks a webhook body against the x-paystack-signature header,
// which is the hex HMAC-SHA512 of the raw body keyed with the secret.
func VerifySignature(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(signature))))
}
