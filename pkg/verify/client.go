// Package verify provides a client for the Twilio Verify v2 API.
package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// ErrNoPendingVerification is returned by UpdateVerification when no
// pending verification exists for the destination: it already completed,
// expired, or was never created (Twilio error code 20404). MFA completion
// racing with OTP expiry makes this an expected condition; callers treat
// it as a skip, not a failure.
var ErrNoPendingVerification = eris.New("verify: no pending verification")

// noPendingVerificationCode is Twilio's error code for a missing or
// already-resolved verification.
const noPendingVerificationCode = 20404

// StatusApproved marks a verification as successfully completed.
const StatusApproved = "approved"

// Client defines the Twilio Verify operations used by the hooks.
type Client interface {
	// UpdateVerification sets the status of the pending verification
	// addressed to the given phone number.
	UpdateVerification(ctx context.Context, to, status string) (*Verification, error)
	// CreateVerification starts a new verification for the given phone
	// number over the given channel. customCode, when non-empty, replaces
	// the Twilio-generated OTP code.
	CreateVerification(ctx context.Context, to, channel, customCode string) (*Verification, error)
}

// Verification is the Twilio Verify verification resource.
type Verification struct {
	SID              string            `json:"sid"`
	ServiceSID       string            `json:"service_sid"`
	To               string            `json:"to"`
	Channel          string            `json:"channel"`
	Status           string            `json:"status"`
	SendCodeAttempts []SendCodeAttempt `json:"send_code_attempts"`
}

// SendCodeAttempt records one delivery attempt of a verification code.
type SendCodeAttempt struct {
	AttemptSID string `json:"attempt_sid"`
	Channel    string `json:"channel"`
}

// apiError is Twilio's error response body.
type apiError struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	MoreInfo string `json:"more_info"`
	Status   int    `json:"status"`
}

// Option configures the Verify client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	accountSID string
	authToken  string
	serviceSID string
	baseURL    string
	http       *http.Client
}

// NewClient creates a new Verify client scoped to one Verify service.
func NewClient(accountSID, authToken, serviceSID string, opts ...Option) Client {
	c := &httpClient{
		accountSID: accountSID,
		authToken:  authToken,
		serviceSID: serviceSID,
		baseURL:    "https://verify.twilio.com",
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) UpdateVerification(ctx context.Context, to, status string) (*Verification, error) {
	reqURL := fmt.Sprintf("%s/v2/Services/%s/Verifications/%s",
		c.baseURL, url.PathEscape(c.serviceSID), url.PathEscape(to))

	form := url.Values{}
	form.Set("Status", status)

	body, statusCode, err := c.postForm(ctx, reqURL, form)
	if err != nil {
		return nil, eris.Wrap(err, "verify: update verification")
	}

	if statusCode == http.StatusNotFound {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Code == noPendingVerificationCode {
			return nil, eris.Wrapf(ErrNoPendingVerification, "to %s", to)
		}
		return nil, eris.Errorf("verify: update verification status 404: %s", string(body))
	}
	if statusCode != http.StatusOK {
		return nil, eris.Errorf("verify: update verification status %d: %s", statusCode, string(body))
	}

	var v Verification
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, eris.Wrap(err, "verify: unmarshal verification")
	}
	return &v, nil
}

func (c *httpClient) CreateVerification(ctx context.Context, to, channel, customCode string) (*Verification, error) {
	reqURL := fmt.Sprintf("%s/v2/Services/%s/Verifications", c.baseURL, url.PathEscape(c.serviceSID))

	form := url.Values{}
	form.Set("To", to)
	form.Set("Channel", channel)
	if customCode != "" {
		form.Set("CustomCode", customCode)
	}

	body, statusCode, err := c.postForm(ctx, reqURL, form)
	if err != nil {
		return nil, eris.Wrap(err, "verify: create verification")
	}
	if statusCode != http.StatusOK && statusCode != http.StatusCreated {
		return nil, eris.Errorf("verify: create verification status %d: %s", statusCode, string(body))
	}

	var v Verification
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, eris.Wrap(err, "verify: unmarshal verification")
	}
	return &v, nil
}

// postForm sends one form-encoded POST with basic auth. Feedback submissions
// are deliberately not retried: a repeat is indistinguishable from a fresh
// approval, and already-resolved verifications answer 20404 anyway.
func (c *httpClient) postForm(ctx context.Context, reqURL string, form url.Values) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, 0, eris.Wrap(err, "create request")
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, eris.Wrap(err, "read response body")
	}
	return body, resp.StatusCode, nil
}
