// Package okta provides a client for the Okta user factors API.
package okta

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
	"golang.org/x/time/rate"
)

// Client defines the Okta factor-registry operations.
type Client interface {
	// ListFactors returns a lazy pager over the factors enrolled by a user.
	// Pages are fetched on demand; callers that stop early never pay for
	// the remaining pages.
	ListFactors(ctx context.Context, userID string) FactorSource
}

// FactorSource yields enrolled factors one at a time, in listing order.
type FactorSource interface {
	// Next returns the next factor, or (nil, nil) when the listing is
	// exhausted. Once it returns an error the source is dead.
	Next(ctx context.Context) (*Factor, error)
}

// Factor is one enrolled authentication factor.
type Factor struct {
	ID         string  `json:"id"`
	FactorType string  `json:"factorType"`
	Provider   string  `json:"provider"`
	Status     string  `json:"status"`
	Profile    Profile `json:"profile"`
}

// Profile holds the factor's enrollment details.
type Profile struct {
	PhoneNumber string `json:"phoneNumber"`
}

// Option configures the Okta client.
type Option func(*httpClient)

// WithBaseURL sets a custom org base URL (for testing).
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

// WithRateLimit throttles outbound requests to rps requests per second.
// Okta enforces strict org-wide API rate limits; a client-side limiter
// keeps a large hook delivery from tripping them.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

type httpClient struct {
	apiToken string
	baseURL  string
	http     *http.Client
	limiter  *rate.Limiter
}

// NewClient creates a new Okta client for the given org.
func NewClient(orgURL, apiToken string, opts ...Option) Client {
	c := &httpClient{
		apiToken: apiToken,
		baseURL:  strings.TrimRight(orgURL, "/"),
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

func (c *httpClient) ListFactors(ctx context.Context, userID string) FactorSource {
	return &FactorPager{
		client:  c,
		nextURL: fmt.Sprintf("%s/api/v1/users/%s/factors", c.baseURL, url.PathEscape(userID)),
	}
}

// FactorPager walks a paginated factor listing lazily. It is not safe for
// concurrent use and cannot be restarted.
type FactorPager struct {
	client  *httpClient
	nextURL string
	page    []Factor
	pos     int
}

// Next implements FactorSource.
func (p *FactorPager) Next(ctx context.Context) (*Factor, error) {
	for p.pos >= len(p.page) {
		if p.nextURL == "" {
			return nil, nil
		}
		if err := p.fetchPage(ctx); err != nil {
			return nil, err
		}
	}
	f := &p.page[p.pos]
	p.pos++
	return f, nil
}

func (p *FactorPager) fetchPage(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.nextURL, nil)
	if err != nil {
		return eris.Wrap(err, "okta: create request")
	}
	req.Header.Set("Authorization", "SSWS "+p.client.apiToken)
	req.Header.Set("Accept", "application/json")

	body, header, statusCode, err := p.client.retryDo(ctx, req)
	if err != nil {
		return eris.Wrap(err, "okta: list factors")
	}
	if statusCode != http.StatusOK {
		return eris.Errorf("okta: list factors status %d: %s", statusCode, string(body))
	}

	var page []Factor
	if err := json.Unmarshal(body, &page); err != nil {
		return eris.Wrap(err, "okta: unmarshal factors")
	}

	p.page = page
	p.pos = 0
	p.nextURL = nextLink(header)
	return nil
}

// nextLink extracts the rel="next" pagination URL from Okta's Link headers,
// or "" when this was the last page.
func nextLink(header http.Header) string {
	for _, link := range header.Values("Link") {
		parts := strings.Split(link, ";")
		if len(parts) < 2 {
			continue
		}
		target := strings.Trim(strings.TrimSpace(parts[0]), "<>")
		for _, param := range parts[1:] {
			if strings.TrimSpace(param) == `rel="next"` {
				return target
			}
		}
	}
	return ""
}

// retryableStatusCode returns true if the HTTP status code should trigger a retry.
func retryableStatusCode(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusInternalServerError ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable
}

// retryDo executes a request with exponential backoff on transient failures
// (429, 500, 502, 503). Listing factors is read-only, so retrying is safe.
// Returns the response body, headers, and status code of the final attempt.
func (c *httpClient) retryDo(ctx context.Context, req *http.Request) ([]byte, http.Header, int, error) {
	const maxAttempts = 3
	backoff := 1 * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, nil, 0, err
			}
		}

		retryReq := req.Clone(ctx)

		resp, err := c.http.Do(retryReq)
		if err != nil {
			lastErr = err
			if attempt < maxAttempts {
				select {
				case <-ctx.Done():
					return nil, nil, 0, ctx.Err()
				case <-time.After(backoff):
				}
				backoff *= 2
				continue
			}
			return nil, nil, 0, lastErr
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, nil, resp.StatusCode, eris.Wrap(readErr, "okta: read response body")
		}

		if retryableStatusCode(resp.StatusCode) && attempt < maxAttempts {
			lastErr = eris.Errorf("okta: status %d: %s", resp.StatusCode, string(body))
			select {
			case <-ctx.Done():
				return nil, nil, 0, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			continue
		}

		return body, resp.Header, resp.StatusCode, nil
	}

	return nil, nil, 0, lastErr
}
