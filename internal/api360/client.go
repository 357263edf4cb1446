// Package api360 provides a client for the 360-style directory REST API,
// the mutation surface the sync engine converges onto. All calls carry the
// organization scope and the OAuth token, page through list endpoints, and
// retry with the shared policy before reporting failure.
package api360

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/teamdir/groupsync/pkg/constants"
	"github.com/teamdir/groupsync/pkg/errors"
	"github.com/teamdir/groupsync/pkg/logging"
	"github.com/teamdir/groupsync/pkg/retry"
)

// DefaultBaseURL is the production endpoint of the directory API.
const DefaultBaseURL = "https://api360.yandex.net"

// Client is an organization-scoped directory API client. It satisfies the
// sync engine's RemoteDirectory interface.
type Client struct {
	baseURL string
	orgID   string
	token   string

	http  *http.Client
	retry retry.Policy
	clock clockwork.Clock

	users userCache
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, used by tests and mirrors.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRetryPolicy overrides the retry policy for remote calls.
func WithRetryPolicy(p retry.Policy) Option {
	return func(c *Client) { c.retry = p }
}

// WithClock injects the clock used for retry backoff and cache aging.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Client) {
		c.clock = clock
		c.retry = c.retry.WithClock(clock)
	}
}

// WithUserCacheTTL overrides how long a fetched user snapshot stays fresh.
func WithUserCacheTTL(ttl time.Duration) Option {
	return func(c *Client) { c.users.maxAge = ttl }
}

// New creates a Client for the given organization.
func New(orgID, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		orgID:   orgID,
		token:   token,
		http:    &http.Client{Timeout: constants.DefaultHTTPTimeout},
		retry:   retry.DefaultPolicy(),
		clock:   clockwork.NewRealClock(),
		users:   userCache{maxAge: constants.UserCacheTTL},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// url builds an organization-scoped endpoint path.
func (c *Client) url(format string, args ...any) string {
	return c.baseURL + "/directory/v1/org/" + c.orgID + fmt.Sprintf(format, args...)
}

// CheckToken verifies the configured OAuth token against the user listing
// endpoint before any sync work starts. A rejected token is not worth
// retrying.
func (c *Client) CheckToken(ctx context.Context) error {
	endpoint := c.url("/users?perPage=100")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errors.WrapAPI(endpoint, 0, err)
	}
	req.Header.Set("Authorization", "OAuth "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.WrapAPI(endpoint, 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return errors.NewAPIError(endpoint, resp.StatusCode, "token check failed")
	}
	return nil
}

// doJSON performs one HTTP request with auth and decodes the JSON response
// into out. Non-200 statuses become APIError with the status code attached
// so the retry policy can tell transient from permanent.
func (c *Client) doJSON(ctx context.Context, method, endpoint string, body, out any) error {
	var payload io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return errors.WrapAPI(endpoint, 0, err)
		}
		payload = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, payload)
	if err != nil {
		return errors.WrapAPI(endpoint, 0, err)
	}
	req.Header.Set("Authorization", "OAuth "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.WrapAPI(endpoint, 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	logging.FromContext(ctx).Debug().
		Str("method", method).
		Str("url", endpoint).
		Int("status", resp.StatusCode).
		Str("request_id", resp.Header.Get("X-Request-Id")).
		Msg("api call")

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return errors.NewAPIError(endpoint, resp.StatusCode, string(msg))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.WrapParse("json", endpoint, err)
	}
	return nil
}

// call wraps doJSON in the client's retry policy.
func (c *Client) call(ctx context.Context, method, endpoint string, body, out any) error {
	return retry.Do(ctx, c.retry, func(ctx context.Context) error {
		return c.doJSON(ctx, method, endpoint, body, out)
	})
}
