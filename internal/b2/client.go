package b2

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// maxAuthAttempts bounds how many times a single API call is retried after
// reauthorizing. Tokens expire independently of any call, so every call is
// retry-safe; once the budget is spent the call fails with ErrAuthExhausted.
const maxAuthAttempts = 5

// expiredAuthTokenCode is the only error code the executor recovers from.
const expiredAuthTokenCode = "expired_auth_token"

// apiCall produces one HTTP exchange against current session state. It must
// be safe to invoke more than once: the executor re-invokes it after
// reauthorization, and it knows nothing about single-use values (such as
// upload-URL leases) — the closure must re-derive those itself on each
// invocation.
type apiCall func(ctx context.Context) (*http.Response, error)

// Client is a B2 API client. It owns the Session and routes every network
// call through an authenticating executor that transparently recovers from
// token expiry.
type Client struct {
	session    *Session
	httpClient *http.Client
	logger     *slog.Logger

	// bucket name -> bucket ID, refreshed from b2_list_buckets on miss.
	buckets map[string]string

	// authorizeURL defaults to the public B2 endpoint. Tests override it
	// to point at a local server.
	authorizeURL string
}

// NewClient creates a B2 client around the given session.
func NewClient(session *Session, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		session:      session,
		httpClient:   httpClient,
		logger:       logger,
		buckets:      make(map[string]string),
		authorizeURL: defaultAuthorizeURL,
	}
}

// Session returns the client's session. The client remains the single
// writer; callers read it only to persist the state at process exit.
func (c *Client) Session() *Session {
	return c.session
}

// apiURL builds the full URL for a b2api v3 endpoint name.
func (c *Client) apiURL(name string) string {
	return c.session.APIURL + "/b2api/v3/" + name
}

// send executes call, retrying after transparent reauthorization whenever
// the API rejects the current token as expired. Any other error code fails
// immediately as *APIError. The caller owns the response body on success.
func (c *Client) send(ctx context.Context, call apiCall) (*http.Response, error) {
	for attempt := 0; attempt < maxAuthAttempts; attempt++ {
		resp, err := call(ctx)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
			return resp, nil
		}

		url := ""
		if resp.Request != nil && resp.Request.URL != nil {
			url = resp.Request.URL.String()
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if readErr != nil {
			body = []byte("(failed to read response body)")
		}

		var apiErr errorResponse
		if jsonErr := json.Unmarshal(body, &apiErr); jsonErr != nil || apiErr.Code == "" {
			return nil, &APIError{Status: resp.StatusCode, Message: string(body), URL: url}
		}

		if apiErr.Code != expiredAuthTokenCode {
			return nil, &APIError{
				Code:    apiErr.Code,
				Message: apiErr.Message,
				Status:  resp.StatusCode,
				URL:     url,
			}
		}

		c.logger.Warn("auth token expired, reauthorizing",
			slog.String("url", url),
			slog.Int("attempt", attempt+1),
		)

		if reauthErr := c.Reauthorize(ctx); reauthErr != nil {
			return nil, reauthErr
		}
	}

	return nil, fmt.Errorf("b2: giving up after %d attempts: %w", maxAuthAttempts, ErrAuthExhausted)
}

// sendJSON executes call through send and decodes the successful response
// body into out. out may be nil to discard the body.
func (c *Client) sendJSON(ctx context.Context, call apiCall, out any) error {
	resp, err := c.send(ctx, call)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, drainErr := io.Copy(io.Discard, resp.Body)
		return drainErr
	}

	if decErr := json.NewDecoder(resp.Body).Decode(out); decErr != nil {
		return fmt.Errorf("b2: decoding response: %w", decErr)
	}

	return nil
}

// get builds an authenticated GET call against a v3 endpoint with query
// parameters given as alternating key, value pairs. The URL and token are
// re-read from the session on every invocation so that a retry after
// reauthorization uses fresh state.
func (c *Client) get(name string, query ...string) apiCall {
	return func(ctx context.Context) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL(name), http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("b2: creating request: %w", err)
		}

		q := req.URL.Query()
		for i := 0; i+1 < len(query); i += 2 {
			q.Set(query[i], query[i+1])
		}

		req.URL.RawQuery = q.Encode()
		req.Header.Set("Authorization", c.session.AuthToken)

		return c.httpClient.Do(req)
	}
}

// postJSON builds an authenticated POST call with a JSON body. body is
// marshaled on each invocation.
func (c *Client) postJSON(name string, body any) apiCall {
	return func(ctx context.Context) (*http.Response, error) {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("b2: marshaling request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL(name), bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("b2: creating request: %w", err)
		}

		req.Header.Set("Authorization", c.session.AuthToken)
		req.Header.Set("Content-Type", "application/json")

		return c.httpClient.Do(req)
	}
}
