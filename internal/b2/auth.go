package b2

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// defaultAuthorizeURL is the fixed entry point for account authorization;
// every other URL comes back in the authorization response.
const defaultAuthorizeURL = "https://api.backblazeb2.com/b2api/v3/b2_authorize_account"

// Authorize exchanges the session's application key for a bearer token and
// populates the account ID, API/download base URLs, and the recommended and
// absolute-minimum part sizes. A non-success response fails with *AuthError
// carrying the error body's code and message verbatim.
func (c *Client) Authorize(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.authorizeURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("b2: creating authorize request: %w", err)
	}

	req.SetBasicAuth(c.session.KeyID, c.session.Key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("b2: authorize request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			body = []byte("(failed to read response body)")
		}

		var apiErr errorResponse
		if jsonErr := json.Unmarshal(body, &apiErr); jsonErr != nil {
			return &AuthError{Status: resp.StatusCode, Message: string(body)}
		}

		return &AuthError{Code: apiErr.Code, Message: apiErr.Message, Status: resp.StatusCode}
	}

	var auth authorizeResponse
	if decErr := json.NewDecoder(resp.Body).Decode(&auth); decErr != nil {
		return fmt.Errorf("b2: decoding authorize response: %w", decErr)
	}

	// Overwrite the session in place: callers must not cache any of these
	// values across a call that may reauthorize.
	c.session.AccountID = auth.AccountID
	c.session.AuthToken = auth.AuthorizationToken
	c.session.APIURL = auth.APIInfo.StorageAPI.APIURL
	c.session.DownloadURL = auth.APIInfo.StorageAPI.DownloadURL
	c.session.RecommendedPartSize = auth.APIInfo.StorageAPI.RecommendedPartSize
	c.session.AbsoluteMinimumPartSize = auth.APIInfo.StorageAPI.AbsoluteMinimumPartSize

	c.logger.Debug("authorized",
		slog.String("account_id", c.session.AccountID),
		slog.String("api_url", c.session.APIURL),
		slog.Int64("recommended_part_size", c.session.RecommendedPartSize),
	)

	return nil
}

// Reauthorize repeats the authorization exchange with the already-known
// key. Invoked by the request executor when the API reports token expiry.
func (c *Client) Reauthorize(ctx context.Context) error {
	return c.Authorize(ctx)
}

// Authorized reports whether the session holds a usable token. A session
// with a key but no token (or no API URL) needs a fresh Authorize call
// before any API request.
func (c *Client) Authorized() bool {
	return c.session.AuthToken != "" && c.session.APIURL != ""
}
