package b2

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// discardLogger suppresses log output in tests.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestClient creates a client whose session and authorize endpoint both
// point at the given test server.
func newTestClient(srvURL string) *Client {
	session := &Session{
		KeyID:       "test-key-id",
		Key:         "test-key",
		APIURL:      srvURL,
		DownloadURL: srvURL,
		AuthToken:   "token-0",
		AccountID:   "acct-1",
	}

	c := NewClient(session, http.DefaultClient, discardLogger())
	c.authorizeURL = srvURL + "/b2api/v3/b2_authorize_account"

	return c
}

// writeAuthorizeResponse serves a minimal successful authorization body.
// token distinguishes successive reauthorizations.
func writeAuthorizeResponse(w http.ResponseWriter, srvURL, token string) {
	resp := map[string]any{
		"accountId":          "acct-1",
		"authorizationToken": token,
		"apiInfo": map[string]any{
			"storageApi": map[string]any{
				"apiUrl":                  srvURL,
				"downloadUrl":             srvURL,
				"recommendedPartSize":     100_000_000,
				"absoluteMinimumPartSize": 5_000_000,
			},
		},
	}

	_ = json.NewEncoder(w).Encode(resp)
}

func writeAPIError(w http.ResponseWriter, status int, code, message string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"code":    code,
		"message": message,
		"status":  status,
	})
}

func TestSend_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"value":"ok"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)

	var out struct {
		Value string `json:"value"`
	}

	err := client.sendJSON(context.Background(), client.get("b2_test"), &out)
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Value)
}

func TestSend_ReauthorizesOnExpiredToken(t *testing.T) {
	var authCalls, expiredLeft atomic.Int32

	expiredLeft.Store(2)

	var srvURL string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/b2api/v3/b2_authorize_account" {
			authCalls.Add(1)
			writeAuthorizeResponse(w, srvURL, "fresh-token")

			return
		}

		if expiredLeft.Add(-1) >= 0 {
			writeAPIError(w, http.StatusUnauthorized, "expired_auth_token", "token expired")
			return
		}

		assert.Equal(t, "fresh-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	srvURL = srv.URL

	client := newTestClient(srv.URL)

	err := client.sendJSON(context.Background(), client.get("b2_test"), nil)
	require.NoError(t, err)

	// Exactly two expirations means exactly two reauthorizations; the
	// third invocation of the call succeeds.
	assert.Equal(t, int32(2), authCalls.Load())
}

func TestSend_AuthExhausted(t *testing.T) {
	var authCalls atomic.Int32

	var srvURL string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/b2api/v3/b2_authorize_account" {
			authCalls.Add(1)
			writeAuthorizeResponse(w, srvURL, "fresh-token")

			return
		}

		writeAPIError(w, http.StatusUnauthorized, "expired_auth_token", "token expired")
	}))
	defer srv.Close()

	srvURL = srv.URL

	client := newTestClient(srv.URL)

	err := client.sendJSON(context.Background(), client.get("b2_test"), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuthExhausted)
	assert.Equal(t, int32(maxAuthAttempts), authCalls.Load())
}

func TestSend_OtherErrorNotRetried(t *testing.T) {
	var authCalls, apiCalls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/b2api/v3/b2_authorize_account" {
			authCalls.Add(1)
			return
		}

		apiCalls.Add(1)
		writeAPIError(w, http.StatusBadRequest, "bad_bucket_id", "no such bucket")
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)

	err := client.sendJSON(context.Background(), client.get("b2_test"), nil)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "bad_bucket_id", apiErr.Code)
	assert.Equal(t, "no such bucket", apiErr.Message)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Contains(t, apiErr.URL, "/b2api/v3/b2_test")

	assert.Equal(t, int32(0), authCalls.Load())
	assert.Equal(t, int32(1), apiCalls.Load())
}

func TestSend_NonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream exploded"))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)

	err := client.sendJSON(context.Background(), client.get("b2_test"), nil)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Empty(t, apiErr.Code)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "upstream exploded", apiErr.Message)
}

func TestSend_ReauthorizeFailureSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/b2api/v3/b2_authorize_account" {
			writeAPIError(w, http.StatusUnauthorized, "bad_auth_token", "key revoked")
			return
		}

		writeAPIError(w, http.StatusUnauthorized, "expired_auth_token", "token expired")
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)

	err := client.sendJSON(context.Background(), client.get("b2_test"), nil)
	require.Error(t, err)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "bad_auth_token", authErr.Code)
}

func TestSend_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.sendJSON(ctx, client.get("b2_test"), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
