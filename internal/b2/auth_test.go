package b2

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorize_PopulatesSession(t *testing.T) {
	var gotUser, gotPass string

	var srvURL string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/b2api/v3/b2_authorize_account", r.URL.Path)

		var ok bool
		gotUser, gotPass, ok = r.BasicAuth()
		require.True(t, ok)

		writeAuthorizeResponse(w, srvURL, "token-1")
	}))
	defer srv.Close()

	srvURL = srv.URL

	client := newTestClient(srv.URL)
	client.session.AuthToken = ""
	client.session.APIURL = ""

	err := client.Authorize(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "test-key-id", gotUser)
	assert.Equal(t, "test-key", gotPass)

	session := client.Session()
	assert.Equal(t, "acct-1", session.AccountID)
	assert.Equal(t, "token-1", session.AuthToken)
	assert.Equal(t, srv.URL, session.APIURL)
	assert.Equal(t, srv.URL, session.DownloadURL)
	assert.Equal(t, int64(100_000_000), session.RecommendedPartSize)
	assert.Equal(t, int64(5_000_000), session.AbsoluteMinimumPartSize)
	assert.True(t, client.Authorized())
}

func TestAuthorize_OverwritesPreviousSession(t *testing.T) {
	var srvURL string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeAuthorizeResponse(w, srvURL, "token-2")
	}))
	defer srv.Close()

	srvURL = srv.URL

	client := newTestClient(srv.URL)
	client.session.AuthToken = "stale-token"

	require.NoError(t, client.Reauthorize(context.Background()))
	assert.Equal(t, "token-2", client.Session().AuthToken)
}

func TestAuthorize_ErrorSurfacedVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeAPIError(w, http.StatusUnauthorized, "unauthorized", "Invalid authorization")
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)

	err := client.Authorize(context.Background())
	require.Error(t, err)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "unauthorized", authErr.Code)
	assert.Equal(t, "Invalid authorization", authErr.Message)
	assert.Equal(t, http.StatusUnauthorized, authErr.Status)
}

func TestAuthorized(t *testing.T) {
	client := newTestClient("http://example.invalid")
	assert.True(t, client.Authorized())

	client.session.AuthToken = ""
	assert.False(t, client.Authorized())
}
