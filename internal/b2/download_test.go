package b2

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownload_StreamsContent(t *testing.T) {
	content := bytes.Repeat([]byte("stream me "), 1000)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/file/my-bucket/docs/notes.txt", r.URL.Path)
		assert.Equal(t, "token-0", r.Header.Get("Authorization"))

		w.Header().Set("Content-Length", strconv.Itoa(len(content)))
		_, _ = w.Write(content)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)

	var out bytes.Buffer

	var lastTransferred, lastTotal int64

	n, err := client.Download(context.Background(), "my-bucket", "docs/notes.txt", &out,
		func(transferred, total int64) {
			lastTransferred, lastTotal = transferred, total
		})
	require.NoError(t, err)

	assert.Equal(t, int64(len(content)), n)
	assert.Equal(t, content, out.Bytes())
	assert.Equal(t, int64(len(content)), lastTransferred)
	assert.Equal(t, int64(len(content)), lastTotal)
}

func TestDownload_ReauthorizesOnExpiredToken(t *testing.T) {
	content := []byte("gated content")

	var srvURL string

	first := true

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/b2api/v3/b2_authorize_account" {
			writeAuthorizeResponse(w, srvURL, "fresh-token")
			return
		}

		if first {
			first = false

			writeAPIError(w, http.StatusUnauthorized, "expired_auth_token", "token expired")

			return
		}

		assert.Equal(t, "fresh-token", r.Header.Get("Authorization"))
		_, _ = w.Write(content)
	}))
	defer srv.Close()

	srvURL = srv.URL

	client := newTestClient(srv.URL)

	var out bytes.Buffer

	n, err := client.Download(context.Background(), "b", "f.txt", &out, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), n)
	assert.Equal(t, content, out.Bytes())
}

func TestDownload_APIErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeAPIError(w, http.StatusNotFound, "not_found", "no such file")
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)

	var out bytes.Buffer

	_, err := client.Download(context.Background(), "b", "missing.txt", &out, nil)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "not_found", apiErr.Code)
	assert.Zero(t, out.Len())
}

// TestUploadDownloadRoundTrip uploads through the single-shot path into an
// in-memory object store and downloads it back, verifying byte identity
// and the content hash end to end.
func TestUploadDownloadRoundTrip(t *testing.T) {
	var (
		mu      sync.Mutex
		objects = make(map[string][]byte)
	)

	var srvURL string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/b2api/v3/b2_get_upload_url":
			_ = json.NewEncoder(w).Encode(uploadTarget{
				UploadURL:          srvURL + "/upload/lease-1",
				AuthorizationToken: "lease-token",
			})

		case r.URL.Path == "/upload/lease-1":
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)

			// The fake validates the declared hash like B2 does.
			require.Equal(t, hashBytes(body), r.Header.Get("X-Bz-Content-Sha1"))

			mu.Lock()
			objects[r.Header.Get("X-Bz-File-Name")] = body
			mu.Unlock()

			_ = json.NewEncoder(w).Encode(File{Name: r.Header.Get("X-Bz-File-Name")})

		case strings.HasPrefix(r.URL.Path, "/file/roundtrip/"):
			mu.Lock()
			body, ok := objects[strings.TrimPrefix(r.URL.Path, "/file/roundtrip/")]
			mu.Unlock()

			if !ok {
				writeAPIError(w, http.StatusNotFound, "not_found", "no such file")
				return
			}

			_, _ = w.Write(body)

		default:
			t.Errorf("unexpected request: %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	srvURL = srv.URL

	content := bytes.Repeat([]byte{0x00, 0x01, 0xfe, 0xff}, 8192)

	client := newTestClient(srv.URL)

	f, err := os.Open(writeTempFile(t, content))
	require.NoError(t, err)
	defer f.Close()

	_, err = client.UploadFile(
		context.Background(), "bucket-1", "blob.bin", f, int64(len(content)), UploadOptions{},
	)
	require.NoError(t, err)

	var out bytes.Buffer

	n, err := client.Download(context.Background(), "roundtrip", "blob.bin", &out, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(len(content)), n)
	assert.Equal(t, content, out.Bytes())
	assert.Equal(t, hashBytes(content), hashBytes(out.Bytes()))
}
