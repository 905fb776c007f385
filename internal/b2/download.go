package b2

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// Download streams bucket/name to w and returns the number of bytes
// written. The request is routed through the executor, so an expired token
// is recovered transparently before any body bytes flow; a failure during
// streaming itself surfaces to the caller with whatever was already
// written in place.
func (c *Client) Download(
	ctx context.Context, bucket, name string, w io.Writer, progress ProgressFunc,
) (int64, error) {
	resp, err := c.send(ctx, func(ctx context.Context) (*http.Response, error) {
		downloadURL := fmt.Sprintf("%s/file/%s/%s", c.session.DownloadURL, bucket, encodeFileName(name))

		req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, http.NoBody)
		if reqErr != nil {
			return nil, fmt.Errorf("b2: creating download request: %w", reqErr)
		}

		req.Header.Set("Authorization", c.session.AuthToken)

		return c.httpClient.Do(req)
	})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(newProgressWriter(w, resp.ContentLength, progress), resp.Body)
	if err != nil {
		return n, fmt.Errorf("b2: streaming download: %w", err)
	}

	c.logger.Debug("download complete",
		slog.String("bucket", bucket),
		slog.String("name", name),
		slog.Int64("bytes", n),
	)

	return n, nil
}
