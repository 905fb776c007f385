package b2

import (
	"context"
	"log/slog"
)

// ListFileNames lists the file records of a bucket in name order.
func (c *Client) ListFileNames(ctx context.Context, bucketID string) ([]File, error) {
	var res listFileNamesResponse

	err := c.sendJSON(ctx, c.get("b2_list_file_names", "bucketId", bucketID), &res)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("listed files",
		slog.String("bucket_id", bucketID),
		slog.Int("count", len(res.Files)),
	)

	return res.Files, nil
}
