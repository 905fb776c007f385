package b2

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
)

// SeedBucketCache preloads the bucket name->ID cache, typically from the
// persisted configuration.
func (c *Client) SeedBucketCache(buckets map[string]string) {
	for name, id := range buckets {
		c.buckets[name] = id
	}
}

// BucketCache returns a copy of the bucket name->ID cache for persistence.
func (c *Client) BucketCache() map[string]string {
	out := make(map[string]string, len(c.buckets))
	for name, id := range c.buckets {
		out[name] = id
	}

	return out
}

// ListBuckets fetches the account's buckets and refreshes the cache.
// Buckets are returned sorted by name for stable output.
func (c *Client) ListBuckets(ctx context.Context) ([]Bucket, error) {
	var res listBucketsResponse

	err := c.sendJSON(ctx, c.get("b2_list_buckets", "accountId", c.session.AccountID), &res)
	if err != nil {
		return nil, err
	}

	for _, b := range res.Buckets {
		c.buckets[b.Name] = b.ID
	}

	sort.Slice(res.Buckets, func(i, j int) bool { return res.Buckets[i].Name < res.Buckets[j].Name })

	c.logger.Debug("listed buckets", slog.Int("count", len(res.Buckets)))

	return res.Buckets, nil
}

// ResolveBucketID maps a bucket name to its ID, consulting the cache first
// and refreshing from the API on a miss in case the bucket was just
// created. An unknown name fails with ErrBucketNotFound.
func (c *Client) ResolveBucketID(ctx context.Context, name string) (string, error) {
	if id, ok := c.buckets[name]; ok {
		return id, nil
	}

	if _, err := c.ListBuckets(ctx); err != nil {
		return "", err
	}

	id, ok := c.buckets[name]
	if !ok {
		return "", fmt.Errorf("b2: bucket %q: %w", name, ErrBucketNotFound)
	}

	return id, nil
}
