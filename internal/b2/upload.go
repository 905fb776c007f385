package b2

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// LargeFileThreshold is the size at or above which uploads automatically
// switch to the large-file (chunked) path.
const LargeFileThreshold = 1 << 30 // 1 GiB

// defaultAbsoluteMinimumPartSize is the provider's floor for part sizes,
// used when the session predates the field being persisted.
const defaultAbsoluteMinimumPartSize = 5_000_000

// chunkSplitSlack is added when splitting a file in two so the second
// chunk is strictly smaller than the first.
const chunkSplitSlack = 100

// defaultContentType is used when the type can't be guessed from the
// destination name's extension.
const defaultContentType = "text/plain"

// UploadOptions configures one upload operation.
type UploadOptions struct {
	// ContentType overrides extension-based guessing when non-empty.
	ContentType string

	// ForceParts routes the upload through the large-file path regardless
	// of size.
	ForceParts bool

	Progress ProgressFunc
}

// PartDescriptor records one uploaded part of a large file: its 1-based
// number, the byte count consumed, and the lowercase hex SHA-1 of exactly
// those bytes. Never mutated after creation; the ordered sequence is the
// sole input to finalization.
type PartDescriptor struct {
	Number int64
	Size   int64
	SHA1   string
}

// uploadPlan is the derived chunking decision for one large-file upload.
type uploadPlan struct {
	chunkSize  int64
	chunkCount int64
}

// planChunks derives the chunk size for a file of length total given the
// service-recommended size and absolute minimum part size. A plan that
// would produce a single full chunk (or none) is re-split near-evenly so
// the upload is a legitimate multi-part one, clamped to the provider's
// absolute minimum. Files that still don't fill one chunk fail with
// ErrInsufficientData.
func planChunks(total, recommended, absoluteMin int64) (uploadPlan, error) {
	if absoluteMin <= 0 {
		absoluteMin = defaultAbsoluteMinimumPartSize
	}

	size := recommended
	if size < absoluteMin {
		size = absoluteMin
	}

	chunks := total / size
	if chunks <= 1 {
		size = max(total/2+chunkSplitSlack, absoluteMin)
		chunks = total / size
	}

	if chunks == 0 {
		return uploadPlan{}, fmt.Errorf("b2: %d bytes: %w", total, ErrInsufficientData)
	}

	return uploadPlan{chunkSize: size, chunkCount: chunks}, nil
}

// UploadFile uploads size bytes from f to the bucket under name. Files at
// or above LargeFileThreshold (or with opts.ForceParts) use the chunked
// large-file path; everything else uploads in one request. name is used
// as-is; the caller is responsible for any normalization.
func (c *Client) UploadFile(
	ctx context.Context, bucketID, name string, f *os.File, size int64, opts UploadOptions,
) (*File, error) {
	if opts.ForceParts || size >= LargeFileThreshold {
		return c.uploadLarge(ctx, bucketID, name, f, size, opts)
	}

	return c.uploadSingle(ctx, bucketID, name, f, size, opts)
}

// uploadSingle performs a one-request upload: lease an upload URL, hash the
// whole file, rewind, stream the body. The body POST goes through the
// executor too; the closure rewinds the file on every invocation so a
// retry after reauthorization resends identical bytes. The hash is
// computed once, outside the closure.
func (c *Client) uploadSingle(
	ctx context.Context, bucketID, name string, f *os.File, size int64, opts UploadOptions,
) (*File, error) {
	var target uploadTarget
	if err := c.sendJSON(ctx, c.get("b2_get_upload_url", "bucketId", bucketID), &target); err != nil {
		return nil, err
	}

	hash, err := hashReader(f)
	if err != nil {
		return nil, err
	}

	if _, seekErr := f.Seek(0, io.SeekStart); seekErr != nil {
		return nil, fmt.Errorf("b2: rewinding after hashing: %w", seekErr)
	}

	contentType := resolveContentType(name, opts.ContentType)

	c.logger.Info("uploading",
		slog.String("name", name),
		slog.Int64("size", size),
		slog.String("content_type", contentType),
	)

	var out File

	err = c.sendJSON(ctx, func(ctx context.Context) (*http.Response, error) {
		if _, seekErr := f.Seek(0, io.SeekStart); seekErr != nil {
			return nil, fmt.Errorf("b2: rewinding upload body: %w", seekErr)
		}

		body := newProgressReader(f, size, opts.Progress)

		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, target.UploadURL, body)
		if reqErr != nil {
			return nil, fmt.Errorf("b2: creating upload request: %w", reqErr)
		}

		req.ContentLength = size
		req.Header.Set("Authorization", target.AuthorizationToken)
		req.Header.Set("X-Bz-File-Name", encodeFileName(name))
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("X-Bz-Content-Sha1", hash)

		return c.httpClient.Do(req)
	}, &out)
	if err != nil {
		return nil, err
	}

	return &out, nil
}

// uploadLarge drives the large-file state machine: start the session,
// lease a part upload URL, upload each chunk sequentially with its own
// hash, then finalize from the submission-ordered hash list. Parts already
// accepted are not cleaned up on failure; abandoned large-file sessions
// are left to server-side garbage collection.
func (c *Client) uploadLarge(
	ctx context.Context, bucketID, name string, f *os.File, size int64, opts UploadOptions,
) (*File, error) {
	plan, err := planChunks(size, c.session.RecommendedPartSize, c.session.AbsoluteMinimumPartSize)
	if err != nil {
		return nil, err
	}

	contentType := resolveContentType(name, opts.ContentType)

	c.logger.Info("uploading as parts",
		slog.String("name", name),
		slog.Int64("size", size),
		slog.Int64("chunk_size", plan.chunkSize),
	)

	var started startLargeFileResponse

	err = c.sendJSON(ctx, c.postJSON("b2_start_large_file", map[string]string{
		"bucketId":    bucketID,
		"fileName":    name,
		"contentType": contentType,
	}), &started)
	if err != nil {
		return nil, err
	}

	var target uploadTarget
	if err := c.sendJSON(ctx, c.get("b2_get_upload_part_url", "fileId", started.FileID), &target); err != nil {
		return nil, err
	}

	parts, err := c.uploadParts(ctx, &target, f, size, plan, opts.Progress)
	if err != nil {
		return nil, err
	}

	hashes := make([]string, len(parts))
	for i, p := range parts {
		hashes[i] = p.SHA1
	}

	var out File

	err = c.sendJSON(ctx, c.postJSON("b2_finish_large_file", map[string]any{
		"fileId":        started.FileID,
		"partSha1Array": hashes,
	}), &out)
	if err != nil {
		return nil, err
	}

	return &out, nil
}

// uploadParts reads and submits chunks sequentially until the whole file is
// covered. Chunk i covers bytes [i*chunkSize, min((i+1)*chunkSize, size)),
// so the trailing remainder becomes a final short part and a zero-length
// part is never submitted. Part numbers are strictly increasing from 1 and
// the returned descriptors are in submission order.
func (c *Client) uploadParts(
	ctx context.Context, target *uploadTarget, f *os.File, size int64,
	plan uploadPlan, progress ProgressFunc,
) ([]PartDescriptor, error) {
	buf := make([]byte, plan.chunkSize)
	parts := make([]PartDescriptor, 0, plan.chunkCount+1)

	var offset int64

	for offset < size {
		n := plan.chunkSize
		if remaining := size - offset; remaining < n {
			n = remaining
		}

		if _, err := io.ReadFull(io.NewSectionReader(f, offset, n), buf[:n]); err != nil {
			return nil, fmt.Errorf("b2: reading chunk at offset %d: %w", offset, err)
		}

		part := PartDescriptor{
			Number: int64(len(parts)) + 1,
			Size:   n,
			SHA1:   hashBytes(buf[:n]),
		}

		if err := c.uploadPart(ctx, target, part, buf[:n]); err != nil {
			return nil, fmt.Errorf("b2: uploading part %d: %w", part.Number, err)
		}

		parts = append(parts, part)
		offset += n

		if progress != nil {
			progress(offset, size)
		}
	}

	return parts, nil
}

// uploadPart submits one chunk to the leased part-upload URL. The request
// goes through the executor; the lease token is scoped to the large-file
// session, not the account token, so the closure reuses it as-is on retry.
func (c *Client) uploadPart(ctx context.Context, target *uploadTarget, part PartDescriptor, chunk []byte) error {
	return c.sendJSON(ctx, func(ctx context.Context) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.UploadURL, bytes.NewReader(chunk))
		if err != nil {
			return nil, fmt.Errorf("b2: creating part request: %w", err)
		}

		req.ContentLength = part.Size
		req.Header.Set("Authorization", target.AuthorizationToken)
		req.Header.Set("X-Bz-Part-Number", strconv.FormatInt(part.Number, 10))
		req.Header.Set("X-Bz-Content-Sha1", part.SHA1)

		return c.httpClient.Do(req)
	}, nil)
}

// resolveContentType returns the explicit type when given, otherwise
// guesses from the destination name's extension, defaulting to text/plain.
func resolveContentType(name, explicit string) string {
	if explicit != "" {
		return explicit
	}

	if byExt := mime.TypeByExtension(filepath.Ext(name)); byExt != "" {
		// TypeByExtension may append a charset parameter; B2 wants the
		// bare media type.
		if mediaType, _, err := mime.ParseMediaType(byExt); err == nil {
			return mediaType
		}

		return byExt
	}

	return defaultContentType
}

// encodeFileName percent-encodes a destination path for the X-Bz-File-Name
// header, preserving "/" as the segment separator.
func encodeFileName(name string) string {
	segments := strings.Split(name, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}

	return strings.Join(segments, "/")
}
