package b2

import "time"

// Session holds the mutable authorization state for one CLI invocation.
// Every successful (re)authorization overwrites the token, URLs, and part
// sizes in place, so callers must not cache these values across calls that
// may reauthorize. Single-owner, single-writer: one Session per process.
type Session struct {
	KeyID string
	Key   string

	APIURL      string
	DownloadURL string
	AuthToken   string
	AccountID   string

	RecommendedPartSize     int64
	AbsoluteMinimumPartSize int64
}

// Bucket is one bucket record from b2_list_buckets.
type Bucket struct {
	ID   string `json:"bucketId"`
	Name string `json:"bucketName"`
	Type string `json:"bucketType"`
}

// File is an uploaded-file record as returned by uploads, finalization,
// and b2_list_file_names.
type File struct {
	ID              string `json:"fileId"`
	Name            string `json:"fileName"`
	BucketID        string `json:"bucketId"`
	ContentLength   int64  `json:"contentLength"`
	ContentType     string `json:"contentType"`
	ContentSHA1     string `json:"contentSha1"`
	UploadTimestamp int64  `json:"uploadTimestamp"` // milliseconds since epoch
}

// UploadTime returns the upload timestamp as a time.Time.
func (f *File) UploadTime() time.Time {
	return time.UnixMilli(f.UploadTimestamp)
}

// authorizeResponse is the b2_authorize_account response shape (v3).
type authorizeResponse struct {
	AccountID          string  `json:"accountId"`
	AuthorizationToken string  `json:"authorizationToken"`
	APIInfo            apiInfo `json:"apiInfo"`
}

type apiInfo struct {
	StorageAPI storageAPI `json:"storageApi"`
}

type storageAPI struct {
	APIURL                  string `json:"apiUrl"`
	DownloadURL             string `json:"downloadUrl"`
	RecommendedPartSize     int64  `json:"recommendedPartSize"`
	AbsoluteMinimumPartSize int64  `json:"absoluteMinimumPartSize"`
}

// errorResponse is the structured error body returned by every endpoint.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// uploadTarget is the response of b2_get_upload_url and
// b2_get_upload_part_url: a target URL with its own short-lived token.
type uploadTarget struct {
	UploadURL          string `json:"uploadUrl"`
	AuthorizationToken string `json:"authorizationToken"`
}

type listBucketsResponse struct {
	Buckets []Bucket `json:"buckets"`
}

type listFileNamesResponse struct {
	Files        []File  `json:"files"`
	NextFileName *string `json:"nextFileName"`
}

type startLargeFileResponse struct {
	FileID string `json:"fileId"`
}
