// ABOUTME: Response payload types for Meta Graph API endpoints
// ABOUTME: Covers page feed posts, media containers and error envelopes

package driver

// GraphPostResponse is returned by POST /{page-id}/feed on success.
type GraphPostResponse struct {
	ID string `json:"id"`
}

// GraphMediaContainerResponse is returned by POST /{ig-account-id}/media
// and POST /{ig-account-id}/media_publish on success.
type GraphMediaContainerResponse struct {
	ID string `json:"id"`
}

// GraphErrorResponse is the error envelope Graph API endpoints return
// with non-2xx status codes.
type GraphErrorResponse struct {
	Error GraphError `json:"error"`
}

// GraphError carries the platform's error classification fields.
type GraphError struct {
	Message      string `json:"message"`
	Type         string `json:"type"`
	Code         int    `json:"code"`
	ErrorSubcode int    `json:"error_subcode,omitempty"`
	FBTraceID    string `json:"fbtrace_id,omitempty"`
}
