package errors

// represents a standardized error response
type ErrorResponse struct {
	Error   string `json:"error"`             // error code (e.g., "unauthorized", "quota_exceeded")
	Message string `json:"message"`           // user-friendly message
	Details string `json:"details,omitempty"` // optional details (sanitized in production)
	Upsell  string `json:"upsell,omitempty"`  // where the client can buy more tokens
}

type errorInfo struct {
	category  string
	sanitized string
}

// standard error codes
const (
	CodeUnauthorized     = "unauthorized"
	CodeForbidden        = "forbidden"
	CodeNotFound         = "not_found"
	CodeValidationError  = "validation_error"
	CodeServerError      = "server_error"
	CodeBadRequest       = "bad_request"
	CodeConflict         = "conflict"
	CodeTooManyRequests  = "too_many_requests"
	CodeQuotaExceeded    = "quota_exceeded"
	CodeProviderError    = "provider_error"
	CodeInvalidSignature = "invalid_signature"
)

// error categories for classification
const (
	CategoryDatabase   = "database"
	CategoryNetwork    = "network"
	CategoryValidation = "validation"
	CategoryAuth       = "auth"
	CategoryNotFound   = "not_found"
	CategoryTimeout    = "timeout"
	CategoryUnknown    = "unknown"
)
