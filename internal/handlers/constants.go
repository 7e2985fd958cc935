package handlers

const (
	// maxBodyBytes caps JSON request bodies
	maxBodyBytes = 1 << 20

	ErrInvalidJSON         = "Invalid JSON body"
	ErrUnauthorized        = "Unauthorized"
	ErrForbidden           = "Forbidden"
	ErrInvalidCSRFToken    = "Invalid CSRF token"
	ErrTooManyRequests     = "Too many requests. Please try again later."
	ErrInternalServerError = "Internal server error"
)
