package handlers

const (
	SessionCookieName = "figurdle_session"

	// Stable client-facing error categories. Internals never leak
	ErrCategoryInvalidRequest = "invalid_request"
	ErrCategoryTampered       = "invalid_signature"
	ErrCategoryNotFound       = "not_found"
	ErrCategoryNotEligible    = "already_played"
	ErrCategoryUnauthorized   = "unauthorized"
	ErrCategoryRateLimited    = "rate_limited"
	ErrCategoryInternal       = "internal_error"
)
