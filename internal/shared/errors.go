package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrRefreshFailed    = fmt.Errorf("token refresh failed")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrQuotaExceeded      = fmt.Errorf("upload quota exceeded")
	ErrRateLimited        = fmt.Errorf("rate limited by remote service")
	ErrFatalAPI           = fmt.Errorf("unrecoverable API error")
	ErrCollectionNotFound = fmt.Errorf("collection not found")
	ErrUploadAborted      = fmt.Errorf("upload aborted")

	// Local inventory errors
	ErrDataError     = fmt.Errorf("local data error")
	ErrDuplicateKey  = fmt.Errorf("duplicate item key")
	ErrFolderMissing = fmt.Errorf("folder not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
