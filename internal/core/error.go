// FILE: internal/core/error.go
package core

// Error codes
const (
	ErrInvalidMove        = "INVALID_MOVE"
	ErrInvalidFEN         = "INVALID_FEN"
	ErrInvalidPGN         = "INVALID_PGN"
	ErrPositionNotFound   = "POSITION_NOT_FOUND"
	ErrMoveNotFound       = "MOVE_NOT_FOUND"
	ErrTagNotFound        = "TAG_NOT_FOUND"
	ErrTagExists          = "TAG_EXISTS"
	ErrInvalidRequest     = "INVALID_REQUEST"
	ErrUnauthorized       = "UNAUTHORIZED"
	ErrRateLimitExceeded  = "RATE_LIMIT_EXCEEDED"
	ErrInvalidContent     = "INVALID_CONTENT_TYPE"
	ErrStorageUnavailable = "STORAGE_UNAVAILABLE"
	ErrInternalError      = "INTERNAL_ERROR"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}
