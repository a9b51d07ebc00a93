// FILE: internal/srs/errors.go
package srs

import "errors"

var (
	ErrInvalidGrade = errors.New("srs: grade must be between 0 and 5")
	ErrInvalidMode  = errors.New("srs: unknown training mode")
)
