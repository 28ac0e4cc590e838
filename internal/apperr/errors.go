// Package apperr classifies service errors so transports can tell a missing
// record from a broken database without string matching.
package apperr

import (
	"net/http"

	"github.com/cockroachdb/errors"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrDatabase      = errors.New("database error")
	ErrUpstream      = errors.New("upstream error")
)

// Validation builds a validation error with a formatted message
func Validation(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrValidation)
}

func NotFound(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrNotFound)
}

func AlreadyExists(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrAlreadyExists)
}

// Database wraps a storage failure with context
func Database(err error, msg string) error {
	return errors.Mark(errors.Wrap(err, msg), ErrDatabase)
}

// Upstream wraps a failure of an external provider
func Upstream(err error, msg string) error {
	return errors.Mark(errors.Wrap(err, msg), ErrUpstream)
}

func IsNotFound(err error) bool      { return errors.Is(err, ErrNotFound) }
func IsValidation(err error) bool    { return errors.Is(err, ErrValidation) }
func IsAlreadyExists(err error) bool { return errors.Is(err, ErrAlreadyExists) }
func IsDatabase(err error) bool      { return errors.Is(err, ErrDatabase) }
func IsUpstream(err error) bool      { return errors.Is(err, ErrUpstream) }

// HTTPStatus maps an error class to the response status code
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsValidation(err):
		return http.StatusBadRequest
	case IsNotFound(err):
		return http.StatusNotFound
	case IsAlreadyExists(err):
		return http.StatusConflict
	case IsUpstream(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
