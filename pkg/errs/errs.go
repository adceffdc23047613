// Package errs defines the billing error taxonomy shared by every domain
// package, plus the mapping from error kind to HTTP status code.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// NotFoundError indicates a lookup by business key or id failed.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %q", e.Entity, e.Key)
}

// NotFound creates a NotFoundError for the given entity and key.
func NotFound(entity, key string) error {
	return &NotFoundError{Entity: entity, Key: key}
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// InvalidTransitionError indicates an illegal lifecycle move. It carries the
// entity, the state it was in, and the transition that was attempted.
type InvalidTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s transition: %s -> %s", e.Entity, e.From, e.To)
}

// InvalidTransition creates an InvalidTransitionError.
func InvalidTransition(entity, from, to string) error {
	return &InvalidTransitionError{Entity: entity, From: from, To: to}
}

// IsInvalidTransition reports whether err is (or wraps) an
// InvalidTransitionError.
func IsInvalidTransition(err error) bool {
	var it *InvalidTransitionError
	return errors.As(err, &it)
}

// ValidationError indicates malformed input: money, currency, date range,
// seat count and the like.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validationf creates a ValidationError with a formatted message.
func Validationf(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// CurrencyMismatchError indicates arithmetic across two different currencies.
type CurrencyMismatchError struct {
	Left  string
	Right string
}

func (e *CurrencyMismatchError) Error() string {
	return fmt.Sprintf("currency mismatch: %q vs %q", e.Left, e.Right)
}

// CurrencyMismatch creates a CurrencyMismatchError.
func CurrencyMismatch(left, right string) error {
	return &CurrencyMismatchError{Left: left, Right: right}
}

// IsCurrencyMismatch reports whether err is (or wraps) a
// CurrencyMismatchError.
func IsCurrencyMismatch(err error) bool {
	var cm *CurrencyMismatchError
	return errors.As(err, &cm)
}

// PromoNotValidError indicates a promo code that exists but cannot be
// applied: expired, exhausted, or malformed.
type PromoNotValidError struct {
	Code   string
	Reason string
}

func (e *PromoNotValidError) Error() string {
	return fmt.Sprintf("promo %q not valid: %s", e.Code, e.Reason)
}

// PromoNotValid creates a PromoNotValidError.
func PromoNotValid(code, reason string) error {
	return &PromoNotValidError{Code: code, Reason: reason}
}

// IsPromoNotValid reports whether err is (or wraps) a PromoNotValidError.
func IsPromoNotValid(err error) bool {
	var pn *PromoNotValidError
	return errors.As(err, &pn)
}

// ConfigError indicates a malformed plan or catalog configuration.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return e.Msg }

// Configf creates a ConfigError with a formatted message.
func Configf(format string, args ...interface{}) error {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

// IsConfig reports whether err is (or wraps) a ConfigError.
func IsConfig(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// HTTPStatus maps a billing error to the HTTP status the API layer should
// return. Errors outside the taxonomy map to 500.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsNotFound(err):
		return http.StatusNotFound
	case IsInvalidTransition(err):
		return http.StatusConflict
	case IsValidation(err), IsCurrencyMismatch(err), IsPromoNotValid(err), IsConfig(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
