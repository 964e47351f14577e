package core

import "github.com/pkg/errors"

// FieldError points a rejected value at the request field it came from.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is returned by the services when user input is refused:
// a counter with more attended than total sessions, a target outside (0, 100], a taken semester number.
// The API answers it with a 400 listing Fields.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

// InvalidField refuses a single field, reusing err's message for it.
func InvalidField(field string, err error) error {
	return &ValidationError{Err: err, Fields: []FieldError{{Field: field, Error: err.Error()}}}
}

// AsValidationError finds a ValidationError anywhere in err's chain.
func AsValidationError(err error) (*ValidationError, bool) {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr, true
	}
	return nil, false
}

func (err ValidationError) Error() string {
	if err.Err != nil {
		return err.Err.Error()
	}
	if len(err.Fields) > 0 {
		return err.Fields[0].Field + ": " + err.Fields[0].Error
	}
	return ""
}

func (err ValidationError) Unwrap() error { return err.Err }

// shutdownError tells the API server to drain and stop, e.g. after a failed integrity check.
type shutdownError struct {
	reason string
}

func NewShutdownError(reason string) error {
	return &shutdownError{reason: reason}
}

func (err shutdownError) Error() string { return "shutdown requested: " + err.reason }

func IsShutdown(err error) bool {
	var sErr *shutdownError
	return errors.As(err, &sErr)
}
