package users

import (
	"errors"
	"fmt"
)

// ErrNotFound reports that no user document matched the lookup key.
var ErrNotFound = errors.New("user not found")

// ClientError reports a malformed or missing request parameter. Requests
// failing this way never reach the store.
type ClientError struct {
	msg string
}

func (e *ClientError) Error() string {
	return e.msg
}

// NewClientError builds a ClientError with a formatted message.
func NewClientError(format string, args ...any) *ClientError {
	return &ClientError{msg: fmt.Sprintf(format, args...)}
}

// IsClientError reports whether err is a ClientError.
func IsClientError(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce)
}
