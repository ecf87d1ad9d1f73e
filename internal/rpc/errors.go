package rpc

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse is returned by Call when a response frame fails
// correlation or length validation.
var ErrMalformedResponse = errors.New("rpc: malformed response")

// ErrConnectionFailed marks a transport-level failure establishing or
// using a session.
var ErrConnectionFailed = errors.New("rpc: connection failed")

func malformedResponse(cause error) error {
	return fmt.Errorf("%w: %v", ErrMalformedResponse, cause)
}

func connectionFailed(op string, cause error) error {
	return fmt.Errorf("rpc: %s: %w: %v", op, ErrConnectionFailed, cause)
}
