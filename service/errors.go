package service

import (
	"errors"
	"fmt"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrMissingSessionID = errors.New("session_id is required")
	ErrMissingAnswer    = errors.New("answer is required")
	ErrMissingFile      = errors.New("file is required")
	ErrFileTooLarge     = errors.New("file exceeds the upload limit")
	ErrExchangeInFlight = errors.New("a chat exchange is already in progress for this session")
	ErrSessionCompleted = errors.New("the eligibility chat for this session has already finished")
	ErrUnknownTarget    = errors.New("unknown upstream target")
)

// TransportError reports a failed round trip to an upstream target: either
// the request never completed or the upstream answered with a non-2xx status.
type TransportError struct {
	Target     string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream %s returned %d: %v", e.Target, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("upstream %s unreachable: %v", e.Target, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
