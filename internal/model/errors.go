package model

import (
	"errors"
	"fmt"
)

var (
	// ErrSuperseded is returned by Refresh when a newer request made the result stale.
	ErrSuperseded = errors.New("refresh superseded by a newer request")
	// ErrInvalidCurrency is returned for codes that are not ISO 4217 currencies.
	ErrInvalidCurrency = errors.New("invalid quote currency")
	// ErrInvalidView is returned for unknown tabs, sort directions or themes.
	ErrInvalidView = errors.New("invalid view value")
	// ErrPersistenceCorrupt marks a stored blob that could not be parsed.
	// It is always recovered locally and never returned by the pipeline.
	ErrPersistenceCorrupt = errors.New("persisted value is corrupt")
)

// NetworkError reports a failed fetch or a non-success HTTP status.
type NetworkError struct {
	Op         string
	StatusCode int // 0 when the request never got a response
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: unexpected status code %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// DecodeError reports a response that could not be parsed into the expected shape.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: decode: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
