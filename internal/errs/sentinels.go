// Package errs contains sentinel errors used across pipeline stages for stable error mapping.
package errs

import (
	"errors"
	"fmt"
)

// Common sentinels across queue/mask/repository/service layers.
var (
	// ErrTransientFetch indicates a receive attempt that returned nothing usable yet.
	ErrTransientFetch = errors.New("transient fetch failure")

	// ErrFetchExhausted indicates the queue reader ran out of attempts.
	ErrFetchExhausted = errors.New("fetch attempts exhausted")

	// ErrMaskFormat indicates a masked field component is not a valid in-range integer.
	ErrMaskFormat = errors.New("mask format")

	// ErrSchema indicates the destination table could not be created.
	ErrSchema = errors.New("schema")

	// ErrLoad indicates the bulk insert transaction failed and was rolled back.
	ErrLoad = errors.New("load")

	// ErrMissingHandle indicates the pipeline was built without a queue or database handle.
	ErrMissingHandle = errors.New("missing handle")
)

// StageError names the pipeline stage that failed and carries the cause.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
