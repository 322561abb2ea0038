package services

import (
	"errors"
	"fmt"

	"github.com/ltnetwork/ltnetwork-api/models"
)

var (
	// ErrNotFound is returned when a referenced account or booking does
	// not exist.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized is returned when the actor lacks the role or
	// identity required for the attempted operation. Terminal, no retry.
	ErrUnauthorized = errors.New("actor not permitted")

	// ErrPreconditionFailed is returned when a status write lost a race:
	// the stored status no longer matched the expected one at write time.
	// Callers may refresh and retry once with the new expected state.
	ErrPreconditionFailed = errors.New("booking status changed concurrently")

	// ErrUpstreamUnavailable is returned when the store or identity
	// provider is unreachable. It is always distinguishable from a
	// legitimately empty result.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// InvalidTransitionError reports a booking status change that is not in
// the transition table.
type InvalidTransitionError struct {
	From  models.BookingStatus
	To    models.BookingStatus
	Actor string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition %s -> %s by %s", e.From, e.To, e.Actor)
}

// IsInvalidTransition reports whether err is an InvalidTransitionError.
func IsInvalidTransition(err error) bool {
	var ite *InvalidTransitionError
	return errors.As(err, &ite)
}
