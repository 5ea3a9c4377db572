package copier

import "errors"

var (
	// ErrReferenceDataMissing means the instrument is not yet loaded for the
	// account. Recoverable, the next event retries.
	ErrReferenceDataMissing = errors.New("reference data missing")

	// ErrPriceUnavailable means no fresh quote exists for a cross-currency
	// pip-value conversion. Recoverable, triggers the fallback multiplier.
	ErrPriceUnavailable = errors.New("price unavailable")

	// ErrIncompleteExecutionEvent means instrument, side or volume could not
	// be resolved from any of the notice sub-records. The event is dropped.
	ErrIncompleteExecutionEvent = errors.New("incomplete execution event")

	// ErrNoMatchingPosition means a close was requested but the destination
	// holds no position for the instrument.
	ErrNoMatchingPosition = errors.New("no matching position")

	// ErrAuthorizationFailure is fatal. Replication must not start.
	ErrAuthorizationFailure = errors.New("authorization failure")
)
