package erp

import "errors"

// Remote call failures, classified by how the sync engine must react.
var (
	// ErrAuth indicates rejected credentials (401/403). Fatal for the run;
	// requires operator intervention, never retried.
	ErrAuth = errors.New("erp: authentication rejected by remote system")

	// ErrThrottled indicates the remote rate limit was hit (429). Retried
	// under backoff; aborts the run only when retries are exhausted.
	ErrThrottled = errors.New("erp: rate limited by remote system")

	// ErrTransient indicates a network failure or 5xx response. Retried a
	// bounded number of times, then surfaced.
	ErrTransient = errors.New("erp: transient remote failure")

	// ErrRemoteRejected indicates any other 4xx response. Fatal for the
	// triggering record; the remote error payload is attached via wrapping.
	ErrRemoteRejected = errors.New("erp: request rejected by remote system")
)

// Record-level and state errors.
var (
	// ErrMapping indicates a remote record whose shape could not be mapped
	// to a local row. The record is skipped and counted, the run continues.
	ErrMapping = errors.New("erp: record mapping failed")

	// ErrConflict is reserved for write-time version mismatches. Triggers a
	// re-read and retry of the single record, not the whole run.
	ErrConflict = errors.New("erp: concurrent modification detected")

	// ErrNoVendorUpdates is returned by the approval gate when the purchase
	// order has no pending vendor edits to approve.
	ErrNoVendorUpdates = errors.New("erp: purchase order has no pending vendor updates")

	// ErrSyncInProgress is returned when a sync run for the same target is
	// already in flight.
	ErrSyncInProgress = errors.New("erp: sync already in progress for this target")

	// ErrLockHeld is returned by a RowLocker when the lock could not be
	// acquired within the caller's deadline.
	ErrLockHeld = errors.New("erp: row lock already held")
)
