package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	// ErrConflict surfaces a lost compare-and-swap race after bounded
	// retries; callers may retry the whole request.
	ErrConflict = errors.New("transient state conflict, retry")
	// ErrAlreadyFinalized rejects duplicate finalization of a player for a
	// different team; same-team replays are idempotent no-ops instead.
	ErrAlreadyFinalized = errors.New("player outcome already finalized")
	// ErrReconciliationRequired is fatal to the automatic path: the winner's
	// budget moved between resolution and finalize. Escalated for manual
	// resolution, never auto-reassigned.
	ErrReconciliationRequired = errors.New("budget changed since resolution, manual reconciliation required")
)
