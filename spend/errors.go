package spend

import "errors"

var (
	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("spend: nil parameter")

	// ErrSessionClosed indicates the session was closed and accepts no
	// further pipeline operations.
	ErrSessionClosed = errors.New("spend: session closed")

	// ErrDraftNotFound indicates no open draft has the given id.
	ErrDraftNotFound = errors.New("spend: draft not found")

	// ErrDraftState indicates the draft is not in a state that allows the
	// requested operation.
	ErrDraftState = errors.New("spend: operation not valid in draft state")

	// ErrSignInFlight indicates a signing task for the draft has been
	// submitted and has not completed yet.
	ErrSignInFlight = errors.New("spend: signing already in flight for draft")

	// ErrParentNotSpendable indicates the parent's change output has been
	// spent or the parent confirmed, so no fee bump is possible.
	ErrParentNotSpendable = errors.New("spend: parent no longer spendable")

	// ErrOffline indicates the session has no blockchain service to
	// broadcast through.
	ErrOffline = errors.New("spend: no blockchain service configured")

	// ErrPoolStopped indicates the worker pool has been stopped.
	ErrPoolStopped = errors.New("spend: worker pool stopped")

	// ErrPoolBusy indicates the worker pool queue is full.
	ErrPoolBusy = errors.New("spend: worker pool queue full")
)
