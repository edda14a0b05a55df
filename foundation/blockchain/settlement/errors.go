package settlement

import "errors"

// Operational outcomes. Expected control flow, the caller decides whether
// to retry.
var (
	ErrBatchNotOpen = errors.New("batch is not accepting fraud proofs")
	ErrUnknownBatch = errors.New("batch id is not tracked")
)

// Economic outcomes. Recorded and possibly slashed, never a crash.
var (
	ErrInsufficientStake = errors.New("challenger stake below the minimum validator stake")
)
