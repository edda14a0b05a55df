package block

import "errors"

// Structural failures. Fatal to the offending block: it is discarded and the
// operation is never retried.
var (
	ErrHashMismatch       = errors.New("block hash does not re-derive from block fields")
	ErrInvalidProofOfWork = errors.New("block hash does not satisfy the stored difficulty")
	ErrBrokenChainLink    = errors.New("block does not link to its parent")
)

// Operational outcomes. Expected control flow, the caller decides whether
// to retry.
var (
	ErrMiningAborted = errors.New("mining cancelled before a solution was found")
)

// Configuration failures. Rejected before any mining happens.
var (
	ErrDifficultyOutOfBounds = errors.New("difficulty outside configured bounds")
)
