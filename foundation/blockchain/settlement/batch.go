// Package settlement implements the optimistic rollup side of the finality
// core. Finalized blocks are grouped into batches, every batch claims a
// state root on open, and anyone holding the batched transaction references
// can dispute that claim with a fraud proof before the challenge deadline.
// Batches that survive the challenge period fold into the settlement root.
package settlement

import (
	"github.com/meridianchain/meridian/foundation/blockchain/block"
	"github.com/meridianchain/meridian/foundation/blockchain/execution"
)

// Status is the lifecycle of one batch. A batch moves from Open to exactly
// one of the terminal states and never back.
type Status string

// The set of batch statuses.
const (
	StatusOpen      Status = "Open"
	StatusConfirmed Status = "Confirmed"
	StatusReverted  Status = "Reverted"
)

// Outcome is the resolution of one submitted fraud proof.
type Outcome string

// The set of fraud proof outcomes.
const (
	OutcomePending  Outcome = "Pending"
	OutcomeAccepted Outcome = "Accepted"
	OutcomeRejected Outcome = "Rejected"
)

// BlockRef pins one finalized block into a batch. The batch carries the
// references rather than the block payloads; the data availability layer
// holds the rest.
type BlockRef struct {
	Hash   string        `json:"hash"`
	Height uint64        `json:"height"`
	Txs    []block.TxRef `json:"txs"`
}

// Batch is one settlement unit. PrevRoot and ClaimedRoot bracket the state
// transition the batch asserts; the claim stands unless a fraud proof lands
// before DeadlineHeight.
type Batch struct {
	ID             uint64     `json:"id"`
	Proposer       string     `json:"proposer"`
	Blocks         []BlockRef `json:"blocks"`
	PrevRoot       string     `json:"prev_root"`
	ClaimedRoot    string     `json:"claimed_root"`
	ReceiptsRoot   string     `json:"receipts_root"`
	EvidenceRef    string     `json:"evidence_ref"`
	OpenedHeight   uint64     `json:"opened_height"`
	DeadlineHeight uint64     `json:"deadline_height"`
	Status         Status     `json:"status"`
	RevertedBy     string     `json:"reverted_by,omitempty"`
}

// FraudProof disputes one open batch. The verifier replays the batched
// references itself, so the proof only needs to say where to look and carry
// the receipts the challenger derived.
type FraudProof struct {
	BatchID      uint64              `json:"batch_id"`
	Challenger   string              `json:"challenger"`
	DisputedTxID string              `json:"disputed_tx_id"`
	Receipts     []execution.Receipt `json:"receipts"`
	EvidenceRef  string              `json:"evidence_ref"`
}

// Result is the resolution record for one fraud proof. Every rejection is
// attributable to a named check.
type Result struct {
	Proof   FraudProof `json:"proof"`
	Outcome Outcome    `json:"outcome"`
	Reason  string     `json:"reason,omitempty"`
	Height  uint64     `json:"height"`
}
