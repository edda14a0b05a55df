// Package execution defines the boundary to the execution layer. The
// finality core consumes state roots and receipts from here; how they are
// produced (WASM engine, eUTXO processing) is not this repository's concern.
package execution

import (
	"sync"

	"github.com/meridianchain/meridian/foundation/blockchain/block"
	"github.com/meridianchain/meridian/foundation/blockchain/merkle"
	"github.com/meridianchain/meridian/foundation/blockchain/signature"
)

// Receipt captures the outcome of executing one transaction reference.
type Receipt struct {
	TxID      string `json:"tx_id"`
	StateRoot string `json:"state_root"` // State root after applying this transaction.
	GasUsed   uint64 `json:"gas_used"`
}

// Hash implements the merkle Hashable interface so batches can commit to
// their receipts.
func (r Receipt) Hash() ([]byte, error) {
	return []byte(signature.Hash(r)), nil
}

// Result is what the execution layer reports for one block.
type Result struct {
	BlockHash string    `json:"block_hash"`
	StateRoot string    `json:"state_root"` // State root after the whole block.
	Receipts  []Receipt `json:"receipts"`
}

// ReceiptsRoot commits to an ordered set of receipts. The settlement
// processor derives batch claimed roots from it and fraud proof verification
// recomputes it independently.
func ReceiptsRoot(receipts []Receipt) (string, error) {
	return merkle.RootHex(receipts)
}

// Replay folds an ordered set of transaction references into the state,
// starting from prevRoot, and returns the receipts with the resulting state
// root. The fold is deterministic: any party holding the same references
// derives the same roots, which is what makes fraud proofs independently
// checkable.
func Replay(prevRoot string, txs []block.TxRef) ([]Receipt, string) {
	root := prevRoot
	receipts := make([]Receipt, 0, len(txs))

	for _, tx := range txs {
		root = signature.Hash(struct {
			Prev string `json:"prev"`
			TxID string `json:"tx_id"`
		}{Prev: root, TxID: tx.ID})

		receipts = append(receipts, Receipt{
			TxID:      tx.ID,
			StateRoot: root,
			GasUsed:   21, // Flat cost per reference; real costs come from the engine.
		})
	}

	return receipts, root
}

// =============================================================================

// Layer is the behavior the finality core requires from the execution
// engine.
type Layer interface {
	ExecuteBlock(blk block.Finalized) (Result, error)
	StateRoot() string
}

// =============================================================================

// Deterministic is an in-process execution layer. Each transaction folds its
// id into the running state root, so any party holding the same ordered
// references derives the same roots. The node and the tests run against it;
// a production deployment swaps in the real engine behind the same
// interface.
type Deterministic struct {
	mu   sync.Mutex
	root string
}

// NewDeterministic constructs the executor starting from the genesis state
// root.
func NewDeterministic() *Deterministic {
	return &Deterministic{root: signature.ZeroHash}
}

// ExecuteBlock applies every transaction reference in order and returns the
// receipts and the resulting state root.
func (d *Deterministic) ExecuteBlock(blk block.Finalized) (Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	receipts, root := Replay(d.root, blk.Txs())
	d.root = root

	return Result{
		BlockHash: blk.Hash(),
		StateRoot: root,
		Receipts:  receipts,
	}, nil
}

// StateRoot returns the current state root.
func (d *Deterministic) StateRoot() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.root
}
