package settlement

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/meridianchain/meridian/foundation/blockchain/block"
	"github.com/meridianchain/meridian/foundation/blockchain/dataavail"
	"github.com/meridianchain/meridian/foundation/blockchain/execution"
	"github.com/pkg/errors"
)

// Config tunes the settlement pipeline. Settings arrive from the genesis
// file and hold for the life of the node.
type Config struct {
	BatchSize             int           `json:"batch_size"`
	FlushInterval         time.Duration `json:"flush_interval"`
	ChallengePeriod       uint64        `json:"challenge_period"` // In block heights.
	SlashInvalidProofPct  float64       `json:"slash_invalid_proof_pct"`
	SlashRevertedBatchPct float64       `json:"slash_reverted_batch_pct"`
}

// DefaultConfig returns the settings the node runs with when the genesis
// file does not override them.
func DefaultConfig() Config {
	return Config{
		BatchSize:             8,
		FlushInterval:         30 * time.Second,
		ChallengePeriod:       100,
		SlashInvalidProofPct:  10,
		SlashRevertedBatchPct: 50,
	}
}

// Validate rejects settings the pipeline cannot run with.
func (c Config) Validate() error {
	if c.BatchSize < 1 {
		return fmt.Errorf("batch size must be at least 1, got %d", c.BatchSize)
	}
	if c.FlushInterval <= 0 {
		return fmt.Errorf("flush interval must be positive, got %v", c.FlushInterval)
	}
	if c.ChallengePeriod < 1 {
		return fmt.Errorf("challenge period must be at least 1 block, got %d", c.ChallengePeriod)
	}
	if c.SlashInvalidProofPct < 0 || c.SlashInvalidProofPct > 100 {
		return fmt.Errorf("invalid proof slash pct must be within [0,100], got %g", c.SlashInvalidProofPct)
	}
	if c.SlashRevertedBatchPct < 0 || c.SlashRevertedBatchPct > 100 {
		return fmt.Errorf("reverted batch slash pct must be within [0,100], got %g", c.SlashRevertedBatchPct)
	}

	return nil
}

// =============================================================================

// Processor accumulates finalized blocks into the single pending batch and
// seals it when it fills or the flush interval fires. Sealed batches enter
// their challenge window under the Manager.
type Processor struct {
	mu       sync.Mutex
	cfg      Config
	proposer string
	store    dataavail.Store
	mgr      *Manager
	pending  Batch
	receipts []execution.Receipt
	prevRoot string
	nextID   uint64
}

// NewProcessor constructs the batching side of settlement. prevRoot is the
// state root the first batch builds on, the genesis root on a fresh chain.
func NewProcessor(cfg Config, proposer string, prevRoot string, store dataavail.Store, mgr *Manager) (*Processor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "settlement config")
	}

	p := Processor{
		cfg:      cfg,
		proposer: proposer,
		store:    store,
		mgr:      mgr,
		prevRoot: prevRoot,
		nextID:   1,
	}
	p.pending = p.newPending()

	return &p, nil
}

// Submit adds one finalized block with its execution result to the pending
// batch. height is the chain height at the time of submission. When the
// batch fills, Submit seals it and returns the sealed batch; otherwise it
// returns nil.
func (p *Processor) Submit(blk block.Finalized, res execution.Result, height uint64) (*Batch, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pending.Blocks = append(p.pending.Blocks, BlockRef{
		Hash:   blk.Hash(),
		Height: blk.Header().Height,
		Txs:    blk.Txs(),
	})
	p.receipts = append(p.receipts, res.Receipts...)
	p.pending.ClaimedRoot = res.StateRoot

	if len(p.pending.Blocks) < p.cfg.BatchSize {
		return nil, nil
	}

	return p.seal(height)
}

// Flush seals the pending batch regardless of how full it is. The worker
// calls it on the flush interval so a quiet chain still settles. An empty
// pending batch flushes to nothing.
func (p *Processor) Flush(height uint64) (*Batch, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.pending.Blocks) == 0 {
		return nil, nil
	}

	return p.seal(height)
}

// Pending returns a snapshot of the accumulating batch and whether it holds
// any blocks yet.
func (p *Processor) Pending() (Batch, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.pending, len(p.pending.Blocks) > 0
}

// seal closes the pending batch, publishes its evidence to the data
// availability store, hands it to the challenge manager, and starts the next
// pending batch. Callers must hold the mutex.
func (p *Processor) seal(height uint64) (*Batch, error) {
	batch := p.pending

	receiptsRoot, err := execution.ReceiptsRoot(p.receipts)
	if err != nil {
		return nil, errors.Wrapf(err, "receipts root for batch %d", batch.ID)
	}
	batch.ReceiptsRoot = receiptsRoot
	batch.OpenedHeight = height
	batch.DeadlineHeight = height + p.cfg.ChallengePeriod
	batch.Status = StatusOpen

	evidence := struct {
		Batch    Batch               `json:"batch"`
		Receipts []execution.Receipt `json:"receipts"`
	}{Batch: batch, Receipts: p.receipts}

	data, err := json.Marshal(evidence)
	if err != nil {
		return nil, errors.Wrapf(err, "marshal evidence for batch %d", batch.ID)
	}

	ref, err := p.store.StoreData(data)
	if err != nil {
		return nil, errors.Wrapf(err, "store evidence for batch %d", batch.ID)
	}
	batch.EvidenceRef = ref

	if err := p.mgr.Track(batch); err != nil {
		return nil, errors.Wrapf(err, "track batch %d", batch.ID)
	}

	p.prevRoot = batch.ClaimedRoot
	p.nextID++
	p.pending = p.newPending()
	p.receipts = nil

	return &batch, nil
}

// newPending starts the next accumulating batch on top of the last claimed
// root.
func (p *Processor) newPending() Batch {
	return Batch{
		ID:          p.nextID,
		Proposer:    p.proposer,
		PrevRoot:    p.prevRoot,
		ClaimedRoot: p.prevRoot,
	}
}
