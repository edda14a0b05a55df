package settlement

import (
	"fmt"
	"sort"
	"sync"

	"github.com/meridianchain/meridian/foundation/blockchain/block"
	"github.com/meridianchain/meridian/foundation/blockchain/dataavail"
	"github.com/meridianchain/meridian/foundation/blockchain/execution"
	"github.com/meridianchain/meridian/foundation/blockchain/signature"
	"github.com/meridianchain/meridian/foundation/blockchain/validator"
	"github.com/pkg/errors"
)

// Slash reasons recorded against the validator book.
const (
	ReasonInvalidProof  = "submitted an invalid fraud proof"
	ReasonRevertedBatch = "proposed a batch that was reverted"
)

// Manager owns every sealed batch through its challenge window and folds the
// survivors into the settlement root. Verification of a fraud proof replays
// the batched references itself, so a challenger cannot be taken at their
// word and a proposer cannot hide behind a forged claim.
type Manager struct {
	mu      sync.Mutex
	cfg     Config
	book    *validator.Book
	store   dataavail.Store
	batches map[uint64]*Batch
	history []Result
	root    string
}

// NewManager constructs the challenge side of settlement. The settlement
// root starts at the zero hash and only moves when a batch confirms.
func NewManager(cfg Config, book *validator.Book, store dataavail.Store) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "settlement config")
	}

	return &Manager{
		cfg:     cfg,
		book:    book,
		store:   store,
		batches: make(map[uint64]*Batch),
		root:    signature.ZeroHash,
	}, nil
}

// Track places a sealed batch under its challenge window.
func (m *Manager) Track(batch Batch) error {
	if batch.Status != StatusOpen {
		return ErrBatchNotOpen
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.batches[batch.ID] = &batch

	return nil
}

// SubmitChallenge resolves one fraud proof against an open batch. The first
// valid proof wins: it reverts the batch and slashes the proposer. An
// invalid proof from a staked challenger slashes the challenger instead.
// Every resolution lands in the history with its reason.
func (m *Manager) SubmitChallenge(proof FraudProof, height uint64) (Result, error) {
	m.mu.Lock()

	batch, exists := m.batches[proof.BatchID]
	if !exists {
		m.mu.Unlock()
		return Result{}, errors.Wrapf(ErrUnknownBatch, "batch %d", proof.BatchID)
	}

	if batch.Status != StatusOpen || height >= batch.DeadlineHeight {
		res := m.record(proof, OutcomeRejected, "challenge window is closed", height)
		m.mu.Unlock()
		return res, ErrBatchNotOpen
	}

	if !m.book.HasMinStake(proof.Challenger) {
		res := m.record(proof, OutcomeRejected, "challenger stake below minimum", height)
		m.mu.Unlock()
		return res, ErrInsufficientStake
	}

	// Replaying the batch can be expensive, so verification runs outside
	// the lock against a snapshot. The batch state is re-checked after.
	snapshot := *batch
	m.mu.Unlock()

	reason, valid := verify(proof, snapshot)

	m.mu.Lock()
	defer m.mu.Unlock()

	if !valid {
		if _, err := m.book.ApplySlash(proof.Challenger, m.cfg.SlashInvalidProofPct, ReasonInvalidProof); err != nil {
			reason = fmt.Sprintf("%s; challenger slash not applied: %s", reason, err)
		}
		return m.record(proof, OutcomeRejected, reason, height), nil
	}

	// Another proof may have won the race while the lock was released.
	if batch.Status != StatusOpen {
		return m.record(proof, OutcomeRejected, "batch already resolved", height), ErrBatchNotOpen
	}

	batch.Status = StatusReverted
	batch.RevertedBy = proof.Challenger

	var reverted string
	if _, err := m.book.ApplySlash(batch.Proposer, m.cfg.SlashRevertedBatchPct, ReasonRevertedBatch); err != nil {
		reverted = fmt.Sprintf("proposer slash not applied: %s", err)
	}

	return m.record(proof, OutcomeAccepted, reverted, height), nil
}

// Tick advances the challenge clock to the given chain height. Batches whose
// deadline has passed while still open confirm and fold into the settlement
// root in id order. Calling Tick twice at the same height changes nothing;
// confirmed and reverted batches are terminal.
func (m *Manager) Tick(height uint64) []Batch {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]uint64, 0, len(m.batches))
	for id := range m.batches {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var confirmed []Batch
	for _, id := range ids {
		batch := m.batches[id]
		if batch.Status != StatusOpen || height < batch.DeadlineHeight {
			continue
		}

		batch.Status = StatusConfirmed
		m.root = signature.Hash(struct {
			Prev        string `json:"prev"`
			BatchID     uint64 `json:"batch_id"`
			ClaimedRoot string `json:"claimed_root"`
		}{Prev: m.root, BatchID: batch.ID, ClaimedRoot: batch.ClaimedRoot})

		confirmed = append(confirmed, *batch)
	}

	return confirmed
}

// Batch returns one tracked batch by id.
func (m *Manager) Batch(id uint64) (Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	batch, exists := m.batches[id]
	if !exists {
		return Batch{}, errors.Wrapf(ErrUnknownBatch, "batch %d", id)
	}

	return *batch, nil
}

// Batches returns every tracked batch in id order.
func (m *Manager) Batches() []Batch {
	m.mu.Lock()
	defer m.mu.Unlock()

	batches := make([]Batch, 0, len(m.batches))
	for _, batch := range m.batches {
		batches = append(batches, *batch)
	}
	sort.Slice(batches, func(i, j int) bool { return batches[i].ID < batches[j].ID })

	return batches
}

// History returns every fraud proof resolution in submission order.
func (m *Manager) History() []Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	history := make([]Result, len(m.history))
	copy(history, m.history)

	return history
}

// Evidence retrieves the published evidence blob for one tracked batch from
// the data availability store.
func (m *Manager) Evidence(id uint64) ([]byte, error) {
	m.mu.Lock()
	batch, exists := m.batches[id]
	if !exists {
		m.mu.Unlock()
		return nil, errors.Wrapf(ErrUnknownBatch, "batch %d", id)
	}
	ref := batch.EvidenceRef
	m.mu.Unlock()

	data, err := m.store.RetrieveData(ref)
	if err != nil {
		return nil, errors.Wrapf(err, "evidence for batch %d", id)
	}

	return data, nil
}

// SettlementRoot returns the running commitment over confirmed batches.
func (m *Manager) SettlementRoot() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.root
}

// record appends one resolution to the history. Callers must hold the mutex.
func (m *Manager) record(proof FraudProof, outcome Outcome, reason string, height uint64) Result {
	res := Result{Proof: proof, Outcome: outcome, Reason: reason, Height: height}
	m.history = append(m.history, res)

	return res
}

// verify replays the batch deterministically and decides whether the proof
// exposes a false claim. The replay is the arbiter: the challenger's
// receipts must match it and the proposer's claimed root must not.
func verify(proof FraudProof, batch Batch) (string, bool) {
	all := batchTxs(batch)

	found := false
	for _, tx := range all {
		if tx.ID == proof.DisputedTxID {
			found = true
			break
		}
	}
	if !found {
		return "disputed transaction is not in the batch", false
	}

	honest, honestRoot := execution.Replay(batch.PrevRoot, all)

	if len(proof.Receipts) != len(honest) {
		return "submitted receipts do not match the deterministic replay", false
	}
	for i := range honest {
		if proof.Receipts[i].TxID != honest[i].TxID || proof.Receipts[i].StateRoot != honest[i].StateRoot {
			return "submitted receipts do not match the deterministic replay", false
		}
	}

	if honestRoot == batch.ClaimedRoot {
		return "claimed root matches the deterministic replay", false
	}

	return "", true
}

// batchTxs flattens the batch blocks into one ordered transaction list.
func batchTxs(batch Batch) []block.TxRef {
	var txs []block.TxRef
	for _, ref := range batch.Blocks {
		txs = append(txs, ref.Txs...)
	}

	return txs
}
