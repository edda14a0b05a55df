package state

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/meridianchain/meridian/foundation/blockchain/block"
)

// ErrNoTxRefs is returned when a block is requested to be created and there
// are no transaction references in the pool.
var ErrNoTxRefs = errors.New("no transaction references in the pool")

// ErrHeightAlreadyFinalized is returned when a block competes for a height
// the canonical chain has already finalized. The block is discarded and
// never retried.
var ErrHeightAlreadyFinalized = errors.New("height already finalized on the canonical chain")

// =============================================================================

// UpsertTxRef adds a transaction reference to the pool and signals a mining
// operation to pick it up.
func (s *State) UpsertTxRef(tx block.TxRef) {
	s.pool.upsert(tx)

	if s.Worker != nil {
		s.Worker.SignalStartMining()
	}
}

// MineNewBlock attempts to create a new block with a proper hash that can
// become the next block in the chain.
func (s *State) MineNewBlock(ctx context.Context) (block.Finalized, error) {
	s.evHandler("state: MineNewBlock: MINING: check pool count")

	// Are there enough transaction references in the pool.
	if s.pool.count() == 0 {
		return block.Finalized{}, ErrNoTxRefs
	}

	// Pick references in arrival order up to the block byte budget.
	txs := s.pool.pick()

	parent := block.Parent{}
	if latest, ok := s.db.LatestBlock(); ok {
		parent = block.ParentOf(latest)
	}

	b, err := block.NewBuilding(s.beneficiaryID, parent, txs, s.genesis.AdjustConfig(), s.stats)
	if err != nil {
		return block.Finalized{}, err
	}
	b.SetStateRoot(s.exec.StateRoot())

	s.evHandler("state: MineNewBlock: MINING: perform POW")

	// Recent block times drive the difficulty for this block. This can be
	// cancelled.
	recent, err := s.db.Recent(recentAdjustWindow)
	if err != nil {
		return block.Finalized{}, err
	}

	mined, err := b.MineAdaptive(ctx, recent, s.genesis.TargetBlockTime())
	if err != nil {
		return block.Finalized{}, err
	}

	// Just check one more time we were not cancelled.
	if ctx.Err() != nil {
		return block.Finalized{}, ctx.Err()
	}

	s.evHandler("state: MineNewBlock: MINING: validate and update chain")

	return s.validateUpdateChain(mined)
}

// recentAdjustWindow is how many finalized blocks feed the difficulty
// controller for the next block.
const recentAdjustWindow = 32

// ProcessProposedBlock takes a block received from a peer, validates it and
// if that passes, adds the block to the canonical chain.
func (s *State) ProcessProposedBlock(data block.Data) error {
	s.evHandler("state: ProcessProposedBlock: started: prevBlk[%s]: newBlk[%s]: numTxs[%d]", data.Header.PrevBlockHash, data.Hash, len(data.Trans))
	defer s.evHandler("state: ProcessProposedBlock: completed: newBlk[%s]", data.Hash)

	// If a mining operation is running it needs to stop immediately. The G
	// executing the mining operation will not return until done is called.
	// That allows this function to complete its chain changes before a new
	// mining operation takes place.
	if s.Worker != nil {
		done := s.Worker.SignalCancelMining()
		defer func() {
			s.evHandler("state: ProcessProposedBlock: signal mining operation to terminate")
			done()
		}()
	}

	_, err := s.validateUpdateChain(block.ToMined(data))
	return err
}

// ValidateCandidateBlock runs the full block validation against the current
// chain tip without committing anything. Callers use it to vet a candidate
// before proposing it.
func (s *State) ValidateCandidateBlock(data block.Data) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	parent := block.Parent{}
	if latest, ok := s.db.LatestBlock(); ok {
		if data.Header.Height <= latest.Header().Height {
			return ErrHeightAlreadyFinalized
		}
		parent = block.ParentOf(latest)
	}

	_, err := block.ToMined(data).Validate(parent)
	return err
}

// =============================================================================

// validateUpdateChain takes a mined block and validates it against the
// consensus rules. If the block passes, the state of the node is updated:
// the block is written to storage, executed, published to data availability,
// and submitted to settlement.
func (s *State) validateUpdateChain(mined block.Mined) (block.Finalized, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evHandler("state: validateUpdateChain: validate block")

	parent := block.Parent{}
	if latest, ok := s.db.LatestBlock(); ok {
		if mined.Header().Height <= latest.Header().Height {
			return block.Finalized{}, ErrHeightAlreadyFinalized
		}
		parent = block.ParentOf(latest)
	}

	validated, err := mined.Validate(parent)
	if err != nil {
		return block.Finalized{}, err
	}
	blk := validated.Finalize()

	s.evHandler("state: validateUpdateChain: write to storage")

	if err := s.db.Write(blk); err != nil {
		return block.Finalized{}, err
	}

	// Publish the block payload so challengers can replay it. Availability
	// problems must not stall finalization.
	if data, err := json.Marshal(block.NewData(blk)); err == nil {
		if _, err := s.dataStore.StoreData(data); err != nil {
			s.evHandler("state: validateUpdateChain: WARNING: store block payload: %s", err)
		}
	}

	s.evHandler("state: validateUpdateChain: execute block")

	res, err := s.exec.ExecuteBlock(blk)
	if err != nil {
		return block.Finalized{}, err
	}

	s.evHandler("state: validateUpdateChain: submit to settlement")

	height := blk.Header().Height
	sealed, err := s.processor.Submit(blk, res, height)
	if err != nil {
		return block.Finalized{}, err
	}
	if sealed != nil {
		s.evHandler("state: validateUpdateChain: batch[%d] sealed: blocks[%d] deadline[%d]", sealed.ID, len(sealed.Blocks), sealed.DeadlineHeight)
	}

	// The chain height is the challenge clock.
	for _, confirmed := range s.manager.Tick(height) {
		s.evHandler("state: validateUpdateChain: batch[%d] confirmed: root[%s]", confirmed.ID, confirmed.ClaimedRoot)
	}

	// Remove the mined references from the pool.
	for _, tx := range blk.Txs() {
		s.pool.delete(tx.ID)
	}

	s.blockEvent(blk)

	return blk, nil
}

// blockEvent provides a specific event about a new block in the chain for
// application specific support.
func (s *State) blockEvent(blk block.Finalized) {
	data := block.NewData(blk)

	blockJSON, err := json.Marshal(data)
	if err != nil {
		blockJSON = []byte(`""`)
	}

	s.evHandler(`viewer: block: %s`, string(blockJSON))
}
