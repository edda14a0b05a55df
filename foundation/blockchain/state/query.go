package state

import (
	"github.com/meridianchain/meridian/foundation/blockchain/block"
	"github.com/meridianchain/meridian/foundation/blockchain/genesis"
	"github.com/meridianchain/meridian/foundation/blockchain/settlement"
)

// QueryLatest represents a query for the latest block in the chain.
const QueryLatest = ^uint64(0) >> 1

// =============================================================================

// Genesis returns a copy of the genesis information.
func (s *State) Genesis() genesis.Genesis {
	return s.genesis
}

// LatestBlock returns the current chain tip.
func (s *State) LatestBlock() (block.Finalized, bool) {
	return s.db.LatestBlock()
}

// Height returns the current chain height.
func (s *State) Height() (uint64, bool) {
	return s.db.Height()
}

// ChainHashes returns the ordered hashes of the canonical chain.
func (s *State) ChainHashes() []string {
	return s.db.Hashes()
}

// QueryBlocksByHeight returns the set of blocks for the inclusive height
// range. QueryLatest for either bound pins it to the chain tip.
func (s *State) QueryBlocksByHeight(from uint64, to uint64) []block.Finalized {
	latest, ok := s.db.Height()
	if !ok {
		return nil
	}

	if from == QueryLatest {
		from = latest
		to = latest
	}
	if to == QueryLatest {
		to = latest
	}

	var out []block.Finalized
	for i := from; i <= to; i++ {
		blk, err := s.db.GetBlock(i)
		if err != nil {
			s.evHandler("state: QueryBlocksByHeight: ERROR: %s", err)
			return nil
		}
		out = append(out, blk)
	}

	return out
}

// PoolCount returns the current number of waiting transaction references.
func (s *State) PoolCount() int {
	return s.pool.count()
}

// Stats returns a snapshot of the mining statistics.
func (s *State) Stats() block.StatsSnapshot {
	return s.stats.Snapshot()
}

// =============================================================================

// Batches returns every tracked settlement batch in id order.
func (s *State) Batches() []settlement.Batch {
	return s.manager.Batches()
}

// Batch returns one tracked settlement batch by id.
func (s *State) Batch(id uint64) (settlement.Batch, error) {
	return s.manager.Batch(id)
}

// PendingBatch returns the accumulating batch, if it holds any blocks.
func (s *State) PendingBatch() (settlement.Batch, bool) {
	return s.processor.Pending()
}

// BatchEvidence returns the published evidence blob for a batch.
func (s *State) BatchEvidence(id uint64) ([]byte, error) {
	return s.manager.Evidence(id)
}

// SettlementHistory returns every fraud proof resolution in submission
// order.
func (s *State) SettlementHistory() []settlement.Result {
	return s.manager.History()
}

// SettlementRoot returns the running commitment over confirmed batches.
func (s *State) SettlementRoot() string {
	return s.manager.SettlementRoot()
}
