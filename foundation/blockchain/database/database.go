// Package database handles all the lower level support for maintaining the
// chain of finalized blocks. Blocks are keyed by height and persisted
// through a pluggable storage implementation.
package database

import (
	"errors"
	"fmt"
	"sync"

	"github.com/meridianchain/meridian/foundation/blockchain/block"
)

// Storage interface represents the behavior required to be implemented by
// any package providing support for reading and writing the chain.
type Storage interface {
	Write(data block.Data) error
	GetBlock(height uint64) (block.Data, error)
	ForEach() Iterator
	Close() error
	Reset() error
}

// Iterator interface represents the behavior required to be implemented by
// any package providing support to iterate over the blocks.
type Iterator interface {
	Next() (block.Data, error)
	Done() bool
}

// =============================================================================

// Database manages data related to the chain of finalized blocks.
type Database struct {
	mu          sync.RWMutex
	latestBlock block.Finalized
	haveLatest  bool
	hashes      []string
	storage     Storage
}

// New constructs a Database value loading any existing chain from storage.
func New(storage Storage, evHandler func(v string, args ...any)) (*Database, error) {
	db := Database{
		storage: storage,
	}

	// Load all existing blocks from storage into memory bookkeeping. Only
	// the hash list and latest block are retained.
	iter := db.storage.ForEach()
	for data, err := iter.Next(); !iter.Done(); data, err = iter.Next() {
		if err != nil {
			return nil, err
		}

		blk, err := block.ToFinalized(data)
		if err != nil {
			return nil, err
		}

		if db.haveLatest {
			if blk.Header().Height != db.latestBlock.Header().Height+1 {
				return nil, fmt.Errorf("chain on storage has a gap at height %d", blk.Header().Height)
			}
			if blk.Header().PrevBlockHash != db.latestBlock.Hash() {
				return nil, fmt.Errorf("chain on storage broken at height %d", blk.Header().Height)
			}
		}

		db.latestBlock = blk
		db.haveLatest = true
		db.hashes = append(db.hashes, blk.Hash())

		evHandler("database: load: height[%d] hash[%s]", blk.Header().Height, blk.Hash())
	}

	return &db, nil
}

// Close releases the underlying storage.
func (db *Database) Close() error {
	return db.storage.Close()
}

// Write adds the next finalized block to the chain and persists it.
func (db *Database) Write(blk block.Finalized) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.haveLatest {
		if blk.Header().Height != db.latestBlock.Header().Height+1 {
			return fmt.Errorf("block height %d is not the next height %d", blk.Header().Height, db.latestBlock.Header().Height+1)
		}
	} else if blk.Header().Height != 0 {
		return fmt.Errorf("first block must be at height 0, got %d", blk.Header().Height)
	}

	if err := db.storage.Write(block.NewData(blk)); err != nil {
		return err
	}

	db.latestBlock = blk
	db.haveLatest = true
	db.hashes = append(db.hashes, blk.Hash())

	return nil
}

// LatestBlock returns the current chain tip.
func (db *Database) LatestBlock() (block.Finalized, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.latestBlock, db.haveLatest
}

// Height returns the height of the chain tip. With no blocks the second
// return is false.
func (db *Database) Height() (uint64, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if !db.haveLatest {
		return 0, false
	}

	return db.latestBlock.Header().Height, true
}

// Hashes returns the ordered list of canonical block hashes, genesis first.
func (db *Database) Hashes() []string {
	db.mu.RLock()
	defer db.mu.RUnlock()

	hashes := make([]string, len(db.hashes))
	copy(hashes, db.hashes)
	return hashes
}

// GetBlock retrieves the finalized block at the given height.
func (db *Database) GetBlock(height uint64) (block.Finalized, error) {
	data, err := db.storage.GetBlock(height)
	if err != nil {
		return block.Finalized{}, err
	}

	return block.ToFinalized(data)
}

// Recent returns up to k blocks ending at the chain tip, oldest first. It is
// the window the difficulty adjustment engine consumes.
func (db *Database) Recent(k int) ([]block.Finalized, error) {
	db.mu.RLock()
	if !db.haveLatest {
		db.mu.RUnlock()
		return nil, nil
	}
	tip := db.latestBlock.Header().Height
	db.mu.RUnlock()

	start := uint64(0)
	if uint64(k) <= tip {
		start = tip - uint64(k) + 1
	}

	var blocks []block.Finalized
	for height := start; height <= tip; height++ {
		blk, err := db.GetBlock(height)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, blk)
	}

	return blocks, nil
}

// ErrEndOfChain is returned by iterators when no blocks remain.
var ErrEndOfChain = errors.New("end of chain")
