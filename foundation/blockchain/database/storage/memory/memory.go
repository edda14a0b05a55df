// Package memory implements the database storage interface in memory for
// tests and ephemeral nodes.
package memory

import (
	"sync"

	"github.com/meridianchain/meridian/foundation/blockchain/block"
	"github.com/meridianchain/meridian/foundation/blockchain/database"
)

// Memory represents the storage implementation for keeping blocks only in
// memory. This implements the database.Storage interface.
type Memory struct {
	mu     sync.RWMutex
	blocks []block.Data
}

// New constructs an empty in-memory store.
func New() (*Memory, error) {
	return &Memory{}, nil
}

// Close in this implementation has nothing to do.
func (m *Memory) Close() error {
	return nil
}

// Write appends the block data to the in-memory chain.
func (m *Memory) Write(data block.Data) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks = append(m.blocks, data)
	return nil
}

// GetBlock returns the block stored at the given height.
func (m *Memory) GetBlock(height uint64) (block.Data, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if height >= uint64(len(m.blocks)) {
		return block.Data{}, database.ErrEndOfChain
	}

	return m.blocks[height], nil
}

// ForEach returns an iterator to walk through all the blocks starting at
// height 0.
func (m *Memory) ForEach() database.Iterator {
	return &iterator{memory: m}
}

// Reset clears the in-memory chain.
func (m *Memory) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks = nil
	return nil
}

// iterator walks the in-memory chain. This implements the database.Iterator
// interface.
type iterator struct {
	memory  *Memory
	current uint64
	eoc     bool
}

// Next retrieves the next block from memory.
func (i *iterator) Next() (block.Data, error) {
	if i.eoc {
		return block.Data{}, database.ErrEndOfChain
	}

	data, err := i.memory.GetBlock(i.current)
	if err != nil {
		i.eoc = true
		return block.Data{}, err
	}
	i.current++

	return data, nil
}

// Done returns the end of chain value.
func (i *iterator) Done() bool {
	return i.eoc
}
