// Package dataavail defines the boundary to the data availability layer.
// The finality core stores block payloads and fraud proof evidence through
// it and only ever needs hashes back; replication and retention are the
// layer's own concern.
package dataavail

import (
	"crypto/sha256"
	"sync"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
)

// ErrNotFound is returned when the requested data is not available.
var ErrNotFound = errors.New("data not found")

// Store is the behavior the finality core requires from the data
// availability layer.
type Store interface {
	StoreData(data []byte) (string, error)
	RetrieveData(hash string) ([]byte, error)
}

// =============================================================================

// Memory is a content-addressed in-memory store used by the node in
// standalone mode and by the tests.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

// StoreData persists the payload under its content hash.
func (m *Memory) StoreData(data []byte) (string, error) {
	hash := contentHash(data)

	m.mu.Lock()
	defer m.mu.Unlock()

	buf := make([]byte, len(data))
	copy(buf, data)
	m.data[hash] = buf

	return hash, nil
}

// RetrieveData returns the payload stored under the hash.
func (m *Memory) RetrieveData(hash string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, exists := m.data[hash]
	if !exists {
		return nil, errors.Wrapf(ErrNotFound, "hash %s", hash)
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	return buf, nil
}

// contentHash addresses a payload by its sha256 digest.
func contentHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hexutil.Encode(hash[:])
}
