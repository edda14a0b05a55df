// Package merkle provides a compact binary merkle tree used to commit to the
// ordered set of transaction references inside a block and to the receipts
// inside an execution batch.
package merkle

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hashable is the behavior data must exhibit to be included in the tree.
type Hashable interface {
	Hash() ([]byte, error)
}

// RootHex computes the merkle root for the ordered set of values and returns
// it hex encoded. An empty set produces the hash of no data so two empty
// commitments always agree.
func RootHex[T Hashable](values []T) (string, error) {
	root, err := Root(values)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(root), nil
}

// Root computes the merkle root for the ordered set of values.
func Root[T Hashable](values []T) ([]byte, error) {
	if len(values) == 0 {
		empty := sha256.Sum256(nil)
		return empty[:], nil
	}

	level := make([][]byte, len(values))
	for i, v := range values {
		hash, err := v.Hash()
		if err != nil {
			return nil, err
		}
		level[i] = hash
	}

	// Pair up and hash each level until a single root remains. An odd
	// node is carried up unchanged rather than duplicated.
	for len(level) > 1 {
		next := make([][]byte, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				continue
			}
			next = append(next, merge(level[i], level[i+1]))
		}
		level = next
	}

	return level[0], nil
}

// Proof returns the sibling hashes needed to prove the value at index is a
// member of the tree, bottom up.
func Proof[T Hashable](values []T, index int) ([][]byte, error) {
	if index < 0 || index >= len(values) {
		return nil, ErrIndexOutOfRange
	}

	level := make([][]byte, len(values))
	for i, v := range values {
		hash, err := v.Hash()
		if err != nil {
			return nil, err
		}
		level[i] = hash
	}

	var proof [][]byte
	for len(level) > 1 {
		next := make([][]byte, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				continue
			}
			if i == index || i+1 == index {
				sibling := i
				if i == index {
					sibling = i + 1
				}
				proof = append(proof, level[sibling])
			}
			next = append(next, merge(level[i], level[i+1]))
		}
		index /= 2
		level = next
	}

	return proof, nil
}

// merge hashes the concatenation of two child hashes.
func merge(left, right []byte) []byte {
	h := sha256.New()
	h.Write(left)
	h.Write(right)
	return h.Sum(nil)
}
