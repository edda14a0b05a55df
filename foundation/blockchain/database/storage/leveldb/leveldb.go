// Package leveldb implements the database storage interface on top of a
// local LevelDB instance. Blocks are keyed by their big-endian height so a
// range walk visits them in chain order.
package leveldb

import (
	"encoding/binary"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	ldberrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/meridianchain/meridian/foundation/blockchain/block"
	"github.com/meridianchain/meridian/foundation/blockchain/database"
)

// blockKeyPrefix namespaces block records so other tables can share the
// database file.
var blockKeyPrefix = []byte("block/")

// LevelDB represents the storage implementation for reading and storing
// blocks in a LevelDB database. This implements the database.Storage
// interface.
type LevelDB struct {
	db *leveldb.DB
}

// New opens, and creates if needed, the database at the given path.
func New(path string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "opening chain database %s", path)
	}

	return &LevelDB{db: db}, nil
}

// Close releases the underlying database.
func (l *LevelDB) Close() error {
	return l.db.Close()
}

// Write stores the block data under its height key.
func (l *LevelDB) Write(data block.Data) error {
	doc, err := json.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "marshaling block")
	}

	if err := l.db.Put(blockKey(data.Header.Height), doc, nil); err != nil {
		return errors.Wrapf(err, "writing block %d", data.Header.Height)
	}

	return nil
}

// GetBlock returns the block stored at the given height.
func (l *LevelDB) GetBlock(height uint64) (block.Data, error) {
	doc, err := l.db.Get(blockKey(height), nil)
	if err != nil {
		if errors.Is(err, ldberrors.ErrNotFound) {
			return block.Data{}, database.ErrEndOfChain
		}
		return block.Data{}, errors.Wrapf(err, "reading block %d", height)
	}

	var data block.Data
	if err := json.Unmarshal(doc, &data); err != nil {
		return block.Data{}, errors.Wrapf(err, "unmarshaling block %d", height)
	}

	return data, nil
}

// ForEach returns an iterator to walk through all the blocks starting at
// height 0.
func (l *LevelDB) ForEach() database.Iterator {
	return &iterator{ldb: l}
}

// Reset removes every block record from the database.
func (l *LevelDB) Reset() error {
	iter := l.db.NewIterator(util.BytesPrefix(blockKeyPrefix), nil)
	defer iter.Release()

	batch := new(leveldb.Batch)
	for iter.Next() {
		batch.Delete(append([]byte(nil), iter.Key()...))
	}
	if err := iter.Error(); err != nil {
		return errors.Wrap(err, "walking blocks for reset")
	}

	return l.db.Write(batch, nil)
}

// blockKey forms the keyspace entry for a height.
func blockKey(height uint64) []byte {
	key := make([]byte, len(blockKeyPrefix)+8)
	copy(key, blockKeyPrefix)
	binary.BigEndian.PutUint64(key[len(blockKeyPrefix):], height)
	return key
}

// =============================================================================

// iterator walks the blocks in the database. This implements the
// database.Iterator interface.
type iterator struct {
	ldb     *LevelDB
	current uint64
	eoc     bool
}

// Next retrieves the next block from the database.
func (i *iterator) Next() (block.Data, error) {
	if i.eoc {
		return block.Data{}, database.ErrEndOfChain
	}

	data, err := i.ldb.GetBlock(i.current)
	if errors.Is(err, database.ErrEndOfChain) {
		i.eoc = true
		return block.Data{}, database.ErrEndOfChain
	}
	i.current++

	return data, err
}

// Done returns the end of chain value.
func (i *iterator) Done() bool {
	return i.eoc
}
