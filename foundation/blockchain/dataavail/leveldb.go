package dataavail

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	ldberrors "github.com/syndtr/goleveldb/leveldb/errors"
)

// LevelDB is a content-addressed store backed by a local LevelDB database.
type LevelDB struct {
	db *leveldb.DB
}

// NewLevelDB opens, and creates if needed, the database at the given path.
func NewLevelDB(path string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "opening data availability store %s", path)
	}

	return &LevelDB{db: db}, nil
}

// Close releases the underlying database.
func (l *LevelDB) Close() error {
	return l.db.Close()
}

// StoreData persists the payload under its content hash.
func (l *LevelDB) StoreData(data []byte) (string, error) {
	hash := contentHash(data)

	if err := l.db.Put([]byte(hash), data, nil); err != nil {
		return "", errors.Wrapf(err, "storing %s", hash)
	}

	return hash, nil
}

// RetrieveData returns the payload stored under the hash.
func (l *LevelDB) RetrieveData(hash string) ([]byte, error) {
	data, err := l.db.Get([]byte(hash), nil)
	if err != nil {
		if errors.Is(err, ldberrors.ErrNotFound) {
			return nil, errors.Wrapf(ErrNotFound, "hash %s", hash)
		}
		return nil, errors.Wrapf(err, "retrieving %s", hash)
	}

	return data, nil
}
