// Package disk implements the database storage interface with one JSON file
// per block on disk.
package disk

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strconv"

	"github.com/meridianchain/meridian/foundation/blockchain/block"
	"github.com/meridianchain/meridian/foundation/blockchain/database"
)

// Disk represents the storage implementation for reading and storing blocks
// in their own separate files on disk. This implements the database.Storage
// interface.
type Disk struct {
	dbPath string
}

// New constructs a Disk value for use.
func New(dbPath string) (*Disk, error) {
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, err
	}

	return &Disk{dbPath: dbPath}, nil
}

// Close in this implementation has nothing to do since a new file is written
// to disk for each new block and then immediately closed.
func (d *Disk) Close() error {
	return nil
}

// Write takes the specified block data and stores it on disk in a file
// labeled with the block height.
func (d *Disk) Write(data block.Data) error {
	doc, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}

	f, err := os.OpenFile(d.getPath(data.Header.Height), os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(doc); err != nil {
		return err
	}

	return nil
}

// GetBlock searches the chain on disk to locate and return the contents of
// the specified block by height.
func (d *Disk) GetBlock(height uint64) (block.Data, error) {
	f, err := os.OpenFile(d.getPath(height), os.O_RDONLY, 0600)
	if err != nil {
		return block.Data{}, err
	}
	defer f.Close()

	var data block.Data
	if err := json.NewDecoder(f).Decode(&data); err != nil {
		return block.Data{}, err
	}

	return data, nil
}

// ForEach returns an iterator to walk through all the blocks starting at
// height 0.
func (d *Disk) ForEach() database.Iterator {
	return &iterator{disk: d}
}

// Reset will clear out the chain on disk.
func (d *Disk) Reset() error {
	if err := os.RemoveAll(d.dbPath); err != nil {
		return err
	}

	return os.MkdirAll(d.dbPath, 0755)
}

// getPath forms the path to the specified block.
func (d *Disk) getPath(height uint64) string {
	name := strconv.FormatUint(height, 10)
	return path.Join(d.dbPath, fmt.Sprintf("%s.json", name))
}

// =============================================================================

// iterator walks the blocks on disk. This implements the database.Iterator
// interface.
type iterator struct {
	disk    *Disk
	current uint64
	eoc     bool
}

// Next retrieves the next block from disk.
func (i *iterator) Next() (block.Data, error) {
	if i.eoc {
		return block.Data{}, database.ErrEndOfChain
	}

	data, err := i.disk.GetBlock(i.current)
	if errors.Is(err, fs.ErrNotExist) {
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
