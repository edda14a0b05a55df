package dataavail_test

import (
	"testing"

	"github.com/meridianchain/meridian/foundation/blockchain/dataavail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRoundTrip(t *testing.T) {
	store := dataavail.NewMemory()

	ref, err := store.StoreData([]byte("payload"))
	require.NoError(t, err)
	assert.NotEmpty(t, ref)

	data, err := store.RetrieveData(ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)
}

func TestMemoryContentAddressed(t *testing.T) {
	store := dataavail.NewMemory()

	ref1, err := store.StoreData([]byte("payload"))
	require.NoError(t, err)

	ref2, err := store.StoreData([]byte("payload"))
	require.NoError(t, err)

	// Same content, same anchor.
	assert.Equal(t, ref1, ref2)

	ref3, err := store.StoreData([]byte("other"))
	require.NoError(t, err)
	assert.NotEqual(t, ref1, ref3)
}

func TestMemoryNotFound(t *testing.T) {
	store := dataavail.NewMemory()

	_, err := store.RetrieveData("0xmissing")
	assert.ErrorIs(t, err, dataavail.ErrNotFound)
}

func TestLevelDBRoundTrip(t *testing.T) {
	store, err := dataavail.NewLevelDB(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	ref, err := store.StoreData([]byte("payload"))
	require.NoError(t, err)

	data, err := store.RetrieveData(ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)

	_, err = store.RetrieveData("0xmissing")
	assert.ErrorIs(t, err, dataavail.ErrNotFound)
}
