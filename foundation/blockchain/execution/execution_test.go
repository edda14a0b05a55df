package execution_test

import (
	"context"
	"testing"

	"github.com/meridianchain/meridian/foundation/blockchain/block"
	"github.com/meridianchain/meridian/foundation/blockchain/execution"
	"github.com/meridianchain/meridian/foundation/blockchain/signature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTxs(ids ...string) []block.TxRef {
	txs := make([]block.TxRef, 0, len(ids))
	for _, id := range ids {
		txs = append(txs, block.TxRef{ID: id, DataRef: "0xda-" + id})
	}
	return txs
}

func mineBlock(t *testing.T, parent block.Parent, txs []block.TxRef) block.Finalized {
	t.Helper()

	cfg := block.AdjustConfig{Base: 1, Min: 1, Max: 2, Factor: 0.25, TolerancePct: 20.0}

	b, err := block.NewBuilding("miner1", parent, txs, cfg, nil)
	require.NoError(t, err)

	mined, err := b.MineWithDifficulty(context.Background(), 1)
	require.NoError(t, err)

	validated, err := mined.Validate(parent)
	require.NoError(t, err)

	return validated.Finalize()
}

func TestReplayDeterministic(t *testing.T) {
	txs := testTxs("0xtx1", "0xtx2", "0xtx3")

	receipts1, root1 := execution.Replay(signature.ZeroHash, txs)
	receipts2, root2 := execution.Replay(signature.ZeroHash, txs)

	require.Len(t, receipts1, 3)
	assert.Equal(t, root1, root2)
	assert.Equal(t, receipts1, receipts2)

	// The final receipt carries the final root.
	assert.Equal(t, root1, receipts1[2].StateRoot)
}

func TestReplayDependsOnPrevRoot(t *testing.T) {
	txs := testTxs("0xtx1")

	_, root1 := execution.Replay(signature.ZeroHash, txs)
	_, root2 := execution.Replay("0xother", txs)

	assert.NotEqual(t, root1, root2)
}

func TestReplayOrderSensitive(t *testing.T) {
	_, root1 := execution.Replay(signature.ZeroHash, testTxs("0xtx1", "0xtx2"))
	_, root2 := execution.Replay(signature.ZeroHash, testTxs("0xtx2", "0xtx1"))

	assert.NotEqual(t, root1, root2)
}

func TestReplayEmpty(t *testing.T) {
	receipts, root := execution.Replay(signature.ZeroHash, nil)

	assert.Empty(t, receipts)
	assert.Equal(t, signature.ZeroHash, root)
}

func TestDeterministicExecuteBlock(t *testing.T) {
	exec := execution.NewDeterministic()
	require.Equal(t, signature.ZeroHash, exec.StateRoot())

	txs := testTxs("0xtx1", "0xtx2")
	blk := mineBlock(t, block.Parent{}, txs)

	res, err := exec.ExecuteBlock(blk)
	require.NoError(t, err)

	assert.Equal(t, blk.Hash(), res.BlockHash)
	assert.Len(t, res.Receipts, 2)
	assert.Equal(t, res.StateRoot, exec.StateRoot())

	// The engine matches a standalone replay of the same references.
	receipts, root := execution.Replay(signature.ZeroHash, txs)
	assert.Equal(t, root, res.StateRoot)
	assert.Equal(t, receipts, res.Receipts)

	// A second block folds on top of the first block's root.
	blk2 := mineBlock(t, block.ParentOf(blk), testTxs("0xtx3"))
	res2, err := exec.ExecuteBlock(blk2)
	require.NoError(t, err)

	_, root2 := execution.Replay(root, blk2.Txs())
	assert.Equal(t, root2, res2.StateRoot)
}

func TestReceiptsRoot(t *testing.T) {
	receipts, _ := execution.Replay(signature.ZeroHash, testTxs("0xtx1", "0xtx2"))

	root1, err := execution.ReceiptsRoot(receipts)
	require.NoError(t, err)

	root2, err := execution.ReceiptsRoot(receipts)
	require.NoError(t, err)

	assert.Equal(t, root1, root2)

	tampered := make([]execution.Receipt, len(receipts))
	copy(tampered, receipts)
	tampered[0].GasUsed++

	root3, err := execution.ReceiptsRoot(tampered)
	require.NoError(t, err)

	assert.NotEqual(t, root1, root3)
}
