package block_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/meridianchain/meridian/foundation/blockchain/block"
)

// testConfig keeps mining fast enough for the test suite.
func testConfig() block.AdjustConfig {
	return block.AdjustConfig{Base: 1, Min: 1, Max: 2, Factor: 0.25, TolerancePct: 20.0}
}

func testTxs() []block.TxRef {
	return []block.TxRef{
		{ID: "0xaa01", DataRef: "0xda01"},
		{ID: "0xaa02", DataRef: "0xda02"},
	}
}

func Test_MineValidateFinalize(t *testing.T) {
	ctx := context.Background()

	t.Log("Given the need to move a block through its full lifecycle.")
	{
		t.Log("\tTest 0:\tWhen mining the genesis block and a child block.")
		{
			genesis, err := block.NewBuilding("miner1", block.Parent{}, testTxs(), testConfig(), nil)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould construct a building block: %v.", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould construct a building block.", success)

			if genesis.Header().Height != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould place the genesis block at height 0: got %d.", failed, genesis.Header().Height)
			}
			t.Logf("\t%s\tTest 0:\tShould place the genesis block at height 0.", success)

			mined, err := genesis.Mine(ctx)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould mine the block: %v.", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould mine the block.", success)

			validated, err := mined.Validate(block.Parent{})
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould validate an honestly mined block: %v.", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould validate an honestly mined block.", success)

			genesisFinal := validated.Finalize()

			child, err := block.NewBuilding("miner1", block.ParentOf(genesisFinal), testTxs(), testConfig(), genesis.Stats())
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould construct the child block: %v.", failed, err)
			}

			minedChild, err := child.Mine(ctx)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould mine the child block: %v.", failed, err)
			}

			if minedChild.Header().Height != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould place the child at height 1: got %d.", failed, minedChild.Header().Height)
			}
			t.Logf("\t%s\tTest 0:\tShould place the child at height 1.", success)

			if _, err := minedChild.Validate(block.ParentOf(genesisFinal)); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould validate the child against its parent: %v.", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould validate the child against its parent.", success)

			if _, err := minedChild.Validate(block.Parent{}); !errors.Is(err, block.ErrBrokenChainLink) {
				t.Fatalf("\t%s\tTest 0:\tShould reject validation against the wrong parent: %v.", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould reject validation against the wrong parent.", success)
		}
	}
}

func Test_MineWithDifficulty(t *testing.T) {
	ctx := context.Background()

	t.Log("Given the need to mine at an explicitly supplied difficulty.")
	{
		t.Log("\tTest 0:\tWhen the difficulty is within bounds.")
		{
			b, err := block.NewBuilding("miner1", block.Parent{}, testTxs(), testConfig(), nil)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould construct a building block: %v.", failed, err)
			}

			mined, err := b.MineWithDifficulty(ctx, 2)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould mine at difficulty 2: %v.", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould mine at difficulty 2.", success)

			if mined.Header().Difficulty != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould record the supplied difficulty: got %d.", failed, mined.Header().Difficulty)
			}
			t.Logf("\t%s\tTest 0:\tShould record the supplied difficulty.", success)
		}

		t.Log("\tTest 1:\tWhen the difficulty is out of bounds.")
		{
			b, err := block.NewBuilding("miner1", block.Parent{}, testTxs(), testConfig(), nil)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould construct a building block: %v.", failed, err)
			}

			if _, err := b.MineWithDifficulty(ctx, 10); !errors.Is(err, block.ErrDifficultyOutOfBounds) {
				t.Fatalf("\t%s\tTest 1:\tShould reject difficulty 10: %v.", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould reject difficulty 10.", success)
		}
	}
}

func Test_MineCancellation(t *testing.T) {
	t.Log("Given the need to abort a mining operation in bounded time.")
	{
		t.Log("\tTest 0:\tWhen the context is cancelled during the search.")
		{
			cfg := block.AdjustConfig{Base: 24, Min: 1, Max: 32, Factor: 0.25, TolerancePct: 20.0}
			b, err := block.NewBuilding("miner1", block.Parent{}, testTxs(), cfg, nil)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould construct a building block: %v.", failed, err)
			}

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			done := make(chan error, 1)
			go func() {
				_, err := b.Mine(ctx)
				done <- err
			}()

			select {
			case err := <-done:
				if !errors.Is(err, block.ErrMiningAborted) {
					t.Fatalf("\t%s\tTest 0:\tShould abort with ErrMiningAborted: %v.", failed, err)
				}
				t.Logf("\t%s\tTest 0:\tShould abort with ErrMiningAborted.", success)

			case <-time.After(10 * time.Second):
				t.Fatalf("\t%s\tTest 0:\tShould abort quickly after cancellation.", failed)
			}
		}
	}
}

func Test_StorageRoundTrip(t *testing.T) {
	t.Log("Given the need to reconstitute finalized blocks from storage.")
	{
		t.Log("\tTest 0:\tWhen the stored data is intact.")
		{
			blk := mustMineFinalized(t, block.Parent{})

			restored, err := block.ToFinalized(block.NewData(blk))
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould reconstitute the block: %v.", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould reconstitute the block.", success)

			if restored.Hash() != blk.Hash() {
				t.Fatalf("\t%s\tTest 0:\tShould keep the same hash.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould keep the same hash.", success)
		}

		t.Log("\tTest 1:\tWhen the stored data was tampered with.")
		{
			blk := mustMineFinalized(t, block.Parent{})

			data := block.NewData(blk)
			data.Header.Nonce++

			if _, err := block.ToFinalized(data); !errors.Is(err, block.ErrHashMismatch) {
				t.Fatalf("\t%s\tTest 1:\tShould reject a tampered header: %v.", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould reject a tampered header.", success)
		}
	}
}

// mustMineFinalized runs a block through the full lifecycle for use as test
// fixture material.
func mustMineFinalized(t *testing.T, parent block.Parent) block.Finalized {
	t.Helper()

	b, err := block.NewBuilding("miner1", parent, testTxs(), testConfig(), nil)
	if err != nil {
		t.Fatalf("constructing building block: %v", err)
	}

	mined, err := b.Mine(context.Background())
	if err != nil {
		t.Fatalf("mining block: %v", err)
	}

	validated, err := mined.Validate(parent)
	if err != nil {
		t.Fatalf("validating block: %v", err)
	}

	return validated.Finalize()
}
