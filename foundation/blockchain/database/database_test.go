package database_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/meridianchain/meridian/foundation/blockchain/block"
	"github.com/meridianchain/meridian/foundation/blockchain/database"
	"github.com/meridianchain/meridian/foundation/blockchain/database/storage/disk"
	"github.com/meridianchain/meridian/foundation/blockchain/database/storage/memory"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func noopEv(v string, args ...any) {}

// mineChain produces a chain of n finalized blocks at the lowest difficulty.
func mineChain(t *testing.T, n int) []block.Finalized {
	cfg := block.AdjustConfig{Base: 1, Min: 1, Max: 2, Factor: 0.25, TolerancePct: 20.0}

	var chain []block.Finalized
	parent := block.Parent{}

	for i := 0; i < n; i++ {
		txs := []block.TxRef{{ID: fmt.Sprintf("0xtx%d", i), DataRef: fmt.Sprintf("0xda%d", i)}}

		b, err := block.NewBuilding("miner1", parent, txs, cfg, nil)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct building block %d: %v", failed, i, err)
		}

		mined, err := b.MineWithDifficulty(context.Background(), 1)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to mine block %d: %v", failed, i, err)
		}

		validated, err := mined.Validate(parent)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to validate block %d: %v", failed, i, err)
		}

		final := validated.Finalize()
		chain = append(chain, final)
		parent = block.ParentOf(final)
	}

	return chain
}

// Test_WriteAndQuery validates blocks written to the database can be read
// back and the chain bookkeeping stays consistent.
func Test_WriteAndQuery(t *testing.T) {
	t.Log("Given the need to persist and query the chain of finalized blocks.")
	{
		t.Logf("\tTest 0:\tWhen writing a chain of 3 blocks.")
		{
			storage, err := memory.New()
			if err != nil {
				t.Fatalf("\t%s\tShould be able to construct memory storage: %v", failed, err)
			}

			db, err := database.New(storage, noopEv)
			if err != nil {
				t.Fatalf("\t%s\tShould be able to construct the database: %v", failed, err)
			}
			defer db.Close()

			if _, ok := db.Height(); ok {
				t.Fatalf("\t%s\tShould report no height for an empty chain.", failed)
			}
			t.Logf("\t%s\tShould report no height for an empty chain.", success)

			chain := mineChain(t, 3)
			for _, blk := range chain {
				if err := db.Write(blk); err != nil {
					t.Fatalf("\t%s\tShould be able to write block %d: %v", failed, blk.Header().Height, err)
				}
			}
			t.Logf("\t%s\tShould be able to write all 3 blocks.", success)

			height, ok := db.Height()
			if !ok || height != 2 {
				t.Fatalf("\t%s\tShould report height 2, got %d ok %v.", failed, height, ok)
			}
			t.Logf("\t%s\tShould report height 2.", success)

			latest, ok := db.LatestBlock()
			if !ok || latest.Hash() != chain[2].Hash() {
				t.Fatalf("\t%s\tShould report the last written block as latest.", failed)
			}
			t.Logf("\t%s\tShould report the last written block as latest.", success)

			got, err := db.GetBlock(1)
			if err != nil {
				t.Fatalf("\t%s\tShould be able to read back block 1: %v", failed, err)
			}
			if got.Hash() != chain[1].Hash() {
				t.Fatalf("\t%s\tShould read back the same block: exp[%s] got[%s]", failed, chain[1].Hash(), got.Hash())
			}
			t.Logf("\t%s\tShould read back the same block at height 1.", success)

			hashes := db.Hashes()
			if len(hashes) != 3 || hashes[0] != chain[0].Hash() {
				t.Fatalf("\t%s\tShould track the canonical hash list genesis first.", failed)
			}
			t.Logf("\t%s\tShould track the canonical hash list genesis first.", success)

			recent, err := db.Recent(2)
			if err != nil {
				t.Fatalf("\t%s\tShould be able to query recent blocks: %v", failed, err)
			}
			if len(recent) != 2 || recent[1].Hash() != chain[2].Hash() {
				t.Fatalf("\t%s\tShould return the last 2 blocks oldest first.", failed)
			}
			t.Logf("\t%s\tShould return the last 2 blocks oldest first.", success)
		}

		t.Logf("\tTest 1:\tWhen writing a block that skips a height.")
		{
			storage, err := memory.New()
			if err != nil {
				t.Fatalf("\t%s\tShould be able to construct memory storage: %v", failed, err)
			}

			db, err := database.New(storage, noopEv)
			if err != nil {
				t.Fatalf("\t%s\tShould be able to construct the database: %v", failed, err)
			}
			defer db.Close()

			chain := mineChain(t, 3)
			if err := db.Write(chain[0]); err != nil {
				t.Fatalf("\t%s\tShould be able to write the genesis block: %v", failed, err)
			}

			if err := db.Write(chain[2]); err == nil {
				t.Fatalf("\t%s\tShould not accept a block that skips a height.", failed)
			}
			t.Logf("\t%s\tShould not accept a block that skips a height.", success)
		}
	}
}

// Test_LoadFromStorage validates a database reconstructed from disk picks up
// the existing chain.
func Test_LoadFromStorage(t *testing.T) {
	t.Log("Given the need to reload an existing chain from storage.")
	{
		t.Logf("\tTest 0:\tWhen restarting over a 3 block chain on disk.")
		{
			dbPath := t.TempDir()
			chain := mineChain(t, 3)

			storage, err := disk.New(dbPath)
			if err != nil {
				t.Fatalf("\t%s\tShould be able to construct disk storage: %v", failed, err)
			}

			db, err := database.New(storage, noopEv)
			if err != nil {
				t.Fatalf("\t%s\tShould be able to construct the database: %v", failed, err)
			}

			for _, blk := range chain {
				if err := db.Write(blk); err != nil {
					t.Fatalf("\t%s\tShould be able to write block %d: %v", failed, blk.Header().Height, err)
				}
			}
			if err := db.Close(); err != nil {
				t.Fatalf("\t%s\tShould be able to close the database: %v", failed, err)
			}

			storage2, err := disk.New(dbPath)
			if err != nil {
				t.Fatalf("\t%s\tShould be able to reopen disk storage: %v", failed, err)
			}

			db2, err := database.New(storage2, noopEv)
			if err != nil {
				t.Fatalf("\t%s\tShould be able to reload the database: %v", failed, err)
			}
			defer db2.Close()

			height, ok := db2.Height()
			if !ok || height != 2 {
				t.Fatalf("\t%s\tShould reload the chain at height 2, got %d ok %v.", failed, height, ok)
			}
			t.Logf("\t%s\tShould reload the chain at height 2.", success)

			if got := db2.Hashes(); len(got) != 3 || got[2] != chain[2].Hash() {
				t.Fatalf("\t%s\tShould reload the full canonical hash list.", failed)
			}
			t.Logf("\t%s\tShould reload the full canonical hash list.", success)
		}
	}
}
