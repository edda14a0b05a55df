package worker_test

import (
	"testing"
	"time"

	"github.com/meridianchain/meridian/foundation/blockchain/block"
	"github.com/meridianchain/meridian/foundation/blockchain/database/storage/memory"
	"github.com/meridianchain/meridian/foundation/blockchain/dataavail"
	"github.com/meridianchain/meridian/foundation/blockchain/execution"
	"github.com/meridianchain/meridian/foundation/blockchain/genesis"
	"github.com/meridianchain/meridian/foundation/blockchain/state"
	"github.com/meridianchain/meridian/foundation/blockchain/worker"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func Test_RunMineShutdown(t *testing.T) {
	t.Log("Given the need to mine a block through the background worker.")

	gen := genesis.Default()
	gen.Difficulty.Base = 1
	gen.Difficulty.Min = 1
	gen.Difficulty.Max = 4

	storage, err := memory.New()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct storage: %v", failed, err)
	}

	s, err := state.New(state.Config{
		BeneficiaryID: "0xMiner",
		Genesis:       gen,
		Storage:       storage,
		DataStore:     dataavail.NewMemory(),
		Exec:          execution.NewDeterministic(),
		EvHandler:     func(v string, args ...any) { t.Logf(v, args...) },
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the state: %v", failed, err)
	}

	worker.Run(s, func(v string, args ...any) { t.Logf(v, args...) })
	t.Logf("\t%s\tShould be able to start the worker.", success)

	s.UpsertTxRef(block.TxRef{ID: "tx-1", DataRef: "ref-1"})

	deadline := time.Now().Add(10 * time.Second)
	for {
		if _, ok := s.Height(); ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("\t%s\tShould see a block mined before the deadline.", failed)
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Logf("\t%s\tShould see a block mined in the background.", success)

	if err := s.Shutdown(); err != nil {
		t.Fatalf("\t%s\tShould be able to shut the node down: %v", failed, err)
	}
	t.Logf("\t%s\tShould be able to shut the node down.", success)
}
