// Package state is the core API for the finality node and implements all the
// business rules and processing. It owns the canonical chain: every block
// enters through here exactly once, and everything downstream (execution,
// settlement, data availability) observes blocks only after this package has
// finalized them.
package state

import (
	"sync"

	"github.com/meridianchain/meridian/foundation/blockchain/block"
	"github.com/meridianchain/meridian/foundation/blockchain/database"
	"github.com/meridianchain/meridian/foundation/blockchain/dataavail"
	"github.com/meridianchain/meridian/foundation/blockchain/execution"
	"github.com/meridianchain/meridian/foundation/blockchain/genesis"
	"github.com/meridianchain/meridian/foundation/blockchain/settlement"
	"github.com/meridianchain/meridian/foundation/blockchain/validator"
)

// EventHandler defines a function that is called when events occur in the
// processing of blocks and batches.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining and settlement background work.
type Worker interface {
	Shutdown()
	SignalStartMining()
	SignalCancelMining() (done func())
}

// =============================================================================

// Config represents the configuration required to start the node.
type Config struct {
	BeneficiaryID string
	Genesis       genesis.Genesis
	Storage       database.Storage
	DataStore     dataavail.Store
	Exec          execution.Layer
	EvHandler     EventHandler
}

// State manages the blockchain node.
type State struct {
	mu            sync.Mutex
	beneficiaryID string
	evHandler     EventHandler

	genesis   genesis.Genesis
	db        *database.Database
	pool      *pool
	stats     *block.MiningStats
	book      *validator.Book
	exec      execution.Layer
	dataStore dataavail.Store
	processor *settlement.Processor
	manager   *settlement.Manager

	Worker Worker
}

// New constructs a new node state for chain management.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if err := cfg.Genesis.Validate(); err != nil {
		return nil, err
	}

	// Load all existing blocks from storage into memory for processing.
	db, err := database.New(cfg.Storage, ev)
	if err != nil {
		return nil, err
	}

	book := validator.NewBook(cfg.Genesis.Settlement.MinValidatorStake)
	for address, stake := range cfg.Genesis.Stakes {
		book.Register(address, stake)
	}

	manager, err := settlement.NewManager(cfg.Genesis.SettlementConfig(), book, cfg.DataStore)
	if err != nil {
		return nil, err
	}

	processor, err := settlement.NewProcessor(cfg.Genesis.SettlementConfig(), cfg.BeneficiaryID, cfg.Exec.StateRoot(), cfg.DataStore, manager)
	if err != nil {
		return nil, err
	}

	state := State{
		beneficiaryID: cfg.BeneficiaryID,
		evHandler:     ev,

		genesis:   cfg.Genesis,
		db:        db,
		pool:      newPool(cfg.Genesis.MaxBlockSize),
		stats:     &block.MiningStats{},
		book:      book,
		exec:      cfg.Exec,
		dataStore: cfg.DataStore,
		processor: processor,
		manager:   manager,
	}

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {

	// Make sure the database is properly closed.
	defer func() {
		s.db.Close()
	}()

	// Stop all chain writing activity.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return nil
}
