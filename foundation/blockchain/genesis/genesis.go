// Package genesis maintains access to the genesis file.
package genesis

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/meridianchain/meridian/foundation/blockchain/block"
	"github.com/meridianchain/meridian/foundation/blockchain/settlement"
)

// Genesis represents the genesis file. The file is TOML; every value is
// validated before the node starts so a bad configuration never reaches the
// mining or settlement paths.
type Genesis struct {
	Date         time.Time         `toml:"date"`
	ChainID      uint16            `toml:"chain_id"`       // Unique id for this running instance.
	BlockTime    uint64            `toml:"block_time"`     // Target interval between blocks in milliseconds.
	MaxBlockSize int               `toml:"max_block_size"` // Maximum byte size of a block payload.
	Difficulty   DifficultySection `toml:"difficulty"`
	Settlement   SettlementSection `toml:"settlement"`
	Stakes       map[string]uint64 `toml:"stakes"` // Initial validator stakes.
}

// DifficultySection carries the difficulty controller settings.
type DifficultySection struct {
	Base         uint    `toml:"base"`
	Min          uint    `toml:"min"`
	Max          uint    `toml:"max"`
	Factor       float64 `toml:"factor"`
	TolerancePct float64 `toml:"tolerance_pct"`
}

// SettlementSection carries the rollup settlement settings.
type SettlementSection struct {
	BatchSize             int     `toml:"batch_size"`
	FlushIntervalSecs     int     `toml:"flush_interval_secs"`
	ChallengePeriod       uint64  `toml:"challenge_period"` // In block heights.
	MinValidatorStake     uint64  `toml:"min_validator_stake"`
	SlashInvalidProofPct  float64 `toml:"slash_invalid_proof_pct"`
	SlashRevertedBatchPct float64 `toml:"slash_reverted_batch_pct"`
}

// Default returns the settings the chain runs with when the genesis file
// does not override them.
func Default() Genesis {
	return Genesis{
		Date:         time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		ChainID:      31,
		BlockTime:    10_000,
		MaxBlockSize: 1 << 20,
		Difficulty: DifficultySection{
			Base:         4,
			Min:          1,
			Max:          32,
			Factor:       0.25,
			TolerancePct: 20,
		},
		Settlement: SettlementSection{
			BatchSize:             100,
			FlushIntervalSecs:     30,
			ChallengePeriod:       100,
			MinValidatorStake:     1_000,
			SlashInvalidProofPct:  10,
			SlashRevertedBatchPct: 50,
		},
	}
}

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	genesis := Default()
	if err := toml.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, fmt.Errorf("parse genesis file %s: %w", path, err)
	}

	if err := genesis.Validate(); err != nil {
		return Genesis{}, fmt.Errorf("genesis file %s: %w", path, err)
	}

	return genesis, nil
}

// Validate rejects settings the node cannot start with.
func (g Genesis) Validate() error {
	if g.BlockTime == 0 {
		return fmt.Errorf("block time must be positive")
	}
	if g.MaxBlockSize < 1 {
		return fmt.Errorf("max block size must be at least 1 byte, got %d", g.MaxBlockSize)
	}

	if err := g.AdjustConfig().Validate(); err != nil {
		return err
	}

	return g.SettlementConfig().Validate()
}

// TargetBlockTime returns the block interval the difficulty controller aims
// for.
func (g Genesis) TargetBlockTime() time.Duration {
	return time.Duration(g.BlockTime) * time.Millisecond
}

// AdjustConfig maps the difficulty section onto the controller settings.
func (g Genesis) AdjustConfig() block.AdjustConfig {
	return block.AdjustConfig{
		Base:         g.Difficulty.Base,
		Min:          g.Difficulty.Min,
		Max:          g.Difficulty.Max,
		Factor:       g.Difficulty.Factor,
		TolerancePct: g.Difficulty.TolerancePct,
	}
}

// SettlementConfig maps the settlement section onto the pipeline settings.
func (g Genesis) SettlementConfig() settlement.Config {
	return settlement.Config{
		BatchSize:             g.Settlement.BatchSize,
		FlushInterval:         time.Duration(g.Settlement.FlushIntervalSecs) * time.Second,
		ChallengePeriod:       g.Settlement.ChallengePeriod,
		SlashInvalidProofPct:  g.Settlement.SlashInvalidProofPct,
		SlashRevertedBatchPct: g.Settlement.SlashRevertedBatchPct,
	}
}
