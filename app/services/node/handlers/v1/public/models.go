package public

import (
	"github.com/meridianchain/meridian/foundation/blockchain/block"
	"github.com/meridianchain/meridian/foundation/blockchain/validator"
)

// status is the node status response.
type status struct {
	Height          *uint64             `json:"height"`
	LatestBlockHash string              `json:"latest_block_hash,omitempty"`
	SettlementRoot  string              `json:"settlement_root"`
	PoolCount       int                 `json:"pool_count"`
	Stats           block.StatsSnapshot `json:"mining_stats"`
}

// validators is the validator listing response.
type validators struct {
	Stakes  []validator.Stake `json:"stakes"`
	Slashes []validator.Slash `json:"slashes"`
}
