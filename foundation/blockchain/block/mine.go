package block

import (
	"context"
	"crypto/rand"
	"math"
	"math/big"
	"time"
)

// cancelCheckInterval bounds how many nonce trials may pass between checks
// of the cancellation signal, so an abort lands in deterministic time.
const cancelCheckInterval = 1024

// Mine runs the proof of work search at the difficulty assigned when the
// block was constructed. On success the elapsed time and attempt count are
// recorded into the block's mining statistics. Cancelling the context aborts
// the search with ErrMiningAborted; a block that does not satisfy the
// difficulty target is never returned.
func (b Building) Mine(ctx context.Context) (Mined, error) {
	return b.mine(ctx, b.header.Difficulty)
}

// MineWithDifficulty mines at an explicitly supplied difficulty, bypassing
// the adaptive engine. Used for tests, genesis, and manual overrides. The
// difficulty must fall within the configured bounds.
func (b Building) MineWithDifficulty(ctx context.Context, difficulty uint) (Mined, error) {
	if difficulty < b.cfg.Min || difficulty > b.cfg.Max {
		return Mined{}, ErrDifficultyOutOfBounds
	}

	return b.mine(ctx, difficulty)
}

// MineAdaptive computes the difficulty from the recent finalized blocks via
// the adjustment engine, then mines at that difficulty.
func (b Building) MineAdaptive(ctx context.Context, recent []Finalized, target time.Duration) (Mined, error) {
	return b.mine(ctx, b.cfg.NextAdvanced(b.header.Difficulty, Samples(recent), target))
}

// mine performs the nonce search. Pointer semantics are used on the header
// copy since a nonce is being discovered.
func (b Building) mine(ctx context.Context, difficulty uint) (Mined, error) {
	header := b.header
	header.Difficulty = difficulty

	// Choose a random starting point for the nonce and increment from there.
	nBig, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return Mined{}, err
	}
	header.Nonce = nBig.Uint64()

	started := time.Now()

	var trials uint64
	for {
		trials++
		b.stats.RecordAttempt()

		if trials%cancelCheckInterval == 0 && ctx.Err() != nil {
			return Mined{}, ErrMiningAborted
		}

		hash := hashHeader(header)
		if !isHashSolved(difficulty, hash) {
			header.Nonce++
			continue
		}

		// One last check so a cancelled search never hands back a block.
		if ctx.Err() != nil {
			return Mined{}, ErrMiningAborted
		}

		b.stats.RecordMiningTime(time.Since(started))

		return Mined{
			header: header,
			txs:    b.txs,
			hash:   hash,
		}, nil
	}
}
