package block

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// AdjustConfig holds the bounds and control parameters for the difficulty
// adjustment engine.
type AdjustConfig struct {
	Base         uint    `json:"base_difficulty"`      // Difficulty assigned to a new block before adjustment.
	Min          uint    `json:"min_difficulty"`       // Lower clamp for any adjusted difficulty.
	Max          uint    `json:"max_difficulty"`       // Upper clamp for any adjusted difficulty.
	Factor       float64 `json:"adjustment_factor"`    // Fraction of the gap to target corrected per step.
	TolerancePct float64 `json:"tolerance_percentage"` // Dead-band around the target block time, in percent.
}

// DefaultAdjustConfig returns the adjustment parameters used when the
// configuration does not override them.
func DefaultAdjustConfig() AdjustConfig {
	return AdjustConfig{
		Base:         4,
		Min:          1,
		Max:          32,
		Factor:       0.25,
		TolerancePct: 20.0,
	}
}

// Validate rejects parameter sets the node must not run under.
func (c AdjustConfig) Validate() error {
	if c.Min > c.Base || c.Base > c.Max {
		return fmt.Errorf("difficulty bounds must hold min <= base <= max, got min %d base %d max %d", c.Min, c.Base, c.Max)
	}
	if c.Max > maxSolvableDifficulty {
		return fmt.Errorf("max difficulty cannot exceed the %d leading hex zeros a hash can carry, got %d", maxSolvableDifficulty, c.Max)
	}
	if c.Factor < 0 {
		return fmt.Errorf("adjustment factor must be non-negative, got %g", c.Factor)
	}
	if c.TolerancePct < 0 {
		return fmt.Errorf("tolerance percentage must be non-negative, got %g", c.TolerancePct)
	}

	return nil
}

// clamp bounds a candidate difficulty to the configured range.
func (c AdjustConfig) clamp(d float64) uint {
	if d < float64(c.Min) {
		return c.Min
	}
	if d > float64(c.Max) {
		return c.Max
	}

	return uint(d)
}

// =============================================================================

// Sample carries the observation the adjustment engine needs from one
// finalized block.
type Sample struct {
	TimeStamp  uint64
	Difficulty uint
}

// Samples extracts the engine's observations from recent finalized blocks.
func Samples(blocks []Finalized) []Sample {
	samples := make([]Sample, len(blocks))
	for i, blk := range blocks {
		samples[i] = Sample{
			TimeStamp:  blk.Header().TimeStamp,
			Difficulty: blk.Header().Difficulty,
		}
	}

	return samples
}

// Next computes the difficulty for the next block from the current
// difficulty and the recent window of finalized blocks. The observed mean
// block interval is compared against the target; inside the tolerance
// dead-band no adjustment is applied, outside it the difficulty moves toward
// the target by Factor * current * deviation, clamped to the configured
// bounds.
func (c AdjustConfig) Next(current uint, recent []Sample, target time.Duration) uint {
	mean, ok := meanInterval(recent)
	if !ok {
		return c.clamp(float64(current))
	}

	deviation := (mean - target.Seconds()*1000) / (target.Seconds() * 1000)
	if math.Abs(deviation) <= c.TolerancePct/100 {
		return c.clamp(float64(current))
	}

	// A positive deviation means blocks arrive slower than the target, so
	// the correction lowers the difficulty; a negative deviation raises it.
	correction := math.Round(c.Factor * float64(current) * deviation)

	return c.clamp(float64(current) - correction)
}

// NextAdvanced behaves like Next but weights the correction by the variance
// of the recent block intervals. Sporadic mining, a high coefficient of
// variation, dampens the correction so the controller does not chase noise;
// a steady interval stream applies the full correction.
func (c AdjustConfig) NextAdvanced(current uint, recent []Sample, target time.Duration) uint {
	intervals := intervalsOf(recent)
	if len(intervals) == 0 {
		return c.clamp(float64(current))
	}

	mean := meanOf(intervals)
	deviation := (mean - target.Seconds()*1000) / (target.Seconds() * 1000)
	if math.Abs(deviation) <= c.TolerancePct/100 {
		return c.clamp(float64(current))
	}

	variance := varianceOf(intervals, mean)
	damping := 1.0
	if mean > 0 {
		cv := math.Sqrt(variance) / mean
		damping = 1 / (1 + cv)
	}

	correction := math.Round(c.Factor * float64(current) * deviation * damping)

	return c.clamp(float64(current) - correction)
}

// RecommendNetworkDifficulty proposes a network-wide difficulty independent
// of any single miner's local view by scaling the current difficulty with
// the ratio of the observed network hash rate to the targeted one.
func (c AdjustConfig) RecommendNetworkDifficulty(current uint, currentHashRate, targetHashRate float64) uint {
	if targetHashRate <= 0 || currentHashRate <= 0 {
		return c.clamp(float64(current))
	}

	return c.clamp(math.Round(float64(current) * currentHashRate / targetHashRate))
}

// =============================================================================

// meanInterval reports the mean spacing between consecutive block
// timestamps in milliseconds. At least two blocks are required.
func meanInterval(recent []Sample) (float64, bool) {
	intervals := intervalsOf(recent)
	if len(intervals) == 0 {
		return 0, false
	}

	return meanOf(intervals), true
}

// intervalsOf extracts the consecutive timestamp deltas from the window,
// ordered oldest first.
func intervalsOf(recent []Sample) []float64 {
	if len(recent) < 2 {
		return nil
	}

	sorted := make([]Sample, len(recent))
	copy(sorted, recent)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].TimeStamp < sorted[j].TimeStamp
	})

	intervals := make([]float64, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		intervals = append(intervals, float64(sorted[i].TimeStamp-sorted[i-1].TimeStamp))
	}

	return intervals
}

func meanOf(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

// varianceOf computes the population variance of the intervals. The explicit
// computation matters: the damping factor differentiates a thrashing
// controller from a stable one.
func varianceOf(values []float64, mean float64) float64 {
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}

	return sum / float64(len(values))
}
