package block_test

import (
	"testing"
	"time"

	"github.com/meridianchain/meridian/foundation/blockchain/block"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// samplesAt builds a window of samples spaced by the provided intervals, in
// milliseconds, starting at an arbitrary epoch.
func samplesAt(intervals ...uint64) []block.Sample {
	const epoch = 1_700_000_000_000

	samples := []block.Sample{{TimeStamp: epoch, Difficulty: 4}}
	ts := uint64(epoch)
	for _, iv := range intervals {
		ts += iv
		samples = append(samples, block.Sample{TimeStamp: ts, Difficulty: 4})
	}

	return samples
}

func Test_AdjustDifficulty(t *testing.T) {
	type table struct {
		name      string
		cfg       block.AdjustConfig
		current   uint
		intervals []uint64
		target    time.Duration
		exp       uint
	}

	tt := []table{
		{
			name:      "slow-blocks-outside-tolerance",
			cfg:       block.AdjustConfig{Base: 4, Min: 1, Max: 32, Factor: 0.25, TolerancePct: 20.0},
			current:   4,
			intervals: []uint64{15000, 15000, 15000},
			target:    10 * time.Second,
			exp:       3,
		},
		{
			name:      "dead-band-holds",
			cfg:       block.AdjustConfig{Base: 4, Min: 1, Max: 32, Factor: 0.25, TolerancePct: 20.0},
			current:   4,
			intervals: []uint64{11000, 9000, 10500},
			target:    10 * time.Second,
			exp:       4,
		},
		{
			name:      "fast-blocks-raise-difficulty",
			cfg:       block.AdjustConfig{Base: 4, Min: 1, Max: 32, Factor: 0.5, TolerancePct: 10.0},
			current:   4,
			intervals: []uint64{5000, 5000, 5000},
			target:    10 * time.Second,
			exp:       5,
		},
		{
			name:      "clamped-at-minimum",
			cfg:       block.AdjustConfig{Base: 2, Min: 1, Max: 3, Factor: 1.0, TolerancePct: 10.0},
			current:   1,
			intervals: []uint64{60000, 60000},
			target:    time.Second,
			exp:       1,
		},
		{
			name:      "clamped-at-maximum",
			cfg:       block.AdjustConfig{Base: 2, Min: 1, Max: 3, Factor: 5.0, TolerancePct: 10.0},
			current:   3,
			intervals: []uint64{100, 100, 100},
			target:    time.Minute,
			exp:       3,
		},
		{
			name:      "empty-window-keeps-current",
			cfg:       block.AdjustConfig{Base: 4, Min: 1, Max: 32, Factor: 0.25, TolerancePct: 20.0},
			current:   4,
			intervals: nil,
			target:    10 * time.Second,
			exp:       4,
		},
	}

	t.Log("Given the need to adjust difficulty from recent block intervals.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling the %s window.", testID, tst.name)
			{
				f := func(t *testing.T) {
					got := tst.cfg.Next(tst.current, samplesAt(tst.intervals...), tst.target)
					if got != tst.exp {
						t.Fatalf("\t%s\tTest %d:\tShould get difficulty %d: got %d.", failed, testID, tst.exp, got)
					}
					t.Logf("\t%s\tTest %d:\tShould get difficulty %d.", success, testID, tst.exp)

					if got < tst.cfg.Min || got > tst.cfg.Max {
						t.Fatalf("\t%s\tTest %d:\tShould stay within [%d,%d]: got %d.", failed, testID, tst.cfg.Min, tst.cfg.Max, got)
					}
					t.Logf("\t%s\tTest %d:\tShould stay within [%d,%d].", success, testID, tst.cfg.Min, tst.cfg.Max)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_AdjustDifficultyAdvanced(t *testing.T) {
	cfg := block.AdjustConfig{Base: 4, Min: 1, Max: 32, Factor: 0.25, TolerancePct: 20.0}
	target := 10 * time.Second

	t.Log("Given the need to weight difficulty corrections by interval variance.")
	{
		t.Log("\tTest 0:\tWhen the recent intervals are steady.")
		{
			// Zero variance: the full correction applies, matching Next.
			got := cfg.NextAdvanced(4, samplesAt(15000, 15000), target)
			if exp := cfg.Next(4, samplesAt(15000, 15000), target); got != exp {
				t.Fatalf("\t%s\tTest 0:\tShould match the basic adjustment %d: got %d.", failed, exp, got)
			}
			t.Logf("\t%s\tTest 0:\tShould match the basic adjustment.", success)
		}

		t.Log("\tTest 1:\tWhen the recent intervals are sporadic.")
		{
			// Intervals 5000 and 25000: mean 15000, deviation 0.5,
			// stddev 10000, cv 2/3, damping 0.6. The correction
			// round(0.25*4*0.5*0.6) = 0 keeps the difficulty in place
			// where the undamped adjustment would have lowered it.
			got := cfg.NextAdvanced(4, samplesAt(5000, 25000), target)
			if got != 4 {
				t.Fatalf("\t%s\tTest 1:\tShould dampen the correction to 4: got %d.", failed, got)
			}
			t.Logf("\t%s\tTest 1:\tShould dampen the correction.", success)

			if basic := cfg.Next(4, samplesAt(5000, 25000), target); basic != 3 {
				t.Fatalf("\t%s\tTest 1:\tShould see the undamped adjustment move to 3: got %d.", failed, basic)
			}
			t.Logf("\t%s\tTest 1:\tShould see the undamped adjustment move.", success)
		}

		t.Log("\tTest 2:\tWhen the deviation is inside the dead-band.")
		{
			got := cfg.NextAdvanced(4, samplesAt(10500, 9800), target)
			if got != 4 {
				t.Fatalf("\t%s\tTest 2:\tShould keep difficulty 4: got %d.", failed, got)
			}
			t.Logf("\t%s\tTest 2:\tShould keep difficulty unchanged.", success)
		}
	}
}

func Test_RecommendNetworkDifficulty(t *testing.T) {
	cfg := block.DefaultAdjustConfig()

	type table struct {
		name            string
		current         uint
		currentHashRate float64
		targetHashRate  float64
		exp             uint
	}

	tt := []table{
		{"equal-hash-rates", 4, 1000, 1000, 4},
		{"network-twice-as-fast", 4, 2000, 1000, 8},
		{"network-half-speed", 4, 500, 1000, 2},
		{"zero-target-keeps-current", 4, 1000, 0, 4},
	}

	t.Log("Given the need to recommend a network wide difficulty.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling %s.", testID, tst.name)
			{
				got := cfg.RecommendNetworkDifficulty(tst.current, tst.currentHashRate, tst.targetHashRate)
				if got != tst.exp {
					t.Fatalf("\t%s\tTest %d:\tShould recommend %d: got %d.", failed, testID, tst.exp, got)
				}
				t.Logf("\t%s\tTest %d:\tShould recommend %d.", success, testID, tst.exp)
			}
		}
	}
}

func Test_AdjustConfigValidation(t *testing.T) {
	t.Log("Given the need to reject invalid difficulty configuration at startup.")
	{
		t.Log("\tTest 0:\tWhen the bounds are inverted.")
		{
			cfg := block.AdjustConfig{Base: 4, Min: 8, Max: 2, Factor: 0.25, TolerancePct: 20}
			if err := cfg.Validate(); err == nil {
				t.Fatalf("\t%s\tTest 0:\tShould reject min > base > max.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould reject min > base > max.", success)
		}

		t.Log("\tTest 1:\tWhen the factor is negative.")
		{
			cfg := block.AdjustConfig{Base: 4, Min: 1, Max: 32, Factor: -0.5, TolerancePct: 20}
			if err := cfg.Validate(); err == nil {
				t.Fatalf("\t%s\tTest 1:\tShould reject a negative factor.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould reject a negative factor.", success)
		}

		t.Log("\tTest 2:\tWhen the max exceeds what a hash can satisfy.")
		{
			cfg := block.AdjustConfig{Base: 4, Min: 1, Max: 64, Factor: 0.25, TolerancePct: 20}
			if err := cfg.Validate(); err == nil {
				t.Fatalf("\t%s\tTest 2:\tShould reject a max above 32 leading hex zeros.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould reject a max above 32 leading hex zeros.", success)
		}

		t.Log("\tTest 3:\tWhen the defaults are used.")
		{
			if err := block.DefaultAdjustConfig().Validate(); err != nil {
				t.Fatalf("\t%s\tTest 3:\tShould accept the defaults: %v.", failed, err)
			}
			t.Logf("\t%s\tTest 3:\tShould accept the defaults.", success)
		}
	}
}

func Test_MiningStats(t *testing.T) {
	t.Log("Given the need to track mining attempts and timings.")
	{
		t.Log("\tTest 0:\tWhen recording a successful mine and two attempts.")
		{
			var stats block.MiningStats

			if stats.SuccessRate() != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould report a zero rate with no attempts.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould report a zero rate with no attempts.", success)

			stats.RecordMiningTime(time.Second)
			stats.RecordAttempt()
			stats.RecordAttempt()

			snap := stats.Snapshot()
			if snap.SuccessfulMines != 1 || snap.TotalAttempts != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould count 1 success over 2 attempts: got %d/%d.", failed, snap.SuccessfulMines, snap.TotalAttempts)
			}
			t.Logf("\t%s\tTest 0:\tShould count 1 success over 2 attempts.", success)

			if snap.SuccessRate() != 0.5 {
				t.Fatalf("\t%s\tTest 0:\tShould report a success rate of 0.5: got %g.", failed, snap.SuccessRate())
			}
			t.Logf("\t%s\tTest 0:\tShould report a success rate of 0.5.", success)

			if snap.AvgMiningTime != time.Second || len(snap.RecentBlockTimes) != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould track the average and the window.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould track the average and the window.", success)
		}

		t.Log("\tTest 1:\tWhen computing efficiency.")
		{
			var stats block.MiningStats
			stats.RecordMiningTime(500 * time.Millisecond)
			stats.RecordAttempt()
			stats.RecordAttempt()

			eff := stats.MiningEfficiency()
			if eff <= 0 || eff > 2.0 {
				t.Fatalf("\t%s\tTest 1:\tShould report efficiency in (0, 2.0]: got %g.", failed, eff)
			}
			t.Logf("\t%s\tTest 1:\tShould report efficiency in (0, 2.0].", success)
		}
	}
}
