package block

import (
	"sync"
	"time"
)

// recentWindow bounds how many block times are retained for the variance
// computation in the adjustment engine.
const recentWindow = 32

// StatsSnapshot is a point-in-time copy of the mining statistics. Derived
// quantities like success rate report 0 when no attempts were counted.
type StatsSnapshot struct {
	TotalAttempts    uint64          `json:"total_attempts"`
	SuccessfulMines  uint64          `json:"successful_mines"`
	TotalMiningTime  time.Duration   `json:"total_mining_time"`
	AvgMiningTime    time.Duration   `json:"avg_mining_time"`
	RecentBlockTimes []time.Duration `json:"recent_block_times"`
}

// MiningStats accumulates timing and attempt samples for the proof of work
// search. The mining goroutine records samples while status queries and
// metrics scrapes read them, so access is synchronized internally.
type MiningStats struct {
	mu   sync.Mutex
	snap StatsSnapshot
}

// RecordAttempt counts a single proof of work trial.
func (s *MiningStats) RecordAttempt() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap.TotalAttempts++
}

// RecordMiningTime records a successful mine and the time it took.
func (s *MiningStats) RecordMiningTime(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap.SuccessfulMines++
	s.snap.TotalMiningTime += d
	s.snap.AvgMiningTime = s.snap.TotalMiningTime / time.Duration(s.snap.SuccessfulMines)

	s.snap.RecentBlockTimes = append(s.snap.RecentBlockTimes, d)
	if len(s.snap.RecentBlockTimes) > recentWindow {
		s.snap.RecentBlockTimes = s.snap.RecentBlockTimes[1:]
	}
}

// Snapshot returns a copy of the current statistics. The recent block times
// slice is copied so the caller never shares memory with the miner.
func (s *MiningStats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snap
	snap.RecentBlockTimes = append([]time.Duration(nil), s.snap.RecentBlockTimes...)

	return snap
}

// SuccessRate returns the ratio of successful mines to total attempts. A
// stats value with no attempts reports 0.
func (s *MiningStats) SuccessRate() float64 {
	return s.Snapshot().SuccessRate()
}

// MiningEfficiency returns the success rate capped at 2.0. The cap keeps a
// stats value that recorded successes before any attempts were counted from
// skewing the network difficulty recommendation.
func (s *MiningStats) MiningEfficiency() float64 {
	return s.Snapshot().MiningEfficiency()
}

// SuccessRate returns the ratio of successful mines to total attempts. A
// snapshot with no attempts reports 0.
func (s StatsSnapshot) SuccessRate() float64 {
	if s.TotalAttempts == 0 {
		return 0
	}

	return float64(s.SuccessfulMines) / float64(s.TotalAttempts)
}

// MiningEfficiency returns the success rate capped at 2.0. The cap keeps a
// snapshot that recorded successes before any attempts were counted from
// skewing the network difficulty recommendation.
func (s StatsSnapshot) MiningEfficiency() float64 {
	const maxEfficiency = 2.0

	rate := s.SuccessRate()
	if rate > maxEfficiency {
		return maxEfficiency
	}

	return rate
}
