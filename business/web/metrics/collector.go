package metrics

import (
	"github.com/meridianchain/meridian/foundation/blockchain/settlement"
	"github.com/meridianchain/meridian/foundation/blockchain/state"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	chainHeightDesc = prometheus.NewDesc(
		"meridian_chain_height",
		"Current canonical chain height.",
		nil, nil)

	poolSizeDesc = prometheus.NewDesc(
		"meridian_chain_pool_size",
		"Transaction references waiting to be mined.",
		nil, nil)

	miningAttemptsDesc = prometheus.NewDesc(
		"meridian_mining_attempts_total",
		"Proof of work trials performed.",
		nil, nil)

	minedBlocksDesc = prometheus.NewDesc(
		"meridian_mining_blocks_total",
		"Blocks successfully mined.",
		nil, nil)

	miningTimeDesc = prometheus.NewDesc(
		"meridian_mining_avg_seconds",
		"Average proof of work search time.",
		nil, nil)

	batchesDesc = prometheus.NewDesc(
		"meridian_settlement_batches",
		"Settlement batches by status.",
		[]string{"status"}, nil)

	fraudProofsDesc = prometheus.NewDesc(
		"meridian_settlement_fraud_proofs_total",
		"Fraud proof resolutions by outcome.",
		[]string{"outcome"}, nil)

	validatorsDesc = prometheus.NewDesc(
		"meridian_validators",
		"Registered validators.",
		nil, nil)
)

// StateCollector exposes the chain and settlement state as prometheus
// metrics. Values are read from the state on every scrape, so there is no
// update hook to forget.
type StateCollector struct {
	state *state.State
}

// NewStateCollector constructs and registers the collector with the default
// prometheus registry.
func NewStateCollector(st *state.State) *StateCollector {
	c := StateCollector{state: st}
	prometheus.MustRegister(&c)

	return &c
}

// Describe implements the prometheus.Collector interface.
func (c *StateCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- chainHeightDesc
	ch <- poolSizeDesc
	ch <- miningAttemptsDesc
	ch <- minedBlocksDesc
	ch <- miningTimeDesc
	ch <- batchesDesc
	ch <- fraudProofsDesc
	ch <- validatorsDesc
}

// Collect implements the prometheus.Collector interface.
func (c *StateCollector) Collect(ch chan<- prometheus.Metric) {
	if height, ok := c.state.Height(); ok {
		ch <- prometheus.MustNewConstMetric(chainHeightDesc, prometheus.GaugeValue, float64(height))
	}

	ch <- prometheus.MustNewConstMetric(poolSizeDesc, prometheus.GaugeValue, float64(c.state.PoolCount()))

	stats := c.state.Stats()
	ch <- prometheus.MustNewConstMetric(miningAttemptsDesc, prometheus.CounterValue, float64(stats.TotalAttempts))
	ch <- prometheus.MustNewConstMetric(minedBlocksDesc, prometheus.CounterValue, float64(stats.SuccessfulMines))
	ch <- prometheus.MustNewConstMetric(miningTimeDesc, prometheus.GaugeValue, stats.AvgMiningTime.Seconds())

	byStatus := map[settlement.Status]int{}
	for _, batch := range c.state.Batches() {
		byStatus[batch.Status]++
	}
	for _, status := range []settlement.Status{settlement.StatusOpen, settlement.StatusConfirmed, settlement.StatusReverted} {
		ch <- prometheus.MustNewConstMetric(batchesDesc, prometheus.GaugeValue, float64(byStatus[status]), string(status))
	}

	byOutcome := map[settlement.Outcome]int{}
	for _, res := range c.state.SettlementHistory() {
		byOutcome[res.Outcome]++
	}
	for _, outcome := range []settlement.Outcome{settlement.OutcomeAccepted, settlement.OutcomeRejected} {
		ch <- prometheus.MustNewConstMetric(fraudProofsDesc, prometheus.CounterValue, float64(byOutcome[outcome]), string(outcome))
	}

	ch <- prometheus.MustNewConstMetric(validatorsDesc, prometheus.GaugeValue, float64(len(c.state.Validators())))
}
