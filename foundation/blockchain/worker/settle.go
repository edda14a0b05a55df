package worker

// settlementOperations handles batch flushing and the challenge clock on the
// flush interval.
func (w *Worker) settlementOperations() {
	w.evHandler("worker: settlementOperations: G started")
	defer w.evHandler("worker: settlementOperations: G completed")

	for {
		select {
		case <-w.flushTicker.C:
			if !w.isShutdown() {
				w.runSettlementOperation()
			}
		case <-w.shut:
			w.evHandler("worker: settlementOperations: received shut signal")
			return
		}
	}
}

// runSettlementOperation seals the pending batch so a quiet chain still
// settles, then advances the challenge clock so flushed batches confirm once
// their deadline passes.
func (w *Worker) runSettlementOperation() {
	w.evHandler("worker: runSettlementOperation: started")
	defer w.evHandler("worker: runSettlementOperation: completed")

	if err := w.state.FlushBatch(); err != nil {
		w.evHandler("worker: runSettlementOperation: ERROR: %s", err)
	}

	w.state.TickSettlement()
}
