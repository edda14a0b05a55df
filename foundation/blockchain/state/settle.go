package state

import (
	"github.com/meridianchain/meridian/foundation/blockchain/settlement"
	"github.com/meridianchain/meridian/foundation/blockchain/validator"
)

// FlushBatch seals the pending batch even if it has not filled, so a quiet
// chain still settles. The worker calls this on the flush interval.
func (s *State) FlushBatch() error {
	height, _ := s.db.Height()

	sealed, err := s.processor.Flush(height)
	if err != nil {
		return err
	}
	if sealed != nil {
		s.evHandler("state: FlushBatch: batch[%d] sealed: blocks[%d] deadline[%d]", sealed.ID, len(sealed.Blocks), sealed.DeadlineHeight)
	}

	return nil
}

// TickSettlement advances the challenge clock to the current chain height.
// Batches sealed by a flush confirm here once the chain has moved past their
// deadline.
func (s *State) TickSettlement() {
	height, ok := s.db.Height()
	if !ok {
		return
	}

	for _, confirmed := range s.manager.Tick(height) {
		s.evHandler("state: TickSettlement: batch[%d] confirmed: root[%s]", confirmed.ID, confirmed.ClaimedRoot)
	}
}

// SubmitChallenge resolves a fraud proof against the chain height at the
// time of submission.
func (s *State) SubmitChallenge(proof settlement.FraudProof) (settlement.Result, error) {
	height, _ := s.db.Height()

	res, err := s.manager.SubmitChallenge(proof, height)
	s.evHandler("state: SubmitChallenge: batch[%d] challenger[%s] outcome[%s] reason[%s]", proof.BatchID, proof.Challenger, res.Outcome, res.Reason)

	return res, err
}

// =============================================================================

// RegisterValidator registers an address with an initial stake deposit.
func (s *State) RegisterValidator(address string, deposit uint64) {
	s.book.Register(address, deposit)
	s.evHandler("state: RegisterValidator: address[%s] deposit[%d]", address, deposit)
}

// DepositStake adds stake to a registered validator.
func (s *State) DepositStake(address string, amount uint64) error {
	return s.book.Deposit(address, amount)
}

// WithdrawStake removes stake from a registered validator.
func (s *State) WithdrawStake(address string, amount uint64) error {
	return s.book.Withdraw(address, amount)
}

// Validators returns a snapshot of every registered stake.
func (s *State) Validators() []validator.Stake {
	return s.book.Copy()
}

// Slashes returns the audit trail of every applied penalty.
func (s *State) Slashes() []validator.Slash {
	return s.book.Slashes()
}
