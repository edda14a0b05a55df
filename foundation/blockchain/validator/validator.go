// Package validator maintains the stake balances that gate who may submit
// fraud proofs and who can be slashed. Balances are never silently deleted;
// a zero balance is a valid terminal state.
package validator

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Registered errors because callers need to react to them.
var (
	ErrNotRegistered = errors.New("validator not registered")
	ErrUnknownReason = errors.New("slash reason not provided")
)

// Stake represents the economic standing of a single validator.
type Stake struct {
	Address string `json:"address"`
	Amount  uint64 `json:"amount"`
}

// Slash records one applied penalty for later audit.
type Slash struct {
	Address string `json:"address"`
	Amount  uint64 `json:"amount"`
	Reason  string `json:"reason"`
}

// Book tracks validator stakes under a single-writer discipline. Readers may
// query concurrently with bounded staleness.
type Book struct {
	minStake uint64
	stakes   map[string]uint64
	slashes  []Slash
	mu       sync.RWMutex
}

// NewBook constructs a stake book with the configured minimum stake
// requirement.
func NewBook(minStake uint64) *Book {
	return &Book{
		minStake: minStake,
		stakes:   make(map[string]uint64),
	}
}

// MinStake returns the configured minimum stake threshold.
func (b *Book) MinStake() uint64 {
	return b.minStake
}

// Register creates the stake entry for an address with an initial deposit.
// Registering an existing address adds to its balance.
func (b *Book) Register(address string, deposit uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stakes[address] += deposit
}

// Deposit adds stake to a registered address.
func (b *Book) Deposit(address string, amount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.stakes[address]; !exists {
		return ErrNotRegistered
	}
	b.stakes[address] += amount

	return nil
}

// Withdraw removes stake from a registered address. The entry remains even
// when the balance reaches zero.
func (b *Book) Withdraw(address string, amount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	balance, exists := b.stakes[address]
	if !exists {
		return ErrNotRegistered
	}
	if amount > balance {
		return fmt.Errorf("withdraw %d exceeds staked balance %d", amount, balance)
	}
	b.stakes[address] = balance - amount

	return nil
}

// ApplySlash reduces a validator's stake by the given percentage and records
// the penalty with its reason for audit. Slashing an unregistered address is
// a no-op that still returns the error for attribution.
func (b *Book) ApplySlash(address string, pct float64, reason string) (Slash, error) {
	if reason == "" {
		return Slash{}, ErrUnknownReason
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	balance, exists := b.stakes[address]
	if !exists {
		return Slash{}, ErrNotRegistered
	}

	amount := uint64(float64(balance) * pct / 100)
	b.stakes[address] = balance - amount

	slash := Slash{Address: address, Amount: amount, Reason: reason}
	b.slashes = append(b.slashes, slash)

	return slash, nil
}

// Balance returns the current stake for an address.
func (b *Book) Balance(address string) (uint64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	balance, exists := b.stakes[address]
	if !exists {
		return 0, ErrNotRegistered
	}

	return balance, nil
}

// HasMinStake reports whether the address holds at least the minimum stake
// required to submit a fraud proof.
func (b *Book) HasMinStake(address string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.stakes[address] >= b.minStake
}

// Copy returns the registered stakes sorted by address for stable output.
func (b *Book) Copy() []Stake {
	b.mu.RLock()
	defer b.mu.RUnlock()

	stakes := make([]Stake, 0, len(b.stakes))
	for address, amount := range b.stakes {
		stakes = append(stakes, Stake{Address: address, Amount: amount})
	}
	sort.Slice(stakes, func(i, j int) bool {
		return stakes[i].Address < stakes[j].Address
	})

	return stakes
}

// Slashes returns the audit trail of applied penalties.
func (b *Book) Slashes() []Slash {
	b.mu.RLock()
	defer b.mu.RUnlock()

	slashes := make([]Slash, len(b.slashes))
	copy(slashes, b.slashes)
	return slashes
}
