// Package block implements the block lifecycle state machine. A block moves
// through four states, Building -> Mined -> Validated -> Finalized, and each
// state is its own Go type so an operation that is only legal in one state
// cannot be expressed against a block in another. Transitions are
// one-directional and no state can be re-entered.
package block

import (
	"time"

	"github.com/meridianchain/meridian/foundation/blockchain/merkle"
	"github.com/meridianchain/meridian/foundation/blockchain/signature"
)

// Header represents common information required for each block.
type Header struct {
	PrevBlockHash string `json:"prev_block_hash"` // Hash of the previous block in the chain.
	Height        uint64 `json:"height"`          // Block height, parent height plus one.
	TimeStamp     uint64 `json:"timestamp"`       // Time the block was constructed, in milliseconds.
	Nonce         uint64 `json:"nonce"`           // Value identified to solve the hash solution.
	Difficulty    uint   `json:"difficulty"`      // Number of leading 0's needed to solve the hash solution.
	BeneficiaryID string `json:"beneficiary"`     // The account credited for mining this block.
	TransRoot     string `json:"trans_root"`      // Merkle root for the transaction references in this block.
	StateRoot     string `json:"state_root"`      // Execution state root claimed for this block.
}

// TxRef represents an ordered reference to a transaction carried by a block.
// The payload itself lives in the data availability layer.
type TxRef struct {
	ID      string `json:"id"`       // Hash identifying the transaction.
	DataRef string `json:"data_ref"` // Data availability anchor for the payload.
}

// Hash implements the merkle Hashable interface.
func (tx TxRef) Hash() ([]byte, error) {
	return []byte(signature.Hash(tx)), nil
}

// =============================================================================

// Parent identifies the block a new building block extends. The zero value
// denotes no parent and produces the genesis block at height 0.
type Parent struct {
	Hash      string
	Height    uint64
	TimeStamp uint64
}

// ParentOf captures the parent identity from a finalized block.
func ParentOf(blk Finalized) Parent {
	return Parent{
		Hash:      blk.Hash(),
		Height:    blk.Header().Height,
		TimeStamp: blk.Header().TimeStamp,
	}
}

// =============================================================================

// Building represents a block that is accumulating transactions and has no
// proof of work yet. It is the only mutable state.
type Building struct {
	header Header
	txs    []TxRef
	cfg    AdjustConfig
	stats  *MiningStats
}

// NewBuilding constructs a block in the Building state. The mining difficulty
// starts at the configured base and can be replaced by the adaptive engine or
// an explicit override at mining time.
func NewBuilding(beneficiaryID string, parent Parent, txs []TxRef, cfg AdjustConfig, stats *MiningStats) (Building, error) {
	if err := cfg.Validate(); err != nil {
		return Building{}, err
	}

	prevHash := signature.ZeroHash
	var height uint64
	if parent.Hash != "" {
		prevHash = parent.Hash
		height = parent.Height + 1
	}

	transRoot, err := merkle.RootHex(txs)
	if err != nil {
		return Building{}, err
	}

	if stats == nil {
		stats = &MiningStats{}
	}

	b := Building{
		header: Header{
			PrevBlockHash: prevHash,
			Height:        height,
			TimeStamp:     uint64(time.Now().UTC().UnixMilli()),
			Difficulty:    cfg.Base,
			BeneficiaryID: beneficiaryID,
			TransRoot:     transRoot,
		},
		txs:   txs,
		cfg:   cfg,
		stats: stats,
	}

	return b, nil
}

// SetStateRoot records the execution state root this block claims.
func (b *Building) SetStateRoot(root string) {
	b.header.StateRoot = root
}

// Header returns a copy of the block header as captured so far.
func (b Building) Header() Header {
	return b.header
}

// Difficulty returns the difficulty the block will be mined at.
func (b Building) Difficulty() uint {
	return b.header.Difficulty
}

// Config returns the difficulty adjustment configuration bound to the block.
func (b Building) Config() AdjustConfig {
	return b.cfg
}

// Stats returns the mining statistics bound to the block.
func (b Building) Stats() *MiningStats {
	return b.stats
}

// =============================================================================

// Mined represents a block whose proof of work search completed. The block is
// immutable from this state on.
type Mined struct {
	header Header
	txs    []TxRef
	hash   string
}

// Hash returns the hash stored when the proof of work was solved.
func (b Mined) Hash() string {
	return b.hash
}

// Header returns a copy of the block header.
func (b Mined) Header() Header {
	return b.header
}

// Validate checks the block hash re-derives from its fields, the proof of
// work satisfies the stored difficulty, the header commits to the carried
// transaction references, and the parent linkage holds. It is the only
// transition out of the Mined state.
func (b Mined) Validate(parent Parent) (Validated, error) {
	if hash := hashHeader(b.header); hash != b.hash {
		return Validated{}, ErrHashMismatch
	}

	if !isHashSolved(b.header.Difficulty, b.hash) {
		return Validated{}, ErrInvalidProofOfWork
	}

	transRoot, err := merkle.RootHex(b.txs)
	if err != nil {
		return Validated{}, err
	}
	if transRoot != b.header.TransRoot {
		return Validated{}, ErrHashMismatch
	}

	prevHash := signature.ZeroHash
	var wantHeight uint64
	if parent.Hash != "" {
		prevHash = parent.Hash
		wantHeight = parent.Height + 1
	}
	if b.header.PrevBlockHash != prevHash || b.header.Height != wantHeight {
		return Validated{}, ErrBrokenChainLink
	}

	return Validated(b), nil
}

// =============================================================================

// Validated represents a block whose proof of work and linkage checks passed.
type Validated struct {
	header Header
	txs    []TxRef
	hash   string
}

// Hash returns the block hash.
func (b Validated) Hash() string {
	return b.hash
}

// Header returns a copy of the block header.
func (b Validated) Header() Header {
	return b.header
}

// Finalize transitions the block into the Finalized state. This is the only
// view the settlement processor ever observes.
func (b Validated) Finalize() Finalized {
	return Finalized(b)
}

// =============================================================================

// Finalized represents a block accepted into the canonical chain. Ownership
// of this view belongs to the settlement side; the mining side never touches
// a block again once it is finalized.
type Finalized struct {
	header Header
	txs    []TxRef
	hash   string
}

// Hash returns the block hash.
func (b Finalized) Hash() string {
	return b.hash
}

// Header returns a copy of the block header.
func (b Finalized) Header() Header {
	return b.header
}

// Txs returns a copy of the ordered transaction references.
func (b Finalized) Txs() []TxRef {
	txs := make([]TxRef, len(b.txs))
	copy(txs, b.txs)
	return txs
}

// =============================================================================

// Data is the serialized form of a finalized block used by storage and the
// network surface.
type Data struct {
	Hash   string  `json:"hash"`
	Header Header  `json:"header"`
	Trans  []TxRef `json:"trans"`
}

// NewData constructs the value to serialize from a finalized block.
func NewData(blk Finalized) Data {
	return Data{
		Hash:   blk.Hash(),
		Header: blk.Header(),
		Trans:  blk.Txs(),
	}
}

// ToMined reconstitutes a mined block from its serialized form. A block
// proposed over the network re-enters the lifecycle at the Mined state, so
// it has to pass the same Validate transition a locally mined block does.
func ToMined(data Data) Mined {
	return Mined{
		header: data.Header,
		txs:    data.Trans,
		hash:   data.Hash,
	}
}

// ToFinalized reconstitutes a finalized block from its serialized form. The
// hash and proof of work are re-checked so storage corruption cannot smuggle
// an unsolved block back into the chain.
func ToFinalized(data Data) (Finalized, error) {
	if hash := hashHeader(data.Header); hash != data.Hash {
		return Finalized{}, ErrHashMismatch
	}
	if !isHashSolved(data.Header.Difficulty, data.Hash) {
		return Finalized{}, ErrInvalidProofOfWork
	}

	return Finalized{
		header: data.Header,
		txs:    data.Trans,
		hash:   data.Hash,
	}, nil
}

// =============================================================================

// hashHeader returns the unique hash for a block header. Hashing only the
// header keeps the chain cryptographically checkable from headers alone.
func hashHeader(header Header) string {
	return signature.Hash(header)
}

// maxSolvableDifficulty is the number of leading hex zeros the proof of work
// check can match. No hash satisfies a difficulty above it.
const maxSolvableDifficulty = 32

// isHashSolved checks the hash complies with the POW rules. We need to match
// a difficulty number of leading 0's on the hex encoding.
func isHashSolved(difficulty uint, hash string) bool {
	const match = "0x00000000000000000000000000000000"

	if len(hash) != 66 || difficulty > maxSolvableDifficulty {
		return false
	}

	return hash[:2+difficulty] == match[:2+difficulty]
}
