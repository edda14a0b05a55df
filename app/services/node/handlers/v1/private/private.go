// Package private maintains the group of handlers for node administration
// and node to node access.
package private

import (
	"context"
	"errors"
	"math/big"
	"net/http"

	"github.com/meridianchain/meridian/business/web/errs"
	"github.com/meridianchain/meridian/foundation/blockchain/block"
	"github.com/meridianchain/meridian/foundation/blockchain/execution"
	"github.com/meridianchain/meridian/foundation/blockchain/settlement"
	"github.com/meridianchain/meridian/foundation/blockchain/signature"
	"github.com/meridianchain/meridian/foundation/blockchain/state"
	"github.com/meridianchain/meridian/foundation/validate"
	"github.com/meridianchain/meridian/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of private node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
}

// SubmitTxRef adds a new transaction reference to the pool.
func (h Handlers) SubmitTxRef(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var tx newTxRef
	if err := web.Decode(r, &tx); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("add tx ref", "traceid", v.TraceID, "id", tx.ID, "dataref", tx.DataRef)
	h.State.UpsertTxRef(block.TxRef{ID: tx.ID, DataRef: tx.DataRef})

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "transaction reference added to pool",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SignalMining signals a mining operation to start.
func (h Handlers) SignalMining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	h.State.Worker.SignalStartMining()

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "mining signaled",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// ProposeBlock takes a block received from a peer, validates it and if that
// passes, adds the block to the canonical chain.
func (h Handlers) ProposeBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var data block.Data
	if err := web.Decode(r, &data); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := h.State.ProcessProposedBlock(data); err != nil {
		if errors.Is(err, state.ErrHeightAlreadyFinalized) {
			return errs.NewTrusted(err, http.StatusConflict)
		}
		return errs.NewTrusted(errors.New("block not accepted"), http.StatusNotAcceptable)
	}

	resp := struct {
		Status string `json:"status"`
		Hash   string `json:"hash"`
	}{
		Status: "block accepted",
		Hash:   data.Hash,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// ValidateBlock runs the full block validation against the current chain
// tip without committing anything.
func (h Handlers) ValidateBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var data block.Data
	if err := web.Decode(r, &data); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := h.State.ValidateCandidateBlock(data); err != nil {
		return errs.NewTrusted(err, http.StatusNotAcceptable)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "block is valid against the current tip",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SubmitChallenge resolves a signed fraud proof against an open batch. The
// challenger address is recovered from the signature, so a proof cannot be
// submitted on someone else's stake.
func (h Handlers) SubmitChallenge(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var sc submitChallenge
	if err := web.Decode(r, &sc); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	challenger, err := sc.challengerAddress()
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	proof := settlement.FraudProof{
		BatchID:      sc.BatchID,
		Challenger:   challenger,
		DisputedTxID: sc.DisputedTxID,
		Receipts:     sc.Receipts,
		EvidenceRef:  sc.EvidenceRef,
	}

	h.Log.Infow("submit challenge", "traceid", v.TraceID, "batch", proof.BatchID, "challenger", challenger)

	res, err := h.State.SubmitChallenge(proof)
	switch {
	case errors.Is(err, settlement.ErrUnknownBatch):
		return errs.NewTrusted(err, http.StatusNotFound)
	case errors.Is(err, settlement.ErrBatchNotOpen):
		return errs.NewTrusted(err, http.StatusConflict)
	case errors.Is(err, settlement.ErrInsufficientStake):
		return errs.NewTrusted(err, http.StatusForbidden)
	case err != nil:
		return err
	}

	return web.Respond(ctx, w, res, http.StatusOK)
}

// RegisterValidator registers an address with an initial stake deposit.
func (h Handlers) RegisterValidator(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var reg registerValidator
	if err := web.Decode(r, &reg); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.State.RegisterValidator(reg.Address, reg.Deposit)

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "validator registered",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// DepositStake adds stake to a registered validator.
func (h Handlers) DepositStake(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var dep depositStake
	if err := web.Decode(r, &dep); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := h.State.DepositStake(dep.Address, dep.Amount); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "stake deposited",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// =============================================================================

// newTxRef is the request model for adding a transaction reference.
type newTxRef struct {
	ID      string `json:"id" validate:"required"`
	DataRef string `json:"data_ref" validate:"required"`
}

// Validate checks the data in the model is considered clean.
func (t newTxRef) Validate() error {
	return validate.Check(t)
}

// registerValidator is the request model for validator registration.
type registerValidator struct {
	Address string `json:"address" validate:"required"`
	Deposit uint64 `json:"deposit"`
}

// Validate checks the data in the model is considered clean.
func (rv registerValidator) Validate() error {
	return validate.Check(rv)
}

// depositStake is the request model for adding stake.
type depositStake struct {
	Address string `json:"address" validate:"required"`
	Amount  uint64 `json:"amount" validate:"required"`
}

// Validate checks the data in the model is considered clean.
func (ds depositStake) Validate() error {
	return validate.Check(ds)
}

// submitChallenge is the request model for a signed fraud proof.
type submitChallenge struct {
	BatchID      uint64              `json:"batch_id" validate:"required"`
	DisputedTxID string              `json:"disputed_tx_id" validate:"required"`
	Receipts     []execution.Receipt `json:"receipts"`
	EvidenceRef  string              `json:"evidence_ref"`
	V            *big.Int            `json:"v" validate:"required"`
	R            *big.Int            `json:"r" validate:"required"`
	S            *big.Int            `json:"s" validate:"required"`
}

// Validate checks the data in the model is considered clean.
func (sc submitChallenge) Validate() error {
	return validate.Check(sc)
}

// challengerAddress recovers the challenger from the proof signature.
func (sc submitChallenge) challengerAddress() (string, error) {
	if err := signature.VerifySignature(sc.V, sc.R, sc.S); err != nil {
		return "", err
	}

	return signature.FromAddress(sc.signedPayload(), sc.V, sc.R, sc.S)
}

// signedPayload is the exact value a challenger signs when building the
// request.
func (sc submitChallenge) signedPayload() challengePayload {
	return challengePayload{
		BatchID:      sc.BatchID,
		DisputedTxID: sc.DisputedTxID,
		EvidenceRef:  sc.EvidenceRef,
	}
}

// challengePayload is the signed portion of a challenge submission.
type challengePayload struct {
	BatchID      uint64 `json:"batch_id"`
	DisputedTxID string `json:"disputed_tx_id"`
	EvidenceRef  string `json:"evidence_ref"`
}
