// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/meridianchain/meridian/business/web/errs"
	"github.com/meridianchain/meridian/foundation/blockchain/block"
	"github.com/meridianchain/meridian/foundation/blockchain/settlement"
	"github.com/meridianchain/meridian/foundation/blockchain/state"
	"github.com/meridianchain/meridian/foundation/events"
	"github.com/meridianchain/meridian/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of public node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.Genesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// Status returns the current node status.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := status{
		SettlementRoot: h.State.SettlementRoot(),
		PoolCount:      h.State.PoolCount(),
		Stats:          h.State.Stats(),
	}

	if latest, ok := h.State.LatestBlock(); ok {
		height := latest.Header().Height
		resp.Height = &height
		resp.LatestBlockHash = latest.Hash()
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Chain returns the ordered hashes of the canonical chain.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := struct {
		Hashes []string `json:"hashes"`
	}{
		Hashes: h.State.ChainHashes(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// BlocksByHeight returns the blocks for the specified height range. The
// special value "latest" pins a bound to the chain tip.
func (h Handlers) BlocksByHeight(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	from, err := parseHeight(web.Param(r, "from"))
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}
	to, err := parseHeight(web.Param(r, "to"))
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	blocks := h.State.QueryBlocksByHeight(from, to)

	out := make([]block.Data, len(blocks))
	for i, blk := range blocks {
		out[i] = block.NewData(blk)
	}

	return web.Respond(ctx, w, out, http.StatusOK)
}

// Batches returns every tracked settlement batch.
func (h Handlers) Batches(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.Batches(), http.StatusOK)
}

// BatchByID returns one settlement batch.
func (h Handlers) BatchByID(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	id, err := strconv.ParseUint(web.Param(r, "id"), 10, 64)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	batch, err := h.State.Batch(id)
	if err != nil {
		return errs.NewTrusted(err, http.StatusNotFound)
	}

	return web.Respond(ctx, w, batch, http.StatusOK)
}

// BatchEvidence returns the published evidence blob for one batch.
func (h Handlers) BatchEvidence(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	id, err := strconv.ParseUint(web.Param(r, "id"), 10, 64)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	evidence, err := h.State.BatchEvidence(id)
	if err != nil {
		return errs.NewTrusted(err, http.StatusNotFound)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(evidence); err != nil {
		return err
	}
	if err := web.SetStatusCode(ctx, http.StatusOK); err != nil {
		return err
	}

	return nil
}

// SettlementHistory returns every fraud proof resolution.
func (h Handlers) SettlementHistory(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := struct {
		Root    string              `json:"settlement_root"`
		History []settlement.Result `json:"history"`
	}{
		Root:    h.State.SettlementRoot(),
		History: h.State.SettlementHistory(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Validators returns every registered validator stake and the slash audit
// trail.
func (h Handlers) Validators(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := validators{
		Stakes:  h.State.Validators(),
		Slashes: h.State.Slashes(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// parseHeight converts a height route parameter, honoring "latest".
func parseHeight(param string) (uint64, error) {
	if param == "latest" {
		return state.QueryLatest, nil
	}

	return strconv.ParseUint(param, 10, 64)
}
