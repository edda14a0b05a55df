// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/meridianchain/meridian/app/services/node/handlers/v1/private"
	"github.com/meridianchain/meridian/app/services/node/handlers/v1/public"
	"github.com/meridianchain/meridian/foundation/blockchain/state"
	"github.com/meridianchain/meridian/foundation/events"
	"github.com/meridianchain/meridian/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	Evts  *events.Events
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/events", pbl.Events)
	app.Handle(http.MethodGet, version, "/genesis/list", pbl.Genesis)
	app.Handle(http.MethodGet, version, "/node/status", pbl.Status)
	app.Handle(http.MethodGet, version, "/chain/list", pbl.Chain)
	app.Handle(http.MethodGet, version, "/blocks/list/:from/:to", pbl.BlocksByHeight)
	app.Handle(http.MethodGet, version, "/batches/list", pbl.Batches)
	app.Handle(http.MethodGet, version, "/batches/:id", pbl.BatchByID)
	app.Handle(http.MethodGet, version, "/batches/:id/evidence", pbl.BatchEvidence)
	app.Handle(http.MethodGet, version, "/settlement/history", pbl.SettlementHistory)
	app.Handle(http.MethodGet, version, "/validators/list", pbl.Validators)
}

// PrivateRoutes binds all the version 1 private routes.
func PrivateRoutes(app *web.App, cfg Config) {
	prv := private.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
	}

	app.Handle(http.MethodPost, version, "/node/tx/add", prv.SubmitTxRef)
	app.Handle(http.MethodGet, version, "/node/mining/signal", prv.SignalMining)
	app.Handle(http.MethodPost, version, "/node/block/propose", prv.ProposeBlock)
	app.Handle(http.MethodPost, version, "/node/block/validate", prv.ValidateBlock)
	app.Handle(http.MethodPost, version, "/node/challenge", prv.SubmitChallenge)
	app.Handle(http.MethodPost, version, "/node/validator/register", prv.RegisterValidator)
	app.Handle(http.MethodPost, version, "/node/validator/deposit", prv.DepositStake)
}
