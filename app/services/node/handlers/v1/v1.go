// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/ardanlabs/ledger/app/services/node/handlers/v1/private"
	"github.com/ardanlabs/ledger/app/services/node/handlers/v1/public"
	"github.com/ardanlabs/ledger/foundation/blockchain/ledger"
	"github.com/ardanlabs/ledger/foundation/blockchain/worker"
	"github.com/ardanlabs/ledger/foundation/events"
	"github.com/ardanlabs/ledger/foundation/nameservice"
	"github.com/ardanlabs/ledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log         *zap.SugaredLogger
	Ledger      *ledger.Ledger
	Worker      *worker.Worker
	NS          *nameservice.NameService
	Evts        *events.Events
	Beneficiary string
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:    cfg.Log,
		Ledger: cfg.Ledger,
		NS:     cfg.NS,
		WS:     websocket.Upgrader{},
		Evts:   cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/events", pbl.Events)
	app.Handle(http.MethodGet, version, "/genesis/list", pbl.Genesis)
	app.Handle(http.MethodGet, version, "/balances/list", pbl.Balances)
	app.Handle(http.MethodGet, version, "/balances/list/:identity", pbl.Balances)
	app.Handle(http.MethodGet, version, "/blocks/list", pbl.BlocksByIdentity)
	app.Handle(http.MethodGet, version, "/blocks/list/:identity", pbl.BlocksByIdentity)
	app.Handle(http.MethodGet, version, "/chain/validate", pbl.ValidateChain)
	app.Handle(http.MethodGet, version, "/validators/list", pbl.Validators)
	app.Handle(http.MethodPost, version, "/tx/submit", pbl.SubmitTransaction)
}

// PrivateRoutes binds all the version 1 private routes.
func PrivateRoutes(app *web.App, cfg Config) {
	prv := private.Handlers{
		Log:         cfg.Log,
		Ledger:      cfg.Ledger,
		Worker:      cfg.Worker,
		NS:          cfg.NS,
		Beneficiary: cfg.Beneficiary,
	}

	app.Handle(http.MethodGet, version, "/node/status", prv.Status)
	app.Handle(http.MethodGet, version, "/node/mining/signal", prv.SignalMining)
	app.Handle(http.MethodPost, version, "/node/mine", prv.Mine)
	app.Handle(http.MethodPost, version, "/node/forge", prv.Forge)
	app.Handle(http.MethodPost, version, "/node/validators/add", prv.AddValidator)
}
