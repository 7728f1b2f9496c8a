// Package private maintains the group of handlers for operator access.
package private

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ardanlabs/ledger/business/web/errs"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/ledger"
	"github.com/ardanlabs/ledger/foundation/blockchain/strategy/pow"
	"github.com/ardanlabs/ledger/foundation/blockchain/worker"
	"github.com/ardanlabs/ledger/foundation/nameservice"
	"github.com/ardanlabs/ledger/foundation/web"
	"go.uber.org/zap"
)

// registry represents a strategy that keeps validators.
type registry interface {
	AddValidator(v database.Validator) error
	Validators() []database.Validator
}

// Handlers manages the set of operator endpoints.
type Handlers struct {
	Log         *zap.SugaredLogger
	Ledger      *ledger.Ledger
	Worker      *worker.Worker
	NS          *nameservice.NameService
	Beneficiary string
}

// Status returns the current status of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	latest := h.Ledger.LatestBlock()

	status := nodeStatus{
		Consensus:       h.Ledger.Strategy().Name(),
		Length:          h.Ledger.Length(),
		LatestBlockHash: latest.Hash(),
		Valid:           h.Ledger.IsChainValid(),
		Beneficiary:     h.NS.Lookup(h.Beneficiary),
	}

	if p, ok := h.Ledger.Strategy().(*pow.POW); ok {
		status.Difficulty = p.Difficulty()
	}

	if reg, ok := h.Ledger.Strategy().(registry); ok {
		status.Validators = len(reg.Validators())
	}

	return web.Respond(ctx, w, status, http.StatusOK)
}

// SignalMining asks the worker to produce a block in the background.
func (h Handlers) SignalMining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if h.Worker == nil {
		return errs.NewTrusted(fmt.Errorf("%w: no worker running", ledger.ErrNotSupported), http.StatusBadRequest)
	}

	h.Worker.SignalStartMining()

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "mining signaled",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Mine commits a reward block sealed by proof of work. The search is bound
// to the request so a client that goes away cancels it.
func (h Handlers) Mine(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	if _, ok := h.Ledger.Strategy().(*pow.POW); !ok {
		return errs.NewTrusted(fmt.Errorf("%w: mine with %s", ledger.ErrNotSupported, h.Ledger.Strategy().Name()), http.StatusBadRequest)
	}

	var req mineRequest
	if r.ContentLength != 0 {
		if err := web.Decode(r, &req); err != nil {
			return fmt.Errorf("unable to decode payload: %w", err)
		}
	}

	if req.Beneficiary == "" {
		req.Beneficiary = h.Beneficiary
	}

	h.Log.Infow("mine", "traceid", v.TraceID, "beneficiary", req.Beneficiary, "nonce", req.Nonce)

	blk, err := h.Ledger.MineReward(ctx, req.Beneficiary, req.Nonce)
	if err != nil {
		return errs.FromLedger(err)
	}

	return h.respondBlock(ctx, w, blk)
}

// Forge commits a reward block for a validator selected by stake.
func (h Handlers) Forge(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	blk, err := h.Ledger.Forge(ctx)
	if err != nil {
		return errs.FromLedger(err)
	}

	return h.respondBlock(ctx, w, blk)
}

// AddValidator registers a validator with a proof of stake ledger.
func (h Handlers) AddValidator(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	reg, ok := h.Ledger.Strategy().(registry)
	if !ok {
		return errs.NewTrusted(fmt.Errorf("%w: %s has no validators", ledger.ErrNotSupported, h.Ledger.Strategy().Name()), http.StatusBadRequest)
	}

	var nv newValidator
	if err := web.Decode(r, &nv); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	v, err := database.NewValidator(nv.ID, nv.Stake)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := reg.AddValidator(v); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	return web.Respond(ctx, w, reg.Validators(), http.StatusCreated)
}

func (h Handlers) respondBlock(ctx context.Context, w http.ResponseWriter, blk database.Block) error {
	bd, err := h.Ledger.QueryBlockByHash(blk.Hash())
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, bd, http.StatusCreated)
}
