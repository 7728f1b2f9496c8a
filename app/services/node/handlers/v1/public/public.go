// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/ardanlabs/ledger/business/web/errs"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/ledger"
	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
	"github.com/ardanlabs/ledger/foundation/events"
	"github.com/ardanlabs/ledger/foundation/nameservice"
	"github.com/ardanlabs/ledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log    *zap.SugaredLogger
	Ledger *ledger.Ledger
	NS     *nameservice.NameService
	WS     websocket.Upgrader
	Evts   *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	// Need this to handle CORS on the websocket.
	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	// This upgrades the HTTP connection to a websocket connection.
	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	// This provides a channel for receiving events from the ledger.
	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	// This starts a ticker to send a ping so the connection stays open.
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:

			// If the channel is closed, release the websocket.
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

// SubmitTransaction authenticates a signed transaction and commits it to
// the ledger.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var stx SubmitTx
	if err := web.Decode(r, &stx); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	sig, err := signature.ToSignatureBytes(stx.Signature)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("submit tran", "traceid", v.TraceID, "payer", stx.Tx.Payer, "payee", stx.Tx.Payee, "amount", stx.Tx.Amount)

	blk, err := h.Ledger.Submit(ctx, stx.Tx, stx.PublicKey, sig)
	if err != nil {
		return errs.FromLedger(err)
	}

	bd, err := h.Ledger.QueryBlockByHash(blk.Hash())
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, bd, http.StatusCreated)
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.Ledger.Genesis(), http.StatusOK)
}

// Balances returns the current balances for all identities or the one
// named in the path.
func (h Handlers) Balances(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	sheet := h.Ledger.QueryBalances(web.Param(r, "identity"))

	bals := make([]balance, 0, len(sheet))
	for identity, value := range sheet {
		bals = append(bals, balance{
			Identity: identity,
			Name:     h.NS.Lookup(identity),
			Balance:  value,
		})
	}
	sort.Slice(bals, func(i, j int) bool { return bals[i].Identity < bals[j].Identity })

	resp := balances{
		LatestBlock: h.Ledger.LatestBlock().Hash(),
		Length:      h.Ledger.Length(),
		Balances:    bals,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// BlocksByIdentity returns the blocks involving the identity in the path or
// every block when none is provided.
func (h Handlers) BlocksByIdentity(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	dbBlocks := h.Ledger.QueryBlocks(web.Param(r, "identity"))
	if len(dbBlocks) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	blocks := make([]block, len(dbBlocks))
	for i, bd := range dbBlocks {
		blocks[i] = toBlock(h.NS, bd)
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// ValidateChain reports whether the chain is intact and where it is broken
// if it is not.
func (h Handlers) ValidateChain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := chainStatus{
		Valid:  true,
		Length: h.Ledger.Length(),
	}

	if err := h.Ledger.Validate(); err != nil {
		resp.Valid = false
		resp.Error = err.Error()

		var ie *ledger.IntegrityError
		if errors.As(err, &ie) {
			resp.Number = ie.Number
		}
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Validators returns the validator registry of a proof of stake ledger.
func (h Handlers) Validators(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	reg, ok := h.Ledger.Strategy().(interface{ Validators() []database.Validator })
	if !ok {
		return errs.NewTrusted(fmt.Errorf("%w: %s has no validators", ledger.ErrNotSupported, h.Ledger.Strategy().Name()), http.StatusBadRequest)
	}

	return web.Respond(ctx, w, reg.Validators(), http.StatusOK)
}
