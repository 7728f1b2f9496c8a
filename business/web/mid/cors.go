package mid

import (
	"context"
	"net/http"
	"strings"

	"github.com/ardanlabs/ledger/foundation/web"
)

// corsMethods are the methods the node API answers to.
var corsMethods = strings.Join([]string{http.MethodGet, http.MethodPost, http.MethodOptions}, ", ")

// corsHeaders are the request headers a browser wallet may send.
var corsHeaders = strings.Join([]string{"Origin", "Accept", "Content-Type", "Content-Length", "Accept-Encoding"}, ", ")

// Cors lets browser wallets served from origin call the node. A preflight
// request is answered here with no content and never reaches the handler.
func Cors(origin string) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			hdr := w.Header()
			hdr.Set("Access-Control-Allow-Origin", origin)
			hdr.Set("Access-Control-Allow-Methods", corsMethods)
			hdr.Set("Access-Control-Allow-Headers", corsHeaders)
			if origin != "*" {
				hdr.Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				return web.Respond(ctx, w, nil, http.StatusNoContent)
			}

			return handler(ctx, w, r)
		}

		return h
	}

	return m
}
