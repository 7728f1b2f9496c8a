package mid

import (
	"context"
	"expvar"
	"net/http"
	"runtime"

	"github.com/ardanlabs/ledger/foundation/web"
)

// This holds the single instance of the metrics value needed for
// collecting metrics. The expvar package is already based on a singleton
// for the different metrics that are registered with the package so there
// isn't much choice here.
var m = struct {
	gr  *expvar.Int
	req *expvar.Int
	err *expvar.Int
	pan *expvar.Int
}{
	gr:  expvar.NewInt("goroutines"),
	req: expvar.NewInt("requests"),
	err: expvar.NewInt("errors"),
	pan: expvar.NewInt("panics"),
}

// Metrics updates program counters.
func Metrics() web.Middleware {

	// This is the actual middleware function to be executed.
	m := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			// Call the next handler.
			err := handler(ctx, w, r)

			// Increment the request and goroutines counter.
			n := addRequest()

			// Update the count for the number of active goroutines every 100 requests.
			if n%100 == 0 {
				setGoroutines(int64(runtime.NumGoroutine()))
			}

			// Increment if there is an error flowing through the request.
			if err != nil {
				addError()
			}

			// Return the error so it can be handled further up the chain.
			return err
		}

		return h
	}

	return m
}

func addRequest() int64 {
	m.req.Add(1)
	return m.req.Value()
}

func addError() {
	m.err.Add(1)
}

func addPanic() {
	m.pan.Add(1)
}

func setGoroutines(n int64) {
	m.gr.Set(n)
}
