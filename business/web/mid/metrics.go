package mid

import (
	"context"
	"net/http"
	"time"

	"github.com/meridianchain/meridian/business/web/metrics"
	"github.com/meridianchain/meridian/foundation/web"
)

// Metrics updates the request counters and latency histograms for every
// request moving through the call chain.
func Metrics() web.Middleware {

	// This is the actual middleware function to be executed.
	m := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			now := time.Now()

			err := handler(ctx, w, r)

			metrics.ObserveRequest(r.Method, time.Since(now))
			if err != nil {
				metrics.AddError()
			}

			// Return the error so it can be handled further up the chain.
			return err
		}

		return h
	}

	return m
}
