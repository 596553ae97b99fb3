package controller

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/duality-labs/dex-indexer/app/types"
)

type Controller struct {
	App *types.App

	// Wait windows for the live modes. Tests shorten them.
	longPoll  time.Duration
	heartbeat time.Duration
}

// NewController returns a new controller.
func NewController(app *types.App) *Controller {
	return &Controller{
		App:       app,
		longPoll:  longPollTimeout,
		heartbeat: sseHeartbeat,
	}
}

// NewRouter returns a new router with all the routes defined in this file.
func (c *Controller) NewRouter() (*mux.Router, error) {
	r := mux.NewRouter()

	r.Handle("/health", http.HandlerFunc(c.HandleHealth)).Methods("GET")
	r.HandleFunc("/height", c.HandleHeight).Methods("GET")
	r.HandleFunc("/sse/height", c.HandleHeightSSE).Methods("GET")
	r.HandleFunc("/ws", c.HandleWebSocket).Methods("GET")

	r.HandleFunc("/tokens", c.HandleTokens).Methods("GET")
	r.HandleFunc("/pairs", c.HandlePairs).Methods("GET")
	r.HandleFunc("/txs", c.HandleTransactions).Methods("GET")

	r.HandleFunc("/liquidity/pair/{tokenA}/{tokenB}", c.HandlePairLiquidity).Methods("GET")

	r.HandleFunc("/timeseries/price/{tokenA}/{tokenB}", c.HandlePriceTimeseries).Methods("GET")
	r.HandleFunc("/timeseries/price/{tokenA}/{tokenB}/{resolution}", c.HandlePriceTimeseries).Methods("GET")
	r.HandleFunc("/timeseries/volume/{tokenA}/{tokenB}", c.HandleVolumeTimeseries).Methods("GET")
	r.HandleFunc("/timeseries/volume/{tokenA}/{tokenB}/{resolution}", c.HandleVolumeTimeseries).Methods("GET")
	r.HandleFunc("/timeseries/liquidity/{tokenA}/{tokenB}", c.HandleLiquidityTimeseries).Methods("GET")
	r.HandleFunc("/timeseries/liquidity/{tokenA}/{tokenB}/{resolution}", c.HandleLiquidityTimeseries).Methods("GET")

	r.HandleFunc("/stats/volume/{tokenA}/{tokenB}", c.HandleVolumeStats).Methods("GET")

	return r, nil
}

// WithCORS wraps a handler with permissive CORS headers.
func WithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		} else {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", http.MethodGet+", "+http.MethodOptions)

		// Fast-path the preflight
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
