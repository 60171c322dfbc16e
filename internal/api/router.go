// Package api serves the reservation and billing operations over HTTP/JSON.
package api

import (
	"context"
	"net/http"

	"aerodrome/internal/metrics"
	"aerodrome/internal/operations"

	"github.com/gorilla/mux"
)

// Pinger reports whether the backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options carries the optional collaborators of the router
type Options struct {
	Metrics *metrics.Metrics
	Limiter *RateLimiter
}

type handler struct {
	svc    *operations.Service
	pinger Pinger
}

// NewRouter builds the HTTP routes
func NewRouter(svc *operations.Service, pinger Pinger, opts Options) *mux.Router {
	h := &handler{svc: svc, pinger: pinger}

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeErrorMessage(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Use(requestIDMiddleware)
	if opts.Metrics != nil {
		r.Use(opts.Metrics.InstrumentHandler)
		r.Handle("/metrics", opts.Metrics.Handler()).Methods(http.MethodGet)
	}
	r.HandleFunc("/healthz", h.healthz).Methods(http.MethodGet)

	api := r.NewRoute().Subrouter()
	if opts.Limiter != nil {
		api.Use(opts.Limiter.Handler)
	}

	api.HandleFunc("/pilots", h.createPilot).Methods(http.MethodPost)
	api.HandleFunc("/agents", h.createAgent).Methods(http.MethodPost)
	api.HandleFunc("/aircraft", h.createAircraft).Methods(http.MethodPost)
	api.HandleFunc("/parking-slots", h.listParkingSlots).Methods(http.MethodGet)
	api.HandleFunc("/hangars", h.listHangars).Methods(http.MethodGet)
	api.HandleFunc("/fuel-types", h.listFuelTypes).Methods(http.MethodGet)

	api.HandleFunc("/reservations", h.createReservation).Methods(http.MethodPost)
	api.HandleFunc("/reservations", h.listReservations).Methods(http.MethodGet)
	api.HandleFunc("/reservations/{id:[0-9]+}", h.getReservation).Methods(http.MethodGet)
	api.HandleFunc("/reservations/{id:[0-9]+}/state", h.setState).Methods(http.MethodPut)
	api.HandleFunc("/reservations/{id:[0-9]+}/fuel", h.attachFuel).Methods(http.MethodPost)
	api.HandleFunc("/reservations/{id:[0-9]+}/fuel", h.upsertFuel).Methods(http.MethodPut)
	api.HandleFunc("/reservations/{id:[0-9]+}/fuel", h.getFuel).Methods(http.MethodGet)
	api.HandleFunc("/reservations/{id:[0-9]+}/hangar", h.attachHangar).Methods(http.MethodPost)
	api.HandleFunc("/reservations/{id:[0-9]+}/hangar", h.upsertHangar).Methods(http.MethodPut)
	api.HandleFunc("/reservations/{id:[0-9]+}/hangar", h.getHangar).Methods(http.MethodGet)
	api.HandleFunc("/reservations/{id:[0-9]+}/invoice", h.generateInvoice).Methods(http.MethodPost)
	api.HandleFunc("/reservations/{id:[0-9]+}/invoice", h.getInvoice).Methods(http.MethodGet)

	return r
}

func (h *handler) healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.pinger.Ping(r.Context()); err != nil {
		writeErrorMessage(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
