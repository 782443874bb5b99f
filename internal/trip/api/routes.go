package api

import (
	"net/http"

	"fleettrack/internal/shared/jwt"
)

func (h *Handler) RegisterRoutes(mux *http.ServeMux, tokens *jwt.Manager) {
	protected := func(handler http.HandlerFunc) http.Handler {
		return AuthMiddleware(tokens, handler)
	}

	mux.Handle("POST /trips", protected(h.CreateTripHandler))
	mux.Handle("GET /trips/{id}", protected(h.GetTripHandler))
	mux.Handle("PUT /trips/{id}", protected(h.UpdateTripHandler))
	mux.Handle("PUT /trips/{id}/assign-driver", protected(h.AssignDriverHandler))
	mux.Handle("PUT /trips/{id}/assign-vehicle", protected(h.AssignVehicleHandler))
	mux.Handle("POST /trips/{id}/start", protected(h.StartTripHandler))
	mux.Handle("POST /trips/{id}/end", protected(h.EndTripHandler))
	mux.Handle("POST /trips/{id}/cancel", protected(h.CancelTripHandler))
	mux.Handle("GET /trips/{id}/stats", protected(h.TripStatsHandler))
	mux.Handle("PUT /channels/{id}/assign-trip", protected(h.AssignChannelTripHandler))
}
