package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"closet-rental-backend/internal/security"
	"closet-rental-backend/internal/service"
)

// PingFunc checks one backing dependency for the health endpoint.
type PingFunc func(ctx context.Context) error

type healthStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func healthHandler(checks map[string]PingFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := healthStatus{Status: "ok", Checks: make(map[string]string, len(checks))}
		for name, ping := range checks {
			if err := ping(ctx); err != nil {
				status.Status = "error"
				status.Checks[name] = "failed: " + err.Error()
				continue
			}
			status.Checks[name] = "ok"
		}

		if status.Status != "ok" {
			writeJSON(w, http.StatusServiceUnavailable, Response{Data: status})
			return
		}
		respondOK(w, status)
	}
}

// NewRouter wires every route. Route names key the security levels in
// config.EndpointSecurityConfig.
func NewRouter(svc service.RentalService, tm security.TokenManager, checks map[string]PingFunc) *mux.Router {
	h := NewRentalHandler(svc)
	auth := NewAuthMiddleware(tm)

	r := mux.NewRouter()
	r.Use(LoggingMiddleware, auth.Middleware)

	r.HandleFunc("/health", healthHandler(checks)).Methods(http.MethodGet).Name("health")

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/statuses", h.Statuses).Methods(http.MethodGet).Name("statuses")
	api.HandleFunc("/pricing/quote", h.Quote).Methods(http.MethodPost).Name("pricing.quote")

	api.HandleFunc("/rentals", h.CreateRental).Methods(http.MethodPost).Name("rentals.create")
	api.HandleFunc("/rentals", h.ListRentals).Methods(http.MethodGet).Name("rentals.list")
	api.HandleFunc("/rentals/{id}", h.GetRental).Methods(http.MethodGet).Name("rentals.get")
	api.HandleFunc("/rentals/{id}/status", h.UpdateStatus).Methods(http.MethodPost).Name("rentals.status")
	api.HandleFunc("/rentals/{id}/delivery-qc", h.SubmitDeliveryQC).Methods(http.MethodPost).Name("rentals.delivery_qc")
	api.HandleFunc("/rentals/{id}/return-qc", h.SubmitReturnQC).Methods(http.MethodPost).Name("rentals.return_qc")
	api.HandleFunc("/rentals/{id}/issues", h.ReportIssue).Methods(http.MethodPost).Name("rentals.issues")
	api.HandleFunc("/rentals/{id}/resolution", h.ResolveIssue).Methods(http.MethodPost).Name("rentals.resolution")
	api.HandleFunc("/rentals/{id}/annotations", h.Annotate).Methods(http.MethodPost).Name("rentals.annotations")

	api.HandleFunc("/closets/{curatorId}/stats", h.ClosetStats).Methods(http.MethodGet).Name("closets.stats")

	return r
}
