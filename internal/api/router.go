package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lightech/balance-beam/internal/services/engine"
)

// NewRouter registers all API endpoints. The account id in the path
// stands in for the authenticated identity normally supplied by the
// user-management layer.
func NewRouter(svc *engine.Engine) http.Handler {
	h := NewHandler(svc)
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/account/{accountId}/balance", h.CheckBalanceHandler)
	r.Get("/account/{accountId}/balance/major", h.CheckBalanceMajorHandler)
	r.Get("/account/{accountId}/operations", h.RecentHistoryHandler)
	r.Post("/account/{accountId}/credit", h.CreditHandler)
	r.Post("/account/{accountId}/transfer", h.TransferHandler)

	return r
}
