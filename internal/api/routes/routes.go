// Package routes assembles the API router and its middleware chain.
package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/openmkt/simex/internal/api/handlers"
	"github.com/openmkt/simex/internal/api/middleware"
)

// Setup builds the router. Middleware order: recovery outermost, then
// CORS, then request logging.
func Setup(h *handlers.SimHolder, log *zap.Logger) http.Handler {
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/health", h.HealthHandler).Methods(http.MethodGet)
	api.HandleFunc("/securities", h.SecuritiesHandler).Methods(http.MethodGet)
	api.HandleFunc("/securities/{security}/quote", h.QuoteHandler).Methods(http.MethodGet)
	api.HandleFunc("/securities/{security}/book", h.BookHandler).Methods(http.MethodGet)
	api.HandleFunc("/participants/{owner}/orders", h.OrdersHandler).Methods(http.MethodGet)
	api.HandleFunc("/trades", h.TradesHandler).Methods(http.MethodGet)
	api.HandleFunc("/feed", h.FeedHandler)

	var handler http.Handler = r
	handler = middleware.Logging(log)(handler)
	handler = middleware.CORS(handler)
	handler = middleware.Recovery(log)(handler)
	return handler
}
