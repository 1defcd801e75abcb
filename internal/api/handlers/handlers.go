// Package handlers implements the read-only HTTP surface over a running
// simulation: quotes, depth, open orders, recent trades and a live trade
// feed.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/openmkt/simex/internal/api/models"
	"github.com/openmkt/simex/internal/sim"
)

// Limits bound what a single request may ask for.
type Limits struct {
	DefaultTradeLimit int
	MaxTradeLimit     int
	MaxBookDepth      int
}

// DefaultLimits are used when the config leaves them zero.
var DefaultLimits = Limits{
	DefaultTradeLimit: 100,
	MaxTradeLimit:     1000,
	MaxBookDepth:      50,
}

// SimHolder bundles the simulation with everything the handlers need.
type SimHolder struct {
	Sim    *sim.Simulation
	Limits Limits
	Log    *zap.Logger
}

// NewSimHolder wires the handlers to a simulation.
func NewSimHolder(s *sim.Simulation, limits Limits, log *zap.Logger) *SimHolder {
	if limits.DefaultTradeLimit <= 0 {
		limits.DefaultTradeLimit = DefaultLimits.DefaultTradeLimit
	}
	if limits.MaxTradeLimit <= 0 {
		limits.MaxTradeLimit = DefaultLimits.MaxTradeLimit
	}
	if limits.MaxBookDepth <= 0 {
		limits.MaxBookDepth = DefaultLimits.MaxBookDepth
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SimHolder{Sim: s, Limits: limits, Log: log}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// HealthHandler reports liveness and the current tick.
func (h *SimHolder) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{
		BaseResponse: models.OK(),
		Status:       "healthy",
		Tick:         h.Sim.Now(),
	})
}

// SecuritiesHandler lists the securities trading so far.
func (h *SimHolder) SecuritiesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.SecuritiesResponse{
		BaseResponse: models.OK(),
		Securities:   h.Sim.Securities(),
	})
}

// QuoteHandler returns the named market's spread.
func (h *SimHolder) QuoteHandler(w http.ResponseWriter, r *http.Request) {
	security := mux.Vars(r)["security"]
	q, ok := h.Sim.Quote(security)
	if !ok {
		writeJSON(w, http.StatusNotFound, models.QuoteResponse{
			BaseResponse: models.Fail(models.ErrSecurityNotFound, "unknown security"),
			Security:     security,
		})
		return
	}
	writeJSON(w, http.StatusOK, models.QuoteResponse{
		BaseResponse: models.OK(),
		Security:     security,
		Bid:          q.Bid,
		Ask:          q.Ask,
		Last:         q.Last,
	})
}

// BookHandler returns a depth snapshot of the named market. The optional
// depth query parameter truncates each side.
func (h *SimHolder) BookHandler(w http.ResponseWriter, r *http.Request) {
	security := mux.Vars(r)["security"]
	bids, asks, ok := h.Sim.Book(security)
	if !ok {
		writeJSON(w, http.StatusNotFound, models.BookResponse{
			BaseResponse: models.Fail(models.ErrSecurityNotFound, "unknown security"),
			Security:     security,
		})
		return
	}

	depth := h.Limits.MaxBookDepth
	if s := r.URL.Query().Get("depth"); s != "" {
		if d, err := strconv.Atoi(s); err == nil && d > 0 && d < depth {
			depth = d
		}
	}
	if len(bids) > depth {
		bids = bids[:depth]
	}
	if len(asks) > depth {
		asks = asks[:depth]
	}

	resp := models.BookResponse{
		BaseResponse: models.OK(),
		Security:     security,
		Bids:         make([]models.OrderDTO, 0, len(bids)),
		Asks:         make([]models.OrderDTO, 0, len(asks)),
	}
	// Owners are withheld from public depth.
	for _, o := range bids {
		resp.Bids = append(resp.Bids, models.NewOrderDTO(o, ""))
	}
	for _, o := range asks {
		resp.Asks = append(resp.Asks, models.NewOrderDTO(o, ""))
	}
	writeJSON(w, http.StatusOK, resp)
}

// OrdersHandler lists a participant's resting orders across all markets.
func (h *SimHolder) OrdersHandler(w http.ResponseWriter, r *http.Request) {
	owner := mux.Vars(r)["owner"]
	open, ok := h.Sim.OpenOrders(owner)
	if !ok {
		writeJSON(w, http.StatusNotFound, models.OrdersResponse{
			BaseResponse: models.Fail(models.ErrOwnerNotFound, "unknown participant"),
			Owner:        owner,
		})
		return
	}

	resp := models.OrdersResponse{
		BaseResponse: models.OK(),
		Owner:        owner,
		Orders:       make([]models.OrderDTO, 0, len(open)),
		Count:        len(open),
	}
	for _, o := range open {
		resp.Orders = append(resp.Orders, models.NewOrderDTO(o, owner))
	}
	writeJSON(w, http.StatusOK, resp)
}

// TradesHandler returns the most recent journaled trades, newest first.
func (h *SimHolder) TradesHandler(w http.ResponseWriter, r *http.Request) {
	limit := h.Limits.DefaultTradeLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		if parsed, err := strconv.Atoi(s); err == nil && parsed > 0 {
			limit = min(parsed, h.Limits.MaxTradeLimit)
		}
	}

	trades, err := h.Sim.RecentTrades(limit)
	if err != nil {
		h.Log.Error("trade journal read failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, models.TradesResponse{
			BaseResponse: models.Fail(models.ErrInternalError, "trade journal unavailable"),
		})
		return
	}

	resp := models.TradesResponse{
		BaseResponse: models.OK(),
		Trades:       make([]models.TradeDTO, 0, len(trades)),
		Count:        len(trades),
	}
	for _, t := range trades {
		resp.Trades = append(resp.Trades, models.NewTradeDTO(t))
	}
	writeJSON(w, http.StatusOK, resp)
}
