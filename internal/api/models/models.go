// Package models defines the API's response shapes.
package models

import (
	"time"

	"github.com/openmkt/simex/internal/exchange"
	"github.com/openmkt/simex/internal/storage"
)

// ErrorCode classifies API errors.
type ErrorCode string

const (
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST"
	ErrSecurityNotFound ErrorCode = "SECURITY_NOT_FOUND"
	ErrOwnerNotFound    ErrorCode = "OWNER_NOT_FOUND"
	ErrInternalError    ErrorCode = "INTERNAL_ERROR"
)

// APIError is a structured error payload.
type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// BaseResponse is the envelope shared by every response.
type BaseResponse struct {
	Success   bool      `json:"success"`
	Timestamp time.Time `json:"timestamp"`
	Error     *APIError `json:"error,omitempty"`
}

// OK returns a successful envelope stamped now.
func OK() BaseResponse {
	return BaseResponse{Success: true, Timestamp: time.Now().UTC()}
}

// Fail returns a failed envelope carrying the error.
func Fail(code ErrorCode, message string) BaseResponse {
	return BaseResponse{
		Success:   false,
		Timestamp: time.Now().UTC(),
		Error:     &APIError{Code: code, Message: message},
	}
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	BaseResponse
	Status string `json:"status"`
	Tick   int64  `json:"tick"`
}

// SecuritiesResponse lists the securities trading.
type SecuritiesResponse struct {
	BaseResponse
	Securities []string `json:"securities"`
}

// QuoteResponse carries one market's spread. Zero bid or ask means no
// resting limit order on that side.
type QuoteResponse struct {
	BaseResponse
	Security string  `json:"security"`
	Bid      float64 `json:"bid"`
	Ask      float64 `json:"ask"`
	Last     float64 `json:"last"`
}

// OrderDTO is a resting order in API responses. Market-price orders carry
// a null price.
type OrderDTO struct {
	Security string   `json:"security"`
	Price    *float64 `json:"price"`
	Time     int64    `json:"time"`
	Quantity int64    `json:"quantity"`
	Owner    string   `json:"owner,omitempty"`
}

// BookResponse is a depth snapshot, best orders first on both sides.
type BookResponse struct {
	BaseResponse
	Security string     `json:"security"`
	Bids     []OrderDTO `json:"bids"`
	Asks     []OrderDTO `json:"asks"`
}

// OrdersResponse lists a participant's open orders.
type OrdersResponse struct {
	BaseResponse
	Owner  string     `json:"owner"`
	Orders []OrderDTO `json:"orders"`
	Count  int        `json:"count"`
}

// TradeDTO is a journaled trade in API responses.
type TradeDTO struct {
	Security string    `json:"security"`
	Price    float64   `json:"price"`
	Time     int64     `json:"time"`
	Quantity int64     `json:"quantity"`
	Owner    string    `json:"owner"`
	Recorded time.Time `json:"recorded"`
}

// TradesResponse lists recent trades, newest first.
type TradesResponse struct {
	BaseResponse
	Trades []TradeDTO `json:"trades"`
	Count  int        `json:"count"`
}

// NewOrderDTO converts an engine order, naming the owner when it can.
func NewOrderDTO(o exchange.Order, owner string) OrderDTO {
	dto := OrderDTO{
		Security: o.Security,
		Time:     o.Time,
		Quantity: o.Quantity,
		Owner:    owner,
	}
	if !o.Price.IsMarket() {
		v := o.Price.Value()
		dto.Price = &v
	}
	return dto
}

// NewTradeDTO converts a journaled trade.
func NewTradeDTO(t *storage.Trade) TradeDTO {
	return TradeDTO{
		Security: t.Security,
		Price:    t.Price,
		Time:     t.Time,
		Quantity: t.Quantity,
		Owner:    t.Owner,
		Recorded: t.Recorded,
	}
}
