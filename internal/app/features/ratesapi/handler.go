// Package ratesapi proxies the external rate service for the browser client.
//
// Endpoints:
//   - GET /api/currencies - supported currency codes and display names
//   - GET /api/convert    - convert an amount between two currencies
//
// Proxying keeps the client same-origin and lets the server cache rates;
// these endpoints read public data and need no token.
package ratesapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/strataconvert/internal/app/system/jsonutil"
	"github.com/dalemusser/strataconvert/internal/app/system/rates"
	"go.uber.org/zap"
)

// Handler handles rate lookup requests.
type Handler struct {
	rates  *rates.Client
	logger *zap.Logger
}

// NewHandler creates a new ratesapi handler.
func NewHandler(ratesClient *rates.Client, logger *zap.Logger) *Handler {
	return &Handler{
		rates:  ratesClient,
		logger: logger,
	}
}

// CurrenciesHandler handles GET /api/currencies.
func (h *Handler) CurrenciesHandler(w http.ResponseWriter, r *http.Request) {
	currencies, err := h.rates.Currencies(r.Context())
	if err != nil {
		h.logger.Warn("currency list lookup failed", zap.Error(err))
		jsonutil.BadGateway(w, "rate lookup failed")
		return
	}
	jsonutil.OK(w, currencies)
}

// ConvertHandler handles GET /api/convert?amount=100&from=USD&to=EUR.
//
// An upstream failure answers 502 so the client can show the user a rate
// failure rather than an opaque error. Unknown currency codes are the
// caller's mistake and answer 400.
func (h *Handler) ConvertHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	from := strings.ToUpper(strings.TrimSpace(q.Get("from")))
	to := strings.ToUpper(strings.TrimSpace(q.Get("to")))
	amountStr := q.Get("amount")

	problems := make(map[string]string)
	if from == "" {
		problems["from"] = "required"
	}
	if to == "" {
		problems["to"] = "required"
	}
	amount, err := strconv.ParseFloat(amountStr, 64)
	switch {
	case amountStr == "":
		problems["amount"] = "required"
	case err != nil:
		problems["amount"] = "must be a number"
	}
	if len(problems) > 0 {
		jsonutil.ValidationError(w, problems)
		return
	}

	conv, err := h.rates.Convert(r.Context(), amount, from, to)
	if err != nil {
		if errors.Is(err, rates.ErrUnknownCurrency) {
			jsonutil.BadRequest(w, "unknown currency code")
			return
		}
		h.logger.Warn("rate lookup failed",
			zap.String("from", from),
			zap.String("to", to),
			zap.Error(err),
		)
		jsonutil.BadGateway(w, "rate lookup failed")
		return
	}

	jsonutil.OK(w, conv)
}
