package ratesapi

import (
	"net/http"

	"github.com/dalemusser/strataconvert/internal/app/store/apirequests"
	"github.com/dalemusser/strataconvert/internal/app/system/apicors"
	"github.com/dalemusser/strataconvert/internal/app/system/apistats"
	"github.com/go-chi/chi/v5"
)

// Routes returns a router with the public rate endpoints.
//
// When mounted at /api:
//   - GET /api/currencies
//   - GET /api/convert
func Routes(h *Handler, recorder *apistats.Recorder) http.Handler {
	r := chi.NewRouter()

	r.Use(apicors.Middleware())

	r.Route("/currencies", func(sr chi.Router) {
		sr.Use(apistats.Middleware(recorder, apirequests.OpCurrencies))
		sr.Get("/", h.CurrenciesHandler)
	})

	r.Route("/convert", func(sr chi.Router) {
		sr.Use(apistats.Middleware(recorder, apirequests.OpConvert))
		sr.Get("/", h.ConvertHandler)
	})

	return r
}
