package historyapi

import (
	"net/http"

	"github.com/dalemusser/strataconvert/internal/app/store/apirequests"
	"github.com/dalemusser/strataconvert/internal/app/system/apicors"
	"github.com/dalemusser/strataconvert/internal/app/system/apistats"
	"github.com/dalemusser/strataconvert/internal/app/system/auth"
	"github.com/dalemusser/strataconvert/internal/app/system/idtoken"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SaveRoutes returns a router for POST /api/save-history.
func SaveRoutes(h *Handler, verifier idtoken.Verifier, recorder *apistats.Recorder, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(apicors.Middleware())
	r.Use(apistats.Middleware(recorder, apirequests.OpHistorySave))
	r.Use(auth.RequireIdentity(verifier, logger))

	r.Post("/", h.SaveHandler)

	return r
}

// ListRoutes returns a router for GET /api/get-history.
func ListRoutes(h *Handler, verifier idtoken.Verifier, recorder *apistats.Recorder, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(apicors.Middleware())
	r.Use(apistats.Middleware(recorder, apirequests.OpHistoryList))
	r.Use(auth.RequireIdentity(verifier, logger))

	r.Get("/", h.ListHandler)

	return r
}
