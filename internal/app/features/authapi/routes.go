package authapi

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

// Routes returns a router for the /auth confirmation endpoint.
//
// Authentication is via identity token (JSON body field or Authorization
// header). CORS is permissive since token auth carries no cookies.
func Routes(h *Handler, verifier idtoken.Verifier, recorder *apistats.Recorder, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(apicors.Middleware())
	r.Use(apistats.Middleware(recorder, apirequests.OpAuth))
	r.Use(auth.RequireIdentity(verifier, logger))

	r.Post("/", h.ConfirmHandler)

	return r
}
