// Package authapi provides the sign-in confirmation endpoint.
//
// POST /auth verifies the presented identity token and answers
// {"message":"Authenticated"}. The browser client calls it once after
// sign-in as a round-trip check that its token is accepted; nothing is
// persisted.
package authapi

import (
	"net/http"

	"github.com/dalemusser/strataconvert/internal/app/system/auth"
	"github.com/dalemusser/strataconvert/internal/app/system/jsonutil"
	"go.uber.org/zap"
)

// Handler handles auth confirmation requests.
type Handler struct {
	logger *zap.Logger
}

// NewHandler creates a new authapi handler.
func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{logger: logger}
}

// ConfirmHandler handles POST /auth. Token verification has already run in
// the RequireIdentity middleware; reaching this handler means the caller is
// authenticated.
func (h *Handler) ConfirmHandler(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		// Only reachable if the route is mounted without the middleware.
		jsonutil.Unauthorized(w, "No token provided")
		return
	}

	h.logger.Debug("sign-in confirmed", zap.String("email", identity.Email))
	jsonutil.Message(w, "Authenticated")
}
