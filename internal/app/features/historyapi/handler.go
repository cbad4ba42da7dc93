// Package historyapi provides the conversion-history API endpoints.
//
// Endpoints:
//   - POST /api/save-history - append one conversion record
//   - GET  /api/get-history  - list the caller's records, newest first
//
// Records are stored in the conversion_history collection, keyed by the
// email resolved from the caller's verified token.
package historyapi

import (
	"net/http"

	historystore "github.com/dalemusser/strataconvert/internal/app/store/history"
	"github.com/dalemusser/strataconvert/internal/app/system/auth"
	"github.com/dalemusser/strataconvert/internal/app/system/jsonutil"
	"github.com/dalemusser/strataconvert/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler handles history save/list requests.
type Handler struct {
	store  *historystore.Store
	logger *zap.Logger
}

// NewHandler creates a new historyapi handler.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		store:  historystore.New(db),
		logger: logger,
	}
}

// SaveHandler handles POST /api/save-history.
//
// The conversion fields come from the request body; the record's email always
// comes from the verified identity, and the timestamp is assigned by the
// store at write time.
func (h *Handler) SaveHandler(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		jsonutil.Unauthorized(w, "No token provided")
		return
	}

	var in SaveRequest
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "Invalid JSON payload")
		return
	}
	if problems := in.Validate(); problems != nil {
		jsonutil.ValidationError(w, problems)
		return
	}

	rec := models.ConversionRecord{
		Email:  identity.Email,
		From:   in.From,
		To:     in.To,
		Amount: *in.Amount,
		Rate:   in.Rate,
		Result: in.Result,
	}

	saved, err := h.store.Append(r.Context(), rec)
	if err != nil {
		h.logger.Error("failed to save conversion record",
			zap.String("email", identity.Email),
			zap.Error(err),
		)
		jsonutil.InternalError(w, "Failed to save history")
		return
	}

	h.logger.Debug("conversion record saved",
		zap.String("email", saved.Email),
		zap.String("from", saved.From),
		zap.String("to", saved.To),
		zap.Int64("timestamp", saved.Timestamp),
	)

	jsonutil.Message(w, "Saved")
}

// ListHandler handles GET /api/get-history.
//
// It returns every record belonging to the verified identity, sorted by
// timestamp descending. An identity with no records gets {"history":[]}.
func (h *Handler) ListHandler(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		jsonutil.Unauthorized(w, "No token provided")
		return
	}

	records, err := h.store.ListByEmail(r.Context(), identity.Email)
	if err != nil {
		h.logger.Error("failed to load conversion history",
			zap.String("email", identity.Email),
			zap.Error(err),
		)
		jsonutil.InternalError(w, "Failed to load history")
		return
	}

	jsonutil.OK(w, HistoryResponse{History: records})
}
