package historyapi

import "github.com/dalemusser/strataconvert/internal/domain/models"

// SaveRequest is the POST /api/save-history body.
//
// The token field is consumed by the auth middleware. There is no email
// field: identity comes from the verified token only.
type SaveRequest struct {
	Token  string   `json:"token,omitempty"`
	From   string   `json:"from"`
	To     string   `json:"to"`
	Amount *float64 `json:"amount"`
	Rate   float64  `json:"rate"`
	Result float64  `json:"result"`
}

// Validate returns field-level problems with the request, or nil.
// Amount is a pointer so "absent" and "0" are distinguishable; rate and
// result are stored as sent and are not assumed to be equal or related.
func (req *SaveRequest) Validate() map[string]string {
	problems := make(map[string]string)
	if req.From == "" {
		problems["from"] = "required"
	}
	if req.To == "" {
		problems["to"] = "required"
	}
	if req.Amount == nil {
		problems["amount"] = "required"
	}
	if len(problems) == 0 {
		return nil
	}
	return problems
}

// HistoryResponse is the GET /api/get-history body.
type HistoryResponse struct {
	History []models.ConversionRecord `json:"history"`
}
