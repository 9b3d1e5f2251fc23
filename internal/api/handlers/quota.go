package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

// QuotaSource reports upstream call usage. *reso.Limiter implements it.
type QuotaSource interface {
	Quota() int64
	DailyCount() int64
	Remaining() int64
	ResetAt() time.Time
}

// QuotaHandler provides the upstream quota status endpoint.
type QuotaHandler struct {
	src QuotaSource
}

// NewQuotaHandler creates a QuotaHandler. A nil source reports an unlimited,
// unused quota.
func NewQuotaHandler(src QuotaSource) *QuotaHandler {
	return &QuotaHandler{src: src}
}

// QuotaOutput is the response body for the quota endpoint.
type QuotaOutput struct {
	Body struct {
		Limited    bool       `json:"limited"               doc:"Whether upstream calls are rate limited at all"`
		DailyLimit int64      `json:"daily_limit"           doc:"Configured daily call cap, 0 when uncapped"     example:"5000"`
		DailyUsed  int64      `json:"daily_used"            doc:"Calls made in the current 24-hour window"      example:"142"`
		Remaining  int64      `json:"remaining"             doc:"Calls left in the window, -1 when uncapped"    example:"4858"`
		ResetAt    *time.Time `json:"reset_at,omitempty"    doc:"When the current 24-hour window expires"`
	}
}

// GetQuota returns the current upstream quota status.
func (h *QuotaHandler) GetQuota(_ context.Context, _ *struct{}) (*QuotaOutput, error) {
	resp := &QuotaOutput{}
	if h.src == nil {
		resp.Body.Remaining = -1
		return resp, nil
	}

	reset := h.src.ResetAt()
	resp.Body.Limited = true
	resp.Body.DailyLimit = h.src.Quota()
	resp.Body.DailyUsed = h.src.DailyCount()
	resp.Body.Remaining = h.src.Remaining()
	resp.Body.ResetAt = &reset

	return resp, nil
}

// RegisterQuotaRoutes registers the quota endpoint with the Huma API.
func RegisterQuotaRoutes(api huma.API, h *QuotaHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "get-quota",
		Method:      http.MethodGet,
		Path:        "/api/v1/quota",
		Summary:     "Get upstream quota status",
		Description: "Returns the daily RESO API call usage, remaining quota and window reset time.",
		Tags:        []string{"upstream"},
	}, h.GetQuota)
}
