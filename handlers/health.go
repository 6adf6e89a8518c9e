package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// Health reports the storage mode and whether the store answers.
type Health struct {
	Mode     string
	Database string
	Pinger   interface{ Ping(context.Context) error }
}

func (h *Health) RegisterAPI(api huma.API) { // called by [huma.AutoRegister]
	huma.Get(api, "/health", h.handle, withErrors(http.StatusServiceUnavailable))
}

type HealthOutput struct {
	Status int
	Body   struct {
		Status   string `json:"status"   example:"ok" enum:"ok,unavailable"`
		Mode     string `json:"mode"     example:"development"`
		Database string `json:"database" example:"mock"`
	}
}

func (h *Health) handle(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	out := &HealthOutput{Status: http.StatusOK}
	out.Body.Status, out.Body.Mode, out.Body.Database = "ok", h.Mode, h.Database
	if h.Pinger != nil && h.Pinger.Ping(ctx) != nil {
		out.Status, out.Body.Status = http.StatusServiceUnavailable, "unavailable"
	}
	return out, nil
}
