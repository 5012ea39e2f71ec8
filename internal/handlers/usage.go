package handlers

import (
	"context"

	"github.com/kalori-makanan/dashboard-api/internal/auth"
	"github.com/kalori-makanan/dashboard-api/internal/usage"
)

type UsageHandler struct {
	usage       *usage.Service
	authHandler *auth.Handler
}

func NewUsageHandler(usageSvc *usage.Service, authHandler *auth.Handler) *UsageHandler {
	return &UsageHandler{usage: usageSvc, authHandler: authHandler}
}

type UsageStatsInput struct {
	auth.AuthInput
}

type UsageStatsOutput struct {
	Body usage.Stats
}

func (h *UsageHandler) HandleStats(ctx context.Context, input *UsageStatsInput) (*UsageStatsOutput, error) {
	userID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	stats, err := h.usage.UserStats(ctx, userID)
	if err != nil {
		return nil, mapServiceError(err)
	}

	return &UsageStatsOutput{Body: *stats}, nil
}

type UsageChartInput struct {
	auth.AuthInput
	Days int `query:"days" minimum:"1" maximum:"90" default:"7" doc:"Number of days to include"`
}

type UsageChartOutput struct {
	Body []usage.ChartPoint
}

func (h *UsageHandler) HandleChart(ctx context.Context, input *UsageChartInput) (*UsageChartOutput, error) {
	userID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	points, err := h.usage.ChartData(ctx, userID, input.Days)
	if err != nil {
		return nil, mapServiceError(err)
	}

	return &UsageChartOutput{Body: points}, nil
}
