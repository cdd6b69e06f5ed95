package app

import (
	"context"
	"time"

	"item-service/internal/domain/health"
	"item-service/internal/ports/outbound"

	"github.com/rs/zerolog"
)

// HealthService implements the liveness and readiness checks
type HealthService struct {
	prober outbound.StoreProber
	now    func() time.Time
	logger zerolog.Logger
}

type HealthServiceParams struct {
	Prober outbound.StoreProber
	Logger zerolog.Logger
}

// NewHealthService creates a new health service
func NewHealthService(params HealthServiceParams) *HealthService {
	return &HealthService{
		prober: params.Prober,
		now:    time.Now,
		logger: params.Logger.With().Str("component", "health_service").Logger(),
	}
}

// Liveness reports that the process is up. It checks no dependencies.
func (service *HealthService) Liveness(ctx context.Context) health.Response {
	return health.Response{Status: health.StatusHealthy, Timestamp: service.now().UTC()}
}

// Readiness reports healthy only when the store answers a probe
func (service *HealthService) Readiness(ctx context.Context) health.Response {
	status := health.StatusHealthy
	if service.prober == nil || !service.prober.Probe(ctx) {
		status = health.StatusUnhealthy
		service.logger.Warn().Msg("Readiness check failed: store unavailable")
	}
	return health.Response{Status: status, Timestamp: service.now().UTC()}
}
