package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/honeynil/BrrowMarketplace/internal/config"
	"github.com/honeynil/BrrowMarketplace/internal/infrastructure/observability"
)

// Setup initialises logging, metrics and tracing. The returned handler serves
// the metrics registry on the API listener; it is nil when a dedicated metrics
// address is configured.
func Setup(ctx context.Context, cfg *config.Config, serviceName string) (func(context.Context) error, http.Handler, error) {
	observability.InitLogger(cfg.LogLevel)
	observability.InitMetrics(cfg.MetricsAddr)
	tracerShutdown, err := observability.InitTracing(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		return nil, nil, err
	}
	if cfg.MetricsAddr != "" {
		return tracerShutdown, nil, nil
	}
	return tracerShutdown, promhttp.Handler(), nil
}
