package observability

import (
	"github.com/manosdelsur/feria/internal/observability/logger"
	"github.com/manosdelsur/feria/internal/observability/metrics"
	"github.com/manosdelsur/feria/internal/observability/tracing"
	"go.uber.org/fx"
)

func loggerConfig(cfg Config) logger.Config {
	return logger.Config{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Version:     cfg.Version,
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
	}
}

func tracingConfig(cfg Config) tracing.Config {
	return tracing.Config{
		ServiceName:          cfg.ServiceName,
		Environment:          cfg.Environment,
		Version:              cfg.Version,
		OtelEnabled:          cfg.OtelEnabled,
		OtelExporterEndpoint: cfg.OtelExporterEndpoint,
		OtelExporterProtocol: cfg.OtelExporterProtocol,
		OtelSamplingRatio:    cfg.OtelSamplingRatio,
	}
}

var Module = fx.Module("observability",
	fx.Provide(
		LoadConfig,
		loggerConfig,
		logger.New,
		metrics.NewHTTPMetrics,
		metrics.New,
		tracingConfig,
	),
	fx.Invoke(tracing.NewProvider),
)
