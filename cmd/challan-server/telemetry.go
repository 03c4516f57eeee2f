package main

import (
	"context"
	"log/slog"

	"challan-backend/internal/components/telemetry"
	"challan-backend/lib/serviceutil"
)

var otelProviders telemetry.Telemetry

// InitTelemetry installs the slog handler and the otel providers, the returned API reports
// through slog.
func InitTelemetry(ctx context.Context, verbose bool, config telemetry.Config) telemetry.API {
	telemetry.InitSlog(verbose)

	if verbose {
		slog.DebugContext(ctx, "verbose logging enabled")
	}

	providers, err := telemetry.Setup(ctx, "challan-server", config)
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	otelProviders = providers

	tel := telemetry.SlogAPI{}
	telemetry.InstrumentPerfStats(ctx, tel)
	return tel
}

func ShutdownTelemetry(ctx context.Context) error {
	return otelProviders.Shutdown(ctx)
}
