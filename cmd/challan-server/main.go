package main

import (
	"context"
	"flag"
	"time"

	"challan-backend/internal/api"
	"challan-backend/internal/app"
	"challan-backend/internal/components/chrono"
	"challan-backend/lib/serviceutil"
)

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	configPath := flag.String("config", "config.json5", "Path to the json5 configuration file.")
	flag.Parse()

	ctx, stop := serviceutil.SignalContext()
	defer stop()

	config, err := app.LoadConfig(*configPath)
	if err != nil {
		serviceutil.Fatal("read config", err)
	}

	tel := InitTelemetry(ctx, *verbose, config.Telemetry)

	application, err := app.New(ctx, config, tel)
	if err != nil {
		serviceutil.Fatal("init app", err)
	}

	cron := chrono.NewStandardCron(tel)
	defer cron.Stop()

	guards, err := InitSecurity(config.Security, application.Time, cron, tel)
	if err != nil {
		serviceutil.Fatal("init security", err)
	}

	handler := api.NewHandler(api.Services{
		Challans:   application.Challans,
		Barcodes:   application.Barcodes,
		Reports:    application.Reports,
		History:    application.History,
		CSRF:       guards.CSRF,
		DeleteAuth: guards.DeleteAuth,
	}, config.HTTP.Config, application.Time, tel)
	err = ScheduleSweeps(cron, config.Security.SweepSpec, tel, guards, handler)
	if err != nil {
		serviceutil.Fatal("schedule sweeps", err)
	}

	shutdownTimeout := time.Duration(config.HTTP.ShutdownSeconds) * time.Second
	err = serviceutil.StartHttpServer(ctx, config.HTTP.Port, handler, shutdownTimeout)
	if err != nil {
		tel.ReportBroken("server.listen", err)
	}

	// history writes of challans created right before shutdown still land
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err = application.Close(shutdownCtx)
	if err != nil {
		tel.ReportBroken("server.close", err)
	}
	err = ShutdownTelemetry(shutdownCtx)
	if err != nil {
		tel.ReportWarning("server.telemetry-shutdown", err)
	}
}
