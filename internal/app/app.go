// Package app wires the workflows from a Config, it is shared by the server and the cli.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"challan-backend/internal/barcode"
	"challan-backend/internal/challan"
	"challan-backend/internal/components/chrono"
	"challan-backend/internal/components/tasks"
	"challan-backend/internal/components/telemetry"
	"challan-backend/internal/history"
	"challan-backend/internal/reportproxy"
	"challan-backend/internal/scrapers/erp"
	"challan-backend/lib/restyutil"
)

type App struct {
	Config   Config
	Time     chrono.TimeAPI
	ERP      *erp.Client
	History  history.Store
	Executor *tasks.PoolExecutor
	Challans *challan.Service
	Barcodes *barcode.Service
	Reports  *reportproxy.Proxy
}

func New(ctx context.Context, config Config, tel telemetry.API) (*App, error) {
	var capture telemetry.CaptureOutput
	if config.CaptureDir != "" {
		output, err := restyutil.NewFilesystemOutput(
			config.CaptureDir,
			time.Now().Format("20060102-150405")+"-",
		)
		if err != nil {
			return nil, fmt.Errorf("capture dir: %w", err)
		}
		capture = output
	}

	client, err := erp.NewClient(erp.Options{
		BaseURL:           config.ERP.BaseURL,
		UserAgent:         config.ERP.UserAgent,
		MenuID:            config.ERP.MenuID,
		Attempts:          config.ERP.RetryAttempts,
		RetryStep:         time.Duration(config.ERP.RetryStepMillis) * time.Millisecond,
		RequestTimeout:    time.Duration(config.ERP.RequestTimeoutSeconds) * time.Second,
		RequestsPerSecond: config.ERP.RequestsPerSecond,
		CloudflareBypass:  config.ERP.CloudflareBypass,
		Capture:           capture,
	}, tel)
	if err != nil {
		return nil, fmt.Errorf("erp client: %w", err)
	}

	store, err := history.Open(ctx, config.History)
	if err != nil {
		return nil, fmt.Errorf("history store: %w", err)
	}

	timeAPI := chrono.NewStandardTime()
	executor := tasks.NewPoolExecutor(tel, config.Workers)
	create := erp.Credentials{Username: config.ERP.Username, Password: config.ERP.Password}

	return &App{
		Config:   config,
		Time:     timeAPI,
		ERP:      client,
		History:  store,
		Executor: executor,
		Challans: challan.NewService(
			client,
			store,
			executor,
			timeAPI,
			challan.Config{
				Credentials: create,
				DeleteCredentials: erp.Credentials{
					Username: config.ERP.DeleteUsername,
					Password: config.ERP.DeletePassword,
				},
				Timeout:   config.ERP.Timeout(),
				Companies: config.ERP.Companies,
			},
			tel,
		),
		Barcodes: barcode.NewService(client, barcode.Config{
			Credentials: create,
			Timeout:     config.ERP.Timeout(),
		}, tel),
		Reports: reportproxy.NewProxy(client, reportproxy.Config{
			Credentials:  create,
			InlineAssets: config.ERP.InlineReportAssets,
			Timeout:      config.ERP.Timeout(),
		}, tel),
	}, nil
}

// Close waits for background tasks, history writes included, then closes the store.
func (a *App) Close(ctx context.Context) error {
	return errors.Join(
		a.Executor.Drain(ctx),
		a.History.Close(ctx),
	)
}
