package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"challan-backend/internal/app"
	"challan-backend/internal/components/telemetry"
	"challan-backend/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

// application is created before any subcommand runs.
var application *app.App

var rootCmd = &cobra.Command{
	Use:           "challan-cli",
	Short:         "challan-cli runs the sewing input challan workflows against the ERP from a terminal.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(verbose)
		config, err := app.LoadConfig(configPath)
		if err != nil {
			return err
		}
		application, err = app.New(cmd.Context(), config, telemetry.SlogAPI{})
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if application == nil {
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return application.Close(ctx)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json5", "Path to the json5 configuration file.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging.")
}

func Execute() {
	ctx, stop := serviceutil.SignalContext()
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}
