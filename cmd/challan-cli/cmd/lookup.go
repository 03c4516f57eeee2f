package cmd

import (
	"fmt"
	"os"
	"strings"

	"challan-backend/internal/barcode"
	"challan-backend/internal/history"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var barcodeCmd = &cobra.Command{
	Use:   "barcode",
	Short: "Look up bundle barcodes by internal reference.",
}

var (
	barcodeCompany  string
	barcodeJobNo    string
	barcodeInternal string
	barcodeColors   []string
	barcodeScan     string
)

var barcodeSearchCmd = &cobra.Command{
	Use:   "search <int ref>",
	Short: "Resolve an internal reference to its job and colors.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := application.Barcodes.Search(cmd.Context(), args[0], barcodeCompany, "")
		if err != nil {
			return err
		}
		fmt.Printf("job %s (number %s, internal id %s)\n", res.FullJobNo, res.ExtractedNumber, res.InternalID)

		t := newTable()
		t.AppendHeader(table.Row{"color id", "color"})
		for _, c := range res.Colors {
			t.AppendRow(table.Row{c.ID, c.Name})
		}
		t.Render()
		return nil
	},
}

var barcodeReportCmd = &cobra.Command{
	Use:   "report",
	Short: "List the QC passed bundles of the given colors by sewing scan state.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, err := application.Barcodes.Report(cmd.Context(), barcode.ReportRequest{
			CompanyID:  barcodeCompany,
			FullJobNo:  barcodeJobNo,
			InternalID: barcodeInternal,
			ColorIDs:   barcodeColors,
			Scan:       barcode.ParseScanChoice(barcodeScan),
		})
		if err != nil {
			return err
		}

		t := newTable()
		t.AppendHeader(table.Row{"barcode", "cutting", "bundle", "size", "qty", "input date", "challan", "line", "output"})
		for _, r := range rows {
			t.AppendRow(table.Row{r.Barcode, r.CuttingNo, r.BundleNo, r.Size, r.Qty, r.InputDate, r.ChallanNo, r.LineNo, r.SewingOutput})
		}
		t.AppendFooter(table.Row{"total", len(rows)})
		t.Render()
		return nil
	},
}

var (
	historyPage   int
	historyFilter history.Filter
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List challans created through this service.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		limit := application.Config.History.PageSize
		records, total, err := application.History.Find(ctx, historyFilter, historyPage, limit)
		if err != nil {
			return err
		}
		stats, err := history.ComputeStats(ctx, application.History, application.Time.Now())
		if err != nil {
			return err
		}

		t := newTable()
		t.AppendHeader(table.Row{"challan", "system id", "company", "booking", "line", "color", "date", "qty"})
		for _, r := range records {
			t.AppendRow(table.Row{r.ChallanNo, r.SystemID, r.CompanyName, r.BookingNo, r.LineNo, r.Color, r.Date, r.TotalQuantity})
		}
		t.AppendFooter(table.Row{fmt.Sprintf("%d matching", total)})
		t.Render()

		fmt.Printf("today %d, week %d, month %d, total %d\n", stats.Today, stats.Week, stats.Month, stats.Total)
		return nil
	},
}

var reportOutput string

var reportCmd = &cobra.Command{
	Use:   "report <url>",
	Short: "Download an ERP report page with a fresh session.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := application.Reports.Fetch(cmd.Context(), args[0], "")
		if err != nil {
			return err
		}
		if reportOutput == "" || reportOutput == "-" {
			_, err = os.Stdout.Write(report.Body)
			return err
		}
		err = os.WriteFile(reportOutput, report.Body, 0644)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "wrote %d bytes of %s\n", len(report.Body), strings.TrimSpace(report.ContentType))
		return nil
	},
}

func init() {
	barcodeSearchCmd.Flags().StringVarP(&barcodeCompany, "company", "c", "", "ERP company id.")
	barcodeSearchCmd.MarkFlagRequired("company")

	barcodeReportCmd.Flags().StringVarP(&barcodeCompany, "company", "c", "", "ERP company id.")
	barcodeReportCmd.Flags().StringVar(&barcodeJobNo, "job", "", "Full job number, as printed by barcode search.")
	barcodeReportCmd.Flags().StringVar(&barcodeInternal, "internal-id", "", "Internal id, as printed by barcode search.")
	barcodeReportCmd.Flags().StringSliceVar(&barcodeColors, "colors", nil, "Color ids to report on.")
	barcodeReportCmd.Flags().StringVar(&barcodeScan, "scan", "unscanned", "scanned or unscanned.")
	for _, name := range []string{"company", "job", "internal-id", "colors"} {
		barcodeReportCmd.MarkFlagRequired(name)
	}
	barcodeCmd.AddCommand(barcodeSearchCmd, barcodeReportCmd)

	historyCmd.Flags().IntVarP(&historyPage, "page", "p", 1, "Page number, 1-based.")
	historyCmd.Flags().StringVar(&historyFilter.ChallanNo, "challan", "", "Filter by challan number.")
	historyCmd.Flags().StringVar(&historyFilter.LineNo, "line", "", "Filter by line.")
	historyCmd.Flags().StringVar(&historyFilter.Date, "date", "", "Filter by issue date.")
	historyCmd.Flags().StringVar(&historyFilter.BookingNo, "booking", "", "Filter by booking number.")

	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "File to write the report to, stdout when empty.")

	rootCmd.AddCommand(barcodeCmd, historyCmd, reportCmd)
}
