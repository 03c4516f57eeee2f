package cmd

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"

	"challan-backend/internal/challan"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	companyID  string
	locationID string
	assumeYes  bool
)

func init() {
	for _, c := range []*cobra.Command{createCmd, searchCmd, deleteCmd} {
		c.Flags().StringVarP(&companyID, "company", "c", "", "ERP company id.")
		c.MarkFlagRequired("company")
		rootCmd.AddCommand(c)
	}
	for _, c := range []*cobra.Command{searchCmd, deleteCmd} {
		c.Flags().StringVarP(&locationID, "location", "l", "", "ERP location id, 1 when empty.")
	}
	deleteCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation.")
	rootCmd.AddCommand(previewCmd)
}

var createCmd = &cobra.Command{
	Use:   "create <cutting challan no>",
	Short: "Create a sewing input challan from a cutting delivery challan.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := application.Challans.Create(cmd.Context(), challan.CreateRequest{
			ChallanNo: args[0],
			CompanyID: companyID,
		})
		if err != nil {
			return err
		}

		t := newTable()
		t.AppendRows([]table.Row{
			{"challan no", res.ChallanNo},
			{"system id", res.SystemID},
			{"issue print", res.Report1URL},
			{"challan print", res.Report2URL},
		})
		t.Render()
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <sewing challan no>",
	Short: "Find the system id of a sewing input challan.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		systemID, err := application.Challans.Search(cmd.Context(), challan.SearchRequest{
			ChallanNo:  args[0],
			CompanyID:  companyID,
			LocationID: locationID,
		})
		if err != nil {
			return err
		}
		fmt.Println(systemID)
		return nil
	},
}

func renderDetails(details map[string]string) {
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := newTable()
	for _, k := range keys {
		t.AppendRow(table.Row{k, details[k]})
	}
	t.Render()
}

var previewCmd = &cobra.Command{
	Use:   "preview <system id>",
	Short: "Show what the challan print page says about a challan.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		details, err := application.Challans.Preview(cmd.Context(), args[0], "")
		if err != nil {
			return err
		}
		renderDetails(details)
		return nil
	},
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

var deleteCmd = &cobra.Command{
	Use:   "delete <sewing challan no>",
	Short: "Delete a sewing input challan after showing its details.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		challanNo := args[0]

		systemID, err := application.Challans.Search(ctx, challan.SearchRequest{
			ChallanNo:  challanNo,
			CompanyID:  companyID,
			LocationID: locationID,
		})
		if err != nil {
			return err
		}
		details, err := application.Challans.Preview(ctx, systemID, "")
		if err != nil {
			return err
		}
		renderDetails(details)

		if !assumeYes && !confirm(fmt.Sprintf("Delete challan %s (system id %s)?", challanNo, systemID)) {
			fmt.Println("aborted")
			return nil
		}

		res, err := application.Challans.Delete(ctx, challan.DeleteRequest{
			SystemID:   systemID,
			ChallanNo:  challanNo,
			CompanyID:  companyID,
			LocationID: locationID,
		})
		if err != nil {
			return err
		}
		if !res.Success {
			return fmt.Errorf("%s (%s)", res.Message, res.Raw)
		}
		fmt.Println(res.Message)
		return nil
	},
}
