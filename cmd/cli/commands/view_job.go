package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rfihub/inspector-cli/pkg/core/services"
)

// ViewJobCmd creates the viewJob command
func ViewJobCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "viewJob <enquiry_id>",
		Short: "Show the full detail view of one job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			enquiryID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("enquiry_id must be a number: %w", err)
			}

			app.Logger.Debug("viewJob command", zap.Int("enquiry_id", enquiryID))

			view, err := services.FetchJobAggregate(
				app.Ctx,
				app.Market,
				app.Cache,
				app.Logger,
				enquiryID,
				app.Session.InspectorID,
				time.Now(),
			)
			if err != nil {
				return err
			}

			printJobView(view)
			return nil
		},
	}
}

func printJobView(view services.JobView) {
	e := view.Enquiry

	badge := ""
	if view.IsNew {
		badge = "  [NEW]"
	}
	fmt.Printf("\n%s  %s%s\n", e.DisplayCode(), orNA(e.Title), badge)
	fmt.Printf("Status:     %s (%s)\n", view.StatusLabel, view.StatusColor)
	fmt.Printf("Category:   %s\n", orNA(e.Category))
	fmt.Printf("Commodity:  %s\n", orNA(e.Commodity))
	fmt.Printf("Location:   %s, %s\n", orNA(e.Location), orNA(e.Country))
	fmt.Printf("Scope:      %s\n", orNA(e.Scope))
	fmt.Printf("Viewers:    %d\n", e.ViewerCount)
	fmt.Printf("Bid amount: %s\n", view.BidAmountDisplay)

	if len(e.Dates) > 0 {
		fmt.Printf("Inspection dates:\n")
		for _, d := range e.Dates {
			fmt.Printf("  - %s\n", d)
		}
	}

	if view.ShowAcceptedBanner {
		fmt.Printf("\n✓ Your bid was accepted on this job.\n")
	}
	if view.ShowBidForm {
		fmt.Printf("\nThis job is open for bidding - use submitBid %d\n", e.ID)
	}
	if view.ShowVideoSection {
		fmt.Printf("Video call: %s\n", view.Video.JoineeLink)
	}
	if view.ShowCheckInSection {
		fmt.Printf("\nCheck-ins (%d):\n", len(view.CheckIns))
		for _, c := range view.CheckIns {
			when := ""
			if !c.CreatedAt.IsZero() {
				when = c.CreatedAt.Format("2006-01-02 15:04") + "  "
			}
			fmt.Printf("  %s%s (%.5f, %.5f)\n", when, orNA(c.Address), c.Latitude, c.Longitude)
		}
		if len(view.CheckIns) == 0 {
			fmt.Printf("  none yet - use checkIn %d\n", e.ID)
		}
	}
	if view.ShowDocumentsSection && len(e.Documents) > 0 {
		fmt.Printf("\nRequired documents:\n")
		for _, d := range e.Documents {
			fmt.Printf("  - %s\n", d)
		}
	}
	fmt.Println()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
