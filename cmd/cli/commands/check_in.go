package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rfihub/inspector-cli/pkg/core/services"
	"github.com/rfihub/inspector-cli/pkg/device"
)

// CheckInCmd creates the checkIn command
func CheckInCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkIn <enquiry_id>",
		Short: "Record an on-site check-in for an accepted job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			enquiryID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("enquiry_id must be a number: %w", err)
			}

			source, _ := cmd.Flags().GetString("source")
			note, _ := cmd.Flags().GetString("note")

			kind := device.PhotoSourceKind(source)
			if kind != device.SourceCamera && kind != device.SourceGallery {
				return fmt.Errorf("unknown photo source %q (want camera or gallery)", source)
			}

			app.Logger.Debug("checkIn command",
				zap.Int("enquiry_id", enquiryID),
				zap.String("source", source))

			enquiry, _, err := services.LoadJob(app.Ctx, app.Cache, app.Market, enquiryID)
			if err != nil {
				return err
			}

			bid := userBid(&enquiry, app.Session.InspectorID)
			workflow, err := services.NewCheckInWorkflow(
				app.Market, app.Location, app.Geocoder, app.Photos,
				app.Cache, app.Logger, &enquiry, bid)
			if err != nil {
				return err
			}

			if err := workflow.AcquireLocation(app.Ctx); err != nil {
				return err
			}
			if err := workflow.AttachPhoto(app.Ctx, kind); err != nil {
				return err
			}
			if note != "" {
				workflow.SetNote(note)
			}

			if err := workflow.CanSubmit(); err != nil {
				return err
			}
			if err := workflow.Submit(app.Ctx); err != nil {
				return err
			}

			// Advisory backend refresh; its failure is logged, never shown
			app.Market.RefreshInspectorData(app.Ctx)

			fmt.Printf("\n✓ Checked in on %s\n", enquiry.DisplayCode())
			for _, entry := range workflow.History() {
				fmt.Printf("  %s  %s\n", entry.CreatedAt.Format("2006-01-02 15:04"), entry.Address)
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().String("source", "camera", "Photo source: camera or gallery")
	cmd.Flags().String("note", "", "Optional note to attach to the check-in")

	return cmd
}
