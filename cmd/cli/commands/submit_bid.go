package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rfihub/inspector-cli/pkg/core/calendar"
	"github.com/rfihub/inspector-cli/pkg/core/model"
	"github.com/rfihub/inspector-cli/pkg/core/services"
)

// SubmitBidCmd creates the submitBid command
func SubmitBidCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submitBid <enquiry_id>",
		Short: "Place a bid on an open job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			enquiryID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("enquiry_id must be a number: %w", err)
			}

			amount, _ := cmd.Flags().GetString("amount")
			currency, _ := cmd.Flags().GetString("currency")
			amountType, _ := cmd.Flags().GetString("type")
			datesFlag, _ := cmd.Flags().GetString("dates")

			app.Logger.Debug("submitBid command",
				zap.Int("enquiry_id", enquiryID),
				zap.String("amount", amount),
				zap.String("dates", datesFlag))

			dates, err := parseDatesFlag(datesFlag)
			if err != nil {
				return err
			}

			// Fetch the job so legality is judged against current state
			enquiry, _, err := services.LoadJob(app.Ctx, app.Cache, app.Market, enquiryID)
			if err != nil {
				return err
			}

			existing := userBid(&enquiry, app.Session.InspectorID)
			workflow := services.NewBidWorkflow(app.Market, app.Cache, app.Logger, &enquiry, existing)

			if err := workflow.OpenForm(&enquiry); err != nil {
				return err
			}

			workflow.SetAmount(amount)
			workflow.SetCurrency(currency)
			workflow.SetAmountType(model.AmountType(strings.ToLower(amountType)))

			picker := workflow.Dates()
			picker.Open()
			today := time.Now()
			for _, d := range dates {
				if calendar.IsPast(d, today) {
					picker.Cancel()
					return fmt.Errorf("date %s is in the past", d.Format(calendar.DateLayout))
				}
				picker.Toggle(d)
			}
			picker.Save()

			if !workflow.IsFormValid() {
				return services.ErrBidFormInvalid
			}

			if err := workflow.Submit(app.Ctx); err != nil {
				return err
			}

			// Advisory backend refresh; its failure is logged, never shown
			app.Market.RefreshInspectorData(app.Ctx)

			fmt.Printf("\n✓ Bid placed on %s: %s %s (%s)\n\n",
				enquiry.DisplayCode(), amount, currency, amountType)
			return nil
		},
	}

	cmd.Flags().String("amount", "", "Bid amount (required, greater than zero)")
	cmd.Flags().String("currency", "USD", "Currency: USD, EUR, GBP, INR, AED, or SAR")
	cmd.Flags().String("type", "daily", "Amount type: hourly, daily, monthly, or project")
	cmd.Flags().String("dates", "", "Available dates, comma separated YYYY-MM-DD (required)")

	return cmd
}

func parseDatesFlag(flag string) ([]time.Time, error) {
	if strings.TrimSpace(flag) == "" {
		return nil, fmt.Errorf("at least one date is required (--dates)")
	}

	parts := strings.Split(flag, ",")
	dates := make([]time.Time, 0, len(parts))
	for _, part := range parts {
		d, err := time.Parse(calendar.DateLayout, strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", part, err)
		}
		dates = append(dates, d)
	}
	return dates, nil
}

// userBid finds this inspector's bid on the enquiry, if any
func userBid(enquiry *model.Enquiry, inspectorID string) *model.Bid {
	if inspectorID == "" {
		return nil
	}
	if enquiry.AcceptedBid != nil && enquiry.AcceptedBid.InspectorID == inspectorID {
		return enquiry.AcceptedBid
	}
	for i := range enquiry.Shortlisted {
		if enquiry.Shortlisted[i].InspectorID == inspectorID {
			return &enquiry.Shortlisted[i]
		}
	}
	return nil
}
