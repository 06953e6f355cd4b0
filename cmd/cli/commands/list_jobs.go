package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rfihub/inspector-cli/pkg/cache"
	"github.com/rfihub/inspector-cli/pkg/core/model"
	"github.com/rfihub/inspector-cli/pkg/core/payload"
)

// ListJobsCmd creates the listJobs command
func ListJobsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listJobs",
		Short: "List a cached job collection (nearby jobs by default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			collection, _ := cmd.Flags().GetString("collection")
			fresh, _ := cmd.Flags().GetBool("fresh")

			key, err := collectionKey(collection)
			if err != nil {
				return err
			}

			app.Logger.Debug("listJobs command",
				zap.String("collection", key),
				zap.Bool("fresh", fresh))

			var body []byte
			if fresh {
				body, err = app.Cache.ForceRefresh(app.Ctx, key)
			} else {
				body, err = app.Cache.Get(app.Ctx, key)
			}
			if err != nil {
				return err
			}

			jobs := parseCollection(body)
			fmt.Printf("\n%s (%d jobs):\n\n", key, len(jobs))
			now := time.Now()
			for _, e := range jobs {
				badge := ""
				if e.IsNew(now) {
					badge = " [NEW]"
				}
				fmt.Printf("  %-10s %-12s %s%s\n",
					e.DisplayCode(), e.Status.Label(), orNA(e.Title), badge)
			}
			if len(jobs) == 0 {
				fmt.Println("  No jobs found.")
			}
			fmt.Println()

			return nil
		},
	}

	cmd.Flags().String("collection", "nearby", "Collection to list: nearby, bids, or mine")
	cmd.Flags().Bool("fresh", false, "Bypass the cache and refetch from the backend")

	return cmd
}

func collectionKey(name string) (string, error) {
	switch name {
	case "nearby":
		return cache.KeyNearbyJobs, nil
	case "bids":
		return cache.KeyBidJobs, nil
	case "mine":
		return cache.KeyMyBids, nil
	default:
		return "", fmt.Errorf("unknown collection %q (want nearby, bids, or mine)", name)
	}
}

// parseCollection normalizes a cached collection body. List payloads arrive
// as {"data": [...]}, {"enquiries": [...]}, or a bare array.
func parseCollection(body []byte) []model.Enquiry {
	var list []any

	var record map[string]any
	if err := json.Unmarshal(body, &record); err == nil {
		for _, key := range []string{"data", "enquiries"} {
			if l, ok := record[key].([]any); ok {
				list = l
				break
			}
		}
	} else if err := json.Unmarshal(body, &list); err != nil {
		return nil
	}

	jobs := make([]model.Enquiry, 0, len(list))
	for _, item := range list {
		if raw, ok := item.(map[string]any); ok {
			jobs = append(jobs, payload.ParseEnquiry(raw))
		}
	}
	return jobs
}
