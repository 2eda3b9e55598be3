package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/foxzi/fittrack/internal/api"
	"github.com/foxzi/fittrack/internal/models"
	"github.com/foxzi/fittrack/internal/repository"
)

var (
	activityUser       string
	activityEntityType string
	activitySince      string
	activityUntil      string
	activityLimit      int
)

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Activity log commands",
}

var activityListCmd = &cobra.Command{
	Use:   "list",
	Short: "List activity log entries, newest first",
	RunE:  runActivityList,
}

func init() {
	activityListCmd.Flags().StringVar(&activityUser, "user", "", "Filter by user ID")
	activityListCmd.Flags().StringVar(&activityEntityType, "entity-type", "", "Filter by entity type (training, user_metrics, stats, user)")
	activityListCmd.Flags().StringVar(&activitySince, "since", "", "Start date (YYYY-MM-DD or RFC 3339)")
	activityListCmd.Flags().StringVar(&activityUntil, "until", "", "End date, inclusive (YYYY-MM-DD or RFC 3339)")
	activityListCmd.Flags().IntVar(&activityLimit, "limit", 50, "Maximum number of entries to show")

	activityCmd.AddCommand(activityListCmd)
	rootCmd.AddCommand(activityCmd)
}

func runActivityList(cmd *cobra.Command, args []string) error {
	start, err := api.ParseDateParam(activitySince, false)
	if err != nil {
		return fmt.Errorf("invalid --since: %w", err)
	}
	end, err := api.ParseDateParam(activityUntil, true)
	if err != nil {
		return fmt.Errorf("invalid --until: %w", err)
	}

	database, err := openDatabase()
	if err != nil {
		return err
	}
	defer database.Close()

	entries, err := repository.NewActivityRepository(database.DB).List(context.Background(), models.ActivityLogFilter{
		UserID:     activityUser,
		EntityType: activityEntityType,
		StartDate:  start,
		EndDate:    end,
		Limit:      activityLimit,
	})
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Println("No activity found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tUSER ID\tACTION\tENTITY\tID\tDETAILS")
	for _, e := range entries {
		details := "-"
		if len(e.Details) > 0 {
			details = string(e.Details)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.UserID, e.Action, e.EntityType, e.EntityID, details)
	}
	return w.Flush()
}
