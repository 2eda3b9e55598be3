package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/foxzi/fittrack/internal/repository"
)

var monitoredCmd = &cobra.Command{
	Use:   "monitored",
	Short: "Inspect users flagged for suspicious activity",
}

var monitoredListCmd = &cobra.Command{
	Use:   "list",
	Short: "List monitored users",
	RunE:  runMonitoredList,
}

var monitoredClearCmd = &cobra.Command{
	Use:   "clear <record_id>",
	Short: "Remove a user from the monitored list",
	Long:  `Remove a monitored record. The user is flagged again on the next burst of activity.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runMonitoredClear,
}

func init() {
	monitoredCmd.AddCommand(monitoredListCmd, monitoredClearCmd)
	rootCmd.AddCommand(monitoredCmd)
}

func runMonitoredList(cmd *cobra.Command, args []string) error {
	database, err := openDatabase()
	if err != nil {
		return err
	}
	defer database.Close()

	records, err := repository.NewMonitoredRepository(database.DB).List(context.Background())
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Println("No monitored users")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSER ID\tUSERNAME\tDETECTED\tREASON")
	for _, m := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			m.ID, m.UserID, m.Username, m.DetectedAt.Local().Format("2006-01-02 15:04:05"), m.Reason)
	}
	return w.Flush()
}

func runMonitoredClear(cmd *cobra.Command, args []string) error {
	database, err := openDatabase()
	if err != nil {
		return err
	}
	defer database.Close()

	if err := repository.NewMonitoredRepository(database.DB).Delete(context.Background(), args[0]); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("monitored record not found: %s", args[0])
		}
		return err
	}

	fmt.Printf("Monitored record %s cleared\n", args[0])
	return nil
}
