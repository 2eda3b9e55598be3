package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show connectivity and queue status",
	RunE:  runStatus,
}

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List operations waiting to be synced",
	RunE:  runPending,
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Replay queued operations now",
	RunE:  runSync,
}

func init() {
	rootCmd.AddCommand(statusCmd, pendingCmd, syncCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	s.tracker.Check(ctx)
	snap := s.tracker.Snapshot()

	pending, err := s.engine.PendingCount(ctx)
	if err != nil {
		return err
	}

	session := "logged out"
	if s.client.Token() != "" {
		session = "logged in"
	}

	fmt.Printf("Server:     %s\n", s.cfg.ServerURL)
	fmt.Printf("Link up:    %v\n", snap.Online)
	fmt.Printf("Reachable:  %v\n", snap.ServerAvailable)
	fmt.Printf("Pending:    %d\n", pending)
	fmt.Printf("Session:    %s\n", session)
	return nil
}

func runPending(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	ops, err := s.storage.List(context.Background())
	if err != nil {
		return err
	}

	if len(ops) == 0 {
		fmt.Println("Nothing to sync")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tQUEUED\tMETHOD\tENDPOINT\tBODY")
	for _, op := range ops {
		body := "-"
		if len(op.Body) > 0 {
			body = truncate(string(op.Body), 60)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			op.ID, op.Timestamp.Local().Format("2006-01-02 15:04:05"), op.Method, op.Endpoint, body)
	}
	return w.Flush()
}

func runSync(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	if !s.tracker.Check(ctx) {
		return fmt.Errorf("server %s is not reachable", s.cfg.ServerURL)
	}

	report, err := s.engine.Sync(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Replayed %d operation(s), %d remaining\n", report.Replayed, report.Remaining)
	if report.Halted() {
		return fmt.Errorf("sync stopped at operation %s: %w", report.FailedOperationID, report.Err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
