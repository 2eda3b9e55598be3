package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/foxzi/fittrack/internal/api"
	"github.com/foxzi/fittrack/internal/models"
	"github.com/foxzi/fittrack/internal/syncer"
)

const trainingsSnapshot = "trainings"

var (
	trainingDate      string
	trainingNotes     string
	trainingExercises []string

	metricsHeight float64
	metricsWeight float64
)

var trainingCmd = &cobra.Command{
	Use:   "training",
	Short: "Training commands",
}

var trainingAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Log a training",
	Example: `  fittrack-sync training add --date 2026-03-14 \
    --exercise "Squat:legs:100x5x5" --exercise "Plank:core:0x3x1"`,
	RunE: runTrainingAdd,
}

var trainingDeleteCmd = &cobra.Command{
	Use:   "delete <training_id>",
	Short: "Delete a training",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrainingDelete,
}

var trainingListCmd = &cobra.Command{
	Use:   "list",
	Short: "List trainings (from the local cache when offline)",
	RunE:  runTrainingList,
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Body metrics commands",
}

var metricsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update height and weight",
	RunE:  runMetricsSet,
}

func init() {
	trainingAddCmd.Flags().StringVar(&trainingDate, "date", "", "Training date (YYYY-MM-DD)")
	trainingAddCmd.Flags().StringVar(&trainingNotes, "notes", "", "Free-form notes")
	trainingAddCmd.Flags().StringArrayVarP(&trainingExercises, "exercise", "e", nil, "Exercise as name:muscle_group:WEIGHTxSETSxREPS (repeatable)")
	trainingAddCmd.MarkFlagRequired("date")
	trainingAddCmd.MarkFlagRequired("exercise")

	metricsSetCmd.Flags().Float64Var(&metricsHeight, "height", 0, "Height in cm")
	metricsSetCmd.Flags().Float64Var(&metricsWeight, "weight", 0, "Weight in kg")

	trainingCmd.AddCommand(trainingAddCmd, trainingDeleteCmd, trainingListCmd)
	metricsCmd.AddCommand(metricsSetCmd)
	rootCmd.AddCommand(trainingCmd, metricsCmd)
}

// parseExercise parses name:muscle_group:WEIGHTxSETSxREPS
func parseExercise(s string) (models.Exercise, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return models.Exercise{}, fmt.Errorf("invalid exercise %q: expected name:muscle_group:WEIGHTxSETSxREPS", s)
	}

	name := strings.TrimSpace(parts[0])
	if name == "" {
		return models.Exercise{}, fmt.Errorf("invalid exercise %q: name is required", s)
	}

	load := strings.Split(strings.ToLower(parts[2]), "x")
	if len(load) != 3 {
		return models.Exercise{}, fmt.Errorf("invalid exercise %q: expected WEIGHTxSETSxREPS", s)
	}
	weight, err := strconv.ParseFloat(load[0], 64)
	if err != nil || weight < 0 {
		return models.Exercise{}, fmt.Errorf("invalid weight in %q", s)
	}
	sets, err := strconv.Atoi(load[1])
	if err != nil || sets < 0 {
		return models.Exercise{}, fmt.Errorf("invalid sets in %q", s)
	}
	reps, err := strconv.Atoi(load[2])
	if err != nil || reps < 0 {
		return models.Exercise{}, fmt.Errorf("invalid reps in %q", s)
	}

	return models.Exercise{
		Name:        name,
		MuscleGroup: strings.TrimSpace(parts[1]),
		Weight:      weight,
		Sets:        sets,
		Reps:        reps,
	}, nil
}

// submit routes a mutation through the gateway and reports the outcome
func (s *session) submit(ctx context.Context, method, endpoint string, body any, what string) error {
	if err := s.requireLogin(); err != nil {
		return err
	}

	var data []byte
	if body != nil {
		var err error
		if data, err = json.Marshal(body); err != nil {
			return err
		}
	}

	// Replay older operations first; whatever stays queued keeps this one
	// behind it
	s.tracker.Check(ctx)
	if s.tracker.Connected() {
		if _, err := s.engine.Sync(ctx); err != nil {
			s.logger.Warn("sync before submit failed", "error", err)
		}
	}
	result, err := s.gateway.Submit(ctx, method, endpoint, data)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", what, err)
	}

	switch r := result.(type) {
	case syncer.Immediate:
		fmt.Printf("Done: %s (HTTP %d)\n", what, r.Response.StatusCode)
	case syncer.Deferred:
		fmt.Printf("Queued (%s): %s (operation %s)\n", r.Reason, what, r.OperationID)
	}
	return nil
}

func runTrainingAdd(cmd *cobra.Command, args []string) error {
	req := api.TrainingRequest{
		// Chosen here so that later offline edits can refer to it
		ID:    uuid.New().String(),
		Date:  trainingDate,
		Notes: trainingNotes,
	}
	for _, e := range trainingExercises {
		ex, err := parseExercise(e)
		if err != nil {
			return err
		}
		req.Exercises = append(req.Exercises, ex)
	}

	t := models.Training{Date: req.Date, Exercises: req.Exercises}
	if err := t.Validate(); err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	return s.submit(context.Background(), http.MethodPost, "/api/trainings", req, "create training "+req.ID)
}

func runTrainingDelete(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	return s.submit(context.Background(), http.MethodDelete, "/api/trainings/"+args[0], nil, "delete training "+args[0])
}

func runMetricsSet(cmd *cobra.Command, args []string) error {
	if metricsHeight < 0 || metricsWeight < 0 {
		return fmt.Errorf("metrics must not be negative")
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	body := api.MetricsRequest{HeightCM: metricsHeight, WeightKG: metricsWeight}
	return s.submit(context.Background(), http.MethodPut, "/api/users/me/metrics", body, "update metrics")
}

func runTrainingList(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.requireLogin(); err != nil {
		return err
	}

	ctx := context.Background()
	var trainings []models.Training

	if s.tracker.Check(ctx) && s.tracker.Connected() {
		trainings, err = s.client.ListTrainings(ctx)
		if err != nil {
			return err
		}
		if err := s.storage.SaveSnapshot(trainingsSnapshot, trainings); err != nil {
			s.logger.Warn("failed to cache trainings", "error", err)
		}
	} else {
		savedAt, err := s.storage.LoadSnapshot(trainingsSnapshot, &trainings)
		if err != nil {
			return err
		}
		if savedAt.IsZero() {
			return fmt.Errorf("server unreachable and no cached trainings")
		}
		fmt.Printf("Server unreachable, showing trainings cached at %s\n\n", savedAt.Local().Format("2006-01-02 15:04"))
	}

	if len(trainings) == 0 {
		fmt.Println("No trainings")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tEXERCISES\tVOLUME\tNOTES")
	for _, t := range trainings {
		var volume float64
		names := make([]string, 0, len(t.Exercises))
		for _, e := range t.Exercises {
			volume += e.Volume()
			names = append(names, e.Name)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.0f\t%s\n", t.ID, t.Date, strings.Join(names, ", "), volume, t.Notes)
	}
	return w.Flush()
}
