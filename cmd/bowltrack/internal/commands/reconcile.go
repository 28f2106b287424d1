package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/bowltrack/internal/app"
	"github.com/appetiteclub/bowltrack/internal/bowl"
)

// Reconcile applies an assignment feed file to the active bowls.
func Reconcile(ctx context.Context, config *apt.Config, logger apt.Logger, args []string) error {
	if err := need(args, 1, "reconcile <assignments.json>"); err != nil {
		return err
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", args[0], err)
	}

	return withApp(ctx, config, logger, true, func(a *app.App) error {
		result, err := a.Reconciler.ReconcileJSON(ctx, data)
		if err != nil {
			return err
		}
		fmt.Print(result.Summary())
		return nil
	})
}

// Missing reports active bowls whose customers are overdue.
func Missing(ctx context.Context, config *apt.Config, logger apt.Logger, args []string) error {
	if err := need(args, 1, "missing <assignments.json>"); err != nil {
		return err
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", args[0], err)
	}

	records, decodeErrs, err := bowl.DecodeAssignments(data)
	if err != nil {
		return err
	}
	for _, e := range decodeErrs {
		logger.Info("skipping assignment", "error", e)
	}

	today := time.Now()
	records = bowl.FillAssignedDates(records, today)

	return withApp(ctx, config, logger, false, func(a *app.App) error {
		result := bowl.Analyze(a.Registry.Active(), records, today)
		for _, e := range result.Errors {
			logger.Info("assignment issue", "error", e)
		}

		if config.GetStringOrDef("report.format", "text") == "json" {
			out := struct {
				bowl.AnalysisResult
				Alerts []bowl.UrgentAlert `json:"urgent_alerts"`
			}{result, result.UrgentAlerts()}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}

		fmt.Print(bowl.FormatMissingReport(result))
		return nil
	})
}
