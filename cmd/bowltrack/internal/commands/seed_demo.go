package commands

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/bowltrack/internal/app"
	"github.com/appetiteclub/bowltrack/internal/bowl"
	"github.com/appetiteclub/bowltrack/pkg/enums/scantype"
)

// demoMarker is the first demo bowl; its presence means the seed was applied.
const demoMarker = "DEMO01"

type demoBowl struct {
	code     string
	user     string
	prepared bool
	returned bool
}

var demoBowls = []demoBowl{
	{code: "DEMO01", user: "Alice"},
	{code: "DEMO02", user: "Alice"},
	{code: "DEMO03", user: "Bob"},
	{code: "DEMO04", user: "Bob", prepared: true},
	{code: "DEMO05", user: "Carol", prepared: true, returned: true},
}

var demoAssignments = []bowl.AssignmentRecord{
	{BowlCode: "DEMO01", Company: "Acme", Customer: "Dana", DishLetter: "A"},
	{BowlCode: "DEMO02", Company: "Acme", Customer: "Eli", DishLetter: "B"},
	{BowlCode: "DEMO03", Company: "Acme", Customer: "Finn", DishLetter: "B"},
}

// SeedDemo loads a small set of bowls in every status, including one
// conflicting dish. It runs once per store.
func SeedDemo(ctx context.Context, config *apt.Config, logger apt.Logger, args []string) error {
	logger.Info("Starting demo seeding process...")

	return withApp(ctx, config, logger, true, func(a *app.App) error {
		if _, ok := a.Registry.Current(demoMarker); ok {
			logger.Info("Demo seeds already applied, skipping")
			return nil
		}

		for _, d := range demoBowls {
			r := a.Operator.ProcessScan(ctx, bowl.ScanRequest{RawCode: d.code, Operation: scantype.Operations.Kitchen, User: d.user})
			if !r.Success {
				return fmt.Errorf("seed %s: %w", d.code, r.Err)
			}
			if d.prepared {
				a.Operator.Prepare(ctx, bowl.PrepareRequest{RawCode: d.code, User: d.user})
			}
			if d.returned {
				a.Operator.ProcessScan(ctx, bowl.ScanRequest{RawCode: d.code, Operation: scantype.Operations.Return, User: d.user})
			}
		}

		result := a.Reconciler.Reconcile(ctx, demoAssignments)
		logger.Info("Demo seeds applied successfully",
			"bowls", len(demoBowls),
			"assigned", len(result.Assigned),
			"conflicts", len(result.Conflicts),
		)
		return nil
	})
}
