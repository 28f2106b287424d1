package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/bowltrack/internal/app"
	"github.com/appetiteclub/bowltrack/internal/bowl"
	"github.com/appetiteclub/bowltrack/pkg/enums/bowlcolor"
	"github.com/appetiteclub/bowltrack/pkg/enums/bowlstatus"
	"github.com/appetiteclub/bowltrack/pkg/enums/scantype"
)

// List prints bowls, optionally restricted to one status.
func List(ctx context.Context, config *apt.Config, logger apt.Logger, args []string) error {
	var filter bowl.ContainerFilter
	if len(args) > 0 {
		status := bowlstatus.ByName(args[0])
		if status == nil {
			return fmt.Errorf("unknown status %q", args[0])
		}
		filter.Status = status
	}

	return withApp(ctx, config, logger, false, func(a *app.App) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CODE\tSTATUS\tCOLOR\tDISH\tCOMPANY\tCUSTOMER\tUSER\tUPDATED")
		for _, c := range a.Registry.Filter(filter) {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				c.Code, c.Status.Label(), c.Color.Label(), c.DishLetter,
				c.Company, c.Customer, c.User, c.UpdatedAt.Format(time.DateTime))
		}
		return w.Flush()
	})
}

// Stats prints registry counts and the overnight scans per user.
func Stats(ctx context.Context, config *apt.Config, logger apt.Logger, args []string) error {
	op := scantype.Operations.Kitchen
	if len(args) > 0 {
		o := scantype.ByName(args[0])
		if o == nil {
			return fmt.Errorf("unknown operation %q", args[0])
		}
		op = *o
	}

	return withApp(ctx, config, logger, false, func(a *app.App) error {
		s := a.Registry.Stats()
		fmt.Printf("Bowls: %d (active %d, prepared %d, returned %d)\n", s.Total, s.Active, s.Prepared, s.Returned)
		for _, c := range bowlcolor.All {
			fmt.Printf("  %s: %d\n", c.Label(), s.ByColor[c.Code()])
		}

		window := bowl.OvernightWindow(time.Now())
		totals := bowl.UserTotals(a.Registry.History(), op, window)
		fmt.Printf("\n%s scans %s - %s\n", op.Label(), window.From.Format(time.DateTime), window.To.Format(time.DateTime))
		if len(totals) == 0 {
			fmt.Println("  none")
		}
		for _, t := range totals {
			fmt.Printf("  %-20s %4d  %3d%%\n", t.User, t.Total, t.Percentage)
		}
		return nil
	})
}
