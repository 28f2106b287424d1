package commands

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/bowltrack/internal/app"
	"github.com/appetiteclub/bowltrack/internal/bowl"
	"github.com/appetiteclub/bowltrack/pkg/enums/scantype"
)

// Scan records a kitchen issue or a return.
func Scan(ctx context.Context, config *apt.Config, logger apt.Logger, args []string) error {
	if err := need(args, 3, "scan <kitchen|return> <code> <user>"); err != nil {
		return err
	}
	op := scantype.ByName(args[0])
	if op == nil || *op == scantype.Operations.Prepare {
		return fmt.Errorf("unknown scan operation %q", args[0])
	}

	return withApp(ctx, config, logger, true, func(a *app.App) error {
		result := a.Operator.ProcessScan(ctx, bowl.ScanRequest{
			RawCode:   args[1],
			Operation: *op,
			User:      args[2],
		})
		return report(result)
	})
}

// Prepare marks an issued bowl as filled.
func Prepare(ctx context.Context, config *apt.Config, logger apt.Logger, args []string) error {
	if err := need(args, 2, "prepare <code> <user> [dish]"); err != nil {
		return err
	}
	req := bowl.PrepareRequest{RawCode: args[0], User: args[1]}
	if len(args) > 2 {
		req.DishLetter = args[2]
	}

	return withApp(ctx, config, logger, true, func(a *app.App) error {
		return report(a.Operator.Prepare(ctx, req))
	})
}

func report(r bowl.ScanResult) error {
	if !r.Success {
		return r.Err
	}
	fmt.Println(r.Message)
	return nil
}
