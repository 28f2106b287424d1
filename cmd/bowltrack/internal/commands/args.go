package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/bowltrack/internal/app"
)

// SplitArgs separates --key=value config flags from positional arguments.
func SplitArgs(raw []string) (flags, args []string) {
	for _, a := range raw {
		if strings.HasPrefix(a, "-") {
			flags = append(flags, a)
			continue
		}
		args = append(args, a)
	}
	return flags, args
}

func need(args []string, n int, usage string) error {
	if len(args) < n {
		return fmt.Errorf("usage: %s", usage)
	}
	return nil
}

// withApp starts the application, runs fn and saves when fn changed state.
func withApp(ctx context.Context, config *apt.Config, logger apt.Logger, save bool, fn func(*app.App) error) error {
	a := app.New(config, logger)
	if err := a.Initialize(ctx); err != nil {
		a.Shutdown(ctx)
		return err
	}
	defer a.Shutdown(ctx)

	if err := fn(a); err != nil {
		return err
	}
	if save {
		return a.Save(ctx)
	}
	return nil
}
