package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/bowltrack/pkg"
	"github.com/appetiteclub/bowltrack/pkg/event"
)

const watchSubjects = "bowls.>"

// Watch prints bowl events until interrupted. With the stream enabled the
// stored backlog is replayed first.
func Watch(ctx context.Context, config *apt.Config, logger apt.Logger, args []string) error {
	natsURL := config.GetStringOrDef("nats.url", pkg.DefaultNATSURL)

	streamEnabled, _ := config.GetString("nats.stream.enabled")
	if streamEnabled == "true" {
		if err := replay(ctx, natsURL, logger); err != nil {
			return err
		}
	}

	sub, err := pkg.NewNATSSubscriber(natsURL, logger)
	if err != nil {
		return err
	}
	defer sub.Close()

	err = sub.Subscribe(ctx, watchSubjects, func(ctx context.Context, data []byte) error {
		return printEvent(time.Now(), data)
	})
	if err != nil {
		return err
	}

	logger.Info("Watching bowl events", "url", natsURL, "subjects", watchSubjects)
	<-ctx.Done()
	return nil
}

func replay(ctx context.Context, natsURL string, logger apt.Logger) error {
	stream, err := pkg.NewNATSStream(ctx, pkg.DefaultBowlStreamConfig(natsURL))
	if err != nil {
		return err
	}
	defer stream.Close()

	messages, err := stream.Fetch(ctx, 0)
	if err != nil {
		return err
	}
	for _, m := range messages {
		if err := printEvent(time.Unix(0, m.Timestamp), m.Data); err != nil {
			logger.Error("skipping stored event", "sequence", m.Sequence, "error", err)
		}
	}
	logger.Info("Replayed stored events", "count", len(messages))
	return nil
}

func printEvent(at time.Time, data []byte) error {
	var meta event.BowlEventMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("undecodable event: %w", err)
	}

	switch meta.EventType {
	case event.EventBowlScanned:
		var e event.BowlScannedEvent
		if err := json.Unmarshal(data, &e); err == nil {
			fmt.Printf("%s %-8s %s %s -> %s by %s\n", at.Format(time.TimeOnly), e.Operation, e.BowlCode, e.PreviousStatus, e.NewStatus, e.User)
			return nil
		}
	case event.EventBowlAssigned:
		var e event.BowlAssignedEvent
		if err := json.Unmarshal(data, &e); err == nil {
			fmt.Printf("%s %-8s %s %s/%s %s (%s)\n", at.Format(time.TimeOnly), "assign", e.BowlCode, e.Company, e.DishLetter, e.Customer, e.Color)
			return nil
		}
	}
	fmt.Printf("%s %s %s\n", at.Format(time.TimeOnly), meta.EventType, string(data))
	return nil
}
