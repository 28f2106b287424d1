package bowl

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/appetiteclub/bowltrack/pkg/enums/bowlstatus"
	"github.com/appetiteclub/bowltrack/pkg/enums/scantype"
	"github.com/appetiteclub/bowltrack/pkg/event"
)

var (
	kitchen = scantype.Operations.Kitchen
	ret     = scantype.Operations.Return
)

func TestProcessScanKitchen(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(ctx context.Context, op *Operator)
		raw     string
		user    string
		wantErr error
	}{
		{
			name: "newBowl",
			raw:  "abc123",
			user: "Alice",
		},
		{
			name: "urlLabel",
			raw:  "https://vyt.to/ABC123",
			user: "Alice",
		},
		{
			name:    "missingUser",
			raw:     "ABC123",
			user:    "  ",
			wantErr: ErrMissingField,
		},
		{
			name:    "invalidCode",
			raw:     "A!",
			user:    "Alice",
			wantErr: ErrInvalidFormat,
		},
		{
			name: "duplicateActive",
			setup: func(ctx context.Context, op *Operator) {
				op.ProcessScan(ctx, ScanRequest{RawCode: "ABC123", Operation: kitchen, User: "Alice"})
			},
			raw:     "ABC123",
			user:    "Bob",
			wantErr: ErrDuplicateActive,
		},
		{
			name: "reissueAfterReturn",
			setup: func(ctx context.Context, op *Operator) {
				op.ProcessScan(ctx, ScanRequest{RawCode: "ABC123", Operation: kitchen, User: "Alice"})
				op.Prepare(ctx, PrepareRequest{RawCode: "ABC123", User: "Alice"})
				op.ProcessScan(ctx, ScanRequest{RawCode: "ABC123", Operation: ret, User: "Alice"})
			},
			raw:  "ABC123",
			user: "Bob",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			registry, op := newTestOperator(nil)
			if tt.setup != nil {
				tt.setup(ctx, op)
			}
			before := registry.Count()

			result := op.ProcessScan(ctx, ScanRequest{RawCode: tt.raw, Operation: kitchen, User: tt.user})

			if tt.wantErr != nil {
				if result.Success {
					t.Fatalf("expected failure, got %q", result.Message)
				}
				if !errors.Is(result.Err, tt.wantErr) {
					t.Errorf("Err = %v, want %v", result.Err, tt.wantErr)
				}
				if registry.Count() != before {
					t.Errorf("registry changed on failure: %d -> %d", before, registry.Count())
				}
				return
			}

			if !result.Success {
				t.Fatalf("expected success, got %v", result.Err)
			}
			if registry.Count() != before+1 {
				t.Errorf("Count() = %d, want %d", registry.Count(), before+1)
			}
			c, ok := registry.Current(result.Code)
			if !ok {
				t.Fatalf("bowl %s not found", result.Code)
			}
			if c.Status != bowlstatus.Statuses.Active {
				t.Errorf("Status = %v, want active", c.Status)
			}
			if c.User != tt.user {
				t.Errorf("User = %q, want %q", c.User, tt.user)
			}
		})
	}
}

func TestProcessScanReturn(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(ctx context.Context, op *Operator)
		wantErr error
	}{
		{
			name:    "unknownBowl",
			wantErr: ErrNotFound,
		},
		{
			name: "activeNotPrepared",
			setup: func(ctx context.Context, op *Operator) {
				op.ProcessScan(ctx, ScanRequest{RawCode: "ABC123", Operation: kitchen, User: "Alice"})
			},
			wantErr: ErrNotPrepared,
		},
		{
			name: "prepared",
			setup: func(ctx context.Context, op *Operator) {
				op.ProcessScan(ctx, ScanRequest{RawCode: "ABC123", Operation: kitchen, User: "Alice"})
				op.Prepare(ctx, PrepareRequest{RawCode: "ABC123", User: "Alice"})
			},
		},
		{
			name: "alreadyReturned",
			setup: func(ctx context.Context, op *Operator) {
				op.ProcessScan(ctx, ScanRequest{RawCode: "ABC123", Operation: kitchen, User: "Alice"})
				op.Prepare(ctx, PrepareRequest{RawCode: "ABC123", User: "Alice"})
				op.ProcessScan(ctx, ScanRequest{RawCode: "ABC123", Operation: ret, User: "Alice"})
			},
			wantErr: ErrAlreadyReturned,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			registry, op := newTestOperator(nil)
			if tt.setup != nil {
				tt.setup(ctx, op)
			}
			historyBefore := len(registry.History())

			result := op.ProcessScan(ctx, ScanRequest{RawCode: "abc123", Operation: ret, User: "Dan"})

			if tt.wantErr != nil {
				if !errors.Is(result.Err, tt.wantErr) {
					t.Fatalf("Err = %v, want %v", result.Err, tt.wantErr)
				}
				if len(registry.History()) != historyBefore {
					t.Error("history changed on failure")
				}
				return
			}

			if !result.Success {
				t.Fatalf("expected success, got %v", result.Err)
			}
			c, _ := registry.Current("ABC123")
			if c.Status != bowlstatus.Statuses.Returned {
				t.Errorf("Status = %v, want returned", c.Status)
			}
			if c.User != "Dan" {
				t.Errorf("User = %q, want Dan", c.User)
			}
			if len(registry.History()) != historyBefore+1 {
				t.Errorf("history length = %d, want %d", len(registry.History()), historyBefore+1)
			}
		})
	}
}

func TestPrepare(t *testing.T) {
	ctx := context.Background()
	registry, op := newTestOperator(nil)

	if r := op.Prepare(ctx, PrepareRequest{RawCode: "ABC123", User: "Alice"}); !errors.Is(r.Err, ErrNotFound) {
		t.Fatalf("prepare unknown: Err = %v, want ErrNotFound", r.Err)
	}

	op.ProcessScan(ctx, ScanRequest{RawCode: "ABC123", Operation: kitchen, User: "Alice"})

	r := op.Prepare(ctx, PrepareRequest{RawCode: "abc123", User: "Bob", DishLetter: " b "})
	if !r.Success {
		t.Fatalf("prepare: %v", r.Err)
	}
	c, _ := registry.Current("ABC123")
	if c.Status != bowlstatus.Statuses.Prepared {
		t.Errorf("Status = %v, want prepared", c.Status)
	}
	if c.DishLetter != "B" {
		t.Errorf("DishLetter = %q, want B", c.DishLetter)
	}
	if c.User != "Bob" {
		t.Errorf("User = %q, want Bob", c.User)
	}

	if r := op.Prepare(ctx, PrepareRequest{RawCode: "ABC123", User: "Bob"}); !errors.Is(r.Err, ErrAlreadyPrepared) {
		t.Errorf("second prepare: Err = %v, want ErrAlreadyPrepared", r.Err)
	}
}

func TestOperationsLog(t *testing.T) {
	ctx := context.Background()
	_, op := newTestOperator(nil)

	op.ProcessScan(ctx, ScanRequest{RawCode: "ABC123", Operation: kitchen, User: "Alice"})
	op.ProcessScan(ctx, ScanRequest{RawCode: "ABC123", Operation: kitchen, User: "Alice"})
	op.ProcessScan(ctx, ScanRequest{RawCode: "A", Operation: kitchen, User: "Alice"})

	log := op.OperationsLog()
	if len(log) != 3 {
		t.Fatalf("log length = %d, want 3", len(log))
	}
	if !log[0].Success || log[1].Success || log[2].Success {
		t.Errorf("unexpected success flags: %+v", log)
	}
	if log[1].Error == "" {
		t.Error("expected an error message on the failed entry")
	}
}

func TestProcessScanPublishes(t *testing.T) {
	ctx := context.Background()
	pub := NewMockPublisher()
	_, op := newTestOperator(pub)

	op.ProcessScan(ctx, ScanRequest{RawCode: "ABC123", Operation: kitchen, User: "Alice"})
	op.ProcessScan(ctx, ScanRequest{RawCode: "ABC123", Operation: kitchen, User: "Alice"})
	op.Prepare(ctx, PrepareRequest{RawCode: "ABC123", User: "Alice"})

	events := pub.Events()
	if len(events) != 2 {
		t.Fatalf("published %d events, want 2", len(events))
	}

	var evt event.BowlScannedEvent
	if err := json.Unmarshal(events[1].Data, &evt); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if events[1].Topic != event.BowlScansTopic {
		t.Errorf("Topic = %q", events[1].Topic)
	}
	if evt.NewStatus != "prepared" || evt.PreviousStatus != "active" {
		t.Errorf("status change = %s -> %s", evt.PreviousStatus, evt.NewStatus)
	}
	if evt.ScanID == "" {
		t.Error("expected a scan ID")
	}
}

func TestProcessScanPublishFailure(t *testing.T) {
	ctx := context.Background()
	pub := NewMockPublisher()
	pub.PublishFunc = func(ctx context.Context, topic string, data []byte) error {
		return errors.New("broker down")
	}
	registry, op := newTestOperator(pub)

	result := op.ProcessScan(ctx, ScanRequest{RawCode: "ABC123", Operation: kitchen, User: "Alice"})
	if !result.Success {
		t.Fatalf("scan should succeed when publishing fails: %v", result.Err)
	}
	if registry.Count() != 1 {
		t.Errorf("Count() = %d, want 1", registry.Count())
	}
}
