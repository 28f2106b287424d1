package bowl

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/bowltrack/pkg/enums/bowlstatus"
	"github.com/appetiteclub/bowltrack/pkg/enums/scantype"
	"github.com/appetiteclub/bowltrack/pkg/event"
)

type ScanRequest struct {
	RawCode   string
	Operation scantype.Operation
	User      string
}

// PrepareRequest confirms that the kitchen filled an issued bowl.
type PrepareRequest struct {
	RawCode    string
	User       string
	DishLetter string
}

// ScanResult is the outcome of a single scan. Err wraps one of the package
// sentinel errors when Success is false.
type ScanResult struct {
	Success bool
	Message string
	Code    string
	Err     error
}

// OperationLogEntry records every attempted operation, successful or not.
type OperationLogEntry struct {
	Code      string    `json:"bowl_code"`
	Operation string    `json:"operation"`
	User      string    `json:"user"`
	Timestamp time.Time `json:"timestamp"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
}

// Operator applies scans to the registry.
type Operator struct {
	registry  *Registry
	publisher events.Publisher
	logger    apt.Logger
	now       func() time.Time

	mu     sync.Mutex
	opsLog []OperationLogEntry
}

// NewOperator creates an Operator. publisher may be nil.
func NewOperator(registry *Registry, publisher events.Publisher, logger apt.Logger) *Operator {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Operator{
		registry:  registry,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (o *Operator) ProcessScan(ctx context.Context, req ScanRequest) ScanResult {
	code := NormalizeCode(req.RawCode)
	user := strings.TrimSpace(req.User)

	result, evt := o.processScan(code, req.Operation, user)
	o.record(code, req.Operation.Code(), user, result)

	if result.Success {
		o.logger.Info("bowl scanned", "code", code, "operation", req.Operation.Code(), "user", user)
		o.publish(ctx, evt)
	} else {
		o.logger.Debug("scan rejected", "code", code, "operation", req.Operation.Code(), "error", result.Err)
	}
	return result
}

func (o *Operator) processScan(code string, op scantype.Operation, user string) (ScanResult, *event.BowlScannedEvent) {
	if user == "" {
		return failure(code, ErrMissingField, "Please enter user name"), nil
	}
	if !ValidCode(code) {
		return failure(code, ErrInvalidFormat, "Invalid bowl code format"), nil
	}

	o.registry.mu.Lock()
	defer o.registry.mu.Unlock()

	now := o.now()
	current := o.registry.currentLocked(code)

	switch op {
	case scantype.Operations.Kitchen:
		if current != nil && current.Status == bowlstatus.Statuses.Active {
			return failure(code, ErrDuplicateActive, "Bowl %s is already ACTIVE (scanned by %s)", code, current.User), nil
		}

		previous := ""
		if current != nil {
			previous = current.Status.Code()
		}

		c := newContainer(code, user, now)
		scan := newScanEvent(code, op, user, now)
		o.registry.addLocked(c)
		o.registry.appendHistoryLocked(scan)

		return success(code, "Bowl %s marked as ACTIVE by %s", code, user),
			scannedEvent(c, scan, previous)

	case scantype.Operations.Return:
		if current == nil {
			return failure(code, ErrNotFound, "Cannot return bowl %s - not found", code), nil
		}

		switch current.Status {
		case bowlstatus.Statuses.Returned:
			return failure(code, ErrAlreadyReturned, "Bowl %s is already RETURNED", code), nil
		case bowlstatus.Statuses.Active:
			return failure(code, ErrNotPrepared, "Bowl %s is ACTIVE but not prepared yet", code), nil
		case bowlstatus.Statuses.Prepared:
			current.Status = bowlstatus.Statuses.Returned
			current.UpdatedAt = now
			current.User = user
			scan := newScanEvent(code, op, user, now)
			o.registry.appendHistoryLocked(scan)

			return success(code, "Bowl %s marked as RETURNED by %s", code, user),
				scannedEvent(current, scan, bowlstatus.Statuses.Prepared.Code())
		}
		return failure(code, ErrNotFound, "Cannot return bowl %s - not found in prepared bowls", code), nil

	default:
		return failure(code, ErrInvalidFormat, "Unknown operation %q", op.Code()), nil
	}
}

// Prepare promotes an issued bowl from active to prepared, the only way a
// bowl becomes returnable.
func (o *Operator) Prepare(ctx context.Context, req PrepareRequest) ScanResult {
	code := NormalizeCode(req.RawCode)
	user := strings.TrimSpace(req.User)
	op := scantype.Operations.Prepare

	result, evt := o.prepare(code, user, normalizeDishLetter(req.DishLetter))
	o.record(code, op.Code(), user, result)

	if result.Success {
		o.logger.Info("bowl prepared", "code", code, "user", user)
		o.publish(ctx, evt)
	} else {
		o.logger.Debug("prepare rejected", "code", code, "error", result.Err)
	}
	return result
}

func (o *Operator) prepare(code, user, dish string) (ScanResult, *event.BowlScannedEvent) {
	if user == "" {
		return failure(code, ErrMissingField, "Please enter user name"), nil
	}
	if !ValidCode(code) {
		return failure(code, ErrInvalidFormat, "Invalid bowl code format"), nil
	}

	o.registry.mu.Lock()
	defer o.registry.mu.Unlock()

	current := o.registry.currentLocked(code)
	if current == nil {
		return failure(code, ErrNotFound, "Cannot prepare bowl %s - not found", code), nil
	}

	switch current.Status {
	case bowlstatus.Statuses.Prepared:
		return failure(code, ErrAlreadyPrepared, "Bowl %s is already PREPARED", code), nil
	case bowlstatus.Statuses.Returned:
		return failure(code, ErrAlreadyReturned, "Bowl %s is already RETURNED", code), nil
	}

	now := o.now()
	current.Status = bowlstatus.Statuses.Prepared
	current.UpdatedAt = now
	current.User = user
	if dish != "" {
		current.DishLetter = dish
	}

	scan := newScanEvent(code, scantype.Operations.Prepare, user, now)
	o.registry.appendHistoryLocked(scan)

	return success(code, "Bowl %s marked as PREPARED by %s", code, user),
		scannedEvent(current, scan, bowlstatus.Statuses.Active.Code())
}

// OperationsLog returns a copy of the audit log.
func (o *Operator) OperationsLog() []OperationLogEntry {
	o.mu.Lock()
	defer o.mu.Unlock()
	return slices.Clone(o.opsLog)
}

func (o *Operator) record(code, op, user string, result ScanResult) {
	entry := OperationLogEntry{
		Code:      code,
		Operation: op,
		User:      user,
		Timestamp: o.now(),
		Success:   result.Success,
	}
	if result.Err != nil {
		entry.Error = result.Err.Error()
	}

	o.mu.Lock()
	o.opsLog = append(o.opsLog, entry)
	o.mu.Unlock()
}

func (o *Operator) publish(ctx context.Context, evt *event.BowlScannedEvent) {
	if o.publisher == nil || evt == nil {
		return
	}

	data, err := json.Marshal(evt)
	if err != nil {
		o.logger.Errorf("Failed to marshal %s event: %v", evt.EventType, err)
		return
	}
	if err := o.publisher.Publish(ctx, event.BowlScansTopic, data); err != nil {
		o.logger.Errorf("Failed to publish %s event: %v", evt.EventType, err)
	}
}

func scannedEvent(c *Container, scan ScanEvent, previous string) *event.BowlScannedEvent {
	return &event.BowlScannedEvent{
		BowlEventMetadata: event.BowlEventMetadata{
			EventType:  event.EventBowlScanned,
			OccurredAt: scan.Timestamp.UTC(),
			BowlCode:   c.Code,
		},
		ScanID:         scan.ID.String(),
		Operation:      scan.Operation.Code(),
		User:           c.User,
		NewStatus:      c.Status.Code(),
		PreviousStatus: previous,
		DishLetter:     c.DishLetter,
	}
}

func success(code, format string, args ...interface{}) ScanResult {
	return ScanResult{
		Success: true,
		Message: fmt.Sprintf(format, args...),
		Code:    code,
	}
}

func failure(code string, kind error, format string, args ...interface{}) ScanResult {
	msg := fmt.Sprintf(format, args...)
	return ScanResult{
		Success: false,
		Message: msg,
		Code:    code,
		Err:     fmt.Errorf("%s: %w", msg, kind),
	}
}
