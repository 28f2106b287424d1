package bowl

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/bowltrack/pkg/enums/bowlcolor"
	"github.com/appetiteclub/bowltrack/pkg/event"
)

// DateLayout is the assigned_date format of assignment feeds.
const DateLayout = "2006-01-02"

// AssignmentRecord is one row of a customer assignment feed.
type AssignmentRecord struct {
	BowlCode     string `json:"bowl_code"`
	Company      string `json:"company"`
	Customer     string `json:"customer"`
	DishLetter   string `json:"dish_letter"`
	AssignedDate string `json:"assigned_date,omitempty"`
}

func (r AssignmentRecord) normalized() AssignmentRecord {
	return AssignmentRecord{
		BowlCode:     NormalizeCode(r.BowlCode),
		Company:      strings.TrimSpace(r.Company),
		Customer:     strings.TrimSpace(r.Customer),
		DishLetter:   normalizeDishLetter(r.DishLetter),
		AssignedDate: strings.TrimSpace(r.AssignedDate),
	}
}

// DecodeAssignments parses a JSON array of assignment objects. Scalar values
// are coerced to strings the way spreadsheet exports tend to need. A payload
// that is not an array fails with ErrInvalidFormat; elements that are not
// objects are reported per index and skipped.
func DecodeAssignments(data []byte) ([]AssignmentRecord, []RecordError, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, nil, fmt.Errorf("assignment batch: %v: %w", err, ErrInvalidFormat)
	}
	if items == nil {
		return nil, nil, fmt.Errorf("assignment batch is null: %w", ErrInvalidFormat)
	}

	records := make([]AssignmentRecord, 0, len(items))
	var errs []RecordError
	for i, raw := range items {
		var fields map[string]interface{}
		if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
			errs = append(errs, RecordError{Err: fmt.Errorf("item %d is not an object: %w", i, ErrInvalidFormat)})
			continue
		}
		records = append(records, AssignmentRecord{
			BowlCode:     stringField(fields, "bowl_code"),
			Company:      stringField(fields, "company"),
			Customer:     stringField(fields, "customer"),
			DishLetter:   stringField(fields, "dish_letter"),
			AssignedDate: stringField(fields, "assigned_date"),
		})
	}
	return records, errs, nil
}

func stringField(fields map[string]interface{}, key string) string {
	switch v := fields[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// FillAssignedDates stamps records without an assigned_date with today.
func FillAssignedDates(records []AssignmentRecord, today time.Time) []AssignmentRecord {
	out := slices.Clone(records)
	stamp := today.Format(DateLayout)
	for i := range out {
		if strings.TrimSpace(out[i].AssignedDate) == "" {
			out[i].AssignedDate = stamp
		}
	}
	return out
}

// Assignment is a single-customer (green) outcome.
type Assignment struct {
	Code       string
	Company    string
	Customer   string
	DishLetter string
	Color      bowlcolor.Color
}

// Conflict is a multiple-customer (red) outcome. Peers lists the other bowl
// codes of the same dish letter and company that were recolored.
type Conflict struct {
	Code       string
	Company    string
	Customers  []string
	DishLetter string
	Color      bowlcolor.Color
	Peers      []string
}

// Customer returns the joined customer list stored on the bowls.
func (c Conflict) Customer() string {
	return strings.Join(c.Customers, CustomerSeparator)
}

type ReconciliationResult struct {
	Assigned       []Assignment
	Conflicts      []Conflict
	Errors         []RecordError
	ProcessedCount int
}

// ProcessingLogEntry summarises one reconciliation batch.
type ProcessingLogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Processed int       `json:"processed"`
	Assigned  int       `json:"assigned"`
	Conflicts int       `json:"conflicts"`
	Errors    int       `json:"errors"`
}

// Reconciler applies customer assignment feeds to active bowls.
type Reconciler struct {
	registry  *Registry
	publisher events.Publisher
	logger    apt.Logger
	now       func() time.Time

	mu  sync.Mutex
	log []ProcessingLogEntry
}

// NewReconciler creates a Reconciler. publisher may be nil.
func NewReconciler(registry *Registry, publisher events.Publisher, logger apt.Logger) *Reconciler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Reconciler{
		registry:  registry,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// ReconcileJSON decodes a feed and reconciles it. Only a malformed batch
// returns an error; bad items land in the result.
func (r *Reconciler) ReconcileJSON(ctx context.Context, data []byte) (ReconciliationResult, error) {
	records, decodeErrs, err := DecodeAssignments(data)
	if err != nil {
		return ReconciliationResult{}, err
	}

	result := r.Reconcile(ctx, records)
	result.Errors = append(decodeErrs, result.Errors...)
	return result, nil
}

// Reconcile applies records in order. With no peers or one peer under the same
// dish letter and company the record is a green assignment, unless the peer
// names another customer. Two or more peers make it a red conflict. Conflict
// detection reads live state, so
// an earlier record in the batch can turn a later one into a conflict.
func (r *Reconciler) Reconcile(ctx context.Context, records []AssignmentRecord) ReconciliationResult {
	var result ReconciliationResult

	for _, rec := range records {
		assigned, conflict, err := r.apply(rec.normalized())
		if err != nil {
			result.Errors = append(result.Errors, *err)
			continue
		}

		if conflict != nil {
			result.Conflicts = append(result.Conflicts, *conflict)
			r.publishConflict(ctx, *conflict)
		} else {
			result.Assigned = append(result.Assigned, *assigned)
			r.publishAssignment(ctx, *assigned)
		}
		result.ProcessedCount++
	}

	entry := ProcessingLogEntry{
		Timestamp: r.now(),
		Processed: result.ProcessedCount,
		Assigned:  len(result.Assigned),
		Conflicts: len(result.Conflicts),
		Errors:    len(result.Errors),
	}
	r.mu.Lock()
	r.log = append(r.log, entry)
	r.mu.Unlock()

	r.logger.Info("assignments reconciled",
		"processed", entry.Processed,
		"assigned", entry.Assigned,
		"conflicts", entry.Conflicts,
		"errors", entry.Errors,
	)
	return result
}

// apply resolves one record. Nothing is written until the decision is made.
func (r *Reconciler) apply(rec AssignmentRecord) (assigned *Assignment, conflict *Conflict, recErr *RecordError) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("assignment panic recovered", "code", rec.BowlCode, "panic", p)
			assigned, conflict = nil, nil
			recErr = &RecordError{Code: rec.BowlCode, Err: fmt.Errorf("%v: %w", p, ErrProcessing)}
		}
	}()

	switch {
	case rec.BowlCode == "":
		return nil, nil, &RecordError{Err: fmt.Errorf("bowl code: %w", ErrMissingField)}
	case rec.Company == "" || rec.Customer == "":
		return nil, nil, &RecordError{Code: rec.BowlCode, Err: fmt.Errorf("company/customer: %w", ErrMissingField)}
	}

	r.registry.mu.Lock()
	defer r.registry.mu.Unlock()

	active := r.registry.activeLocked()

	var matching, peers []*Container
	for _, c := range active {
		if c.Code == rec.BowlCode {
			matching = append(matching, c)
		}
		if c.DishLetter == rec.DishLetter && c.Company == rec.Company && c.Customer != "" {
			peers = append(peers, c)
		}
	}

	if len(matching) == 0 {
		return nil, nil, &RecordError{Code: rec.BowlCode, Err: ErrNoActiveContainer}
	}

	var customers []string
	for _, p := range peers {
		for _, name := range p.Customers() {
			if !slices.Contains(customers, name) {
				customers = append(customers, name)
			}
		}
	}
	if !slices.Contains(customers, rec.Customer) {
		customers = append(customers, rec.Customer)
	}

	now := r.now()

	// Two or more assigned peers always make the group a conflict, even when
	// they all name the same customer.
	if len(peers) < 2 && len(customers) == 1 {
		green := bowlcolor.Colors.Green
		for _, c := range matching {
			assign(c, rec, rec.Customer, green, now)
		}
		return &Assignment{
			Code:       rec.BowlCode,
			Company:    rec.Company,
			Customer:   rec.Customer,
			DishLetter: rec.DishLetter,
			Color:      green,
		}, nil, nil
	}

	red := bowlcolor.Colors.Red
	joined := strings.Join(customers, CustomerSeparator)
	for _, c := range matching {
		assign(c, rec, joined, red, now)
	}

	var peerCodes []string
	for _, p := range peers {
		if p.Code == rec.BowlCode {
			continue
		}
		p.Customer = joined
		p.Color = red
		p.UpdatedAt = now
		if !slices.Contains(peerCodes, p.Code) {
			peerCodes = append(peerCodes, p.Code)
		}
	}

	return nil, &Conflict{
		Code:       rec.BowlCode,
		Company:    rec.Company,
		Customers:  customers,
		DishLetter: rec.DishLetter,
		Color:      red,
		Peers:      peerCodes,
	}, nil
}

func assign(c *Container, rec AssignmentRecord, customer string, color bowlcolor.Color, now time.Time) {
	c.DishLetter = rec.DishLetter
	c.Company = rec.Company
	c.Customer = customer
	c.Color = color
	c.UpdatedAt = now
}

// ProcessingLog returns a copy of the per-batch summaries.
func (r *Reconciler) ProcessingLog() []ProcessingLogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.log)
}

func (r *Reconciler) publishAssignment(ctx context.Context, a Assignment) {
	r.publish(ctx, event.BowlAssignedEvent{
		BowlEventMetadata: r.metadata(a.Code),
		Company:           a.Company,
		Customer:          a.Customer,
		DishLetter:        a.DishLetter,
		Color:             a.Color.Code(),
	})
}

func (r *Reconciler) publishConflict(ctx context.Context, c Conflict) {
	r.publish(ctx, event.BowlAssignedEvent{
		BowlEventMetadata: r.metadata(c.Code),
		Company:           c.Company,
		Customer:          c.Customer(),
		DishLetter:        c.DishLetter,
		Color:             c.Color.Code(),
		Conflict:          true,
	})
}

func (r *Reconciler) metadata(code string) event.BowlEventMetadata {
	return event.BowlEventMetadata{
		EventType:  event.EventBowlAssigned,
		OccurredAt: r.now().UTC(),
		BowlCode:   code,
	}
}

func (r *Reconciler) publish(ctx context.Context, evt event.BowlAssignedEvent) {
	if r.publisher == nil {
		return
	}

	data, err := json.Marshal(evt)
	if err != nil {
		r.logger.Errorf("Failed to marshal %s event: %v", evt.EventType, err)
		return
	}
	if err := r.publisher.Publish(ctx, event.BowlAssignmentsTopic, data); err != nil {
		r.logger.Errorf("Failed to publish %s event: %v", evt.EventType, err)
	}
}
