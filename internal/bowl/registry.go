package bowl

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/bowltrack/pkg/enums/bowlcolor"
	"github.com/appetiteclub/bowltrack/pkg/enums/bowlstatus"
)

// ContainerFilter narrows Registry.Filter. Zero fields match everything.
type ContainerFilter struct {
	Status     *bowlstatus.Status
	Color      *bowlcolor.Color
	Company    string
	DishLetter string
	Customer   string
	Limit      int
	Offset     int
}

// Stats counts bowls by status and color.
type Stats struct {
	Total    int            `json:"total"`
	Active   int            `json:"active"`
	Prepared int            `json:"prepared"`
	Returned int            `json:"returned"`
	ByColor  map[string]int `json:"by_color"`
}

// Registry owns the bowls and the scan history. Query methods hand out
// copies; only the Operator and the Reconciler mutate state, under mu.
type Registry struct {
	mu      sync.RWMutex
	bowls   []*Container
	byCode  map[string][]*Container
	history []ScanEvent
	logger  apt.Logger
}

func NewRegistry(logger apt.Logger) *Registry {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Registry{
		byCode: make(map[string][]*Container),
		logger: logger,
	}
}

// RestoreRegistry rebuilds a registry from a snapshot. Any invalid record
// aborts the restore so a damaged file is never half loaded.
func RestoreRegistry(s Snapshot, logger apt.Logger) (*Registry, error) {
	r := NewRegistry(logger)

	for i, rec := range s.Bowls {
		c, err := ContainerFromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("bowls[%d]: %w", i, err)
		}
		r.addLocked(&c)
	}

	for i, rec := range s.ScanHistory {
		e, err := ScanEventFromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("scan_history[%d]: %w", i, err)
		}
		r.history = append(r.history, e)
	}

	r.logger.Debug("registry restored", "bowls", len(r.bowls), "scans", len(r.history))
	return r, nil
}

// Snapshot captures the current state for persistence.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := Snapshot{
		Bowls:       make([]ContainerRecord, 0, len(r.bowls)),
		ScanHistory: make([]ScanEventRecord, 0, len(r.history)),
		LastSaved:   time.Now(),
	}
	for _, c := range r.bowls {
		s.Bowls = append(s.Bowls, c.Record())
	}
	for _, e := range r.history {
		s.ScanHistory = append(s.ScanHistory, e.Record())
	}
	return s
}

func (r *Registry) addLocked(c *Container) {
	r.bowls = append(r.bowls, c)
	r.byCode[c.Code] = append(r.byCode[c.Code], c)
}

// currentLocked returns the latest issue of a bowl code.
func (r *Registry) currentLocked(code string) *Container {
	issues := r.byCode[code]
	if len(issues) == 0 {
		return nil
	}
	return issues[len(issues)-1]
}

func (r *Registry) activeLocked() []*Container {
	var active []*Container
	for _, c := range r.bowls {
		if c.Status == bowlstatus.Statuses.Active {
			active = append(active, c)
		}
	}
	return active
}

func (r *Registry) appendHistoryLocked(e ScanEvent) {
	r.history = append(r.history, e)
}

func copyAll(src []*Container) []Container {
	out := make([]Container, 0, len(src))
	for _, c := range src {
		out = append(out, *c)
	}
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bowls)
}

// All returns every bowl issue in insertion order.
func (r *Registry) All() []Container {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return copyAll(r.bowls)
}

func (r *Registry) Active() []Container {
	return r.ByStatus(bowlstatus.Statuses.Active)
}

func (r *Registry) ByStatus(status bowlstatus.Status) []Container {
	return r.Filter(ContainerFilter{Status: &status})
}

// Find returns every issue of a bowl code, oldest first.
func (r *Registry) Find(code string) []Container {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return copyAll(r.byCode[NormalizeCode(code)])
}

// Current returns the latest issue of a bowl code.
func (r *Registry) Current(code string) (Container, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c := r.currentLocked(NormalizeCode(code))
	if c == nil {
		return Container{}, false
	}
	return *c, true
}

func (r *Registry) Filter(filter ContainerFilter) []Container {
	r.mu.RLock()
	defer r.mu.RUnlock()

	company := strings.TrimSpace(filter.Company)
	dish := normalizeDishLetter(filter.DishLetter)
	customer := strings.TrimSpace(filter.Customer)

	var out []Container
	skipped := 0
	for _, c := range r.bowls {
		if filter.Status != nil && c.Status != *filter.Status {
			continue
		}
		if filter.Color != nil && c.Color != *filter.Color {
			continue
		}
		if company != "" && c.Company != company {
			continue
		}
		if dish != "" && c.DishLetter != dish {
			continue
		}
		if customer != "" && !slices.Contains(c.Customers(), customer) {
			continue
		}
		if skipped < filter.Offset {
			skipped++
			continue
		}
		out = append(out, *c)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out
}

// History returns the scan history, oldest first.
func (r *Registry) History() []ScanEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.history)
}

func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := Stats{
		Total:   len(r.bowls),
		ByColor: make(map[string]int),
	}
	for _, c := range r.bowls {
		switch c.Status {
		case bowlstatus.Statuses.Active:
			s.Active++
		case bowlstatus.Statuses.Prepared:
			s.Prepared++
		case bowlstatus.Statuses.Returned:
			s.Returned++
		}
		s.ByColor[c.Color.Code()]++
	}
	return s
}
