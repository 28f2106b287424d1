package bowl

import (
	"fmt"
	"sort"
	"time"

	"github.com/appetiteclub/bowltrack/pkg/enums/bowlstatus"
)

const (
	PriorityHigh   = "HIGH"
	PriorityMedium = "MEDIUM"

	// UrgentAfterDays is the overdue age from which a bowl raises an alert.
	UrgentAfterDays = 7
	// CriticalAfterDays is the age beyond which a bowl counts as critical.
	CriticalAfterDays = 10
)

// Overdue buckets, in display order.
const (
	Bucket1To2   = "1-2 days"
	Bucket3To5   = "3-5 days"
	Bucket6To10  = "6-10 days"
	BucketOver10 = "10+ days"
)

var Buckets = []string{Bucket1To2, Bucket3To5, Bucket6To10, BucketOver10}

// OverdueBucket maps an overdue age (>= 1) to its bucket.
func OverdueBucket(days int) string {
	switch {
	case days <= 2:
		return Bucket1To2
	case days <= 5:
		return Bucket3To5
	case days <= CriticalAfterDays:
		return Bucket6To10
	default:
		return BucketOver10
	}
}

// MissingContainer is an active bowl whose customer should have returned it.
type MissingContainer struct {
	Code         string `json:"bowl_code"`
	Company      string `json:"company"`
	Customer     string `json:"customer_name"`
	DishLetter   string `json:"dish_letter"`
	AssignedDate string `json:"assigned_date"`
	DaysOverdue  int    `json:"days_overdue"`
	LastUser     string `json:"assigned_to"`
}

type OverdueSummary struct {
	TotalMissing  int            `json:"total_missing"`
	ByCompany     map[string]int `json:"by_company"`
	ByOverdue     map[string]int `json:"by_days_overdue"`
	CriticalCases int            `json:"critical_cases"`
}

type AnalysisResult struct {
	Missing      []MissingContainer `json:"missing_bowls"`
	Summary      OverdueSummary     `json:"summary"`
	TotalChecked int                `json:"total_customers_checked"`
	ReportDate   string             `json:"report_date"`
	Errors       []RecordError      `json:"-"`
}

type UrgentAlert struct {
	Code        string `json:"bowl_code"`
	Customer    string `json:"customer"`
	Company     string `json:"company"`
	DaysOverdue int    `json:"days_overdue"`
	Priority    string `json:"priority"`
}

// Analyze cross-references active bowls with an assignment feed. It reads
// only its arguments; pass Registry.Active() for a consistent copy.
func Analyze(active []Container, records []AssignmentRecord, today time.Time) AnalysisResult {
	result := AnalysisResult{
		Summary: OverdueSummary{
			ByCompany: make(map[string]int),
			ByOverdue: make(map[string]int),
		},
		ReportDate: today.Format(DateLayout),
	}

	assignments := make(map[string]AssignmentRecord, len(records))
	for _, raw := range records {
		rec := raw.normalized()
		if rec.BowlCode == "" || rec.Customer == "" {
			result.Errors = append(result.Errors, RecordError{
				Code: rec.BowlCode,
				Err:  fmt.Errorf("bowl code/customer: %w", ErrMissingField),
			})
			continue
		}
		assignments[rec.BowlCode] = rec
	}
	result.TotalChecked = len(assignments)

	for _, c := range active {
		if c.Status != bowlstatus.Statuses.Active {
			continue
		}
		rec, ok := assignments[c.Code]
		if !ok {
			continue
		}

		days, err := daysOverdue(rec.AssignedDate, today)
		if err != nil {
			result.Errors = append(result.Errors, RecordError{Code: c.Code, Err: err})
		}
		if days < 1 {
			continue
		}

		result.Missing = append(result.Missing, MissingContainer{
			Code:         c.Code,
			Company:      rec.Company,
			Customer:     rec.Customer,
			DishLetter:   rec.DishLetter,
			AssignedDate: rec.AssignedDate,
			DaysOverdue:  days,
			LastUser:     c.User,
		})
	}

	sort.SliceStable(result.Missing, func(i, j int) bool {
		return result.Missing[i].DaysOverdue > result.Missing[j].DaysOverdue
	})

	for _, m := range result.Missing {
		result.Summary.ByCompany[m.Company]++
		result.Summary.ByOverdue[OverdueBucket(m.DaysOverdue)]++
		if m.DaysOverdue > CriticalAfterDays {
			result.Summary.CriticalCases++
		}
	}
	result.Summary.TotalMissing = len(result.Missing)

	return result
}

// daysOverdue counts calendar days from assigned to today. An empty date
// means assigned today; an unparsable one counts as one day.
func daysOverdue(assigned string, today time.Time) (int, error) {
	if assigned == "" {
		return 0, nil
	}
	date, err := time.Parse(DateLayout, assigned)
	if err != nil {
		return 1, fmt.Errorf("assigned_date %q: %w", assigned, ErrDateParse)
	}
	return DaysBetween(date, today), nil
}

// DaysBetween returns the whole calendar days from one date to another,
// ignoring time of day and location.
func DaysBetween(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	start := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	end := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours() / 24)
}

// UrgentAlerts lists bowls overdue for a week or more.
func (r AnalysisResult) UrgentAlerts() []UrgentAlert {
	var alerts []UrgentAlert
	for _, m := range r.Missing {
		if m.DaysOverdue < UrgentAfterDays {
			continue
		}
		priority := PriorityMedium
		if m.DaysOverdue > CriticalAfterDays {
			priority = PriorityHigh
		}
		alerts = append(alerts, UrgentAlert{
			Code:        m.Code,
			Customer:    m.Customer,
			Company:     m.Company,
			DaysOverdue: m.DaysOverdue,
			Priority:    priority,
		})
	}
	return alerts
}
