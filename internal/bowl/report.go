package bowl

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// maxReportRows caps the detailed list of FormatMissingReport.
const maxReportRows = 10

// Summary renders the reconciliation outcome for the CLI.
func (r ReconciliationResult) Summary() string {
	var b strings.Builder
	b.WriteString("Assignment processing results\n")
	fmt.Fprintf(&b, "  Assigned:           %d bowls\n", len(r.Assigned))
	fmt.Fprintf(&b, "  Multiple customers: %d bowls\n", len(r.Conflicts))
	fmt.Fprintf(&b, "  Errors:             %d\n", len(r.Errors))
	fmt.Fprintf(&b, "  Total processed:    %d\n", r.ProcessedCount)

	for _, c := range r.Conflicts {
		fmt.Fprintf(&b, "  ! %s dish %s (%s): %s\n", c.Code, c.DishLetter, c.Company, c.Customer())
	}
	for _, e := range r.Errors {
		fmt.Fprintf(&b, "  x %s\n", e.Error())
	}
	return b.String()
}

// FormatMissingReport renders an analysis for the CLI, most overdue first.
func FormatMissingReport(r AnalysisResult) string {
	if len(r.Missing) == 0 {
		return "No missing bowls found. All assigned bowls have been returned.\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "MISSING BOWLS REPORT - %s\n", r.ReportDate)
	b.WriteString(strings.Repeat("=", 44) + "\n\n")

	b.WriteString("SUMMARY:\n")
	fmt.Fprintf(&b, "  Total missing:     %d bowls\n", r.Summary.TotalMissing)
	fmt.Fprintf(&b, "  Critical (10+ d):  %d\n", r.Summary.CriticalCases)
	fmt.Fprintf(&b, "  Customers checked: %d\n\n", r.TotalChecked)

	b.WriteString("BY COMPANY:\n")
	for _, company := range sortedKeys(r.Summary.ByCompany) {
		name := company
		if name == "" {
			name = "Unknown Company"
		}
		fmt.Fprintf(&b, "  %s: %d missing\n", name, r.Summary.ByCompany[company])
	}

	b.WriteString("\nBY OVERDUE TIME:\n")
	for _, bucket := range Buckets {
		if n := r.Summary.ByOverdue[bucket]; n > 0 {
			fmt.Fprintf(&b, "  %s: %d bowls\n", bucket, n)
		}
	}

	b.WriteString("\nDETAILED LIST (most critical first):\n")
	b.WriteString(strings.Repeat("=", 50) + "\n")
	for i, m := range r.Missing {
		if i == maxReportRows {
			fmt.Fprintf(&b, "\n... and %d more missing bowls\n", len(r.Missing)-maxReportRows)
			break
		}
		fmt.Fprintf(&b, "\n%d. [%s] %s\n", i+1, severity(m.DaysOverdue), m.Code)
		fmt.Fprintf(&b, "   Customer: %s\n", m.Customer)
		fmt.Fprintf(&b, "   Company: %s | Dish: %s\n", m.Company, m.DishLetter)
		fmt.Fprintf(&b, "   Assigned: %s | Overdue: %d days\n", m.AssignedDate, m.DaysOverdue)
		fmt.Fprintf(&b, "   Last user: %s\n", m.LastUser)
	}

	if alerts := r.UrgentAlerts(); len(alerts) > 0 {
		b.WriteString("\nURGENT ALERTS:\n")
		for _, a := range alerts {
			fmt.Fprintf(&b, "  %s - %s - %d days overdue - %s PRIORITY\n", a.Code, a.Customer, a.DaysOverdue, a.Priority)
		}
	}
	return b.String()
}

func severity(days int) string {
	switch {
	case days > CriticalAfterDays:
		return "CRITICAL"
	case days > 5:
		return "HIGH"
	default:
		return "LOW"
	}
}

func sortedKeys(m map[string]int) []string {
	return slices.Sorted(maps.Keys(m))
}
