package bowl

import (
	"math"
	"sort"
	"time"

	"github.com/appetiteclub/bowltrack/pkg/enums/scantype"
)

// UserTotal is the number of scans one user made inside a window.
type UserTotal struct {
	User       string `json:"user"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
}

// Window is a half-open time range [From, To).
type Window struct {
	From time.Time
	To   time.Time
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && t.Before(w.To)
}

// OvernightWindow returns the kitchen's night shift that now belongs to:
// 22:00 of the previous day until 10:00. After 10:00 it is the upcoming shift.
func OvernightWindow(now time.Time) Window {
	y, m, d := now.Date()
	loc := now.Location()
	end := time.Date(y, m, d, 10, 0, 0, 0, loc)
	if !now.Before(end) {
		end = end.AddDate(0, 0, 1)
	}
	start := time.Date(end.Year(), end.Month(), end.Day()-1, 22, 0, 0, 0, loc)
	return Window{From: start, To: end}
}

// UserTotals counts history events of op inside w per user, most active first.
func UserTotals(history []ScanEvent, op scantype.Operation, w Window) []UserTotal {
	counts := make(map[string]int)
	total := 0
	for _, e := range history {
		if e.Operation != op || !w.Contains(e.Timestamp) {
			continue
		}
		counts[e.User]++
		total++
	}

	out := make([]UserTotal, 0, len(counts))
	for user, n := range counts {
		out = append(out, UserTotal{
			User:       user,
			Total:      n,
			Percentage: int(math.Round(float64(n) * 100 / float64(total))),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].User < out[j].User
	})
	return out
}
