package bowlstatus

import (
	"strings"
)

type Status struct {
	Name string
}

func (s Status) Code() string {
	return s.Name
}

func (s Status) Label() string {
	if s.Name == "" {
		return ""
	}
	return strings.ToUpper(s.Name[:1]) + s.Name[1:]
}

func (s Status) IsZero() bool {
	return s.Name == ""
}

type Enum struct {
	Active   Status
	Prepared Status
	Returned Status
}

var Statuses = Enum{
	Active:   Status{Name: "active"},
	Prepared: Status{Name: "prepared"},
	Returned: Status{Name: "returned"},
}

var All = []Status{
	Statuses.Active,
	Statuses.Prepared,
	Statuses.Returned,
}

// ByName returns the status for a given name, or nil if not found.
// Matching ignores case and surrounding whitespace.
func ByName(name string) *Status {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, s := range All {
		if s.Name == name {
			return &s
		}
	}
	return nil
}
