package bowl

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/bowltrack/pkg/enums/bowlcolor"
	"github.com/appetiteclub/bowltrack/pkg/enums/bowlstatus"
	"github.com/appetiteclub/bowltrack/pkg/enums/scantype"
	"github.com/google/uuid"
)

// CustomerSeparator joins the customer names of a conflicted bowl.
const CustomerSeparator = ", "

var (
	codePattern = regexp.MustCompile(`^[A-Z0-9]{3,10}$`)

	// Host markers printed on bowl labels; the code is the last path segment.
	knownHosts = []string{"VYT.TO/", "VYTAL.ORG/"}
)

// NormalizeCode extracts the bowl code from a scanned label or URL.
// NormalizeCode(NormalizeCode(x)) == NormalizeCode(x) for every input.
func NormalizeCode(raw string) string {
	code := strings.ToUpper(strings.TrimSpace(raw))
	for _, host := range knownHosts {
		if i := strings.Index(code, host); i >= 0 {
			return trailingSegment(code[i+len(host):])
		}
	}
	if strings.HasPrefix(code, "HTTP") {
		return trailingSegment(code)
	}
	return code
}

func trailingSegment(s string) string {
	s = strings.TrimRight(s, "/")
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(s)
}

// ValidCode reports whether code is a normalized bowl code.
func ValidCode(code string) bool {
	return codePattern.MatchString(code)
}

func normalizeDishLetter(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Container is a single issue of a physical bowl. A bowl that comes back from
// a customer and is issued again gets a new Container with the same Code.
type Container struct {
	Code       string
	DishLetter string
	User       string
	Company    string
	Customer   string
	Status     bowlstatus.Status
	Color      bowlcolor.Color
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func newContainer(code, user string, now time.Time) *Container {
	return &Container{
		Code:      code,
		User:      user,
		Status:    bowlstatus.Statuses.Active,
		Color:     bowlcolor.Colors.Black,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Customers splits a conflicted customer list back into names.
func (c Container) Customers() []string {
	return splitCustomers(c.Customer)
}

func (c Container) IsAssigned() bool {
	return c.Customer != ""
}

func splitCustomers(joined string) []string {
	if strings.TrimSpace(joined) == "" {
		return nil
	}
	var names []string
	for _, part := range strings.Split(joined, CustomerSeparator) {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// ContainerRecord is the serializable form of a Container.
type ContainerRecord struct {
	BowlCode   string    `json:"bowl_code" bson:"bowl_code"`
	DishLetter string    `json:"dish_letter" bson:"dish_letter"`
	User       string    `json:"user" bson:"user"`
	Company    string    `json:"company" bson:"company"`
	Customer   string    `json:"customer" bson:"customer"`
	Status     string    `json:"status" bson:"status"`
	Color      string    `json:"color" bson:"color"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" bson:"updated_at"`
}

func (c Container) Record() ContainerRecord {
	return ContainerRecord{
		BowlCode:   c.Code,
		DishLetter: c.DishLetter,
		User:       c.User,
		Company:    c.Company,
		Customer:   c.Customer,
		Status:     c.Status.Code(),
		Color:      c.Color.Code(),
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

// ContainerFromRecord rebuilds a Container. Empty status and color default to
// active and black, unknown values are rejected.
func ContainerFromRecord(r ContainerRecord) (Container, error) {
	code := NormalizeCode(r.BowlCode)
	if !ValidCode(code) {
		return Container{}, fmt.Errorf("bowl code %q: %w", r.BowlCode, ErrInvalidFormat)
	}

	status := bowlstatus.Statuses.Active
	if strings.TrimSpace(r.Status) != "" {
		s := bowlstatus.ByName(r.Status)
		if s == nil {
			return Container{}, fmt.Errorf("bowl %s status %q: %w", code, r.Status, ErrInvalidFormat)
		}
		status = *s
	}

	color := bowlcolor.Colors.Black
	if strings.TrimSpace(r.Color) != "" {
		c := bowlcolor.ByName(r.Color)
		if c == nil {
			return Container{}, fmt.Errorf("bowl %s color %q: %w", code, r.Color, ErrInvalidFormat)
		}
		color = *c
	}

	return Container{
		Code:       code,
		DishLetter: normalizeDishLetter(r.DishLetter),
		User:       strings.TrimSpace(r.User),
		Company:    strings.TrimSpace(r.Company),
		Customer:   strings.TrimSpace(r.Customer),
		Status:     status,
		Color:      color,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}, nil
}

// ScanEvent is an entry of the append-only scan history.
type ScanEvent struct {
	ID        uuid.UUID
	Code      string
	Operation scantype.Operation
	User      string
	Timestamp time.Time
}

func newScanEvent(code string, op scantype.Operation, user string, at time.Time) ScanEvent {
	return ScanEvent{
		ID:        apt.GenerateNewID(),
		Code:      code,
		Operation: op,
		User:      user,
		Timestamp: at,
	}
}

// ScanEventRecord is the serializable form of a ScanEvent.
type ScanEventRecord struct {
	ID        string    `json:"id,omitempty" bson:"id,omitempty"`
	BowlCode  string    `json:"bowl_code" bson:"bowl_code"`
	Operation string    `json:"operation" bson:"operation"`
	User      string    `json:"user" bson:"user"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

func (e ScanEvent) Record() ScanEventRecord {
	return ScanEventRecord{
		ID:        e.ID.String(),
		BowlCode:  e.Code,
		Operation: e.Operation.Code(),
		User:      e.User,
		Timestamp: e.Timestamp,
	}
}

// ScanEventFromRecord rebuilds a ScanEvent. Records written before events
// carried IDs get a fresh one.
func ScanEventFromRecord(r ScanEventRecord) (ScanEvent, error) {
	op := scantype.ByName(r.Operation)
	if op == nil {
		return ScanEvent{}, fmt.Errorf("scan operation %q: %w", r.Operation, ErrInvalidFormat)
	}

	id, err := uuid.Parse(r.ID)
	if err != nil {
		id = apt.GenerateNewID()
	}

	return ScanEvent{
		ID:        id,
		Code:      NormalizeCode(r.BowlCode),
		Operation: *op,
		User:      strings.TrimSpace(r.User),
		Timestamp: r.Timestamp,
	}, nil
}

// Snapshot is everything the registry needs to be rebuilt after a restart.
type Snapshot struct {
	Bowls       []ContainerRecord `json:"bowls"`
	ScanHistory []ScanEventRecord `json:"scan_history"`
	LastSaved   time.Time         `json:"last_saved"`
}
