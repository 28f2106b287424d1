package bowl

import (
	"errors"
	"testing"
	"time"

	"github.com/appetiteclub/bowltrack/pkg/enums/bowlcolor"
	"github.com/appetiteclub/bowltrack/pkg/enums/bowlstatus"
	"github.com/appetiteclub/bowltrack/pkg/enums/scantype"
)

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "plainCode", raw: "abc123", want: "ABC123"},
		{name: "surroundingSpaces", raw: "  xyz999 \n", want: "XYZ999"},
		{name: "shortHostURL", raw: "https://vyt.to/abc123", want: "ABC123"},
		{name: "hostWithoutScheme", raw: "VYT.TO/ABC123", want: "ABC123"},
		{name: "longHostURL", raw: "https://app.vytal.org/bowls/q7w8e9", want: "Q7W8E9"},
		{name: "otherURLTrailingSlash", raw: "http://example.com/path/ZZZ111/", want: "ZZZ111"},
		{name: "empty", raw: "", want: ""},
		{name: "invalidKept", raw: "ab-1", want: "AB-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeCode(tt.raw)
			if got != tt.want {
				t.Errorf("NormalizeCode(%q) = %q, want %q", tt.raw, got, tt.want)
			}
			if again := NormalizeCode(got); again != got {
				t.Errorf("NormalizeCode not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestValidCode(t *testing.T) {
	tests := []struct {
		name string
		code string
		want bool
	}{
		{name: "sixChars", code: "ABC123", want: true},
		{name: "minLength", code: "AB1", want: true},
		{name: "maxLength", code: "ABCDE12345", want: true},
		{name: "tooShort", code: "AB", want: false},
		{name: "tooLong", code: "ABCDE123456", want: false},
		{name: "lowerCase", code: "abc123", want: false},
		{name: "symbol", code: "ABC-12", want: false},
		{name: "empty", code: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidCode(tt.code); got != tt.want {
				t.Errorf("ValidCode(%q) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestContainerCustomers(t *testing.T) {
	tests := []struct {
		name     string
		customer string
		want     []string
	}{
		{name: "unassigned", customer: "", want: nil},
		{name: "single", customer: "Bob", want: []string{"Bob"}},
		{name: "joined", customer: "Bob, Carol", want: []string{"Bob", "Carol"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Container{Customer: tt.customer}
			got := c.Customers()
			if len(got) != len(tt.want) {
				t.Fatalf("Customers() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Customers()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
			if c.IsAssigned() != (tt.customer != "") {
				t.Errorf("IsAssigned() = %v", c.IsAssigned())
			}
		})
	}
}

func TestContainerFromRecord(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		record     ContainerRecord
		wantErr    error
		wantStatus bowlstatus.Status
		wantColor  bowlcolor.Color
	}{
		{
			name:       "defaultsStatusAndColor",
			record:     ContainerRecord{BowlCode: "abc123", CreatedAt: now},
			wantStatus: bowlstatus.Statuses.Active,
			wantColor:  bowlcolor.Colors.Black,
		},
		{
			name:       "explicitValues",
			record:     ContainerRecord{BowlCode: "ABC123", Status: "prepared", Color: "RED"},
			wantStatus: bowlstatus.Statuses.Prepared,
			wantColor:  bowlcolor.Colors.Red,
		},
		{
			name:    "badCode",
			record:  ContainerRecord{BowlCode: "x"},
			wantErr: ErrInvalidFormat,
		},
		{
			name:    "badStatus",
			record:  ContainerRecord{BowlCode: "ABC123", Status: "lost"},
			wantErr: ErrInvalidFormat,
		},
		{
			name:    "badColor",
			record:  ContainerRecord{BowlCode: "ABC123", Color: "blue"},
			wantErr: ErrInvalidFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ContainerFromRecord(tt.record)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if c.Status != tt.wantStatus {
				t.Errorf("Status = %v, want %v", c.Status, tt.wantStatus)
			}
			if c.Color != tt.wantColor {
				t.Errorf("Color = %v, want %v", c.Color, tt.wantColor)
			}
			if c.Code != NormalizeCode(tt.record.BowlCode) {
				t.Errorf("Code = %q", c.Code)
			}
		})
	}
}

func TestScanEventFromRecord(t *testing.T) {
	t.Run("keepsID", func(t *testing.T) {
		e := newScanEvent("ABC123", scantype.Operations.Kitchen, "Alice", testStart)
		got, err := ScanEventFromRecord(e.Record())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.ID != e.ID {
			t.Errorf("ID = %v, want %v", got.ID, e.ID)
		}
	})

	t.Run("generatesMissingID", func(t *testing.T) {
		got, err := ScanEventFromRecord(ScanEventRecord{BowlCode: "ABC123", Operation: "return"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.ID.String() == "00000000-0000-0000-0000-000000000000" {
			t.Error("expected a generated ID")
		}
	})

	t.Run("unknownOperation", func(t *testing.T) {
		_, err := ScanEventFromRecord(ScanEventRecord{BowlCode: "ABC123", Operation: "wash"})
		if !errors.Is(err, ErrInvalidFormat) {
			t.Errorf("error = %v, want ErrInvalidFormat", err)
		}
	})
}

func TestRecordError(t *testing.T) {
	err := RecordError{Code: "ABC123", Err: ErrNoActiveContainer}
	if err.Error() != "ABC123: no active bowl" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, ErrNoActiveContainer) {
		t.Error("expected errors.Is to match the wrapped sentinel")
	}

	bare := RecordError{Err: ErrMissingField}
	if bare.Error() != "missing field" {
		t.Errorf("Error() = %q", bare.Error())
	}
}
