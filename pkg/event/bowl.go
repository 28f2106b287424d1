package event

import "time"

const (
	BowlScansTopic       = "bowls.scans"
	BowlAssignmentsTopic = "bowls.assignments"

	EventBowlScanned  = "bowl.scanned"
	EventBowlAssigned = "bowl.assigned"
)

type BowlEventMetadata struct {
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	BowlCode   string    `json:"bowl_code"`
}

type BowlScannedEvent struct {
	BowlEventMetadata
	ScanID         string `json:"scan_id"`
	Operation      string `json:"operation"`
	User           string `json:"user"`
	NewStatus      string `json:"new_status"`
	PreviousStatus string `json:"previous_status,omitempty"`
	DishLetter     string `json:"dish_letter,omitempty"`
}

type BowlAssignedEvent struct {
	BowlEventMetadata
	Company    string `json:"company"`
	Customer   string `json:"customer"`
	DishLetter string `json:"dish_letter"`
	Color      string `json:"color"`
	Conflict   bool   `json:"conflict"`
}
