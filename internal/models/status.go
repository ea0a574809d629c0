package models

import "time"

// Outcome of a single operation against a single object on one destination.
const (
	StatusSuccessful   = "Successful"
	StatusSkipped      = "Skipped"
	StatusFailed       = "Failed"
	StatusNotSupported = "NotSupported"
)

// OperationStatus is the uniform record every operation emits, one per
// (object, destination) pair. Status is set exactly once, when the record
// is created.
type OperationStatus struct {
	SourceServer      string    `json:"source_server,omitempty"`
	DestinationServer string    `json:"destination_server,omitempty"`
	Name              string    `json:"name"`
	Type              string    `json:"type"`
	Status            string    `json:"status"`
	Notes             string    `json:"notes,omitempty"`
	DateTime          time.Time `json:"datetime"`
}

// NewStatus builds a finished status record stamped with the current time.
func NewStatus(source, destination, name, objType, status, notes string) OperationStatus {
	return OperationStatus{
		SourceServer:      source,
		DestinationServer: destination,
		Name:              name,
		Type:              objType,
		Status:            status,
		Notes:             notes,
		DateTime:          time.Now(),
	}
}

// Report accumulates status records in emission order.
type Report struct {
	Statuses []OperationStatus `json:"statuses"`
	Warnings []string          `json:"warnings,omitempty"`
}

// Append adds records to the report, preserving order.
func (r *Report) Append(statuses ...OperationStatus) {
	r.Statuses = append(r.Statuses, statuses...)
}

// Warn records a run-level warning not tied to a single object.
func (r *Report) Warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// Counts returns the number of records per status value.
func (r *Report) Counts() map[string]int {
	counts := make(map[string]int)
	for _, st := range r.Statuses {
		counts[st.Status]++
	}
	return counts
}
