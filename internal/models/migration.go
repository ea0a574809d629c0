package models

// MigrationObject describes a single object being considered for migration.
type MigrationObject struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Action string `json:"action"` // "create", "skip_exists", "skip_system"
	Note   string `json:"note,omitempty"`
}

// MigrationPreview holds the results of the export + preflight check.
type MigrationPreview struct {
	SourceID      string                       `json:"source_id"`
	DestinationID string                       `json:"destination_id"`
	Objects       map[string][]MigrationObject `json:"objects"` // category → objects
	Warnings      []string                     `json:"warnings"`
}
