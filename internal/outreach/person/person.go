// Copyright (c) 2026 Harvest. All rights reserved.
// Author: engineering@harvest.app

/*
Package person implements the records of individuals reached during outreach.

A person row always hangs off one outreach report. There is no direct
ownership link to a user: access is derived transitively through the parent
report's owner, so moving a person to another report changes who can see it.

# Spiritual Status

Each person carries a single status classification, one of interested,
accepted, or repented. The value records where the conversation landed, not
a workflow state, so any transition between the three is allowed.
*/
package person

import "time"

// # Status

// Status classifies where an outreach conversation landed.
type Status string

const (
	// StatusInterested marks a person who expressed interest.
	StatusInterested Status = "interested"

	// StatusAccepted marks a person who accepted the message.
	StatusAccepted Status = "accepted"

	// StatusRepented marks a person who repented.
	StatusRepented Status = "repented"
)

// Valid reports whether the status is one of the enumerated values.
func (s Status) Valid() bool {
	return s == StatusInterested || s == StatusAccepted || s == StatusRepented
}

// # Entity

// Person represents an individual reached during an outreach event.
type Person struct {
	ID        string    `json:"id"`
	ReportID  string    `json:"report_id"`
	FullName  string    `json:"full_name"`
	Phone     *string   `json:"phone,omitempty"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Patch carries the mutable fields of a person update. Nil fields are left
// untouched. A non-nil ReportID moves the person to another report, which
// re-triggers the access check against the destination.
type Patch struct {
	ReportID *string `json:"report_id,omitempty"`
	FullName *string `json:"full_name,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Status   *Status `json:"status,omitempty"`
}

// Apply merges the patch into the person.
func (patch Patch) Apply(target *Person) {
	if patch.ReportID != nil {
		target.ReportID = *patch.ReportID
	}
	if patch.FullName != nil {
		target.FullName = *patch.FullName
	}
	if patch.Phone != nil {
		target.Phone = patch.Phone
	}
	if patch.Status != nil {
		target.Status = *patch.Status
	}
}

// # Field Identifiers

// Standardized field names for validation errors and JSON payloads.
const (
	FieldReportID = "report_id"
	FieldFullName = "full_name"
	FieldPhone    = "phone"
	FieldStatus   = "status"
)
