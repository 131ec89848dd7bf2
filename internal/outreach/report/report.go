// Copyright (c) 2026 Harvest. All rights reserved.
// Author: engineering@harvest.app

/*
Package report implements outreach report management.

An outreach report captures one evangelistic event: where it happened, when,
and the aggregate outcome counters (people who heard, expressed interest,
accepted, repented). Every report belongs to exactly one evangelist;
administrators have blanket access.

# Data Model

Reports are rows in the outreach_reports table, keyed by UUID, with a
foreign key to the owning user. People reached during the event are recorded
separately (package person) and reference the report; deleting a report
removes them with it.
*/
package report

import "time"

// # Entity

// Report represents a single logged outreach event with its aggregate
// outcome counters.
type Report struct {
	ID               string    `json:"id"`
	EvangelistID     string    `json:"evangelist_id"`
	OutreachName     string    `json:"outreach_name"`
	Location         string    `json:"location"`
	Date             time.Time `json:"date"`
	PeopleHeard      int       `json:"people_heard"`
	PeopleInterested int       `json:"people_interested"`
	PeopleAccepted   int       `json:"people_accepted"`
	PeopleRepented   int       `json:"people_repented"`
	Notes            string    `json:"notes"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Patch carries the mutable fields of a report update. Nil fields are left
// untouched, so callers can send only what changed.
type Patch struct {
	OutreachName     *string    `json:"outreach_name,omitempty"`
	Location         *string    `json:"location,omitempty"`
	Date             *time.Time `json:"date,omitempty"`
	PeopleHeard      *int       `json:"people_heard,omitempty"`
	PeopleInterested *int       `json:"people_interested,omitempty"`
	PeopleAccepted   *int       `json:"people_accepted,omitempty"`
	PeopleRepented   *int       `json:"people_repented,omitempty"`
	Notes            *string    `json:"notes,omitempty"`
}

// Apply merges the patch into the report. This is the single place that
// enumerates the mutable fields.
func (patch Patch) Apply(target *Report) {
	if patch.OutreachName != nil {
		target.OutreachName = *patch.OutreachName
	}
	if patch.Location != nil {
		target.Location = *patch.Location
	}
	if patch.Date != nil {
		target.Date = *patch.Date
	}
	if patch.PeopleHeard != nil {
		target.PeopleHeard = *patch.PeopleHeard
	}
	if patch.PeopleInterested != nil {
		target.PeopleInterested = *patch.PeopleInterested
	}
	if patch.PeopleAccepted != nil {
		target.PeopleAccepted = *patch.PeopleAccepted
	}
	if patch.PeopleRepented != nil {
		target.PeopleRepented = *patch.PeopleRepented
	}
	if patch.Notes != nil {
		target.Notes = *patch.Notes
	}
}

// # Field Identifiers

// Standardized field names for validation errors and JSON payloads.
const (
	FieldOutreachName     = "outreach_name"
	FieldLocation         = "location"
	FieldDate             = "date"
	FieldPeopleHeard      = "people_heard"
	FieldPeopleInterested = "people_interested"
	FieldPeopleAccepted   = "people_accepted"
	FieldPeopleRepented   = "people_repented"
	FieldNotes            = "notes"
)
