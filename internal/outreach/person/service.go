// Copyright (c) 2026 Harvest. All rights reserved.
// Author: engineering@harvest.app

package person

import (
	"context"

	"github.com/harvestapp/harvest/internal/platform/apperr"
	"github.com/harvestapp/harvest/internal/platform/sec"
	uuidgen "github.com/harvestapp/harvest/pkg/uuid"
)

// # Service

// Service implements the business rules for people records. All access is
// transitive: the caller must own (or be an admin over) the parent report.
type Service struct {
	personRepository Repository
	reportDirectory  ReportDirectory
}

// NewService constructs a person [Service] over the given repository and the
// report ownership directory.
func NewService(repository Repository, reports ReportDirectory) *Service {
	return &Service{personRepository: repository, reportDirectory: reports}
}

// CreateInput holds the data required to record a reached person.
type CreateInput struct {
	ReportID string
	FullName string
	Phone    *string
	Status   Status
}

// requireReportAccess resolves the report's owner and applies the
// owner-or-admin rule. A missing report surfaces as NotFound.
func (service *Service) requireReportAccess(context context.Context, principal *sec.Principal, reportID string) error {
	ownerID, err := service.reportDirectory.OwnerOf(context, reportID)
	if err != nil {
		return err
	}
	if !principal.Owns(ownerID) {
		return apperr.Forbidden("You do not have access to this report")
	}
	return nil
}

// # Operations

/*
ListPeople returns a page of people visible to the principal.

Description: Visibility follows the parent report's ownership; the scoping
happens in the repository query.

Parameters:
  - context: context.Context
  - principal: *sec.Principal (authenticated caller)
  - limit, offset: Page window

Returns:
  - []*Person: The page, newest first
  - int: Total visible count
  - error: Persistence failure
*/
func (service *Service) ListPeople(context context.Context, principal *sec.Principal, limit, offset int) ([]*Person, int, error) {
	return service.personRepository.List(context, principal.Visibility(), limit, offset)
}

/*
GetPerson fetches one person, enforcing access through the parent report.

Returns:
  - *Person: The person
  - error: NotFound on an unknown id, Forbidden when the parent report
    belongs to someone else
*/
func (service *Service) GetPerson(context context.Context, principal *sec.Principal, personID string) (*Person, error) {
	record, err := service.personRepository.FindByID(context, personID)
	if err != nil {
		return nil, err
	}

	if err := service.requireReportAccess(context, principal, record.ReportID); err != nil {
		return nil, err
	}

	return record, nil
}

/*
CreatePerson records a reached individual under a report the caller can
access.

Parameters:
  - context: context.Context
  - principal: *sec.Principal
  - input: CreateInput (status must be a valid [Status])

Returns:
  - *Person: The created record
  - error: NotFound on an unknown report, Forbidden on someone else's
    report, ValidationError on a bad status
*/
func (service *Service) CreatePerson(context context.Context, principal *sec.Principal, input CreateInput) (*Person, error) {
	if !input.Status.Valid() {
		return nil, apperr.ValidationError("Status must be one of 'interested', 'accepted', 'repented'")
	}

	if err := service.requireReportAccess(context, principal, input.ReportID); err != nil {
		return nil, err
	}

	record := &Person{
		ID:       uuidgen.New(),
		ReportID: input.ReportID,
		FullName: input.FullName,
		Phone:    input.Phone,
		Status:   input.Status,
	}

	if err := service.personRepository.Create(context, record); err != nil {
		return nil, err
	}

	return record, nil
}

/*
UpdatePerson applies a partial update to a person, enforcing access through
the parent report.

Description: Nil patch fields leave the stored value untouched. When the
patch reassigns the person to another report, access to the destination
report is checked as well, so a caller cannot move records into or out of
reports they cannot touch.

Parameters:
  - context: context.Context
  - principal: *sec.Principal
  - personID: Target person
  - patch: Patch (only non-nil fields are applied)

Returns:
  - *Person: The person after the update
  - error: NotFound, Forbidden (source or destination report), or
    ValidationError on a bad status
*/
func (service *Service) UpdatePerson(context context.Context, principal *sec.Principal, personID string, patch Patch) (*Person, error) {
	record, err := service.personRepository.FindByID(context, personID)
	if err != nil {
		return nil, err
	}

	if err := service.requireReportAccess(context, principal, record.ReportID); err != nil {
		return nil, err
	}

	// Reassignment re-checks the destination before anything is merged.
	if patch.ReportID != nil && *patch.ReportID != record.ReportID {
		if err := service.requireReportAccess(context, principal, *patch.ReportID); err != nil {
			return nil, err
		}
	}

	patch.Apply(record)

	if !record.Status.Valid() {
		return nil, apperr.ValidationError("Status must be one of 'interested', 'accepted', 'repented'")
	}

	if err := service.personRepository.Update(context, record); err != nil {
		return nil, err
	}

	return record, nil
}

/*
DeletePerson removes a person, enforcing access through the parent report.

Returns:
  - error: NotFound on an unknown id, Forbidden when the parent report
    belongs to someone else
*/
func (service *Service) DeletePerson(context context.Context, principal *sec.Principal, personID string) error {
	record, err := service.personRepository.FindByID(context, personID)
	if err != nil {
		return err
	}

	if err := service.requireReportAccess(context, principal, record.ReportID); err != nil {
		return err
	}

	return service.personRepository.Delete(context, personID)
}
