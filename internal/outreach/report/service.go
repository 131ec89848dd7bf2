// Copyright (c) 2026 Harvest. All rights reserved.
// Author: engineering@harvest.app

package report

import (
	"context"
	"time"

	"github.com/harvestapp/harvest/internal/platform/apperr"
	"github.com/harvestapp/harvest/internal/platform/sec"
	"github.com/harvestapp/harvest/internal/platform/validate"
	uuidgen "github.com/harvestapp/harvest/pkg/uuid"
)

// # Service

// Service implements the business rules for outreach reports: ownership
// enforcement, counter validation, and patch merging.
type Service struct {
	reportRepository Repository
}

// NewService constructs a report [Service] over the given repository.
func NewService(repository Repository) *Service {
	return &Service{reportRepository: repository}
}

// CreateInput holds the data required to log a new outreach report. The
// owner is always the authenticated caller, never part of the payload.
type CreateInput struct {
	OutreachName     string
	Location         string
	Date             time.Time
	PeopleHeard      int
	PeopleInterested int
	PeopleAccepted   int
	PeopleRepented   int
	Notes            string
}

// # Operations

/*
ListReports returns a page of reports visible to the principal.

Description: Evangelists see only their own reports; admins see everything.
The scoping happens in the repository query, not by post-filtering.

Parameters:
  - context: context.Context
  - principal: *sec.Principal (authenticated caller)
  - limit, offset: Page window

Returns:
  - []*Report: The page, newest outreach date first
  - int: Total visible count
  - error: Persistence failure
*/
func (service *Service) ListReports(context context.Context, principal *sec.Principal, limit, offset int) ([]*Report, int, error) {
	return service.reportRepository.List(context, principal.Visibility(), limit, offset)
}

/*
GetReport fetches one report, enforcing ownership.

Description: The row is loaded first and the ownership check applied after,
so a request against someone else's report answers Forbidden, not NotFound.

Returns:
  - *Report: The report
  - error: NotFound on an unknown id, Forbidden on someone else's report
*/
func (service *Service) GetReport(context context.Context, principal *sec.Principal, reportID string) (*Report, error) {
	record, err := service.reportRepository.FindByID(context, reportID)
	if err != nil {
		return nil, err
	}

	if !principal.Owns(record.EvangelistID) {
		return nil, apperr.Forbidden("You do not have access to this report")
	}

	return record, nil
}

/*
CreateReport logs a new outreach report owned by the caller.

Parameters:
  - context: context.Context
  - principal: *sec.Principal (becomes the owner)
  - input: CreateInput (counters must be non-negative)

Returns:
  - *Report: The created report
  - error: ValidationError on negative counters, or persistence failures
*/
func (service *Service) CreateReport(context context.Context, principal *sec.Principal, input CreateInput) (*Report, error) {
	validator := &validate.Validator{}
	validator.NonNegative(FieldPeopleHeard, input.PeopleHeard).
		NonNegative(FieldPeopleInterested, input.PeopleInterested).
		NonNegative(FieldPeopleAccepted, input.PeopleAccepted).
		NonNegative(FieldPeopleRepented, input.PeopleRepented)

	if err := validator.Err(); err != nil {
		return nil, err
	}

	record := &Report{
		ID:               uuidgen.New(),
		EvangelistID:     principal.ID,
		OutreachName:     input.OutreachName,
		Location:         input.Location,
		Date:             input.Date,
		PeopleHeard:      input.PeopleHeard,
		PeopleInterested: input.PeopleInterested,
		PeopleAccepted:   input.PeopleAccepted,
		PeopleRepented:   input.PeopleRepented,
		Notes:            input.Notes,
	}

	if err := service.reportRepository.Create(context, record); err != nil {
		return nil, err
	}

	return record, nil
}

/*
UpdateReport applies a partial update to a report, enforcing ownership.

Description: Nil patch fields leave the stored value untouched. The merged
counters are validated, so a patch cannot drive any counter negative.

Parameters:
  - context: context.Context
  - principal: *sec.Principal
  - reportID: Target report
  - patch: Patch (only non-nil fields are applied)

Returns:
  - *Report: The report after the update
  - error: NotFound, Forbidden, or ValidationError on negative counters
*/
func (service *Service) UpdateReport(context context.Context, principal *sec.Principal, reportID string, patch Patch) (*Report, error) {
	record, err := service.reportRepository.FindByID(context, reportID)
	if err != nil {
		return nil, err
	}

	if !principal.Owns(record.EvangelistID) {
		return nil, apperr.Forbidden("You do not have access to this report")
	}

	patch.Apply(record)

	validator := &validate.Validator{}
	validator.NonNegative(FieldPeopleHeard, record.PeopleHeard).
		NonNegative(FieldPeopleInterested, record.PeopleInterested).
		NonNegative(FieldPeopleAccepted, record.PeopleAccepted).
		NonNegative(FieldPeopleRepented, record.PeopleRepented)

	if err := validator.Err(); err != nil {
		return nil, err
	}

	if err := service.reportRepository.Update(context, record); err != nil {
		return nil, err
	}

	return record, nil
}

/*
DeleteReport removes a report and everyone recorded under it, enforcing
ownership.

Returns:
  - error: NotFound on an unknown id, Forbidden on someone else's report
*/
func (service *Service) DeleteReport(context context.Context, principal *sec.Principal, reportID string) error {
	record, err := service.reportRepository.FindByID(context, reportID)
	if err != nil {
		return err
	}

	if !principal.Owns(record.EvangelistID) {
		return apperr.Forbidden("You do not have access to this report")
	}

	return service.reportRepository.Delete(context, reportID)
}
