// Copyright (c) 2026 Harvest. All rights reserved.
// Author: engineering@harvest.app

package report

import (
	"context"

	"github.com/harvestapp/harvest/internal/platform/sec"
)

// # Persistence Contract

/*
Repository defines the persistence operations for outreach reports.

# Operations

  - FindByID: Single report lookup, no access filtering (the service layer
    applies the ownership check after the fetch so it can answer Forbidden
    rather than NotFound).
  - List: Visibility-scoped page, newest outreach date first, with total.
  - Create: Inserts a report.
  - Update: Full-row update of the mutable fields.
  - Delete: Removes a report; people recorded under it go with it.
  - OwnerOf: Owner lookup by report ID, used by transitive access checks
    (package person) without loading the whole row.
*/
type Repository interface {
	FindByID(context context.Context, id string) (*Report, error)
	List(context context.Context, visibility sec.Visibility, limit, offset int) ([]*Report, int, error)
	Create(context context.Context, report *Report) error
	Update(context context.Context, report *Report) error
	Delete(context context.Context, id string) error
	OwnerOf(context context.Context, reportID string) (string, error)
}
