// Copyright (c) 2026 Harvest. All rights reserved.
// Author: engineering@harvest.app

package person

import (
	"context"

	"github.com/harvestapp/harvest/internal/platform/sec"
)

// # Persistence Contract

/*
Repository defines the persistence operations for people records.

# Operations

  - FindByID: Single person lookup, no access filtering (the service applies
    the transitive ownership check after the fetch).
  - List: Visibility-scoped page via a join on the parent report, newest
    first, with total.
  - Create: Inserts a person under an existing report.
  - Update: Full-row update of the mutable fields.
  - Delete: Removes one person.
*/
type Repository interface {
	FindByID(context context.Context, id string) (*Person, error)
	List(context context.Context, visibility sec.Visibility, limit, offset int) ([]*Person, int, error)
	Create(context context.Context, person *Person) error
	Update(context context.Context, person *Person) error
	Delete(context context.Context, id string) error
}

// ReportDirectory answers who owns a report. The report package's repository
// satisfies it; the indirection keeps this package from importing that one.
type ReportDirectory interface {
	OwnerOf(context context.Context, reportID string) (string, error)
}
