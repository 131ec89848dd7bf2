// Copyright (c) 2026 Harvest. All rights reserved.
// Author: engineering@harvest.app

// PostgreSQL implementation of the report repository.
//
// # Visibility Scoping
//
// List queries embed the visibility predicate directly in SQL: admins see
// every row, evangelists only rows matching their own id. The same two bind
// parameters drive both the COUNT and the page query.
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/harvestapp/harvest/internal/platform/apperr"
	"github.com/harvestapp/harvest/internal/platform/dberr"
	"github.com/harvestapp/harvest/internal/platform/postgres"
	"github.com/harvestapp/harvest/internal/platform/sec"
)

// PostgresRepository implements the Repository interface using pgx.
type PostgresRepository struct {
	db *postgres.DB
}

// NewRepository creates a new PostgreSQL implementation of the Repository.
func NewRepository(db *postgres.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const reportColumns = `id, evangelist_id, outreach_name, location, date,
	people_heard, people_interested, people_accepted, people_repented,
	notes, created_at, updated_at`

// scanReport hydrates one Report from a row.
func scanReport(row pgx.Row) (*Report, error) {
	record := &Report{}
	err := row.Scan(
		&record.ID,
		&record.EvangelistID,
		&record.OutreachName,
		&record.Location,
		&record.Date,
		&record.PeopleHeard,
		&record.PeopleInterested,
		&record.PeopleAccepted,
		&record.PeopleRepented,
		&record.Notes,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return record, nil
}

/*
FindByID fetches a single report by ID, with no access filtering.

Returns:
  - *Report: The report
  - error: apperr.NotFound when no row matches
*/
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Report, error) {
	query := fmt.Sprintf(`SELECT %s FROM outreach_reports WHERE id = $1`, reportColumns)

	record, err := scanReport(repository.db.QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Report")
		}
		return nil, dberr.Wrap(err, "")
	}

	return record, nil
}

/*
List returns a visibility-scoped page of reports, newest outreach date first.

Description: The predicate ($1 OR evangelist_id = $2) collapses to TRUE for
admins, so one query serves both roles.

Parameters:
  - context: context.Context
  - visibility: sec.Visibility (caller scope)
  - limit, offset: Page window

Returns:
  - []*Report: The page
  - int: Total matching count
  - error: Connectivity errors
*/
func (repository *PostgresRepository) List(context context.Context, visibility sec.Visibility, limit, offset int) ([]*Report, int, error) {
	const countQuery = `
		SELECT COUNT(*) FROM outreach_reports
		WHERE ($1 OR evangelist_id = $2)`

	var total int
	if err := repository.db.QueryRow(context, countQuery, visibility.Admin, visibility.SubjectID).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "")
	}

	query := fmt.Sprintf(`
		SELECT %s FROM outreach_reports
		WHERE ($1 OR evangelist_id = $2)
		ORDER BY date DESC, created_at DESC
		LIMIT $3 OFFSET $4`, reportColumns)

	rows, err := repository.db.Query(context, query, visibility.Admin, visibility.SubjectID, limit, offset)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "")
	}
	defer rows.Close()

	records := make([]*Report, 0, limit)
	for rows.Next() {
		record, err := scanReport(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "")
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "")
	}

	return records, total, nil
}

/*
Create persists a new outreach report.

Parameters:
  - context: context.Context
  - report: *Report (Entity to persist)

Returns:
  - error: Connectivity errors, or a foreign-key failure on an unknown owner
*/
func (repository *PostgresRepository) Create(context context.Context, report *Report) error {
	const query = `
		INSERT INTO outreach_reports (
			id, evangelist_id, outreach_name, location, date,
			people_heard, people_interested, people_accepted, people_repented,
			notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	now := time.Now()
	if report.CreatedAt.IsZero() {
		report.CreatedAt = now
	}
	report.UpdatedAt = now

	_, err := repository.db.Exec(context, query,
		report.ID,
		report.EvangelistID,
		report.OutreachName,
		report.Location,
		report.Date,
		report.PeopleHeard,
		report.PeopleInterested,
		report.PeopleAccepted,
		report.PeopleRepented,
		report.Notes,
		report.CreatedAt,
		report.UpdatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, "")
	}

	return nil
}

/*
Update writes back the mutable fields of a report.

Returns:
  - error: apperr.NotFound when the report no longer exists
*/
func (repository *PostgresRepository) Update(context context.Context, report *Report) error {
	const query = `
		UPDATE outreach_reports SET
			outreach_name = $2,
			location = $3,
			date = $4,
			people_heard = $5,
			people_interested = $6,
			people_accepted = $7,
			people_repented = $8,
			notes = $9,
			updated_at = $10
		WHERE id = $1`

	report.UpdatedAt = time.Now()

	tag, err := repository.db.Exec(context, query,
		report.ID,
		report.OutreachName,
		report.Location,
		report.Date,
		report.PeopleHeard,
		report.PeopleInterested,
		report.PeopleAccepted,
		report.PeopleRepented,
		report.Notes,
		report.UpdatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, "")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Report")
	}

	return nil
}

/*
Delete removes a report. People recorded under it are removed by the
ON DELETE CASCADE on the people table.

Returns:
  - error: apperr.NotFound when no row matches
*/
func (repository *PostgresRepository) Delete(context context.Context, id string) error {
	const query = `DELETE FROM outreach_reports WHERE id = $1`

	tag, err := repository.db.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(err, "")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Report")
	}

	return nil
}

/*
OwnerOf returns the owning evangelist id for a report without loading the
full row. Package person uses this for its transitive access checks.

Returns:
  - string: The owner's user id
  - error: apperr.NotFound when no row matches
*/
func (repository *PostgresRepository) OwnerOf(context context.Context, reportID string) (string, error) {
	const query = `SELECT evangelist_id FROM outreach_reports WHERE id = $1`

	var ownerID string
	if err := repository.db.QueryRow(context, query, reportID).Scan(&ownerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperr.NotFound("Report")
		}
		return "", dberr.Wrap(err, "")
	}

	return ownerID, nil
}
