// Copyright (c) 2026 Harvest. All rights reserved.
// Author: engineering@harvest.app

// PostgreSQL implementation of the person repository.
package person

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

const personColumns = `p.id, p.report_id, p.full_name, p.phone, p.status, p.created_at, p.updated_at`

// scanPerson hydrates one Person from a row.
func scanPerson(row pgx.Row) (*Person, error) {
	record := &Person{}
	err := row.Scan(
		&record.ID,
		&record.ReportID,
		&record.FullName,
		&record.Phone,
		&record.Status,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return record, nil
}

/*
FindByID fetches a single person by ID, with no access filtering.

Returns:
  - *Person: The person
  - error: apperr.NotFound when no row matches
*/
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Person, error) {
	query := fmt.Sprintf(`SELECT %s FROM people p WHERE p.id = $1`, personColumns)

	record, err := scanPerson(repository.db.QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Person")
		}
		return nil, dberr.Wrap(err, "")
	}

	return record, nil
}

/*
List returns a visibility-scoped page of people, newest first.

Description: The scope comes from a join on the parent report, so an
evangelist only sees people recorded under their own reports.

Parameters:
  - context: context.Context
  - visibility: sec.Visibility (caller scope)
  - limit, offset: Page window

Returns:
  - []*Person: The page
  - int: Total matching count
  - error: Connectivity errors
*/
func (repository *PostgresRepository) List(context context.Context, visibility sec.Visibility, limit, offset int) ([]*Person, int, error) {
	const countQuery = `
		SELECT COUNT(*)
		FROM people p
		JOIN outreach_reports r ON r.id = p.report_id
		WHERE ($1 OR r.evangelist_id = $2)`

	var total int
	if err := repository.db.QueryRow(context, countQuery, visibility.Admin, visibility.SubjectID).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM people p
		JOIN outreach_reports r ON r.id = p.report_id
		WHERE ($1 OR r.evangelist_id = $2)
		ORDER BY p.created_at DESC
		LIMIT $3 OFFSET $4`, personColumns)

	rows, err := repository.db.Query(context, query, visibility.Admin, visibility.SubjectID, limit, offset)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "")
	}
	defer rows.Close()

	records := make([]*Person, 0, limit)
	for rows.Next() {
		record, err := scanPerson(rows)
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
Create persists a new person under an existing report.

Returns:
  - error: Connectivity errors, or a foreign-key failure on an unknown report
*/
func (repository *PostgresRepository) Create(context context.Context, person *Person) error {
	const query = `
		INSERT INTO people (
			id, report_id, full_name, phone, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	now := time.Now()
	if person.CreatedAt.IsZero() {
		person.CreatedAt = now
	}
	person.UpdatedAt = now

	_, err := repository.db.Exec(context, query,
		person.ID,
		person.ReportID,
		person.FullName,
		person.Phone,
		person.Status,
		person.CreatedAt,
		person.UpdatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, "")
	}

	return nil
}

/*
Update writes back the mutable fields of a person, including a possible
report reassignment.

Returns:
  - error: apperr.NotFound when the person no longer exists
*/
func (repository *PostgresRepository) Update(context context.Context, person *Person) error {
	const query = `
		UPDATE people SET
			report_id = $2,
			full_name = $3,
			phone = $4,
			status = $5,
			updated_at = $6
		WHERE id = $1`

	person.UpdatedAt = time.Now()

	tag, err := repository.db.Exec(context, query,
		person.ID,
		person.ReportID,
		person.FullName,
		person.Phone,
		person.Status,
		person.UpdatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, "")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Person")
	}

	return nil
}

/*
Delete removes one person.

Returns:
  - error: apperr.NotFound when no row matches
*/
func (repository *PostgresRepository) Delete(context context.Context, id string) error {
	const query = `DELETE FROM people WHERE id = $1`

	tag, err := repository.db.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(err, "")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Person")
	}

	return nil
}
