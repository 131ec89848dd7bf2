// Copyright (c) 2026 Harvest. All rights reserved.
// Author: engineering@harvest.app

package report_test

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harvestapp/harvest/internal/outreach/report"
	"github.com/harvestapp/harvest/internal/platform/apperr"
	"github.com/harvestapp/harvest/internal/platform/sec"
	"github.com/harvestapp/harvest/pkg/pointer"
)

// # In-Memory Fake

type fakeRepository struct {
	mu      sync.Mutex
	reports map[string]*report.Report
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{reports: make(map[string]*report.Report)}
}

func (repo *fakeRepository) FindByID(_ context.Context, id string) (*report.Report, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if record, ok := repo.reports[id]; ok {
		clone := *record
		return &clone, nil
	}
	return nil, apperr.NotFound("Report")
}

func (repo *fakeRepository) List(_ context.Context, visibility sec.Visibility, limit, offset int) ([]*report.Report, int, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	visible := make([]*report.Report, 0, len(repo.reports))
	for _, record := range repo.reports {
		if visibility.Admin || record.EvangelistID == visibility.SubjectID {
			clone := *record
			visible = append(visible, &clone)
		}
	}
	sort.Slice(visible, func(i, j int) bool { return visible[i].Date.After(visible[j].Date) })

	total := len(visible)
	if offset > total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return visible[offset:end], total, nil
}

func (repo *fakeRepository) Create(_ context.Context, record *report.Report) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	clone := *record
	repo.reports[record.ID] = &clone
	return nil
}

func (repo *fakeRepository) Update(_ context.Context, record *report.Report) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if _, ok := repo.reports[record.ID]; !ok {
		return apperr.NotFound("Report")
	}
	clone := *record
	repo.reports[record.ID] = &clone
	return nil
}

func (repo *fakeRepository) Delete(_ context.Context, id string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if _, ok := repo.reports[id]; !ok {
		return apperr.NotFound("Report")
	}
	delete(repo.reports, id)
	return nil
}

func (repo *fakeRepository) OwnerOf(_ context.Context, reportID string) (string, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if record, ok := repo.reports[reportID]; ok {
		return record.EvangelistID, nil
	}
	return "", apperr.NotFound("Report")
}

// # Helpers

func evangelist(id string) *sec.Principal {
	return &sec.Principal{ID: id, Role: sec.RoleEvangelist, IsActive: true}
}

func administrator(id string) *sec.Principal {
	return &sec.Principal{ID: id, Role: sec.RoleAdmin, IsActive: true}
}

func mustCreate(t *testing.T, service *report.Service, owner *sec.Principal, name string) *report.Report {
	t.Helper()
	record, err := service.CreateReport(context.Background(), owner, report.CreateInput{
		OutreachName: name,
		Location:     "Riverside Park",
		Date:         time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return record
}

// # Tests

/*
TestCreateReport checks owner assignment and the negative-counter gate.
*/
func TestCreateReport(t *testing.T) {
	service := report.NewService(newFakeRepository())
	owner := evangelist("user-a")

	record, err := service.CreateReport(context.Background(), owner, report.CreateInput{
		OutreachName: "Gospel Week",
		Location:     "City Square",
		Date:         time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
		PeopleHeard:  40,
	})
	require.NoError(t, err)
	assert.Equal(t, "user-a", record.EvangelistID)
	assert.NotEmpty(t, record.ID)

	tests := []struct {
		name  string
		input report.CreateInput
	}{
		{"negative_heard", report.CreateInput{OutreachName: "x", Location: "y", PeopleHeard: -1}},
		{"negative_interested", report.CreateInput{OutreachName: "x", Location: "y", PeopleInterested: -3}},
		{"negative_accepted", report.CreateInput{OutreachName: "x", Location: "y", PeopleAccepted: -1}},
		{"negative_repented", report.CreateInput{OutreachName: "x", Location: "y", PeopleRepented: -7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.CreateReport(context.Background(), owner, tt.input)
			require.Error(t, err)
			assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
		})
	}
}

/*
TestOwnershipMatrix checks the owner-or-admin rule across get, update, and
delete: owners and admins pass, everyone else gets Forbidden.
*/
func TestOwnershipMatrix(t *testing.T) {
	service := report.NewService(newFakeRepository())
	owner := evangelist("user-a")
	stranger := evangelist("user-b")
	admin := administrator("user-admin")

	record := mustCreate(t, service, owner, "Gospel Week")

	// Get
	_, err := service.GetReport(context.Background(), owner, record.ID)
	assert.NoError(t, err)
	_, err = service.GetReport(context.Background(), admin, record.ID)
	assert.NoError(t, err)
	_, err = service.GetReport(context.Background(), stranger, record.ID)
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)

	// Update
	patch := report.Patch{Notes: pointer.To("updated")}
	_, err = service.UpdateReport(context.Background(), stranger, record.ID, patch)
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)
	_, err = service.UpdateReport(context.Background(), admin, record.ID, patch)
	assert.NoError(t, err)

	// Delete
	err = service.DeleteReport(context.Background(), stranger, record.ID)
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)
	require.NoError(t, service.DeleteReport(context.Background(), owner, record.ID))

	// Gone afterwards
	_, err = service.GetReport(context.Background(), owner, record.ID)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
}

/*
TestUpdateReport_PatchSemantics checks that nil fields leave stored values
untouched and that a patch cannot drive a counter negative.
*/
func TestUpdateReport_PatchSemantics(t *testing.T) {
	service := report.NewService(newFakeRepository())
	owner := evangelist("user-a")

	record, err := service.CreateReport(context.Background(), owner, report.CreateInput{
		OutreachName:     "Gospel Week",
		Location:         "City Square",
		Date:             time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
		PeopleHeard:      40,
		PeopleInterested: 12,
		Notes:            "first pass",
	})
	require.NoError(t, err)

	updated, err := service.UpdateReport(context.Background(), owner, record.ID, report.Patch{
		PeopleHeard: pointer.To(55),
	})
	require.NoError(t, err)

	assert.Equal(t, 55, updated.PeopleHeard)
	assert.Equal(t, 12, updated.PeopleInterested, "untouched field must survive")
	assert.Equal(t, "first pass", updated.Notes, "untouched field must survive")
	assert.Equal(t, "Gospel Week", updated.OutreachName)

	// Negative merge result is rejected and nothing is written.
	_, err = service.UpdateReport(context.Background(), owner, record.ID, report.Patch{
		PeopleAccepted: pointer.To(-2),
	})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)

	current, err := service.GetReport(context.Background(), owner, record.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, current.PeopleAccepted)
	assert.Equal(t, 55, current.PeopleHeard)
}

/*
TestListReports_Visibility checks that evangelists see only their own rows
while admins see everything.
*/
func TestListReports_Visibility(t *testing.T) {
	service := report.NewService(newFakeRepository())
	alice := evangelist("user-a")
	bob := evangelist("user-b")
	admin := administrator("user-admin")

	mustCreate(t, service, alice, "Alice One")
	mustCreate(t, service, alice, "Alice Two")
	mustCreate(t, service, bob, "Bob One")

	aliceRows, aliceTotal, err := service.ListReports(context.Background(), alice, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, aliceTotal)
	for _, record := range aliceRows {
		assert.Equal(t, "user-a", record.EvangelistID)
	}

	_, bobTotal, err := service.ListReports(context.Background(), bob, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, bobTotal)

	_, adminTotal, err := service.ListReports(context.Background(), admin, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, adminTotal)
}
