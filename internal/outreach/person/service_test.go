// Copyright (c) 2026 Harvest. All rights reserved.
// Author: engineering@harvest.app

package person_test

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harvestapp/harvest/internal/outreach/person"
	"github.com/harvestapp/harvest/internal/platform/apperr"
	"github.com/harvestapp/harvest/internal/platform/sec"
	"github.com/harvestapp/harvest/pkg/pointer"
)

// # In-Memory Fakes

type fakeDirectory struct {
	owners map[string]string // reportID -> ownerID
}

func (directory *fakeDirectory) OwnerOf(_ context.Context, reportID string) (string, error) {
	if ownerID, ok := directory.owners[reportID]; ok {
		return ownerID, nil
	}
	return "", apperr.NotFound("Report")
}

type fakeRepository struct {
	mu        sync.Mutex
	people    map[string]*person.Person
	directory *fakeDirectory
}

func newFakeRepository(directory *fakeDirectory) *fakeRepository {
	return &fakeRepository{people: make(map[string]*person.Person), directory: directory}
}

func (repo *fakeRepository) FindByID(_ context.Context, id string) (*person.Person, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if record, ok := repo.people[id]; ok {
		clone := *record
		return &clone, nil
	}
	return nil, apperr.NotFound("Person")
}

func (repo *fakeRepository) List(_ context.Context, visibility sec.Visibility, limit, offset int) ([]*person.Person, int, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	visible := make([]*person.Person, 0, len(repo.people))
	for _, record := range repo.people {
		ownerID := repo.directory.owners[record.ReportID]
		if visibility.Admin || ownerID == visibility.SubjectID {
			clone := *record
			visible = append(visible, &clone)
		}
	}
	sort.Slice(visible, func(i, j int) bool { return visible[i].ID < visible[j].ID })

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

func (repo *fakeRepository) Create(_ context.Context, record *person.Person) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	clone := *record
	repo.people[record.ID] = &clone
	return nil
}

func (repo *fakeRepository) Update(_ context.Context, record *person.Person) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if _, ok := repo.people[record.ID]; !ok {
		return apperr.NotFound("Person")
	}
	clone := *record
	repo.people[record.ID] = &clone
	return nil
}

func (repo *fakeRepository) Delete(_ context.Context, id string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if _, ok := repo.people[id]; !ok {
		return apperr.NotFound("Person")
	}
	delete(repo.people, id)
	return nil
}

// # Helpers

func evangelist(id string) *sec.Principal {
	return &sec.Principal{ID: id, Role: sec.RoleEvangelist, IsActive: true}
}

func administrator(id string) *sec.Principal {
	return &sec.Principal{ID: id, Role: sec.RoleAdmin, IsActive: true}
}

// fixture owns two reports: report-a (user-a) and report-b (user-b).
func newFixture() (*person.Service, *fakeRepository) {
	directory := &fakeDirectory{owners: map[string]string{
		"report-a": "user-a",
		"report-b": "user-b",
	}}
	repo := newFakeRepository(directory)
	return person.NewService(repo, directory), repo
}

// # Tests

/*
TestCreatePerson checks status validation and transitive report access.
*/
func TestCreatePerson(t *testing.T) {
	service, _ := newFixture()
	alice := evangelist("user-a")

	record, err := service.CreatePerson(context.Background(), alice, person.CreateInput{
		ReportID: "report-a",
		FullName: "Maria",
		Status:   person.StatusInterested,
	})
	require.NoError(t, err)
	assert.Equal(t, "report-a", record.ReportID)
	assert.NotEmpty(t, record.ID)

	// Unknown status
	_, err = service.CreatePerson(context.Background(), alice, person.CreateInput{
		ReportID: "report-a",
		FullName: "Maria",
		Status:   person.Status("curious"),
	})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)

	// Someone else's report
	_, err = service.CreatePerson(context.Background(), alice, person.CreateInput{
		ReportID: "report-b",
		FullName: "Maria",
		Status:   person.StatusAccepted,
	})
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)

	// Unknown report
	_, err = service.CreatePerson(context.Background(), alice, person.CreateInput{
		ReportID: "report-x",
		FullName: "Maria",
		Status:   person.StatusAccepted,
	})
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)

	// Admins can record people anywhere
	_, err = service.CreatePerson(context.Background(), administrator("user-admin"), person.CreateInput{
		ReportID: "report-b",
		FullName: "Josef",
		Status:   person.StatusRepented,
	})
	assert.NoError(t, err)
}

/*
TestTransitiveAccess checks that get, update, and delete all derive their
access from the parent report's owner.
*/
func TestTransitiveAccess(t *testing.T) {
	service, _ := newFixture()
	alice := evangelist("user-a")
	bob := evangelist("user-b")
	admin := administrator("user-admin")

	record, err := service.CreatePerson(context.Background(), alice, person.CreateInput{
		ReportID: "report-a",
		FullName: "Maria",
		Status:   person.StatusInterested,
	})
	require.NoError(t, err)

	_, err = service.GetPerson(context.Background(), bob, record.ID)
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)

	_, err = service.GetPerson(context.Background(), admin, record.ID)
	assert.NoError(t, err)

	_, err = service.UpdatePerson(context.Background(), bob, record.ID, person.Patch{
		FullName: pointer.To("Hijacked"),
	})
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)

	err = service.DeletePerson(context.Background(), bob, record.ID)
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)

	require.NoError(t, service.DeletePerson(context.Background(), alice, record.ID))
}

/*
TestUpdatePerson_Move checks report reassignment: moving within the caller's
own reports succeeds, moving into someone else's report is refused, and the
record stays put after a refused move.
*/
func TestUpdatePerson_Move(t *testing.T) {
	directory := &fakeDirectory{owners: map[string]string{
		"report-a1": "user-a",
		"report-a2": "user-a",
		"report-b":  "user-b",
	}}
	repo := newFakeRepository(directory)
	service := person.NewService(repo, directory)
	alice := evangelist("user-a")

	record, err := service.CreatePerson(context.Background(), alice, person.CreateInput{
		ReportID: "report-a1",
		FullName: "Maria",
		Status:   person.StatusInterested,
	})
	require.NoError(t, err)

	// Move between own reports
	moved, err := service.UpdatePerson(context.Background(), alice, record.ID, person.Patch{
		ReportID: pointer.To("report-a2"),
	})
	require.NoError(t, err)
	assert.Equal(t, "report-a2", moved.ReportID)
	assert.Equal(t, "Maria", moved.FullName, "untouched field must survive")

	// Move into someone else's report is refused
	_, err = service.UpdatePerson(context.Background(), alice, record.ID, person.Patch{
		ReportID: pointer.To("report-b"),
	})
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)

	current, err := service.GetPerson(context.Background(), alice, record.ID)
	require.NoError(t, err)
	assert.Equal(t, "report-a2", current.ReportID, "refused move must not apply")

	// Admins may move across owners
	_, err = service.UpdatePerson(context.Background(), administrator("user-admin"), record.ID, person.Patch{
		ReportID: pointer.To("report-b"),
	})
	assert.NoError(t, err)
}

/*
TestUpdatePerson_StatusValidation checks that a patch cannot set an
out-of-range status.
*/
func TestUpdatePerson_StatusValidation(t *testing.T) {
	service, _ := newFixture()
	alice := evangelist("user-a")

	record, err := service.CreatePerson(context.Background(), alice, person.CreateInput{
		ReportID: "report-a",
		FullName: "Maria",
		Status:   person.StatusInterested,
	})
	require.NoError(t, err)

	bad := person.Status("lukewarm")
	_, err = service.UpdatePerson(context.Background(), alice, record.ID, person.Patch{Status: &bad})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)

	updated, err := service.UpdatePerson(context.Background(), alice, record.ID, person.Patch{
		Status: pointer.To(person.StatusRepented),
	})
	require.NoError(t, err)
	assert.Equal(t, person.StatusRepented, updated.Status)
}

/*
TestListPeople_Visibility checks scoping through the parent reports.
*/
func TestListPeople_Visibility(t *testing.T) {
	service, _ := newFixture()
	alice := evangelist("user-a")
	bob := evangelist("user-b")
	admin := administrator("user-admin")

	for _, name := range []string{"Maria", "Josef"} {
		_, err := service.CreatePerson(context.Background(), alice, person.CreateInput{
			ReportID: "report-a",
			FullName: name,
			Status:   person.StatusInterested,
		})
		require.NoError(t, err)
	}
	_, err := service.CreatePerson(context.Background(), bob, person.CreateInput{
		ReportID: "report-b",
		FullName: "Ana",
		Status:   person.StatusAccepted,
	})
	require.NoError(t, err)

	_, aliceTotal, err := service.ListPeople(context.Background(), alice, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, aliceTotal)

	_, bobTotal, err := service.ListPeople(context.Background(), bob, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, bobTotal)

	_, adminTotal, err := service.ListPeople(context.Background(), admin, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, adminTotal)
}
