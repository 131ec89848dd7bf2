// Copyright (c) 2026 Harvest. All rights reserved.
// Author: engineering@harvest.app

package person

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/harvestapp/harvest/internal/platform/request"
	"github.com/harvestapp/harvest/internal/platform/respond"
	"github.com/harvestapp/harvest/internal/platform/validate"
	"github.com/harvestapp/harvest/pkg/pagination"
)

// # Definitions & Constructors

// Handler implements the people HTTP endpoints. Every route sits behind the
// authentication guard; access is enforced in the service via the parent
// report.
type Handler struct {
	personService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{personService: service}
}

// RegisterRoutes attaches the people routes to the given router.
//
// # Endpoints
//   - GET    /       : Lists visible people (paginated).
//   - POST   /       : Records a person under an accessible report.
//   - GET    /{id}   : Fetches one person.
//   - PUT    /{id}   : Partially updates a person (may move reports).
//   - DELETE /{id}   : Removes a person.
func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/", handler.list)
	router.Post("/", handler.create)
	router.Get("/{id}", handler.get)
	router.Put("/{id}", handler.update)
	router.Delete("/{id}", handler.remove)
}

// # Request Payloads

type createPersonRequest struct {
	ReportID string  `json:"report_id"`
	FullName string  `json:"full_name"`
	Phone    *string `json:"phone,omitempty"`
	Status   string  `json:"status"`
}

// # Handlers

/*
list returns a page of people visible to the caller.

GET /api/v1/people?page=1&limit=20

Response:
  - 200: []Person with pagination metadata (scoped via parent reports)
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := pagination.FromRequest(request)

	people, total, err := handler.personService.ListPeople(request.Context(), principal, params.Limit, params.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, people, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
create records a reached person under a report the caller can access.

POST /api/v1/people

Response:
  - 201: Person
  - 400: Validation failure (missing fields or unknown status)
  - 403: Target report belongs to someone else
  - 404: Unknown target report
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input createPersonRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldReportID, input.ReportID).
		UUID(FieldReportID, input.ReportID).
		Required(FieldFullName, input.FullName).
		Required(FieldStatus, input.Status).
		OneOf(FieldStatus, input.Status, string(StatusInterested), string(StatusAccepted), string(StatusRepented))

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	record, err := handler.personService.CreatePerson(request.Context(), principal, CreateInput{
		ReportID: input.ReportID,
		FullName: input.FullName,
		Phone:    input.Phone,
		Status:   Status(input.Status),
	})

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, record)
}

/*
get fetches a single person.

GET /api/v1/people/{id}

Response:
  - 200: Person
  - 403: Parent report belongs to someone else
  - 404: Unknown person
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	record, err := handler.personService.GetPerson(request.Context(), principal, requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, record)
}

/*
update applies a partial update to a person. A report_id in the body moves
the person, which re-checks access against the destination report.

PUT /api/v1/people/{id}

Response:
  - 200: Person after the update
  - 400: Unknown status after the merge
  - 403: Source or destination report belongs to someone else
  - 404: Unknown person or destination report
*/
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var patch Patch
	if err := requestutil.DecodeJSON(request, &patch); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	record, err := handler.personService.UpdatePerson(request.Context(), principal, requestutil.ID(request, "id"), patch)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, record)
}

/*
remove deletes a person record.

DELETE /api/v1/people/{id}

Response:
  - 204: Deleted
  - 403: Parent report belongs to someone else
  - 404: Unknown person
*/
func (handler *Handler) remove(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.personService.DeletePerson(request.Context(), principal, requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
