// Copyright (c) 2026 Harvest. All rights reserved.
// Author: engineering@harvest.app

package report

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/harvestapp/harvest/internal/platform/request"
	"github.com/harvestapp/harvest/internal/platform/respond"
	"github.com/harvestapp/harvest/internal/platform/validate"
	"github.com/harvestapp/harvest/pkg/pagination"
)

// # Definitions & Constructors

// Handler implements the outreach report HTTP endpoints. Every route sits
// behind the authentication guard; ownership is enforced in the service.
type Handler struct {
	reportService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{reportService: service}
}

// RegisterRoutes attaches the report routes to the given router.
//
// # Endpoints
//   - GET    /       : Lists visible reports (paginated).
//   - POST   /       : Logs a new report owned by the caller.
//   - GET    /{id}   : Fetches one report (owner or admin).
//   - PUT    /{id}   : Partially updates a report (owner or admin).
//   - DELETE /{id}   : Removes a report and its people (owner or admin).
func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/", handler.list)
	router.Post("/", handler.create)
	router.Get("/{id}", handler.get)
	router.Put("/{id}", handler.update)
	router.Delete("/{id}", handler.remove)
}

// # Request Payloads

type createReportRequest struct {
	OutreachName     string    `json:"outreach_name"`
	Location         string    `json:"location"`
	Date             time.Time `json:"date"`
	PeopleHeard      int       `json:"people_heard"`
	PeopleInterested int       `json:"people_interested"`
	PeopleAccepted   int       `json:"people_accepted"`
	PeopleRepented   int       `json:"people_repented"`
	Notes            string    `json:"notes"`
}

// # Handlers

/*
list returns a page of reports visible to the caller.

GET /api/v1/reports?page=1&limit=20

Response:
  - 200: []Report with pagination metadata (scoped by role)
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := pagination.FromRequest(request)

	reports, total, err := handler.reportService.ListReports(request.Context(), principal, params.Limit, params.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, reports, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
create logs a new outreach report owned by the caller.

POST /api/v1/reports

Response:
  - 201: Report
  - 400: Validation failure (missing fields or negative counters)
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input createReportRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldOutreachName, input.OutreachName).
		Required(FieldLocation, input.Location).
		Custom(FieldDate, input.Date.IsZero(), "This field is required")

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	record, err := handler.reportService.CreateReport(request.Context(), principal, CreateInput{
		OutreachName:     input.OutreachName,
		Location:         input.Location,
		Date:             input.Date,
		PeopleHeard:      input.PeopleHeard,
		PeopleInterested: input.PeopleInterested,
		PeopleAccepted:   input.PeopleAccepted,
		PeopleRepented:   input.PeopleRepented,
		Notes:            input.Notes,
	})

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, record)
}

/*
get fetches a single report.

GET /api/v1/reports/{id}

Response:
  - 200: Report
  - 403: Someone else's report
  - 404: Unknown report
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	record, err := handler.reportService.GetReport(request.Context(), principal, requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, record)
}

/*
update applies a partial update to a report. Fields absent from the body are
left untouched.

PUT /api/v1/reports/{id}

Response:
  - 200: Report after the update
  - 400: Negative counter after the merge
  - 403: Someone else's report
  - 404: Unknown report
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

	record, err := handler.reportService.UpdateReport(request.Context(), principal, requestutil.ID(request, "id"), patch)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, record)
}

/*
remove deletes a report together with the people recorded under it.

DELETE /api/v1/reports/{id}

Response:
  - 204: Deleted
  - 403: Someone else's report
  - 404: Unknown report
*/
func (handler *Handler) remove(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.reportService.DeleteReport(request.Context(), principal, requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
