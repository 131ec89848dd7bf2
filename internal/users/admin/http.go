// Copyright (c) 2026 Harvest. All rights reserved.
// Author: engineering@harvest.app

package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/harvestapp/harvest/internal/platform/request"
	"github.com/harvestapp/harvest/internal/platform/respond"
	"github.com/harvestapp/harvest/internal/platform/validate"
	"github.com/harvestapp/harvest/internal/users/auth"
	"github.com/harvestapp/harvest/pkg/pagination"
)

// # Definitions & Constructors

// Handler implements the administrator HTTP endpoints for user management.
//
// Every route here is expected to sit behind the admin route guard; the
// handler itself performs no role checks.
type Handler struct {
	adminService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{adminService: service}
}

// RegisterRoutes attaches the admin user-management routes to the router.
//
// # Endpoints
//   - GET   /              : Lists all accounts (paginated).
//   - POST  /              : Provisions an account with an explicit role.
//   - GET   /{id}          : Fetches one account.
//   - PATCH /{id}/role     : Promotes or demotes an account.
//   - PATCH /{id}/status   : Activates or deactivates an account.
func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/", handler.list)
	router.Post("/", handler.create)
	router.Get("/{id}", handler.get)
	router.Patch("/{id}/role", handler.changeRole)
	router.Patch("/{id}/status", handler.changeStatus)
}

// # Request Payloads

type createUserRequest struct {
	FullName string  `json:"full_name"`
	Email    string  `json:"email"`
	Phone    *string `json:"phone,omitempty"`
	Password string  `json:"password"`
	Role     string  `json:"role"`
	IsActive *bool   `json:"is_active,omitempty"`
}

type changeRoleRequest struct {
	Role string `json:"role"`
}

type changeStatusRequest struct {
	IsActive *bool `json:"is_active"`
}

// # Handlers

/*
list returns a page of user accounts.

GET /api/v1/admin/users?page=1&limit=20

Response:
  - 200: []auth.User with pagination metadata
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	users, total, err := handler.adminService.ListUsers(request.Context(), params.Limit, params.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, users, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
get fetches a single account.

GET /api/v1/admin/users/{id}

Response:
  - 200: auth.User
  - 404: Unknown account
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	userID := requestutil.ID(request, "id")

	user, err := handler.adminService.GetUser(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
create provisions an account with an explicit role and activation state.

POST /api/v1/admin/users

Request:
  - Body: createUserRequest (is_active defaults to true when omitted)

Response:
  - 201: auth.User
  - 400: Validation failure (including an unknown role)
  - 409: Email already registered
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	var input createUserRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(auth.FieldFullName, input.FullName).
		Required(auth.FieldEmail, input.Email).
		Email(auth.FieldEmail, input.Email).
		Required(auth.FieldPassword, input.Password).
		MinLen(auth.FieldPassword, input.Password, auth.MinPasswordLength).
		Required(auth.FieldRole, input.Role).
		OneOf(auth.FieldRole, input.Role, "admin", "evangelist")

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	user, err := handler.adminService.CreateUser(request.Context(), CreateInput{
		FullName: input.FullName,
		Email:    input.Email,
		Phone:    input.Phone,
		Password: input.Password,
		Role:     input.Role,
		IsActive: isActive,
	})

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user)
}

/*
changeRole promotes or demotes an account.

PATCH /api/v1/admin/users/{id}/role

Response:
  - 200: auth.User after the change
  - 400: Unknown role
  - 404: Unknown account
*/
func (handler *Handler) changeRole(writer http.ResponseWriter, request *http.Request) {
	userID := requestutil.ID(request, "id")

	var input changeRoleRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(auth.FieldRole, input.Role).
		OneOf(auth.FieldRole, input.Role, "admin", "evangelist")

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.adminService.ChangeRole(request.Context(), userID, input.Role)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
changeStatus activates or deactivates an account.

PATCH /api/v1/admin/users/{id}/status

Response:
  - 200: auth.User after the change
  - 400: Missing is_active flag
  - 404: Unknown account
*/
func (handler *Handler) changeStatus(writer http.ResponseWriter, request *http.Request) {
	userID := requestutil.ID(request, "id")

	var input changeStatusRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if input.IsActive == nil {
		respond.Error(writer, request, validate.RequiredError("is_active", "This field is required"))
		return
	}

	user, err := handler.adminService.ChangeStatus(request.Context(), userID, *input.IsActive)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}
