// Copyright (c) 2026 Harvest. All rights reserved.
// Author: engineering@harvest.app

/*
Package admin implements the administrator-only user management surface.

It covers everything a platform operator can do that evangelists cannot:
listing every account, provisioning users with an explicit role, promoting
or demoting accounts, and toggling activation without deleting data.

# Relationship to Package auth

The package deliberately reuses [auth.UserRepository] rather than owning a
second persistence layer: users are one table, and the split between the two
packages is about who may call an operation, not where the rows live.
*/
package admin

import (
	"context"

	"github.com/harvestapp/harvest/internal/platform/apperr"
	"github.com/harvestapp/harvest/internal/platform/sec"
	"github.com/harvestapp/harvest/internal/users/auth"
	uuidgen "github.com/harvestapp/harvest/pkg/uuid"
)

// # Service

// Service implements administrator operations over user accounts.
type Service struct {
	userRepository auth.UserRepository
}

// NewService constructs an admin [Service] over the shared user repository.
func NewService(userRepository auth.UserRepository) *Service {
	return &Service{userRepository: userRepository}
}

// CreateInput holds the data an administrator supplies when provisioning an
// account. Unlike self-registration, the role and activation state are
// caller-controlled.
type CreateInput struct {
	FullName string
	Email    string
	Phone    *string
	Password string
	Role     string
	IsActive bool
}

// # Operations

/*
ListUsers returns a page of user accounts, newest first.

Parameters:
  - context: Request context
  - limit: Maximum number of records
  - offset: Records to skip

Returns:
  - []*auth.User: The page of accounts
  - int: Total account count (for pagination metadata)
  - error: Persistence failure
*/
func (service *Service) ListUsers(context context.Context, limit, offset int) ([]*auth.User, int, error) {
	return service.userRepository.List(context, limit, offset)
}

/*
GetUser fetches a single account by ID.

Returns:
  - *auth.User: The account
  - error: NotFound when no such account exists
*/
func (service *Service) GetUser(context context.Context, userID string) (*auth.User, error) {
	return service.userRepository.FindByID(context, userID)
}

/*
CreateUser provisions an account with an explicit role and activation state.

Unlike [auth.Service.Register], this operation may mint administrators. The
caller has already been vetted by the admin route guard.

Parameters:
  - context: Request context
  - input: CreateInput (role must be a valid [sec.UserRole])

Returns:
  - *auth.User: The created account
  - error: ValidationError on a bad role, Conflict on duplicate email
*/
func (service *Service) CreateUser(context context.Context, input CreateInput) (*auth.User, error) {
	role := sec.UserRole(input.Role)
	if !role.Valid() {
		return nil, apperr.ValidationError("Role must be either 'admin' or 'evangelist'")
	}

	passwordHash, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &auth.User{
		ID:           uuidgen.New(),
		Email:        input.Email,
		FullName:     input.FullName,
		Phone:        input.Phone,
		PasswordHash: passwordHash,
		Role:         role,
		IsActive:     input.IsActive,
	}

	if err := service.userRepository.Create(context, user); err != nil {
		return nil, err
	}

	return user, nil
}

/*
ChangeRole promotes or demotes an account.

Parameters:
  - context: Request context
  - userID: Target account
  - role: New role (must be a valid [sec.UserRole])

Returns:
  - *auth.User: The account after the change
  - error: ValidationError on a bad role, NotFound on an unknown account
*/
func (service *Service) ChangeRole(context context.Context, userID, role string) (*auth.User, error) {
	if !sec.UserRole(role).Valid() {
		return nil, apperr.ValidationError("Role must be either 'admin' or 'evangelist'")
	}

	if err := service.userRepository.UpdateRole(context, userID, role); err != nil {
		return nil, err
	}

	return service.userRepository.FindByID(context, userID)
}

/*
ChangeStatus activates or deactivates an account.

Deactivation is reversible and keeps all outreach history intact.

Returns:
  - *auth.User: The account after the change
  - error: NotFound on an unknown account
*/
func (service *Service) ChangeStatus(context context.Context, userID string, isActive bool) (*auth.User, error) {
	if err := service.userRepository.UpdateStatus(context, userID, isActive); err != nil {
		return nil, err
	}

	return service.userRepository.FindByID(context, userID)
}
