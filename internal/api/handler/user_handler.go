package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/quotebook/estimate-system/internal/core/ports"
)

type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service}
}

type updateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Phone    *string `json:"phone"`
	IsActive *bool   `json:"isActive"`
	Role     *string `json:"role" validate:"omitempty,oneof=admin trader customer"`
}

// List returns a page of accounts.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        role    query     string  false  "Role filter"
// @Param        search  query     string  false  "Name, email or phone"
// @Param        page    query     int     false  "Page"
// @Param        limit   query     int     false  "Page size"
// @Success      200     {object}  userListResponse
// @Failure      403     {object}  errorResponse
// @Router       /users [get]
func (h *UserHandler) List(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	res, err := h.service.List(c.Request().Context(), actor, ports.UserFilter{
		Role:   c.QueryParam("role"),
		Search: c.QueryParam("search"),
		Page:   pageFrom(c),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newUserList(res))
}

// Traders lists active, approved traders.
//
// @Summary      List traders
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.User
// @Router       /users/traders [get]
func (h *UserHandler) Traders(c echo.Context) error {
	users, err := h.service.ListTraders(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orEmpty(users))
}

// Get returns one account. Non-admins may only read their own.
//
// @Summary      Get user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  domain.User
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	user, err := h.service.Get(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Update edits an account. Only admins may change role or active status.
//
// @Summary      Update user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "User id"
// @Param        body  body      updateUserRequest  true  "Fields to change"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /users/{id} [put]
func (h *UserHandler) Update(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req updateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.service.Update(c.Request().Context(), actor, c.Param("id"), ports.UserUpdateInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		IsActive: req.IsActive,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{Message: "User updated successfully", User: user})
}

// Delete removes an account.
//
// @Summary      Delete user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  messageResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "User deleted successfully"})
}
