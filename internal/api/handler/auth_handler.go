package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/quotebook/estimate-system/internal/core/domain"
	"github.com/quotebook/estimate-system/internal/core/ports"
)

const pendingRegistrationMessage = "Registration successful. Your account is pending admin approval."

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type registerRequest struct {
	Name          string                `json:"name"     validate:"required"`
	Email         string                `json:"email"    validate:"required,email"`
	Password      string                `json:"password" validate:"required,min=6"`
	Phone         string                `json:"phone"    validate:"required"`
	Role          string                `json:"role"     validate:"required,oneof=admin trader customer"`
	TraderProfile *domain.TraderProfile `json:"traderProfile"`
}

type registerCustomerRequest struct {
	Name         string         `json:"name"         validate:"required"`
	Email        string         `json:"email"        validate:"required,email"`
	Password     string         `json:"password"     validate:"required,min=6"`
	Phone        string         `json:"phone"        validate:"required"`
	Address      domain.Address `json:"address"`
	GSTNumber    string         `json:"gstNumber"`
	CompanyName  string         `json:"companyName"`
	CustomerType string         `json:"customerType" validate:"omitempty,oneof=individual business"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type profileRequest struct {
	Name          *string               `json:"name"`
	Email         *string               `json:"email" validate:"omitempty,email"`
	Phone         *string               `json:"phone"`
	Tags          []string              `json:"tags"`
	TraderProfile *domain.TraderProfile `json:"traderProfile"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword"     validate:"required,min=6"`
}

type tagsRequest struct {
	Tags []string `json:"tags"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

type authResponse struct {
	Message string       `json:"message,omitempty"`
	Token   string       `json:"token,omitempty"`
	User    *domain.User `json:"user,omitempty"`
}

type userResponse struct {
	Message string       `json:"message,omitempty"`
	User    *domain.User `json:"user"`
}

type pendingApprovalsResponse struct {
	Users []*domain.User `json:"users"`
	Count int            `json:"count"`
}

func registrationResponse(res *ports.AuthResult) authResponse {
	if res.Token == "" {
		return authResponse{Message: pendingRegistrationMessage, User: res.User}
	}
	return authResponse{Message: "Registration successful", Token: res.Token, User: res.User}
}

// Register creates a new account. Traders and admins wait for approval and
// receive no token.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Name:          req.Name,
		Email:         req.Email,
		Password:      req.Password,
		Phone:         req.Phone,
		Role:          req.Role,
		TraderProfile: req.TraderProfile,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, registrationResponse(res))
}

// RegisterCustomer creates a customer account with its billing profile.
//
// @Summary      Register a customer
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerCustomerRequest  true  "Customer registration details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Router       /auth/register-customer [post]
func (h *AuthHandler) RegisterCustomer(c echo.Context) error {
	var req registerCustomerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.RegisterCustomer(c.Request().Context(), ports.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		CustomerProfile: &domain.CustomerProfile{
			Address:      req.Address,
			GSTNumber:    req.GSTNumber,
			CompanyName:  req.CompanyName,
			CustomerType: req.CustomerType,
		},
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, registrationResponse(res))
}

// Login authenticates a user and returns a JWT token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, authResponse{Token: res.Token, User: res.User})
}

// Me returns the caller's account.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.User
// @Failure      401  {object}  errorResponse
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	user, err := h.authService.Me(c.Request().Context(), actor.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateProfile edits the caller's contact details, tags and trader profile.
//
// @Summary      Update profile
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      profileRequest  true  "Profile fields to change"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Router       /auth/profile [put]
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req profileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.authService.UpdateProfile(c.Request().Context(), actor.ID, ports.ProfileInput{
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		Tags:          req.Tags,
		TraderProfile: req.TraderProfile,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{Message: "Profile updated successfully", User: user})
}

// ChangePassword replaces the caller's password after checking the current one.
//
// @Summary      Change password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      changePasswordRequest  true  "Current and new password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Router       /auth/change-password [put]
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req changePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.authService.ChangePassword(c.Request().Context(), actor.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Password changed successfully"})
}

// UpdateTags replaces the caller's tags.
//
// @Summary      Update tags
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      tagsRequest  true  "Tags"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Router       /auth/tags [put]
func (h *AuthHandler) UpdateTags(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req tagsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.authService.UpdateTags(c.Request().Context(), actor.ID, req.Tags)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{Message: "Tags updated successfully", User: user})
}

// PendingApprovals lists registrations waiting for an admin decision.
//
// @Summary      Pending approvals
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  pendingApprovalsResponse
// @Failure      403  {object}  errorResponse
// @Router       /auth/pending-approvals [get]
func (h *AuthHandler) PendingApprovals(c echo.Context) error {
	users, err := h.authService.PendingApprovals(c.Request().Context())
	if err != nil {
		return err
	}
	users = orEmpty(users)
	return c.JSON(http.StatusOK, pendingApprovalsResponse{Users: users, Count: len(users)})
}

// Approve activates a pending registration.
//
// @Summary      Approve user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  userResponse
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /auth/approve-user/{id} [put]
func (h *AuthHandler) Approve(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	user, err := h.authService.Approve(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{Message: "User approved successfully", User: user})
}

// Reject declines a pending registration with an optional reason.
//
// @Summary      Reject user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string         true   "User id"
// @Param        body  body      rejectRequest  false  "Rejection reason"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /auth/reject-user/{id} [put]
func (h *AuthHandler) Reject(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req rejectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	user, err := h.authService.Reject(c.Request().Context(), actor, c.Param("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{Message: "User rejected", User: user})
}
