package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/quotebook/estimate-system/internal/core/domain"
	"github.com/quotebook/estimate-system/internal/core/ports"
)

// CustomerHandler serves the trader customer directory.
type CustomerHandler struct {
	service ports.CustomerService
}

func NewCustomerHandler(service ports.CustomerService) *CustomerHandler {
	return &CustomerHandler{service: service}
}

type createCustomerRequest struct {
	TraderID       string              `json:"traderId"`
	UserID         string              `json:"userId"`
	Name           string              `json:"name"           validate:"required"`
	Phone          string              `json:"phone"          validate:"required"`
	Email          string              `json:"email"          validate:"omitempty,email"`
	Address        domain.Address      `json:"address"`
	GSTNumber      string              `json:"gstNumber"`
	ReferredBy     string              `json:"referredBy"`
	ReferredByType domain.ReferralType `json:"referredByType" validate:"omitempty,oneof=customer engineer mason other"`
	Tags           []string            `json:"tags"`
	Notes          string              `json:"notes"`
}

type updateCustomerRequest struct {
	Name           *string              `json:"name"`
	Phone          *string              `json:"phone"`
	Email          *string              `json:"email" validate:"omitempty,email"`
	Address        *domain.Address      `json:"address"`
	GSTNumber      *string              `json:"gstNumber"`
	ReferredBy     *string              `json:"referredBy"`
	ReferredByType *domain.ReferralType `json:"referredByType"`
	Tags           []string             `json:"tags"`
	Notes          *string              `json:"notes"`
	IsActive       *bool                `json:"isActive"`
}

// List returns a page of directory customers.
//
// @Summary      List customers
// @Tags         customers
// @Produce      json
// @Security     BearerAuth
// @Param        search      query     string  false  "Name, phone or email"
// @Param        tag         query     string  false  "Tag"
// @Param        activeOnly  query     bool    false  "Only active customers"
// @Param        page        query     int     false  "Page"
// @Param        limit       query     int     false  "Page size"
// @Success      200         {object}  customerListResponse
// @Router       /customers [get]
func (h *CustomerHandler) List(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	activeOnly, _ := strconv.ParseBool(c.QueryParam("activeOnly"))
	res, err := h.service.List(c.Request().Context(), actor, ports.CustomerFilter{
		Search:     c.QueryParam("search"),
		Tag:        c.QueryParam("tag"),
		ActiveOnly: activeOnly,
		Page:       pageFrom(c),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newCustomerList(res))
}

// ForEstimate lists every party the caller can bill, directory and
// registered, sorted by name.
//
// @Summary      Bill-to options
// @Tags         customers
// @Produce      json
// @Security     BearerAuth
// @Param        search  query     string  false  "Name, phone or email"
// @Param        limit   query     int     false  "Maximum rows"
// @Success      200     {array}   ports.BillableOption
// @Router       /customers/for-estimate [get]
func (h *CustomerHandler) ForEstimate(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	opts, err := h.service.ForEstimate(c.Request().Context(), actor, c.QueryParam("search"), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orEmpty(opts))
}

// FindByPhone looks a customer up by exact phone number.
//
// @Summary      Find customer by phone
// @Tags         customers
// @Produce      json
// @Security     BearerAuth
// @Param        phone  path      string  true  "Phone number"
// @Success      200    {object}  domain.Customer
// @Failure      404    {object}  errorResponse
// @Router       /customers/search/phone/{phone} [get]
func (h *CustomerHandler) FindByPhone(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	customer, err := h.service.FindByPhone(c.Request().Context(), actor, c.Param("phone"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, customer)
}

// Get returns one customer.
//
// @Summary      Get customer
// @Tags         customers
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Customer id"
// @Success      200  {object}  domain.Customer
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /customers/{id} [get]
func (h *CustomerHandler) Get(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	customer, err := h.service.Get(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, customer)
}

// Create adds a customer to the caller's directory.
//
// @Summary      Create customer
// @Tags         customers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createCustomerRequest  true  "Customer"
// @Success      201   {object}  domain.Customer
// @Failure      400   {object}  errorResponse
// @Router       /customers [post]
func (h *CustomerHandler) Create(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req createCustomerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	customer, err := h.service.Create(c.Request().Context(), actor, ports.CreateCustomerInput{
		TraderID:       req.TraderID,
		UserID:         req.UserID,
		Name:           req.Name,
		Phone:          req.Phone,
		Email:          req.Email,
		Address:        req.Address,
		GSTNumber:      req.GSTNumber,
		ReferredBy:     req.ReferredBy,
		ReferredByType: req.ReferredByType,
		Tags:           req.Tags,
		Notes:          req.Notes,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, customer)
}

// Update edits a customer.
//
// @Summary      Update customer
// @Tags         customers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                 true  "Customer id"
// @Param        body  body      updateCustomerRequest  true  "Fields to change"
// @Success      200   {object}  domain.Customer
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /customers/{id} [put]
func (h *CustomerHandler) Update(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req updateCustomerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	customer, err := h.service.Update(c.Request().Context(), actor, c.Param("id"), ports.UpdateCustomerInput{
		Name:           req.Name,
		Phone:          req.Phone,
		Email:          req.Email,
		Address:        req.Address,
		GSTNumber:      req.GSTNumber,
		ReferredBy:     req.ReferredBy,
		ReferredByType: req.ReferredByType,
		Tags:           req.Tags,
		Notes:          req.Notes,
		IsActive:       req.IsActive,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, customer)
}

// Delete removes a customer.
//
// @Summary      Delete customer
// @Tags         customers
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Customer id"
// @Success      200  {object}  messageResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /customers/{id} [delete]
func (h *CustomerHandler) Delete(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Customer deleted successfully"})
}
