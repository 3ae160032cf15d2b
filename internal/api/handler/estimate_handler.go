package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/quotebook/estimate-system/internal/core/domain"
	"github.com/quotebook/estimate-system/internal/core/ports"
)

// EstimateHandler serves the estimate engine.
type EstimateHandler struct {
	service ports.EstimateService
}

func NewEstimateHandler(service ports.EstimateService) *EstimateHandler {
	return &EstimateHandler{service: service}
}

const dateLayout = "2006-01-02"

// date is the wire form of validTill. It accepts either a calendar date or a
// full RFC 3339 timestamp.
type date struct {
	time.Time
}

func (d *date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return domain.NewValidationError("validTill", "Invalid date")
	}
	t, err := parseDate(s)
	if err != nil {
		return domain.NewValidationError("validTill", "Invalid date")
	}
	d.Time = t
	return nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

type lineRequest struct {
	Item     string          `json:"item"`
	Quantity decimal.Decimal `json:"quantity"`
	Rate     decimal.Decimal `json:"rate"`
}

func lineInputs(rows []lineRequest) []ports.LineInput {
	if rows == nil {
		return nil
	}
	out := make([]ports.LineInput, len(rows))
	for i, r := range rows {
		out[i] = ports.LineInput{ItemID: r.Item, Quantity: r.Quantity, Rate: r.Rate}
	}
	return out
}

type createEstimateRequest struct {
	Customer       string                `json:"customer"`
	CustomerType   domain.PartyKind      `json:"customerType"   validate:"omitempty,oneof=directory registered"`
	Items          []lineRequest         `json:"items"`
	Discount       decimal.Decimal       `json:"discount"`
	DiscountType   domain.DiscountType   `json:"discountType"`
	LoadingCharges decimal.Decimal       `json:"loadingCharges"`
	ValidTill      date                  `json:"validTill" swaggertype:"string"`
	Notes          string                `json:"notes"`
	Status         domain.EstimateStatus `json:"status"`
}

type updateEstimateRequest struct {
	Customer       *string                `json:"customer"`
	CustomerType   domain.PartyKind       `json:"customerType"   validate:"omitempty,oneof=directory registered"`
	Items          []lineRequest          `json:"items"`
	Discount       *decimal.Decimal       `json:"discount"`
	DiscountType   *domain.DiscountType   `json:"discountType"`
	LoadingCharges *decimal.Decimal       `json:"loadingCharges"`
	ValidTill      *date                  `json:"validTill" swaggertype:"string"`
	Notes          *string                `json:"notes"`
	InvoiceNumber  *string                `json:"invoiceNumber"`
	Status         *domain.EstimateStatus `json:"status"`
}

type sendRequest struct {
	SentVia []domain.SendChannel `json:"sentVia"`
}

// filterFrom reads the shared estimate list query parameters.
func filterFrom(c echo.Context) (ports.EstimateFilter, error) {
	from, err := parseDate(c.QueryParam("dateFrom"))
	if err != nil {
		return ports.EstimateFilter{}, domain.NewValidationError("dateFrom", "Invalid date")
	}
	to, err := parseDate(c.QueryParam("dateTo"))
	if err != nil {
		return ports.EstimateFilter{}, domain.NewValidationError("dateTo", "Invalid date")
	}
	if !to.IsZero() && len(strings.TrimSpace(c.QueryParam("dateTo"))) == len(dateLayout) {
		// a bare date includes the whole day
		to = to.Add(24*time.Hour - time.Nanosecond)
	}
	f := ports.EstimateFilter{
		Search:   c.QueryParam("search"),
		Status:   domain.EstimateStatus(c.QueryParam("status")),
		DateFrom: from,
		DateTo:   to,
		Page:     pageFrom(c),
	}
	if id := c.QueryParam("customer"); id != "" {
		f.Parties = []domain.PartyRef{
			{Kind: domain.PartyDirectory, ID: id},
			{Kind: domain.PartyRegistered, ID: id},
		}
	}
	return f, nil
}

// List returns a page of the caller's estimates.
//
// @Summary      List estimates
// @Tags         estimates
// @Produce      json
// @Security     BearerAuth
// @Param        search    query     string  false  "Estimate number"
// @Param        status    query     string  false  "Status"
// @Param        customer  query     string  false  "Customer id"
// @Param        dateFrom  query     string  false  "Created on or after (YYYY-MM-DD)"
// @Param        dateTo    query     string  false  "Created on or before (YYYY-MM-DD)"
// @Param        page      query     int     false  "Page"
// @Param        limit     query     int     false  "Page size"
// @Success      200       {object}  estimateListResponse
// @Failure      400       {object}  errorResponse
// @Router       /estimates [get]
func (h *EstimateHandler) List(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	filter, err := filterFrom(c)
	if err != nil {
		return err
	}
	res, err := h.service.List(c.Request().Context(), actor, filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newEstimateList(res))
}

// Mine returns the estimates billed to the calling customer.
//
// @Summary      My estimates
// @Tags         estimates
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Status"
// @Param        page    query     int     false  "Page"
// @Param        limit   query     int     false  "Page size"
// @Success      200     {object}  estimateListResponse
// @Router       /estimates/my-estimates [get]
func (h *EstimateHandler) Mine(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	filter, err := filterFrom(c)
	if err != nil {
		return err
	}
	filter.Parties = nil
	res, err := h.service.ListMine(c.Request().Context(), actor, filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newEstimateList(res))
}

// ForCustomer returns the latest estimates billed to one customer.
//
// @Summary      Estimates for a customer
// @Tags         estimates
// @Produce      json
// @Security     BearerAuth
// @Param        customerId  path      string  true   "Customer or user id"
// @Param        limit       query     int     false  "Maximum rows (default 5)"
// @Param        dateFrom    query     string  false  "Created on or after"
// @Param        dateTo      query     string  false  "Created on or before"
// @Success      200         {array}   domain.Estimate
// @Router       /estimates/customer/{customerId} [get]
func (h *EstimateHandler) ForCustomer(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	filter, err := filterFrom(c)
	if err != nil {
		return err
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	filter.Page = ports.Page{Number: 1, Limit: limit}
	rows, err := h.service.ListForCustomer(c.Request().Context(), actor, c.Param("customerId"), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orEmpty(rows))
}

// ByItem returns every estimate that contains an item.
//
// @Summary      Estimates containing an item
// @Tags         estimates
// @Produce      json
// @Security     BearerAuth
// @Param        itemId  path      string  true  "Item id"
// @Success      200     {array}   domain.Estimate
// @Router       /estimates/search/item/{itemId} [get]
func (h *EstimateHandler) ByItem(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	rows, err := h.service.ListByItem(c.Request().Context(), actor, c.Param("itemId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orEmpty(rows))
}

// Get returns one estimate. A customer opening a sent estimate marks it viewed.
//
// @Summary      Get estimate
// @Tags         estimates
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Estimate id"
// @Success      200  {object}  domain.Estimate
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /estimates/{id} [get]
func (h *EstimateHandler) Get(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	est, err := h.service.Get(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, est)
}

// Create prices and stores a new draft estimate.
//
// @Summary      Create estimate
// @Tags         estimates
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createEstimateRequest  true  "Estimate"
// @Success      201   {object}  domain.Estimate
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /estimates [post]
func (h *EstimateHandler) Create(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req createEstimateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	est, err := h.service.Create(c.Request().Context(), actor, ports.CreateEstimateInput{
		CustomerID:     req.Customer,
		CustomerKind:   req.CustomerType,
		Items:          lineInputs(req.Items),
		Discount:       req.Discount,
		DiscountType:   req.DiscountType,
		LoadingCharges: req.LoadingCharges,
		ValidTill:      req.ValidTill.Time,
		Notes:          req.Notes,
		Status:         req.Status,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, est)
}

// Update edits an estimate. Sending new items reprices the whole estimate.
//
// @Summary      Update estimate
// @Tags         estimates
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                 true  "Estimate id"
// @Param        body  body      updateEstimateRequest  true  "Fields to change"
// @Success      200   {object}  domain.Estimate
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /estimates/{id} [put]
func (h *EstimateHandler) Update(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req updateEstimateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	in := ports.UpdateEstimateInput{
		CustomerID:     req.Customer,
		CustomerKind:   req.CustomerType,
		Items:          lineInputs(req.Items),
		Discount:       req.Discount,
		DiscountType:   req.DiscountType,
		LoadingCharges: req.LoadingCharges,
		Notes:          req.Notes,
		InvoiceNumber:  req.InvoiceNumber,
		Status:         req.Status,
	}
	if req.ValidTill != nil {
		in.ValidTill = &req.ValidTill.Time
	}
	est, err := h.service.Update(c.Request().Context(), actor, c.Param("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, est)
}

// Send records the delivery channels and moves the estimate to sent.
//
// @Summary      Mark estimate as sent
// @Tags         estimates
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string       true  "Estimate id"
// @Param        body  body      sendRequest  true  "Channels"
// @Success      200   {object}  domain.Estimate
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /estimates/{id}/send [put]
func (h *EstimateHandler) Send(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req sendRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	est, err := h.service.MarkSent(c.Request().Context(), actor, c.Param("id"), req.SentVia)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, est)
}

// Delete removes an estimate.
//
// @Summary      Delete estimate
// @Tags         estimates
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Estimate id"
// @Success      200  {object}  messageResponse
// @Failure      404  {object}  errorResponse
// @Router       /estimates/{id} [delete]
func (h *EstimateHandler) Delete(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Estimate deleted successfully"})
}
