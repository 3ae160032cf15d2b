package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/quotebook/estimate-system/internal/core/domain"
	"github.com/quotebook/estimate-system/internal/core/ports"
)

// CatalogHandler serves brands and items.
type CatalogHandler struct {
	service ports.CatalogService
}

func NewCatalogHandler(service ports.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

type brandRequest struct {
	TraderID    string  `json:"traderId"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"isActive"`
}

func (r brandRequest) input() ports.BrandInput {
	return ports.BrandInput{TraderID: r.TraderID, Name: r.Name, Description: r.Description, IsActive: r.IsActive}
}

// itemRequest is shared by create and update; required fields are checked by
// the catalog service so all problems are reported together.
type itemRequest struct {
	TraderID       string           `json:"traderId"`
	Name           *string          `json:"name"`
	Category       *string          `json:"category"`
	Brand          *string          `json:"brand"`
	UOM            *domain.UOM      `json:"uom"`
	CurrentRate    *decimal.Decimal `json:"currentRate"`
	Description    *string          `json:"description"`
	Specifications *string          `json:"specifications"`
	IsActive       *bool            `json:"isActive"`
}

func (r itemRequest) input() ports.ItemInput {
	return ports.ItemInput{
		TraderID:       r.TraderID,
		Name:           r.Name,
		Category:       r.Category,
		BrandID:        r.Brand,
		UOM:            r.UOM,
		CurrentRate:    r.CurrentRate,
		Description:    r.Description,
		Specifications: r.Specifications,
		IsActive:       r.IsActive,
	}
}

// ListBrands godoc
//
// @Summary      List brands
// @Tags         brands
// @Produce      json
// @Security     BearerAuth
// @Param        search  query     string  false  "Name"
// @Param        page    query     int     false  "Page"
// @Param        limit   query     int     false  "Page size"
// @Success      200     {object}  brandListResponse
// @Router       /brands [get]
func (h *CatalogHandler) ListBrands(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	res, err := h.service.ListBrands(c.Request().Context(), actor, ports.BrandFilter{
		Search: c.QueryParam("search"),
		Page:   pageFrom(c),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newBrandList(res))
}

// GetBrand godoc
//
// @Summary      Get brand
// @Tags         brands
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Brand id"
// @Success      200  {object}  domain.Brand
// @Failure      404  {object}  errorResponse
// @Router       /brands/{id} [get]
func (h *CatalogHandler) GetBrand(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	b, err := h.service.GetBrand(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, b)
}

// CreateBrand godoc
//
// @Summary      Create brand
// @Tags         brands
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      brandRequest  true  "Brand"
// @Success      201   {object}  domain.Brand
// @Failure      400   {object}  errorResponse
// @Router       /brands [post]
func (h *CatalogHandler) CreateBrand(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req brandRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	b, err := h.service.CreateBrand(c.Request().Context(), actor, req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, b)
}

// UpdateBrand godoc
//
// @Summary      Update brand
// @Tags         brands
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string        true  "Brand id"
// @Param        body  body      brandRequest  true  "Fields to change"
// @Success      200   {object}  domain.Brand
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /brands/{id} [put]
func (h *CatalogHandler) UpdateBrand(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req brandRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	b, err := h.service.UpdateBrand(c.Request().Context(), actor, c.Param("id"), req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, b)
}

// DeleteBrand godoc
//
// @Summary      Delete brand
// @Tags         brands
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Brand id"
// @Success      200  {object}  messageResponse
// @Failure      404  {object}  errorResponse
// @Router       /brands/{id} [delete]
func (h *CatalogHandler) DeleteBrand(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteBrand(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Brand deleted successfully"})
}

// ListItems godoc
//
// @Summary      List items
// @Tags         items
// @Produce      json
// @Security     BearerAuth
// @Param        search    query     string  false  "Name or category"
// @Param        category  query     string  false  "Category"
// @Param        brand     query     string  false  "Brand id"
// @Param        page      query     int     false  "Page"
// @Param        limit     query     int     false  "Page size"
// @Success      200       {object}  itemListResponse
// @Router       /items [get]
func (h *CatalogHandler) ListItems(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	res, err := h.service.ListItems(c.Request().Context(), actor, ports.ItemFilter{
		Search:   c.QueryParam("search"),
		Category: c.QueryParam("category"),
		BrandID:  c.QueryParam("brand"),
		Page:     pageFrom(c),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newItemList(res))
}

// Categories godoc
//
// @Summary      Distinct item categories
// @Tags         items
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  string
// @Router       /items/categories [get]
func (h *CatalogHandler) Categories(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	cats, err := h.service.Categories(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orEmpty(cats))
}

// GetItem godoc
//
// @Summary      Get item
// @Tags         items
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Item id"
// @Success      200  {object}  domain.Item
// @Failure      404  {object}  errorResponse
// @Router       /items/{id} [get]
func (h *CatalogHandler) GetItem(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	it, err := h.service.GetItem(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, it)
}

// CreateItem godoc
//
// @Summary      Create item
// @Tags         items
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      itemRequest  true  "Item"
// @Success      201   {object}  domain.Item
// @Failure      400   {object}  errorResponse
// @Router       /items [post]
func (h *CatalogHandler) CreateItem(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req itemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	it, err := h.service.CreateItem(c.Request().Context(), actor, req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, it)
}

// UpdateItem godoc
//
// @Summary      Update item
// @Tags         items
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string       true  "Item id"
// @Param        body  body      itemRequest  true  "Fields to change"
// @Success      200   {object}  domain.Item
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /items/{id} [put]
func (h *CatalogHandler) UpdateItem(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req itemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	it, err := h.service.UpdateItem(c.Request().Context(), actor, c.Param("id"), req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, it)
}

// DeleteItem godoc
//
// @Summary      Delete item
// @Tags         items
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Item id"
// @Success      200  {object}  messageResponse
// @Failure      404  {object}  errorResponse
// @Router       /items/{id} [delete]
func (h *CatalogHandler) DeleteItem(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteItem(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Item deleted successfully"})
}
