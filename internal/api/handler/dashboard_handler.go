package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/quotebook/estimate-system/internal/core/ports"
)

type DashboardHandler struct {
	service ports.DashboardService
}

func NewDashboardHandler(service ports.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Stats godoc
//
// @Summary      Headline dashboard figures
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ports.DashboardStats
// @Router       /dashboard/stats [get]
func (h *DashboardHandler) Stats(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	stats, err := h.service.Stats(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// RecentEstimates godoc
//
// @Summary      Latest estimates
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.Estimate
// @Router       /dashboard/recent-estimates [get]
func (h *DashboardHandler) RecentEstimates(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	rows, err := h.service.RecentEstimates(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orEmpty(rows))
}

// TopCustomers godoc
//
// @Summary      Customers with the most estimates
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  ports.TopCustomer
// @Router       /dashboard/top-customers [get]
func (h *DashboardHandler) TopCustomers(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	rows, err := h.service.TopCustomers(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orEmpty(rows))
}

// MonthlyStats godoc
//
// @Summary      Trailing six month activity
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  ports.MonthlyStat
// @Router       /dashboard/monthly-stats [get]
func (h *DashboardHandler) MonthlyStats(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	rows, err := h.service.MonthlyStats(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orEmpty(rows))
}

// AdminStats godoc
//
// @Summary      System-wide overview
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ports.AdminStats
// @Failure      403  {object}  errorResponse
// @Router       /dashboard/admin-stats [get]
func (h *DashboardHandler) AdminStats(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	stats, err := h.service.AdminStats(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}
