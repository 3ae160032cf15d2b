package handler

import (
	"github.com/quotebook/estimate-system/internal/core/domain"
	"github.com/quotebook/estimate-system/internal/core/ports"
)

// errorResponse documents the error envelope rendered by the API error handler.
type errorResponse struct {
	Message         string              `json:"message"`
	Errors          []domain.FieldError `json:"errors,omitempty"`
	RejectionReason string              `json:"rejectionReason,omitempty"`
}

// messageResponse is returned by endpoints that only report an outcome.
type messageResponse struct {
	Message string `json:"message"`
}

// Paginated list envelopes. Each resource names its rows after itself.

type userListResponse struct {
	Users       []*domain.User `json:"users"`
	TotalPages  int            `json:"totalPages"`
	CurrentPage int            `json:"currentPage"`
	Total       int64          `json:"total"`
}

type customerListResponse struct {
	Customers   []*domain.Customer `json:"customers"`
	TotalPages  int                `json:"totalPages"`
	CurrentPage int                `json:"currentPage"`
	Total       int64              `json:"total"`
}

type brandListResponse struct {
	Brands      []*domain.Brand `json:"brands"`
	TotalPages  int             `json:"totalPages"`
	CurrentPage int             `json:"currentPage"`
	Total       int64           `json:"total"`
}

type itemListResponse struct {
	Items       []*domain.Item `json:"items"`
	TotalPages  int            `json:"totalPages"`
	CurrentPage int            `json:"currentPage"`
	Total       int64          `json:"total"`
}

type estimateListResponse struct {
	Estimates   []*domain.Estimate `json:"estimates"`
	TotalPages  int                `json:"totalPages"`
	CurrentPage int                `json:"currentPage"`
	Total       int64              `json:"total"`
}

func newUserList(r *ports.PageResult[*domain.User]) userListResponse {
	return userListResponse{Users: r.Items, TotalPages: r.TotalPages, CurrentPage: r.Page, Total: r.Total}
}

func newCustomerList(r *ports.PageResult[*domain.Customer]) customerListResponse {
	return customerListResponse{Customers: r.Items, TotalPages: r.TotalPages, CurrentPage: r.Page, Total: r.Total}
}

func newBrandList(r *ports.PageResult[*domain.Brand]) brandListResponse {
	return brandListResponse{Brands: r.Items, TotalPages: r.TotalPages, CurrentPage: r.Page, Total: r.Total}
}

func newItemList(r *ports.PageResult[*domain.Item]) itemListResponse {
	return itemListResponse{Items: r.Items, TotalPages: r.TotalPages, CurrentPage: r.Page, Total: r.Total}
}

func newEstimateList(r *ports.PageResult[*domain.Estimate]) estimateListResponse {
	return estimateListResponse{Estimates: r.Items, TotalPages: r.TotalPages, CurrentPage: r.Page, Total: r.Total}
}

// orEmpty keeps JSON arrays from rendering as null.
func orEmpty[T any](rows []T) []T {
	if rows == nil {
		return []T{}
	}
	return rows
}
