package ports

import (
	"context"
	"time"

	"github.com/quotebook/estimate-system/internal/core/domain"
)

// Principal is the slice of a user the auth middleware checks per request.
type Principal struct {
	ID             string                `json:"id"`
	Role           string                `json:"role"`
	IsActive       bool                  `json:"isActive"`
	ApprovalStatus domain.ApprovalStatus `json:"approvalStatus,omitempty"`
}

// PrincipalOf projects u onto a Principal.
func PrincipalOf(u *domain.User) *Principal {
	return &Principal{ID: u.ID, Role: u.Role, IsActive: u.IsActive, ApprovalStatus: u.ApprovalStatus}
}

// PrincipalCache stores principals by user id. Get reports false on a miss.
type PrincipalCache interface {
	Get(ctx context.Context, userID string) (*Principal, bool, error)
	Set(ctx context.Context, p *Principal, ttl time.Duration) error
	Delete(ctx context.Context, userID string) error
}

// PrincipalResolver loads principals for request authentication and drops
// stale entries after account changes.
type PrincipalResolver interface {
	Resolve(ctx context.Context, userID string) (*Principal, error)
	Invalidate(ctx context.Context, userID string)
}
