package ports

import (
	"context"

	"github.com/quotebook/estimate-system/internal/core/domain"
)

// UserFilter narrows user listings. Empty fields do not filter.
type UserFilter struct {
	Role           string
	Search         string // partial match on name, email or phone
	ActiveOnly     bool
	ApprovalStatus domain.ApprovalStatus
	SortByName     bool
	Page           Page
}

// UserRepository defines persistence operations for user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// ExistsByEmailOrPhone matches on either non-empty argument and ignores the
	// account identified by excludeID.
	ExistsByEmailOrPhone(ctx context.Context, email, phone, excludeID string) (bool, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter UserFilter) ([]*domain.User, int64, error)
}

// RegisterInput is the DTO for both registration endpoints.
type RegisterInput struct {
	Name            string
	Email           string
	Password        string
	Phone           string
	Role            string
	TraderProfile   *domain.TraderProfile
	CustomerProfile *domain.CustomerProfile
}

// AuthResult carries the issued token. Token is empty for registrations that
// still wait on approval.
type AuthResult struct {
	Token string
	User  *domain.User
}

// ProfileInput is a partial profile update; nil fields are left untouched.
type ProfileInput struct {
	Name          *string
	Email         *string
	Phone         *string
	Tags          []string
	TraderProfile *domain.TraderProfile
}

// AuthService covers registration, login, the caller's own profile and the
// admin approval workflow.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	RegisterCustomer(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Me(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*domain.User, error)
	ChangePassword(ctx context.Context, userID, current, next string) error
	UpdateTags(ctx context.Context, userID string, tags []string) (*domain.User, error)
	PendingApprovals(ctx context.Context) ([]*domain.User, error)
	Approve(ctx context.Context, actor domain.Actor, userID string) (*domain.User, error)
	Reject(ctx context.Context, actor domain.Actor, userID, reason string) (*domain.User, error)
	EnsureAdmin(ctx context.Context, email, password string) error
}

// UserUpdateInput is an account edit made through the users resource.
// IsActive and Role are honoured for admins only.
type UserUpdateInput struct {
	Name     *string
	Email    *string
	Phone    *string
	IsActive *bool
	Role     *string
}

// UserService is the admin-facing account directory.
type UserService interface {
	List(ctx context.Context, actor domain.Actor, filter UserFilter) (*PageResult[*domain.User], error)
	Get(ctx context.Context, actor domain.Actor, id string) (*domain.User, error)
	ListTraders(ctx context.Context) ([]*domain.User, error)
	Update(ctx context.Context, actor domain.Actor, id string, in UserUpdateInput) (*domain.User, error)
	Delete(ctx context.Context, actor domain.Actor, id string) error
}
