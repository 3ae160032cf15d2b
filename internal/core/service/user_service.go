package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/quotebook/estimate-system/internal/core/domain"
	"github.com/quotebook/estimate-system/internal/core/ports"
)

// UserService manages accounts on behalf of admins and the account owner.
type UserService struct {
	repo       ports.UserRepository
	auth       *AuthService
	principals ports.PrincipalResolver
	logger     zerolog.Logger
}

func NewUserService(repo ports.UserRepository, auth *AuthService, principals ports.PrincipalResolver, logger zerolog.Logger) *UserService {
	return &UserService{repo: repo, auth: auth, principals: principals, logger: logger}
}

func (s *UserService) List(ctx context.Context, actor domain.Actor, filter ports.UserFilter) (*ports.PageResult[*domain.User], error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if filter.Role != "" && !domain.ValidRole(filter.Role) {
		return nil, domain.NewValidationError("role", "Invalid role")
	}
	filter.Page = ports.NewPage(filter.Page.Number, filter.Page.Limit)
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return ports.NewPageResult(users, total, filter.Page), nil
}

func (s *UserService) Get(ctx context.Context, actor domain.Actor, id string) (*domain.User, error) {
	if !domain.CanManageUser(actor, id) {
		return nil, domain.ErrForbidden
	}
	return s.repo.FindByID(ctx, id)
}

// ListTraders returns the active, approved traders sorted by name.
func (s *UserService) ListTraders(ctx context.Context) ([]*domain.User, error) {
	users, _, err := s.repo.List(ctx, ports.UserFilter{
		Role:           domain.RoleTrader,
		ActiveOnly:     true,
		ApprovalStatus: domain.ApprovalApproved,
		SortByName:     true,
	})
	return users, err
}

func (s *UserService) Update(ctx context.Context, actor domain.Actor, id string, in ports.UserUpdateInput) (*domain.User, error) {
	if !domain.CanManageUser(actor, id) {
		return nil, domain.ErrForbidden
	}
	if !actor.IsAdmin() && (in.IsActive != nil || in.Role != nil) {
		return nil, domain.ErrForbidden
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.auth.applyContact(ctx, user, in.Name, in.Email, in.Phone); err != nil {
		return nil, err
	}
	if in.Role != nil {
		if !domain.ValidRole(*in.Role) {
			return nil, domain.NewValidationError("role", "Invalid role")
		}
		user.Role = *in.Role
		if domain.RequiresApproval(user.Role) && user.ApprovalStatus == "" {
			user.ApprovalStatus = domain.ApprovalApproved
		}
	}
	if in.IsActive != nil {
		user.IsActive = *in.IsActive
	}

	user.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	if in.IsActive != nil || in.Role != nil {
		s.invalidate(ctx, user.ID)
	}
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	if actor.ID == id {
		return domain.NewValidationError("id", "You cannot delete your own account")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	s.logger.Info().Str("user_id", id).Str("deleted_by", actor.ID).Msg("user deleted")
	return nil
}

func (s *UserService) invalidate(ctx context.Context, id string) {
	if s.principals != nil {
		s.principals.Invalidate(ctx, id)
	}
}
