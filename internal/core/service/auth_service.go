package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/quotebook/estimate-system/internal/core/domain"
	"github.com/quotebook/estimate-system/internal/core/ports"
	"github.com/quotebook/estimate-system/internal/pkg/metrics"
)

const (
	minPasswordLength     = 6
	defaultRejectedReason = "No reason provided"
)

// AuthService implements registration, login, self-service profile edits and
// the admin approval workflow.
type AuthService struct {
	repo       ports.UserRepository
	principals ports.PrincipalResolver
	jwtSecret  string
	tokenTTL   time.Duration
	logger     zerolog.Logger
}

func NewAuthService(repo ports.UserRepository, principals ports.PrincipalResolver, jwtSecret string, tokenTTL time.Duration, logger zerolog.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{repo: repo, principals: principals, jwtSecret: jwtSecret, tokenTTL: tokenTTL, logger: logger}
}

// Register creates an account of any role. Traders and admins start pending
// and receive no token.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	if !domain.ValidRole(in.Role) {
		return nil, domain.NewValidationError("role", "Invalid role")
	}
	return s.register(ctx, in)
}

// RegisterCustomer creates a customer account with a billing profile and logs
// it in straight away.
func (s *AuthService) RegisterCustomer(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	in.Role = domain.RoleCustomer
	if in.CustomerProfile == nil {
		in.CustomerProfile = &domain.CustomerProfile{}
	}
	switch in.CustomerProfile.CustomerType {
	case "":
		in.CustomerProfile.CustomerType = domain.CustomerTypeIndividual
	case domain.CustomerTypeIndividual, domain.CustomerTypeBusiness:
	default:
		return nil, domain.NewValidationError("customerType", "Customer type must be individual or business")
	}
	return s.register(ctx, in)
}

func (s *AuthService) register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	if len(in.Password) < minPasswordLength {
		return nil, domain.NewValidationError("password", "Password must be at least 6 characters")
	}

	exists, err := s.repo.ExistsByEmailOrPhone(ctx, in.Email, in.Phone, "")
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		Phone:        in.Phone,
		Role:         in.Role,
		Tags:         []string{},
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	switch in.Role {
	case domain.RoleTrader:
		user.TraderProfile = in.TraderProfile
	case domain.RoleCustomer:
		user.CustomerProfile = in.CustomerProfile
	}
	if domain.RequiresApproval(in.Role) {
		user.ApprovalStatus = domain.ApprovalPending
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	metrics.RegistrationsTotal.WithLabelValues(created.Role).Inc()
	s.logger.Info().Str("user_id", created.ID).Str("role", created.Role).Msg("user registered")

	if created.ApprovalStatus == domain.ApprovalPending {
		return &ports.AuthResult{User: created}, nil
	}
	token, err := s.generateToken(created)
	if err != nil {
		return nil, err
	}
	return &ports.AuthResult{Token: token, User: created}, nil
}

// Login verifies the password before looking at account state, so the
// account gates are never revealed to a caller without valid credentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	if err := user.CanLogin(); err != nil {
		metrics.LoginsTotal.WithLabelValues(loginResult(err)).Inc()
		return nil, err
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return &ports.AuthResult{Token: token, User: user}, nil
}

func loginResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrAccountInactive):
		return "inactive"
	case errors.Is(err, domain.ErrAccountPending):
		return "pending"
	case errors.Is(err, domain.ErrAccountRejected):
		return "rejected"
	}
	return "error"
}

func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.FindByID(ctx, userID)
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, in ports.ProfileInput) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.applyContact(ctx, user, in.Name, in.Email, in.Phone); err != nil {
		return nil, err
	}
	if in.Tags != nil {
		tags, err := domain.NormalizeTags(in.Tags)
		if err != nil {
			return nil, err
		}
		user.Tags = tags
	}
	if in.TraderProfile != nil && user.Role == domain.RoleTrader {
		var current domain.TraderProfile
		if user.TraderProfile != nil {
			current = *user.TraderProfile
		}
		merged := current.Merge(*in.TraderProfile)
		user.TraderProfile = &merged
	}

	user.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// applyContact sets name, email and phone on user, rejecting an email or
// phone already used by another account.
func (s *AuthService) applyContact(ctx context.Context, user *domain.User, name, email, phone *string) error {
	if name != nil {
		n := strings.TrimSpace(*name)
		if n == "" {
			return domain.NewValidationError("name", "Name cannot be empty")
		}
		user.Name = n
	}

	newEmail, newPhone := user.Email, user.Phone
	if email != nil {
		newEmail = normalizeEmail(*email)
	}
	if phone != nil {
		newPhone = strings.TrimSpace(*phone)
	}
	if newEmail == user.Email && newPhone == user.Phone {
		return nil
	}

	probeEmail, probePhone := "", ""
	if newEmail != user.Email {
		probeEmail = newEmail
	}
	if newPhone != user.Phone {
		probePhone = newPhone
	}
	exists, err := s.repo.ExistsByEmailOrPhone(ctx, probeEmail, probePhone, user.ID)
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrUserExists
	}
	user.Email, user.Phone = newEmail, newPhone
	return nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID, current, next string) error {
	if len(next) < minPasswordLength {
		return domain.NewValidationError("newPassword", "New password must be at least 6 characters")
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)) != nil {
		return domain.NewValidationError("currentPassword", "Current password is incorrect")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hash)
	user.UpdatedAt = time.Now().UTC()
	return s.repo.Update(ctx, user)
}

func (s *AuthService) UpdateTags(ctx context.Context, userID string, tags []string) (*domain.User, error) {
	normalized, err := domain.NormalizeTags(tags)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Tags = normalized
	user.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) PendingApprovals(ctx context.Context) ([]*domain.User, error) {
	users, _, err := s.repo.List(ctx, ports.UserFilter{ApprovalStatus: domain.ApprovalPending})
	return users, err
}

func (s *AuthService) Approve(ctx context.Context, actor domain.Actor, userID string) (*domain.User, error) {
	user, err := s.pendingUser(ctx, actor, userID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	user.ApprovalStatus = domain.ApprovalApproved
	user.ApprovedBy = actor.ID
	user.ApprovedAt = &now
	user.RejectionReason = ""
	user.UpdatedAt = now
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	s.invalidate(ctx, user.ID)
	metrics.ApprovalsTotal.WithLabelValues(string(domain.ApprovalApproved)).Inc()
	s.logger.Info().Str("user_id", user.ID).Str("approved_by", actor.ID).Msg("user approved")
	return user, nil
}

func (s *AuthService) Reject(ctx context.Context, actor domain.Actor, userID, reason string) (*domain.User, error) {
	user, err := s.pendingUser(ctx, actor, userID)
	if err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = defaultRejectedReason
	}
	now := time.Now().UTC()
	user.ApprovalStatus = domain.ApprovalRejected
	user.RejectedAt = &now
	user.RejectionReason = reason
	user.UpdatedAt = now
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	s.invalidate(ctx, user.ID)
	metrics.ApprovalsTotal.WithLabelValues(string(domain.ApprovalRejected)).Inc()
	s.logger.Info().Str("user_id", user.ID).Str("rejected_by", actor.ID).Msg("user rejected")
	return user, nil
}

func (s *AuthService) pendingUser(ctx context.Context, actor domain.Actor, userID string) (*domain.User, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.ApprovalStatus != domain.ApprovalPending {
		return nil, domain.ErrNotPendingApproval
	}
	return user, nil
}

// EnsureAdmin creates an approved admin account for email unless one exists.
// An empty email disables seeding.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" {
		return nil
	}
	_, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}
	if len(password) < minPasswordLength {
		return fmt.Errorf("seed admin password: %w", domain.ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &domain.User{
		Name:           "Administrator",
		Email:          email,
		PasswordHash:   string(hash),
		Role:           domain.RoleAdmin,
		ApprovalStatus: domain.ApprovalApproved,
		ApprovedAt:     &now,
		Tags:           []string{},
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return err
	}
	s.logger.Info().Str("user_id", created.ID).Str("email", email).Msg("seed admin created")
	return nil
}

func (s *AuthService) invalidate(ctx context.Context, userID string) {
	if s.principals != nil {
		s.principals.Invalidate(ctx, userID)
	}
}

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": user.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
