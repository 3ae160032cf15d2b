package domain

import "fmt"

// Actor is the authenticated caller as seen by access checks.
type Actor struct {
	ID   string
	Role string
}

func (a Actor) IsAdmin() bool    { return a.Role == RoleAdmin }
func (a Actor) IsTrader() bool   { return a.Role == RoleTrader }
func (a Actor) IsCustomer() bool { return a.Role == RoleCustomer }

// Scope is the tenant filter for trader-owned rows. An empty TraderID means
// every tenant is visible.
type Scope struct {
	TraderID string
}

// Unrestricted reports whether the scope spans all tenants.
func (s Scope) Unrestricted() bool { return s.TraderID == "" }

// Owns reports whether a row owned by traderID falls inside the scope.
func (s Scope) Owns(traderID string) bool {
	return s.Unrestricted() || s.TraderID == traderID
}

// Check returns ErrForbidden when traderID is outside the scope.
func (s Scope) Check(traderID string) error {
	if !s.Owns(traderID) {
		return fmt.Errorf("%w: resource belongs to another trader", ErrForbidden)
	}
	return nil
}

// TenantScope resolves the trader scope for customers, brands, items and
// estimates. Admins see everything, traders see their own rows, customers
// have no trader scope.
func TenantScope(a Actor) (Scope, error) {
	switch a.Role {
	case RoleAdmin:
		return Scope{}, nil
	case RoleTrader:
		return Scope{TraderID: a.ID}, nil
	}
	return Scope{}, ErrForbidden
}

// OwnerFor picks the trader a new row belongs to. Admins may create on behalf
// of a trader; otherwise the caller owns the row.
func OwnerFor(a Actor, requested string) (string, error) {
	switch a.Role {
	case RoleTrader:
		return a.ID, nil
	case RoleAdmin:
		if requested == "" {
			return a.ID, nil
		}
		return requested, nil
	}
	return "", ErrForbidden
}

// CanManageUser reports whether a may edit the account identified by userID.
func CanManageUser(a Actor, userID string) bool {
	return a.IsAdmin() || a.ID == userID
}
