package domain

import "time"

const (
	RoleAdmin    = "admin"
	RoleTrader   = "trader"
	RoleCustomer = "customer"
)

// ApprovalStatus gates login for self-registered traders and admins.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

const (
	CustomerTypeIndividual = "individual"
	CustomerTypeBusiness   = "business"
)

// ValidRole reports whether r is one of the known account roles.
func ValidRole(r string) bool {
	return r == RoleAdmin || r == RoleTrader || r == RoleCustomer
}

// RequiresApproval reports whether accounts with this role wait for an admin.
func RequiresApproval(role string) bool {
	return role == RoleTrader || role == RoleAdmin
}

// Address is the postal address shared by customers and customer profiles.
type Address struct {
	Street  string `json:"street" bson:"street"`
	City    string `json:"city" bson:"city"`
	State   string `json:"state" bson:"state"`
	Pincode string `json:"pincode" bson:"pincode"`
}

// TraderProfile holds the business details of a trader account.
type TraderProfile struct {
	BusinessName    string `json:"businessName,omitempty" bson:"businessName,omitempty"`
	BusinessAddress string `json:"businessAddress,omitempty" bson:"businessAddress,omitempty"`
	GSTNumber       string `json:"gstNumber,omitempty" bson:"gstNumber,omitempty"`
	LicenseNumber   string `json:"licenseNumber,omitempty" bson:"licenseNumber,omitempty"`
}

// Merge overlays the non-empty fields of p onto t.
func (t TraderProfile) Merge(p TraderProfile) TraderProfile {
	if p.BusinessName != "" {
		t.BusinessName = p.BusinessName
	}
	if p.BusinessAddress != "" {
		t.BusinessAddress = p.BusinessAddress
	}
	if p.GSTNumber != "" {
		t.GSTNumber = p.GSTNumber
	}
	if p.LicenseNumber != "" {
		t.LicenseNumber = p.LicenseNumber
	}
	return t
}

// CustomerProfile holds the billing details of a registered customer account.
type CustomerProfile struct {
	Address      Address `json:"address" bson:"address"`
	GSTNumber    string  `json:"gstNumber,omitempty" bson:"gstNumber,omitempty"`
	CompanyName  string  `json:"companyName,omitempty" bson:"companyName,omitempty"`
	CustomerType string  `json:"customerType,omitempty" bson:"customerType,omitempty"`
}

// User models an authenticated actor in the system.
type User struct {
	ID              string           `json:"id" bson:"_id"`
	Name            string           `json:"name" bson:"name"`
	Email           string           `json:"email" bson:"email"`
	PasswordHash    string           `json:"-" bson:"password"`
	Phone           string           `json:"phone" bson:"phone"`
	Role            string           `json:"role" bson:"role"`
	ApprovalStatus  ApprovalStatus   `json:"approvalStatus,omitempty" bson:"approvalStatus,omitempty"`
	ApprovedBy      string           `json:"approvedBy,omitempty" bson:"approvedBy,omitempty"`
	ApprovedAt      *time.Time       `json:"approvedAt,omitempty" bson:"approvedAt,omitempty"`
	RejectedAt      *time.Time       `json:"rejectedAt,omitempty" bson:"rejectedAt,omitempty"`
	RejectionReason string           `json:"rejectionReason,omitempty" bson:"rejectionReason,omitempty"`
	TraderProfile   *TraderProfile   `json:"traderProfile,omitempty" bson:"traderProfile,omitempty"`
	CustomerProfile *CustomerProfile `json:"customerProfile,omitempty" bson:"customerProfile,omitempty"`
	Tags            []string         `json:"tags" bson:"tags"`
	ReferredBy      string           `json:"referredBy,omitempty" bson:"referredBy,omitempty"`
	IsActive        bool             `json:"isActive" bson:"isActive"`
	CreatedAt       time.Time        `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt" bson:"updatedAt"`
}

// CanLogin checks the account gates in the order login reports them.
func (u *User) CanLogin() error {
	if !u.IsActive {
		return ErrAccountInactive
	}
	if !RequiresApproval(u.Role) {
		return nil
	}
	switch u.ApprovalStatus {
	case ApprovalApproved:
		return nil
	case ApprovalRejected:
		return &RejectedError{Reason: u.RejectionReason}
	default:
		return ErrAccountPending
	}
}

// Actor returns the access-control identity of u.
func (u *User) Actor() Actor {
	return Actor{ID: u.ID, Role: u.Role}
}
