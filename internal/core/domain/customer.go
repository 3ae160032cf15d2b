package domain

import "time"

// ReferralType classifies who referred a directory customer.
type ReferralType string

const (
	ReferralCustomer ReferralType = "customer"
	ReferralEngineer ReferralType = "engineer"
	ReferralMason    ReferralType = "mason"
	ReferralOther    ReferralType = "other"
)

// ValidReferralType reports whether r is empty or a known referral type.
func ValidReferralType(r ReferralType) bool {
	switch r {
	case "", ReferralCustomer, ReferralEngineer, ReferralMason, ReferralOther:
		return true
	}
	return false
}

// Customer is a directory entry owned by exactly one trader. UserID links it
// to a registered customer account without merging the two.
type Customer struct {
	ID             string       `json:"id" bson:"_id"`
	TraderID       string       `json:"traderId" bson:"traderId"`
	UserID         string       `json:"userId,omitempty" bson:"userId,omitempty"`
	Name           string       `json:"name" bson:"name"`
	Phone          string       `json:"phone" bson:"phone"`
	Email          string       `json:"email,omitempty" bson:"email,omitempty"`
	Address        Address      `json:"address" bson:"address"`
	GSTNumber      string       `json:"gstNumber,omitempty" bson:"gstNumber,omitempty"`
	ReferredBy     string       `json:"referredBy,omitempty" bson:"referredBy,omitempty"`
	ReferredByType ReferralType `json:"referredByType,omitempty" bson:"referredByType,omitempty"`
	Tags           []string     `json:"tags" bson:"tags"`
	Notes          string       `json:"notes,omitempty" bson:"notes,omitempty"`
	IsActive       bool         `json:"isActive" bson:"isActive"`
	CreatedAt      time.Time    `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt" bson:"updatedAt"`
}
