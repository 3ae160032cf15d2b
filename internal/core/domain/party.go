package domain

import "strings"

// PartyKind tells which store an estimate's bill-to reference points at.
type PartyKind string

const (
	PartyDirectory  PartyKind = "directory"
	PartyRegistered PartyKind = "registered"
)

// ParsePartyKind accepts the wire names for a party kind. Empty input yields "".
func ParsePartyKind(s string) (PartyKind, error) {
	switch PartyKind(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case PartyDirectory:
		return PartyDirectory, nil
	case PartyRegistered:
		return PartyRegistered, nil
	}
	return "", NewValidationError("customerType", "customerType must be directory or registered")
}

// PartyRef is the bill-to target of an estimate: either a directory customer
// or a registered customer account.
type PartyRef struct {
	Kind PartyKind `json:"kind" bson:"kind"`
	ID   string    `json:"id" bson:"id"`
}

// BillableParty is the contact view shared by directory customers and
// registered customer accounts.
type BillableParty interface {
	PartyRef() PartyRef
	DisplayName() string
	ContactPhone() string
	ContactEmail() string
	BillingAddress() Address
	GSTIN() string
}

// PartySummary is the denormalized bill-to snapshot returned with estimates.
type PartySummary struct {
	Kind      PartyKind `json:"customerType" bson:"customerType"`
	ID        string    `json:"id" bson:"id"`
	Name      string    `json:"name" bson:"name"`
	Phone     string    `json:"phone,omitempty" bson:"phone,omitempty"`
	Email     string    `json:"email,omitempty" bson:"email,omitempty"`
	Address   Address   `json:"address" bson:"address"`
	GSTNumber string    `json:"gstNumber,omitempty" bson:"gstNumber,omitempty"`
}

// Summarize flattens p into a PartySummary.
func Summarize(p BillableParty) PartySummary {
	ref := p.PartyRef()
	return PartySummary{
		Kind:      ref.Kind,
		ID:        ref.ID,
		Name:      p.DisplayName(),
		Phone:     p.ContactPhone(),
		Email:     p.ContactEmail(),
		Address:   p.BillingAddress(),
		GSTNumber: p.GSTIN(),
	}
}

func (u *User) PartyRef() PartyRef   { return PartyRef{Kind: PartyRegistered, ID: u.ID} }
func (u *User) ContactPhone() string { return u.Phone }
func (u *User) ContactEmail() string { return u.Email }

// DisplayName prefers the company name of a business customer.
func (u *User) DisplayName() string {
	if u.CustomerProfile != nil && u.CustomerProfile.CompanyName != "" {
		return u.CustomerProfile.CompanyName
	}
	return u.Name
}

func (u *User) BillingAddress() Address {
	if u.CustomerProfile == nil {
		return Address{}
	}
	return u.CustomerProfile.Address
}

func (u *User) GSTIN() string {
	if u.CustomerProfile == nil {
		return ""
	}
	return u.CustomerProfile.GSTNumber
}

func (c *Customer) PartyRef() PartyRef      { return PartyRef{Kind: PartyDirectory, ID: c.ID} }
func (c *Customer) DisplayName() string     { return c.Name }
func (c *Customer) ContactPhone() string    { return c.Phone }
func (c *Customer) ContactEmail() string    { return c.Email }
func (c *Customer) BillingAddress() Address { return c.Address }
func (c *Customer) GSTIN() string           { return c.GSTNumber }
