package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// UOM is the unit an item is priced in.
type UOM string

const (
	UOMPiece  UOM = "piece"
	UOMKg     UOM = "kg"
	UOMTon    UOM = "ton"
	UOMMeter  UOM = "meter"
	UOMSqft   UOM = "sqft"
	UOMCft    UOM = "cft"
	UOMLiter  UOM = "liter"
	UOMBag    UOM = "bag"
	UOMBox    UOM = "box"
	UOMBundle UOM = "bundle"
)

var knownUOMs = map[UOM]struct{}{
	UOMPiece: {}, UOMKg: {}, UOMTon: {}, UOMMeter: {}, UOMSqft: {},
	UOMCft: {}, UOMLiter: {}, UOMBag: {}, UOMBox: {}, UOMBundle: {},
}

// Valid reports whether u is one of the supported units.
func (u UOM) Valid() bool {
	_, ok := knownUOMs[u]
	return ok
}

// Brand groups items of one manufacturer within a trader's catalog.
type Brand struct {
	ID          string    `json:"id" bson:"_id"`
	TraderID    string    `json:"traderId" bson:"traderId"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	IsActive    bool      `json:"isActive" bson:"isActive"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

// BrandKey is the case-insensitive uniqueness key for a brand name.
func BrandKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// BrandRef is the brand snapshot embedded in item responses.
type BrandRef struct {
	ID   string `json:"id" bson:"id"`
	Name string `json:"name,omitempty" bson:"name,omitempty"`
}

// Item is a priced catalog entry. CurrentRate is the price today and is not
// versioned; estimates copy it at creation time.
type Item struct {
	ID             string          `json:"id" bson:"_id"`
	TraderID       string          `json:"traderId" bson:"traderId"`
	Name           string          `json:"name" bson:"name"`
	Category       string          `json:"category" bson:"category"`
	Brand          BrandRef        `json:"brand" bson:"brand"`
	UOM            UOM             `json:"uom" bson:"uom"`
	CurrentRate    decimal.Decimal `json:"currentRate" bson:"currentRate"`
	Description    string          `json:"description,omitempty" bson:"description,omitempty"`
	Specifications string          `json:"specifications,omitempty" bson:"specifications,omitempty"`
	IsActive       bool            `json:"isActive" bson:"isActive"`
	CreatedAt      time.Time       `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt" bson:"updatedAt"`
}
