package models

import "time"

// PricingCategory buckets pricing line items.
type PricingCategory string

const (
	PricingLicense        PricingCategory = "license"
	PricingImplementation PricingCategory = "implementation"
	PricingSupport        PricingCategory = "support"
	PricingAddOn          PricingCategory = "add_on"
	PricingTraining       PricingCategory = "training"
	PricingHosting        PricingCategory = "hosting"
	PricingOther          PricingCategory = "other"
)

// PricingItem is one line of a pricing template discovered in an upload.
type PricingItem struct {
	ID          string          `json:"id" badgerhold:"key"`
	ProjectID   string          `json:"project_id" badgerhold:"index"`
	Category    PricingCategory `json:"category"`
	LineItem    string          `json:"line_item"`
	Description string          `json:"description,omitempty"`
	UnitCost    *float64        `json:"unit_cost,omitempty"`
	Quantity    *float64        `json:"quantity,omitempty"`
	Total       *float64        `json:"total,omitempty"`
	Currency    string          `json:"currency"`
	Year        *int            `json:"year,omitempty"`
	Notes       string          `json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
