package models

import "time"

// Feature flags a bank can be enabled for
const (
	FeatureSimulation = "simulation"
	FeatureProposal   = "proposal"
)

// BankSetting is one bank's entry in the bank config document
type BankSetting struct {
	BankName    string    `json:"bank_name" bson:"bank_name"`
	Active      bool      `json:"active" bson:"active"`
	Features    []string  `json:"features" bson:"features"`
	Description string    `json:"description" bson:"description"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
	UpdatedBy   string    `json:"updated_by,omitempty" bson:"updated_by,omitempty"`
}

// HasFeature reports whether the bank is flagged for a feature
func (b BankSetting) HasFeature(feature string) bool {
	for _, f := range b.Features {
		if f == feature {
			return true
		}
	}
	return false
}

// BankConfigDoc is the single bank configuration document
type BankConfigDoc struct {
	Banks       map[string]BankSetting `json:"banks" bson:"banks"`
	LastUpdated time.Time              `json:"last_updated,omitempty" bson:"last_updated,omitempty"`
}

// TableSetting is one fee schedule entry in the table config document
type TableSetting struct {
	TableID     string    `json:"table_id" bson:"table_id"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description" bson:"description"`
	Active      bool      `json:"active" bson:"active"`
	BankName    string    `json:"bank_name" bson:"bank_name"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
	UpdatedBy   string    `json:"updated_by,omitempty" bson:"updated_by,omitempty"`
}

// TableConfigDoc is the single fee table configuration document
type TableConfigDoc struct {
	Tables      map[string]TableSetting `json:"tables" bson:"tables"`
	LastUpdated time.Time               `json:"last_updated,omitempty" bson:"last_updated,omitempty"`
}
