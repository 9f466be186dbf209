package models

import "time"

// SimulationResult is the raw, per-bank outcome of one simulate call.
// Partner and transport errors never escape a simulator; they land here
// as Success=false with an ErrorMessage.
type SimulationResult struct {
	BankName        string                 `json:"bank_name" bson:"bank_name"`
	AvailableAmount float64                `json:"available_amount" bson:"available_amount"`
	ErrorMessage    string                 `json:"error_message,omitempty" bson:"error_message,omitempty"`
	Success         bool                   `json:"success" bson:"success"`
	RawResponse     map[string]interface{} `json:"raw_response" bson:"raw_response"`
	Timestamp       time.Time              `json:"timestamp" bson:"timestamp"`
}

// NormalizedSimulationResponse is the common shape every bank's
// simulation is translated into. FinancialID is the join key that later
// resolves which bank owns a proposal; it is unique per bank+attempt.
type NormalizedSimulationResponse struct {
	BankName        string                 `json:"bank_name" bson:"bank_name"`
	FinancialID     string                 `json:"financial_id" bson:"financial_id"`
	AvailableAmount float64                `json:"available_amount" bson:"available_amount"`
	TotalAmount     float64                `json:"total_amount" bson:"total_amount"`
	InterestRate    float64                `json:"interest_rate" bson:"interest_rate"`
	IOFAmount       float64                `json:"iof_amount" bson:"iof_amount"`
	ErrorMessage    string                 `json:"error_message,omitempty" bson:"error_message,omitempty"`
	Success         bool                   `json:"success" bson:"success"`
	RawResponse     map[string]interface{} `json:"raw_response" bson:"raw_response"`
	Timestamp       time.Time              `json:"timestamp" bson:"timestamp"`
}

// SimulationRecord is the persisted form of a normalized simulation.
// History is append-only: every simulate call inserts a new document.
type SimulationRecord struct {
	CPF             string                 `json:"cpf" bson:"cpf"`
	BankName        string                 `json:"bank_name" bson:"bank_name"`
	BankProvider    string                 `json:"bank_provider" bson:"bank_provider"`
	FinancialID     string                 `json:"financial_id" bson:"financial_id"`
	AvailableAmount float64                `json:"available_amount" bson:"available_amount"`
	TotalAmount     float64                `json:"total_amount" bson:"total_amount"`
	InterestRate    float64                `json:"interest_rate" bson:"interest_rate"`
	IOFAmount       float64                `json:"iof_amount" bson:"iof_amount"`
	ErrorMessage    string                 `json:"error_message,omitempty" bson:"error_message,omitempty"`
	Success         bool                   `json:"success" bson:"success"`
	Normalized      bool                   `json:"normalized" bson:"normalized"`
	RawResponse     map[string]interface{} `json:"raw_response,omitempty" bson:"raw_response,omitempty"`
	Timestamp       time.Time              `json:"timestamp" bson:"timestamp"`
}

// BankInfo describes a bank available for simulation
type BankInfo struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	LogoURL     string `json:"logo_url,omitempty"`
	Active      bool   `json:"active"`
}

// BankListing is the catalogue returned by the banks endpoint
type BankListing struct {
	ActiveBanks   []BankInfo        `json:"active_banks"`
	InactiveBanks []BankInfo        `json:"inactive_banks"`
	TotalActive   int               `json:"total_active"`
	SystemStatus  BankSystemStatus  `json:"system_status"`
}

// BankSystemStatus summarizes whether any bank can take traffic
type BankSystemStatus struct {
	Operational bool   `json:"operational"`
	Message     string `json:"message"`
}
