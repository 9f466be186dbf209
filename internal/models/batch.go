package models

import "time"

// BankOutcome records one bank's result inside a batch item
type BankOutcome struct {
	Bank        string  `json:"bank" bson:"bank"`
	FinancialID string  `json:"financial_id" bson:"financial_id"`
	Amount      float64 `json:"amount" bson:"amount"`
	Success     bool    `json:"success" bson:"success"`
	Error       string  `json:"error,omitempty" bson:"error,omitempty"`
}

// BatchItemResult summarizes one CPF processed during a batch run
type BatchItemResult struct {
	CPF          string   `json:"cpf,omitempty"`
	SessionID    string   `json:"session_id"`
	Success      bool     `json:"success"`
	Banks        []string `json:"banks,omitempty"`
	SuccessBanks []string `json:"success_banks,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// BatchRunResult is the aggregate outcome of one batch invocation
type BatchRunResult struct {
	ProcessedCount int               `json:"processed_count"`
	SuccessCount   int               `json:"success_count"`
	ErrorCount     int               `json:"error_count"`
	Results        []BatchItemResult `json:"results"`
}

// BatchSnapshot is one batch run's outcome for a CPF, kept in the
// rollup document's append-only history.
type BatchSnapshot struct {
	Timestamp  time.Time     `json:"timestamp" bson:"timestamp"`
	Results    []BankOutcome `json:"results" bson:"results"`
	AnySuccess bool          `json:"any_success" bson:"any_success"`
}

// BatchRecord is the per-CPF rollup document, one per tax id,
// last outcome at top level plus past runs under Simulations.
type BatchRecord struct {
	CPF         string          `json:"cpf" bson:"cpf"`
	SessionID   string          `json:"session_id" bson:"session_id"`
	CreatedAt   time.Time       `json:"created_at,omitempty" bson:"created_at,omitempty"`
	LastUpdated time.Time       `json:"last_updated" bson:"last_updated"`
	Results     []BankOutcome   `json:"results" bson:"results"`
	AnySuccess  bool            `json:"any_success" bson:"any_success"`
	Simulations []BatchSnapshot `json:"simulations,omitempty" bson:"simulations,omitempty"`
}

// Page wraps paginated listings
type Page struct {
	Items      interface{} `json:"items"`
	Page       int         `json:"page"`
	PerPage    int         `json:"per_page"`
	TotalPages int         `json:"total_pages"`
	TotalItems int64       `json:"total_items"`
}
