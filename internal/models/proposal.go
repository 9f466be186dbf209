package models

import "time"

// Customer holds the borrower's personal data
type Customer struct {
	Name       string `json:"name" bson:"name"`
	CPF        string `json:"cpf" bson:"cpf"`
	BirthDate  string `json:"birth_date" bson:"birth_date"` // ISO YYYY-MM-DD
	Gender     string `json:"gender" bson:"gender"`
	Phone      string `json:"phone" bson:"phone"`
	Email      string `json:"email,omitempty" bson:"email,omitempty"`
	MotherName string `json:"mother_name" bson:"mother_name"`
}

// Document holds the borrower's identity document data
type Document struct {
	Type             string `json:"type" bson:"type"`
	Number           string `json:"number" bson:"number"`
	IssuingDate      string `json:"issuing_date" bson:"issuing_date"` // ISO YYYY-MM-DD
	IssuingAuthority string `json:"issuing_authority" bson:"issuing_authority"`
	IssuingState     string `json:"issuing_state" bson:"issuing_state"`
}

// Address holds the borrower's residential address
type Address struct {
	ZipCode      string `json:"zip_code" bson:"zip_code"`
	Street       string `json:"street" bson:"street"`
	Number       string `json:"number" bson:"number"`
	Neighborhood string `json:"neighborhood" bson:"neighborhood"`
	City         string `json:"city" bson:"city"`
	State        string `json:"state" bson:"state"`
	Complement   string `json:"complement,omitempty" bson:"complement,omitempty"`
}

// BankData holds the disbursement account
type BankData struct {
	BankCode      string `json:"bank_code" bson:"bank_code"`
	BranchNumber  string `json:"branch_number" bson:"branch_number"`
	AccountNumber string `json:"account_number" bson:"account_number"`
	AccountDigit  string `json:"account_digit" bson:"account_digit"`
	AccountType   string `json:"account_type" bson:"account_type"`
}

// NormalizedProposalRequest is the bank-agnostic proposal submission.
// FinancialID must resolve to exactly one bank before submission runs.
type NormalizedProposalRequest struct {
	FinancialID string   `json:"financial_id" bson:"financial_id" binding:"required"`
	Customer    Customer `json:"customer" bson:"customer"`
	Document    Document `json:"document" bson:"document"`
	Address     Address  `json:"address" bson:"address"`
	BankData    BankData `json:"bank_data" bson:"bank_data"`
}

// ProposalResult is the terminal outcome of one submission attempt.
// ContractNumber is empty on failure; non-empty triggers the session
// mutation downstream.
type ProposalResult struct {
	BankName          string                 `json:"bank_name" bson:"bank_name"`
	ContractNumber    string                 `json:"contract_number" bson:"contract_number"`
	FormalizationLink string                 `json:"formalization_link,omitempty" bson:"formalization_link,omitempty"`
	ErrorMessage      string                 `json:"error_message,omitempty" bson:"error_message,omitempty"`
	Success           bool                   `json:"success" bson:"success"`
	RawResponse       map[string]interface{} `json:"raw_response" bson:"raw_response"`
	Timestamp         time.Time              `json:"timestamp" bson:"timestamp"`
}

// ProposalStage is the persisted cursor of one submission's lifecycle.
// There is no partial retry across the boundary: a failed submission is
// resubmitted in full from PREPARING.
type ProposalStage string

const (
	StagePreparing  ProposalStage = "PREPARING"
	StageAdapting   ProposalStage = "ADAPTING"
	StageSubmitting ProposalStage = "SUBMITTING"
	StageSucceeded  ProposalStage = "SUCCEEDED"
	StageFailed     ProposalStage = "FAILED"
)

// ProposalRecord is the persisted form of a submission attempt, upserted
// by financial id.
type ProposalRecord struct {
	FinancialID       string                 `json:"financial_id" bson:"financial_id"`
	BankName          string                 `json:"bank_name" bson:"bank_name"`
	ContractNumber    string                 `json:"contract_number" bson:"contract_number"`
	FormalizationLink string                 `json:"formalization_link,omitempty" bson:"formalization_link,omitempty"`
	ErrorMessage      string                 `json:"error_message,omitempty" bson:"error_message,omitempty"`
	Success           bool                   `json:"success" bson:"success"`
	Stage             ProposalStage          `json:"stage" bson:"stage"`
	RawResponse       map[string]interface{} `json:"raw_response,omitempty" bson:"raw_response,omitempty"`
	Timestamp         time.Time              `json:"timestamp" bson:"timestamp"`
}
