package services

import (
	"context"
	"errors"

	"github.com/credihub/fgts-api/internal/models"
)

// Typed failures surfaced when a caller explicitly requests a bank the
// service cannot route to. These are the only errors the simulation
// fan-out propagates; per-bank partner failures stay inside results.
var (
	ErrBankNotRegistered = errors.New("banco não registrado")
	ErrBankInactive      = errors.New("banco inativo")
)

// SimulationStore persists simulation history and the financial id to
// bank mapping.
type SimulationStore interface {
	InsertSimulation(ctx context.Context, rec models.SimulationRecord) error
	FindSimulationByFinancialID(ctx context.Context, financialID string) (*models.SimulationRecord, error)
	SimulationHistory(ctx context.Context, cpf, bankName string) ([]models.SimulationRecord, error)
	ListSimulations(ctx context.Context, page, perPage int, bankName, cpf string) (*models.Page, error)
	DistinctCPFs(ctx context.Context) ([]string, error)
}

// ProposalStore persists submission outcomes keyed by financial id
type ProposalStore interface {
	UpsertProposal(ctx context.Context, rec models.ProposalRecord) error
	SetProposalStage(ctx context.Context, financialID string, stage models.ProposalStage) error
	FindBankForContract(ctx context.Context, contractNumber string) (string, error)
	ProposalHistory(ctx context.Context, financialID, contractNumber string) ([]models.ProposalRecord, error)
	ListProposals(ctx context.Context, page, perPage int, bankName string, success *bool) (*models.Page, error)
}

// SessionStore mutates the chat/session documents owned by the sales
// workflow. The core only $set-merges fields, it never deletes.
type SessionStore interface {
	SetSessionData(ctx context.Context, sessionID, field string, value interface{}) error
	GetSessionData(ctx context.Context, sessionID, field string) (interface{}, error)
	StoreProposalData(ctx context.Context, sessionID string, data map[string]interface{}) error
	ListSessionsWithCPF(ctx context.Context) ([]map[string]interface{}, error)
}

// BatchStore persists per-CPF batch rollups
type BatchStore interface {
	UpsertBatchRecord(ctx context.Context, cpf, sessionID string, outcomes []models.BankOutcome, anySuccess bool) error
	ListBatchResults(ctx context.Context, page, perPage int, cpf, bankName string) (*models.Page, error)
}

// BankConfigStore reads and writes the bank configuration document
type BankConfigStore interface {
	GetBankConfig(ctx context.Context) (*models.BankConfigDoc, error)
	SaveBankConfig(ctx context.Context, doc *models.BankConfigDoc) error
}

// TableConfigStore reads and writes the fee table configuration document
type TableConfigStore interface {
	GetTableConfig(ctx context.Context) (*models.TableConfigDoc, error)
	SaveTableConfig(ctx context.Context, doc *models.TableConfigDoc) error
}
