package banks

import (
	"context"

	"github.com/credihub/fgts-api/internal/models"
)

// Bank codes as used in routing, persistence and configuration
const (
	BankFacta = "FACTA"
	BankVCTEX = "VCTEX"
	BankQI    = "QI"
	BankBMG   = "BMG"
)

// Simulator runs an FGTS credit simulation against one bank. simulate
// never returns a Go error for partner failures: every transport or
// business error lands in the result as Success=false.
type Simulator interface {
	BankName() string
	BankInfo() models.BankInfo
	Simulate(ctx context.Context, cpf string) models.SimulationResult
}

// Adapter translates between one bank's wire shapes and the
// bank-agnostic forms used by the orchestration services.
type Adapter interface {
	BankName() string
	NormalizeSimulationResponse(raw map[string]interface{}) models.NormalizedSimulationResponse
	PrepareProposalRequest(req models.NormalizedProposalRequest) map[string]interface{}
}

// ProposalProvider submits a prepared, bank-specific proposal payload
// through that bank's workflow. Like simulators, partner failures come
// back inside the result.
type ProposalProvider interface {
	BankName() string
	SubmitProposal(ctx context.Context, payload map[string]interface{}) models.ProposalResult
	CheckStatus(ctx context.Context, contractNumber string) map[string]interface{}
}

// SimulationLookup resolves simulation records during proposal
// submission. Implemented by the storage layer.
type SimulationLookup interface {
	FindSimulationByFinancialID(ctx context.Context, financialID string) (*models.SimulationRecord, error)
}
