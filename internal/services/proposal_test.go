package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/credihub/fgts-api/internal/models"
)

type proposalFixture struct {
	svc   *ProposalService
	store *fakeStore

	vctexProvider *stubProvider
	factaProvider *stubProvider
	vctexAdapter  *stubAdapter
	factaAdapter  *stubAdapter
}

func newProposalFixture(t *testing.T) *proposalFixture {
	t.Helper()
	store := newFakeStore()
	logger := testLogger()
	bankConfig := NewBankConfigService(store, logger)
	tableConfig := NewTableConfigService(store, logger)

	f := &proposalFixture{
		store: store,
		vctexProvider: &stubProvider{name: "VCTEX", result: models.ProposalResult{
			Success:           true,
			ContractNumber:    "CT-VCTEX-1",
			FormalizationLink: "https://sign.example/ct1",
		}},
		factaProvider: &stubProvider{name: "FACTA", result: models.ProposalResult{
			Success:           true,
			ContractNumber:    "AF-1",
			FormalizationLink: "https://sign.example/af1",
		}},
		vctexAdapter: &stubAdapter{name: "VCTEX"},
		factaAdapter: &stubAdapter{name: "FACTA"},
	}

	f.svc = NewProposalService(bankConfig, tableConfig, store, store, store, logger)
	f.svc.RegisterProvider(f.vctexProvider)
	f.svc.RegisterProvider(f.factaProvider)
	f.svc.RegisterAdapter(f.vctexAdapter)
	f.svc.RegisterAdapter(f.factaAdapter)
	return f
}

func TestSubmitProposalRoutesByPrefix(t *testing.T) {
	f := newProposalFixture(t)

	result := f.svc.SubmitProposal(context.Background(), models.NormalizedProposalRequest{
		FinancialID: "facta_98765",
	}, "")

	require.True(t, result.Success)
	assert.Equal(t, "FACTA", result.BankName)
	assert.NotNil(t, f.factaProvider.lastPayload)
	assert.Nil(t, f.vctexProvider.lastPayload)
}

func TestSubmitProposalRoutesBySimulationRecord(t *testing.T) {
	f := newProposalFixture(t)
	f.store.simulations = append(f.store.simulations, models.SimulationRecord{
		FinancialID:  "op-1",
		BankProvider: "FACTA",
	})

	result := f.svc.SubmitProposal(context.Background(), models.NormalizedProposalRequest{
		FinancialID: "op-1",
	}, "")

	assert.Equal(t, "FACTA", result.BankName)
}

func TestSubmitProposalRoutesBySessionProvider(t *testing.T) {
	f := newProposalFixture(t)
	f.store.sessionFields["op-2"] = map[string]interface{}{"bank_provider": "FACTA"}

	result := f.svc.SubmitProposal(context.Background(), models.NormalizedProposalRequest{
		FinancialID: "op-2",
	}, "")

	assert.Equal(t, "FACTA", result.BankName)
}

func TestSubmitProposalDefaultsToVCTEX(t *testing.T) {
	f := newProposalFixture(t)

	result := f.svc.SubmitProposal(context.Background(), models.NormalizedProposalRequest{
		FinancialID: "11111111-2222-3333-4444-555555555555",
	}, "")

	assert.Equal(t, "VCTEX", result.BankName)
	assert.True(t, result.Success)
}

func TestSubmitProposalExplicitBankWins(t *testing.T) {
	f := newProposalFixture(t)

	result := f.svc.SubmitProposal(context.Background(), models.NormalizedProposalRequest{
		FinancialID: "facta_98765",
	}, "VCTEX")

	assert.Equal(t, "VCTEX", result.BankName)
	assert.Nil(t, f.factaProvider.lastPayload)
}

func TestSubmitProposalInjectsFeeTablePerBank(t *testing.T) {
	f := newProposalFixture(t)

	f.svc.SubmitProposal(context.Background(), models.NormalizedProposalRequest{FinancialID: "facta_1"}, "")
	require.NotNil(t, f.factaProvider.lastPayload)
	assert.Equal(t, "57851", f.factaProvider.lastPayload["tabela"])

	f.svc.SubmitProposal(context.Background(), models.NormalizedProposalRequest{FinancialID: "op-9"}, "VCTEX")
	require.NotNil(t, f.vctexProvider.lastPayload)
	assert.Equal(t, 0, f.vctexProvider.lastPayload["feeScheduleId"])
}

func TestSubmitProposalProviderMissing(t *testing.T) {
	f := newProposalFixture(t)

	result := f.svc.SubmitProposal(context.Background(), models.NormalizedProposalRequest{
		FinancialID: "bmg_600123",
	}, "")

	assert.False(t, result.Success)
	assert.Equal(t, "BMG", result.BankName)
	assert.Contains(t, result.ErrorMessage, "Provedor não registrado")

	rec, ok := f.store.proposals["bmg_600123"]
	require.True(t, ok)
	assert.Equal(t, models.StageFailed, rec.Stage)
}

func TestSubmitProposalInactiveBank(t *testing.T) {
	f := newProposalFixture(t)
	_, err := f.svc.bankConfig.UpdateBankStatus(context.Background(), "VCTEX", false, nil, "tester")
	require.NoError(t, err)

	result := f.svc.SubmitProposal(context.Background(), models.NormalizedProposalRequest{
		FinancialID: "op-3",
	}, "VCTEX")

	assert.False(t, result.Success)
	assert.Contains(t, result.ErrorMessage, "Banco inativo para propostas")
	assert.Nil(t, f.vctexProvider.lastPayload)
}

func TestSubmitProposalPersistsStages(t *testing.T) {
	f := newProposalFixture(t)

	f.svc.SubmitProposal(context.Background(), models.NormalizedProposalRequest{FinancialID: "op-4"}, "VCTEX")

	assert.Equal(t, []models.ProposalStage{
		models.StagePreparing,
		models.StageAdapting,
		models.StageSubmitting,
	}, f.store.stages["op-4"])

	rec, ok := f.store.proposals["op-4"]
	require.True(t, ok)
	assert.Equal(t, models.StageSucceeded, rec.Stage)
	assert.False(t, rec.Timestamp.IsZero())
}

func TestSubmitProposalSuccessMutatesSession(t *testing.T) {
	f := newProposalFixture(t)

	f.svc.SubmitProposal(context.Background(), models.NormalizedProposalRequest{FinancialID: "op-5"}, "VCTEX")

	session := f.store.sessionFields["op-5"]
	require.NotNil(t, session)
	assert.Equal(t, "CT-VCTEX-1", session["contract_number"])
	assert.Equal(t, "https://sign.example/ct1", session["formalization_link"])
	assert.Equal(t, "VCTEX", session["proposal_bank"])
	assert.Equal(t, true, session["proposal_sent"])
	assert.Equal(t, true, session["customer_data.proposal_sent"])
}

func TestSubmitProposalFailureLeavesSessionAlone(t *testing.T) {
	f := newProposalFixture(t)
	f.vctexProvider.result = models.ProposalResult{
		Success:      false,
		ErrorMessage: "financialId inválido",
	}

	result := f.svc.SubmitProposal(context.Background(), models.NormalizedProposalRequest{FinancialID: "op-6"}, "VCTEX")

	assert.False(t, result.Success)
	assert.NotContains(t, f.store.sessionFields["op-6"], "proposal_sent")
}

func TestSubmitProposalEnrichesFromStoredData(t *testing.T) {
	f := newProposalFixture(t)
	f.store.simulations = append(f.store.simulations, models.SimulationRecord{
		FinancialID: "op-7",
		CPF:         "52998224725",
	})
	f.store.sessionFields["op-7"] = map[string]interface{}{
		"customer_data": map[string]interface{}{
			"customer_info": map[string]interface{}{
				"name":  "Maria da Silva",
				"phone": "21999999999",
			},
			"address": map[string]interface{}{"city": "Rio de Janeiro"},
		},
	}

	f.svc.SubmitProposal(context.Background(), models.NormalizedProposalRequest{
		FinancialID: "op-7",
		Customer:    models.Customer{Name: "Nome Do Request"},
	}, "VCTEX")

	req := f.vctexAdapter.lastReq
	require.NotNil(t, req)
	// incoming fields win, missing ones come from the session
	assert.Equal(t, "Nome Do Request", req.Customer.Name)
	assert.Equal(t, "52998224725", req.Customer.CPF)
	assert.Equal(t, "21999999999", req.Customer.Phone)
	assert.Equal(t, "Rio de Janeiro", req.Address.City)
}

func TestCheckStatusResolvesBankFromContract(t *testing.T) {
	f := newProposalFixture(t)
	f.store.contractBanks["CT-9"] = "VCTEX"
	f.vctexProvider.status = map[string]interface{}{"success": true, "formalization_link": "https://sign.example/ct9"}

	status := f.svc.CheckStatus(context.Background(), "CT-9", "")

	assert.Equal(t, true, status["success"])
	assert.Equal(t, "https://sign.example/ct9", status["formalization_link"])
}

func TestCheckStatusUnknownContract(t *testing.T) {
	f := newProposalFixture(t)

	status := f.svc.CheckStatus(context.Background(), "CT-MISSING", "")

	assert.Equal(t, false, status["success"])
	assert.Equal(t, "unknown", status["status"])
}

func TestCheckStatusProviderNotRegistered(t *testing.T) {
	f := newProposalFixture(t)

	status := f.svc.CheckStatus(context.Background(), "CT-1", "BMG")

	assert.Equal(t, "provider_not_found", status["status"])
}

func TestResendFormalizationLinkUnsupportedBank(t *testing.T) {
	f := newProposalFixture(t)
	f.store.contractBanks["CT-10"] = "VCTEX"

	resp := f.svc.ResendFormalizationLink(context.Background(), "CT-10", "sms")

	assert.Equal(t, false, resp["success"])
	assert.Contains(t, resp["error"], "Reenvio de link não suportado")
}

func TestResendFormalizationLinkRequiresFactaProvider(t *testing.T) {
	f := newProposalFixture(t)
	f.store.contractBanks["AF-2"] = "FACTA"

	// the registered FACTA provider is a stub, not the real one
	resp := f.svc.ResendFormalizationLink(context.Background(), "AF-2", "sms")

	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "Provedor FACTA não registrado", resp["error"])
}

func TestListProvidersSorted(t *testing.T) {
	f := newProposalFixture(t)

	assert.Equal(t, []string{"FACTA", "VCTEX"}, f.svc.ListProviders())
}

func TestIntFromTableID(t *testing.T) {
	assert.Equal(t, 57851, intFromTableID("57851"))
	assert.Equal(t, 0, intFromTableID("0"))
	assert.Equal(t, 0, intFromTableID("DEFAULT_QI"))
	assert.Equal(t, 0, intFromTableID(""))
}
