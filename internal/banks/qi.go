package banks

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/credihub/fgts-api/internal/clients/vctex"
	"github.com/credihub/fgts-api/internal/models"
	"github.com/credihub/fgts-api/internal/utils"
)

// QISimulator simulates QI credit. QI is reached through the VCTEX API
// with the same payload; what differs is the response shape consumed
// downstream (QI keeps the partner's nested document intact).
type QISimulator struct {
	client *vctex.Client
	logger *logrus.Logger
}

// NewQISimulator creates the QI simulator
func NewQISimulator(client *vctex.Client, logger *logrus.Logger) *QISimulator {
	return &QISimulator{client: client, logger: logger}
}

func (s *QISimulator) BankName() string { return BankQI }

func (s *QISimulator) BankInfo() models.BankInfo {
	return models.BankInfo{
		Code:        BankQI,
		Name:        "QI Sociedade de Crédito Direto",
		Description: "Antecipação de FGTS com as melhores taxas do mercado",
		LogoURL:     "/static/banks/qi-logo.png",
		Active:      true,
	}
}

func (s *QISimulator) Simulate(ctx context.Context, cpf string) models.SimulationResult {
	payload := map[string]interface{}{
		"clientCpf":     cpf,
		"feeScheduleId": 0,
	}

	raw, err := s.client.Simulate(ctx, payload)
	if err != nil {
		return s.failure(err.Error(), map[string]interface{}{"error": err.Error()})
	}

	data, _ := raw["data"].(map[string]interface{})
	simulation, ok := data["simulationData"].(map[string]interface{})
	if !ok {
		msg := defaultString(utils.ToString(raw["message"]), "Simulação falhou")
		return s.failure(msg, raw)
	}

	return models.SimulationResult{
		BankName:        BankQI,
		AvailableAmount: utils.ToFloat(simulation["totalReleasedAmount"]),
		Success:         true,
		RawResponse:     raw,
		Timestamp:       time.Now().UTC(),
	}
}

func (s *QISimulator) failure(msg string, raw map[string]interface{}) models.SimulationResult {
	s.logger.WithField("bank", BankQI).WithField("error", msg).Error("Simulação QI falhou")
	return models.SimulationResult{
		BankName:     BankQI,
		ErrorMessage: msg,
		Success:      false,
		RawResponse:  raw,
		Timestamp:    time.Now().UTC(),
	}
}

// QIAdapter translates QI's (nested VCTEX-shaped) responses. The
// contract rate arrives as a decimal fraction and is exposed as a
// percentage.
type QIAdapter struct{}

func (a QIAdapter) BankName() string { return BankQI }

func (a QIAdapter) NormalizeSimulationResponse(raw map[string]interface{}) models.NormalizedSimulationResponse {
	data, _ := raw["data"].(map[string]interface{})
	simulation, _ := data["simulationData"].(map[string]interface{})

	rate := utils.ToFloat(simulation["contractRate"])
	if rate != 0 {
		rate *= 100
	}

	return models.NormalizedSimulationResponse{
		BankName:        BankQI,
		FinancialID:     utils.ToString(data["financialId"]),
		AvailableAmount: utils.ToFloat(simulation["totalReleasedAmount"]),
		TotalAmount:     utils.ToFloat(simulation["totalAmount"]),
		InterestRate:    rate,
		IOFAmount:       utils.ToFloat(simulation["iofAmount"]),
		Success:         true,
		RawResponse:     raw,
		Timestamp:       time.Now().UTC(),
	}
}

// PrepareProposalRequest builds the same camelCase payload as VCTEX;
// the two banks share the proposal endpoint.
func (a QIAdapter) PrepareProposalRequest(req models.NormalizedProposalRequest) map[string]interface{} {
	return VCTEXAdapter{}.PrepareProposalRequest(req)
}

// QIProvider submits QI proposals through the VCTEX proposal endpoint.
// Results keep the QI bank name so routing and history stay accurate.
type QIProvider struct {
	inner *VCTEXProvider
}

// NewQIProvider creates the QI proposal provider
func NewQIProvider(inner *VCTEXProvider) *QIProvider {
	return &QIProvider{inner: inner}
}

func (p *QIProvider) BankName() string { return BankQI }

func (p *QIProvider) SubmitProposal(ctx context.Context, payload map[string]interface{}) models.ProposalResult {
	result := p.inner.SubmitProposal(ctx, payload)
	result.BankName = BankQI
	return result
}

func (p *QIProvider) CheckStatus(ctx context.Context, contractNumber string) map[string]interface{} {
	return p.inner.CheckStatus(ctx, contractNumber)
}
