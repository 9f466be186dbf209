package banks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/credihub/fgts-api/internal/clients/vctex"
	"github.com/credihub/fgts-api/internal/models"
	"github.com/credihub/fgts-api/internal/utils"
)

// VCTEXSimulator runs a single-call credit simulation against VCTEX
type VCTEXSimulator struct {
	client *vctex.Client
	logger *logrus.Logger
}

// NewVCTEXSimulator creates the VCTEX simulator
func NewVCTEXSimulator(client *vctex.Client, logger *logrus.Logger) *VCTEXSimulator {
	return &VCTEXSimulator{client: client, logger: logger}
}

func (s *VCTEXSimulator) BankName() string { return BankVCTEX }

func (s *VCTEXSimulator) BankInfo() models.BankInfo {
	return models.BankInfo{
		Code:        BankVCTEX,
		Name:        "VCTEX Bank",
		Description: "Antecipação de FGTS VCTEX",
		LogoURL:     "/static/banks/vctex-logo.png",
		Active:      true,
	}
}

func (s *VCTEXSimulator) Simulate(ctx context.Context, cpf string) models.SimulationResult {
	payload := map[string]interface{}{
		"clientCpf":     cpf,
		"feeScheduleId": 0,
	}

	raw, err := s.client.Simulate(ctx, payload)
	if err != nil {
		return s.failure(err.Error(), map[string]interface{}{"error": err.Error()})
	}

	if utils.ToFloat(raw["statusCode"]) >= 400 {
		msg := defaultString(utils.ToString(raw["message"]), "Simulação falhou")
		return s.failure(msg, raw)
	}

	result := formatSimulationResponse(raw)
	amount := utils.ToFloat(result["total_released"])
	if utils.ToString(result["financialId"]) == "" {
		return s.failure("Formato de resposta inválido", raw)
	}

	return models.SimulationResult{
		BankName:        BankVCTEX,
		AvailableAmount: amount,
		Success:         true,
		RawResponse:     result,
		Timestamp:       time.Now().UTC(),
	}
}

func (s *VCTEXSimulator) failure(msg string, raw map[string]interface{}) models.SimulationResult {
	s.logger.WithField("bank", BankVCTEX).WithField("error", msg).Error("Simulação VCTEX falhou")
	return models.SimulationResult{
		BankName:     BankVCTEX,
		ErrorMessage: msg,
		Success:      false,
		RawResponse:  raw,
		Timestamp:    time.Now().UTC(),
	}
}

// formatSimulationResponse flattens VCTEX's nested simulation payload
// into the flat shape the adapter and chat flows consume. The rate is
// a decimal on the wire (0.018) and a percentage here ("1.80%").
func formatSimulationResponse(raw map[string]interface{}) map[string]interface{} {
	data, _ := raw["data"].(map[string]interface{})
	simulation, _ := data["simulationData"].(map[string]interface{})

	totalReleased := utils.ToFloat(simulation["totalReleasedAmount"])
	totalAmount := utils.ToFloat(simulation["totalAmount"])
	contractRate := utils.ToFloat(simulation["contractRate"])
	iofAmount := utils.ToFloat(simulation["iofAmount"])

	return map[string]interface{}{
		"total_released": fmt.Sprintf("%.2f", totalReleased),
		"total_to_pay":   fmt.Sprintf("%.2f", totalAmount),
		"interest_rate":  fmt.Sprintf("%.2f%%", contractRate*100),
		"iof_fee":        fmt.Sprintf("%.2f.", iofAmount),
		"financialId":    utils.ToString(data["financialId"]),
	}
}

// VCTEXAdapter translates VCTEX's wire shapes into the normalized forms
type VCTEXAdapter struct{}

func (a VCTEXAdapter) BankName() string { return BankVCTEX }

func (a VCTEXAdapter) NormalizeSimulationResponse(raw map[string]interface{}) models.NormalizedSimulationResponse {
	return models.NormalizedSimulationResponse{
		BankName:        BankVCTEX,
		FinancialID:     utils.ToString(raw["financialId"]),
		AvailableAmount: utils.ToFloat(raw["total_released"]),
		TotalAmount:     utils.ToFloat(raw["total_to_pay"]),
		InterestRate:    utils.ParseAmount(utils.ToString(raw["interest_rate"])),
		IOFAmount:       utils.ParseAmount(strings.TrimSuffix(utils.ToString(raw["iof_fee"]), ".")),
		Success:         true,
		RawResponse:     raw,
		Timestamp:       time.Now().UTC(),
	}
}

// PrepareProposalRequest builds the camelCase nested payload VCTEX's
// single-call proposal endpoint expects. An unknown gender maps to
// female.
func (a VCTEXAdapter) PrepareProposalRequest(req models.NormalizedProposalRequest) map[string]interface{} {
	gender := "female"
	switch strings.ToUpper(req.Customer.Gender) {
	case "M", "MALE":
		gender = "male"
	}

	return map[string]interface{}{
		"financialId": req.FinancialID,
		"borrower": map[string]interface{}{
			"name":        req.Customer.Name,
			"cpf":         req.Customer.CPF,
			"birthdate":   req.Customer.BirthDate,
			"gender":      gender,
			"phoneNumber": req.Customer.Phone,
			"email":       req.Customer.Email,
			"motherName":  req.Customer.MotherName,
		},
		"document": map[string]interface{}{
			"type":             strings.ToLower(req.Document.Type),
			"number":           req.Document.Number,
			"issuingState":     req.Document.IssuingState,
			"issuingAuthority": req.Document.IssuingAuthority,
			"issueDate":        req.Document.IssuingDate,
		},
		"address": map[string]interface{}{
			"zipCode":      req.Address.ZipCode,
			"street":       req.Address.Street,
			"number":       req.Address.Number,
			"neighborhood": req.Address.Neighborhood,
			"city":         req.Address.City,
			"state":        req.Address.State,
			"complement":   req.Address.Complement,
		},
		"disbursementBankAccount": map[string]interface{}{
			"bankCode":      req.BankData.BankCode,
			"branchNumber":  req.BankData.BranchNumber,
			"accountNumber": req.BankData.AccountNumber,
			"accountDigit":  req.BankData.AccountDigit,
			"accountType":   req.BankData.AccountType,
		},
	}
}

// VCTEXProvider submits proposals through VCTEX's single-call endpoint
// and polls the status endpoint for the formalization link after a
// settle delay (the partner needs a moment before a new proposal shows
// up there).
type VCTEXProvider struct {
	client      *vctex.Client
	settleDelay time.Duration
	logger      *logrus.Logger
}

// NewVCTEXProvider creates the VCTEX proposal provider
func NewVCTEXProvider(client *vctex.Client, settleDelay time.Duration, logger *logrus.Logger) *VCTEXProvider {
	return &VCTEXProvider{client: client, settleDelay: settleDelay, logger: logger}
}

func (p *VCTEXProvider) BankName() string { return BankVCTEX }

func (p *VCTEXProvider) SubmitProposal(ctx context.Context, payload map[string]interface{}) models.ProposalResult {
	if borrower, ok := payload["borrower"].(map[string]interface{}); ok {
		borrower["cpf"] = utils.CleanCPF(utils.ToString(borrower["cpf"]))
		borrower["nationality"] = "brazilian"
		borrower["maritalStatus"] = "single"
		borrower["pep"] = false
	}
	if _, ok := payload["feeScheduleId"]; !ok {
		payload["feeScheduleId"] = 0
	}

	raw, err := p.client.CreateProposal(ctx, payload)
	if err != nil {
		return p.failure(err.Error(), map[string]interface{}{"error": err.Error()})
	}

	if utils.ToFloat(raw["statusCode"]) >= 400 {
		msg := defaultString(utils.ToString(raw["message"]), "Erro ao criar proposta")
		return p.failure(msg, raw)
	}

	contractNumber := extractContractNumber(raw)
	if contractNumber == "" {
		return p.failure("Número do contrato não retornado", raw)
	}

	status := p.CheckStatus(ctx, contractNumber)

	return models.ProposalResult{
		BankName:          BankVCTEX,
		ContractNumber:    contractNumber,
		FormalizationLink: utils.ToString(status["formalization_link"]),
		Success:           true,
		RawResponse:       raw,
		Timestamp:         time.Now().UTC(),
	}
}

// CheckStatus polls the status endpoint after the settle delay. The
// wait respects context cancellation instead of sleeping blindly.
func (p *VCTEXProvider) CheckStatus(ctx context.Context, contractNumber string) map[string]interface{} {
	if p.settleDelay > 0 {
		timer := time.NewTimer(p.settleDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return map[string]interface{}{"success": false, "error": ctx.Err().Error(), "status": "error"}
		case <-timer.C:
		}
	}

	resp, err := p.client.ProposalStatus(ctx, utils.SanitizeContractNumber(contractNumber))
	if err != nil {
		return map[string]interface{}{"success": false, "error": err.Error(), "status": "error"}
	}

	if link := utils.ToString(resp["status"]); link != "" {
		return map[string]interface{}{
			"success":            true,
			"formalization_link": link,
			"status":             "pending",
		}
	}

	return map[string]interface{}{
		"success": false,
		"error":   defaultString(utils.ToString(resp["error"]), "Status não disponível"),
		"status":  "error",
	}
}

func (p *VCTEXProvider) failure(msg string, raw map[string]interface{}) models.ProposalResult {
	p.logger.WithField("bank", BankVCTEX).WithField("error", msg).Error("Proposta VCTEX falhou")
	return models.ProposalResult{
		BankName:     BankVCTEX,
		ErrorMessage: msg,
		Success:      false,
		RawResponse:  raw,
		Timestamp:    time.Now().UTC(),
	}
}

func extractContractNumber(raw map[string]interface{}) string {
	if n := utils.ToString(raw["contract_number"]); n != "" {
		return n
	}
	if data, ok := raw["data"].(map[string]interface{}); ok {
		return utils.ToString(data["proposalcontractNumber"])
	}
	return ""
}
