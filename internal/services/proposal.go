package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/credihub/fgts-api/internal/banks"
	"github.com/credihub/fgts-api/internal/models"
	"github.com/credihub/fgts-api/internal/utils"
)

// defaultProposalBank receives proposals whose financial id cannot be
// resolved to any bank.
const defaultProposalBank = banks.BankVCTEX

// ProposalService routes normalized proposal requests to the owning
// bank, enriches them with stored data, injects the active fee table
// and drives the bank-specific submission workflow.
type ProposalService struct {
	providers map[string]banks.ProposalProvider
	adapters  map[string]banks.Adapter

	bankConfig  *BankConfigService
	tableConfig *TableConfigService
	simulations SimulationStore
	proposals   ProposalStore
	sessions    SessionStore
	logger      *logrus.Logger
}

// NewProposalService creates the proposal service
func NewProposalService(bankConfig *BankConfigService, tableConfig *TableConfigService, simulations SimulationStore, proposals ProposalStore, sessions SessionStore, logger *logrus.Logger) *ProposalService {
	return &ProposalService{
		providers:   make(map[string]banks.ProposalProvider),
		adapters:    make(map[string]banks.Adapter),
		bankConfig:  bankConfig,
		tableConfig: tableConfig,
		simulations: simulations,
		proposals:   proposals,
		sessions:    sessions,
		logger:      logger,
	}
}

// RegisterProvider registers a bank proposal provider
func (s *ProposalService) RegisterProvider(p banks.ProposalProvider) {
	s.providers[p.BankName()] = p
	s.logger.WithField("bank", p.BankName()).Info("Provedor de proposta registrado")
}

// RegisterAdapter registers a bank adapter
func (s *ProposalService) RegisterAdapter(a banks.Adapter) {
	s.adapters[a.BankName()] = a
	s.logger.WithField("bank", a.BankName()).Info("Adaptador registrado")
}

// ListProviders returns the registered provider names, sorted
func (s *ProposalService) ListProviders() []string {
	names := make([]string, 0, len(s.providers))
	for name := range s.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// resolveBank determines the owning bank for a financial id. Precedence:
// explicit argument, id prefix convention, stored simulation mapping,
// session bank_provider, then the default bank with a warning. The
// prefix convention exists because FACTA and BMG ids are minted by us
// (facta_<id>, bmg_<benefit>) while VCTEX/QI ids are opaque partner
// UUIDs.
func (s *ProposalService) resolveBank(ctx context.Context, financialID, explicit string) string {
	if explicit != "" {
		return explicit
	}

	if strings.HasPrefix(financialID, "facta_") {
		return banks.BankFacta
	}
	if strings.HasPrefix(financialID, "bmg_") {
		return banks.BankBMG
	}

	if rec, err := s.simulations.FindSimulationByFinancialID(ctx, financialID); err == nil && rec != nil {
		if rec.BankProvider != "" {
			return rec.BankProvider
		}
		if rec.BankName != "" {
			return rec.BankName
		}
	}

	if v, err := s.sessions.GetSessionData(ctx, financialID, "bank_provider"); err == nil {
		if provider, ok := v.(string); ok && provider != "" {
			return provider
		}
	}

	s.logger.WithField("financial_id", financialID).
		Warnf("Banco não identificado para o ID, usando padrão: %s", defaultProposalBank)
	return defaultProposalBank
}

// SubmitProposal runs the full submission pipeline. Routing and
// configuration failures come back as typed failed results, not
// errors; the stage cursor is persisted at each transition so an
// operator can see where a crashed submission stopped.
func (s *ProposalService) SubmitProposal(ctx context.Context, req models.NormalizedProposalRequest, bankName string) models.ProposalResult {
	financialID := req.FinancialID
	targetBank := s.resolveBank(ctx, financialID, bankName)

	s.setStage(ctx, financialID, models.StagePreparing)

	provider, ok := s.providers[targetBank]
	if !ok {
		return s.reject(ctx, financialID, targetBank, fmt.Sprintf("Provedor não registrado: %s", targetBank))
	}
	adapter, ok := s.adapters[targetBank]
	if !ok {
		return s.reject(ctx, financialID, targetBank, fmt.Sprintf("Adaptador não encontrado para banco: %s", targetBank))
	}

	active, err := s.bankConfig.IsBankActive(ctx, targetBank, models.FeatureProposal)
	if err != nil {
		return s.reject(ctx, financialID, targetBank, fmt.Sprintf("Erro ao consultar configuração de bancos: %v", err))
	}
	if !active {
		return s.reject(ctx, financialID, targetBank, fmt.Sprintf("Banco inativo para propostas: %s", targetBank))
	}

	s.enrich(ctx, &req)

	s.setStage(ctx, financialID, models.StageAdapting)
	payload := adapter.PrepareProposalRequest(req)
	s.injectFeeTable(ctx, targetBank, payload)

	s.setStage(ctx, financialID, models.StageSubmitting)
	result := provider.SubmitProposal(ctx, payload)

	s.saveResult(ctx, financialID, result)

	if result.Success && result.ContractNumber != "" {
		s.mutateSession(ctx, financialID, targetBank, result)
	}
	return result
}

// enrich fills fields missing from the incoming request with data
// persisted during simulation and chat. Incoming fields always win;
// this is a best-effort merge, lookups failing is not fatal.
func (s *ProposalService) enrich(ctx context.Context, req *models.NormalizedProposalRequest) {
	if req.Customer.CPF == "" {
		if rec, err := s.simulations.FindSimulationByFinancialID(ctx, req.FinancialID); err == nil && rec != nil {
			req.Customer.CPF = rec.CPF
		}
	}

	v, err := s.sessions.GetSessionData(ctx, req.FinancialID, "customer_data")
	if err != nil || v == nil {
		return
	}
	stored, ok := v.(map[string]interface{})
	if !ok {
		return
	}

	fillString(&req.Customer.Name, stored, "customer_info", "name")
	fillString(&req.Customer.CPF, stored, "customer_info", "cpf")
	fillString(&req.Customer.BirthDate, stored, "customer_info", "birth_date")
	fillString(&req.Customer.Gender, stored, "customer_info", "gender")
	fillString(&req.Customer.Phone, stored, "customer_info", "phone")
	fillString(&req.Customer.Email, stored, "customer_info", "email")
	fillString(&req.Customer.MotherName, stored, "customer_info", "mother_name")

	fillString(&req.Document.Type, stored, "document", "type")
	fillString(&req.Document.Number, stored, "document", "number")
	fillString(&req.Document.IssuingDate, stored, "document", "issuing_date")
	fillString(&req.Document.IssuingAuthority, stored, "document", "issuing_authority")
	fillString(&req.Document.IssuingState, stored, "document", "issuing_state")

	fillString(&req.Address.ZipCode, stored, "address", "zip_code")
	fillString(&req.Address.Street, stored, "address", "street")
	fillString(&req.Address.Number, stored, "address", "number")
	fillString(&req.Address.Neighborhood, stored, "address", "neighborhood")
	fillString(&req.Address.City, stored, "address", "city")
	fillString(&req.Address.State, stored, "address", "state")
	fillString(&req.Address.Complement, stored, "address", "complement")

	fillString(&req.BankData.BankCode, stored, "bank_data", "bank_code")
	fillString(&req.BankData.BranchNumber, stored, "bank_data", "branch_number")
	fillString(&req.BankData.AccountNumber, stored, "bank_data", "account_number")
	fillString(&req.BankData.AccountDigit, stored, "bank_data", "account_digit")
	fillString(&req.BankData.AccountType, stored, "bank_data", "account_type")
}

// injectFeeTable writes the active fee table id into the bank payload
// under the bank's own field: FACTA takes a string "tabela", VCTEX and
// QI take an integer "feeScheduleId".
func (s *ProposalService) injectFeeTable(ctx context.Context, bankName string, payload map[string]interface{}) {
	table, err := s.tableConfig.GetActiveTableForBank(ctx, bankName)
	if err != nil {
		s.logger.WithError(err).Warn("Erro ao consultar tabela ativa")
		return
	}
	if table == nil {
		return
	}

	switch bankName {
	case banks.BankFacta:
		payload["tabela"] = table.TableID
	case banks.BankVCTEX, banks.BankQI:
		payload["feeScheduleId"] = intFromTableID(table.TableID)
	}
}

// CheckStatus resolves the bank for a contract and asks its provider
func (s *ProposalService) CheckStatus(ctx context.Context, contractNumber, bankName string) map[string]interface{} {
	if bankName == "" {
		resolved, err := s.proposals.FindBankForContract(ctx, contractNumber)
		if err != nil {
			return map[string]interface{}{"success": false, "error": err.Error(), "status": "error"}
		}
		if resolved == "" {
			return map[string]interface{}{
				"success": false,
				"error":   fmt.Sprintf("Banco não encontrado para o contrato %s", contractNumber),
				"status":  "unknown",
			}
		}
		bankName = resolved
	}

	provider, ok := s.providers[bankName]
	if !ok {
		return map[string]interface{}{
			"success": false,
			"error":   fmt.Sprintf("Provedor não registrado: %s", bankName),
			"status":  "provider_not_found",
		}
	}
	return provider.CheckStatus(ctx, contractNumber)
}

// ResendFormalizationLink re-sends the signing link for a contract.
// Only FACTA supports link resend; for the other banks the link is
// delivered once at submission time.
func (s *ProposalService) ResendFormalizationLink(ctx context.Context, contractNumber, method string) map[string]interface{} {
	bankName, err := s.proposals.FindBankForContract(ctx, contractNumber)
	if err != nil {
		return map[string]interface{}{"success": false, "error": err.Error()}
	}
	if bankName != banks.BankFacta {
		return map[string]interface{}{
			"success": false,
			"error":   fmt.Sprintf("Reenvio de link não suportado para o banco: %s", bankName),
		}
	}
	provider, ok := s.providers[banks.BankFacta].(*banks.FactaProvider)
	if !ok {
		return map[string]interface{}{"success": false, "error": "Provedor FACTA não registrado"}
	}
	return provider.SendFormalizationLink(ctx, contractNumber, method)
}

// History returns proposals for a financial id and/or contract number
func (s *ProposalService) History(ctx context.Context, financialID, contractNumber string) ([]models.ProposalRecord, error) {
	return s.proposals.ProposalHistory(ctx, financialID, contractNumber)
}

// List returns proposals paginated
func (s *ProposalService) List(ctx context.Context, page, perPage int, bankName string, success *bool) (*models.Page, error) {
	return s.proposals.ListProposals(ctx, page, perPage, bankName, success)
}

func (s *ProposalService) reject(ctx context.Context, financialID, bankName, msg string) models.ProposalResult {
	s.logger.WithField("bank", bankName).Error(msg)
	result := models.ProposalResult{
		BankName:     bankName,
		ErrorMessage: msg,
		Success:      false,
		RawResponse:  map[string]interface{}{"error": msg},
		Timestamp:    time.Now().UTC(),
	}
	s.saveResult(ctx, financialID, result)
	return result
}

func (s *ProposalService) setStage(ctx context.Context, financialID string, stage models.ProposalStage) {
	if err := s.proposals.SetProposalStage(ctx, financialID, stage); err != nil {
		s.logger.WithError(err).Warn("Erro ao persistir estágio da proposta")
	}
}

// saveResult upserts the terminal outcome keyed by financial id
func (s *ProposalService) saveResult(ctx context.Context, financialID string, result models.ProposalResult) {
	stage := models.StageFailed
	if result.Success {
		stage = models.StageSucceeded
	}
	if result.Timestamp.IsZero() {
		result.Timestamp = time.Now().UTC()
	}

	rec := models.ProposalRecord{
		FinancialID:       financialID,
		BankName:          result.BankName,
		ContractNumber:    result.ContractNumber,
		FormalizationLink: result.FormalizationLink,
		ErrorMessage:      result.ErrorMessage,
		Success:           result.Success,
		Stage:             stage,
		RawResponse:       result.RawResponse,
		Timestamp:         result.Timestamp,
	}
	if err := s.proposals.UpsertProposal(ctx, rec); err != nil {
		s.logger.WithError(err).Error("Erro ao salvar proposta")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"financial_id": financialID,
		"bank":         result.BankName,
	}).Info("Proposta salva")
}

// mutateSession writes the contract metadata into the caller's session.
// This only runs on success: failed submissions never flip "sent" flags.
func (s *ProposalService) mutateSession(ctx context.Context, financialID, bankName string, result models.ProposalResult) {
	now := time.Now().UTC()
	fields := map[string]interface{}{
		"contract_number":                   result.ContractNumber,
		"formalization_link":                result.FormalizationLink,
		"proposal_created_at":               now,
		"proposal_bank":                     bankName,
		"proposal_sent":                     true,
		"customer_data.proposal_sent":       true,
		"customer_data.proposal_created_at": now,
	}
	for field, value := range fields {
		if err := s.sessions.SetSessionData(ctx, financialID, field, value); err != nil {
			s.logger.WithError(err).WithField("field", field).Warn("Erro ao atualizar sessão")
		}
	}
}

func fillString(dst *string, stored map[string]interface{}, path ...string) {
	if *dst != "" {
		return
	}
	var current interface{} = stored
	for _, key := range path {
		m, ok := current.(map[string]interface{})
		if !ok {
			return
		}
		current = m[key]
	}
	if v := utils.ToString(current); v != "" {
		*dst = v
	}
}

func intFromTableID(id string) int {
	n := 0
	for _, r := range id {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
