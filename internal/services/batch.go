package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/credihub/fgts-api/internal/models"
	"github.com/credihub/fgts-api/internal/utils"
)

// cpfSessionPaths are the known locations of a tax id inside a session
// document. Different chat flows persisted the CPF under different
// keys over time and none of them were migrated.
var cpfSessionPaths = [][]string{
	{"customer_data", "customer_info", "cpf"},
	{"customer_data", "borrower", "cpf"},
	{"cpf"},
	{"customer_data", "cpf"},
	{"personal_info", "cpf"},
	{"document", "cpf"},
	{"user", "cpf"},
}

// BatchService sweeps stored sessions and re-runs simulations for every
// CPF found, keeping a per-CPF rollup of outcomes.
type BatchService struct {
	simulations *SimulationService
	sessions    SessionStore
	store       BatchStore
	logger      *logrus.Logger
}

// NewBatchService creates the batch simulation service
func NewBatchService(simulations *SimulationService, sessions SessionStore, store BatchStore, logger *logrus.Logger) *BatchService {
	return &BatchService{
		simulations: simulations,
		sessions:    sessions,
		store:       store,
		logger:      logger,
	}
}

// ProcessBatchSimulations walks every session carrying a CPF, simulates
// each distinct CPF once and upserts the per-CPF rollup. bankName
// restricts the run to a single bank when non-empty. Per-CPF failures
// are recorded and never abort the sweep.
func (s *BatchService) ProcessBatchSimulations(ctx context.Context, bankName string) (*models.BatchRunResult, error) {
	sessions, err := s.sessions.ListSessionsWithCPF(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.WithField("sessions", len(sessions)).Info("Iniciando processamento em lote")

	run := &models.BatchRunResult{Results: []models.BatchItemResult{}}
	seen := make(map[string]bool)

	for _, session := range sessions {
		cpf := extractCPF(session)
		if cpf == "" {
			continue
		}
		cpf = utils.CleanCPF(cpf)
		if seen[cpf] {
			continue
		}
		seen[cpf] = true

		sessionID := sessionIdentifier(session)
		item := s.processCPF(ctx, cpf, sessionID, bankName)
		if item.Success {
			run.SuccessCount++
		} else {
			run.ErrorCount++
		}
		run.Results = append(run.Results, item)
	}

	run.ProcessedCount = len(seen)
	s.logger.WithFields(logrus.Fields{
		"processed": run.ProcessedCount,
		"success":   run.SuccessCount,
		"errors":    run.ErrorCount,
	}).Info("Processamento em lote concluído")
	return run, nil
}

func (s *BatchService) processCPF(ctx context.Context, cpf, sessionID, bankName string) models.BatchItemResult {
	item := models.BatchItemResult{CPF: cpf, SessionID: sessionID}

	responses, err := s.simulations.Simulate(ctx, cpf, bankName)
	if err != nil {
		item.Error = err.Error()
		return item
	}

	outcomes := make([]models.BankOutcome, 0, len(responses))
	anySuccess := false
	for _, resp := range responses {
		ok := resp.AvailableAmount > 0 && resp.FinancialID != ""
		outcome := models.BankOutcome{
			Bank:        resp.BankName,
			FinancialID: resp.FinancialID,
			Amount:      resp.AvailableAmount,
			Success:     ok,
		}
		if !ok {
			outcome.Error = outcomeError(resp)
		}
		outcomes = append(outcomes, outcome)

		item.Banks = append(item.Banks, resp.BankName)
		if ok {
			anySuccess = true
			item.SuccessBanks = append(item.SuccessBanks, resp.BankName)
		}
	}
	item.Success = anySuccess

	if err := s.store.UpsertBatchRecord(ctx, cpf, sessionID, outcomes, anySuccess); err != nil {
		s.logger.WithError(err).WithField("cpf", cpf).Error("Erro ao salvar resultado do lote")
	}
	return item
}

// GetBatchResults returns the per-CPF rollups paginated
func (s *BatchService) GetBatchResults(ctx context.Context, page, perPage int, cpf, bankName string) (*models.Page, error) {
	return s.store.ListBatchResults(ctx, page, perPage, cpf, bankName)
}

// outcomeError digs the partner message out of a failed response
func outcomeError(resp models.NormalizedSimulationResponse) string {
	if resp.ErrorMessage != "" {
		return resp.ErrorMessage
	}
	for _, key := range []string{"message", "error", "mensagem"} {
		if v := utils.ToString(resp.RawResponse[key]); v != "" {
			return v
		}
	}
	return "Simulação sem valor disponível"
}

// extractCPF returns the first plausible CPF found in the session,
// trying the known paths in order.
func extractCPF(session map[string]interface{}) string {
	for _, path := range cpfSessionPaths {
		var current interface{} = session
		for _, key := range path {
			m, ok := current.(map[string]interface{})
			if !ok {
				current = nil
				break
			}
			current = m[key]
		}
		if v, ok := current.(string); ok && len(v) >= 11 {
			return v
		}
	}
	return ""
}

func sessionIdentifier(session map[string]interface{}) string {
	if v, ok := session["session_id"].(string); ok && v != "" {
		return v
	}
	return utils.ToString(session["_id"])
}
