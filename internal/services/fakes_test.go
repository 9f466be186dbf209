package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/credihub/fgts-api/internal/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

// fakeStore implements every narrow store interface in memory
type fakeStore struct {
	mu sync.Mutex

	simulations   []models.SimulationRecord
	proposals     map[string]models.ProposalRecord
	stages        map[string][]models.ProposalStage
	contractBanks map[string]string
	sessionFields map[string]map[string]interface{}
	sessionsList  []map[string]interface{}
	batchOutcomes map[string][]models.BankOutcome
	batchSuccess  map[string]bool

	bankDoc  *models.BankConfigDoc
	tableDoc *models.TableConfigDoc
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		proposals:     make(map[string]models.ProposalRecord),
		stages:        make(map[string][]models.ProposalStage),
		contractBanks: make(map[string]string),
		sessionFields: make(map[string]map[string]interface{}),
		batchOutcomes: make(map[string][]models.BankOutcome),
		batchSuccess:  make(map[string]bool),
	}
}

func (f *fakeStore) InsertSimulation(_ context.Context, rec models.SimulationRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.simulations = append(f.simulations, rec)
	return nil
}

func (f *fakeStore) FindSimulationByFinancialID(_ context.Context, financialID string) (*models.SimulationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.simulations) - 1; i >= 0; i-- {
		if f.simulations[i].FinancialID == financialID {
			rec := f.simulations[i]
			return &rec, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) SimulationHistory(_ context.Context, cpf, bankName string) ([]models.SimulationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.SimulationRecord
	for _, rec := range f.simulations {
		if rec.CPF == cpf && (bankName == "" || rec.BankName == bankName) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeStore) ListSimulations(_ context.Context, page, perPage int, _, _ string) (*models.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &models.Page{Items: f.simulations, Page: page, PerPage: perPage, TotalItems: int64(len(f.simulations))}, nil
}

func (f *fakeStore) DistinctCPFs(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[string]bool)
	var out []string
	for _, rec := range f.simulations {
		if !seen[rec.CPF] {
			seen[rec.CPF] = true
			out = append(out, rec.CPF)
		}
	}
	return out, nil
}

func (f *fakeStore) UpsertProposal(_ context.Context, rec models.ProposalRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.proposals[rec.FinancialID] = rec
	if rec.ContractNumber != "" {
		f.contractBanks[rec.ContractNumber] = rec.BankName
	}
	return nil
}

func (f *fakeStore) SetProposalStage(_ context.Context, financialID string, stage models.ProposalStage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stages[financialID] = append(f.stages[financialID], stage)
	return nil
}

func (f *fakeStore) FindBankForContract(_ context.Context, contractNumber string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.contractBanks[contractNumber], nil
}

func (f *fakeStore) ProposalHistory(_ context.Context, financialID, contractNumber string) ([]models.ProposalRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ProposalRecord
	for _, rec := range f.proposals {
		if (financialID != "" && rec.FinancialID == financialID) ||
			(contractNumber != "" && rec.ContractNumber == contractNumber) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeStore) ListProposals(_ context.Context, page, perPage int, _ string, _ *bool) (*models.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &models.Page{Page: page, PerPage: perPage, TotalItems: int64(len(f.proposals))}, nil
}

func (f *fakeStore) SetSessionData(_ context.Context, sessionID, field string, value interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sessionFields[sessionID] == nil {
		f.sessionFields[sessionID] = make(map[string]interface{})
	}
	f.sessionFields[sessionID][field] = value
	return nil
}

func (f *fakeStore) GetSessionData(_ context.Context, sessionID, field string) (interface{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fields := f.sessionFields[sessionID]
	if fields == nil {
		return nil, nil
	}
	return fields[field], nil
}

func (f *fakeStore) StoreProposalData(_ context.Context, sessionID string, data map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sessionFields[sessionID] == nil {
		f.sessionFields[sessionID] = make(map[string]interface{})
	}
	for k, v := range data {
		f.sessionFields[sessionID][k] = v
	}
	return nil
}

func (f *fakeStore) ListSessionsWithCPF(_ context.Context) ([]map[string]interface{}, error) {
	return f.sessionsList, nil
}

func (f *fakeStore) UpsertBatchRecord(_ context.Context, cpf, _ string, outcomes []models.BankOutcome, anySuccess bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchOutcomes[cpf] = outcomes
	f.batchSuccess[cpf] = anySuccess
	return nil
}

func (f *fakeStore) ListBatchResults(_ context.Context, page, perPage int, _, _ string) (*models.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &models.Page{Page: page, PerPage: perPage, TotalItems: int64(len(f.batchOutcomes))}, nil
}

func (f *fakeStore) GetBankConfig(_ context.Context) (*models.BankConfigDoc, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bankDoc, nil
}

func (f *fakeStore) SaveBankConfig(_ context.Context, doc *models.BankConfigDoc) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bankDoc = doc
	return nil
}

func (f *fakeStore) GetTableConfig(_ context.Context) (*models.TableConfigDoc, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tableDoc, nil
}

func (f *fakeStore) SaveTableConfig(_ context.Context, doc *models.TableConfigDoc) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tableDoc = doc
	return nil
}

// stubSimulator returns a canned result, optionally panicking
type stubSimulator struct {
	name   string
	result models.SimulationResult
	panics bool
}

func (s *stubSimulator) BankName() string { return s.name }

func (s *stubSimulator) BankInfo() models.BankInfo {
	return models.BankInfo{Code: s.name, Name: s.name}
}

func (s *stubSimulator) Simulate(context.Context, string) models.SimulationResult {
	if s.panics {
		panic("partner client crashed")
	}
	result := s.result
	result.BankName = s.name
	if result.Timestamp.IsZero() {
		result.Timestamp = time.Now().UTC()
	}
	return result
}

// stubAdapter normalizes from the raw keys amount and financial_id and
// records the last request it prepared.
type stubAdapter struct {
	name    string
	lastReq *models.NormalizedProposalRequest
}

func (a *stubAdapter) BankName() string { return a.name }

func (a *stubAdapter) NormalizeSimulationResponse(raw map[string]interface{}) models.NormalizedSimulationResponse {
	amount, _ := raw["amount"].(float64)
	financialID, _ := raw["financial_id"].(string)
	return models.NormalizedSimulationResponse{
		BankName:        a.name,
		FinancialID:     financialID,
		AvailableAmount: amount,
		Success:         true,
		RawResponse:     raw,
		Timestamp:       time.Now().UTC(),
	}
}

func (a *stubAdapter) PrepareProposalRequest(req models.NormalizedProposalRequest) map[string]interface{} {
	a.lastReq = &req
	return map[string]interface{}{"financialId": req.FinancialID, "cpf": req.Customer.CPF}
}

// stubProvider returns a canned proposal result and records the payload
type stubProvider struct {
	name        string
	result      models.ProposalResult
	status      map[string]interface{}
	lastPayload map[string]interface{}
}

func (p *stubProvider) BankName() string { return p.name }

func (p *stubProvider) SubmitProposal(_ context.Context, payload map[string]interface{}) models.ProposalResult {
	p.lastPayload = payload
	result := p.result
	result.BankName = p.name
	return result
}

func (p *stubProvider) CheckStatus(context.Context, string) map[string]interface{} {
	if p.status != nil {
		return p.status
	}
	return map[string]interface{}{"success": true, "status": "pending"}
}
