package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/credihub/fgts-api/internal/banks"
	"github.com/credihub/fgts-api/internal/models"
)

// maxConcurrentBanks caps the simulation fan-out so a wide bank list
// cannot exhaust partner connections.
const maxConcurrentBanks = 4

// SimulationService fans credit simulations out across registered
// banks and normalizes the results. One bank's failure or timeout never
// cancels or corrupts another bank's result.
type SimulationService struct {
	simulators map[string]banks.Simulator
	adapters   map[string]banks.Adapter

	bankConfig *BankConfigService
	store      SimulationStore
	sessions   SessionStore
	logger     *logrus.Logger
}

// NewSimulationService creates the simulation service
func NewSimulationService(bankConfig *BankConfigService, store SimulationStore, sessions SessionStore, logger *logrus.Logger) *SimulationService {
	return &SimulationService{
		simulators: make(map[string]banks.Simulator),
		adapters:   make(map[string]banks.Adapter),
		bankConfig: bankConfig,
		store:      store,
		sessions:   sessions,
		logger:     logger,
	}
}

// RegisterSimulator registers a bank simulator implementation
func (s *SimulationService) RegisterSimulator(sim banks.Simulator) {
	s.simulators[sim.BankName()] = sim
	s.logger.WithField("bank", sim.BankName()).Info("Banco registrado")
}

// RegisterAdapter registers a bank adapter implementation
func (s *SimulationService) RegisterAdapter(adapter banks.Adapter) {
	s.adapters[adapter.BankName()] = adapter
	s.logger.WithField("bank", adapter.BankName()).Info("Adaptador registrado")
}

// activeSimulators intersects the registered simulators with the banks
// currently enabled for simulation. The config is read fresh per call.
func (s *SimulationService) activeSimulators(ctx context.Context) ([]banks.Simulator, error) {
	activeNames, err := s.bankConfig.GetActiveBanks(ctx, models.FeatureSimulation)
	if err != nil {
		return nil, fmt.Errorf("failed to load active banks: %w", err)
	}

	var sims []banks.Simulator
	for _, name := range activeNames {
		if sim, ok := s.simulators[name]; ok {
			sims = append(sims, sim)
		}
	}
	return sims, nil
}

// Simulate runs a simulation for one bank, or fans out to every active
// bank when bankName is empty. Callers always get one entry per bank
// attempted, success or not. The only propagated errors are an
// explicitly requested bank being unregistered or inactive.
func (s *SimulationService) Simulate(ctx context.Context, cpf, bankName string) ([]models.NormalizedSimulationResponse, error) {
	var targets []banks.Simulator

	if bankName != "" {
		sim, ok := s.simulators[bankName]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrBankNotRegistered, bankName)
		}
		active, err := s.bankConfig.IsBankActive(ctx, bankName, models.FeatureSimulation)
		if err != nil {
			return nil, err
		}
		if !active {
			return nil, fmt.Errorf("%w: %s", ErrBankInactive, bankName)
		}
		targets = []banks.Simulator{sim}
	} else {
		var err error
		targets, err = s.activeSimulators(ctx)
		if err != nil {
			return nil, err
		}
	}

	raw := s.fanOut(ctx, cpf, targets)

	normalized := make([]models.NormalizedSimulationResponse, 0, len(raw))
	for _, result := range raw {
		adapter, hasAdapter := s.adapters[result.BankName]
		if hasAdapter && result.Success {
			resp := adapter.NormalizeSimulationResponse(result.RawResponse)
			normalized = append(normalized, resp)
			s.saveNormalized(ctx, cpf, result.BankName, resp)
			continue
		}

		if !hasAdapter {
			s.logger.WithField("bank", result.BankName).Warn("Sem adaptador para o banco")
		}
		// Failed or unadapted banks still produce one zero-valued
		// entry carrying the original error.
		normalized = append(normalized, models.NormalizedSimulationResponse{
			BankName:     result.BankName,
			ErrorMessage: result.ErrorMessage,
			Success:      result.Success,
			RawResponse:  result.RawResponse,
			Timestamp:    result.Timestamp,
		})
	}

	return normalized, nil
}

// fanOut runs the simulators concurrently under a small semaphore.
// Simulators never return errors; a panic in one is converted into a
// failed result so the rest of the fan-out survives.
func (s *SimulationService) fanOut(ctx context.Context, cpf string, targets []banks.Simulator) []models.SimulationResult {
	results := make([]models.SimulationResult, len(targets))
	sem := make(chan struct{}, maxConcurrentBanks)
	var wg sync.WaitGroup

	for i, sim := range targets {
		wg.Add(1)
		go func(i int, sim banks.Simulator) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			defer func() {
				if r := recover(); r != nil {
					s.logger.WithFields(logrus.Fields{
						"bank":  sim.BankName(),
						"panic": r,
					}).Error("Simulação abortada por panic")
					results[i] = models.SimulationResult{
						BankName:     sim.BankName(),
						ErrorMessage: fmt.Sprintf("erro interno: %v", r),
						Success:      false,
						RawResponse:  map[string]interface{}{"error": fmt.Sprintf("%v", r)},
						Timestamp:    time.Now().UTC(),
					}
				}
			}()

			results[i] = sim.Simulate(ctx, cpf)
		}(i, sim)
	}
	wg.Wait()

	return results
}

// saveNormalized appends the simulation to history and records the
// financial id to bank mapping used later for proposal routing.
// Persistence failures are logged, never propagated: a storage hiccup
// must not void a successful partner simulation.
func (s *SimulationService) saveNormalized(ctx context.Context, cpf, bankName string, resp models.NormalizedSimulationResponse) {
	rec := models.SimulationRecord{
		CPF:             cpf,
		BankName:        resp.BankName,
		BankProvider:    bankName,
		FinancialID:     resp.FinancialID,
		AvailableAmount: resp.AvailableAmount,
		TotalAmount:     resp.TotalAmount,
		InterestRate:    resp.InterestRate,
		IOFAmount:       resp.IOFAmount,
		Success:         true,
		Normalized:      true,
		RawResponse:     resp.RawResponse,
		Timestamp:       resp.Timestamp,
	}
	if err := s.store.InsertSimulation(ctx, rec); err != nil {
		s.logger.WithError(err).Error("Erro ao salvar resultado normalizado")
		return
	}

	if resp.FinancialID != "" {
		if err := s.sessions.SetSessionData(ctx, resp.FinancialID, "bank_provider", bankName); err != nil {
			s.logger.WithError(err).Warn("Erro ao salvar provedor na sessão")
		} else {
			s.logger.WithFields(logrus.Fields{
				"bank":         bankName,
				"financial_id": resp.FinancialID,
			}).Info("Provedor salvo para sessão")
		}
	}
}

// BankForFinancialID resolves the bank that produced a financial id
func (s *SimulationService) BankForFinancialID(ctx context.Context, financialID string) (string, error) {
	rec, err := s.store.FindSimulationByFinancialID(ctx, financialID)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return "", nil
	}
	if rec.BankProvider != "" {
		return rec.BankProvider, nil
	}
	return rec.BankName, nil
}

// History returns a CPF's simulations, newest first
func (s *SimulationService) History(ctx context.Context, cpf, bankName string) ([]models.SimulationRecord, error) {
	return s.store.SimulationHistory(ctx, cpf, bankName)
}

// List returns simulations paginated
func (s *SimulationService) List(ctx context.Context, page, perPage int, bankName, cpf string) (*models.Page, error) {
	return s.store.ListSimulations(ctx, page, perPage, bankName, cpf)
}

// UniqueCPFs returns every CPF with at least one simulation
func (s *SimulationService) UniqueCPFs(ctx context.Context) ([]string, error) {
	return s.store.DistinctCPFs(ctx)
}

// ListBanks catalogues registered banks split by configured activity
func (s *SimulationService) ListBanks(ctx context.Context) (*models.BankListing, error) {
	activeNames, err := s.bankConfig.GetActiveBanks(ctx, models.FeatureSimulation)
	if err != nil {
		return nil, err
	}
	activeSet := make(map[string]bool, len(activeNames))
	for _, name := range activeNames {
		activeSet[name] = true
	}

	listing := &models.BankListing{
		ActiveBanks:   []models.BankInfo{},
		InactiveBanks: []models.BankInfo{},
	}
	for name, sim := range s.simulators {
		info := sim.BankInfo()
		info.Active = activeSet[name]
		if info.Active {
			listing.ActiveBanks = append(listing.ActiveBanks, info)
		} else {
			listing.InactiveBanks = append(listing.InactiveBanks, info)
		}
	}

	listing.TotalActive = len(listing.ActiveBanks)
	listing.SystemStatus = models.BankSystemStatus{
		Operational: listing.TotalActive > 0,
		Message:     "Sistema operacional",
	}
	if listing.TotalActive == 0 {
		listing.SystemStatus.Message = "Nenhum banco disponível no momento"
	}
	return listing, nil
}
