package services

import (
	"context"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/credihub/fgts-api/internal/models"
)

// BankConfigService manages which banks are enabled and for which
// features. The config document is read fresh on every call: there is
// no cache, staleness is bounded by one request.
type BankConfigService struct {
	store  BankConfigStore
	logger *logrus.Logger
}

// NewBankConfigService creates the bank config service and seeds the
// default configuration if the document is missing.
func NewBankConfigService(store BankConfigStore, logger *logrus.Logger) *BankConfigService {
	s := &BankConfigService{store: store, logger: logger}
	if err := s.ensureDefault(context.Background()); err != nil {
		logger.WithError(err).Warn("Falha ao criar configuração padrão de bancos")
	}
	return s
}

func (s *BankConfigService) ensureDefault(ctx context.Context) error {
	doc, err := s.store.GetBankConfig(ctx)
	if err != nil {
		return err
	}
	if doc != nil {
		return nil
	}

	now := time.Now().UTC()
	doc = &models.BankConfigDoc{
		Banks: map[string]models.BankSetting{
			"VCTEX": {
				BankName:    "VCTEX",
				Active:      true,
				Features:    []string{models.FeatureSimulation, models.FeatureProposal},
				Description: "VCTEX Bank - Antecipação de FGTS",
				UpdatedAt:   now,
			},
			"FACTA": {
				BankName:    "FACTA",
				Active:      true,
				Features:    []string{models.FeatureSimulation, models.FeatureProposal},
				Description: "Banco Facta - Antecipação de FGTS",
				UpdatedAt:   now,
			},
		},
		LastUpdated: now,
	}

	if err := s.store.SaveBankConfig(ctx, doc); err != nil {
		return err
	}
	s.logger.Info("Configuração padrão de bancos criada")
	return nil
}

// GetConfig returns the current bank configuration
func (s *BankConfigService) GetConfig(ctx context.Context) (*models.BankConfigDoc, error) {
	doc, err := s.store.GetBankConfig(ctx)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		if err := s.ensureDefault(ctx); err != nil {
			return nil, err
		}
		return s.store.GetBankConfig(ctx)
	}
	return doc, nil
}

// GetActiveBanks returns the names of active banks, optionally filtered
// by feature. The result is sorted for deterministic fan-out order.
func (s *BankConfigService) GetActiveBanks(ctx context.Context, feature string) ([]string, error) {
	doc, err := s.GetConfig(ctx)
	if err != nil {
		return nil, err
	}

	var active []string
	for name, setting := range doc.Banks {
		if !setting.Active {
			continue
		}
		if feature == "" || setting.HasFeature(feature) {
			active = append(active, name)
		}
	}
	sort.Strings(active)
	return active, nil
}

// IsBankActive reports whether a bank is active for a feature
func (s *BankConfigService) IsBankActive(ctx context.Context, bankName, feature string) (bool, error) {
	doc, err := s.GetConfig(ctx)
	if err != nil {
		return false, err
	}
	setting, ok := doc.Banks[bankName]
	if !ok {
		return false, nil
	}
	return setting.Active && setting.HasFeature(feature), nil
}

// IsBankKnown reports whether a bank exists in the configuration
func (s *BankConfigService) IsBankKnown(ctx context.Context, bankName string) (bool, error) {
	doc, err := s.GetConfig(ctx)
	if err != nil {
		return false, err
	}
	_, ok := doc.Banks[bankName]
	return ok, nil
}

// UpdateBankStatus flips a bank's active flag and optionally replaces
// its features. Unknown banks are rejected.
func (s *BankConfigService) UpdateBankStatus(ctx context.Context, bankName string, active bool, features []string, updater string) (bool, error) {
	doc, err := s.GetConfig(ctx)
	if err != nil {
		return false, err
	}

	setting, ok := doc.Banks[bankName]
	if !ok {
		s.logger.WithField("bank", bankName).Warn("Tentativa de atualizar banco inexistente")
		return false, nil
	}

	setting.Active = active
	if features != nil {
		setting.Features = features
	}
	setting.UpdatedAt = time.Now().UTC()
	if updater != "" {
		setting.UpdatedBy = updater
	}
	doc.Banks[bankName] = setting
	doc.LastUpdated = time.Now().UTC()

	if err := s.store.SaveBankConfig(ctx, doc); err != nil {
		return false, err
	}

	s.logger.WithFields(logrus.Fields{
		"bank":   bankName,
		"active": active,
	}).Info("Banco atualizado")
	return true, nil
}

// AddBank registers a new bank in the configuration. Duplicates are
// rejected.
func (s *BankConfigService) AddBank(ctx context.Context, bankName, description string, active bool, features []string, updater string) (bool, error) {
	doc, err := s.GetConfig(ctx)
	if err != nil {
		return false, err
	}

	if _, exists := doc.Banks[bankName]; exists {
		s.logger.WithField("bank", bankName).Warn("Banco já existe")
		return false, nil
	}

	if features == nil {
		features = []string{}
	}
	doc.Banks[bankName] = models.BankSetting{
		BankName:    bankName,
		Active:      active,
		Features:    features,
		Description: description,
		UpdatedAt:   time.Now().UTC(),
		UpdatedBy:   updater,
	}
	doc.LastUpdated = time.Now().UTC()

	if err := s.store.SaveBankConfig(ctx, doc); err != nil {
		return false, err
	}

	s.logger.WithField("bank", bankName).Info("Novo banco adicionado")
	return true, nil
}
