package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/credihub/fgts-api/internal/models"
)

// TableConfigService manages the fee schedules offered per bank. At
// most one table per bank is active at a time; the active table id is
// injected into proposal payloads.
type TableConfigService struct {
	store  TableConfigStore
	logger *logrus.Logger
}

// NewTableConfigService creates the table config service and seeds the
// default schedules if the document is missing.
func NewTableConfigService(store TableConfigStore, logger *logrus.Logger) *TableConfigService {
	s := &TableConfigService{store: store, logger: logger}
	if err := s.ensureDefault(context.Background()); err != nil {
		logger.WithError(err).Warn("Falha ao criar configuração padrão de tabelas")
	}
	return s
}

func (s *TableConfigService) ensureDefault(ctx context.Context) error {
	doc, err := s.store.GetTableConfig(ctx)
	if err != nil {
		return err
	}
	if doc != nil {
		return nil
	}

	now := time.Now().UTC()
	doc = &models.TableConfigDoc{
		Tables: map[string]models.TableSetting{
			"57851": {
				TableID:     "57851",
				Name:        "Tabela Padrão FGTS",
				Description: "Tabela padrão para antecipação de FGTS",
				Active:      true,
				BankName:    "FACTA",
				UpdatedAt:   now,
			},
			"0": {
				TableID:     "0",
				Name:        "Tabela VCTEX Padrão",
				Description: "Tabela padrão VCTEX (feeScheduleId)",
				Active:      true,
				BankName:    "VCTEX",
				UpdatedAt:   now,
			},
			"1": {
				TableID:     "1",
				Name:        "Tabela VCTEX Promocional",
				Description: "Tabela promocional VCTEX (feeScheduleId)",
				Active:      false,
				BankName:    "VCTEX",
				UpdatedAt:   now,
			},
			"DEFAULT_QI": {
				TableID:     "DEFAULT_QI",
				Name:        "Tabela QI Bank",
				Description: "Tabela padrão QI Bank",
				Active:      true,
				BankName:    "QI",
				UpdatedAt:   now,
			},
		},
		LastUpdated: now,
	}

	if err := s.store.SaveTableConfig(ctx, doc); err != nil {
		return err
	}
	s.logger.Info("Configuração padrão de tabelas criada")
	return nil
}

// GetConfig returns the current table configuration
func (s *TableConfigService) GetConfig(ctx context.Context) (*models.TableConfigDoc, error) {
	doc, err := s.store.GetTableConfig(ctx)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		if err := s.ensureDefault(ctx); err != nil {
			return nil, err
		}
		return s.store.GetTableConfig(ctx)
	}
	return doc, nil
}

// GetTablesByBank returns every fee schedule registered for a bank
func (s *TableConfigService) GetTablesByBank(ctx context.Context, bankName string) ([]models.TableSetting, error) {
	doc, err := s.GetConfig(ctx)
	if err != nil {
		return nil, err
	}

	var tables []models.TableSetting
	for id, table := range doc.Tables {
		if table.BankName == bankName {
			table.TableID = id
			tables = append(tables, table)
		}
	}
	return tables, nil
}

// GetActiveTableForBank returns the active fee schedule for a bank,
// nil when none is active.
func (s *TableConfigService) GetActiveTableForBank(ctx context.Context, bankName string) (*models.TableSetting, error) {
	tables, err := s.GetTablesByBank(ctx, bankName)
	if err != nil {
		return nil, err
	}
	for _, table := range tables {
		if table.Active {
			t := table
			return &t, nil
		}
	}
	return nil, nil
}

// SetActiveTable activates one table and deactivates every other table
// of the same bank. Activating an already-active table is a no-op
// beyond timestamps.
func (s *TableConfigService) SetActiveTable(ctx context.Context, tableID, updater string) (bool, error) {
	doc, err := s.GetConfig(ctx)
	if err != nil {
		return false, err
	}

	target, ok := doc.Tables[tableID]
	if !ok {
		s.logger.WithField("table_id", tableID).Warn("Tentativa de ativar tabela inexistente")
		return false, nil
	}

	now := time.Now().UTC()
	for id, table := range doc.Tables {
		if table.BankName != target.BankName {
			continue
		}
		table.Active = id == tableID
		table.UpdatedAt = now
		if updater != "" {
			table.UpdatedBy = updater
		}
		doc.Tables[id] = table
	}
	doc.LastUpdated = now

	if err := s.store.SaveTableConfig(ctx, doc); err != nil {
		return false, err
	}

	s.logger.WithFields(logrus.Fields{
		"table_id": tableID,
		"bank":     target.BankName,
	}).Info("Tabela ativa atualizada")
	return true, nil
}

// AddTable registers a new fee schedule. Duplicates are rejected.
func (s *TableConfigService) AddTable(ctx context.Context, table models.TableSetting, updater string) (bool, error) {
	doc, err := s.GetConfig(ctx)
	if err != nil {
		return false, err
	}

	if _, exists := doc.Tables[table.TableID]; exists {
		s.logger.WithField("table_id", table.TableID).Warn("Tabela já existe")
		return false, nil
	}

	table.UpdatedAt = time.Now().UTC()
	table.UpdatedBy = updater
	doc.Tables[table.TableID] = table
	doc.LastUpdated = time.Now().UTC()

	if err := s.store.SaveTableConfig(ctx, doc); err != nil {
		return false, err
	}

	s.logger.WithField("table_id", table.TableID).Info("Nova tabela adicionada")
	return true, nil
}
