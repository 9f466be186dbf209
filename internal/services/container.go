package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/credihub/fgts-api/internal/banks"
	"github.com/credihub/fgts-api/internal/cache"
	"github.com/credihub/fgts-api/internal/clients/bmg"
	"github.com/credihub/fgts-api/internal/clients/facta"
	"github.com/credihub/fgts-api/internal/clients/vctex"
	"github.com/credihub/fgts-api/internal/config"
	"github.com/credihub/fgts-api/internal/storage"
)

// Container wires every service with its dependencies
type Container struct {
	Config *config.Config
	Logger *logrus.Logger
	Store  *storage.Store
	Tokens *cache.TokenCache

	BankConfig  *BankConfigService
	TableConfig *TableConfigService
	Simulation  *SimulationService
	Proposal    *ProposalService
	Batch       *BatchService
}

// NewContainer builds the full dependency graph: storage, token cache,
// partner clients, bank implementations and services. Redis being down
// is tolerated (tokens fall back to process memory); Mongo being down
// is not.
func NewContainer(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	store, err := storage.NewStore(ctx, cfg.Mongo, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	redisClient := cache.NewRedisClient(
		fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.PoolSize,
		cfg.Redis.DialTimeout, cfg.Redis.ReadTimeout, cfg.Redis.WriteTimeout,
		logger,
	)
	tokens := cache.NewTokenCache(redisClient, logger)

	factaClient := facta.NewClient(cfg.Facta, logger)
	vctexClient := vctex.NewClient(cfg.VCTEX, tokens, logger)
	bmgClient := bmg.NewClient(cfg.BMG, logger)

	bankConfig := NewBankConfigService(store, logger)
	tableConfig := NewTableConfigService(store, logger)

	simulation := NewSimulationService(bankConfig, store, store, logger)
	simulation.RegisterSimulator(banks.NewFactaSimulator(factaClient, cfg.Facta, logger))
	simulation.RegisterSimulator(banks.NewVCTEXSimulator(vctexClient, logger))
	simulation.RegisterSimulator(banks.NewQISimulator(vctexClient, logger))
	simulation.RegisterSimulator(banks.NewBMGSimulator(bmgClient, logger))
	simulation.RegisterAdapter(banks.FactaAdapter{})
	simulation.RegisterAdapter(banks.VCTEXAdapter{})
	simulation.RegisterAdapter(banks.QIAdapter{})
	simulation.RegisterAdapter(banks.BMGAdapter{})

	proposal := NewProposalService(bankConfig, tableConfig, store, store, store, logger)
	vctexProvider := banks.NewVCTEXProvider(vctexClient, cfg.VCTEX.StatusSettleDelay, logger)
	proposal.RegisterProvider(banks.NewFactaProvider(factaClient, store, logger))
	proposal.RegisterProvider(vctexProvider)
	proposal.RegisterProvider(banks.NewQIProvider(vctexProvider))
	proposal.RegisterProvider(banks.NewBMGProvider(bmgClient, logger))
	proposal.RegisterAdapter(banks.FactaAdapter{})
	proposal.RegisterAdapter(banks.VCTEXAdapter{})
	proposal.RegisterAdapter(banks.QIAdapter{})
	proposal.RegisterAdapter(banks.BMGAdapter{})

	batch := NewBatchService(simulation, store, store, logger)

	return &Container{
		Config:      cfg,
		Logger:      logger,
		Store:       store,
		Tokens:      tokens,
		BankConfig:  bankConfig,
		TableConfig: tableConfig,
		Simulation:  simulation,
		Proposal:    proposal,
		Batch:       batch,
	}, nil
}

// Close releases the container's external connections
func (c *Container) Close(ctx context.Context) error {
	return c.Store.Close(ctx)
}
