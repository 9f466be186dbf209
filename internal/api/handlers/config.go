package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/credihub/fgts-api/internal/models"
	"github.com/credihub/fgts-api/internal/services"
)

// ConfigHandler handles bank and fee table configuration requests
type ConfigHandler struct {
	banks  *services.BankConfigService
	tables *services.TableConfigService
	logger *logrus.Logger
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(banks *services.BankConfigService, tables *services.TableConfigService, logger *logrus.Logger) *ConfigHandler {
	return &ConfigHandler{banks: banks, tables: tables, logger: logger}
}

// GetBanks returns the full bank configuration document
func (h *ConfigHandler) GetBanks(c *gin.Context) {
	start := time.Now()

	cfg, err := h.banks.GetConfig(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Erro ao consultar configuração de bancos")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erro ao consultar configuração", nil)
		return
	}

	respondSuccess(c, start, "Configuração consultada com sucesso", cfg)
}

// UpdateBankRequest is the bank status update body
type UpdateBankRequest struct {
	Active   *bool    `json:"active" binding:"required"`
	Features []string `json:"features"`
	Updater  string   `json:"updated_by"`
}

// UpdateBank activates or deactivates a bank, optionally replacing its
// feature flags
func (h *ConfigHandler) UpdateBank(c *gin.Context) {
	start := time.Now()
	bankName := c.Param("bank_name")

	var req UpdateBankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Corpo da requisição inválido", err.Error())
		return
	}

	ok, err := h.banks.UpdateBankStatus(c.Request.Context(), bankName, *req.Active, req.Features, req.Updater)
	if err != nil {
		h.logger.WithError(err).Error("Erro ao atualizar banco")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erro ao atualizar banco", nil)
		return
	}
	if !ok {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Banco não encontrado: "+bankName, nil)
		return
	}

	respondSuccess(c, start, "Banco atualizado com sucesso", gin.H{"bank_name": bankName, "active": *req.Active})
}

// AddBankRequest is the bank creation body
type AddBankRequest struct {
	BankName    string   `json:"bank_name" binding:"required"`
	Description string   `json:"description"`
	Active      bool     `json:"active"`
	Features    []string `json:"features"`
	Updater     string   `json:"updated_by"`
}

// AddBank registers a new bank in the configuration
func (h *ConfigHandler) AddBank(c *gin.Context) {
	start := time.Now()

	var req AddBankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Corpo da requisição inválido", err.Error())
		return
	}

	ok, err := h.banks.AddBank(c.Request.Context(), req.BankName, req.Description, req.Active, req.Features, req.Updater)
	if err != nil {
		h.logger.WithError(err).Error("Erro ao adicionar banco")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erro ao adicionar banco", nil)
		return
	}
	if !ok {
		respondError(c, http.StatusConflict, "INVALID_REQUEST", "Banco já existe: "+req.BankName, nil)
		return
	}

	respondSuccess(c, start, "Banco adicionado com sucesso", gin.H{"bank_name": req.BankName})
}

// GetTables returns the fee tables, optionally filtered by bank
func (h *ConfigHandler) GetTables(c *gin.Context) {
	start := time.Now()

	if bankName := c.Query("bank_name"); bankName != "" {
		tables, err := h.tables.GetTablesByBank(c.Request.Context(), bankName)
		if err != nil {
			h.logger.WithError(err).Error("Erro ao consultar tabelas")
			respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erro ao consultar tabelas", nil)
			return
		}
		respondSuccess(c, start, "Tabelas consultadas com sucesso", gin.H{"tables": tables, "total": len(tables)})
		return
	}

	cfg, err := h.tables.GetConfig(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Erro ao consultar tabelas")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erro ao consultar tabelas", nil)
		return
	}
	respondSuccess(c, start, "Tabelas consultadas com sucesso", cfg)
}

// ActivateTableRequest is the table activation body
type ActivateTableRequest struct {
	Updater string `json:"updated_by"`
}

// ActivateTable makes a table the active one for its bank
func (h *ConfigHandler) ActivateTable(c *gin.Context) {
	start := time.Now()
	tableID := c.Param("table_id")

	var req ActivateTableRequest
	_ = c.ShouldBindJSON(&req)

	ok, err := h.tables.SetActiveTable(c.Request.Context(), tableID, req.Updater)
	if err != nil {
		h.logger.WithError(err).Error("Erro ao ativar tabela")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erro ao ativar tabela", nil)
		return
	}
	if !ok {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Tabela não encontrada: "+tableID, nil)
		return
	}

	respondSuccess(c, start, "Tabela ativada com sucesso", gin.H{"table_id": tableID})
}

// AddTableRequest is the table creation body
type AddTableRequest struct {
	TableID     string `json:"table_id" binding:"required"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
	BankName    string `json:"bank_name" binding:"required"`
	Updater     string `json:"updated_by"`
}

// AddTable registers a new fee table
func (h *ConfigHandler) AddTable(c *gin.Context) {
	start := time.Now()

	var req AddTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Corpo da requisição inválido", err.Error())
		return
	}

	table := models.TableSetting{
		TableID:     req.TableID,
		Name:        req.Name,
		Description: req.Description,
		Active:      req.Active,
		BankName:    req.BankName,
	}
	ok, err := h.tables.AddTable(c.Request.Context(), table, req.Updater)
	if err != nil {
		h.logger.WithError(err).Error("Erro ao adicionar tabela")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erro ao adicionar tabela", nil)
		return
	}
	if !ok {
		respondError(c, http.StatusConflict, "INVALID_REQUEST", "Tabela já existe: "+req.TableID, nil)
		return
	}

	respondSuccess(c, start, "Tabela adicionada com sucesso", gin.H{"table_id": req.TableID})
}
