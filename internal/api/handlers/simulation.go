package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/credihub/fgts-api/internal/services"
	"github.com/credihub/fgts-api/internal/utils"
)

// SimulationHandler handles simulation requests
type SimulationHandler struct {
	simulations *services.SimulationService
	logger      *logrus.Logger
}

// NewSimulationHandler creates a new simulation handler
func NewSimulationHandler(simulations *services.SimulationService, logger *logrus.Logger) *SimulationHandler {
	return &SimulationHandler{simulations: simulations, logger: logger}
}

// SimulateRequest is the simulation request body
type SimulateRequest struct {
	CPF      string `json:"cpf" binding:"required"`
	BankName string `json:"bank_name"`
}

// Simulate runs a simulation for a CPF across the active banks, or a
// single bank when bank_name is set
func (h *SimulationHandler) Simulate(c *gin.Context) {
	start := time.Now()
	requestID := c.GetString("request_id")

	var req SimulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Corpo da requisição inválido", err.Error())
		return
	}

	cpf := utils.CleanCPF(req.CPF)
	if !utils.IsValidCPF(cpf) {
		h.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"cpf":        req.CPF,
		}).Warn("CPF inválido")
		respondError(c, http.StatusBadRequest, "INVALID_CPF", "CPF inválido. Deve conter 11 dígitos válidos", nil)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"bank":       req.BankName,
	}).Info("Processando simulação")

	results, err := h.simulations.Simulate(c.Request.Context(), cpf, req.BankName)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBankNotRegistered):
			respondError(c, http.StatusNotFound, "BANK_NOT_REGISTERED", err.Error(), nil)
		case errors.Is(err, services.ErrBankInactive):
			respondError(c, http.StatusServiceUnavailable, "BANK_INACTIVE", err.Error(), nil)
		default:
			h.logger.WithError(err).Error("Erro ao processar simulação")
			respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erro ao processar simulação", nil)
		}
		return
	}

	respondSuccess(c, start, "Simulação realizada com sucesso", gin.H{
		"simulations": results,
		"total":       len(results),
	})
}

// History returns past simulations for a CPF
func (h *SimulationHandler) History(c *gin.Context) {
	start := time.Now()

	cpf := utils.CleanCPF(c.Query("cpf"))
	if cpf == "" {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Parâmetro cpf é obrigatório", nil)
		return
	}

	records, err := h.simulations.History(c.Request.Context(), cpf, c.Query("bank_name"))
	if err != nil {
		h.logger.WithError(err).Error("Erro ao consultar histórico de simulações")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erro ao consultar histórico", nil)
		return
	}

	respondSuccess(c, start, "Histórico consultado com sucesso", gin.H{
		"simulations": records,
		"total":       len(records),
	})
}

// List returns simulations paginated
func (h *SimulationHandler) List(c *gin.Context) {
	start := time.Now()
	page, perPage := pagination(c)

	result, err := h.simulations.List(c.Request.Context(), page, perPage, c.Query("bank_name"), utils.CleanCPF(c.Query("cpf")))
	if err != nil {
		h.logger.WithError(err).Error("Erro ao listar simulações")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erro ao listar simulações", nil)
		return
	}

	respondSuccess(c, start, "Simulações listadas com sucesso", result)
}

// UniqueCPFs returns every distinct CPF that has simulated
func (h *SimulationHandler) UniqueCPFs(c *gin.Context) {
	start := time.Now()

	cpfs, err := h.simulations.UniqueCPFs(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Erro ao listar CPFs")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erro ao listar CPFs", nil)
		return
	}

	respondSuccess(c, start, "CPFs listados com sucesso", gin.H{
		"cpfs":  cpfs,
		"total": len(cpfs),
	})
}

// Banks returns the bank catalogue split into active and inactive
func (h *SimulationHandler) Banks(c *gin.Context) {
	start := time.Now()

	listing, err := h.simulations.ListBanks(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Erro ao listar bancos")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erro ao listar bancos", nil)
		return
	}

	respondSuccess(c, start, "Bancos listados com sucesso", listing)
}
