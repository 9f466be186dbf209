package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/credihub/fgts-api/internal/services"
	"github.com/credihub/fgts-api/internal/utils"
)

// BatchHandler handles batch simulation requests
type BatchHandler struct {
	batch  *services.BatchService
	logger *logrus.Logger
}

// NewBatchHandler creates a new batch handler
func NewBatchHandler(batch *services.BatchService, logger *logrus.Logger) *BatchHandler {
	return &BatchHandler{batch: batch, logger: logger}
}

// Run sweeps stored sessions and simulates every distinct CPF found.
// This is a synchronous call; large session sets take a while.
func (h *BatchHandler) Run(c *gin.Context) {
	start := time.Now()
	bankName := c.Query("bank_name")

	h.logger.WithFields(logrus.Fields{
		"request_id": c.GetString("request_id"),
		"bank":       bankName,
	}).Info("Iniciando simulação em lote")

	result, err := h.batch.ProcessBatchSimulations(c.Request.Context(), bankName)
	if err != nil {
		h.logger.WithError(err).Error("Erro no processamento em lote")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erro no processamento em lote", nil)
		return
	}

	respondSuccess(c, start, "Processamento em lote concluído", result)
}

// Results returns per-CPF batch rollups paginated
func (h *BatchHandler) Results(c *gin.Context) {
	start := time.Now()
	page, perPage := pagination(c)

	result, err := h.batch.GetBatchResults(c.Request.Context(), page, perPage, utils.CleanCPF(c.Query("cpf")), c.Query("bank_name"))
	if err != nil {
		h.logger.WithError(err).Error("Erro ao listar resultados do lote")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erro ao listar resultados", nil)
		return
	}

	respondSuccess(c, start, "Resultados listados com sucesso", result)
}
