package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/credihub/fgts-api/internal/models"
	"github.com/credihub/fgts-api/internal/services"
)

// ProposalHandler handles proposal requests
type ProposalHandler struct {
	proposals *services.ProposalService
	logger    *logrus.Logger
}

// NewProposalHandler creates a new proposal handler
func NewProposalHandler(proposals *services.ProposalService, logger *logrus.Logger) *ProposalHandler {
	return &ProposalHandler{proposals: proposals, logger: logger}
}

// Submit routes and submits a proposal. bank_name forces the target
// bank; otherwise it is resolved from the financial id.
func (h *ProposalHandler) Submit(c *gin.Context) {
	start := time.Now()
	requestID := c.GetString("request_id")

	var req models.NormalizedProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Corpo da requisição inválido", err.Error())
		return
	}

	bankName := c.Query("bank_name")
	h.logger.WithFields(logrus.Fields{
		"request_id":   requestID,
		"financial_id": req.FinancialID,
		"bank":         bankName,
	}).Info("Processando proposta")

	result := h.proposals.SubmitProposal(c.Request.Context(), req, bankName)
	if !result.Success {
		resp := models.NewErrorResponse("PROPOSAL_REJECTED", result.ErrorMessage, result)
		resp.SetRequestID(requestID)
		c.JSON(http.StatusUnprocessableEntity, resp)
		return
	}

	respondSuccess(c, start, "Proposta enviada com sucesso", result)
}

// Status checks a contract's formalization status
func (h *ProposalHandler) Status(c *gin.Context) {
	start := time.Now()

	contractNumber := c.Param("contract_number")
	if contractNumber == "" {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Número do contrato é obrigatório", nil)
		return
	}

	status := h.proposals.CheckStatus(c.Request.Context(), contractNumber, c.Query("bank_name"))
	respondSuccess(c, start, "Status consultado", status)
}

// History returns submission attempts for a financial id or contract
func (h *ProposalHandler) History(c *gin.Context) {
	start := time.Now()

	financialID := c.Query("financial_id")
	contractNumber := c.Query("contract_number")
	if financialID == "" && contractNumber == "" {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Informe financial_id ou contract_number", nil)
		return
	}

	records, err := h.proposals.History(c.Request.Context(), financialID, contractNumber)
	if err != nil {
		h.logger.WithError(err).Error("Erro ao consultar histórico de propostas")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erro ao consultar histórico", nil)
		return
	}

	respondSuccess(c, start, "Histórico consultado com sucesso", gin.H{
		"proposals": records,
		"total":     len(records),
	})
}

// List returns proposals paginated
func (h *ProposalHandler) List(c *gin.Context) {
	start := time.Now()
	page, perPage := pagination(c)

	var success *bool
	switch c.Query("success") {
	case "true":
		v := true
		success = &v
	case "false":
		v := false
		success = &v
	}

	result, err := h.proposals.List(c.Request.Context(), page, perPage, c.Query("bank_name"), success)
	if err != nil {
		h.logger.WithError(err).Error("Erro ao listar propostas")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erro ao listar propostas", nil)
		return
	}

	respondSuccess(c, start, "Propostas listadas com sucesso", result)
}

// Providers returns the registered proposal provider names
func (h *ProposalHandler) Providers(c *gin.Context) {
	start := time.Now()

	providers := h.proposals.ListProviders()
	respondSuccess(c, start, "Provedores listados com sucesso", gin.H{
		"providers": providers,
		"total":     len(providers),
	})
}

// ResendLinkRequest is the formalization link resend body
type ResendLinkRequest struct {
	Method string `json:"method"`
}

// ResendLink re-sends the formalization link for a contract
func (h *ProposalHandler) ResendLink(c *gin.Context) {
	start := time.Now()

	contractNumber := c.Param("contract_number")
	if contractNumber == "" {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Número do contrato é obrigatório", nil)
		return
	}

	var req ResendLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req.Method = "sms"
	}
	if req.Method == "" {
		req.Method = "sms"
	}

	result := h.proposals.ResendFormalizationLink(c.Request.Context(), contractNumber, req.Method)
	respondSuccess(c, start, "Reenvio processado", result)
}
