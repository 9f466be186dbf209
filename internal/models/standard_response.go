package models

import "time"

// StandardResponse representa a estrutura padrão unificada para todas as respostas da API
type StandardResponse struct {
	// Status da operação (success, error, warning, info)
	Status string `json:"status" example:"success"`

	// Mensagem descritiva da operação
	Message string `json:"message" example:"Simulação realizada com sucesso"`

	// Dados retornados pela operação (apenas quando status = success)
	Data interface{} `json:"data,omitempty"`

	// Detalhes do erro (apenas quando status = error)
	Error *ErrorDetails `json:"error,omitempty"`

	// Metadados da resposta
	Meta *ResponseMeta `json:"meta"`
}

// ErrorDetails contém informações detalhadas sobre erros
type ErrorDetails struct {
	Code    string      `json:"code" example:"INVALID_CPF"`
	Message string      `json:"message" example:"CPF inválido. Deve conter 11 dígitos"`
	Details interface{} `json:"details,omitempty"`
}

// ResponseMeta contém metadados da resposta
type ResponseMeta struct {
	Timestamp     time.Time `json:"timestamp"`
	ExecutionTime string    `json:"execution_time,omitempty"`
	RequestID     string    `json:"request_id,omitempty"`
	Version       string    `json:"version,omitempty"`
}

// Constantes para status padronizados
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusWarning = "warning"
	StatusInfo    = "info"
)

// Constantes para códigos de erro padronizados
const (
	ErrorCodeInvalidCPF        = "INVALID_CPF"
	ErrorCodeInvalidRequest    = "INVALID_REQUEST"
	ErrorCodeBankNotRegistered = "BANK_NOT_REGISTERED"
	ErrorCodeBankInactive      = "BANK_INACTIVE"
	ErrorCodeProposalRejected  = "PROPOSAL_REJECTED"
	ErrorCodeInternalError     = "INTERNAL_ERROR"
	ErrorCodeRateLimit         = "RATE_LIMIT_EXCEEDED"
	ErrorCodeNotFound          = "NOT_FOUND"
)

// NewSuccessResponse cria uma resposta de sucesso padronizada
func NewSuccessResponse(message string, data interface{}) *StandardResponse {
	return &StandardResponse{
		Status:  StatusSuccess,
		Message: message,
		Data:    data,
		Meta: &ResponseMeta{
			Timestamp: time.Now(),
			Version:   "v1",
		},
	}
}

// NewErrorResponse cria uma resposta de erro padronizada
func NewErrorResponse(code, message string, details interface{}) *StandardResponse {
	return &StandardResponse{
		Status:  StatusError,
		Message: "Erro na operação",
		Error: &ErrorDetails{
			Code:    code,
			Message: message,
			Details: details,
		},
		Meta: &ResponseMeta{
			Timestamp: time.Now(),
			Version:   "v1",
		},
	}
}

// SetExecutionTime define o tempo de execução na resposta
func (r *StandardResponse) SetExecutionTime(duration time.Duration) {
	if r.Meta != nil {
		r.Meta.ExecutionTime = duration.String()
	}
}

// SetRequestID define o ID da requisição na resposta
func (r *StandardResponse) SetRequestID(requestID string) {
	if r.Meta != nil {
		r.Meta.RequestID = requestID
	}
}
