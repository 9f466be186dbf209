package banks

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/credihub/fgts-api/internal/clients/facta"
	"github.com/credihub/fgts-api/internal/config"
	"github.com/credihub/fgts-api/internal/models"
	"github.com/credihub/fgts-api/internal/utils"
)

// FactaSimulator runs FACTA's 3-call simulation sequence: offline-base
// eligibility, balance lookup, value simulation. A failure at any step
// short-circuits with that step's message.
type FactaSimulator struct {
	client       *facta.Client
	defaultRate  string
	defaultTable string
	logger       *logrus.Logger
}

// NewFactaSimulator creates the FACTA simulator
func NewFactaSimulator(client *facta.Client, cfg config.FactaConfig, logger *logrus.Logger) *FactaSimulator {
	return &FactaSimulator{
		client:       client,
		defaultRate:  cfg.DefaultRate,
		defaultTable: cfg.DefaultTable,
		logger:       logger,
	}
}

func (s *FactaSimulator) BankName() string { return BankFacta }

func (s *FactaSimulator) BankInfo() models.BankInfo {
	return models.BankInfo{
		Code:        BankFacta,
		Name:        "Banco Facta",
		Description: "Antecipação de FGTS com condições especiais",
		LogoURL:     "/static/banks/facta-logo.png",
		Active:      true,
	}
}

func (s *FactaSimulator) Simulate(ctx context.Context, cpf string) models.SimulationResult {
	offline, err := s.client.ConsultOfflineBase(ctx, cpf)
	if err != nil {
		return s.failure(err.Error(), map[string]interface{}{"error": err.Error()})
	}
	if isErro(offline) {
		return s.failure(erroMessage(offline, "CPF não autorizado na base offline"), offline)
	}

	balance, err := s.client.ConsultBalance(ctx, cpf)
	if err != nil {
		return s.failure(err.Error(), map[string]interface{}{"error": err.Error()})
	}
	if isErro(balance) {
		return s.failure(erroMessage(balance, "Erro ao consultar saldo FGTS"), balance)
	}

	installments := facta.BuildInstallments(balance)
	simulation, err := s.client.SimulateValue(ctx, cpf, installments, s.defaultRate, s.defaultTable)
	if err != nil {
		return s.failure(err.Error(), map[string]interface{}{"error": err.Error()})
	}
	if isErro(simulation) {
		return s.failure(erroMessage(simulation, "Erro na simulação"), simulation)
	}

	amount := utils.ParseAmount(utils.ToString(simulation["valor_liquido"]))
	return models.SimulationResult{
		BankName:        BankFacta,
		AvailableAmount: amount,
		Success:         true,
		RawResponse:     simulation,
		Timestamp:       time.Now().UTC(),
	}
}

func (s *FactaSimulator) failure(msg string, raw map[string]interface{}) models.SimulationResult {
	s.logger.WithField("bank", BankFacta).WithField("error", msg).Error("Simulação FACTA falhou")
	return models.SimulationResult{
		BankName:     BankFacta,
		ErrorMessage: msg,
		Success:      false,
		RawResponse:  raw,
		Timestamp:    time.Now().UTC(),
	}
}

// FactaAdapter translates FACTA's wire shapes into the normalized forms
type FactaAdapter struct{}

func (a FactaAdapter) BankName() string { return BankFacta }

// NormalizeSimulationResponse maps FACTA's simulation response. The
// financial id is the simulacao_fgts value tagged with the facta_
// prefix so routing can later recover the owning bank.
func (a FactaAdapter) NormalizeSimulationResponse(raw map[string]interface{}) models.NormalizedSimulationResponse {
	available := utils.ParseAmount(utils.ToString(raw["valor_liquido"]))
	rate := utils.ParseAmount(utils.ToString(raw["taxa"]))
	iof := utils.ToFloat(raw["iof"])

	return models.NormalizedSimulationResponse{
		BankName:        BankFacta,
		FinancialID:     fmt.Sprintf("facta_%s", utils.ToString(raw["simulacao_fgts"])),
		AvailableAmount: available,
		TotalAmount:     0,
		InterestRate:    rate,
		IOFAmount:       iof,
		Success:         true,
		RawResponse:     raw,
		Timestamp:       time.Now().UTC(),
	}
}

// PrepareProposalRequest converts a normalized request into FACTA's
// form fields. Dates become DD/MM/YYYY and the phone takes FACTA's
// exact (0DD) NNNNN-NNNN shape. An unknown gender maps to female.
func (a FactaAdapter) PrepareProposalRequest(req models.NormalizedProposalRequest) map[string]interface{} {
	simulationID := strings.TrimPrefix(req.FinancialID, "facta_")

	sexo := "F"
	switch strings.ToUpper(req.Customer.Gender) {
	case "M", "MALE":
		sexo = "M"
	}

	tipoConta := "P"
	if strings.EqualFold(req.BankData.AccountType, "corrente") {
		tipoConta = "C"
	}

	numero := 1
	if n, err := strconv.Atoi(req.Address.Number); err == nil {
		numero = n
	}

	return map[string]interface{}{
		"id_simulador":    simulationID,
		"cpf":             req.Customer.CPF,
		"data_nascimento": utils.FormatDateBR(req.Customer.BirthDate),
		"nome":            req.Customer.Name,
		"sexo":            sexo,
		"estado_civil":    1,
		"rg":              req.Document.Number,
		"estado_rg":       req.Document.IssuingState,
		"orgao_emissor":   req.Document.IssuingAuthority,
		"data_expedicao":  utils.FormatDateBR(req.Document.IssuingDate),
		"celular":         utils.FormatPhoneFacta(req.Customer.Phone),
		"email":           req.Customer.Email,
		"nome_mae":        req.Customer.MotherName,
		"cep":             utils.FormatCEP(req.Address.ZipCode),
		"endereco":        req.Address.Street,
		"numero":          numero,
		"bairro":          req.Address.Neighborhood,
		"cidade":          req.Address.City,
		"estado":          req.Address.State,
		"complemento":     req.Address.Complement,
		"banco":           req.BankData.BankCode,
		"agencia":         req.BankData.BranchNumber,
		"conta":           req.BankData.AccountNumber,
		"tipo_conta":      tipoConta,
	}
}

// FactaProvider drives FACTA's 3-step proposal workflow. The steps are
// not transactional on the partner side: any failure is terminal for
// the call and the entire flow must be resubmitted from step 1.
type FactaProvider struct {
	client      *facta.Client
	simulations SimulationLookup
	logger      *logrus.Logger
}

// NewFactaProvider creates the FACTA proposal provider
func NewFactaProvider(client *facta.Client, simulations SimulationLookup, logger *logrus.Logger) *FactaProvider {
	return &FactaProvider{client: client, simulations: simulations, logger: logger}
}

func (p *FactaProvider) BankName() string { return BankFacta }

// lookupSimulationCPF recovers the CPF used in the original simulation.
// FACTA rejects the proposal if the CPF differs from the simulated one,
// so the stored record wins over the incoming request.
func (p *FactaProvider) lookupSimulationCPF(ctx context.Context, simulationID string) string {
	normalized := strings.TrimPrefix(simulationID, "facta_")

	for _, id := range []string{simulationID, normalized} {
		rec, err := p.simulations.FindSimulationByFinancialID(ctx, id)
		if err != nil {
			p.logger.WithError(err).Warn("Falha ao buscar simulação FACTA")
			return ""
		}
		if rec != nil && rec.CPF != "" {
			return rec.CPF
		}
	}
	return ""
}

func (p *FactaProvider) SubmitProposal(ctx context.Context, payload map[string]interface{}) models.ProposalResult {
	cpf := utils.CleanCPF(utils.ToString(payload["cpf"]))
	simulationID := utils.ToString(payload["id_simulador"])
	realSimulationID := strings.TrimPrefix(simulationID, "facta_")

	if simCPF := p.lookupSimulationCPF(ctx, simulationID); simCPF != "" && simCPF != cpf {
		cpf = simCPF
	}

	birthDate := utils.ToString(payload["data_nascimento"])

	etapa1, err := p.client.RegisterSimulation(ctx, cpf, birthDate, realSimulationID)
	if err != nil {
		return p.failure(err.Error(), map[string]interface{}{"error": err.Error()})
	}
	if isErro(etapa1) {
		return p.failure(erroMessage(etapa1, "Erro na etapa 1"), etapa1)
	}

	idSimulador := utils.ToString(etapa1["id_simulador"])
	if idSimulador == "" {
		return p.failure("ID do simulador não foi retornado na etapa 1", etapa1)
	}

	personal := facta.PersonalDataPayload{
		IDSimulador:    idSimulador,
		CPF:            cpf,
		Nome:           utils.ToString(payload["nome"]),
		Sexo:           utils.ToString(payload["sexo"]),
		DataNascimento: birthDate,
		RG:             utils.ToString(payload["rg"]),
		EstadoRG:       utils.ToString(payload["estado_rg"]),
		OrgaoEmissor:   utils.ToString(payload["orgao_emissor"]),
		DataExpedicao:  utils.ToString(payload["data_expedicao"]),
		EstadoNatural:  utils.ToString(payload["estado_rg"]),
		CidadeNatural:  540,
		Celular:        utils.FormatPhoneFacta(utils.ToString(payload["celular"])),
		Renda:          "2500",
		CEP:            utils.FormatCEP(utils.ToString(payload["cep"])),
		Endereco:       utils.ToString(payload["endereco"]),
		Bairro:         defaultString(utils.ToString(payload["bairro"]), "Centro"),
		Numero:         intOrDefault(payload["numero"], 1),
		Cidade:         540,
		Estado:         utils.ToString(payload["estado"]),
		NomeMae:        utils.ToString(payload["nome_mae"]),
		NomePai:        "Não declarado",
		Banco:          utils.ToString(payload["banco"]),
		Agencia:        utils.ToString(payload["agencia"]),
		Conta:          utils.ToString(payload["conta"]),
		TipoConta:      accountType(utils.ToString(payload["tipo_conta"])),
	}

	etapa2, err := p.client.RegisterPersonalData(ctx, personal)
	if err != nil {
		return p.failure(err.Error(), map[string]interface{}{"error": err.Error()})
	}
	if isErro(etapa2) {
		return p.failure(erroMessage(etapa2, "Erro na etapa 2"), etapa2)
	}

	clientCode := utils.ToString(etapa2["codigo_cliente"])
	if clientCode == "" {
		return p.failure("Código do cliente não retornado na etapa 2", etapa2)
	}

	etapa3, err := p.client.RegisterProposal(ctx, clientCode, idSimulador)
	if err != nil {
		return p.failure(err.Error(), map[string]interface{}{"error": err.Error()})
	}
	if isErro(etapa3) {
		return p.failure(erroMessage(etapa3, "Erro na etapa 3"), etapa3)
	}

	contractNumber := utils.ToString(etapa3["codigo"])

	// Best effort: the proposal already exists on the partner side,
	// a failed link delivery must not fail the submission.
	if contractNumber != "" && utils.ToString(payload["celular"]) != "" {
		if _, err := p.client.SendFormalizationLink(ctx, contractNumber, "sms"); err != nil {
			p.logger.WithError(err).Warn("[FACTA] Erro ao enviar link de formalização")
		}
	}

	return models.ProposalResult{
		BankName:          BankFacta,
		ContractNumber:    contractNumber,
		FormalizationLink: utils.ToString(etapa3["url_formalizacao"]),
		Success:           true,
		RawResponse:       etapa3,
		Timestamp:         time.Now().UTC(),
	}
}

// CheckStatus is a stub: FACTA exposes no status endpoint, formalization
// happens through the delivered link or the partner portal.
func (p *FactaProvider) CheckStatus(ctx context.Context, contractNumber string) map[string]interface{} {
	return map[string]interface{}{
		"success": true,
		"status":  "pending",
		"message": "Para Facta, use o link enviado ou consulte o portal",
	}
}

// SendFormalizationLink re-delivers the signing link by sms or whatsapp
func (p *FactaProvider) SendFormalizationLink(ctx context.Context, contractNumber, method string) map[string]interface{} {
	result, err := p.client.SendFormalizationLink(ctx, contractNumber, method)
	if err != nil {
		return map[string]interface{}{"success": false, "error": err.Error(), "status": "error"}
	}

	if isErro(result) {
		return map[string]interface{}{
			"success": false,
			"message": erroMessage(result, "Erro ao enviar link"),
			"status":  "error",
		}
	}
	return map[string]interface{}{
		"success": true,
		"message": defaultString(utils.ToString(result["mensagem"]), "Link enviado com sucesso"),
		"status":  "sent",
	}
}

func (p *FactaProvider) failure(msg string, raw map[string]interface{}) models.ProposalResult {
	p.logger.WithField("bank", BankFacta).WithField("error", msg).Error("Proposta FACTA falhou")
	return models.ProposalResult{
		BankName:     BankFacta,
		ErrorMessage: msg,
		Success:      false,
		RawResponse:  raw,
		Timestamp:    time.Now().UTC(),
	}
}

func isErro(resp map[string]interface{}) bool {
	if resp == nil {
		return true
	}
	switch v := resp["erro"].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	case float64:
		return v != 0
	default:
		return false
	}
}

func erroMessage(resp map[string]interface{}, fallback string) string {
	if msg := utils.ToString(resp["mensagem"]); msg != "" {
		return msg
	}
	return fallback
}

func defaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func intOrDefault(v interface{}, fallback int) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return parsed
		}
	}
	return fallback
}

func accountType(raw string) string {
	if strings.EqualFold(raw, "corrente") || strings.EqualFold(raw, "C") {
		return "C"
	}
	return "P"
}
