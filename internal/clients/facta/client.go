package facta

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/credihub/fgts-api/internal/config"
	"github.com/credihub/fgts-api/internal/utils"
)

// Client talks to the FACTA partner API. FACTA splits its surface in
// two hosts sharing credentials: the main host (balance, simulation,
// proposal steps) and the offline host (CEF eligibility base). Each
// host issues its own Basic-Auth token.
type Client struct {
	baseURL    string
	offlineURL string
	user       string
	password   string
	tokenTTL   time.Duration

	httpClient *http.Client
	// FACTA enforces 2 requests per second per credential pair
	limiter *rate.Limiter
	logger  *logrus.Logger

	mu           sync.RWMutex
	token        string
	tokenExpiry  time.Time
	tokenOff     string
	tokenOffExp  time.Time
	refreshGroup singleflight.Group
}

// NewClient creates a FACTA client from configuration
func NewClient(cfg config.FactaConfig, logger *logrus.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		offlineURL: strings.TrimRight(cfg.OfflineURL, "/"),
		user:       cfg.User,
		password:   cfg.Password,
		tokenTTL:   cfg.TokenTTL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1),
		logger:     logger,
	}
}

// PersonalDataPayload carries the etapa2 form fields. Optional fields
// left zero take FACTA's documented defaults at encoding time.
type PersonalDataPayload struct {
	IDSimulador      string
	CPF              string
	Nome             string
	Sexo             string
	EstadoCivil      int
	DataNascimento   string
	RG               string
	EstadoRG         string
	OrgaoEmissor     string
	DataExpedicao    string
	EstadoNatural    string
	CidadeNatural    int
	Nacionalidade    int
	PaisOrigem       string
	Celular          string
	Renda            string
	CEP              string
	Endereco         string
	Bairro           string
	Numero           int
	Complemento      string
	Cidade           int
	Estado           string
	NomeMae          string
	NomePai          string
	ValorPatrimonio  int
	ClienteIletrado  string
	Banco            string
	Agencia          string
	Conta            string
	TipoConta        string
}

// formValues encodes the payload with FACTA's defaults applied
func (p PersonalDataPayload) formValues() url.Values {
	if p.EstadoCivil == 0 {
		p.EstadoCivil = 1
	}
	if p.Nacionalidade == 0 {
		p.Nacionalidade = 1
	}
	if p.PaisOrigem == "" {
		p.PaisOrigem = "26"
	}
	if p.ValorPatrimonio == 0 {
		p.ValorPatrimonio = 2
	}
	if p.ClienteIletrado == "" {
		p.ClienteIletrado = "N"
	}
	if p.TipoConta == "" {
		p.TipoConta = "C"
	}

	form := url.Values{}
	form.Set("id_simulador", strings.TrimPrefix(p.IDSimulador, "facta_"))
	form.Set("cpf", p.CPF)
	form.Set("nome", p.Nome)
	form.Set("sexo", p.Sexo)
	form.Set("estado_civil", fmt.Sprintf("%d", p.EstadoCivil))
	form.Set("data_nascimento", p.DataNascimento)
	form.Set("rg", p.RG)
	form.Set("estado_rg", p.EstadoRG)
	form.Set("orgao_emissor", p.OrgaoEmissor)
	form.Set("data_expedicao", p.DataExpedicao)
	form.Set("estado_natural", p.EstadoNatural)
	form.Set("cidade_natural", fmt.Sprintf("%d", p.CidadeNatural))
	form.Set("nacionalidade", fmt.Sprintf("%d", p.Nacionalidade))
	form.Set("pais_origem", p.PaisOrigem)
	form.Set("celular", p.Celular)
	form.Set("renda", p.Renda)
	form.Set("cep", p.CEP)
	form.Set("endereco", p.Endereco)
	form.Set("bairro", p.Bairro)
	form.Set("numero", fmt.Sprintf("%d", p.Numero))
	if p.Complemento != "" {
		form.Set("complemento", p.Complemento)
	}
	form.Set("cidade", fmt.Sprintf("%d", p.Cidade))
	form.Set("estado", p.Estado)
	form.Set("nome_mae", p.NomeMae)
	if p.NomePai != "" {
		form.Set("nome_pai", p.NomePai)
	}
	form.Set("valor_patrimonio", fmt.Sprintf("%d", p.ValorPatrimonio))
	form.Set("cliente_iletrado_impossibilitado", p.ClienteIletrado)
	form.Set("banco", p.Banco)
	form.Set("agencia", p.Agencia)
	form.Set("conta", p.Conta)
	form.Set("tipo_conta", p.TipoConta)
	return form
}

// getToken returns a valid bearer token for one of the two hosts,
// authenticating when the cached token is missing or expired. The
// singleflight group collapses concurrent refreshes into one call.
func (c *Client) getToken(ctx context.Context, offline bool) (string, error) {
	c.mu.RLock()
	token, expiry := c.token, c.tokenExpiry
	if offline {
		token, expiry = c.tokenOff, c.tokenOffExp
	}
	c.mu.RUnlock()

	if token != "" && time.Now().Before(expiry) {
		return token, nil
	}

	key := "online"
	if offline {
		key = "offline"
	}
	result, err, _ := c.refreshGroup.Do(key, func() (interface{}, error) {
		return c.authenticate(ctx, offline)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (c *Client) authenticate(ctx context.Context, offline bool) (string, error) {
	host := c.baseURL
	if offline {
		host = c.offlineURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, host+"/gera-token", nil)
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}

	auth := base64.StdEncoding.EncodeToString([]byte(c.user + ":" + c.password))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Accept", "application/json")

	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request returned status %d", resp.StatusCode)
	}

	var data struct {
		Erro     bool   `json:"erro"`
		Mensagem string `json:"mensagem"`
		Token    string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if data.Erro {
		return "", fmt.Errorf("erro ao obter token: %s", data.Mensagem)
	}
	if data.Token == "" {
		return "", fmt.Errorf("token não foi recebido após login")
	}

	expiry := time.Now().Add(c.tokenTTL)
	c.mu.Lock()
	if offline {
		c.tokenOff, c.tokenOffExp = data.Token, expiry
	} else {
		c.token, c.tokenExpiry = data.Token, expiry
	}
	c.mu.Unlock()

	c.logger.WithField("offline", offline).Info("Autenticado com sucesso na API FACTA")
	return data.Token, nil
}

// doJSON issues an authenticated request and decodes the JSON body into
// a generic map. FACTA sometimes answers form endpoints with non-JSON
// text; those come back as an erro map rather than a transport error.
func (c *Client) doJSON(ctx context.Context, method, rawURL string, body io.Reader, contentType string, offline bool) (map[string]interface{}, error) {
	token, err := c.getToken(ctx, offline)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"url":    rawURL,
		"status": resp.StatusCode,
	}).Info("Chamada API FACTA")

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("limite de requisições atingido (2 por segundo)")
	}

	var result map[string]interface{}
	if err := json.Unmarshal(raw, &result); err != nil {
		return map[string]interface{}{
			"erro":     true,
			"mensagem": fmt.Sprintf("Resposta inválida: %s", strings.TrimSpace(string(raw))),
		}, nil
	}
	if resp.StatusCode >= http.StatusBadRequest {
		if _, ok := result["erro"]; !ok {
			result["erro"] = true
		}
	}
	return result, nil
}

// ConsultOfflineBase checks whether a CPF is authorized in the CEF
// offline base.
func (c *Client) ConsultOfflineBase(ctx context.Context, cpf string) (map[string]interface{}, error) {
	return c.doJSON(ctx, http.MethodGet, c.offlineURL+"/fgts/base-offline?cpf="+url.QueryEscape(cpf), nil, "", true)
}

// ConsultBalance looks up the FGTS balance available for anticipation
func (c *Client) ConsultBalance(ctx context.Context, cpf string) (map[string]interface{}, error) {
	return c.doJSON(ctx, http.MethodGet, c.baseURL+"/fgts/saldo?cpf="+url.QueryEscape(cpf), nil, "", false)
}

// SimulateValue computes the net anticipation value for an installment
// schedule. rateStr and table are FACTA combobox values.
func (c *Client) SimulateValue(ctx context.Context, cpf string, installments []map[string]string, rateStr, table string) (map[string]interface{}, error) {
	payload := map[string]interface{}{
		"cpf":      cpf,
		"taxa":     rateStr,
		"tabela":   table,
		"parcelas": installments,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal simulation payload: %w", err)
	}
	return c.doJSON(ctx, http.MethodPost, c.baseURL+"/fgts/calculo", strings.NewReader(string(body)), "application/json", false)
}

// RegisterSimulation runs proposal step 1, linking the simulation id to
// the customer's CPF and birth date. Returns FACTA's simulator
// reference used by the next steps.
func (c *Client) RegisterSimulation(ctx context.Context, cpf, birthDate, simulationID string) (map[string]interface{}, error) {
	if cpf == "" || birthDate == "" || simulationID == "" {
		return map[string]interface{}{
			"erro":     true,
			"mensagem": fmt.Sprintf("Dados inválidos para simulação: CPF=%s, Data=%s, Simulação=%s", cpf, birthDate, simulationID),
		}, nil
	}

	form := url.Values{}
	form.Set("produto", "D")
	form.Set("tipo_operacao", "13")
	form.Set("averbador", "20095")
	form.Set("convenio", "3")
	form.Set("cpf", cpf)
	form.Set("data_nascimento", birthDate)
	form.Set("login_certificado", c.user)
	form.Set("simulacao_fgts", simulationID)

	return c.doJSON(ctx, http.MethodPost, c.baseURL+"/proposta/etapa1-simulador",
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", false)
}

// RegisterPersonalData runs proposal step 2 with the customer's full
// personal, address and bank data keyed by the step 1 reference.
func (c *Client) RegisterPersonalData(ctx context.Context, payload PersonalDataPayload) (map[string]interface{}, error) {
	if payload.IDSimulador == "" {
		return map[string]interface{}{
			"erro":     true,
			"mensagem": "Campo obrigatório ausente: id_simulador",
		}, nil
	}

	form := payload.formValues()
	return c.doJSON(ctx, http.MethodPost, c.baseURL+"/proposta/etapa2-dados-pessoais",
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", false)
}

// RegisterProposal runs proposal step 3, registering the proposal for
// the client code obtained in step 2. Formalization is always digital.
func (c *Client) RegisterProposal(ctx context.Context, clientCode, simulatorID string) (map[string]interface{}, error) {
	form := url.Values{}
	form.Set("codigo_cliente", clientCode)
	form.Set("id_simulador", simulatorID)
	form.Set("tipo_formalizacao", "DIG")

	return c.doJSON(ctx, http.MethodPost, c.baseURL+"/proposta/etapa3-proposta-cadastro",
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", false)
}

// SendFormalizationLink delivers the signing link to the customer by
// whatsapp or sms. The field name "codifo_af" is the partner's own
// spelling, not ours.
func (c *Client) SendFormalizationLink(ctx context.Context, proposalCode, sendType string) (map[string]interface{}, error) {
	form := url.Values{}
	form.Set("codifo_af", proposalCode)
	form.Set("tipo_envio", sendType)

	return c.doJSON(ctx, http.MethodPost, c.baseURL+"/proposta/envio-link",
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", false)
}

// BuildInstallments derives the calculo installment schedule from a
// balance response. Missing slots fall back to FACTA's placeholder
// dates so the payload always carries ten entries.
func BuildInstallments(balanceResponse map[string]interface{}) []map[string]string {
	if balanceResponse == nil {
		return nil
	}
	// An absent erro flag is treated as failure, same as erro=true
	erro, ok := balanceResponse["erro"]
	if !ok || erro == nil || utils.ToFloat(erro) != 0 || erro == true {
		return nil
	}

	retorno, _ := balanceResponse["retorno"].(map[string]interface{})
	installments := make([]map[string]string, 0, 10)

	for i := 1; i <= 10; i++ {
		dateKey := fmt.Sprintf("dataRepasse_%d", i)
		valueKey := fmt.Sprintf("valor_%d", i)

		date := utils.ToString(retorno[dateKey])
		if date == "" {
			date = fmt.Sprintf("01/07/%d", 2024+i)
		}
		value := utils.ToString(retorno[valueKey])
		if value == "" {
			value = "0.00"
		}

		installments = append(installments, map[string]string{
			dateKey:  date,
			valueKey: value,
		})
	}
	return installments
}
