package bmg

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/credihub/fgts-api/internal/config"
)

// Client talks to the BMG consignado SOAP webservices. BMG keeps two
// credential pairs: one for the webservice itself and one (consig) that
// rides inside the proposal payload.
type Client struct {
	host           string
	login          string
	password       string
	consigLogin    string
	consigPassword string

	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a BMG SOAP client from configuration
func NewClient(cfg config.BMGConfig, logger *logrus.Logger) *Client {
	return &Client{
		host:           cfg.Host,
		login:          cfg.Login,
		password:       cfg.Password,
		consigLogin:    cfg.ConsigLogin,
		consigPassword: cfg.ConsigPassword,
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		logger:         logger,
	}
}

// IN100Request asks BMG to open an IN100 margin consultation
type IN100Request struct {
	CPF       string
	Benefit   string
	City      string
	State     string
	BirthDate time.Time
	Name      string
	Phone     string
}

// BenefitCardAgency identifies the disbursement agency
type BenefitCardAgency struct {
	Number     string
	CheckDigit string
}

// BenefitCardAccount identifies the disbursement account
type BenefitCardAccount struct {
	Number     string
	CheckDigit string
}

// BenefitCardIdentity is the customer's identity document
type BenefitCardIdentity struct {
	Type         string
	Number       string
	EmissionDate time.Time
	Issuer       string
	State        string
}

// BenefitCardAddress is the customer's address
type BenefitCardAddress struct {
	ZipCode      string
	Street       string
	Number       string
	Neighborhood string
	City         string
	State        string
	Complement   string
}

// BenefitCardCustomer carries the personal data of the proposal
type BenefitCardCustomer struct {
	Cellphone        string
	CityOfBirth      string
	CPF              string
	DateOfBirth      time.Time
	Email            string
	Address          BenefitCardAddress
	MaritalStatus    string
	EducationalLevel string
	Identity         BenefitCardIdentity
	Nationality      string
	Name             string
	SpouseName       string
	MotherName       string
	PPE              bool
	Gender           string
	StateOfBirth     string
}

// BenefitCardProposal is the gravarPropostaCartao request
type BenefitCardProposal struct {
	OpenPaymentAccount int
	BankNumber         int
	Agency             BenefitCardAgency
	Account            BenefitCardAccount
	PaymentOrderBank   int
	Customer           BenefitCardCustomer
	CreditPurpose      int
	IncomeDate         time.Time
	Margin             decimal.Decimal
	Benefit            string
	BenefitType        int
	BenefitState       string
	IncomeValue        decimal.Decimal
}

// call posts a SOAP envelope and decodes the response. A non-200
// answer surfaces the Fault (or the whole body) as the error.
func (c *Client) call(ctx context.Context, path, envelope string) (interface{}, error) {
	base := c.host
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		base+path, strings.NewReader(envelope))
	if err != nil {
		return nil, fmt.Errorf("failed to build SOAP request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml")
	req.Header.Set("SOAPAction", "add")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("SOAP request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read SOAP response: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"path":   path,
		"status": resp.StatusCode,
	}).Info("BMG SOAP request")

	doc, err := XMLToMap(raw)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		if fault := dig(doc, "Body", "Fault"); fault != nil {
			return nil, fmt.Errorf("BMG fault (status %d): %v", resp.StatusCode, fault)
		}
		return nil, fmt.Errorf("BMG error (status %d): %v", resp.StatusCode, dig(doc, "Body"))
	}
	return doc, nil
}

// RequestIN100 opens an IN100 margin consultation for a benefit.
// BMG expects uppercase fields throughout.
func (c *Client) RequestIN100(ctx context.Context, data IN100Request) (interface{}, error) {
	envelope := fmt.Sprintf(`<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/"
    xmlns:web="http://webservice.econsig.bmg.com">
    <soapenv:Header/>
    <soapenv:Body>
        <web:inserirSolicitacao>
            <solicitacaoIN100>
                <login>%s</login>
                <senha>%s</senha>
                <cidade>%s</cidade>
                <cpf>%s</cpf>
                <dataNascimento>%s</dataNascimento>
                <ddd>%s</ddd>
                <estado>%s</estado>
                <matricula>%s</matricula>
                <nome>%s</nome>
                <telefone>%s</telefone>
            </solicitacaoIN100>
        </web:inserirSolicitacao>
    </soapenv:Body>
</soapenv:Envelope>`,
		xmlEscape(c.login), xmlEscape(c.password),
		xmlEscape(strings.ToUpper(data.City)),
		xmlEscape(data.CPF),
		formatSOAPDateTime(data.BirthDate),
		xmlEscape(phoneDDD(data.Phone)),
		xmlEscape(strings.ToUpper(data.State)),
		xmlEscape(data.Benefit),
		xmlEscape(strings.ToUpper(data.Name)),
		xmlEscape(phoneNumber(data.Phone)),
	)

	doc, err := c.call(ctx, "/webservices/ConsultaMargemIN100?wsdl=null", envelope)
	if err != nil {
		return nil, err
	}
	return dig(doc, "Body", "inserirSolicitacaoResponse", "inserirSolicitacaoReturn"), nil
}

// ConsultIN100Filter fetches the results of previous IN100
// consultations for a CPF.
func (c *Client) ConsultIN100Filter(ctx context.Context, cpf string) (interface{}, error) {
	envelope := fmt.Sprintf(`<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/"
    xmlns:web="http://webservice.econsig.bmg.com">
    <soapenv:Header/>
    <soapenv:Body>
        <web:pesquisar>
            <FiltroConsultaIN100>
                <login>%s</login>
                <senha>%s</senha>
                <cpf>%s</cpf>
                <numeroSolicitacao></numeroSolicitacao>
            </FiltroConsultaIN100>
        </web:pesquisar>
    </soapenv:Body>
</soapenv:Envelope>`,
		xmlEscape(c.login), xmlEscape(c.password), xmlEscape(cpf))

	doc, err := c.call(ctx, "/webservices/ConsultaMargemIN100?wsdl=null", envelope)
	if err != nil {
		return nil, err
	}
	return dig(doc, "Body", "pesquisarResponse", "pesquisarReturn"), nil
}

// SaveBenefitCardProposal registers a benefit card proposal. The store,
// entity and service codes are fixed by BMG's onboarding for this
// integration.
func (c *Client) SaveBenefitCardProposal(ctx context.Context, p BenefitCardProposal) (interface{}, error) {
	cust := p.Customer
	addr := cust.Address
	ident := cust.Identity

	envelope := fmt.Sprintf(`<soapenv:Envelope xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xmlns:xsd="http://www.w3.org/2001/XMLSchema" xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/" xmlns:web="http://webservice.econsig.bmg.com" xmlns:soapenc="http://schemas.xmlsoap.org/soap/encoding/">
    <soapenv:Header/>
    <soapenv:Body>
    <web:gravarPropostaCartao soapenv:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/">
    <proposta xsi:type="web:CartaoParameter">
        <login xsi:type="soapenc:string">%s</login>
        <senha xsi:type="soapenc:string">%s</senha>
        <aberturaContaPagamento xsi:type="xsd:int">%d</aberturaContaPagamento>
        <banco xsi:type="web:BancoParameter">
            <numero xsi:type="xsd:int">%d</numero>
        </banco>
        <agencia xsi:type="web:AgenciaParameter">
            <digitoVerificador xsi:type="soapenc:string">%s</digitoVerificador>
            <numero xsi:type="soapenc:string">%s</numero>
        </agencia>
        <conta xsi:type="web:ContaParameter">
            <digitoVerificador xsi:type="soapenc:string">%s</digitoVerificador>
            <numero xsi:type="soapenc:string">%s</numero>
        </conta>
        <bancoOrdemPagamento xsi:type="xsd:int">%d</bancoOrdemPagamento>
        <cliente xsi:type="web:ClienteParameter">
            <celular1 xsi:type="web:TelefoneParameter">
                <ddd xsi:type="soapenc:string">%s</ddd>
                <numero xsi:type="soapenc:string">%s</numero>
            </celular1>
            <cidadeNascimento xsi:type="soapenc:string">%s</cidadeNascimento>
            <cpf xsi:type="soapenc:string">%s</cpf>
            <dataNascimento xsi:type="xsd:dateTime">%s</dataNascimento>
            <email xsi:type="soapenc:string">%s</email>
            <endereco xsi:type="web:EnderecoParamter">
                <bairro xsi:type="soapenc:string">%s</bairro>
                <cep xsi:type="soapenc:string">%s</cep>
                <cidade xsi:type="soapenc:string">%s</cidade>
                <complemento xsi:type="soapenc:string">%s</complemento>
                <logradouro xsi:type="soapenc:string">%s</logradouro>
                <numero xsi:type="soapenc:string">%s</numero>
                <uf xsi:type="soapenc:string">%s</uf>
            </endereco>
            <estadoCivil xsi:type="soapenc:string">%s</estadoCivil>
            <grauInstrucao xsi:type="soapenc:string">%s</grauInstrucao>
            <identidade xsi:type="web:IdentidadeParameter">
                <dataEmissao xsi:type="xsd:dateTime">%s</dataEmissao>
                <emissor xsi:type="soapenc:string">%s</emissor>
                <numero xsi:type="soapenc:string">%s</numero>
                <tipo xsi:type="soapenc:string">%s</tipo>
                <uf xsi:type="soapenc:string">%s</uf>
            </identidade>
            <nacionalidade xsi:type="soapenc:string">%s</nacionalidade>
            <nome xsi:type="soapenc:string">%s</nome>
            <nomeConjuge xsi:type="soapenc:string">%s</nomeConjuge>
            <nomeMae xsi:type="soapenc:string">%s</nomeMae>
            <nomePai xsi:type="soapenc:string">Não declarado</nomePai>
            <pessoaPoliticamenteExposta xsi:type="xsd:boolean">%t</pessoaPoliticamenteExposta>
            <sexo xsi:type="soapenc:string">%s</sexo>
            <ufNascimento xsi:type="soapenc:string">%s</ufNascimento>
        </cliente>
        <finalidadeCredito xsi:type="xsd:int">%d</finalidadeCredito>
        <codigoEntidade xsi:type="soapenc:string">4277-</codigoEntidade>
        <codigoFormaEnvioTermo xsi:type="soapenc:string">15</codigoFormaEnvioTermo>
        <codigoLoja xsi:type="soapenc:int">54442</codigoLoja>
        <codigoServico xsi:type="soapenc:string">141</codigoServico>
        <cpf xsi:type="soapenc:string">%s</cpf>
        <dataRenda xsi:type="xsd:dateTime">%s</dataRenda>
        <formaCredito xsi:type="xsd:int">2</formaCredito>
        <loginConsig xsi:type="soapenc:string">%s</loginConsig>
        <senhaConsig xsi:type="soapenc:string">%s</senhaConsig>
        <margem xsi:type="xsd:double">%s</margem>
        <matricula xsi:type="soapenc:string">%s</matricula>
        <tipoBeneficio xsi:type="soapenc:int">%d</tipoBeneficio>
        <tipoDomicilioBancario xsi:type="soapenc:short">1</tipoDomicilioBancario>
        <token xsi:type="soapenc:string"></token>
        <ufContaBeneficio xsi:type="soapenc:string">%s</ufContaBeneficio>
        <valorRenda xsi:type="xsd:double">%s</valorRenda>
        <tipoFormaEnvioFatura xsi:type="soapenc:string">W</tipoFormaEnvioFatura>
    </proposta>
    </web:gravarPropostaCartao>
    </soapenv:Body>
</soapenv:Envelope>`,
		xmlEscape(c.login), xmlEscape(c.password),
		p.OpenPaymentAccount,
		p.BankNumber,
		xmlEscape(p.Agency.CheckDigit), xmlEscape(p.Agency.Number),
		xmlEscape(p.Account.CheckDigit), xmlEscape(p.Account.Number),
		p.PaymentOrderBank,
		xmlEscape(phoneDDD(cust.Cellphone)), xmlEscape(phoneNumber(cust.Cellphone)),
		xmlEscape(cust.CityOfBirth),
		xmlEscape(cust.CPF),
		formatSOAPDateTime(cust.DateOfBirth),
		xmlEscape(cust.Email),
		xmlEscape(addr.Neighborhood), xmlEscape(addr.ZipCode), xmlEscape(addr.City),
		xmlEscape(addr.Complement), xmlEscape(addr.Street), xmlEscape(addr.Number),
		xmlEscape(addr.State),
		xmlEscape(cust.MaritalStatus),
		xmlEscape(cust.EducationalLevel),
		formatSOAPDateTime(ident.EmissionDate),
		xmlEscape(ident.Issuer), xmlEscape(ident.Number), xmlEscape(ident.Type),
		xmlEscape(ident.State),
		xmlEscape(cust.Nationality),
		xmlEscape(cust.Name),
		xmlEscape(cust.SpouseName),
		xmlEscape(cust.MotherName),
		cust.PPE,
		xmlEscape(cust.Gender),
		xmlEscape(cust.StateOfBirth),
		p.CreditPurpose,
		xmlEscape(cust.CPF),
		formatSOAPDateTime(p.IncomeDate),
		xmlEscape(c.consigLogin), xmlEscape(c.consigPassword),
		p.Margin.String(),
		xmlEscape(p.Benefit),
		p.BenefitType,
		xmlEscape(p.BenefitState),
		p.IncomeValue.String(),
	)

	doc, err := c.call(ctx, "/webservices/CartaoBeneficio?wsdl=null", envelope)
	if err != nil {
		return nil, err
	}
	return dig(doc, "Body", "gravarPropostaCartaoResponse", "gravarPropostaCartaoReturn"), nil
}

func formatSOAPDateTime(t time.Time) string {
	return t.Format("2006-01-02T15:04:05")
}

func phoneDDD(phone string) string {
	if len(phone) < 2 {
		return phone
	}
	return phone[:2]
}

func phoneNumber(phone string) string {
	if len(phone) < 2 {
		return ""
	}
	return phone[2:]
}

func xmlEscape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&apos;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
