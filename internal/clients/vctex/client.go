package vctex

import (
	"bytes"
	"context"
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

	"github.com/credihub/fgts-api/internal/cache"
	"github.com/credihub/fgts-api/internal/config"
	"github.com/credihub/fgts-api/internal/utils"
)

const tokenCacheKey = "vctex:auth_token"

// Client talks to the VCTEX partner API. QI rides the same API with a
// different simulation payload, so both banks share one client.
type Client struct {
	baseURL  string
	cpf      string
	password string
	tokenTTL time.Duration

	httpClient *http.Client
	tokens     *cache.TokenCache
	logger     *logrus.Logger

	mu           sync.RWMutex
	token        string
	tokenExpiry  time.Time
	refreshGroup singleflight.Group
}

// NewClient creates a VCTEX client. tokens may be nil, in which case
// the bearer token only lives in process memory.
func NewClient(cfg config.VCTEXConfig, tokens *cache.TokenCache, logger *logrus.Logger) *Client {
	transport := http.DefaultTransport
	if cfg.ProxyURL != "" {
		if proxyURL, err := url.Parse(cfg.ProxyURL); err == nil {
			t := http.DefaultTransport.(*http.Transport).Clone()
			t.Proxy = http.ProxyURL(proxyURL)
			transport = t
		} else {
			logger.WithError(err).Warn("Invalid proxy URL, using direct connection")
		}
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		cpf:        cfg.CPF,
		password:   cfg.Password,
		tokenTTL:   cfg.TokenTTL,
		httpClient: &http.Client{Timeout: cfg.Timeout, Transport: transport},
		tokens:     tokens,
		logger:     logger,
	}
}

// authenticate logs in and caches the bearer token. The local expiry
// undercuts the partner's real TTL so the token is refreshed before the
// partner would start rejecting it.
func (c *Client) authenticate(ctx context.Context) (string, error) {
	if c.cpf == "" || c.password == "" {
		return "", fmt.Errorf("credenciais não configuradas (CPF/PASSWORD)")
	}

	body, _ := json.Marshal(map[string]string{"cpf": c.cpf, "password": c.password})
	resp, err := c.rawRequest(ctx, http.MethodPost, "authentication/login", bytes.NewReader(body), nil, "")
	if err != nil {
		return "", err
	}

	token, ok := resp["token"].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("resposta de autenticação inválida: %v", resp)
	}
	accessToken, _ := token["accessToken"].(string)
	if accessToken == "" {
		return "", fmt.Errorf("resposta de autenticação inválida: %v", resp)
	}

	expiry := time.Now().Add(c.tokenTTL)
	c.mu.Lock()
	c.token, c.tokenExpiry = accessToken, expiry
	c.mu.Unlock()

	if c.tokens != nil {
		if err := c.tokens.Set(ctx, tokenCacheKey, accessToken, c.tokenTTL); err != nil {
			c.logger.WithError(err).Warn("Failed to cache VCTEX token")
		}
	}

	c.logger.WithField("expiration", expiry.Format(time.RFC3339)).Info("VCTEX authentication succeeded")
	return accessToken, nil
}

// getToken returns a valid bearer token, hitting the shared cache and
// then the login endpoint. Concurrent refreshes collapse to one login.
func (c *Client) getToken(ctx context.Context) (string, error) {
	c.mu.RLock()
	token, expiry := c.token, c.tokenExpiry
	c.mu.RUnlock()
	if token != "" && time.Now().Before(expiry) {
		return token, nil
	}

	if c.tokens != nil {
		if cached, err := c.tokens.Get(ctx, tokenCacheKey); err == nil && cached != "" {
			c.mu.Lock()
			c.token, c.tokenExpiry = cached, time.Now().Add(time.Minute)
			c.mu.Unlock()
			return cached, nil
		}
	}

	result, err, _ := c.refreshGroup.Do("login", func() (interface{}, error) {
		return c.authenticate(ctx)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// invalidateToken drops the cached token after the partner rejects it
func (c *Client) invalidateToken(ctx context.Context) {
	c.mu.Lock()
	c.token, c.tokenExpiry = "", time.Time{}
	c.mu.Unlock()
	if c.tokens != nil {
		_ = c.tokens.Delete(ctx, tokenCacheKey)
	}
}

// rawRequest issues one HTTP call and decodes the body. Non-JSON
// bodies come back as {"message": <text>}.
func (c *Client) rawRequest(ctx context.Context, method, endpoint string, body io.Reader, headers map[string]string, bearer string) (map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "VCTEX-Client/1.0")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
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
		"method":      method,
		"endpoint":    endpoint,
		"status_code": resp.StatusCode,
	}).Info("VCTEX API request")

	var result map[string]interface{}
	if err := json.Unmarshal(raw, &result); err != nil {
		result = map[string]interface{}{"message": strings.TrimSpace(string(raw))}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		if _, ok := result["statusCode"]; !ok {
			result["statusCode"] = float64(resp.StatusCode)
		}
	}
	return result, nil
}

// request issues an authenticated call, re-authenticating once if the
// partner answers 401.
func (c *Client) request(ctx context.Context, method, endpoint string, payload interface{}, headers map[string]string) (map[string]interface{}, error) {
	token, err := c.getToken(ctx)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewReader(b)
	}

	result, err := c.rawRequest(ctx, method, endpoint, body, headers, token)
	if err != nil {
		return nil, err
	}

	if utils.ToFloat(result["statusCode"]) == http.StatusUnauthorized {
		c.invalidateToken(ctx)
		token, err = c.getToken(ctx)
		if err != nil {
			return nil, err
		}
		if payload != nil {
			b, _ := json.Marshal(payload)
			body = bytes.NewReader(b)
		} else {
			body = nil
		}
		return c.rawRequest(ctx, method, endpoint, body, headers, token)
	}
	return result, nil
}

// Simulate runs a balance-based credit simulation
func (c *Client) Simulate(ctx context.Context, payload map[string]interface{}) (map[string]interface{}, error) {
	return c.request(ctx, http.MethodPost, "service/simulation", payload, nil)
}

// SimulateByInstallments runs an installment-based credit simulation
func (c *Client) SimulateByInstallments(ctx context.Context, payload map[string]interface{}) (map[string]interface{}, error) {
	return c.request(ctx, http.MethodPost, "service/simulation/installments", payload, nil)
}

// CreateProposal submits a proposal in a single call
func (c *Client) CreateProposal(ctx context.Context, payload map[string]interface{}) (map[string]interface{}, error) {
	return c.request(ctx, http.MethodPost, "service/proposal", payload, nil)
}

// ProposalDetail fetches the full proposal document for a contract.
// The contract number travels in a header and must not contain slashes.
func (c *Client) ProposalDetail(ctx context.Context, contractNumber string) (map[string]interface{}, error) {
	headers := map[string]string{"contract-number": utils.SanitizeContractNumber(contractNumber)}
	return c.request(ctx, http.MethodGet, "service/proposal/contract-number", nil, headers)
}

// ProposalStatus returns the formalization link for a contract, or an
// error message when the partner has no status yet.
func (c *Client) ProposalStatus(ctx context.Context, contractNumber string) (map[string]interface{}, error) {
	resp, err := c.ProposalDetail(ctx, contractNumber)
	if err != nil {
		return map[string]interface{}{"error": fmt.Sprintf("Erro ao consultar status: %v", err)}, nil
	}
	if resp == nil {
		return map[string]interface{}{"error": "Não foi possível obter resposta da API"}, nil
	}

	if data, ok := resp["data"].(map[string]interface{}); ok {
		if link, _ := data["contractFormalizationLink"].(string); link != "" {
			return map[string]interface{}{"status": link}, nil
		}
		return map[string]interface{}{"error": "Status não encontrado na resposta"}, nil
	}

	msg, _ := resp["message"].(string)
	if msg == "" {
		msg = "Erro desconhecido ao consultar status"
	}
	return map[string]interface{}{"error": msg}, nil
}
