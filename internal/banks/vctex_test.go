package banks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/credihub/fgts-api/internal/cache"
	"github.com/credihub/fgts-api/internal/clients/vctex"
	"github.com/credihub/fgts-api/internal/config"
	"github.com/credihub/fgts-api/internal/models"
)

func vctexTestClient(t *testing.T, mux *http.ServeMux) *vctex.Client {
	t.Helper()
	mux.HandleFunc("/authentication/login", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"token": map[string]interface{}{"accessToken": "vctex-tok"},
		})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	logger := testLogger()
	return vctex.NewClient(config.VCTEXConfig{
		BaseURL:  server.URL,
		CPF:      "00011122233",
		Password: "secret",
		Timeout:  5 * time.Second,
		TokenTTL: 115 * time.Minute,
	}, cache.NewTokenCache(nil, logger), logger)
}

func TestFormatSimulationResponse(t *testing.T) {
	raw := map[string]interface{}{
		"data": map[string]interface{}{
			"financialId": "fin-123",
			"simulationData": map[string]interface{}{
				"totalReleasedAmount": 1234.5,
				"totalAmount":         1500.0,
				"contractRate":        0.018,
				"iofAmount":           56.0,
			},
		},
	}

	result := formatSimulationResponse(raw)

	assert.Equal(t, "1234.50", result["total_released"])
	assert.Equal(t, "1500.00", result["total_to_pay"])
	assert.Equal(t, "1.80%", result["interest_rate"])
	assert.Equal(t, "56.00.", result["iof_fee"])
	assert.Equal(t, "fin-123", result["financialId"])
}

func TestVCTEXAdapterNormalizeRoundTrip(t *testing.T) {
	flat := map[string]interface{}{
		"total_released": "1234.50",
		"total_to_pay":   "1500.00",
		"interest_rate":  "1.80%",
		"iof_fee":        "56.00.",
		"financialId":    "fin-123",
	}

	resp := VCTEXAdapter{}.NormalizeSimulationResponse(flat)

	assert.Equal(t, BankVCTEX, resp.BankName)
	assert.Equal(t, "fin-123", resp.FinancialID)
	assert.Equal(t, 1234.5, resp.AvailableAmount)
	assert.Equal(t, 1500.0, resp.TotalAmount)
	assert.Equal(t, 1.8, resp.InterestRate)
	assert.Equal(t, 56.0, resp.IOFAmount)
	assert.True(t, resp.Success)
}

func TestVCTEXAdapterPrepareProposalRequest(t *testing.T) {
	req := models.NormalizedProposalRequest{
		FinancialID: "fin-123",
		Customer:    models.Customer{Name: "João Souza", CPF: "52998224725", Gender: "MALE"},
		Document:    models.Document{Type: "RG", Number: "123456"},
		Address:     models.Address{ZipCode: "01310100", Number: "42"},
		BankData:    models.BankData{BankCode: "104", AccountType: "checking"},
	}

	payload := VCTEXAdapter{}.PrepareProposalRequest(req)

	assert.Equal(t, "fin-123", payload["financialId"])

	borrower, ok := payload["borrower"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "male", borrower["gender"])
	assert.Equal(t, "João Souza", borrower["name"])

	document, ok := payload["document"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "rg", document["type"])

	account, ok := payload["disbursementBankAccount"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "104", account["bankCode"])
}

func TestVCTEXAdapterUnknownGenderIsFemale(t *testing.T) {
	payload := VCTEXAdapter{}.PrepareProposalRequest(models.NormalizedProposalRequest{
		Customer: models.Customer{Gender: "outro"},
	})

	borrower := payload["borrower"].(map[string]interface{})
	assert.Equal(t, "female", borrower["gender"])
}

func TestExtractContractNumber(t *testing.T) {
	assert.Equal(t, "ABC-1", extractContractNumber(map[string]interface{}{"contract_number": "ABC-1"}))
	assert.Equal(t, "XYZ-2", extractContractNumber(map[string]interface{}{
		"data": map[string]interface{}{"proposalcontractNumber": "XYZ-2"},
	}))
	assert.Empty(t, extractContractNumber(map[string]interface{}{}))
}

func TestVCTEXProviderSubmitProposal(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/service/proposal", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))

		borrower := payload["borrower"].(map[string]interface{})
		assert.Equal(t, "52998224725", borrower["cpf"])
		assert.Equal(t, "brazilian", borrower["nationality"])
		assert.Equal(t, "single", borrower["maritalStatus"])
		assert.Equal(t, false, borrower["pep"])
		assert.Equal(t, float64(0), payload["feeScheduleId"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{"proposalcontractNumber": "CT/2026/001"},
		})
	})
	mux.HandleFunc("/service/proposal/contract-number", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "CT-2026-001", r.Header.Get("contract-number"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{"contractFormalizationLink": "https://vctex.sign/ct1"},
		})
	})

	provider := NewVCTEXProvider(vctexTestClient(t, mux), 0, testLogger())

	payload := map[string]interface{}{
		"borrower": map[string]interface{}{"cpf": "529.982.247-25", "name": "João Souza"},
	}
	result := provider.SubmitProposal(context.Background(), payload)

	require.True(t, result.Success)
	assert.Equal(t, BankVCTEX, result.BankName)
	assert.Equal(t, "CT/2026/001", result.ContractNumber)
	assert.Equal(t, "https://vctex.sign/ct1", result.FormalizationLink)
}

func TestVCTEXProviderRejectsPartnerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/service/proposal", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{"message": "financialId inválido"})
	})

	provider := NewVCTEXProvider(vctexTestClient(t, mux), 0, testLogger())

	result := provider.SubmitProposal(context.Background(), map[string]interface{}{})

	assert.False(t, result.Success)
	assert.Equal(t, "financialId inválido", result.ErrorMessage)
	assert.Empty(t, result.ContractNumber)
}

func TestVCTEXProviderCheckStatusRespectsContext(t *testing.T) {
	provider := NewVCTEXProvider(vctexTestClient(t, http.NewServeMux()), time.Minute, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	status := provider.CheckStatus(ctx, "CT-1")

	assert.Equal(t, false, status["success"])
	assert.Equal(t, "error", status["status"])
}

func TestVCTEXSimulatorFormatsResponse(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/service/simulation", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"financialId": "fin-123",
				"simulationData": map[string]interface{}{
					"totalReleasedAmount": 1234.5,
					"totalAmount":         1500.0,
					"contractRate":        0.018,
					"iofAmount":           56.0,
				},
			},
		})
	})

	sim := NewVCTEXSimulator(vctexTestClient(t, mux), testLogger())

	result := sim.Simulate(context.Background(), "52998224725")

	require.True(t, result.Success)
	assert.Equal(t, 1234.5, result.AvailableAmount)
	assert.Equal(t, "fin-123", result.RawResponse["financialId"])
}

func TestVCTEXSimulatorMissingFinancialID(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/service/simulation", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"data": map[string]interface{}{}})
	})

	sim := NewVCTEXSimulator(vctexTestClient(t, mux), testLogger())

	result := sim.Simulate(context.Background(), "52998224725")

	assert.False(t, result.Success)
	assert.Equal(t, "Formato de resposta inválido", result.ErrorMessage)
}
