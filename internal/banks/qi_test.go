package banks

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/credihub/fgts-api/internal/models"
)

func TestQIAdapterNormalizeSimulationResponse(t *testing.T) {
	raw := map[string]interface{}{
		"data": map[string]interface{}{
			"financialId": "fin-qi-1",
			"simulationData": map[string]interface{}{
				"totalReleasedAmount": 980.5,
				"totalAmount":         1200.0,
				"contractRate":        0.0179,
				"iofAmount":           34.2,
			},
		},
	}

	resp := QIAdapter{}.NormalizeSimulationResponse(raw)

	assert.Equal(t, BankQI, resp.BankName)
	assert.Equal(t, "fin-qi-1", resp.FinancialID)
	assert.Equal(t, 980.5, resp.AvailableAmount)
	assert.Equal(t, 1200.0, resp.TotalAmount)
	assert.InDelta(t, 1.79, resp.InterestRate, 1e-9)
	assert.Equal(t, 34.2, resp.IOFAmount)
}

func TestQIAdapterNormalizeEmptyResponse(t *testing.T) {
	resp := QIAdapter{}.NormalizeSimulationResponse(map[string]interface{}{})

	assert.Empty(t, resp.FinancialID)
	assert.Zero(t, resp.AvailableAmount)
	assert.Zero(t, resp.InterestRate)
}

func TestQIAdapterSharesVCTEXProposalShape(t *testing.T) {
	req := models.NormalizedProposalRequest{
		FinancialID: "fin-qi-1",
		Customer:    models.Customer{Name: "Ana Lima", Gender: "F"},
	}

	assert.Equal(t, VCTEXAdapter{}.PrepareProposalRequest(req), QIAdapter{}.PrepareProposalRequest(req))
}

func TestQISimulatorKeepsNestedResponse(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/service/simulation", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"financialId": "fin-qi-1",
				"simulationData": map[string]interface{}{
					"totalReleasedAmount": 980.5,
				},
			},
		})
	})

	sim := NewQISimulator(vctexTestClient(t, mux), testLogger())

	result := sim.Simulate(context.Background(), "52998224725")

	require.True(t, result.Success)
	assert.Equal(t, BankQI, result.BankName)
	assert.Equal(t, 980.5, result.AvailableAmount)

	data, ok := result.RawResponse["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "fin-qi-1", data["financialId"])
}

func TestQISimulatorFailsWithoutSimulationData(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/service/simulation", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]interface{}{"message": "CPF sem saldo"})
	})

	sim := NewQISimulator(vctexTestClient(t, mux), testLogger())

	result := sim.Simulate(context.Background(), "52998224725")

	assert.False(t, result.Success)
	assert.Equal(t, "CPF sem saldo", result.ErrorMessage)
}

func TestQIProviderKeepsQIBankName(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/service/proposal", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"contract_number": "QI-CT-1",
		})
	})
	mux.HandleFunc("/service/proposal/contract-number", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{"contractFormalizationLink": "https://vctex.sign/qi1"},
		})
	})

	inner := NewVCTEXProvider(vctexTestClient(t, mux), 0, testLogger())
	provider := NewQIProvider(inner)

	assert.Equal(t, BankQI, provider.BankName())

	result := provider.SubmitProposal(context.Background(), map[string]interface{}{})

	require.True(t, result.Success)
	assert.Equal(t, BankQI, result.BankName)
	assert.Equal(t, "QI-CT-1", result.ContractNumber)
}
