package banks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/credihub/fgts-api/internal/models"
)

func TestExtractBMGMargin(t *testing.T) {
	tests := []struct {
		name   string
		input  interface{}
		expect float64
	}{
		{"direct key", map[string]interface{}{"margemDisponivel": 150.5}, 150.5},
		{"alternate key", map[string]interface{}{"valorMargem": "99.90"}, 99.9},
		{"short key", map[string]interface{}{"margem": float64(80)}, 80},
		{"nested", map[string]interface{}{
			"beneficio": map[string]interface{}{"margemDisponivel": 120.0},
		}, 120},
		{"list of items", []interface{}{
			map[string]interface{}{"margem": float64(0)},
			map[string]interface{}{"margem": 45.5},
		}, 45.5},
		{"zero margin", map[string]interface{}{"margemDisponivel": float64(0)}, 0},
		{"nothing", map[string]interface{}{"outroCampo": "x"}, 0},
		{"scalar", "150.5", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, extractBMGMargin(tt.input))
		})
	}
}

func TestBMGAdapterNormalizeSimulationResponse(t *testing.T) {
	raw := map[string]interface{}{
		"consulta": map[string]interface{}{
			"matricula":        "600123",
			"margemDisponivel": 150.5,
		},
	}

	resp := BMGAdapter{}.NormalizeSimulationResponse(raw)

	assert.Equal(t, BankBMG, resp.BankName)
	assert.Equal(t, "bmg_600123", resp.FinancialID)
	assert.Equal(t, 150.5, resp.AvailableAmount)
	assert.True(t, resp.Success)
}

func TestBMGAdapterNormalizeFallsBackToTopLevelBenefit(t *testing.T) {
	resp := BMGAdapter{}.NormalizeSimulationResponse(map[string]interface{}{
		"matricula": "600999",
	})

	assert.Equal(t, "bmg_600999", resp.FinancialID)
}

func TestBMGAdapterPrepareProposalRequest(t *testing.T) {
	req := models.NormalizedProposalRequest{
		FinancialID: "bmg_600123",
		Customer: models.Customer{
			Name:   "Maria da Silva",
			CPF:    "529.982.247-25",
			Gender: "MALE",
			Phone:  "(21) 99999-9999",
		},
		Address:  models.Address{ZipCode: "01310-100"},
		BankData: models.BankData{BankCode: "318"},
	}

	payload := BMGAdapter{}.PrepareProposalRequest(req)

	assert.Equal(t, "600123", payload["benefit"])
	assert.Equal(t, "52998224725", payload["cpf"])
	assert.Equal(t, "M", payload["gender"])
	assert.Equal(t, "S", payload["marital_status"])
	assert.Equal(t, "21999999999", payload["cellphone"])
	assert.Equal(t, "01310100", payload["zip_code"])
	assert.Equal(t, "318", payload["bank_code"])
}

func TestBMGAdapterUnknownGenderIsFemale(t *testing.T) {
	payload := BMGAdapter{}.PrepareProposalRequest(models.NormalizedProposalRequest{})

	assert.Equal(t, "F", payload["gender"])
	assert.Equal(t, "bmg_", "bmg_"+payload["benefit"].(string))
}

func TestParseISODate(t *testing.T) {
	parsed := parseISODate("1990-12-25")
	assert.Equal(t, time.Date(1990, 12, 25, 0, 0, 0, 0, time.UTC), parsed)

	assert.True(t, parseISODate("25/12/1990").IsZero())
	assert.True(t, parseISODate("").IsZero())
}

func TestDigMap(t *testing.T) {
	doc := map[string]interface{}{
		"a": map[string]interface{}{
			"b": map[string]interface{}{"c": "leaf"},
		},
	}

	assert.Equal(t, "leaf", digMap(doc, "a", "b", "c"))
	assert.Nil(t, digMap(doc, "a", "x"))
	assert.Nil(t, digMap(doc, "a", "b", "c", "d"))
}
