package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
	}{
		{"brazilian thousands", "1.234,56", 1234.56},
		{"currency prefix", "R$ 1.234,56", 1234.56},
		{"plain decimal", "1234.56", 1234.56},
		{"percent suffix", "1,80%", 1.8},
		{"integer string", "500", 500},
		{"negative", "-12,50", -12.5},
		{"empty", "", 0},
		{"garbage", "abc", 0},
		{"lone sign", "-", 0},
		{"double decimal point", "56.00.", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseAmount(tt.input))
		})
	}
}

func TestToFloat(t *testing.T) {
	assert.Equal(t, 10.5, ToFloat(10.5))
	assert.Equal(t, 10.0, ToFloat(10))
	assert.Equal(t, 10.0, ToFloat(int64(10)))
	assert.Equal(t, 1234.56, ToFloat("1.234,56"))
	assert.Equal(t, 0.0, ToFloat(nil))
	assert.Equal(t, 0.0, ToFloat(map[string]interface{}{}))
}

func TestToString(t *testing.T) {
	assert.Equal(t, "abc", ToString("abc"))
	assert.Equal(t, "10.5", ToString(10.5))
	assert.Equal(t, "10", ToString(10))
	assert.Equal(t, "", ToString(nil))
	assert.Equal(t, "true", ToString(true))
}

func TestFormatPhoneFacta(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"mobile 11 digits", "21999999999", "(021) 99999-9999"},
		{"with country code", "5521999999999", "(021) 99999-9999"},
		{"formatted input", "(21) 99999-9999", "(021) 99999-9999"},
		{"landline 10 digits", "2133334444", "(021) 3333-4444"},
		{"short number padded", "33334444", "(000) 3333-4444"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatPhoneFacta(tt.input))
		})
	}
}

func TestFormatDateBR(t *testing.T) {
	assert.Equal(t, "25/12/1990", FormatDateBR("1990-12-25"))
	assert.Equal(t, "not-a-date", FormatDateBR("not-a-date"))
	assert.Equal(t, "", FormatDateBR(""))
}

func TestFormatCEP(t *testing.T) {
	assert.Equal(t, "01310-100", FormatCEP("01310100"))
	assert.Equal(t, "01310-100", FormatCEP("01310-100"))
	assert.Equal(t, "1310100", FormatCEP("1310100"))
}

func TestSanitizeContractNumber(t *testing.T) {
	assert.Equal(t, "ABC-123", SanitizeContractNumber("ABC/123"))
	assert.Equal(t, "ABC123", SanitizeContractNumber("ABC123"))
	assert.Equal(t, "A-B-C", SanitizeContractNumber("A/B/C"))
}
