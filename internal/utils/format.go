package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ParseAmount converts partner-local numeric strings into a canonical
// float. It accepts Brazilian formatting ("1.234,56"), plain decimals
// ("1234.56"), percent suffixes ("1,80%") and currency prefixes; any
// value that cannot be parsed yields 0.
func ParseAmount(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}

	// Strip everything that is not a digit, separator or sign
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' || r == '.' || r == ',' || r == '-' {
			b.WriteRune(r)
		}
	}
	s = b.String()
	if s == "" || s == "-" {
		return 0
	}

	// Comma present means Brazilian formatting: periods are thousands
	// separators, the comma is the decimal mark.
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}

	f, _ := d.Float64()
	return f
}

// ToFloat coerces the loosely typed values found in partner payloads
// (JSON numbers, formatted strings, nil) into a float64, defaulting to 0.
func ToFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		return ParseAmount(n)
	default:
		return 0
	}
}

// ToString coerces a loosely typed payload value into a string
func ToString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		d := decimal.NewFromFloat(s)
		return d.String()
	case int:
		return fmt.Sprintf("%d", s)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", s)
	}
}

// OnlyDigits strips everything but digits
func OnlyDigits(s string) string {
	return nonDigits.ReplaceAllString(s, "")
}

// FormatPhoneFacta formats a phone number in the exact shape FACTA
// requires: (0DD) NNNNN-NNNN. Country code 55 is stripped; short
// numbers are zero-padded on the left.
func FormatPhoneFacta(phone string) string {
	numbers := OnlyDigits(phone)

	if strings.HasPrefix(numbers, "55") && len(numbers) > 10 {
		numbers = numbers[2:]
	}

	if len(numbers) < 10 {
		numbers = strings.Repeat("0", 10-len(numbers)) + numbers
	}
	if len(numbers) > 11 {
		numbers = numbers[len(numbers)-11:]
	}

	ddd := numbers[:2]
	rest := numbers[2:]
	return fmt.Sprintf("(0%s) %s-%s", ddd, rest[:len(rest)-4], rest[len(rest)-4:])
}

// FormatDateBR converts an ISO date (YYYY-MM-DD) into DD/MM/YYYY.
// Values that do not parse are returned unchanged.
func FormatDateBR(isoDate string) string {
	t, err := time.Parse("2006-01-02", isoDate)
	if err != nil {
		return isoDate
	}
	return t.Format("02/01/2006")
}

// FormatCEP formats a postal code as XXXXX-XXX
func FormatCEP(cep string) string {
	numbers := OnlyDigits(cep)
	if len(numbers) < 8 {
		return numbers
	}
	return numbers[:5] + "-" + numbers[5:8]
}

// SanitizeContractNumber rewrites a contract number into the form the
// VCTEX status endpoint accepts (slashes become hyphens).
func SanitizeContractNumber(contractNumber string) string {
	return strings.ReplaceAll(contractNumber, "/", "-")
}
