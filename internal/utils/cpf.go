package utils

import (
	"regexp"
	"strconv"
)

var nonDigits = regexp.MustCompile(`\D`)

// CleanCPF removes all non-numeric characters from a CPF
func CleanCPF(cpf string) string {
	return nonDigits.ReplaceAllString(cpf, "")
}

// FormatCPF formats a CPF with dots and dash (XXX.XXX.XXX-XX)
func FormatCPF(cpf string) string {
	cleaned := CleanCPF(cpf)
	if len(cleaned) != 11 {
		return cpf // Return original if invalid length
	}

	return cleaned[:3] + "." + cleaned[3:6] + "." + cleaned[6:9] + "-" + cleaned[9:11]
}

// IsValidCPF validates a CPF using the official check-digit algorithm
func IsValidCPF(cpf string) bool {
	cleaned := CleanCPF(cpf)

	// Check length
	if len(cleaned) != 11 {
		return false
	}

	// Check if all digits are the same
	if isAllSameDigit(cleaned) {
		return false
	}

	// Convert to slice of integers
	digits := make([]int, 11)
	for i, char := range cleaned {
		digit, err := strconv.Atoi(string(char))
		if err != nil {
			return false
		}
		digits[i] = digit
	}

	// Validate first check digit
	if !isValidCheckDigit(digits[:9], digits[9], []int{10, 9, 8, 7, 6, 5, 4, 3, 2}) {
		return false
	}

	// Validate second check digit
	if !isValidCheckDigit(digits[:10], digits[10], []int{11, 10, 9, 8, 7, 6, 5, 4, 3, 2}) {
		return false
	}

	return true
}

func isAllSameDigit(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}

func isValidCheckDigit(digits []int, checkDigit int, weights []int) bool {
	sum := 0
	for i, d := range digits {
		sum += d * weights[i]
	}

	remainder := sum % 11
	expected := 11 - remainder
	if expected >= 10 {
		expected = 0
	}

	return expected == checkDigit
}
