package domain

import (
	"strings"
)

// MaxSymbolLength is the longest symbol accepted on the inbound path.
const MaxSymbolLength = 10

// Canonicalize trims whitespace and uppercase-folds a symbol string.
// Cell keys and lookup keys are always compared in canonical form.
func Canonicalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// ValidateSymbol checks a canonicalized symbol against the inbound
// contract: non-blank, at most MaxSymbolLength characters, and only
// uppercase letters, digits, dot and dash.
func ValidateSymbol(symbol string) error {
	if symbol == "" {
		return ErrInvalidSymbol
	}
	if len(symbol) > MaxSymbolLength {
		return ErrInvalidSymbol
	}
	for _, r := range symbol {
		switch {
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '.' || r == '-':
		default:
			return ErrInvalidSymbol
		}
	}
	return nil
}
