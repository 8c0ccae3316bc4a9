// Package normalize holds the string cleaning rules shared by the loaders.
package normalize

import (
	"strings"
	"unicode"
)

var labelNewlines = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// StandardizeLabel trims a column label and turns embedded line breaks into
// spaces.
func StandardizeLabel(label string) string {
	label = strings.TrimPrefix(label, "\ufeff")
	return labelNewlines.Replace(strings.TrimSpace(label))
}

// StandardizeLabels applies StandardizeLabel to every header.
func StandardizeLabels(headers []string) []string {
	out := make([]string, len(headers))
	for i, h := range headers {
		out[i] = StandardizeLabel(h)
	}
	return out
}

// matchKey lowercases a label and collapses inner whitespace, the form the
// column rules compare against.
func matchKey(label string) string {
	return strings.Join(strings.Fields(strings.ToLower(label)), " ")
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DigitsOnly keeps the digits of a phone number.
func DigitsOnly(phone string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)
}

// NameKey is the merchant join key form: trimmed and uppercased.
func NameKey(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

var truthyTokens = map[string]struct{}{
	"yes":  {},
	"true": {},
	"1":    {},
	"y":    {},
}

// IsTruthy reports whether raw is one of the accepted consent tokens.
func IsTruthy(raw string) bool {
	_, ok := truthyTokens[strings.ToLower(strings.TrimSpace(raw))]
	return ok
}
