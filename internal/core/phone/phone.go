// Package phone canonicalizes phone numbers typed into the user form.
//
//	"77771234567"  → "+7 (777) 123-45-67"
//	"87771234567"  → "8 (777) 123-45-67"
//	"+77771234567" → "+7 (777) 123-45-67"
//	"7771234567"   → "777 123-45-67"
package phone

import "strings"

// Clean keeps digits and '+' only.
func Clean(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '+' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Format renders raw progressively: partial input yields partial masks such
// as "+7", "+7 (77" or "+7 (777) 12".
func Format(raw string) string {
	cleaned := Clean(raw)
	switch {
	case cleaned == "":
		return ""
	case strings.HasPrefix(cleaned, "+7"):
		return withCode("+7", cleaned[2:])
	case strings.HasPrefix(cleaned, "8"):
		return withCode("8", cleaned[1:])
	case strings.HasPrefix(cleaned, "7"):
		return withCode("+7", cleaned[1:])
	default:
		return local(cleaned)
	}
}

// Valid reports whether raw holds a complete number: "+7" plus ten digits,
// "7"/"8" plus ten digits, or at least ten characters otherwise.
func Valid(raw string) bool {
	cleaned := Clean(raw)
	switch {
	case strings.HasPrefix(cleaned, "+7"):
		return len(cleaned) == 12
	case strings.HasPrefix(cleaned, "7"), strings.HasPrefix(cleaned, "8"):
		return len(cleaned) == 11
	}
	return len(cleaned) >= 10
}

func withCode(code, digits string) string {
	n := len(digits)
	switch {
	case n == 0:
		return code
	case n <= 3:
		return code + " (" + digits
	case n <= 6:
		return code + " (" + digits[:3] + ") " + digits[3:]
	case n <= 8:
		return code + " (" + digits[:3] + ") " + digits[3:6] + "-" + digits[6:]
	}
	return code + " (" + digits[:3] + ") " + digits[3:6] + "-" + digits[6:8] + "-" + span(digits, 8, 10)
}

func local(digits string) string {
	n := len(digits)
	switch {
	case n <= 3:
		return digits
	case n <= 6:
		return digits[:3] + " " + digits[3:]
	case n <= 8:
		return digits[:3] + " " + digits[3:6] + "-" + digits[6:]
	}
	return digits[:3] + " " + digits[3:6] + "-" + digits[6:8] + "-" + span(digits, 8, 10)
}

// span is s[from:to] clamped to len(s); extra digits are dropped.
func span(s string, from, to int) string {
	if to > len(s) {
		to = len(s)
	}
	return s[from:to]
}
