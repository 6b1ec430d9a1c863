package util

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// Leading group must not start with 0: "0,078" is a decimal comma,
	// not a thousands grouping.
	reThousandDot   = regexp.MustCompile(`^[1-9]\d{0,2}(?:\.\d{3})+$`)
	reThousandComma = regexp.MustCompile(`^[1-9]\d{0,2}(?:,\d{3})+$`)
)

// ParseQuantity parses an explicit quantity cell. Tolerates thousands
// separators, decimal commas and trailing units ("100 pcs"). Returns
// (0, false) when no usable positive integer can be extracted.
func ParseQuantity(input string) (int, bool) {
	s := strings.TrimSpace(strings.ReplaceAll(input, "\u00A0", " "))
	if s == "" {
		return 0, false
	}

	// Strip a trailing unit token, keep the leading numeric run.
	i := 0
	for i < len(s) {
		c := s[i]
		if (c >= '0' && c <= '9') || c == '.' || c == ',' || c == ' ' {
			i++
			continue
		}
		break
	}
	token := strings.TrimSpace(s[:i])
	if token == "" {
		return 0, false
	}

	parsed, err := strconv.ParseFloat(normalizeNumericToken(token), 64)
	if err != nil || parsed <= 0 {
		return 0, false
	}
	return int(parsed), true
}

func normalizeNumericToken(token string) string {
	compact := strings.ReplaceAll(token, " ", "")
	if reThousandDot.MatchString(compact) {
		return strings.ReplaceAll(compact, ".", "")
	}
	if reThousandComma.MatchString(compact) {
		return strings.ReplaceAll(compact, ",", "")
	}
	if strings.Contains(compact, ",") && strings.Contains(compact, ".") {
		return strings.ReplaceAll(compact, ",", "")
	}
	if strings.Contains(compact, ",") {
		return strings.ReplaceAll(compact, ",", ".")
	}
	return compact
}

// ParsePrice parses a vendor price string such as "$1,234.56" or "0.078".
func ParsePrice(input string) (float64, bool) {
	s := strings.TrimSpace(input)
	s = strings.NewReplacer("$", "", "€", "", "£", "", " ", "").Replace(s)
	if s == "" {
		return 0, false
	}
	parsed, err := strconv.ParseFloat(normalizeNumericToken(s), 64)
	if err != nil || parsed < 0 {
		return 0, false
	}
	return parsed, true
}
