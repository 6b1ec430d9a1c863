package util

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	reSpaces      = regexp.MustCompile(`\s+`)
	reRefDes      = regexp.MustCompile(`^([A-Za-z]+)(\d*)`)
	rePackageCode = regexp.MustCompile(`(?:^|[^0-9])(0201|0402|0603|0805|1206|1210|2010|2512)(?:[^0-9]|$)`)
)

// NormalizeMPN canonicalizes a manufacturer part number for merge-key and
// search comparison: uppercase, no surrounding or internal whitespace.
func NormalizeMPN(input string) string {
	s := strings.ToUpper(strings.TrimSpace(input))
	return reSpaces.ReplaceAllString(s, "")
}

// FoldValue trims and case-folds a free-form field for comparison.
func FoldValue(input string) string {
	s := strings.ToLower(strings.TrimSpace(input))
	return reSpaces.ReplaceAllString(s, " ")
}

// NormalizePackage canonicalizes a package/footprint string: uppercase
// with spaces, dashes and underscores removed, so "0603 (1608 Metric)"
// and "0603-1608Metric" compare on the same footing.
func NormalizePackage(input string) string {
	s := strings.ToUpper(strings.TrimSpace(input))
	s = strings.NewReplacer(" ", "", "-", "", "_", "").Replace(s)
	return s
}

// PackageCode extracts a chip package size code (0402, 0603, ...) from a
// footprint string like "Resistor_SMD:R_0603_1608Metric". Returns "" when
// none is present.
func PackageCode(input string) string {
	m := rePackageCode.FindStringSubmatch(input)
	if m == nil {
		return ""
	}
	return m[1]
}

// SplitRefDes splits an aggregated designator cell ("R1, R2;R3 R4") into
// individual tokens.
func SplitRefDes(input string) []string {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// SortRefDes orders designators by alpha prefix, then numeric suffix, so
// R2 sorts before R10.
func SortRefDes(refs []string) {
	sort.SliceStable(refs, func(i, j int) bool {
		pi, ni := splitRefDes(refs[i])
		pj, nj := splitRefDes(refs[j])
		if pi != pj {
			return pi < pj
		}
		if ni != nj {
			return ni < nj
		}
		return refs[i] < refs[j]
	})
}

func splitRefDes(ref string) (string, int) {
	m := reRefDes.FindStringSubmatch(ref)
	if m == nil {
		return strings.ToUpper(ref), 0
	}
	n := 0
	if m[2] != "" {
		n, _ = strconv.Atoi(m[2])
	}
	return strings.ToUpper(m[1]), n
}

func StringPtr(v string) *string { return &v }

func IntPtr(v int) *int { return &v }

func FloatPtr(v float64) *float64 { return &v }
