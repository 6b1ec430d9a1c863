package pipeline

import (
	"fmt"
	"strings"

	"bompick/internal"
)

// SchemaError means the header row is unusable as a whole. Row-level
// problems never raise it.
type SchemaError struct {
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("bom schema error: %s", e.Reason)
}

// Alias table for canonical columns. Matching is case- and
// whitespace-insensitive.
var headerAliases = map[string]internal.FieldKey{
	"refdes":                   internal.FieldRefDes,
	"ref":                      internal.FieldRefDes,
	"reference":                internal.FieldRefDes,
	"reference designator":     internal.FieldRefDes,
	"designator":               internal.FieldRefDes,
	"mpn":                      internal.FieldMPN,
	"manufacturer part number": internal.FieldMPN,
	"part number":              internal.FieldMPN,
	"part#":                    internal.FieldMPN,
	"mfr part number":          internal.FieldMPN,
	"value":                    internal.FieldValue,
	"component value":          internal.FieldValue,
	"val":                      internal.FieldValue,
	"package":                  internal.FieldPackage,
	"footprint":                internal.FieldPackage,
	"case":                     internal.FieldPackage,
	"case code":                internal.FieldPackage,
	"size":                     internal.FieldPackage,
	"voltage":                  internal.FieldVoltage,
	"voltage rating":           internal.FieldVoltage,
	"v rating":                 internal.FieldVoltage,
	"v":                        internal.FieldVoltage,
	"tolerance":                internal.FieldTolerance,
	"tol":                      internal.FieldTolerance,
	"power":                    internal.FieldPower,
	"power rating":             internal.FieldPower,
	"wattage":                  internal.FieldPower,
	"w":                        internal.FieldPower,
	"description":              internal.FieldDescription,
	"desc":                     internal.FieldDescription,
	"comment":                  internal.FieldDescription,
	"notes":                    internal.FieldDescription,
	"quantity":                 internal.FieldQuantity,
	"qty":                      internal.FieldQuantity,
	"qty per board":            internal.FieldQuantity,
}

// MapHeaders maps each header column to its FieldKey. The first column
// matching a canonical field wins; later duplicates are demoted to Other
// under their original header so no data is overwritten. Headers that
// match nothing become Other as well.
func MapHeaders(headers []string) (internal.ColumnMap, error) {
	if len(headers) == 0 {
		return nil, &SchemaError{Reason: "empty header row"}
	}

	columns := make(internal.ColumnMap, len(headers))
	seen := map[internal.FieldKey]bool{}
	usable := 0

	for i, raw := range headers {
		header := strings.TrimSpace(raw)
		if header == "" {
			columns[i] = internal.OtherField(fmt.Sprintf("col_%d", i))
			continue
		}
		usable++

		key, ok := headerAliases[foldHeader(header)]
		if !ok || seen[key] {
			columns[i] = internal.OtherField(header)
			continue
		}
		seen[key] = true
		columns[i] = key
	}

	if usable == 0 {
		return nil, &SchemaError{Reason: "no usable columns in header row"}
	}
	return columns, nil
}

func foldHeader(header string) string {
	s := strings.ToLower(strings.TrimSpace(header))
	return strings.Join(strings.Fields(s), " ")
}
