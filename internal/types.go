package internal

import "strings"

// FieldKey is a canonical BOM column. Unrecognized headers are preserved
// as Other keys so no input column is silently dropped.
type FieldKey string

const (
	FieldRefDes      FieldKey = "refdes"
	FieldMPN         FieldKey = "mpn"
	FieldValue       FieldKey = "value"
	FieldPackage     FieldKey = "package"
	FieldVoltage     FieldKey = "voltage"
	FieldTolerance   FieldKey = "tolerance"
	FieldPower       FieldKey = "power"
	FieldDescription FieldKey = "description"
	FieldQuantity    FieldKey = "quantity"
)

const otherPrefix = "other:"

func OtherField(header string) FieldKey {
	return FieldKey(otherPrefix + strings.TrimSpace(header))
}

func (k FieldKey) IsOther() bool {
	return strings.HasPrefix(string(k), otherPrefix)
}

// OtherName returns the original header of an Other column, "" otherwise.
func (k FieldKey) OtherName() string {
	if !k.IsOther() {
		return ""
	}
	return strings.TrimPrefix(string(k), otherPrefix)
}

// RawRow is one body row of an input table, cells aligned to the header
// columns. Lives only during ingestion of a single file.
type RawRow []string

// ColumnMap maps a column index of the header row to its FieldKey.
type ColumnMap []FieldKey

// MergeConflict records a field whose value differed between rows merged
// into the same line item. First non-empty value wins; the run continues.
type MergeConflict struct {
	Field   FieldKey `json:"field"`
	Kept    string   `json:"kept"`
	Dropped string   `json:"dropped"`
}

// LineItem is one consolidated BOM position.
type LineItem struct {
	ID                  int
	Fields              map[FieldKey]string
	RefDes              []string
	Quantity            int
	Conflicts           []MergeConflict
	SelectedCandidateID *string
}

func (li LineItem) Field(key FieldKey) string {
	return li.Fields[key]
}

type LifecycleStatus string

const (
	LifecycleActive   LifecycleStatus = "active"
	LifecycleNRND     LifecycleStatus = "nrnd"
	LifecycleObsolete LifecycleStatus = "obsolete"
	LifecycleUnknown  LifecycleStatus = "unknown"
)

// PriceBreak is one (quantity, unit price) tier.
type PriceBreak struct {
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
}

// Candidate is one normalized search result from the parts catalog.
type Candidate struct {
	ID                 string
	PartNumber         string
	SupplierPartNumber string
	Manufacturer       string
	Description        string
	Package            string
	UnitPrice          float64
	PriceBreaks        []PriceBreak
	Stock              int
	Lifecycle          LifecycleStatus
	DatasheetURL       string
	ProductURL         string
	Attributes         map[string]string
}

// SubScores keeps the per-criterion scores for explainability.
type SubScores struct {
	Stock     float64 `json:"stock"`
	Price     float64 `json:"price"`
	Lifecycle float64 `json:"lifecycle"`
	Package   float64 `json:"package"`
}

type ScoredCandidate struct {
	Candidate
	Score float64   `json:"score"`
	Sub   SubScores `json:"sub"`
}

// ExportRow is one row of the resolved BOM written by the export writer.
type ExportRow struct {
	RefDes             string
	Quantity           int
	Description        string
	Package            string
	MPN                string
	SupplierPartNumber string
	Manufacturer       string
	Value              string
	Voltage            string
	Stock              *int
	UnitPrice          *float64
	Lifecycle          string
	ProductURL         string
}
