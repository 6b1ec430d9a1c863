package pipeline

import (
	"fmt"
	"strings"

	"bompick/internal"
	"bompick/internal/util"
)

// Consolidate merges raw rows into unique line items. Rows sharing a
// normalized MPN always merge; rows without an MPN merge on their
// normalized (Value, Package) pair. Output order is first-seen order of
// the merge key. Malformed rows degrade to a minimal item instead of
// failing the file.
func Consolidate(columns internal.ColumnMap, rows []internal.RawRow) []internal.LineItem {
	order := make([]string, 0, len(rows))
	byKey := map[string]*internal.LineItem{}

	for rowNo, row := range rows {
		fields := extractFields(columns, row)
		if len(fields) == 0 {
			continue
		}

		key := mergeKey(fields, rowNo)
		item, ok := byKey[key]
		if !ok {
			item = &internal.LineItem{Fields: map[internal.FieldKey]string{}}
			byKey[key] = item
			order = append(order, key)
		}

		mergeFields(item, fields)

		for _, ref := range util.SplitRefDes(fields[internal.FieldRefDes]) {
			if !containsRef(item.RefDes, ref) {
				item.RefDes = append(item.RefDes, ref)
			}
		}
	}

	out := make([]internal.LineItem, 0, len(order))
	for i, key := range order {
		item := byKey[key]
		item.ID = i + 1
		util.SortRefDes(item.RefDes)
		item.Quantity = resolveQuantity(item)
		out = append(out, *item)
	}
	return out
}

// extractFields pulls FieldKey→value for one row. Empty and
// whitespace-only cells are absent, not empty strings.
func extractFields(columns internal.ColumnMap, row internal.RawRow) map[internal.FieldKey]string {
	fields := make(map[internal.FieldKey]string)
	for i, key := range columns {
		if i >= len(row) {
			break
		}
		value := strings.TrimSpace(row[i])
		if value == "" {
			continue
		}
		if _, exists := fields[key]; !exists {
			fields[key] = value
		}
	}
	return fields
}

// mergeKey computes the identity a row consolidates under. MPN wins when
// present; rows carrying neither MPN nor Value nor Package have no merge
// basis and stay individual.
func mergeKey(fields map[internal.FieldKey]string, rowNo int) string {
	if mpn := util.NormalizeMPN(fields[internal.FieldMPN]); mpn != "" {
		return "mpn:" + mpn
	}
	value := util.FoldValue(fields[internal.FieldValue])
	pkg := util.FoldValue(fields[internal.FieldPackage])
	if value == "" && pkg == "" {
		return fmt.Sprintf("row:%d", rowNo)
	}
	return "vp:" + value + "|" + pkg
}

// mergeFields applies first-non-empty-wins and records discrepancies.
func mergeFields(item *internal.LineItem, fields map[internal.FieldKey]string) {
	for key, value := range fields {
		if key == internal.FieldRefDes {
			continue
		}
		existing, ok := item.Fields[key]
		if !ok {
			item.Fields[key] = value
			continue
		}
		if existing != value {
			item.Conflicts = append(item.Conflicts, internal.MergeConflict{
				Field:   key,
				Kept:    existing,
				Dropped: value,
			})
		}
	}
}

// resolveQuantity trusts an explicit Quantity only when it exceeds the
// number of physically enumerated designators.
func resolveQuantity(item *internal.LineItem) int {
	qty := len(item.RefDes)
	if explicit, ok := util.ParseQuantity(item.Fields[internal.FieldQuantity]); ok && explicit > qty {
		qty = explicit
	}
	if qty == 0 {
		qty = 1
	}
	return qty
}

func containsRef(refs []string, ref string) bool {
	for _, r := range refs {
		if strings.EqualFold(r, ref) {
			return true
		}
	}
	return false
}
