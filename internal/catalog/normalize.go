package catalog

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"bompick/internal"
	"bompick/internal/util"
)

// CandidateParseError means one raw record cannot become a rankable
// Candidate. The record is skipped; the rest of the search continues.
type CandidateParseError struct {
	Reason string
}

func (e *CandidateParseError) Error() string {
	return fmt.Sprintf("candidate parse error: %s", e.Reason)
}

// Normalize maps one raw catalog record into the canonical Candidate
// shape. Missing optional fields get conservative defaults: zero stock,
// unknown lifecycle, the flat unit price as the sole break.
func Normalize(raw map[string]any) (internal.Candidate, error) {
	mpn := firstString(raw, "ManufacturerPartNumber", "MfrPartNumber")
	supplierPN := firstString(raw, "MouserPartNumber", "PartNumber")
	if mpn == "" && supplierPN == "" {
		return internal.Candidate{}, &CandidateParseError{Reason: "record has no part number"}
	}

	c := internal.Candidate{
		PartNumber:         mpn,
		SupplierPartNumber: supplierPN,
		Manufacturer:       firstString(raw, "Manufacturer", "Mfr"),
		Description:        firstString(raw, "Description", "ProductDescription"),
		Package:            firstString(raw, "Package", "CaseCode"),
		Stock:              parseStock(raw),
		Lifecycle:          ParseLifecycle(firstString(raw, "LifecycleStatus", "Status")),
		DatasheetURL:       firstString(raw, "DataSheetUrl", "DataSheet"),
		ProductURL:         firstString(raw, "ProductDetailUrl", "ProductUrl"),
		PriceBreaks:        parsePriceBreaks(raw["PriceBreaks"]),
		Attributes:         parseAttributes(raw["ProductAttributes"]),
	}

	c.ID = c.SupplierPartNumber
	if c.ID == "" {
		c.ID = c.PartNumber
	}

	if c.Package == "" {
		c.Package = c.Attributes["Package / Case"]
	}

	sort.SliceStable(c.PriceBreaks, func(i, j int) bool {
		return c.PriceBreaks[i].Quantity < c.PriceBreaks[j].Quantity
	})
	if len(c.PriceBreaks) > 0 {
		c.UnitPrice = c.PriceBreaks[0].Price
	}
	if len(c.PriceBreaks) == 0 && c.UnitPrice > 0 {
		c.PriceBreaks = []internal.PriceBreak{{Quantity: 1, Price: c.UnitPrice, Currency: "USD"}}
	}

	return c, nil
}

// NormalizeAll converts a batch, skipping unusable records instead of
// failing the whole search.
func NormalizeAll(raws []map[string]any, log *zap.Logger) []internal.Candidate {
	out := make([]internal.Candidate, 0, len(raws))
	skipped := 0
	for _, raw := range raws {
		c, err := Normalize(raw)
		if err != nil {
			skipped++
			continue
		}
		out = append(out, c)
	}
	if skipped > 0 {
		log.Warn("skipped unusable candidate records", zap.Int("skipped", skipped), zap.Int("kept", len(out)))
	}
	return out
}

// ParseLifecycle folds the vendor's free-form status into the enum.
func ParseLifecycle(status string) internal.LifecycleStatus {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "ACTIVE", "NEW", "NEW PRODUCT", "NEW AT MOUSER", "LIFEBUY":
		return internal.LifecycleActive
	case "NRND", "NOT RECOMMENDED FOR NEW DESIGNS", "LAST TIME BUY":
		return internal.LifecycleNRND
	case "OBSOLETE", "EOL", "END OF LIFE", "END OF LIFE (EOL)", "DISCONTINUED":
		return internal.LifecycleObsolete
	default:
		return internal.LifecycleUnknown
	}
}

func parseStock(raw map[string]any) int {
	if s := firstString(raw, "AvailabilityInStock"); s != "" {
		if n, err := strconv.Atoi(strings.ReplaceAll(s, ",", "")); err == nil && n >= 0 {
			return n
		}
	}

	switch availability := raw["Availability"].(type) {
	case map[string]any:
		if n, ok := toInt(availability["OnHand"]); ok {
			return n
		}
		if n, ok := toInt(availability["Quantity"]); ok {
			return n
		}
	case string:
		// "4000 In Stock" or a bare number.
		fields := strings.Fields(availability)
		if len(fields) > 0 {
			if n, err := strconv.Atoi(strings.ReplaceAll(fields[0], ",", "")); err == nil && n >= 0 {
				return n
			}
		}
	}
	return 0
}

func parsePriceBreaks(v any) []internal.PriceBreak {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]internal.PriceBreak, 0, len(arr))
	for _, item := range arr {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		qty, ok := toInt(m["Quantity"])
		if !ok || qty <= 0 {
			continue
		}
		price, ok := toPrice(m["Price"])
		if !ok {
			continue
		}
		currency, _ := m["Currency"].(string)
		if currency == "" {
			currency = "USD"
		}
		out = append(out, internal.PriceBreak{Quantity: qty, Price: price, Currency: currency})
	}
	return out
}

func parseAttributes(v any) map[string]string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := map[string]string{}
	for _, item := range arr {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name, _ := m["AttributeName"].(string)
		value, _ := m["AttributeValue"].(string)
		if strings.TrimSpace(name) != "" && strings.TrimSpace(value) != "" {
			out[strings.TrimSpace(name)] = strings.TrimSpace(value)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func firstString(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := raw[key].(string); ok {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

func toInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	case string:
		n, err := strconv.Atoi(strings.ReplaceAll(strings.TrimSpace(t), ",", ""))
		return n, err == nil
	default:
		return 0, false
	}
}

func toPrice(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, t >= 0
	case int:
		return float64(t), t >= 0
	case string:
		return util.ParsePrice(t)
	default:
		return 0, false
	}
}
