package pipeline

import (
	"sort"
	"strings"

	"bompick/internal"
	"bompick/internal/util"
)

// Weights are a design constant so rankings stay comparable across
// sessions.
const (
	weightStock     = 0.30
	weightPrice     = 0.50
	weightLifecycle = 0.10
	weightPackage   = 0.10
)

type RankOptions struct {
	// AllowObsolete lets obsolete parts through the pre-filter.
	AllowObsolete bool
	// ExcludeOutOfStock drops zero-stock candidates instead of only
	// deprioritizing them.
	ExcludeOutOfStock bool
	// Limit truncates the result; 0 means no limit.
	Limit int
}

// Rank orders candidates for a line item, best first. Ties keep the
// original fetch order. The engine mutates neither the line item nor the
// candidates, and an empty input yields an empty result.
func Rank(item internal.LineItem, candidates []internal.Candidate, opts RankOptions) []internal.ScoredCandidate {
	filtered := make([]internal.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Lifecycle == internal.LifecycleObsolete && !opts.AllowObsolete {
			continue
		}
		if opts.ExcludeOutOfStock && c.Stock <= 0 {
			continue
		}
		filtered = append(filtered, c)
	}
	if len(filtered) == 0 {
		return []internal.ScoredCandidate{}
	}

	need := item.Quantity
	if need < 1 {
		need = 1
	}
	targetPkg := util.NormalizePackage(item.Field(internal.FieldPackage))

	// Price is relative within the comparison set: the cheapest usable
	// price at the required quantity anchors 1.0.
	prices := make([]float64, len(filtered))
	cheapest := 0.0
	for i, c := range filtered {
		prices[i] = priceAtQuantity(c, need)
		if prices[i] > 0 && (cheapest == 0 || prices[i] < cheapest) {
			cheapest = prices[i]
		}
	}

	scored := make([]internal.ScoredCandidate, 0, len(filtered))
	for i, c := range filtered {
		sub := internal.SubScores{
			Stock:     stockScore(c.Stock, need),
			Price:     priceScore(prices[i], cheapest),
			Lifecycle: lifecycleScore(c.Lifecycle),
			Package:   packageScore(c.Package, targetPkg),
		}
		scored = append(scored, internal.ScoredCandidate{
			Candidate: c,
			Score: weightStock*sub.Stock +
				weightPrice*sub.Price +
				weightLifecycle*sub.Lifecycle +
				weightPackage*sub.Package,
			Sub: sub,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if opts.Limit > 0 && len(scored) > opts.Limit {
		scored = scored[:opts.Limit]
	}
	return scored
}

// priceAtQuantity resolves the unit price at the required quantity:
// the applicable break, else the next-higher break, else the flat unit
// price. Returns 0 when no usable price exists.
func priceAtQuantity(c internal.Candidate, qty int) float64 {
	var applicable, nextHigher float64
	applicableQty := -1
	nextHigherQty := -1

	for _, pb := range c.PriceBreaks {
		if pb.Price <= 0 {
			continue
		}
		if pb.Quantity <= qty && pb.Quantity > applicableQty {
			applicable = pb.Price
			applicableQty = pb.Quantity
		}
		if pb.Quantity > qty && (nextHigherQty == -1 || pb.Quantity < nextHigherQty) {
			nextHigher = pb.Price
			nextHigherQty = pb.Quantity
		}
	}

	if applicableQty >= 0 {
		return applicable
	}
	if nextHigherQty >= 0 {
		return nextHigher
	}
	if c.UnitPrice > 0 {
		return c.UnitPrice
	}
	return 0
}

// stockScore saturates at the required quantity: having more than enough
// stock adds no further value.
func stockScore(stock, need int) float64 {
	if stock <= 0 {
		return 0
	}
	ratio := float64(stock) / float64(need)
	if ratio >= 1 {
		return 1
	}
	return ratio
}

// priceScore decays as price rises above the set minimum and never goes
// negative. Unpriced candidates score 0 unless nothing in the set is
// priced.
func priceScore(price, cheapest float64) float64 {
	if cheapest <= 0 {
		return 1
	}
	if price <= 0 {
		return 0
	}
	return cheapest / price
}

func lifecycleScore(status internal.LifecycleStatus) float64 {
	switch status {
	case internal.LifecycleActive:
		return 1.0
	case internal.LifecycleNRND:
		return 0.4
	case internal.LifecycleObsolete:
		return 0.0
	default:
		return 0.3
	}
}

// packageScore gives full credit for an exact normalized match, partial
// credit when one footprint string contains the other ("0603" inside
// "0603 (1608 Metric)"), and full credit by convention when the line item
// specifies no package at all.
func packageScore(candidatePkg, targetPkg string) float64 {
	if targetPkg == "" {
		return 1.0
	}
	pkg := util.NormalizePackage(candidatePkg)
	if pkg == "" {
		return 0.0
	}
	if pkg == targetPkg {
		return 1.0
	}
	if strings.Contains(pkg, targetPkg) || strings.Contains(targetPkg, pkg) {
		return 0.5
	}
	return 0.0
}
