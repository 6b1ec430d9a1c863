package pipeline

import (
	"context"

	"go.uber.org/zap"

	"bompick/internal"
	"bompick/internal/catalog"
	"bompick/internal/config"
	"bompick/internal/session"
	"bompick/internal/util"
)

// Searcher is the slice of the catalog client the search flow needs.
type Searcher interface {
	SearchByPartNumber(ctx context.Context, mpn string) ([]map[string]any, error)
	SearchByKeyword(ctx context.Context, keyword, searchOptions string) ([]map[string]any, error)
}

// TermGenerator produces a search phrase for line items without an MPN.
type TermGenerator interface {
	SearchTerm(ctx context.Context, item internal.LineItem) string
}

// SearchService resolves candidates for consolidated line items: exact
// MPN lookup first, generated-keyword search otherwise.
type SearchService struct {
	cfg      config.Config
	searcher Searcher
	terms    TermGenerator
	log      *zap.Logger
}

func NewSearchService(cfg config.Config, searcher Searcher, terms TermGenerator, log *zap.Logger) *SearchService {
	return &SearchService{cfg: cfg, searcher: searcher, terms: terms, log: log}
}

// SearchLineItem fetches and normalizes candidates for one line item.
// The keyword override, when non-empty, skips both strategies.
func (s *SearchService) SearchLineItem(ctx context.Context, item internal.LineItem, keywordOverride string) ([]internal.Candidate, error) {
	searchOptions := "None"
	if s.cfg.InStockOnly {
		searchOptions = "InStock"
	}

	if keywordOverride != "" {
		raws, err := s.searcher.SearchByKeyword(ctx, keywordOverride, searchOptions)
		if err != nil {
			return nil, err
		}
		return catalog.NormalizeAll(raws, s.log), nil
	}

	if mpn := util.NormalizeMPN(item.Field(internal.FieldMPN)); mpn != "" {
		raws, err := s.searcher.SearchByPartNumber(ctx, mpn)
		if err != nil {
			return nil, err
		}
		if len(raws) > 0 {
			return catalog.NormalizeAll(raws, s.log), nil
		}
		s.log.Info("exact mpn search empty, falling back to keyword",
			zap.Int("lineItem", item.ID), zap.String("mpn", mpn))
	}

	term := s.terms.SearchTerm(ctx, item)
	if term == "" {
		s.log.Warn("no search term derivable for line item", zap.Int("lineItem", item.ID))
		return nil, nil
	}
	raws, err := s.searcher.SearchByKeyword(ctx, term, searchOptions)
	if err != nil {
		return nil, err
	}
	return catalog.NormalizeAll(raws, s.log), nil
}

// SearchSession resolves candidates for every line item (or a single one
// when lineID > 0) and stores them on the session. Per-item failures are
// logged and skipped so one bad search does not abort the batch.
func (s *SearchService) SearchSession(ctx context.Context, sess *session.Session, lineID int, keywordOverride string) (int, int, error) {
	searched := 0
	total := 0
	for _, item := range sess.Items {
		if lineID > 0 && item.ID != lineID {
			continue
		}
		candidates, err := s.SearchLineItem(ctx, item, keywordOverride)
		if err != nil {
			if ctx.Err() != nil {
				return searched, total, ctx.Err()
			}
			s.log.Warn("search failed for line item", zap.Int("lineItem", item.ID), zap.Error(err))
			continue
		}
		if err := sess.SetCandidates(item.ID, candidates); err != nil {
			return searched, total, err
		}
		searched++
		total += len(candidates)
		s.log.Info("candidates stored",
			zap.Int("lineItem", item.ID), zap.Int("candidates", len(candidates)))
	}
	return searched, total, nil
}
