package pipeline

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"bompick/internal"
	"bompick/internal/config"
	"bompick/internal/session"
)

type stubSearcher struct {
	byPart    map[string][]map[string]any
	byKeyword map[string][]map[string]any

	partCalls    []string
	keywordCalls []string
	err          error
}

func (s *stubSearcher) SearchByPartNumber(_ context.Context, mpn string) ([]map[string]any, error) {
	s.partCalls = append(s.partCalls, mpn)
	if s.err != nil {
		return nil, s.err
	}
	return s.byPart[mpn], nil
}

func (s *stubSearcher) SearchByKeyword(_ context.Context, keyword, _ string) ([]map[string]any, error) {
	s.keywordCalls = append(s.keywordCalls, keyword)
	if s.err != nil {
		return nil, s.err
	}
	return s.byKeyword[keyword], nil
}

type stubTerms struct{ term string }

func (s stubTerms) SearchTerm(_ context.Context, _ internal.LineItem) string { return s.term }

func mpnItem(id int, mpn string) internal.LineItem {
	return internal.LineItem{
		ID:       id,
		Fields:   map[internal.FieldKey]string{internal.FieldMPN: mpn},
		Quantity: 1,
	}
}

func TestSearchLineItemExactMPNFirst(t *testing.T) {
	searcher := &stubSearcher{
		byPart: map[string][]map[string]any{
			"NE555DR": {{"ManufacturerPartNumber": "NE555DR", "AvailabilityInStock": "100"}},
		},
	}
	svc := NewSearchService(config.Config{}, searcher, stubTerms{}, zap.NewNop())

	candidates, err := svc.SearchLineItem(context.Background(), mpnItem(1, "ne555dr"), "")
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 1 || candidates[0].PartNumber != "NE555DR" {
		t.Fatalf("candidates = %+v", candidates)
	}
	if len(searcher.partCalls) != 1 || searcher.partCalls[0] != "NE555DR" {
		t.Fatalf("mpn should be normalized for the exact lookup: %v", searcher.partCalls)
	}
	if len(searcher.keywordCalls) != 0 {
		t.Fatalf("keyword search should not run when the exact lookup hits: %v", searcher.keywordCalls)
	}
}

func TestSearchLineItemFallsBackToKeyword(t *testing.T) {
	searcher := &stubSearcher{
		byKeyword: map[string][]map[string]any{
			"1k resistor 0603": {{"PartNumber": "603-FALLBACK"}},
		},
	}
	svc := NewSearchService(config.Config{}, searcher, stubTerms{term: "1k resistor 0603"}, zap.NewNop())

	candidates, err := svc.SearchLineItem(context.Background(), mpnItem(1, "OBSCURE-MPN"), "")
	if err != nil {
		t.Fatal(err)
	}
	if len(searcher.partCalls) != 1 {
		t.Fatalf("exact lookup should be tried first: %v", searcher.partCalls)
	}
	if len(candidates) != 1 || candidates[0].SupplierPartNumber != "603-FALLBACK" {
		t.Fatalf("candidates = %+v", candidates)
	}
}

func TestSearchLineItemKeywordOverride(t *testing.T) {
	searcher := &stubSearcher{
		byKeyword: map[string][]map[string]any{
			"exact phrase": {{"PartNumber": "OVR"}},
		},
	}
	svc := NewSearchService(config.Config{}, searcher, stubTerms{term: "ignored"}, zap.NewNop())

	candidates, err := svc.SearchLineItem(context.Background(), mpnItem(1, "NE555DR"), "exact phrase")
	if err != nil {
		t.Fatal(err)
	}
	if len(searcher.partCalls) != 0 {
		t.Fatalf("override must skip the mpn lookup: %v", searcher.partCalls)
	}
	if len(candidates) != 1 || candidates[0].SupplierPartNumber != "OVR" {
		t.Fatalf("candidates = %+v", candidates)
	}
}

func TestSearchLineItemNoTerm(t *testing.T) {
	searcher := &stubSearcher{}
	svc := NewSearchService(config.Config{}, searcher, stubTerms{}, zap.NewNop())

	item := internal.LineItem{ID: 1, Fields: map[internal.FieldKey]string{}, Quantity: 1}
	candidates, err := svc.SearchLineItem(context.Background(), item, "")
	if err != nil {
		t.Fatal(err)
	}
	if candidates != nil {
		t.Fatalf("expected no candidates, got %+v", candidates)
	}
	if len(searcher.keywordCalls) != 0 {
		t.Fatalf("empty term must not hit the catalog: %v", searcher.keywordCalls)
	}
}

func TestSearchSessionSkipsFailedItems(t *testing.T) {
	searcher := &stubSearcher{err: errors.New("catalog down")}
	svc := NewSearchService(config.Config{}, searcher, stubTerms{term: "x"}, zap.NewNop())

	sess := session.New("t", []internal.LineItem{mpnItem(1, "A"), mpnItem(2, "B")})
	searched, total, err := svc.SearchSession(context.Background(), sess, 0, "")
	if err != nil {
		t.Fatalf("per-item failures must not abort the batch: %v", err)
	}
	if searched != 0 || total != 0 {
		t.Fatalf("searched=%d total=%d", searched, total)
	}
}

func TestSearchSessionSingleLine(t *testing.T) {
	searcher := &stubSearcher{
		byPart: map[string][]map[string]any{
			"A": {{"ManufacturerPartNumber": "A"}},
			"B": {{"ManufacturerPartNumber": "B"}},
		},
	}
	svc := NewSearchService(config.Config{}, searcher, stubTerms{}, zap.NewNop())

	sess := session.New("t", []internal.LineItem{mpnItem(1, "A"), mpnItem(2, "B")})
	searched, total, err := svc.SearchSession(context.Background(), sess, 2, "")
	if err != nil {
		t.Fatal(err)
	}
	if searched != 1 || total != 1 {
		t.Fatalf("searched=%d total=%d", searched, total)
	}
	if got := sess.Candidates(2); len(got) != 1 || got[0].PartNumber != "B" {
		t.Fatalf("candidates for line 2 = %+v", got)
	}
	if got := sess.Candidates(1); len(got) != 0 {
		t.Fatalf("line 1 should be untouched: %+v", got)
	}
}

func TestSearchSessionCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	searcher := &stubSearcher{err: ctx.Err()}
	svc := NewSearchService(config.Config{}, searcher, stubTerms{term: "x"}, zap.NewNop())

	sess := session.New("t", []internal.LineItem{mpnItem(1, "A")})
	if _, _, err := svc.SearchSession(ctx, sess, 0, ""); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
