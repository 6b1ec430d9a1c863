// Package session owns the in-memory state of one BOM run: the
// consolidated line items, their candidate lists and the user's
// selections. State is explicit and passed by reference, never a
// process-wide singleton, so multiple sessions can coexist in one
// process.
package session

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"bompick/internal"
	"bompick/internal/util"
)

type Session struct {
	ID    string
	Name  string
	Items []internal.LineItem

	candidates map[int][]internal.Candidate
}

func New(name string, items []internal.LineItem) *Session {
	return &Session{
		ID:         uuid.NewString(),
		Name:       name,
		Items:      items,
		candidates: map[int][]internal.Candidate{},
	}
}

// Restore rebuilds a session from persisted state.
func Restore(id, name string, items []internal.LineItem, candidates map[int][]internal.Candidate) *Session {
	if candidates == nil {
		candidates = map[int][]internal.Candidate{}
	}
	return &Session{ID: id, Name: name, Items: items, candidates: candidates}
}

func (s *Session) Item(itemID int) (*internal.LineItem, bool) {
	for i := range s.Items {
		if s.Items[i].ID == itemID {
			return &s.Items[i], true
		}
	}
	return nil, false
}

func (s *Session) SetCandidates(itemID int, candidates []internal.Candidate) error {
	if _, ok := s.Item(itemID); !ok {
		return fmt.Errorf("unknown line item: %d", itemID)
	}
	s.candidates[itemID] = candidates
	return nil
}

func (s *Session) Candidates(itemID int) []internal.Candidate {
	return s.candidates[itemID]
}

// Select commits the user's choice for a line item. The candidate must be
// one of the stored search results.
func (s *Session) Select(itemID int, candidateID string) error {
	item, ok := s.Item(itemID)
	if !ok {
		return fmt.Errorf("unknown line item: %d", itemID)
	}
	for _, c := range s.candidates[itemID] {
		if c.ID == candidateID {
			item.SelectedCandidateID = util.StringPtr(candidateID)
			return nil
		}
	}
	return fmt.Errorf("candidate %q not among stored results for line item %d", candidateID, itemID)
}

// Selected resolves a line item's committed candidate, if any.
func (s *Session) Selected(itemID int) (internal.Candidate, bool) {
	item, ok := s.Item(itemID)
	if !ok || item.SelectedCandidateID == nil {
		return internal.Candidate{}, false
	}
	for _, c := range s.candidates[itemID] {
		if c.ID == *item.SelectedCandidateID {
			return c, true
		}
	}
	return internal.Candidate{}, false
}

// ExportRows assembles the resolved BOM. With onlySelected, line items
// without a committed candidate are skipped; otherwise they appear with
// blank part columns.
func (s *Session) ExportRows(onlySelected bool) []internal.ExportRow {
	rows := make([]internal.ExportRow, 0, len(s.Items))
	for _, item := range s.Items {
		selected, hasSelection := s.Selected(item.ID)
		if onlySelected && !hasSelection {
			continue
		}

		row := internal.ExportRow{
			RefDes:      strings.Join(item.RefDes, ", "),
			Quantity:    item.Quantity,
			Description: item.Field(internal.FieldDescription),
			Package:     item.Field(internal.FieldPackage),
			MPN:         item.Field(internal.FieldMPN),
			Value:       item.Field(internal.FieldValue),
			Voltage:     item.Field(internal.FieldVoltage),
		}
		if hasSelection {
			row.MPN = selected.PartNumber
			row.SupplierPartNumber = selected.SupplierPartNumber
			row.Manufacturer = selected.Manufacturer
			if selected.Description != "" {
				row.Description = selected.Description
			}
			if selected.Package != "" {
				row.Package = selected.Package
			}
			row.Stock = util.IntPtr(selected.Stock)
			if selected.UnitPrice > 0 {
				row.UnitPrice = util.FloatPtr(selected.UnitPrice)
			}
			row.Lifecycle = string(selected.Lifecycle)
			row.ProductURL = selected.ProductURL
		}
		rows = append(rows, row)
	}
	return rows
}
