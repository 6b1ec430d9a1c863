package pipeline

import (
	"errors"
	"testing"

	"bompick/internal"
)

func TestMapHeadersAliases(t *testing.T) {
	cases := []struct {
		header string
		want   internal.FieldKey
	}{
		{"RefDes", internal.FieldRefDes},
		{"Ref", internal.FieldRefDes},
		{"Reference Designator", internal.FieldRefDes},
		{"  designator ", internal.FieldRefDes},
		{"MPN", internal.FieldMPN},
		{"Manufacturer Part Number", internal.FieldMPN},
		{"Part#", internal.FieldMPN},
		{"Footprint", internal.FieldPackage},
		{"Case Code", internal.FieldPackage},
		{"Qty Per Board", internal.FieldQuantity},
		{"QTY", internal.FieldQuantity},
		{"Comment", internal.FieldDescription},
	}

	for _, tc := range cases {
		columns, err := MapHeaders([]string{tc.header})
		if err != nil {
			t.Fatal(err)
		}
		if columns[0] != tc.want {
			t.Fatalf("header %q mapped to %q want %q", tc.header, columns[0], tc.want)
		}
	}
}

func TestMapHeadersUnmatchedPreserved(t *testing.T) {
	columns, err := MapHeaders([]string{"RefDes", "Supplier Link"})
	if err != nil {
		t.Fatal(err)
	}
	if !columns[1].IsOther() {
		t.Fatalf("expected Other key, got %q", columns[1])
	}
	if columns[1].OtherName() != "Supplier Link" {
		t.Fatalf("original header lost: %q", columns[1].OtherName())
	}
}

func TestMapHeadersDuplicateDemotedToOther(t *testing.T) {
	columns, err := MapHeaders([]string{"Package", "Footprint", "RefDes"})
	if err != nil {
		t.Fatal(err)
	}
	if columns[0] != internal.FieldPackage {
		t.Fatalf("first occurrence should win, got %q", columns[0])
	}
	if !columns[1].IsOther() || columns[1].OtherName() != "Footprint" {
		t.Fatalf("duplicate should demote to Other, got %q", columns[1])
	}
	if columns[2] != internal.FieldRefDes {
		t.Fatalf("unrelated column affected: %q", columns[2])
	}
}

func TestMapHeadersEmpty(t *testing.T) {
	var schemaErr *SchemaError

	if _, err := MapHeaders(nil); !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError for empty header row, got %v", err)
	}
	if _, err := MapHeaders([]string{"", "  ", "\t"}); !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError for blank headers, got %v", err)
	}
}
