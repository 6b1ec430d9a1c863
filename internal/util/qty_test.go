package util

import "testing"

func TestParseQuantity(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  int
		ok    bool
	}{
		{name: "plain", input: "4", want: 4, ok: true},
		{name: "with unit", input: "100 pcs", want: 100, ok: true},
		{name: "thousand with comma", input: "1,000", want: 1000, ok: true},
		{name: "thousand with dot", input: "1.000", want: 1000, ok: true},
		{name: "empty", input: "   ", ok: false},
		{name: "non numeric", input: "TBD", ok: false},
		{name: "zero", input: "0", ok: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseQuantity(tc.input)
			if ok != tc.ok {
				t.Fatalf("ok = %v want %v", ok, tc.ok)
			}
			if ok && got != tc.want {
				t.Fatalf("got %d want %d", got, tc.want)
			}
		})
	}
}

func TestParsePrice(t *testing.T) {
	cases := []struct {
		input string
		want  float64
		ok    bool
	}{
		{input: "$0.10", want: 0.10, ok: true},
		{input: "1,234.56", want: 1234.56, ok: true},
		{input: "0,078", want: 0.078, ok: true},
		{input: "", ok: false},
		{input: "call", ok: false},
	}
	for _, tc := range cases {
		got, ok := ParsePrice(tc.input)
		if ok != tc.ok {
			t.Fatalf("ParsePrice(%q) ok = %v want %v", tc.input, ok, tc.ok)
		}
		if ok && got != tc.want {
			t.Fatalf("ParsePrice(%q) = %v want %v", tc.input, got, tc.want)
		}
	}
}
