package models

import (
	"errors"
	"strings"
	"testing"
)

func TestParseNumeric(t *testing.T) {
	cases := []struct {
		raw   string
		want  float64
		valid bool
	}{
		{"-1,234", -1234, true},
		{" 12,345,678 ", 12345678, true},
		{"10.5", 10.5, true},
		{"0", 0, true},
		{"", 0, false},
		{"   ", 0, false},
		{"n/a", 0, false},
		{"12x", 0, false},
		{"NaN", 0, false},
		{"nan", 0, false},
		{"Inf", 0, false},
		{"+Inf", 0, false},
		{"-Infinity", 0, false},
		{"1e400", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseNumeric(c.raw).Value()
		if ok != c.valid {
			t.Errorf("ParseNumeric(%q) valid = %v, want %v", c.raw, ok, c.valid)
			continue
		}
		if ok && got != c.want {
			t.Errorf("ParseNumeric(%q) = %v, want %v", c.raw, got, c.want)
		}
	}
}

func TestNumericZeroValueIsUnavailable(t *testing.T) {
	var n Numeric
	if n.IsAvailable() {
		t.Fatalf("zero Numeric should be unavailable")
	}
	if n.String() != "unavailable" {
		t.Fatalf("unexpected string: %s", n.String())
	}
	if Available(3).String() != "3" {
		t.Fatalf("unexpected string: %s", Available(3).String())
	}
}

func TestRawRowGet(t *testing.T) {
	row := RawRow{"a": "  x ", "b": "   "}
	if v, ok := row.Get("a"); !ok || v != "x" {
		t.Fatalf("Get(a) = %q, %v", v, ok)
	}
	if _, ok := row.Get("b"); ok {
		t.Fatalf("blank value should be reported missing")
	}
	if _, ok := row.Get("c"); ok {
		t.Fatalf("absent column should be reported missing")
	}
}

func TestSnapshotFieldMissing(t *testing.T) {
	var snap *ReportSnapshot
	if snap.Field(FieldOpenInterest).IsAvailable() {
		t.Fatalf("nil snapshot should yield unavailable fields")
	}
	snap = &ReportSnapshot{Fields: map[string]Numeric{FieldOpenInterest: Available(10)}}
	if v, ok := snap.OpenInterest().Value(); !ok || v != 10 {
		t.Fatalf("OpenInterest = %v, %v", v, ok)
	}
}

func TestPositionNet(t *testing.T) {
	p := Position{Long: 100, Short: 40, ChangeLong: -5, ChangeShort: 10}
	if p.Net() != 60 {
		t.Errorf("Net = %v, want 60", p.Net())
	}
	if p.NetChange() != -15 {
		t.Errorf("NetChange = %v, want -15", p.NetChange())
	}
}

func TestCategoryTotalsGet(t *testing.T) {
	totals := CategoryTotals{
		Reportable:    Position{Long: 1},
		NonCommercial: Position{Long: 2},
		Commercial:    Position{Long: 3},
		NonReportable: Position{Long: 4},
	}
	for i, c := range Categories {
		if got := totals.Get(c).Long; got != float64(i+1) {
			t.Errorf("%s long = %v, want %d", c, got, i+1)
		}
	}
}

func TestIncompleteAggregationError(t *testing.T) {
	var err error = &IncompleteAggregationError{Category: Commercial, Field: FieldPctDealerLong}
	if !errors.Is(err, ErrIncompleteAggregation) {
		t.Fatalf("expected errors.Is to match ErrIncompleteAggregation")
	}
	if !strings.Contains(err.Error(), FieldPctDealerLong) {
		t.Fatalf("error should name the field: %v", err)
	}
}
