package models

import (
	"math"
	"strconv"
	"strings"
)

/////////////////////////////////////////////////////////////////////////////
////////////////////////////////// ROWS /////////////////////////////////////
/////////////////////////////////////////////////////////////////////////////

// RawRow is one record of the published table keyed by column name.
// Values are the untouched cell text.
type RawRow map[string]string

// Get returns the trimmed value of a column and whether it was present and non-empty.
func (r RawRow) Get(column string) (string, bool) {
	v, ok := r[column]
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

// Numeric is either an available float value or Unavailable.
// The zero value is Unavailable.
type Numeric struct {
	value float64
	valid bool
}

// Available wraps a parsed value.
func Available(v float64) Numeric {
	return Numeric{value: v, valid: true}
}

// Unavailable marks a field that was missing or could not be parsed.
func Unavailable() Numeric {
	return Numeric{}
}

// Value returns the number and whether it is available.
func (n Numeric) Value() (float64, bool) {
	return n.value, n.valid
}

// IsAvailable reports whether the field holds a number.
func (n Numeric) IsAvailable() bool {
	return n.valid
}

func (n Numeric) String() string {
	if !n.valid {
		return "unavailable"
	}
	return strconv.FormatFloat(n.value, 'f', -1, 64)
}

// ParseNumeric strips thousands separators and whitespace and parses the
// result. Anything that does not parse, and NaN or infinite values, become
// Unavailable.
func ParseNumeric(raw string) Numeric {
	s := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if s == "" {
		return Unavailable()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Unavailable()
	}
	return Available(v)
}

/////////////////////////////////////////////////////////////////////////////
//////////////////////////////// SNAPSHOT ///////////////////////////////////
/////////////////////////////////////////////////////////////////////////////

// ReportSnapshot holds the rows of one instrument at its latest report date
// together with the numeric fields coerced from the first of those rows.
// Matched counts the instrument's rows across every date in the table.
type ReportSnapshot struct {
	Instrument string
	ReportDate string
	Rows       []RawRow
	Fields     map[string]Numeric
	Matched    int
}

// Field returns the coerced value of a column. Columns that were never
// coerced are Unavailable.
func (s *ReportSnapshot) Field(name string) Numeric {
	if s == nil || s.Fields == nil {
		return Unavailable()
	}
	return s.Fields[name]
}

// OpenInterest is the total open interest of the snapshot.
func (s *ReportSnapshot) OpenInterest() Numeric {
	return s.Field(FieldOpenInterest)
}

/////////////////////////////////////////////////////////////////////////////
//////////////////////////////// CATEGORIES /////////////////////////////////
/////////////////////////////////////////////////////////////////////////////

// Category identifies one of the four reporting groups.
type Category int

const (
	Reportable Category = iota
	NonCommercial
	Commercial
	NonReportable
)

// Categories lists the groups in report order.
var Categories = []Category{Reportable, NonCommercial, Commercial, NonReportable}

func (c Category) String() string {
	switch c {
	case Reportable:
		return "Reportable"
	case NonCommercial:
		return "Non-Commercial"
	case Commercial:
		return "Commercial"
	case NonReportable:
		return "Non-Reportable"
	default:
		return "Unknown"
	}
}

// Position is the aggregate for one category. Values are contract counts.
type Position struct {
	Long        float64
	Short       float64
	ChangeLong  float64
	ChangeShort float64
}

// Net is long minus short.
func (p Position) Net() float64 {
	return p.Long - p.Short
}

// NetChange is the long change minus the short change.
func (p Position) NetChange() float64 {
	return p.ChangeLong - p.ChangeShort
}

// CategoryTotals carries the four aggregated groups.
type CategoryTotals struct {
	Reportable    Position
	NonCommercial Position
	Commercial    Position
	NonReportable Position
}

// Get returns the position of a category.
func (t CategoryTotals) Get(c Category) Position {
	switch c {
	case Reportable:
		return t.Reportable
	case NonCommercial:
		return t.NonCommercial
	case Commercial:
		return t.Commercial
	case NonReportable:
		return t.NonReportable
	default:
		return Position{}
	}
}
