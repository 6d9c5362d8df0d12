package processor

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cotreport/logger"
	"cotreport/models"
)

// RowSource yields table rows one at a time and io.EOF at the end.
type RowSource interface {
	Next() (models.RawRow, error)
}

// Selection describes which rows make up a snapshot.
type Selection struct {
	// Instrument is matched as a case-sensitive substring of NameField.
	Instrument    string
	NameField     string
	DateField     string
	NumericFields []string
}

func (s Selection) withDefaults() Selection {
	if s.NameField == "" {
		s.NameField = models.FieldMarketName
	}
	if s.DateField == "" {
		s.DateField = models.FieldReportDate
	}
	if s.NumericFields == nil {
		s.NumericFields = models.NumericFields
	}
	return s
}

// Layouts the publisher has used for report dates.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"060102",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// SelectSnapshot scans rows once, keeping the instrument's rows at its most
// recent report date, and coerces the numeric fields of the first of them.
func SelectSnapshot(rows RowSource, sel Selection) (*models.ReportSnapshot, error) {
	sel = sel.withDefaults()
	if sel.Instrument == "" {
		return nil, fmt.Errorf("%w: empty instrument name", models.ErrNoMatchingInstrument)
	}

	log := logger.GetLogger().WithComponent("processor").WithFields(logger.Fields{
		"instrument": sel.Instrument,
		"operation":  "select_snapshot",
	})

	var (
		matched int
		latest  string
		bucket  []models.RawRow
	)

	for {
		row, err := rows.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		name, ok := row.Get(sel.NameField)
		if !ok || !strings.Contains(name, sel.Instrument) {
			continue
		}
		matched++

		date, ok := row.Get(sel.DateField)
		if !ok {
			log.WithFields(logger.Fields{"market": name}).Debug("row has no report date")
			continue
		}

		switch cmp := compareDates(date, latest); {
		case len(bucket) == 0 || cmp > 0:
			latest = date
			bucket = []models.RawRow{row}
		case cmp == 0:
			bucket = append(bucket, row)
		}
	}

	if matched == 0 {
		return nil, fmt.Errorf("%w: %q in column %s", models.ErrNoMatchingInstrument, sel.Instrument, sel.NameField)
	}
	if len(bucket) == 0 {
		return nil, fmt.Errorf("%w: %d rows for %q but none has a %s value",
			models.ErrAmbiguousSnapshot, matched, sel.Instrument, sel.DateField)
	}

	if len(bucket) > 1 {
		log.WithFields(logger.Fields{
			"report_date": latest,
			"row_count":   len(bucket),
		}).Warn("several rows share the latest report date; using the first")
	}

	first := bucket[0]
	fields := make(map[string]models.Numeric, len(sel.NumericFields))
	for _, f := range sel.NumericFields {
		raw, _ := first.Get(f)
		fields[f] = models.ParseNumeric(raw)
	}

	instrument, _ := first.Get(sel.NameField)
	log.WithFields(logger.Fields{
		"market":       instrument,
		"report_date":  latest,
		"rows_matched": matched,
	}).Info("snapshot selected")

	return &models.ReportSnapshot{
		Instrument: instrument,
		ReportDate: latest,
		Rows:       bucket,
		Fields:     fields,
		Matched:    matched,
	}, nil
}

// compareDates orders two report dates. Values that both parse with a known
// layout are compared as times, anything else as plain strings.
func compareDates(a, b string) int {
	for _, layout := range dateLayouts {
		ta, errA := time.Parse(layout, a)
		if errA != nil {
			continue
		}
		tb, errB := time.Parse(layout, b)
		if errB != nil {
			continue
		}
		switch {
		case ta.Before(tb):
			return -1
		case ta.After(tb):
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}
