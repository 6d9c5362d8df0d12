package writer

import (
	"fmt"
	"strings"
	"time"

	"cotreport/models"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	ruleWidth     = 79
	dashWidth     = 75
	labelWidth    = 30
	positionWidth = 15
	changeWidth   = 12

	// GeneratedLayout is the timestamp format of the report header.
	GeneratedLayout = "2006-01-02 15:04:05"
)

// ReportMeta is the header information printed above the figures.
type ReportMeta struct {
	Title       string
	ReportDate  string
	SourceLabel string
	GeneratedAt time.Time
}

var numberPrinter = message.NewPrinter(language.English)

// FormatReport renders the category totals as the weekly fixed-width text
// report. Net rows are derived here. Output depends only on its arguments.
func FormatReport(totals models.CategoryTotals, meta ReportMeta) string {
	rule := strings.Repeat("=", ruleWidth)

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "CFTC COT REPORT - %s\n", meta.Title)
	fmt.Fprintf(&b, "Report Date: %s\n", meta.ReportDate)
	fmt.Fprintf(&b, "Source: %s\n", meta.SourceLabel)
	fmt.Fprintf(&b, "Generated: %s\n", meta.GeneratedAt.Format(GeneratedLayout))
	b.WriteString(rule + "\n")
	b.WriteString("\n")
	b.WriteString(rule + "\n")
	b.WriteString("FUTURES OPEN INTEREST\n")
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "%-32s%-20s%s\n", "Category", "Position", "Chg")
	b.WriteString(strings.Repeat("-", dashWidth) + "\n")

	for _, cat := range models.Categories {
		pos := totals.Get(cat)
		b.WriteString("\n")
		fmt.Fprintf(&b, "▼ %s\n", cat)
		writeLine(&b, "Long", pos.Long, pos.ChangeLong)
		writeLine(&b, "Short", pos.Short, pos.ChangeShort)
		writeLine(&b, "Net", pos.Net(), pos.NetChange())
	}

	b.WriteString("\n")
	b.WriteString(rule + "\n")
	b.WriteString("✓ COT Report Generated Successfully!\n")
	b.WriteString(rule + "\n")
	return b.String()
}

func writeLine(b *strings.Builder, label string, position, change float64) {
	fmt.Fprintf(b, "  %-*s%*s     %*s\n",
		labelWidth, label,
		positionWidth, FormatContracts(position),
		changeWidth, FormatContracts(change))
}

// FormatContracts renders a contract count with thousands separators and no
// decimals, e.g. -1234.6 as "-1,235".
func FormatContracts(v float64) string {
	s := numberPrinter.Sprintf("%.0f", v)
	if s == "-0" {
		return "0"
	}
	return s
}
