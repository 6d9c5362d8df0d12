package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"cotreport/config"
	"cotreport/internal/metrics"
	"cotreport/logger"
	"cotreport/models"
	"cotreport/processor"
	"cotreport/reader"
	"cotreport/writer"
)

// Stage names used in errors, logs and metrics.
const (
	StageFetch     = "fetch"
	StageDecode    = "decode"
	StageSelect    = "select"
	StageAggregate = "aggregate"
	StageNotify    = "notify"
)

// StageError records which step of a run failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Result describes a run. Report is empty unless every core stage succeeded.
type Result struct {
	RunID      string
	URL        string
	ReportDate string
	Report     string
	Totals     models.CategoryTotals
	Snapshot   *models.ReportSnapshot
	Delivered  bool
}

// Pipeline fetches the archive, builds the report and hands it to the notifier.
type Pipeline struct {
	cfg      *config.Config
	source   reader.Source
	notifier writer.Notifier
	now      func() time.Time
	dryRun   bool
	log      *logger.Log
}

type Option func(*Pipeline)

// WithClock sets the clock used for the report timestamp and the {year}
// placeholder of the source URL.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// WithDryRun builds the report without delivering it.
func WithDryRun(dryRun bool) Option {
	return func(p *Pipeline) {
		p.dryRun = dryRun
	}
}

func WithLogger(log *logger.Log) Option {
	return func(p *Pipeline) {
		if log != nil {
			p.log = log
		}
	}
}

// New creates a pipeline. notifier may be nil when delivery is disabled.
func New(cfg *config.Config, source reader.Source, notifier writer.Notifier, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:      cfg,
		source:   source,
		notifier: notifier,
		now:      time.Now,
		dryRun:   cfg.Run.DryRun,
		log:      logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one report run. The returned Result is never nil; on a
// delivery failure it still carries the report.
func (p *Pipeline) Run(ctx context.Context) (result *Result, err error) {
	started := time.Now()
	generatedAt := p.now()
	result = &Result{RunID: uuid.NewString()}

	log := p.log.WithComponent("pipeline").WithFields(logger.Fields{
		"run_id":     result.RunID,
		"instrument": p.cfg.Instrument.Name,
	})

	stats := metrics.RunStats{Instrument: p.cfg.Instrument.Name}
	defer func() {
		stats.Duration = time.Since(started)
		stats.Success = err == nil
		var stageErr *StageError
		if errors.As(err, &stageErr) {
			stats.Stage = stageErr.Stage
		}
		metrics.ReportRun(p.log, stats)
	}()

	fail := func(stage string, cause error) (*Result, error) {
		log.WithFields(logger.Fields{"stage": stage}).WithError(cause).Error("report run failed")
		return result, &StageError{Stage: stage, Err: cause}
	}

	result.URL = reader.ExpandURL(p.cfg.Source.URL, generatedAt)
	log = log.WithField("url", result.URL)
	log.Info("report run started")

	stageStart := time.Now()
	data, err := p.source.Fetch(ctx, result.URL)
	if err != nil {
		return fail(StageFetch, err)
	}
	stats.ArchiveBytes = len(data)
	logger.LogPerformanceEntry(log, "reader", StageFetch, time.Since(stageStart), logger.Fields{"bytes": len(data)})

	stageStart = time.Now()
	rows, err := reader.DecodeArchive(data)
	if err != nil {
		return fail(StageDecode, err)
	}
	defer rows.Close()

	snap, err := processor.SelectSnapshot(rows, processor.Selection{
		Instrument:    p.cfg.Instrument.Name,
		NameField:     p.cfg.Instrument.NameField,
		DateField:     p.cfg.Instrument.DateField,
		NumericFields: models.NumericFields,
	})
	stats.RowsDecoded = rows.Count()
	if err != nil {
		if errors.Is(err, models.ErrMalformedTable) {
			return fail(StageDecode, err)
		}
		return fail(StageSelect, err)
	}
	stats.RowsMatched = snap.Matched
	stats.SnapshotRows = len(snap.Rows)
	result.Snapshot = snap
	result.ReportDate = snap.ReportDate
	logger.LogDataFlowEntry(log, rows.Name(), "snapshot", rows.Count(), "cot_rows")
	logger.LogPerformanceEntry(log, "processor", StageSelect, time.Since(stageStart), logger.Fields{
		"rows_decoded": rows.Count(),
		"rows_matched": snap.Matched,
	})

	totals, err := processor.Aggregate(snap)
	if err != nil {
		return fail(StageAggregate, err)
	}
	result.Totals = totals

	result.Report = writer.FormatReport(totals, writer.ReportMeta{
		Title:       p.cfg.Instrument.Title,
		ReportDate:  snap.ReportDate,
		SourceLabel: p.cfg.Instrument.SourceLabel,
		GeneratedAt: generatedAt,
	})
	log = log.WithField("report_date", snap.ReportDate)
	log.Info("report generated")

	if p.dryRun || !p.cfg.Notify.Enabled {
		log.WithFields(logger.Fields{
			"dry_run":        p.dryRun,
			"notify_enabled": p.cfg.Notify.Enabled,
		}).Info("delivery skipped")
		return result, nil
	}

	if err := p.deliver(ctx, snap.ReportDate, result.Report); err != nil {
		return fail(StageNotify, err)
	}
	result.Delivered = true
	log.Info("report run completed")
	return result, nil
}

func (p *Pipeline) deliver(ctx context.Context, reportDate, report string) error {
	recipient := p.cfg.Notify.SMTP.Recipient
	if p.notifier == nil {
		return &writer.DeliveryError{Recipient: recipient, Err: errors.New("no notifier configured")}
	}

	err := p.notifier.Send(ctx, writer.Message{
		Subject: writer.Subject(reportDate),
		Body:    report,
	})
	if err == nil {
		return nil
	}

	var delivery *writer.DeliveryError
	if errors.As(err, &delivery) {
		return err
	}
	return &writer.DeliveryError{Recipient: recipient, Err: err}
}
