package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"cotreport/config"
	"cotreport/internal/metrics"
	"cotreport/internal/pipeline"
	"cotreport/logger"
	"cotreport/reader"
	"cotreport/writer"
)

const (
	exitOK       = 0
	exitFailure  = 1
	exitDelivery = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "", "Path to configuration file (default depends on APP_ENV)")
	dryRun := flag.Bool("dry-run", false, "Build and print the report without sending it")
	sourceURL := flag.String("url", "", "Override the archive location ({year} is expanded)")
	instrument := flag.String("instrument", "", "Override the instrument name to match")
	flag.Parse()

	overrides := []config.Override{func(c *config.Config) {
		if *dryRun {
			c.Run.DryRun = true
		}
		if *sourceURL != "" {
			c.Source.URL = *sourceURL
		}
		if *instrument != "" {
			c.Instrument.Name = *instrument
		}
	}}

	cfg, err := config.LoadConfig(*configPath, overrides...)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		fmt.Fprintf(os.Stderr, "✗ ERROR: %v\n", err)
		return exitFailure
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		fmt.Fprintf(os.Stderr, "✗ ERROR: %v\n", err)
		return exitFailure
	}
	defer logger.LogSummary(log)

	env := config.AppEnvironment()
	log.WithEnv("APP_ENV", "LOG_LEVEL").WithComponent("main").WithFields(logger.Fields{
		"service":     cfg.COTReport.Name,
		"version":     cfg.COTReport.Version,
		"environment": env,
		"instrument":  cfg.Instrument.Name,
		"dry_run":     cfg.Run.DryRun,
	}).Info("starting cotreport")
	if config.IsProductionLike(env) && cfg.Run.DryRun {
		log.WithComponent("main").Warn("dry run in a production-like environment; the report will not be sent")
	}

	if cfg.Metrics.CloudWatch.Enabled {
		metrics.InitCloudWatch(cfg.Metrics.CloudWatch.Region, cfg.Metrics.CloudWatch.Namespace)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Run.Timeout)
	defer cancel()

	var notifier writer.Notifier
	if cfg.Notify.Enabled && !cfg.Run.DryRun {
		smtp, err := writer.NewSMTPNotifier(writer.SMTPConfig{
			Host:      cfg.Notify.SMTP.Host,
			Port:      cfg.Notify.SMTP.Port,
			Sender:    cfg.Notify.SMTP.Sender,
			Password:  cfg.Notify.SMTP.Password,
			Recipient: cfg.Notify.SMTP.Recipient,
		})
		if err != nil {
			log.WithComponent("main").WithError(err).Error("Failed to create notifier")
			fmt.Fprintf(os.Stderr, "✗ ERROR: %v\n", err)
			return exitFailure
		}
		notifier = smtp
	}

	banner("CFTC COT Weekly Report Generator")

	result, err := pipeline.New(cfg, reader.NewSource(cfg.Source), notifier, pipeline.WithLogger(log)).Run(ctx)
	if result != nil && result.Report != "" {
		fmt.Println(result.Report)
	}

	var delivery *writer.DeliveryError
	switch {
	case err == nil:
		if result.Delivered {
			fmt.Printf("✓ Email sent successfully to %s\n", cfg.Notify.SMTP.Recipient)
		}
		banner("✓ WEEKLY COT REPORT COMPLETED SUCCESSFULLY")
		return exitOK
	case errors.As(err, &delivery):
		fmt.Fprintf(os.Stderr, "✗ Error sending email: %v\n", delivery.Err)
		banner("✗ EMAIL SENDING FAILED")
		return exitDelivery
	default:
		fmt.Fprintf(os.Stderr, "\n✗ ERROR: %v\n", err)
		return exitFailure
	}
}

func banner(title string) {
	rule := strings.Repeat("=", 80)
	fmt.Printf("%s\n%s\n%s\n", rule, title, rule)
}
