package writer

import (
	"context"
	"fmt"
	"time"

	"cotreport/logger"

	"gopkg.in/gomail.v2"
)

// Message is a plain-text notification.
type Message struct {
	Subject string
	Body    string
}

// Notifier delivers a finished report. The recipient belongs to the notifier.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, msg Message) error

func (f NotifierFunc) Send(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// Subject is the mail subject for a report date.
func Subject(reportDate string) string {
	return "Weekly CFTC COT Report - " + reportDate
}

// DeliveryError reports that a report was produced but could not be sent.
type DeliveryError struct {
	Recipient string
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver report to %s: %v", e.Recipient, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// SMTPConfig holds the mail server and account used for delivery.
type SMTPConfig struct {
	Host      string
	Port      int
	Sender    string
	Password  string
	Recipient string
}

type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPNotifier sends reports by mail. Port 465 uses implicit TLS, any other
// port upgrades with STARTTLS when the server offers it.
type SMTPNotifier struct {
	cfg    SMTPConfig
	sender mailSender
	log    *logger.Log
}

func NewSMTPNotifier(cfg SMTPConfig) (*SMTPNotifier, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("smtp port %d is out of range", cfg.Port)
	}
	if cfg.Sender == "" || cfg.Password == "" {
		return nil, fmt.Errorf("smtp sender and password are required")
	}
	if cfg.Recipient == "" {
		return nil, fmt.Errorf("smtp recipient is required")
	}

	return &SMTPNotifier{
		cfg:    cfg,
		sender: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Sender, cfg.Password),
		log:    logger.GetLogger(),
	}, nil
}

func (n *SMTPNotifier) Send(ctx context.Context, msg Message) error {
	log := n.log.WithComponent("notifier").WithFields(logger.Fields{
		"recipient": n.cfg.Recipient,
		"smtp_host": n.cfg.Host,
		"subject":   msg.Subject,
	})

	if err := ctx.Err(); err != nil {
		return &DeliveryError{Recipient: n.cfg.Recipient, Err: err}
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.cfg.Sender)
	m.SetHeader("To", n.cfg.Recipient)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	start := time.Now()
	// gomail has no context support. After cancellation the dial and send keep
	// running in the background and the mail may still go out; done is
	// buffered so that goroutine can always exit.
	done := make(chan error, 1)
	go func() {
		done <- n.sender.DialAndSend(m)
	}()

	select {
	case <-ctx.Done():
		log.WithError(ctx.Err()).Error("report delivery abandoned")
		return &DeliveryError{Recipient: n.cfg.Recipient, Err: ctx.Err()}
	case err := <-done:
		if err != nil {
			log.WithError(err).Error("failed to send report")
			return &DeliveryError{Recipient: n.cfg.Recipient, Err: err}
		}
	}

	logger.LogPerformanceEntry(log, "notifier", "smtp_send", time.Since(start), nil)
	log.Info("report sent")
	return nil
}
