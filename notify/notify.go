// Package notify delivers best-effort check-in notifications. Callers log
// delivery errors and never let them change a check-in result.
package notify

import (
	"context"
	"errors"

	"github.com/cppla/evsign/config"
)

// Notifier sends one human readable notification.
type Notifier interface {
	Notify(ctx context.Context, title, message string) error
}

// Func adapts a plain function to Notifier.
type Func func(ctx context.Context, title, message string) error

// Notify calls f.
func (f Func) Notify(ctx context.Context, title, message string) error {
	return f(ctx, title, message)
}

// Nop discards every notification.
type Nop struct{}

// Notify does nothing.
func (Nop) Notify(context.Context, string, string) error { return nil }

// Multi fans a notification out to every channel and joins their errors.
type Multi []Notifier

// Notify delivers to all channels even when some of them fail.
func (m Multi) Notify(ctx context.Context, title, message string) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, title, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FromConfig builds the channels whose required settings are present.
func FromConfig(cfg config.AppConfig) Notifier {
	var m Multi
	if cfg.BarkURL != "" {
		m = append(m, NewBark(cfg.BarkURL, cfg.BarkGroup))
	}
	if cfg.SMTPHost != "" && cfg.SMTPFrom != "" && cfg.NotifyMailTo != "" {
		m = append(m, NewMailer(MailConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			FromName: cfg.SMTPFromName,
			TLS:      cfg.SMTPTLS,
			To:       cfg.NotifyMailTo,
		}))
	}
	if cfg.SlackBotToken != "" && cfg.SlackChannelID != "" {
		m = append(m, NewSlack(cfg.SlackBotToken, cfg.SlackChannelID))
	}
	if cfg.AMQPURL != "" {
		m = append(m, NewAMQP(cfg.AMQPURL, cfg.AMQPQueue))
	}
	switch len(m) {
	case 0:
		return Nop{}
	case 1:
		return m[0]
	}
	return m
}
