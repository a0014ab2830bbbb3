// Package notify delivers appointment emails and text messages. Delivery is
// best-effort: every method reports failure as an error and never panics, and
// callers decide whether a failure matters.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"nursehub-api/internal/model"
)

var ErrNotConfigured = errors.New("transport not configured")

var notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "nursehub_notifications_total",
	Help: "Notification attempts by channel and result",
}, []string{"channel", "result"})

// Mailer sends one HTML email.
type Mailer interface {
	SendMail(ctx context.Context, to, subject, html string) error
}

// Texter sends one SMS.
type Texter interface {
	SendText(ctx context.Context, to, body string) error
}

type Gateway struct {
	mail Mailer
	sms  Texter
	log  *zap.Logger
}

func NewGateway(mail Mailer, sms Texter, log *zap.Logger) *Gateway {
	return &Gateway{mail: mail, sms: sms, log: log.Named("notify")}
}

// SendConfirmation emails the status-specific message for an appointment.
func (g *Gateway) SendConfirmation(ctx context.Context, to string, status model.Status, name, cancellationReason string) error {
	html, err := RenderEmail(status, name, cancellationReason)
	if err != nil {
		record("email", err)
		return fmt.Errorf("render email: %w", err)
	}
	err = g.mail.SendMail(ctx, to, Subject(status), html)
	record("email", err)
	if err != nil {
		return fmt.Errorf("send email to %s: %w", to, err)
	}
	g.log.Debug("email sent", zap.String("to", to), zap.String("status", string(status)))
	return nil
}

func (g *Gateway) SendTextMessage(ctx context.Context, to, body string) error {
	err := g.sms.SendText(ctx, to, body)
	record("sms", err)
	if err != nil {
		return fmt.Errorf("send sms to %s: %w", to, err)
	}
	g.log.Debug("sms sent", zap.String("to", to))
	return nil
}

func record(channel string, err error) {
	result := "sent"
	switch {
	case errors.Is(err, ErrNotConfigured):
		result = "skipped"
	case errors.Is(err, context.DeadlineExceeded):
		result = "timeout"
	case err != nil:
		result = "failed"
	}
	notificationsTotal.WithLabelValues(channel, result).Inc()
}

// bounded runs a call that cannot take a context, giving up when ctx ends.
// The call itself keeps running until its transport returns.
func bounded(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
