package main

import (
	"context"

	"go.uber.org/zap"
)

// Notification is one outbound message to a recipient.
type Notification struct {
	To      string
	Subject string
	Body    string
}

// Notifier delivers notifications. Actual email transport is an external
// collaborator; deployments plug in their provider here.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier records deliveries in the log instead of sending them. Default
// for local runs and environments without an email provider.
type LogNotifier struct {
	Log *zap.Logger
}

func (l *LogNotifier) Notify(ctx context.Context, n Notification) error {
	l.Log.Info("notification",
		zap.String("to", n.To),
		zap.String("subject", n.Subject),
		zap.String("body", n.Body))
	return nil
}
