// Package notify abstracts the push notification channel.
//
// Notification delivery is fire and forget: a failure after the
// store write has committed is logged and swallowed, never rolled
// back.
package notify

import (
	"context"
	"log/slog"
)

// Notifier publishes a notification to a topic
type Notifier interface {
	Publish(ctx context.Context, topic, title, body string) error
}

// LogNotifier only logs the notification, for dry runs and tests
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{
		logger: logger,
	}
}

func (n *LogNotifier) Publish(_ context.Context, topic, title, body string) error {
	n.logger.Info(
		"notification skipped (dry run)",
		"topic", topic,
		"title", title,
		"body", body,
	)

	return nil
}
