// Package fcm delivers push notifications through Firebase Cloud
// Messaging topics.
package fcm

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// Notifier publishes topic notifications via FCM
type Notifier struct {
	client *messaging.Client
}

// NewNotifier creates an FCM notifier authenticated with the given
// service account credentials file
func NewNotifier(ctx context.Context, credentialsFile string) (*Notifier, error) {
	app, err := firebase.NewApp(
		ctx,
		nil,
		option.WithCredentialsFile(credentialsFile),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to create messaging client: %w", err)
	}

	return &Notifier{
		client: client,
	}, nil
}

func (n *Notifier) Publish(ctx context.Context, topic, title, body string) error {
	msg := &messaging.Message{
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Topic: topic,
	}

	if _, err := n.client.Send(ctx, msg); err != nil {
		return fmt.Errorf("unable to send notification: %w", err)
	}

	return nil
}
