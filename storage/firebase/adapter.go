package firebase

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"google.golang.org/api/option"
)

var errMissingDatabaseURL = errors.New("missing database URL")

// Storage is the production hierarchical store, backed by the
// Firebase Realtime Database
type Storage struct {
	client *db.Client
}

// NewStorage connects to the Realtime Database at the given URL,
// authenticating with the given service account credentials file
func NewStorage(ctx context.Context, databaseURL, credentialsFile string) (*Storage, error) {
	if databaseURL == "" {
		return nil, errMissingDatabaseURL
	}

	app, err := firebase.NewApp(
		ctx,
		&firebase.Config{
			DatabaseURL: databaseURL,
		},
		option.WithCredentialsFile(credentialsFile),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize firebase app: %w", err)
	}

	client, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to create database client: %w", err)
	}

	return &Storage{
		client: client,
	}, nil
}

func (s *Storage) Get(ctx context.Context, path string, out any) error {
	// An absent path yields JSON null, which leaves out untouched
	if err := s.client.NewRef(path).Get(ctx, out); err != nil {
		return fmt.Errorf("unable to read %q: %w", path, err)
	}

	return nil
}

func (s *Storage) Update(ctx context.Context, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}

	if err := s.client.NewRef("/").Update(ctx, updates); err != nil {
		return fmt.Errorf("unable to apply update: %w", err)
	}

	return nil
}
