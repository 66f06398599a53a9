// Package backend wires store and notifier collaborators from the
// environment, shared by the update, manual and serve subcommands.
package backend

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"

	"github.com/yemen-sarraf/sarraf/cmd/env"
	"github.com/yemen-sarraf/sarraf/notify/fcm"
	"github.com/yemen-sarraf/sarraf/storage/firebase"
	redisstore "github.com/yemen-sarraf/sarraf/storage/redis"
	sqlstore "github.com/yemen-sarraf/sarraf/storage/sql"
)

// FirebaseStore creates the production Realtime Database store from
// the environment
func FirebaseStore(ctx context.Context) (*firebase.Storage, error) {
	databaseURL := os.Getenv(env.Prefix + env.FirebaseURLSuffix)
	if databaseURL == "" {
		return nil, fmt.Errorf("missing %s", env.Prefix+env.FirebaseURLSuffix)
	}

	credentials := os.Getenv(env.Prefix + env.FirebaseCredentialsSuffix)
	if credentials == "" {
		return nil, fmt.Errorf("missing %s", env.Prefix+env.FirebaseCredentialsSuffix)
	}

	return firebase.NewStorage(ctx, databaseURL, credentials)
}

// FCMNotifier creates the production push notifier from the environment
func FCMNotifier(ctx context.Context) (*fcm.Notifier, error) {
	credentials := os.Getenv(env.Prefix + env.FirebaseCredentialsSuffix)
	if credentials == "" {
		return nil, fmt.Errorf("missing %s", env.Prefix+env.FirebaseCredentialsSuffix)
	}

	return fcm.NewNotifier(ctx, credentials)
}

// SQLStore opens a Postgres-backed store from the environment.
// The returned connection is the caller's to close
func SQLStore(ctx context.Context) (*sqlstore.Storage, *pgx.Conn, error) {
	dsn := os.Getenv(env.Prefix + env.DBURLSuffix)
	if dsn == "" {
		return nil, nil, fmt.Errorf("missing %s", env.Prefix+env.DBURLSuffix)
	}

	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to open DB connection: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		return nil, nil, fmt.Errorf("unable to reach DB (ping): %w", err)
	}

	return sqlstore.NewStorage(conn), conn, nil
}

// RedisStore creates a Redis-backed store from the environment
func RedisStore() (*redisstore.Storage, error) {
	addr := os.Getenv(env.Prefix + env.RedisAddrSuffix)
	if addr == "" {
		return nil, fmt.Errorf("missing %s", env.Prefix+env.RedisAddrSuffix)
	}

	return redisstore.NewStorage(
		addr,
		os.Getenv(env.Prefix+env.RedisPasswordSuffix),
		0,
	)
}
