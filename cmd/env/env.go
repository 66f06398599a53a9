// Package env defines the environment variable names shared by the
// sarraf subcommands. Secrets never live in the TOML config
package env

// Prefix is the shared environment variable prefix
const Prefix = "SARRAF"

const (
	// FirebaseURLSuffix holds the Realtime Database URL
	FirebaseURLSuffix = "_FIREBASE_DATABASE_URL"

	// FirebaseCredentialsSuffix holds the service account file path
	FirebaseCredentialsSuffix = "_FIREBASE_CREDENTIALS"

	// DBURLSuffix holds the Postgres DSN
	DBURLSuffix = "_DB_URL"

	// RedisAddrSuffix holds the Redis host:port
	RedisAddrSuffix = "_REDIS_ADDR"

	// RedisPasswordSuffix holds the Redis password, if any
	RedisPasswordSuffix = "_REDIS_PASSWORD"
)
