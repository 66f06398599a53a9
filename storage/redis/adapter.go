package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/yemen-sarraf/sarraf/storage"
)

const defaultHashKey = "sarraf:paths"

var errMissingAddr = errors.New("redis addr is required")

// Storage is a Redis-backed hierarchical store. Leaf paths are fields
// of a single hash, with JSON-encoded values
type Storage struct {
	client  *redis.Client
	hashKey string
}

func NewStorage(addr, password string, db int) (*Storage, error) {
	if addr == "" {
		return nil, errMissingAddr
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &Storage{
		client:  client,
		hashKey: defaultHashKey,
	}, nil
}

func (s *Storage) Get(ctx context.Context, path string, out any) error {
	fields, err := s.client.HGetAll(ctx, s.hashKey).Result()
	if err != nil {
		return fmt.Errorf("unable to read hash: %w", err)
	}

	leaves := make(map[string]any, len(fields))
	for field, raw := range fields {
		leaves[field] = json.RawMessage(raw)
	}

	return storage.Assemble(leaves, path, out)
}

func (s *Storage) Update(ctx context.Context, updates map[string]any) error {
	flat := storage.Leaves(updates)
	if len(flat) == 0 {
		return nil
	}

	fields := make(map[string]string, len(flat))

	for path, value := range flat {
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("unable to encode value at %q: %w", path, err)
		}

		fields[path] = string(raw)
	}

	if err := s.client.HSet(ctx, s.hashKey, fields).Err(); err != nil {
		return fmt.Errorf("unable to apply update: %w", err)
	}

	return nil
}

func (s *Storage) Close() error {
	return s.client.Close()
}
