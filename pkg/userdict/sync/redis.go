// Package sync provides an optional shared-cache layer UserDbMerger can pull
// a remote machine's snapshot from before merging it into the local store.
package sync

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "imecore:userdict:snapshot:"

// RedisSnapshotStore publishes and fetches whole-db snapshot dumps under a
// key namespaced by db name, so two machines can merge without a shared
// filesystem.
type RedisSnapshotStore struct {
	client *redis.Client
}

// NewRedisSnapshotStore wraps an already-configured client.
func NewRedisSnapshotStore(client *redis.Client) *RedisSnapshotStore {
	return &RedisSnapshotStore{client: client}
}

func (s *RedisSnapshotStore) key(dbName string) string {
	return keyPrefix + dbName
}

// Publish stores content (a userdict.WriteSnapshot dump) under dbName.
func (s *RedisSnapshotStore) Publish(ctx context.Context, dbName, content string) error {
	if err := s.client.Set(ctx, s.key(dbName), content, 0).Err(); err != nil {
		return fmt.Errorf("userdict/sync: publish %s: %w", dbName, err)
	}
	return nil
}

// Fetch retrieves the last published snapshot for dbName, if any.
func (s *RedisSnapshotStore) Fetch(ctx context.Context, dbName string) (string, bool) {
	content, err := s.client.Get(ctx, s.key(dbName)).Result()
	if err != nil {
		if err != redis.Nil {
			log.Warnf("userdict/sync: fetch %s: %v", dbName, err)
		}
		return "", false
	}
	return content, true
}
