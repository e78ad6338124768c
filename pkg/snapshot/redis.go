package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// KeyPrefix is the first component of every snapshot hash key.
const KeyPrefix = "tnmigrate|snapshot"

// RedisSink stores snapshots in Redis hashes keyed
// "tnmigrate|snapshot|<site>|<hostname>". Each suffix is a field, with a
// companion "<suffix>@taken_at" field holding the RFC 3339 write time.
type RedisSink struct {
	client *redis.Client
	site   string
	now    func() time.Time
}

// NewRedisSink connects to addr. site distinguishes snapshot stages sharing
// one database ("tn3", "tn4/previous", "tn4/current").
func NewRedisSink(addr string, db int, site string) *RedisSink {
	return &RedisSink{
		client: redis.NewClient(&redis.Options{Addr: addr, DB: db}),
		site:   site,
		now:    time.Now,
	}
}

// Key returns the hash a hostname's snapshots are stored in.
func (s *RedisSink) Key(hostname string) string {
	return fmt.Sprintf("%s|%s|%s", KeyPrefix, s.site, hostname)
}

// Ping checks the connection.
func (s *RedisSink) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Write stores content and its timestamp atomically (MULTI/EXEC).
func (s *RedisSink) Write(ctx context.Context, hostname, suffix string, content []byte) error {
	key := s.Key(hostname)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key,
		suffix, string(content),
		suffix+"@taken_at", s.now().UTC().Format(time.RFC3339))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("storing %s in %s: %w", suffix, key, err)
	}
	return nil
}

// Read returns a stored snapshot, or redis.Nil when absent.
func (s *RedisSink) Read(ctx context.Context, hostname, suffix string) (string, error) {
	return s.client.HGet(ctx, s.Key(hostname), suffix).Result()
}

// Close closes the Redis connection.
func (s *RedisSink) Close() error {
	return s.client.Close()
}
