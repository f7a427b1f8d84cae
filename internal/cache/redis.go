// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list the archiver worker drains.
const DefaultQueueName = "hangduel_matches"

// MatchRecord is one player's view of a finished match, queued for the
// archiver worker to persist.
type MatchRecord struct {
	HistoryID    uuid.UUID `json:"history_id"`
	MatchID      uuid.UUID `json:"match_id"`
	UserID       string    `json:"user_id"`
	OpponentName string    `json:"opponent_name"`
	Result       string    `json:"result"`
	TrophyDelta  int       `json:"trophy_delta"`
	PlayedAt     time.Time `json:"played_at"`
}

// Connect builds a Redis client from environment variables:
//   - REDIS_ADDR (default "localhost:6379")
//   - REDIS_DB (optional, default 0)
func Connect() (*redis.Client, error) {
	addr := getEnv("REDIS_ADDR", "localhost:6379")
	dbIdx := getEnvInt("REDIS_DB", 0)

	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   dbIdx,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// Accounts is the key-value trophy store: get-by-id and atomic increment of
// each player's trophy counter.
type Accounts struct {
	rdb *redis.Client
}

func NewAccounts(rdb *redis.Client) *Accounts {
	return &Accounts{rdb: rdb}
}

// Trophies returns the player's trophy balance, zero when unset.
func (a *Accounts) Trophies(ctx context.Context, userID string) (int, error) {
	n, err := a.rdb.Get(ctx, trophyKey(userID)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read trophies for %s: %w", userID, err)
	}
	return n, nil
}

// AddTrophies atomically adjusts the player's trophy balance by delta and
// returns the new total.
func (a *Accounts) AddTrophies(ctx context.Context, userID string, delta int) (int, error) {
	n, err := a.rdb.IncrBy(ctx, trophyKey(userID), int64(delta)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to adjust trophies for %s: %w", userID, err)
	}
	return int(n), nil
}

func trophyKey(userID string) string {
	return "trophies:" + userID
}

// Queue publishes finished-match records for the archiver worker.
type Queue struct {
	rdb  *redis.Client
	name string
}

// NewQueue reads the queue name from HISTORY_QUEUE_NAME, defaulting to
// DefaultQueueName.
func NewQueue(rdb *redis.Client) *Queue {
	return &Queue{
		rdb:  rdb,
		name: getEnv("HISTORY_QUEUE_NAME", DefaultQueueName),
	}
}

// PublishMatchRecord serializes the record and pushes it onto the queue.
// This does not block the caller beyond a quick network send.
func (q *Queue) PublishMatchRecord(ctx context.Context, rec MatchRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal MatchRecord: %w", err)
	}
	if err := q.rdb.RPush(ctx, q.name, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", q.name, err)
	}
	return nil
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
