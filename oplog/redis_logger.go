// oplog/redis_logger.go
package oplog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	logger "github.com/identityops/idassign/logging"
)

// RedisLogger stores operation-log entries as JSON documents in Redis,
// keyed by a generated operation id and indexed on a per-day list for the
// rollback tooling to scan.
type RedisLogger struct {
	client    *redis.Client
	retention time.Duration
}

func NewRedisLogger(addr, password string, db int, retention time.Duration) (*RedisLogger, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisLogger{client: client, retention: retention}, nil
}

func (l *RedisLogger) Log(ctx context.Context, entry Entry) (string, error) {
	if entry.LoggedAt.IsZero() {
		entry.LoggedAt = time.Now()
	}

	operationID := uuid.NewString()

	data, err := json.Marshal(entry)
	if err != nil {
		return "", fmt.Errorf("failed to marshal operation entry: %w", err)
	}

	key := fmt.Sprintf("oplog:%s", operationID)
	if err := l.client.Set(ctx, key, data, l.retention).Err(); err != nil {
		return "", fmt.Errorf("failed to store operation entry: %w", err)
	}

	indexKey := fmt.Sprintf("oplog:index:%s", entry.LoggedAt.Format("2006-01-02"))
	if err := l.client.RPush(ctx, indexKey, operationID).Err(); err != nil {
		logger.Warn("Failed to index operation entry", zap.Error(err), zap.String("operationID", operationID))
	}

	logger.Debug("Operation logged",
		zap.String("operationID", operationID),
		zap.String("principal", entry.PrincipalName),
		zap.Int("accounts", len(entry.AccountIDs)))
	return operationID, nil
}

// Get fetches a stored entry by operation id.
func (l *RedisLogger) Get(ctx context.Context, operationID string) (*Entry, error) {
	key := fmt.Sprintf("oplog:%s", operationID)
	data, err := l.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get operation entry: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal operation entry: %w", err)
	}
	return &entry, nil
}

// Close releases the underlying connection.
func (l *RedisLogger) Close() error {
	return l.client.Close()
}

var _ Logger = (*RedisLogger)(nil)
