// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jason-s-yu/memorymatch/internal/models"
	"github.com/redis/go-redis/v9"
)

// Rdb is the global Redis client. Connect it once at application startup.
var Rdb *redis.Client

// QueueName is the Redis list (queue) session actions are pushed onto.
var QueueName = "memorymatch_actions"

// ErrNotConnected is returned by publishers when no client is set.
var ErrNotConnected = errors.New("redis not connected")

// ConnectRedis initializes the global Redis client and pings it.
func ConnectRedis(addr string, db int) error {
	Rdb = redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := Rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return nil
}

// EncodeRoundAction is the queue wire format of one action.
func EncodeRoundAction(action models.RoundAction) ([]byte, error) {
	data, err := json.Marshal(action)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal RoundAction: %w", err)
	}
	return data, nil
}

// DecodeRoundAction parses one queue entry.
func DecodeRoundAction(data []byte) (models.RoundAction, error) {
	var action models.RoundAction
	if err := json.Unmarshal(data, &action); err != nil {
		return models.RoundAction{}, fmt.Errorf("failed to unmarshal RoundAction: %w", err)
	}
	return action, nil
}

// PublishRoundAction serializes the action to JSON, then pushes it to the queue.
// This does not block the calling logic (other than a quick network send).
func PublishRoundAction(ctx context.Context, action models.RoundAction) error {
	if Rdb == nil {
		return ErrNotConnected
	}
	data, err := EncodeRoundAction(action)
	if err != nil {
		return err
	}
	if err := Rdb.RPush(ctx, QueueName, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", QueueName, err)
	}
	return nil
}
