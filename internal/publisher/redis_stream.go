package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hatrick/crease/internal/refresh"
)

const (
	// RefreshStream carries refresh job lifecycle events for consumers
	// outside this process (bots, exporters, a future notifier).
	RefreshStream = "crease:refresh:events"

	// refreshStreamMaxLen caps the stream so an unattended instance cannot
	// grow it without bound. Trimming is approximate (XADD MAXLEN ~).
	refreshStreamMaxLen = 10000
)

// RedisStreamPublisher publishes events to Redis streams
type RedisStreamPublisher struct {
	client *redis.Client
}

// NewRedisStreamPublisher creates a new Redis stream publisher from existing client
func NewRedisStreamPublisher(client *redis.Client) *RedisStreamPublisher {
	return &RedisStreamPublisher{
		client: client,
	}
}

// NewRedisPublisher creates a new Redis stream publisher with its own connection
func NewRedisPublisher(redisURL string) (*RedisStreamPublisher, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStreamPublisher{
		client: client,
	}, nil
}

// Close closes the Redis connection
func (rsp *RedisStreamPublisher) Close() error {
	return rsp.client.Close()
}

// PublishRefreshEvent publishes a refresh job event to the stream
func (rsp *RedisStreamPublisher) PublishRefreshEvent(ctx context.Context, event refresh.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return rsp.client.XAdd(ctx, &redis.XAddArgs{
		Stream: RefreshStream,
		MaxLen: refreshStreamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"data":      string(data),
			"timestamp": time.Now().Unix(),
		},
	}).Err()
}

var _ refresh.EventPublisher = (*RedisStreamPublisher)(nil)
