package antlers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	// historyLength statuses kept per node in redis
	historyLength = 1000
	// publishQueueSize statuses waiting for redis before Offer starts dropping
	publishQueueSize = 256
)

// StatusDocument a relayed status as published to subscribers
type StatusDocument struct {
	Gateway   byte          `json:"gateway"`
	Received  time.Time     `json:"received"`
	RadioRSSI int8          `json:"radio_rssi"`
	Status    StatusPayload `json:"status"`
}

// StatusSink receives every relayed status; Offer must never block
type StatusSink interface {
	Offer(doc StatusDocument) bool
}

// RedisPublisher publish statuses on a redis channel and keep a short history per node
type RedisPublisher struct {
	client  *redis.Client
	channel string
	queue   chan StatusDocument
}

// NewRedisPublisher connect and ping
func NewRedisPublisher(ctx context.Context, cfg RedisConfig) (*RedisPublisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis:connect %s: %w", cfg.Addr, err)
	}

	log.Infof("redis:open addr=%s channel=%s", cfg.Addr, cfg.Channel)

	return newRedisPublisher(client, cfg.Channel, publishQueueSize), nil
}

func newRedisPublisher(client *redis.Client, channel string, size int) *RedisPublisher {
	return &RedisPublisher{
		client:  client,
		channel: channel,
		queue:   make(chan StatusDocument, size),
	}
}

// Offer queue a status for publishing, false when the queue is full
func (pub *RedisPublisher) Offer(doc StatusDocument) bool {
	select {
	case pub.queue <- doc:
		return true
	default:
		return false
	}
}

// Run publish queued statuses until ctx is done
func (pub *RedisPublisher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case doc := <-pub.queue:
			if err := pub.Publish(ctx, doc); err != nil {
				log.Warnf("redis:publish %v", err)
			}
		}
	}
}

// Publish send one status to subscribers and to the node's history list
func (pub *RedisPublisher) Publish(ctx context.Context, doc StatusDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}

	key := historyKey(doc.Status.NodeID)

	pipe := pub.client.TxPipeline()
	pipe.Publish(ctx, pub.channel, data)
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, historyLength-1)

	_, err = pipe.Exec(ctx)
	return err
}

// Close ...
func (pub *RedisPublisher) Close() error {
	return pub.client.Close()
}

func historyKey(node byte) string {
	return fmt.Sprintf("antlers:node:%d:status", node)
}
