package relay

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/segmentio/ksuid"
)

// Backplane fans frames out between relay instances serving the same board.
type Backplane interface {
	Publish(ctx context.Context, board string, frame []byte) error
	// Subscribe delivers frames published by other instances until ctx ends.
	Subscribe(ctx context.Context, board string) (<-chan []byte, error)
}

func channelName(board string) string {
	return "redraw:board:" + board
}

type envelope struct {
	Origin string          `json:"origin"`
	Frame  json.RawMessage `json:"frame"`
}

// RedisBackplane publishes frames on one redis channel per board.
type RedisBackplane struct {
	rdb    *redis.Client
	origin string
}

// NewRedisBackplane connects to the redis server at rawURL.
func NewRedisBackplane(ctx context.Context, rawURL string) (*RedisBackplane, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisBackplane{rdb: rdb, origin: ksuid.New().String()}, nil
}

func (b *RedisBackplane) Publish(ctx context.Context, board string, frame []byte) error {
	payload, err := json.Marshal(envelope{Origin: b.origin, Frame: frame})
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, channelName(board), payload).Err()
}

func (b *RedisBackplane) Subscribe(ctx context.Context, board string) (<-chan []byte, error) {
	sub := b.rdb.Subscribe(ctx, channelName(board))
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", board, err)
	}

	out := make(chan []byte, 16)
	go func() {
		defer close(out)
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var env envelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil || env.Origin == b.origin {
					continue
				}
				select {
				case out <- env.Frame:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (b *RedisBackplane) Close() error {
	return b.rdb.Close()
}
