// Package bus carries query envelopes over Redis Streams.
package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nidhogg/forecast-facts/internal/dispatch"
	"github.com/nidhogg/forecast-facts/internal/facts"
)

const (
	DefaultStream = "forecast:requests"
	DefaultGroup  = "forecast-facts"

	replyPrefix   = "forecast:replies:"
	transportBus  = "redis"
	fieldData     = "data"
	fieldReplyTo  = "reply_to"
	readBlock     = 2 * time.Second
	replyTTL      = time.Minute
	requestMaxLen = 10000
)

// Message is one request or response on the bus.
type Message struct {
	ID        string             `json:"id"`
	ReplyTo   string             `json:"reply_to,omitempty"`
	Request   *dispatch.Request  `json:"request,omitempty"`
	Response  *dispatch.Response `json:"response,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// Bus is a Redis Streams request/reply transport.
type Bus struct {
	rdb    *redis.Client
	stream string
	group  string
	logger *zap.Logger
}

// New connects to Redis and returns a bus on stream.
func New(redisURL, stream, group string, logger *zap.Logger) (*Bus, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	if stream == "" {
		stream = DefaultStream
	}
	if group == "" {
		group = DefaultGroup
	}
	b := &Bus{rdb: rdb, stream: stream, group: group, logger: logger}
	if err := b.ensureGroup(context.Background()); err != nil {
		rdb.Close()
		return nil, err
	}
	return b, nil
}

// ensureGroup creates the consumer group, and the stream with it, if missing.
func (b *Bus) ensureGroup(ctx context.Context) error {
	err := b.rdb.XGroupCreateMkStream(ctx, b.stream, b.group, "$").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create group %s: %w", b.group, err)
	}
	return nil
}

// Stream returns the request stream name.
func (b *Bus) Stream() string { return b.stream }

// Serve consumes requests as a member of the consumer group and answers each
// on its reply stream. It returns nil when ctx is cancelled.
func (b *Bus) Serve(ctx context.Context, d *dispatch.Dispatcher) error {
	if err := b.ensureGroup(ctx); err != nil {
		return err
	}
	consumer := "consumer-" + uuid.NewString()
	b.logger.Info("bus consumer started",
		zap.String("stream", b.stream),
		zap.String("group", b.group),
		zap.String("consumer", consumer))

	for {
		if ctx.Err() != nil {
			return nil
		}
		results, err := b.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    b.group,
			Consumer: consumer,
			Streams:  []string{b.stream, ">"},
			Count:    10,
			Block:    readBlock,
		}).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if !errors.Is(err, redis.Nil) {
				b.logger.Warn("bus read failed", zap.Error(err))
				time.Sleep(readBlock)
			}
			continue
		}

		for _, r := range results {
			for _, msg := range r.Messages {
				b.handle(ctx, d, msg)
				if err := b.rdb.XAck(ctx, b.stream, b.group, msg.ID).Err(); err != nil {
					b.logger.Warn("bus ack failed", zap.String("entry", msg.ID), zap.Error(err))
				}
			}
		}
	}
}

func (b *Bus) handle(ctx context.Context, d *dispatch.Dispatcher, entry redis.XMessage) {
	replyTo, _ := entry.Values[fieldReplyTo].(string)

	var in Message
	data, ok := entry.Values[fieldData].(string)
	if !ok {
		b.reject(ctx, entry.ID, replyTo, "", facts.InvalidArgument("message has no %s field", fieldData))
		return
	}
	if err := json.Unmarshal([]byte(data), &in); err != nil {
		b.reject(ctx, entry.ID, replyTo, "", facts.InvalidArgument("malformed message: %v", err))
		return
	}
	if in.ReplyTo != "" {
		replyTo = in.ReplyTo
	}
	if in.Request == nil {
		b.reject(ctx, entry.ID, replyTo, in.ID, facts.InvalidArgument("message has no request"))
		return
	}

	resp := d.Handle(ctx, transportBus, *in.Request)
	if replyTo == "" {
		b.logger.Warn("bus request without reply stream", zap.String("id", in.ID))
		return
	}
	if err := b.reply(ctx, replyTo, &Message{ID: in.ID, Response: &resp, Timestamp: time.Now()}); err != nil {
		b.logger.Error("bus reply failed", zap.String("id", in.ID), zap.Error(err))
	}
}

func (b *Bus) reject(ctx context.Context, entryID, replyTo, id string, err error) {
	if replyTo == "" {
		b.logger.Warn("dropping malformed bus message", zap.String("entry", entryID), zap.Error(err))
		return
	}
	resp := dispatch.ErrorResponse(err)
	if perr := b.reply(ctx, replyTo, &Message{ID: id, Response: &resp, Timestamp: time.Now()}); perr != nil {
		b.logger.Error("bus reply failed", zap.String("entry", entryID), zap.Error(perr))
	}
}

// reply publishes msg on replyTo and bounds the stream's lifetime, since a
// caller that gave up never deletes it.
func (b *Bus) reply(ctx context.Context, replyTo string, msg *Message) error {
	if err := b.publish(ctx, replyTo, msg); err != nil {
		return err
	}
	if err := b.rdb.Expire(ctx, replyTo, replyTTL).Err(); err != nil {
		b.logger.Warn("bus reply expiry failed", zap.String("stream", replyTo), zap.Error(err))
	}
	return nil
}

func (b *Bus) publish(ctx context.Context, stream string, msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	args := &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{fieldData: string(data)},
	}
	if msg.ReplyTo != "" {
		args.Values = map[string]interface{}{fieldData: string(data), fieldReplyTo: msg.ReplyTo}
		args.MaxLen = requestMaxLen
		args.Approx = true
	}
	if err := b.rdb.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", stream, err)
	}
	return nil
}

// Call publishes req with a fresh reply stream and waits for its response.
func (b *Bus) Call(ctx context.Context, req dispatch.Request) (dispatch.Response, error) {
	id := uuid.NewString()
	replyTo := replyPrefix + id
	defer b.rdb.Del(context.Background(), replyTo)

	if err := b.publish(ctx, b.stream, &Message{ID: id, ReplyTo: replyTo, Request: &req, Timestamp: time.Now()}); err != nil {
		return dispatch.Response{}, err
	}
	b.logger.Debug("bus request published", zap.String("id", id), zap.String("operation", req.Operation))

	lastID := "0"
	for {
		results, err := b.rdb.XRead(ctx, &redis.XReadArgs{
			Streams: []string{replyTo, lastID},
			Count:   1,
			Block:   readBlock,
		}).Result()
		if err != nil {
			if ctx.Err() != nil {
				return dispatch.Response{}, ctx.Err()
			}
			if errors.Is(err, redis.Nil) {
				continue
			}
			return dispatch.Response{}, fmt.Errorf("read reply %s: %w", replyTo, err)
		}
		for _, r := range results {
			for _, entry := range r.Messages {
				lastID = entry.ID
				data, ok := entry.Values[fieldData].(string)
				if !ok {
					continue
				}
				var out Message
				if json.Unmarshal([]byte(data), &out) != nil || out.Response == nil {
					continue
				}
				if out.ID != id && out.ID != "" {
					continue
				}
				return *out.Response, nil
			}
		}
	}
}

// Close shuts down the Redis connection.
func (b *Bus) Close() error {
	return b.rdb.Close()
}
