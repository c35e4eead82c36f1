package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go-gin-event-tickets/internal/model"
	"go-gin-event-tickets/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	StreamKey         = "tickets:activity"
	ConsumerGroupName = "attendance-workers"

	readBatch  = 20
	claimBatch = 20
)

// RedisStreamQueueConfig 零值欄位使用預設值
type RedisStreamQueueConfig struct {
	MaxLen        int64         // stream 約略保留的筆數，舊的 activity 會被修剪
	RetryAfter    time.Duration // 未 ack 的消息閒置多久後重新投遞
	MaxDeliveries int           // 單一消息最多投遞次數，超過就丟棄
	Block         time.Duration // XReadGroup 阻塞時間，應小於 RetryAfter
}

func (c *RedisStreamQueueConfig) withDefaults() RedisStreamQueueConfig {
	cfg := RedisStreamQueueConfig{
		MaxLen:        100_000,
		RetryAfter:    5 * time.Second,
		MaxDeliveries: 5,
		Block:         2 * time.Second,
	}
	if c == nil {
		return cfg
	}
	if c.MaxLen > 0 {
		cfg.MaxLen = c.MaxLen
	}
	if c.RetryAfter > 0 {
		cfg.RetryAfter = c.RetryAfter
	}
	if c.MaxDeliveries > 0 {
		cfg.MaxDeliveries = c.MaxDeliveries
	}
	if c.Block > 0 {
		cfg.Block = c.Block
	}
	return cfg
}

// RedisStreamActivityQueue carries ticket activity over one capped Redis stream
// read by the attendance-workers consumer group. Entries are flat field maps
// so they stay readable with XRANGE.
type RedisStreamActivityQueue struct {
	client   *redis.Client
	consumer string
	cfg      RedisStreamQueueConfig
}

// NewRedisStreamActivityQueue joins (or creates) the consumer group. An empty
// consumerID gets a random one.
func NewRedisStreamActivityQueue(client *redis.Client, consumerID string, config *RedisStreamQueueConfig) (ActivityQueue, error) {
	if consumerID == "" {
		consumerID = uuid.New().String()
	}
	q := &RedisStreamActivityQueue{
		client:   client,
		consumer: "worker:" + consumerID,
		cfg:      config.withDefaults(),
	}

	err := client.XGroupCreateMkStream(context.Background(), StreamKey, ConsumerGroupName, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return nil, fmt.Errorf("ensure consumer group: %w", err)
	}
	return q, nil
}

func (q *RedisStreamActivityQueue) Publish(ctx context.Context, activity *model.TicketActivity) error {
	err := q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: q.cfg.MaxLen,
		Approx: true,
		Values: activityFields(activity),
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", activity.Kind, err)
	}
	return nil
}

// Subscribe runs one loop per call: idle pending entries are reclaimed every
// RetryAfter, new entries are read in between. The channel closes with ctx.
func (q *RedisStreamActivityQueue) Subscribe(ctx context.Context) (<-chan Delivery, error) {
	out := make(chan Delivery)
	go func() {
		defer close(out)
		nextClaim := time.Now().Add(q.cfg.RetryAfter)
		for ctx.Err() == nil {
			if !time.Now().Before(nextClaim) {
				if !q.reclaim(ctx, out) {
					return
				}
				nextClaim = time.Now().Add(q.cfg.RetryAfter)
			}
			if !q.readNew(ctx, out) {
				return
			}
		}
	}()
	return out, nil
}

// readNew returns false once ctx is done.
func (q *RedisStreamActivityQueue) readNew(ctx context.Context, out chan<- Delivery) bool {
	streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    ConsumerGroupName,
		Consumer: q.consumer,
		Streams:  []string{StreamKey, ">"},
		Count:    readBatch,
		Block:    q.cfg.Block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return true
	}
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		logger.WithComponent("mq").Error("XReadGroup failed", zap.Error(err))
		select {
		case <-time.After(time.Second):
			return true
		case <-ctx.Done():
			return false
		}
	}

	for _, stream := range streams {
		for _, msg := range stream.Messages {
			if !q.deliver(ctx, out, msg) {
				return false
			}
		}
	}
	return true
}

// reclaim takes over entries left unacked for RetryAfter, whichever consumer
// held them. Entries past MaxDeliveries are acked and dropped.
func (q *RedisStreamActivityQueue) reclaim(ctx context.Context, out chan<- Delivery) bool {
	msgs, _, err := q.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   StreamKey,
		Group:    ConsumerGroupName,
		Consumer: q.consumer,
		MinIdle:  q.cfg.RetryAfter,
		Start:    "0-0",
		Count:    claimBatch,
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		if ctx.Err() != nil {
			return false
		}
		logger.WithComponent("mq").Error("XAutoClaim failed", zap.Error(err))
		return true
	}

	for _, msg := range msgs {
		deliveries, err := q.deliveryCount(ctx, msg.ID)
		if err != nil {
			logger.WithComponent("mq").Warn("read delivery count failed", zap.String("message_id", msg.ID), zap.Error(err))
		} else if deliveries > int64(q.cfg.MaxDeliveries) {
			logger.WithComponent("mq").Warn("drop activity after max deliveries",
				zap.String("message_id", msg.ID),
				zap.Int64("deliveries", deliveries),
			)
			q.ack(ctx, msg.ID)
			continue
		}
		if !q.deliver(ctx, out, msg) {
			return false
		}
	}
	return true
}

func (q *RedisStreamActivityQueue) deliveryCount(ctx context.Context, id string) (int64, error) {
	pending, err := q.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: StreamKey,
		Group:  ConsumerGroupName,
		Start:  id,
		End:    id,
		Count:  1,
	}).Result()
	if err != nil || len(pending) == 0 {
		return 0, err
	}
	return pending[0].RetryCount, nil
}

// deliver hands msg to the consumer; malformed entries are acked so they leave the PEL.
func (q *RedisStreamActivityQueue) deliver(ctx context.Context, out chan<- Delivery, msg redis.XMessage) bool {
	activity, err := parseActivity(msg.Values)
	if err != nil {
		logger.WithComponent("mq").Warn("discard malformed activity", zap.String("message_id", msg.ID), zap.Error(err))
		q.ack(ctx, msg.ID)
		return true
	}

	id := msg.ID
	d := Delivery{
		Data: activity,
		Ack:  func() { q.ack(ctx, id) },
		Nack: func(requeue bool) {
			if requeue {
				// 留在 PEL，RetryAfter 後由 reclaim 重新投遞
				return
			}
			q.ack(ctx, id)
		},
	}
	select {
	case out <- d:
		return true
	case <-ctx.Done():
		return false
	}
}

// ack 在關閉期間也要送出，否則消息會被重複計入
func (q *RedisStreamActivityQueue) ack(ctx context.Context, id string) {
	if err := q.client.XAck(context.WithoutCancel(ctx), StreamKey, ConsumerGroupName, id).Err(); err != nil {
		logger.WithComponent("mq").Error("XAck failed", zap.String("message_id", id), zap.Error(err))
	}
}

func activityFields(a *model.TicketActivity) map[string]any {
	return map[string]any{
		"kind":        string(a.Kind),
		"event_id":    strconv.FormatInt(a.EventID, 10),
		"ticket_id":   strconv.FormatInt(a.TicketID, 10),
		"author":      a.Author,
		"occurred_at": a.OccurredAt.UTC().Format(time.RFC3339Nano),
	}
}

func parseActivity(values map[string]any) (*model.TicketActivity, error) {
	field := func(name string) string {
		s, _ := values[name].(string)
		return s
	}

	a := &model.TicketActivity{
		Kind:   model.ActivityKind(field("kind")),
		Author: field("author"),
	}
	if !a.Kind.IsValid() {
		return nil, fmt.Errorf("unknown activity kind %q", a.Kind)
	}

	var err error
	if a.EventID, err = strconv.ParseInt(field("event_id"), 10, 64); err != nil {
		return nil, fmt.Errorf("event_id: %w", err)
	}
	if a.TicketID, err = strconv.ParseInt(field("ticket_id"), 10, 64); err != nil {
		return nil, fmt.Errorf("ticket_id: %w", err)
	}
	if a.OccurredAt, err = time.Parse(time.RFC3339Nano, field("occurred_at")); err != nil {
		return nil, fmt.Errorf("occurred_at: %w", err)
	}
	return a, nil
}
