package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go-gin-event-tickets/internal/model"
	"go-gin-event-tickets/pkg/logger"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaActivityQueue 以 Kafka topic 傳遞票券事件, consumer group 提交 offset 代表 ack
type KafkaActivityQueue struct {
	writer *kafka.Writer
	reader *kafka.Reader
}

func NewKafkaActivityQueue(brokers []string, topic, groupID string) *KafkaActivityQueue {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	return &KafkaActivityQueue{writer: writer, reader: reader}
}

func (q *KafkaActivityQueue) Publish(ctx context.Context, activity *model.TicketActivity) error {
	payload, err := json.Marshal(activity)
	if err != nil {
		return fmt.Errorf("marshal activity: %w", err)
	}

	// 同一活動的事件進同一個 partition, 保持順序
	err = q.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(activity.EventID, 10)),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

func (q *KafkaActivityQueue) Subscribe(ctx context.Context) (<-chan Delivery, error) {
	out := make(chan Delivery)

	go func() {
		defer close(out)
		log := logger.WithComponent("mq")
		for {
			msg, err := q.reader.FetchMessage(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, kafka.ErrGroupClosed) {
					return
				}
				log.Error("kafka fetch failed", zap.Error(err))
				time.Sleep(time.Second)
				continue
			}

			var activity model.TicketActivity
			if err := json.Unmarshal(msg.Value, &activity); err != nil || !activity.Kind.IsValid() {
				log.Warn("unmarshal activity failed", zap.Int64("offset", msg.Offset), zap.Error(err))
				q.commit(ctx, msg)
				continue
			}

			select {
			case out <- q.newDelivery(ctx, msg, &activity):
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func (q *KafkaActivityQueue) newDelivery(ctx context.Context, msg kafka.Message, activity *model.TicketActivity) Delivery {
	return Delivery{
		Data: activity,
		Ack: func() {
			q.commit(ctx, msg)
		},
		Nack: func(requeue bool) {
			if requeue {
				// Kafka 沒有單筆重送, 重新寫回 topic 尾端
				retry := kafka.Message{Key: msg.Key, Value: msg.Value}
				if err := q.writer.WriteMessages(ctx, retry); err != nil {
					logger.WithComponent("mq").Error("kafka requeue failed", zap.Int64("offset", msg.Offset), zap.Error(err))
					return
				}
			}
			q.commit(ctx, msg)
		},
	}
}

func (q *KafkaActivityQueue) commit(ctx context.Context, msg kafka.Message) {
	if err := q.reader.CommitMessages(ctx, msg); err != nil {
		logger.WithComponent("mq").Error("kafka commit failed", zap.Int64("offset", msg.Offset), zap.Error(err))
	}
}

func (q *KafkaActivityQueue) Close() error {
	return errors.Join(q.reader.Close(), q.writer.Close())
}
