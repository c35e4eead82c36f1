package worker

import (
	"context"

	"go-gin-event-tickets/internal/cache"
	"go-gin-event-tickets/internal/queue"
	"go-gin-event-tickets/pkg/logger"

	"go.uber.org/zap"
)

type AttendanceWorker interface {
	// 訂閱票券事件隊列
	Start(ctx context.Context) error
}

type AttendanceWorkerImpl struct {
	tracker cache.AttendanceTracker
	queue   queue.ActivityQueue
	done    chan struct{}
}

func NewAttendanceWorker(tracker cache.AttendanceTracker, queue queue.ActivityQueue) *AttendanceWorkerImpl {
	return &AttendanceWorkerImpl{
		tracker: tracker,
		queue:   queue,
		done:    make(chan struct{}),
	}
}

func (w *AttendanceWorkerImpl) Start(ctx context.Context) error {
	msgs, err := w.queue.Subscribe(ctx)
	if err != nil {
		return err
	}

	go func() {
		defer close(w.done)
		log := logger.WithComponent("worker")
		for msg := range msgs {
			err := w.tracker.Record(ctx, msg.Data)
			if err != nil {
				// Redis 暫時連不上就重試
				log.Warn("record attendance failed",
					zap.Int64("event_id", msg.Data.EventID),
					zap.Int64("ticket_id", msg.Data.TicketID),
					zap.Error(err),
				)
				msg.Nack(true)
			} else {
				msg.Ack()
			}
		}
	}()
	return nil
}

// Done is closed once the subscription channel drains after ctx is cancelled.
func (w *AttendanceWorkerImpl) Done() <-chan struct{} {
	return w.done
}
