package queue

import (
	"context"

	"go-gin-event-tickets/internal/model"
)

type Delivery struct {
	Data *model.TicketActivity
	Ack  func()
	Nack func(requeue bool)
}

type ActivityQueue interface {
	// 發送票券事件到隊列
	Publish(ctx context.Context, activity *model.TicketActivity) error
	// 訂閱票券事件
	Subscribe(ctx context.Context) (<-chan Delivery, error)
}

type ActivityQueueImpl struct {
	// 使用 Go channel 來模擬 MQ 隊列
	ch chan *model.TicketActivity
}

func NewActivityQueue(bufferSize int) ActivityQueue {
	return &ActivityQueueImpl{
		ch: make(chan *model.TicketActivity, bufferSize),
	}
}

func (q *ActivityQueueImpl) Publish(ctx context.Context, activity *model.TicketActivity) error {
	select {
	case q.ch <- activity:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *ActivityQueueImpl) Subscribe(ctx context.Context) (<-chan Delivery, error) {
	out := make(chan Delivery)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case activity, ok := <-q.ch:
				if !ok {
					return
				}

				d := Delivery{
					Data: activity,
					Ack:  func() {},
					Nack: func(requeue bool) {
						if requeue {
							// 簡單模擬重回隊列; 滿了就丟棄
							select {
							case q.ch <- activity:
							default:
							}
						}
					},
				}
				select {
				case out <- d:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
