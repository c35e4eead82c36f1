package cache

import (
	"context"
	"errors"
	"fmt"

	"go-gin-event-tickets/internal/model"

	"github.com/redis/go-redis/v9"
)

type AttendanceTracker interface {
	// 記錄：把一筆票券事件記入活動的出席統計 (使用Lua腳本確保原子性)
	Record(ctx context.Context, activity *model.TicketActivity) error
	// 獲取：活動已發出與已報到的票數
	Counts(ctx context.Context, eventID int64) (model.EventAttendance, error)
}

type RedisAttendanceTrackerImpl struct {
	client *redis.Client
}

func NewRedisAttendanceTracker(client *redis.Client) AttendanceTracker {
	return &RedisAttendanceTrackerImpl{
		client: client,
	}
}

// 已發出票券的 key
func (m *RedisAttendanceTrackerImpl) getIssuedKey(eventID int64) string {
	return fmt.Sprintf("event:%d:attendance:issued", eventID)
}

// 已報到票券的 key
func (m *RedisAttendanceTrackerImpl) getConfirmedKey(eventID int64) string {
	return fmt.Sprintf("event:%d:attendance:confirmed", eventID)
}

// 用 set 記 ticket id, 同一事件重送不會重複計數
var recordScript = redis.NewScript(`
	-- 1. 取得參數
	local issued_key = KEYS[1]
	local confirmed_key = KEYS[2]
	local kind = ARGV[1]
	local ticket_id = ARGV[2]

	-- 2. 報到的票一定已發出
	if kind == 'ticket.issued' then
		redis.call('SADD', issued_key, ticket_id)
	elseif kind == 'ticket.confirmed' then
		redis.call('SADD', issued_key, ticket_id)
		redis.call('SADD', confirmed_key, ticket_id)
	else
		return -1 -- 錯誤：未知的事件類型
	end

	return 1
`)

func (m *RedisAttendanceTrackerImpl) Record(ctx context.Context, activity *model.TicketActivity) error {
	keys := []string{m.getIssuedKey(activity.EventID), m.getConfirmedKey(activity.EventID)}

	code, err := recordScript.Run(ctx, m.client, keys, string(activity.Kind), activity.TicketID).Int64()
	if err != nil {
		return err
	}
	if code != 1 {
		return errors.New("unexpected activity kind: " + string(activity.Kind))
	}
	return nil
}

func (m *RedisAttendanceTrackerImpl) Counts(ctx context.Context, eventID int64) (model.EventAttendance, error) {
	pipe := m.client.Pipeline()
	issued := pipe.SCard(ctx, m.getIssuedKey(eventID))
	confirmed := pipe.SCard(ctx, m.getConfirmedKey(eventID))
	if _, err := pipe.Exec(ctx); err != nil {
		return model.EventAttendance{}, err
	}

	return model.EventAttendance{
		EventID:   eventID,
		Issued:    issued.Val(),
		Confirmed: confirmed.Val(),
	}, nil
}
