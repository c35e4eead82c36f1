package model

import "time"

// ActivityKind 票券事件類型
type ActivityKind string

const (
	ActivityTicketIssued    ActivityKind = "ticket.issued"
	ActivityTicketConfirmed ActivityKind = "ticket.confirmed"
)

func (k ActivityKind) IsValid() bool {
	switch k {
	case ActivityTicketIssued, ActivityTicketConfirmed:
		return true
	}
	return false
}

// TicketActivity is published after a workflow operation commits.
type TicketActivity struct {
	Kind       ActivityKind `json:"kind"`
	EventID    int64        `json:"event_id"`
	TicketID   int64        `json:"ticket_id"`
	Author     string       `json:"author,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}
