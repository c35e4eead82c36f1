package model

import (
	"go-gin-event-tickets/internal/clock"
)

// PrimaryTicketID is the fixed identifier of an event's sole primary ticket.
const PrimaryTicketID int64 = 1

// Ticket 票券模型. EventID is a plain back-reference; the ticket never owns its event.
type Ticket struct {
	// ID is the storage row key. TicketID is the identifier callers see, and it
	// is only unique within one event.
	ID       int64 `json:"-" db:"id"`
	TicketID int64 `json:"ticket_id" db:"ticket_id"`
	EventID  int64 `json:"event_id" db:"event_id"`

	InitialDateTicket clock.Date      `json:"initial_date_ticket" db:"initial_date_ticket"`
	FinishDateTicket  clock.Date      `json:"finish_date_ticket" db:"finish_date_ticket"`
	InitialTimeTicket clock.TimeOfDay `json:"initial_time_ticket" db:"initial_time_ticket"`
	FinishTimeTicket  clock.TimeOfDay `json:"finish_time_ticket" db:"finish_time_ticket"`

	QRCode      string          `json:"qr_code_number" db:"qr_code"`
	ImageURLs   []string        `json:"image_urls" db:"image_urls"`
	IsPresence  bool            `json:"is_presence" db:"is_presence"`
	DateCreated clock.Date      `json:"date_created" db:"date_created"`
	TimeCreated clock.TimeOfDay `json:"time_created" db:"time_created"`
	Author      string          `json:"author" db:"author"`
}

// IsNew 檢查票券是否尚未寫入資料庫
func (t *Ticket) IsNew() bool {
	return t.ID == 0
}

// IssueTicketRequest 建立主票券請求
type IssueTicketRequest struct {
	InitialDateTicket clock.Date      `json:"initial_date_ticket"`
	FinishDateTicket  clock.Date      `json:"finish_date_ticket"`
	InitialTimeTicket clock.TimeOfDay `json:"initial_time_ticket"`
	FinishTimeTicket  clock.TimeOfDay `json:"finish_time_ticket"`
}

// StartsBefore reports whether a start date is set and falls strictly before day.
func (r IssueTicketRequest) StartsBefore(day clock.Date) bool {
	return !r.InitialDateTicket.IsZero() && r.InitialDateTicket.Before(day)
}

// Validate reports whether both validity dates are present and ordered.
// A past start date is not its concern; see StartsBefore.
func (r IssueTicketRequest) Validate() bool {
	if r.InitialDateTicket.IsZero() || r.FinishDateTicket.IsZero() {
		return false
	}
	return !r.FinishDateTicket.Before(r.InitialDateTicket)
}

// TicketSummary 主票券建立回應
type TicketSummary struct {
	InitialDateTicket string          `json:"initial_date_ticket"`
	FinishDateTicket  string          `json:"finish_date_ticket"`
	InitialTimeTicket clock.TimeOfDay `json:"initial_time_ticket"`
	FinishTimeTicket  clock.TimeOfDay `json:"finish_time_ticket"`
}

// TicketDetail 使用者票券回應 (legacy path)
type TicketDetail struct {
	TicketID    int64      `json:"ticket_id"`
	EventName   string     `json:"name_of_event"`
	QRCode      string     `json:"qr_code_number"`
	Author      string     `json:"author"`
	DateCreated clock.Date `json:"date_created"`
	TimeCreated string     `json:"time_created"`
}

// TicketImagesDetail is the ticket snapshot returned after an image upload.
type TicketImagesDetail struct {
	TicketID          int64           `json:"ticket_id"`
	EventID           int64           `json:"event_id"`
	InitialDateTicket clock.Date      `json:"initial_date_ticket"`
	FinishDateTicket  clock.Date      `json:"finish_date_ticket"`
	InitialTimeTicket clock.TimeOfDay `json:"initial_time_ticket"`
	FinishTimeTicket  clock.TimeOfDay `json:"finish_time_ticket"`
	QRCode            string          `json:"qr_code_number"`
	ImageURLs         []string        `json:"image_urls"`
	IsPresence        bool            `json:"is_presence"`
	Author            string          `json:"author"`
}

func NewTicketImagesDetail(t *Ticket) *TicketImagesDetail {
	urls := make([]string, len(t.ImageURLs))
	copy(urls, t.ImageURLs)
	return &TicketImagesDetail{
		TicketID:          t.TicketID,
		EventID:           t.EventID,
		InitialDateTicket: t.InitialDateTicket,
		FinishDateTicket:  t.FinishDateTicket,
		InitialTimeTicket: t.InitialTimeTicket,
		FinishTimeTicket:  t.FinishTimeTicket,
		QRCode:            t.QRCode,
		ImageURLs:         urls,
		IsPresence:        t.IsPresence,
		Author:            t.Author,
	}
}

// ConfirmationSummary 報到回應
type ConfirmationSummary struct {
	IsPresence  bool   `json:"is_presence"`
	DateCreated string `json:"date_created"`
}
