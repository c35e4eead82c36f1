package model

import (
	"go-gin-event-tickets/internal/clock"
)

// Event 活動模型. An event owns at most one primary ticket (legacy path: one per user).
type Event struct {
	ID              int64    `json:"event_id" db:"id"`
	Name            string   `json:"name_of_event" db:"name"`
	ResponsibleArea Area     `json:"responsible_area" db:"responsible_area"`
	AccessArea      Area     `json:"access_area" db:"access_area"`
	Description     string   `json:"description" db:"description"`
	ImageURLs       []string `json:"image_urls" db:"image_urls"`
	Place           Place    `json:"place" db:"place"`

	InitialDate clock.Date      `json:"initial_date" db:"initial_date"`
	FinishDate  clock.Date      `json:"finish_date" db:"finish_date"`
	InitialTime clock.TimeOfDay `json:"initial_time" db:"initial_time"`
	FinishTime  clock.TimeOfDay `json:"finish_time" db:"finish_time"`

	InitialDateTicket clock.Date      `json:"initial_date_ticket" db:"initial_date_ticket"`
	FinishDateTicket  clock.Date      `json:"finish_date_ticket" db:"finish_date_ticket"`
	InitialTimeTicket clock.TimeOfDay `json:"initial_time_ticket" db:"initial_time_ticket"`
	FinishTimeTicket  clock.TimeOfDay `json:"finish_time_ticket" db:"finish_time_ticket"`

	DateCreated clock.Date      `json:"date_created" db:"date_created"`
	TimeCreated clock.TimeOfDay `json:"time_created" db:"time_created"`
	Author      string          `json:"author" db:"author"`
	Deleted     bool            `json:"-" db:"deleted"`

	Tickets []*Ticket `json:"-" db:"-"`
}

// IsOwnedBy 檢查使用者是否為活動建立者
func (e *Event) IsOwnedBy(username string) bool {
	return e.Author == username
}

func (e *Event) HasTickets() bool {
	return len(e.Tickets) > 0
}

// FindTicket looks a ticket up by its event-scoped identifier.
func (e *Event) FindTicket(ticketID int64) (*Ticket, bool) {
	for _, t := range e.Tickets {
		if t.TicketID == ticketID {
			return t, true
		}
	}
	return nil, false
}

// HasTicketFrom reports whether author already holds a ticket for the event.
func (e *Event) HasTicketFrom(author string) bool {
	for _, t := range e.Tickets {
		if t.Author == author {
			return true
		}
	}
	return false
}

// ApplyPatch overwrites only the fields set in p.
func (e *Event) ApplyPatch(p UpdateEventParams) {
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.ImageURLs != nil {
		e.ImageURLs = *p.ImageURLs
	}
	if p.InitialDate != nil {
		e.InitialDate = *p.InitialDate
	}
	if p.FinishDate != nil {
		e.FinishDate = *p.FinishDate
	}
	if p.InitialTime != nil {
		e.InitialTime = *p.InitialTime
	}
	if p.FinishTime != nil {
		e.FinishTime = *p.FinishTime
	}
	if p.InitialDateTicket != nil {
		e.InitialDateTicket = *p.InitialDateTicket
	}
	if p.FinishDateTicket != nil {
		e.FinishDateTicket = *p.FinishDateTicket
	}
	if p.InitialTimeTicket != nil {
		e.InitialTimeTicket = *p.InitialTimeTicket
	}
	if p.FinishTimeTicket != nil {
		e.FinishTimeTicket = *p.FinishTimeTicket
	}
}

// WindowsOrdered reports whether the event and ticket windows end no earlier than they start.
func (e *Event) WindowsOrdered() bool {
	return datesOrdered(e.InitialDate, e.FinishDate) && datesOrdered(e.InitialDateTicket, e.FinishDateTicket)
}

func datesOrdered(start, finish clock.Date) bool {
	return start.IsZero() || finish.IsZero() || !finish.Before(start)
}

// MarkDeleted 軟刪除: the row stays, normal queries skip it.
func (e *Event) MarkDeleted() {
	e.Deleted = true
}

// UpdateEventParams is a partial update; nil means "leave unchanged".
type UpdateEventParams struct {
	Description       *string          `json:"description"`
	ImageURLs         *[]string        `json:"image_urls"`
	InitialDate       *clock.Date      `json:"initial_date"`
	FinishDate        *clock.Date      `json:"finish_date"`
	InitialTime       *clock.TimeOfDay `json:"initial_time"`
	FinishTime        *clock.TimeOfDay `json:"finish_time"`
	InitialDateTicket *clock.Date      `json:"initial_date_ticket"`
	FinishDateTicket  *clock.Date      `json:"finish_date_ticket"`
	InitialTimeTicket *clock.TimeOfDay `json:"initial_time_ticket"`
	FinishTimeTicket  *clock.TimeOfDay `json:"finish_time_ticket"`
}

// IsEmpty reports whether no field is set.
func (p UpdateEventParams) IsEmpty() bool {
	return p.Description == nil && p.ImageURLs == nil &&
		p.InitialDate == nil && p.FinishDate == nil &&
		p.InitialTime == nil && p.FinishTime == nil &&
		p.InitialDateTicket == nil && p.FinishDateTicket == nil &&
		p.InitialTimeTicket == nil && p.FinishTimeTicket == nil
}

// CreateEventRequest 建立活動請求
type CreateEventRequest struct {
	Name            string `json:"name_of_event" binding:"required"`
	ResponsibleArea Area   `json:"responsible_area" binding:"required"`
	AccessArea      Area   `json:"access_area" binding:"required"`
	Description     string `json:"description"`
	Place           Place  `json:"place" binding:"required"`

	InitialDate clock.Date      `json:"initial_date"`
	FinishDate  clock.Date      `json:"finish_date"`
	InitialTime clock.TimeOfDay `json:"initial_time"`
	FinishTime  clock.TimeOfDay `json:"finish_time"`

	InitialDateTicket clock.Date      `json:"initial_date_ticket"`
	FinishDateTicket  clock.Date      `json:"finish_date_ticket"`
	InitialTimeTicket clock.TimeOfDay `json:"initial_time_ticket"`
	FinishTimeTicket  clock.TimeOfDay `json:"finish_time_ticket"`
}

// Validate checks the enums and that every window ends no earlier than it starts.
func (r CreateEventRequest) Validate() bool {
	if r.Name == "" || !r.ResponsibleArea.IsValid() || !r.AccessArea.IsValid() || !r.Place.IsValid() {
		return false
	}
	return datesOrdered(r.InitialDate, r.FinishDate) && datesOrdered(r.InitialDateTicket, r.FinishDateTicket)
}

// EventAttendance 活動出席統計
type EventAttendance struct {
	EventID   int64 `json:"event_id"`
	Issued    int64 `json:"issued"`
	Confirmed int64 `json:"confirmed"`
}
