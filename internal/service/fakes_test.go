package service_test

import (
	"context"
	"errors"
	"mime/multipart"
	"sync"
	"time"

	"go-gin-event-tickets/internal/clock"
	"go-gin-event-tickets/internal/model"
	"go-gin-event-tickets/internal/service"
	apperrors "go-gin-event-tickets/pkg/app_errors"
)

// lockingTransactor 以互斥鎖模擬資料列鎖，交易內的操作依序執行
type lockingTransactor struct {
	mu sync.Mutex
}

func (t *lockingTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx)
}

// memStore backs both fake repositories and hands out copies, like rows read from a database.
type memStore struct {
	mu           sync.Mutex
	events       map[int64]model.Event
	tickets      map[int64][]model.Ticket
	nextEventID  int64
	nextTicketID int64
	failSave     error
}

func newMemStore() *memStore {
	return &memStore{
		events:  make(map[int64]model.Event),
		tickets: make(map[int64][]model.Ticket),
	}
}

type fakeEventRepo struct{ s *memStore }

func (r fakeEventRepo) Save(ctx context.Context, event *model.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if event.ID == 0 {
		for _, e := range r.s.events {
			if e.Name == event.Name {
				return apperrors.ErrEventNameTaken
			}
		}
		r.s.nextEventID++
		event.ID = r.s.nextEventID
	} else if _, ok := r.s.events[event.ID]; !ok {
		return apperrors.ErrEventNotFound
	}
	stored := *event
	stored.Tickets = nil
	stored.ImageURLs = append([]string(nil), event.ImageURLs...)
	r.s.events[event.ID] = stored
	return nil
}

func (r fakeEventRepo) List(ctx context.Context) ([]*model.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	events := make([]*model.Event, 0, len(r.s.events))
	for id := int64(1); id <= r.s.nextEventID; id++ {
		if e, ok := r.s.events[id]; ok && !e.Deleted {
			e := e
			events = append(events, &e)
		}
	}
	return events, nil
}

func (r fakeEventRepo) FindByID(ctx context.Context, id int64) (*model.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.events[id]
	if !ok || e.Deleted {
		return nil, apperrors.ErrEventNotFound
	}
	for _, t := range r.s.tickets[id] {
		t := t
		t.ImageURLs = append([]string(nil), t.ImageURLs...)
		e.Tickets = append(e.Tickets, &t)
	}
	return &e, nil
}

func (r fakeEventRepo) FindByIDForUpdate(ctx context.Context, id int64) (*model.Event, error) {
	return r.FindByID(ctx, id)
}

type fakeTicketRepo struct{ s *memStore }

func (r fakeTicketRepo) Save(ctx context.Context, ticket *model.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failSave != nil {
		return r.s.failSave
	}
	stored := *ticket
	stored.ImageURLs = append([]string(nil), ticket.ImageURLs...)
	list := r.s.tickets[ticket.EventID]
	if ticket.IsNew() {
		for _, t := range list {
			if t.TicketID == ticket.TicketID {
				return apperrors.ErrTicketAlreadyExists
			}
		}
		r.s.nextTicketID++
		ticket.ID = r.s.nextTicketID
		stored.ID = ticket.ID
		r.s.tickets[ticket.EventID] = append(list, stored)
		return nil
	}
	for i, t := range list {
		if t.ID == ticket.ID {
			list[i] = stored
			return nil
		}
	}
	return apperrors.ErrTicketNotFound
}

func (r fakeTicketRepo) ListByEventID(ctx context.Context, eventID int64) ([]*model.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	tickets := make([]*model.Ticket, 0)
	for _, t := range r.s.tickets[eventID] {
		t := t
		tickets = append(tickets, &t)
	}
	return tickets, nil
}

func (s *memStore) ticketCount(eventID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tickets[eventID])
}

// token 就是使用者名稱; "bad" 代表無效憑證
type fakeResolver struct{}

func (fakeResolver) ResolveUsername(ctx context.Context, credential string) (string, error) {
	if credential == "" || credential == "bad" {
		return "", apperrors.ErrUnauthorized
	}
	return credential, nil
}

type fakeImageStore struct {
	err     error
	calls   int
	deleted []string
}

func (f *fakeImageStore) SaveTicketImages(ctx context.Context, ticket *model.Ticket, files []*multipart.FileHeader) ([]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	urls := make([]string, len(files))
	for i, fh := range files {
		urls[i] = "http://img.local/" + fh.Filename
	}
	return urls, nil
}

func (f *fakeImageStore) DeleteImages(ctx context.Context, urls []string) error {
	f.deleted = append(f.deleted, urls...)
	return nil
}

type fakeQR struct {
	codes []string
	next  int
}

func (f *fakeQR) GenerateNumeric(length int) (string, error) {
	if f.next >= len(f.codes) {
		return "0000000", nil
	}
	code := f.codes[f.next]
	f.next++
	return code, nil
}

func (f *fakeQR) EncodePNG(content string, size int) ([]byte, error) {
	return []byte("png:" + content), nil
}

type fakePublisher struct {
	mu   sync.Mutex
	sent []*model.TicketActivity
	err  error
}

func (p *fakePublisher) Publish(ctx context.Context, activity *model.TicketActivity) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, activity)
	return nil
}

type fakeTracker struct {
	counts model.EventAttendance
}

func (f *fakeTracker) Record(ctx context.Context, activity *model.TicketActivity) error {
	return errors.New("not used")
}

func (f *fakeTracker) Counts(ctx context.Context, eventID int64) (model.EventAttendance, error) {
	c := f.counts
	c.EventID = eventID
	return c, nil
}

var (
	now       = time.Date(2024, time.May, 10, 14, 30, 5, 0, time.UTC)
	today     = clock.NewDate(2024, time.May, 10)
	yesterday = clock.NewDate(2024, time.May, 9)
	tomorrow  = clock.NewDate(2024, time.May, 11)
)

type fixture struct {
	store     *memStore
	images    *fakeImageStore
	qr        *fakeQR
	publisher *fakePublisher
	tracker   *fakeTracker
	tickets   service.TicketService
	events    service.EventService
}

func newFixture() *fixture {
	f := &fixture{
		store:     newMemStore(),
		images:    &fakeImageStore{},
		qr:        &fakeQR{codes: []string{"1234567", "7654321", "1111111"}},
		publisher: &fakePublisher{},
		tracker:   &fakeTracker{},
	}
	tx := &lockingTransactor{}
	clk := clock.NewFixed(now)
	eventRepo := fakeEventRepo{s: f.store}
	ticketRepo := fakeTicketRepo{s: f.store}
	f.tickets = service.NewTicketService(tx, eventRepo, ticketRepo, clk, fakeResolver{}, f.images, f.qr, f.publisher, f.tracker)
	f.events = service.NewEventService(tx, eventRepo, clk, fakeResolver{})
	return f
}

func (f *fixture) createEvent(name, author string) *model.Event {
	event, err := f.events.Create(context.Background(), model.CreateEventRequest{
		Name:            name,
		ResponsibleArea: model.AreaEngineering,
		AccessArea:      model.AreaAll,
		Place:           model.PlaceAuditorium,
	}, author)
	if err != nil {
		panic(err)
	}
	return event
}

func primaryRequest(start clock.Date) model.IssueTicketRequest {
	return model.IssueTicketRequest{
		InitialDateTicket: start,
		FinishDateTicket:  clock.NewDate(2024, time.June, 1),
		InitialTimeTicket: clock.NewTimeOfDay(9, 0, 0),
		FinishTimeTicket:  clock.NewTimeOfDay(18, 0, 0),
	}
}
