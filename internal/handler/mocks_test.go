package handler_test

import (
	"context"
	"mime/multipart"

	"go-gin-event-tickets/internal/model"

	"github.com/stretchr/testify/mock"
)

type EventServiceMock struct {
	mock.Mock
}

func (m *EventServiceMock) Create(ctx context.Context, req model.CreateEventRequest, credential string) (*model.Event, error) {
	args := m.Called(ctx, req, credential)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Event), args.Error(1)
}

func (m *EventServiceMock) List(ctx context.Context) ([]*model.Event, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Event), args.Error(1)
}

func (m *EventServiceMock) GetByID(ctx context.Context, id int64) (*model.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Event), args.Error(1)
}

func (m *EventServiceMock) Update(ctx context.Context, id int64, params model.UpdateEventParams, credential string) (*model.Event, error) {
	args := m.Called(ctx, id, params, credential)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Event), args.Error(1)
}

func (m *EventServiceMock) Delete(ctx context.Context, id int64, credential string) error {
	args := m.Called(ctx, id, credential)
	return args.Error(0)
}

type TicketServiceMock struct {
	mock.Mock
}

func (m *TicketServiceMock) IssuePrimaryTicket(ctx context.Context, eventID int64, req model.IssueTicketRequest, credential string) (*model.TicketSummary, error) {
	args := m.Called(ctx, eventID, req, credential)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TicketSummary), args.Error(1)
}

func (m *TicketServiceMock) IssueUserTicket(ctx context.Context, eventID int64, credential string) (*model.TicketDetail, error) {
	args := m.Called(ctx, eventID, credential)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TicketDetail), args.Error(1)
}

func (m *TicketServiceMock) AttachTicketImages(ctx context.Context, eventID, ticketID int64, files []*multipart.FileHeader) (*model.TicketImagesDetail, error) {
	args := m.Called(ctx, eventID, ticketID, files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TicketImagesDetail), args.Error(1)
}

func (m *TicketServiceMock) ConfirmPresence(ctx context.Context, eventID, ticketID int64) (model.ConfirmationSummary, bool, error) {
	args := m.Called(ctx, eventID, ticketID)
	return args.Get(0).(model.ConfirmationSummary), args.Bool(1), args.Error(2)
}

func (m *TicketServiceMock) TicketQRCode(ctx context.Context, eventID, ticketID int64, size int) ([]byte, error) {
	args := m.Called(ctx, eventID, ticketID, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *TicketServiceMock) Attendance(ctx context.Context, eventID int64) (model.EventAttendance, error) {
	args := m.Called(ctx, eventID)
	return args.Get(0).(model.EventAttendance), args.Error(1)
}
