package service

import (
	"context"
	"fmt"

	"go-gin-event-tickets/internal/clock"
	"go-gin-event-tickets/internal/identity"
	"go-gin-event-tickets/internal/model"
	"go-gin-event-tickets/internal/repository"
	apperrors "go-gin-event-tickets/pkg/app_errors"
)

type EventService interface {
	Create(ctx context.Context, req model.CreateEventRequest, credential string) (*model.Event, error)
	List(ctx context.Context) ([]*model.Event, error)
	GetByID(ctx context.Context, id int64) (*model.Event, error)
	// Update 部分更新：nil 欄位保持不變，僅活動建立者可修改
	Update(ctx context.Context, id int64, params model.UpdateEventParams, credential string) (*model.Event, error)
	// Delete 軟刪除
	Delete(ctx context.Context, id int64, credential string) error
}

type EventServiceImpl struct {
	tx       repository.Transactor
	repo     repository.EventRepository
	clock    clock.Provider
	identity identity.Resolver
}

func NewEventService(tx repository.Transactor, repo repository.EventRepository, clk clock.Provider, resolver identity.Resolver) EventService {
	return &EventServiceImpl{tx: tx, repo: repo, clock: clk, identity: resolver}
}

func (s *EventServiceImpl) Create(ctx context.Context, req model.CreateEventRequest, credential string) (*model.Event, error) {
	username, err := s.identity.ResolveUsername(ctx, credential)
	if err != nil {
		return nil, err
	}
	if !req.Validate() {
		return nil, apperrors.ErrInvalidInput
	}

	createdAt, err := clock.ParseTimeOfDay(s.clock.CurrentTimeFormatted())
	if err != nil {
		return nil, fmt.Errorf("read creation time: %w", err)
	}

	event := &model.Event{
		Name:              req.Name,
		ResponsibleArea:   req.ResponsibleArea,
		AccessArea:        req.AccessArea,
		Description:       req.Description,
		ImageURLs:         []string{},
		Place:             req.Place,
		InitialDate:       req.InitialDate,
		FinishDate:        req.FinishDate,
		InitialTime:       req.InitialTime,
		FinishTime:        req.FinishTime,
		InitialDateTicket: req.InitialDateTicket,
		FinishDateTicket:  req.FinishDateTicket,
		InitialTimeTicket: req.InitialTimeTicket,
		FinishTimeTicket:  req.FinishTimeTicket,
		DateCreated:       s.clock.CurrentDate(),
		TimeCreated:       createdAt,
		Author:            username,
	}
	if err := s.repo.Save(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *EventServiceImpl) List(ctx context.Context) ([]*model.Event, error) {
	return s.repo.List(ctx)
}

func (s *EventServiceImpl) GetByID(ctx context.Context, id int64) (*model.Event, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *EventServiceImpl) Update(ctx context.Context, id int64, params model.UpdateEventParams, credential string) (*model.Event, error) {
	if params.IsEmpty() {
		return nil, apperrors.ErrInvalidInput
	}
	username, err := s.identity.ResolveUsername(ctx, credential)
	if err != nil {
		return nil, err
	}

	var updated *model.Event
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		event, err := s.repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !event.IsOwnedBy(username) {
			return apperrors.ErrNotEventOwner
		}

		event.ApplyPatch(params)
		if !event.WindowsOrdered() {
			return fmt.Errorf("%w: finish date before initial date", apperrors.ErrInvalidInput)
		}
		if err := s.repo.Save(ctx, event); err != nil {
			return err
		}
		updated = event
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *EventServiceImpl) Delete(ctx context.Context, id int64, credential string) error {
	username, err := s.identity.ResolveUsername(ctx, credential)
	if err != nil {
		return err
	}

	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		event, err := s.repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !event.IsOwnedBy(username) {
			return apperrors.ErrNotEventOwner
		}
		event.MarkDeleted()
		return s.repo.Save(ctx, event)
	})
}
