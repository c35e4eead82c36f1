package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"slices"
	"time"

	"go-gin-event-tickets/internal/cache"
	"go-gin-event-tickets/internal/clock"
	"go-gin-event-tickets/internal/identity"
	"go-gin-event-tickets/internal/model"
	"go-gin-event-tickets/internal/qrcode"
	"go-gin-event-tickets/internal/repository"
	"go-gin-event-tickets/internal/storage"
	apperrors "go-gin-event-tickets/pkg/app_errors"
	"go-gin-event-tickets/pkg/logger"

	"go.uber.org/zap"
)

// ActivityPublisher receives ticket activity once a workflow operation has committed.
type ActivityPublisher interface {
	Publish(ctx context.Context, activity *model.TicketActivity) error
}

const publishTimeout = 2 * time.Second

type TicketService interface {
	// 主票券：每個活動只有一張，僅活動建立者可建立
	IssuePrimaryTicket(ctx context.Context, eventID int64, req model.IssueTicketRequest, credential string) (*model.TicketSummary, error)
	// Deprecated: use IssuePrimaryTicket. Kept for clients still issuing one ticket per user.
	IssueUserTicket(ctx context.Context, eventID int64, credential string) (*model.TicketDetail, error)
	AttachTicketImages(ctx context.Context, eventID, ticketID int64, files []*multipart.FileHeader) (*model.TicketImagesDetail, error)
	// ConfirmPresence 報到; found is false when the event or ticket does not exist.
	ConfirmPresence(ctx context.Context, eventID, ticketID int64) (summary model.ConfirmationSummary, found bool, err error)
	TicketQRCode(ctx context.Context, eventID, ticketID int64, size int) ([]byte, error)
	Attendance(ctx context.Context, eventID int64) (model.EventAttendance, error)
}

type TicketServiceImpl struct {
	tx         repository.Transactor
	eventRepo  repository.EventRepository
	ticketRepo repository.TicketRepository
	clock      clock.Provider
	identity   identity.Resolver
	images     storage.ImageStore
	qr         qrcode.Generator
	publisher  ActivityPublisher
	tracker    cache.AttendanceTracker
}

func NewTicketService(
	tx repository.Transactor,
	eventRepo repository.EventRepository,
	ticketRepo repository.TicketRepository,
	clk clock.Provider,
	resolver identity.Resolver,
	images storage.ImageStore,
	qr qrcode.Generator,
	publisher ActivityPublisher,
	tracker cache.AttendanceTracker,
) TicketService {
	return &TicketServiceImpl{
		tx:         tx,
		eventRepo:  eventRepo,
		ticketRepo: ticketRepo,
		clock:      clk,
		identity:   resolver,
		images:     images,
		qr:         qr,
		publisher:  publisher,
		tracker:    tracker,
	}
}

func (s *TicketServiceImpl) IssuePrimaryTicket(ctx context.Context, eventID int64, req model.IssueTicketRequest, credential string) (*model.TicketSummary, error) {
	username, err := s.identity.ResolveUsername(ctx, credential)
	if err != nil {
		return nil, err
	}

	var ticket *model.Ticket
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		// 1. 鎖住活動，同一活動的並發建立會在這裡排隊
		event, err := s.eventRepo.FindByIDForUpdate(ctx, eventID)
		if err != nil {
			return err
		}

		// 2. 檢查擁有者與票券數量
		if !event.IsOwnedBy(username) {
			return apperrors.ErrNotEventOwner
		}
		if event.HasTickets() {
			return apperrors.ErrTicketAlreadyExists
		}

		// 3. 檢查日期：開始日期不可早於今天，其餘格式問題之後才檢查
		if req.StartsBefore(s.clock.CurrentDate()) {
			return apperrors.ErrInvalidDate
		}
		if !req.Validate() {
			return fmt.Errorf("%w: ticket validity dates are missing or out of order", apperrors.ErrInvalidInput)
		}

		createdAt, err := s.creationStamp()
		if err != nil {
			return err
		}

		ticket = &model.Ticket{
			TicketID:          model.PrimaryTicketID,
			EventID:           event.ID,
			InitialDateTicket: req.InitialDateTicket,
			FinishDateTicket:  req.FinishDateTicket,
			InitialTimeTicket: req.InitialTimeTicket,
			FinishTimeTicket:  req.FinishTimeTicket,
			DateCreated:       s.clock.CurrentDate(),
			TimeCreated:       createdAt,
		}
		return s.ticketRepo.Save(ctx, ticket)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, model.ActivityTicketIssued, ticket, username)

	return &model.TicketSummary{
		InitialDateTicket: s.clock.FormattedDate(ticket.InitialDateTicket),
		FinishDateTicket:  s.clock.FormattedDate(ticket.FinishDateTicket),
		InitialTimeTicket: ticket.InitialTimeTicket,
		FinishTimeTicket:  ticket.FinishTimeTicket,
	}, nil
}

// Deprecated: use IssuePrimaryTicket.
func (s *TicketServiceImpl) IssueUserTicket(ctx context.Context, eventID int64, credential string) (*model.TicketDetail, error) {
	username, err := s.identity.ResolveUsername(ctx, credential)
	if err != nil {
		return nil, err
	}

	var (
		ticket    *model.Ticket
		eventName string
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		event, err := s.eventRepo.FindByIDForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		if event.HasTicketFrom(username) {
			return apperrors.ErrDuplicateUserTicket
		}

		code, err := s.qr.GenerateNumeric(qrcode.CodeLength)
		if err != nil {
			return fmt.Errorf("generate qr code: %w", err)
		}
		createdAt, err := s.creationStamp()
		if err != nil {
			return err
		}

		// FIXME: ticket_id is the per-event ticket count + 1, so the same value
		// shows up under every event. Clients still match on it; the row key
		// (Ticket.ID) is what storage relies on.
		ticket = &model.Ticket{
			TicketID:    int64(len(event.Tickets)) + 1,
			EventID:     event.ID,
			QRCode:      code,
			DateCreated: s.clock.CurrentDate(),
			TimeCreated: createdAt,
			Author:      username,
		}
		if err := s.ticketRepo.Save(ctx, ticket); err != nil {
			return err
		}
		event.Tickets = append(event.Tickets, ticket)
		eventName = event.Name
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, model.ActivityTicketIssued, ticket, username)

	return &model.TicketDetail{
		TicketID:    ticket.TicketID,
		EventName:   eventName,
		QRCode:      ticket.QRCode,
		Author:      ticket.Author,
		DateCreated: ticket.DateCreated,
		TimeCreated: s.clock.FormattedTime(ticket.TimeCreated),
	}, nil
}

// AttachTicketImages replaces the ticket's image list. Files written for a
// failed transaction are removed again; files of a replaced list are removed
// once the new list has committed.
func (s *TicketServiceImpl) AttachTicketImages(ctx context.Context, eventID, ticketID int64, files []*multipart.FileHeader) (*model.TicketImagesDetail, error) {
	var (
		detail   *model.TicketImagesDetail
		saved    []string
		replaced []string
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		event, err := s.eventRepo.FindByIDForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		ticket, ok := event.FindTicket(ticketID)
		if !ok {
			return apperrors.ErrTicketNotFound
		}

		// 沒有圖片就不修改，直接回傳目前狀態
		if len(files) > 0 {
			saved, err = s.images.SaveTicketImages(ctx, ticket, files)
			if err != nil {
				return err
			}
			replaced = slices.Clone(ticket.ImageURLs)
			ticket.ImageURLs = saved
			if err := s.ticketRepo.Save(ctx, ticket); err != nil {
				return err
			}
		}

		detail = model.NewTicketImagesDetail(ticket)
		return nil
	})
	if err != nil {
		s.removeImages(ctx, saved)
		return nil, err
	}

	s.removeImages(ctx, replaced)
	return detail, nil
}

// removeImages is best effort; a leftover file never fails the request.
func (s *TicketServiceImpl) removeImages(ctx context.Context, urls []string) {
	if len(urls) == 0 {
		return
	}
	if err := s.images.DeleteImages(context.WithoutCancel(ctx), urls); err != nil {
		logger.WithComponent("service").Warn("failed to remove ticket images",
			zap.Strings("urls", urls),
			zap.Error(err),
		)
	}
}

func (s *TicketServiceImpl) ConfirmPresence(ctx context.Context, eventID, ticketID int64) (model.ConfirmationSummary, bool, error) {
	var (
		ticket       *model.Ticket
		found        bool
		confirmedNow bool
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		event, err := s.eventRepo.FindByIDForUpdate(ctx, eventID)
		if errors.Is(err, apperrors.ErrEventNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		ticket, found = event.FindTicket(ticketID)
		if !found || ticket.IsPresence {
			return nil
		}

		ticket.IsPresence = true
		confirmedNow = true
		return s.ticketRepo.Save(ctx, ticket)
	})
	if err != nil {
		return model.ConfirmationSummary{}, false, err
	}
	if !found {
		return model.ConfirmationSummary{}, false, nil
	}

	if confirmedNow {
		s.publish(ctx, model.ActivityTicketConfirmed, ticket, ticket.Author)
	}

	return model.ConfirmationSummary{
		IsPresence:  ticket.IsPresence,
		DateCreated: s.clock.FormattedDate(ticket.DateCreated),
	}, true, nil
}

func (s *TicketServiceImpl) TicketQRCode(ctx context.Context, eventID, ticketID int64, size int) ([]byte, error) {
	event, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	ticket, ok := event.FindTicket(ticketID)
	if !ok {
		return nil, apperrors.ErrTicketNotFound
	}
	if ticket.QRCode == "" {
		return nil, apperrors.ErrTicketHasNoQRCode
	}
	return s.qr.EncodePNG(ticket.QRCode, size)
}

func (s *TicketServiceImpl) Attendance(ctx context.Context, eventID int64) (model.EventAttendance, error) {
	if _, err := s.eventRepo.FindByID(ctx, eventID); err != nil {
		return model.EventAttendance{}, err
	}
	return s.tracker.Counts(ctx, eventID)
}

// creationStamp reads the clock's canonical time string back into a time of day.
func (s *TicketServiceImpl) creationStamp() (clock.TimeOfDay, error) {
	t, err := clock.ParseTimeOfDay(s.clock.CurrentTimeFormatted())
	if err != nil {
		return clock.TimeOfDay{}, fmt.Errorf("read creation time: %w", err)
	}
	return t, nil
}

// publish 失敗只記錄，不影響已提交的結果
func (s *TicketServiceImpl) publish(ctx context.Context, kind model.ActivityKind, ticket *model.Ticket, author string) {
	if s.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	activity := &model.TicketActivity{
		Kind:       kind,
		EventID:    ticket.EventID,
		TicketID:   ticket.TicketID,
		Author:     author,
		OccurredAt: s.clock.Now(),
	}
	if err := s.publisher.Publish(ctx, activity); err != nil {
		logger.WithComponent("service").Warn("publish ticket activity failed",
			zap.String("kind", string(kind)),
			zap.Int64("event_id", ticket.EventID),
			zap.Int64("ticket_id", ticket.TicketID),
			zap.Error(err),
		)
	}
}
