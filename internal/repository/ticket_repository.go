package repository

import (
	"context"
	"fmt"

	"go-gin-event-tickets/internal/model"
	apperrors "go-gin-event-tickets/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TicketRepository interface {
	// Save inserts a new ticket (ID == 0) or writes back its mutable fields.
	Save(ctx context.Context, ticket *model.Ticket) error
	ListByEventID(ctx context.Context, eventID int64) ([]*model.Ticket, error)
}

type TicketRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &TicketRepositoryImpl{
		pool: pool,
	}
}

const ticketColumns = `
	id, ticket_id, event_id,
	initial_date_ticket, finish_date_ticket, initial_time_ticket, finish_time_ticket,
	COALESCE(qr_code, ''), image_urls, is_presence, date_created, time_created,
	COALESCE(author, '')`

func scanTicket(row pgx.Row) (*model.Ticket, error) {
	var ticket model.Ticket
	err := row.Scan(
		&ticket.ID,
		&ticket.TicketID,
		&ticket.EventID,
		&ticket.InitialDateTicket,
		&ticket.FinishDateTicket,
		&ticket.InitialTimeTicket,
		&ticket.FinishTimeTicket,
		&ticket.QRCode,
		&ticket.ImageURLs,
		&ticket.IsPresence,
		&ticket.DateCreated,
		&ticket.TimeCreated,
		&ticket.Author,
	)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *TicketRepositoryImpl) Save(ctx context.Context, ticket *model.Ticket) error {
	if ticket.IsNew() {
		return r.insert(ctx, ticket)
	}
	return r.update(ctx, ticket)
}

func (r *TicketRepositoryImpl) insert(ctx context.Context, ticket *model.Ticket) error {
	query := `
		INSERT INTO tickets (
			ticket_id, event_id,
			initial_date_ticket, finish_date_ticket, initial_time_ticket, finish_time_ticket,
			qr_code, image_urls, is_presence, date_created, time_created, author)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9, $10, $11, NULLIF($12, ''))
		RETURNING id
	`

	err := conn(ctx, r.pool).QueryRow(ctx, query,
		ticket.TicketID, ticket.EventID,
		ticket.InitialDateTicket, ticket.FinishDateTicket, ticket.InitialTimeTicket, ticket.FinishTimeTicket,
		ticket.QRCode, nonNil(ticket.ImageURLs), ticket.IsPresence,
		ticket.DateCreated, ticket.TimeCreated, ticket.Author,
	).Scan(&ticket.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrTicketAlreadyExists
		}
		return fmt.Errorf("failed to create ticket: %w", err)
	}

	return nil
}

func (r *TicketRepositoryImpl) update(ctx context.Context, ticket *model.Ticket) error {
	query := `
		UPDATE tickets
		SET image_urls = $1, is_presence = $2
		WHERE id = $3
	`

	result, err := conn(ctx, r.pool).Exec(ctx, query, nonNil(ticket.ImageURLs), ticket.IsPresence, ticket.ID)
	if err != nil {
		return fmt.Errorf("failed to update ticket: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrTicketNotFound
	}

	return nil
}

func (r *TicketRepositoryImpl) ListByEventID(ctx context.Context, eventID int64) ([]*model.Ticket, error) {
	return listTicketsByEvent(ctx, conn(ctx, r.pool), eventID)
}

func listTicketsByEvent(ctx context.Context, q querier, eventID int64) ([]*model.Ticket, error) {
	query := `SELECT ` + ticketColumns + `
		FROM tickets
		WHERE event_id = $1
		ORDER BY ticket_id
	`

	rows, err := q.Query(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]*model.Ticket, 0)

	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tickets, nil
}
