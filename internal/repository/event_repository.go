package repository

import (
	"context"
	"errors"
	"fmt"

	"go-gin-event-tickets/internal/model"
	apperrors "go-gin-event-tickets/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EventRepository interface {
	// Save inserts a new event (ID == 0) or overwrites the stored one.
	Save(ctx context.Context, event *model.Event) error
	List(ctx context.Context) ([]*model.Event, error)
	// FindByID loads a non-deleted event together with its tickets.
	FindByID(ctx context.Context, id int64) (*model.Event, error)

	// Transaction methods
	FindByIDForUpdate(ctx context.Context, id int64) (*model.Event, error)
}

type EventRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) EventRepository {
	return &EventRepositoryImpl{
		pool: pool,
	}
}

const eventColumns = `
	id, name, responsible_area, access_area, description, image_urls, place,
	initial_date, finish_date, initial_time, finish_time,
	initial_date_ticket, finish_date_ticket, initial_time_ticket, finish_time_ticket,
	date_created, time_created, author, deleted`

func scanEvent(row pgx.Row) (*model.Event, error) {
	var event model.Event
	err := row.Scan(
		&event.ID,
		&event.Name,
		&event.ResponsibleArea,
		&event.AccessArea,
		&event.Description,
		&event.ImageURLs,
		&event.Place,
		&event.InitialDate,
		&event.FinishDate,
		&event.InitialTime,
		&event.FinishTime,
		&event.InitialDateTicket,
		&event.FinishDateTicket,
		&event.InitialTimeTicket,
		&event.FinishTimeTicket,
		&event.DateCreated,
		&event.TimeCreated,
		&event.Author,
		&event.Deleted,
	)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *EventRepositoryImpl) Save(ctx context.Context, event *model.Event) error {
	if event.ID == 0 {
		return r.insert(ctx, event)
	}
	return r.update(ctx, event)
}

func (r *EventRepositoryImpl) insert(ctx context.Context, event *model.Event) error {
	query := `
		INSERT INTO events (
			name, responsible_area, access_area, description, image_urls, place,
			initial_date, finish_date, initial_time, finish_time,
			initial_date_ticket, finish_date_ticket, initial_time_ticket, finish_time_ticket,
			date_created, time_created, author, deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id
	`

	err := conn(ctx, r.pool).QueryRow(ctx, query,
		event.Name, event.ResponsibleArea, event.AccessArea, event.Description, nonNil(event.ImageURLs), event.Place,
		event.InitialDate, event.FinishDate, event.InitialTime, event.FinishTime,
		event.InitialDateTicket, event.FinishDateTicket, event.InitialTimeTicket, event.FinishTimeTicket,
		event.DateCreated, event.TimeCreated, event.Author, event.Deleted,
	).Scan(&event.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrEventNameTaken
		}
		return fmt.Errorf("failed to create event: %w", err)
	}

	return nil
}

func (r *EventRepositoryImpl) update(ctx context.Context, event *model.Event) error {
	query := `
		UPDATE events
		SET description = $1, image_urls = $2,
			initial_date = $3, finish_date = $4, initial_time = $5, finish_time = $6,
			initial_date_ticket = $7, finish_date_ticket = $8,
			initial_time_ticket = $9, finish_time_ticket = $10,
			deleted = $11
		WHERE id = $12
	`

	result, err := conn(ctx, r.pool).Exec(ctx, query,
		event.Description, nonNil(event.ImageURLs),
		event.InitialDate, event.FinishDate, event.InitialTime, event.FinishTime,
		event.InitialDateTicket, event.FinishDateTicket, event.InitialTimeTicket, event.FinishTimeTicket,
		event.Deleted, event.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrEventNotFound
	}

	return nil
}

func (r *EventRepositoryImpl) List(ctx context.Context) ([]*model.Event, error) {
	query := `SELECT ` + eventColumns + `
		FROM events
		WHERE deleted = FALSE
		ORDER BY date_created DESC, time_created DESC, id DESC
	`
	rows, err := conn(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*model.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

func (r *EventRepositoryImpl) FindByID(ctx context.Context, id int64) (*model.Event, error) {
	query := `SELECT ` + eventColumns + `
		FROM events
		WHERE id = $1 AND deleted = FALSE
	`
	return r.findWithTickets(ctx, query, id)
}

func (r *EventRepositoryImpl) FindByIDForUpdate(ctx context.Context, id int64) (*model.Event, error) {
	query := `SELECT ` + eventColumns + `
		FROM events
		WHERE id = $1 AND deleted = FALSE
		FOR UPDATE
	`
	return r.findWithTickets(ctx, query, id)
}

func (r *EventRepositoryImpl) findWithTickets(ctx context.Context, query string, id int64) (*model.Event, error) {
	q := conn(ctx, r.pool)

	event, err := scanEvent(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, err
	}

	event.Tickets, err = listTicketsByEvent(ctx, q, event.ID)
	if err != nil {
		return nil, err
	}

	return event, nil
}
