package apperrors

import "errors"

var (
	ErrEventNotFound       = errors.New("event not found")
	ErrTicketNotFound      = errors.New("ticket not found")
	ErrNotEventOwner       = errors.New("you don't own this event, so you cannot create a ticket for it")
	ErrTicketAlreadyExists = errors.New("a ticket for this event already exists, only one ticket per event is allowed")
	ErrDuplicateUserTicket = errors.New("user has already created a ticket for this event")
	ErrInvalidDate         = errors.New("invalid date: the ticket start date has already passed, enter a current or future date")

	ErrEventNameTaken      = errors.New("an event with this name already exists")
	ErrTicketHasNoQRCode   = errors.New("ticket has no qr code")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInternalServerError = errors.New("internal server error")
)
