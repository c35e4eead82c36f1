package handler

import (
	"errors"
	"net/http"
	"strconv"

	"go-gin-event-tickets/internal/identity"
	apperrors "go-gin-event-tickets/pkg/app_errors"
	"go-gin-event-tickets/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func BindJson(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return err
	}
	return nil
}

// bindID 讀取路徑上的數字 id，失敗時直接回 400
func bindID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid " + name,
		})
		return 0, false
	}
	return id, true
}

func bearerToken(c *gin.Context) (string, error) {
	return identity.ExtractBearer(c.GetHeader("Authorization"))
}

func handleError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))
	switch {
	case errors.Is(err, apperrors.ErrEventNotFound):
		log.Warn("Event not found")
		c.JSON(http.StatusNotFound, gin.H{"error": apperrors.ErrEventNotFound.Error()})
	case errors.Is(err, apperrors.ErrTicketNotFound):
		log.Warn("Ticket not found")
		c.JSON(http.StatusNotFound, gin.H{"error": apperrors.ErrTicketNotFound.Error()})
	case errors.Is(err, apperrors.ErrTicketHasNoQRCode):
		log.Warn("Ticket has no qr code")
		c.JSON(http.StatusNotFound, gin.H{"error": apperrors.ErrTicketHasNoQRCode.Error()})
	case errors.Is(err, apperrors.ErrNotEventOwner):
		log.Warn("Not event owner")
		c.JSON(http.StatusForbidden, gin.H{"error": apperrors.ErrNotEventOwner.Error()})
	case errors.Is(err, apperrors.ErrTicketAlreadyExists):
		log.Warn("Ticket already exists")
		c.JSON(http.StatusConflict, gin.H{"error": apperrors.ErrTicketAlreadyExists.Error()})
	case errors.Is(err, apperrors.ErrDuplicateUserTicket):
		log.Warn("Duplicate user ticket")
		c.JSON(http.StatusConflict, gin.H{"error": apperrors.ErrDuplicateUserTicket.Error()})
	case errors.Is(err, apperrors.ErrEventNameTaken):
		log.Warn("Event name taken")
		c.JSON(http.StatusConflict, gin.H{"error": apperrors.ErrEventNameTaken.Error()})
	case errors.Is(err, apperrors.ErrInvalidDate):
		log.Warn("Invalid date")
		c.JSON(http.StatusBadRequest, gin.H{"error": apperrors.ErrInvalidDate.Error()})
	case errors.Is(err, apperrors.ErrInvalidInput):
		log.Warn("Invalid input")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrUnauthorized):
		log.Warn("Unauthorized")
		c.JSON(http.StatusUnauthorized, gin.H{"error": apperrors.ErrUnauthorized.Error()})
	default:
		log.Error("Unexpected error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
