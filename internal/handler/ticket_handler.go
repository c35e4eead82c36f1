package handler

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"go-gin-event-tickets/internal/model"
	"go-gin-event-tickets/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	defaultQRCodeSize = 256
	minQRCodeSize     = 64
	maxQRCodeSize     = 1024
)

type TicketHandler struct {
	service service.TicketService
}

func NewTicketHandler(service service.TicketService) *TicketHandler {
	return &TicketHandler{service: service}
}

func (h *TicketHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.POST("events/:id/tickets", h.IssuePrimaryTicket)
		router.POST("events/:id/tickets/claim", h.IssueUserTicket)
		router.PUT("events/:id/tickets/:ticketId/images", h.AttachTicketImages)
		router.PUT("events/:id/tickets/:ticketId/confirm", h.ConfirmPresence)
		router.GET("events/:id/tickets/:ticketId/qrcode", h.TicketQRCode)
		router.GET("events/:id/attendance", h.Attendance)
	}
}

func (h *TicketHandler) IssuePrimaryTicket(c *gin.Context) {
	eventID, ok := bindID(c, "id")
	if !ok {
		return
	}
	token, err := bearerToken(c)
	if err != nil {
		handleError(c, err, "IssuePrimaryTicket")
		return
	}
	var req model.IssueTicketRequest
	if err := BindJson(c, &req); err != nil {
		return
	}
	summary, err := h.service.IssuePrimaryTicket(c, eventID, req, token)
	if err != nil {
		handleError(c, err, "IssuePrimaryTicket")
		return
	}
	c.JSON(http.StatusCreated, summary)
}

// IssueUserTicket 舊版: 每位使用者一張票
func (h *TicketHandler) IssueUserTicket(c *gin.Context) {
	c.Header("Deprecation", "true")
	eventID, ok := bindID(c, "id")
	if !ok {
		return
	}
	token, err := bearerToken(c)
	if err != nil {
		handleError(c, err, "IssueUserTicket")
		return
	}
	detail, err := h.service.IssueUserTicket(c, eventID, token)
	if err != nil {
		handleError(c, err, "IssueUserTicket")
		return
	}
	c.JSON(http.StatusCreated, detail)
}

func (h *TicketHandler) AttachTicketImages(c *gin.Context) {
	eventID, ok := bindID(c, "id")
	if !ok {
		return
	}
	ticketID, ok := bindID(c, "ticketId")
	if !ok {
		return
	}

	var files []*multipart.FileHeader
	form, err := c.MultipartForm()
	switch {
	case err == nil:
		files = form.File["images"]
	case errors.Is(err, http.ErrNotMultipart):
		// 沒帶圖片: 不修改
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart form"})
		return
	}

	detail, err := h.service.AttachTicketImages(c, eventID, ticketID, files)
	if err != nil {
		handleError(c, err, "AttachTicketImages")
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *TicketHandler) ConfirmPresence(c *gin.Context) {
	eventID, ok := bindID(c, "id")
	if !ok {
		return
	}
	ticketID, ok := bindID(c, "ticketId")
	if !ok {
		return
	}
	summary, found, err := h.service.ConfirmPresence(c, eventID, ticketID)
	if err != nil {
		handleError(c, err, "ConfirmPresence")
		return
	}
	if !found {
		c.JSON(http.StatusOK, nil)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *TicketHandler) TicketQRCode(c *gin.Context) {
	eventID, ok := bindID(c, "id")
	if !ok {
		return
	}
	ticketID, ok := bindID(c, "ticketId")
	if !ok {
		return
	}
	size := defaultQRCodeSize
	if raw := c.Query("size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < minQRCodeSize || parsed > maxQRCodeSize {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid size"})
			return
		}
		size = parsed
	}

	png, err := h.service.TicketQRCode(c, eventID, ticketID, size)
	if err != nil {
		handleError(c, err, "TicketQRCode")
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (h *TicketHandler) Attendance(c *gin.Context) {
	eventID, ok := bindID(c, "id")
	if !ok {
		return
	}
	attendance, err := h.service.Attendance(c, eventID)
	if err != nil {
		handleError(c, err, "Attendance")
		return
	}
	c.JSON(http.StatusOK, attendance)
}
