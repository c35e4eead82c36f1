package handler

import (
	"net/http"

	"go-gin-event-tickets/internal/model"
	"go-gin-event-tickets/internal/service"

	"github.com/gin-gonic/gin"
)

type EventHandler struct {
	service service.EventService
}

func NewEventHandler(service service.EventService) *EventHandler {
	return &EventHandler{service: service}
}

func (h *EventHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.GET("events", h.List)
		router.GET("events/:id", h.GetByID)
		router.POST("events", h.Create)
		router.PATCH("events/:id", h.Update)
		router.DELETE("events/:id", h.Delete)
	}
}

func (h *EventHandler) List(c *gin.Context) {
	events, err := h.service.List(c)
	if err != nil {
		handleError(c, err, "ListEvents")
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *EventHandler) GetByID(c *gin.Context) {
	eventID, ok := bindID(c, "id")
	if !ok {
		return
	}
	event, err := h.service.GetByID(c, eventID)
	if err != nil {
		handleError(c, err, "GetEvent")
		return
	}
	c.JSON(http.StatusOK, event)
}

func (h *EventHandler) Create(c *gin.Context) {
	token, err := bearerToken(c)
	if err != nil {
		handleError(c, err, "CreateEvent")
		return
	}
	var req model.CreateEventRequest
	if err := BindJson(c, &req); err != nil {
		return
	}
	created, err := h.service.Create(c, req, token)
	if err != nil {
		handleError(c, err, "CreateEvent")
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *EventHandler) Update(c *gin.Context) {
	eventID, ok := bindID(c, "id")
	if !ok {
		return
	}
	token, err := bearerToken(c)
	if err != nil {
		handleError(c, err, "UpdateEvent")
		return
	}
	var params model.UpdateEventParams
	if err := BindJson(c, &params); err != nil {
		return
	}
	if params.IsEmpty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "At least one field is required"})
		return
	}
	updated, err := h.service.Update(c, eventID, params, token)
	if err != nil {
		handleError(c, err, "UpdateEvent")
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *EventHandler) Delete(c *gin.Context) {
	eventID, ok := bindID(c, "id")
	if !ok {
		return
	}
	token, err := bearerToken(c)
	if err != nil {
		handleError(c, err, "DeleteEvent")
		return
	}
	if err := h.service.Delete(c, eventID, token); err != nil {
		handleError(c, err, "DeleteEvent")
		return
	}
	c.Status(http.StatusNoContent)
}
