package handler_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-gin-event-tickets/internal/handler"
	"go-gin-event-tickets/internal/model"
	apperrors "go-gin-event-tickets/pkg/app_errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupEventTestRouter(mockService *EventServiceMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler.NewEventHandler(mockService).RegisterRoutes(router)
	return router
}

func TestCreateEvent(t *testing.T) {
	createReq := model.CreateEventRequest{
		Name:            "Bosch Hack",
		ResponsibleArea: model.AreaEngineering,
		AccessArea:      model.AreaAll,
		Place:           model.PlaceAuditorium,
	}

	t.Run("Success", func(t *testing.T) {
		mockService := &EventServiceMock{}
		router := setupEventTestRouter(mockService)

		mockService.On("Create", mock.Anything, createReq, "alice-token").
			Return(&model.Event{ID: 1, Name: "Bosch Hack", Author: "alice"}, nil).Once()

		req := withAuth(createJSONHTTPRequest("POST", "/api/v1/events", createReq))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"name_of_event":"Bosch Hack"`)
		mockService.AssertExpectations(t)
	})

	t.Run("Failed - missing credential", func(t *testing.T) {
		mockService := &EventServiceMock{}
		router := setupEventTestRouter(mockService)

		req := createJSONHTTPRequest("POST", "/api/v1/events", createReq)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		mockService.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Failed - invalid json", func(t *testing.T) {
		mockService := &EventServiceMock{}
		router := setupEventTestRouter(mockService)

		req, _ := http.NewRequest("POST", "/api/v1/events", strings.NewReader(InvalidJSON))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, withAuth(req))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Failed - ErrEventNameTaken", func(t *testing.T) {
		mockService := &EventServiceMock{}
		router := setupEventTestRouter(mockService)

		mockService.On("Create", mock.Anything, createReq, "alice-token").Return(nil, apperrors.ErrEventNameTaken).Once()

		req := withAuth(createJSONHTTPRequest("POST", "/api/v1/events", createReq))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, apperrors.ErrEventNameTaken.Error(), decodeError(w.Body))
	})
}

func TestGetEvent(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockService := &EventServiceMock{}
		router := setupEventTestRouter(mockService)

		mockService.On("GetByID", mock.Anything, int64(3)).Return(&model.Event{ID: 3, Name: "Launch"}, nil).Once()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/events/3", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"event_id":3`)
		assert.NotContains(t, w.Body.String(), "deleted")
	})

	t.Run("Failed - ErrEventNotFound", func(t *testing.T) {
		mockService := &EventServiceMock{}
		router := setupEventTestRouter(mockService)

		mockService.On("GetByID", mock.Anything, int64(3)).Return(nil, apperrors.ErrEventNotFound).Once()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/events/3", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Failed - invalid id", func(t *testing.T) {
		mockService := &EventServiceMock{}
		router := setupEventTestRouter(mockService)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/events/abc", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestListEvents(t *testing.T) {
	mockService := &EventServiceMock{}
	router := setupEventTestRouter(mockService)

	mockService.On("List", mock.Anything).Return([]*model.Event{{ID: 1}, {ID: 2}}, nil).Once()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/events", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"event_id":2`)
}

func TestUpdateEvent(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockService := &EventServiceMock{}
		router := setupEventTestRouter(mockService)

		mockService.On("Update", mock.Anything, int64(1), mock.MatchedBy(func(p model.UpdateEventParams) bool {
			return p.Description != nil && *p.Description == "new" && p.ImageURLs == nil
		}), "alice-token").Return(&model.Event{ID: 1, Description: "new"}, nil).Once()

		req := withAuth(createJSONHTTPRequest("PATCH", "/api/v1/events/1", map[string]string{"description": "new"}))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("Failed - empty patch", func(t *testing.T) {
		mockService := &EventServiceMock{}
		router := setupEventTestRouter(mockService)

		req := withAuth(createJSONHTTPRequest("PATCH", "/api/v1/events/1", map[string]string{}))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Failed - ErrNotEventOwner", func(t *testing.T) {
		mockService := &EventServiceMock{}
		router := setupEventTestRouter(mockService)

		mockService.On("Update", mock.Anything, int64(1), mock.Anything, "alice-token").Return(nil, apperrors.ErrNotEventOwner).Once()

		req := withAuth(createJSONHTTPRequest("PATCH", "/api/v1/events/1", map[string]string{"description": "new"}))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestDeleteEvent(t *testing.T) {
	mockService := &EventServiceMock{}
	router := setupEventTestRouter(mockService)

	mockService.On("Delete", mock.Anything, int64(1), "alice-token").Return(nil).Once()

	req := withAuth(httptest.NewRequest("DELETE", "/api/v1/events/1", nil))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	mockService.AssertExpectations(t)
}
