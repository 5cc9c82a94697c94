package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/amanihq/wellbeing-backend/internal/models"
	bookingsvc "github.com/amanihq/wellbeing-backend/internal/service/booking"
	"github.com/amanihq/wellbeing-backend/pkg/logger"
)

// mockBookingService returns canned results per operation.
type mockBookingService struct {
	session    *models.TherapySession
	sessions   []models.TherapySession
	err        error
	phoneCalls []uint
	onsiteReqs []bookingsvc.OnsiteRequest
}

func (m *mockBookingService) RecommendPhone(_ context.Context, userID, therapistID uint) (*models.TherapySession, error) {
	m.phoneCalls = append(m.phoneCalls, therapistID)
	return m.session, m.err
}

func (m *mockBookingService) RecommendOnsite(_ context.Context, userID uint, req bookingsvc.OnsiteRequest) (*models.TherapySession, error) {
	m.onsiteReqs = append(m.onsiteReqs, req)
	return m.session, m.err
}

func (m *mockBookingService) RecommendGroup(_ context.Context, userID, topicID uint, topicName string) (*models.TherapySession, error) {
	return m.session, m.err
}

func (m *mockBookingService) RecommendCBT(_ context.Context, userID, courseID uint, modulesTotal int) (*models.TherapySession, error) {
	return m.session, m.err
}

func (m *mockBookingService) Enroll(_ context.Context, sessionID string) (*models.TherapySession, error) {
	return m.session, m.err
}

func (m *mockBookingService) Complete(_ context.Context, sessionID string) (*models.TherapySession, error) {
	return m.session, m.err
}

func (m *mockBookingService) ListSessions(_ context.Context, userID uint) ([]models.TherapySession, error) {
	return m.sessions, m.err
}

func setupTestRouter(service BookingService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewHandlerWithInterfaces(service, logger.New("error", "json", "stdout"))
	router := gin.New()
	handler.RegisterRoutes(router.Group("/api/v1"))
	return router
}

func postJSON(router *gin.Engine, path string, body map[string]interface{}) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func testSession(sessionType string) *models.TherapySession {
	return &models.TherapySession{ID: "3f1aef0e-fb14-4b6a-8292-7d1d1a2c9e00", UserID: 1, Type: sessionType}
}

func TestRecommendPhone_Success(t *testing.T) {
	service := &mockBookingService{session: testSession(models.SessionTypePhone)}
	router := setupTestRouter(service)

	w := postJSON(router, "/api/v1/sessions/phone", map[string]interface{}{
		"user_id":      1,
		"therapist_id": 10,
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []uint{10}, service.phoneCalls)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Contains(t, response, "session")
}

func TestRecommendPhone_TherapistIDAlias(t *testing.T) {
	service := &mockBookingService{session: testSession(models.SessionTypePhone)}
	router := setupTestRouter(service)

	w := postJSON(router, "/api/v1/sessions/phone", map[string]interface{}{
		"userId":      1,
		"therapistId": 10,
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []uint{10}, service.phoneCalls)
}

func TestRecommendPhone_MissingTherapist(t *testing.T) {
	router := setupTestRouter(&mockBookingService{})

	w := postJSON(router, "/api/v1/sessions/phone", map[string]interface{}{
		"user_id": 1,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecommendOnsite_Success(t *testing.T) {
	service := &mockBookingService{session: testSession(models.SessionTypeOnsite)}
	router := setupTestRouter(service)

	w := postJSON(router, "/api/v1/sessions/onsite", map[string]interface{}{
		"user_id":      1,
		"therapist_id": 10,
		"window_start": "2026-03-02T09:00:00Z",
		"window_end":   "2026-03-02T10:00:00Z",
		"location":     "Nairobi clinic",
	})

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, service.onsiteReqs, 1)
	assert.Equal(t, uint(10), service.onsiteReqs[0].TherapistID)
	assert.Equal(t, "Nairobi clinic", service.onsiteReqs[0].Location)
	assert.True(t, service.onsiteReqs[0].WindowEnd.After(service.onsiteReqs[0].WindowStart))
}

func TestRecommendOnsite_MalformedWindow(t *testing.T) {
	router := setupTestRouter(&mockBookingService{})

	w := postJSON(router, "/api/v1/sessions/onsite", map[string]interface{}{
		"user_id":      1,
		"therapist_id": 10,
		"window_start": "tomorrow at nine",
		"window_end":   "2026-03-02T10:00:00Z",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecommendOnsite_NoTherapistAvailable(t *testing.T) {
	service := &mockBookingService{err: bookingsvc.ErrNoTherapistAvailable}
	router := setupTestRouter(service)

	w := postJSON(router, "/api/v1/sessions/onsite", map[string]interface{}{
		"user_id":      1,
		"therapist_id": 10,
		"window_start": "2026-03-02T09:00:00Z",
		"window_end":   "2026-03-02T10:00:00Z",
	})

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRecommendOnsite_AssignedTherapistUnavailable(t *testing.T) {
	service := &mockBookingService{err: bookingsvc.ErrAssignedTherapistUnavailable}
	router := setupTestRouter(service)

	w := postJSON(router, "/api/v1/sessions/onsite", map[string]interface{}{
		"user_id":      1,
		"therapist_id": 10,
		"window_start": "2026-03-02T09:00:00Z",
		"window_end":   "2026-03-02T10:00:00Z",
	})

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRecommendOnsite_InvalidWindowFromService(t *testing.T) {
	service := &mockBookingService{err: bookingsvc.ErrInvalidWindow}
	router := setupTestRouter(service)

	w := postJSON(router, "/api/v1/sessions/onsite", map[string]interface{}{
		"user_id":      1,
		"therapist_id": 10,
		"window_start": "2026-03-02T10:00:00Z",
		"window_end":   "2026-03-02T09:00:00Z",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecommendGroup_MissingTopic(t *testing.T) {
	router := setupTestRouter(&mockBookingService{})

	w := postJSON(router, "/api/v1/sessions/group", map[string]interface{}{
		"user_id": 1,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecommendCBT_Success(t *testing.T) {
	service := &mockBookingService{session: testSession(models.SessionTypeCBT)}
	router := setupTestRouter(service)

	w := postJSON(router, "/api/v1/sessions/digital", map[string]interface{}{
		"user_id":       1,
		"course_id":     3,
		"modules_total": 8,
	})

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRecommendCBT_UnknownUser(t *testing.T) {
	service := &mockBookingService{err: gorm.ErrRecordNotFound}
	router := setupTestRouter(service)

	w := postJSON(router, "/api/v1/sessions/digital", map[string]interface{}{
		"user_id":   99,
		"course_id": 3,
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEnroll_NotFound(t *testing.T) {
	service := &mockBookingService{err: gorm.ErrRecordNotFound}
	router := setupTestRouter(service)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/missing-id/enroll", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestComplete_Success(t *testing.T) {
	service := &mockBookingService{session: testSession(models.SessionTypeGroup)}
	router := setupTestRouter(service)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+service.session.ID+"/complete", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListSessions_Success(t *testing.T) {
	service := &mockBookingService{sessions: []models.TherapySession{
		*testSession(models.SessionTypePhone),
		*testSession(models.SessionTypeGroup),
	}}
	router := setupTestRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/1/sessions", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, float64(2), response["total"])
}
