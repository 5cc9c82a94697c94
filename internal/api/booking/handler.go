// Package booking provides REST API handlers for therapy-session
// recommendation, enrollment and completion.
package booking

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/amanihq/wellbeing-backend/internal/models"
	bookingsvc "github.com/amanihq/wellbeing-backend/internal/service/booking"
	"github.com/amanihq/wellbeing-backend/pkg/logger"
)

// BookingService interface for recommendation engine operations.
type BookingService interface {
	RecommendPhone(ctx context.Context, userID, therapistID uint) (*models.TherapySession, error)
	RecommendOnsite(ctx context.Context, userID uint, req bookingsvc.OnsiteRequest) (*models.TherapySession, error)
	RecommendGroup(ctx context.Context, userID, topicID uint, topicName string) (*models.TherapySession, error)
	RecommendCBT(ctx context.Context, userID, courseID uint, modulesTotal int) (*models.TherapySession, error)
	Enroll(ctx context.Context, sessionID string) (*models.TherapySession, error)
	Complete(ctx context.Context, sessionID string) (*models.TherapySession, error)
	ListSessions(ctx context.Context, userID uint) ([]models.TherapySession, error)
}

// Handler handles session booking API requests.
type Handler struct {
	service BookingService
	log     *logger.Logger
}

// NewHandler creates a new booking handler.
func NewHandler(service *bookingsvc.Service, log *logger.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// NewHandlerWithInterfaces creates a new booking handler with interface dependencies (useful for testing).
func NewHandlerWithInterfaces(service BookingService, log *logger.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// recommendRequest is the canonical recommendation body. Aliased selector
// spellings are normalized here at the boundary.
type recommendRequest struct {
	UserID         uint   `json:"user_id"`
	UserIDAlt      uint   `json:"userId"`
	TherapistID    uint   `json:"therapist_id"`
	TherapistIDAlt uint   `json:"therapistId"`
	TopicID        uint   `json:"topic_id"`
	TopicName      string `json:"topic_name"`
	CourseID       uint   `json:"course_id"`
	ModulesTotal   int    `json:"modules_total"`
	WindowStart    string `json:"window_start"` // RFC 3339, onsite only
	WindowEnd      string `json:"window_end"`
	Location       string `json:"location"`
}

func (r *recommendRequest) normalize() {
	if r.UserID == 0 {
		r.UserID = r.UserIDAlt
	}
	if r.TherapistID == 0 {
		r.TherapistID = r.TherapistIDAlt
	}
}

// RecommendPhone offers a phone session.
// POST /api/v1/sessions/phone.
func (h *Handler) RecommendPhone(c *gin.Context) {
	req, ok := h.bindRecommendRequest(c)
	if !ok {
		return
	}
	if req.TherapistID == 0 {
		h.errorResponse(c, http.StatusBadRequest, "therapist_id is required")
		return
	}

	session, err := h.service.RecommendPhone(c.Request.Context(), req.UserID, req.TherapistID)
	if err != nil {
		h.writeServiceError(c, err, "phone")
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

// RecommendOnsite offers an onsite session after an availability check.
// POST /api/v1/sessions/onsite.
func (h *Handler) RecommendOnsite(c *gin.Context) {
	req, ok := h.bindRecommendRequest(c)
	if !ok {
		return
	}
	if req.TherapistID == 0 {
		h.errorResponse(c, http.StatusBadRequest, "therapist_id is required")
		return
	}

	windowStart, err := time.Parse(time.RFC3339, req.WindowStart)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, "window_start must be RFC 3339")
		return
	}
	windowEnd, err := time.Parse(time.RFC3339, req.WindowEnd)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, "window_end must be RFC 3339")
		return
	}

	session, err := h.service.RecommendOnsite(c.Request.Context(), req.UserID, bookingsvc.OnsiteRequest{
		TherapistID: req.TherapistID,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		Location:    req.Location,
	})
	if err != nil {
		h.writeServiceError(c, err, "onsite")
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

// RecommendGroup offers a group session for a topic.
// POST /api/v1/sessions/group.
func (h *Handler) RecommendGroup(c *gin.Context) {
	req, ok := h.bindRecommendRequest(c)
	if !ok {
		return
	}
	if req.TopicID == 0 {
		h.errorResponse(c, http.StatusBadRequest, "topic_id is required")
		return
	}

	session, err := h.service.RecommendGroup(c.Request.Context(), req.UserID, req.TopicID, req.TopicName)
	if err != nil {
		h.writeServiceError(c, err, "group")
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

// RecommendCBT offers a digital CBT course session.
// POST /api/v1/sessions/digital.
func (h *Handler) RecommendCBT(c *gin.Context) {
	req, ok := h.bindRecommendRequest(c)
	if !ok {
		return
	}
	if req.CourseID == 0 {
		h.errorResponse(c, http.StatusBadRequest, "course_id is required")
		return
	}

	session, err := h.service.RecommendCBT(c.Request.Context(), req.UserID, req.CourseID, req.ModulesTotal)
	if err != nil {
		h.writeServiceError(c, err, "digital")
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

// Enroll commits the user to a recommended session.
// POST /api/v1/sessions/:id/enroll.
func (h *Handler) Enroll(c *gin.Context) {
	session, err := h.service.Enroll(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.errorResponse(c, http.StatusNotFound, "Session not found or not enrollable")
			return
		}
		h.log.Error().Err(err).Str("session_id", c.Param("id")).Msg("Failed to enroll session")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to enroll session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

// Complete marks a session finished.
// POST /api/v1/sessions/:id/complete.
func (h *Handler) Complete(c *gin.Context) {
	session, err := h.service.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.errorResponse(c, http.StatusNotFound, "Session not found or already completed")
			return
		}
		h.log.Error().Err(err).Str("session_id", c.Param("id")).Msg("Failed to complete session")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to complete session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

// ListSessions returns a user's sessions.
// GET /api/v1/users/:id/sessions.
func (h *Handler) ListSessions(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, "invalid user ID")
		return
	}

	sessions, err := h.service.ListSessions(c.Request.Context(), uint(userID))
	if err != nil {
		h.log.Error().Err(err).Uint64("user_id", userID).Msg("Failed to list sessions")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve sessions")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":  userID,
		"sessions": sessions,
		"total":    len(sessions),
	})
}

// RegisterRoutes attaches the booking endpoints to a router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sessions/phone", h.RecommendPhone)
	rg.POST("/sessions/onsite", h.RecommendOnsite)
	rg.POST("/sessions/group", h.RecommendGroup)
	rg.POST("/sessions/digital", h.RecommendCBT)
	rg.POST("/sessions/:id/enroll", h.Enroll)
	rg.POST("/sessions/:id/complete", h.Complete)
	rg.GET("/users/:id/sessions", h.ListSessions)
}

func (h *Handler) bindRecommendRequest(c *gin.Context) (*recommendRequest, bool) {
	var req recommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	req.normalize()
	if req.UserID == 0 {
		h.errorResponse(c, http.StatusBadRequest, "user_id is required")
		return nil, false
	}
	return &req, true
}

func (h *Handler) writeServiceError(c *gin.Context, err error, modality string) {
	switch {
	case errors.Is(err, bookingsvc.ErrNoTherapistAvailable):
		h.errorResponse(c, http.StatusConflict, "No therapist is available for the requested time")
	case errors.Is(err, bookingsvc.ErrAssignedTherapistUnavailable):
		h.errorResponse(c, http.StatusConflict, "Your assigned therapist is unavailable; please try another time or contact support")
	case errors.Is(err, bookingsvc.ErrInvalidWindow):
		h.errorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		h.errorResponse(c, http.StatusNotFound, "Referenced record not found")
	default:
		h.log.Error().Err(err).Str("modality", modality).Msg("Recommendation failed")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to create recommendation")
	}
}

// errorResponse sends a standardized error response.
func (h *Handler) errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"error":     message,
		"timestamp": time.Now().UTC(),
	})
}
