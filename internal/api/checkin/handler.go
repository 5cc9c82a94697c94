// Package checkin provides REST API handlers for daily check-ins and the
// reward hub: recording a check-in, reading the current achievement and
// listing reward history.
package checkin

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/amanihq/wellbeing-backend/internal/metrics"
	"github.com/amanihq/wellbeing-backend/internal/models"
	"github.com/amanihq/wellbeing-backend/internal/repository"
	"github.com/amanihq/wellbeing-backend/internal/service/rewards"
	"github.com/amanihq/wellbeing-backend/pkg/logger"
)

// RewardService interface for reward hub operations.
type RewardService interface {
	RecordActivity(ctx context.Context, userID uint, gemDelta int) (*models.Achievement, error)
	GetAchievement(ctx context.Context, userID uint) (*models.Achievement, error)
	GetHistory(ctx context.Context, userID uint, limit int) ([]models.RewardHubHistory, error)
	LevelName(level int) string
}

// CheckInStore interface for daily check-in persistence.
type CheckInStore interface {
	Create(ctx context.Context, checkIn *models.DailyCheckIn) error
	Delete(ctx context.Context, id uint) error
	ListByUser(ctx context.Context, userID uint, limit int) ([]models.DailyCheckIn, error)
}

// Handler handles check-in and reward hub API requests.
type Handler struct {
	rewardService RewardService
	checkIns      CheckInStore
	checkInGems   int
	log           *logger.Logger
}

// NewHandler creates a new check-in handler.
func NewHandler(rewardService *rewards.Service, checkIns *repository.CheckInRepository, checkInGems int, log *logger.Logger) *Handler {
	return &Handler{
		rewardService: rewardService,
		checkIns:      checkIns,
		checkInGems:   checkInGems,
		log:           log,
	}
}

// NewHandlerWithInterfaces creates a new check-in handler with interface dependencies (useful for testing).
func NewHandlerWithInterfaces(rewardService RewardService, checkIns CheckInStore, checkInGems int, log *logger.Logger) *Handler {
	return &Handler{
		rewardService: rewardService,
		checkIns:      checkIns,
		checkInGems:   checkInGems,
		log:           log,
	}
}

// checkInRequest is the canonical check-in body. Aliased field spellings
// are normalized here at the boundary; the services only ever see this
// shape.
type checkInRequest struct {
	UserID    uint   `json:"user_id"`
	UserIDAlt uint   `json:"userId"`
	Mood      string `json:"mood"`
	Feelings  string `json:"feelings"`
}

func (r *checkInRequest) normalize() {
	if r.UserID == 0 {
		r.UserID = r.UserIDAlt
	}
	r.Mood = strings.TrimSpace(r.Mood)
	r.Feelings = strings.TrimSpace(r.Feelings)
}

// CreateCheckIn records a daily check-in and applies its reward.
// POST /api/v1/daily-check-in.
func (h *Handler) CreateCheckIn(c *gin.Context) {
	var req checkInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}
	req.normalize()

	if req.UserID == 0 {
		h.errorResponse(c, http.StatusBadRequest, "user_id is required")
		return
	}
	if req.Mood == "" {
		h.errorResponse(c, http.StatusBadRequest, "mood is required")
		return
	}

	ctx := c.Request.Context()
	began := time.Now()

	checkIn := &models.DailyCheckIn{
		UserID:   req.UserID,
		Mood:     req.Mood,
		Feelings: req.Feelings,
	}
	if err := h.checkIns.Create(ctx, checkIn); err != nil {
		if errors.Is(err, repository.ErrCheckInExists) {
			metrics.CheckInsTotal.WithLabelValues("duplicate").Inc()
			h.errorResponse(c, http.StatusConflict, "already checked in today")
			return
		}
		h.log.Error().Err(err).Uint("user_id", req.UserID).Msg("Failed to record check-in")
		metrics.CheckInsTotal.WithLabelValues("error").Inc()
		h.errorResponse(c, http.StatusInternalServerError, "Failed to record check-in")
		return
	}

	achievement, err := h.rewardService.RecordActivity(ctx, req.UserID, h.checkInGems)
	if err != nil {
		// Release the day again so a retry is not blocked by the
		// duplicate guard while no gems were awarded.
		if delErr := h.checkIns.Delete(ctx, checkIn.ID); delErr != nil {
			h.log.Error().Err(delErr).Uint("check_in_id", checkIn.ID).Msg("Failed to roll back check-in after reward failure")
		}
		h.log.Error().Err(err).Uint("user_id", req.UserID).Msg("Failed to apply check-in reward")
		metrics.CheckInsTotal.WithLabelValues("error").Inc()
		h.errorResponse(c, http.StatusInternalServerError, "Failed to apply check-in reward")
		return
	}

	metrics.CheckInsTotal.WithLabelValues("ok").Inc()
	metrics.CheckInDurationSeconds.Observe(time.Since(began).Seconds())

	c.JSON(http.StatusCreated, gin.H{
		"check_in":    checkIn,
		"achievement": achievement,
		"level_name":  h.rewardService.LevelName(achievement.Level),
	})
}

// GetAchievement returns the user's current achievement.
// GET /api/v1/users/:id/achievement.
func (h *Handler) GetAchievement(c *gin.Context) {
	userID, err := h.parseUserID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	achievement, err := h.rewardService.GetAchievement(c.Request.Context(), userID)
	if err != nil {
		h.errorResponse(c, http.StatusNotFound, "Achievement not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"achievement": achievement,
		"level_name":  h.rewardService.LevelName(achievement.Level),
	})
}

// GetRewardHistory returns the user's recent reward hub snapshots.
// GET /api/v1/users/:id/reward-history?limit=50.
func (h *Handler) GetRewardHistory(c *gin.Context) {
	userID, err := h.parseUserID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	limit := 50
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			h.errorResponse(c, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	history, err := h.rewardService.GetHistory(c.Request.Context(), userID, limit)
	if err != nil {
		h.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to get reward history")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve reward history")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":      userID,
		"history":      history,
		"total":        len(history),
		"generated_at": time.Now().UTC(),
	})
}

// ListCheckIns returns the user's recent check-ins.
// GET /api/v1/users/:id/check-ins.
func (h *Handler) ListCheckIns(c *gin.Context) {
	userID, err := h.parseUserID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	checkIns, err := h.checkIns.ListByUser(c.Request.Context(), userID, 31)
	if err != nil {
		h.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to list check-ins")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve check-ins")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":   userID,
		"check_ins": checkIns,
		"total":     len(checkIns),
	})
}

// RegisterRoutes attaches the check-in endpoints to a router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/daily-check-in", h.CreateCheckIn)
	rg.GET("/users/:id/achievement", h.GetAchievement)
	rg.GET("/users/:id/reward-history", h.GetRewardHistory)
	rg.GET("/users/:id/check-ins", h.ListCheckIns)
}

// parseUserID extracts and validates the user ID from the URL parameter.
func (h *Handler) parseUserID(c *gin.Context) (uint, error) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		return 0, errors.New("invalid user ID: " + idStr)
	}
	return uint(id), nil
}

// errorResponse sends a standardized error response.
func (h *Handler) errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"error":     message,
		"timestamp": time.Now().UTC(),
	})
}
