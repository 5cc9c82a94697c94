// Package booking implements the therapy-session recommendation engine:
// per-modality idempotent recommendations, sticky therapist assignment and
// availability-checked onsite bookings.
package booking

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/amanihq/wellbeing-backend/internal/calendar"
	"github.com/amanihq/wellbeing-backend/internal/metrics"
	"github.com/amanihq/wellbeing-backend/internal/models"
	"github.com/amanihq/wellbeing-backend/internal/repository"
	"github.com/amanihq/wellbeing-backend/pkg/logger"
)

// Default clinical levels per modality.
const (
	clinicalLevelPhone  = 2
	clinicalLevelOnsite = 3
	clinicalLevelGroup  = 1
	clinicalLevelCBT    = 1

	defaultRelatedDomains = "wellbeing"
)

// SessionStore is the persistence boundary for sessions and their
// modality detail rows. FindActive matches the detail row's selector for
// phone, group and digital sessions; for onsite the selector is ignored
// because a fallback booking may hold a different therapist.
type SessionStore interface {
	FindActive(ctx context.Context, userID uint, sessionType string, selector uint) (*models.TherapySession, error)
	CreateWithDetail(ctx context.Context, session *models.TherapySession, detail interface{}) error
	GetByID(ctx context.Context, id string) (*models.TherapySession, error)
	ListByUser(ctx context.Context, userID uint) ([]models.TherapySession, error)
	SetEnrolled(ctx context.Context, id string, at time.Time) error
	SetCompleted(ctx context.Context, id string, at time.Time) error
}

// TherapistStore is the persistence boundary for therapists and the
// sticky per-user assignment.
type TherapistStore interface {
	GetByID(ctx context.Context, id uint) (*models.Therapist, error)
	ListActive(ctx context.Context) ([]models.Therapist, error)
	GetAssignment(ctx context.Context, userID uint) (*models.TherapistAssignment, error)
	Assign(ctx context.Context, userID, therapistID uint) (*models.TherapistAssignment, error)
}

// UserStore provides user lookups for confirmation messages.
type UserStore interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// SMSNotifier sends best-effort booking confirmations.
type SMSNotifier interface {
	SendBookingConfirmation(ctx context.Context, destination, therapistName string) error
}

// Service is the session recommendation engine.
type Service struct {
	sessions     SessionStore
	therapists   TherapistStore
	users        UserStore
	availability calendar.Checker
	sms          SMSNotifier
	log          *logger.Logger
	rngMu        sync.Mutex // rand.Rand is not safe for concurrent use
	rng          *rand.Rand
	now          func() time.Time
}

// NewService creates a new recommendation engine.
func NewService(
	sessions *repository.SessionRepository,
	therapists *repository.TherapistRepository,
	users *repository.UserRepository,
	availability calendar.Checker,
	sms SMSNotifier,
	log *logger.Logger,
) *Service {
	return newService(sessions, therapists, users, availability, sms, log)
}

// NewServiceWithInterfaces creates a new engine with interface dependencies (useful for testing).
func NewServiceWithInterfaces(
	sessions SessionStore,
	therapists TherapistStore,
	users UserStore,
	availability calendar.Checker,
	sms SMSNotifier,
	log *logger.Logger,
) *Service {
	return newService(sessions, therapists, users, availability, sms, log)
}

func newService(sessions SessionStore, therapists TherapistStore, users UserStore, availability calendar.Checker, sms SMSNotifier, log *logger.Logger) *Service {
	return &Service{
		sessions:     sessions,
		therapists:   therapists,
		users:        users,
		availability: availability,
		sms:          sms,
		log:          log,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		now:          time.Now,
	}
}

// RecommendPhone offers a phone session with the given therapist. An
// existing open recommendation for the same therapist is returned
// unchanged; otherwise the parent session and phone detail row are
// created atomically.
func (s *Service) RecommendPhone(ctx context.Context, userID, therapistID uint) (*models.TherapySession, error) {
	therapist, err := s.therapists.GetByID(ctx, therapistID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve therapist %d: %w", therapistID, err)
	}

	existing, err := s.sessions.FindActive(ctx, userID, models.SessionTypePhone, therapistID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		metrics.RecommendationsTotal.WithLabelValues("phone", "existing").Inc()
		return existing, nil
	}

	if err := s.ensureAssignment(ctx, userID, therapistID); err != nil {
		return nil, err
	}

	session := s.newSession(userID, models.SessionTypePhone, clinicalLevelPhone)
	detail := &models.PhoneEvent{
		SessionID:   session.ID,
		TherapistID: therapistID,
	}
	if err := s.sessions.CreateWithDetail(ctx, session, detail); err != nil {
		metrics.RecommendationsTotal.WithLabelValues("phone", "error").Inc()
		return nil, err
	}

	metrics.RecommendationsTotal.WithLabelValues("phone", "created").Inc()
	metrics.ActiveRecommendations.WithLabelValues("phone").Inc()
	s.log.Info().
		Uint("user_id", userID).
		Uint("therapist_id", therapistID).
		Str("session_id", session.ID).
		Msg("Recommended phone session")

	s.confirmBySMS(ctx, userID, therapist.FullName)

	return session, nil
}

// OnsiteRequest is the canonical onsite booking input. TherapistID is the
// preferred candidate; the engine may fall back to another free therapist
// from the pool.
type OnsiteRequest struct {
	TherapistID uint
	WindowStart time.Time
	WindowEnd   time.Time
	Location    string
}

// RecommendOnsite offers an onsite session. The preferred therapist's
// calendar is consulted first; if they are busy the engine walks a
// shuffled pool of the remaining active therapists and books the first
// free one. A busy sticky-assigned therapist and an exhausted pool map to
// distinct conflict errors. Any open onsite session, whoever it landed
// on, is returned unchanged instead of booking a second one.
func (s *Service) RecommendOnsite(ctx context.Context, userID uint, req OnsiteRequest) (*models.TherapySession, error) {
	if !req.WindowEnd.After(req.WindowStart) {
		return nil, ErrInvalidWindow
	}

	existing, err := s.sessions.FindActive(ctx, userID, models.SessionTypeOnsite, 0)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		metrics.RecommendationsTotal.WithLabelValues("onsite", "existing").Inc()
		return existing, nil
	}

	therapist, err := s.pickAvailableTherapist(ctx, userID, req)
	if err != nil {
		if errors.Is(err, ErrNoTherapistAvailable) || errors.Is(err, ErrAssignedTherapistUnavailable) {
			metrics.RecommendationsTotal.WithLabelValues("onsite", "conflict").Inc()
		}
		return nil, err
	}

	if err := s.ensureAssignment(ctx, userID, therapist.ID); err != nil {
		return nil, err
	}

	session := s.newSession(userID, models.SessionTypeOnsite, clinicalLevelOnsite)
	detail := &models.OnsiteEvent{
		SessionID:   session.ID,
		TherapistID: therapist.ID,
		WindowStart: req.WindowStart,
		WindowEnd:   req.WindowEnd,
		Location:    req.Location,
	}
	if err := s.sessions.CreateWithDetail(ctx, session, detail); err != nil {
		metrics.RecommendationsTotal.WithLabelValues("onsite", "error").Inc()
		return nil, err
	}

	metrics.RecommendationsTotal.WithLabelValues("onsite", "created").Inc()
	metrics.ActiveRecommendations.WithLabelValues("onsite").Inc()
	s.log.Info().
		Uint("user_id", userID).
		Uint("therapist_id", therapist.ID).
		Str("session_id", session.ID).
		Time("window_start", req.WindowStart).
		Msg("Recommended onsite session")

	return session, nil
}

// pickAvailableTherapist resolves the onsite candidate. The user's sticky
// therapist, when they are the requested one, is not substituted: their
// busy calendar is reported back instead.
func (s *Service) pickAvailableTherapist(ctx context.Context, userID uint, req OnsiteRequest) (*models.Therapist, error) {
	preferred, err := s.therapists.GetByID(ctx, req.TherapistID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve therapist %d: %w", req.TherapistID, err)
	}

	free, err := s.isFree(ctx, preferred, req.WindowStart, req.WindowEnd)
	if err == nil && free {
		return preferred, nil
	}
	if err != nil {
		s.log.Warn().
			Err(err).
			Uint("therapist_id", preferred.ID).
			Msg("Availability check failed for preferred therapist, trying pool")
	}

	assignment, err := s.therapists.GetAssignment(ctx, userID)
	if err != nil {
		return nil, err
	}
	if assignment != nil && assignment.TherapistID == preferred.ID {
		return nil, ErrAssignedTherapistUnavailable
	}

	pool, err := s.therapists.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	// Randomized order spreads bookings across the pool.
	s.rngMu.Lock()
	s.rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	s.rngMu.Unlock()

	for i := range pool {
		candidate := &pool[i]
		if candidate.ID == preferred.ID {
			continue
		}
		free, err := s.isFree(ctx, candidate, req.WindowStart, req.WindowEnd)
		if err != nil {
			// A failed lookup blocks this candidate only.
			s.log.Warn().
				Err(err).
				Uint("therapist_id", candidate.ID).
				Msg("Availability check failed for candidate")
			continue
		}
		if free {
			return candidate, nil
		}
	}

	return nil, ErrNoTherapistAvailable
}

func (s *Service) isFree(ctx context.Context, therapist *models.Therapist, start, end time.Time) (bool, error) {
	began := time.Now()
	results, err := s.availability.CheckAvailability(ctx, []string{therapist.CalendarEmail}, start, end)
	metrics.AvailabilityLookupSeconds.Observe(time.Since(began).Seconds())
	if err != nil {
		metrics.AvailabilityLookupsTotal.WithLabelValues("error").Inc()
		return false, err
	}
	if len(results) == 0 {
		metrics.AvailabilityLookupsTotal.WithLabelValues("error").Inc()
		return false, fmt.Errorf("no availability result for %s", therapist.CalendarEmail)
	}
	if results[0].Error != "" {
		metrics.AvailabilityLookupsTotal.WithLabelValues("error").Inc()
		return false, fmt.Errorf("availability lookup for %s: %s", therapist.CalendarEmail, results[0].Error)
	}
	if results[0].Available {
		metrics.AvailabilityLookupsTotal.WithLabelValues("free").Inc()
	} else {
		metrics.AvailabilityLookupsTotal.WithLabelValues("busy").Inc()
	}
	return results[0].Available, nil
}

// RecommendGroup offers a group session for a topic.
func (s *Service) RecommendGroup(ctx context.Context, userID, topicID uint, topicName string) (*models.TherapySession, error) {
	existing, err := s.sessions.FindActive(ctx, userID, models.SessionTypeGroup, topicID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		metrics.RecommendationsTotal.WithLabelValues("group", "existing").Inc()
		return existing, nil
	}

	session := s.newSession(userID, models.SessionTypeGroup, clinicalLevelGroup)
	detail := &models.GroupEvent{
		SessionID: session.ID,
		TopicID:   topicID,
		TopicName: topicName,
	}
	if err := s.sessions.CreateWithDetail(ctx, session, detail); err != nil {
		metrics.RecommendationsTotal.WithLabelValues("group", "error").Inc()
		return nil, err
	}

	metrics.RecommendationsTotal.WithLabelValues("group", "created").Inc()
	metrics.ActiveRecommendations.WithLabelValues("group").Inc()
	s.log.Info().
		Uint("user_id", userID).
		Uint("topic_id", topicID).
		Str("session_id", session.ID).
		Msg("Recommended group session")

	return session, nil
}

// RecommendCBT offers a digital CBT course session.
func (s *Service) RecommendCBT(ctx context.Context, userID, courseID uint, modulesTotal int) (*models.TherapySession, error) {
	existing, err := s.sessions.FindActive(ctx, userID, models.SessionTypeCBT, courseID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		metrics.RecommendationsTotal.WithLabelValues("digital", "existing").Inc()
		return existing, nil
	}

	session := s.newSession(userID, models.SessionTypeCBT, clinicalLevelCBT)
	detail := &models.CBTEvent{
		SessionID:    session.ID,
		CourseID:     courseID,
		ModulesTotal: modulesTotal,
	}
	if err := s.sessions.CreateWithDetail(ctx, session, detail); err != nil {
		metrics.RecommendationsTotal.WithLabelValues("digital", "error").Inc()
		return nil, err
	}

	metrics.RecommendationsTotal.WithLabelValues("digital", "created").Inc()
	metrics.ActiveRecommendations.WithLabelValues("digital").Inc()
	s.log.Info().
		Uint("user_id", userID).
		Uint("course_id", courseID).
		Str("session_id", session.ID).
		Msg("Recommended digital CBT session")

	return session, nil
}

// Enroll stamps the user's commitment to a previously recommended session.
func (s *Service) Enroll(ctx context.Context, sessionID string) (*models.TherapySession, error) {
	if err := s.sessions.SetEnrolled(ctx, sessionID, s.now()); err != nil {
		return nil, err
	}
	return s.sessions.GetByID(ctx, sessionID)
}

// Complete stamps a session's completion, freeing the modality slot for a
// new recommendation.
func (s *Service) Complete(ctx context.Context, sessionID string) (*models.TherapySession, error) {
	if err := s.sessions.SetCompleted(ctx, sessionID, s.now()); err != nil {
		return nil, err
	}
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	metrics.ActiveRecommendations.WithLabelValues(modalityLabel(session.Type)).Dec()
	return session, nil
}

// ListSessions returns a user's sessions, newest first.
func (s *Service) ListSessions(ctx context.Context, userID uint) ([]models.TherapySession, error) {
	return s.sessions.ListByUser(ctx, userID)
}

// ensureAssignment makes the first recommended therapist the user's
// sticky assignment. Later recommendations never replace it.
func (s *Service) ensureAssignment(ctx context.Context, userID, therapistID uint) error {
	assignment, err := s.therapists.GetAssignment(ctx, userID)
	if err != nil {
		return err
	}
	if assignment != nil {
		return nil
	}
	if _, err := s.therapists.Assign(ctx, userID, therapistID); err != nil {
		return err
	}
	s.log.Info().
		Uint("user_id", userID).
		Uint("therapist_id", therapistID).
		Msg("Assigned therapist to user")
	return nil
}

// confirmBySMS is a best-effort side effect; failures are logged and
// swallowed so they never fail the committed booking.
func (s *Service) confirmBySMS(ctx context.Context, userID uint, therapistName string) {
	if s.sms == nil || s.users == nil {
		return
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		s.log.Warn().Err(err).Uint("user_id", userID).Msg("Failed to resolve user for booking confirmation")
		return
	}
	if err := s.sms.SendBookingConfirmation(ctx, user.PhoneNumber, therapistName); err != nil {
		s.log.Warn().Err(err).Uint("user_id", userID).Msg("Failed to send booking confirmation SMS")
	}
}

func (s *Service) newSession(userID uint, sessionType string, clinicalLevel int) *models.TherapySession {
	return &models.TherapySession{
		ID:                uuid.NewString(),
		UserID:            userID,
		Type:              sessionType,
		RecommendDatetime: s.now(),
		ClinicalLevel:     clinicalLevel,
		RelatedDomains:    defaultRelatedDomains,
	}
}

func modalityLabel(sessionType string) string {
	switch sessionType {
	case models.SessionTypePhone:
		return "phone"
	case models.SessionTypeOnsite:
		return "onsite"
	case models.SessionTypeGroup:
		return "group"
	case models.SessionTypeCBT:
		return "digital"
	default:
		return "unknown"
	}
}
