// Package mocks provides shared test doubles for external collaborators.
package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/amanihq/wellbeing-backend/internal/calendar"
)

// MockAvailabilityChecker is a configurable free-busy checker. Identities
// listed in Busy are reported busy; identities in Failing produce a
// per-identity lookup error; everyone else is free. Safe for concurrent
// lookups as long as Busy and Failing are not mutated mid-test.
type MockAvailabilityChecker struct {
	Busy    map[string]bool
	Failing map[string]bool
	Err     error

	mu    sync.Mutex
	Calls int
}

// NewMockAvailabilityChecker creates a checker that reports everyone free.
func NewMockAvailabilityChecker() *MockAvailabilityChecker {
	return &MockAvailabilityChecker{
		Busy:    make(map[string]bool),
		Failing: make(map[string]bool),
	}
}

// CheckAvailability implements calendar.Checker.
func (m *MockAvailabilityChecker) CheckAvailability(_ context.Context, emails []string, _, _ time.Time) ([]calendar.AvailabilityResult, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	results := make([]calendar.AvailabilityResult, 0, len(emails))
	for _, email := range emails {
		res := calendar.AvailabilityResult{Email: email, Available: !m.Busy[email]}
		if m.Failing[email] {
			res.Available = false
			res.Error = "calendar lookup failed"
		}
		results = append(results, res)
	}
	return results, nil
}

// MockSMSNotifier records booking confirmations.
type MockSMSNotifier struct {
	Confirmations []string
	Err           error
}

// SendBookingConfirmation implements the booking SMS notifier.
func (m *MockSMSNotifier) SendBookingConfirmation(_ context.Context, destination, _ string) error {
	m.Confirmations = append(m.Confirmations, destination)
	return m.Err
}
