// Package session keeps logged-in operators between requests. A session is
// the explicit replacement for a process-wide "current operator": handlers
// resolve it from the request token and pass its operator id to the services.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/patrickmn/go-cache"

	"github.com/IlTetta/Climate-Monitoring-App/internal/models"
	"github.com/IlTetta/Climate-Monitoring-App/pkg/metrics"
)

// ErrNotFound is returned for unknown or expired tokens
var ErrNotFound = errors.New("session not found or expired")

// Session is an authenticated operator's state
type Session struct {
	Token      string    `json:"token"`
	OperatorID int64     `json:"operator_id"`
	Username   string    `json:"username"`
	CenterID   int64     `json:"center_id"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// HasCenter reports whether the session operator is bound to a center
func (s *Session) HasCenter() bool {
	return s.CenterID != models.NoCenter
}

// Manager issues and resolves session tokens
type Manager struct {
	entries *cache.Cache
	clock   clockwork.Clock
	ttl     time.Duration
	metrics *metrics.Collector

	mu sync.Mutex
}

// NewManager creates a manager whose sessions live for ttl. Expired entries
// are purged every cleanupInterval; a nil clock uses real time.
func NewManager(ttl, cleanupInterval time.Duration, clock clockwork.Clock, metricsCollector *metrics.Collector) *Manager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Manager{
		entries: cache.New(ttl, cleanupInterval),
		clock:   clock,
		ttl:     ttl,
		metrics: metricsCollector,
	}
}

// Create starts a session for op
func (m *Manager) Create(op *models.Operator) *Session {
	now := m.clock.Now().UTC()
	s := Session{
		Token:      uuid.NewString(),
		OperatorID: op.ID,
		Username:   op.Username,
		CenterID:   op.CenterID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(m.ttl),
	}

	m.entries.Set(s.Token, s, m.ttl)
	m.updateGauge()

	return &s
}

// Get resolves a token to a copy of its session
func (m *Manager) Get(token string) (*Session, error) {
	v, ok := m.entries.Get(token)
	if !ok {
		return nil, ErrNotFound
	}

	s := v.(Session)
	if !m.clock.Now().Before(s.ExpiresAt) {
		m.Delete(token)
		return nil, ErrNotFound
	}

	return &s, nil
}

// SetCenter records a new center binding on a live session
func (m *Manager) SetCenter(token string, centerID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.Get(token)
	if err != nil {
		return err
	}

	s.CenterID = centerID
	remaining := s.ExpiresAt.Sub(m.clock.Now())
	m.entries.Set(token, *s, remaining)
	return nil
}

// Delete ends a session; unknown tokens are ignored
func (m *Manager) Delete(token string) {
	m.entries.Delete(token)
	m.updateGauge()
}

// Count returns the number of stored sessions, including expired ones not yet purged
func (m *Manager) Count() int {
	return m.entries.ItemCount()
}

func (m *Manager) updateGauge() {
	if m.metrics != nil {
		m.metrics.ActiveSessions.Set(float64(m.entries.ItemCount()))
	}
}
