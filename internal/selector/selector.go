// Package selector keeps track of which remote session is being controlled.
package selector

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/genricoloni/synremote/internal/domain"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// RefreshResult describes what a refresh changed
type RefreshResult struct {
	// Sessions is the filtered, sorted list of controllable sessions
	Sessions []domain.TargetSession
	// Restored is set when the persisted session became the target
	Restored bool
	// Lost is set when the previous target is no longer listed and was cleared
	Lost bool
}

// Selector holds the current target session and the last fetched list
type Selector struct {
	logger    *zap.Logger
	transport domain.Transport
	store     domain.SessionStore
	userID    string

	mu       sync.Mutex
	target   *domain.TargetSession
	sessions []domain.TargetSession
}

// NewSelector creates a selector with no target
func NewSelector(logger *zap.Logger, transport domain.Transport, store domain.SessionStore, cfg domain.Config) *Selector {
	return &Selector{
		logger:    logger,
		transport: transport,
		store:     store,
		userID:    cfg.UserID(),
	}
}

// Refresh fetches the controllable sessions, restores the persisted target
// when none is set and drops the target when it has disappeared
func (s *Selector) Refresh(ctx context.Context) (RefreshResult, error) {
	raw, err := s.transport.FetchControllableSessions(ctx, s.userID)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("failed to refresh sessions: %w", err)
	}

	ownDevice, err := s.store.DeviceID()
	if err != nil {
		s.logger.Warn("Failed to read own device id", zap.Error(err))
	}
	sessions := sortSessions(filterSessions(raw, ownDevice))

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = sessions
	result := RefreshResult{Sessions: sessions}

	if s.target != nil {
		current, found := lo.Find(sessions, func(t domain.TargetSession) bool {
			return t.Same(*s.target)
		})
		if found {
			s.target = &current
			return result, nil
		}

		s.logger.Info("Target session is gone", zap.String("sessionId", s.target.SessionID))
		s.target = nil
		result.Lost = true
		if err := s.store.ClearLastSession(); err != nil {
			s.logger.Warn("Failed to clear persisted session", zap.Error(err))
		}
		return result, nil
	}

	lastID, ok, err := s.store.LastSessionID()
	if err != nil {
		s.logger.Warn("Failed to read persisted session", zap.Error(err))
		return result, nil
	}
	if !ok {
		return result, nil
	}
	if restored, found := lo.Find(sessions, func(t domain.TargetSession) bool {
		return t.SessionID == lastID
	}); found {
		s.target = &restored
		result.Restored = true
		s.logger.Info("Restored target session",
			zap.String("sessionId", restored.SessionID),
			zap.String("device", restored.DeviceName))
	}
	return result, nil
}

// SetTarget makes session the target and persists its id. The target is
// set even if persisting fails.
func (s *Selector) SetTarget(session domain.TargetSession) error {
	s.mu.Lock()
	s.target = &session
	s.mu.Unlock()

	if err := s.store.SaveLastSession(session.SessionID); err != nil {
		return fmt.Errorf("failed to persist target session: %w", err)
	}
	return nil
}

// ClearTarget unsets the target and forgets the persisted id
func (s *Selector) ClearTarget() error {
	s.mu.Lock()
	s.target = nil
	s.mu.Unlock()

	if err := s.store.ClearLastSession(); err != nil {
		return fmt.Errorf("failed to clear target session: %w", err)
	}
	return nil
}

// Target returns the current target
func (s *Selector) Target() (domain.TargetSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.target == nil {
		return domain.TargetSession{}, false
	}
	return *s.target, true
}

// Sessions returns the list from the last refresh
func (s *Selector) Sessions() []domain.TargetSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.TargetSession(nil), s.sessions...)
}

func filterSessions(raw []domain.RawSession, ownDevice string) []domain.TargetSession {
	kept := lo.Filter(raw, func(r domain.RawSession, _ int) bool {
		if r.ID == "" {
			return false
		}
		return ownDevice == "" || r.DeviceID != ownDevice
	})
	return lo.Map(kept, func(r domain.RawSession, _ int) domain.TargetSession {
		return domain.TargetFromSession(r)
	})
}

// sortSessions puts media-controllable sessions first and, within each
// group, sessions with something playing first
func sortSessions(sessions []domain.TargetSession) []domain.TargetSession {
	sort.SliceStable(sessions, func(i, j int) bool {
		a, b := sessions[i], sessions[j]
		if a.SupportsMediaControl != b.SupportsMediaControl {
			return a.SupportsMediaControl
		}
		return a.IsActive() && !b.IsActive()
	})
	return sessions
}
