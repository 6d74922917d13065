// Package state tracks what each dashboard session is looking at: per data domain, the
// latest request, its loading and error flags, and the last good result.
//
// Every fetch is tagged with a request id. Completions carrying a superseded id are
// dropped, so a slow response for an old wallet can never overwrite a newer one.
package state

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"
)

// Domain names a data domain of a session.
type Domain string

const (
	Exchanges Domain = "exchanges"
	Votes     Domain = "votes"
)

// Event is the notification name published when a domain changes.
func (d Domain) Event() string { return string(d) + ".updated" }

// Notifier is told about every accepted state change.
type Notifier interface {
	Notify(ctx context.Context, session string, domain Domain, st Status)
}

// Status is the data-independent part of a domain's state.
type Status struct {
	RequestID string    `json:"requestId"`
	Wallet    string    `json:"wallet"`
	Loading   bool      `json:"loading"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// State is a domain's state for one session.
type State[T any] struct {
	Status
	Data    T    `json:"data"`
	HasData bool `json:"hasData"`
}

// Store holds one domain's state for every session.
type Store[T any] struct {
	domain   Domain
	sessions *xsync.Map[string, State[T]]
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewStore[T any](domain Domain, notifier Notifier, logger *zap.Logger) *Store[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store[T]{
		domain:   domain,
		sessions: xsync.NewMap[string, State[T]](),
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Store[T]) Domain() Domain { return s.domain }

// Get returns the session's state; ok is false for sessions never seen.
func (s *Store[T]) Get(session string) (State[T], bool) {
	return s.sessions.Load(session)
}

// Begin starts a fetch for wallet and returns its request id. Previous data stays
// visible until the fetch resolves; the error flag is cleared.
func (s *Store[T]) Begin(ctx context.Context, session, wallet string) string {
	id := uuid.NewString()
	st, _ := s.sessions.Compute(session, func(old State[T], _ bool) (State[T], xsync.ComputeOp) {
		old.RequestID = id
		old.Wallet = wallet
		old.Loading = true
		old.Error = ""
		old.UpdatedAt = s.now()
		return old, xsync.UpdateOp
	})
	s.notify(ctx, session, st.Status)
	return id
}

// Complete stores data for requestID. It reports false, changing nothing, when a newer
// request has started since or the session was cleared.
func (s *Store[T]) Complete(ctx context.Context, session, requestID string, data T) bool {
	return s.resolve(ctx, session, requestID, func(st *State[T]) {
		st.Data = data
		st.HasData = true
		st.Error = ""
	})
}

// Fail records err for requestID and clears the data so no stale result is shown.
func (s *Store[T]) Fail(ctx context.Context, session, requestID string, err error) bool {
	return s.resolve(ctx, session, requestID, func(st *State[T]) {
		var zero T
		st.Data = zero
		st.HasData = false
		st.Error = err.Error()
	})
}

// Reject records a validation error without starting a fetch. Data is kept.
func (s *Store[T]) Reject(ctx context.Context, session, message string) {
	st, _ := s.sessions.Compute(session, func(old State[T], _ bool) (State[T], xsync.ComputeOp) {
		old.Error = message
		old.UpdatedAt = s.now()
		return old, xsync.UpdateOp
	})
	s.notify(ctx, session, st.Status)
}

// Clear empties the session's domain. In-flight requests are orphaned.
func (s *Store[T]) Clear(ctx context.Context, session string) {
	st, _ := s.sessions.Compute(session, func(_ State[T], _ bool) (State[T], xsync.ComputeOp) {
		return State[T]{Status: Status{RequestID: uuid.NewString(), UpdatedAt: s.now()}}, xsync.UpdateOp
	})
	s.notify(ctx, session, st.Status)
}

// Forget drops the session entirely.
func (s *Store[T]) Forget(session string) {
	s.sessions.Delete(session)
}

// Len is the number of tracked sessions.
func (s *Store[T]) Len() int { return s.sessions.Size() }

func (s *Store[T]) resolve(ctx context.Context, session, requestID string, apply func(*State[T])) bool {
	accepted := false
	st, _ := s.sessions.Compute(session, func(old State[T], loaded bool) (State[T], xsync.ComputeOp) {
		if !loaded || old.RequestID != requestID {
			return old, xsync.CancelOp
		}
		apply(&old)
		old.Loading = false
		old.UpdatedAt = s.now()
		accepted = true
		return old, xsync.UpdateOp
	})
	if !accepted {
		s.logger.Debug("discarding stale completion",
			zap.String("domain", string(s.domain)),
			zap.String("session", session),
			zap.String("request_id", requestID),
		)
		return false
	}
	s.notify(ctx, session, st.Status)
	return true
}

func (s *Store[T]) notify(ctx context.Context, session string, st Status) {
	if s.notifier != nil {
		s.notifier.Notify(ctx, session, s.domain, st)
	}
}
