package service

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/okian/paddock/pkg/metrics"
)

// DefaultSession scopes callers that carry no session id.
const DefaultSession = "default"

type sessionKey struct{}

// WithSession returns a copy of ctx addressing the dashboard of session id.
func WithSession(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

// SessionFromContext returns the session id stored by WithSession, or
// DefaultSession.
func SessionFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(sessionKey{}).(string); ok && id != "" {
		return id
	}
	return DefaultSession
}

type session struct {
	id       string
	dash     *Dashboard
	lastSeen time.Time
}

// sessionStore holds one Dashboard per session. The least recently used
// session is evicted when the store is full; a session untouched for idle
// is evicted on the next lookup.
type sessionStore struct {
	mu      sync.Mutex
	items   map[string]*list.Element
	order   *list.List
	maxSize int
	idle    time.Duration
	now     func() time.Time
	create  func(id string) *Dashboard
}

func newSessionStore(maxSize int, idle time.Duration, now func() time.Time, create func(id string) *Dashboard) *sessionStore {
	return &sessionStore{
		items:   make(map[string]*list.Element),
		order:   list.New(),
		maxSize: maxSize,
		idle:    idle,
		now:     now,
		create:  create,
	}
}

// get returns the dashboard of id and marks it used, creating it when
// absent. created reports whether a new dashboard was made.
func (s *sessionStore) get(id string) (d *Dashboard, created bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.expire(now)
	if el, ok := s.items[id]; ok {
		sess := el.Value.(*session)
		sess.lastSeen = now
		s.order.MoveToBack(el)
		return sess.dash, false
	}

	if s.maxSize > 0 && len(s.items) >= s.maxSize {
		s.remove(s.order.Front())
	}
	sess := &session{id: id, dash: s.create(id), lastSeen: now}
	s.items[id] = s.order.PushBack(sess)
	metrics.UpdateActiveSessions(len(s.items))
	return sess.dash, true
}

// peek returns the dashboard of id without marking it used.
func (s *sessionStore) peek(id string) (*Dashboard, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.items[id]
	if !ok {
		return nil, false
	}
	return el.Value.(*session).dash, true
}

// all returns the live dashboards, oldest use first.
func (s *sessionStore) all() []*Dashboard {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expire(s.now())
	out := make([]*Dashboard, 0, len(s.items))
	for el := s.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(*session).dash)
	}
	return out
}

func (s *sessionStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// expire must be called with s.mu held.
func (s *sessionStore) expire(now time.Time) {
	if s.idle <= 0 {
		return
	}
	for el := s.order.Front(); el != nil; {
		next := el.Next()
		if now.Sub(el.Value.(*session).lastSeen) < s.idle {
			break
		}
		s.remove(el)
		el = next
	}
}

// remove must be called with s.mu held.
func (s *sessionStore) remove(el *list.Element) {
	if el == nil {
		return
	}
	delete(s.items, el.Value.(*session).id)
	s.order.Remove(el)
	metrics.UpdateActiveSessions(len(s.items))
}
