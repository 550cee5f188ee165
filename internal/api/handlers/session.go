package handlers

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"van-route-service/internal/domain"
	"van-route-service/internal/services"
)

// PlanSession owns one optimized plan and its edit history. The
// original optimizer output is kept pristine so the session can always
// reset to it; edits replace current wholesale, never mutate it.
// The session mutex serializes edits, since the mutation layer itself
// assumes a single writer.
type PlanSession struct {
	ID        string
	CreatedAt time.Time
	Warnings  []string

	mu       sync.Mutex
	original *domain.Plan
	current  *domain.Plan
	costs    *services.CostModel
}

// View returns a copy of the current plan, safe to render without
// holding the session lock.
func (s *PlanSession) View() *domain.Plan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// Edit applies one edit and returns the updated plan. On error the
// session keeps its previous state.
func (s *PlanSession) Edit(edit services.Edit) (*domain.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mutator := services.NewPlanMutator(s.costs)
	next, err := mutator.Apply(s.current, edit)
	if err != nil {
		return nil, err
	}
	s.current = next
	return next.Clone(), nil
}

// Reset discards all edits and restores the optimizer's output.
func (s *PlanSession) Reset() *domain.Plan {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = s.original.Clone()
	return s.current.Clone()
}

// SessionStore keeps live plan sessions in memory. Plans exist only
// for the duration of one optimization session; nothing is persisted.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*PlanSession
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*PlanSession)}
}

func (st *SessionStore) Create(plan *domain.Plan, costs *services.CostModel, warnings []string) *PlanSession {
	session := &PlanSession{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		Warnings:  warnings,
		original:  plan,
		current:   plan.Clone(),
		costs:     costs,
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[session.ID] = session
	return session
}

func (st *SessionStore) Get(id string) (*PlanSession, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	session, ok := st.sessions[id]
	return session, ok
}
