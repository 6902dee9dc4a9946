package elicit

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/HendryAvila/plantbot/internal/ingredients"
)

// Draft is the formulation collected so far. Props is a copy of the
// ingredient taken at selection time.
type Draft struct {
	Source string               `json:"source,omitempty"`
	Props  ingredients.Property `json:"props,omitzero"`
	Conc   *float64             `json:"conc,omitempty"`
	Fat    *float64             `json:"fat,omitempty"`
	PH     *float64             `json:"ph,omitempty"`
	Stab   *float64             `json:"stab,omitempty"`
}

// field returns the draft slot a numeric step writes.
func (d *Draft) field(s State) **float64 {
	switch s {
	case AskConc:
		return &d.Conc
	case AskFat:
		return &d.Fat
	case AskPH:
		return &d.PH
	case AskStab:
		return &d.Stab
	}
	return nil
}

// Session is one dialogue. Steps on the same session are serialized.
type Session struct {
	mu sync.Mutex

	ID    string
	State State
	Draft Draft

	// PendingName and PendingWHC hold the ingredient being authored.
	PendingName string
	PendingWHC  float64

	Last      *Report
	UpdatedAt time.Time
}

// NewSession returns an idle session with a fresh id.
func NewSession() *Session {
	return &Session{ID: uuid.NewString(), UpdatedAt: timeNow()}
}

// reset returns the session to Idle and drops every partial value.
func (s *Session) reset() {
	s.State = Idle
	s.Draft = Draft{}
	s.PendingName = ""
	s.PendingWHC = 0
}

// View is a read-only copy of a session for display.
type View struct {
	ID          string    `json:"id"`
	State       State     `json:"state"`
	Draft       Draft     `json:"draft"`
	PendingName string    `json:"pending_ingredient,omitempty"`
	PendingWHC  float64   `json:"pending_whc,omitempty"`
	Last        *Report   `json:"last_report,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// View copies the session under its lock.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		ID:          s.ID,
		State:       s.State,
		Draft:       s.Draft,
		PendingName: s.PendingName,
		PendingWHC:  s.PendingWHC,
		Last:        s.Last,
		UpdatedAt:   s.UpdatedAt,
	}
}

// SessionIdleTTL is how long a session may go without a turn before the
// registry forgets it.
const SessionIdleTTL = 30 * time.Minute

// Sessions is a registry of live sessions keyed by id. Sessions idle for
// longer than the TTL are evicted whenever a session is opened.
type Sessions struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
}

// NewSessions creates an empty registry that evicts after SessionIdleTTL.
func NewSessions() *Sessions {
	return NewSessionsTTL(SessionIdleTTL)
}

// NewSessionsTTL creates an empty registry with a custom idle timeout. A
// non-positive ttl disables eviction.
func NewSessionsTTL(ttl time.Duration) *Sessions {
	return &Sessions{sessions: make(map[string]*Session), ttl: ttl}
}

// Get returns the session with id, if any.
func (r *Sessions) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Open returns the session with id, creating it when id is empty or
// unknown. A created session keeps a non-empty caller id.
func (r *Sessions) Open(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictIdle(timeNow())
	if s, ok := r.sessions[id]; ok && id != "" {
		return s
	}
	s := NewSession()
	if id != "" {
		s.ID = id
	}
	r.sessions[s.ID] = s
	return s
}

// evictIdle drops sessions whose last turn is older than the ttl. A session
// in the middle of a turn is kept. Callers hold r.mu.
func (r *Sessions) evictIdle(now time.Time) {
	if r.ttl <= 0 {
		return
	}
	for id, s := range r.sessions {
		if !s.mu.TryLock() {
			continue
		}
		idle := now.Sub(s.UpdatedAt)
		s.mu.Unlock()
		if idle > r.ttl {
			delete(r.sessions, id)
		}
	}
}

// Delete forgets a session.
func (r *Sessions) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Len returns the number of live sessions.
func (r *Sessions) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
