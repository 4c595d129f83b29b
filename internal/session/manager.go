package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/babyccino/pipeline-orchestrator/internal/flowchart"
	"github.com/babyccino/pipeline-orchestrator/internal/models"
)

// Manager tracks live sessions. Sessions are independent and share no mutable
// state; persistence ends with the process by design.
type Manager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[uuid.UUID]*Session)}
}

// Create registers a new idle session.
func (m *Manager) Create() *Session {
	s := New()
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

// Get looks a session up by id.
func (m *Manager) Get(id uuid.UUID) (*Session, bool) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	return s, ok
}

// Delete removes a session, cancelling any in-flight call.
func (m *Manager) Delete(id uuid.UUID) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.CancelPending()
	}
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Snapshot is a read-only view of a session for API responses.
type Snapshot struct {
	SessionID      string               `json:"session_id"`
	State          State                `json:"state"`
	Conversation   models.Conversation  `json:"conversation"`
	PendingIntent  *models.IntentRecord `json:"pending_intent,omitempty"`
	FlowchartRoute flowchart.Route      `json:"flowchart_route,omitempty"`
	Proposal       *ProposalView        `json:"proposal,omitempty"`
	LastResult     *models.CodeResult   `json:"last_result,omitempty"`
}

// ProposalView is the wire form of a pending proposal.
type ProposalView struct {
	ProposalID    string                    `json:"proposal_id"`
	FunctionName  string                    `json:"function_name"`
	ProposedTests []models.ProposedTestCase `json:"proposed_tests"`
}

// Snapshot captures the session's current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		SessionID:      s.ID.String(),
		State:          s.state,
		Conversation:   append(models.Conversation(nil), s.conversation...),
		FlowchartRoute: s.route,
		LastResult:     s.lastResult,
	}
	if s.pendingIntent != nil {
		cp := *s.pendingIntent
		snap.PendingIntent = &cp
	}
	if s.proposal != nil {
		snap.Proposal = &ProposalView{
			ProposalID:    s.proposal.ID.String(),
			FunctionName:  s.proposal.FunctionName,
			ProposedTests: append([]models.ProposedTestCase(nil), s.proposal.Tests...),
		}
	}
	return snap
}
