// Package session holds per-conversation pipeline state. A session owns its
// conversation, at most one pending intent record, and at most one pending
// test proposal; starting a new code-generation attempt implicitly discards
// and cancels any prior pending work.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/babyccino/pipeline-orchestrator/internal/flowchart"
	"github.com/babyccino/pipeline-orchestrator/internal/models"
)

// State is a session's position in the test proposal/approval protocol.
type State string

const (
	StateIdle             State = "idle"
	StateAwaitingProposal State = "awaiting_proposal"
	StateAwaitingApproval State = "awaiting_approval"
	StateGenerating       State = "generating"
)

var (
	// ErrStaleProposal is returned when an approval references a proposal
	// other than the one currently pending.
	ErrStaleProposal = errors.New("proposal is stale or unknown")
	// ErrNoApprovedTests is returned when an approval carries no tests.
	ErrNoApprovedTests = errors.New("no tests approved")
	// ErrInvalidTransition is returned on a state change the protocol forbids.
	ErrInvalidTransition = errors.New("invalid state transition")
)

// validTransitions enumerates the allowed protocol moves.
var validTransitions = map[State][]State{
	StateIdle:             {StateAwaitingProposal},
	StateAwaitingProposal: {StateAwaitingApproval, StateIdle},
	StateAwaitingApproval: {StateGenerating, StateIdle},
	StateGenerating:       {StateIdle},
}

// TestProposal is a server-authored test set pending user approval, bound to
// the exact requirements it was computed from.
type TestProposal struct {
	ID           uuid.UUID
	FunctionName string
	Requirements models.FunctionRequirements
	Tests        []models.ProposedTestCase
}

// Session is one design conversation's pipeline state. All methods are safe
// for concurrent use; the pipeline itself processes a session sequentially.
type Session struct {
	ID uuid.UUID

	mu             sync.Mutex
	conversation   models.Conversation
	state          State
	pendingIntent  *models.IntentRecord
	proposal       *TestProposal
	route          flowchart.Route
	lastResult     *models.CodeResult
	attempt        uint64
	cancelInFlight context.CancelFunc

	subMu sync.Mutex
	subs  map[chan models.SessionEvent]struct{}
}

// New creates an idle session.
func New() *Session {
	return &Session{
		ID:    uuid.New(),
		state: StateIdle,
		subs:  make(map[chan models.SessionEvent]struct{}),
	}
}

// AppendTurn appends an immutable turn to the conversation.
func (s *Session) AppendTurn(role models.Role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversation = append(s.conversation, models.ChatTurn{Role: role, Content: content})
}

// Conversation returns a copy of the conversation.
func (s *Session) Conversation() models.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(models.Conversation(nil), s.conversation...)
}

// State returns the current protocol state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetPendingIntent retains the latest complete intent record as the active
// specification seed.
func (s *Session) SetPendingIntent(rec *models.IntentRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingIntent = rec
}

// PendingIntent returns the retained intent record, or nil.
func (s *Session) PendingIntent() *models.IntentRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pendingIntent == nil {
		return nil
	}
	cp := *s.pendingIntent
	return &cp
}

// SetRoute records the flowchart router's verdict for this specification.
func (s *Session) SetRoute(r flowchart.Route) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.route = r
}

// Route returns the recorded flowchart route.
func (s *Session) Route() flowchart.Route {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.route
}

// BeginProposal starts a new code-generation attempt: any in-flight call is
// cancelled, any pending proposal is discarded, and the session moves to
// AwaitingProposal. The returned context governs the proposal request and the
// returned token identifies the attempt; a superseded attempt's token is
// rejected by every later lifecycle call, so a stale attempt can neither
// install its proposal nor cancel the live one.
func (s *Session) BeginProposal(parent context.Context) (context.Context, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// At-most-one-in-flight: a new attempt invalidates the prior one.
	s.cancelLocked()
	s.proposal = nil
	s.state = StateIdle

	if err := s.transitionLocked(StateAwaitingProposal); err != nil {
		return nil, 0, err
	}

	s.attempt++
	ctx, cancel := context.WithCancel(parent)
	s.cancelInFlight = cancel
	return ctx, s.attempt, nil
}

// CompleteProposal stores the proposed tests and awaits approval. The attempt
// token must belong to the current attempt.
func (s *Session) CompleteProposal(attempt uint64, p *TestProposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if attempt != s.attempt {
		return fmt.Errorf("%w: attempt superseded", ErrInvalidTransition)
	}
	if err := s.transitionLocked(StateAwaitingApproval); err != nil {
		return err
	}
	s.proposal = p
	s.cancelLocked()
	return nil
}

// FailProposal returns to Idle with no partial state retained. A superseded
// attempt's failure is ignored; the live attempt owns the session.
func (s *Session) FailProposal(attempt uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if attempt != s.attempt {
		return
	}
	s.cancelLocked()
	s.proposal = nil
	s.state = StateIdle
	s.publishLocked(models.NewSessionEvent(models.EventStateChanged, map[string]interface{}{
		"state": string(StateIdle),
	}))
}

// Proposal returns the pending proposal, or nil.
func (s *Session) Proposal() *TestProposal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.proposal
}

// BeginGeneration validates the approval against the pending proposal and
// moves to Generating. Every approved id that does not trace to the pending
// proposal is re-minted as a fresh user-authored identity, so ids from a
// discarded proposal never survive. The returned context governs the
// generation request; the token continues the attempt begun in BeginProposal.
func (s *Session) BeginGeneration(parent context.Context, proposalID uuid.UUID, approved []models.ApprovedTestCase) (context.Context, uint64, *TestProposal, []models.ApprovedTestCase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAwaitingApproval || s.proposal == nil {
		return nil, 0, nil, nil, fmt.Errorf("%w: no proposal awaiting approval", ErrStaleProposal)
	}
	if s.proposal.ID != proposalID {
		return nil, 0, nil, nil, fmt.Errorf("%w: have %s, got %s", ErrStaleProposal, s.proposal.ID, proposalID)
	}
	if len(approved) == 0 {
		return nil, 0, nil, nil, ErrNoApprovedTests
	}

	proposed := make(map[string]struct{}, len(s.proposal.Tests))
	for _, t := range s.proposal.Tests {
		proposed[t.ID] = struct{}{}
	}

	final := make([]models.ApprovedTestCase, 0, len(approved))
	for _, t := range approved {
		if _, ok := proposed[t.ID]; !ok {
			t.ID = uuid.New().String()
		}
		final = append(final, t)
	}

	if err := s.transitionLocked(StateGenerating); err != nil {
		return nil, 0, nil, nil, err
	}

	ctx, cancel := context.WithCancel(parent)
	s.cancelInFlight = cancel
	return ctx, s.attempt, s.proposal, final, nil
}

// FinishGeneration returns to Idle, retaining the result when generation
// succeeded. There is no retry-without-reapproval path: the next attempt
// starts from BeginProposal again. A superseded attempt's finish is ignored.
func (s *Session) FinishGeneration(attempt uint64, result *models.CodeResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if attempt != s.attempt {
		return
	}
	s.cancelLocked()
	s.proposal = nil
	s.state = StateIdle
	if result != nil {
		s.lastResult = result
	}
	s.publishLocked(models.NewSessionEvent(models.EventStateChanged, map[string]interface{}{
		"state": string(StateIdle),
	}))
}

// CancelPending discards any pending proposal and in-flight call. A discarded
// proposal is never silently reused.
func (s *Session) CancelPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
	s.proposal = nil
	s.state = StateIdle
	s.publishLocked(models.NewSessionEvent(models.EventStateChanged, map[string]interface{}{
		"state": string(StateIdle),
	}))
}

// LastResult returns the most recent code result, or nil.
func (s *Session) LastResult() *models.CodeResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastResult
}

func (s *Session) transitionLocked(next State) error {
	for _, allowed := range validTransitions[s.state] {
		if allowed == next {
			s.state = next
			s.publishLocked(models.NewSessionEvent(models.EventStateChanged, map[string]interface{}{
				"state": string(next),
			}))
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.state, next)
}

func (s *Session) cancelLocked() {
	if s.cancelInFlight != nil {
		s.cancelInFlight()
		s.cancelInFlight = nil
	}
}
