package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/babyccino/pipeline-orchestrator/internal/models"
)

func proposalFor(s *Session, t *testing.T) *TestProposal {
	t.Helper()
	_, attempt, err := s.BeginProposal(context.Background())
	require.NoError(t, err)

	p := &TestProposal{
		ID:           uuid.New(),
		FunctionName: "is_fun",
		Requirements: models.FunctionRequirements{Name: "is_fun"},
		Tests: []models.ProposedTestCase{
			{ID: uuid.New().String(), Description: "vowel rule", Input: `"hello"`, ExpectedOutput: "True"},
			{ID: uuid.New().String(), Description: "edge", Input: `""`, ExpectedOutput: "False", IsEdgeCase: true},
		},
	}
	require.NoError(t, s.CompleteProposal(attempt, p))
	return p
}

func approve(tests ...models.ProposedTestCase) []models.ApprovedTestCase {
	var out []models.ApprovedTestCase
	for _, tc := range tests {
		out = append(out, models.ApprovedTestCase{
			ID:             tc.ID,
			Description:    tc.Description,
			Input:          tc.Input,
			ExpectedOutput: tc.ExpectedOutput,
			IsEdgeCase:     tc.IsEdgeCase,
		})
	}
	return out
}

func TestNewSessionIsIdle(t *testing.T) {
	s := New()
	assert.Equal(t, StateIdle, s.State())
	assert.Nil(t, s.Proposal())
	assert.Nil(t, s.LastResult())
}

func TestAppendTurnAndConversationCopy(t *testing.T) {
	s := New()
	s.AppendTurn(models.RoleUser, "hello")
	s.AppendTurn(models.RoleAssistant, "hi")

	conv := s.Conversation()
	require.Len(t, conv, 2)

	// Mutating the copy must not affect the session.
	conv[0].Content = "changed"
	assert.Equal(t, "hello", s.Conversation()[0].Content)
}

func TestProposalLifecycle(t *testing.T) {
	s := New()
	p := proposalFor(s, t)

	assert.Equal(t, StateAwaitingApproval, s.State())
	assert.Equal(t, p.ID, s.Proposal().ID)

	_, attempt, _, final, err := s.BeginGeneration(context.Background(), p.ID, approve(p.Tests...))
	require.NoError(t, err)
	assert.Equal(t, StateGenerating, s.State())
	assert.Len(t, final, 2)

	result := &models.CodeResult{FunctionName: "is_fun", Function: "def is_fun(word): ..."}
	s.FinishGeneration(attempt, result)
	assert.Equal(t, StateIdle, s.State())
	assert.Nil(t, s.Proposal())
	assert.Equal(t, result, s.LastResult())
}

func TestBeginGenerationStaleProposal(t *testing.T) {
	s := New()
	p := proposalFor(s, t)

	_, _, _, _, err := s.BeginGeneration(context.Background(), uuid.New(), approve(p.Tests...))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStaleProposal)
	assert.Equal(t, StateAwaitingApproval, s.State(), "failed approval must not consume the proposal")
}

func TestBeginGenerationWithoutProposal(t *testing.T) {
	s := New()
	_, _, _, _, err := s.BeginGeneration(context.Background(), uuid.New(), nil)
	assert.ErrorIs(t, err, ErrStaleProposal)
}

func TestBeginGenerationEmptyApproval(t *testing.T) {
	s := New()
	p := proposalFor(s, t)

	_, _, _, _, err := s.BeginGeneration(context.Background(), p.ID, nil)
	assert.ErrorIs(t, err, ErrNoApprovedTests)
}

func TestBeginGenerationSubsetAndUserAuthored(t *testing.T) {
	s := New()
	p := proposalFor(s, t)

	selection := approve(p.Tests[0])
	selection = append(selection, models.ApprovedTestCase{
		ID:             "user-made-this-up",
		Description:    "user-authored case",
		Input:          `"zzz"`,
		ExpectedOutput: "False",
	})

	_, _, _, final, err := s.BeginGeneration(context.Background(), p.ID, selection)
	require.NoError(t, err)
	require.Len(t, final, 2)

	// The proposed test keeps its id; the user-authored one gets a fresh uuid.
	assert.Equal(t, p.Tests[0].ID, final[0].ID)
	_, parseErr := uuid.Parse(final[1].ID)
	assert.NoError(t, parseErr)
	assert.NotEqual(t, "user-made-this-up", final[1].ID)
}

func TestBeginGenerationRemintsIdsFromDiscardedProposal(t *testing.T) {
	s := New()
	first := proposalFor(s, t)
	second := proposalFor(s, t)

	// Approve the live proposal but smuggle in a test carrying an id from
	// the discarded one; the id must not survive.
	selection := approve(second.Tests[0])
	selection = append(selection, models.ApprovedTestCase{
		ID:             first.Tests[0].ID,
		Description:    "carried over",
		Input:          `"abc"`,
		ExpectedOutput: "True",
	})

	_, _, _, final, err := s.BeginGeneration(context.Background(), second.ID, selection)
	require.NoError(t, err)
	require.Len(t, final, 2)

	assert.Equal(t, second.Tests[0].ID, final[0].ID)
	assert.NotEqual(t, first.Tests[0].ID, final[1].ID)
	_, parseErr := uuid.Parse(final[1].ID)
	assert.NoError(t, parseErr)
}

func TestNewAttemptDiscardsPriorProposal(t *testing.T) {
	s := New()
	first := proposalFor(s, t)

	ctx, attempt, err := s.BeginProposal(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingProposal, s.State())
	assert.Nil(t, s.Proposal())
	assert.NoError(t, ctx.Err())

	// Approving the discarded proposal must fail even after a new one lands.
	second := &TestProposal{ID: uuid.New(), FunctionName: "is_fun", Tests: first.Tests}
	require.NoError(t, s.CompleteProposal(attempt, second))

	_, _, _, _, err = s.BeginGeneration(context.Background(), first.ID, approve(first.Tests...))
	assert.ErrorIs(t, err, ErrStaleProposal)
}

func TestBeginProposalCancelsInFlight(t *testing.T) {
	s := New()
	ctx1, _, err := s.BeginProposal(context.Background())
	require.NoError(t, err)

	_, _, err = s.BeginProposal(context.Background())
	require.NoError(t, err)

	select {
	case <-ctx1.Done():
	case <-time.After(time.Second):
		t.Fatal("first attempt's context was not cancelled")
	}
}

func TestSupersededAttemptCannotComplete(t *testing.T) {
	s := New()
	_, stale, err := s.BeginProposal(context.Background())
	require.NoError(t, err)

	ctx2, live, err := s.BeginProposal(context.Background())
	require.NoError(t, err)

	// The superseded attempt must neither install its proposal nor cancel
	// the live attempt's context.
	staleProposal := &TestProposal{ID: uuid.New(), FunctionName: "is_fun"}
	err = s.CompleteProposal(stale, staleProposal)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Nil(t, s.Proposal())
	assert.Equal(t, StateAwaitingProposal, s.State())
	assert.NoError(t, ctx2.Err())

	liveProposal := &TestProposal{
		ID:           uuid.New(),
		FunctionName: "is_fun",
		Tests:        []models.ProposedTestCase{{ID: uuid.New().String(), Description: "case"}},
	}
	require.NoError(t, s.CompleteProposal(live, liveProposal))
	assert.Equal(t, liveProposal.ID, s.Proposal().ID)
}

func TestSupersededAttemptFailureIsIgnored(t *testing.T) {
	s := New()
	_, stale, err := s.BeginProposal(context.Background())
	require.NoError(t, err)

	p := proposalFor(s, t)

	s.FailProposal(stale)
	assert.Equal(t, StateAwaitingApproval, s.State())
	require.NotNil(t, s.Proposal())
	assert.Equal(t, p.ID, s.Proposal().ID)
}

func TestSupersededGenerationCannotFinish(t *testing.T) {
	s := New()
	p := proposalFor(s, t)
	_, staleAttempt, _, _, err := s.BeginGeneration(context.Background(), p.ID, approve(p.Tests...))
	require.NoError(t, err)

	// A new attempt supersedes the generation in flight.
	ctx2, _, err := s.BeginProposal(context.Background())
	require.NoError(t, err)

	stale := &models.CodeResult{FunctionName: "is_fun", Function: "def is_fun(word): ..."}
	s.FinishGeneration(staleAttempt, stale)
	assert.Equal(t, StateAwaitingProposal, s.State())
	assert.Nil(t, s.LastResult())
	assert.NoError(t, ctx2.Err())
}

func TestCancelPending(t *testing.T) {
	s := New()
	proposalFor(s, t)

	s.CancelPending()
	assert.Equal(t, StateIdle, s.State())
	assert.Nil(t, s.Proposal())
}

func TestFailProposalReturnsToIdle(t *testing.T) {
	s := New()
	_, attempt, err := s.BeginProposal(context.Background())
	require.NoError(t, err)

	s.FailProposal(attempt)
	assert.Equal(t, StateIdle, s.State())

	// A failed attempt must not block the next one.
	_, _, err = s.BeginProposal(context.Background())
	assert.NoError(t, err)
}

func TestFinishGenerationWithoutResultKeepsPrevious(t *testing.T) {
	s := New()
	p := proposalFor(s, t)
	_, attempt, _, _, err := s.BeginGeneration(context.Background(), p.ID, approve(p.Tests...))
	require.NoError(t, err)

	prior := &models.CodeResult{FunctionName: "is_fun", Function: "def is_fun(word): ..."}
	s.FinishGeneration(attempt, prior)

	p2 := proposalFor(s, t)
	_, attempt2, _, _, err := s.BeginGeneration(context.Background(), p2.ID, approve(p2.Tests...))
	require.NoError(t, err)
	s.FinishGeneration(attempt2, nil)

	assert.Equal(t, StateIdle, s.State())
	assert.Equal(t, prior, s.LastResult())
}

func TestSubscribeReceivesStateChanges(t *testing.T) {
	s := New()
	ch := s.Subscribe()
	defer s.Unsubscribe(ch)

	_, _, err := s.BeginProposal(context.Background())
	require.NoError(t, err)

	select {
	case ev := <-ch:
		assert.Equal(t, models.EventStateChanged, ev.EventType)
		assert.Equal(t, string(StateAwaitingProposal), ev.Data["state"])
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	s := New()
	ch := s.Subscribe()
	defer s.Unsubscribe(ch)

	// Overflow the buffer without draining; publishing must not stall.
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*2; i++ {
			s.Publish(models.NewSessionEvent(models.EventPipelineError, nil))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

func TestManagerLifecycle(t *testing.T) {
	m := NewManager()
	assert.Equal(t, 0, m.Count())

	s := m.Create()
	assert.Equal(t, 1, m.Count())

	got, ok := m.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)

	_, ok = m.Get(uuid.New())
	assert.False(t, ok)

	m.Delete(s.ID)
	assert.Equal(t, 0, m.Count())
	_, ok = m.Get(s.ID)
	assert.False(t, ok)
}

func TestManagerDeleteCancelsInFlight(t *testing.T) {
	m := NewManager()
	s := m.Create()

	ctx, _, err := s.BeginProposal(context.Background())
	require.NoError(t, err)

	m.Delete(s.ID)

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("delete did not cancel the in-flight attempt")
	}
}

func TestSnapshot(t *testing.T) {
	s := New()
	s.AppendTurn(models.RoleUser, "a fun checker, it's fun if it has a z")
	s.SetPendingIntent(&models.IntentRecord{
		FunctionName: "is_fun",
		FunctionType: models.FunctionCustom,
		SpecStatus:   models.SpecComplete,
	})
	p := proposalFor(s, t)

	snap := s.Snapshot()
	assert.Equal(t, s.ID.String(), snap.SessionID)
	assert.Equal(t, StateAwaitingApproval, snap.State)
	require.Len(t, snap.Conversation, 1)
	require.NotNil(t, snap.PendingIntent)
	assert.Equal(t, "is_fun", snap.PendingIntent.FunctionName)
	require.NotNil(t, snap.Proposal)
	assert.Equal(t, p.ID.String(), snap.Proposal.ProposalID)
	assert.Len(t, snap.Proposal.ProposedTests, 2)
}
