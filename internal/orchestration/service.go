// Package orchestration wires the pipeline together: classify, validate,
// extract, route, propose tests, and generate code against the approved set.
package orchestration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/babyccino/pipeline-orchestrator/internal/classifier"
	"github.com/babyccino/pipeline-orchestrator/internal/extractor"
	"github.com/babyccino/pipeline-orchestrator/internal/flowchart"
	"github.com/babyccino/pipeline-orchestrator/internal/metrics"
	"github.com/babyccino/pipeline-orchestrator/internal/models"
	"github.com/babyccino/pipeline-orchestrator/internal/session"
	"github.com/babyccino/pipeline-orchestrator/internal/validator"
)

var (
	// ErrServiceFailure covers unreachable or non-2xx codegen service calls.
	ErrServiceFailure = errors.New("code generation service failure")
	// ErrMalformedResult covers responses missing required fields. Such a
	// result is never partially rendered.
	ErrMalformedResult = errors.New("malformed code generation response")
	// ErrNoFunction means no specification could be extracted at all.
	ErrNoFunction = errors.New("no function to generate")
)

// PromptWhatFunction is the conversational reply used when no specification
// can be extracted at all. Extraction ambiguity is a prompt, not a failure.
const PromptWhatFunction = "What function would you like me to build?"

const (
	replyDescribeFunction = "I couldn't quite follow that. Tell me about the function you'd like to build — what should it be called, and what should it do?"
	replyNeedsDetails     = "Could you describe the inputs and the expected output?"
	replyTakingLong       = "This is taking longer than expected. Please try again."
	replyServiceDown      = "The code generation service is unavailable right now. Please try again."
)

// TurnReply is the assistant's answer to one chat turn: always prose, never
// raw model output.
type TurnReply struct {
	Reply      string            `json:"reply"`
	SpecStatus models.SpecStatus `json:"spec_status"`
	Questions  []string          `json:"questions,omitempty"`
	Ready      bool              `json:"ready"`
}

// Service drives the conversational requirements pipeline. One session is
// processed sequentially; distinct sessions run fully in parallel.
type Service struct {
	classifier *classifier.Classifier
	extractor  *extractor.Extractor
	codegen    CodegenClientInterface
	metrics    *metrics.PipelineMetrics
	logger     *zap.Logger

	classifyTimeout time.Duration
	generateTimeout time.Duration
}

// NewService creates the pipeline service.
func NewService(cls *classifier.Classifier, ext *extractor.Extractor, codegen CodegenClientInterface, pm *metrics.PipelineMetrics, logger *zap.Logger, classifyTimeout, generateTimeout time.Duration) *Service {
	return &Service{
		classifier:      cls,
		extractor:       ext,
		codegen:         codegen,
		metrics:         pm,
		logger:          logger.Named("pipeline"),
		classifyTimeout: classifyTimeout,
		generateTimeout: generateTimeout,
	}
}

// HandleMessage runs one chat turn through classify → validate and returns
// the assistant's reply. Classification failures are recovered locally with a
// generic prompt; they are never surfaced as errors.
func (s *Service) HandleMessage(ctx context.Context, sess *session.Session, content string) (*TurnReply, error) {
	sess.AppendTurn(models.RoleUser, content)
	conv := sess.Conversation()

	classifyCtx, cancel := context.WithTimeout(ctx, s.classifyTimeout)
	defer cancel()

	record, err := s.classifier.Classify(classifyCtx, conv)
	if err != nil {
		// ClassificationFailure: fail closed, keep the conversation going.
		s.logger.Info("classification failed, answering with generic prompt",
			zap.String("session_id", sess.ID.String()),
			zap.Error(err),
		)
		reply := &TurnReply{
			Reply:      replyDescribeFunction,
			SpecStatus: models.SpecNeedsRules,
		}
		sess.AppendTurn(models.RoleAssistant, reply.Reply)
		return reply, nil
	}

	corrected, correction := validator.Validate(record, conv)
	if correction != validator.CorrectionNone {
		s.logger.Info("validator corrected classifier verdict",
			zap.String("session_id", sess.ID.String()),
			zap.String("correction", string(correction)),
			zap.String("from", string(record.SpecStatus)),
			zap.String("to", string(corrected.SpecStatus)),
		)
		s.metrics.RecordCorrection(ctx, string(correction))
		sess.Publish(models.NewSessionEvent(models.EventValidatorCorrected, map[string]interface{}{
			"correction": string(correction),
			"from":       string(record.SpecStatus),
			"to":         string(corrected.SpecStatus),
		}))
	}

	s.metrics.RecordTurnClassified(ctx, string(corrected.FunctionType), string(corrected.SpecStatus))
	sess.Publish(models.NewSessionEvent(models.EventIntentClassified, map[string]interface{}{
		"function_name": corrected.FunctionName,
		"function_type": string(corrected.FunctionType),
		"spec_status":   string(corrected.SpecStatus),
	}))

	reply := s.composeReply(sess, corrected)
	sess.AppendTurn(models.RoleAssistant, reply.Reply)
	return reply, nil
}

func (s *Service) composeReply(sess *session.Session, rec models.IntentRecord) *TurnReply {
	switch rec.SpecStatus {
	case models.SpecComplete:
		sess.SetPendingIntent(&rec)
		name := rec.FunctionName
		if name == "" {
			name = "your function"
		}
		return &TurnReply{
			Reply:      fmt.Sprintf("Got it — I have everything I need for %s. Say \"generate\" when you're ready and I'll propose test cases for your approval.", name),
			SpecStatus: rec.SpecStatus,
			Ready:      true,
		}
	case models.SpecNeedsDetails:
		questions := rec.Questions
		if len(questions) == 0 {
			questions = []string{replyNeedsDetails}
		}
		return &TurnReply{
			Reply:      strings.Join(questions, " "),
			SpecStatus: rec.SpecStatus,
			Questions:  questions,
		}
	default:
		questions := rec.Questions
		if len(questions) == 0 {
			questions = []string{replyDescribeFunction}
		}
		return &TurnReply{
			Reply:      strings.Join(questions, " "),
			SpecStatus: models.SpecNeedsRules,
			Questions:  questions,
		}
	}
}

// StartGeneration begins a code-generation attempt: extract the
// specification, route its flowchart, and request proposed tests. Any prior
// pending proposal or in-flight call is discarded first.
func (s *Service) StartGeneration(ctx context.Context, sess *session.Session) (*session.TestProposal, error) {
	genCtx, attempt, err := sess.BeginProposal(ctx)
	if err != nil {
		return nil, err
	}
	genCtx, cancel := context.WithTimeout(genCtx, s.generateTimeout)
	defer cancel()

	requirements, err := s.extractor.Extract(sess.PendingIntent(), sess.Conversation())
	if err != nil {
		sess.FailProposal(attempt)
		if errors.Is(err, extractor.ErrNoIntent) {
			// Extraction ambiguity: keep the conversation going rather than
			// failing the request.
			sess.AppendTurn(models.RoleAssistant, PromptWhatFunction)
			return nil, fmt.Errorf("%w: %s", ErrNoFunction, PromptWhatFunction)
		}
		return nil, err
	}

	route := flowchart.Classify(requirements)
	sess.SetRoute(route)
	sess.Publish(models.NewSessionEvent(models.EventRouteDecided, map[string]interface{}{
		"function_name": requirements.Name,
		"route":         string(route),
	}))

	s.metrics.RecordGenerationStarted(ctx, requirements.Name)

	resp, err := s.codegen.ProposeTests(genCtx, requirements)
	if err != nil {
		sess.FailProposal(attempt)
		s.publishError(sess, err)
		return nil, s.serviceError(err)
	}
	if resp.FunctionName == "" || len(resp.ProposedTests) == 0 {
		sess.FailProposal(attempt)
		err := fmt.Errorf("%w: proposal missing function name or tests", ErrMalformedResult)
		s.publishError(sess, err)
		return nil, err
	}

	proposal := &session.TestProposal{
		ID:           uuid.New(),
		FunctionName: resp.FunctionName,
		Requirements: requirements,
		Tests:        resp.ProposedTests,
	}
	if err := sess.CompleteProposal(attempt, proposal); err != nil {
		// The attempt was cancelled or superseded while in flight.
		return nil, err
	}

	sess.Publish(models.NewSessionEvent(models.EventTestsProposed, map[string]interface{}{
		"proposal_id":   proposal.ID.String(),
		"function_name": proposal.FunctionName,
		"test_count":    len(proposal.Tests),
	}))

	return proposal, nil
}

// ApproveAndGenerate sends the approved tests with the exact specification
// the proposal was computed from, validates the response shape, and returns
// the result. The session ends Idle either way; retrying always requires a
// fresh proposal and re-approval.
func (s *Service) ApproveAndGenerate(ctx context.Context, sess *session.Session, proposalID uuid.UUID, approved []models.ApprovedTestCase) (*models.GenerateCodeResponse, error) {
	genCtx, attempt, proposal, finalTests, err := sess.BeginGeneration(ctx, proposalID, approved)
	if err != nil {
		return nil, err
	}
	genCtx, cancel := context.WithTimeout(genCtx, s.generateTimeout)
	defer cancel()

	sess.Publish(models.NewSessionEvent(models.EventGenerationStarted, map[string]interface{}{
		"proposal_id":    proposal.ID.String(),
		"function_name":  proposal.FunctionName,
		"approved_tests": len(finalTests),
	}))

	start := time.Now()
	resp, err := s.codegen.GenerateCode(genCtx, sess.ID.String(), []models.FunctionRequirements{proposal.Requirements}, finalTests)
	if err != nil {
		sess.FinishGeneration(attempt, nil)
		s.metrics.RecordGenerationFailed(ctx, proposal.FunctionName, "service_failure", time.Since(start))
		s.publishError(sess, err)
		return nil, s.serviceError(err)
	}

	if err := validateCodeResponse(resp); err != nil {
		sess.FinishGeneration(attempt, nil)
		s.metrics.RecordGenerationFailed(ctx, proposal.FunctionName, "malformed_response", time.Since(start))
		s.publishError(sess, err)
		return nil, err
	}

	sess.FinishGeneration(attempt, &resp.Results[0])
	s.metrics.RecordGenerationCompleted(ctx, proposal.FunctionName, time.Since(start))
	sess.Publish(models.NewSessionEvent(models.EventCodeGenerated, map[string]interface{}{
		"function_name": resp.Results[0].FunctionName,
		"test_summary":  resp.Results[0].Tests.Summary,
	}))

	return resp, nil
}

// Cancel discards the pending proposal and returns the session to Idle.
func (s *Service) Cancel(sess *session.Session) {
	sess.CancelPending()
}

// validateCodeResponse enforces the response shape: at least one result, a
// non-empty function body, at least one test result, and complexity fields
// present. A corrupted result is rejected whole.
func validateCodeResponse(resp *models.GenerateCodeResponse) error {
	if resp == nil || len(resp.Results) == 0 {
		return fmt.Errorf("%w: no results", ErrMalformedResult)
	}
	for i, r := range resp.Results {
		if strings.TrimSpace(r.Function) == "" {
			return fmt.Errorf("%w: result %d has empty function body", ErrMalformedResult, i)
		}
		if len(r.Tests.Results) == 0 {
			return fmt.Errorf("%w: result %d has no test results", ErrMalformedResult, i)
		}
		if r.Complexity.Time == "" || r.Complexity.Space == "" {
			return fmt.Errorf("%w: result %d missing complexity fields", ErrMalformedResult, i)
		}
	}
	return nil
}

// serviceError maps a transport failure to a user-presentable pipeline error.
// A timeout reads as "taking longer than expected"; state-wise it is the same
// as any other failure.
func (s *Service) serviceError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ErrServiceFailure, replyTakingLong)
	}
	return fmt.Errorf("%w: %v", ErrServiceFailure, err)
}

func (s *Service) publishError(sess *session.Session, err error) {
	sess.Publish(models.NewSessionEvent(models.EventPipelineError, map[string]interface{}{
		"error": err.Error(),
	}))
}
