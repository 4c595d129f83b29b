package orchestration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/babyccino/pipeline-orchestrator/internal/models"
)

// CodegenClientInterface defines the narrow contract to the code-generation/
// test-execution service. Test execution happens inside that service; this
// client only shapes requests and decodes responses.
type CodegenClientInterface interface {
	ProposeTests(ctx context.Context, requirements models.FunctionRequirements) (*models.GenerateTestsResponse, error)
	GenerateCode(ctx context.Context, conversationID string, requirements []models.FunctionRequirements, approved []models.ApprovedTestCase) (*models.GenerateCodeResponse, error)
	Health(ctx context.Context) (*models.HealthResponse, error)
	IsHealthy(ctx context.Context) bool
}

// CodegenClient is the HTTP implementation of CodegenClientInterface.
type CodegenClient struct {
	baseURL    string
	httpClient *http.Client
	tracer     trace.Tracer
	breaker    *gobreaker.CircuitBreaker
	logger     *zap.Logger
}

// NewCodegenClient creates a client for the code-generation service.
func NewCodegenClient(baseURL string, timeout time.Duration, logger *zap.Logger) *CodegenClient {
	log := logger.Named("codegen-client")

	settings := gobreaker.Settings{
		Name:        "codegen-service",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &CodegenClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		tracer:  otel.Tracer("codegen-client"),
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  log,
	}
}

// SetBaseURL overrides the service URL for testing purposes.
func (c *CodegenClient) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// ProposeTests requests a proposed test set for the given specification.
func (c *CodegenClient) ProposeTests(ctx context.Context, requirements models.FunctionRequirements) (*models.GenerateTestsResponse, error) {
	ctx, span := c.tracer.Start(ctx, "codegen.propose_tests")
	defer span.End()

	span.SetAttributes(attribute.String("function_name", requirements.Name))

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.proposeTestsInternal(ctx, requirements)
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to propose tests: %w", err)
	}

	resp := result.(*models.GenerateTestsResponse)
	span.SetAttributes(attribute.Int("proposed_count", len(resp.ProposedTests)))
	return resp, nil
}

func (c *CodegenClient) proposeTestsInternal(ctx context.Context, requirements models.FunctionRequirements) (*models.GenerateTestsResponse, error) {
	body := models.GenerateTestsRequest{Requirements: requirements}

	var resp models.GenerateTestsResponse
	if err := c.postJSON(ctx, "/generate-tests", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GenerateCode submits the specification and approved tests for generation
// and execution. The service generates code targeted at exactly the approved
// tests, runs them sandboxed, and returns per-test results plus a complexity
// estimate.
func (c *CodegenClient) GenerateCode(ctx context.Context, conversationID string, requirements []models.FunctionRequirements, approved []models.ApprovedTestCase) (*models.GenerateCodeResponse, error) {
	ctx, span := c.tracer.Start(ctx, "codegen.generate_code")
	defer span.End()

	span.SetAttributes(
		attribute.String("conversation_id", conversationID),
		attribute.Int("approved_tests", len(approved)),
	)

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.generateCodeInternal(ctx, conversationID, requirements, approved)
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to generate code: %w", err)
	}

	return result.(*models.GenerateCodeResponse), nil
}

func (c *CodegenClient) generateCodeInternal(ctx context.Context, conversationID string, requirements []models.FunctionRequirements, approved []models.ApprovedTestCase) (*models.GenerateCodeResponse, error) {
	var convID *string
	if conversationID != "" {
		convID = &conversationID
	}

	body := models.GenerateCodeRequest{
		ConversationID: convID,
		Requirements:   requirements,
		ApprovedTests:  approved,
	}

	var resp models.GenerateCodeResponse
	if err := c.postJSON(ctx, "/generate-code", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health fetches the service's health report.
func (c *CodegenClient) Health(ctx context.Context) (*models.HealthResponse, error) {
	ctx, span := c.tracer.Start(ctx, "codegen.health")
	defer span.End()

	httpReq, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(httpReq)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to reach codegen service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("codegen service returned status %d", resp.StatusCode)
	}

	var health models.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, fmt.Errorf("failed to decode health response: %w", err)
	}
	return &health, nil
}

// IsHealthy reports service availability, using the circuit breaker's state
// as a fast negative.
func (c *CodegenClient) IsHealthy(ctx context.Context) bool {
	if c.breaker.State() == gobreaker.StateOpen {
		return false
	}
	_, err := c.Health(ctx)
	return err == nil
}

func (c *CodegenClient) postJSON(ctx context.Context, path string, body interface{}, out interface{}) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("codegen service returned status %d (failed to read body: %w)", resp.StatusCode, readErr)
		}
		return fmt.Errorf("codegen service returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
