// Package gateway is the single entry point to the remote AI service. Every
// call resolves to a Result; backend failures are replaced by the fallback
// policy in fallback.go and never returned to the caller.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/capitalize-ai/hotel-ops-console/internal/model"
	"github.com/capitalize-ai/hotel-ops-console/pkg/logger"
	"github.com/capitalize-ai/hotel-ops-console/pkg/metrics"
)

// Wire context tags sent with each request.
const (
	ContextHotelOperations = "hotel_operations"
	ContextCustomerService = "hotel_customer_service"
	ContextComputerVision  = "computer_vision"
)

// ContextTag returns the wire context for a channel.
func ContextTag(ch model.Channel) string {
	switch ch {
	case model.ChannelCallCenter:
		return ContextCustomerService
	case model.ChannelVision:
		return ContextComputerVision
	default:
		return ContextHotelOperations
	}
}

var (
	// ErrUnsupported is returned by backends lacking a capability.
	ErrUnsupported = errors.New("operation not supported by backend")
	// ErrEmptyResponse is returned when the backend answered with no text.
	ErrEmptyResponse = errors.New("backend returned an empty response")
)

// StatusError is a non-2xx answer from the backend.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Body)
}

// MessageRequest is the body of a chat or call-center request.
type MessageRequest struct {
	Message string `json:"message"`
	Context string `json:"context"`
}

// MessageResponse is the backend answer to a MessageRequest. The call-center
// endpoint adds confidence, escalation and suggested actions.
type MessageResponse struct {
	Response         string   `json:"response"`
	Context          string   `json:"context,omitempty"`
	Confidence       *float64 `json:"confidence,omitempty"`
	EscalationNeeded bool     `json:"escalation_needed,omitempty"`
	SuggestedActions []string `json:"suggested_actions,omitempty"`
}

// Image is an uploaded image payload.
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Backend performs the actual remote calls.
type Backend interface {
	Name() string
	Message(ctx context.Context, channel model.Channel, req MessageRequest) (*MessageResponse, error)
	Analyze(ctx context.Context, img Image) (*AnalyzeResponse, error)
}

// Result is the outcome of Send. When Fallback is set, Response holds the
// policy message and Cause the recovered failure.
type Result struct {
	Response         string
	Context          string
	Confidence       float64
	EscalationNeeded bool
	SuggestedActions []string
	Latency          time.Duration

	Fallback bool
	Cause    error
}

// VisionResult is the outcome of Analyze.
type VisionResult struct {
	Detections     []Detection
	ProcessingTime float64
	Latency        time.Duration

	Fallback bool
	Cause    error
}

// Client applies timeouts, tracing and the fallback policy around a Backend.
type Client struct {
	backend Backend
	timeout time.Duration
	logger  *logger.Logger
	tracer  trace.Tracer
	onFall  func(channel model.Channel, cause error)
}

// Option configures a Client.
type Option func(*Client)

// WithFallbackHook registers a function called after each fallback.
func WithFallbackHook(fn func(channel model.Channel, cause error)) Option {
	return func(c *Client) {
		c.onFall = fn
	}
}

// New creates a gateway client.
func New(backend Backend, timeout time.Duration, log *logger.Logger, opts ...Option) *Client {
	if log == nil {
		log = logger.NewNop()
	}
	c := &Client{
		backend: backend,
		timeout: timeout,
		logger:  log.Named("gateway"),
		tracer:  otel.Tracer("github.com/capitalize-ai/hotel-ops-console/internal/gateway"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send forwards an operator message for a chat or call-center channel.
// The request is detached from ctx cancellation and bounded by the client
// timeout, so it always resolves to a backend or fallback answer.
func (c *Client) Send(ctx context.Context, channel model.Channel, message string) Result {
	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, "gateway.Send", trace.WithAttributes(
		attribute.String("ai.channel", string(channel)),
		attribute.String("ai.backend", c.backend.Name()),
	))
	defer span.End()

	start := time.Now()
	tag := ContextTag(channel)

	var resp *MessageResponse
	var err error
	if channel == model.ChannelVision {
		err = fmt.Errorf("%w: text messages on the vision channel", ErrUnsupported)
	} else {
		resp, err = c.backend.Message(ctx, channel, MessageRequest{Message: message, Context: tag})
		if err == nil && (resp == nil || strings.TrimSpace(resp.Response) == "") {
			err = ErrEmptyResponse
		}
	}
	latency := time.Since(start)

	if err != nil {
		c.recordFailure(span, channel, err, latency)
		return Result{
			Response: FallbackMessage(channel),
			Context:  tag,
			Latency:  latency,
			Fallback: true,
			Cause:    err,
		}
	}

	metrics.RecordGateway(string(channel), "success", latency.Seconds())

	result := Result{
		Response:         resp.Response,
		Context:          resp.Context,
		EscalationNeeded: resp.EscalationNeeded,
		SuggestedActions: resp.SuggestedActions,
		Latency:          latency,
	}
	if result.Context == "" {
		result.Context = tag
	}
	if resp.Confidence != nil {
		result.Confidence = *resp.Confidence
	}
	return result
}

// Analyze submits an image for vision analysis.
func (c *Client) Analyze(ctx context.Context, img Image) VisionResult {
	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, "gateway.Analyze", trace.WithAttributes(
		attribute.String("ai.channel", string(model.ChannelVision)),
		attribute.String("ai.backend", c.backend.Name()),
		attribute.Int("image.bytes", len(img.Data)),
	))
	defer span.End()

	start := time.Now()
	resp, err := c.backend.Analyze(ctx, img)
	if err == nil && resp == nil {
		err = ErrEmptyResponse
	}
	latency := time.Since(start)

	if err != nil {
		c.recordFailure(span, model.ChannelVision, err, latency)
		fb := FallbackAnalysis()
		return VisionResult{
			Detections:     fb.Results,
			ProcessingTime: fb.Seconds(),
			Latency:        latency,
			Fallback:       true,
			Cause:          err,
		}
	}

	metrics.RecordGateway(string(model.ChannelVision), "success", latency.Seconds())

	seconds := resp.Seconds()
	if seconds <= 0 {
		seconds = latency.Seconds()
	}
	return VisionResult{
		Detections:     resp.Results,
		ProcessingTime: seconds,
		Latency:        latency,
	}
}

func (c *Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}

func (c *Client) recordFailure(span trace.Span, channel model.Channel, err error, latency time.Duration) {
	reason := failureReason(err)

	span.RecordError(err)
	span.SetStatus(codes.Error, reason)

	metrics.RecordGateway(string(channel), "fallback", latency.Seconds())
	metrics.RecordFallback(string(channel), reason)

	c.logger.Warn("AI backend failed, using fallback",
		zap.String("channel", string(channel)),
		zap.String("reason", reason),
		zap.Duration("latency", latency),
		zap.Error(err),
	)

	if c.onFall != nil {
		c.onFall(channel, err)
	}
}

func failureReason(err error) string {
	var statusErr *StatusError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &statusErr):
		return "status"
	case errors.Is(err, ErrUnsupported):
		return "unsupported"
	case errors.Is(err, ErrEmptyResponse):
		return "empty_response"
	case errors.Is(err, errDecode):
		return "decode"
	default:
		return "transport"
	}
}
