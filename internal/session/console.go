// Package session implements the chat and call-center session lifecycle:
// NoActiveSession -> InProgress -> Completed.
package session

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/capitalize-ai/hotel-ops-console/internal/events"
	"github.com/capitalize-ai/hotel-ops-console/internal/gateway"
	"github.com/capitalize-ai/hotel-ops-console/internal/model"
	"github.com/capitalize-ai/hotel-ops-console/internal/transcript"
	"github.com/capitalize-ai/hotel-ops-console/pkg/logger"
	"github.com/capitalize-ai/hotel-ops-console/pkg/metrics"
)

var (
	// ErrAlreadyActive is returned by Start while a session is in progress.
	ErrAlreadyActive = errors.New("a session is already in progress")
	// ErrNoActiveSession is returned by Submit when nothing is in progress.
	ErrNoActiveSession = errors.New("no session in progress")
	// ErrSessionEnded is returned when the session ended while its exchange
	// was waiting on the AI backend. The answer is discarded.
	ErrSessionEnded = errors.New("session ended before the AI backend answered")
	// ErrInvalidSatisfaction is returned by End for ratings outside 0-5.
	ErrInvalidSatisfaction = errors.New("satisfaction must be between 0 and 5")
)

// Sender is the gateway operation a console needs.
type Sender interface {
	Send(ctx context.Context, channel model.Channel, message string) gateway.Result
}

// Options configures a Console.
type Options struct {
	Channel    model.Channel
	OperatorID string
	Greeting   string
	// History seeds the completed-session list, most recent first.
	History   []model.CallRecord
	Clock     func() time.Time
	Publisher events.Publisher
	Logger    *logger.Logger
}

// StartRequest describes who the new session is with.
type StartRequest struct {
	CustomerName string `json:"customerName"`
	PhoneNumber  string `json:"phoneNumber"`
}

// Exchange is the outcome of one Submit.
type Exchange struct {
	Ignored   bool                     `json:"ignored"`
	Customer  model.InteractionMessage `json:"customer"`
	Assistant model.InteractionMessage `json:"assistant"`
	Fallback  bool                     `json:"fallback"`
	Escalated bool                     `json:"escalated"`
	Actions   []string                 `json:"suggestedActions,omitempty"`
}

// Snapshot is an immutable view of a console.
type Snapshot struct {
	Channel        model.Channel              `json:"channel"`
	Greeting       string                     `json:"greeting,omitempty"`
	Active         *model.CallRecord          `json:"active"`
	Transcript     []model.InteractionMessage `json:"transcript"`
	LatestResponse string                     `json:"latestResponse"`
	History        []model.CallRecord         `json:"history"`
	Stats          model.SessionStats         `json:"stats"`
}

type activeSession struct {
	record     model.CallRecord
	transcript *transcript.Transcript
	escalated  bool
}

// Console owns the single active session of one channel for one operator,
// plus the history of completed sessions.
type Console struct {
	channel    model.Channel
	operatorID string
	greeting   string
	gateway    Sender
	clock      func() time.Time
	publisher  events.Publisher
	logger     *logger.Logger

	// exchangeMu serializes Submit calls so transcript order is call order.
	exchangeMu sync.Mutex

	mu      sync.RWMutex
	active  *activeSession
	latest  string
	history []model.CallRecord
}

// NewConsole creates a console in the NoActiveSession state.
func NewConsole(sender Sender, opts Options) *Console {
	if opts.Channel == "" {
		opts.Channel = model.ChannelCallCenter
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Publisher == nil {
		opts.Publisher = events.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}

	history := make([]model.CallRecord, 0, len(opts.History))
	for _, rec := range opts.History {
		rec = rec.Clone()
		if rec.Status == model.CallInProgress {
			rec.Status = model.CallQueued
		}
		if rec.Channel == "" {
			rec.Channel = opts.Channel
		}
		history = append(history, rec)
	}

	return &Console{
		channel:    opts.Channel,
		operatorID: opts.OperatorID,
		greeting:   opts.Greeting,
		gateway:    sender,
		clock:      opts.Clock,
		publisher:  opts.Publisher,
		logger: opts.Logger.Named("session").With(
			zap.String("channel", string(opts.Channel)),
			zap.String("operator_id", opts.OperatorID),
		),
		history: history,
	}
}

// Channel returns the console's channel.
func (c *Console) Channel() model.Channel {
	return c.channel
}

// Start opens a new in-progress session and clears the previous response.
func (c *Console) Start(ctx context.Context, req StartRequest) (model.CallRecord, error) {
	c.mu.Lock()
	if c.active != nil {
		current := c.active.record.ID
		c.mu.Unlock()
		c.logger.Info("start rejected, session already active", zap.String("session_id", current))
		return model.CallRecord{}, ErrAlreadyActive
	}

	name := strings.TrimSpace(req.CustomerName)
	if name == "" {
		name = "New Customer"
	}

	id := uuid.Must(uuid.NewV7()).String()
	rec := model.CallRecord{
		ID:           id,
		Channel:      c.channel,
		CustomerName: name,
		PhoneNumber:  strings.TrimSpace(req.PhoneNumber),
		Status:       model.CallInProgress,
		AIHandled:    true,
		StartedAt:    c.clock(),
		Duration:     model.FormatDuration(0),
	}
	c.active = &activeSession{
		record:     rec,
		transcript: transcript.New(id, c.clock),
	}
	c.latest = ""
	c.mu.Unlock()

	metrics.SessionsActive.WithLabelValues(string(c.channel)).Inc()
	c.logger.Info("session started", zap.String("session_id", id))
	c.publish(ctx, model.EventSessionStarted, id, nil)

	return rec.Clone(), nil
}

// Submit forwards text to the AI backend and appends the customer and
// assistant messages. Blank text is ignored without a request.
func (c *Console) Submit(ctx context.Context, text string) (Exchange, error) {
	c.exchangeMu.Lock()
	defer c.exchangeMu.Unlock()

	c.mu.RLock()
	active := c.active
	var sessionID string
	if active != nil {
		sessionID = active.record.ID
	}
	c.mu.RUnlock()

	if active == nil {
		return Exchange{}, ErrNoActiveSession
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return Exchange{Ignored: true}, nil
	}

	result := c.gateway.Send(ctx, c.channel, text)

	c.mu.Lock()
	if c.active == nil || c.active.record.ID != sessionID {
		c.mu.Unlock()
		c.logger.Warn("discarding AI answer for ended session", zap.String("session_id", sessionID))
		return Exchange{}, ErrSessionEnded
	}

	tr := c.active.transcript
	customer := tr.Append(model.RoleCustomer, text, "")
	assistant := tr.Append(model.RoleAssistant, result.Response, result.Context)

	escalated := result.EscalationNeeded || (result.Fallback && c.channel == model.ChannelCallCenter)
	if escalated {
		c.active.escalated = true
	}
	c.latest = result.Response
	c.mu.Unlock()

	metrics.MessagesTotal.WithLabelValues(string(c.channel), string(model.RoleCustomer)).Inc()
	metrics.MessagesTotal.WithLabelValues(string(c.channel), string(model.RoleAssistant)).Inc()

	if result.Fallback {
		c.publish(ctx, model.EventGatewayFallback, sessionID, map[string]any{"cause": errorString(result.Cause)})
	}

	return Exchange{
		Customer:  customer,
		Assistant: assistant,
		Fallback:  result.Fallback,
		Escalated: escalated,
		Actions:   result.SuggestedActions,
	}, nil
}

// End completes the active session and prepends it to history. A nil
// satisfaction leaves the rating at 0. With no active session End is a
// no-op and reports false.
func (c *Console) End(ctx context.Context, satisfaction *float64) (model.CallRecord, bool, error) {
	rating := 0.0
	if satisfaction != nil {
		rating = *satisfaction
		if rating < 0 || rating > 5 || rating != rating {
			return model.CallRecord{}, false, ErrInvalidSatisfaction
		}
	}

	c.mu.Lock()
	if c.active == nil {
		c.mu.Unlock()
		return model.CallRecord{}, false, nil
	}

	active := c.active
	now := c.clock()
	elapsed := now.Sub(active.record.StartedAt)
	if elapsed < 0 {
		elapsed = 0
	}

	rec := active.record
	rec.Status = model.CallCompleted
	rec.AIHandled = !active.escalated
	rec.Satisfaction = rating
	rec.Messages = active.transcript.Messages()
	rec.Transcript = active.transcript.Render()
	rec.EndedAt = &now
	rec.Duration = model.FormatDuration(elapsed)
	rec.DurationSeconds = elapsed.Seconds()

	c.history = append([]model.CallRecord{rec}, c.history...)
	c.active = nil
	c.mu.Unlock()

	metrics.SessionsActive.WithLabelValues(string(c.channel)).Dec()
	metrics.SessionsCompletedTotal.WithLabelValues(string(c.channel), strconv.FormatBool(rec.AIHandled)).Inc()
	c.logger.Info("session ended",
		zap.String("session_id", rec.ID),
		zap.Int("messages", len(rec.Messages)),
		zap.Bool("ai_handled", rec.AIHandled),
		zap.Duration("duration", elapsed),
	)
	c.publish(ctx, model.EventSessionEnded, rec.ID, map[string]any{
		"ai_handled":   rec.AIHandled,
		"satisfaction": rec.Satisfaction,
		"duration":     rec.Duration,
	})

	return rec.Clone(), true, nil
}

// Snapshot returns a consistent copy of the console state.
func (c *Console) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{
		Channel:        c.channel,
		Greeting:       c.greeting,
		Transcript:     []model.InteractionMessage{},
		LatestResponse: c.latest,
		History:        make([]model.CallRecord, len(c.history)),
	}
	for i, rec := range c.history {
		snap.History[i] = rec.Clone()
	}

	if c.active != nil {
		rec := c.active.record
		rec.Messages = c.active.transcript.Messages()
		rec.Transcript = c.active.transcript.Render()
		elapsed := c.clock().Sub(rec.StartedAt)
		rec.Duration = model.FormatDuration(elapsed)
		rec.DurationSeconds = elapsed.Seconds()
		snap.Active = &rec
		snap.Transcript = rec.Messages
	}

	snap.Stats = computeStats(snap.History, snap.Transcript)
	return snap
}

// History returns completed sessions, most recent first.
func (c *Console) History() []model.CallRecord {
	return c.Snapshot().History
}

func computeStats(history []model.CallRecord, live []model.InteractionMessage) model.SessionStats {
	stats := model.SessionStats{TotalSessions: len(history)}

	var rated int
	var sum float64
	for _, rec := range history {
		if rec.AIHandled {
			stats.AIHandled++
		}
		if rec.Status == model.CallCompleted {
			rated++
			sum += rec.Satisfaction
		}
	}
	if rated > 0 {
		stats.AvgSatisfaction = model.RoundTenth(sum / float64(rated))
	}

	stats.TotalMessages = len(live)
	for _, m := range live {
		if m.Role == model.RoleAssistant {
			stats.AIResponses++
		}
	}
	return stats
}

func (c *Console) publish(ctx context.Context, typ model.EventType, subjectID string, meta map[string]any) {
	event := events.New(c.operatorID, typ, c.channel, subjectID)
	event.Metadata = meta
	if err := c.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		c.logger.Warn("failed to publish event", zap.String("type", string(typ)), zap.Error(err))
	}
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
