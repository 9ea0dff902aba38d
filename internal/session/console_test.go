package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/capitalize-ai/hotel-ops-console/internal/events"
	"github.com/capitalize-ai/hotel-ops-console/internal/gateway"
	"github.com/capitalize-ai/hotel-ops-console/internal/model"
)

// fakeSender answers from a fixed reply or the fallback policy.
type fakeSender struct {
	mu       sync.Mutex
	reply    string
	fail     bool
	escalate bool
	calls    []string
	block    chan struct{}
}

func (f *fakeSender) Send(ctx context.Context, channel model.Channel, message string) gateway.Result {
	f.mu.Lock()
	f.calls = append(f.calls, message)
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if f.fail {
		return gateway.Result{Response: gateway.FallbackMessage(channel), Fallback: true, Cause: errors.New("backend down")}
	}
	return gateway.Result{Response: f.reply, Context: gateway.ContextTag(channel), EscalationNeeded: f.escalate}
}

func (f *fakeSender) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type stepClock struct {
	now time.Time
}

func (s *stepClock) Now() time.Time {
	s.now = s.now.Add(15 * time.Second)
	return s.now
}

func newConsole(sender Sender, pub events.Publisher) *Console {
	clock := &stepClock{now: time.Date(2024, 1, 15, 15, 20, 0, 0, time.UTC)}
	return NewConsole(sender, Options{
		Channel:    model.ChannelCallCenter,
		OperatorID: "op-1",
		Clock:      clock.Now,
		Publisher:  pub,
	})
}

func activeCount(s Snapshot) int {
	n := 0
	if s.Active != nil && s.Active.Status == model.CallInProgress {
		n++
	}
	for _, rec := range s.History {
		if rec.Status == model.CallInProgress {
			n++
		}
	}
	return n
}

func TestStartIsSingleActive(t *testing.T) {
	c := newConsole(&fakeSender{reply: "ok"}, nil)
	ctx := context.Background()

	first, err := c.Start(ctx, StartRequest{CustomerName: "David Chen"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Status != model.CallInProgress {
		t.Errorf("expected in-progress, got %s", first.Status)
	}
	if activeCount(c.Snapshot()) != 1 {
		t.Fatalf("expected one active session")
	}

	if _, err := c.Start(ctx, StartRequest{}); !errors.Is(err, ErrAlreadyActive) {
		t.Errorf("expected ErrAlreadyActive, got %v", err)
	}

	snap := c.Snapshot()
	if activeCount(snap) != 1 {
		t.Errorf("expected active count to stay at one, got %d", activeCount(snap))
	}
	if snap.Active.ID != first.ID {
		t.Error("expected the original session to stay active")
	}
}

func TestSubmitAppendsTwoMessagesPerExchange(t *testing.T) {
	sender := &fakeSender{reply: "Certainly"}
	c := newConsole(sender, nil)
	ctx := context.Background()
	c.Start(ctx, StartRequest{})

	inputs := []string{"first", "second", "third"}
	for _, in := range inputs {
		if _, err := c.Submit(ctx, in); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	msgs := c.Snapshot().Transcript
	if len(msgs) != 2*len(inputs) {
		t.Fatalf("expected %d messages, got %d", 2*len(inputs), len(msgs))
	}
	for i, in := range inputs {
		cust, asst := msgs[2*i], msgs[2*i+1]
		if cust.Role != model.RoleCustomer || cust.Content != in {
			t.Errorf("message %d: expected customer %q, got %s %q", 2*i, in, cust.Role, cust.Content)
		}
		if asst.Role != model.RoleAssistant || asst.Content != "Certainly" {
			t.Errorf("message %d: expected assistant reply, got %s %q", 2*i+1, asst.Role, asst.Content)
		}
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i].Sequence <= msgs[i-1].Sequence {
			t.Errorf("sequence not increasing at %d", i)
		}
		if msgs[i].Timestamp.Before(msgs[i-1].Timestamp) {
			t.Errorf("timestamp went backwards at %d", i)
		}
	}
}

func TestSubmitIgnoresBlankText(t *testing.T) {
	sender := &fakeSender{reply: "ok"}
	c := newConsole(sender, nil)
	ctx := context.Background()
	c.Start(ctx, StartRequest{})

	ex, err := c.Submit(ctx, "   \n\t")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ex.Ignored {
		t.Error("expected exchange to be ignored")
	}
	if sender.callCount() != 0 {
		t.Errorf("expected no backend request, got %d", sender.callCount())
	}
	if len(c.Snapshot().Transcript) != 0 {
		t.Error("expected empty transcript")
	}
}

func TestSubmitWithoutSession(t *testing.T) {
	sender := &fakeSender{reply: "ok"}
	c := newConsole(sender, nil)

	if _, err := c.Submit(context.Background(), "hello"); !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("expected ErrNoActiveSession, got %v", err)
	}
	if sender.callCount() != 0 {
		t.Error("expected no backend request")
	}
}

func TestRoomServiceCallLifecycle(t *testing.T) {
	pub := &events.Recorder{}
	c := newConsole(&fakeSender{reply: "Here is the menu"}, pub)
	ctx := context.Background()

	if _, err := c.Start(ctx, StartRequest{CustomerName: "John Smith", PhoneNumber: "+1-555-0123"}); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := c.Submit(ctx, "room service?"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if got := c.Snapshot().LatestResponse; got != "Here is the menu" {
		t.Errorf("expected latest response, got %q", got)
	}

	rating := 5.0
	rec, ended, err := c.End(ctx, &rating)
	if err != nil || !ended {
		t.Fatalf("end failed: ended=%v err=%v", ended, err)
	}

	snap := c.Snapshot()
	if snap.Active != nil {
		t.Error("expected no active session after end")
	}
	if len(snap.History) != 1 || snap.History[0].ID != rec.ID {
		t.Fatalf("expected record at history index 0, got %+v", snap.History)
	}

	h := snap.History[0]
	if h.Status != model.CallCompleted {
		t.Errorf("expected completed, got %s", h.Status)
	}
	if !strings.Contains(h.Transcript, "room service?") || !strings.Contains(h.Transcript, "Here is the menu") {
		t.Errorf("transcript missing lines: %q", h.Transcript)
	}
	if h.Satisfaction != 5 {
		t.Errorf("expected satisfaction 5, got %v", h.Satisfaction)
	}
	if !h.AIHandled {
		t.Error("expected AI handled call")
	}
	if h.DurationSeconds <= 0 {
		t.Errorf("expected positive duration, got %v", h.DurationSeconds)
	}
	if want := model.FormatDuration(time.Duration(h.DurationSeconds * float64(time.Second))); h.Duration != want {
		t.Errorf("expected duration %s, got %s", want, h.Duration)
	}

	types := pub.Types()
	if len(types) != 2 || types[0] != model.EventSessionStarted || types[1] != model.EventSessionEnded {
		t.Errorf("unexpected events %v", types)
	}
}

func TestEndWithoutSessionIsNoop(t *testing.T) {
	c := newConsole(&fakeSender{}, nil)

	_, ended, err := c.End(context.Background(), nil)
	if err != nil || ended {
		t.Errorf("expected no-op, got ended=%v err=%v", ended, err)
	}
	if len(c.History()) != 0 {
		t.Error("expected empty history")
	}
}

func TestEndRejectsInvalidSatisfaction(t *testing.T) {
	c := newConsole(&fakeSender{}, nil)
	ctx := context.Background()
	c.Start(ctx, StartRequest{})

	bad := 7.0
	if _, _, err := c.End(ctx, &bad); !errors.Is(err, ErrInvalidSatisfaction) {
		t.Errorf("expected ErrInvalidSatisfaction, got %v", err)
	}
	if c.Snapshot().Active == nil {
		t.Error("expected session to stay active after rejected end")
	}
}

func TestFallbackEscalatesCall(t *testing.T) {
	c := newConsole(&fakeSender{fail: true}, nil)
	ctx := context.Background()
	c.Start(ctx, StartRequest{})

	ex, err := c.Submit(ctx, "my key card is broken")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ex.Fallback || !ex.Escalated {
		t.Errorf("expected escalated fallback exchange, got %+v", ex)
	}
	if ex.Assistant.Content != gateway.CallCenterFallbackMessage {
		t.Errorf("expected escalation message, got %q", ex.Assistant.Content)
	}

	rec, _, _ := c.End(ctx, nil)
	if rec.AIHandled {
		t.Error("expected call to be marked human handled")
	}
}

func TestBackendEscalationFlag(t *testing.T) {
	c := newConsole(&fakeSender{reply: "Connecting you to the manager", escalate: true}, nil)
	ctx := context.Background()
	c.Start(ctx, StartRequest{})
	c.Submit(ctx, "this is unacceptable")

	rec, _, _ := c.End(ctx, nil)
	if rec.AIHandled {
		t.Error("expected escalated call to be human handled")
	}
}

func TestStartClearsLatestResponse(t *testing.T) {
	c := newConsole(&fakeSender{reply: "hello"}, nil)
	ctx := context.Background()

	c.Start(ctx, StartRequest{})
	c.Submit(ctx, "hi")
	c.End(ctx, nil)
	if c.Snapshot().LatestResponse == "" {
		t.Fatal("expected latest response to survive end")
	}

	c.Start(ctx, StartRequest{})
	if got := c.Snapshot().LatestResponse; got != "" {
		t.Errorf("expected stale response cleared, got %q", got)
	}
}

func TestHistoryIsMostRecentFirst(t *testing.T) {
	c := newConsole(&fakeSender{reply: "ok"}, nil)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		rec, _ := c.Start(ctx, StartRequest{})
		ids = append(ids, rec.ID)
		c.End(ctx, nil)
	}

	hist := c.History()
	for i := range ids {
		if hist[i].ID != ids[len(ids)-1-i] {
			t.Errorf("history[%d] = %s, expected %s", i, hist[i].ID, ids[len(ids)-1-i])
		}
	}
}

func TestEndDuringExchangeDiscardsAnswer(t *testing.T) {
	sender := &fakeSender{reply: "late", block: make(chan struct{})}
	c := newConsole(sender, nil)
	ctx := context.Background()
	c.Start(ctx, StartRequest{})

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(ctx, "hello?")
		done <- err
	}()

	for sender.callCount() == 0 {
		time.Sleep(time.Millisecond)
	}
	rec, ended, _ := c.End(ctx, nil)
	close(sender.block)

	if err := <-done; !errors.Is(err, ErrSessionEnded) {
		t.Errorf("expected ErrSessionEnded, got %v", err)
	}
	if !ended || len(rec.Messages) != 0 {
		t.Errorf("expected ended record without messages, got %+v", rec)
	}
	if len(c.History()[0].Messages) != 0 {
		t.Error("expected history record to stay unchanged")
	}
}

func TestSeededHistory(t *testing.T) {
	seed := []model.CallRecord{
		{ID: "3", CustomerName: "David Chen", Status: model.CallInProgress, AIHandled: true},
		{ID: "1", CustomerName: "John Smith", Status: model.CallCompleted, AIHandled: true, Satisfaction: 5},
		{ID: "2", CustomerName: "Maria Garcia", Status: model.CallCompleted, AIHandled: false, Satisfaction: 4},
	}
	c := NewConsole(&fakeSender{}, Options{History: seed})

	snap := c.Snapshot()
	if snap.History[0].Status != model.CallQueued {
		t.Errorf("expected seeded in-progress record to become queued, got %s", snap.History[0].Status)
	}
	if activeCount(snap) != 0 {
		t.Error("expected no active session from seed data")
	}
	if snap.Stats.TotalSessions != 3 || snap.Stats.AIHandled != 2 {
		t.Errorf("unexpected stats %+v", snap.Stats)
	}
	if snap.Stats.AvgSatisfaction != 4.5 {
		t.Errorf("expected avg satisfaction 4.5, got %v", snap.Stats.AvgSatisfaction)
	}

	seed[1].CustomerName = "changed"
	if c.History()[1].CustomerName != "John Smith" {
		t.Error("expected console to own a copy of the seed")
	}
}

func TestChatStats(t *testing.T) {
	c := NewConsole(&fakeSender{reply: "Churn is 23.4%"}, Options{Channel: model.ChannelChat, Greeting: "Hello!"})
	ctx := context.Background()
	c.Start(ctx, StartRequest{})
	c.Submit(ctx, "Show customer churn analysis")

	snap := c.Snapshot()
	if snap.Greeting != "Hello!" {
		t.Errorf("expected greeting, got %q", snap.Greeting)
	}
	if snap.Stats.TotalMessages != 2 || snap.Stats.AIResponses != 1 {
		t.Errorf("unexpected chat stats %+v", snap.Stats)
	}
	if snap.Transcript[1].Context != gateway.ContextHotelOperations {
		t.Errorf("expected chat context tag, got %q", snap.Transcript[1].Context)
	}
}
