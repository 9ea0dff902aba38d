package transcript

import (
	"testing"
	"time"

	"github.com/capitalize-ai/hotel-ops-console/internal/model"
)

func TestAppendAssignsIncreasingSequence(t *testing.T) {
	tr := New("session-1", nil)

	first := tr.Append(model.RoleCustomer, "hello", "")
	second := tr.Append(model.RoleAssistant, "hi there", "hotel_operations")

	if first.Sequence != 1 || second.Sequence != 2 {
		t.Fatalf("expected sequences 1,2 got %d,%d", first.Sequence, second.Sequence)
	}
	if first.ID == second.ID {
		t.Error("expected unique message IDs")
	}
	if first.SessionID != "session-1" {
		t.Errorf("expected session-1, got %s", first.SessionID)
	}
	if second.Context != "hotel_operations" {
		t.Errorf("expected context tag, got %q", second.Context)
	}
}

func TestAppendClampsBackwardsClock(t *testing.T) {
	base := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)
	times := []time.Time{base, base.Add(-time.Minute), base.Add(time.Second)}
	i := 0
	clock := func() time.Time {
		now := times[i]
		i++
		return now
	}

	tr := New("s", clock)
	a := tr.Append(model.RoleCustomer, "a", "")
	b := tr.Append(model.RoleAssistant, "b", "")
	c := tr.Append(model.RoleCustomer, "c", "")

	if b.Timestamp.Before(a.Timestamp) {
		t.Errorf("timestamp went backwards: %s before %s", b.Timestamp, a.Timestamp)
	}
	if !c.Timestamp.Equal(base.Add(time.Second)) {
		t.Errorf("expected clock to advance again, got %s", c.Timestamp)
	}
}

func TestMessagesReturnsCopy(t *testing.T) {
	tr := New("s", nil)
	tr.Append(model.RoleCustomer, "original", "")

	msgs := tr.Messages()
	msgs[0].Content = "tampered"

	if tr.Messages()[0].Content != "original" {
		t.Error("expected transcript to be unaffected by caller mutation")
	}
}

func TestRender(t *testing.T) {
	tr := New("s", nil)
	if tr.Render() != "" {
		t.Errorf("expected empty render, got %q", tr.Render())
	}

	tr.Append(model.RoleCustomer, "room service?", "")
	tr.Append(model.RoleAssistant, "Here is the menu", "")

	want := "Customer: room service?\nAI: Here is the menu"
	if got := tr.Render(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if tr.Len() != 2 {
		t.Errorf("expected 2 messages, got %d", tr.Len())
	}
}
