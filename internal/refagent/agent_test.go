package refagent

import (
	"context"
	"testing"
	"time"

	"acp"
	"acp/internal/sessionstore"
)

func newTestAgent(t *testing.T) *Agent {
	t.Helper()
	store, err := sessionstore.NewStore(":memory:")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return New(store)
}

func TestNewSessionThenPromptRoundTrip(t *testing.T) {
	a := newTestAgent(t)
	ctx := context.Background()

	newResult, err := a.NewSession(ctx, acp.SessionNewParams{CWD: "/tmp/project"})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if newResult.SessionID == "" {
		t.Fatalf("expected a non-empty session id")
	}

	promptResult, err := a.Prompt(ctx, acp.SessionPromptParams{
		SessionID: newResult.SessionID,
		Prompt:    []acp.ContentBlock{{Type: acp.ContentTypeText, Text: "hello there"}},
	})
	if err != nil {
		t.Fatalf("Prompt: %v", err)
	}
	if promptResult.StopReason != acp.StopReasonEndTurn {
		t.Errorf("StopReason = %q, want %q", promptResult.StopReason, acp.StopReasonEndTurn)
	}

	rec, err := a.store.Get(newResult.SessionID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(rec.Messages) != 2 {
		t.Fatalf("len(Messages) = %d, want 2 (user + agent)", len(rec.Messages))
	}
	if len(rec.ToolCalls) != 1 || rec.ToolCalls[0].Status != acp.ToolStatusCompleted {
		t.Errorf("ToolCalls = %+v, want one completed tool call", rec.ToolCalls)
	}
}

func TestPromptRejectsConcurrentCallsOnSameSession(t *testing.T) {
	a := newTestAgent(t)
	ctx := context.Background()

	newResult, err := a.NewSession(ctx, acp.SessionNewParams{CWD: "/tmp"})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	a.mu.Lock()
	a.sessions[newResult.SessionID].running = true
	a.mu.Unlock()

	_, err = a.Prompt(ctx, acp.SessionPromptParams{SessionID: newResult.SessionID, Prompt: []acp.ContentBlock{{Type: acp.ContentTypeText, Text: "hi"}}})
	if err == nil {
		t.Fatalf("expected an error for a concurrent prompt on the same session")
	}
}

// TestPromptCancelledMidFlightReturnsCancelled drives session/cancel against
// a prompt whose turn is blocked deep inside its background work (simulating
// an in-progress MCP tool call), per spec.md §8 scenario 6: the agent must
// resolve with StopReasonCancelled in bounded time regardless of when the
// cancellation arrives, not just before the turn starts.
func TestPromptCancelledMidFlightReturnsCancelled(t *testing.T) {
	blocked := make(chan struct{})
	testBlockTurn = func(ctx context.Context) {
		close(blocked)
		<-ctx.Done()
	}
	t.Cleanup(func() { testBlockTurn = nil })

	a := newTestAgent(t)
	ctx := context.Background()

	newResult, err := a.NewSession(ctx, acp.SessionNewParams{CWD: "/tmp"})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	type promptOutcome struct {
		result acp.SessionPromptResult
		err    error
	}
	outcomeCh := make(chan promptOutcome, 1)
	go func() {
		result, err := a.Prompt(ctx, acp.SessionPromptParams{
			SessionID: newResult.SessionID,
			Prompt:    []acp.ContentBlock{{Type: acp.ContentTypeText, Text: "use tool slow-thing"}},
		})
		outcomeCh <- promptOutcome{result: result, err: err}
	}()

	select {
	case <-blocked:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the turn to reach its blocking point")
	}

	a.Cancel(ctx, acp.SessionCancelParams{SessionID: newResult.SessionID})

	select {
	case outcome := <-outcomeCh:
		if outcome.err != nil {
			t.Fatalf("Prompt: %v", outcome.err)
		}
		if outcome.result.StopReason != acp.StopReasonCancelled {
			t.Errorf("StopReason = %q, want %q", outcome.result.StopReason, acp.StopReasonCancelled)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for Prompt to resolve after cancellation")
	}

	rec, err := a.store.Get(newResult.SessionID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(rec.ToolCalls) != 1 || rec.ToolCalls[0].Status != acp.ToolStatusFailed {
		t.Errorf("ToolCalls = %+v, want the think tool call marked failed/cancelled", rec.ToolCalls)
	}
}

func TestPromptUnknownSessionIsError(t *testing.T) {
	a := newTestAgent(t)
	_, err := a.Prompt(context.Background(), acp.SessionPromptParams{SessionID: "does-not-exist", Prompt: nil})
	if err == nil {
		t.Fatalf("expected an error for an unknown session")
	}
}

func TestSetModeUnknownSessionIsError(t *testing.T) {
	a := newTestAgent(t)
	if err := a.SetMode(context.Background(), acp.SessionSetModeParams{SessionID: "nope", ModeID: "default"}); err == nil {
		t.Fatalf("expected an error for an unknown session")
	}
}

func TestCancelOnUnknownSessionIsANoop(t *testing.T) {
	a := newTestAgent(t)
	a.Cancel(context.Background(), acp.SessionCancelParams{SessionID: "nope"})
}

func TestTryMCPToolFallsBackWhenNoToolMatches(t *testing.T) {
	a := newTestAgent(t)
	ctx := context.Background()

	newResult, err := a.NewSession(ctx, acp.SessionNewParams{CWD: "/tmp"})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	a.mu.Lock()
	bridge := a.sessions[newResult.SessionID].bridge
	a.mu.Unlock()

	if _, ok := a.tryMCPTool(ctx, newResult.SessionID, bridge, "use tool search-docs"); ok {
		t.Fatalf("expected no match on a bridge with no connected servers")
	}

	if _, ok := a.tryMCPTool(ctx, newResult.SessionID, bridge, "hello there"); ok {
		t.Fatalf("expected no match when the prompt names no tool at all")
	}
}
