package sessionstore

import (
	"testing"

	"acp"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(":memory:")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndGet(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Create("sess-1", "/tmp/project"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	rec, err := s.Get("sess-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec == nil {
		t.Fatalf("Get returned nil for an existing session")
	}
	if rec.CWD != "/tmp/project" {
		t.Errorf("CWD = %q, want /tmp/project", rec.CWD)
	}
}

func TestGetMissingSessionReturnsNilNotError(t *testing.T) {
	s := newTestStore(t)
	rec, err := s.Get("does-not-exist")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec != nil {
		t.Errorf("expected nil for a missing session, got %+v", rec)
	}
}

func TestAddMessageAndToolCallPersist(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Create("sess-1", "/tmp"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := s.AddMessage("sess-1", Message{Role: "user", Content: "hello"}); err != nil {
		t.Fatalf("AddMessage: %v", err)
	}
	if err := s.AddToolCall("sess-1", ToolCallRecord{ID: acp.ToolCallID("t1"), Title: "read file", Kind: acp.ToolKindRead, Status: acp.ToolStatusPending}); err != nil {
		t.Fatalf("AddToolCall: %v", err)
	}

	rec, err := s.Get("sess-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(rec.Messages) != 1 || rec.Messages[0].Content != "hello" {
		t.Errorf("Messages = %+v, want one message with content hello", rec.Messages)
	}
	if len(rec.ToolCalls) != 1 || rec.ToolCalls[0].Status != acp.ToolStatusPending {
		t.Errorf("ToolCalls = %+v, want one pending tool call", rec.ToolCalls)
	}
}

func TestUpdateToolCallAppliesToMostRecent(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Create("sess-1", "/tmp"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.AddToolCall("sess-1", ToolCallRecord{ID: "t1", Title: "delete file", Status: acp.ToolStatusPending}); err != nil {
		t.Fatalf("AddToolCall: %v", err)
	}

	if err := s.UpdateToolCall("sess-1", "t1", acp.ToolStatusCompleted, "done"); err != nil {
		t.Fatalf("UpdateToolCall: %v", err)
	}

	rec, err := s.Get("sess-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(rec.ToolCalls) != 1 {
		t.Fatalf("len(ToolCalls) = %d, want 1", len(rec.ToolCalls))
	}
	if rec.ToolCalls[0].Status != acp.ToolStatusCompleted || rec.ToolCalls[0].Content != "done" {
		t.Errorf("ToolCalls[0] = %+v, want status=completed content=done", rec.ToolCalls[0])
	}
}

func TestDeleteRemovesSessionAndHistory(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Create("sess-1", "/tmp"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.AddMessage("sess-1", Message{Role: "user", Content: "hi"}); err != nil {
		t.Fatalf("AddMessage: %v", err)
	}

	if err := s.Delete("sess-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	rec, err := s.Get("sess-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec != nil {
		t.Errorf("expected session to be gone after Delete, got %+v", rec)
	}
}

func TestListOrdersByCreation(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Create("sess-1", "/tmp/a"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Create("sess-2", "/tmp/b"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	list, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len(List()) = %d, want 2", len(list))
	}
	if list[0].ID != "sess-1" || list[1].ID != "sess-2" {
		t.Errorf("List() order = %v, want [sess-1 sess-2]", []acp.SessionID{list[0].ID, list[1].ID})
	}
}
