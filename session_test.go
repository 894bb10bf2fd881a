package acp

import (
	"encoding/json"
	"testing"
)

func TestSessionUpdateMessageChunkRoundTrip(t *testing.T) {
	u := SessionUpdate{Kind: UpdateAgentMessageChunk, Chunk: &ContentBlock{Type: ContentTypeText, Text: "hi"}}

	data, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("unmarshal into map: %v", err)
	}
	if _, ok := fields["content"]; !ok {
		t.Fatalf("expected a content field, got %s", data)
	}

	var roundTripped SessionUpdate
	if err := json.Unmarshal(data, &roundTripped); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if roundTripped.Kind != UpdateAgentMessageChunk || roundTripped.Chunk == nil || roundTripped.Chunk.Text != "hi" {
		t.Errorf("roundTripped = %+v, want agent_message_chunk chunk.text=hi", roundTripped)
	}
	if roundTripped.ToolCall != nil || roundTripped.Plan != nil {
		t.Errorf("non-chunk fields should stay nil: %+v", roundTripped)
	}
}

func TestSessionUpdateToolCallRoundTrip(t *testing.T) {
	tc := NewToolCall("t1", "delete file")
	tc.Kind = ToolKindDelete
	tc.Status = ToolStatusInProgress
	u := SessionUpdate{Kind: UpdateToolCall, ToolCall: &tc}

	data, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var roundTripped SessionUpdate
	if err := json.Unmarshal(data, &roundTripped); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if roundTripped.Kind != UpdateToolCall || roundTripped.ToolCall == nil {
		t.Fatalf("roundTripped = %+v, want a tool_call", roundTripped)
	}
	if roundTripped.ToolCall.ID != "t1" || roundTripped.ToolCall.Kind != ToolKindDelete || roundTripped.ToolCall.Status != ToolStatusInProgress {
		t.Errorf("ToolCall = %+v, want id=t1 kind=delete status=in_progress", roundTripped.ToolCall)
	}
	if roundTripped.Chunk != nil || roundTripped.Plan != nil {
		t.Errorf("non-tool_call fields should stay nil: %+v", roundTripped)
	}
}

func TestSessionUpdateToolCallUpdateRoundTrip(t *testing.T) {
	u := SessionUpdate{Kind: UpdateToolCallUpdate, ToolCallUpdate: &ToolCallUpdate{ID: "t1", Status: strPtr(ToolStatusCompleted)}}

	data, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var roundTripped SessionUpdate
	if err := json.Unmarshal(data, &roundTripped); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if roundTripped.ToolCallUpdate == nil || roundTripped.ToolCallUpdate.ID != "t1" {
		t.Fatalf("roundTripped = %+v, want a tool_call_update for t1", roundTripped)
	}
	if roundTripped.ToolCallUpdate.Status == nil || *roundTripped.ToolCallUpdate.Status != ToolStatusCompleted {
		t.Errorf("Status = %v, want completed", roundTripped.ToolCallUpdate.Status)
	}
	if roundTripped.ToolCallUpdate.Title != nil {
		t.Errorf("Title should stay absent, got %v", roundTripped.ToolCallUpdate.Title)
	}
}

func TestSessionUpdatePlanRoundTrip(t *testing.T) {
	u := SessionUpdate{Kind: UpdatePlan, Plan: &Plan{Entries: []PlanEntry{{Content: "step one", Status: "pending"}}}}

	data, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var roundTripped SessionUpdate
	if err := json.Unmarshal(data, &roundTripped); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if roundTripped.Plan == nil || len(roundTripped.Plan.Entries) != 1 || roundTripped.Plan.Entries[0].Content != "step one" {
		t.Errorf("roundTripped = %+v, want one plan entry", roundTripped.Plan)
	}
}

func TestSessionUpdateUnknownKindIsError(t *testing.T) {
	var u SessionUpdate
	err := json.Unmarshal([]byte(`{"sessionUpdate":"something_else"}`), &u)
	if err == nil {
		t.Fatalf("expected an error unmarshaling an unknown session update kind")
	}
}

func TestRequestPermissionParamsAcceptsFullToolCall(t *testing.T) {
	tc := NewToolCall("t1", "delete file")
	tc.Status = ToolStatusPending
	data, err := json.Marshal(RequestPermissionParams{
		SessionID: "s1",
		ToolCall:  tc,
		Options:   []PermissionOption{{OptionID: "allow", Name: "Allow", Kind: PermissionKindAllowOnce}},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got RequestPermissionParams
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ToolCall.ID != "t1" || got.ToolCall.Title != "delete file" {
		t.Errorf("ToolCall = %+v, want id=t1 title=%q", got.ToolCall, "delete file")
	}
}

func TestRequestPermissionParamsAcceptsBareToolCallUpdateWithTitle(t *testing.T) {
	raw := []byte(`{"sessionId":"s1","toolCall":{"toolCallId":"t1","title":"delete file"},"options":[]}`)

	var got RequestPermissionParams
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ToolCall.ID != "t1" || got.ToolCall.Title != "delete file" || got.ToolCall.Status != ToolStatusPending {
		t.Errorf("ToolCall = %+v, want a promoted pending tool call", got.ToolCall)
	}
}

func TestRequestPermissionParamsRejectsToolCallUpdateWithoutTitle(t *testing.T) {
	raw := []byte(`{"sessionId":"s1","toolCall":{"toolCallId":"t1"},"options":[]}`)

	var got RequestPermissionParams
	err := json.Unmarshal(raw, &got)
	if err == nil {
		t.Fatalf("expected an error: a toolCallUpdate with no title cannot be promoted")
	}
}
