package acp

import "encoding/json"

// Tool-call kinds (§3).
const (
	ToolKindRead    = "read"
	ToolKindEdit    = "edit"
	ToolKindDelete  = "delete"
	ToolKindMove    = "move"
	ToolKindSearch  = "search"
	ToolKindExecute = "execute"
	ToolKindThink   = "think"
	ToolKindFetch   = "fetch"
	ToolKindOther   = "other"
)

// Tool-call statuses. The only legal forward transitions are
// pending -> in_progress -> (completed | failed); completed/failed are
// terminal (§3 "Tool-call state machine").
const (
	ToolStatusPending    = "pending"
	ToolStatusInProgress = "in_progress"
	ToolStatusCompleted  = "completed"
	ToolStatusFailed     = "failed"
)

// toolStatusRank orders statuses for forward-transition checking. A strictly
// backward move is rejected, and so is any change away from a terminal
// status (completed and failed share a rank, but neither may replace the
// other); re-announcing the current status is permitted.
var toolStatusRank = map[string]int{
	ToolStatusPending:    0,
	ToolStatusInProgress: 1,
	ToolStatusCompleted:  2,
	ToolStatusFailed:     2,
}

// The ToolCallContentKind* values discriminate the elements of
// ToolCall.Content.
const (
	ToolCallContentKindContent  = "content"
	ToolCallContentKindDiff     = "diff"
	ToolCallContentKindTerminal = "terminal"
)

// ToolCallContent is one element of a tool call's ordered content list: a
// plain ContentBlock, a Diff, or (for the supplemented terminal surface) a
// reference to a live terminal.
type ToolCallContent struct {
	Type       string        `json:"type"`
	Content    *ContentBlock `json:"content,omitempty"`
	Path       string        `json:"path,omitempty"`
	OldText    string        `json:"oldText,omitempty"`
	NewText    string        `json:"newText,omitempty"`
	TerminalID string        `json:"terminalId,omitempty"`
}

// Diff builds a ToolCallContent representing a file diff.
func Diff(path, newText, oldText string) ToolCallContent {
	return ToolCallContent{Type: ToolCallContentKindDiff, Path: path, NewText: newText, OldText: oldText}
}

// ToolCallLocation anchors a tool call to a file/line for UI follow.
type ToolCallLocation struct {
	Path string `json:"path"`
	Line int    `json:"line,omitempty"`
}

// ToolCall is the agent's record of a side effect it is attempting (§3).
type ToolCall struct {
	ID        ToolCallID         `json:"toolCallId"`
	Title     string             `json:"title"`
	Kind      string             `json:"kind,omitempty"`
	Status    string             `json:"status"`
	Content   []ToolCallContent  `json:"content,omitempty"`
	Locations []ToolCallLocation `json:"locations,omitempty"`
	RawInput  json.RawMessage    `json:"rawInput,omitempty"`
	RawOutput json.RawMessage    `json:"rawOutput,omitempty"`
}

// NewToolCall builds a ToolCall in its initial "pending" status with a
// default kind of "other", per §3.
func NewToolCall(id ToolCallID, title string) ToolCall {
	return ToolCall{ID: id, Title: title, Kind: ToolKindOther, Status: ToolStatusPending}
}

// ToolCallUpdate carries an incremental change to a previously announced
// ToolCall. Every field is optional; a present field overwrites the
// corresponding ToolCall field wholesale (collections are replaced, never
// appended) — §3 "Updates are delivered as ToolCallUpdate".
type ToolCallUpdate struct {
	ID        ToolCallID         `json:"toolCallId"`
	Title     *string            `json:"title,omitempty"`
	Kind      *string            `json:"kind,omitempty"`
	Status    *string            `json:"status,omitempty"`
	Content   []ToolCallContent  `json:"content,omitempty"`
	Locations []ToolCallLocation `json:"locations,omitempty"`
	RawInput  json.RawMessage    `json:"rawInput,omitempty"`
	RawOutput json.RawMessage    `json:"rawOutput,omitempty"`

	// contentSet/locationsSet distinguish "field absent" from "field present
	// but empty" for the two slice fields, since Go slices don't otherwise
	// carry that distinction through JSON round-trips.
	contentSet   bool
	locationsSet bool
}

// MarshalJSON emits "content"/"locations" whenever they were explicitly set
// (even to an empty list), and omits them otherwise, preserving the
// present-vs-absent distinction across a marshal/unmarshal round trip.
func (u ToolCallUpdate) MarshalJSON() ([]byte, error) {
	type alias struct {
		ID        ToolCallID         `json:"toolCallId"`
		Title     *string            `json:"title,omitempty"`
		Kind      *string            `json:"kind,omitempty"`
		Status    *string            `json:"status,omitempty"`
		Content   []ToolCallContent  `json:"content"`
		Locations []ToolCallLocation `json:"locations"`
		RawInput  json.RawMessage    `json:"rawInput,omitempty"`
		RawOutput json.RawMessage    `json:"rawOutput,omitempty"`
	}
	a := alias{
		ID:        u.ID,
		Title:     u.Title,
		Kind:      u.Kind,
		Status:    u.Status,
		Content:   u.Content,
		Locations: u.Locations,
		RawInput:  u.RawInput,
		RawOutput: u.RawOutput,
	}
	if u.contentSet && a.Content == nil {
		a.Content = []ToolCallContent{}
	}
	if u.locationsSet && a.Locations == nil {
		a.Locations = []ToolCallLocation{}
	}

	raw, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	if !u.contentSet {
		delete(fields, "content")
	}
	if !u.locationsSet {
		delete(fields, "locations")
	}
	return json.Marshal(fields)
}

// UnmarshalJSON implements the "field present but empty" distinction noted
// above by tracking which raw keys were actually in the payload.
func (u *ToolCallUpdate) UnmarshalJSON(data []byte) error {
	type alias ToolCallUpdate
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*u = ToolCallUpdate(a)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	_, u.contentSet = raw["content"]
	_, u.locationsSet = raw["locations"]
	return nil
}

// IsPromotable reports whether this update carries every field required to
// promote it into a brand-new ToolCall (namely, a non-empty Title) when the
// receiver has no prior record of its ID — §4.5: "an update may carry all
// required fields (title) — in which case the receiver promotes it to a
// full tool call. Missing title on an update to an unknown id is invalid
// params."
func (u *ToolCallUpdate) IsPromotable() bool {
	return u.Title != nil && *u.Title != ""
}

// Promote converts an update into a full ToolCall, used when the update
// references an id the receiver has not seen before and IsPromotable is
// true.
func (u *ToolCallUpdate) Promote() ToolCall {
	tc := ToolCall{ID: u.ID, Status: ToolStatusPending, Kind: ToolKindOther}
	applyUpdateFields(&tc, u)
	return tc
}

// ApplyUpdate applies u to t in place, following the "present field
// overwrites, absent field preserved" rule, and rejects any update that
// would move Status backward or change it once it is terminal (§3, §8
// "State machine" testable property). It returns an error rather than silently
// dropping an invalid transition so callers can surface it as a protocol
// violation.
func ApplyUpdate(t *ToolCall, u *ToolCallUpdate) error {
	if u.Status != nil {
		from, haveFrom := toolStatusRank[t.Status]
		to, haveTo := toolStatusRank[*u.Status]
		terminal := t.Status == ToolStatusCompleted || t.Status == ToolStatusFailed
		if haveFrom && haveTo && (to < from || (terminal && *u.Status != t.Status)) {
			return &ToolCallTransitionError{ID: t.ID, From: t.Status, To: *u.Status}
		}
	}
	applyUpdateFields(t, u)
	return nil
}

func applyUpdateFields(t *ToolCall, u *ToolCallUpdate) {
	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Kind != nil {
		t.Kind = *u.Kind
	}
	if u.Status != nil {
		t.Status = *u.Status
	}
	if u.contentSet {
		t.Content = u.Content
	}
	if u.locationsSet {
		t.Locations = u.Locations
	}
	if u.RawInput != nil {
		t.RawInput = u.RawInput
	}
	if u.RawOutput != nil {
		t.RawOutput = u.RawOutput
	}
}

// ToolCallTransitionError reports an illegal tool-call status transition: a
// backward move, or a change away from a terminal status.
type ToolCallTransitionError struct {
	ID   ToolCallID
	From string
	To   string
}

func (e *ToolCallTransitionError) Error() string {
	return "acp: tool call " + string(e.ID) + ": illegal transition " + e.From + " -> " + e.To
}
