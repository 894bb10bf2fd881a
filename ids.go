package acp

// SessionID is an opaque string minted by the agent on session/new, stable
// for the session's lifetime. It is cheap to copy and never mutated in
// place.
type SessionID string

// ToolCallID is an opaque string minted by the agent, stable for the
// lifetime of one tool call.
type ToolCallID string

// PermissionOptionID is an opaque string scoped to a single permission
// request.
type PermissionOptionID string

// AuthMethodID is an opaque string advertised by the agent during
// initialize.
type AuthMethodID string
