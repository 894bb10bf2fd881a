package acp

// ProtocolVersion is the single wire protocol version string this package
// speaks (§6). A mismatched version on initialize is surfaced as an error
// by the handler, not by the engine.
const ProtocolVersion = "v1"

// Agent-served methods (client -> agent), §4.2.
const (
	MethodInitialize     = "initialize"
	MethodAuthenticate   = "authenticate"
	MethodSessionNew     = "session/new"
	MethodSessionLoad    = "session/load"
	MethodSessionPrompt  = "session/prompt"
	MethodSessionSetMode = "session/set_mode"
)

// Agent-served notifications (client -> agent), §4.2.
const (
	MethodSessionCancel = "session/cancel"
)

// Client-served methods (agent -> client), §4.2, plus the supplemented
// terminal surface carried over from the original protocol (SPEC_FULL §C).
const (
	MethodRequestPermission = "session/request_permission"
	MethodFSReadTextFile    = "fs/read_text_file"
	MethodFSWriteTextFile   = "fs/write_text_file"

	MethodTerminalCreate  = "terminal/create"
	MethodTerminalOutput  = "terminal/output"
	MethodTerminalWait    = "terminal/wait"
	MethodTerminalKill    = "terminal/kill"
	MethodTerminalRelease = "terminal/release"
)

// Client-served notifications (agent -> client), §4.2.
const (
	MethodSessionUpdate = "session/update"
)

// Extension method/notification names (§4.6). These are not single fixed
// strings; they are the wrapper method names under which an arbitrary
// caller-chosen method is carried.
const (
	MethodExtensionMethod       = "_method"
	MethodExtensionNotification = "_notification"
)

// ExtensionMethodParams is the payload of the "_method" extension point: an
// inner method name plus raw params, forwarded verbatim to a dedicated
// extension handler.
type ExtensionMethodParams struct {
	Method string          `json:"method"`
	Params RawJSON         `json:"params,omitempty"`
}

// ExtensionNotificationParams is the notification analog of
// ExtensionMethodParams.
type ExtensionNotificationParams struct {
	Method string  `json:"method"`
	Params RawJSON `json:"params,omitempty"`
}

// TerminalCreateParams requests the client spawn a terminal subprocess.
type TerminalCreateParams struct {
	SessionID       SessionID     `json:"sessionId"`
	Command         string        `json:"command"`
	Args            []string      `json:"args,omitempty"`
	Env             []EnvVariable `json:"env,omitempty"`
	CWD             string        `json:"cwd,omitempty"`
	OutputByteLimit int           `json:"outputByteLimit,omitempty"`
}

// TerminalCreateResult is returned after a terminal subprocess is created.
type TerminalCreateResult struct {
	TerminalID string `json:"terminalId"`
}

// TerminalOutputParams requests the current output of a terminal.
type TerminalOutputParams struct {
	SessionID  SessionID `json:"sessionId"`
	TerminalID string    `json:"terminalId"`
}

// TerminalExitStatus describes how a terminal process exited.
type TerminalExitStatus struct {
	ExitCode *int   `json:"exitCode,omitempty"`
	Signal   string `json:"signal,omitempty"`
}

// TerminalOutputResult contains the terminal's accumulated output.
type TerminalOutputResult struct {
	Output     string               `json:"output"`
	Truncated  bool                 `json:"truncated"`
	ExitStatus *TerminalExitStatus  `json:"exitStatus,omitempty"`
}

// TerminalWaitParams requests the client block until a terminal exits.
type TerminalWaitParams struct {
	SessionID  SessionID `json:"sessionId"`
	TerminalID string    `json:"terminalId"`
}

// TerminalWaitResult is returned when the terminal process exits.
type TerminalWaitResult struct {
	ExitCode *int   `json:"exitCode,omitempty"`
	Signal   string `json:"signal,omitempty"`
}

// TerminalKillParams requests the client kill a terminal process.
type TerminalKillParams struct {
	SessionID  SessionID `json:"sessionId"`
	TerminalID string    `json:"terminalId"`
}

// TerminalReleaseParams tells the client it may release terminal resources.
type TerminalReleaseParams struct {
	SessionID  SessionID `json:"sessionId"`
	TerminalID string    `json:"terminalId"`
}
