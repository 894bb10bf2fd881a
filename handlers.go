package acp

import "context"

// Agent is implemented by anything that serves the agent-side method table
// (§4.2's first list). AgentSideConnection decodes incoming requests and
// notifications from the client and dispatches them here.
type Agent interface {
	Initialize(ctx context.Context, params InitializeParams) (InitializeResult, error)
	Authenticate(ctx context.Context, params AuthenticateParams) error
	NewSession(ctx context.Context, params SessionNewParams) (SessionNewResult, error)
	LoadSession(ctx context.Context, params SessionLoadParams) (SessionLoadResult, error)
	Prompt(ctx context.Context, params SessionPromptParams) (SessionPromptResult, error)
	SetMode(ctx context.Context, params SessionSetModeParams) error
	Cancel(ctx context.Context, params SessionCancelParams)
}

// ExtensionHandler serves the "_method"/"_notification" escape hatch
// (§4.6). Implementing it is optional; AgentSideConnection and
// ClientSideConnection both check for it via an interface assertion and
// fall back to MethodNotFound when absent.
type ExtensionHandler interface {
	ExtensionMethod(ctx context.Context, method string, params RawJSON) (RawJSON, error)
	ExtensionNotification(ctx context.Context, method string, params RawJSON)
}

// Client is implemented by anything that serves the client-side method
// table (§4.2's second list, plus the supplemented terminal/* surface).
// ClientSideConnection decodes incoming requests and notifications from the
// agent and dispatches them here.
type Client interface {
	RequestPermission(ctx context.Context, params RequestPermissionParams) (RequestPermissionResult, error)
	ReadTextFile(ctx context.Context, params FSReadTextFileParams) (FSReadTextFileResult, error)
	WriteTextFile(ctx context.Context, params FSWriteTextFileParams) error
	SessionUpdate(ctx context.Context, params SessionUpdateParams)

	CreateTerminal(ctx context.Context, params TerminalCreateParams) (TerminalCreateResult, error)
	TerminalOutput(ctx context.Context, params TerminalOutputParams) (TerminalOutputResult, error)
	WaitForTerminalExit(ctx context.Context, params TerminalWaitParams) (TerminalWaitResult, error)
	KillTerminal(ctx context.Context, params TerminalKillParams) error
	ReleaseTerminal(ctx context.Context, params TerminalReleaseParams) error
}
