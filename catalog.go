package acp

// methodEntry is one row of a per-direction method catalog: the wire method
// name, constructors for its typed params/result, and whether it is a
// notification. The connection dispatchers route with their own per-method
// switch and consult the catalog only for isNotify, to reject a request sent
// to a notification-only method; the constructors are not used for decoding.
type methodEntry struct {
	name       string
	newParams  func() any
	newResult  func() any
	isNotify   bool
}

// agentServedCatalog enumerates every method/notification the agent side
// serves (client -> agent), §4.2's first table plus the cancel
// notification.
var agentServedCatalog = map[string]methodEntry{
	MethodInitialize: {
		name:      MethodInitialize,
		newParams: func() any { return new(InitializeParams) },
		newResult: func() any { return new(InitializeResult) },
	},
	MethodAuthenticate: {
		name:      MethodAuthenticate,
		newParams: func() any { return new(AuthenticateParams) },
		newResult: func() any { return new(struct{}) },
	},
	MethodSessionNew: {
		name:      MethodSessionNew,
		newParams: func() any { return new(SessionNewParams) },
		newResult: func() any { return new(SessionNewResult) },
	},
	MethodSessionLoad: {
		name:      MethodSessionLoad,
		newParams: func() any { return new(SessionLoadParams) },
		newResult: func() any { return new(SessionLoadResult) },
	},
	MethodSessionPrompt: {
		name:      MethodSessionPrompt,
		newParams: func() any { return new(SessionPromptParams) },
		newResult: func() any { return new(SessionPromptResult) },
	},
	MethodSessionSetMode: {
		name:      MethodSessionSetMode,
		newParams: func() any { return new(SessionSetModeParams) },
		newResult: func() any { return new(struct{}) },
	},
	MethodExtensionMethod: {
		name:      MethodExtensionMethod,
		newParams: func() any { return new(ExtensionMethodParams) },
		newResult: func() any { return new(RawJSON) },
	},
	MethodSessionCancel: {
		name:      MethodSessionCancel,
		newParams: func() any { return new(SessionCancelParams) },
		isNotify:  true,
	},
	MethodExtensionNotification: {
		name:      MethodExtensionNotification,
		newParams: func() any { return new(ExtensionNotificationParams) },
		isNotify:  true,
	},
}

// clientServedCatalog enumerates every method/notification the client side
// serves (agent -> client), §4.2's second table, plus the supplemented
// terminal/* surface (SPEC_FULL §C).
var clientServedCatalog = map[string]methodEntry{
	MethodRequestPermission: {
		name:      MethodRequestPermission,
		newParams: func() any { return new(RequestPermissionParams) },
		newResult: func() any { return new(RequestPermissionResult) },
	},
	MethodFSReadTextFile: {
		name:      MethodFSReadTextFile,
		newParams: func() any { return new(FSReadTextFileParams) },
		newResult: func() any { return new(FSReadTextFileResult) },
	},
	MethodFSWriteTextFile: {
		name:      MethodFSWriteTextFile,
		newParams: func() any { return new(FSWriteTextFileParams) },
		newResult: func() any { return new(struct{}) },
	},
	MethodTerminalCreate: {
		name:      MethodTerminalCreate,
		newParams: func() any { return new(TerminalCreateParams) },
		newResult: func() any { return new(TerminalCreateResult) },
	},
	MethodTerminalOutput: {
		name:      MethodTerminalOutput,
		newParams: func() any { return new(TerminalOutputParams) },
		newResult: func() any { return new(TerminalOutputResult) },
	},
	MethodTerminalWait: {
		name:      MethodTerminalWait,
		newParams: func() any { return new(TerminalWaitParams) },
		newResult: func() any { return new(TerminalWaitResult) },
	},
	MethodTerminalKill: {
		name:      MethodTerminalKill,
		newParams: func() any { return new(TerminalKillParams) },
		newResult: func() any { return new(struct{}) },
	},
	MethodTerminalRelease: {
		name:      MethodTerminalRelease,
		newParams: func() any { return new(TerminalReleaseParams) },
		newResult: func() any { return new(struct{}) },
	},
	MethodExtensionMethod: {
		name:      MethodExtensionMethod,
		newParams: func() any { return new(ExtensionMethodParams) },
		newResult: func() any { return new(RawJSON) },
	},
	MethodSessionUpdate: {
		name:      MethodSessionUpdate,
		newParams: func() any { return new(SessionUpdateParams) },
		isNotify:  true,
	},
	MethodExtensionNotification: {
		name:      MethodExtensionNotification,
		newParams: func() any { return new(ExtensionNotificationParams) },
		isNotify:  true,
	},
}
