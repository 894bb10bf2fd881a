package acp

import "testing"

func TestAgentServedCatalogConsistency(t *testing.T) {
	for method, entry := range agentServedCatalog {
		if entry.name != method {
			t.Errorf("agentServedCatalog[%q].name = %q, want match", method, entry.name)
		}
		if entry.newParams == nil {
			t.Errorf("agentServedCatalog[%q] has no newParams constructor", method)
		}
		if !entry.isNotify && entry.newResult == nil {
			t.Errorf("agentServedCatalog[%q] is a request but has no newResult constructor", method)
		}
		if entry.isNotify && entry.newResult != nil {
			t.Errorf("agentServedCatalog[%q] is a notification but declares a result type", method)
		}
		if p := entry.newParams(); p == nil {
			t.Errorf("agentServedCatalog[%q].newParams() returned nil", method)
		}
	}
}

func TestClientServedCatalogConsistency(t *testing.T) {
	for method, entry := range clientServedCatalog {
		if entry.name != method {
			t.Errorf("clientServedCatalog[%q].name = %q, want match", method, entry.name)
		}
		if entry.newParams == nil {
			t.Errorf("clientServedCatalog[%q] has no newParams constructor", method)
		}
		if !entry.isNotify && entry.newResult == nil {
			t.Errorf("clientServedCatalog[%q] is a request but has no newResult constructor", method)
		}
		if entry.isNotify && entry.newResult != nil {
			t.Errorf("clientServedCatalog[%q] is a notification but declares a result type", method)
		}
		if p := entry.newParams(); p == nil {
			t.Errorf("clientServedCatalog[%q].newParams() returned nil", method)
		}
	}
}

func TestCatalogsCoverAgentAndClientInterfaces(t *testing.T) {
	wantAgentMethods := []string{
		MethodInitialize, MethodAuthenticate, MethodSessionNew, MethodSessionLoad,
		MethodSessionPrompt, MethodSessionSetMode, MethodSessionCancel,
		MethodExtensionMethod, MethodExtensionNotification,
	}
	for _, m := range wantAgentMethods {
		if _, ok := agentServedCatalog[m]; !ok {
			t.Errorf("agentServedCatalog missing entry for %q", m)
		}
	}

	wantClientMethods := []string{
		MethodRequestPermission, MethodFSReadTextFile, MethodFSWriteTextFile,
		MethodTerminalCreate, MethodTerminalOutput, MethodTerminalWait,
		MethodTerminalKill, MethodTerminalRelease, MethodSessionUpdate,
		MethodExtensionMethod, MethodExtensionNotification,
	}
	for _, m := range wantClientMethods {
		if _, ok := clientServedCatalog[m]; !ok {
			t.Errorf("clientServedCatalog missing entry for %q", m)
		}
	}
}
