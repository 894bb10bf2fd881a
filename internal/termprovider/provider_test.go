package termprovider

import (
	"strings"
	"testing"
	"time"

	"acp"
)

func TestCreateOutputAndWait(t *testing.T) {
	p := NewProvider()

	created, err := p.HandleCreate(acp.TerminalCreateParams{Command: "echo", Args: []string{"hello from terminal"}})
	if err != nil {
		t.Fatalf("HandleCreate: %v", err)
	}

	result, err := p.HandleWaitForExit(acp.TerminalWaitParams{TerminalID: created.TerminalID})
	if err != nil {
		t.Fatalf("HandleWaitForExit: %v", err)
	}
	if result.ExitCode == nil || *result.ExitCode != 0 {
		t.Fatalf("ExitCode = %v, want 0", result.ExitCode)
	}

	output, err := p.HandleOutput(acp.TerminalOutputParams{TerminalID: created.TerminalID})
	if err != nil {
		t.Fatalf("HandleOutput: %v", err)
	}
	if !strings.Contains(output.Output, "hello from terminal") {
		t.Errorf("Output = %q, want it to contain the echoed text", output.Output)
	}
}

func TestKillTerminatesRunningProcess(t *testing.T) {
	p := NewProvider()

	created, err := p.HandleCreate(acp.TerminalCreateParams{Command: "sleep", Args: []string{"30"}})
	if err != nil {
		t.Fatalf("HandleCreate: %v", err)
	}

	if err := p.HandleKill(acp.TerminalKillParams{TerminalID: created.TerminalID}); err != nil {
		t.Fatalf("HandleKill: %v", err)
	}

	done := make(chan struct{})
	go func() {
		p.HandleWaitForExit(acp.TerminalWaitParams{TerminalID: created.TerminalID})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(6 * time.Second):
		t.Fatalf("terminal did not exit after kill")
	}
}

func TestReleaseRemovesTerminal(t *testing.T) {
	p := NewProvider()
	created, err := p.HandleCreate(acp.TerminalCreateParams{Command: "echo", Args: []string{"x"}})
	if err != nil {
		t.Fatalf("HandleCreate: %v", err)
	}

	if err := p.HandleRelease(acp.TerminalReleaseParams{TerminalID: created.TerminalID}); err != nil {
		t.Fatalf("HandleRelease: %v", err)
	}

	if _, err := p.HandleOutput(acp.TerminalOutputParams{TerminalID: created.TerminalID}); err == nil {
		t.Errorf("expected an error querying a released terminal")
	}
}
