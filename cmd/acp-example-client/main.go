// Command acp-example-client spawns an ACP agent subprocess (by default
// acp-example-agent, built alongside it), performs the full initialize ->
// session/new -> session/prompt handshake, and prints the agent message
// chunks, tool calls, plans and permission requests it receives to stdout. It is the counterpart to acp-example-agent and
// demonstrates internal/agentregistry, internal/refclient, and
// internal/stdiotransport wired together into a single ACP peer.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"acp"
	"acp/internal/agentregistry"
	"acp/internal/fsprovider"
	"acp/internal/refclient"
	"acp/internal/sessionstore"
	"acp/internal/termprovider"
)

func main() {
	agentCmd := flag.String("agent-command", "acp-example-agent", "command to spawn as the ACP agent")
	cwd := flag.String("cwd", ".", "working directory to pass in session/new")
	prompt := flag.String("prompt", "hello from the example client", "prompt text to send once connected")
	autoApprove := flag.Bool("auto-approve", true, "automatically approve permission requests")
	flag.Parse()

	cfg := &agentregistry.Config{
		Agents: []agentregistry.AgentConfig{
			{Name: "example", DisplayName: "Example Agent", Command: *agentCmd, AutoDetect: false},
		},
	}
	manager := agentregistry.NewManager(cfg)
	defer manager.DisconnectAll()

	store, err := sessionstore.NewStore(":memory:")
	if err != nil {
		log.Fatalf("acp-example-client: open session store: %v", err)
	}
	defer store.Close()

	client := refclient.New(fsprovider.NewProvider(), termprovider.NewProvider(), store, printEvent, *autoApprove)

	ctx := context.Background()
	conn, err := manager.Connect(ctx, "example", *cwd, client)
	if err != nil {
		log.Fatalf("acp-example-client: connect: %v", err)
	}
	defer manager.Disconnect(conn.ID)

	sessResult, err := conn.Conn.NewSession(ctx, acp.SessionNewParams{CWD: *cwd})
	if err != nil {
		log.Fatalf("acp-example-client: session/new: %v", err)
	}
	fmt.Printf("session created: %s\n", sessResult.SessionID)

	promptCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	result, err := conn.Conn.Prompt(promptCtx, acp.SessionPromptParams{
		SessionID: sessResult.SessionID,
		Prompt:    []acp.ContentBlock{{Type: acp.ContentTypeText, Text: *prompt}},
	})
	if err != nil {
		log.Fatalf("acp-example-client: session/prompt: %v", err)
	}
	fmt.Printf("prompt finished: stopReason=%s\n", result.StopReason)
}

func printEvent(e refclient.Event) {
	switch e.Kind {
	case refclient.EventAgentMessage:
		fmt.Printf("[agent] %s\n", e.Text)
	case refclient.EventToolCall:
		verb := "tool_call"
		if e.IsUpdate {
			verb = "tool_call_update"
		}
		fmt.Printf("[%s] %s (%s) -> %s\n", verb, e.Title, e.ToolKind, e.Status)
	case refclient.EventPlan:
		var steps []string
		for _, entry := range e.Plan {
			steps = append(steps, entry.Content)
		}
		fmt.Printf("[plan] %s\n", strings.Join(steps, "; "))
	case refclient.EventPermission:
		fmt.Printf("[permission] %s requests %s\n", e.Permission.ToolCall.Title, e.Permission.ToolCall.Kind)
	}
}
