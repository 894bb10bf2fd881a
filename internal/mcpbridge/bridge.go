// Package mcpbridge connects a reference agent to the MCP servers a client
// declares in session/new or session/load, so tools those servers expose can
// be folded into the agent's own tool-call loop.
package mcpbridge

import (
	"context"
	"fmt"
	"os/exec"
	"sync"

	"acp"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool is a flattened view of an MCP tool, tagged with the server it came
// from so a call can be routed back to the right session.
type Tool struct {
	Server      string
	Name        string
	Description string
	InputSchema any
}

// serverSession holds one live connection to a declared MCP server.
type serverSession struct {
	name    string
	client  *mcp.Client
	session *mcp.ClientSession
}

// Bridge manages the set of MCP server connections for a single ACP
// session. It is not safe to share across sessions; create one per
// acp.SessionID.
type Bridge struct {
	mu       sync.RWMutex
	sessions map[string]*serverSession
}

// NewBridge creates an empty Bridge.
func NewBridge() *Bridge {
	return &Bridge{sessions: make(map[string]*serverSession)}
}

// Connect launches or dials every declared server and keeps the resulting
// sessions open until Close is called. A failure to connect to one server
// does not prevent the others from being tried; all errors are joined.
func (b *Bridge) Connect(ctx context.Context, servers []acp.MCPServer) error {
	var errs []error
	for _, srv := range servers {
		if err := b.connectOne(ctx, srv); err != nil {
			errs = append(errs, fmt.Errorf("mcpbridge: connect %s: %w", srv.Name, err))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	msg := "mcpbridge: failed to connect to some servers:"
	for _, err := range errs {
		msg += " " + err.Error() + ";"
	}
	return fmt.Errorf("%s", msg)
}

func (b *Bridge) connectOne(ctx context.Context, srv acp.MCPServer) error {
	client := mcp.NewClient(&mcp.Implementation{Name: "acp-reference-agent", Version: "0.1.0"}, nil)

	transport, err := transportFor(srv)
	if err != nil {
		return err
	}

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.sessions[srv.Name] = &serverSession{name: srv.Name, client: client, session: session}
	b.mu.Unlock()
	return nil
}

// transportFor builds the go-sdk transport implied by an MCPServer's Type:
// "stdio" (default, spawns Command/Args/Env as a subprocess) or "http"/"sse"
// (both get the same streamable HTTP client transport for URL). The server's
// Headers are not sent.
func transportFor(srv acp.MCPServer) (mcp.Transport, error) {
	switch srv.Type {
	case "", "stdio":
		if srv.Command == "" {
			return nil, fmt.Errorf("stdio server %q has no command", srv.Name)
		}
		cmd := exec.Command(srv.Command, srv.Args...)
		if len(srv.Env) > 0 {
			cmd.Env = append(cmd.Env, envPairs(srv.Env)...)
		}
		return &mcp.CommandTransport{Command: cmd}, nil
	case "http", "sse":
		if srv.URL == "" {
			return nil, fmt.Errorf("http server %q has no url", srv.Name)
		}
		return &mcp.StreamableClientTransport{Endpoint: srv.URL}, nil
	default:
		return nil, fmt.Errorf("unsupported mcp server type %q", srv.Type)
	}
}

func envPairs(vars []acp.EnvVariable) []string {
	out := make([]string, 0, len(vars))
	for _, v := range vars {
		out = append(out, v.Name+"="+v.Value)
	}
	return out
}

// ListTools returns every tool every connected server advertises.
func (b *Bridge) ListTools(ctx context.Context) ([]Tool, error) {
	b.mu.RLock()
	sessions := make([]*serverSession, 0, len(b.sessions))
	for _, s := range b.sessions {
		sessions = append(sessions, s)
	}
	b.mu.RUnlock()

	var tools []Tool
	for _, s := range sessions {
		result, err := s.session.ListTools(ctx, &mcp.ListToolsParams{})
		if err != nil {
			return nil, fmt.Errorf("mcpbridge: list tools on %s: %w", s.name, err)
		}
		for _, t := range result.Tools {
			tools = append(tools, Tool{
				Server:      s.name,
				Name:        t.Name,
				Description: t.Description,
				InputSchema: t.InputSchema,
			})
		}
	}
	return tools, nil
}

// CallTool invokes a tool on the named server and returns the concatenated
// text content of its result.
func (b *Bridge) CallTool(ctx context.Context, server, tool string, args map[string]any) (string, error) {
	b.mu.RLock()
	s, ok := b.sessions[server]
	b.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("mcpbridge: unknown server %q", server)
	}

	result, err := s.session.CallTool(ctx, &mcp.CallToolParams{Name: tool, Arguments: args})
	if err != nil {
		return "", fmt.Errorf("mcpbridge: call %s/%s: %w", server, tool, err)
	}

	var text string
	for _, c := range result.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			if text != "" {
				text += "\n"
			}
			text += tc.Text
		}
	}
	if result.IsError {
		return text, fmt.Errorf("mcpbridge: %s/%s reported an error: %s", server, tool, text)
	}
	return text, nil
}

// Close shuts down every connected server session.
func (b *Bridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var firstErr error
	for name, s := range b.sessions {
		if err := s.session.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("mcpbridge: close %s: %w", name, err)
		}
		delete(b.sessions, name)
	}
	return firstErr
}
