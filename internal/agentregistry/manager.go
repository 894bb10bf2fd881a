package agentregistry

import (
	"context"
	"fmt"
	"sync"

	"acp"
	"acp/internal/stdiotransport"

	"github.com/google/uuid"
)

// Connection represents a live connection to an agent subprocess, from the
// client's point of view.
type Connection struct {
	ID       string
	Agent    AgentConfig
	Conn     *acp.ClientSideConnection
	process  *stdiotransport.Process
	Sessions []acp.SessionID
}

// Manager handles the lifecycle of multiple agent connections. It owns
// subprocess spawning; the caller supplies the acp.Client implementation
// each connection dispatches into (see internal/refclient).
type Manager struct {
	connections map[string]*Connection
	config      *Config
	mu          sync.RWMutex
}

// NewManager creates a Manager with the given configuration.
func NewManager(config *Config) *Manager {
	return &Manager{
		connections: make(map[string]*Connection),
		config:      config,
	}
}

func (m *Manager) findAgent(name string) (AgentConfig, bool) {
	for _, a := range m.config.Agents {
		if a.Name == name {
			return a, true
		}
	}
	return AgentConfig{}, false
}

// Connect spawns the named agent's subprocess, wires an
// acp.ClientSideConnection to its stdin/stdout against client, performs the
// initialize handshake, and registers the resulting Connection.
func (m *Manager) Connect(ctx context.Context, agentName, cwd string, client acp.Client, opts ...acp.Option) (*Connection, error) {
	agent, ok := m.findAgent(agentName)
	if !ok {
		return nil, fmt.Errorf("agentregistry: unknown agent %q", agentName)
	}

	var env []string
	for k, v := range agent.Env {
		env = append(env, k+"="+v)
	}

	proc, err := stdiotransport.Launch(agent.Command, agent.Args, env, cwd)
	if err != nil {
		return nil, fmt.Errorf("agentregistry: launch %s: %w", agentName, err)
	}

	acpConn := acp.NewClientSideConnection(client, proc.Writer, proc.Reader, opts...)
	go acpConn.Run()

	if _, err := acpConn.Initialize(ctx, acp.InitializeParams{ProtocolVersion: acp.ProtocolVersion}); err != nil {
		proc.Close()
		return nil, fmt.Errorf("agentregistry: initialize %s: %w", agentName, err)
	}

	conn := &Connection{
		ID:      uuid.New().String(),
		Agent:   agent,
		Conn:    acpConn,
		process: proc,
	}

	m.mu.Lock()
	m.connections[conn.ID] = conn
	m.mu.Unlock()

	return conn, nil
}

// Disconnect gracefully shuts down a single connection by ID.
func (m *Manager) Disconnect(connectionID string) error {
	m.mu.Lock()
	conn, ok := m.connections[connectionID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("agentregistry: connection %q not found", connectionID)
	}
	delete(m.connections, connectionID)
	m.mu.Unlock()

	if err := conn.process.Close(); err != nil {
		return fmt.Errorf("agentregistry: close connection %s: %w", connectionID, err)
	}
	<-conn.Conn.Done()
	return nil
}

// GetConnection returns the connection with the given ID, or nil if not found.
func (m *Manager) GetConnection(connectionID string) *Connection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connections[connectionID]
}

// ListConnections returns a snapshot of all active connections.
func (m *Manager) ListConnections() []*Connection {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Connection, 0, len(m.connections))
	for _, c := range m.connections {
		result = append(result, c)
	}
	return result
}

// DisconnectAll shuts down every active connection. Errors are silently
// ignored so the method can be used in defer/cleanup paths.
func (m *Manager) DisconnectAll() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.connections))
	for id := range m.connections {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		_ = m.Disconnect(id)
	}
}
