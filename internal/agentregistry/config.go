package agentregistry

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// AgentConfig is one entry in Config.Agents: an ACP-compatible agent binary
// a Manager knows how to launch.
type AgentConfig struct {
	Name        string            `json:"name"`
	DisplayName string            `json:"displayName"`
	Command     string            `json:"command"`
	Args        []string          `json:"args"`
	Env         map[string]string `json:"env,omitempty"`
	Description string            `json:"description,omitempty"`
	AutoDetect  bool              `json:"autoDetect"`
}

// IsInstalled reports whether this agent's command is available in PATH.
func (a AgentConfig) IsInstalled() bool {
	_, err := exec.LookPath(a.Command)
	return err == nil
}

// Config is the top-level configuration a Manager is built from: every
// agent it may connect to, any MCP servers launched alongside them, and
// app-wide preferences.
type Config struct {
	Agents     []AgentConfig     `json:"agents"`
	MCPServers []MCPServerConfig `json:"mcpServers,omitempty"`
	Settings   AppSettings       `json:"settings"`
}

// Installed returns the subset of c.Agents whose command is found in PATH.
func (c *Config) Installed() []AgentConfig {
	var installed []AgentConfig
	for _, a := range c.Agents {
		if a.IsInstalled() {
			installed = append(installed, a)
		}
	}
	return installed
}

// MCPServerConfig describes an MCP server that can be launched alongside agents.
type MCPServerConfig struct {
	Name    string            `json:"name"`
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// AppSettings holds application-wide preferences.
type AppSettings struct {
	Theme        string `json:"theme"`
	DefaultAgent string `json:"defaultAgent"`
	DefaultCWD   string `json:"defaultCwd"`
	AutoApprove  bool   `json:"autoApprove"`
}

// knownAgent is a compile-time entry for an ACP-compatible agent binary this
// library can auto-detect on PATH. A single table backs both WellKnownAgents
// and DefaultConfig so the two can't drift out of sync with each other.
type knownAgent struct {
	name, displayName, command, description string
	args                                     []string
}

var knownAgents = []knownAgent{
	{"opencode", "OpenCode", "opencode", "OpenCode ACP agent", []string{"acp"}},
	{"codex-acp", "Codex CLI", "codex-acp", "OpenAI Codex CLI with ACP support", nil},
	{"gemini", "Gemini CLI", "gemini", "Google Gemini CLI with ACP support", []string{"--acp"}},
	{"claude-code-acp", "Claude Code", "claude-code-acp", "Anthropic Claude Code with ACP support", nil},
	{"goose", "Goose", "goose", "Block Goose with ACP support", []string{"--acp"}},
	{"kiro", "Kiro", "kiro", "Kiro with ACP support", []string{"--acp"}},
	{"augment", "Augment", "augment", "Augment with ACP support", []string{"acp"}},
}

func (k knownAgent) toAgentConfig() AgentConfig {
	return AgentConfig{
		Name:        k.name,
		DisplayName: k.displayName,
		Command:     k.command,
		Args:        k.args,
		Description: k.description,
		AutoDetect:  true,
	}
}

// WellKnownAgents returns AgentConfig entries for every ACP agent this
// library knows how to auto-detect, regardless of whether its binary is
// installed. Use Config.Installed on a Config seeded with these to narrow to
// what's actually on PATH.
func WellKnownAgents() []AgentConfig {
	configs := make([]AgentConfig, 0, len(knownAgents))
	for _, k := range knownAgents {
		configs = append(configs, k.toAgentConfig())
	}
	return configs
}

// ConfigPath returns the default configuration file path
// (~/.config/acp/config.json).
func ConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(dir, "acp", "config.json")
}

// DefaultConfig returns a Config seeded with every well-known agent and
// sensible default settings.
func DefaultConfig() *Config {
	return &Config{
		Agents: WellKnownAgents(),
		Settings: AppSettings{
			Theme:        "dark",
			DefaultAgent: "opencode",
		},
	}
}

// LoadConfig reads the configuration from the given path. If the file does not
// exist, a default configuration is created, written to disk, and returned.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			if writeErr := SaveConfig(path, cfg); writeErr != nil {
				return nil, fmt.Errorf("agentregistry: create default config: %w", writeErr)
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("agentregistry: read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("agentregistry: parse config: %w", err)
	}
	return &cfg, nil
}

// SaveConfig writes the configuration to the given path, creating parent
// directories as needed.
func SaveConfig(path string, config *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("agentregistry: create config dir: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("agentregistry: marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("agentregistry: write config: %w", err)
	}
	return nil
}
