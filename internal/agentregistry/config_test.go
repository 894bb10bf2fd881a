package agentregistry

import (
	"path/filepath"
	"testing"
)

func TestLoadConfigCreatesDefaultWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(cfg.Agents) == 0 {
		t.Fatalf("expected a default config with well-known agents")
	}

	reloaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig (second read): %v", err)
	}
	if len(reloaded.Agents) != len(cfg.Agents) {
		t.Errorf("len(Agents) = %d, want %d (the default written to disk)", len(reloaded.Agents), len(cfg.Agents))
	}
}

func TestWellKnownAgentsIsNonEmptyAndAutoDetect(t *testing.T) {
	agents := WellKnownAgents()
	if len(agents) == 0 {
		t.Fatalf("expected a non-empty well-known agent list")
	}
	for _, a := range agents {
		if a.Command == "" {
			t.Errorf("agent %q has no command", a.Name)
		}
		if !a.AutoDetect {
			t.Errorf("agent %q should be marked AutoDetect", a.Name)
		}
	}
}

func TestAgentConfigIsInstalled(t *testing.T) {
	present := AgentConfig{Name: "sh", Command: "sh"}
	if !present.IsInstalled() {
		t.Errorf("expected sh to be found in PATH")
	}

	missing := AgentConfig{Name: "nope", Command: "acp-definitely-not-a-real-command"}
	if missing.IsInstalled() {
		t.Errorf("expected a nonexistent command to not be installed")
	}
}

func TestConfigInstalledFiltersToAvailableCommands(t *testing.T) {
	cfg := &Config{Agents: []AgentConfig{
		{Name: "sh", Command: "sh"},
		{Name: "nope", Command: "acp-definitely-not-a-real-command"},
	}}

	installed := cfg.Installed()
	if len(installed) != 1 || installed[0].Name != "sh" {
		t.Errorf("Installed() = %+v, want only sh", installed)
	}
}

func TestSaveConfigThenLoadConfigRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := &Config{
		Agents:   []AgentConfig{{Name: "example", DisplayName: "Example", Command: "example-agent"}},
		Settings: AppSettings{Theme: "light", DefaultAgent: "example"},
	}

	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(loaded.Agents) != 1 || loaded.Agents[0].Name != "example" {
		t.Errorf("Agents = %+v, want one agent named example", loaded.Agents)
	}
	if loaded.Settings.Theme != "light" {
		t.Errorf("Theme = %q, want light", loaded.Settings.Theme)
	}
}
