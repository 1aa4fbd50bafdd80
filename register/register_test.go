package register

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func Test_DeriveServerName(t *testing.T) {
	tests := []struct {
		name       string
		binaryPath string
		want       string
	}{
		{"strip -mcp suffix", "archscan-mcp", "archscan"},
		{"strip .exe and -mcp", "archscan-mcp.exe", "archscan"},
		{"no -mcp suffix passthrough", "myserver", "myserver"},
		{"only .exe suffix", "myserver.exe", "myserver"},
		{"full path stripped to base", "/usr/local/bin/archscan-mcp", "archscan"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveServerName(tt.binaryPath)
			if got != tt.want {
				t.Errorf("DeriveServerName(%q) = %q, want %q", tt.binaryPath, got, tt.want)
			}
		})
	}
}

func Test_splitProjectArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantDir  string
		wantArgs []string
	}{
		{"no args", nil, ".", nil},
		{"directory only", []string{"mydir"}, "mydir", nil},
		{"directory and server args", []string{"mydir", "--", "-root", "/tmp"}, "mydir", []string{"-root", "/tmp"}},
		{"just separator and args", []string{"--", "-root", "/tmp"}, ".", []string{"-root", "/tmp"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotDir, gotArgs := splitProjectArgs(tt.args)
			if gotDir != tt.wantDir {
				t.Errorf("splitProjectArgs() dir = %q, want %q", gotDir, tt.wantDir)
			}
			if !sliceEqual(gotArgs, tt.wantArgs) {
				t.Errorf("splitProjectArgs() args = %v, want %v", gotArgs, tt.wantArgs)
			}
		})
	}
}

func Test_splitUserArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantArgs []string
	}{
		{"no args", nil, nil},
		{"with separator and args", []string{"--", "-chunk-size", "50"}, []string{"-chunk-size", "50"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotArgs := splitUserArgs(tt.args)
			if !sliceEqual(gotArgs, tt.wantArgs) {
				t.Errorf("splitUserArgs() = %v, want %v", gotArgs, tt.wantArgs)
			}
		})
	}
}

func Test_writeConfig_CreatesNewFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ".mcp.json")

	entry := serverEntry{Command: "/usr/bin/archscan-mcp", Args: []string{"-root", "/tmp"}}
	if err := writeConfig(configPath, "archscan", entry); err != nil {
		t.Fatalf("writeConfig() error: %v", err)
	}

	config := readConfig(t, configPath)
	servers, ok := config["mcpServers"].(map[string]any)
	if !ok {
		t.Fatal("mcpServers not found or not an object")
	}
	got, ok := servers["archscan"].(map[string]any)
	if !ok {
		t.Fatal("archscan entry not found or not an object")
	}
	if got["command"] != "/usr/bin/archscan-mcp" {
		t.Errorf("command = %v, want /usr/bin/archscan-mcp", got["command"])
	}
}

func Test_writeConfig_UpdatesExistingEntry(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ".mcp.json")

	initial := map[string]any{
		"mcpServers": map[string]any{
			"other-server": map[string]any{"command": "/usr/bin/other"},
			"archscan":     map[string]any{"command": "/old/path"},
		},
	}
	data, _ := json.Marshal(initial)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		t.Fatalf("seeding config: %v", err)
	}

	entry := serverEntry{Command: "/new/path"}
	if err := writeConfig(configPath, "archscan", entry); err != nil {
		t.Fatalf("writeConfig() error: %v", err)
	}

	config := readConfig(t, configPath)
	servers := config["mcpServers"].(map[string]any)

	if _, ok := servers["other-server"]; !ok {
		t.Error("expected other-server entry preserved")
	}
	got := servers["archscan"].(map[string]any)
	if got["command"] != "/new/path" {
		t.Errorf("command = %v, want /new/path", got["command"])
	}
}

func Test_writeConfig_RejectsMalformedServers(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ".mcp.json")

	if err := os.WriteFile(configPath, []byte(`{"mcpServers": "oops"}`), 0644); err != nil {
		t.Fatalf("seeding config: %v", err)
	}

	err := writeConfig(configPath, "archscan", serverEntry{Command: "/usr/bin/archscan-mcp"})
	if err == nil {
		t.Fatal("expected error for malformed mcpServers")
	}
}

func readConfig(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading config: %v", err)
	}
	var config map[string]any
	if err := json.Unmarshal(data, &config); err != nil {
		t.Fatalf("parsing config: %v", err)
	}
	return config
}

func sliceEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
