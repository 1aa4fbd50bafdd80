// Package register installs the server into an MCP client configuration
// file, either per-project (.mcp.json) or per-user (~/.claude.json).
package register

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

type serverEntry struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

// Run executes the register subcommand. serverName is the MCP server name
// (e.g. "archscan"); args is everything after "register". It returns the
// path of the config file that was written.
func Run(serverName string, args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("missing scope\n%s", usage())
	}

	scope := args[0]
	if scope != "project" && scope != "user" {
		return "", fmt.Errorf("unknown scope %q (must be \"project\" or \"user\")\n%s", scope, usage())
	}

	var directory string
	var serverArgs []string
	if scope == "project" {
		directory, serverArgs = splitProjectArgs(args[1:])
	} else {
		serverArgs = splitUserArgs(args[1:])
	}

	binaryPath, err := locateBinary()
	if err != nil {
		return "", err
	}

	configPath, err := resolveConfigPath(scope, directory)
	if err != nil {
		return "", err
	}

	if err := writeConfig(configPath, serverName, buildEntry(binaryPath, serverArgs)); err != nil {
		return "", err
	}
	return configPath, nil
}

func usage() string {
	binaryName := filepath.Base(os.Args[0])
	var b strings.Builder
	fmt.Fprintf(&b, "Usage:\n")
	fmt.Fprintf(&b, "  %s register project [directory]  # → <directory>/.mcp.json (default: .)\n", binaryName)
	fmt.Fprintf(&b, "  %s register user                 # → ~/.claude.json\n", binaryName)
	fmt.Fprintf(&b, "  %s register project . -- --flag  # forward args to server\n", binaryName)
	fmt.Fprintf(&b, "  %s register user -- --flag       # forward args to server\n", binaryName)
	return b.String()
}

// DeriveServerName extracts a server name from a binary path by stripping
// .exe and -mcp suffixes.
func DeriveServerName(binaryPath string) string {
	name := filepath.Base(binaryPath)
	name = strings.TrimSuffix(name, ".exe")
	name = strings.TrimSuffix(name, "-mcp")
	return name
}

func splitProjectArgs(args []string) (directory string, serverArgs []string) {
	directory = "."
	for i, arg := range args {
		if arg == "--" {
			return directory, args[i+1:]
		}
		// First non-separator arg is the directory
		if i == 0 {
			directory = arg
		}
	}
	return directory, nil
}

func splitUserArgs(args []string) []string {
	for i, arg := range args {
		if arg == "--" {
			return args[i+1:]
		}
	}
	return nil
}

func locateBinary() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("getting executable path: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("resolving symlinks for %s: %w", exe, err)
	}
	return resolved, nil
}

func resolveConfigPath(scope string, directory string) (string, error) {
	if scope == "project" {
		absDir, err := filepath.Abs(directory)
		if err != nil {
			return "", fmt.Errorf("resolving directory %s: %w", directory, err)
		}
		return filepath.Join(absDir, ".mcp.json"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(homeDir, ".claude.json"), nil
}

func buildEntry(binaryPath string, serverArgs []string) serverEntry {
	if runtime.GOOS == "windows" {
		args := append([]string{"/C", binaryPath}, serverArgs...)
		return serverEntry{Command: "cmd", Args: args}
	}
	return serverEntry{Command: binaryPath, Args: serverArgs}
}

func writeConfig(configPath string, serverName string, entry serverEntry) error {
	config := map[string]any{
		"mcpServers": map[string]any{},
	}

	if data, err := os.ReadFile(configPath); err == nil {
		if err := json.Unmarshal(data, &config); err != nil {
			return fmt.Errorf("parsing existing config %s: %w", configPath, err)
		}
	}

	servers, ok := config["mcpServers"]
	if !ok {
		servers = map[string]any{}
		config["mcpServers"] = servers
	}
	serversMap, ok := servers.(map[string]any)
	if !ok {
		return fmt.Errorf("mcpServers in %s is not an object", configPath)
	}
	serversMap[serverName] = entry

	output, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	output = append(output, '\n')

	// Atomic write: temp file in the same directory, then rename.
	configDir := filepath.Dir(configPath)
	tmpFile, err := os.CreateTemp(configDir, ".mcp-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", configDir, err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(output); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp file %s: %w", tmpPath, err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, configPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming %s to %s: %w", tmpPath, configPath, err)
	}

	return nil
}
