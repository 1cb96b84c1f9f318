package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// FilePermissions is the default permission mode for regular files (read/write for owner, read for others)
	FilePermissions = 0644
	// DirPermissions is the default permission mode for directories (rwxr-xr-x)
	DirPermissions = 0755
)

var (
	// ConfigDir is the global configuration directory (~/.typeatron)
	ConfigDir string

	// ConfigFile is the default settings file
	ConfigFile string

	// DatabasePath is the SQLite telemetry database
	DatabasePath string

	// ChordsFile is an optional letter table overriding the built-in one
	ChordsFile string
)

// Initialize sets up the configuration directory and default files.
// It creates ~/.typeatron/ if it doesn't exist
func Initialize() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	return InitializeAt(filepath.Join(homeDir, ".typeatron"))
}

// InitializeAt is Initialize rooted at dir
func InitializeAt(dir string) error {
	ConfigDir = dir
	ConfigFile = filepath.Join(ConfigDir, "config.yaml")
	DatabasePath = filepath.Join(ConfigDir, "telemetry.db")
	ChordsFile = filepath.Join(ConfigDir, "letters.csv")

	if err := os.MkdirAll(ConfigDir, DirPermissions); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", ConfigDir, err)
	}

	// Create a default settings file if none exists in either format
	tomlFile := strings.TrimSuffix(ConfigFile, ".yaml") + ".toml"
	if _, err := os.Stat(tomlFile); err == nil {
		ConfigFile = tomlFile
		return nil
	}
	if _, err := os.Stat(ConfigFile); os.IsNotExist(err) {
		if err := os.WriteFile(ConfigFile, []byte(defaultConfigYAML), FilePermissions); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
	}

	return nil
}

// ExpandPath resolves ~/ and paths relative to the config directory
func ExpandPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	if strings.HasPrefix(p, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(homeDir, p[2:]), nil
	}
	if filepath.IsAbs(p) || ConfigDir == "" {
		return p, nil
	}
	return filepath.Join(ConfigDir, p), nil
}

// SocketPath returns the daemon socket path: $XDG_RUNTIME_DIR/typeatron.sock,
// or a file in the config directory when XDG_RUNTIME_DIR is unset
func SocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "typeatron.sock")
	}
	if ConfigDir != "" {
		return filepath.Join(ConfigDir, "typeatron.sock")
	}
	return filepath.Join(os.TempDir(), "typeatron.sock")
}

const defaultConfigYAML = `# typeatron settings
log_level: info
no_color: false

# letter table; empty uses the built-in one
chords: ""

# devices:
#   - name: left
#     address: "00:06:66:AA:BB:CC"
#     transport: serial
#     path: /dev/rfcomm0
#     bluez: true
#   - name: bench
#     address: bench
#     transport: websocket
#     url: ws://localhost:8765/typeatron
devices: []

output:
  stdout: true
  uinput: false
  clipboard: false
  # desktop notifications over the session bus
  notify: false

# local practice keyboard: evdev node and the five key codes used as buttons
local:
  device: ""
  keys: [30, 31, 32, 33, 57]
`
