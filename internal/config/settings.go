package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Transport kinds a device may use
const (
	TransportSerial    = "serial"
	TransportWebSocket = "websocket"
)

// Settings is the contents of config.yaml (or config.toml / config.json)
type Settings struct {
	LogLevel       string         `yaml:"log_level" toml:"log_level" json:"log_level"`
	NoColor        bool           `yaml:"no_color" toml:"no_color" json:"no_color"`
	Chords         string         `yaml:"chords" toml:"chords" json:"chords"`
	Database       string         `yaml:"database" toml:"database" json:"database"`
	Socket         string         `yaml:"socket" toml:"socket" json:"socket"`
	ConnectTimeout Duration       `yaml:"connect_timeout" toml:"connect_timeout" json:"connect_timeout"`
	Devices        []DeviceConfig `yaml:"devices" toml:"devices" json:"devices"`
	Output         OutputConfig   `yaml:"output" toml:"output" json:"output"`
	Local          LocalConfig    `yaml:"local" toml:"local" json:"local"`
}

// DeviceConfig describes one Typeatron
type DeviceConfig struct {
	Name      string `yaml:"name" toml:"name" json:"name"`
	Address   string `yaml:"address" toml:"address" json:"address"`
	Transport string `yaml:"transport" toml:"transport" json:"transport"`
	URL       string `yaml:"url" toml:"url" json:"url"`
	Path      string `yaml:"path" toml:"path" json:"path"`
	BlueZ     bool   `yaml:"bluez" toml:"bluez" json:"bluez"`
}

// OutputConfig selects keystroke sinks
type OutputConfig struct {
	Stdout    bool `yaml:"stdout" toml:"stdout" json:"stdout"`
	Uinput    bool `yaml:"uinput" toml:"uinput" json:"uinput"`
	Clipboard bool `yaml:"clipboard" toml:"clipboard" json:"clipboard"`
	Notify    bool `yaml:"notify" toml:"notify" json:"notify"`
}

// LocalConfig maps an evdev keyboard onto the five buttons
type LocalConfig struct {
	Device string   `yaml:"device" toml:"device" json:"device"`
	Keys   []uint16 `yaml:"keys" toml:"keys" json:"keys"`
}

// Duration accepts "5s"-style strings in either format
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		d.Duration = 0
		return nil
	}
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// DefaultConnectTimeout bounds a device connect when unset
const DefaultConnectTimeout = 30 * time.Second

// Default returns settings with every default applied
func Default() Settings {
	s := Settings{}
	s.applyDefaults()
	return s
}

func (s *Settings) applyDefaults() {
	if s.LogLevel == "" {
		s.LogLevel = "info"
	}
	if s.ConnectTimeout.Duration == 0 {
		s.ConnectTimeout.Duration = DefaultConnectTimeout
	}
	if len(s.Local.Keys) == 0 {
		// a, s, d, f and space
		s.Local.Keys = []uint16{30, 31, 32, 33, 57}
	}
	for i := range s.Devices {
		d := &s.Devices[i]
		if d.Name == "" {
			d.Name = d.Address
		}
		if d.Transport == "" {
			if d.URL != "" {
				d.Transport = TransportWebSocket
			} else {
				d.Transport = TransportSerial
			}
		}
	}
}

// Load reads settings from path, picking the format by extension
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}

	var s Settings
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &s)
	case ".toml":
		err = toml.Unmarshal(data, &s)
	case ".json", ".jsonc":
		// comments and trailing commas are allowed
		err = json.Unmarshal(jsonc.ToJSON(data), &s)
	default:
		return Settings{}, fmt.Errorf("unsupported config format %q (use .yaml, .toml or .json)", filepath.Ext(path))
	}
	if err != nil {
		return Settings{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}

	s.applyDefaults()
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks settings for values the daemon cannot start with
func (s Settings) Validate() error {
	switch strings.ToLower(s.LogLevel) {
	case "trace", "debug", "info", "warn", "warning", "error", "disabled", "off":
	default:
		return fmt.Errorf("unknown log_level %q", s.LogLevel)
	}
	if len(s.Local.Keys) != 5 {
		return fmt.Errorf("local.keys needs exactly 5 key codes, got %d", len(s.Local.Keys))
	}

	seen := make(map[string]bool)
	for i, d := range s.Devices {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("devices[%d] invalid: %w", i, err)
		}
		key := strings.ToUpper(d.Address)
		if seen[key] {
			return fmt.Errorf("devices[%d] invalid: duplicate address %s", i, d.Address)
		}
		seen[key] = true
	}
	return nil
}

// Validate checks one device entry
func (d DeviceConfig) Validate() error {
	if strings.TrimSpace(d.Address) == "" {
		return fmt.Errorf("address is required")
	}
	switch d.Transport {
	case TransportWebSocket:
		if !strings.HasPrefix(d.URL, "ws://") && !strings.HasPrefix(d.URL, "wss://") {
			return fmt.Errorf("websocket transport needs a ws:// or wss:// url")
		}
		if d.BlueZ {
			return fmt.Errorf("bluez checks only apply to serial devices")
		}
	case TransportSerial:
		if strings.TrimSpace(d.Path) == "" {
			return fmt.Errorf("serial transport needs a path")
		}
	default:
		return fmt.Errorf("unknown transport %q", d.Transport)
	}
	return nil
}

// ResolveDevice picks a device by name or address. An empty selector picks
// the only configured device.
func (s Settings) ResolveDevice(selector string) (DeviceConfig, error) {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		switch len(s.Devices) {
		case 0:
			return DeviceConfig{}, fmt.Errorf("no devices configured")
		case 1:
			return s.Devices[0], nil
		default:
			return DeviceConfig{}, fmt.Errorf("%d devices configured, pick one with --device", len(s.Devices))
		}
	}
	for _, d := range s.Devices {
		if d.Name == selector || strings.EqualFold(d.Address, selector) {
			return d, nil
		}
	}
	return DeviceConfig{}, fmt.Errorf("no device named %q", selector)
}

// DatabaseFile returns the telemetry database path
func (s Settings) DatabaseFile() (string, error) {
	if s.Database == "" {
		return DatabasePath, nil
	}
	return ExpandPath(s.Database)
}

// SocketFile returns the daemon socket path
func (s Settings) SocketFile() (string, error) {
	if s.Socket == "" {
		return SocketPath(), nil
	}
	return ExpandPath(s.Socket)
}

// ChordsPath returns the letter table path, or "" for the built-in table
func (s Settings) ChordsPath() (string, error) {
	if s.Chords != "" {
		return ExpandPath(s.Chords)
	}
	if ChordsFile != "" {
		if _, err := os.Stat(ChordsFile); err == nil {
			return ChordsFile, nil
		}
	}
	return "", nil
}
