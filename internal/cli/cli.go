// Package cli implements the typeatron commands on top of the daemon, its
// client and the local packages.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/studiowebux/typeatron/internal/chord"
	"github.com/studiowebux/typeatron/internal/config"
	"github.com/studiowebux/typeatron/internal/daemon"
	"github.com/studiowebux/typeatron/internal/logging"
)

// Env is the loaded settings plus the logger configured from them
type Env struct {
	Settings config.Settings
	Log      zerolog.Logger
}

// Load initialises ~/.typeatron and reads the settings file. An explicit
// path overrides the default file.
func Load(path string) (*Env, error) {
	if err := config.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize config: %w", err)
	}
	if path == "" {
		path = config.ConfigFile
	}
	settings, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	log := logging.New(logging.FromSettings(settings.LogLevel, settings.NoColor), "typeatron")
	return &Env{Settings: settings, Log: log}, nil
}

// Table builds the chord table from the configured letter file or the
// built-in one
func (e *Env) Table() (*chord.Table, error) {
	path, err := e.Settings.ChordsPath()
	if err != nil {
		return nil, err
	}
	table, err := chord.LoadTable(path)
	if err != nil {
		if path == "" {
			path = "built-in letters"
		}
		return nil, fmt.Errorf("chord table (%s): %w", path, err)
	}
	return table, nil
}

// Client returns a client for the configured daemon socket
func (e *Env) Client() (*daemon.Client, error) {
	socket, err := e.Settings.SocketFile()
	if err != nil {
		return nil, err
	}
	return daemon.NewClient(socket), nil
}

// SignalContext ends on SIGINT or SIGTERM
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// isInteractive checks if stdin is a terminal (not piped)
func isInteractive() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}
