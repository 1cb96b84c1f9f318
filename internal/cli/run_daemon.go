package cli

import (
	"context"
	"os"

	"github.com/studiowebux/typeatron/internal/daemon"
	"github.com/studiowebux/typeatron/internal/output"
	"github.com/studiowebux/typeatron/internal/telemetry"
)

// RunDaemon serves every configured device until ctx ends or a signal
// arrives
func RunDaemon(ctx context.Context, env *Env) error {
	log := env.Log
	s := env.Settings

	table, err := env.Table()
	if err != nil {
		return err
	}

	dbPath, err := s.DatabaseFile()
	if err != nil {
		return err
	}
	store, err := telemetry.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	notifiers := output.Notifiers{output.NewLogNotifier(log)}
	if s.Output.Notify {
		desktop, err := output.NewDesktopNotifier(log)
		if err != nil {
			log.Warn().Err(err).Msg("desktop notifications unavailable")
		} else {
			defer desktop.Close()
			notifiers = append(notifiers, desktop)
		}
	}

	var sinks output.Multi
	if s.Output.Stdout {
		sinks = append(sinks, output.NewTextSink(os.Stdout))
	}
	if s.Output.Uinput {
		kb, err := output.NewKeyboard(output.DefaultUinputPath)
		if err != nil {
			return err
		}
		defer kb.Close()
		sinks = append(sinks, kb)
	}
	if s.Output.Clipboard {
		sinks = append(sinks, output.NewClipboard())
	}

	transports, closeTransports := daemon.Transports(s.Devices, log)
	defer closeTransports()

	socket, err := s.SocketFile()
	if err != nil {
		return err
	}

	d, err := daemon.New(daemon.Options{
		Devices:        s.Devices,
		Transports:     transports,
		Table:          table,
		Recorder:       store,
		Notifier:       notifiers,
		Sink:           sinks,
		Socket:         socket,
		ConnectTimeout: s.ConnectTimeout.Duration,
		Log:            log,
	})
	if err != nil {
		return err
	}

	ctx, stop := SignalContext(ctx)
	defer stop()
	return d.Run(ctx)
}
