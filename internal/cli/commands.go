package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/studiowebux/typeatron/internal/daemon"
	"github.com/studiowebux/typeatron/internal/device"
)

// callTimeout bounds requests that do not wait on a device connect
const callTimeout = 10 * time.Second

// CommandOptions select the target device and output format
type CommandOptions struct {
	Device string
	Format string
	Query  string // JMESPath over the JSON form
}

// Send runs one daemon command against a device and prints the resulting
// status
func Send(ctx context.Context, env *Env, w io.Writer, req daemon.Request, opts CommandOptions) error {
	selector, err := pickDevice(env, opts.Device)
	if err != nil {
		return err
	}
	req.Device = selector

	timeout := callTimeout
	if req.Command == daemon.CmdConnect {
		timeout = env.Settings.ConnectTimeout.Duration + callTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := env.Client()
	if err != nil {
		return err
	}
	resp, err := client.Call(ctx, req)
	if err != nil {
		return fmt.Errorf("%s failed: %w", req.Command, err)
	}

	return writeStatuses(w, resp.Devices, opts)
}

// Status prints every device, or one when a device is named
func Status(ctx context.Context, env *Env, w io.Writer, opts CommandOptions) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	client, err := env.Client()
	if err != nil {
		return err
	}
	resp, err := client.Call(ctx, daemon.Request{Command: daemon.CmdStatus, Device: opts.Device})
	if err != nil {
		return err
	}
	return writeStatuses(w, resp.Devices, opts)
}

// Watch prints feed events as they arrive until ctx ends
func Watch(ctx context.Context, env *Env, w io.Writer, opts CommandOptions, replay bool) error {
	client, err := env.Client()
	if err != nil {
		return err
	}
	ctx, stop := SignalContext(ctx)
	defer stop()

	return client.Watch(ctx, opts.Device, replay, func(ev device.FeedEvent) error {
		if out, ok, err := encode(ev, opts.Format, opts.Query); ok {
			if err != nil {
				return err
			}
			return writeStructured(w, out, structuredFormat(opts.Format))
		}
		_, err := fmt.Fprintln(w, formatEvent(ev))
		return err
	})
}

func writeStatuses(w io.Writer, statuses []device.Status, opts CommandOptions) error {
	out, err := formatStatuses(statuses, opts.Format, opts.Query)
	if err != nil {
		return err
	}
	if isText(opts.Format) && opts.Query == "" {
		_, err = io.WriteString(w, out)
		return err
	}
	return writeStructured(w, out, structuredFormat(opts.Format))
}

// structuredFormat names the lexer for highlighted output
func structuredFormat(format string) string {
	if format == FormatYAML {
		return FormatYAML
	}
	return FormatJSON
}

func isText(format string) bool {
	return format == FormatText || format == ""
}
