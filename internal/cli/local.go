package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/studiowebux/typeatron/internal/evinput"
	"github.com/studiowebux/typeatron/internal/keyer"
	"github.com/studiowebux/typeatron/internal/output"
)

// Local runs the keyer against five keys of a local keyboard and types the
// result to w. Nothing is sent to a device.
func Local(ctx context.Context, env *Env, w io.Writer, devicePath string, grab bool) error {
	table, err := env.Table()
	if err != nil {
		return err
	}
	if devicePath == "" {
		devicePath = env.Settings.Local.Device
	}
	src, err := evinput.NewSource(devicePath, env.Settings.Local.Keys, grab, env.Log)
	if err != nil {
		return err
	}

	k := keyer.New(table)
	sink := output.NewTextSink(w)
	ctx, stop := SignalContext(ctx)
	defer stop()

	fmt.Fprintf(w, "practising on %s in %s mode, ctrl+c to stop\n", devicePath, k.Mode())
	return src.Run(ctx, func(state keyer.ButtonState) {
		ev, ok := k.Next(state)
		if !ok {
			return
		}
		if ev.Kind == keyer.KindModeChange {
			fmt.Fprintf(w, "\n[%s]\n", ev.Mode)
			return
		}
		if err := sink.Key(ev); err != nil {
			env.Log.Warn().Err(err).Msg("write failed")
		}
	})
}
