package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/studiowebux/typeatron/internal/telemetry"
)

// Telemetry kinds accepted by the telemetry command
const (
	KindPhoto    = "photo"
	KindGestures = "gestures"
	KindPings    = "pings"
)

// TelemetryOptions select what to print
type TelemetryOptions struct {
	Kind   string
	Device string
	Limit  int
	Format string
	Query  string
}

// Telemetry prints recent records from the telemetry database
func Telemetry(env *Env, w io.Writer, opts TelemetryOptions) error {
	// records are keyed by address; accept a configured name too
	if opts.Device != "" {
		if d, err := env.Settings.ResolveDevice(opts.Device); err == nil {
			opts.Device = d.Address
		}
	}
	dbPath, err := env.Settings.DatabaseFile()
	if err != nil {
		return err
	}
	store, err := telemetry.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	return writeTelemetry(store, w, opts)
}

func writeTelemetry(store *telemetry.Store, w io.Writer, opts TelemetryOptions) error {
	const stamp = "2006-01-02 15:04:05.000"

	var (
		data    any
		headers []string
		rows    [][]string
		footer  string
	)

	switch opts.Kind {
	case KindPhoto:
		obs, err := store.RecentObservations(opts.Device, opts.Limit)
		if err != nil {
			return err
		}
		data = obs
		headers = []string{"DEVICE", "START", "DURATION", "SAMPLES", "MIN", "MAX", "MEAN", "VARIANCE"}
		for _, o := range obs {
			rows = append(rows, []string{
				o.Device,
				o.Start.Local().Format(stamp),
				o.End.Sub(o.Start).String(),
				strconv.FormatInt(o.Count, 10),
				fmt.Sprintf("%.2f", o.Min),
				fmt.Sprintf("%.2f", o.Max),
				fmt.Sprintf("%.2f", o.Mean),
				fmt.Sprintf("%.2f", o.Variance),
			})
		}

	case KindGestures:
		gestures, err := store.RecentGestures(opts.Device, opts.Limit)
		if err != nil {
			return err
		}
		data = gestures
		headers = []string{"DEVICE", "RECOGNIZED", "REFERENT"}
		for _, g := range gestures {
			referent := g.Referent
			if referent == "" {
				referent = "-"
			}
			rows = append(rows, []string{g.Device, g.RecognizedAt.Local().Format(stamp), referent})
		}

	case KindPings:
		pings, err := store.RecentPings(opts.Device, opts.Limit)
		if err != nil {
			return err
		}
		stats, err := store.PingSummary(opts.Device)
		if err != nil {
			return err
		}
		data = pings
		headers = []string{"DEVICE", "SENT", "RTT"}
		for _, p := range pings {
			rows = append(rows, []string{p.Device, p.SentAt.Local().Format(stamp), p.RTT.Round(time.Millisecond).String()})
		}
		if stats.Count > 0 {
			footer = fmt.Sprintf("%d pings, min %s, avg %s, max %s\n", stats.Count,
				stats.Min.Round(time.Millisecond), stats.Avg.Round(time.Millisecond), stats.Max.Round(time.Millisecond))
		}

	default:
		return fmt.Errorf("unknown telemetry kind %q (use %s, %s or %s)", opts.Kind, KindPhoto, KindGestures, KindPings)
	}

	if out, ok, err := encode(data, opts.Format, opts.Query); ok {
		if err != nil {
			return err
		}
		return writeStructured(w, out, structuredFormat(opts.Format))
	}

	if len(rows) == 0 {
		_, err := io.WriteString(w, "no records\n")
		return err
	}
	if _, err := io.WriteString(w, renderTable(headers, rows)); err != nil {
		return err
	}
	_, err := io.WriteString(w, footer)
	return err
}
