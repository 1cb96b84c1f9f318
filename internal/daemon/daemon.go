// Package daemon runs one session per configured Typeatron and serves
// newline-delimited JSON requests on a Unix socket.
package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/studiowebux/typeatron/internal/chord"
	"github.com/studiowebux/typeatron/internal/config"
	"github.com/studiowebux/typeatron/internal/device"
	"github.com/studiowebux/typeatron/internal/transport"
)

// maxRequestSize bounds one request line
const maxRequestSize = 64 * 1024

// Options wires a Daemon. Transports maps each device address to the
// transport reaching it.
type Options struct {
	Devices        []config.DeviceConfig
	Transports     map[string]transport.Transport
	Table          *chord.Table
	Recorder       device.Recorder
	Notifier       device.Notifier
	Sink           device.KeySink
	Socket         string
	ConnectTimeout time.Duration
	Log            zerolog.Logger
}

// Daemon owns the device sessions and the IPC listener
type Daemon struct {
	sessions       []*device.Session
	byName         map[string]*device.Session
	byAddress      map[string]*device.Session
	hub            *Hub
	socket         string
	connectTimeout time.Duration
	log            zerolog.Logger
}

func New(opts Options) (*Daemon, error) {
	if opts.Table == nil {
		return nil, errors.New("daemon needs a chord table")
	}
	if opts.Socket == "" {
		return nil, errors.New("daemon needs a socket path")
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = config.DefaultConnectTimeout
	}

	d := &Daemon{
		byName:         make(map[string]*device.Session),
		byAddress:      make(map[string]*device.Session),
		hub:            NewHub(opts.Log),
		socket:         opts.Socket,
		connectTimeout: opts.ConnectTimeout,
		log:            opts.Log,
	}

	for _, dc := range opts.Devices {
		t, ok := opts.Transports[dc.Address]
		if !ok {
			return nil, fmt.Errorf("no transport for device %s", dc.Address)
		}
		ctrl := device.NewController(dc.Address, t, opts.Table, device.Options{
			Name:     dc.Name,
			Notifier: opts.Notifier,
			Sink:     opts.Sink,
			Recorder: opts.Recorder,
			Log:      opts.Log,
			OnFeed:   d.hub.Publish,
		})
		s := device.NewSession(ctrl)
		d.sessions = append(d.sessions, s)
		d.byName[dc.Name] = s
		d.byAddress[strings.ToUpper(dc.Address)] = s
	}
	return d, nil
}

// Hub returns the feed hub
func (d *Daemon) Hub() *Hub {
	return d.hub
}

// Run starts every session, connects each device once and serves the
// socket until ctx ends. Every session disconnects before Run returns.
func (d *Daemon) Run(ctx context.Context) error {
	ln, err := listen(d.socket)
	if err != nil {
		return err
	}
	defer os.Remove(d.socket)

	g, gctx := errgroup.WithContext(ctx)

	for _, s := range d.sessions {
		s := s
		g.Go(func() error {
			return s.Run(gctx)
		})
		g.Go(func() error {
			d.connect(gctx, s)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		return ln.Close()
	})
	g.Go(func() error {
		return d.serve(gctx, ln)
	})

	d.log.Info().Str("socket", d.socket).Int("devices", len(d.sessions)).Msg("daemon listening")
	err = g.Wait()
	d.log.Info().Msg("daemon stopped")
	return err
}

func listen(path string) (net.Listener, error) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("remove stale socket %s: %w", path, err)
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", path, err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		ln.Close()
		return nil, fmt.Errorf("chmod %s: %w", path, err)
	}
	return ln, nil
}

// connect makes one attempt. On failure the device stays disconnected until
// a client asks again.
func (d *Daemon) connect(ctx context.Context, s *device.Session) error {
	cctx, cancel := context.WithTimeout(ctx, d.connectTimeout)
	defer cancel()
	err := s.Connect(cctx)
	if err != nil && ctx.Err() == nil {
		d.log.Error().Err(err).Str("device", s.Address()).Msg("connect failed")
	}
	return err
}

func (d *Daemon) serve(ctx context.Context, ln net.Listener) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.handleConn(ctx, conn)
		}()
	}
}

func (d *Daemon) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	reader := bufio.NewReaderSize(conn, 4096)
	enc := json.NewEncoder(conn)

	line, err := readLine(reader)
	if err != nil {
		if ctx.Err() == nil {
			enc.Encode(errorResponse(fmt.Errorf("%w: %w", ErrBadRequest, err)))
		}
		return
	}
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		enc.Encode(errorResponse(fmt.Errorf("%w: %w", ErrBadRequest, err)))
		return
	}

	if req.Command == CmdWatch {
		d.watch(ctx, conn, reader, enc, req)
		return
	}

	resp := d.Handle(ctx, req)
	if err := enc.Encode(resp); err != nil {
		d.log.Debug().Err(err).Msg("write response failed")
	}
}

func readLine(r *bufio.Reader) ([]byte, error) {
	var line []byte
	for {
		chunk, isPrefix, err := r.ReadLine()
		if err != nil {
			return nil, err
		}
		line = append(line, chunk...)
		if len(line) > maxRequestSize {
			return nil, fmt.Errorf("request exceeds %d bytes", maxRequestSize)
		}
		if !isPrefix {
			return line, nil
		}
	}
}

// watch streams feed events until the client hangs up or the daemon stops
func (d *Daemon) watch(ctx context.Context, conn net.Conn, r *bufio.Reader, enc *json.Encoder, req Request) {
	events, cancel := d.hub.Subscribe(req.Replay)
	defer cancel()

	if err := enc.Encode(Response{OK: true}); err != nil {
		return
	}

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		// the client sends nothing more; any read result means it left
		r.ReadByte()
	}()

	only := strings.ToUpper(strings.TrimSpace(req.Device))
	for {
		select {
		case <-ctx.Done():
			return
		case <-gone:
			return
		case ev := <-events:
			if only != "" && strings.ToUpper(ev.Device) != only {
				continue
			}
			if err := enc.Encode(Response{OK: true, Event: &ev}); err != nil {
				d.log.Debug().Err(err).Msg("watcher write failed")
				return
			}
		}
	}
}

func (d *Daemon) session(selector string) (*device.Session, error) {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		if len(d.sessions) == 1 {
			return d.sessions[0], nil
		}
		return nil, fmt.Errorf("%w: %d devices configured, name one", ErrUnknownDevice, len(d.sessions))
	}
	if s, ok := d.byName[selector]; ok {
		return s, nil
	}
	if s, ok := d.byAddress[strings.ToUpper(selector)]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDevice, selector)
}

// Handle executes one request against the sessions
func (d *Daemon) Handle(ctx context.Context, req Request) Response {
	if req.Command == CmdStatus && strings.TrimSpace(req.Device) == "" {
		statuses := make([]device.Status, 0, len(d.sessions))
		for _, s := range d.sessions {
			st, err := s.Status(ctx)
			if err != nil {
				return errorResponse(err)
			}
			statuses = append(statuses, st)
		}
		return Response{OK: true, Devices: statuses}
	}

	s, err := d.session(req.Device)
	if err != nil {
		return errorResponse(err)
	}

	switch req.Command {
	case CmdStatus:
	case CmdConnect:
		err = d.connect(ctx, s)
	default:
		op, opErr := operation(req)
		if opErr != nil {
			return errorResponse(opErr)
		}
		err = s.Do(ctx, op)
	}
	if err != nil {
		d.log.Warn().Err(err).Str("command", req.Command).Str("device", s.Address()).Msg("request failed")
		return errorResponse(err)
	}

	st, err := s.Status(ctx)
	if err != nil {
		return errorResponse(err)
	}
	return Response{OK: true, Devices: []device.Status{st}}
}

func operation(req Request) (func(*device.Controller) error, error) {
	switch req.Command {
	case CmdDisconnect:
		return (*device.Controller).Disconnect, nil
	case CmdPing:
		return (*device.Controller).Ping, nil
	case CmdLaser:
		return (*device.Controller).LaserTrigger, nil
	case CmdPhoto:
		return (*device.Controller).PhotoresistorRequest, nil
	case CmdVibrate:
		return func(c *device.Controller) error { return c.Vibrate(req.Millis) }, nil
	case CmdMorse:
		return func(c *device.Controller) error { return c.Morse(req.Text) }, nil
	case CmdPoint:
		return func(c *device.Controller) error { return c.PointTo(req.Text) }, nil
	case CmdMode:
		mode, err := chord.ParseMode(req.Mode)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", device.ErrInvalidArgument, err)
		}
		return func(c *device.Controller) error { return c.SetMode(mode) }, nil
	default:
		return nil, fmt.Errorf("%w: unknown command %q", ErrBadRequest, req.Command)
	}
}
