package transport

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/studiowebux/typeatron/internal/wire"
)

// Serial talks SLIP-framed packets over a character device such as
// /dev/rfcomm0. Connect waits for the node to appear.
type Serial struct {
	mu    sync.Mutex
	paths map[string]string
	ports map[string]*serialPort
	log   zerolog.Logger
}

type serialPort struct {
	file    *os.File
	enc     *wire.SLIPEncoder
	writeMu sync.Mutex
	closing atomic.Bool
}

// NewSerial creates a transport for the given address -> device path map
func NewSerial(paths map[string]string, log zerolog.Logger) *Serial {
	p := make(map[string]string, len(paths))
	for addr, path := range paths {
		p[addr] = path
	}
	return &Serial{
		paths: p,
		ports: make(map[string]*serialPort),
		log:   log.With().Str("transport", "serial").Logger(),
	}
}

// Connect opens the device node for address, waiting until it exists or ctx
// ends
func (s *Serial) Connect(ctx context.Context, address string, link Link) error {
	s.mu.Lock()
	path, ok := s.paths[address]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAddress, address)
	}

	if err := s.Disconnect(address); err != nil {
		s.log.Warn().Err(err).Str("address", address).Msg("failed to close previous port")
	}

	if err := waitForPath(ctx, path); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	if err := makeRaw(f); err != nil {
		s.log.Debug().Err(err).Str("path", path).Msg("leaving line discipline unchanged")
	}

	p := &serialPort{file: f, enc: wire.NewSLIPEncoder(f)}
	s.mu.Lock()
	s.ports[address] = p
	s.mu.Unlock()

	s.log.Info().Str("address", address).Str("path", path).Msg("port opened")
	go s.receive(address, p, link)
	return nil
}

func (s *Serial) receive(address string, p *serialPort, link Link) {
	dec := wire.NewSLIPDecoder(p.file)
	for {
		frame, err := dec.Decode()
		if err != nil {
			if p.closing.Load() {
				return
			}
			if errors.Is(err, wire.ErrFrameTooLarge) {
				s.log.Warn().Err(err).Str("address", address).Msg("dropping oversized frame")
				continue
			}
			s.mu.Lock()
			if s.ports[address] == p {
				delete(s.ports, address)
			}
			s.mu.Unlock()
			p.file.Close()
			s.log.Warn().Err(err).Str("address", address).Msg("port lost")
			link.Fail(err)
			return
		}
		link.Receive(frame)
	}
}

// Send writes packet as one SLIP frame
func (s *Serial) Send(address string, packet []byte) error {
	s.mu.Lock()
	p, ok := s.ports[address]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotConnected, address)
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if err := p.enc.Encode(packet); err != nil {
		return fmt.Errorf("failed to write to %s: %w", address, err)
	}
	return nil
}

// Disconnect closes the port for address. Unknown addresses are a no-op.
func (s *Serial) Disconnect(address string) error {
	s.mu.Lock()
	p, ok := s.ports[address]
	delete(s.ports, address)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	p.closing.Store(true)
	s.log.Info().Str("address", address).Msg("port closed")
	return p.file.Close()
}

// waitForPath returns once path exists. It watches the parent directory
// rather than polling.
func waitForPath(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}
	// the node may have appeared before the watch was in place
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	for {
		select {
		case ev := <-watcher.Events:
			if !ev.Has(fsnotify.Create) || filepath.Clean(ev.Name) != filepath.Clean(path) {
				continue
			}
			if _, err := os.Stat(path); err == nil {
				return nil
			} else if !os.IsNotExist(err) {
				return err
			}
		case err := <-watcher.Errors:
			return err
		case <-ctx.Done():
			return fmt.Errorf("waiting for %s: %w", path, ctx.Err())
		}
	}
}
