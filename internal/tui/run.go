package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/studiowebux/typeatron/internal/daemon"
	"github.com/studiowebux/typeatron/internal/device"
)

// Run starts the monitor against a running daemon
func Run(ctx context.Context, client *daemon.Client, selector string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan device.FeedEvent, eventBuffer)
	ended := make(chan error, 1)
	go func() {
		ended <- client.Watch(ctx, selector, true, func(ev device.FeedEvent) error {
			select {
			case events <- ev:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()

	p := tea.NewProgram(New(client, selector, events, ended), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("monitor: %w", err)
	}
	return nil
}
