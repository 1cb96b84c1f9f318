package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/studiowebux/typeatron/internal/device"
)

// Client talks to a running daemon
type Client struct {
	socket string
}

func NewClient(socket string) *Client {
	return &Client{socket: socket}
}

func (c *Client) dial(ctx context.Context) (net.Conn, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "unix", c.socket)
	if err != nil {
		return nil, fmt.Errorf("connect to daemon: %w (is `typeatron daemon` running?)", err)
	}
	return conn, nil
}

// Call sends one request and waits for the answer. A failure reported by
// the daemon is returned as a *RemoteError.
func (c *Client) Call(ctx context.Context, req Request) (Response, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return Response{}, err
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return Response{}, fmt.Errorf("send request: %w", err)
	}

	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		if ctx.Err() != nil {
			return Response{}, ctx.Err()
		}
		return Response{}, fmt.Errorf("read response: %w", err)
	}
	if !resp.OK {
		return resp, &RemoteError{Code: resp.Code, Message: resp.Error}
	}
	return resp, nil
}

// Watch streams feed events to fn until ctx ends, the daemon stops or fn
// returns an error. An empty selector watches every device.
func (c *Client) Watch(ctx context.Context, selector string, replay bool, fn func(device.FeedEvent) error) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	req := Request{Command: CmdWatch, Device: selector, Replay: replay}
	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return fmt.Errorf("send request: %w", err)
	}

	dec := json.NewDecoder(bufio.NewReader(conn))
	for {
		var resp Response
		if err := dec.Decode(&resp); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				return errors.New("daemon closed the watch stream")
			}
			return fmt.Errorf("read event: %w", err)
		}
		if !resp.OK {
			return &RemoteError{Code: resp.Code, Message: resp.Error}
		}
		if resp.Event == nil {
			continue
		}
		if err := fn(*resp.Event); err != nil {
			return err
		}
	}
}
