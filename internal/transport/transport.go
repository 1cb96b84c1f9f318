// Package transport moves encoded packets between the host and devices.
//
// A Transport is addressed by device address. Connect hands it a Link; every
// packet read from the device is delivered to Link.Receive and a connection
// lost without a Disconnect call is reported once through Link.Fail. Both are
// called from the transport's reader goroutine.
package transport

import (
	"context"
	"errors"
)

var (
	ErrNotConnected   = errors.New("transport: not connected")
	ErrUnknownAddress = errors.New("transport: no endpoint configured for address")
)

// Link receives what a transport reads for one address
type Link interface {
	Receive(packet []byte)
	Fail(err error)
}

// Transport is the connect/send/disconnect capability a device session uses
type Transport interface {
	Connect(ctx context.Context, address string, link Link) error
	Send(address string, packet []byte) error
	Disconnect(address string) error
}

// LinkFuncs adapts two functions to a Link
type LinkFuncs struct {
	OnReceive func(packet []byte)
	OnFail    func(err error)
}

func (l LinkFuncs) Receive(packet []byte) {
	if l.OnReceive != nil {
		l.OnReceive(packet)
	}
}

func (l LinkFuncs) Fail(err error) {
	if l.OnFail != nil {
		l.OnFail(err)
	}
}
