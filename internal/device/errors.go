package device

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument  = errors.New("device: invalid argument")
	ErrMalformedMessage = errors.New("device: malformed message")
	ErrTransportFailure = errors.New("device: transport failure")

	// ErrNotConnected is a transport failure raised before anything is sent
	ErrNotConnected = fmt.Errorf("%w: not connected", ErrTransportFailure)

	ErrSessionClosed = errors.New("device: session closed")
)
