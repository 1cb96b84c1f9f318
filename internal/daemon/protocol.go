package daemon

import (
	"errors"

	"github.com/studiowebux/typeatron/internal/device"
)

// Commands understood by the daemon
const (
	CmdStatus     = "status"
	CmdConnect    = "connect"
	CmdDisconnect = "disconnect"
	CmdPing       = "ping"
	CmdVibrate    = "vibrate"
	CmdMorse      = "morse"
	CmdLaser      = "laser"
	CmdPhoto      = "photo"
	CmdPoint      = "point"
	CmdMode       = "mode"
	CmdWatch      = "watch"
)

// Request is one newline-terminated JSON line sent by a client
type Request struct {
	Command string `json:"command"`
	Device  string `json:"device,omitempty"` // name or address; empty means the only device
	Millis  int    `json:"ms,omitempty"`
	Text    string `json:"text,omitempty"`
	Mode    string `json:"mode,omitempty"`
	Replay  bool   `json:"replay,omitempty"` // watch: send recent events first
}

// Response answers a Request. A watch stream is a sequence of responses,
// each carrying one Event.
type Response struct {
	OK      bool              `json:"ok"`
	Devices []device.Status   `json:"devices,omitempty"`
	Event   *device.FeedEvent `json:"event,omitempty"`
	Error   string            `json:"error,omitempty"`
	Code    string            `json:"code,omitempty"`
}

// Error codes carried in Response.Code
const (
	CodeInvalidArgument  = "invalid_argument"
	CodeNotConnected     = "not_connected"
	CodeTransportFailure = "transport_failure"
	CodeUnknownDevice    = "unknown_device"
	CodeBadRequest       = "bad_request"
	CodeInternal         = "internal"
)

var (
	ErrUnknownDevice = errors.New("unknown device")
	ErrBadRequest    = errors.New("bad request")
)

func errorCode(err error) string {
	switch {
	case errors.Is(err, device.ErrNotConnected):
		return CodeNotConnected
	case errors.Is(err, device.ErrInvalidArgument):
		return CodeInvalidArgument
	case errors.Is(err, device.ErrTransportFailure):
		return CodeTransportFailure
	case errors.Is(err, ErrUnknownDevice):
		return CodeUnknownDevice
	case errors.Is(err, ErrBadRequest):
		return CodeBadRequest
	default:
		return CodeInternal
	}
}

func errorResponse(err error) Response {
	return Response{Error: err.Error(), Code: errorCode(err)}
}

// RemoteError is a failure reported by the daemon
type RemoteError struct {
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}

// Is lets errors.Is match a RemoteError against the device sentinels
func (e *RemoteError) Is(target error) bool {
	switch e.Code {
	case CodeNotConnected:
		return target == device.ErrNotConnected || target == device.ErrTransportFailure
	case CodeTransportFailure:
		return target == device.ErrTransportFailure
	case CodeInvalidArgument:
		return target == device.ErrInvalidArgument
	case CodeUnknownDevice:
		return target == ErrUnknownDevice
	case CodeBadRequest:
		return target == ErrBadRequest
	}
	return false
}
