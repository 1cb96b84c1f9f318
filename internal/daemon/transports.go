package daemon

import (
	"github.com/rs/zerolog"

	"github.com/studiowebux/typeatron/internal/config"
	"github.com/studiowebux/typeatron/internal/transport"
)

// Transports builds one transport per configured device. Devices of the same
// kind share an instance; bluez devices go through a BlueZ decorator around
// the shared serial transport. close releases the D-Bus connection.
func Transports(devices []config.DeviceConfig, log zerolog.Logger) (map[string]transport.Transport, func()) {
	wsEndpoints := make(map[string]string)
	serialPaths := make(map[string]string)
	for _, d := range devices {
		switch d.Transport {
		case config.TransportWebSocket:
			wsEndpoints[d.Address] = d.URL
		case config.TransportSerial:
			serialPaths[d.Address] = d.Path
		}
	}

	ws := transport.NewWebSocket(wsEndpoints, log)
	serial := transport.NewSerial(serialPaths, log)
	var bz *transport.BlueZ

	out := make(map[string]transport.Transport, len(devices))
	for _, d := range devices {
		switch {
		case d.Transport == config.TransportWebSocket:
			out[d.Address] = ws
		case d.BlueZ:
			if bz == nil {
				bz = transport.NewBlueZ(serial, log)
			}
			out[d.Address] = bz
		default:
			out[d.Address] = serial
		}
	}

	return out, func() {
		if bz == nil {
			return
		}
		if err := bz.Close(); err != nil {
			log.Debug().Err(err).Msg("bluez close failed")
		}
	}
}
