package transport

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog"
)

const (
	bluezBus          = "org.bluez"
	bluezAdapterPath  = "/org/bluez/hci0"
	bluezAdapterIface = "org.bluez.Adapter1"
	bluezDeviceIface  = "org.bluez.Device1"
	dbusPropsIface    = "org.freedesktop.DBus.Properties"
	dbusPropsSignal   = "org.freedesktop.DBus.Properties.PropertiesChanged"
)

var ErrBluetoothUnavailable = errors.New("transport: bluetooth not ready")

// DeviceObjectPath converts a MAC address like "AA:BB:CC:DD:EE:FF" to its
// BlueZ object path on hci0
func DeviceObjectPath(mac string) dbus.ObjectPath {
	return dbus.ObjectPath(bluezAdapterPath + "/dev_" + strings.ReplaceAll(strings.ToUpper(mac), ":", "_"))
}

// MACFromPath extracts the MAC address from a BlueZ device object path
func MACFromPath(path dbus.ObjectPath) string {
	s := string(path)
	prefix := bluezAdapterPath + "/dev_"
	if !strings.HasPrefix(s, prefix) {
		return ""
	}
	rest := s[len(prefix):]
	// service and characteristic objects live below the device
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	return strings.ReplaceAll(rest, "_", ":")
}

// BlueZ wraps a byte-stream transport whose addresses are Bluetooth MACs.
// Before connecting it checks the adapter and device over D-Bus, and while
// connected it reports a BlueZ-side disconnect as a link failure.
type BlueZ struct {
	inner Transport
	log   zerolog.Logger

	mu      sync.Mutex
	conn    *dbus.Conn
	signals chan *dbus.Signal
	links   map[string]Link
}

// NewBlueZ wraps inner. The system bus is opened lazily on first Connect.
func NewBlueZ(inner Transport, log zerolog.Logger) *BlueZ {
	return &BlueZ{
		inner: inner,
		log:   log.With().Str("transport", "bluez").Logger(),
		links: make(map[string]Link),
	}
}

func (b *BlueZ) bus() (*dbus.Conn, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn != nil {
		return b.conn, nil
	}

	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("%w: connect to system bus: %v", ErrBluetoothUnavailable, err)
	}
	var names []string
	if err := conn.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&names); err != nil {
		return nil, fmt.Errorf("%w: list bus names: %v", ErrBluetoothUnavailable, err)
	}
	found := false
	for _, n := range names {
		if n == bluezBus {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: org.bluez not found on system bus, is bluetooth.service running?", ErrBluetoothUnavailable)
	}

	call := conn.BusObject().Call("org.freedesktop.DBus.AddMatch", 0,
		"type='signal',interface='"+dbusPropsIface+"',member='PropertiesChanged',path_namespace='/org/bluez'")
	if call.Err != nil {
		return nil, fmt.Errorf("%w: subscribe to property changes: %v", ErrBluetoothUnavailable, call.Err)
	}
	b.signals = make(chan *dbus.Signal, 16)
	conn.Signal(b.signals)
	b.conn = conn
	go b.watch(b.signals)
	return conn, nil
}

func getBool(conn *dbus.Conn, path dbus.ObjectPath, iface, prop string) (bool, error) {
	var v dbus.Variant
	if err := conn.Object(bluezBus, path).Call(dbusPropsIface+".Get", 0, iface, prop).Store(&v); err != nil {
		return false, err
	}
	val, ok := v.Value().(bool)
	if !ok {
		return false, fmt.Errorf("property %s is not bool", prop)
	}
	return val, nil
}

func setProp(conn *dbus.Conn, path dbus.ObjectPath, iface, prop string, val any) error {
	return conn.Object(bluezBus, path).Call(dbusPropsIface+".Set", 0, iface, prop, dbus.MakeVariant(val)).Err
}

// preflight checks the adapter is powered and the device paired, and
// unblocks the device if needed
func (b *BlueZ) preflight(conn *dbus.Conn, mac string) error {
	powered, err := getBool(conn, bluezAdapterPath, bluezAdapterIface, "Powered")
	if err != nil {
		return fmt.Errorf("%w: adapter: %v", ErrBluetoothUnavailable, err)
	}
	if !powered {
		return fmt.Errorf("%w: adapter is powered off", ErrBluetoothUnavailable)
	}

	path := DeviceObjectPath(mac)
	paired, err := getBool(conn, path, bluezDeviceIface, "Paired")
	if err != nil {
		return fmt.Errorf("%w: device %s: %v", ErrBluetoothUnavailable, mac, err)
	}
	if !paired {
		return fmt.Errorf("%w: device %s is not paired", ErrBluetoothUnavailable, mac)
	}

	blocked, err := getBool(conn, path, bluezDeviceIface, "Blocked")
	if err == nil && blocked {
		b.log.Info().Str("address", mac).Msg("unblocking device")
		if err := setProp(conn, path, bluezDeviceIface, "Blocked", false); err != nil {
			return fmt.Errorf("%w: unblock %s: %v", ErrBluetoothUnavailable, mac, err)
		}
	}
	return nil
}

// Connect runs the BlueZ preflight, then connects the wrapped transport
func (b *BlueZ) Connect(ctx context.Context, address string, link Link) error {
	conn, err := b.bus()
	if err != nil {
		return err
	}
	if err := b.preflight(conn, address); err != nil {
		return err
	}

	key := strings.ToUpper(address)
	guarded := &onceLink{link: link}
	b.mu.Lock()
	b.links[key] = guarded
	b.mu.Unlock()

	if err := b.inner.Connect(ctx, address, guarded); err != nil {
		b.mu.Lock()
		delete(b.links, key)
		b.mu.Unlock()
		return err
	}
	return nil
}

// Send passes through to the wrapped transport
func (b *BlueZ) Send(address string, packet []byte) error {
	return b.inner.Send(address, packet)
}

// Disconnect stops watching address and disconnects the wrapped transport
func (b *BlueZ) Disconnect(address string) error {
	b.mu.Lock()
	delete(b.links, strings.ToUpper(address))
	b.mu.Unlock()
	return b.inner.Disconnect(address)
}

// Close releases the system bus connection
func (b *BlueZ) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn == nil {
		return nil
	}
	b.conn.RemoveSignal(b.signals)
	err := b.conn.Close()
	b.conn = nil
	return err
}

func (b *BlueZ) watch(ch <-chan *dbus.Signal) {
	for sig := range ch {
		mac, connected, ok := ConnectedChange(sig)
		if !ok || connected {
			continue
		}

		b.mu.Lock()
		link, watched := b.links[mac]
		delete(b.links, mac)
		b.mu.Unlock()
		if !watched {
			continue
		}

		b.log.Warn().Str("address", mac).Msg("device disconnected by bluez")
		if err := b.inner.Disconnect(mac); err != nil {
			b.log.Debug().Err(err).Str("address", mac).Msg("wrapped transport disconnect failed")
		}
		link.Fail(fmt.Errorf("bluez reports %s disconnected", mac))
	}
}

// ConnectedChange extracts a Device1.Connected change from a
// PropertiesChanged signal
func ConnectedChange(sig *dbus.Signal) (mac string, connected bool, ok bool) {
	if sig == nil || sig.Name != dbusPropsSignal {
		return "", false, false
	}
	// Body: [interface_name string, changed_props map[string]Variant, invalidated []string]
	if len(sig.Body) < 2 {
		return "", false, false
	}
	iface, isString := sig.Body[0].(string)
	if !isString || iface != bluezDeviceIface {
		return "", false, false
	}
	changed, isMap := sig.Body[1].(map[string]dbus.Variant)
	if !isMap {
		return "", false, false
	}
	v, present := changed["Connected"]
	if !present {
		return "", false, false
	}
	connected, isBool := v.Value().(bool)
	if !isBool {
		return "", false, false
	}
	mac = MACFromPath(sig.Path)
	if mac == "" {
		return "", false, false
	}
	return mac, connected, true
}

// onceLink forwards at most one failure, since both the wrapped transport
// and the bus watcher may notice the same disconnect
type onceLink struct {
	link Link
	once sync.Once
}

func (l *onceLink) Receive(packet []byte) {
	l.link.Receive(packet)
}

func (l *onceLink) Fail(err error) {
	l.once.Do(func() { l.link.Fail(err) })
}
