package emitter

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"

	"volume-bridge/internal/domain"
)

// D-Bus identifiers under which volume events are signalled.
const (
	DBusPath      = dbus.ObjectPath("/org/volumebridge/VolumeManager")
	DBusInterface = "org.volumebridge.VolumeManager"
)

// DBus implements domain.EventEmitter as session-bus signals with an a{sd}
// payload. Until Connect succeeds every Emit reports ErrEmitterNotReady.
type DBus struct {
	logger *slog.Logger

	mu   sync.RWMutex
	conn *dbus.Conn
}

// NewDBus creates an unconnected D-Bus emitter.
func NewDBus(logger *slog.Logger) *DBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &DBus{logger: logger}
}

// Connect attaches to the shared session bus.
func (d *DBus) Connect() error {
	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	d.mu.Lock()
	d.conn = conn
	d.mu.Unlock()
	d.logger.Info("connected to session bus", "path", DBusPath)
	return nil
}

// Disconnect forgets the connection. The session bus is shared, so it is
// not closed.
func (d *DBus) Disconnect() {
	d.mu.Lock()
	d.conn = nil
	d.mu.Unlock()
}

// Emit sends DBusInterface.<name> with the event fields.
func (d *DBus) Emit(name string, event domain.VolumeChangedEvent) error {
	d.mu.RLock()
	conn := d.conn
	d.mu.RUnlock()
	if conn == nil {
		return domain.ErrEmitterNotReady
	}

	if err := conn.Emit(DBusPath, DBusInterface+"."+name, event.Fields()); err != nil {
		return fmt.Errorf("failed to emit %s signal: %w", name, err)
	}
	d.logger.Debug("emitted signal", "name", name, "music", event.Music)
	return nil
}
