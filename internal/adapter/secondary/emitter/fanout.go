package emitter

import (
	"errors"

	"volume-bridge/internal/domain"
)

// Fanout sends every event to all of its emitters.
type Fanout []domain.EventEmitter

// Emit reports ErrEmitterNotReady only when no emitter took the event.
// Other failures are joined.
func (f Fanout) Emit(name string, event domain.VolumeChangedEvent) error {
	var errs []error
	delivered := false
	for _, e := range f {
		err := e.Emit(name, event)
		switch {
		case err == nil:
			delivered = true
		case errors.Is(err, domain.ErrEmitterNotReady):
		default:
			errs = append(errs, err)
		}
	}
	if !delivered && len(errs) == 0 {
		return domain.ErrEmitterNotReady
	}
	return errors.Join(errs...)
}
