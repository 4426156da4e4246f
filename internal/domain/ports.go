package domain

// AudioService is a secondary port that reads and writes raw stream levels.
// This interface is defined in the domain layer and implemented by adapters.
type AudioService interface {
	StreamVolume(stream Stream) (int, error)
	StreamMaxVolume(stream Stream) (int, error)
	SetStreamVolume(stream Stream, level int, flags Flags) error
}

// Receiver is notified whenever any stream volume changes, for any reason.
type Receiver interface {
	OnVolumeChanged()
}

// BroadcastSource is a secondary port that delivers volume-change
// notifications to registered receivers.
type BroadcastSource interface {
	Register(r Receiver) error
	Unregister(r Receiver) error
}

// EventEmitter is a secondary port that forwards events to the host.
// Emit returns ErrEmitterNotReady while the host is still initializing.
type EventEmitter interface {
	Emit(name string, event VolumeChangedEvent) error
}

// PolicyAccess isolates the notification-policy permission heuristic.
type PolicyAccess interface {
	// RequiresPolicyAccess reports whether the running platform version
	// gates volume-zero writes behind notification policy access.
	RequiresPolicyAccess() bool
	PolicyAccessGranted() bool
	// OpenPolicyAccessSettings launches the grant screen without waiting for it.
	OpenPolicyAccessSettings() error
}
