package domain

import "errors"

var (
	// ErrPermissionDenied indicates that the platform refused a stream write
	// because of a security restriction.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrEmitterNotReady indicates that the host cannot accept events yet.
	ErrEmitterNotReady = errors.New("event emitter not ready")

	// ErrUnknownStream indicates that a backend does not know the stream identifier.
	ErrUnknownStream = errors.New("unknown stream")
)
