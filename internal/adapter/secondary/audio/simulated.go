package audio

import (
	"fmt"
	"sync"

	"volume-bridge/internal/domain"
)

// DefaultMaxVolumes are the stream maxima of a stock Android device.
var DefaultMaxVolumes = map[domain.Stream]int{
	domain.PlatformStreamVoiceCall:    5,
	domain.PlatformStreamSystem:       7,
	domain.PlatformStreamRing:         7,
	domain.PlatformStreamMusic:        15,
	domain.PlatformStreamAlarm:        7,
	domain.PlatformStreamNotification: 7,
}

// Simulated implements domain.AudioService and domain.BroadcastSource with
// an in-memory stream table. Every level change is broadcast synchronously,
// including changes made through this service.
type Simulated struct {
	receiverSet

	mu     sync.Mutex
	levels map[domain.Stream]int
	max    map[domain.Stream]int

	// In do-not-disturb mode zeroing ring or notification needs policy access.
	doNotDisturb  bool
	policyGranted bool
	writes        []Write
}

// Write records one accepted SetStreamVolume call.
type Write struct {
	Stream domain.Stream
	Level  int
	Flags  domain.Flags
}

// NewSimulated creates a device with the given maxima, every stream at half
// of its range. A nil map selects DefaultMaxVolumes.
func NewSimulated(maxima map[domain.Stream]int) *Simulated {
	if maxima == nil {
		maxima = DefaultMaxVolumes
	}
	s := &Simulated{
		levels: make(map[domain.Stream]int, len(maxima)),
		max:    make(map[domain.Stream]int, len(maxima)),
	}
	for stream, m := range maxima {
		s.max[stream] = m
		s.levels[stream] = m / 2
	}
	return s
}

// StreamVolume returns the raw level of stream.
func (s *Simulated) StreamVolume(stream domain.Stream) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	level, ok := s.levels[stream]
	if !ok {
		return 0, fmt.Errorf("%w: %d", domain.ErrUnknownStream, stream)
	}
	return level, nil
}

// StreamMaxVolume returns the maximum raw level of stream.
func (s *Simulated) StreamMaxVolume(stream domain.Stream) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	limit, ok := s.max[stream]
	if !ok {
		return 0, fmt.Errorf("%w: %d", domain.ErrUnknownStream, stream)
	}
	return limit, nil
}

// SetStreamVolume stores level, clamped to the stream range, and notifies
// registered receivers when it changed.
func (s *Simulated) SetStreamVolume(stream domain.Stream, level int, flags domain.Flags) error {
	s.mu.Lock()
	limit, ok := s.max[stream]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %d", domain.ErrUnknownStream, stream)
	}
	if level == 0 && s.doNotDisturb && !s.policyGranted &&
		(stream == domain.PlatformStreamRing || stream == domain.PlatformStreamNotification) {
		s.mu.Unlock()
		return fmt.Errorf("set %s to 0 in do-not-disturb: %w", stream, domain.ErrPermissionDenied)
	}
	level = min(max(level, 0), limit)
	changed := s.levels[stream] != level
	s.levels[stream] = level
	s.writes = append(s.writes, Write{Stream: stream, Level: level, Flags: flags})
	s.mu.Unlock()

	if changed {
		s.broadcast()
	}
	return nil
}

// SetDoNotDisturb toggles the mode in which zeroing ring or notification
// requires notification policy access.
func (s *Simulated) SetDoNotDisturb(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doNotDisturb = on
}

// GrantPolicyAccess records whether notification policy access was granted.
func (s *Simulated) GrantPolicyAccess(granted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policyGranted = granted
}

// PolicyAccessGranted reports the grant recorded by GrantPolicyAccess.
func (s *Simulated) PolicyAccessGranted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.policyGranted
}

// Writes returns the accepted writes in order.
func (s *Simulated) Writes() []Write {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Write(nil), s.writes...)
}
