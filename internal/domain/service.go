package domain

import "math"

// PolicyAccessMinVersion is the first platform version with notification
// policy access.
const PolicyAccessMinVersion = 23

// ResolveStream maps a stream name to its platform identifier.
// Unrecognized names resolve to music.
func ResolveStream(name string) Stream {
	switch StreamKind(name) {
	case StreamVoiceCall:
		return PlatformStreamVoiceCall
	case StreamSystem:
		return PlatformStreamSystem
	case StreamRing:
		return PlatformStreamRing
	case StreamAlarm:
		return PlatformStreamAlarm
	case StreamNotification:
		return PlatformStreamNotification
	default:
		return PlatformStreamMusic
	}
}

// ComputeFlags builds the write flags for a set-volume call.
func ComputeFlags(playSound, showUI bool) Flags {
	var flags Flags
	if playSound {
		flags |= FlagPlaySound
	}
	if showUI {
		flags |= FlagShowUI
	}
	return flags
}

// RawLevel converts a normalized value to a raw level. The product is
// truncated toward zero, so 0.5 on a stream with max 15 yields 7.
// Values outside [0,1] are clamped first.
func RawLevel(value float64, max int) int {
	if math.IsNaN(value) || value < 0 {
		value = 0
	}
	if value > 1 {
		value = 1
	}
	return int(value * float64(max))
}

// Normalize returns current/max. A stream without range normalizes to 0.
func Normalize(current, max int) float64 {
	if max <= 0 || current <= 0 {
		return 0
	}
	if current >= max {
		return 1
	}
	return float64(current) / float64(max)
}
