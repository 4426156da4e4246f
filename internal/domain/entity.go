package domain

// StreamKind is the semantic name of a platform audio stream as the host
// application spells it.
type StreamKind string

const (
	StreamVoiceCall    StreamKind = "call"
	StreamSystem       StreamKind = "system"
	StreamRing         StreamKind = "ring"
	StreamMusic        StreamKind = "music"
	StreamAlarm        StreamKind = "alarm"
	StreamNotification StreamKind = "notification"
)

// StreamKinds lists every recognized stream in event order.
var StreamKinds = []StreamKind{
	StreamVoiceCall,
	StreamSystem,
	StreamRing,
	StreamMusic,
	StreamAlarm,
	StreamNotification,
}

// Stream is the platform identifier of an audio stream.
// Values follow the Android AudioManager numbering.
type Stream int

const (
	PlatformStreamVoiceCall    Stream = 0
	PlatformStreamSystem       Stream = 1
	PlatformStreamRing         Stream = 2
	PlatformStreamMusic        Stream = 3
	PlatformStreamAlarm        Stream = 4
	PlatformStreamNotification Stream = 5
)

func (s Stream) String() string {
	switch s {
	case PlatformStreamVoiceCall:
		return "STREAM_VOICE_CALL"
	case PlatformStreamSystem:
		return "STREAM_SYSTEM"
	case PlatformStreamRing:
		return "STREAM_RING"
	case PlatformStreamMusic:
		return "STREAM_MUSIC"
	case PlatformStreamAlarm:
		return "STREAM_ALARM"
	case PlatformStreamNotification:
		return "STREAM_NOTIFICATION"
	default:
		return "STREAM_UNKNOWN"
	}
}

// Flags is the bit set passed along with a stream volume write.
type Flags int

const (
	FlagShowUI    Flags = 1 << 0
	FlagPlaySound Flags = 1 << 2
)

// Has reports whether all bits of f are set.
func (fl Flags) Has(f Flags) bool {
	return fl&f == f
}

// VolumeConfig carries the options of a set-volume call.
type VolumeConfig struct {
	Type      string `json:"type"`
	PlaySound bool   `json:"playSound"`
	ShowUI    bool   `json:"showUI"`
}

// SetVolumeRequest is a normalized value plus the options to write it with.
type SetVolumeRequest struct {
	Value  float64 `json:"value"`
	Config VolumeConfig `json:"config"`
}

// EventVolume is the name under which volume changes are emitted to the host.
const EventVolume = "EventVolume"

// VolumeChangedEvent carries the normalized level of every stream.
// Value duplicates Music.
type VolumeChangedEvent struct {
	Value        float64 `json:"value"`
	Call         float64 `json:"call"`
	System       float64 `json:"system"`
	Ring         float64 `json:"ring"`
	Music        float64 `json:"music"`
	Alarm        float64 `json:"alarm"`
	Notification float64 `json:"notification"`
}

// Fields returns the event as a key/value map, the shape hosts without
// struct support consume.
func (e VolumeChangedEvent) Fields() map[string]float64 {
	return map[string]float64{
		"value":                    e.Value,
		string(StreamVoiceCall):    e.Call,
		string(StreamSystem):       e.System,
		string(StreamRing):         e.Ring,
		string(StreamMusic):        e.Music,
		string(StreamAlarm):        e.Alarm,
		string(StreamNotification): e.Notification,
	}
}
