package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveStream(t *testing.T) {
	tests := []struct {
		name string
		want Stream
	}{
		{"call", PlatformStreamVoiceCall},
		{"system", PlatformStreamSystem},
		{"ring", PlatformStreamRing},
		{"music", PlatformStreamMusic},
		{"alarm", PlatformStreamAlarm},
		{"notification", PlatformStreamNotification},
		{"", PlatformStreamMusic},
		{"Music", PlatformStreamMusic},
		{"voice_call", PlatformStreamMusic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveStream(tt.name))
		})
	}
}

func TestResolveStream_Distinct(t *testing.T) {
	seen := make(map[Stream]StreamKind)
	for _, kind := range StreamKinds {
		s := ResolveStream(string(kind))
		prev, dup := seen[s]
		assert.False(t, dup, "%s and %s share %s", prev, kind, s)
		seen[s] = kind
	}
	assert.Len(t, seen, 6)
}

func TestComputeFlags(t *testing.T) {
	assert.Equal(t, Flags(0), ComputeFlags(false, false))

	flags := ComputeFlags(false, true)
	assert.True(t, flags.Has(FlagShowUI))
	assert.False(t, flags.Has(FlagPlaySound))

	flags = ComputeFlags(true, true)
	assert.True(t, flags.Has(FlagShowUI))
	assert.True(t, flags.Has(FlagPlaySound))
}

func TestRawLevel(t *testing.T) {
	assert.Equal(t, 7, RawLevel(0.5, 15))
	assert.Equal(t, 15, RawLevel(1, 15))
	assert.Equal(t, 0, RawLevel(0, 15))
	assert.Equal(t, 0, RawLevel(-0.2, 15))
	assert.Equal(t, 7, RawLevel(1.7, 7))
	assert.Equal(t, 4, RawLevel(0.99, 5))
}

func TestNormalize(t *testing.T) {
	assert.InDelta(t, 0.4, Normalize(6, 15), 1e-9)
	assert.Equal(t, 0.0, Normalize(3, 0))
	assert.Equal(t, 1.0, Normalize(15, 15))
	assert.Equal(t, 0.0, Normalize(0, 7))
}

func TestRawLevelRoundTripWithinOneStep(t *testing.T) {
	for _, max := range []int{5, 7, 15, 100} {
		for i := 0; i <= 20; i++ {
			v := float64(i) / 20
			got := Normalize(RawLevel(v, max), max)
			assert.LessOrEqual(t, v-got, 1/float64(max)+1e-9)
			assert.GreaterOrEqual(t, v-got, -1e-9)
		}
	}
}

func TestVolumeChangedEventFields(t *testing.T) {
	ev := VolumeChangedEvent{Value: 0.5, Music: 0.5, Call: 0.2, Ring: 1}
	fields := ev.Fields()
	assert.Len(t, fields, 7)
	assert.Equal(t, fields["value"], fields["music"])
	assert.Equal(t, 0.2, fields["call"])
}
