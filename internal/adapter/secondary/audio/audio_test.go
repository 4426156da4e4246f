package audio

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volume-bridge/internal/domain"
)

type countingReceiver struct {
	n atomic.Int32
}

func (r *countingReceiver) OnVolumeChanged() {
	r.n.Add(1)
}

func TestSimulated_Defaults(t *testing.T) {
	s := NewSimulated(nil)

	max, err := s.StreamMaxVolume(domain.PlatformStreamMusic)
	require.NoError(t, err)
	assert.Equal(t, 15, max)

	level, err := s.StreamVolume(domain.PlatformStreamMusic)
	require.NoError(t, err)
	assert.Equal(t, 7, level)

	_, err = s.StreamVolume(domain.Stream(42))
	assert.ErrorIs(t, err, domain.ErrUnknownStream)
}

func TestSimulated_SetBroadcastsOnChange(t *testing.T) {
	s := NewSimulated(nil)
	r := &countingReceiver{}
	require.NoError(t, s.Register(r))
	require.NoError(t, s.Register(r))
	assert.Equal(t, 1, s.Len())

	require.NoError(t, s.SetStreamVolume(domain.PlatformStreamAlarm, 6, domain.FlagShowUI))
	assert.Equal(t, int32(1), r.n.Load())

	// Same level: no change, no broadcast.
	require.NoError(t, s.SetStreamVolume(domain.PlatformStreamAlarm, 6, 0))
	assert.Equal(t, int32(1), r.n.Load())

	require.NoError(t, s.Unregister(r))
	require.NoError(t, s.SetStreamVolume(domain.PlatformStreamAlarm, 1, 0))
	assert.Equal(t, int32(1), r.n.Load())

	writes := s.Writes()
	require.Len(t, writes, 3)
	assert.Equal(t, Write{Stream: domain.PlatformStreamAlarm, Level: 6, Flags: domain.FlagShowUI}, writes[0])
}

func TestSimulated_ClampsLevel(t *testing.T) {
	s := NewSimulated(nil)
	require.NoError(t, s.SetStreamVolume(domain.PlatformStreamRing, 99, 0))
	level, _ := s.StreamVolume(domain.PlatformStreamRing)
	assert.Equal(t, 7, level)
}

func TestSimulated_DoNotDisturbRequiresPolicyAccess(t *testing.T) {
	s := NewSimulated(nil)
	s.SetDoNotDisturb(true)

	err := s.SetStreamVolume(domain.PlatformStreamRing, 0, 0)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	// Non-zero levels and other streams are unaffected.
	assert.NoError(t, s.SetStreamVolume(domain.PlatformStreamRing, 2, 0))
	assert.NoError(t, s.SetStreamVolume(domain.PlatformStreamMusic, 0, 0))

	s.GrantPolicyAccess(true)
	assert.True(t, s.PolicyAccessGranted())
	assert.NoError(t, s.SetStreamVolume(domain.PlatformStreamNotification, 0, 0))
}

func TestFileService_SeedsAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	f, err := NewFileService(path, nil)
	require.NoError(t, err)
	assert.Equal(t, path, f.Path())

	max, err := f.StreamMaxVolume(domain.PlatformStreamVoiceCall)
	require.NoError(t, err)
	assert.Equal(t, 5, max)

	require.NoError(t, f.SetStreamVolume(domain.PlatformStreamVoiceCall, 9, 0))

	// A second service over the same file sees the clamped write.
	other, err := NewFileService(path, nil)
	require.NoError(t, err)
	level, err := other.StreamVolume(domain.PlatformStreamVoiceCall)
	require.NoError(t, err)
	assert.Equal(t, 5, level)

	_, err = other.StreamVolume(domain.Stream(-1))
	assert.ErrorIs(t, err, domain.ErrUnknownStream)
}

func TestFileService_WatchBroadcasts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	f, err := NewFileService(path, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, f.Watch(ctx))

	r := &countingReceiver{}
	require.NoError(t, f.Register(r))

	require.NoError(t, f.SetStreamVolume(domain.PlatformStreamMusic, 3, 0))
	assert.Eventually(t, func() bool { return r.n.Load() > 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestNewFileService_RequiresPath(t *testing.T) {
	_, err := NewFileService("", nil)
	assert.Error(t, err)
}

func TestAppleScript_MapsStreams(t *testing.T) {
	var scripts []string
	a := &AppleScript{run: func(script string) (string, error) {
		scripts = append(scripts, script)
		return "42", nil
	}}

	level, err := a.StreamVolume(domain.PlatformStreamMusic)
	require.NoError(t, err)
	assert.Equal(t, 42, level)

	require.NoError(t, a.SetStreamVolume(domain.PlatformStreamRing, 30, domain.FlagPlaySound))
	assert.Equal(t, []string{
		"output volume of (get volume settings)",
		"set volume alert volume 30",
	}, scripts)

	max, _ := a.StreamMaxVolume(domain.PlatformStreamAlarm)
	assert.Equal(t, AppleScriptMax, max)

	assert.Error(t, a.SetStreamVolume(domain.PlatformStreamMusic, 101, 0))
}

func TestAppleScript_Errors(t *testing.T) {
	a := &AppleScript{run: func(string) (string, error) {
		return "", errors.New("osascript failed")
	}}
	_, err := a.StreamVolume(domain.PlatformStreamSystem)
	assert.Error(t, err)

	a.run = func(string) (string, error) { return "missing value", nil }
	level, err := a.StreamVolume(domain.PlatformStreamVoiceCall)
	require.NoError(t, err)
	assert.Equal(t, 0, level)

	a.run = func(string) (string, error) { return "loud", nil }
	_, err = a.StreamVolume(domain.PlatformStreamVoiceCall)
	assert.Error(t, err)
}

// stubService lets tests change levels without broadcasting.
type stubService struct {
	mu     sync.Mutex
	levels map[domain.Stream]int
	fail   bool
}

func (s *stubService) StreamVolume(stream domain.Stream) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return 0, fmt.Errorf("stub down")
	}
	return s.levels[stream], nil
}

func (s *stubService) StreamMaxVolume(domain.Stream) (int, error) { return 10, nil }

func (s *stubService) SetStreamVolume(stream domain.Stream, level int, _ domain.Flags) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.levels[stream] = level
	return nil
}

func TestPoller_CheckBroadcastsOnDifference(t *testing.T) {
	svc := &stubService{levels: map[domain.Stream]int{domain.PlatformStreamMusic: 5}}
	p := NewPoller(svc, time.Hour, nil)
	r := &countingReceiver{}
	require.NoError(t, p.Register(r))

	p.Start(context.Background())
	defer p.Stop()

	p.Check()
	assert.Equal(t, int32(0), r.n.Load())

	require.NoError(t, svc.SetStreamVolume(domain.PlatformStreamRing, 3, 0))
	p.Check()
	assert.Equal(t, int32(1), r.n.Load())

	p.Check()
	assert.Equal(t, int32(1), r.n.Load())

	// Failed reads drop the stream from the table, which counts as a change.
	svc.mu.Lock()
	svc.fail = true
	svc.mu.Unlock()
	p.Check()
	assert.Equal(t, int32(2), r.n.Load())
}

func TestPoller_LoopDetectsChange(t *testing.T) {
	svc := &stubService{levels: map[domain.Stream]int{}}
	p := NewPoller(svc, 10*time.Millisecond, nil)
	r := &countingReceiver{}
	require.NoError(t, p.Register(r))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)
	defer p.Stop()

	require.NoError(t, svc.SetStreamVolume(domain.PlatformStreamAlarm, 4, 0))
	assert.Eventually(t, func() bool { return r.n.Load() > 0 }, time.Second, 5*time.Millisecond)
}
