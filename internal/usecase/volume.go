package usecase

import (
	"errors"
	"sync"

	"volume-bridge/internal/domain"
	"volume-bridge/internal/logging"
)

// VolumeUseCase is the primary port for volume operations.
// This represents the application's use cases.
type VolumeUseCase interface {
	GetVolume(streamType string) float64
	SetVolume(value float64, config domain.VolumeConfig)
	Snapshot() domain.VolumeChangedEvent

	HostResume()
	HostPause()
	HostDestroy()
	Registered() bool
}

// volumeInteractor implements VolumeUseCase.
// It depends only on domain layer and secondary ports.
type volumeInteractor struct {
	audio   domain.AudioService
	source  domain.BroadcastSource
	emitter domain.EventEmitter
	policy  domain.PolicyAccess

	// mu serializes every call the way a single host dispatch context would.
	mu         sync.Mutex
	receiver   *volumeReceiver
	registered bool
}

// volumeReceiver is the object handed to the broadcast source. It is a
// separate value so the source never sees the interactor itself.
type volumeReceiver struct {
	owner *volumeInteractor
}

func (r *volumeReceiver) OnVolumeChanged() {
	r.owner.onVolumeChanged()
}

// NewVolumeUseCase creates the volume adapter.
// Dependencies are injected (secondary ports). The receiver starts
// unregistered; HostResume registers it.
func NewVolumeUseCase(
	audio domain.AudioService,
	source domain.BroadcastSource,
	emitter domain.EventEmitter,
	policy domain.PolicyAccess,
) (VolumeUseCase, error) {
	if audio == nil || source == nil || emitter == nil || policy == nil {
		return nil, errors.New("audio, source, emitter and policy are required")
	}
	uc := &volumeInteractor{
		audio:   audio,
		source:  source,
		emitter: emitter,
		policy:  policy,
	}
	uc.receiver = &volumeReceiver{owner: uc}
	return uc, nil
}

// GetVolume returns the normalized level of the named stream.
func (v *volumeInteractor) GetVolume(streamType string) float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.normalized(domain.ResolveStream(streamType))
}

// SetVolume writes a normalized level. Failures are logged, never returned.
func (v *volumeInteractor) SetVolume(value float64, config domain.VolumeConfig) {
	v.mu.Lock()
	defer v.mu.Unlock()

	// Our own write would otherwise echo back as a change event.
	v.unregister()
	defer v.register()

	stream := domain.ResolveStream(config.Type)
	flags := domain.ComputeFlags(config.PlaySound, config.ShowUI)

	max, err := v.audio.StreamMaxVolume(stream)
	if err != nil {
		logging.Errorf("setVolume: read max of %s: %v", stream, err)
		return
	}
	level := domain.RawLevel(value, max)
	logging.Debugf("setVolume %s=%d/%d flags=%d", stream, level, max, flags)

	err = v.audio.SetStreamVolume(stream, level, flags)
	if err == nil {
		return
	}
	if errors.Is(err, domain.ErrPermissionDenied) && value == 0 {
		logging.Warnf("setVolume(0) failed on %s; notification policy access may be missing", stream)
		if v.policy.RequiresPolicyAccess() && !v.policy.PolicyAccessGranted() {
			if lerr := v.policy.OpenPolicyAccessSettings(); lerr != nil {
				logging.Errorf("open policy access settings: %v", lerr)
			}
		}
	}
	logging.Errorf("setVolume %s: %v", stream, err)
}

// Snapshot returns the normalized level of every stream.
func (v *volumeInteractor) Snapshot() domain.VolumeChangedEvent {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshot()
}

// HostResume registers the change receiver when the host comes to the foreground.
func (v *volumeInteractor) HostResume() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.register()
}

// HostPause unregisters the change receiver when the host goes to the background.
func (v *volumeInteractor) HostPause() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.unregister()
}

// HostDestroy does nothing; HostPause has already released the receiver.
func (v *volumeInteractor) HostDestroy() {}

// Registered reports whether the change receiver is registered.
func (v *volumeInteractor) Registered() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.registered
}

func (v *volumeInteractor) register() {
	if v.registered {
		return
	}
	if err := v.source.Register(v.receiver); err != nil {
		logging.Errorf("register volume receiver: %v", err)
		return
	}
	v.registered = true
	logging.Tracef("volume receiver registered")
}

func (v *volumeInteractor) unregister() {
	if !v.registered {
		return
	}
	if err := v.source.Unregister(v.receiver); err != nil {
		logging.Errorf("unregister volume receiver: %v", err)
		return
	}
	v.registered = false
	logging.Tracef("volume receiver unregistered")
}

func (v *volumeInteractor) onVolumeChanged() {
	v.mu.Lock()
	if !v.registered {
		v.mu.Unlock()
		return
	}
	event := v.snapshot()
	v.mu.Unlock()

	if err := v.emitter.Emit(domain.EventVolume, event); err != nil {
		// The host may still be loading; the event is dropped.
		logging.Debugf("drop %s: %v", domain.EventVolume, err)
	}
}

func (v *volumeInteractor) snapshot() domain.VolumeChangedEvent {
	music := v.normalized(domain.PlatformStreamMusic)
	return domain.VolumeChangedEvent{
		Value:        music,
		Call:         v.normalized(domain.PlatformStreamVoiceCall),
		System:       v.normalized(domain.PlatformStreamSystem),
		Ring:         v.normalized(domain.PlatformStreamRing),
		Music:        v.normalized(domain.PlatformStreamMusic),
		Alarm:        v.normalized(domain.PlatformStreamAlarm),
		Notification: v.normalized(domain.PlatformStreamNotification),
	}
}

func (v *volumeInteractor) normalized(stream domain.Stream) float64 {
	current, err := v.audio.StreamVolume(stream)
	if err != nil {
		logging.Warnf("read volume of %s: %v", stream, err)
		return 0
	}
	max, err := v.audio.StreamMaxVolume(stream)
	if err != nil {
		logging.Warnf("read max volume of %s: %v", stream, err)
		return 0
	}
	return domain.Normalize(current, max)
}
