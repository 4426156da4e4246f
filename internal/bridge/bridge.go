// Package bridge assembles the volume adapter from configuration: it picks
// the audio backend and its change source, the event transports and the
// permission policy, and owns their background work.
package bridge

import (
	"context"
	"fmt"
	"log/slog"

	"volume-bridge/internal/adapter/secondary/audio"
	"volume-bridge/internal/adapter/secondary/emitter"
	"volume-bridge/internal/adapter/secondary/permission"
	"volume-bridge/internal/config"
	"volume-bridge/internal/domain"
	"volume-bridge/internal/logging"
	"volume-bridge/internal/usecase"
)

// Bridge is a wired volume adapter plus the components behind it.
type Bridge struct {
	UseCase usecase.VolumeUseCase
	Hub     *emitter.Hub
	Audio   domain.AudioService

	// Simulated is set when the simulated backend is in use.
	Simulated *audio.Simulated

	start func(ctx context.Context) error
	stop  func()
	dbus  *emitter.DBus
}

// New wires a bridge for cfg. Nothing runs until Start.
func New(cfg *config.Config) (*Bridge, error) {
	logger := logging.Logger()
	b := &Bridge{
		Hub:   emitter.NewHub(),
		start: func(context.Context) error { return nil },
		stop:  func() {},
	}

	policy := permission.Policy{
		SDKVersion: cfg.Platform.SDKVersion,
		Granted:    permission.Static(cfg.Platform.PolicyAccessGranted),
		Launch:     permission.CommandLauncher(cfg.Platform.SettingsCommand),
	}

	var source domain.BroadcastSource
	switch cfg.Audio.Backend {
	case config.BackendSimulated:
		sim := audio.NewSimulated(nil)
		sim.SetDoNotDisturb(cfg.Audio.DoNotDisturb)
		sim.GrantPolicyAccess(cfg.Platform.PolicyAccessGranted)
		policy.Granted = sim.PolicyAccessGranted
		b.Audio, source, b.Simulated = sim, sim, sim
	case config.BackendFile:
		fs, err := audio.NewFileService(cfg.Audio.StateFile, logger)
		if err != nil {
			return nil, err
		}
		b.Audio, source = fs, fs
		b.start = fs.Watch
	case config.BackendAppleScript, config.BackendSystem:
		var svc domain.AudioService = audio.NewSystemMixer()
		if cfg.Audio.Backend == config.BackendAppleScript {
			svc = audio.NewAppleScript()
		}
		interval, err := cfg.Audio.Poll()
		if err != nil {
			return nil, err
		}
		poller := audio.NewPoller(svc, interval, logger)
		b.Audio, source = svc, poller
		b.start = func(ctx context.Context) error {
			poller.Start(ctx)
			return nil
		}
		b.stop = poller.Stop
	default:
		return nil, fmt.Errorf("unknown audio backend %q", cfg.Audio.Backend)
	}

	var events domain.EventEmitter = b.Hub
	if cfg.Events.DBus {
		b.dbus = emitter.NewDBus(logger)
		events = emitter.Fanout{b.Hub, b.dbus}
	}

	uc, err := usecase.NewVolumeUseCase(b.Audio, source, events, policy)
	if err != nil {
		return nil, err
	}
	b.UseCase = uc

	logger.Debug("bridge wired",
		slog.String("backend", cfg.Audio.Backend),
		slog.Int("sdk_version", cfg.Platform.SDKVersion),
		slog.Bool("dbus", cfg.Events.DBus))
	return b, nil
}

// Start begins backend change detection and connects optional transports.
// A D-Bus connection failure is logged: D-Bus events then stay not ready.
func (b *Bridge) Start(ctx context.Context) error {
	if err := b.start(ctx); err != nil {
		return err
	}
	if b.dbus != nil {
		if err := b.dbus.Connect(); err != nil {
			logging.Warnf("D-Bus events disabled: %v", err)
		}
	}
	return nil
}

// Stop ends background work started by Start.
func (b *Bridge) Stop() {
	b.stop()
	if b.dbus != nil {
		b.dbus.Disconnect()
	}
}
