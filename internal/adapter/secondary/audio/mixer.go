package audio

import (
	"fmt"

	"github.com/itchyny/volume-go"

	"volume-bridge/internal/domain"
)

// MixerMax is the raw range of the desktop master mixer.
const MixerMax = 100

// SystemMixer implements domain.AudioService on the desktop master mixer.
// A desktop has a single output level, so every stream reads and writes it.
type SystemMixer struct{}

// NewSystemMixer creates a master mixer audio service.
func NewSystemMixer() *SystemMixer {
	return &SystemMixer{}
}

// StreamVolume returns the master level.
func (SystemMixer) StreamVolume(domain.Stream) (int, error) {
	level, err := volume.GetVolume()
	if err != nil {
		return 0, fmt.Errorf("get master volume: %w", err)
	}
	return level, nil
}

// StreamMaxVolume is always MixerMax.
func (SystemMixer) StreamMaxVolume(domain.Stream) (int, error) {
	return MixerMax, nil
}

// SetStreamVolume writes the master level.
func (SystemMixer) SetStreamVolume(_ domain.Stream, level int, _ domain.Flags) error {
	if err := volume.SetVolume(min(max(level, 0), MixerMax)); err != nil {
		return fmt.Errorf("set master volume: %w", err)
	}
	return nil
}
