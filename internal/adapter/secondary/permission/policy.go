package permission

import (
	"errors"
	"fmt"
	"os/exec"

	"volume-bridge/internal/domain"
	"volume-bridge/internal/logging"
)

// Policy implements domain.PolicyAccess for a platform of a fixed version.
type Policy struct {
	// SDKVersion is the running platform version.
	SDKVersion int
	// Granted reports whether notification policy access is granted.
	// A nil func means it is not.
	Granted func() bool
	// Launch opens the grant screen. A nil func means there is none.
	Launch func() error
}

// RequiresPolicyAccess reports whether SDKVersion knows notification policy access.
func (p Policy) RequiresPolicyAccess() bool {
	return p.SDKVersion >= domain.PolicyAccessMinVersion
}

// PolicyAccessGranted asks Granted.
func (p Policy) PolicyAccessGranted() bool {
	return p.Granted != nil && p.Granted()
}

// OpenPolicyAccessSettings runs Launch.
func (p Policy) OpenPolicyAccessSettings() error {
	if p.Launch == nil {
		return errors.New("no policy access settings screen configured")
	}
	return p.Launch()
}

// Static returns a Granted func with a fixed answer.
func Static(granted bool) func() bool {
	return func() bool { return granted }
}

// CommandLauncher returns a Launch func that starts argv and does not wait
// for it to finish.
func CommandLauncher(argv []string) func() error {
	return func() error {
		if len(argv) == 0 {
			return errors.New("settings command is empty")
		}
		cmd := exec.Command(argv[0], argv[1:]...)
		if err := cmd.Start(); err != nil {
			return fmt.Errorf("start %s: %w", argv[0], err)
		}
		logging.Infof("opened policy access settings with %s (pid %d)", argv[0], cmd.Process.Pid)
		go func() {
			if err := cmd.Wait(); err != nil {
				logging.Debugf("settings command %s: %v", argv[0], err)
			}
		}()
		return nil
	}
}
