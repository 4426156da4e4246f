package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"volume-bridge/internal/domain"
)

var errNotSimulated = errors.New("device commands need the simulated backend")

// newDeviceCmd pokes the simulated device from "outside" the bridge, the
// way another application or a hardware key would.
func newDeviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "device",
		Short: "Manipulate the simulated device directly",
	}
	cmd.AddCommand(newDeviceRawCmd(), newDeviceDNDCmd(), newDeviceGrantCmd())
	return cmd
}

func newDeviceRawCmd() *cobra.Command {
	var streamType string
	cmd := &cobra.Command{
		Use:   "raw LEVEL",
		Short: "Write a raw level, broadcasting the change like an external app",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("LEVEL must be an integer: %w", err)
			}
			b, err := loadBridge()
			if err != nil {
				return err
			}
			if b.Simulated == nil {
				return errNotSimulated
			}
			stream := domain.ResolveStream(streamType)
			if err := b.Simulated.SetStreamVolume(stream, level, 0); err != nil {
				return err
			}
			current, _ := b.Simulated.StreamVolume(stream)
			limit, _ := b.Simulated.StreamMaxVolume(stream)
			fmt.Fprintf(cmd.OutOrStdout(), "%s raw=%d/%d\n", stream, current, limit)
			return nil
		},
	}
	cmd.Flags().StringVarP(&streamType, "type", "t", string(domain.StreamMusic), "stream: call|system|ring|music|alarm|notification")
	return cmd
}

func newDeviceDNDCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "dnd on|off",
		Short:     "Toggle do-not-disturb on the simulated device",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			on, err := parseSwitch(args[0])
			if err != nil {
				return err
			}
			b, err := loadBridge()
			if err != nil {
				return err
			}
			if b.Simulated == nil {
				return errNotSimulated
			}
			b.Simulated.SetDoNotDisturb(on)
			fmt.Fprintf(cmd.OutOrStdout(), "do-not-disturb: %t\n", on)
			return nil
		},
	}
}

func newDeviceGrantCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "grant on|off",
		Short:     "Grant or revoke notification policy access on the simulated device",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			on, err := parseSwitch(args[0])
			if err != nil {
				return err
			}
			b, err := loadBridge()
			if err != nil {
				return err
			}
			if b.Simulated == nil {
				return errNotSimulated
			}
			b.Simulated.GrantPolicyAccess(on)
			fmt.Fprintf(cmd.OutOrStdout(), "policy access granted: %t\n", on)
			return nil
		},
	}
}

func parseSwitch(s string) (bool, error) {
	switch s {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("expected on or off, got %q", s)
	}
}
