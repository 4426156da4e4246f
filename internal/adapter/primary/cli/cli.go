package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"volume-bridge/internal/adapter/primary/web"
	"volume-bridge/internal/bridge"
	"volume-bridge/internal/config"
	"volume-bridge/internal/domain"
	"volume-bridge/internal/logging"
)

var (
	cfgPath   string
	verbosity int

	// active survives between commands of one shell session so device
	// state and receiver registration carry over.
	active     *bridge.Bridge
	activePath string
)

// NewRootCmd creates the root CLI command.
// This is the primary adapter that translates CLI inputs to use case calls.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "volume-bridge",
		Short:         "Read, write and watch stream volumes",
		Long:          "Bridge exposing per-stream volume get/set and volume-change events to a host application",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVar(&cfgPath, "config", config.ConfigPath(), "path to config file")
	cmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase logging verbosity (-v, -vv, ... up to 4)")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		logging.SetVerbosity(max(verbosity, shellVerbosity))
	}

	cmd.AddCommand(
		newGetCmd(),
		newSetCmd(),
		newWatchCmd(),
		newServeCmd(),
		newHostCmd(),
		newDeviceCmd(),
		newConfigCmd(),
		newShellCmd(),
	)

	return cmd
}

// loadBridge returns the bridge for the current --config, building and
// starting it on first use.
func loadBridge() (*bridge.Bridge, error) {
	if active != nil && activePath == cfgPath {
		return active, nil
	}
	if active != nil {
		active.Stop()
		active = nil
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return nil, err
	}
	b, err := bridge.New(cfg)
	if err != nil {
		return nil, err
	}
	if err := b.Start(context.Background()); err != nil {
		return nil, err
	}
	active, activePath = b, cfgPath
	return b, nil
}

func newGetCmd() *cobra.Command {
	var (
		streamType string
		all        bool
	)
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Print the normalized volume of a stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := loadBridge()
			if err != nil {
				return err
			}
			if all {
				out, _ := json.MarshalIndent(b.UseCase.Snapshot(), "", "  ")
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s=%.4f\n", displayType(streamType), b.UseCase.GetVolume(streamType))
			return nil
		},
	}
	cmd.Flags().StringVarP(&streamType, "type", "t", string(domain.StreamMusic), "stream: call|system|ring|music|alarm|notification")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "print every stream")
	return cmd
}

func newSetCmd() *cobra.Command {
	var volumeCfg domain.VolumeConfig
	cmd := &cobra.Command{
		Use:   "set VALUE",
		Short: "Set the normalized volume (0-1) of a stream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("VALUE must be a number between 0 and 1: %w", err)
			}
			b, err := loadBridge()
			if err != nil {
				return err
			}
			b.UseCase.SetVolume(value, volumeCfg)
			fmt.Fprintf(cmd.OutOrStdout(), "%s=%.4f\n", displayType(volumeCfg.Type), b.UseCase.GetVolume(volumeCfg.Type))
			return nil
		},
	}
	cmd.Flags().StringVarP(&volumeCfg.Type, "type", "t", string(domain.StreamMusic), "stream: call|system|ring|music|alarm|notification")
	cmd.Flags().BoolVar(&volumeCfg.PlaySound, "play-sound", false, "play the confirmation sound")
	cmd.Flags().BoolVar(&volumeCfg.ShowUI, "show-ui", false, "show the system volume UI")
	return cmd
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print volume-change events until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := loadBridge()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			_, cancel := b.Hub.Subscribe(printEvent(cmd))
			defer cancel()
			b.Hub.MarkReady()

			b.UseCase.HostResume()
			defer b.UseCase.HostPause()
			logging.Infof("watching volume changes")

			<-ctx.Done()
			return nil
		},
	}
}

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and websocket event stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := loadBridge()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("addr") {
				if cfg, err := config.LoadConfig(cfgPath); err == nil {
					addr = cfg.Web.Addr
				}
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			b.Hub.MarkReady()
			b.UseCase.HostResume()
			defer b.UseCase.HostPause()

			srv := web.NewServer(b.UseCase, b.Hub, addr)
			fmt.Fprintf(cmd.OutOrStdout(), "volume-bridge API running at http://%s\n", addr)
			logging.Infof("API: http://%s", addr)

			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()

			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", config.DefaultAddr, "HTTP listen address:port")
	return cmd
}

func newHostCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "host resume|pause|destroy",
		Short:     "Drive the host lifecycle (useful in the shell)",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"resume", "pause", "destroy"},
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := loadBridge()
			if err != nil {
				return err
			}
			switch args[0] {
			case "resume":
				b.UseCase.HostResume()
			case "pause":
				b.UseCase.HostPause()
			case "destroy":
				b.UseCase.HostDestroy()
			default:
				return fmt.Errorf("unknown lifecycle state %q", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "receiver registered: %t\n", b.UseCase.Registered())
			return nil
		},
	}
	return cmd
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the configuration file",
	}
	cmd.AddCommand(newConfigGetCmd(), newConfigSetCmd(), newConfigPathCmd())
	return cmd
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Print the effective configuration (TOML)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			out, err := toml.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	var (
		backend      string
		stateFile    string
		pollInterval string
		dnd          bool
		sdkVersion   int
		granted      bool
		dbusEvents   bool
		addr         string
	)
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update configuration values",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("backend") {
				cfg.Audio.Backend = backend
			}
			if flags.Changed("state-file") {
				cfg.Audio.StateFile = stateFile
			}
			if flags.Changed("poll-interval") {
				cfg.Audio.PollInterval = pollInterval
			}
			if flags.Changed("do-not-disturb") {
				cfg.Audio.DoNotDisturb = dnd
			}
			if flags.Changed("sdk-version") {
				cfg.Platform.SDKVersion = sdkVersion
			}
			if flags.Changed("policy-access-granted") {
				cfg.Platform.PolicyAccessGranted = granted
			}
			if flags.Changed("dbus") {
				cfg.Events.DBus = dbusEvents
			}
			if flags.Changed("addr") {
				cfg.Web.Addr = addr
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := cfg.Save(cfgPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s (backend=%s sdk=%d)\n", cfgPath, cfg.Audio.Backend, cfg.Platform.SDKVersion)
			return nil
		},
	}
	cmd.Flags().StringVar(&backend, "backend", config.DefaultBackend, "audio backend: simulated|file|applescript|system")
	cmd.Flags().StringVar(&stateFile, "state-file", "", "state file of the file backend")
	cmd.Flags().StringVar(&pollInterval, "poll-interval", config.DefaultPollInterval, "poll interval of polling backends, e.g. 500ms")
	cmd.Flags().BoolVar(&dnd, "do-not-disturb", false, "simulated device starts in do-not-disturb")
	cmd.Flags().IntVar(&sdkVersion, "sdk-version", config.DefaultSDKVersion, "platform version for the policy access check")
	cmd.Flags().BoolVar(&granted, "policy-access-granted", false, "notification policy access is granted")
	cmd.Flags().BoolVar(&dbusEvents, "dbus", false, "also emit events on the D-Bus session bus")
	cmd.Flags().StringVar(&addr, "addr", config.DefaultAddr, "HTTP listen address:port")
	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), cfgPath)
		},
	}
}

func printEvent(cmd *cobra.Command) func(string, domain.VolumeChangedEvent) {
	return func(name string, ev domain.VolumeChangedEvent) {
		out, _ := json.Marshal(map[string]any{"event": name, "data": ev})
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
	}
}

func displayType(streamType string) string {
	stream := domain.ResolveStream(streamType)
	for _, kind := range domain.StreamKinds {
		if domain.ResolveStream(string(kind)) == stream {
			return string(kind)
		}
	}
	return string(domain.StreamMusic)
}
