package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/shlex"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"volume-bridge/internal/domain"
	"volume-bridge/internal/logging"
)

// shellVerbosity outlives the per-command root so `log` sticks for the session.
var shellVerbosity int

func newShellCmd() *cobra.Command {
	var prompt string
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive shell that keeps one bridge alive",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractiveShell(prompt, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&prompt, "prompt", "volume> ", "shell prompt")
	return cmd
}

func runInteractiveShell(prompt string, out io.Writer) error {
	historyFile := filepath.Join(os.TempDir(), "volume-bridge-shell.history")
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	sessionConfig := cfgPath
	shellVerbosity = verbosity

	b, err := loadBridge()
	if err != nil {
		return err
	}
	// Events print through readline so they do not garble the prompt.
	_, cancel := b.Hub.Subscribe(func(name string, ev domain.VolumeChangedEvent) {
		data, _ := json.Marshal(ev)
		fmt.Fprintf(rl.Stdout(), "%s %s\n", name, data)
	})
	defer cancel()
	b.Hub.MarkReady()
	defer func() {
		if active != nil {
			active.UseCase.HostPause()
			active.Stop()
			active = nil
		}
	}()

	fmt.Fprintln(out, "Interactive shell. 'help' for examples, 'exit' to quit.")

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			fmt.Fprintln(out)
			continue
		}
		if err == io.EOF {
			fmt.Fprintln(out)
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch line {
		case "exit", "quit":
			fmt.Fprintln(out, "Bye!")
			return nil
		case "help":
			printShellHelp(out)
			continue
		}
		tokens, err := shlex.Split(line)
		if err != nil {
			fmt.Fprintf(out, "Parse error: %v\n", err)
			continue
		}
		if len(tokens) == 0 {
			continue
		}
		if tokens[0] == "log" {
			if err := handleShellLog(tokens[1:], out); err != nil {
				fmt.Fprintf(out, "log: %v\n", err)
			}
			continue
		}
		if tokens[0] == "shell" {
			fmt.Fprintln(out, "Already in the shell. Enter another command or 'exit'.")
			continue
		}

		if err := executeArgs(withConfig(tokens, sessionConfig)); err != nil {
			fmt.Fprintf(out, "command error: %v\n", err)
		}
	}
}

// withConfig pins the session's --config unless the command names its own.
func withConfig(args []string, path string) []string {
	for _, arg := range args {
		if arg == "--config" || strings.HasPrefix(arg, "--config=") {
			return args
		}
	}
	return append(args, "--config", path)
}

func executeArgs(args []string) error {
	if len(args) == 0 {
		return nil
	}
	root := NewRootCmd()
	root.SetArgs(args)
	return root.Execute()
}

func handleShellLog(args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("log", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var vcount int
	var level string
	var show bool
	fs.CountVarP(&vcount, "verbose", "v", "Increase verbosity (-v... up to 4)")
	fs.StringVar(&level, "level", "", "level (error|warn|info|debug|trace)")
	fs.BoolVarP(&show, "show", "s", false, "show the current level")
	if err := fs.Parse(args); err != nil {
		return err
	}

	switch {
	case show && vcount == 0 && level == "":
		fmt.Fprintf(out, "log level: %s (-v x%d)\n", logging.LevelName(), logging.Verbosity())
		return nil
	case level != "":
		_, count, err := logging.ParseLevel(level)
		if err != nil {
			return err
		}
		shellVerbosity = count
	case vcount > 0:
		shellVerbosity = vcount
	default:
		fmt.Fprintf(out, "log level: %s (-v x%d)\n", logging.LevelName(), logging.Verbosity())
		return nil
	}

	logging.SetVerbosity(shellVerbosity)
	fmt.Fprintf(out, "log level set to %s (-v x%d)\n", logging.LevelName(), logging.Verbosity())
	return nil
}

func printShellHelp(out io.Writer) {
	fmt.Fprintln(out, `Examples:
  host resume                 # register the change receiver (events print here)
  host pause                  # unregister it
  get --type alarm            # normalized alarm volume
  get --all                   # every stream
  set 0.5 --type ring --show-ui
  device raw 3 --type music   # external change on the simulated device
  device dnd on               # zeroing ring/notification now needs policy access
  device grant on             # grant notification policy access
  config get                  # effective configuration
  log -vv                     # more detailed logging
  log --show                  # current log level
  exit / quit                 # leave the shell`)
}
