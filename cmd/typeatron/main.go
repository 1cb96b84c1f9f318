package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/studiowebux/typeatron/internal/cli"
	"github.com/studiowebux/typeatron/internal/daemon"
	"github.com/studiowebux/typeatron/internal/telemetry"
	"github.com/studiowebux/typeatron/internal/tui"
)

var (
	version = "0.1.0"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "typeatron",
	Short: "Typeatron host bridge",
	Long: `typeatron connects to Typeatron chording keyboards, turns their chords into
keystrokes and relays commands to the device.

Run the daemon once, then talk to it from other commands.

Examples:
  typeatron daemon                     # Connect every configured device
  typeatron status                     # Show connection state and mode
  typeatron vibrate 250 -d left        # Buzz the device named "left"
  typeatron point "front door"         # Arm a referent and fire the laser
  typeatron monitor                    # Live view of the device feed
  typeatron chords --mode Text         # Print the chord table
  typeatron local                      # Practise on the local keyboard`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Global flags
var (
	flagConfig string
	flagDevice string
	flagOutput string
	flagQuery  string
)

// Command flags
var (
	flagReplay    bool
	flagChordMode string
	flagSearch    string
	flagLocalPath string
	flagGrab      bool
	flagLimit     int
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Settings file (default ~/.typeatron/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&flagDevice, "device", "d", "", "Device name or address")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", cli.FormatText, "Output format (text/json/yaml)")
	rootCmd.PersistentFlags().StringVarP(&flagQuery, "query", "q", "", "JMESPath expression applied to structured output")

	watchCmd.Flags().BoolVar(&flagReplay, "replay", false, "Print recent events first")
	chordsCmd.Flags().StringVarP(&flagChordMode, "mode", "m", "", "Only this mode (Text/Numeric/Hardware/Mash)")
	chordsCmd.Flags().StringVarP(&flagSearch, "search", "s", "", "Fuzzy match on the chord outcome")
	localCmd.Flags().StringVar(&flagLocalPath, "input", "", "evdev node (default local.device from settings)")
	localCmd.Flags().BoolVar(&flagGrab, "grab", true, "Grab the keyboard so keys do not reach other programs")
	telemetryCmd.Flags().IntVarP(&flagLimit, "limit", "n", telemetry.DefaultLimit, "Number of records")

	rootCmd.AddCommand(
		daemonCmd,
		statusCmd,
		sendCmd("connect", "Connect a device", daemon.CmdConnect),
		sendCmd("disconnect", "Disconnect a device", daemon.CmdDisconnect),
		sendCmd("ping", "Ping a device; the round trip shows up in the feed", daemon.CmdPing),
		sendCmd("laser", "Fire the laser pointer", daemon.CmdLaser),
		sendCmd("photo", "Request a photoresistor summary", daemon.CmdPhoto),
		vibrateCmd,
		morseCmd,
		pointCmd,
		modeCmd,
		watchCmd,
		monitorCmd,
		chordsCmd,
		localCmd,
		telemetryCmd,
	)
}

func loadEnv() (*cli.Env, error) {
	return cli.Load(flagConfig)
}

func commandOptions() cli.CommandOptions {
	return cli.CommandOptions{Device: flagDevice, Format: flagOutput, Query: flagQuery}
}

func send(cmd *cobra.Command, req daemon.Request) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}
	return cli.Send(cmd.Context(), env, cmd.OutOrStdout(), req, commandOptions())
}

// sendCmd builds an argument-less device command
func sendCmd(use, short, command string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return send(cmd, daemon.Request{Command: command})
		},
	}
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Connect configured devices and serve commands",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnv()
		if err != nil {
			return err
		}
		return cli.RunDaemon(cmd.Context(), env)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show device connection state, mode and last ping",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnv()
		if err != nil {
			return err
		}
		return cli.Status(cmd.Context(), env, cmd.OutOrStdout(), commandOptions())
	},
}

var vibrateCmd = &cobra.Command{
	Use:   "vibrate <ms>",
	Short: "Run the vibration motor (1 to 60000 ms)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ms, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", args[0], err)
		}
		return send(cmd, daemon.Request{Command: daemon.CmdVibrate, Millis: ms})
	},
}

var morseCmd = &cobra.Command{
	Use:   "morse <text>",
	Short: "Have the device play text in morse code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return send(cmd, daemon.Request{Command: daemon.CmdMorse, Text: args[0]})
	},
}

var pointCmd = &cobra.Command{
	Use:   "point <referent>",
	Short: "Arm a referent for the next laser event and fire the laser",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return send(cmd, daemon.Request{Command: daemon.CmdPoint, Text: args[0]})
	},
}

var modeCmd = &cobra.Command{
	Use:       "mode <Text|Numeric|Hardware|Mash>",
	Short:     "Switch the keyer mode from the host",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"Text", "Numeric", "Hardware", "Mash"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return send(cmd, daemon.Request{Command: daemon.CmdMode, Mode: args[0]})
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream device events as lines",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnv()
		if err != nil {
			return err
		}
		return cli.Watch(cmd.Context(), env, cmd.OutOrStdout(), commandOptions(), flagReplay)
	},
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Interactive view of the device feed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnv()
		if err != nil {
			return err
		}
		client, err := env.Client()
		if err != nil {
			return err
		}
		return tui.Run(cmd.Context(), client, flagDevice)
	},
}

var chordsCmd = &cobra.Command{
	Use:   "chords",
	Short: "Print the chord table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnv()
		if err != nil {
			return err
		}
		return cli.Chords(env, cmd.OutOrStdout(), cli.ChordOptions{
			Mode:   flagChordMode,
			Search: flagSearch,
			Format: flagOutput,
			Query:  flagQuery,
		})
	},
}

var localCmd = &cobra.Command{
	Use:   "local",
	Short: "Practise chords on five keys of a local keyboard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnv()
		if err != nil {
			return err
		}
		return cli.Local(cmd.Context(), env, cmd.OutOrStdout(), flagLocalPath, flagGrab)
	},
}

var telemetryCmd = &cobra.Command{
	Use:       "telemetry <photo|gestures|pings>",
	Short:     "Show recorded telemetry",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{cli.KindPhoto, cli.KindGestures, cli.KindPings},
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnv()
		if err != nil {
			return err
		}
		return cli.Telemetry(env, cmd.OutOrStdout(), cli.TelemetryOptions{
			Kind:   args[0],
			Device: flagDevice,
			Limit:  flagLimit,
			Format: flagOutput,
			Query:  flagQuery,
		})
	},
}
