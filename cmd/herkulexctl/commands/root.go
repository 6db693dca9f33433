package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ClubRobotInsat/herkulex-go/internal/config"
	"github.com/ClubRobotInsat/herkulex-go/internal/logging"
	"github.com/ClubRobotInsat/herkulex-go/internal/printer"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}

// NewRootCmd builds the herkulexctl command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(newApp())
}

func newRootCmd(a *app) *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:   "herkulexctl",
		Short: "Drive Herkulex DRS servos on a serial bus",
		Long: `herkulexctl sends commands to Herkulex DRS-0101 and DRS-0201 servos
daisy-chained on one serial bus.

Motors are addressed by id (0-253) or by a name from the motors table of
the config file. Use --port sim to try commands against simulated servos.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.p = printer.New(cmd.OutOrStdout(), cmd.ErrOrStderr())

			if err := config.ReadFile(a.v, cfgFile); err != nil {
				return a.p.Error("Cannot read configuration", err.Error(), nil)
			}
			cfg, err := config.Load(a.v)
			if err != nil {
				return a.p.Error("Invalid configuration", err.Error(), []string{
					"Run 'herkulexctl config init' to write a default file",
				})
			}
			a.cfg = cfg

			logger, err := logging.New(cmd.ErrOrStderr(), logging.Options{
				Level:  cfg.Log.Level,
				Format: cfg.Log.Format,
			})
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default ./herkulex.yaml, then the user config dir)")
	flags.StringP("port", "p", "", "serial port, or 'sim' for simulated servos")
	flags.IntP("baud", "b", 0, "baud rate")
	flags.String("model", "", "servo model (drs-0101 or drs-0201)")
	flags.String("ack-policy", "", "servo ACK policy (none, reads or all)")
	flags.Duration("read-timeout", 0, "time to wait for a servo reply")
	flags.Duration("lock-timeout", 0, "time to wait for a busy bus")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (text or json)")

	bindings := map[string]string{
		"bus.port":         "port",
		"bus.baud":         "baud",
		"bus.model":        "model",
		"bus.ack_policy":   "ack-policy",
		"bus.read_timeout": "read-timeout",
		"bus.lock_timeout": "lock-timeout",
		"log.level":        "log-level",
		"log.format":       "log-format",
	}
	for key, flag := range bindings {
		_ = a.v.BindPFlag(key, flags.Lookup(flag))
	}

	root.AddCommand(
		newRebootCmd(a),
		newTorqueCmd(a),
		newPositionCmd(a),
		newSpeedCmd(a),
		newSetIDCmd(a),
		newClearCmd(a),
		newTempCmd(a),
		newStatusCmd(a),
		newMonitorCmd(a),
		newPortsCmd(a),
		newConfigCmd(a),
		newShellCmd(a),
	)
	closeBusAfter(root, a)
	return root
}

// closeBusAfter wraps every RunE in the tree so the bus is closed once the
// command returns. Cobra skips PersistentPostRun when RunE fails.
func closeBusAfter(cmd *cobra.Command, a *app) {
	for _, sub := range cmd.Commands() {
		closeBusAfter(sub, a)
	}
	if cmd.RunE == nil {
		return
	}
	run := cmd.RunE
	cmd.RunE = func(c *cobra.Command, args []string) error {
		defer a.close()
		return run(c, args)
	}
}

// Execute runs the command tree with ctx.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}
