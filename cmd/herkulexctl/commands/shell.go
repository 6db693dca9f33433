package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/abiosoft/ishell"
	"github.com/spf13/cobra"
)

const shellPrompt = "herkulex > "

func newShellCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell [command...]",
		Short: "Interactive shell sharing one open bus",
		Long: `Start an interactive shell. Every herkulexctl command is available without
the program name, and the bus stays open between commands.

With arguments the shell runs them as one command and exits.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.bus(); err != nil {
				return a.fail(err)
			}

			sh := a.newShell(cmd.Context())
			if len(args) > 0 {
				return sh.Process(args...)
			}
			sh.Printf("Connected to %s. Type 'help' for commands, 'exit' to leave.\n", a.cfg.Bus.Port)
			sh.Run()
			return nil
		},
	}
}

// newShell builds an ishell with one entry per bus command.
func (a *app) newShell(ctx context.Context) *ishell.Shell {
	sh := ishell.New()
	sh.SetPrompt(shellPrompt)

	for _, sub := range a.shellTree().Commands() {
		name := sub.Name()
		sh.AddCmd(&ishell.Cmd{
			Name: name,
			Help: sub.Short,
			Func: func(c *ishell.Context) {
				if err := a.runLine(ctx, append([]string{name}, c.Args...)); err != nil {
					a.logger.Debug("shell command failed", "command", name, "error", err)
				}
			},
		})
	}
	return sh
}

// shellTree is the command tree run for each shell line. It has no
// persistent hooks, so configuration and the open bus are reused.
func (a *app) shellTree() *cobra.Command {
	root := &cobra.Command{
		Use:           "herkulex",
		SilenceErrors: true,
		SilenceUsage:  true,
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
	)
	root.SetOut(a.p.Out)
	root.SetErr(a.p.Err)
	return root
}

// runLine runs one shell line as a command.
func (a *app) runLine(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return nil
	}
	root := a.shellTree()
	if _, _, err := root.Find(args); err != nil {
		return a.fail(fmt.Errorf("unknown command %q", strings.Join(args, " ")))
	}
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
