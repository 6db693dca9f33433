package commands

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ClubRobotInsat/herkulex-go/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View or create the herkulexctl configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(a)
		},
	}

	var (
		force  bool
		global bool
	)
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default config file",
		Long: `Write a default config file to path, ./herkulex.yaml by default, or to
the user config directory with --global.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.FileName
			switch {
			case len(args) == 1:
				path = args[0]
			case global:
				path = filepath.Join(config.ConfigDir(), config.FileName)
			}

			if err := config.WriteDefault(path, force); err != nil {
				return a.fail(err)
			}
			a.p.Success("wrote %s", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	initCmd.Flags().BoolVar(&global, "global", false, "write to the user config directory")

	cmd.AddCommand(initCmd, &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(a)
		},
	})
	return cmd
}

func showConfig(a *app) error {
	if used := a.v.ConfigFileUsed(); used != "" {
		a.p.Step("from %s", used)
	}
	data, err := a.cfg.Marshal()
	if err != nil {
		return a.fail(err)
	}
	a.p.Info("%s", data)
	return nil
}
