package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ClubRobotInsat/herkulex-go/drs"
)

func newRebootCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reboot <motor>...",
		Short: "Reboot servos",
		Long: `Reboot servos. A reboot applies an id written with set-id and clears
the RAM registers, torque included.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			motors, err := a.motorsFor(args)
			if err != nil {
				return a.fail(err)
			}
			for _, m := range motors {
				if err := m.Reboot(cmd.Context()); err != nil {
					return a.fail(err)
				}
				a.p.Success("motor %d rebooted", m.ID())
			}
			return nil
		},
	}
}

func newTorqueCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "torque <on|off> <motor>...",
		Short:     "Enable or release motor torque",
		Args:      cobra.MinimumNArgs(2),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var on bool
			switch args[0] {
			case "on":
				on = true
			case "off":
			default:
				return a.fail(fmt.Errorf("torque state must be on or off, got %q", args[0]))
			}

			motors, err := a.motorsFor(args[1:])
			if err != nil {
				return a.fail(err)
			}
			for _, m := range motors {
				if on {
					err = m.EnableTorque(cmd.Context())
				} else {
					err = m.DisableTorque(cmd.Context())
				}
				if err != nil {
					return a.fail(err)
				}
				a.p.Success("motor %d torque %s", m.ID(), args[0])
			}
			return nil
		},
	}
}

func newPositionCmd(a *app) *cobra.Command {
	var enable bool

	cmd := &cobra.Command{
		Use:   "position <motor> <target>",
		Short: "Move a servo to a position",
		Long: `Move a servo to a position: 0-1023 on a DRS-0101, 0-32767 on a DRS-0201.
The servo only moves while its torque is on; see --torque.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := parseUint16(args[1], "position")
			if err != nil {
				return a.fail(err)
			}
			m, err := a.motor(args[0])
			if err != nil {
				return a.fail(err)
			}
			if enable {
				if err := m.EnableTorque(cmd.Context()); err != nil {
					return a.fail(err)
				}
			}
			if err := m.SetPosition(cmd.Context(), target); err != nil {
				return a.fail(err)
			}
			a.p.Success("motor %d moving to %d", m.ID(), target)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&enable, "torque", "t", false, "enable torque before moving")
	return cmd
}

func newSpeedCmd(a *app) *cobra.Command {
	var (
		ccw    bool
		enable bool
	)

	cmd := &cobra.Command{
		Use:   "speed <motor> <speed>",
		Short: "Spin a servo continuously",
		Long:  `Spin a servo continuously at 0-1023, clockwise unless --ccw is given.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			speed, err := parseUint16(args[1], "speed")
			if err != nil {
				return a.fail(err)
			}
			m, err := a.motor(args[0])
			if err != nil {
				return a.fail(err)
			}

			dir := drs.Clockwise
			if ccw {
				dir = drs.CounterClockwise
			}
			if enable {
				if err := m.EnableTorque(cmd.Context()); err != nil {
					return a.fail(err)
				}
			}
			if err := m.SetSpeed(cmd.Context(), speed, dir); err != nil {
				return a.fail(err)
			}
			a.p.Success("motor %d spinning %s at %d", m.ID(), dir, speed)
			return nil
		},
	}
	cmd.Flags().BoolVar(&ccw, "ccw", false, "spin counter-clockwise")
	cmd.Flags().BoolVarP(&enable, "torque", "t", false, "enable torque before spinning")
	return cmd
}

func newSetIDCmd(a *app) *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "set-id <motor> <new-id>",
		Short: "Store a new id in a servo's EEP memory",
		Long: `Store a new id in a servo's EEP memory. The servo keeps answering on its
current id until it is rebooted.

Without --confirm a missing servo goes unnoticed. With --confirm the stored
id is read back.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			newID, err := strconv.ParseUint(args[1], 0, 8)
			if err != nil {
				return a.fail(fmt.Errorf("new id %q must be a number in 0-253", args[1]))
			}
			m, err := a.motor(args[0])
			if err != nil {
				return a.fail(err)
			}

			if confirm {
				err = m.SetIDEEPConfirmed(cmd.Context(), byte(newID))
			} else {
				err = m.SetIDEEP(cmd.Context(), byte(newID))
			}
			if err != nil {
				return a.fail(err)
			}
			a.p.Success("motor %d will answer on id %d after a reboot", m.ID(), newID)
			return nil
		},
	}
	cmd.Flags().BoolVar(&confirm, "confirm", false, "read the stored id back")
	return cmd
}

func newClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <motor>...",
		Short: "Clear servo status errors",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			motors, err := a.motorsFor(args)
			if err != nil {
				return a.fail(err)
			}
			for _, m := range motors {
				if err := m.ClearErrors(cmd.Context()); err != nil {
					return a.fail(err)
				}
				a.p.Success("motor %d errors cleared", m.ID())
			}
			return nil
		},
	}
}

func parseUint16(s, what string) (uint16, error) {
	n, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("%s %q is not a number in 0-65535", what, s)
	}
	return uint16(n), nil
}
