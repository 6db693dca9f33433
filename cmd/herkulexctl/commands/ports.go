package commands

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ClubRobotInsat/herkulex-go/transports"
)

func newPortsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List serial ports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ports, err := transports.ListPorts()
			if err != nil {
				return a.fail(err)
			}
			if len(ports) == 0 {
				a.p.Warning("no serial ports found")
				return nil
			}

			rows := make([][]string, 0, len(ports))
			for _, p := range ports {
				row := []string{p.Name, strconv.FormatBool(p.IsUSB), "", ""}
				if p.IsUSB {
					row[2] = p.VID + ":" + p.PID
					row[3] = p.Product
				}
				rows = append(rows, row)
			}
			a.p.Table([]string{"PORT", "USB", "VID:PID", "PRODUCT"}, rows)
			return nil
		},
	}
}
