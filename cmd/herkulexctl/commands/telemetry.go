package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ClubRobotInsat/herkulex-go/herkulex"
)

func newTempCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "temp [motor]...",
		Short: "Read servo temperatures",
		Long: `Read the raw temperature value of servos. Without arguments every motor
of the config file is read.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			motors, err := a.motorsFor(args)
			if err != nil {
				return a.fail(err)
			}

			rows := make([][]string, 0, len(motors))
			for _, m := range motors {
				temp, err := m.Temperature(cmd.Context())
				if err != nil {
					return a.fail(err)
				}
				rows = append(rows, []string{strconv.Itoa(int(m.ID())), strconv.Itoa(temp)})
			}
			a.p.Table([]string{"ID", "TEMP"}, rows)
			return nil
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status [motor]...",
		Short: "Read servo status",
		RunE: func(cmd *cobra.Command, args []string) error {
			motors, err := a.motorsFor(args)
			if err != nil {
				return a.fail(err)
			}
			for _, m := range motors {
				s, err := m.Status(cmd.Context())
				if err != nil {
					return a.fail(err)
				}
				a.p.Status(m.ID(), s)
			}
			return nil
		},
	}
}

func newMonitorCmd(a *app) *cobra.Command {
	var (
		interval time.Duration
		count    int
	)

	cmd := &cobra.Command{
		Use:   "monitor [motor]...",
		Short: "Poll temperature and status until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				return a.fail(fmt.Errorf("%w: --interval must be positive, got %s", herkulex.ErrInvalidParameter, interval))
			}
			motors, err := a.motorsFor(args)
			if err != nil {
				return a.fail(err)
			}
			bus, err := a.bus()
			if err != nil {
				return a.fail(err)
			}

			ctx := cmd.Context()
			mon := bus.Monitor(interval, func(s herkulex.Sample) { a.printSample(s) }, motors...)

			if count > 0 {
				for i := 0; i < count; i++ {
					if i > 0 {
						select {
						case <-ctx.Done():
							return nil
						case <-time.After(interval):
						}
					}
					mon.Poll(ctx)
				}
				return nil
			}

			if err := mon.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return a.fail(err)
			}
			return nil
		},
	}
	cmd.Flags().DurationVarP(&interval, "interval", "i", time.Second, "polling interval")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "stop after this many polls (0 polls until interrupted)")
	return cmd
}

func (a *app) printSample(s herkulex.Sample) {
	at := s.At.Format("15:04:05.000")
	if s.Err != nil {
		a.p.Warning("%s motor %d: %v", at, s.ID, s.Err)
		return
	}
	a.p.Info("%s motor %d: temp=%d %s", at, s.ID, s.Temperature, s.Status)
}
