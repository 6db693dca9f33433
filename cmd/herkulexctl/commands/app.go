package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/ClubRobotInsat/herkulex-go/drs"
	"github.com/ClubRobotInsat/herkulex-go/herkulex"
	"github.com/ClubRobotInsat/herkulex-go/internal/config"
	"github.com/ClubRobotInsat/herkulex-go/internal/logging"
	"github.com/ClubRobotInsat/herkulex-go/internal/printer"
	"github.com/ClubRobotInsat/herkulex-go/transports"
)

// app is the state shared by every subcommand of one invocation.
type app struct {
	v      *viper.Viper
	cfg    *config.Config
	p      *printer.Printer
	logger *slog.Logger

	// Opened on first use.
	motors *herkulex.Motors
	sim    *drs.Simulator
}

func newApp() *app {
	return &app{
		v:      config.New(),
		p:      printer.Stdio(),
		logger: logging.Discard(),
	}
}

// bus returns the motor registry, opening the configured port on first use.
func (a *app) bus() (*herkulex.Motors, error) {
	if a.motors != nil {
		return a.motors, nil
	}

	model, ok := drs.GetModel(a.cfg.Bus.Model)
	if !ok {
		return nil, fmt.Errorf("unknown servo model %q", a.cfg.Bus.Model)
	}
	ack, err := drs.ParseAckPolicy(a.cfg.Bus.AckPolicy)
	if err != nil {
		return nil, err
	}

	logger := logging.ForPort(a.logger, a.cfg.Bus.Port)
	opts := []herkulex.Option{
		herkulex.WithProtocol(drs.New(*model).WithAckPolicy(ack)),
		herkulex.WithLogger(logger),
		herkulex.WithReadTimeout(a.cfg.Bus.ReadTimeout),
		herkulex.WithLockTimeout(a.cfg.Bus.LockTimeout),
		herkulex.WithMinCommandGap(a.cfg.Bus.CommandGap),
	}

	if strings.EqualFold(a.cfg.Bus.Port, config.SimPort) {
		a.sim = drs.NewSimulator(*model)
		a.sim.AutoAttach = true
		a.sim.Ack = ack
		a.motors = herkulex.New(transports.NewLoopback(a.sim.Respond), opts...)
		logger.Debug("using simulated bus")
		return a.motors, nil
	}

	m, err := herkulex.Open(transports.SerialConfig{
		Port:     a.cfg.Bus.Port,
		BaudRate: a.cfg.Bus.BaudRate,
		Timeout:  a.cfg.Bus.ReadTimeout,
	}, opts...)
	if err != nil {
		return nil, err
	}
	a.motors = m
	logger.Debug("bus opened", "baud", a.cfg.Bus.BaudRate, "model", model.Name)
	return a.motors, nil
}

// motor resolves ref (a configured name or an id) to a handle.
func (a *app) motor(ref string) (*herkulex.Motor, error) {
	id, err := a.cfg.MotorID(ref)
	if err != nil {
		return nil, err
	}
	bus, err := a.bus()
	if err != nil {
		return nil, err
	}
	return bus.NewMotor(id), nil
}

// motorsFor resolves every ref, or every configured motor when refs is empty.
func (a *app) motorsFor(refs []string) ([]*herkulex.Motor, error) {
	if len(refs) == 0 {
		refs = a.cfg.MotorNames()
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("no motor given and none configured")
	}

	out := make([]*herkulex.Motor, 0, len(refs))
	for _, ref := range refs {
		m, err := a.motor(ref)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (a *app) close() {
	if a.motors == nil {
		return
	}
	if err := a.motors.Close(); err != nil {
		a.logger.Warn("closing bus failed", "error", err)
	}
	a.motors = nil
}

// fail prints err with hints matching its kind and returns the error for Cobra.
func (a *app) fail(err error) error {
	switch {
	case herkulex.IsBusy(err):
		return a.p.Error("Bus busy", err.Error(), []string{
			"Another command holds the bus; retry, or raise bus.lock_timeout",
		})
	case herkulex.IsNoResponse(err):
		return a.p.Error("No response", err.Error(), []string{
			"Check the servo id, power and wiring",
			"Check that bus.baud matches the servos",
		})
	case herkulex.IsTimeout(err):
		return a.p.Error("Incomplete response", err.Error(), []string{
			"Raise bus.read_timeout",
		})
	case herkulex.IsProtocol(err):
		return a.p.Error("Bad response", err.Error(), []string{
			"Run 'herkulexctl status' and 'herkulexctl clear' if the servo reports a fault",
			"Check that bus.ack_policy matches the servos",
		})
	case errors.Is(err, herkulex.ErrInvalidParameter):
		return a.p.Error("Invalid parameter", err.Error(), nil)
	}
	return a.p.Error("Command failed", err.Error(), nil)
}
