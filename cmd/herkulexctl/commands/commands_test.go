package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ClubRobotInsat/herkulex-go/internal/config"
	"github.com/ClubRobotInsat/herkulex-go/internal/printer"
)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	// Keep a herkulex.yaml in the working directory out of the way.
	t.Chdir(t.TempDir())

	var out, errOut bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestRootShowsHelp(t *testing.T) {
	out, _, err := runCLI(t)
	require.NoError(t, err)
	assert.Contains(t, out, "Usage:")
	assert.Contains(t, out, "herkulexctl")
}

func TestRootRejectsUnknownFlags(t *testing.T) {
	_, _, err := runCLI(t, "--unknown-flag", "value")
	require.Error(t, err)
}

func TestSimTemperature(t *testing.T) {
	out, _, err := runCLI(t, "--port", "sim", "temp", "0", "2")
	require.NoError(t, err)
	assert.Equal(t, "ID  TEMP\n0   96\n2   96\n", out)
}

func TestSimMotion(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"torque on", []string{"torque", "on", "1"}, "motor 1 torque on"},
		{"position", []string{"position", "-t", "1", "512"}, "motor 1 moving to 512"},
		{"speed", []string{"speed", "--ccw", "1", "300"}, "motor 1 spinning counter-clockwise at 300"},
		{"reboot", []string{"reboot", "1", "2"}, "motor 2 rebooted"},
		{"clear", []string{"clear", "1"}, "motor 1 errors cleared"},
		{"set-id confirmed", []string{"set-id", "--confirm", "1", "9"}, "will answer on id 9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := runCLI(t, append([]string{"--port", "sim", "--ack-policy", "all"}, tt.args...)...)
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestSimStatus(t *testing.T) {
	out, _, err := runCLI(t, "--port", "sim", "status", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "motor 4: ok")
}

func TestInvalidPosition(t *testing.T) {
	_, errOut, err := runCLI(t, "--port", "sim", "position", "1", "5000")
	require.Error(t, err)
	assert.Equal(t, "Invalid parameter", err.Error())
	assert.Contains(t, errOut, "position 5000")
}

func TestUnknownMotorName(t *testing.T) {
	_, errOut, err := runCLI(t, "--port", "sim", "temp", "gripper")
	require.Error(t, err)
	assert.Contains(t, errOut, "unknown motor")
}

func TestConfiguredMotorNames(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "robot.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bus:\n  port: sim\nmotors:\n  gripper: 3\n  wrist: 5\n"), 0o644))

	out, _, err := runCLI(t, "--config", path, "temp")
	require.NoError(t, err)
	assert.Equal(t, "ID  TEMP\n3   96\n5   96\n", out)
}

func TestInvalidConfiguration(t *testing.T) {
	_, errOut, err := runCLI(t, "--port", "sim", "--model", "ax-12", "temp", "1")
	require.Error(t, err)
	assert.Equal(t, "Invalid configuration", err.Error())
	assert.Contains(t, errOut, "bus.model")
}

func TestMonitorCount(t *testing.T) {
	out, _, err := runCLI(t, "--port", "sim", "monitor", "-n", "2", "-i", "1ms", "1")
	require.NoError(t, err)
	assert.Equal(t, 2, bytes.Count([]byte(out), []byte("motor 1: temp=96")))
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.FileName)

	out, _, err := runCLI(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+path)

	_, _, err = runCLI(t, "config", "init", path)
	require.Error(t, err)

	_, _, err = runCLI(t, "config", "init", "--force", path)
	require.NoError(t, err)
}

func TestConfigShow(t *testing.T) {
	out, _, err := runCLI(t, "--port", "sim", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "port: sim")
	assert.Contains(t, out, "lock_timeout: 500ms")
}

func TestShellRunLine(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	var out, errOut bytes.Buffer
	a := newApp()
	a.p = printer.New(&out, &errOut)
	a.cfg = config.Default()
	a.cfg.Bus.Port = config.SimPort
	t.Cleanup(a.close)

	ctx := context.Background()
	require.NoError(t, a.runLine(ctx, []string{"torque", "on", "6"}))
	require.NoError(t, a.runLine(ctx, []string{"position", "6", "100"}))
	require.Error(t, a.runLine(ctx, []string{"dance"}))

	// Both lines ran on the same simulated bus.
	servo, ok := a.sim.Servo(6)
	require.True(t, ok)
	assert.True(t, servo.TorqueOn)
	assert.Equal(t, uint16(100), servo.Position)
	assert.Contains(t, errOut.String(), "unknown command")
}

func TestMonitorRejectsInterval(t *testing.T) {
	for _, interval := range []string{"0", "-1s"} {
		_, errOut, err := runCLI(t, "--port", "sim", "monitor", "--interval="+interval, "1")
		require.Error(t, err, interval)
		assert.Equal(t, "Invalid parameter", err.Error())
		assert.Contains(t, errOut, "--interval must be positive")
	}
}

func TestTemperatureWithoutReadAcks(t *testing.T) {
	out, _, err := runCLI(t, "--port", "sim", "--ack-policy", "none", "temp", "1")
	require.Error(t, err)
	assert.Equal(t, "Invalid parameter", err.Error())
	assert.NotContains(t, out, "TEMP")
}

func TestBusClosedAfterFailedCommand(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
	t.Chdir(t.TempDir())

	a := newApp()
	root := newRootCmd(a)
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--port", "sim", "position", "1", "5000"})

	require.Error(t, root.ExecuteContext(context.Background()))
	require.NotNil(t, a.sim, "the command opened the bus")
	assert.Nil(t, a.motors)
}
