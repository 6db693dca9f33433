package config

import (
	"fmt"
	"strings"

	"github.com/ClubRobotInsat/herkulex-go/drs"
	"github.com/ClubRobotInsat/herkulex-go/internal/logging"
)

const maxMotorID = int(drs.MaxID)

// SimPort selects the in-process simulated bus instead of a serial device.
const SimPort = "sim"

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "bus.baud")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError
	errs = append(errs, c.validateBus()...)
	errs = append(errs, c.validateLog()...)
	errs = append(errs, c.validateMotors()...)
	return errs
}

func (c *Config) validateBus() []ValidationError {
	var errs []ValidationError
	b := c.Bus

	if b.Port == "" {
		errs = append(errs, ValidationError{Field: "bus.port", Value: b.Port, Message: "must not be empty"})
	}

	model, ok := drs.GetModel(b.Model)
	if !ok {
		errs = append(errs, ValidationError{
			Field:   "bus.model",
			Value:   b.Model,
			Message: "must be one of " + strings.Join(drs.ListModels(), ", "),
		})
	} else if !model.SupportsBaudRate(b.BaudRate) {
		errs = append(errs, ValidationError{
			Field:   "bus.baud",
			Value:   b.BaudRate,
			Message: fmt.Sprintf("not supported by %s (supported: %v)", model.Name, model.BaudRates),
		})
	}

	if _, err := drs.ParseAckPolicy(b.AckPolicy); err != nil {
		errs = append(errs, ValidationError{Field: "bus.ack_policy", Value: b.AckPolicy, Message: "must be none, reads or all"})
	}
	if b.ReadTimeout <= 0 {
		errs = append(errs, ValidationError{Field: "bus.read_timeout", Value: b.ReadTimeout, Message: "must be positive"})
	}
	if b.LockTimeout < 0 {
		errs = append(errs, ValidationError{Field: "bus.lock_timeout", Value: b.LockTimeout, Message: "must not be negative"})
	}
	if b.CommandGap < 0 {
		errs = append(errs, ValidationError{Field: "bus.command_gap", Value: b.CommandGap, Message: "must not be negative"})
	}
	return errs
}

func (c *Config) validateLog() []ValidationError {
	var errs []ValidationError

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, ValidationError{Field: "log.level", Value: c.Log.Level, Message: "must be debug, info, warn or error"})
	}
	switch strings.ToLower(c.Log.Format) {
	case "", logging.FormatText, logging.FormatJSON:
	default:
		errs = append(errs, ValidationError{Field: "log.format", Value: c.Log.Format, Message: "must be text or json"})
	}
	return errs
}

func (c *Config) validateMotors() []ValidationError {
	var errs []ValidationError
	seen := make(map[int]string)

	for _, name := range c.MotorNames() {
		id := c.Motors[name]
		field := "motors." + name
		if id < 0 || id > maxMotorID {
			errs = append(errs, ValidationError{Field: field, Value: id, Message: fmt.Sprintf("id must be within 0-%d", maxMotorID)})
			continue
		}
		if other, dup := seen[id]; dup {
			errs = append(errs, ValidationError{Field: field, Value: id, Message: "id already used by motors." + other})
			continue
		}
		seen[id] = name
	}
	return errs
}
