package drs

import "fmt"

// Operation identifies a logical servo operation the codec knows how to
// turn into a frame.
type Operation int

const (
	OpReboot Operation = iota
	OpTorqueOn
	OpTorqueOff
	OpSetPosition
	OpSetSpeed
	OpReadTemperature
	OpReadPosition
	OpSetIDEEP
	OpReadIDEEP
	OpStatus
	OpClearErrors
	OpSyncJog
)

var operationNames = map[Operation]string{
	OpReboot:          "reboot",
	OpTorqueOn:        "enable torque",
	OpTorqueOff:       "disable torque",
	OpSetPosition:     "set position",
	OpSetSpeed:        "set speed",
	OpReadTemperature: "read temperature",
	OpReadPosition:    "read position",
	OpSetIDEEP:        "set eep id",
	OpReadIDEEP:       "read eep id",
	OpStatus:          "status",
	OpClearErrors:     "clear errors",
	OpSyncJog:         "sync jog",
}

// IsQuery reports whether op only makes sense with an ack carrying its result.
func (op Operation) IsQuery() bool {
	switch op {
	case OpReadTemperature, OpReadPosition, OpReadIDEEP, OpStatus:
		return true
	}
	return false
}

func (op Operation) String() string {
	if s, ok := operationNames[op]; ok {
		return s
	}
	return fmt.Sprintf("operation(%d)", int(op))
}

// Rotation is the direction used by continuous rotation jogs.
type Rotation int

const (
	Clockwise Rotation = iota
	CounterClockwise
)

func (r Rotation) String() string {
	if r == CounterClockwise {
		return "counter-clockwise"
	}
	return "clockwise"
}

// Jog modes for a Target.
const (
	JogPosition = iota
	JogSpeed
)

// Target is one servo entry of a synchronised jog.
type Target struct {
	ID       byte
	Mode     int // JogPosition or JogSpeed
	Value    uint16
	Rotation Rotation
}

// Command carries the operation and its parameters. Only the fields used by
// Op are read.
type Command struct {
	Op       Operation
	ID       byte
	Position uint16
	Speed    uint16
	Rotation Rotation
	NewID    byte
	Targets  []Target // OpSyncJog
}

// Response is the decoded content of an ack frame.
type Response struct {
	ID     byte
	Value  int
	Status Status
}
