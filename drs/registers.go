package drs

// Register represents an entry of the servo EEP or RAM register map.
type Register struct {
	Address byte
	Size    byte
}

// EEP registers (non-volatile, copied to RAM at boot).
var (
	EEPModelNo1      = Register{Address: 0, Size: 1}
	EEPModelNo2      = Register{Address: 1, Size: 1}
	EEPVersion1      = Register{Address: 2, Size: 1}
	EEPVersion2      = Register{Address: 3, Size: 1}
	EEPBaudRate      = Register{Address: 4, Size: 1}
	EEPID            = Register{Address: 6, Size: 1}
	EEPAckPolicy     = Register{Address: 7, Size: 1}
	EEPAlarmLED      = Register{Address: 8, Size: 1}
	EEPTorquePolicy  = Register{Address: 9, Size: 1}
	EEPMaxTemp       = Register{Address: 11, Size: 1}
	EEPMinVoltage    = Register{Address: 12, Size: 1}
	EEPMaxVoltage    = Register{Address: 13, Size: 1}
	EEPMinPosition   = Register{Address: 26, Size: 2}
	EEPMaxPosition   = Register{Address: 28, Size: 2}
	EEPPositionKp    = Register{Address: 30, Size: 2}
	EEPPositionKd    = Register{Address: 32, Size: 2}
	EEPPositionKi    = Register{Address: 34, Size: 2}
	EEPInpositionGap = Register{Address: 50, Size: 1}
)

// RAM registers (volatile).
var (
	RAMID                 = Register{Address: 0, Size: 1}
	RAMAckPolicy          = Register{Address: 1, Size: 1}
	RAMStatusError        = Register{Address: 48, Size: 1}
	RAMStatusDetail       = Register{Address: 49, Size: 1}
	RAMTorqueControl      = Register{Address: 52, Size: 1}
	RAMLEDControl         = Register{Address: 53, Size: 1}
	RAMVoltage            = Register{Address: 54, Size: 1}
	RAMTemperature        = Register{Address: 55, Size: 1}
	RAMCurrentControlMode = Register{Address: 56, Size: 1}
	RAMTick               = Register{Address: 57, Size: 1}
	RAMCalibratedPosition = Register{Address: 58, Size: 2}
	RAMAbsolutePosition   = Register{Address: 60, Size: 2}
	RAMDifferentialPos    = Register{Address: 62, Size: 2}
	RAMPWM                = Register{Address: 64, Size: 2}
	RAMAbsoluteGoal       = Register{Address: 68, Size: 2}
)

// Values accepted by RAMTorqueControl.
const (
	TorqueFree  byte = 0x00
	TorqueBreak byte = 0x40
	TorqueOn    byte = 0x60
)
