// Package drs encodes and decodes frames of the Herkulex DRS-0101 and
// DRS-0201 servo protocol.
package drs

import (
	"encoding/binary"
	"fmt"
)

// Command codes per the Herkulex protocol manual.
const (
	CmdEEPWrite byte = 0x01
	CmdEEPRead  byte = 0x02
	CmdRAMWrite byte = 0x03
	CmdRAMRead  byte = 0x04
	CmdIJog     byte = 0x05
	CmdSJog     byte = 0x06
	CmdStat     byte = 0x07
	CmdRollback byte = 0x08
	CmdReboot   byte = 0x09

	// AckFlag is or-ed into the command code of every ack.
	AckFlag byte = 0x40
)

// Special ID values.
const (
	BroadcastID byte = 0xFE
	MaxID       byte = 0xFD
)

// Frame layout: FF FF size pID cmd cs1 cs2 data...
const (
	headerByte   = 0xFF
	headerLen    = 7
	ackStatusLen = 2
	checksumMask = 0xFE

	// speedDirectionBit marks a counter-clockwise continuous rotation jog.
	speedDirectionBit = 0x4000

	jogSetSpeedMode = 0x02
)

// DefaultPlaytime is the S_JOG playtime in 11.2ms units.
const DefaultPlaytime byte = 0x3C

// AckPolicy mirrors the servo's ACK policy register.
type AckPolicy byte

const (
	AckNone  AckPolicy = 0 // Only STAT is answered
	AckReads AckPolicy = 1 // READ and STAT are answered (factory default)
	AckAll   AckPolicy = 2 // Every command is answered
)

func (a AckPolicy) String() string {
	switch a {
	case AckNone:
		return "none"
	case AckReads:
		return "reads"
	case AckAll:
		return "all"
	}
	return fmt.Sprintf("AckPolicy(%d)", byte(a))
}

// ParseAckPolicy converts a configuration name to an AckPolicy.
func ParseAckPolicy(s string) (AckPolicy, error) {
	switch s {
	case "none":
		return AckNone, nil
	case "", "reads":
		return AckReads, nil
	case "all":
		return AckAll, nil
	}
	return AckReads, fmt.Errorf("unknown ack policy %q (want none, reads or all)", s)
}

// Packet is a decoded Herkulex frame.
type Packet struct {
	ID   byte
	Cmd  byte
	Data []byte
}

// Protocol builds command frames and parses ack frames for one servo model.
// A Protocol is immutable and safe for concurrent use.
type Protocol struct {
	model    Model
	ack      AckPolicy
	playtime byte
}

// New creates a codec for the given model using the factory ACK policy.
func New(model Model) *Protocol {
	return &Protocol{
		model:    model,
		ack:      AckReads,
		playtime: DefaultPlaytime,
	}
}

// WithAckPolicy returns a copy of p expecting acks per policy.
func (p *Protocol) WithAckPolicy(policy AckPolicy) *Protocol {
	c := *p
	c.ack = policy
	return &c
}

// WithPlaytime returns a copy of p using t as the jog playtime.
func (p *Protocol) WithPlaytime(t byte) *Protocol {
	c := *p
	c.playtime = t
	return &c
}

// Model returns the servo model this codec validates against.
func (p *Protocol) Model() Model {
	return p.model
}

// AckPolicy returns the ACK policy this codec expects.
func (p *Protocol) AckPolicy() AckPolicy {
	return p.ack
}

// Checksums computes the two checksum bytes of a frame.
func Checksums(size, id, cmd byte, data []byte) (byte, byte) {
	cs := size ^ id ^ cmd
	for _, b := range data {
		cs ^= b
	}
	cs1 := cs & checksumMask
	cs2 := ^cs1 & checksumMask
	return cs1, cs2
}

// EncodePacket constructs a wire-format frame.
func (p *Protocol) EncodePacket(pkt Packet) []byte {
	size := byte(headerLen + len(pkt.Data))
	cs1, cs2 := Checksums(size, pkt.ID, pkt.Cmd, pkt.Data)

	buf := make([]byte, 0, int(size))
	buf = append(buf, headerByte, headerByte, size, pkt.ID, pkt.Cmd, cs1, cs2)
	buf = append(buf, pkt.Data...)
	return buf
}

// DecodePacket parses a wire-format frame, skipping leading garbage.
// Returns the packet and the number of bytes consumed.
func (p *Protocol) DecodePacket(data []byte) (Packet, int, error) {
	if len(data) < headerLen {
		return Packet{}, 0, fmt.Errorf("%w: %d bytes", ErrShortFrame, len(data))
	}

	headerIdx := -1
	for i := 0; i+1 < len(data); i++ {
		if data[i] == headerByte && data[i+1] == headerByte {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return Packet{}, 0, ErrBadHeader
	}

	frame := data[headerIdx:]
	if len(frame) < headerLen {
		return Packet{}, 0, fmt.Errorf("%w: %d bytes after header", ErrShortFrame, len(frame))
	}

	size := int(frame[2])
	if size < headerLen {
		return Packet{}, 0, fmt.Errorf("%w: size field %d", ErrShortFrame, size)
	}
	if len(frame) < size {
		return Packet{}, 0, fmt.Errorf("%w: need %d bytes, have %d", ErrShortFrame, size, len(frame))
	}

	pkt := Packet{ID: frame[3], Cmd: frame[4]}
	if size > headerLen {
		pkt.Data = make([]byte, size-headerLen)
		copy(pkt.Data, frame[headerLen:size])
	}

	cs1, cs2 := Checksums(frame[2], pkt.ID, pkt.Cmd, pkt.Data)
	if frame[5] != cs1 || frame[6] != cs2 {
		return Packet{}, 0, fmt.Errorf("%w: expected %02X %02X, got %02X %02X",
			ErrChecksum, cs1, cs2, frame[5], frame[6])
	}

	return pkt, headerIdx + size, nil
}

// Encode builds the frame for cmd, validating parameters against the model.
func (p *Protocol) Encode(cmd Command) ([]byte, error) {
	if cmd.ID > BroadcastID {
		return nil, fmt.Errorf("%w: servo id 0x%02X", ErrOutOfRange, cmd.ID)
	}
	// Broadcast frames and reads under AckNone are never answered.
	if cmd.Op.IsQuery() && p.ResponseLength(cmd) == 0 {
		return nil, fmt.Errorf("%w: %v on id 0x%02X with ack policy %s", ErrNoAck, cmd.Op, cmd.ID, p.ack)
	}

	pkt := Packet{ID: cmd.ID}
	switch cmd.Op {
	case OpReboot:
		pkt.Cmd = CmdReboot
	case OpTorqueOn:
		pkt.Cmd = CmdRAMWrite
		pkt.Data = []byte{RAMTorqueControl.Address, RAMTorqueControl.Size, TorqueOn}
	case OpTorqueOff:
		pkt.Cmd = CmdRAMWrite
		pkt.Data = []byte{RAMTorqueControl.Address, RAMTorqueControl.Size, TorqueFree}
	case OpSetPosition, OpSetSpeed:
		target := Target{ID: cmd.ID, Value: cmd.Position}
		if cmd.Op == OpSetSpeed {
			target = Target{ID: cmd.ID, Mode: JogSpeed, Value: cmd.Speed, Rotation: cmd.Rotation}
		}
		data, err := p.jogData([]Target{target})
		if err != nil {
			return nil, err
		}
		pkt.Cmd = CmdSJog
		pkt.Data = data
	case OpSyncJog:
		if len(cmd.Targets) == 0 {
			return nil, fmt.Errorf("%w: sync jog without targets", ErrOutOfRange)
		}
		data, err := p.jogData(cmd.Targets)
		if err != nil {
			return nil, err
		}
		pkt.ID = BroadcastID
		pkt.Cmd = CmdSJog
		pkt.Data = data
	case OpReadTemperature:
		pkt.Cmd = CmdRAMRead
		pkt.Data = []byte{RAMTemperature.Address, RAMTemperature.Size}
	case OpReadPosition:
		pkt.Cmd = CmdRAMRead
		pkt.Data = []byte{RAMCalibratedPosition.Address, RAMCalibratedPosition.Size}
	case OpSetIDEEP:
		if cmd.NewID > MaxID {
			return nil, fmt.Errorf("%w: new id 0x%02X (valid range: 0-0x%02X)", ErrOutOfRange, cmd.NewID, MaxID)
		}
		pkt.Cmd = CmdEEPWrite
		pkt.Data = []byte{EEPID.Address, EEPID.Size, cmd.NewID}
	case OpReadIDEEP:
		pkt.Cmd = CmdEEPRead
		pkt.Data = []byte{EEPID.Address, EEPID.Size}
	case OpStatus:
		pkt.Cmd = CmdStat
	case OpClearErrors:
		pkt.Cmd = CmdRAMWrite
		pkt.Data = []byte{RAMStatusError.Address, RAMStatusError.Size + RAMStatusDetail.Size, 0, 0}
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownOperation, cmd.Op)
	}

	return p.EncodePacket(pkt), nil
}

func (p *Protocol) jogData(targets []Target) ([]byte, error) {
	data := make([]byte, 0, 1+4*len(targets))
	data = append(data, p.playtime)

	for _, t := range targets {
		if t.ID > MaxID {
			return nil, fmt.Errorf("%w: jog target id 0x%02X", ErrOutOfRange, t.ID)
		}

		var value uint16
		var set byte
		switch t.Mode {
		case JogPosition:
			if t.Value > p.model.MaxPosition {
				return nil, fmt.Errorf("%w: position %d (valid range: 0-%d)", ErrOutOfRange, t.Value, p.model.MaxPosition)
			}
			value = t.Value
		case JogSpeed:
			if t.Value > p.model.MaxSpeed {
				return nil, fmt.Errorf("%w: speed %d (valid range: 0-%d)", ErrOutOfRange, t.Value, p.model.MaxSpeed)
			}
			value = t.Value
			if t.Rotation == CounterClockwise {
				value |= speedDirectionBit
			}
			set = jogSetSpeedMode
		default:
			return nil, fmt.Errorf("%w: jog mode %d", ErrOutOfRange, t.Mode)
		}

		data = binary.LittleEndian.AppendUint16(data, value)
		data = append(data, set, t.ID)
	}

	return data, nil
}

// ResponseLength returns the length of the ack the servo sends for cmd, or
// zero when no ack is expected.
func (p *Protocol) ResponseLength(cmd Command) int {
	if cmd.ID == BroadcastID || cmd.Op == OpSyncJog {
		return 0
	}

	switch cmd.Op {
	case OpStatus:
		return headerLen + ackStatusLen
	case OpReadTemperature:
		return p.readAckLength(RAMTemperature)
	case OpReadPosition:
		return p.readAckLength(RAMCalibratedPosition)
	case OpReadIDEEP:
		return p.readAckLength(EEPID)
	}

	if p.ack == AckAll {
		return headerLen + ackStatusLen
	}
	return 0
}

func (p *Protocol) readAckLength(reg Register) int {
	if p.ack == AckNone {
		return 0
	}
	// addr(1) + len(1) + data + status(2)
	return headerLen + 2 + int(reg.Size) + ackStatusLen
}

// Decode parses the ack for cmd. A servo reporting a status error yields the
// decoded Response together with a StatusError, except for OpStatus whose
// purpose is to report it.
func (p *Protocol) Decode(cmd Command, frame []byte) (Response, error) {
	pkt, _, err := p.DecodePacket(frame)
	if err != nil {
		return Response{}, err
	}

	want, err := requestCmd(cmd.Op)
	if err != nil {
		return Response{}, err
	}
	if pkt.Cmd != want|AckFlag {
		return Response{}, fmt.Errorf("%w: expected 0x%02X, got 0x%02X", ErrUnexpectedCommand, want|AckFlag, pkt.Cmd)
	}
	if pkt.ID != cmd.ID {
		return Response{}, fmt.Errorf("%w: expected %d, got %d", ErrIDMismatch, cmd.ID, pkt.ID)
	}

	var reg *Register
	switch cmd.Op {
	case OpReadTemperature:
		reg = &RAMTemperature
	case OpReadPosition:
		reg = &RAMCalibratedPosition
	case OpReadIDEEP:
		reg = &EEPID
	}

	resp := Response{ID: pkt.ID}
	payload := pkt.Data
	if reg != nil {
		if len(payload) != 2+int(reg.Size)+ackStatusLen {
			return Response{}, fmt.Errorf("%w: read ack carries %d data bytes", ErrShortFrame, len(payload))
		}
		if payload[0] != reg.Address || payload[1] != reg.Size {
			return Response{}, fmt.Errorf("%w: ack for register %d/%d", ErrUnexpectedCommand, payload[0], payload[1])
		}
		value := payload[2 : 2+int(reg.Size)]
		if reg.Size == 2 {
			resp.Value = int(binary.LittleEndian.Uint16(value) & p.model.MaxPosition)
		} else {
			resp.Value = int(value[0])
		}
		payload = payload[2+int(reg.Size):]
	}

	if len(payload) != ackStatusLen {
		return Response{}, fmt.Errorf("%w: ack status carries %d bytes", ErrShortFrame, len(payload))
	}
	resp.Status = Status{Error: StatusError(payload[0]), Detail: StatusDetail(payload[1])}

	if cmd.Op != OpStatus && resp.Status.Error.HasError() {
		return resp, resp.Status.Error
	}
	return resp, nil
}

// requestCmd maps an operation to its command code.
func requestCmd(op Operation) (byte, error) {
	switch op {
	case OpReboot:
		return CmdReboot, nil
	case OpTorqueOn, OpTorqueOff, OpClearErrors:
		return CmdRAMWrite, nil
	case OpSetPosition, OpSetSpeed, OpSyncJog:
		return CmdSJog, nil
	case OpReadTemperature, OpReadPosition:
		return CmdRAMRead, nil
	case OpSetIDEEP:
		return CmdEEPWrite, nil
	case OpReadIDEEP:
		return CmdEEPRead, nil
	case OpStatus:
		return CmdStat, nil
	}
	return 0, fmt.Errorf("%w: %v", ErrUnknownOperation, op)
}
