package drs

import (
	"encoding/binary"
	"sync"
)

// SimServo is the state of one simulated servo.
type SimServo struct {
	ID          byte
	EEPID       byte
	Temperature byte
	Position    uint16
	Speed       uint16
	Rotation    Rotation
	SpeedMode   bool
	TorqueOn    bool
	Status      Status
	Reboots     int
}

// Simulator answers command frames the way a chain of DRS servos would.
// It is meant to sit behind a loopback transport in tests and demos.
type Simulator struct {
	// AutoAttach creates a servo on the fly for any unicast id addressed.
	AutoAttach bool
	// Ack is the ACK policy every simulated servo runs with.
	Ack AckPolicy
	// Mute suppresses every ack, simulating a disconnected bus.
	Mute bool

	proto  *Protocol
	mu     sync.Mutex
	servos map[byte]*SimServo
}

// NewSimulator creates a simulator with servos at the given ids.
func NewSimulator(model Model, ids ...byte) *Simulator {
	s := &Simulator{
		Ack:    AckReads,
		proto:  New(model),
		servos: make(map[byte]*SimServo),
	}
	for _, id := range ids {
		s.Attach(id)
	}
	return s
}

// Attach adds a servo at id, or returns the existing one.
func (s *Simulator) Attach(id byte) *SimServo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attachLocked(id)
}

func (s *Simulator) attachLocked(id byte) *SimServo {
	if sv, ok := s.servos[id]; ok {
		return sv
	}
	sv := &SimServo{ID: id, EEPID: id, Temperature: 0x60}
	s.servos[id] = sv
	return sv
}

// Servo returns a copy of the servo state at id.
func (s *Simulator) Servo(id byte) (SimServo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sv, ok := s.servos[id]
	if !ok {
		return SimServo{}, false
	}
	return *sv, true
}

// Update runs fn on the servo at id under the simulator lock.
func (s *Simulator) Update(id byte, fn func(*SimServo)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sv, ok := s.servos[id]
	if ok {
		fn(sv)
	}
	return ok
}

// Respond consumes one command frame and returns the ack bytes, if any.
func (s *Simulator) Respond(frame []byte) []byte {
	pkt, _, err := s.proto.DecodePacket(frame)
	if err != nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if pkt.ID == BroadcastID {
		if pkt.Cmd == CmdSJog {
			s.applyJogLocked(pkt)
			return nil
		}
		// Snapshot first: a reboot may re-key servos in the map.
		all := make([]*SimServo, 0, len(s.servos))
		for _, sv := range s.servos {
			all = append(all, sv)
		}
		for _, sv := range all {
			s.applyLocked(sv, pkt)
		}
		return nil
	}

	sv, ok := s.servos[pkt.ID]
	if !ok {
		if !s.AutoAttach {
			return nil
		}
		sv = s.attachLocked(pkt.ID)
	}

	var data []byte
	answer := s.Ack == AckAll
	switch pkt.Cmd {
	case CmdRAMRead, CmdEEPRead:
		if len(pkt.Data) < 2 {
			sv.Status.Error |= ErrInvalidPacket
			return nil
		}
		data = append(data, pkt.Data[0], pkt.Data[1])
		data = append(data, s.readLocked(sv, pkt.Cmd, pkt.Data[0], pkt.Data[1])...)
		answer = s.Ack != AckNone
	case CmdStat:
		answer = true
	case CmdSJog:
		s.applyJogLocked(pkt)
	default:
		s.applyLocked(sv, pkt)
	}

	if !answer || s.Mute {
		return nil
	}
	data = append(data, byte(sv.Status.Error), byte(sv.Status.Detail))
	return s.proto.EncodePacket(Packet{ID: pkt.ID, Cmd: pkt.Cmd | AckFlag, Data: data})
}

func (s *Simulator) applyLocked(sv *SimServo, pkt Packet) {
	switch pkt.Cmd {
	case CmdReboot:
		sv.Reboots++
		sv.TorqueOn = false
		sv.Status = Status{}
		if sv.EEPID != sv.ID {
			delete(s.servos, sv.ID)
			sv.ID = sv.EEPID
			s.servos[sv.ID] = sv
		}
	case CmdRAMWrite:
		if len(pkt.Data) < 3 {
			return
		}
		switch pkt.Data[0] {
		case RAMTorqueControl.Address:
			sv.TorqueOn = pkt.Data[2] == TorqueOn
			if sv.TorqueOn {
				sv.Status.Detail |= DetailMotorOn
			} else {
				sv.Status.Detail &^= DetailMotorOn
			}
		case RAMStatusError.Address:
			sv.Status.Error = StatusError(pkt.Data[2])
			if len(pkt.Data) > 3 {
				sv.Status.Detail = StatusDetail(pkt.Data[3]) | sv.Status.Detail&DetailMotorOn
			}
		}
	case CmdEEPWrite:
		if len(pkt.Data) >= 3 && pkt.Data[0] == EEPID.Address {
			sv.EEPID = pkt.Data[2]
		}
	}
}

func (s *Simulator) applyJogLocked(pkt Packet) {
	if len(pkt.Data) < 1 {
		return
	}
	for i := 1; i+4 <= len(pkt.Data); i += 4 {
		value := binary.LittleEndian.Uint16(pkt.Data[i : i+2])
		set := pkt.Data[i+2]
		sv, ok := s.servos[pkt.Data[i+3]]
		if !ok {
			continue
		}
		if set&jogSetSpeedMode != 0 {
			sv.SpeedMode = true
			sv.Speed = value &^ speedDirectionBit
			sv.Rotation = Clockwise
			if value&speedDirectionBit != 0 {
				sv.Rotation = CounterClockwise
			}
		} else {
			sv.SpeedMode = false
			sv.Position = value
		}
	}
}

func (s *Simulator) readLocked(sv *SimServo, cmd, addr, size byte) []byte {
	out := make([]byte, size)
	if size == 0 {
		return out
	}
	switch {
	case cmd == CmdRAMRead && addr == RAMTemperature.Address:
		out[0] = sv.Temperature
	case cmd == CmdRAMRead && addr == RAMCalibratedPosition.Address && size == 2:
		binary.LittleEndian.PutUint16(out, sv.Position)
	case cmd == CmdRAMRead && addr == RAMID.Address:
		out[0] = sv.ID
	case cmd == CmdEEPRead && addr == EEPID.Address:
		out[0] = sv.EEPID
	}
	return out
}
