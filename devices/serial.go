// Package devices implements the memory-mapped peripherals pluggable
// onto the simulator's device bus via --device NAME[,opt=val]*.
package devices

import (
	"strconv"
	"sync"

	"github.com/lookbusy1344/rv32sim/vm"
)

// defaultSerialBase is the default offset within the device bus's
// top-nibble-0xF window: 0xF0003F8, i.e. full address 0xFF0003F8, which
// keeps the UART-style 0x3F8 low bits clear of the framebuffer's default
// range at offset 0.
const defaultSerialBase = 0xF0003F8 & 0x0FFFFFFF

// Serial is a byte-kind UART-like device. Grounded on
// original_source/src/devices/serial.rs's Serial{base_address, backend,
// read_buffer}: offset 0 is the data register (write transmits, read
// dequeues), offset 5 is a line-status register whose bit 5 reports
// "receive data available". The original's PTY-backed backend is
// replaced with an in-process ring buffer fed by a background goroutine
// standing in for the external wire, since a real PTY is host/terminal
// plumbing out of scope for this simulator.
type Serial struct {
	base uint32
	size uint32

	mu  sync.Mutex
	rx  []byte
	tx  chan byte
	log []byte // transmitted bytes, for test/debug introspection
}

// NewSerial constructs a Serial device from a device-configuration
// option map (see ParseConfig). Recognized options: "address"
// (decimal offset within the device window, default defaultSerialBase).
func NewSerial(opts map[string]string) (*Serial, error) {
	base := uint32(defaultSerialBase)
	if a, ok := opts["address"]; ok {
		v, err := strconv.ParseUint(a, 10, 32)
		if err != nil {
			return nil, err
		}
		base = uint32(v)
	}
	s := &Serial{base: base, size: 8, tx: make(chan byte, 256)}
	go s.drain()
	return s, nil
}

// drain stands in for the original's write thread: bytes written to the
// data register are appended to an internal transmit log rather than
// sent over a real wire, since no such wire exists in this simulator.
func (s *Serial) drain() {
	for b := range s.tx {
		s.mu.Lock()
		s.log = append(s.log, b)
		s.mu.Unlock()
	}
}

// Feed injects a byte as if received from the remote end, for tests and
// for a future host-side bridge.
func (s *Serial) Feed(b byte) {
	s.mu.Lock()
	s.rx = append(s.rx, b)
	s.mu.Unlock()
}

// Transmitted returns the bytes written to the device so far, in order.
func (s *Serial) Transmitted() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.log...)
}

func (s *Serial) Name() string { return "serial" }

func (s *Serial) Range() (start, end uint32) { return s.base, s.base + s.size - 1 }

func (s *Serial) Kind() vm.DeviceKind { return vm.KindByte }

func (s *Serial) ReadByte(offset uint32) (byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch offset {
	case 5: // line status register: bit 5 = receive data available
		if len(s.rx) != 0 {
			return 1 << 5, nil
		}
		return 0, nil
	case 0:
		if len(s.rx) == 0 {
			return 0, nil
		}
		b := s.rx[0]
		s.rx = s.rx[1:]
		return b, nil
	default:
		return 0, nil
	}
}

func (s *Serial) StoreByte(offset uint32, data byte) error {
	if offset == 0 {
		s.tx <- data
	}
	return nil
}
