package vm

// Device is the capability set a memory-mapped peripheral exposes. A
// device claims an inclusive-bounds address range and advertises one
// native access width; the bus adapts other widths at the boundary
// (byte-lane extraction for word devices, little-endian decomposition
// into byte accesses for byte devices). Modeled as a tagged capability
// set rather than a single uniform interface, so no device is forced to
// answer a width it does not natively speak.
type Device interface {
	// Name identifies the device for dump/info output.
	Name() string
	// Range reports the inclusive [start, end] offset range (relative
	// to the device-bus window) this device claims.
	Range() (start, end uint32)
	// Kind reports the device's native access width.
	Kind() DeviceKind
}

// DeviceKind is the native access width a device answers directly.
type DeviceKind int

const (
	KindByte DeviceKind = iota
	KindHalfword
	KindWord
)

// ByteDevice is implemented by devices whose native width is a byte.
type ByteDevice interface {
	Device
	ReadByte(offset uint32) (byte, error)
	StoreByte(offset uint32, data byte) error
}

// WordDevice is implemented by devices whose native width is a word.
type WordDevice interface {
	Device
	ReadWord(offset uint32) (uint32, error)
	StoreWord(offset uint32, data uint32) error
}

// deviceNibble marks the top 1/16th of the 32-bit address space (top
// nibble 0xF) as the device bus window; all other addresses target
// linear RAM.
const deviceNibble = 0xF

func isDeviceAddress(addr uint32) bool {
	return (addr >> 28) == deviceNibble
}

// AddressSpace unifies linear RAM with a device bus. Addresses whose top
// nibble is 0xF are offered to devices in insertion order (first match
// wins); all others target RAM.
type AddressSpace struct {
	ram       []byte
	memoryTop uint32 // 0 means the full 32-bit space is RAM-backed
	devices   []Device
}

// NewAddressSpace allocates memory_top bytes of RAM (or the full 32-bit
// space when memoryTop is 0 -- in that case 1 MiB is allocated up front
// and the slice is grown on demand to the highest address touched, to
// avoid a 4GiB up-front allocation).
func NewAddressSpace(memoryTop uint32) *AddressSpace {
	size := memoryTop
	if size == 0 {
		// Full address space is logically available; only a sane working
		// set is pre-allocated, matching the "0 means full address space"
		// contract without an eager 4GiB allocation.
		size = 1 << 20
	}
	return &AddressSpace{ram: make([]byte, size), memoryTop: memoryTop}
}

// AddDevice registers a device on the bus in insertion order.
func (as *AddressSpace) AddDevice(d Device) {
	as.devices = append(as.devices, d)
}

// Devices returns the registered device list, in bus order.
func (as *AddressSpace) Devices() []Device { return as.devices }

func (as *AddressSpace) findDevice(offset uint32) Device {
	for _, d := range as.devices {
		start, end := d.Range()
		if offset >= start && offset <= end {
			return d
		}
	}
	return nil
}

func (as *AddressSpace) inRAMBounds(addr uint32, width uint32) bool {
	if as.memoryTop == 0 {
		return true
	}
	if width == 1 {
		return addr < as.memoryTop
	}
	end := addr + width // saturating
	if end < addr {
		end = ^uint32(0)
	}
	return end <= as.memoryTop
}

func (as *AddressSpace) ensureRAM(addr uint32, width uint32) {
	need := int(addr) + int(width)
	if need > len(as.ram) {
		grown := make([]byte, need)
		copy(grown, as.ram)
		as.ram = grown
	}
}

// ReadInstructionBytes fetches four bytes for decode. Requires 4-byte
// alignment and in-bounds access.
func (as *AddressSpace) ReadInstructionBytes(addr uint32) ([]byte, error) {
	if addr%4 != 0 {
		return nil, InstructionAddressMisaligned{Addr: addr}
	}
	if !as.inRAMBounds(addr, 4) {
		return nil, InstructionAccessFault{Addr: addr}
	}
	as.ensureRAM(addr, 4)
	return as.ram[addr : addr+4 : addr+4], nil
}

// ReadByte reads one byte, routing to a device if addr falls in the
// device window.
func (as *AddressSpace) ReadByte(addr uint32) (byte, error) {
	if isDeviceAddress(addr) {
		return as.deviceReadByte(addr & 0x0FFFFFFF)
	}
	if !as.inRAMBounds(addr, 1) {
		return 0, LoadAccessFault{Addr: addr}
	}
	as.ensureRAM(addr, 1)
	return as.ram[addr], nil
}

// StoreByte writes one byte, routing to a device if addr falls in the
// device window.
func (as *AddressSpace) StoreByte(addr uint32, data byte) error {
	if isDeviceAddress(addr) {
		return as.deviceStoreByte(addr&0x0FFFFFFF, data)
	}
	if !as.inRAMBounds(addr, 1) {
		return LoadAccessFault{Addr: addr}
	}
	as.ensureRAM(addr, 1)
	as.ram[addr] = data
	return nil
}

// ReadHalfword reads two little-endian bytes.
func (as *AddressSpace) ReadHalfword(addr uint32) (uint16, error) {
	if isDeviceAddress(addr) {
		v, err := as.deviceReadMulti(addr&0x0FFFFFFF, 2)
		return uint16(v), err
	}
	if !as.inRAMBounds(addr, 2) {
		return 0, LoadAccessFault{Addr: addr}
	}
	as.ensureRAM(addr, 2)
	return uint16(as.ram[addr]) | uint16(as.ram[addr+1])<<8, nil
}

// StoreHalfword writes two little-endian bytes.
func (as *AddressSpace) StoreHalfword(addr uint32, data uint16) error {
	if isDeviceAddress(addr) {
		return as.deviceStoreMulti(addr&0x0FFFFFFF, uint32(data), 2)
	}
	if !as.inRAMBounds(addr, 2) {
		return LoadAccessFault{Addr: addr}
	}
	as.ensureRAM(addr, 2)
	as.ram[addr] = byte(data)
	as.ram[addr+1] = byte(data >> 8)
	return nil
}

// ReadWord reads four little-endian bytes.
func (as *AddressSpace) ReadWord(addr uint32) (uint32, error) {
	if isDeviceAddress(addr) {
		v, err := as.deviceReadMulti(addr&0x0FFFFFFF, 4)
		return v, err
	}
	if !as.inRAMBounds(addr, 4) {
		return 0, LoadAccessFault{Addr: addr}
	}
	as.ensureRAM(addr, 4)
	return bytesToU32(as.ram[addr : addr+4]), nil
}

// StoreWord writes four little-endian bytes.
func (as *AddressSpace) StoreWord(addr uint32, data uint32) error {
	if isDeviceAddress(addr) {
		return as.deviceStoreMulti(addr&0x0FFFFFFF, data, 4)
	}
	if !as.inRAMBounds(addr, 4) {
		return LoadAccessFault{Addr: addr}
	}
	as.ensureRAM(addr, 4)
	as.ram[addr] = byte(data)
	as.ram[addr+1] = byte(data >> 8)
	as.ram[addr+2] = byte(data >> 16)
	as.ram[addr+3] = byte(data >> 24)
	return nil
}

// LoadImage writes raw bytes starting at addr, growing RAM as needed.
// Used by the memory-image loader.
func (as *AddressSpace) LoadImage(addr uint32, data []byte) {
	as.ensureRAM(addr, uint32(len(data)))
	copy(as.ram[addr:], data)
}

// MemoryTop reports the configured RAM size (0 means the full 32-bit
// address space).
func (as *AddressSpace) MemoryTop() uint32 { return as.memoryTop }

// ReadRange copies count bytes starting at addr out of guest RAM,
// bounds-checked against [addr, addr+count). Used by the environment to
// service read/write syscalls; does not route through the device bus,
// matching spec.md §4.6 ("copies into guest memory").
func (as *AddressSpace) ReadRange(addr, count uint32) ([]byte, error) {
	if !as.inRAMBounds(addr, count) {
		return nil, LoadAccessFault{Addr: addr}
	}
	as.ensureRAM(addr, count)
	out := make([]byte, count)
	copy(out, as.ram[addr:addr+count])
	return out, nil
}

// WriteRange writes data starting at addr into guest RAM, bounds-checked
// against [addr, addr+len(data)).
func (as *AddressSpace) WriteRange(addr uint32, data []byte) error {
	count := uint32(len(data))
	if !as.inRAMBounds(addr, count) {
		return LoadAccessFault{Addr: addr}
	}
	as.ensureRAM(addr, count)
	copy(as.ram[addr:addr+count], data)
	return nil
}

// ReadCString reads bytes starting at addr until a NUL terminator is
// found. Absence of a NUL within the rest of memory is a fault, per
// spec.md §4.6.
func (as *AddressSpace) ReadCString(addr uint32) (string, error) {
	limit := uint32(len(as.ram))
	if as.memoryTop != 0 {
		limit = as.memoryTop
	}
	for i := addr; i < limit; i++ {
		if i >= uint32(len(as.ram)) {
			as.ensureRAM(i, 1)
		}
		if as.ram[i] == 0 {
			return string(as.ram[addr:i]), nil
		}
	}
	return "", LoadAccessFault{Addr: addr}
}

// --- device-bus width adaptation ---

func (as *AddressSpace) deviceReadByte(offset uint32) (byte, error) {
	d := as.findDevice(offset)
	if d == nil {
		return 0, LoadAccessFault{Addr: offset}
	}
	switch dev := d.(type) {
	case ByteDevice:
		b, err := dev.ReadByte(offset - rangeStart(dev))
		if err != nil {
			return 0, DeviceError{Err: err}
		}
		return b, nil
	case WordDevice:
		// Byte access into a word device: read the naturally-aligned word
		// and extract the requested lane.
		base := rangeStart(dev)
		aligned := offset &^ 3
		word, err := dev.ReadWord(aligned - base)
		if err != nil {
			return 0, DeviceError{Err: err}
		}
		lane := (offset - aligned) * 8
		return byte(word >> lane), nil
	default:
		return 0, LoadAccessFault{Addr: offset}
	}
}

func (as *AddressSpace) deviceStoreByte(offset uint32, data byte) error {
	d := as.findDevice(offset)
	if d == nil {
		return LoadAccessFault{Addr: offset}
	}
	switch dev := d.(type) {
	case ByteDevice:
		if err := dev.StoreByte(offset-rangeStart(dev), data); err != nil {
			return DeviceError{Err: err}
		}
		return nil
	case WordDevice:
		base := rangeStart(dev)
		aligned := offset &^ 3
		rel := aligned - base
		word, err := dev.ReadWord(rel)
		if err != nil {
			return DeviceError{Err: err}
		}
		laneBits := (offset - aligned) * 8
		// Correct read-modify-write: clear the target lane, then OR in the
		// new byte. (The original source's lane-mask bug used a plain OR
		// without first clearing the lane; spec.md §4.3/§9 calls for the
		// clear-then-OR form used here.)
		word = (word &^ (0xFF << laneBits)) | (uint32(data) << laneBits)
		if err := dev.StoreWord(rel, word); err != nil {
			return DeviceError{Err: err}
		}
		return nil
	default:
		return LoadAccessFault{Addr: offset}
	}
}

// deviceReadMulti services a halfword/word read against whichever device
// claims offset, decomposing into sequential byte reads when the device
// is byte-kind (ascending-address, little-endian).
func (as *AddressSpace) deviceReadMulti(offset uint32, width uint32) (uint32, error) {
	d := as.findDevice(offset)
	if d == nil {
		return 0, LoadAccessFault{Addr: offset}
	}
	switch dev := d.(type) {
	case WordDevice:
		if width == 4 {
			v, err := dev.ReadWord(offset - rangeStart(dev))
			if err != nil {
				return 0, DeviceError{Err: err}
			}
			return v, nil
		}
		// Halfword access into a word device: read the word, extract the lane.
		base := rangeStart(dev)
		aligned := offset &^ 3
		word, err := dev.ReadWord(aligned - base)
		if err != nil {
			return 0, DeviceError{Err: err}
		}
		lane := (offset - aligned) * 8
		return (word >> lane) & 0xFFFF, nil
	case ByteDevice:
		var result uint32
		for i := uint32(0); i < width; i++ {
			b, err := dev.ReadByte(offset + i - rangeStart(dev))
			if err != nil {
				return 0, DeviceError{Err: err}
			}
			result |= uint32(b) << (8 * i)
		}
		return result, nil
	default:
		return 0, LoadAccessFault{Addr: offset}
	}
}

func (as *AddressSpace) deviceStoreMulti(offset uint32, data uint32, width uint32) error {
	d := as.findDevice(offset)
	if d == nil {
		return LoadAccessFault{Addr: offset}
	}
	switch dev := d.(type) {
	case WordDevice:
		if width == 4 {
			if err := dev.StoreWord(offset-rangeStart(dev), data); err != nil {
				return DeviceError{Err: err}
			}
			return nil
		}
		base := rangeStart(dev)
		aligned := offset &^ 3
		rel := aligned - base
		word, err := dev.ReadWord(rel)
		if err != nil {
			return DeviceError{Err: err}
		}
		laneBits := (offset - aligned) * 8
		word = (word &^ (0xFFFF << laneBits)) | ((data & 0xFFFF) << laneBits)
		if err := dev.StoreWord(rel, word); err != nil {
			return DeviceError{Err: err}
		}
		return nil
	case ByteDevice:
		for i := uint32(0); i < width; i++ {
			b := byte(data >> (8 * i))
			if err := dev.StoreByte(offset+i-rangeStart(dev), b); err != nil {
				return DeviceError{Err: err}
			}
		}
		return nil
	default:
		return LoadAccessFault{Addr: offset}
	}
}

func rangeStart(d Device) uint32 {
	start, _ := d.Range()
	return start
}
