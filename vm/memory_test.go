package vm

import "testing"

func TestRAMWordRoundTrip(t *testing.T) {
	mem := NewAddressSpace(4096)
	if err := mem.StoreWord(0x10, 0xDEADBEEF); err != nil {
		t.Fatalf("StoreWord: %v", err)
	}
	got, err := mem.ReadWord(0x10)
	if err != nil {
		t.Fatalf("ReadWord: %v", err)
	}
	if got != 0xDEADBEEF {
		t.Fatalf("got 0x%08X, want 0xDEADBEEF", got)
	}
}

func TestRAMOutOfBoundsFaults(t *testing.T) {
	mem := NewAddressSpace(16)
	if _, err := mem.ReadByte(100); err == nil {
		t.Fatal("expected LoadAccessFault for out-of-bounds read")
	}
	if err := mem.StoreByte(100, 1); err == nil {
		t.Fatal("expected LoadAccessFault for out-of-bounds write")
	}
}

func TestInstructionFetchMisaligned(t *testing.T) {
	mem := NewAddressSpace(4096)
	_, err := mem.ReadInstructionBytes(2)
	if _, ok := err.(InstructionAddressMisaligned); !ok {
		t.Fatalf("expected InstructionAddressMisaligned, got %v (%T)", err, err)
	}
}

func TestInstructionFetchOutOfBounds(t *testing.T) {
	mem := NewAddressSpace(16)
	_, err := mem.ReadInstructionBytes(1000)
	if _, ok := err.(InstructionAccessFault); !ok {
		t.Fatalf("expected InstructionAccessFault, got %v (%T)", err, err)
	}
}

// fakeByteDevice is a minimal ByteDevice for width-adaptation tests.
type fakeByteDevice struct {
	start, end uint32
	bytes      map[uint32]byte
}

func (d *fakeByteDevice) Name() string                  { return "fake-byte" }
func (d *fakeByteDevice) Range() (uint32, uint32)       { return d.start, d.end }
func (d *fakeByteDevice) Kind() DeviceKind              { return KindByte }
func (d *fakeByteDevice) ReadByte(off uint32) (byte, error) {
	return d.bytes[off], nil
}
func (d *fakeByteDevice) StoreByte(off uint32, b byte) error {
	if d.bytes == nil {
		d.bytes = map[uint32]byte{}
	}
	d.bytes[off] = b
	return nil
}

// fakeWordDevice is a minimal WordDevice for width-adaptation tests.
type fakeWordDevice struct {
	start, end uint32
	word       uint32
}

func (d *fakeWordDevice) Name() string            { return "fake-word" }
func (d *fakeWordDevice) Range() (uint32, uint32) { return d.start, d.end }
func (d *fakeWordDevice) Kind() DeviceKind        { return KindWord }
func (d *fakeWordDevice) ReadWord(off uint32) (uint32, error) {
	return d.word, nil
}
func (d *fakeWordDevice) StoreWord(off uint32, data uint32) error {
	d.word = data
	return nil
}

func TestDeviceByteAccessToWordDeviceExtractsLane(t *testing.T) {
	mem := NewAddressSpace(0)
	dev := &fakeWordDevice{start: 0, end: 3, word: 0x11223344}
	mem.AddDevice(dev)

	b, err := mem.ReadByte(0xF0000000)
	if err != nil {
		t.Fatalf("ReadByte: %v", err)
	}
	if b != 0x44 {
		t.Fatalf("lane 0 = 0x%02X, want 0x44", b)
	}
	b, err = mem.ReadByte(0xF0000003)
	if err != nil {
		t.Fatalf("ReadByte: %v", err)
	}
	if b != 0x11 {
		t.Fatalf("lane 3 = 0x%02X, want 0x11", b)
	}
}

func TestDeviceByteStoreToWordDeviceClearsLaneBeforeOR(t *testing.T) {
	mem := NewAddressSpace(0)
	dev := &fakeWordDevice{start: 0, end: 3, word: 0xFFFFFFFF}
	mem.AddDevice(dev)

	if err := mem.StoreByte(0xF0000000, 0x00); err != nil {
		t.Fatalf("StoreByte: %v", err)
	}
	// Clear-then-OR: lane 0 must become 0x00, not stay 0xFF ORed with 0x00.
	if dev.word != 0xFFFFFF00 {
		t.Fatalf("word after store = 0x%08X, want 0xFFFFFF00", dev.word)
	}
}

func TestDeviceMultiByteAccessToByteDeviceDecomposes(t *testing.T) {
	mem := NewAddressSpace(0)
	dev := &fakeByteDevice{start: 0, end: 15}
	mem.AddDevice(dev)

	if err := mem.StoreWord(0xF0000000, 0x11223344); err != nil {
		t.Fatalf("StoreWord: %v", err)
	}
	if dev.bytes[0] != 0x44 || dev.bytes[1] != 0x33 || dev.bytes[2] != 0x22 || dev.bytes[3] != 0x11 {
		t.Fatalf("byte decomposition wrong: %+v", dev.bytes)
	}

	word, err := mem.ReadWord(0xF0000000)
	if err != nil {
		t.Fatalf("ReadWord: %v", err)
	}
	if word != 0x11223344 {
		t.Fatalf("reassembled word = 0x%08X, want 0x11223344", word)
	}
}

func TestDeviceAddressWithNoMatchingDeviceFaults(t *testing.T) {
	mem := NewAddressSpace(0)
	_, err := mem.ReadByte(0xF0000000)
	if _, ok := err.(LoadAccessFault); !ok {
		t.Fatalf("expected LoadAccessFault, got %v (%T)", err, err)
	}
}

func TestReadCStringFindsNUL(t *testing.T) {
	mem := NewAddressSpace(4096)
	mem.LoadImage(0x10, []byte("hello\x00world"))
	s, err := mem.ReadCString(0x10)
	if err != nil {
		t.Fatalf("ReadCString: %v", err)
	}
	if s != "hello" {
		t.Fatalf("got %q, want %q", s, "hello")
	}
}

func TestReadCStringMissingNULFaults(t *testing.T) {
	mem := NewAddressSpace(16)
	mem.LoadImage(0, []byte("no terminator here"))
	_, err := mem.ReadCString(0)
	if _, ok := err.(LoadAccessFault); !ok {
		t.Fatalf("expected LoadAccessFault, got %v (%T)", err, err)
	}
}

func TestReadWriteRangeBounds(t *testing.T) {
	mem := NewAddressSpace(16)
	if err := mem.WriteRange(10, []byte{1, 2, 3, 4, 5, 6, 7}); err == nil {
		t.Fatal("expected LoadAccessFault writing past memoryTop")
	}
	if err := mem.WriteRange(0, []byte{1, 2, 3}); err != nil {
		t.Fatalf("WriteRange: %v", err)
	}
	out, err := mem.ReadRange(0, 3)
	if err != nil {
		t.Fatalf("ReadRange: %v", err)
	}
	if out[0] != 1 || out[1] != 2 || out[2] != 3 {
		t.Fatalf("got %v", out)
	}
}
