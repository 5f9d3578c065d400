package loader

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/lookbusy1344/rv32sim/vm"

	"github.com/lookbusy1344/rv32sim/devices"
)

// DumpFormat selects a final-state dump's rendering, per spec.md §6.
type DumpFormat string

const (
	DumpText DumpFormat = "txt"
	DumpJSON DumpFormat = "json"
)

// DumpState writes the final machine state to w in the requested
// format. txt emits newline-separated "KEY:0x%08x" lines for PC and
// every register in ABI-name order; json emits the same fields plus
// per-device state where a device exposes one, excluding memory.
func DumpState(w io.Writer, m *vm.Machine, format DumpFormat) error {
	switch format {
	case DumpJSON:
		return dumpJSON(w, m)
	case DumpText, "":
		return dumpText(w, m)
	default:
		return fmt.Errorf("unknown dump format %q", format)
	}
}

func dumpText(w io.Writer, m *vm.Machine) error {
	var b strings.Builder
	fmt.Fprintf(&b, "PC:0x%08x\n", m.Regs.PC)
	for _, r := range vm.ABIOrder {
		fmt.Fprintf(&b, "%s:0x%08x\n", strings.ToUpper(r.String()), m.Regs.Get(r))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

type dumpDoc struct {
	PC        uint32            `json:"pc"`
	Registers map[string]uint32 `json:"registers"`
	Devices   map[string]any    `json:"devices,omitempty"`
}

func dumpJSON(w io.Writer, m *vm.Machine) error {
	doc := dumpDoc{
		PC:        m.Regs.PC,
		Registers: make(map[string]uint32, len(vm.ABIOrder)),
	}
	for _, r := range vm.ABIOrder {
		doc.Registers[strings.ToUpper(r.String())] = m.Regs.Get(r)
	}

	devState := map[string]any{}
	for _, d := range m.Mem.Devices() {
		switch dev := d.(type) {
		case *devices.Serial:
			devState[dev.Name()] = map[string]any{"transmitted": string(dev.Transmitted())}
		}
	}
	if len(devState) > 0 {
		doc.Devices = devState
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
