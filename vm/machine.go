package vm

// Machine aggregates everything a single hart needs: the register file,
// the address space (RAM + device bus), the breakpoint list, the
// pass-breakpoint flag, the environment (syscalls/FDs), and the cycle
// counter. Created at startup; lives until the host process exits.
type Machine struct {
	Regs           RegisterFile
	Mem            *AddressSpace
	Breakpoints    BreakpointList
	PassBreakpoint bool
	Env            *Environment

	Cycles    uint64
	MaxCycles uint64 // 0 means unbounded

	Quiet   bool
	Verbose bool
}

// NewMachine constructs a Machine with the given starting PC, stack
// pointer (SP defaults to memoryTop &^ 0xF when stackAddr is nil, per
// spec.md §6), and RAM size.
func NewMachine(startingAddr uint32, stackAddr *uint32, memoryTop uint32) *Machine {
	m := &Machine{
		Mem: NewAddressSpace(memoryTop),
		Env: NewEnvironment(),
	}
	m.Regs.PC = startingAddr
	sp := memoryTop &^ 0xF
	if stackAddr != nil {
		sp = *stackAddr
	}
	m.Regs.Set(SP, sp)
	return m
}

// Step executes exactly one instruction. Protocol (spec.md §4.4):
//  1. If PC is a breakpoint and PassBreakpoint is false, fail with
//     Breakpoint(PC) without advancing; otherwise clear PassBreakpoint.
//  2. Fetch instruction bytes at PC.
//  3. Decode.
//  4. Execute; default post-step action is PC += 4, overridden by
//     branches/JAL/JALR that set PC directly.
//  5. On success, increment the cycle counter.
func (m *Machine) Step() error {
	if m.MaxCycles != 0 && m.Cycles >= m.MaxCycles {
		return CycleLimitExceeded{Limit: m.MaxCycles}
	}

	pc := m.Regs.PC
	if m.Breakpoints.Has(pc) && !m.PassBreakpoint {
		return Breakpoint{Addr: pc}
	}
	m.PassBreakpoint = false

	bytes, err := m.Mem.ReadInstructionBytes(pc)
	if err != nil {
		return err
	}

	op, err := Decode(bytes)
	if err != nil {
		return err
	}

	if err := m.execute(op); err != nil {
		return err
	}

	m.Cycles++
	return nil
}

// Reset clears registers, breakpoints, the pass-breakpoint flag, and the
// cycle counter, but keeps memory, the device list, and the FD table
// intact.
func (m *Machine) Reset(startingAddr uint32, stackAddr *uint32, memoryTop uint32) {
	m.Regs.Reset()
	m.Regs.PC = startingAddr
	sp := memoryTop &^ 0xF
	if stackAddr != nil {
		sp = *stackAddr
	}
	m.Regs.Set(SP, sp)
	m.Breakpoints = BreakpointList{}
	m.PassBreakpoint = false
	m.Cycles = 0
}
