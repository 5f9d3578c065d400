package vm

import "fmt"

// Register identifies one of the 32 RISC-V integer registers by its
// standard ABI name. Numeric mapping follows the RV32 calling convention;
// S0 and FP both map to index 8.
type Register int

const (
	Zero Register = iota
	RA
	SP
	GP
	TP
	T0
	T1
	T2
	S0
	S1
	A0
	A1
	A2
	A3
	A4
	A5
	A6
	A7
	S2
	S3
	S4
	S5
	S6
	S7
	S8
	S9
	S10
	S11
	T3
	T4
	T5
	T6
)

// FP is an alias for S0 (index 8), matching the ABI convention that the
// frame pointer and the first saved register share a slot.
const FP = S0

var registerNames = map[Register]string{
	Zero: "ZERO",
	RA:   "RA",
	SP:   "SP",
	GP:   "GP",
	TP:   "TP",
	T0:   "T0",
	T1:   "T1",
	T2:   "T2",
	S0:   "S0",
	S1:   "S1",
	A0:   "A0",
	A1:   "A1",
	A2:   "A2",
	A3:   "A3",
	A4:   "A4",
	A5:   "A5",
	A6:   "A6",
	A7:   "A7",
	S2:   "S2",
	S3:   "S3",
	S4:   "S4",
	S5:   "S5",
	S6:   "S6",
	S7:   "S7",
	S8:   "S8",
	S9:   "S9",
	S10:  "S10",
	S11:  "S11",
	T3:   "T3",
	T4:   "T4",
	T5:   "T5",
	T6:   "T6",
}

var registerByName = func() map[string]Register {
	m := make(map[string]Register, len(registerNames)+1)
	for r, name := range registerNames {
		m[name] = r
	}
	m["FP"] = S0
	return m
}()

// String renders the register's canonical ABI name (S0, never FP).
func (r Register) String() string {
	if name, ok := registerNames[r]; ok {
		return name
	}
	return fmt.Sprintf("R%d", int(r))
}

// RegisterFromNum maps a 5-bit register index to its symbolic tag. Returns
// false for any index outside 0..=31.
func RegisterFromNum(n uint32) (Register, bool) {
	if n > 31 {
		return 0, false
	}
	return Register(n), true
}

// RegisterFromName resolves a case-insensitive ABI name ("a0", "ra", "fp",
// ...) to its Register tag.
func RegisterFromName(name string) (Register, bool) {
	r, ok := registerByName[upper(name)]
	return r, ok
}

func upper(s string) string {
	b := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		b[i] = c
	}
	return string(b)
}

// Num returns the register's 5-bit encoding index.
func (r Register) Num() uint32 { return uint32(r) }

// ABIOrder lists all 32 registers in display order, used by dump/info
// commands. S0 displays before S1 as in the ABI alphabet.
var ABIOrder = []Register{
	Zero, RA, SP, GP, TP, T0, T1, T2, S0, S1,
	A0, A1, A2, A3, A4, A5, A6, A7,
	S2, S3, S4, S5, S6, S7, S8, S9, S10, S11,
	T3, T4, T5, T6,
}

// RegisterFile holds the 32 general-purpose registers plus PC. Writes to
// Zero are silently discarded; reads of Zero always yield 0. Elision lives
// here, not at call sites, per the symbolic-register design.
type RegisterFile struct {
	regs [32]uint32
	PC   uint32
}

// Get reads a register. Zero always reads as 0 regardless of prior writes
// (which are impossible, since Set elides them).
func (rf *RegisterFile) Get(r Register) uint32 {
	if r == Zero {
		return 0
	}
	return rf.regs[r]
}

// Set writes a register. Writing to Zero is a silent no-op.
func (rf *RegisterFile) Set(r Register, v uint32) {
	if r == Zero {
		return
	}
	rf.regs[r] = v
}

// Reset clears all registers and the PC to zero.
func (rf *RegisterFile) Reset() {
	rf.regs = [32]uint32{}
	rf.PC = 0
}
