package vm

// Syscall numbers recognized by the environment, per the RV32 Linux-style
// ABI this simulator targets.
const (
	SysOpen  = 56
	SysClose = 57
	SysRead  = 63
	SysWrite = 64
	SysSleep = 77
	SysTime  = 78
	SysExit  = 94
)

// OpenFlags bit values, matching the Linux open(2) flag numbering.
// Carried over from the Linux syscall ABI, not an implementation
// artifact, so the numeric values themselves are not "bugs" to avoid
// reproducing.
const (
	OAccMode   = 0o00000003
	ORdOnly    = 0o00000000
	OWrOnly    = 0o00000001
	ORdWr      = 0o00000002
	OCreat     = 0o00000100
	OExcl      = 0o00000200
	ONoCtty    = 0o00000400
	OTrunc     = 0o00001000
	OAppend    = 0o00002000
	ONonBlock  = 0o00004000
)

// FirstUserFD is the first guest FD number handed out once the reserved
// stdio descriptors (0, 1, 2) are accounted for.
const FirstUserFD = 3

// DefaultMemoryTop is the RAM size used when --memory-top is not given.
const DefaultMemoryTop = 65536
