package vm

import (
	"io"
	"os"
	"time"
)

// Environment bridges guest syscalls to host I/O: a guest FD table, host
// stdio streams, and an elapsed-time clock. Grounded on
// original_source/src/environment/mod.rs's Environment{fdtable, timer}.
type Environment struct {
	FDs   *FileDescriptorTable
	start time.Time

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewEnvironment returns an Environment wired to the host's real stdio
// streams and a freshly reset clock.
func NewEnvironment() *Environment {
	return &Environment{
		FDs:    NewFileDescriptorTable(),
		start:  time.Now(),
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// ResetTimer restarts the elapsed-time clock consumed by syscall 78.
func (e *Environment) ResetTimer() { e.start = time.Now() }

// Syscall dispatches syscall number a7 with the guest's A0/A1/A2
// arguments against mem, returning the value to be written into A0.
// Unknown syscall numbers return InvalidSyscall; I/O failures below the
// syscall surface return the -1 sentinel rather than propagating as
// execution faults, except guest-buffer bounds violations on read/write,
// which escalate to LoadAccessFault.
func (e *Environment) Syscall(a7, a0, a1, a2 uint32, mem *AddressSpace) (uint32, error) {
	switch a7 {
	case SysOpen:
		path, err := mem.ReadCString(a0)
		if err != nil {
			return 0, err
		}
		return uint32(e.FDs.Open(path, a1)), nil

	case SysClose:
		return uint32(e.FDs.Close(a0)), nil

	case SysRead:
		return e.read(a0, a1, a2, mem)

	case SysWrite:
		return e.write(a0, a1, a2, mem)

	case SysSleep:
		time.Sleep(time.Duration(a0) * time.Millisecond)
		return 0, nil

	case SysTime:
		return uint32(time.Since(e.start).Milliseconds()), nil

	case SysExit:
		return 0, FinishedExecution{Status: byte(a0)}

	default:
		return 0, InvalidSyscall{Number: a7}
	}
}

func (e *Environment) read(fd, bufAddr, count uint32, mem *AddressSpace) (uint32, error) {
	if !mem.inRAMBounds(bufAddr, count) {
		return 0, LoadAccessFault{Addr: bufAddr}
	}
	buf := make([]byte, count)
	var n int
	var readErr error
	switch fd {
	case 0:
		n, readErr = e.Stdin.Read(buf)
	case 1, 2:
		return 0xFFFFFFFF, nil
	default:
		f := e.FDs.File(fd)
		if f == nil {
			return 0xFFFFFFFF, nil
		}
		n, readErr = f.Read(buf)
	}
	if readErr != nil && readErr != io.EOF {
		return 0xFFFFFFFF, nil
	}
	if err := mem.WriteRange(bufAddr, buf[:n]); err != nil {
		return 0, err
	}
	return uint32(n), nil
}

func (e *Environment) write(fd, bufAddr, count uint32, mem *AddressSpace) (uint32, error) {
	data, err := mem.ReadRange(bufAddr, count)
	if err != nil {
		return 0, err
	}
	var n int
	var writeErr error
	switch fd {
	case 0:
		return 0xFFFFFFFF, nil
	case 1:
		n, writeErr = e.Stdout.Write(data)
		if f, ok := e.Stdout.(interface{ Sync() error }); ok {
			_ = f.Sync()
		}
	case 2:
		n, writeErr = e.Stderr.Write(data)
		if f, ok := e.Stderr.(interface{ Sync() error }); ok {
			_ = f.Sync()
		}
	default:
		f := e.FDs.File(fd)
		if f == nil {
			return 0xFFFFFFFF, nil
		}
		n, writeErr = f.Write(data)
	}
	if writeErr != nil {
		return 0xFFFFFFFF, nil
	}
	return uint32(n), nil
}
