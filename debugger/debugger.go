// Package debugger implements the interactive stateful REPL described in
// spec.md §4.5/§6: PEEK/POKE/WATCH/RMWATCH/STEP/BREAK/RMBRK/LSBRK/
// CONTINUE/RUN/EXIT/HELP against a *vm.Machine, grounded on the teacher's
// Debugger.ExecuteCommand/cmdExamine idiom (buffered string output,
// one line in, one rendered block out).
package debugger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lookbusy1344/rv32sim/vm"
)

// RunState is the REPL's own state, distinct from (but driving) the
// Machine's execution: Prompting waits for input, Running executes N
// steps (STEP n) or, after CONTINUE/RUN, runs unbounded until stopped,
// before returning to Prompting. STEP 0 leaves the state at Prompting.
type RunState int

const (
	Prompting RunState = iota
	Running
)

// Debugger wraps a *vm.Machine with REPL-level state: command history,
// a breakpoint pass-through, a watch list of read-only display commands
// evaluated whenever WatchReport is called, and the last command line
// (for empty-input repeat).
type Debugger struct {
	Machine *vm.Machine
	History *CommandHistory

	watch       []Command
	lastLine    string
	haveLast    bool
	state       RunState
	stepsLeft   int // valid while state == Running; 0 with Unbounded==true means forever
	unbounded   bool
	exitRequest bool
}

// NewDebugger constructs a Debugger bound to an already-initialized
// machine.
func NewDebugger(m *vm.Machine) *Debugger {
	return &Debugger{
		Machine: m,
		History: NewCommandHistory(),
		state:   Prompting,
	}
}

// ExecuteCommand parses and runs one REPL input line, returning the
// text to display to the user. An empty line repeats the previous
// command, per spec.md §4.5; if there is no previous command this is
// reported as a parse error rather than a no-op.
func (d *Debugger) ExecuteCommand(line string) string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		if !d.haveLast {
			return vm.DebugParseError{Msg: "no previous command to repeat"}.Error()
		}
		trimmed = d.lastLine
	} else {
		d.lastLine = trimmed
		d.haveLast = true
		d.History.Add(trimmed)
	}

	cmd, err := ParseCommand(trimmed)
	if err != nil {
		return err.Error()
	}
	return d.dispatch(cmd)
}

func (d *Debugger) dispatch(cmd Command) string {
	switch cmd.Kind {
	case CmdPeek:
		return d.cmdPeek(cmd)
	case CmdPoke:
		return d.cmdPoke(cmd)
	case CmdWatch:
		d.watch = append(d.watch, cmd)
		return fmt.Sprintf("watching %s", cmd.Loc)
	case CmdRMWatch:
		return d.cmdRMWatch(cmd)
	case CmdStep:
		return d.cmdStep(cmd)
	case CmdBreak:
		if d.Machine.Breakpoints.Add(cmd.Addr) {
			return fmt.Sprintf("breakpoint set at 0x%08X", cmd.Addr)
		}
		return fmt.Sprintf("breakpoint already set at 0x%08X", cmd.Addr)
	case CmdRMBrk:
		return d.cmdRMBrk(cmd)
	case CmdLSBrk:
		return d.cmdLSBrk()
	case CmdContinue:
		d.state = Running
		d.unbounded = true
		d.stepsLeft = 0
		return ""
	case CmdRun:
		d.state = Running
		d.unbounded = true
		d.stepsLeft = 0
		return ""
	case CmdExit:
		d.exitRequest = true
		return "exiting"
	case CmdHelp:
		return helpText
	default:
		return vm.DebugParseError{Msg: "unhandled command"}.Error()
	}
}

// ExitRequested reports whether the last command was EXIT.
func (d *Debugger) ExitRequested() bool { return d.exitRequest }

// State reports the REPL's current run state.
func (d *Debugger) State() RunState { return d.state }

// StepsRemaining reports how many further steps a bounded Running state
// should take (meaningless when Unbounded is true).
func (d *Debugger) StepsRemaining() int { return d.stepsLeft }

// Unbounded reports whether the current Running state runs until a
// breakpoint or halt, as opposed to a fixed step count.
func (d *Debugger) Unbounded() bool { return d.unbounded }

// NotifyStepped tells the Debugger one machine step has completed,
// advancing STEP's bounded counter and returning to Prompting when it
// reaches zero. Callers running a step loop call this after each
// (*vm.Machine).Step.
func (d *Debugger) NotifyStepped() {
	if d.state != Running || d.unbounded {
		return
	}
	d.stepsLeft--
	if d.stepsLeft <= 0 {
		d.state = Prompting
	}
}

// NotifyStopped forces the Debugger back to Prompting, e.g. after a
// breakpoint hit, halt, or execution error surfaces from the run loop.
func (d *Debugger) NotifyStopped() {
	d.state = Prompting
	d.unbounded = false
	d.stepsLeft = 0
}

// WatchReport renders the current watch list, in the order commands
// were added, for display at the next Prompting transition. The list is
// not evaluated per step; each call reads the watched locations' current
// values, so the report shows the state as of the last completed step.
func (d *Debugger) WatchReport() string {
	if len(d.watch) == 0 {
		return ""
	}
	var b strings.Builder
	for _, w := range d.watch {
		b.WriteString(d.formatLocation(w.Loc, w.Format))
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func (d *Debugger) cmdPeek(cmd Command) string {
	return d.formatLocation(cmd.Loc, cmd.Format)
}

func (d *Debugger) formatLocation(loc Location, format Format) string {
	var value uint32
	if loc.IsRegister {
		value = d.Machine.Regs.Get(loc.Reg)
	} else {
		v, err := d.Machine.Mem.ReadWord(loc.Addr)
		if err != nil {
			return fmt.Sprintf("%s: %s", loc, err.Error())
		}
		value = v
	}
	return fmt.Sprintf("%s = %s", loc, formatValue(value, format))
}

func formatValue(value uint32, format Format) string {
	switch format {
	case FormatHex:
		return fmt.Sprintf("0x%08X", value)
	case FormatUnsigned:
		return strconv.FormatUint(uint64(value), 10)
	case FormatSigned:
		return strconv.FormatInt(int64(int32(value)), 10)
	case FormatBinary:
		return fmt.Sprintf("0b%032b", value)
	default:
		return fmt.Sprintf("0x%08X", value)
	}
}

func (d *Debugger) cmdPoke(cmd Command) string {
	if cmd.Loc.IsRegister {
		d.Machine.Regs.Set(cmd.Loc.Reg, cmd.Data)
		return fmt.Sprintf("%s <- 0x%08X", cmd.Loc, cmd.Data)
	}
	var err error
	switch cmd.Width {
	case Width8:
		err = d.Machine.Mem.StoreByte(cmd.Loc.Addr, byte(cmd.Data))
	case Width16:
		err = d.Machine.Mem.StoreHalfword(cmd.Loc.Addr, uint16(cmd.Data))
	default:
		err = d.Machine.Mem.StoreWord(cmd.Loc.Addr, cmd.Data)
	}
	if err != nil {
		return err.Error()
	}
	return fmt.Sprintf("%s <- 0x%08X", cmd.Loc, cmd.Data)
}

func (d *Debugger) cmdRMWatch(cmd Command) string {
	for i, w := range d.watch {
		if w.Loc.Equal(cmd.Loc) {
			d.watch = append(d.watch[:i], d.watch[i+1:]...)
			return fmt.Sprintf("stopped watching %s", cmd.Loc)
		}
	}
	return fmt.Sprintf("not watching %s", cmd.Loc)
}

func (d *Debugger) cmdStep(cmd Command) string {
	d.state = Running
	d.unbounded = false
	d.stepsLeft = cmd.N
	if cmd.N == 0 {
		d.state = Prompting
	}
	return ""
}

func (d *Debugger) cmdRMBrk(cmd Command) string {
	if cmd.RemoveByIndex {
		if d.Machine.Breakpoints.RemoveIndex(cmd.RemoveIndex) {
			return fmt.Sprintf("removed breakpoint #%d", cmd.RemoveIndex)
		}
		return fmt.Sprintf("no breakpoint at index %d", cmd.RemoveIndex)
	}
	if d.Machine.Breakpoints.RemoveAddr(cmd.RemoveAddr) {
		return fmt.Sprintf("removed breakpoint at 0x%08X", cmd.RemoveAddr)
	}
	return fmt.Sprintf("no breakpoint at 0x%08X", cmd.RemoveAddr)
}

func (d *Debugger) cmdLSBrk() string {
	addrs := d.Machine.Breakpoints.List()
	if len(addrs) == 0 {
		return "no breakpoints set"
	}
	var b strings.Builder
	for i, a := range addrs {
		fmt.Fprintf(&b, "#%d: 0x%08X\n", i, a)
	}
	return strings.TrimRight(b.String(), "\n")
}

const helpText = `commands:
  peek [/x|/u|/i|/b] <reg|addr>   display a register or word of memory
  poke <reg|addr> <data>[/8|/16|/32]   write a register or memory location
  watch [/x|/u|/i|/b] <reg|addr>  add a location to the watch list
  rmwatch <reg|addr>              remove a location from the watch list
  step [n]                        execute n instructions (default 1)
  break <addr>                    set a breakpoint
  rmbrk <addr|index>              remove a breakpoint
  lsbrk                           list breakpoints
  continue | run                  run until breakpoint or halt
  exit                            leave the debugger
  help                            show this text`
