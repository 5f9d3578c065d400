// Package runloop binds a *vm.Machine to a *debugger.Debugger in the
// Prompting/Running state machine of spec.md §5: the machine executes
// on its own goroutine, taking control messages off a channel and
// publishing state snapshots to a single overwriting slot, mirroring
// original_source's crossbeam-channel control plane and the teacher's
// api.Broadcaster fan-out idiom reimplemented with plain channels
// (no external pub/sub dependency is warranted for a single in-process
// consumer).
package runloop

import (
	"sync"

	"github.com/lookbusy1344/rv32sim/debugger"
	"github.com/lookbusy1344/rv32sim/vm"
)

// ControlKind tags a message sent to the running machine's goroutine.
type ControlKind int

const (
	ControlRun ControlKind = iota
	ControlStop
	ControlStep
	ControlPoke
	ControlPokeReg
	ControlJump
)

// Control is one instruction to the run loop, sent over Channels.Control.
type Control struct {
	Kind ControlKind

	// ControlStep
	Count int

	// ControlPoke
	Addr uint32
	Data uint32

	// ControlPokeReg
	Reg vm.Register

	// ControlJump
	Target uint32
}

// Snapshot is a point-in-time view of machine state, published after
// every step so a UI (or the debugger's watch list) can observe
// progress without racing the executing goroutine.
type Snapshot struct {
	PC      uint32
	Cycles  uint64
	State   debugger.RunState
	Stopped bool
	Err     error
}

// StateBox holds the single most recent Snapshot, overwriting on every
// publish. Grounded on original_source's single_value_channel: readers
// always see the latest state, never a backlog.
type StateBox struct {
	mu   sync.Mutex
	val  Snapshot
	have bool
}

func (b *StateBox) Publish(s Snapshot) {
	b.mu.Lock()
	b.val = s
	b.have = true
	b.mu.Unlock()
}

func (b *StateBox) Latest() (Snapshot, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.val, b.have
}

// Channels is the control/state pair a run loop and its caller share.
type Channels struct {
	Control chan Control
	State   *StateBox
}

// NewChannels allocates a Channels with a small control buffer so a
// caller's Stop/Step/Poke never blocks behind a busy run loop.
func NewChannels() *Channels {
	return &Channels{
		Control: make(chan Control, 16),
		State:   &StateBox{},
	}
}

// Loop drives a machine/debugger pair to completion or to a fatal
// error, polling Channels.Control once per cycle and publishing a
// Snapshot after every step. It returns the terminal error (including
// vm.FinishedExecution and vm.HaltedByUser, which are errors by
// convention in this package per spec.md §7).
func Loop(m *vm.Machine, dbg *debugger.Debugger, ch *Channels) error {
	stopped := false // latest snapshot is a Stopped one; keep it while Prompting
	for {
		if dbg.State() == debugger.Prompting {
			if !stopped {
				ch.State.Publish(Snapshot{PC: m.Regs.PC, Cycles: m.Cycles, State: dbg.State()})
			}
			stopped = false
			applyControl(m, dbg, <-ch.Control) // block until a command arrives
			if dbg.ExitRequested() {
				return vm.HaltedByUser{}
			}
			continue
		}

		select {
		case ctl := <-ch.Control:
			applyControl(m, dbg, ctl)
			continue
		default:
		}

		err := m.Step()
		dbg.NotifyStepped()
		if err != nil {
			if _, ok := err.(vm.Breakpoint); ok {
				m.PassBreakpoint = true
				dbg.NotifyStopped()
				ch.State.Publish(Snapshot{PC: m.Regs.PC, Cycles: m.Cycles, State: dbg.State(), Stopped: true, Err: err})
				stopped = true
				continue
			}
			dbg.NotifyStopped()
			ch.State.Publish(Snapshot{PC: m.Regs.PC, Cycles: m.Cycles, State: dbg.State(), Stopped: true, Err: err})
			return err
		}
		ch.State.Publish(Snapshot{PC: m.Regs.PC, Cycles: m.Cycles, State: dbg.State()})
	}
}

func applyControl(m *vm.Machine, dbg *debugger.Debugger, ctl Control) {
	switch ctl.Kind {
	case ControlStop:
		dbg.NotifyStopped()
	case ControlStep:
		dbg.ExecuteCommand(stepCommandLine(ctl.Count))
	case ControlRun:
		dbg.ExecuteCommand("RUN")
	case ControlPoke:
		m.Mem.StoreWord(ctl.Addr, ctl.Data) //nolint:errcheck // best-effort from a control message
	case ControlPokeReg:
		m.Regs.Set(ctl.Reg, ctl.Data)
	case ControlJump:
		m.Regs.PC = ctl.Target
	}
}

func stepCommandLine(n int) string {
	if n <= 0 {
		return "step"
	}
	return "step " + itoa(n)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := [20]byte{}
	i := len(digits)
	for n > 0 {
		i--
		digits[i] = byte('0' + n%10)
		n /= 10
	}
	return string(digits[i:])
}
