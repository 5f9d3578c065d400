package debugger

import (
	"strings"
	"testing"

	"github.com/lookbusy1344/rv32sim/vm"
)

func TestExecuteCommandEmptyLineRepeatsLast(t *testing.T) {
	m := vm.NewMachine(0, nil, 65536)
	m.Regs.Set(vm.A0, 5)
	d := NewDebugger(m)

	d.ExecuteCommand("peek a0")
	out := d.ExecuteCommand("")
	if !strings.Contains(out, "0x00000005") {
		t.Fatalf("repeated command output = %q", out)
	}
}

func TestExecuteCommandEmptyLineWithNoHistoryIsError(t *testing.T) {
	m := vm.NewMachine(0, nil, 65536)
	d := NewDebugger(m)
	out := d.ExecuteCommand("")
	if !strings.Contains(out, "no previous command") {
		t.Fatalf("expected parse error text, got %q", out)
	}
}

func TestWatchReportReflectsCurrentValues(t *testing.T) {
	m := vm.NewMachine(0, nil, 65536)
	m.Regs.Set(vm.A0, 1)
	d := NewDebugger(m)

	d.ExecuteCommand("watch /u a0")
	if d.WatchReport() == "" {
		t.Fatal("expected a non-empty watch report once a location is watched")
	}
	if !strings.Contains(d.WatchReport(), "A0 = 1") {
		t.Fatalf("watch report = %q", d.WatchReport())
	}

	m.Regs.Set(vm.A0, 2)
	if !strings.Contains(d.WatchReport(), "A0 = 2") {
		t.Fatalf("expected watch report to reflect current value, got %q", d.WatchReport())
	}
}

func TestRMWatchRemovesByLocation(t *testing.T) {
	m := vm.NewMachine(0, nil, 65536)
	d := NewDebugger(m)
	d.ExecuteCommand("watch a0")
	d.ExecuteCommand("rmwatch a0")
	if d.WatchReport() != "" {
		t.Fatalf("expected empty watch report after rmwatch, got %q", d.WatchReport())
	}
}

func TestStepTransitionsToRunningThenBackToPrompting(t *testing.T) {
	m := vm.NewMachine(0, nil, 65536)
	m.Mem.LoadImage(0x00, []byte{0x13, 0x05, 0xA0, 0x02}) // ADDI A0, Zero, 42
	d := NewDebugger(m)

	d.ExecuteCommand("step 1")
	if d.State() != Running {
		t.Fatalf("expected Running after STEP 1, got %v", d.State())
	}
	if err := m.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	d.NotifyStepped()
	if d.State() != Prompting {
		t.Fatalf("expected Prompting after single step completes, got %v", d.State())
	}
}

func TestStepZeroStaysPrompting(t *testing.T) {
	m := vm.NewMachine(0, nil, 65536)
	d := NewDebugger(m)
	d.ExecuteCommand("step 0")
	if d.State() != Prompting {
		t.Fatalf("expected Prompting for STEP 0, got %v", d.State())
	}
}

func TestRunIsUnboundedUntilNotifyStopped(t *testing.T) {
	m := vm.NewMachine(0, nil, 65536)
	d := NewDebugger(m)
	d.ExecuteCommand("run")
	if d.State() != Running || !d.Unbounded() {
		t.Fatalf("expected unbounded Running after RUN, got state=%v unbounded=%v", d.State(), d.Unbounded())
	}
	d.NotifyStopped()
	if d.State() != Prompting || d.Unbounded() {
		t.Fatalf("expected Prompting/bounded after NotifyStopped")
	}
}

func TestExitSetsExitRequested(t *testing.T) {
	m := vm.NewMachine(0, nil, 65536)
	d := NewDebugger(m)
	if d.ExitRequested() {
		t.Fatal("should not be exit-requested before EXIT")
	}
	d.ExecuteCommand("exit")
	if !d.ExitRequested() {
		t.Fatal("expected ExitRequested after EXIT")
	}
}

func TestBreakRMBrkLSBrkRoundTrip(t *testing.T) {
	m := vm.NewMachine(0, nil, 65536)
	d := NewDebugger(m)
	d.ExecuteCommand("break 0x10")
	d.ExecuteCommand("break 0x20")

	out := d.ExecuteCommand("lsbrk")
	if !strings.Contains(out, "#0: 0x00000010") || !strings.Contains(out, "#1: 0x00000020") {
		t.Fatalf("lsbrk output = %q", out)
	}

	d.ExecuteCommand("rmbrk 0")
	out = d.ExecuteCommand("lsbrk")
	if strings.Contains(out, "0x00000010") {
		t.Fatalf("expected breakpoint at index 0 removed, got %q", out)
	}
}

func TestPokeRegisterAndMemory(t *testing.T) {
	m := vm.NewMachine(0, nil, 65536)
	d := NewDebugger(m)
	d.ExecuteCommand("poke a0 0x2A")
	if m.Regs.Get(vm.A0) != 0x2A {
		t.Fatalf("A0 = 0x%x, want 0x2A", m.Regs.Get(vm.A0))
	}

	d.ExecuteCommand("poke 0x100 0xAB/8")
	b, err := m.Mem.ReadByte(0x100)
	if err != nil || b != 0xAB {
		t.Fatalf("byte at 0x100 = 0x%x, err=%v", b, err)
	}
}
