// Command rv32sim runs a memory image on the RV32IM simulator, per
// spec.md §6's CLI surface. Flag wiring, conditional subsystem setup,
// and exit-code handling follow the teacher's main.go idiom.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/lookbusy1344/rv32sim/config"
	"github.com/lookbusy1344/rv32sim/debugger"
	"github.com/lookbusy1344/rv32sim/devices"
	"github.com/lookbusy1344/rv32sim/loader"
	"github.com/lookbusy1344/rv32sim/runloop"
	"github.com/lookbusy1344/rv32sim/vm"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

// hexAddr is a flag.Value parsing a hex value, with or without a "0x"
// prefix (bare digits are read as hex, not decimal), tracking whether
// it was explicitly set.
type hexAddr struct {
	value uint32
	set   bool
}

func (h *hexAddr) String() string {
	if h == nil {
		return "0"
	}
	return fmt.Sprintf("0x%X", h.value)
}

func (h *hexAddr) Set(s string) error {
	trimmed := strings.TrimPrefix(strings.ToLower(s), "0x")
	v, err := strconv.ParseUint(trimmed, 16, 32)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", s, err)
	}
	h.value = uint32(v)
	h.set = true
	return nil
}

// deviceFlags accumulates repeatable -device NAME[,opt=val]* flags.
type deviceFlags []string

func (d *deviceFlags) String() string { return strings.Join(*d, ", ") }
func (d *deviceFlags) Set(v string) error {
	*d = append(*d, v)
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	startingAddr := &hexAddr{value: cfg.Execution.StartingAddr}
	stackAddr := &hexAddr{value: cfg.Execution.StackAddr}
	memoryTop := &hexAddr{value: cfg.Execution.MemoryTop}
	var deviceSpecs deviceFlags

	flag.Var(startingAddr, "starting-addr", "Initial PC (default 0)")
	flag.Var(stackAddr, "stack-addr", "Initial SP (default: memory-top & ~0xF)")
	flag.Var(memoryTop, "memory-top", "RAM size; 0 means full 32-bit space (default 65536)")
	singleStep := flag.Bool("single-step", cfg.Debugger.SingleStep, "Enter debugger before first instruction")
	quiet := flag.Bool("quiet", cfg.Execution.Quiet, "Suppress normal status output")
	verbose := flag.Bool("verbose", cfg.Execution.EnableVerbose, "Verbose output")
	dumpTo := flag.String("dump-to", "", "Final-state dump file (default: none)")
	dumpFmt := flag.String("dump-fmt", cfg.Dump.Format, "Dump format: txt, json")
	suppressStatus := flag.Bool("suppress-status", false, "Normalize exit code to 0/1")
	maxCycles := flag.Uint64("max-cycles", cfg.Execution.MaxCycles, "Maximum cycle count (0 = unbounded)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Var(&deviceSpecs, "device", "Instantiate a device NAME[,opt=val]* (repeatable)")

	flag.Parse()

	if *showVersion {
		fmt.Printf("rv32sim %s\n", Version)
		os.Exit(0)
	}

	if flag.NArg() == 0 {
		printHelp()
		os.Exit(0)
	}
	imagePath := flag.Arg(0)

	var stackPtr *uint32
	if stackAddr.set || stackAddr.value != 0 {
		v := stackAddr.value
		stackPtr = &v
	}

	m := vm.NewMachine(startingAddr.value, stackPtr, memoryTop.value)
	m.MaxCycles = *maxCycles
	m.Quiet = *quiet
	m.Verbose = *verbose

	specs := append(append([]string(nil), cfg.Devices.Default...), deviceSpecs...)
	for _, spec := range specs {
		name, opts, err := devices.ParseConfig(spec)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing device config %q: %v\n", spec, err)
			os.Exit(1)
		}
		dev, err := devices.New(name, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating device %q: %v\n", spec, err)
			os.Exit(1)
		}
		m.Mem.AddDevice(dev)
	}

	if err := loader.LoadImageFile(m.Mem, imagePath); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading memory image: %v\n", err)
		os.Exit(1)
	}

	dbg := debugger.NewDebugger(m)

	var exitStatus int
	if *singleStep {
		exitStatus = runREPL(dbg, os.Stdin, os.Stdout)
	} else {
		exitStatus = runDirect(m, dbg, *verbose)
	}

	if *dumpTo != "" {
		if f, err := os.Create(*dumpTo); err != nil { // #nosec G304 -- user-specified dump path
			fmt.Fprintf(os.Stderr, "Error creating dump file: %v\n", err)
		} else {
			if err := loader.DumpState(f, m, loader.DumpFormat(*dumpFmt)); err != nil {
				fmt.Fprintf(os.Stderr, "Error dumping state: %v\n", err)
			}
			f.Close()
		}
	}

	if *suppressStatus && exitStatus != 0 {
		exitStatus = 1
	}
	os.Exit(exitStatus)
}

// runDirect drives the machine to completion via runloop.Loop with no
// interactive frontend attached, the teacher's "direct execution mode"
// idiom ported onto the control/state channel pair of spec.md §5.
func runDirect(m *vm.Machine, dbg *debugger.Debugger, verbose bool) int {
	ch := runloop.NewChannels()
	dbg.ExecuteCommand("RUN")
	err := runloop.Loop(m, dbg, ch)
	if err == nil {
		return 0
	}
	return classifyExit(err, verbose)
}

func classifyExit(err error, verbose bool) int {
	if fin, ok := err.(vm.FinishedExecution); ok {
		if verbose {
			fmt.Printf("finished: exit status %d\n", fin.Status)
		}
		return int(fin.Status)
	}
	if _, ok := err.(vm.HaltedByUser); ok {
		return 0
	}
	fmt.Fprintf(os.Stderr, "execution error: %v\n", err)
	return 1
}

// runREPL drives the interactive debugger loop until EXIT or EOF,
// reading one line at a time and printing ExecuteCommand's result
// followed by the current watch-list report, per spec.md §4.5/§9.
func runREPL(dbg *debugger.Debugger, in *os.File, out *os.File) int {
	scanner := bufio.NewScanner(in)
	w := bufio.NewWriter(out)
	defer w.Flush()

	fmt.Fprintln(w, "rv32sim debugger. Type HELP for commands.")
	for {
		fmt.Fprint(w, "(rv32sim) ")
		w.Flush()
		if !scanner.Scan() {
			return 0
		}
		result := dbg.ExecuteCommand(scanner.Text())
		if result != "" {
			fmt.Fprintln(w, result)
		}

		for dbg.State() == debugger.Running {
			err := dbg.Machine.Step()
			dbg.NotifyStepped()
			if err != nil {
				if bp, ok := err.(vm.Breakpoint); ok {
					dbg.Machine.PassBreakpoint = true
					dbg.NotifyStopped()
					fmt.Fprintf(w, "breakpoint hit at 0x%08X\n", bp.Addr)
					break
				}
				dbg.NotifyStopped()
				fmt.Fprintf(w, "stopped: %v\n", err)
				if fin, ok := err.(vm.FinishedExecution); ok {
					w.Flush()
					return int(fin.Status)
				}
				break
			}
		}

		if report := dbg.WatchReport(); report != "" {
			fmt.Fprintln(w, report)
		}

		if dbg.ExitRequested() {
			return 0
		}
	}
}

func printHelp() {
	fmt.Print(`rv32sim: single-hart RV32IM simulator

Usage: rv32sim [options] <memory-image-file>

Options:
  -starting-addr A      Initial PC (default 0)
  -stack-addr A         Initial SP (default: memory-top & ~0xF)
  -memory-top N         RAM size; 0 means full 32-bit space (default 65536)
  -single-step          Enter debugger before first instruction
  -quiet / -verbose     Output modes
  -dump-to FILE         Final state dump file
  -dump-fmt {txt,json}  Dump format (default txt)
  -suppress-status      Normalize exit code to 0/1
  -max-cycles N         Maximum cycle count (0 = unbounded)
  -device NAME[,opt=val]*  Instantiate a device (repeatable)
  -version              Show version information

Debugger commands (with -single-step): PEEK, POKE, WATCH, RMWATCH,
STEP, BREAK, RMBRK, LSBRK, CONTINUE, RUN, EXIT, HELP.
`)
}
