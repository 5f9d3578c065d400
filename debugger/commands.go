package debugger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lookbusy1344/rv32sim/vm"
)

// Format selects how PEEK/WATCH render a value. Default is Hex.
type Format int

const (
	FormatHex Format = iota
	FormatUnsigned
	FormatSigned
	FormatBinary
)

func parseFormat(tok string) (Format, bool) {
	if !strings.HasPrefix(tok, "/") {
		return 0, false
	}
	switch strings.ToLower(tok) {
	case "/x":
		return FormatHex, true
	case "/u":
		return FormatUnsigned, true
	case "/i":
		return FormatSigned, true
	case "/b":
		return FormatBinary, true
	default:
		return 0, false
	}
}

// Width is a data access width in bytes: 1, 2, or 4.
type Width uint32

const (
	Width8  Width = 1
	Width16 Width = 2
	Width32 Width = 4
)

// Location is either a register or a 32-bit RAM address.
type Location struct {
	IsRegister bool
	Reg        vm.Register
	Addr       uint32
}

func (l Location) String() string {
	if l.IsRegister {
		return l.Reg.String()
	}
	return fmt.Sprintf("0x%08X", l.Addr)
}

// Equal reports whether two locations name the same place, used by
// RMWATCH's location-equality removal rule.
func (l Location) Equal(o Location) bool {
	if l.IsRegister != o.IsRegister {
		return false
	}
	if l.IsRegister {
		return l.Reg == o.Reg
	}
	return l.Addr == o.Addr
}

func parseLocation(tok string) (Location, error) {
	if r, ok := vm.RegisterFromName(tok); ok {
		return Location{IsRegister: true, Reg: r}, nil
	}
	addr, err := parseHexOrDec(tok)
	if err != nil {
		return Location{}, vm.DebugParseError{Msg: fmt.Sprintf("invalid location %q", tok)}
	}
	return Location{Addr: addr}, nil
}

func parseHexOrDec(tok string) (uint32, error) {
	lower := strings.ToLower(tok)
	if strings.HasPrefix(lower, "0x") {
		v, err := strconv.ParseUint(lower[2:], 16, 32)
		return uint32(v), err
	}
	v, err := strconv.ParseUint(tok, 10, 32)
	return uint32(v), err
}

// parseData parses a POKE data token: a hex (0x-prefixed) or decimal
// literal, with an optional "/8", "/16", "/32" width suffix. Absent a
// suffix, hex literals shrink to the smallest width that fits the value;
// decimal literals always default to Word, per spec.md §6.
func parseData(tok string) (value uint32, width Width, err error) {
	lit := tok
	width = 0
	if idx := strings.LastIndex(tok, "/"); idx >= 0 {
		switch tok[idx+1:] {
		case "8":
			width = Width8
		case "16":
			width = Width16
		case "32":
			width = Width32
		default:
			return 0, 0, vm.DebugParseError{Msg: fmt.Sprintf("invalid width suffix in %q", tok)}
		}
		lit = tok[:idx]
	}

	isHex := strings.HasPrefix(strings.ToLower(lit), "0x")
	v, err := parseHexOrDec(lit)
	if err != nil {
		return 0, 0, vm.DebugParseError{Msg: fmt.Sprintf("invalid data literal %q", tok)}
	}

	if width == 0 {
		if isHex {
			switch {
			case v <= 0xFF:
				width = Width8
			case v <= 0xFFFF:
				width = Width16
			default:
				width = Width32
			}
		} else {
			width = Width32
		}
	}
	return v, width, nil
}

// CommandKind tags which REPL command a parsed Command represents.
type CommandKind int

const (
	CmdPeek CommandKind = iota
	CmdPoke
	CmdWatch
	CmdRMWatch
	CmdStep
	CmdBreak
	CmdRMBrk
	CmdLSBrk
	CmdContinue
	CmdRun
	CmdExit
	CmdHelp
)

// Command is a fully parsed debugger command, ready to execute.
type Command struct {
	Kind CommandKind

	Format Format   // PEEK, WATCH
	Loc    Location // PEEK, WATCH, RMWATCH, POKE

	Data  uint32 // POKE
	Width Width  // POKE

	N int // STEP

	Addr uint32 // BREAK

	RemoveByIndex bool // RMBRK
	RemoveIndex   int
	RemoveAddr    uint32
}

// ParseCommand tokenizes and parses one REPL input line. Tokenization is
// whitespace-separated and case-insensitive on the command verb.
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, vm.DebugParseError{Msg: "empty command"}
	}
	verb := strings.ToUpper(fields[0])
	args := fields[1:]

	switch verb {
	case "PEEK":
		return parsePeek(args)
	case "POKE":
		return parsePoke(args)
	case "WATCH":
		return parseWatch(args)
	case "RMWATCH":
		if len(args) != 1 {
			return Command{}, vm.DebugParseError{Msg: "RMWATCH takes exactly one location"}
		}
		loc, err := parseLocation(args[0])
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: CmdRMWatch, Loc: loc}, nil
	case "STEP":
		return parseStep(args)
	case "BREAK":
		if len(args) != 1 {
			return Command{}, vm.DebugParseError{Msg: "BREAK takes exactly one address"}
		}
		addr, err := parseHexOrDec(args[0])
		if err != nil {
			return Command{}, vm.DebugParseError{Msg: fmt.Sprintf("invalid address %q", args[0])}
		}
		return Command{Kind: CmdBreak, Addr: addr}, nil
	case "RMBRK":
		return parseRMBrk(args)
	case "LSBRK":
		if len(args) != 0 {
			return Command{}, vm.DebugParseError{Msg: "LSBRK takes no arguments"}
		}
		return Command{Kind: CmdLSBrk}, nil
	case "CONTINUE", "RUN":
		if len(args) != 0 {
			return Command{}, vm.DebugParseError{Msg: verb + " takes no arguments"}
		}
		kind := CmdContinue
		if verb == "RUN" {
			kind = CmdRun
		}
		return Command{Kind: kind}, nil
	case "EXIT":
		if len(args) != 0 {
			return Command{}, vm.DebugParseError{Msg: "EXIT takes no arguments"}
		}
		return Command{Kind: CmdExit}, nil
	case "HELP":
		if len(args) != 0 {
			return Command{}, vm.DebugParseError{Msg: "HELP takes no arguments"}
		}
		return Command{Kind: CmdHelp}, nil
	default:
		return Command{}, vm.DebugParseError{Msg: fmt.Sprintf("unknown command %q", fields[0])}
	}
}

func parsePeek(args []string) (Command, error) {
	format := FormatHex
	rest := args
	if len(args) > 0 {
		if f, ok := parseFormat(args[0]); ok {
			format = f
			rest = args[1:]
		}
	}
	if len(rest) != 1 {
		return Command{}, vm.DebugParseError{Msg: "PEEK takes [fmt] loc"}
	}
	loc, err := parseLocation(rest[0])
	if err != nil {
		return Command{}, err
	}
	return Command{Kind: CmdPeek, Format: format, Loc: loc}, nil
}

func parsePoke(args []string) (Command, error) {
	if len(args) != 2 {
		return Command{}, vm.DebugParseError{Msg: "POKE takes loc data"}
	}
	loc, err := parseLocation(args[0])
	if err != nil {
		return Command{}, err
	}
	value, width, err := parseData(args[1])
	if err != nil {
		return Command{}, err
	}
	return Command{Kind: CmdPoke, Loc: loc, Data: value, Width: width}, nil
}

func parseWatch(args []string) (Command, error) {
	format := FormatHex
	rest := args
	if len(args) > 0 {
		if f, ok := parseFormat(args[0]); ok {
			format = f
			rest = args[1:]
		}
	}
	if len(rest) != 1 {
		return Command{}, vm.DebugParseError{Msg: "WATCH takes fmt loc"}
	}
	loc, err := parseLocation(rest[0])
	if err != nil {
		return Command{}, err
	}
	return Command{Kind: CmdWatch, Format: format, Loc: loc}, nil
}

func parseStep(args []string) (Command, error) {
	switch len(args) {
	case 0:
		return Command{Kind: CmdStep, N: 1}, nil
	case 1:
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			return Command{}, vm.DebugParseError{Msg: fmt.Sprintf("invalid step count %q", args[0])}
		}
		return Command{Kind: CmdStep, N: n}, nil
	default:
		return Command{}, vm.DebugParseError{Msg: "TooManyArguments"}
	}
}

func parseRMBrk(args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, vm.DebugParseError{Msg: "RMBRK takes exactly one address or index"}
	}
	tok := args[0]
	if strings.HasPrefix(strings.ToLower(tok), "0x") {
		addr, err := parseHexOrDec(tok)
		if err != nil {
			return Command{}, vm.DebugParseError{Msg: fmt.Sprintf("invalid address %q", tok)}
		}
		return Command{Kind: CmdRMBrk, RemoveAddr: addr}, nil
	}
	idx, err := strconv.Atoi(tok)
	if err != nil || idx < 0 {
		return Command{}, vm.DebugParseError{Msg: fmt.Sprintf("invalid index %q", tok)}
	}
	return Command{Kind: CmdRMBrk, RemoveByIndex: true, RemoveIndex: idx}, nil
}
