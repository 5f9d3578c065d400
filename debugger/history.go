package debugger

import (
	"sync"
)

// CommandHistory records executed REPL command lines. Only Add is
// exercised by the debugger today: spec.md's grammar has no HISTORY
// command and raw-mode up/down-arrow recall is out of scope (spec.md
// §1), so the navigation/search surface the teacher's history carried
// is trimmed rather than kept unwired.
type CommandHistory struct {
	mu       sync.Mutex
	commands []string
	maxSize  int
}

// NewCommandHistory creates a new command history.
func NewCommandHistory() *CommandHistory {
	return &CommandHistory{
		commands: make([]string, 0, 100),
		maxSize:  1000, // Keep last 1000 commands
	}
}

// Add adds a command to history, skipping empty lines and immediate
// repeats of the last command.
func (h *CommandHistory) Add(cmd string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if cmd == "" {
		return
	}

	if len(h.commands) > 0 && h.commands[len(h.commands)-1] == cmd {
		return
	}

	h.commands = append(h.commands, cmd)

	if len(h.commands) > h.maxSize {
		h.commands = h.commands[len(h.commands)-h.maxSize:]
	}
}
