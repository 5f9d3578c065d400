package vm

// BreakpointList is an ordered, duplicate-rejecting sequence of 32-bit
// addresses. The ordering is itself part of the UX: BREAK/LSBRK display
// addresses by their position in this list, so a map (which the teacher
// repo's BreakpointManager uses) cannot serve here -- a stable insertion
// order the user can reason about is required, grounded on
// original_source's `breakpoints: Vec<u32>` field on Machine.
type BreakpointList struct {
	addrs []uint32
}

// Add appends addr unless already present. Returns false (without
// mutating the list) if addr is a duplicate.
func (b *BreakpointList) Add(addr uint32) bool {
	if b.Has(addr) {
		return false
	}
	b.addrs = append(b.addrs, addr)
	return true
}

// Has reports whether addr is currently a breakpoint.
func (b *BreakpointList) Has(addr uint32) bool {
	for _, a := range b.addrs {
		if a == addr {
			return true
		}
	}
	return false
}

// RemoveAddr removes the first occurrence of addr (there can only be one,
// duplicates being rejected). Returns false if addr was not present.
func (b *BreakpointList) RemoveAddr(addr uint32) bool {
	for i, a := range b.addrs {
		if a == addr {
			b.addrs = append(b.addrs[:i], b.addrs[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveIndex removes the breakpoint at position idx (0-based, as shown
// by List). Returns false if idx is out of range.
func (b *BreakpointList) RemoveIndex(idx int) bool {
	if idx < 0 || idx >= len(b.addrs) {
		return false
	}
	b.addrs = append(b.addrs[:idx], b.addrs[idx+1:]...)
	return true
}

// List returns the breakpoints in insertion order; index position is the
// number the debugger displays.
func (b *BreakpointList) List() []uint32 {
	return append([]uint32(nil), b.addrs...)
}

// Len reports the number of active breakpoints.
func (b *BreakpointList) Len() int { return len(b.addrs) }
