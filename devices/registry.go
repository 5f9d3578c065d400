package devices

import (
	"fmt"
	"strings"

	"github.com/lookbusy1344/rv32sim/vm"
)

// ParseConfig parses a device-configuration string of the form
// "name[,key=value]*", per spec.md §6. Returns a parse error for an
// empty name, a malformed "key=value" token missing "=", or (from New)
// an unknown device name.
func ParseConfig(spec string) (name string, opts map[string]string, err error) {
	parts := strings.Split(spec, ",")
	name = parts[0]
	if name == "" {
		return "", nil, fmt.Errorf("device config: empty device name")
	}
	opts = make(map[string]string, len(parts)-1)
	for _, tok := range parts[1:] {
		kv := strings.SplitN(tok, "=", 2)
		if len(kv) != 2 || kv[0] == "" {
			return "", nil, fmt.Errorf("device config: malformed option %q (want key=value)", tok)
		}
		opts[kv[0]] = kv[1]
	}
	return name, opts, nil
}

// New instantiates a device by name from a parsed option map. Known
// names: "serial", "framebuffer".
func New(name string, opts map[string]string) (vm.Device, error) {
	switch name {
	case "serial":
		return NewSerial(opts)
	case "framebuffer":
		return NewFramebuffer(opts)
	default:
		return nil, fmt.Errorf("device config: unknown device %q", name)
	}
}
