package devices

import "testing"

func TestParseConfigNameOnly(t *testing.T) {
	name, opts, err := ParseConfig("serial")
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if name != "serial" || len(opts) != 0 {
		t.Fatalf("got name=%q opts=%v", name, opts)
	}
}

func TestParseConfigWithOptions(t *testing.T) {
	name, opts, err := ParseConfig("serial,address=1016")
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if name != "serial" || opts["address"] != "1016" {
		t.Fatalf("got name=%q opts=%v", name, opts)
	}
}

func TestParseConfigEmptyNameErrors(t *testing.T) {
	if _, _, err := ParseConfig(""); err == nil {
		t.Fatal("expected error for empty device name")
	}
}

func TestParseConfigMalformedOptionErrors(t *testing.T) {
	if _, _, err := ParseConfig("serial,noequals"); err == nil {
		t.Fatal("expected error for option missing '='")
	}
}

func TestNewDispatchesKnownDevices(t *testing.T) {
	dev, err := New("serial", map[string]string{})
	if err != nil {
		t.Fatalf("New(serial): %v", err)
	}
	if dev.Name() != "serial" {
		t.Fatalf("Name() = %q, want serial", dev.Name())
	}
	if closer, ok := dev.(*Serial); !ok || closer == nil {
		t.Fatal("expected *Serial")
	}

	dev, err = New("framebuffer", map[string]string{})
	if err != nil {
		t.Fatalf("New(framebuffer): %v", err)
	}
	if fb, ok := dev.(*Framebuffer); !ok {
		t.Fatal("expected *Framebuffer")
	} else {
		fb.Close()
	}
}

func TestNewUnknownDeviceErrors(t *testing.T) {
	if _, err := New("nonexistent", nil); err == nil {
		t.Fatal("expected error for unknown device name")
	}
}
