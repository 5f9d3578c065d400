package devices

import "testing"

func TestFramebufferStoreWordThenReadWordRoundTrip(t *testing.T) {
	fb, err := NewFramebuffer(nil)
	if err != nil {
		t.Fatalf("NewFramebuffer: %v", err)
	}
	defer fb.Close()

	if err := fb.StoreWord(0, 0x11223344); err != nil {
		t.Fatalf("StoreWord: %v", err)
	}
	got, err := fb.ReadWord(0)
	if err != nil || got != 0x11223344 {
		t.Fatalf("ReadWord(0) = 0x%x, err=%v", got, err)
	}
}

func TestFramebufferOutOfBoundsOffsetErrors(t *testing.T) {
	fb, err := NewFramebuffer(nil)
	if err != nil {
		t.Fatalf("NewFramebuffer: %v", err)
	}
	defer fb.Close()

	start, end := fb.Range()
	overshoot := (end - start + 1) // one word past the last valid offset
	if _, err := fb.ReadWord(overshoot); err == nil {
		t.Fatal("expected error reading past the pixel buffer")
	}
}

func TestFramebufferRangeSizedForWidthHeight(t *testing.T) {
	fb, err := NewFramebuffer(nil)
	if err != nil {
		t.Fatalf("NewFramebuffer: %v", err)
	}
	defer fb.Close()

	start, end := fb.Range()
	wantSize := uint32(fbWidth * fbHeight * 4)
	if end-start+1 != wantSize {
		t.Fatalf("Range size = %d, want %d", end-start+1, wantSize)
	}
}

func TestFramebufferTickRecoversPanic(t *testing.T) {
	fb := &Framebuffer{base: fbDefaultBase, stop: make(chan struct{})}
	fb.panicOnTick = true

	fb.tick() // must not propagate the panic out of tick

	if !fb.poisoned {
		t.Fatal("expected tick's recover to mark the framebuffer poisoned")
	}
	if _, err := fb.ReadWord(0); err == nil {
		t.Fatal("expected a poisoned framebuffer to fault on ReadWord")
	}
	if err := fb.StoreWord(0, 1); err == nil {
		t.Fatal("expected a poisoned framebuffer to fault on StoreWord")
	}
}

func TestFramebufferCustomAddressOption(t *testing.T) {
	fb, err := NewFramebuffer(map[string]string{"address": "1000"})
	if err != nil {
		t.Fatalf("NewFramebuffer: %v", err)
	}
	defer fb.Close()
	start, _ := fb.Range()
	if start != 1000 {
		t.Fatalf("base = %d, want 1000", start)
	}
}
