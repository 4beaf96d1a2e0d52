package genicam

import (
	"errors"
	"testing"
)

func TestIntegerRange(t *testing.T) {
	n := NewInteger("Width", ReadWrite, 640, 64, 4096, 4)
	err := n.SetValue(1280)
	if err != nil {
		t.Errorf("expected in-range set to succeed, got %v", err)
	}
	v, err := n.Value()
	if err != nil {
		t.Errorf("expected read to succeed, got %v", err)
	}
	if v != 1280 {
		t.Errorf("expected 1280 got %d", v)
	}

	err = n.SetValue(5000)
	if !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected out of range error, got %v", err)
	}
	err = n.SetValue(66) // not on the increment grid
	if !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected out of range error for off-increment value, got %v", err)
	}
	v, _ = n.Value()
	if v != 1280 {
		t.Errorf("failed writes must not mutate state, got %d", v)
	}
}

func TestIntegerAccess(t *testing.T) {
	ro := NewInteger("SensorWidth", ReadOnly, 4096, 4096, 4096, 1)
	err := ro.SetValue(100)
	if !errors.Is(err, ErrNotWritable) {
		t.Errorf("expected not writable error, got %v", err)
	}

	wo := NewInteger("Knock", WriteOnly, 0, 0, 10, 1)
	_, err = wo.Value()
	if !errors.Is(err, ErrNotReadable) {
		t.Errorf("expected not readable error, got %v", err)
	}
}

func TestFloatRange(t *testing.T) {
	n := NewFloat("Gain", ReadWrite, 0, 0, 47.99, "dB")
	if err := n.SetValue(12.5); err != nil {
		t.Errorf("expected in-range set to succeed, got %v", err)
	}
	if err := n.SetValue(-1); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected out of range error, got %v", err)
	}
	if n.Unit() != "dB" {
		t.Errorf("expected unit dB got %s", n.Unit())
	}
}

func TestStringMaxLength(t *testing.T) {
	n := NewString("DeviceUserID", ReadWrite, "", 8)
	if err := n.SetValue("cam0"); err != nil {
		t.Errorf("expected short string to be accepted, got %v", err)
	}
	if err := n.SetValue("much-too-long"); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected out of range error for long string, got %v", err)
	}
}

func TestEnumeration(t *testing.T) {
	n := NewEnumeration("PixelFormat", ReadWrite, "Mono8", "Mono8", "Mono12Packed", "Mono16")
	v, err := n.Value()
	if err != nil || v != "Mono8" {
		t.Errorf("expected initial Mono8, got %s (%v)", v, err)
	}
	if err := n.SetValue("Mono16"); err != nil {
		t.Errorf("expected known entry to be accepted, got %v", err)
	}
	i, _ := n.Index()
	if i != 2 {
		t.Errorf("expected index 2 got %d", i)
	}
	if err := n.SetValue("BayerRG8"); !errors.Is(err, ErrBadEnumEntry) {
		t.Errorf("expected bad enum entry error, got %v", err)
	}
	if err := n.SetIndex(1); err != nil {
		t.Errorf("expected SetIndex(1) to succeed, got %v", err)
	}
	v, _ = n.Value()
	if v != "Mono12Packed" {
		t.Errorf("expected Mono12Packed got %s", v)
	}
	if err := n.SetIndex(5); !errors.Is(err, ErrBadEnumEntry) {
		t.Errorf("expected bad enum entry error for index 5, got %v", err)
	}
}

func TestCommand(t *testing.T) {
	ran := false
	n := NewCommand("AcquisitionStart", WriteOnly)
	n.OnExecute = func() error {
		ran = true
		if n.Done() {
			t.Errorf("expected Done to be false during execution")
		}
		return nil
	}
	if err := n.Execute(); err != nil {
		t.Errorf("expected execute to succeed, got %v", err)
	}
	if !ran {
		t.Errorf("expected the command hook to run")
	}
	if !n.Done() {
		t.Errorf("expected Done after execution")
	}

	bare := NewCommand("DeviceReset", WriteOnly)
	if err := bare.Execute(); !errors.Is(err, ErrNotImplemented) {
		t.Errorf("expected not implemented error for hookless command, got %v", err)
	}
}

func TestHooks(t *testing.T) {
	temp := 40.25
	n := NewFloat("DeviceTemperature", ReadOnly, 0, -50, 150, "C")
	n.OnGet = func() float64 { return temp }
	v, err := n.Value()
	if err != nil || v != temp {
		t.Errorf("expected hook value %v got %v (%v)", temp, v, err)
	}

	blocked := errors.New("sensor busy")
	w := NewInteger("Height", ReadWrite, 2048, 2, 2048, 2)
	w.OnSet = func(int64) error { return blocked }
	if err := w.SetValue(100); err != blocked {
		t.Errorf("expected hook error to propagate, got %v", err)
	}
	v2, _ := w.Value()
	if v2 != 2048 {
		t.Errorf("expected value unchanged after hook failure, got %d", v2)
	}
}

func TestErrorStrings(t *testing.T) {
	err := Error(int(ErrTimeout))
	if err == nil {
		t.Fatalf("expected non-nil error for timeout code")
	}
	expected := "8 - TIMEOUT"
	if err.Error() != expected {
		t.Errorf("expected %q got %q", expected, err.Error())
	}
	if Error(0) != nil {
		t.Errorf("expected nil error for success code")
	}

	ne := NodeError{Node: "Gain", Code: ErrNotWritable}
	if !errors.Is(ne, ErrNotWritable) {
		t.Errorf("expected NodeError to match its code")
	}
}
