package camera_test

import (
	"testing"

	"github.com/candelalabs/gencam/camera"
)

func init() {
	camera.Register(camera.SimProvider{Configs: []camera.SimConfig{
		{Serial: "SIM-0001", Model: "Gencam Sim"},
		{Serial: "SIM-0002", Model: "Gencam Sim", UserID: "bench2"},
	}})
}

func TestSystemEnumerate(t *testing.T) {
	sys, err := camera.NewSystem()
	if err != nil {
		t.Fatal(err)
	}
	if sys.Len() != 2 {
		t.Fatalf("expected 2 cameras, got %d", sys.Len())
	}
	infos := sys.Cameras()
	if infos[0].Serial != "SIM-0001" || infos[1].Serial != "SIM-0002" {
		t.Errorf("unexpected serials %s, %s", infos[0].Serial, infos[1].Serial)
	}
	if infos[1].UserID != "bench2" {
		t.Errorf("expected user ID bench2, got %s", infos[1].UserID)
	}
}

func TestSystemOpen(t *testing.T) {
	sys, err := camera.NewSystem()
	if err != nil {
		t.Fatal(err)
	}
	cam, err := sys.Open(0)
	if err != nil {
		t.Fatal(err)
	}
	defer cam.Close()
	if cam.Info().Serial != "SIM-0001" {
		t.Errorf("expected SIM-0001, got %s", cam.Info().Serial)
	}
	if _, err := sys.Open(5); err == nil {
		t.Error("expected error opening out of range index, got nil")
	}
}

func TestSystemOpenSerial(t *testing.T) {
	sys, err := camera.NewSystem()
	if err != nil {
		t.Fatal(err)
	}
	cam, err := sys.OpenSerial("SIM-0002")
	if err != nil {
		t.Fatal(err)
	}
	defer cam.Close()
	if cam.Info().Serial != "SIM-0002" {
		t.Errorf("expected SIM-0002, got %s", cam.Info().Serial)
	}
	if _, err := sys.OpenSerial("NOPE"); err == nil {
		t.Error("expected error for unknown serial, got nil")
	}
}

func TestSystemOpensIndependentCameras(t *testing.T) {
	sys, err := camera.NewSystem()
	if err != nil {
		t.Fatal(err)
	}
	a, err := sys.Open(0)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	b, err := sys.Open(0)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	if err := a.Init(); err != nil {
		t.Fatal(err)
	}
	// b is a separate handle to the same configured device
	if err := b.Init(); err != nil {
		t.Fatal(err)
	}
}

func TestSystemInterfaces(t *testing.T) {
	sys, err := camera.NewSystem()
	if err != nil {
		t.Fatal(err)
	}
	ifaces := sys.Interfaces()
	if len(ifaces) != 1 {
		t.Fatalf("expected 1 interface, got %d", len(ifaces))
	}
	iface := ifaces[0]
	if iface.TLType != "Sim" {
		t.Errorf("expected transport Sim, got %s", iface.TLType)
	}
	if iface.Name != "SimBus0" {
		t.Errorf("expected interface SimBus0, got %s", iface.Name)
	}
	if len(iface.Cameras) != 2 {
		t.Fatalf("expected 2 cameras on the interface, got %d", len(iface.Cameras))
	}
	if iface.Cameras[0].Serial != "SIM-0001" || iface.Cameras[1].Serial != "SIM-0002" {
		t.Errorf("unexpected serials %s, %s", iface.Cameras[0].Serial, iface.Cameras[1].Serial)
	}
}

func TestSystemRelease(t *testing.T) {
	sys, err := camera.NewSystem()
	if err != nil {
		t.Fatal(err)
	}
	cam, err := sys.Open(0)
	if err != nil {
		t.Fatal(err)
	}
	defer cam.Close()
	sys.Release()
	if sys.Len() != 0 {
		t.Errorf("expected 0 cameras after release, got %d", sys.Len())
	}
	if _, err := sys.Open(0); err == nil {
		t.Error("expected error opening from a released system, got nil")
	}
	// handles opened before the release stay usable
	if err := cam.Init(); err != nil {
		t.Fatal(err)
	}
}
