package camera_test

import (
	"path/filepath"
	"testing"

	"github.com/candelalabs/gencam/camera"
)

func TestDefectAddRemoveContains(t *testing.T) {
	d := &camera.DefectList{Serial: "SIM-0000"}
	if !d.Add(3, 4) {
		t.Error("expected first Add to succeed")
	}
	if d.Add(3, 4) {
		t.Error("expected duplicate Add to fail")
	}
	if !d.Contains(3, 4) {
		t.Error("expected Contains to find the pixel")
	}
	if !d.Remove(3, 4) {
		t.Error("expected Remove to succeed")
	}
	if d.Remove(3, 4) {
		t.Error("expected second Remove to fail")
	}
	if d.Contains(3, 4) {
		t.Error("expected pixel gone after Remove")
	}
}

func TestDefectSort(t *testing.T) {
	d := &camera.DefectList{Defects: []camera.Defect{{X: 5, Y: 1}, {X: 0, Y: 0}, {X: 2, Y: 1}}}
	d.Sort()
	want := []camera.Defect{{X: 0, Y: 0}, {X: 2, Y: 1}, {X: 5, Y: 1}}
	for i := range want {
		if d.Defects[i] != want[i] {
			t.Errorf("index %d, expected %+v got %+v", i, want[i], d.Defects[i])
		}
	}
}

func TestDefectSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "defects.yaml")
	d := &camera.DefectList{Serial: "ABC123", Defects: []camera.Defect{{X: 1, Y: 2}, {X: 3, Y: 4}}}
	if err := d.Save(path); err != nil {
		t.Fatal(err)
	}
	got, err := camera.LoadDefects(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Serial != "ABC123" {
		t.Errorf("expected serial ABC123, got %s", got.Serial)
	}
	if len(got.Defects) != 2 {
		t.Fatalf("expected 2 defects, got %d", len(got.Defects))
	}
	if got.Defects[1] != (camera.Defect{X: 3, Y: 4}) {
		t.Errorf("expected {3 4}, got %+v", got.Defects[1])
	}
}

func TestCorrectMono8(t *testing.T) {
	// 3x3, center marked bad; neighbors are 10, 20, 30, 40, mean 25
	f := &camera.Frame{
		Width:  3,
		Height: 3,
		Stride: 3,
		Format: camera.Mono8,
		Data: []byte{
			0, 10, 0,
			20, 255, 30,
			0, 40, 0,
		},
	}
	d := &camera.DefectList{Defects: []camera.Defect{{X: 1, Y: 1}}}
	if err := d.Correct(f); err != nil {
		t.Fatal(err)
	}
	if f.Data[4] != 25 {
		t.Errorf("expected corrected pixel 25, got %d", f.Data[4])
	}
}

func TestCorrectExcludesBadNeighbors(t *testing.T) {
	// two adjacent defects; each must ignore the other
	f := &camera.Frame{
		Width:  4,
		Height: 1,
		Stride: 4,
		Format: camera.Mono8,
		Data:   []byte{10, 255, 255, 40},
	}
	d := &camera.DefectList{Defects: []camera.Defect{{X: 1, Y: 0}, {X: 2, Y: 0}}}
	if err := d.Correct(f); err != nil {
		t.Fatal(err)
	}
	if f.Data[1] != 10 {
		t.Errorf("expected pixel 1 corrected to 10, got %d", f.Data[1])
	}
	if f.Data[2] != 40 {
		t.Errorf("expected pixel 2 corrected to 40, got %d", f.Data[2])
	}
}

func TestCorrectMono16(t *testing.T) {
	// 3x1 little endian, middle bad: neighbors 0x0100 and 0x0300, mean 0x0200
	f := &camera.Frame{
		Width:  3,
		Height: 1,
		Stride: 6,
		Format: camera.Mono16,
		Data:   []byte{0x00, 0x01, 0xFF, 0xFF, 0x00, 0x03},
	}
	d := &camera.DefectList{Defects: []camera.Defect{{X: 1, Y: 0}}}
	if err := d.Correct(f); err != nil {
		t.Fatal(err)
	}
	got := uint16(f.Data[2]) | uint16(f.Data[3])<<8
	if got != 0x0200 {
		t.Errorf("expected 0x0200, got %#04x", got)
	}
}

func TestCorrectOutOfBoundsDefectIgnored(t *testing.T) {
	f := &camera.Frame{
		Width:  2,
		Height: 1,
		Stride: 2,
		Format: camera.Mono8,
		Data:   []byte{1, 2},
	}
	d := &camera.DefectList{Defects: []camera.Defect{{X: 100, Y: 100}}}
	if err := d.Correct(f); err != nil {
		t.Fatal(err)
	}
	if f.Data[0] != 1 || f.Data[1] != 2 {
		t.Error("expected frame unchanged")
	}
}

func TestCorrectPackedRejected(t *testing.T) {
	f := &camera.Frame{Width: 2, Height: 1, Stride: 3, Format: camera.Mono12Packed, Data: make([]byte, 3)}
	d := &camera.DefectList{Defects: []camera.Defect{{X: 0, Y: 0}}}
	if err := d.Correct(f); err == nil {
		t.Error("expected error correcting a packed frame, got nil")
	}
}
