package camera

import (
	"fmt"
	"io/ioutil"
	"sort"

	"github.com/candelalabs/gencam/mathx"
	yaml "gopkg.in/yaml.v2"
)

// Defect is one bad pixel on the sensor, in full-frame coordinates.
type Defect struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// DefectList is the set of bad pixels for one device.  It persists as
// YAML alongside the device's other calibration data.
type DefectList struct {
	// Serial binds the list to a device; correction tools warn when it
	// does not match the connected camera
	Serial string `json:"serial" yaml:"serial"`

	Defects []Defect `json:"defects" yaml:"defects"`
}

// LoadDefects reads a defect list from a YAML file.
func LoadDefects(path string) (*DefectList, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	d := &DefectList{}
	if err := yaml.Unmarshal(b, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Save writes the list to a YAML file.
func (d *DefectList) Save(path string) error {
	b, err := yaml.Marshal(d)
	if err != nil {
		return err
	}
	return ioutil.WriteFile(path, b, 0644)
}

// Contains reports whether (x, y) is marked bad.
func (d *DefectList) Contains(x, y int) bool {
	for _, p := range d.Defects {
		if p.X == x && p.Y == y {
			return true
		}
	}
	return false
}

// Add marks (x, y) bad.  It returns false if the pixel was already
// marked.
func (d *DefectList) Add(x, y int) bool {
	if d.Contains(x, y) {
		return false
	}
	d.Defects = append(d.Defects, Defect{X: x, Y: y})
	return true
}

// Remove unmarks (x, y).  It returns false if the pixel was not marked.
func (d *DefectList) Remove(x, y int) bool {
	for i, p := range d.Defects {
		if p.X == x && p.Y == y {
			d.Defects = append(d.Defects[:i], d.Defects[i+1:]...)
			return true
		}
	}
	return false
}

// Sort orders the list row major, top left first.
func (d *DefectList) Sort() {
	sort.Slice(d.Defects, func(i, j int) bool {
		a, b := d.Defects[i], d.Defects[j]
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
}

// Correct replaces each defect pixel in f with the mean of its
// in-bounds, non-defect 4-neighbors, in place.  A defect with no usable
// neighbor is left alone, as is any defect outside the frame.  Packed
// formats must be converted before correction.
func (d *DefectList) Correct(f *Frame) error {
	if f.Format != Mono8 && f.Format != Mono16 {
		return fmt.Errorf("camera: cannot correct %s in place, convert first", f.Format)
	}
	bad := make(map[[2]int]struct{}, len(d.Defects))
	for _, p := range d.Defects {
		bad[[2]int{p.X, p.Y}] = struct{}{}
	}
	for _, p := range d.Defects {
		if p.X < 0 || p.X >= f.Width || p.Y < 0 || p.Y >= f.Height {
			continue
		}
		var n8 []uint8
		var n16 []uint16
		for _, q := range [4][2]int{
			{p.X - 1, p.Y},
			{p.X + 1, p.Y},
			{p.X, p.Y - 1},
			{p.X, p.Y + 1},
		} {
			if q[0] < 0 || q[0] >= f.Width || q[1] < 0 || q[1] >= f.Height {
				continue
			}
			if _, isBad := bad[q]; isBad {
				continue
			}
			switch f.Format {
			case Mono8:
				n8 = append(n8, f.Data[q[1]*f.Stride+q[0]])
			case Mono16:
				o := q[1]*f.Stride + 2*q[0]
				n16 = append(n16, uint16(f.Data[o])|uint16(f.Data[o+1])<<8)
			}
		}
		switch f.Format {
		case Mono8:
			if len(n8) == 0 {
				continue
			}
			f.Data[p.Y*f.Stride+p.X] = mathx.MeanU8(n8)
		case Mono16:
			if len(n16) == 0 {
				continue
			}
			v := mathx.MeanU16(n16)
			o := p.Y*f.Stride + 2*p.X
			f.Data[o] = byte(v)
			f.Data[o+1] = byte(v >> 8)
		}
	}
	return nil
}
