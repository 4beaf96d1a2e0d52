// defectmap is an interactive console for building a camera's pixel
// defect list and checking the correction against live frames.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/candelalabs/gencam/camera"
)

var file = flag.String("file", "defects.yaml", "defect list file")

const usage = `commands:
  list          show the defect list
  add x y       mark a pixel bad
  remove i      unmark entry i of the list
  remove x y    unmark a pixel
  apply         acquire a frame, print each defect before and after correction
  stats         print frame statistics
  save [path]   write the list as YAML
  load [path]   replace the list from YAML
  quit          exit
`

type statser interface {
	Stats() *camera.Stats
}

func twoInts(words []string) (int, int, error) {
	if len(words) != 2 {
		return 0, 0, fmt.Errorf("want two integers")
	}
	x, err := strconv.Atoi(words[0])
	if err != nil {
		return 0, 0, fmt.Errorf("%q is not an integer", words[0])
	}
	y, err := strconv.Atoi(words[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%q is not an integer", words[1])
	}
	return x, y, nil
}

func pixel(f *camera.Frame, x, y int) (uint16, bool) {
	if x < 0 || x >= f.Width || y < 0 || y >= f.Height {
		return 0, false
	}
	switch f.Format {
	case camera.Mono8:
		return uint16(f.Data[y*f.Stride+x]), true
	case camera.Mono16:
		o := y*f.Stride + 2*x
		return uint16(f.Data[o]) | uint16(f.Data[o+1])<<8, true
	}
	return 0, false
}

// apply grabs one frame and prints each defect's value before and
// after correction.
func apply(c camera.Camera, d *camera.DefectList) error {
	if err := c.BeginAcquisition(); err != nil {
		return err
	}
	f, err := c.NextFrame(10 * time.Second)
	if err != nil {
		c.EndAcquisition()
		return err
	}
	g := f.Copy()
	f.Release()
	if err := c.EndAcquisition(); err != nil {
		return err
	}
	if g.Format == camera.Mono12Packed {
		g, err = g.ConvertTo(camera.Mono16)
		if err != nil {
			return err
		}
	}
	d.Sort()
	before := make(map[camera.Defect]uint16, len(d.Defects))
	for _, p := range d.Defects {
		if v, ok := pixel(g, p.X, p.Y); ok {
			before[p] = v
		}
	}
	if err := d.Correct(g); err != nil {
		return err
	}
	for _, p := range d.Defects {
		v, ok := pixel(g, p.X, p.Y)
		if !ok {
			fmt.Printf("(%d, %d) outside the frame\n", p.X, p.Y)
			continue
		}
		fmt.Printf("(%d, %d) %d -> %d\n", p.X, p.Y, before[p], v)
	}
	return nil
}

func run() error {
	camera.Register(camera.SimProvider{Configs: []camera.SimConfig{{
		Serial:    "SIM-0001",
		HotPixels: []camera.Defect{{X: 12, Y: 34}, {X: 100, Y: 200}},
	}}})
	sys, err := camera.NewSystem()
	if err != nil {
		return err
	}
	c, err := sys.Open(0)
	if err != nil {
		return err
	}
	if err := c.Init(); err != nil {
		return err
	}
	defer c.Close()

	info := c.Info()
	nm := c.NodeMap()
	width, err := nm.GetInt("Width")
	if err != nil {
		return err
	}
	height, err := nm.GetInt("Height")
	if err != nil {
		return err
	}
	fmt.Printf("%s %s, %dx%d, hot pixels at (12, 34) and (100, 200)\n",
		info.Model, info.Serial, width, height)

	d := &camera.DefectList{Serial: info.Serial}
	if nd, err := camera.LoadDefects(*file); err == nil {
		d = nd
		fmt.Printf("%d defects from %s\n", len(d.Defects), *file)
	} else if !os.IsNotExist(err) {
		return err
	}

	fmt.Print(usage)
	fmt.Print("> ")
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		words := strings.Fields(sc.Text())
		if len(words) == 0 {
			fmt.Print("> ")
			continue
		}
		switch words[0] {
		case "help":
			fmt.Print(usage)
		case "list":
			d.Sort()
			if len(d.Defects) == 0 {
				fmt.Println("no defects")
			}
			for i, p := range d.Defects {
				fmt.Printf("%3d  (%d, %d)\n", i, p.X, p.Y)
			}
		case "add":
			x, y, err := twoInts(words[1:])
			if err != nil {
				fmt.Println(err)
				break
			}
			if x < 0 || x >= int(width) || y < 0 || y >= int(height) {
				fmt.Printf("note: (%d, %d) is outside the %dx%d frame\n", x, y, width, height)
			}
			if d.Add(x, y) {
				fmt.Printf("marked (%d, %d)\n", x, y)
			} else {
				fmt.Printf("(%d, %d) was already marked\n", x, y)
			}
		case "remove":
			switch len(words) {
			case 2:
				d.Sort()
				i, err := strconv.Atoi(words[1])
				if err != nil || i < 0 || i >= len(d.Defects) {
					fmt.Println("remove wants a list index or x y")
					break
				}
				p := d.Defects[i]
				d.Remove(p.X, p.Y)
				fmt.Printf("unmarked (%d, %d)\n", p.X, p.Y)
			case 3:
				x, y, err := twoInts(words[1:])
				if err != nil {
					fmt.Println(err)
					break
				}
				if d.Remove(x, y) {
					fmt.Printf("unmarked (%d, %d)\n", x, y)
				} else {
					fmt.Printf("(%d, %d) was not marked\n", x, y)
				}
			default:
				fmt.Println("remove wants a list index or x y")
			}
		case "apply":
			if err := apply(c, d); err != nil {
				fmt.Println(err)
			}
		case "stats":
			s, ok := interface{}(c).(statser)
			if !ok {
				fmt.Println("camera does not keep frame statistics")
				break
			}
			snap := s.Stats().Snapshot()
			fmt.Printf("delivered %d  incomplete %d  dropped %d  fps %.1f\n",
				snap.Delivered, snap.Incomplete, snap.Dropped, snap.FPS)
		case "save":
			path := *file
			if len(words) > 1 {
				path = words[1]
			}
			d.Sort()
			if err := d.Save(path); err != nil {
				fmt.Println(err)
			} else {
				fmt.Printf("%d defects to %s\n", len(d.Defects), path)
			}
		case "load":
			path := *file
			if len(words) > 1 {
				path = words[1]
			}
			nd, err := camera.LoadDefects(path)
			if err != nil {
				fmt.Println(err)
				break
			}
			if nd.Serial != "" && nd.Serial != info.Serial {
				fmt.Printf("warning: list is for %s, camera is %s\n", nd.Serial, info.Serial)
			}
			d = nd
			fmt.Printf("%d defects from %s\n", len(d.Defects), path)
		case "quit", "exit":
			return nil
		default:
			fmt.Printf("unknown command %q, try help\n", words[0])
		}
		fmt.Print("> ")
	}
	return sc.Err()
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
