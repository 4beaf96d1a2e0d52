// camevents subscribes to image and device events and prints them as
// they arrive, stopping after a fixed number of frames.
package main

import (
	"flag"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/candelalabs/gencam/camera"
)

var (
	n       = flag.Int("n", 10, "frames to observe before stopping")
	rate    = flag.Float64("rate", 20, "acquisition frame rate, Hz")
	timeout = flag.Duration("timeout", 30*time.Second, "give up after this long")
)

func run() error {
	camera.Register(camera.SimProvider{Configs: []camera.SimConfig{{Serial: "SIM-0001"}}})
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

	nm := c.NodeMap()
	if err := nm.SetFloat("AcquisitionFrameRate", *rate); err != nil {
		return err
	}
	if err := nm.SetEnum("AcquisitionMode", "Continuous"); err != nil {
		return err
	}

	var (
		images uint64
		events uint64
		once   sync.Once
		done   = make(chan struct{})
	)
	imgTok := c.RegisterImageHandler(camera.ImageHandlerFunc(func(f *camera.Frame) {
		i := atomic.AddUint64(&images, 1)
		fmt.Printf("image  frame=%d %dx%d %s complete=%v\n",
			f.ID, f.Width, f.Height, f.Format, f.Complete())
		if i >= uint64(*n) {
			once.Do(func() { close(done) })
		}
	}))
	devTok := c.RegisterDeviceHandler(camera.DeviceHandlerFunc(func(e camera.DeviceEvent) {
		atomic.AddUint64(&events, 1)
		fmt.Printf("device %s frame=%d value=%v\n", e.Name, e.FrameID, e.Value)
	}))
	defer c.UnregisterImageHandler(imgTok)
	defer c.UnregisterDeviceHandler(devTok)

	if err := c.BeginAcquisition(); err != nil {
		return err
	}
	select {
	case <-done:
	case <-time.After(*timeout):
		c.EndAcquisition()
		return fmt.Errorf("camevents: saw %d of %d frames before timeout",
			atomic.LoadUint64(&images), *n)
	}
	if err := c.EndAcquisition(); err != nil {
		return err
	}
	fmt.Printf("%d image callbacks, %d device events\n",
		atomic.LoadUint64(&images), atomic.LoadUint64(&events))
	return nil
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
