// trigger acquires frames under triggered acquisition.  In software
// mode each frame is fired through the TriggerSoftware command.  In
// line0 mode the pulses come from a PT-200 pulse generator when -addr
// is given, otherwise from a mock pulser wired to the simulated
// camera's trigger input.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/candelalabs/gencam/camera"
	"github.com/candelalabs/gencam/genicam"
	"github.com/candelalabs/gencam/trigger"
)

var (
	source = flag.String("source", "software", "trigger source, software or line0")
	n      = flag.Int("n", 5, "number of frames to acquire")
	rate   = flag.Float64("rate", 10, "pulse rate in Hz, line0 only")
	width  = flag.Float64("width", 100, "pulse width in microseconds, line0 only")
	addr   = flag.String("addr", "", "pulse generator host:port, line0 only")
	rs232  = flag.Bool("rs232", false, "addr is a serial port, not host:port")
)

type firer interface {
	Fire()
}

func run() error {
	if *n < 1 {
		return fmt.Errorf("trigger: n must be a positive integer, got %d", *n)
	}
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
	if err := nm.SetEnum("TriggerMode", "On"); err != nil {
		return err
	}
	if err := nm.SetEnum("AcquisitionMode", "MultiFrame"); err != nil {
		return err
	}
	if err := nm.SetInt("AcquisitionFrameCount", int64(*n)); err != nil {
		return err
	}
	switch *source {
	case "software":
		if err := nm.SetEnum("TriggerSource", "Software"); err != nil {
			return err
		}
		return softwareTriggered(c, nm)
	case "line0":
		if err := nm.SetEnum("TriggerSource", "Line0"); err != nil {
			return err
		}
		return lineTriggered(c)
	default:
		return fmt.Errorf("trigger: unknown source %q, want software or line0", *source)
	}
}

func softwareTriggered(c camera.Camera, nm *genicam.NodeMap) error {
	if err := c.BeginAcquisition(); err != nil {
		return err
	}
	defer c.EndAcquisition()
	for i := 0; i < *n; i++ {
		if err := nm.Execute("TriggerSoftware"); err != nil {
			return err
		}
		f, err := c.NextFrame(10 * time.Second)
		if err != nil {
			return fmt.Errorf("trigger: frame %d of %d: %w", i+1, *n, err)
		}
		fmt.Printf("frame %d complete=%v\n", f.ID, f.Complete())
		f.Release()
	}
	fmt.Printf("%d frames on software trigger\n", *n)
	return nil
}

func lineTriggered(c camera.Camera) error {
	var p trigger.Pulser
	if *addr != "" {
		p = trigger.NewBox(*addr, *rs232)
	} else {
		m := trigger.NewMock()
		f, ok := interface{}(c).(firer)
		if !ok {
			return fmt.Errorf("trigger: camera has no simulated trigger input, use -addr")
		}
		m.OnPulse = f.Fire
		p = m
	}
	id, err := p.ID()
	if err != nil {
		return err
	}
	fmt.Printf("pulse generator: %s\n", id)
	if err := p.SetRate(*rate); err != nil {
		return err
	}
	if err := p.SetWidth(*width); err != nil {
		return err
	}
	if err := p.SetBurstCount(*n); err != nil {
		return err
	}

	if err := c.BeginAcquisition(); err != nil {
		return err
	}
	defer c.EndAcquisition()
	// the burst blocks for count/rate seconds, so drain frames while
	// it runs to keep the camera's buffer ring from evicting any
	errc := make(chan error, 1)
	go func() { errc <- p.Burst() }()
	period := time.Duration(float64(time.Second) / *rate)
	for i := 0; i < *n; i++ {
		f, err := c.NextFrame(period + 10*time.Second)
		if err != nil {
			<-errc
			return fmt.Errorf("trigger: frame %d of %d: %w", i+1, *n, err)
		}
		fmt.Printf("frame %d complete=%v\n", f.ID, f.Complete())
		f.Release()
	}
	if err := <-errc; err != nil {
		return err
	}
	fmt.Printf("%d frames on line0 trigger\n", *n)
	return nil
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
