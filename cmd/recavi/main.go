// recavi records an acquisition to an AVI file.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/theckman/yacspin"

	"github.com/candelalabs/gencam/avi"
	"github.com/candelalabs/gencam/camera"
)

var (
	n       = flag.Int("n", 100, "number of frames to record")
	fps     = flag.Float64("fps", 30, "acquisition and playback frame rate in Hz")
	codec   = flag.String("codec", "dib", "stream flavor, dib or mjpg")
	quality = flag.Int("quality", 90, "JPEG quality for mjpg, 1 to 100")
	out     = flag.String("o", "out.avi", "output file")
)

func run() error {
	var fourcc string
	switch *codec {
	case "dib":
		fourcc = avi.FourCCDIB
	case "mjpg":
		fourcc = avi.FourCCMJPG
	default:
		return fmt.Errorf("recavi: unknown codec %q, want dib or mjpg", *codec)
	}
	if *n < 1 {
		return fmt.Errorf("recavi: n must be a positive integer, got %d", *n)
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
	if err := nm.SetFloat("AcquisitionFrameRate", *fps); err != nil {
		return err
	}
	if err := nm.SetEnum("AcquisitionMode", "MultiFrame"); err != nil {
		return err
	}
	if err := nm.SetInt("AcquisitionFrameCount", int64(*n)); err != nil {
		return err
	}
	width, err := nm.GetInt("Width")
	if err != nil {
		return err
	}
	height, err := nm.GetInt("Height")
	if err != nil {
		return err
	}

	fid, err := os.Create(*out)
	if err != nil {
		return err
	}
	defer fid.Close()
	wr, err := avi.NewWriter(fid, avi.Options{
		Width:   int(width),
		Height:  int(height),
		FPS:     *fps,
		FourCC:  fourcc,
		Quality: *quality,
	})
	if err != nil {
		return err
	}

	spin, err := yacspin.New(yacspin.Config{
		Frequency:         100 * time.Millisecond,
		CharSet:           yacspin.CharSets[11],
		Suffix:            " recording",
		SuffixAutoColon:   true,
		StopCharacter:     "✓",
		StopColors:        []string{"fgGreen"},
		StopFailCharacter: "✗",
		StopFailColors:    []string{"fgRed"},
	})
	if err != nil {
		return err
	}
	spin.Start()
	if err := c.BeginAcquisition(); err != nil {
		spin.StopFail()
		return err
	}
	timeout := time.Duration(float64(time.Second) / *fps) + 5*time.Second
	for i := 0; i < *n; i++ {
		spin.Message(fmt.Sprintf("frame %d of %d", i+1, *n))
		f, err := c.NextFrame(timeout)
		if err != nil {
			spin.StopFail()
			c.EndAcquisition()
			return fmt.Errorf("recavi: frame %d of %d: %w", i+1, *n, err)
		}
		err = wr.AppendFrame(f)
		f.Release()
		if err != nil {
			spin.StopFail()
			c.EndAcquisition()
			return err
		}
	}
	if err := c.EndAcquisition(); err != nil {
		spin.StopFail()
		return err
	}
	if err := wr.Close(); err != nil {
		spin.StopFail()
		return err
	}
	spin.Stop()
	fmt.Printf("%d frames, %d bytes to %s\n", wr.Frames(), wr.Size(), *out)
	return nil
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
