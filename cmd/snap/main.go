// snap acquires a fixed number of frames and saves them to disk.
package main

import (
	"flag"
	"fmt"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/astrogo/fitsio"
	"github.com/theckman/yacspin"

	"github.com/candelalabs/gencam/camera"
	httpcamera "github.com/candelalabs/gencam/generichttp/camera"
	"github.com/candelalabs/gencam/util"
)

var (
	out      = flag.String("out", ".", "output directory")
	n        = flag.Int("n", 1, "number of frames to acquire")
	exposure = flag.Duration("exposure", 10*time.Millisecond, "exposure time")
	gain     = flag.Float64("gain", 0, "analog gain, dB")
	format   = flag.String("fmt", "png", "output format, one of jpg|png|fits|raw")
	serial   = flag.String("serial", "", "camera serial number, default the first camera")
)

func save(path string, info camera.Info, f *camera.Frame) error {
	fid, err := os.Create(path)
	if err != nil {
		return err
	}
	defer fid.Close()
	switch *format {
	case "jpg":
		img, err := f.Image()
		if err != nil {
			return err
		}
		return jpeg.Encode(fid, img, nil)
	case "png":
		img, err := f.Image()
		if err != nil {
			return err
		}
		return png.Encode(fid, img)
	case "fits":
		cards := []fitsio.Card{
			{Name: "CAMERA", Value: info.Model, Comment: "camera model"},
			{Name: "SERIAL", Value: info.Serial, Comment: "camera serial number"},
			{Name: "FRAMEID", Value: int(f.ID), Comment: "device frame counter"},
			{Name: "PIXFMT", Value: f.Format.String(), Comment: "pixel format"},
			{Name: "COMPLETE", Value: f.Complete(), Comment: "payload fully transferred"},
		}
		return httpcamera.WriteFits(fid, cards, []*camera.Frame{f})
	case "raw":
		_, err := fid.Write(f.Unpad())
		return err
	}
	return fmt.Errorf("snap: unknown format %q", *format)
}

func run() error {
	switch *format {
	case "jpg", "png", "fits", "raw":
	default:
		return fmt.Errorf("snap: unknown format %q", *format)
	}
	if *n < 1 {
		return fmt.Errorf("snap: -n must be at least 1, got %d", *n)
	}
	// probe before any camera state is touched, so a permissions
	// problem surfaces in seconds instead of after a long acquisition
	if err := util.EnsureWritable(*out); err != nil {
		return fmt.Errorf("snap: output directory is not writable: %w", err)
	}

	camera.Register(camera.SimProvider{Configs: []camera.SimConfig{{Serial: "SIM-0001"}}})
	sys, err := camera.NewSystem()
	if err != nil {
		return err
	}
	var c camera.Camera
	if *serial != "" {
		c, err = sys.OpenSerial(*serial)
	} else {
		c, err = sys.Open(0)
	}
	if err != nil {
		return err
	}
	if err := c.Init(); err != nil {
		return err
	}
	defer c.Close()

	nm := c.NodeMap()
	if err := nm.SetFloat("ExposureTime", float64(*exposure)/float64(time.Microsecond)); err != nil {
		return err
	}
	if err := nm.SetFloat("Gain", *gain); err != nil {
		return err
	}
	if err := nm.SetEnum("AcquisitionMode", "MultiFrame"); err != nil {
		return err
	}
	if err := nm.SetInt("AcquisitionFrameCount", int64(*n)); err != nil {
		return err
	}

	spin, err := yacspin.New(yacspin.Config{
		Frequency:         100 * time.Millisecond,
		CharSet:           yacspin.CharSets[11],
		Suffix:            " acquiring",
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
	timeout := *exposure + 5*time.Second
	info := c.Info()
	incomplete := 0
	for i := 0; i < *n; i++ {
		spin.Message(fmt.Sprintf("frame %d of %d", i+1, *n))
		f, err := c.NextFrame(timeout)
		if err != nil {
			spin.StopFail()
			c.EndAcquisition()
			return fmt.Errorf("snap: frame %d of %d: %w", i+1, *n, err)
		}
		if !f.Complete() {
			incomplete++
		}
		name := filepath.Join(*out, fmt.Sprintf("snap%06d.%s", i, *format))
		err = save(name, info, f)
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
	spin.Stop()
	fmt.Printf("%d frames written to %s\n", *n, *out)
	if incomplete > 0 {
		fmt.Printf("warning: %d of %d frames were incomplete\n", incomplete, *n)
	}
	return nil
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
