// multicam runs the same fixed count acquisition on every camera at
// once, one worker per camera, each recording to its own AVI file.
// The exit code is nonzero if any worker failed.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/candelalabs/gencam/avi"
	"github.com/candelalabs/gencam/camera"
	"github.com/candelalabs/gencam/util"
)

var (
	cams = flag.Int("cams", 3, "number of simulated cameras")
	n    = flag.Int("n", 50, "frames per camera")
	fps  = flag.Float64("fps", 30, "acquisition frame rate in Hz")
	out  = flag.String("out", ".", "output directory")
)

// record runs the fixed count loop for one camera.
func record(c camera.Camera, path string) error {
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

	fid, err := os.Create(path)
	if err != nil {
		return err
	}
	defer fid.Close()
	wr, err := avi.NewWriter(fid, avi.Options{
		Width:  int(width),
		Height: int(height),
		FPS:    *fps,
	})
	if err != nil {
		return err
	}

	if err := c.BeginAcquisition(); err != nil {
		return err
	}
	timeout := time.Duration(float64(time.Second) / *fps) + 5*time.Second
	for i := 0; i < *n; i++ {
		f, err := c.NextFrame(timeout)
		if err != nil {
			c.EndAcquisition()
			return fmt.Errorf("frame %d of %d: %w", i+1, *n, err)
		}
		err = wr.AppendFrame(f)
		f.Release()
		if err != nil {
			c.EndAcquisition()
			return err
		}
	}
	if err := c.EndAcquisition(); err != nil {
		return err
	}
	return wr.Close()
}

func run() error {
	if *cams < 1 {
		return fmt.Errorf("multicam: cams must be a positive integer, got %d", *cams)
	}
	if *n < 1 {
		return fmt.Errorf("multicam: n must be a positive integer, got %d", *n)
	}
	if err := util.EnsureWritable(*out); err != nil {
		return fmt.Errorf("multicam: output directory is not writable: %w", err)
	}

	cfgs := make([]camera.SimConfig, *cams)
	for i := range cfgs {
		cfgs[i] = camera.SimConfig{Serial: fmt.Sprintf("CAM-%04d", i+1)}
	}
	camera.Register(camera.SimProvider{Configs: cfgs})
	sys, err := camera.NewSystem()
	if err != nil {
		return err
	}
	fmt.Printf("%d cameras\n", sys.Len())

	var (
		wg     sync.WaitGroup
		failed uint32
	)
	for i := 0; i < sys.Len(); i++ {
		c, err := sys.Open(i)
		if err != nil {
			return err
		}
		serial := c.Info().Serial
		path := filepath.Join(*out, serial+".avi")
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := record(c, path); err != nil {
				atomic.StoreUint32(&failed, 1)
				log.Printf("%s: %v", serial, err)
				return
			}
			log.Printf("%s: %d frames to %s", serial, *n, path)
		}()
	}
	wg.Wait()
	if atomic.LoadUint32(&failed) != 0 {
		return fmt.Errorf("multicam: at least one camera failed")
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
