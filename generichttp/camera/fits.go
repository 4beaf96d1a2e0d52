package camera

import (
	"errors"
	"io"

	"github.com/astrogo/fitsio"

	cam "github.com/candelalabs/gencam/camera"
)

// WriteFits streams the frames to w as a 16-bit FITS image, a plane for
// one frame or a cube for several.  Pixel data is written with the
// unsigned convention, BZERO 32768.
func WriteFits(w io.Writer, metadata []fitsio.Card, frames []*cam.Frame) error {
	if len(frames) == 0 {
		return errors.New("camera: no frames to write")
	}
	metadata = append(metadata,
		fitsio.Card{Name: "BZERO", Value: 32768},
		fitsio.Card{Name: "BSCALE", Value: 1.0})
	nframes := len(frames)
	width, height := frames[0].Width, frames[0].Height
	fits, err := fitsio.Create(w)
	if err != nil {
		return err
	}
	defer fits.Close()
	dims := []int{width, height}
	if nframes > 1 {
		dims = append(dims, nframes)
	}
	im := fitsio.NewImage(16, dims)
	defer im.Close()
	err = im.Header().Append(metadata...)
	if err != nil {
		return err
	}

	ints := make([]int16, width*height*nframes)
	offset := 0
	for _, f := range frames {
		if f.Width != width || f.Height != height {
			return errors.New("camera: frames in a cube must share geometry")
		}
		uints, err := f.Mono16()
		if err != nil {
			return err
		}
		for idx, v := range uints {
			ints[offset+idx] = int16(v - 32768)
		}
		offset += len(uints)
	}
	err = im.Write(ints)
	if err != nil {
		return err
	}
	return fits.Write(im)
}
