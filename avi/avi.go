/*Package avi writes AVI 1.0 video files from camera frames.

The muxer supports three stream flavors selected by four character
code: "DIB " stores uncompressed bottom-up 8 bit grayscale with a
palette, "MJPG" JPEG encodes each frame, and any other code is a
passthrough container for externally encoded payloads (H264 from a
hardware encoder rides this path).  Frames from deeper pixel formats
are converted down to 8 bits for the DIB path.

	f, _ := os.Create("out.avi")
	w, err := avi.NewWriter(f, avi.Options{Width: 640, Height: 480, FPS: 30, FourCC: avi.FourCCMJPG})
	// handle err
	for _, frame := range frames {
		err = w.AppendFrame(frame)
		// handle err
	}
	err = w.Close()

AVI 1.0 caps files at 1GB.  Appends that would cross the cap fail with
ErrTooLarge and leave the file valid for Close.
*/
package avi

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image/jpeg"
	"io"

	"github.com/candelalabs/gencam/camera"
)

// ErrTooLarge is returned by an append that would push the file past
// the AVI 1.0 size cap.
var ErrTooLarge = errors.New("avi: file would exceed the 1GB AVI 1.0 limit")

// FourCC values with first class support.  Any other four character
// value may be used with AppendEncoded.
const (
	FourCCDIB  = "DIB "
	FourCCMJPG = "MJPG"
)

const (
	maxFileSize     = 1 << 30
	avifHasIndex    = 0x00000010
	avifTrustCkType = 0x00000800
	aviifKeyframe   = 0x00000010
)

// Options configures a Writer.
type Options struct {
	// Width and Height are the frame geometry in pixels
	Width, Height int

	// FPS is the playback rate
	FPS float64

	// FourCC selects the stream flavor, FourCCDIB when empty
	FourCC string

	// Quality is the JPEG quality for MJPG, 1 to 100, 90 when zero
	Quality int
}

type idxEntry struct {
	id   string
	off  uint32
	size uint32
}

// Writer is an AVI muxer over an io.WriteSeeker.  It does not own the
// underlying file; callers close that themselves after Close.
type Writer struct {
	w    io.WriteSeeker
	opts Options

	offset    int64
	moviStart int64
	frames    uint32
	maxChunk  uint32
	idx       []idxEntry
	closed    bool

	patchRIFFSize    int64
	patchTotalFrames int64
	patchAvihBuf     int64
	patchLength      int64
	patchStrhBuf     int64

	scratch [8]byte
}

// dibStride is the DIB row length, padded to 4 bytes.
func dibStride(width int) int {
	return (width + 3) &^ 3
}

// NewWriter writes the AVI headers to w and returns a muxer ready for
// appends.
func NewWriter(w io.WriteSeeker, opts Options) (*Writer, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("avi: invalid geometry %dx%d", opts.Width, opts.Height)
	}
	if opts.FPS <= 0 {
		return nil, fmt.Errorf("avi: invalid frame rate %g", opts.FPS)
	}
	if opts.FourCC == "" {
		opts.FourCC = FourCCDIB
	}
	if len(opts.FourCC) != 4 {
		return nil, fmt.Errorf("avi: fourcc %q is not four characters", opts.FourCC)
	}
	if opts.Quality == 0 {
		opts.Quality = 90
	}
	if opts.Quality < 1 || opts.Quality > 100 {
		return nil, fmt.Errorf("avi: quality %d outside 1..100", opts.Quality)
	}
	wr := &Writer{w: w, opts: opts}
	if err := wr.writeHeader(); err != nil {
		return nil, err
	}
	return wr, nil
}

func (wr *Writer) writeHeader() error {
	o := wr.opts
	dib := o.FourCC == FourCCDIB

	bitCount := 24
	sizeImage := 0
	if dib {
		bitCount = 8
		sizeImage = dibStride(o.Width) * o.Height
	}

	b := &bytes.Buffer{}
	u16 := func(v int) {
		binary.LittleEndian.PutUint16(wr.scratch[:2], uint16(v))
		b.Write(wr.scratch[:2])
	}
	u32 := func(v uint32) {
		binary.LittleEndian.PutUint32(wr.scratch[:4], v)
		b.Write(wr.scratch[:4])
	}
	mark := func(p *int64) {
		*p = int64(b.Len())
		u32(0)
	}

	strfSize := 40
	if dib {
		strfSize += 4 * 256 // grayscale palette
	}
	strlSize := 4 + 8 + 56 + 8 + strfSize
	hdrlSize := 4 + 8 + 56 + 8 + strlSize

	b.WriteString("RIFF")
	mark(&wr.patchRIFFSize)
	b.WriteString("AVI ")

	b.WriteString("LIST")
	u32(uint32(hdrlSize))
	b.WriteString("hdrl")

	// avih, the main header
	b.WriteString("avih")
	u32(56)
	u32(uint32(1e6/o.FPS + 0.5)) // microseconds per frame
	u32(uint32(float64(sizeImage) * o.FPS))
	u32(0) // padding granularity
	u32(avifHasIndex | avifTrustCkType)
	mark(&wr.patchTotalFrames)
	u32(0) // initial frames
	u32(1) // streams
	mark(&wr.patchAvihBuf)
	u32(uint32(o.Width))
	u32(uint32(o.Height))
	u32(0)
	u32(0)
	u32(0)
	u32(0)

	b.WriteString("LIST")
	u32(uint32(strlSize))
	b.WriteString("strl")

	// strh, the video stream header
	b.WriteString("strh")
	u32(56)
	b.WriteString("vids")
	b.WriteString(o.FourCC)
	u32(0) // flags
	u16(0) // priority
	u16(0) // language
	u32(0) // initial frames
	u32(1000)
	u32(uint32(o.FPS*1000 + 0.5)) // rate/scale is the frame rate
	u32(0)                        // start
	mark(&wr.patchLength)
	mark(&wr.patchStrhBuf)
	u32(0xFFFFFFFF) // quality, driver default
	u32(0)          // sample size, zero for video
	u16(0)
	u16(0)
	u16(o.Width)
	u16(o.Height)

	// strf, a BITMAPINFOHEADER
	b.WriteString("strf")
	u32(uint32(strfSize))
	u32(40)
	u32(uint32(o.Width))
	u32(uint32(o.Height)) // positive height is bottom-up
	u16(1)                // planes
	u16(bitCount)
	if dib {
		u32(0) // BI_RGB
	} else {
		b.WriteString(o.FourCC)
	}
	u32(uint32(sizeImage))
	u32(0) // x pixels per meter
	u32(0) // y pixels per meter
	if dib {
		u32(256)
	} else {
		u32(0)
	}
	u32(0) // important colors
	if dib {
		for i := 0; i < 256; i++ {
			b.Write([]byte{byte(i), byte(i), byte(i), 0})
		}
	}

	wr.moviStart = int64(b.Len())
	b.WriteString("LIST")
	u32(0) // patched at Close
	b.WriteString("movi")

	n, err := wr.w.Write(b.Bytes())
	wr.offset = int64(n)
	return err
}

// writeChunk appends one movi chunk, maintaining the index and the
// size cap.
func (wr *Writer) writeChunk(id string, data []byte) error {
	if wr.closed {
		return errors.New("avi: writer is closed")
	}
	pad := int64(len(data)) & 1
	chunkLen := 8 + int64(len(data)) + pad
	idxLen := 8 + 16*int64(len(wr.idx)+1)
	if wr.offset+chunkLen+idxLen > maxFileSize {
		return ErrTooLarge
	}
	wr.idx = append(wr.idx, idxEntry{
		id:   id,
		off:  uint32(wr.offset - (wr.moviStart + 8)),
		size: uint32(len(data)),
	})
	b := &bytes.Buffer{}
	b.WriteString(id)
	binary.LittleEndian.PutUint32(wr.scratch[:4], uint32(len(data)))
	b.Write(wr.scratch[:4])
	b.Write(data)
	if pad == 1 {
		b.WriteByte(0)
	}
	n, err := wr.w.Write(b.Bytes())
	wr.offset += int64(n)
	if err != nil {
		return err
	}
	wr.frames++
	if uint32(len(data)) > wr.maxChunk {
		wr.maxChunk = uint32(len(data))
	}
	return nil
}

// AppendFrame encodes and appends one frame.  The frame geometry must
// match the writer's.  For passthrough streams use AppendEncoded.
func (wr *Writer) AppendFrame(f *camera.Frame) error {
	if f.Width != wr.opts.Width || f.Height != wr.opts.Height {
		return fmt.Errorf("avi: frame is %dx%d, stream is %dx%d",
			f.Width, f.Height, wr.opts.Width, wr.opts.Height)
	}
	switch wr.opts.FourCC {
	case FourCCDIB:
		return wr.appendDIB(f)
	case FourCCMJPG:
		return wr.appendMJPG(f)
	}
	return fmt.Errorf("avi: AppendFrame on a %q stream, use AppendEncoded", wr.opts.FourCC)
}

func (wr *Writer) appendDIB(f *camera.Frame) error {
	if f.Format != camera.Mono8 {
		conv, err := f.ConvertTo(camera.Mono8)
		if err != nil {
			return err
		}
		f = conv
	}
	px := f.Unpad()
	stride := dibStride(f.Width)
	dib := make([]byte, stride*f.Height)
	for y := 0; y < f.Height; y++ {
		src := px[y*f.Width : (y+1)*f.Width]
		dst := dib[(f.Height-1-y)*stride:]
		copy(dst, src)
	}
	return wr.writeChunk("00db", dib)
}

func (wr *Writer) appendMJPG(f *camera.Frame) error {
	img, err := f.Image()
	if err != nil {
		return err
	}
	b := &bytes.Buffer{}
	if err := jpeg.Encode(b, img, &jpeg.Options{Quality: wr.opts.Quality}); err != nil {
		return err
	}
	return wr.writeChunk("00dc", b.Bytes())
}

// AppendEncoded appends one externally encoded frame payload without
// touching the bytes.
func (wr *Writer) AppendEncoded(data []byte) error {
	return wr.writeChunk("00dc", data)
}

// Frames returns the number of frames appended so far.
func (wr *Writer) Frames() int {
	return int(wr.frames)
}

// Size returns the current file size in bytes, excluding the index
// written at Close.
func (wr *Writer) Size() int64 {
	return wr.offset
}

// Close writes the idx1 index and patches the header sizes and frame
// counts.  The underlying WriteSeeker is not closed.
func (wr *Writer) Close() error {
	if wr.closed {
		return nil
	}
	wr.closed = true

	b := &bytes.Buffer{}
	u32 := func(v uint32) {
		binary.LittleEndian.PutUint32(wr.scratch[:4], v)
		b.Write(wr.scratch[:4])
	}
	b.WriteString("idx1")
	u32(uint32(16 * len(wr.idx)))
	for _, e := range wr.idx {
		b.WriteString(e.id)
		u32(aviifKeyframe)
		u32(e.off)
		u32(e.size)
	}
	moviEnd := wr.offset
	n, err := wr.w.Write(b.Bytes())
	wr.offset += int64(n)
	if err != nil {
		return err
	}

	patches := []struct {
		at int64
		v  uint32
	}{
		{wr.patchRIFFSize, uint32(wr.offset - 8)},
		{wr.patchTotalFrames, wr.frames},
		{wr.patchAvihBuf, wr.maxChunk},
		{wr.patchLength, wr.frames},
		{wr.patchStrhBuf, wr.maxChunk},
		{wr.moviStart + 4, uint32(moviEnd - (wr.moviStart + 8))},
	}
	for _, p := range patches {
		if _, err := wr.w.Seek(p.at, io.SeekStart); err != nil {
			return err
		}
		binary.LittleEndian.PutUint32(wr.scratch[:4], p.v)
		if _, err := wr.w.Write(wr.scratch[:4]); err != nil {
			return err
		}
	}
	_, err = wr.w.Seek(wr.offset, io.SeekStart)
	return err
}
