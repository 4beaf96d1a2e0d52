package camera

import (
	"fmt"
	"image"
	"time"
)

// PixelFormat is the wire encoding of pixel data in a frame.
type PixelFormat int

const (
	// Mono8 is one byte per pixel
	Mono8 PixelFormat = iota

	// Mono12Packed is two pixels in three bytes, GigE Vision packing:
	// byte 0 holds pixel 0 bits 11..4, byte 1 holds pixel 1 bits 3..0
	// in its high nibble and pixel 0 bits 3..0 in its low nibble,
	// byte 2 holds pixel 1 bits 11..4
	Mono12Packed

	// Mono16 is two bytes per pixel, little endian
	Mono16
)

var pixelFormatNames = map[PixelFormat]string{
	Mono8:        "Mono8",
	Mono12Packed: "Mono12Packed",
	Mono16:       "Mono16",
}

func (p PixelFormat) String() string {
	if s, ok := pixelFormatNames[p]; ok {
		return s
	}
	return fmt.Sprintf("PixelFormat(%d)", int(p))
}

// ParsePixelFormat converts a format name to a PixelFormat.
func ParsePixelFormat(s string) (PixelFormat, error) {
	for p, name := range pixelFormatNames {
		if name == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("camera: unknown pixel format %q", s)
}

// BitsPerPixel returns the bit depth of one pixel.
func (p PixelFormat) BitsPerPixel() int {
	switch p {
	case Mono8:
		return 8
	case Mono12Packed:
		return 12
	case Mono16:
		return 16
	}
	return 0
}

// RowBytes returns the payload size of one unpadded row of width pixels.
// Mono12Packed rows require an even width.
func (p PixelFormat) RowBytes(width int) int {
	switch p {
	case Mono8:
		return width
	case Mono12Packed:
		return width * 3 / 2
	case Mono16:
		return width * 2
	}
	return 0
}

// Status describes the integrity of a delivered frame.
type Status int

const (
	// StatusComplete means every payload byte arrived
	StatusComplete Status = iota

	// StatusIncomplete means part of the payload was lost in transfer;
	// the missing region reads as zero
	StatusIncomplete
)

func (s Status) String() string {
	switch s {
	case StatusComplete:
		return "Complete"
	case StatusIncomplete:
		return "Incomplete"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Frame is one image delivered by a camera.  Data belongs to the
// camera's buffer ring; callers that need it past Release must copy.
type Frame struct {
	// ID is the device frame counter, monotonic from acquisition start
	ID uint64

	// Width and Height are the region of interest in pixels
	Width, Height int

	// Stride is the byte length of one row in Data, >= RowBytes(Width)
	Stride int

	// Format is the pixel encoding of Data
	Format PixelFormat

	// Status reports transfer integrity
	Status Status

	// Timestamp is the device capture time
	Timestamp time.Time

	// Data is Height rows of Stride bytes
	Data []byte

	// Chunk holds per-frame metadata when chunk mode is enabled, else nil
	Chunk *ChunkData

	release func(*Frame)
}

// Complete is true when the full payload arrived.
func (f *Frame) Complete() bool { return f.Status == StatusComplete }

// Release returns the frame's buffer to its owner.  The frame and its
// Data must not be used afterward.  Release on a released or copied
// frame is a no-op.
func (f *Frame) Release() {
	if f.release != nil {
		r := f.release
		f.release = nil
		r(f)
	}
}

// Unpad returns the payload with row padding removed.  When the stride
// already equals the row size the original buffer is returned without
// copying.
func (f *Frame) Unpad() []byte {
	row := f.Format.RowBytes(f.Width)
	if f.Stride == row {
		return f.Data[:row*f.Height]
	}
	out := make([]byte, row*f.Height)
	for y := 0; y < f.Height; y++ {
		copy(out[y*row:(y+1)*row], f.Data[y*f.Stride:y*f.Stride+row])
	}
	return out
}

// Mono16 decodes the payload to one uint16 per pixel.  Mono8 widens,
// Mono12Packed unpacks, Mono16 copies.
func (f *Frame) Mono16() ([]uint16, error) {
	out := make([]uint16, f.Width*f.Height)
	switch f.Format {
	case Mono8:
		for y := 0; y < f.Height; y++ {
			row := f.Data[y*f.Stride:]
			for x := 0; x < f.Width; x++ {
				out[y*f.Width+x] = uint16(row[x])
			}
		}
	case Mono12Packed:
		if f.Width%2 != 0 {
			return nil, fmt.Errorf("camera: Mono12Packed requires even width, got %d", f.Width)
		}
		for y := 0; y < f.Height; y++ {
			row := f.Data[y*f.Stride:]
			o := y * f.Width
			for x := 0; x < f.Width; x += 2 {
				b0 := row[x/2*3]
				b1 := row[x/2*3+1]
				b2 := row[x/2*3+2]
				out[o+x] = uint16(b0)<<4 | uint16(b1&0x0F)
				out[o+x+1] = uint16(b2)<<4 | uint16(b1>>4)
			}
		}
	case Mono16:
		for y := 0; y < f.Height; y++ {
			row := f.Data[y*f.Stride:]
			for x := 0; x < f.Width; x++ {
				out[y*f.Width+x] = uint16(row[2*x]) | uint16(row[2*x+1])<<8
			}
		}
	default:
		return nil, fmt.Errorf("camera: cannot decode %s", f.Format)
	}
	return out, nil
}

// Image converts the frame to an image.Image; *image.Gray for Mono8,
// *image.Gray16 otherwise.  The result owns its pixels and survives
// Release.
func (f *Frame) Image() (image.Image, error) {
	if f.Format == Mono8 {
		im := image.NewGray(image.Rect(0, 0, f.Width, f.Height))
		for y := 0; y < f.Height; y++ {
			copy(im.Pix[y*im.Stride:], f.Data[y*f.Stride:y*f.Stride+f.Width])
		}
		return im, nil
	}
	px, err := f.Mono16()
	if err != nil {
		return nil, err
	}
	shift := uint(16 - f.Format.BitsPerPixel())
	im := image.NewGray16(image.Rect(0, 0, f.Width, f.Height))
	for i, v := range px {
		v <<= shift // scale to full range
		im.Pix[2*i] = byte(v >> 8)
		im.Pix[2*i+1] = byte(v)
	}
	return im, nil
}

// ConvertTo re-encodes the frame in another pixel format.  The result
// is a standalone frame with no stride padding and no release hook;
// chunk data and identity carry over.  Down conversions drop the low
// bits.
func (f *Frame) ConvertTo(format PixelFormat) (*Frame, error) {
	px, err := f.Mono16()
	if err != nil {
		return nil, err
	}
	inBits := f.Format.BitsPerPixel()
	out := &Frame{
		ID:        f.ID,
		Width:     f.Width,
		Height:    f.Height,
		Stride:    format.RowBytes(f.Width),
		Format:    format,
		Status:    f.Status,
		Timestamp: f.Timestamp,
		Chunk:     f.Chunk,
	}
	switch format {
	case Mono8:
		out.Data = make([]byte, f.Width*f.Height)
		shift := uint(inBits - 8)
		for i, v := range px {
			out.Data[i] = byte(v >> shift)
		}
	case Mono12Packed:
		if f.Width%2 != 0 {
			return nil, fmt.Errorf("camera: Mono12Packed requires even width, got %d", f.Width)
		}
		out.Data = make([]byte, out.Stride*f.Height)
		var to12 func(v uint16) uint16
		switch {
		case inBits > 12:
			to12 = func(v uint16) uint16 { return v >> uint(inBits-12) }
		case inBits < 12:
			to12 = func(v uint16) uint16 { return v << uint(12-inBits) }
		default:
			to12 = func(v uint16) uint16 { return v }
		}
		for i := 0; i < len(px); i += 2 {
			p0 := to12(px[i])
			p1 := to12(px[i+1])
			out.Data[i/2*3] = byte(p0 >> 4)
			out.Data[i/2*3+1] = byte(p1&0x0F)<<4 | byte(p0&0x0F)
			out.Data[i/2*3+2] = byte(p1 >> 4)
		}
	case Mono16:
		out.Data = make([]byte, 2*f.Width*f.Height)
		shift := uint(16 - inBits)
		for i, v := range px {
			v <<= shift
			out.Data[2*i] = byte(v)
			out.Data[2*i+1] = byte(v >> 8)
		}
	default:
		return nil, fmt.Errorf("camera: cannot convert to %s", format)
	}
	return out, nil
}

// Copy returns a standalone deep copy of the frame that survives
// Release of the original.
func (f *Frame) Copy() *Frame {
	out := *f
	out.Data = make([]byte, len(f.Data))
	copy(out.Data, f.Data)
	out.release = nil
	if f.Chunk != nil {
		c := *f.Chunk
		out.Chunk = &c
	}
	return &out
}
