package camera

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/snksoft/crc"
)

// ChunkData is the per-frame metadata a camera appends to the payload
// when chunk mode is enabled.  Entries the camera has disabled through
// ChunkSelector/ChunkEnable are omitted from the wire trailer and read
// back zero-valued.
type ChunkData struct {
	// ExposureTime is the integration time of this frame in microseconds
	ExposureTime float64 `json:"exposureTime" yaml:"exposureTime"`

	// Gain is the analog gain of this frame in dB
	Gain float64 `json:"gain" yaml:"gain"`

	// BlackLevel is the analog offset in DN
	BlackLevel float64 `json:"blackLevel" yaml:"blackLevel"`

	// FrameID is the device frame counter
	FrameID uint64 `json:"frameID" yaml:"frameID"`

	// Timestamp is the device tick count at exposure end, nanoseconds
	Timestamp uint64 `json:"timestamp" yaml:"timestamp"`

	// Width and Height are the region of interest this frame was read with
	Width  uint32 `json:"width" yaml:"width"`
	Height uint32 `json:"height" yaml:"height"`

	// OffsetX and OffsetY locate the region of interest on the sensor
	OffsetX uint32 `json:"offsetX" yaml:"offsetX"`
	OffsetY uint32 `json:"offsetY" yaml:"offsetY"`

	// PixelFormat is the pixel encoding this frame was read with
	PixelFormat PixelFormat `json:"pixelFormat" yaml:"pixelFormat"`
}

// ChunkMask selects which entries a camera writes into the trailer,
// one bit per ChunkData field.
type ChunkMask uint16

const (
	ChunkExposureTime ChunkMask = 1 << iota
	ChunkGain
	ChunkBlackLevel
	ChunkFrameID
	ChunkTimestamp
	ChunkWidth
	ChunkHeight
	ChunkOffsetX
	ChunkOffsetY
	ChunkPixelFormat

	// ChunkAll enables every entry
	ChunkAll ChunkMask = 1<<10 - 1
)

// chunkEntryNames are the ChunkSelector entries, in mask bit order.
var chunkEntryNames = []string{
	"ExposureTime", "Gain", "BlackLevel", "FrameID", "Timestamp",
	"Width", "Height", "OffsetX", "OffsetY", "PixelFormat",
}

// chunkMaskByName maps a ChunkSelector entry to its mask bit.
var chunkMaskByName = func() map[string]ChunkMask {
	m := make(map[string]ChunkMask, len(chunkEntryNames))
	for i, name := range chunkEntryNames {
		m[name] = 1 << uint(i)
	}
	return m
}()

// chunk trailer layout, appended after the pixel payload:
//
//	entry*  tag uint16 | length uint16 | value, big endian
//	footer  magic uint16 | entry count uint16 | crc16 uint16 | trailer length uint32
//
// the crc is CCITT/XMODEM over the entry region and the trailer length
// counts every byte after the payload, footer included.
const (
	chunkMagic  = 0x4348 // "CH"
	chunkFooter = 10

	tagExposureTime = 0x0001
	tagGain         = 0x0002
	tagBlackLevel   = 0x0003
	tagFrameID      = 0x0004
	tagTimestamp    = 0x0005
	tagWidth        = 0x0006
	tagHeight       = 0x0007
	tagOffsetX      = 0x0008
	tagOffsetY      = 0x0009
	tagPixelFormat  = 0x000A
)

var crcTable = crc.NewTable(crc.XMODEM)

// ErrNoChunk is returned by ParseChunk when the buffer does not end in
// a chunk trailer.
var ErrNoChunk = errors.New("camera: payload has no chunk trailer")

// ErrChunkCRC is returned by ParseChunk when the trailer fails its
// integrity check.
var ErrChunkCRC = errors.New("camera: chunk trailer crc mismatch")

func appendEntryU64(b []byte, tag uint16, v uint64) []byte {
	var s [12]byte
	binary.BigEndian.PutUint16(s[0:2], tag)
	binary.BigEndian.PutUint16(s[2:4], 8)
	binary.BigEndian.PutUint64(s[4:12], v)
	return append(b, s[:]...)
}

func appendEntryU32(b []byte, tag uint16, v uint32) []byte {
	var s [8]byte
	binary.BigEndian.PutUint16(s[0:2], tag)
	binary.BigEndian.PutUint16(s[2:4], 4)
	binary.BigEndian.PutUint32(s[4:8], v)
	return append(b, s[:]...)
}

func appendEntryF64(b []byte, tag uint16, v float64) []byte {
	return appendEntryU64(b, tag, math.Float64bits(v))
}

// AppendChunk appends the wire encoding of c to payload and returns the
// extended buffer.  mask selects the entries to write; pass ChunkAll
// for all of them.
func AppendChunk(payload []byte, c ChunkData, mask ChunkMask) []byte {
	start := len(payload)
	b := payload
	count := uint16(0)
	f64 := func(bit ChunkMask, tag uint16, v float64) {
		if mask&bit != 0 {
			b = appendEntryF64(b, tag, v)
			count++
		}
	}
	u64 := func(bit ChunkMask, tag uint16, v uint64) {
		if mask&bit != 0 {
			b = appendEntryU64(b, tag, v)
			count++
		}
	}
	u32 := func(bit ChunkMask, tag uint16, v uint32) {
		if mask&bit != 0 {
			b = appendEntryU32(b, tag, v)
			count++
		}
	}
	f64(ChunkExposureTime, tagExposureTime, c.ExposureTime)
	f64(ChunkGain, tagGain, c.Gain)
	f64(ChunkBlackLevel, tagBlackLevel, c.BlackLevel)
	u64(ChunkFrameID, tagFrameID, c.FrameID)
	u64(ChunkTimestamp, tagTimestamp, c.Timestamp)
	u32(ChunkWidth, tagWidth, c.Width)
	u32(ChunkHeight, tagHeight, c.Height)
	u32(ChunkOffsetX, tagOffsetX, c.OffsetX)
	u32(ChunkOffsetY, tagOffsetY, c.OffsetY)
	u32(ChunkPixelFormat, tagPixelFormat, uint32(c.PixelFormat))
	sum := uint16(crcTable.CalculateCRC(b[start:]))
	trailerLen := uint32(len(b) - start + chunkFooter)
	var foot [chunkFooter]byte
	binary.BigEndian.PutUint16(foot[0:2], chunkMagic)
	binary.BigEndian.PutUint16(foot[2:4], count)
	binary.BigEndian.PutUint16(foot[4:6], sum)
	binary.BigEndian.PutUint32(foot[6:10], trailerLen)
	return append(b, foot[:]...)
}

// chunkValueLen is the required value length for a known tag, 0 for
// tags this package does not define.
func chunkValueLen(tag uint16) int {
	switch tag {
	case tagExposureTime, tagGain, tagBlackLevel, tagFrameID, tagTimestamp:
		return 8
	case tagWidth, tagHeight, tagOffsetX, tagOffsetY, tagPixelFormat:
		return 4
	}
	return 0
}

// ParseChunk splits buf into the pixel payload and the decoded chunk
// trailer.  Unknown tags are skipped so newer devices stay readable; a
// known tag whose declared length disagrees with its value width is a
// decode error.  Entries absent from the trailer leave their ChunkData
// field zero.
func ParseChunk(buf []byte) ([]byte, *ChunkData, error) {
	n := len(buf)
	if n < chunkFooter {
		return nil, nil, ErrNoChunk
	}
	trailerLen := int(binary.BigEndian.Uint32(buf[n-4:]))
	sum := binary.BigEndian.Uint16(buf[n-6 : n-4])
	count := int(binary.BigEndian.Uint16(buf[n-8 : n-6]))
	magic := binary.BigEndian.Uint16(buf[n-10 : n-8])
	if magic != chunkMagic || trailerLen < chunkFooter || trailerLen > n {
		return nil, nil, ErrNoChunk
	}
	entries := buf[n-trailerLen : n-chunkFooter]
	if uint16(crcTable.CalculateCRC(entries)) != sum {
		return nil, nil, ErrChunkCRC
	}
	c := &ChunkData{}
	for i := 0; i < count; i++ {
		if len(entries) < 4 {
			return nil, nil, fmt.Errorf("camera: chunk trailer truncated at entry %d", i)
		}
		tag := binary.BigEndian.Uint16(entries[0:2])
		ln := int(binary.BigEndian.Uint16(entries[2:4]))
		entries = entries[4:]
		if len(entries) < ln {
			return nil, nil, fmt.Errorf("camera: chunk entry %#04x claims %d bytes, %d remain", tag, ln, len(entries))
		}
		if want := chunkValueLen(tag); want != 0 && ln != want {
			return nil, nil, fmt.Errorf("camera: chunk entry %#04x has a %d byte value, want %d", tag, ln, want)
		}
		val := entries[:ln]
		entries = entries[ln:]
		switch tag {
		case tagExposureTime:
			c.ExposureTime = math.Float64frombits(binary.BigEndian.Uint64(val))
		case tagGain:
			c.Gain = math.Float64frombits(binary.BigEndian.Uint64(val))
		case tagBlackLevel:
			c.BlackLevel = math.Float64frombits(binary.BigEndian.Uint64(val))
		case tagFrameID:
			c.FrameID = binary.BigEndian.Uint64(val)
		case tagTimestamp:
			c.Timestamp = binary.BigEndian.Uint64(val)
		case tagWidth:
			c.Width = binary.BigEndian.Uint32(val)
		case tagHeight:
			c.Height = binary.BigEndian.Uint32(val)
		case tagOffsetX:
			c.OffsetX = binary.BigEndian.Uint32(val)
		case tagOffsetY:
			c.OffsetY = binary.BigEndian.Uint32(val)
		case tagPixelFormat:
			c.PixelFormat = PixelFormat(binary.BigEndian.Uint32(val))
		}
	}
	return buf[:n-trailerLen], c, nil
}
