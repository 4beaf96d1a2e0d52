package camera_test

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/candelalabs/gencam/camera"
)

func TestChunkRoundTrip(t *testing.T) {
	payload := []byte{1, 2, 3, 4, 5}
	c := camera.ChunkData{
		ExposureTime: 2500.5,
		Gain:         6.02,
		BlackLevel:   1.5,
		FrameID:      42,
		Timestamp:    1234567890,
		Width:        640,
		Height:       480,
		OffsetX:      16,
		OffsetY:      8,
		PixelFormat:  camera.Mono16,
	}
	buf := camera.AppendChunk(payload, c, camera.ChunkAll)
	if len(buf) <= len(payload) {
		t.Fatal("expected AppendChunk to grow the buffer")
	}
	gotPayload, got, err := camera.ParseChunk(buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(gotPayload) != len(payload) {
		t.Fatalf("expected %d payload bytes, got %d", len(payload), len(gotPayload))
	}
	for i := range payload {
		if gotPayload[i] != payload[i] {
			t.Errorf("payload byte %d mismatch, expected %d got %d", i, payload[i], gotPayload[i])
		}
	}
	if *got != c {
		t.Errorf("expected %+v, got %+v", c, *got)
	}
}

func TestChunkMaskOmitsEntries(t *testing.T) {
	c := camera.ChunkData{
		ExposureTime: 1000,
		Gain:         12,
		FrameID:      7,
		Width:        320,
	}
	buf := camera.AppendChunk(nil, c, camera.ChunkFrameID|camera.ChunkWidth)
	_, got, err := camera.ParseChunk(buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.FrameID != 7 || got.Width != 320 {
		t.Errorf("expected enabled entries to survive, got %+v", got)
	}
	if got.ExposureTime != 0 || got.Gain != 0 {
		t.Errorf("expected disabled entries to parse zero-valued, got %+v", got)
	}
	// a wider mask writes a longer trailer
	full := camera.AppendChunk(nil, c, camera.ChunkAll)
	if len(full) <= len(buf) {
		t.Errorf("expected a full trailer (%d bytes) to outsize a masked one (%d bytes)", len(full), len(buf))
	}
}

func TestChunkMissingTrailer(t *testing.T) {
	_, _, err := camera.ParseChunk([]byte{1, 2, 3})
	if !errors.Is(err, camera.ErrNoChunk) {
		t.Errorf("expected ErrNoChunk, got %v", err)
	}
	// plausible length but no magic
	_, _, err = camera.ParseChunk(make([]byte, 64))
	if !errors.Is(err, camera.ErrNoChunk) {
		t.Errorf("expected ErrNoChunk, got %v", err)
	}
}

func TestChunkCRCDetectsCorruption(t *testing.T) {
	buf := camera.AppendChunk([]byte{9, 9}, camera.ChunkData{FrameID: 1}, camera.ChunkAll)
	// flip a bit in the first entry's value
	buf[len(buf)-20] ^= 0x01
	_, _, err := camera.ParseChunk(buf)
	if !errors.Is(err, camera.ErrChunkCRC) {
		t.Errorf("expected ErrChunkCRC, got %v", err)
	}
}

// TestChunkSkipsUnknownTags builds a trailer by hand with a tag this
// package does not define, per the documented wire layout.
func TestChunkSkipsUnknownTags(t *testing.T) {
	payload := []byte{7}
	entries := make([]byte, 0, 32)
	// unknown tag 0x7FFF, 2 byte value
	entries = appendU16(entries, 0x7FFF)
	entries = appendU16(entries, 2)
	entries = appendU16(entries, 0xBEEF)
	// frame ID, tag 0x0004
	entries = appendU16(entries, 0x0004)
	entries = appendU16(entries, 8)
	var idv [8]byte
	binary.BigEndian.PutUint64(idv[:], 77)
	entries = append(entries, idv[:]...)

	buf := append([]byte{}, payload...)
	buf = append(buf, entries...)
	buf = appendU16(buf, 0x4348) // magic
	buf = appendU16(buf, 2)      // entry count
	buf = appendU16(buf, crc16XModem(entries))
	var tl [4]byte
	binary.BigEndian.PutUint32(tl[:], uint32(len(entries)+10))
	buf = append(buf, tl[:]...)

	gotPayload, c, err := camera.ParseChunk(buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(gotPayload) != 1 || gotPayload[0] != 7 {
		t.Errorf("expected payload [7], got %v", gotPayload)
	}
	if c.FrameID != 77 {
		t.Errorf("expected frame ID 77, got %d", c.FrameID)
	}
}

// TestChunkRejectsBadEntryLength feeds a CRC-valid trailer whose frame
// ID entry claims 2 bytes instead of 8.  The decoder must refuse it
// instead of reading a short value.
func TestChunkRejectsBadEntryLength(t *testing.T) {
	entries := make([]byte, 0, 16)
	entries = appendU16(entries, 0x0004) // frame ID
	entries = appendU16(entries, 2)
	entries = appendU16(entries, 0x00FF)

	buf := append([]byte{1}, entries...)
	buf = appendU16(buf, 0x4348) // magic
	buf = appendU16(buf, 1)      // entry count
	buf = appendU16(buf, crc16XModem(entries))
	var tl [4]byte
	binary.BigEndian.PutUint32(tl[:], uint32(len(entries)+10))
	buf = append(buf, tl[:]...)

	_, _, err := camera.ParseChunk(buf)
	if err == nil {
		t.Fatal("expected an error for a short frame ID entry, got nil")
	}
	if errors.Is(err, camera.ErrNoChunk) || errors.Is(err, camera.ErrChunkCRC) {
		t.Errorf("expected an entry length error, got %v", err)
	}
}

func appendU16(b []byte, v uint16) []byte {
	var s [2]byte
	binary.BigEndian.PutUint16(s[:], v)
	return append(b, s[:]...)
}

// crc16XModem is an independent implementation of CRC-16/XMODEM for
// cross checking the trailer codec.
func crc16XModem(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

func BenchmarkAppendChunk(b *testing.B) {
	payload := make([]byte, 640*480)
	c := camera.ChunkData{
		ExposureTime: 2500,
		Gain:         6,
		FrameID:      1,
		Timestamp:    1234567890,
		Width:        640,
		Height:       480,
		PixelFormat:  camera.Mono8,
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		camera.AppendChunk(payload[:len(payload):len(payload)], c, camera.ChunkAll)
	}
}

func BenchmarkParseChunk(b *testing.B) {
	buf := camera.AppendChunk(make([]byte, 640*480), camera.ChunkData{FrameID: 1}, camera.ChunkAll)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, _, err := camera.ParseChunk(buf); err != nil {
			b.Fatal(err)
		}
	}
}
