// Package mathx provides small numerical helpers shared by the camera packages.
package mathx

// MeanU16 returns the arithmetic mean of xs rounded to the nearest integer,
// or zero for an empty slice.  The sum is accumulated in 64 bits so slices
// of full-scale values do not overflow.
func MeanU16(xs []uint16) uint16 {
	if len(xs) == 0 {
		return 0
	}
	var sum uint64
	for _, x := range xs {
		sum += uint64(x)
	}
	return uint16((sum + uint64(len(xs))/2) / uint64(len(xs)))
}

// MeanU8 is MeanU16 for bytes.
func MeanU8(xs []byte) byte {
	if len(xs) == 0 {
		return 0
	}
	var sum uint64
	for _, x := range xs {
		sum += uint64(x)
	}
	return byte((sum + uint64(len(xs))/2) / uint64(len(xs)))
}
