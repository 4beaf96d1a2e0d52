// Package util contains misc internal utilities.
package util

import (
	"os"
	"path/filepath"
	"unicode"
)

// AllElementsNumbers returns true if all of the characters in a string
// are numbers.  An empty string returns false.
func AllElementsNumbers(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '.' {
			return false
		}
	}
	return true
}

// EnsureWritable probes dir for write permission by creating and removing
// a scratch file named test.txt.  It returns an error if the file cannot
// be created or removed.
func EnsureWritable(dir string) error {
	probe := filepath.Join(dir, "test.txt")
	f, err := os.Create(probe)
	if err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Remove(probe)
}
