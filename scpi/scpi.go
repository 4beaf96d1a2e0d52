// Package scpi provides primitives for working with devices that
// speak SCPI flavored ASCII protocols.
package scpi

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/candelalabs/gencam/comm"
)

// SCPI encapsulates the command and query halves of a SCPI dialect
// over a RemoteDevice.  Drivers embed it and express their command
// sets in terms of Write and the Read helpers.
type SCPI struct {
	*comm.RemoteDevice

	// Handshaking appends an error query to every set command and
	// checks that the device accepted the input
	Handshaking bool
}

// Write sends a set command, with the handshake error check when
// enabled.
func (s *SCPI) Write(cmd string) error {
	err := s.Open()
	if err != nil {
		return err
	}
	s.Lock()
	defer func() {
		s.Unlock()
		s.CloseEventually()
	}()
	if !s.Handshaking {
		return s.Send([]byte(cmd))
	}
	resp, err := s.SendRecv([]byte(cmd + ";:SYST:ERR?"))
	if err != nil {
		return err
	}
	if str := string(resp); !strings.HasPrefix(str, "+0") {
		return fmt.Errorf("scpi: device error %s", str)
	}
	return nil
}

// ReadString sends a query and returns the response.
func (s *SCPI) ReadString(cmd string) (string, error) {
	err := s.Open()
	if err != nil {
		return "", err
	}
	s.Lock()
	defer func() {
		s.Unlock()
		s.CloseEventually()
	}()
	resp, err := s.SendRecv([]byte(cmd))
	return string(resp), err
}

// ReadFloat sends a query and parses the response as a floating point
// value.
func (s *SCPI) ReadFloat(cmd string) (float64, error) {
	resp, err := s.ReadString(cmd)
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(strings.TrimSpace(resp), 64)
}

// ReadInt sends a query and parses the response as an integer.
func (s *SCPI) ReadInt(cmd string) (int, error) {
	resp, err := s.ReadString(cmd)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(resp))
}

// PopError reads one error from the device's error queue, nil when the
// queue is clear.
func (s *SCPI) PopError() error {
	resp, err := s.ReadString(":SYST:ERR?")
	if err != nil {
		return err
	}
	if strings.HasPrefix(resp, "+0") {
		return nil
	}
	return fmt.Errorf("scpi: device error %s", resp)
}
