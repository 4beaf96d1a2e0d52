/*Package comm provides connection plumbing for the serial and TCP
peripherals that accompany cameras on a bench: trigger boxes, light
sources, filter wheels.

Most devices embed RemoteDevice and write methods on top of its
Send/Recv/SendRecv primitives.  A minimal example for a trigger box
that replies to "*IDN?" with its identity:

	type TriggerBox struct {
		*comm.RemoteDevice
	}

	func (tb *TriggerBox) ID() (string, error) {
		err := tb.Open()
		if err != nil {
			return "", err
		}
		tb.Lock()
		defer func() {
			tb.Unlock()
			tb.CloseEventually()
		}()
		resp, err := tb.SendRecv([]byte("*IDN?"))
		return string(resp), err
	}

Devices that want connections managed for them use Pool instead; see
NewPool.
*/
package comm

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/tarm/serial"
)

const defaultTimeout = 30 * time.Second

var (
	// ErrNoSerialConf is generated when a device with IsSerial true has
	// no serial configuration to open the port with
	ErrNoSerialConf = errors.New("device is serial but has no serial config")

	// ErrNotConnected is generated when Conn is nil and Send or Recv is
	// called
	ErrNotConnected = errors.New("conn is nil, not connected to remote")

	// ErrTerminatorNotFound is generated when the termination byte is
	// not found in a response
	ErrTerminatorNotFound = errors.New("termination byte not found")
)

// Terminators holds the message framing bytes of a device.
type Terminators struct {
	// Rx terminates messages read from the device
	Rx byte

	// Tx terminates messages written to the device
	Tx byte
}

// Sender has a Send method that passes along a byte slice as well as a
// TxTerminator returning the transmission termination byte.
type Sender interface {
	Send([]byte) error
	TxTerminator() byte
}

// Recver has a Recv method that gets a byte slice as well as an
// RxTerminator returning the receipt termination byte.
type Recver interface {
	Recv() ([]byte, error)
	RxTerminator() byte
}

// SendRecver can send and receive, and provides a method that sends
// then receives.
type SendRecver interface {
	Sender
	Recver

	SendRecv([]byte) ([]byte, error)
}

// Opener can open ("establish a connection" in io language).
type Opener interface {
	Open() error
}

// A Communicator can Open, Send, Recv and Close.
type Communicator interface {
	io.Closer
	Opener
	SendRecver
}

/*RemoteDevice is a peripheral at an address, reached over TCP or a
serial port.  It implements Communicator.

The embedded mutex serializes transactions: callers Lock around a
Send/Recv exchange so concurrent users do not interleave messages.
CloseEventually releases the connection after the device's Timeout of
disuse instead of holding the port forever.
*/
type RemoteDevice struct {
	sync.Mutex

	// Addr is a host:port for TCP devices or a port name for serial ones
	Addr string

	// IsSerial selects the serial transport
	IsSerial bool

	// Conn is the open connection, nil when closed
	Conn io.ReadWriteCloser

	// Timeout is the dial deadline and the grace period used by
	// CloseEventually; zero means 30 seconds
	Timeout time.Duration

	terms      Terminators
	serCfg     *serial.Config
	closeTimer *time.Timer
}

// NewRemoteDevice creates a new RemoteDevice.  terms may be nil for
// carriage return framing both ways; serialConf may be nil for TCP
// devices.
func NewRemoteDevice(addr string, isSerial bool, terms *Terminators, serialConf *serial.Config) RemoteDevice {
	if terms == nil {
		terms = &Terminators{Rx: '\r', Tx: '\r'}
	}
	return RemoteDevice{
		Addr:     addr,
		IsSerial: isSerial,
		terms:    *terms,
		serCfg:   serialConf,
	}
}

func (rd *RemoteDevice) timeout() time.Duration {
	if rd.Timeout == 0 {
		return defaultTimeout
	}
	return rd.Timeout
}

// Open the connection, setting the Conn variable.  Open on an already
// open device is a no-op; a close scheduled by CloseEventually is
// canceled.
func (rd *RemoteDevice) Open() error {
	rd.Lock()
	if rd.closeTimer != nil {
		rd.closeTimer.Stop()
		rd.closeTimer = nil
	}
	if rd.Conn != nil {
		rd.Unlock()
		return nil
	}
	rd.Unlock()
	// exponential backoff on connect; trigger hardware resets its
	// interface when connection thrashed
	wasTimeout := false
	op := func() error {
		err := rd.open()
		if err != nil {
			if err == ErrNoSerialConf {
				return backoff.Permanent(err)
			}
			errS := strings.ToLower(err.Error())
			if strings.Contains(errS, "refused") {
				return err
			}
			wasTimeout = true
			return nil
		}
		return nil
	}

	// backoff ceases on a timeout so we don't wait forever; check
	// err != nil && !wasTimeout after
	err := backoff.Retry(op, &backoff.ExponentialBackOff{
		InitialInterval:     25 * time.Millisecond,
		RandomizationFactor: 0.,
		Multiplier:          2.,
		MaxInterval:         1 * time.Second,
		MaxElapsedTime:      3 * time.Second,
		Clock:               backoff.SystemClock})
	if err == nil && !wasTimeout {
		return nil
	}
	if wasTimeout {
		return fmt.Errorf("connection timeout to %s", rd.Addr)
	}
	return err
}

func (rd *RemoteDevice) open() error {
	var (
		conn io.ReadWriteCloser
		err  error
	)
	if rd.IsSerial {
		if rd.serCfg == nil {
			return ErrNoSerialConf
		}
		conn, err = serial.OpenPort(rd.serCfg)
	} else {
		conn, err = TCPSetup(rd.Addr, rd.timeout())
	}
	if err != nil {
		return err
	}
	rd.Lock()
	rd.Conn = conn
	rd.Unlock()
	return nil
}

// Close the connection, nil-ing the Conn variable.
func (rd *RemoteDevice) Close() error {
	rd.Lock()
	defer rd.Unlock()
	return rd.closeLocked()
}

func (rd *RemoteDevice) closeLocked() error {
	if rd.Conn == nil {
		return nil
	}
	err := rd.Conn.Close()
	if err == nil {
		rd.Conn = nil
	}
	return err
}

// CloseEventually schedules the connection to close after the device's
// Timeout of disuse.  Another Open or CloseEventually before it fires
// resets the clock.  Callers must not hold the device lock.
func (rd *RemoteDevice) CloseEventually() {
	rd.Lock()
	defer rd.Unlock()
	if rd.closeTimer != nil {
		rd.closeTimer.Reset(rd.timeout())
		return
	}
	rd.closeTimer = time.AfterFunc(rd.timeout(), func() {
		rd.Lock()
		defer rd.Unlock()
		rd.closeTimer = nil
		rd.closeLocked()
	})
}

// TxTerminator returns the transmission termination byte.
func (rd *RemoteDevice) TxTerminator() byte {
	return rd.terms.Tx
}

// RxTerminator returns the receipt termination byte.
func (rd *RemoteDevice) RxTerminator() byte {
	return rd.terms.Rx
}

// Send writes data to the remote with the Tx terminator appended.
func (rd *RemoteDevice) Send(b []byte) error {
	if rd.Conn == nil {
		return ErrNotConnected
	}
	b = append(b, rd.TxTerminator())
	_, err := rd.Conn.Write(b)
	return err
}

// Recv receives data from the remote and strips the Rx terminator.
func (rd *RemoteDevice) Recv() ([]byte, error) {
	if rd.Conn == nil {
		return nil, ErrNotConnected
	}
	term := rd.RxTerminator()
	buf, err := bufio.NewReader(rd.Conn).ReadBytes(term)
	if err != nil {
		return []byte{}, err
	}
	if bytes.HasSuffix(buf, []byte{term}) {
		idx := bytes.IndexByte(buf, term)
		return buf[:idx], nil
	}
	return buf, ErrTerminatorNotFound
}

// SendRecv sends a buffer after appending the Tx terminator, then
// returns the response with the Rx terminator stripped.
func (rd *RemoteDevice) SendRecv(b []byte) ([]byte, error) {
	if rd.Conn == nil {
		return []byte{}, ErrNotConnected
	}
	err := rd.Send(b)
	if err != nil {
		return []byte{}, err
	}
	return rd.Recv()
}

// TCPSetup opens a new TCP connection and sets a timeout on connect,
// read, and write.
func TCPSetup(addr string, timeout time.Duration) (net.Conn, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, err
	}
	deadline := time.Now().Add(timeout)
	conn.SetReadDeadline(deadline)
	conn.SetWriteDeadline(deadline)
	return conn, nil
}
