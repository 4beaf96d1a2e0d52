/*Package trigger controls the pulse generator boxes used to hardware
trigger cameras.  The boxes speak a SCPI flavored ASCII protocol over
TCP or RS-232 and drive the camera's opto-isolated trigger input
(Line0).

The command set:

	*IDN?                 identity, "CANDELA,PT-200,<serial>,<fw>"
	:PULS:RATE <hz>       pulse rate for bursts and free run
	:PULS:WIDT <us>       pulse width
	:PULS:COUN <n>        pulses per burst
	:TRIG:SING            emit one pulse
	:TRIG:BURS            emit a burst of COUN pulses at RATE
	:OUTP ON|OFF          free run output
	:SYST:ERR?            last error, "+0,No error" when clear

Queries are the set commands with a trailing question mark.
*/
package trigger

import (
	"fmt"
	"strings"
	"time"

	"github.com/candelalabs/gencam/comm"
	"github.com/candelalabs/gencam/scpi"
	"github.com/tarm/serial"
)

// Pulser is the interface of a trigger source, satisfied by Box and
// Mock.
type Pulser interface {
	// ID returns the device identity
	ID() (string, error)

	// SetRate sets the pulse rate in Hz
	SetRate(hz float64) error

	// Rate returns the pulse rate in Hz
	Rate() (float64, error)

	// SetWidth sets the pulse width in microseconds
	SetWidth(us float64) error

	// Width returns the pulse width in microseconds
	Width() (float64, error)

	// SetBurstCount sets the number of pulses per burst
	SetBurstCount(n int) error

	// BurstCount returns the number of pulses per burst
	BurstCount() (int, error)

	// Single emits one pulse
	Single() error

	// Burst emits BurstCount pulses at Rate
	Burst() error

	// SetOutput starts or stops free running output
	SetOutput(on bool) error

	// Output returns whether the output is free running
	Output() (bool, error)
}

func makeSerConf(addr string) *serial.Config {
	return &serial.Config{
		Name:        addr,
		Baud:        115200,
		Size:        8,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
		ReadTimeout: 10 * time.Second}
}

// Box is a PT-200 class pulse generator.
type Box struct {
	scpi.Dialect
}

// NewBox returns a fully configured Box.  addr is host:port or a
// serial port name when connectSerial is true.
func NewBox(addr string, connectSerial bool) *Box {
	terms := comm.Terminators{Rx: '\n', Tx: '\n'}
	rd := comm.NewRemoteDevice(addr, connectSerial, &terms, makeSerConf(addr))
	rd.Timeout = time.Minute
	return &Box{Dialect: &scpi.SCPI{RemoteDevice: &rd, Handshaking: true}}
}

// NewSharedBox returns a Box whose exchanges run over a pool of up to
// clients TCP connections.  Use it when several goroutines (one per
// camera, say) drive one generator concurrently; a plain Box would
// serialize them on its device lock.
func NewSharedBox(addr string, clients int) *Box {
	pool := comm.NewPool(clients, time.Minute,
		comm.BackingOffTCPConnMaker(addr, 10*time.Second))
	terms := comm.Terminators{Rx: '\n', Tx: '\n'}
	p := scpi.NewPooled(pool, &terms)
	p.Handshaking = true
	return &Box{Dialect: p}
}

var _ Pulser = (*Box)(nil)

// ID returns the device identity.
func (b *Box) ID() (string, error) {
	return b.ReadString("*IDN?")
}

// SetRate sets the pulse rate in Hz.
func (b *Box) SetRate(hz float64) error {
	return b.Write(fmt.Sprintf(":PULS:RATE %g", hz))
}

// Rate returns the pulse rate in Hz.
func (b *Box) Rate() (float64, error) {
	return b.ReadFloat(":PULS:RATE?")
}

// SetWidth sets the pulse width in microseconds.
func (b *Box) SetWidth(us float64) error {
	return b.Write(fmt.Sprintf(":PULS:WIDT %g", us))
}

// Width returns the pulse width in microseconds.
func (b *Box) Width() (float64, error) {
	return b.ReadFloat(":PULS:WIDT?")
}

// SetBurstCount sets the number of pulses per burst.
func (b *Box) SetBurstCount(n int) error {
	return b.Write(fmt.Sprintf(":PULS:COUN %d", n))
}

// BurstCount returns the number of pulses per burst.
func (b *Box) BurstCount() (int, error) {
	return b.ReadInt(":PULS:COUN?")
}

// Single emits one pulse.
func (b *Box) Single() error {
	return b.Write(":TRIG:SING")
}

// Burst emits BurstCount pulses at Rate.
func (b *Box) Burst() error {
	return b.Write(":TRIG:BURS")
}

// SetOutput starts or stops free running output.
func (b *Box) SetOutput(on bool) error {
	arg := "OFF"
	if on {
		arg = "ON"
	}
	return b.Write(":OUTP " + arg)
}

// Output returns whether the output is free running.
func (b *Box) Output() (bool, error) {
	resp, err := b.ReadString(":OUTP?")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(resp) == "ON", nil
}
