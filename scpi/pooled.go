package scpi

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/candelalabs/gencam/comm"
)

// Dialect is the command and query surface shared by SCPI and Pooled.
// Drivers that should work over either transport embed this instead of
// a concrete type.
type Dialect interface {
	Write(cmd string) error
	ReadString(cmd string) (string, error)
	ReadFloat(cmd string) (float64, error)
	ReadInt(cmd string) (int, error)
}

// Pooled speaks the same dialect as SCPI but leases a connection from
// a comm.Pool for each exchange instead of serializing callers on one
// device lock.  Use it when several goroutines drive one instrument
// that accepts concurrent connections.
type Pooled struct {
	// Handshaking appends an error query to every set command and
	// checks that the device accepted the input
	Handshaking bool

	pool  *comm.Pool
	terms comm.Terminators
}

// NewPooled returns a Pooled dialect over pool.  terms may be nil for
// carriage return framing both ways.
func NewPooled(pool *comm.Pool, terms *comm.Terminators) *Pooled {
	if terms == nil {
		terms = &comm.Terminators{Rx: '\r', Tx: '\r'}
	}
	return &Pooled{pool: pool, terms: *terms}
}

// txn runs one exchange on a leased connection.  A connection that
// errors mid-exchange is destroyed rather than returned; the next call
// gets a fresh one from the maker.
func (p *Pooled) txn(cmd string, reply bool) (string, error) {
	conn, err := p.pool.Get()
	if err != nil {
		return "", err
	}
	msg := append([]byte(cmd), p.terms.Tx)
	if _, err := conn.Write(msg); err != nil {
		p.pool.Destroy(conn)
		return "", err
	}
	if !reply {
		p.pool.Put(conn)
		return "", nil
	}
	resp, err := bufio.NewReader(conn).ReadBytes(p.terms.Rx)
	if err != nil {
		p.pool.Destroy(conn)
		return "", err
	}
	p.pool.Put(conn)
	return string(bytes.TrimSuffix(resp, []byte{p.terms.Rx})), nil
}

// Write sends a set command, with the handshake error check when
// enabled.
func (p *Pooled) Write(cmd string) error {
	if !p.Handshaking {
		_, err := p.txn(cmd, false)
		return err
	}
	resp, err := p.txn(cmd+";:SYST:ERR?", true)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(resp, "+0") {
		return fmt.Errorf("scpi: device error %s", resp)
	}
	return nil
}

// ReadString sends a query and returns the response.
func (p *Pooled) ReadString(cmd string) (string, error) {
	return p.txn(cmd, true)
}

// ReadFloat sends a query and parses the response as a floating point
// value.
func (p *Pooled) ReadFloat(cmd string) (float64, error) {
	resp, err := p.ReadString(cmd)
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(strings.TrimSpace(resp), 64)
}

// ReadInt sends a query and parses the response as an integer.
func (p *Pooled) ReadInt(cmd string) (int, error) {
	resp, err := p.ReadString(cmd)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(resp))
}

var (
	_ Dialect = (*SCPI)(nil)
	_ Dialect = (*Pooled)(nil)
)
