package trigger_test

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/candelalabs/gencam/trigger"
)

// boxServer fakes a PT-200 on a loopback socket.
type boxServer struct {
	sync.Mutex
	rate    float64
	width   float64
	count   int
	output  bool
	pulses  int
	lastErr string
}

func (s *boxServer) handle(line string) []string {
	var resps []string
	for _, part := range strings.Split(line, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.HasSuffix(part, "?") {
			resps = append(resps, s.query(part))
		} else {
			s.execute(part)
		}
	}
	return resps
}

func (s *boxServer) query(cmd string) string {
	s.Lock()
	defer s.Unlock()
	switch cmd {
	case "*IDN?":
		return "CANDELA,PT-200,12345,2.1"
	case ":PULS:RATE?":
		return strconv.FormatFloat(s.rate, 'g', -1, 64)
	case ":PULS:WIDT?":
		return strconv.FormatFloat(s.width, 'g', -1, 64)
	case ":PULS:COUN?":
		return strconv.Itoa(s.count)
	case ":OUTP?":
		if s.output {
			return "ON"
		}
		return "OFF"
	case ":SYST:ERR?":
		resp := s.lastErr
		s.lastErr = "+0,No error"
		return resp
	}
	s.lastErr = "-113,Undefined header"
	return ""
}

func (s *boxServer) execute(cmd string) {
	s.Lock()
	defer s.Unlock()
	fields := strings.Fields(cmd)
	switch fields[0] {
	case ":PULS:RATE":
		v, _ := strconv.ParseFloat(fields[1], 64)
		if v <= 0 || v > 1e6 {
			s.lastErr = "-222,Data out of range"
			return
		}
		s.rate = v
	case ":PULS:WIDT":
		v, _ := strconv.ParseFloat(fields[1], 64)
		s.width = v
	case ":PULS:COUN":
		n, _ := strconv.Atoi(fields[1])
		s.count = n
	case ":TRIG:SING":
		s.pulses++
	case ":TRIG:BURS":
		s.pulses += s.count
	case ":OUTP":
		s.output = fields[1] == "ON"
	default:
		s.lastErr = "-113,Undefined header"
	}
}

func (s *boxServer) pulseCount() int {
	s.Lock()
	defer s.Unlock()
	return s.pulses
}

func serveBox(t *testing.T) (string, *boxServer) {
	t.Helper()
	srv := &boxServer{rate: 10, width: 100, count: 1, lastErr: "+0,No error"}
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				r := bufio.NewReader(c)
				for {
					line, err := r.ReadString('\n')
					if err != nil {
						return
					}
					for _, resp := range srv.handle(strings.TrimRight(line, "\n")) {
						fmt.Fprintf(c, "%s\n", resp)
					}
				}
			}(conn)
		}
	}()
	return l.Addr().String(), srv
}

func startBox(t *testing.T) (*trigger.Box, *boxServer) {
	t.Helper()
	addr, srv := serveBox(t)
	return trigger.NewBox(addr, false), srv
}

func TestBoxID(t *testing.T) {
	box, _ := startBox(t)
	id, err := box.ID()
	if err != nil {
		t.Fatalf("ID: %v", err)
	}
	if id != "CANDELA,PT-200,12345,2.1" {
		t.Errorf("expected PT-200 identity, got %q", id)
	}
}

func TestBoxRateRoundTrip(t *testing.T) {
	box, _ := startBox(t)
	if err := box.SetRate(250); err != nil {
		t.Fatalf("SetRate: %v", err)
	}
	hz, err := box.Rate()
	if err != nil {
		t.Fatalf("Rate: %v", err)
	}
	if hz != 250 {
		t.Errorf("expected 250 Hz, got %g", hz)
	}
}

func TestBoxWidthRoundTrip(t *testing.T) {
	box, _ := startBox(t)
	if err := box.SetWidth(12.5); err != nil {
		t.Fatalf("SetWidth: %v", err)
	}
	us, err := box.Width()
	if err != nil {
		t.Fatalf("Width: %v", err)
	}
	if us != 12.5 {
		t.Errorf("expected 12.5 us, got %g", us)
	}
}

func TestBoxSingleAndBurst(t *testing.T) {
	box, srv := startBox(t)
	if err := box.Single(); err != nil {
		t.Fatalf("Single: %v", err)
	}
	if err := box.SetBurstCount(5); err != nil {
		t.Fatalf("SetBurstCount: %v", err)
	}
	if err := box.Burst(); err != nil {
		t.Fatalf("Burst: %v", err)
	}
	if got := srv.pulseCount(); got != 6 {
		t.Errorf("expected 6 pulses, got %d", got)
	}
}

func TestBoxDeviceError(t *testing.T) {
	box, _ := startBox(t)
	err := box.SetRate(2e6)
	if err == nil {
		t.Fatal("expected out of range error, got nil")
	}
	if !strings.Contains(err.Error(), "-222") {
		t.Errorf("expected -222 in error, got %v", err)
	}
	// the handshake consumes the error, the next command is clean
	if err := box.SetRate(100); err != nil {
		t.Errorf("expected clean SetRate after error, got %v", err)
	}
}

func TestBoxOutput(t *testing.T) {
	box, _ := startBox(t)
	if err := box.SetOutput(true); err != nil {
		t.Fatalf("SetOutput: %v", err)
	}
	on, err := box.Output()
	if err != nil {
		t.Fatalf("Output: %v", err)
	}
	if !on {
		t.Error("expected output on")
	}
}

func TestSharedBoxConcurrentClients(t *testing.T) {
	addr, srv := serveBox(t)
	box := trigger.NewSharedBox(addr, 3)
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := box.Single(); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("Single: %v", err)
	}
	if got := srv.pulseCount(); got != 8 {
		t.Errorf("expected 8 pulses, got %d", got)
	}
	// queries share the same pool
	id, err := box.ID()
	if err != nil {
		t.Fatalf("ID: %v", err)
	}
	if id != "CANDELA,PT-200,12345,2.1" {
		t.Errorf("expected PT-200 identity, got %q", id)
	}
}

func TestMockSingleAndBurst(t *testing.T) {
	m := trigger.NewMock()
	var mu sync.Mutex
	pulses := 0
	m.OnPulse = func() {
		mu.Lock()
		pulses++
		mu.Unlock()
	}
	if err := m.SetRate(10000); err != nil {
		t.Fatalf("SetRate: %v", err)
	}
	if err := m.SetBurstCount(4); err != nil {
		t.Fatalf("SetBurstCount: %v", err)
	}
	if err := m.Single(); err != nil {
		t.Fatalf("Single: %v", err)
	}
	if err := m.Burst(); err != nil {
		t.Fatalf("Burst: %v", err)
	}
	mu.Lock()
	got := pulses
	mu.Unlock()
	if got != 5 {
		t.Errorf("expected 5 pulses, got %d", got)
	}
}

func TestMockDefaults(t *testing.T) {
	m := trigger.NewMock()
	hz, _ := m.Rate()
	if hz != 10 {
		t.Errorf("expected 10 Hz default, got %g", hz)
	}
	n, _ := m.BurstCount()
	if n != 1 {
		t.Errorf("expected burst count 1, got %d", n)
	}
	if err := m.Burst(); err != nil {
		t.Errorf("Burst with nil OnPulse: %v", err)
	}
}
