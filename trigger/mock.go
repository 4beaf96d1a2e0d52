package trigger

import (
	"sync"
	"time"
)

// Mock is a trigger source without hardware.  OnPulse is called once
// per emitted pulse, which lets tests and simulated benches route
// pulses into a camera's trigger input.
type Mock struct {
	sync.Mutex

	// OnPulse is called for each pulse.  It may be nil.
	OnPulse func()

	rate   float64
	width  float64
	count  int
	output bool
}

// NewMock returns a Mock with the PT-200 power on defaults.
func NewMock() *Mock {
	return &Mock{rate: 10, width: 100, count: 1}
}

var _ Pulser = (*Mock)(nil)

func (m *Mock) pulse() {
	m.Lock()
	f := m.OnPulse
	m.Unlock()
	if f != nil {
		f()
	}
}

// ID returns the mocked identity.
func (m *Mock) ID() (string, error) {
	return "CANDELA,PT-200-SIM,00000,1.0", nil
}

// SetRate sets the pulse rate in Hz.
func (m *Mock) SetRate(hz float64) error {
	m.Lock()
	defer m.Unlock()
	m.rate = hz
	return nil
}

// Rate returns the pulse rate in Hz.
func (m *Mock) Rate() (float64, error) {
	m.Lock()
	defer m.Unlock()
	return m.rate, nil
}

// SetWidth sets the pulse width in microseconds.
func (m *Mock) SetWidth(us float64) error {
	m.Lock()
	defer m.Unlock()
	m.width = us
	return nil
}

// Width returns the pulse width in microseconds.
func (m *Mock) Width() (float64, error) {
	m.Lock()
	defer m.Unlock()
	return m.width, nil
}

// SetBurstCount sets the number of pulses per burst.
func (m *Mock) SetBurstCount(n int) error {
	m.Lock()
	defer m.Unlock()
	m.count = n
	return nil
}

// BurstCount returns the number of pulses per burst.
func (m *Mock) BurstCount() (int, error) {
	m.Lock()
	defer m.Unlock()
	return m.count, nil
}

// Single emits one pulse.
func (m *Mock) Single() error {
	m.pulse()
	return nil
}

// Burst emits BurstCount pulses at Rate.
func (m *Mock) Burst() error {
	m.Lock()
	count := m.count
	rate := m.rate
	m.Unlock()
	var period time.Duration
	if rate > 0 {
		period = time.Duration(float64(time.Second) / rate)
	}
	for i := 0; i < count; i++ {
		if i > 0 && period > 0 {
			time.Sleep(period)
		}
		m.pulse()
	}
	return nil
}

// SetOutput starts or stops free running output.  The mock only
// records the state.
func (m *Mock) SetOutput(on bool) error {
	m.Lock()
	defer m.Unlock()
	m.output = on
	return nil
}

// Output returns whether the output is free running.
func (m *Mock) Output() (bool, error) {
	m.Lock()
	defer m.Unlock()
	return m.output, nil
}
