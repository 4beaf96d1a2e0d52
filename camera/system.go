package camera

import (
	"fmt"
	"sort"
	"sync"
)

// Provider enumerates cameras on one transport (one bus technology).
// Providers register themselves with Register, usually from an init
// function in the transport package.
type Provider interface {
	// TLType is the transport layer technology tag, e.g. "U3V" or "Sim"
	TLType() string

	// Enumerate scans for devices and returns an opener per device
	Enumerate() ([]Entry, error)
}

// Entry is one discovered device: its identity and a way to open it.
type Entry struct {
	Info Info
	Open func() (Camera, error)
}

var (
	providerMu sync.Mutex
	providers  = map[string]Provider{}
)

// Register adds a transport provider to the system.  Registering two
// providers with the same TLType panics, as this is a programming error.
func Register(p Provider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	t := p.TLType()
	if _, ok := providers[t]; ok {
		panic(fmt.Sprintf("camera: duplicate provider for transport %q", t))
	}
	providers[t] = p
}

// System is a snapshot of the cameras visible across all registered
// transports.  Create one with NewSystem each time a fresh enumeration
// is wanted; entries are not updated after the snapshot.
type System struct {
	entries []Entry
}

// NewSystem enumerates every registered provider.  A transport that
// fails to scan poisons the whole enumeration, mirroring how a dead
// bus driver should be loud rather than silently absent.
func NewSystem() (*System, error) {
	providerMu.Lock()
	types := make([]string, 0, len(providers))
	for t := range providers {
		types = append(types, t)
	}
	ps := make([]Provider, 0, len(providers))
	sort.Strings(types)
	for _, t := range types {
		ps = append(ps, providers[t])
	}
	providerMu.Unlock()

	sys := &System{}
	for _, p := range ps {
		ents, err := p.Enumerate()
		if err != nil {
			return nil, fmt.Errorf("camera: enumerating %s: %w", p.TLType(), err)
		}
		sys.entries = append(sys.entries, ents...)
	}
	return sys, nil
}

// Interface is one transport segment (a USB controller, a simulated
// bus) and the devices that answered on it.
type Interface struct {
	Name    string
	TLType  string
	Cameras []Info
}

// Interfaces groups the discovered devices by the bus segment they
// answered on, in enumeration order.
func (s *System) Interfaces() []*Interface {
	var out []*Interface
	idx := map[[2]string]*Interface{}
	for _, e := range s.entries {
		key := [2]string{e.Info.TLType, e.Info.Interface}
		iface, ok := idx[key]
		if !ok {
			iface = &Interface{Name: e.Info.Interface, TLType: e.Info.TLType}
			idx[key] = iface
			out = append(out, iface)
		}
		iface.Cameras = append(iface.Cameras, e.Info)
	}
	return out
}

// Release discards the enumeration snapshot.  Cameras opened from it
// stay open; further Open calls fail until a fresh NewSystem.
func (s *System) Release() {
	s.entries = nil
}

// Cameras returns the identity of each discovered device, in
// enumeration order.
func (s *System) Cameras() []Info {
	out := make([]Info, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Info
	}
	return out
}

// Len returns the number of discovered devices.
func (s *System) Len() int { return len(s.entries) }

// Open opens the i'th device.
func (s *System) Open(i int) (Camera, error) {
	if i < 0 || i >= len(s.entries) {
		return nil, fmt.Errorf("camera: index %d out of range, have %d cameras", i, len(s.entries))
	}
	return s.entries[i].Open()
}

// OpenSerial opens the device with the given serial number.
func (s *System) OpenSerial(serial string) (Camera, error) {
	for _, e := range s.entries {
		if e.Info.Serial == serial {
			return e.Open()
		}
	}
	return nil, fmt.Errorf("camera: no camera with serial %q", serial)
}
