package camera

import (
	"sort"
	"sync"
	"time"
)

// Device event names emitted by the cameras in this package.
const (
	// EventExposureEnd fires when integration of a frame finishes,
	// before the frame is delivered; FrameID identifies the frame
	EventExposureEnd = "ExposureEnd"

	// EventTemperatureWarning fires when the sensor temperature leaves
	// its safe band; Value is the temperature in Celsius
	EventTemperatureWarning = "TemperatureWarning"
)

// DeviceEvent is an asynchronous notification from a camera.
type DeviceEvent struct {
	// Name identifies the event type
	Name string `json:"name" yaml:"name"`

	// Timestamp is when the device raised the event
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`

	// FrameID is set for events tied to a frame, zero otherwise
	FrameID uint64 `json:"frameID" yaml:"frameID"`

	// Value is the event datum, meaning depends on Name
	Value float64 `json:"value" yaml:"value"`
}

// ImageHandler receives every frame a camera delivers.  Handlers run on
// the camera's delivery goroutine; a slow handler stalls delivery, and
// the frame is only valid for the duration of the call.
type ImageHandler interface {
	OnImage(f *Frame)
}

// ImageHandlerFunc adapts a function to ImageHandler.
type ImageHandlerFunc func(f *Frame)

// OnImage calls fn(f).
func (fn ImageHandlerFunc) OnImage(f *Frame) { fn(f) }

// DeviceHandler receives device events.  Handlers run on the camera's
// event goroutine.
type DeviceHandler interface {
	OnEvent(e DeviceEvent)
}

// DeviceHandlerFunc adapts a function to DeviceHandler.
type DeviceHandlerFunc func(e DeviceEvent)

// OnEvent calls fn(e).
func (fn DeviceHandlerFunc) OnEvent(e DeviceEvent) { fn(e) }

// imageRegistry fans frames out to registered handlers in registration
// order.  Backends embed one and call dispatch from their delivery
// goroutine.
type imageRegistry struct {
	mu       sync.Mutex
	next     int
	handlers map[int]ImageHandler
}

func (r *imageRegistry) register(h ImageHandler) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.handlers == nil {
		r.handlers = map[int]ImageHandler{}
	}
	r.next++
	r.handlers[r.next] = h
	return r.next
}

func (r *imageRegistry) unregister(token int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handlers, token)
}

func (r *imageRegistry) dispatch(f *Frame) {
	r.mu.Lock()
	toks := make([]int, 0, len(r.handlers))
	for t := range r.handlers {
		toks = append(toks, t)
	}
	sort.Ints(toks)
	hs := make([]ImageHandler, len(toks))
	for i, t := range toks {
		hs[i] = r.handlers[t]
	}
	r.mu.Unlock()
	for _, h := range hs {
		h.OnImage(f)
	}
}

// deviceRegistry is the DeviceEvent counterpart of imageRegistry.
type deviceRegistry struct {
	mu       sync.Mutex
	next     int
	handlers map[int]DeviceHandler
}

func (r *deviceRegistry) register(h DeviceHandler) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.handlers == nil {
		r.handlers = map[int]DeviceHandler{}
	}
	r.next++
	r.handlers[r.next] = h
	return r.next
}

func (r *deviceRegistry) unregister(token int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handlers, token)
}

func (r *deviceRegistry) dispatch(e DeviceEvent) {
	r.mu.Lock()
	toks := make([]int, 0, len(r.handlers))
	for t := range r.handlers {
		toks = append(toks, t)
	}
	sort.Ints(toks)
	hs := make([]DeviceHandler, len(toks))
	for i, t := range toks {
		hs[i] = r.handlers[t]
	}
	r.mu.Unlock()
	for _, h := range hs {
		h.OnEvent(e)
	}
}
