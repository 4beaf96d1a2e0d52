/*Package camera models machine-vision cameras: devices discovered through a
System, configured through a genicam node map, and streamed through a
fixed-count or continuous acquisition with per-frame buffers.

The package contains no transport; the Sim type is a complete software
camera used for development, testing, and the control server's mock mode.
Hardware transports (GigE Vision, USB3 Vision) live behind the same Camera
interface and are out of scope here beyond bus discovery.

The acquisition contract follows the conventions of vendor camera SDKs:
Init before anything else, BeginAcquisition to arm the source,
NextFrame(timeout) to pull frames from a fixed ring of buffers,
EndAcquisition to stop, and Release on each frame to return its buffer.
Frames may arrive incomplete; consumers check Complete() before use.
*/
package camera

import (
	"errors"
	"time"

	"github.com/candelalabs/gencam/genicam"
)

// ErrTimeout is returned by NextFrame when no frame arrives within the
// caller's deadline.
var ErrTimeout = errors.New("camera: timed out waiting for frame")

// Info identifies a device on an interface.
type Info struct {
	Vendor    string `json:"vendor" yaml:"vendor"`
	Model     string `json:"model" yaml:"model"`
	Serial    string `json:"serial" yaml:"serial"`
	Firmware  string `json:"firmware" yaml:"firmware"`
	UserID    string `json:"userID" yaml:"userID"`
	TLType    string `json:"tlType" yaml:"tlType"`
	Interface string `json:"interface" yaml:"interface"`
}

// Camera is a machine-vision camera.
type Camera interface {
	// Info returns the device identity
	Info() Info

	// NodeMap returns the device feature tree; valid after Init
	NodeMap() *genicam.NodeMap

	// TLNodeMap returns the transport layer feature tree
	TLNodeMap() *genicam.NodeMap

	// Init prepares the device for use.  Init on an initialized
	// device is an error.
	Init() error

	// Deinit releases the device.  Deinit during acquisition is an error.
	Deinit() error

	// BeginAcquisition arms the frame source
	BeginAcquisition() error

	// EndAcquisition stops the frame source and discards undelivered frames
	EndAcquisition() error

	// NextFrame returns the next frame from the buffer ring, waiting up
	// to timeout.  The caller releases the frame when done with it.
	NextFrame(timeout time.Duration) (*Frame, error)

	// RegisterImageHandler subscribes h to every delivered frame; the
	// returned token unregisters it
	RegisterImageHandler(h ImageHandler) int

	// UnregisterImageHandler removes a previously registered handler
	UnregisterImageHandler(token int)

	// RegisterDeviceHandler subscribes h to device events
	RegisterDeviceHandler(h DeviceHandler) int

	// UnregisterDeviceHandler removes a previously registered handler
	UnregisterDeviceHandler(token int)

	// Close deinitializes if needed and frees resources
	Close() error
}
