/*Package u3v discovers USB3 Vision cameras on the local bus.

This is discovery only.  The scan matches the USB3 Vision interface
class triple and a short list of known vision vendor IDs, then reads
the string descriptors to fill in camera.Info.  No bulk endpoints are
claimed and no streaming transport is implemented, so discovered
devices are listable but not openable.
*/
package u3v

import (
	"fmt"
	"sort"

	"github.com/candelalabs/gencam/camera"
	"github.com/google/gousb"
)

// USB3 Vision devices carry the miscellaneous class with the vision
// subclass on their control interface.
const (
	u3vSubclass = 0x05
)

// vendorIDs are USB vendor IDs of camera makers whose devices may
// predate the interface class triple.
var vendorIDs = map[gousb.ID]string{
	0x1E10: "Point Grey Research",
	0x2676: "Basler",
	0x1409: "IDS Imaging",
	0x199E: "The Imaging Source",
}

// isVisionDevice reports whether a descriptor looks like a USB3
// Vision camera.
func isVisionDevice(desc *gousb.DeviceDesc) bool {
	if _, ok := vendorIDs[desc.Vendor]; ok {
		return true
	}
	for _, cfg := range desc.Configs {
		for _, intf := range cfg.Interfaces {
			for _, alt := range intf.AltSettings {
				if alt.Class == gousb.ClassMiscellaneous && alt.SubClass == u3vSubclass {
					return true
				}
			}
		}
	}
	return false
}

// Scan walks the USB bus and returns an Info for every USB3 Vision
// device found.  Devices that match but refuse to open are skipped.
func Scan() ([]camera.Info, error) {
	ctx := gousb.NewContext()
	defer ctx.Close()
	return scan(ctx)
}

func scan(ctx *gousb.Context) ([]camera.Info, error) {
	devs, err := ctx.OpenDevices(isVisionDevice)
	// OpenDevices returns the devices it did open alongside the error
	for _, d := range devs {
		defer d.Close()
	}
	if err != nil && len(devs) == 0 {
		return nil, err
	}
	var infos []camera.Info
	for _, d := range devs {
		info := camera.Info{
			TLType:    "U3V",
			Interface: fmt.Sprintf("usb:%03d:%03d", d.Desc.Bus, d.Desc.Address),
		}
		if name, ok := vendorIDs[d.Desc.Vendor]; ok {
			info.Vendor = name
		}
		if s, err := d.Manufacturer(); err == nil && s != "" {
			info.Vendor = s
		}
		if s, err := d.Product(); err == nil {
			info.Model = s
		}
		if s, err := d.SerialNumber(); err == nil {
			info.Serial = s
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Interface < infos[j].Interface })
	return infos, nil
}

// Provider exposes the scan through the camera registry.  Entries are
// discovery only and refuse to open.
type Provider struct{}

// TLType implements camera.Provider.
func (Provider) TLType() string { return "U3V" }

// Enumerate implements camera.Provider.
func (Provider) Enumerate() ([]camera.Entry, error) {
	infos, err := Scan()
	if err != nil {
		return nil, err
	}
	entries := make([]camera.Entry, len(infos))
	for i := range infos {
		info := infos[i]
		entries[i] = camera.Entry{Info: info, Open: func() (camera.Camera, error) {
			return nil, fmt.Errorf("u3v: %s is discovery only, streaming needs a transport driver", info.Serial)
		}}
	}
	return entries, nil
}
