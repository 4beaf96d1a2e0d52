// lscam lists the cameras visible on this machine.
package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/candelalabs/gencam/camera"
	"github.com/candelalabs/gencam/u3v"
)

var usb = flag.Bool("usb", false, "scan the USB bus for vision devices in addition to simulated cameras")

func run() error {
	camera.Register(camera.SimProvider{Configs: []camera.SimConfig{
		{Serial: "SIM-0001", UserID: "bench"},
		{Serial: "SIM-0002", UserID: "flight"},
	}})
	sys, err := camera.NewSystem()
	if err != nil {
		return err
	}
	defer sys.Release()
	for _, iface := range sys.Interfaces() {
		fmt.Printf("%s %s: %d cameras\n", iface.TLType, iface.Name, len(iface.Cameras))
	}
	infos := sys.Cameras()
	if *usb {
		usbInfos, err := u3v.Scan()
		if err != nil {
			return err
		}
		infos = append(infos, usbInfos...)
	}
	fmt.Printf("%d cameras\n", len(infos))
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "IDX\tTL\tINTERFACE\tVENDOR\tMODEL\tSERIAL\tFIRMWARE\tUSERID")
	for i, info := range infos {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			i, info.TLType, info.Interface, info.Vendor, info.Model,
			info.Serial, info.Firmware, info.UserID)
	}
	return tw.Flush()
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
