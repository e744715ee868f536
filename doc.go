/*
Package pcikit decodes PCI and PCI Express configuration space.

# Quick Start

Wrap a configuration space dump and read the header:

	cs, err := pcikit.New(data)
	if err != nil {
	    log.Fatal(err)
	}
	h := cs.Header()
	fmt.Printf("%04x:%04x class %02x%02x\n",
	    h.VendorID, h.DeviceID, h.ClassCode.Base, h.ClassCode.Sub)

# Features

  - Predefined header decoding for all three header types
  - Conventional capability list traversal with typed capabilities
  - Extended capability list traversal with typed capabilities
  - Raw passthrough for unrecognized capability IDs
  - Safe on corrupt input: bounds checked, cycle guarded, no panics
  - Zero-copy: decoded values reference the caller's bytes

# Capability Lists

Both lists are consumed through pull iterators that end with io.EOF:

	it := cs.Capabilities()
	for {
	    c, err := it.Next()
	    if err == io.EOF {
	        break
	    }
	    if err != nil {
	        continue // truncated node, walk goes on
	    }
	    switch data := c.Data.(type) {
	    case caps.MSI:
	        fmt.Printf("MSI at %#02x, %d vectors\n", c.Pointer, data.Control.MultipleMessageCapable())
	    case caps.Unknown:
	        fmt.Printf("capability %v at %#02x\n", data.ID, c.Pointer)
	    }
	}

The subpackages decode each region on their own: package header takes
any 64-byte header, package caps any device dependent region and
package extcaps any extended configuration space, with no ConfigSpace
required.

# Reading Live Devices

Package capture maps configuration space dumps from the filesystem,
such as the per-device config files sysfs exposes on Linux:

	cc, err := capture.Open("/sys/bus/pci/devices/0000:00:1f.2/config")
	if err != nil {
	    log.Fatal(err)
	}
	defer cc.Close()
	h := cc.ConfigSpace().Header()
*/
package pcikit
