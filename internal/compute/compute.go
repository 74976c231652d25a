// Package compute models parallel compute devices and runs the SHA-1
// hashing kernel on them. Two backends exist: an OpenCL backend (built
// with CGo) covering GPUs and other accelerators, and a pure Go CPU
// backend that is always available. Both run the same kernel logic, so a
// digest never depends on which device computed it.
package compute

import (
	"context"
	"errors"
	"fmt"
)

// Class describes the kind of compute device.
type Class string

const (
	ClassAccelerator Class = "Accelerator"
	ClassCPU         Class = "CPU"
)

var (
	// ErrNoDevice means no backend exposed any compute device.
	ErrNoDevice = errors.New("no compute device found")
	// ErrBadDeviceIndex means an explicit device index is out of range.
	ErrBadDeviceIndex = errors.New("device index out of range")
)

// Device identifies one enumerated compute device. Devices are immutable
// once enumerated and valid for the lifetime of the process.
type Device struct {
	Index     int
	Name      string
	Vendor    string
	Class     Class
	GlobalMem uint64

	backend Backend
	local   int
}

// DeviceInfo is the backend-local description of a device, before the
// catalog assigns a global index.
type DeviceInfo struct {
	Name      string
	Vendor    string
	Class     Class
	GlobalMem uint64
}

// Span locates one message inside a packed input buffer. One kernel
// work-item hashes one span.
type Span struct {
	Offset uint64
	Length uint64
}

// Session is an execution context: a bound device plus its command queue.
// A Session is owned by a single caller; Dispatch must not be called
// concurrently.
type Session interface {
	// Dispatch uploads the packed messages, launches the kernel with one
	// work-item per span, blocks until completion and copies the digests
	// back. Digests are indexed by span position, never by completion
	// order. Device buffers live only for the duration of one call.
	Dispatch(ctx context.Context, data []byte, spans []Span) ([][DigestSize]byte, error)
	Close() error
}

// Backend is one compute implementation.
type Backend interface {
	Name() string
	Devices() ([]DeviceInfo, error)
	Open(local int) (Session, error)
}

// Catalog is the flattened list of devices across all backends.
type Catalog struct {
	devices []Device
}

// Enumerate queries every available backend and flattens the device lists
// into one indexed catalog. Accelerator devices come first, so index 0 is
// the first accelerator when one exists.
func Enumerate() (*Catalog, error) {
	backends := append(acceleratorBackends(), cpuBackend{})
	return enumerate(backends...)
}

func enumerate(backends ...Backend) (*Catalog, error) {
	var (
		devices  []Device
		firstErr error
	)
	for _, b := range backends {
		infos, err := b.Devices()
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", b.Name(), err)
			}
			continue
		}
		for i, info := range infos {
			devices = append(devices, Device{
				Index:     len(devices),
				Name:      info.Name,
				Vendor:    info.Vendor,
				Class:     info.Class,
				GlobalMem: info.GlobalMem,
				backend:   b,
				local:     i,
			})
		}
	}
	if len(devices) == 0 {
		if firstErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoDevice, firstErr)
		}
		return nil, ErrNoDevice
	}
	return &Catalog{devices: devices}, nil
}

// Devices returns the enumerated devices in catalog order.
func (c *Catalog) Devices() []Device {
	out := make([]Device, len(c.devices))
	copy(out, c.devices)
	return out
}

// Open builds an execution context on the device. The caller owns the
// session and must close it.
func (c *Catalog) Open(d Device) (Session, error) {
	if d.backend == nil {
		return nil, fmt.Errorf("device %d was not enumerated by this catalog", d.Index)
	}
	return d.backend.Open(d.local)
}

func checkSpans(data []byte, spans []Span) error {
	for i, sp := range spans {
		if sp.Offset+sp.Length > uint64(len(data)) {
			return fmt.Errorf("span %d [%d,%d) exceeds input of %d bytes",
				i, sp.Offset, sp.Offset+sp.Length, len(data))
		}
	}
	return nil
}
