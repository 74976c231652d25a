//go:build !cgo

package compute

// acceleratorBackends returns nil when OpenCL support is not compiled in.
// The CPU backend keeps the catalog non-empty.
func acceleratorBackends() []Backend { return nil }
