//go:build linux

package compute

import "golang.org/x/sys/unix"

// systemMemory reports total system RAM, the CPU device's analogue of an
// accelerator's global memory size.
func systemMemory() uint64 {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0
	}
	return uint64(info.Totalram) * uint64(info.Unit)
}
