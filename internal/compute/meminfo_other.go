//go:build !linux

package compute

func systemMemory() uint64 { return 0 }
