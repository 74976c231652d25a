package compute

import (
	"context"
	"fmt"
	"runtime"
	"sync"
)

// cpuBackend computes digests in-process with the pure Go kernel logic.
// It is always available, so a catalog is never empty on a working system.
type cpuBackend struct{}

func (cpuBackend) Name() string { return "CPU" }

func (cpuBackend) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{{
		Name:      fmt.Sprintf("CPU (%d threads)", runtime.NumCPU()),
		Vendor:    "Go runtime",
		Class:     ClassCPU,
		GlobalMem: systemMemory(),
	}}, nil
}

func (b cpuBackend) Open(local int) (Session, error) {
	if local != 0 {
		return nil, fmt.Errorf("cpu: no device %d", local)
	}
	return &cpuSession{}, nil
}

// cpuSession models a kernel launch as one goroutine per work-item.
type cpuSession struct{}

func (s *cpuSession) Dispatch(ctx context.Context, data []byte, spans []Span) ([][DigestSize]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkSpans(data, spans); err != nil {
		return nil, err
	}

	out := make([][DigestSize]byte, len(spans))
	var wg sync.WaitGroup
	for i, sp := range spans {
		wg.Add(1)
		go func(i int, sp Span) {
			defer wg.Done()
			out[i] = SumSHA1(data[sp.Offset : sp.Offset+sp.Length])
		}(i, sp)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return out, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *cpuSession) Close() error { return nil }
