package compute

import (
	"context"
	"errors"
	"testing"
)

type fakeBackend struct {
	name  string
	infos []DeviceInfo
}

func (f *fakeBackend) Name() string                   { return f.name }
func (f *fakeBackend) Devices() ([]DeviceInfo, error) { return f.infos, nil }
func (f *fakeBackend) Open(local int) (Session, error) {
	return &cpuSession{}, nil
}

func fakeCatalog(t *testing.T, infos ...DeviceInfo) *Catalog {
	t.Helper()
	c, err := enumerate(&fakeBackend{name: "fake", infos: infos})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestEnumerateEmpty(t *testing.T) {
	_, err := enumerate(&fakeBackend{name: "fake"})
	if !errors.Is(err, ErrNoDevice) {
		t.Fatalf("expected ErrNoDevice, got %v", err)
	}
}

func TestEnumerateAssignsIndexes(t *testing.T) {
	c := fakeCatalog(t,
		DeviceInfo{Name: "gpu0", Class: ClassAccelerator},
		DeviceInfo{Name: "gpu1", Class: ClassAccelerator},
	)
	devices := c.Devices()
	if len(devices) != 2 {
		t.Fatalf("expected 2 devices, got %d", len(devices))
	}
	for i, d := range devices {
		if d.Index != i {
			t.Errorf("device %q has index %d, want %d", d.Name, d.Index, i)
		}
	}
}

func TestSelectPrefersLargestMemory(t *testing.T) {
	c := fakeCatalog(t,
		DeviceInfo{Name: "small", GlobalMem: 1},
		DeviceInfo{Name: "medium", GlobalMem: 2},
		DeviceInfo{Name: "large", GlobalMem: 4},
	)
	d, err := c.Select(nil, DefaultPolicy())
	if err != nil {
		t.Fatal(err)
	}
	if d.Name != "large" {
		t.Errorf("selected %q, want %q", d.Name, "large")
	}
}

func TestSelectOverrideWins(t *testing.T) {
	c := fakeCatalog(t,
		DeviceInfo{Name: "small", GlobalMem: 1},
		DeviceInfo{Name: "large", GlobalMem: 4},
	)
	idx := 0
	d, err := c.Select(&idx, DefaultPolicy())
	if err != nil {
		t.Fatal(err)
	}
	if d.Name != "small" {
		t.Errorf("override ignored: selected %q, want %q", d.Name, "small")
	}
}

func TestSelectOverrideOutOfRange(t *testing.T) {
	c := fakeCatalog(t, DeviceInfo{Name: "only"})
	for _, idx := range []int{-1, 1, 42} {
		idx := idx
		if _, err := c.Select(&idx, DefaultPolicy()); !errors.Is(err, ErrBadDeviceIndex) {
			t.Errorf("index %d: expected ErrBadDeviceIndex, got %v", idx, err)
		}
	}
}

func TestSelectVendorTieBreak(t *testing.T) {
	infos := []DeviceInfo{
		{Name: "intel", Vendor: "Intel(R) Corporation", GlobalMem: 8},
		{Name: "nvidia", Vendor: "NVIDIA Corporation", GlobalMem: 8},
		{Name: "amd", Vendor: "AMD", GlobalMem: 8},
	}

	c := fakeCatalog(t, infos...)
	d, err := c.Select(nil, DefaultPolicy())
	if err != nil {
		t.Fatal(err)
	}
	if d.Name != "nvidia" {
		t.Errorf("default policy selected %q, want %q", d.Name, "nvidia")
	}

	d, err = c.Select(nil, Policy{VendorPriority: []string{"amd", "nvidia"}})
	if err != nil {
		t.Fatal(err)
	}
	if d.Name != "amd" {
		t.Errorf("custom policy selected %q, want %q", d.Name, "amd")
	}
}

func TestSelectUnmatchedVendorRanksLast(t *testing.T) {
	c := fakeCatalog(t,
		DeviceInfo{Name: "mystery", Vendor: "Vendor X", GlobalMem: 8},
		DeviceInfo{Name: "intel", Vendor: "Intel", GlobalMem: 8},
	)
	d, err := c.Select(nil, DefaultPolicy())
	if err != nil {
		t.Fatal(err)
	}
	if d.Name != "intel" {
		t.Errorf("selected %q, want %q", d.Name, "intel")
	}
}

// Equal memory and equal vendor rank must keep catalog order: selection is
// deterministic for a fixed catalog and policy.
func TestSelectStable(t *testing.T) {
	c := fakeCatalog(t,
		DeviceInfo{Name: "first", Vendor: "ACME", GlobalMem: 8},
		DeviceInfo{Name: "second", Vendor: "ACME", GlobalMem: 8},
	)
	for i := 0; i < 5; i++ {
		d, err := c.Select(nil, DefaultPolicy())
		if err != nil {
			t.Fatal(err)
		}
		if d.Name != "first" {
			t.Fatalf("run %d: selected %q, want %q", i, d.Name, "first")
		}
	}
}

func TestCatalogOpen(t *testing.T) {
	c := fakeCatalog(t, DeviceInfo{Name: "only"})
	s, err := c.Open(c.Devices()[0])
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	digests, err := s.Dispatch(context.Background(), []byte("abc"), []Span{{Offset: 0, Length: 3}})
	if err != nil {
		t.Fatal(err)
	}
	if len(digests) != 1 {
		t.Fatalf("expected 1 digest, got %d", len(digests))
	}
}
